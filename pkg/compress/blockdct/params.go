package blockdct

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrInvalidBlockSize = errors.New("invalid block size")
	ErrInvalidCutoff    = errors.New("invalid cutoff")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidOutput    = errors.New("invalid output")
)

// ConfigError reports a parameter rejected before any numeric work starts.
type ConfigError struct {
	Field string // offending parameter, e.g. "cutoff"
	Value string
	Err   error // one of the sentinel errors above
	Hint  string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("configuration error: %s %s: %v", e.Field, e.Value, e.Err)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Params are the block dimension F and the cutoff d. A coefficient at
// (k,l) survives iff k+l < d.
type Params struct {
	BlockSize int // F
	Cutoff    int // d
}

// MaxCutoff returns the largest valid cutoff for block size f, 2f-2.
func MaxCutoff(f int) int {
	return 2*f - 2
}

// Validate checks F >= 1 and 0 <= d <= 2F-2.
func (p Params) Validate() error {
	if p.BlockSize < 1 {
		return &ConfigError{
			Field: "block size",
			Value: fmt.Sprintf("F=%d", p.BlockSize),
			Err:   ErrInvalidBlockSize,
			Hint:  "must be at least 1",
		}
	}
	if p.Cutoff < 0 || p.Cutoff > MaxCutoff(p.BlockSize) {
		return &ConfigError{
			Field: "cutoff",
			Value: fmt.Sprintf("d=%d for F=%d", p.Cutoff, p.BlockSize),
			Err:   ErrInvalidCutoff,
			Hint:  fmt.Sprintf("must be in [0, %d]", MaxCutoff(p.BlockSize)),
		}
	}
	return nil
}

// ClampCutoff pulls d back into [0, 2F-2], as a front-end does when F
// changes under an existing d.
func ClampCutoff(f, d int) int {
	if d < 0 || f < 1 {
		return 0
	}
	if m := MaxCutoff(f); d > m {
		return m
	}
	return d
}

// Retained counts the coefficients of an f x f block that survive cutoff d.
func Retained(f, d int) int {
	n := 0
	for k := 0; k < f; k++ {
		for l := 0; l < f; l++ {
			if k+l < d {
				n++
			}
		}
	}
	return n
}

// Mask zeroes every coefficient at (k,l) with k+l >= d in the row-major
// f x f block.
func Mask(coeffs []float64, f, d int) {
	for k := 0; k < f; k++ {
		for l := 0; l < f; l++ {
			if k+l >= d {
				coeffs[k*f+l] = 0
			}
		}
	}
}
