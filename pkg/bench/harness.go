// Package bench times 2D DCT strategies over increasing block sizes after
// checking that they agree with a reference transform.
package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jpfielding/blockdct/pkg/compress/dct"
)

// Common errors
var (
	ErrNoStrategies  = errors.New("no strategies to benchmark")
	ErrInvalidSizes  = errors.New("sizes must be positive and ascending")
	ErrInvalidConfig = errors.New("invalid benchmark configuration")
)

const (
	DefaultIterations = 10
	// DefaultTolerance bounds the per-entry disagreement with the reference.
	DefaultTolerance = 1e-1
)

// DefaultSizes are the block sizes timed when none are given.
var DefaultSizes = []int{16, 32, 64}

// Record holds the mean seconds per call of every strategy at one size.
type Record struct {
	Size    int
	Seconds map[string]float64
}

// Harness runs a benchmark. The zero value is not usable; Strategies and
// Sizes must be set.
type Harness struct {
	Strategies []dct.Transform
	Reference  dct.Transform // nil selects dct.Reference()
	Sizes      []int
	Iterations int     // 0 selects DefaultIterations
	Tolerance  float64 // 0 selects DefaultTolerance
	Seed       uint64
	Sink       Sink         // optional, receives each record as it is produced
	Logger     *slog.Logger // nil selects slog.Default()
}

// Names lists the strategy names in harness order.
func (h *Harness) Names() []string {
	names := make([]string, len(h.Strategies))
	for i, s := range h.Strategies {
		names[i] = s.Name()
	}
	return names
}

func (h *Harness) iterations() int {
	if h.Iterations == 0 {
		return DefaultIterations
	}
	return h.Iterations
}

func (h *Harness) tolerance() float64 {
	if h.Tolerance == 0 {
		return DefaultTolerance
	}
	return h.Tolerance
}

func (h *Harness) reference() dct.Transform {
	if h.Reference == nil {
		return dct.Reference()
	}
	return h.Reference
}

func (h *Harness) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// Validate checks the harness configuration.
func (h *Harness) Validate() error {
	if len(h.Strategies) == 0 {
		return ErrNoStrategies
	}
	seen := map[string]bool{}
	for _, s := range h.Strategies {
		if s == nil {
			return fmt.Errorf("%w: nil strategy", ErrInvalidConfig)
		}
		if seen[s.Name()] {
			return fmt.Errorf("%w: duplicate strategy %q", ErrInvalidConfig, s.Name())
		}
		seen[s.Name()] = true
	}
	if len(h.Sizes) == 0 {
		return fmt.Errorf("%w: none given", ErrInvalidSizes)
	}
	for i, n := range h.Sizes {
		if n < 1 || (i > 0 && n <= h.Sizes[i-1]) {
			return fmt.Errorf("%w: %v", ErrInvalidSizes, h.Sizes)
		}
	}
	if h.Iterations < 0 {
		return fmt.Errorf("%w: iterations %d", ErrInvalidConfig, h.Iterations)
	}
	if h.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance %g", ErrInvalidConfig, h.Tolerance)
	}
	return nil
}

// Run validates the harness, self-checks every strategy and then times
// them size by size. A failed self-check returns a *CorrectnessError and
// no records. Timing is sequential; ctx is checked between calls.
func (h *Harness) Run(ctx context.Context) ([]Record, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if err := h.SelfCheck(ctx); err != nil {
		return nil, err
	}
	return h.Time(ctx)
}

// Time validates the harness and times the strategies size by size
// without a self-check. Callers that open sinks should run SelfCheck
// first so a failing strategy leaves nothing behind.
func (h *Harness) Time(ctx context.Context) ([]Record, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	log := h.logger()
	log.InfoContext(ctx, "starting benchmark",
		"strategies", h.Names(),
		"sizes", h.Sizes,
		"iterations", h.iterations())

	rng := rand.New(rand.NewPCG(h.Seed, h.Seed^0x9e3779b97f4a7c15))
	var records []Record
	for _, n := range h.Sizes {
		matrix := RandomMatrix(rng, n)
		rec := Record{Size: n, Seconds: make(map[string]float64, len(h.Strategies))}
		for _, s := range h.Strategies {
			secs, err := h.time(ctx, s, matrix, n)
			if err != nil {
				return records, err
			}
			rec.Seconds[s.Name()] = secs
			log.DebugContext(ctx, "timed strategy", "strategy", s.Name(), "size", n, "seconds", secs)
		}
		records = append(records, rec)
		if h.Sink != nil {
			if err := h.Sink.WriteRecord(rec); err != nil {
				return records, fmt.Errorf("write record N=%d: %w", n, err)
			}
		}
	}
	log.InfoContext(ctx, "benchmark completed", "records", len(records))
	return records, nil
}

// time returns the mean wall-clock seconds of one Forward2D call.
func (h *Harness) time(ctx context.Context, s dct.Transform, matrix []float64, n int) (float64, error) {
	dst := make([]float64, n*n)
	var total time.Duration
	iters := h.iterations()
	for i := 0; i < iters; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		start := time.Now()
		s.Forward2D(dst, matrix, n)
		total += time.Since(start)
	}
	return total.Seconds() / float64(iters), nil
}

// RandomMatrix returns an n×n row-major matrix with entries uniform in [0,255).
func RandomMatrix(rng *rand.Rand, n int) []float64 {
	m := make([]float64, n*n)
	for i := range m {
		m[i] = rng.Float64() * 255
	}
	return m
}
