package blockdct

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/jpfielding/blockdct/pkg/compress/dct"
)

// Compressor runs the block pipeline with one transform strategy.
type Compressor struct {
	transform dct.Transform
	workers   int
	progress  func(done, total int)
}

// Option configures a Compressor
type Option func(*Compressor)

// WithWorkers sets the number of goroutines sharing the block rows.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(c *Compressor) {
		c.workers = n
	}
}

// WithProgress registers a callback invoked after every finished block
// row. It may be called from several goroutines at once.
func WithProgress(fn func(done, total int)) Option {
	return func(c *Compressor) {
		c.progress = fn
	}
}

// New creates a Compressor. A nil transform selects dct.Default().
func New(t dct.Transform, opts ...Option) *Compressor {
	if t == nil {
		t = dct.Default()
	}
	c := &Compressor{transform: t}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers < 1 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Transform returns the strategy used by the compressor.
func (c *Compressor) Transform() dct.Transform {
	return c.transform
}

// Compress is New(nil).Compress with a background context.
func Compress(src *Plane, f, d int) (*Plane, error) {
	return New(nil).Compress(context.Background(), src, Params{BlockSize: f, Cutoff: d})
}

// Compress returns a new plane of F*(H div F) x F*(W div F) samples holding
// the reconstruction of every complete block of src. Rows and columns that
// do not fill a whole block are dropped. src is not modified.
func (c *Compressor) Compress(ctx context.Context, src *Plane, p Params) (*Plane, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if src == nil || src.Width < 0 || src.Height < 0 || len(src.Pix) != src.Width*src.Height {
		return nil, &ConfigError{Field: "plane", Value: describe(src), Err: ErrInvalidInput}
	}

	f := p.BlockSize
	rows, cols := src.Height/f, src.Width/f
	out := NewPlane(cols*f, rows*f)
	if rows == 0 || cols == 0 {
		return out, nil
	}

	// Each worker owns whole block rows, so writes to out never overlap.
	jobs := make(chan int)
	var wg sync.WaitGroup
	var done atomic.Int64
	for w := 0; w < min(c.workers, rows); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			block := make([]float64, f*f)
			coeffs := make([]float64, f*f)
			rec := make([]float64, f*f)
			for by := range jobs {
				for bx := 0; bx < cols; bx++ {
					src.readBlock(block, bx*f, by*f, f)
					c.reconstruct(rec, coeffs, block, f, p.Cutoff)
					out.writeBlock(rec, bx*f, by*f, f)
				}
				if c.progress != nil {
					c.progress(int(done.Add(1)), rows)
				}
			}
		}()
	}

	var err error
feed:
	for by := 0; by < rows; by++ {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- by:
		}
	}
	close(jobs)
	wg.Wait()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompressPlanes compresses every channel independently with the same
// parameters.
func (c *Compressor) CompressPlanes(ctx context.Context, planes []*Plane, p Params) ([]*Plane, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out := make([]*Plane, len(planes))
	for i, plane := range planes {
		res, err := c.Compress(ctx, plane, p)
		if err != nil {
			return nil, fmt.Errorf("plane %d: %w", i, err)
		}
		out[i] = res
	}
	return out, nil
}

// ReconstructBlock returns the unrounded reconstruction of the f x f block
// after discarding the coefficients with k+l >= d.
func (c *Compressor) ReconstructBlock(dst, block []float64, f, d int) []float64 {
	if dst == nil {
		dst = make([]float64, f*f)
	}
	c.reconstruct(dst, make([]float64, f*f), block, f, d)
	return dst
}

func (c *Compressor) reconstruct(dst, coeffs, block []float64, f, d int) {
	c.transform.Forward2D(coeffs, block, f)
	Mask(coeffs, f, d)
	c.transform.Inverse2D(dst, coeffs, f)
}

// ToSample rounds v half to even and clamps it to [0,255].
func ToSample(v float64) uint8 {
	r := math.RoundToEven(v)
	switch {
	case r <= 0 || math.IsNaN(r):
		return 0
	case r >= 255:
		return 255
	}
	return uint8(r)
}

func describe(p *Plane) string {
	if p == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%dx%d with %d samples", p.Width, p.Height, len(p.Pix))
}
