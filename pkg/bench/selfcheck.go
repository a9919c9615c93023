package bench

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
)

// CorrectnessError reports a strategy that disagrees with the reference.
type CorrectnessError struct {
	Strategy  string
	Size      int
	Op        string // "forward" or "inverse"
	MaxError  float64
	Tolerance float64
}

func (e *CorrectnessError) Error() string {
	return fmt.Sprintf("strategy %s %s N=%d: max error %g exceeds tolerance %g",
		e.Strategy, e.Op, e.Size, e.MaxError, e.Tolerance)
}

// SelfCheck runs every strategy's Forward2D and Inverse2D against the
// reference on one random matrix per size.
func (h *Harness) SelfCheck(ctx context.Context) error {
	ref := h.reference()
	tol := h.tolerance()
	rng := rand.New(rand.NewPCG(h.Seed+1, h.Seed))
	for _, n := range h.Sizes {
		if err := ctx.Err(); err != nil {
			return err
		}
		matrix := RandomMatrix(rng, n)
		wantF := ref.Forward2D(nil, matrix, n)
		wantI := ref.Inverse2D(nil, matrix, n)
		for _, s := range h.Strategies {
			if diff := MaxAbsDiff(s.Forward2D(nil, matrix, n), wantF); !(diff <= tol) {
				return &CorrectnessError{Strategy: s.Name(), Size: n, Op: "forward", MaxError: diff, Tolerance: tol}
			}
			if diff := MaxAbsDiff(s.Inverse2D(nil, matrix, n), wantI); !(diff <= tol) {
				return &CorrectnessError{Strategy: s.Name(), Size: n, Op: "inverse", MaxError: diff, Tolerance: tol}
			}
		}
		h.logger().DebugContext(ctx, "self-check passed", "size", n)
	}
	return nil
}

// MaxAbsDiff returns the largest |a[i]-b[i]|, or +Inf when lengths differ.
// NaN entries propagate.
func MaxAbsDiff(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var m float64
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > m || math.IsNaN(d) {
			m = d
		}
		if math.IsNaN(m) {
			return m
		}
	}
	return m
}
