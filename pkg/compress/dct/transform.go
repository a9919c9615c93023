package dct

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTransform is returned by ByName for unregistered names.
var ErrUnknownTransform = errors.New("dct: unknown transform")

// Transform computes the 2D orthonormal DCT-II of a square block and its
// inverse. Blocks are row-major with n*n samples. Implementations never
// modify src and are safe for concurrent use.
type Transform interface {
	// Name returns the strategy identifier (e.g., "separable")
	Name() string
	// Forward2D writes the DCT-II coefficients of src into dst.
	// dst may be nil, in which case it is allocated.
	Forward2D(dst, src []float64, n int) []float64
	// Inverse2D writes the inverse transform of src into dst.
	Inverse2D(dst, src []float64, n int) []float64
}

// transformsByName maps strategy names to implementations
var transformsByName = map[string]Transform{
	"separable": &Separable{},
	"fast":      NewFast(),
	"matrix":    NewMatrix(),
}

// ByName returns a registered transform.
func ByName(name string) (Transform, error) {
	t, ok := transformsByName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownTransform, name, Names())
	}
	return t, nil
}

// Names lists the registered transforms in sorted order.
func Names() []string {
	names := make([]string, 0, len(transformsByName))
	for name := range transformsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default is the transform used for compression.
func Default() Transform {
	return transformsByName["fast"]
}

// Reference is the direct-summation transform other strategies are checked
// against.
func Reference() Transform {
	return transformsByName["separable"]
}

func checkBlock(src []float64, n int) {
	if n < 1 || len(src) != n*n {
		panic(fmt.Sprintf("dct: block of %d samples is not %dx%d", len(src), n, n))
	}
}
