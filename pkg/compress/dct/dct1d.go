// Package dct implements the orthonormal Type-II discrete cosine transform
// and its inverse for 1D signals and square 2D blocks.
//
// The 1D DCT-II used throughout:
//
//	X[u] = sqrt(2/N) * alpha(u) * sum_{x=0}^{N-1} s[x] * cos((2x+1)*u*pi / (2N))
//	alpha(0) = 1/sqrt(2), alpha(u>0) = 1
//
// which matches scipy's dct(type=2, norm='ortho'). The inverse is the
// orthonormal DCT-III.
package dct

import (
	"math"
)

// Forward1D computes the orthonormal DCT-II of src by direct summation.
// dst may be nil, in which case a new slice is allocated. dst must not
// alias src.
func Forward1D(dst, src []float64) []float64 {
	n := len(src)
	dst = alloc(dst, n)
	if n == 0 {
		return dst
	}
	norm := math.Sqrt(2 / float64(n))
	for u := 0; u < n; u++ {
		sum := 0.0
		for x := 0; x < n; x++ {
			sum += src[x] * math.Cos(float64((2*x+1)*u)*math.Pi/float64(2*n))
		}
		dst[u] = norm * alpha(u) * sum
	}
	return dst
}

// Inverse1D computes the orthonormal inverse of Forward1D (a DCT-III) by
// direct summation.
func Inverse1D(dst, src []float64) []float64 {
	n := len(src)
	dst = alloc(dst, n)
	if n == 0 {
		return dst
	}
	norm := math.Sqrt(2 / float64(n))
	for x := 0; x < n; x++ {
		sum := 0.0
		for u := 0; u < n; u++ {
			sum += alpha(u) * src[u] * math.Cos(float64((2*x+1)*u)*math.Pi/float64(2*n))
		}
		dst[x] = norm * sum
	}
	return dst
}

func alpha(u int) float64 {
	if u == 0 {
		return math.Sqrt2 / 2
	}
	return 1
}

// alloc returns dst when it has length n, a new slice when dst is nil and
// panics otherwise.
func alloc(dst []float64, n int) []float64 {
	if dst == nil {
		return make([]float64, n)
	}
	if len(dst) != n {
		panic("dct: destination length mismatch")
	}
	return dst
}
