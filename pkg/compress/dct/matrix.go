package dct

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Matrix computes the 2D transform as C * X * C^T with the orthonormal
// DCT-II matrix C[u][x] = sqrt(2/n) * alpha(u) * cos((2x+1)*u*pi/(2n)).
// C is orthogonal, so the inverse is C^T * Y * C.
type Matrix struct {
	mu    sync.Mutex
	basis map[int]*mat.Dense
}

// NewMatrix returns a Matrix transform with an empty basis cache.
func NewMatrix() *Matrix {
	return &Matrix{basis: make(map[int]*mat.Dense)}
}

func (m *Matrix) Name() string {
	return "matrix"
}

func (m *Matrix) Forward2D(dst, src []float64, n int) []float64 {
	checkBlock(src, n)
	dst = alloc(dst, n*n)
	c := m.cosines(n)
	x := mat.NewDense(n, n, append([]float64(nil), src...))

	var tmp mat.Dense
	tmp.Mul(c, x)
	mat.NewDense(n, n, dst).Mul(&tmp, c.T())
	return dst
}

func (m *Matrix) Inverse2D(dst, src []float64, n int) []float64 {
	checkBlock(src, n)
	dst = alloc(dst, n*n)
	c := m.cosines(n)
	y := mat.NewDense(n, n, append([]float64(nil), src...))

	var tmp mat.Dense
	tmp.Mul(c.T(), y)
	mat.NewDense(n, n, dst).Mul(&tmp, c)
	return dst
}

// cosines returns the cached n x n basis. The returned matrix is only read.
func (m *Matrix) cosines(n int) *mat.Dense {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.basis[n]; ok {
		return c
	}
	data := make([]float64, n*n)
	norm := math.Sqrt(2 / float64(n))
	for u := 0; u < n; u++ {
		for x := 0; x < n; x++ {
			data[u*n+x] = norm * alpha(u) * math.Cos(float64((2*x+1)*u)*math.Pi/float64(2*n))
		}
	}
	c := mat.NewDense(n, n, data)
	m.basis[n] = c
	return c
}
