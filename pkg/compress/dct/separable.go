package dct

// Separable computes the 2D transform as two passes of the direct 1D
// transform: every row, then every column. Each pass is O(n^3) for an n*n
// block.
type Separable struct{}

func (s *Separable) Name() string {
	return "separable"
}

// Forward2D transforms rows then columns.
func (s *Separable) Forward2D(dst, src []float64, n int) []float64 {
	checkBlock(src, n)
	dst = alloc(dst, n*n)

	// Transform rows
	out := make([]float64, n)
	for y := 0; y < n; y++ {
		offset := y * n
		Forward1D(out, src[offset:offset+n])
		copy(dst[offset:offset+n], out)
	}

	// Transform columns
	col := make([]float64, n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			col[y] = dst[y*n+x]
		}
		Forward1D(out, col)
		for y := 0; y < n; y++ {
			dst[y*n+x] = out[y]
		}
	}
	return dst
}

// Inverse2D undoes Forward2D: columns first, then rows.
func (s *Separable) Inverse2D(dst, src []float64, n int) []float64 {
	checkBlock(src, n)
	dst = alloc(dst, n*n)

	col := make([]float64, n)
	out := make([]float64, n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			col[y] = src[y*n+x]
		}
		Inverse1D(out, col)
		for y := 0; y < n; y++ {
			dst[y*n+x] = out[y]
		}
	}

	row := make([]float64, n)
	for y := 0; y < n; y++ {
		offset := y * n
		copy(row, dst[offset:offset+n])
		Inverse1D(dst[offset:offset+n], row)
	}
	return dst
}
