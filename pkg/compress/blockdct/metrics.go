package blockdct

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MSE is the mean squared error between a and b over their common
// top-left region. Planes with no common region have zero error.
func MSE(a, b *Plane) float64 {
	w, h := min(a.Width, b.Width), min(a.Height, b.Height)
	if w == 0 || h == 0 {
		return 0
	}
	x := make([]float64, 0, w*h)
	y := make([]float64, 0, w*h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			x = append(x, float64(a.At(col, row)))
			y = append(y, float64(b.At(col, row)))
		}
	}
	return BlockMSE(x, y)
}

// BlockMSE is the mean squared error between two equally sized sample sets.
func BlockMSE(x, y []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	d := floats.Distance(x, y, 2)
	return d * d / float64(len(x))
}

// PSNR returns the peak signal-to-noise ratio in dB for 8-bit samples,
// +Inf for identical planes.
func PSNR(a, b *Plane) float64 {
	return PSNRFromMSE(MSE(a, b))
}

// PSNRFromMSE converts a mean squared error of 8-bit samples to dB.
func PSNRFromMSE(mse float64) float64 {
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255/mse)
}
