package pipeline

import (
	"context"
	"fmt"

	"github.com/jpfielding/blockdct/pkg/compress/blockdct"
	"github.com/jpfielding/blockdct/pkg/imageio"
)

// SweepPoint is the distortion of one cutoff.
type SweepPoint struct {
	Cutoff   int
	Retained int
	MSE      float64 // mean over planes
	PSNR     float64
}

// Sweep compresses img in memory at block size f for every cutoff in
// cutoffs, or for all of [0, 2f-2] when cutoffs is empty.
func Sweep(ctx context.Context, c *blockdct.Compressor, img *imageio.Image, f int, cutoffs []int) ([]SweepPoint, error) {
	if len(cutoffs) == 0 {
		for d := 0; d <= blockdct.MaxCutoff(f); d++ {
			cutoffs = append(cutoffs, d)
		}
	}
	if len(img.Planes) == 0 {
		return nil, fmt.Errorf("%w: have 0", imageio.ErrPlaneCount)
	}
	points := make([]SweepPoint, 0, len(cutoffs))
	for _, d := range cutoffs {
		p := blockdct.Params{BlockSize: f, Cutoff: d}
		out, err := c.CompressPlanes(ctx, img.Planes, p)
		if err != nil {
			return nil, err
		}
		var mse float64
		for i := range out {
			mse += blockdct.MSE(img.Planes[i], out[i])
		}
		mse /= float64(len(out))
		points = append(points, SweepPoint{
			Cutoff:   d,
			Retained: blockdct.Retained(f, d),
			MSE:      mse,
			PSNR:     blockdct.PSNRFromMSE(mse),
		})
	}
	return points, nil
}
