// Package blockdct compresses 8-bit sample planes by tiling them into
// square blocks, transforming each block with a 2D DCT-II, discarding the
// coefficients on or past an anti-diagonal cutoff and transforming back.
package blockdct

import (
	"fmt"
)

// Plane is a single channel of 8-bit samples stored row-major.
type Plane struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPlane allocates a zeroed width x height plane.
func NewPlane(width, height int) *Plane {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("blockdct: invalid plane size %dx%d", width, height))
	}
	return &Plane{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// At returns the sample at column x, row y.
func (p *Plane) At(x, y int) uint8 {
	return p.Pix[y*p.Width+x]
}

// Set stores the sample at column x, row y.
func (p *Plane) Set(x, y int, v uint8) {
	p.Pix[y*p.Width+x] = v
}

// Crop copies the top-left width x height region into a new plane.
func (p *Plane) Crop(width, height int) *Plane {
	if width > p.Width || height > p.Height {
		panic(fmt.Sprintf("blockdct: crop %dx%d exceeds plane %dx%d", width, height, p.Width, p.Height))
	}
	out := NewPlane(width, height)
	for y := 0; y < height; y++ {
		copy(out.Pix[y*width:(y+1)*width], p.Pix[y*p.Width:y*p.Width+width])
	}
	return out
}

// readBlock loads the f x f block with top-left corner (x0, y0) into dst.
func (p *Plane) readBlock(dst []float64, x0, y0, f int) {
	for y := 0; y < f; y++ {
		row := p.Pix[(y0+y)*p.Width+x0:]
		for x := 0; x < f; x++ {
			dst[y*f+x] = float64(row[x])
		}
	}
}

// writeBlock rounds src half to even, clamps it to [0,255] and stores it
// at (x0, y0).
func (p *Plane) writeBlock(src []float64, x0, y0, f int) {
	for y := 0; y < f; y++ {
		row := p.Pix[(y0+y)*p.Width+x0:]
		for x := 0; x < f; x++ {
			row[x] = ToSample(src[y*f+x])
		}
	}
}
