// Package imageio converts bitmap files to and from 8-bit sample planes:
// one plane for grayscale images, three (R, G, B) for everything else.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/jpfielding/blockdct/pkg/compress/blockdct"
)

// Common errors
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrPlaneMismatch     = errors.New("planes differ in size")
	ErrPlaneCount        = errors.New("image needs 1 or 3 planes")
)

// FileFormatError reports a decode or encode failure.
type FileFormatError struct {
	Path string // empty for stream operations
	Op   string // "decode" or "encode"
	Err  error
}

func (e *FileFormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s image: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s image %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileFormatError) Unwrap() error {
	return e.Err
}

// Supported container formats, as reported by image.Decode
const (
	FormatBMP  = "bmp"
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// JPEGQuality is used when re-encoding JPEG inputs.
const JPEGQuality = 100

// Options configures decoding
type Options struct {
	// Grayscale converts color inputs to a single luminance plane.
	Grayscale bool
}

// Image is a decoded bitmap split into channels.
type Image struct {
	Format string
	Planes []*blockdct.Plane
}

// Width returns the width shared by every plane.
func (img *Image) Width() int {
	if len(img.Planes) == 0 {
		return 0
	}
	return img.Planes[0].Width
}

// Height returns the height shared by every plane.
func (img *Image) Height() int {
	if len(img.Planes) == 0 {
		return 0
	}
	return img.Planes[0].Height
}

// IsGray reports whether the image has a single plane.
func (img *Image) IsGray() bool {
	return len(img.Planes) == 1
}

// FormatFromPath maps a file extension to a container format.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp", ".dib":
		return FormatBMP, nil
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadFile decodes the image at path.
func ReadFile(path string, opts *Options) (*Image, error) {
	if _, err := FormatFromPath(path); err != nil {
		return nil, &FileFormatError{Path: path, Op: "decode", Err: err}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := Decode(f, opts)
	if err != nil {
		var ffe *FileFormatError
		if errors.As(err, &ffe) {
			ffe.Path = path
		}
		return nil, err
	}
	return img, nil
}

// Decode reads a BMP, PNG or JPEG stream.
func Decode(r io.Reader, opts *Options) (*Image, error) {
	if opts == nil {
		opts = &Options{}
	}
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, &FileFormatError{Op: "decode", Err: err}
	}
	return FromImage(src, format, opts), nil
}

// FromImage splits src into planes. Grayscale sources (including palettes
// of gray entries) give one plane, all others three. Alpha is dropped.
func FromImage(src image.Image, format string, opts *Options) *Image {
	if opts == nil {
		opts = &Options{}
	}
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := &Image{Format: format}

	if opts.Grayscale || isGray(src) {
		plane := blockdct.NewPlane(width, height)
		if g, ok := src.(*image.Gray); ok {
			for y := 0; y < height; y++ {
				start := g.PixOffset(bounds.Min.X, bounds.Min.Y+y)
				copy(plane.Pix[y*width:(y+1)*width], g.Pix[start:start+width])
			}
		} else {
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					c := color.GrayModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
					plane.Set(x, y, c.Y)
				}
			}
		}
		out.Planes = []*blockdct.Plane{plane}
		return out
	}

	r := blockdct.NewPlane(width, height)
	g := blockdct.NewPlane(width, height)
	b := blockdct.NewPlane(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			r.Set(x, y, c.R)
			g.Set(x, y, c.G)
			b.Set(x, y, c.B)
		}
	}
	out.Planes = []*blockdct.Plane{r, g, b}
	return out
}

func isGray(src image.Image) bool {
	switch s := src.(type) {
	case *image.Gray, *image.Gray16:
		return true
	case *image.Paletted:
		for _, c := range s.Palette {
			r, g, b, _ := c.RGBA()
			if r != g || g != b {
				return false
			}
		}
		return true
	}
	return false
}

// ToImage reassembles the planes into an *image.Gray or opaque *image.RGBA.
func (img *Image) ToImage() (image.Image, error) {
	switch len(img.Planes) {
	case 1:
		p := img.Planes[0]
		g := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
		copy(g.Pix, p.Pix)
		return g, nil
	case 3:
		r, gp, b := img.Planes[0], img.Planes[1], img.Planes[2]
		if gp.Width != r.Width || b.Width != r.Width || gp.Height != r.Height || b.Height != r.Height {
			return nil, ErrPlaneMismatch
		}
		rgba := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
		for i := range r.Pix {
			rgba.Pix[4*i] = r.Pix[i]
			rgba.Pix[4*i+1] = gp.Pix[i]
			rgba.Pix[4*i+2] = b.Pix[i]
			rgba.Pix[4*i+3] = 0xff
		}
		return rgba, nil
	default:
		return nil, fmt.Errorf("%w: have %d", ErrPlaneCount, len(img.Planes))
	}
}

// Encode writes img in img.Format.
func Encode(w io.Writer, img *Image) error {
	out, err := img.ToImage()
	if err != nil {
		return &FileFormatError{Op: "encode", Err: err}
	}
	switch img.Format {
	case FormatBMP:
		err = bmp.Encode(w, out)
	case FormatPNG:
		err = png.Encode(w, out)
	case FormatJPEG:
		err = jpeg.Encode(w, out, &jpeg.Options{Quality: JPEGQuality})
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, img.Format)
	}
	if err != nil {
		return &FileFormatError{Op: "encode", Err: err}
	}
	return nil
}

// WriteFile encodes img to path in the format named by its extension.
func WriteFile(path string, img *Image) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return &FileFormatError{Path: path, Op: "encode", Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := *img
	enc.Format = format
	if err := Encode(f, &enc); err != nil {
		f.Close()
		os.Remove(path)
		var ffe *FileFormatError
		if errors.As(err, &ffe) {
			ffe.Path = path
		}
		return err
	}
	return f.Close()
}
