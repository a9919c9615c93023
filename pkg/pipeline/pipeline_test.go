package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/blockdct/pkg/compress/blockdct"
	"github.com/jpfielding/blockdct/pkg/compress/dct"
	"github.com/jpfielding/blockdct/pkg/imageio"
)

type recordingViewer struct {
	opened []string
	err    error
}

func (v *recordingViewer) Open(_ context.Context, path string) error {
	v.opened = append(v.opened, path)
	return v.err
}

func writeGradient(t *testing.T, path string, width, height int, gray bool) {
	t.Helper()
	var src image.Image
	if gray {
		img := image.NewGray(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				img.SetGray(x, y, color.Gray{Y: uint8(x*5 + y*3)})
			}
		}
		src = img
	} else {
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				img.SetRGBA(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 6), B: uint8(x + 2*y), A: 0xff})
			}
		}
		src = img
	}
	format, err := imageio.FormatFromPath(path)
	require.NoError(t, err)
	require.NoError(t, imageio.WriteFile(path, imageio.FromImage(src, format, nil)))
}

func quietPipeline(v Viewer) (*Pipeline, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Pipeline{
		Viewer: v,
		Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}, &buf
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		in   string
		f, d int
		want string
	}{
		{"photo.bmp", 8, 7, "photo_compressed_F8_d7.bmp"},
		{"/tmp/in/deer.png", 16, 30, "deer_compressed_F16_d30.png"},
		{"a.b.jpg", 1, 0, "a.b_compressed_F1_d0.jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputName(tt.in, tt.f, tt.d), tt.in)
	}
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.bmp")
	writeGradient(t, input, 8, 8, true)
	notImage := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notImage, []byte("x"), 0644))

	valid := Config{InputPath: input, OutputDir: filepath.Join(dir, "out"), BlockSize: 8, Cutoff: 7}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr error
	}{
		{"zero block", func(c *Config) { c.BlockSize = 0 }, "block size", blockdct.ErrInvalidBlockSize},
		{"cutoff too large", func(c *Config) { c.Cutoff = 15 }, "cutoff", blockdct.ErrInvalidCutoff},
		{"negative cutoff", func(c *Config) { c.Cutoff = -1 }, "cutoff", blockdct.ErrInvalidCutoff},
		{"no input", func(c *Config) { c.InputPath = "" }, "input", blockdct.ErrInvalidInput},
		{"missing input", func(c *Config) { c.InputPath = filepath.Join(dir, "nope.bmp") }, "input", blockdct.ErrInvalidInput},
		{"input is dir", func(c *Config) { c.InputPath = dir }, "input", blockdct.ErrInvalidInput},
		{"input not an image", func(c *Config) { c.InputPath = notImage }, "input", blockdct.ErrInvalidInput},
		{"no output", func(c *Config) { c.OutputDir = "" }, "output dir", blockdct.ErrInvalidOutput},
		{"output is file", func(c *Config) { c.OutputDir = input }, "output dir", blockdct.ErrInvalidOutput},
		{"unknown transform", func(c *Config) { c.Transform = "wavelet" }, "transform", dct.ErrUnknownTransform},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var ce *blockdct.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRun_Gray(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "ramp.bmp")
	writeGradient(t, input, 21, 18, true)
	outDir := filepath.Join(dir, "nested", "out")

	viewer := &recordingViewer{}
	p, logs := quietPipeline(viewer)
	res, err := p.Run(context.Background(), Config{
		InputPath: input,
		OutputDir: outDir,
		BlockSize: 8,
		Cutoff:    14,
		Workers:   3,
	})
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(res.OutputPath))
	assert.Equal(t, "ramp_compressed_F8_d14.bmp", filepath.Base(res.OutputPath))
	assert.FileExists(t, res.OutputPath)
	assert.Equal(t, 16, res.Width)
	assert.Equal(t, 16, res.Height)
	assert.Equal(t, 1, res.Planes)
	assert.Equal(t, 63, res.Retained)
	require.Len(t, res.PSNR, 1)
	assert.Greater(t, res.PSNR[0], 40.0)
	assert.Empty(t, viewer.opened, "display not requested")
	assert.Contains(t, logs.String(), "image saved")

	got, err := imageio.ReadFile(res.OutputPath, nil)
	require.NoError(t, err)
	assert.Equal(t, 16, got.Width())
	assert.Equal(t, 16, got.Height())
	assert.True(t, got.IsGray())
}

func TestRun_ColorAndGrayscaleOption(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "color.png")
	writeGradient(t, input, 16, 8, false)

	p, _ := quietPipeline(nil)
	res, err := p.Run(context.Background(), Config{InputPath: input, OutputDir: dir, BlockSize: 4, Cutoff: 3, Transform: "separable"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Planes)
	assert.Len(t, res.PSNR, 3)
	assert.Equal(t, 6, res.Retained)

	res, err = p.Run(context.Background(), Config{InputPath: input, OutputDir: dir, BlockSize: 4, Cutoff: 3, Grayscale: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Planes)
}

func TestRun_LossyOutputWarns(t *testing.T) {
	tests := []struct {
		name string
		file string
		warn bool
	}{
		{"jpeg", "in.jpg", true},
		{"png", "in.png", false},
		{"bmp", "in.bmp", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			input := filepath.Join(dir, tt.file)
			writeGradient(t, input, 16, 16, true)

			p, logs := quietPipeline(nil)
			_, err := p.Run(context.Background(), Config{InputPath: input, OutputDir: dir, BlockSize: 8, Cutoff: 5})
			require.NoError(t, err)
			if tt.warn {
				assert.Contains(t, logs.String(), "jpeg output is lossy")
			} else {
				assert.NotContains(t, logs.String(), "jpeg output is lossy")
			}
		})
	}
}

func TestRun_TransformsAgree(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	writeGradient(t, input, 32, 32, true)

	p, _ := quietPipeline(nil)
	var first []byte
	for _, name := range dct.Names() {
		out := filepath.Join(dir, name)
		res, err := p.Run(context.Background(), Config{InputPath: input, OutputDir: out, BlockSize: 16, Cutoff: 9, Transform: name})
		require.NoError(t, err, name)
		got, err := imageio.ReadFile(res.OutputPath, nil)
		require.NoError(t, err)
		if first == nil {
			first = got.Planes[0].Pix
			continue
		}
		assert.Equal(t, first, got.Planes[0].Pix, name)
	}
}

func TestRun_Display(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.bmp")
	writeGradient(t, input, 8, 8, true)

	viewer := &recordingViewer{err: errors.New("no display")}
	p, logs := quietPipeline(viewer)
	res, err := p.Run(context.Background(), Config{InputPath: input, OutputDir: dir, BlockSize: 8, Cutoff: 1, Display: true})
	require.NoError(t, err, "viewer failures are not fatal")
	assert.Equal(t, []string{input, res.OutputPath}, viewer.opened)
	assert.Contains(t, logs.String(), "error opening the image")
}

func TestRun_ConfigErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.bmp")
	writeGradient(t, input, 8, 8, true)
	outDir := filepath.Join(dir, "out")

	p, _ := quietPipeline(nil)
	_, err := p.Run(context.Background(), Config{InputPath: input, OutputDir: outDir, BlockSize: 8, Cutoff: 99})
	require.ErrorIs(t, err, blockdct.ErrInvalidCutoff)
	assert.NoDirExists(t, outDir)
}

func TestRun_ImageSmallerThanBlock(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "tiny.bmp")
	writeGradient(t, input, 5, 9, true)
	outDir := filepath.Join(dir, "out")

	p, _ := quietPipeline(nil)
	_, err := p.Run(context.Background(), Config{InputPath: input, OutputDir: outDir, BlockSize: 8, Cutoff: 3})
	var ce *blockdct.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, blockdct.ErrInvalidBlockSize)
	assert.NoDirExists(t, outDir)
}

func TestRun_CorruptInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	require.NoError(t, os.WriteFile(input, []byte("not a png"), 0644))

	p, _ := quietPipeline(nil)
	_, err := p.Run(context.Background(), Config{InputPath: input, OutputDir: dir, BlockSize: 8, Cutoff: 3})
	var ffe *imageio.FileFormatError
	require.ErrorAs(t, err, &ffe)
	assert.Equal(t, input, ffe.Path)
}

func TestRun_Canceled(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.bmp")
	writeGradient(t, input, 64, 64, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, _ := quietPipeline(nil)
	_, err := p.Run(ctx, Config{InputPath: input, OutputDir: filepath.Join(dir, "out"), BlockSize: 8, Cutoff: 3})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSystemViewer_Command(t *testing.T) {
	tests := []struct {
		goos string
		name string
		args []string
	}{
		{"darwin", "open", []string{"x.bmp"}},
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", "x.bmp"}},
		{"linux", "xdg-open", []string{"x.bmp"}},
		{"freebsd", "xdg-open", []string{"x.bmp"}},
	}
	for _, tt := range tests {
		name, args := SystemViewer{GOOS: tt.goos}.Command("x.bmp")
		assert.Equal(t, tt.name, name, tt.goos)
		assert.Equal(t, tt.args, args, tt.goos)
	}
}

func TestSystemViewer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SystemViewer{}.Open(ctx, "x.bmp"), context.Canceled)
}

func TestSweep(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			src.SetGray(x, y, color.Gray{Y: uint8(x*7 + y*4)})
		}
	}
	img := imageio.FromImage(src, imageio.FormatPNG, nil)
	c := blockdct.New(nil, blockdct.WithWorkers(2))

	points, err := Sweep(context.Background(), c, img, 4, nil)
	require.NoError(t, err)
	require.Len(t, points, 7)
	for i, p := range points {
		assert.Equal(t, i, p.Cutoff)
		assert.Equal(t, blockdct.Retained(4, i), p.Retained)
	}
	assert.Greater(t, points[0].MSE, points[1].MSE)
	assert.Equal(t, 0.0, points[6].MSE, "additive ramp has no (F-1,F-1) energy")
	assert.True(t, math.IsInf(points[6].PSNR, 1))

	some, err := Sweep(context.Background(), c, img, 8, []int{3, 14})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, 14, some[1].Cutoff)

	_, err = Sweep(context.Background(), c, img, 4, []int{7})
	assert.ErrorIs(t, err, blockdct.ErrInvalidCutoff)

	_, err = Sweep(context.Background(), c, &imageio.Image{}, 4, nil)
	assert.ErrorIs(t, err, imageio.ErrPlaneCount)
}
