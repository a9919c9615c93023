// Package pipeline runs a block-DCT compression of one image file:
// decode, compress every channel, encode next to the other results.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/jpfielding/blockdct/pkg/compress/blockdct"
	"github.com/jpfielding/blockdct/pkg/compress/dct"
	"github.com/jpfielding/blockdct/pkg/imageio"
)

// Result describes a finished run.
type Result struct {
	InputPath  string
	OutputPath string // absolute
	Format     string
	Width      int // output width, F*(W div F)
	Height     int // output height, F*(H div F)
	Planes     int
	Retained   int // coefficients kept per block
	// PSNR compares each input plane with its reconstruction before
	// encoding. JPEG output is re-encoded lossily, so the written file
	// differs from the planes measured here.
	PSNR    []float64
	Elapsed time.Duration
}

// Pipeline wires the image codec, the compressor and the viewer.
type Pipeline struct {
	Viewer Viewer       // nil disables Display
	Logger *slog.Logger // nil selects slog.Default()
	// ProgressInterval throttles progress logs; 0 means one per second.
	ProgressInterval time.Duration
}

// New returns a Pipeline using the system viewer and the default logger.
func New() *Pipeline {
	return &Pipeline{Viewer: SystemViewer{}}
}

// Run compresses cfg.InputPath into cfg.OutputDir. Configuration errors
// are returned before any numeric work and nothing is written for
// them.
func (p *Pipeline) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()

	transform := dct.Default()
	if cfg.Transform != "" {
		transform, _ = dct.ByName(cfg.Transform) // checked by Validate
	}

	img, err := imageio.ReadFile(cfg.InputPath, &imageio.Options{Grayscale: cfg.Grayscale})
	if err != nil {
		return nil, err
	}
	log.DebugContext(ctx, "decoded input",
		"path", cfg.InputPath,
		"format", img.Format,
		"width", img.Width(),
		"height", img.Height(),
		"planes", len(img.Planes))
	if img.Width() < cfg.BlockSize || img.Height() < cfg.BlockSize {
		return nil, &blockdct.ConfigError{
			Field: "block",
			Value: fmt.Sprint(cfg.BlockSize),
			Err:   blockdct.ErrInvalidBlockSize,
			Hint:  fmt.Sprintf("image is %dx%d, no full block fits", img.Width(), img.Height()),
		}
	}

	interval := p.ProgressInterval
	if interval == 0 {
		interval = time.Second
	}
	throttle := &rate.Sometimes{Interval: interval}
	params := cfg.Params()

	out := &imageio.Image{Format: img.Format, Planes: make([]*blockdct.Plane, len(img.Planes))}
	psnr := make([]float64, len(img.Planes))
	for i, plane := range img.Planes {
		c := blockdct.New(transform,
			blockdct.WithWorkers(cfg.Workers),
			blockdct.WithProgress(func(done, total int) {
				throttle.Do(func() {
					log.InfoContext(ctx, "compressing", "plane", i, "rows", done, "of", total)
				})
			}))
		res, err := c.Compress(ctx, plane, params)
		if err != nil {
			return nil, fmt.Errorf("plane %d: %w", i, err)
		}
		out.Planes[i] = res
		psnr[i] = blockdct.PSNR(plane, res)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	outPath, err := filepath.Abs(filepath.Join(cfg.OutputDir, OutputName(cfg.InputPath, cfg.BlockSize, cfg.Cutoff)))
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}
	if err := imageio.WriteFile(outPath, out); err != nil {
		return nil, err
	}
	if out.Format == imageio.FormatJPEG {
		log.WarnContext(ctx, "jpeg output is lossy, PSNR describes the planes before encoding",
			"path", outPath, "quality", imageio.JPEGQuality)
	}

	result := &Result{
		InputPath:  cfg.InputPath,
		OutputPath: outPath,
		Format:     out.Format,
		Width:      out.Width(),
		Height:     out.Height(),
		Planes:     len(out.Planes),
		Retained:   blockdct.Retained(cfg.BlockSize, cfg.Cutoff),
		PSNR:       psnr,
		Elapsed:    time.Since(start),
	}
	log.InfoContext(ctx, "image saved",
		"path", outPath,
		"transform", transform.Name(),
		"F", cfg.BlockSize,
		"d", cfg.Cutoff,
		"retained", fmt.Sprintf("%d/%d", result.Retained, cfg.BlockSize*cfg.BlockSize),
		"elapsed", result.Elapsed)

	if cfg.Display && p.Viewer != nil {
		for _, path := range []string{cfg.InputPath, outPath} {
			if err := p.Viewer.Open(ctx, path); err != nil {
				log.WarnContext(ctx, "error opening the image", "path", path, "error", err)
			}
		}
	}
	return result, nil
}
