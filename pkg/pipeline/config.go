package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jpfielding/blockdct/pkg/compress/blockdct"
	"github.com/jpfielding/blockdct/pkg/compress/dct"
	"github.com/jpfielding/blockdct/pkg/imageio"
)

// Config is one compression run. It is passed by value and validated
// once, before any file is decoded.
type Config struct {
	InputPath string
	OutputDir string
	BlockSize int    // F
	Cutoff    int    // d
	Transform string // dct strategy name, "" for dct.Default()
	Workers   int    // 0 selects GOMAXPROCS
	Grayscale bool   // force a single luminance plane
	Display   bool   // open input and output in the system viewer
}

// Params returns the block parameters of the run.
func (c Config) Params() blockdct.Params {
	return blockdct.Params{BlockSize: c.BlockSize, Cutoff: c.Cutoff}
}

// Validate reports the first invalid field as a *blockdct.ConfigError.
func (c Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.InputPath == "" {
		return &blockdct.ConfigError{Field: "input", Value: `""`, Err: blockdct.ErrInvalidInput, Hint: "path is required"}
	}
	info, err := os.Stat(c.InputPath)
	if err != nil {
		return &blockdct.ConfigError{Field: "input", Value: c.InputPath, Err: fmt.Errorf("%w: %v", blockdct.ErrInvalidInput, err)}
	}
	if !info.Mode().IsRegular() {
		return &blockdct.ConfigError{Field: "input", Value: c.InputPath, Err: blockdct.ErrInvalidInput, Hint: "not a regular file"}
	}
	if _, err := imageio.FormatFromPath(c.InputPath); err != nil {
		return &blockdct.ConfigError{Field: "input", Value: c.InputPath, Err: fmt.Errorf("%w: %v", blockdct.ErrInvalidInput, err)}
	}
	if c.OutputDir == "" {
		return &blockdct.ConfigError{Field: "output dir", Value: `""`, Err: blockdct.ErrInvalidOutput, Hint: "path is required"}
	}
	if info, err := os.Stat(c.OutputDir); err == nil && !info.IsDir() {
		return &blockdct.ConfigError{Field: "output dir", Value: c.OutputDir, Err: blockdct.ErrInvalidOutput, Hint: "exists and is not a directory"}
	}
	if c.Transform != "" {
		if _, err := dct.ByName(c.Transform); err != nil {
			return &blockdct.ConfigError{Field: "transform", Value: c.Transform, Err: err}
		}
	}
	return nil
}

// OutputName returns <base>_compressed_F<F>_d<d><ext> for the input path.
func OutputName(inputPath string, f, d int) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s_compressed_F%d_d%d%s", strings.TrimSuffix(base, ext), f, d, ext)
}
