package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jpfielding/blockdct/pkg/compress/blockdct"
	"github.com/jpfielding/blockdct/pkg/config"
	"github.com/jpfielding/blockdct/pkg/pipeline"
)

// NewCompressCmd compresses one image file
func NewCompressCmd(ctx context.Context, env *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compress [image]",
		Short: "compress a BMP, PNG or JPEG image",
		Long: "Splits the image into FxF blocks, zeroes every DCT coefficient with k+l >= d " +
			"and writes <name>_compressed_F<F>_d<d>.<ext> to the output folder.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := pipeline.Config{}
			cfg.InputPath, _ = cmd.Flags().GetString("file")
			if cfg.InputPath == "" && len(args) > 0 {
				cfg.InputPath = args[0]
			}
			cfg.OutputDir, _ = cmd.Flags().GetString("out")
			cfg.BlockSize, _ = cmd.Flags().GetInt("block")
			cfg.Cutoff, _ = cmd.Flags().GetInt("cutoff")
			if !cmd.Flags().Changed("cutoff") {
				// the default d follows F; an explicit -d is validated as given
				cfg.Cutoff = blockdct.ClampCutoff(cfg.BlockSize, cfg.Cutoff)
			}
			cfg.Transform, _ = cmd.Flags().GetString("transform")
			cfg.Workers, _ = cmd.Flags().GetInt("workers")
			cfg.Grayscale, _ = cmd.Flags().GetBool("gray")
			cfg.Display, _ = cmd.Flags().GetBool("show")

			res, err := pipeline.New().Run(ctx, cfg)
			if err != nil {
				return err
			}
			size := "?"
			if info, err := os.Stat(res.OutputPath); err == nil {
				size = humanize.Bytes(uint64(info.Size()))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Image saved at: %s (%s)\n", res.OutputPath, size)
			fmt.Fprintf(out, "%dx%d, %d plane(s), %d/%d coefficients kept per block\n",
				res.Width, res.Height, res.Planes, res.Retained, cfg.BlockSize*cfg.BlockSize)
			for i, psnr := range res.PSNR {
				fmt.Fprintf(out, "plane %d PSNR: %.2f dB\n", i, psnr)
			}
			return nil
		},
	}
	pf := cmd.Flags()
	pf.StringP("file", "f", "", "image to compress")
	pf.StringP("out", "o", env.OutputDir, "output folder, created if missing")
	pf.IntP("block", "F", 8, "block size F")
	pf.IntP("cutoff", "d", 10, "frequency cutoff d, 0 <= d <= 2F-2; the default is clamped to 2F-2")
	pf.StringP("transform", "t", env.Transform, "2D DCT strategy (separable|fast|matrix)")
	pf.Int("workers", env.Workers, "goroutines compressing block rows, 0 for GOMAXPROCS")
	pf.Bool("gray", false, "convert color images to a single luminance plane")
	pf.Bool("show", false, "open the input and the result in the system viewer")
	return cmd
}
