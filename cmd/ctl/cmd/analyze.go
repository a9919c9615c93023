package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jpfielding/blockdct/pkg/compress/blockdct"
	"github.com/jpfielding/blockdct/pkg/compress/dct"
	"github.com/jpfielding/blockdct/pkg/config"
	"github.com/jpfielding/blockdct/pkg/imageio"
	"github.com/jpfielding/blockdct/pkg/pipeline"
)

// NewAnalyzeCmd creates the analyze cobra command
func NewAnalyzeCmd(ctx context.Context, env *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [image]",
		Short: "show image planes and the distortion of every cutoff",
		Long: "Decodes an image, prints its planes and compresses it in memory for each cutoff d " +
			"at block size F, reporting the kept coefficients, MSE and PSNR.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, _ := cmd.Flags().GetString("file")
			f, _ := cmd.Flags().GetInt("block")
			cutoffs, _ := cmd.Flags().GetIntSlice("cutoffs")
			name, _ := cmd.Flags().GetString("transform")
			workers, _ := cmd.Flags().GetInt("workers")
			gray, _ := cmd.Flags().GetBool("gray")

			if filePath == "" && len(args) > 0 {
				filePath = args[0]
			}
			if filePath == "" {
				return fmt.Errorf("file path is required. Use --file flag or provide as argument")
			}
			t, err := dct.ByName(name)
			if err != nil {
				return err
			}
			if err := (blockdct.Params{BlockSize: f}).Validate(); err != nil {
				return err
			}
			c := blockdct.New(t, blockdct.WithWorkers(workers))
			return runAnalyze(ctx, cmd.OutOrStdout(), c, filePath, f, cutoffs, gray)
		},
	}

	pf := cmd.Flags()
	pf.StringP("file", "f", "", "image to analyze")
	pf.IntP("block", "F", 8, "block size F")
	pf.IntSlice("cutoffs", nil, "cutoffs to try, all of [0, 2F-2] when empty")
	pf.StringP("transform", "t", env.Transform, "2D DCT strategy (separable|fast|matrix)")
	pf.Int("workers", env.Workers, "goroutines compressing block rows, 0 for GOMAXPROCS")
	pf.Bool("gray", false, "convert color images to a single luminance plane")

	return cmd
}

// runAnalyze prints the planes of filePath and a cutoff sweep
func runAnalyze(ctx context.Context, w io.Writer, c *blockdct.Compressor, filePath string, f int, cutoffs []int, gray bool) error {
	img, err := imageio.ReadFile(filePath, &imageio.Options{Grayscale: gray})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "=== %s ===\n", filepath.Base(filePath))
	fmt.Fprintf(w, "Format: %s\n", img.Format)
	fmt.Fprintf(w, "Size: %dx%d\n", img.Width(), img.Height())
	fmt.Fprintf(w, "Planes: %d\n", len(img.Planes))
	fmt.Fprintf(w, "Blocks: %dx%d of %dx%d (%d columns and %d rows dropped)\n",
		img.Width()/f, img.Height()/f, f, f, img.Width()%f, img.Height()%f)
	for i, p := range img.Planes {
		lo, hi, mean := planeStats(p)
		fmt.Fprintf(w, "Plane %d range: min=%d, max=%d, mean=%.2f\n", i, lo, hi, mean)
	}
	if img.Width() < f || img.Height() < f {
		fmt.Fprintln(w, "\nImage is smaller than one block, nothing to compress")
		return nil
	}

	points, err := pipeline.Sweep(ctx, c, img, f, cutoffs)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n=== Cutoff sweep (F=%d, %s) ===\n", f, c.Transform().Name())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "d\tkept\tratio\tMSE\tPSNR dB\t")
	for _, p := range points {
		fmt.Fprintf(tw, "%d\t%d\t%.3f\t%.3f\t%.2f\t\n",
			p.Cutoff, p.Retained, float64(p.Retained)/float64(f*f), p.MSE, p.PSNR)
	}
	return tw.Flush()
}

func planeStats(p *blockdct.Plane) (lo, hi uint8, mean float64) {
	if len(p.Pix) == 0 {
		return 0, 0, 0
	}
	lo, hi = p.Pix[0], p.Pix[0]
	var sum int
	for _, v := range p.Pix {
		lo = min(lo, v)
		hi = max(hi, v)
		sum += int(v)
	}
	return lo, hi, float64(sum) / float64(len(p.Pix))
}
