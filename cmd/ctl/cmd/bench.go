package cmd

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpfielding/blockdct/pkg/bench"
	"github.com/jpfielding/blockdct/pkg/compress/dct"
	"github.com/jpfielding/blockdct/pkg/config"
)

// NewBenchCmd times the 2D DCT strategies
func NewBenchCmd(ctx context.Context, env *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the 2D DCT strategies",
		Long: "Checks every strategy against the separable reference, then times Forward2D on a random " +
			"NxN matrix per size. Rows are appended to a timestamped CSV log and to the sqlite history.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, _ := cmd.Flags().GetStringSlice("strategies")
			sizes, _ := cmd.Flags().GetIntSlice("sizes")
			iterations, _ := cmd.Flags().GetInt("iterations")
			tolerance, _ := cmd.Flags().GetFloat64("tolerance")
			seed, _ := cmd.Flags().GetUint64("seed")
			logDir, _ := cmd.Flags().GetString("log-dir")
			history, _ := cmd.Flags().GetString("history")
			normalize, _ := cmd.Flags().GetString("normalize")

			h := &bench.Harness{
				Sizes:      sizes,
				Iterations: iterations,
				Tolerance:  tolerance,
				Seed:       seed,
			}
			for _, name := range names {
				t, err := dct.ByName(name)
				if err != nil {
					return err
				}
				h.Strategies = append(h.Strategies, t)
			}
			return runBench(ctx, cmd, h, logDir, history, normalize)
		},
	}
	pf := cmd.Flags()
	pf.StringSlice("strategies", []string{"separable", "fast"}, "strategies to time, in column order")
	pf.IntSlice("sizes", bench.DefaultSizes, "ascending matrix sizes N")
	pf.Int("iterations", bench.DefaultIterations, "calls per strategy and size")
	pf.Float64("tolerance", bench.DefaultTolerance, "self-check tolerance against the reference")
	pf.Uint64("seed", uint64(time.Now().UnixNano()), "random matrix seed")
	pf.String("log-dir", env.BenchDir, "folder for benchmark_<timestamp>.csv")
	pf.String("history", env.HistoryDB, "sqlite history database, empty to disable")
	pf.String("normalize", "fast", "strategy the complexity curves are scaled to")
	return cmd
}

func runBench(ctx context.Context, cmd *cobra.Command, h *bench.Harness, logDir, history, normalize string) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if err := h.SelfCheck(ctx); err != nil {
		return err
	}
	started := time.Now()
	csvLog, err := bench.NewCSVLog(logDir, h.Names(), started)
	if err != nil {
		return err
	}
	sinks := bench.MultiSink{csvLog}
	if history != "" {
		store, err := bench.OpenStore(ctx, history)
		if err != nil {
			csvLog.Close()
			return err
		}
		defer store.Close()
		run, err := store.Begin(ctx, h, started)
		if err != nil {
			csvLog.Close()
			return err
		}
		slog.InfoContext(ctx, "recording history", "db", history, "run", run.ID, "config", run.ConfigID)
		sinks = append(sinks, run)
	}
	h.Sink = sinks

	records, err := h.Time(ctx)
	if cerr := sinks.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "benchmark log written", "path", csvLog.Path)

	if !slices.Contains(h.Names(), normalize) {
		slog.WarnContext(ctx, "normalize strategy not benchmarked, using the first", "normalize", normalize)
		normalize = ""
	}
	return bench.Report(cmd.OutOrStdout(), h.Names(), records, normalize)
}
