package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	strftime "github.com/ncruces/go-strftime"
	"github.com/spf13/cobra"

	"github.com/jpfielding/blockdct/pkg/bench"
	"github.com/jpfielding/blockdct/pkg/config"
)

// NewReportCmd prints the complexity report of a stored benchmark
func NewReportCmd(ctx context.Context, env *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [benchmark.csv]",
		Short: "compare benchmark timings with complexity curves",
		Long: "Reads a benchmark CSV log, or a run from the sqlite history, and prints the timings next to " +
			"O(n), O(n log n), O(n^2), O(n^2 log n) and O(n^3) curves scaled to one strategy.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, _ := cmd.Flags().GetString("history")
			runID, _ := cmd.Flags().GetString("run")
			list, _ := cmd.Flags().GetBool("list")
			normalize, _ := cmd.Flags().GetString("normalize")
			w := cmd.OutOrStdout()

			if list || (runID == "" && len(args) == 0) {
				return listRuns(ctx, cmd, history)
			}

			var names []string
			var records []bench.Record
			var err error
			switch {
			case len(args) > 0:
				names, records, err = bench.ReadCSV(args[0])
				if err != nil {
					return err
				}
				base := strings.TrimSuffix(filepath.Base(args[0]), ".csv")
				if t, err := strftime.Parse("benchmark_%Y_%m_%d_%H%M%S", base); err == nil {
					fmt.Fprintf(w, "benchmark run of %s\n\n", t.Format("2006-01-02 15:04:05"))
				}
			default:
				store, err := bench.OpenStore(ctx, history)
				if err != nil {
					return err
				}
				defer store.Close()
				names, records, err = store.Records(ctx, runID)
				if err != nil {
					return err
				}
			}
			return bench.Report(w, names, records, normalize)
		},
	}
	pf := cmd.Flags()
	pf.String("history", env.HistoryDB, "sqlite history database")
	pf.String("run", "", "history run id to report")
	pf.Bool("list", false, "list the runs in the history")
	pf.String("normalize", "", "strategy the curves are scaled to, the first column when empty")
	return cmd
}

func listRuns(ctx context.Context, cmd *cobra.Command, history string) error {
	store, err := bench.OpenStore(ctx, history)
	if err != nil {
		return err
	}
	defer store.Close()
	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCONFIG\tSTARTED\tITERATIONS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.ID, r.ConfigID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Iterations)
	}
	return tw.Flush()
}
