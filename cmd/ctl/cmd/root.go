package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpfielding/blockdct/pkg/config"
	"github.com/jpfielding/blockdct/pkg/logging"
)

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	env := config.Load()
	var logFile io.WriteCloser
	cmd := &cobra.Command{
		Use:          "dctctl",
		Short:        "block DCT image compression and transform benchmarks",
		Long:         "Compresses bitmaps by zeroing high-frequency DCT coefficients per block and benchmarks the 2D DCT strategies.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logJSON, _ := cmd.Flags().GetBool("log-json")
			logPath, _ := cmd.Flags().GetString("log-file")

			// Parse log level
			var level slog.Level
			levelErr := level.UnmarshalText([]byte(strings.ToUpper(logLevel)))
			if levelErr != nil {
				level = slog.LevelInfo
			}
			var w io.Writer = os.Stderr
			if logPath != "" {
				logFile = logging.RotatingWriter(logPath)
				w = io.MultiWriter(os.Stderr, logFile)
			}
			slog.SetDefault(logging.Logger(w, logJSON, level))

			if levelErr != nil {
				slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", logLevel, "error", levelErr)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logFile != nil {
				logFile.Close()
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd.OutOrStdout(), cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewCompressCmd(ctx, env),
		NewAnalyzeCmd(ctx, env),
		NewBenchCmd(ctx, env),
		NewReportCmd(ctx, env),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", env.LogLevel, "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.Bool("log-json", false, "log as JSON instead of text")
	pf.String("log-file", "", "also log to this file, rotated at 10MB")
	return cmd
}

func printCommandTree(w io.Writer, cmd *cobra.Command, indent int) {
	fmt.Fprintln(w, strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(w, subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gitsha)
		},
	}
	return cmd
}
