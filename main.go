// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// This is the entry point of the study. "run" simulates the whole grid and
// writes the results table, "summarize" and "visualize" read that table back,
// "clean" removes what the other commands produced.

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tailsim",
		Short: "Monte Carlo comparison of OLS, LAD and Huber regression under Student-t noise",
		Long: `tailsim simulates linear models with heavy-tailed (Student-t) errors over a grid
of degrees of freedom, signal-to-noise ratios, aspect ratios p/n and predictor
correlations, fits OLS, LAD and Huber regression to every replicate and records
the coefficient mean squared error in a tidy results table.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newRunCmd(),
		newSummarizeCmd(),
		newVisualizeCmd(),
		newCleanCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig reads --config and --log-level; commands apply their own flags afterwards
func loadConfig(cmd *cobra.Command) (*Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return cfg, nil
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation grid and write the results table",
		RunE: func(cmd *cobra.Command, args []string) error {
			// 1. Configuration: defaults, file, environment, flags
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("out") {
				cfg.Output.Results, _ = flags.GetString("out")
			}
			if flags.Changed("seed") {
				cfg.Seed, _ = flags.GetUint64("seed")
			}
			if flags.Changed("reps") {
				cfg.Replicates, _ = flags.GetInt("reps")
			}
			if flags.Changed("workers") {
				cfg.Workers, _ = flags.GetInt("workers")
			}
			if flags.Changed("n") {
				cfg.Grid.N, _ = flags.GetInt("n")
			}
			if flags.Changed("metrics-file") {
				cfg.Output.MetricsFile, _ = flags.GetString("metrics-file")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := NewLogger(cfg.Logging.Level, os.Stderr)
			logConfig(logger, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			// 2. Simulate
			opts := cfg.SimulationOptions()
			if cfg.Output.MetricsFile != "" {
				opts.Metrics = NewRunMetrics()
			}
			table, err := RunSimulation(ctx, opts, logger)
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}

			// 3. Persist, falling back to a temp file so the rows are not lost
			if err := SaveResults(ctx, cfg.Output.Results, table); err != nil {
				fallback, ferr := DumpFallback(table)
				if ferr != nil {
					return fmt.Errorf("%w (fallback dump also failed: %v)", err, ferr)
				}
				logger.Error("results table not saved", "path", cfg.Output.Results, "fallback", fallback, "error", err)
				return fmt.Errorf("%w (rows kept in %s)", err, fallback)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved results to %s (%d rows)\n", cfg.Output.Results, table.Len())

			// 4. Metrics
			if err := opts.Metrics.WriteTextfile(cfg.Output.MetricsFile); err != nil {
				logger.Warn("metrics not written", "error", err)
			}
			return nil
		},
	}

	cmd.Flags().String("out", "", "Results table path (.csv, .csv.gz, .csv.zst, .csv.lz4, .db, .xlsx)")
	cmd.Flags().Uint64("seed", 0, "Master random seed")
	cmd.Flags().Int("reps", 0, "Replicates per grid point")
	cmd.Flags().Int("workers", 1, "Grid points simulated concurrently")
	cmd.Flags().Int("n", 0, "Sample size")
	cmd.Flags().String("metrics-file", "", "Write Prometheus textfile metrics here")
	return cmd
}

// loadSummary reads the results table and summarizes it
func loadSummary(ctx context.Context, cfg *Config, in string) ([]SummaryRow, error) {
	table, err := LoadResults(ctx, in)
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("no rows in %s", in)
	}
	return Summarize(table, cfg.SummaryOptions()), nil
}

func newSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Average the results table per (method, gamma, snr, df) with bootstrap intervals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			in := cfg.Output.Results
			if cmd.Flags().Changed("in") {
				in, _ = cmd.Flags().GetString("in")
			}
			out := cfg.Output.SummaryFile
			if cmd.Flags().Changed("out") {
				out, _ = cmd.Flags().GetString("out")
			}

			rows, err := loadSummary(cmd.Context(), cfg, in)
			if err != nil {
				return err
			}
			PrintSummary(cmd.OutOrStdout(), rows)

			for _, m := range []Method{LAD, Huber} {
				fmt.Fprintf(cmd.OutOrStdout(), "=== %v / OLS mean mse ===\n", m)
				for _, e := range RelativeEfficiency(rows, m.String(), OLS.String()) {
					fmt.Fprintf(cmd.OutOrStdout(), "gamma=%-5s snr=%-5s df=%-5s ratio=%.4f\n",
						formatFloat(e.Gamma), formatFloat(e.SNR), formatFloat(e.DF), e.Ratio)
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}

			if err := SaveSummary(out, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved summary to %s (%d rows)\n", out, len(rows))
			return nil
		},
	}
	cmd.Flags().String("in", "", "Results table to read")
	cmd.Flags().String("out", "", "Summary CSV to write")
	return cmd
}

func newVisualizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Plot mean MSE against df, one figure per (gamma, snr)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			in := cfg.Output.Results
			if cmd.Flags().Changed("in") {
				in, _ = cmd.Flags().GetString("in")
			}
			outDir := cfg.Output.FiguresDir
			if cmd.Flags().Changed("out-dir") {
				outDir, _ = cmd.Flags().GetString("out-dir")
			}

			rows, err := loadSummary(cmd.Context(), cfg, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s\n", in)

			paths, err := PlotMSEvsDF(rows, outDir, cfg.Output.FigureWidth, cfg.Output.FigureHeight)
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved figure: %s\n", p)
			}
			return err
		},
	}
	cmd.Flags().String("in", "", "Results table to read")
	cmd.Flags().String("out-dir", "", "Directory for the PNG figures")
	return cmd
}

// CleanArtifacts removes the files the other commands write and returns what
// was removed. Missing files are not an error.
func CleanArtifacts(cfg *Config) ([]string, error) {
	var removed []string

	remove := func(path string) error {
		if path == "" {
			return nil
		}
		err := os.Remove(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		removed = append(removed, path)
		return nil
	}

	for _, path := range []string{cfg.Output.Results, cfg.Output.SummaryFile, cfg.Output.MetricsFile} {
		if err := remove(path); err != nil {
			return removed, err
		}
	}

	figures, err := filepath.Glob(filepath.Join(cfg.Output.FiguresDir, "mse_vs_df_*.png"))
	if err != nil {
		return removed, err
	}
	for _, path := range figures {
		if err := remove(path); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the results table, summary, metrics and figures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			removed, err := CleanArtifacts(cfg)
			for _, p := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", p)
			}
			return err
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()).Warn("configuration is not valid", "error", err)
			}
			return cfg.WriteYAML(cmd.OutOrStdout())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tailsim version %s\n", version)
		},
	}
}
