// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps a level name onto a slog.Level.
// Supported values: "debug", "info", "warn", "error" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled text logger writing to w
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// logConfig lists every recognised option of the effective configuration
func logConfig(logger *slog.Logger, cfg *Config) {
	logger.Info("configuration",
		"seed", cfg.Seed,
		"replicates", cfg.Replicates,
		"workers", cfg.Workers,
		slog.Group("grid",
			"n", cfg.Grid.N,
			"gammas", cfg.Grid.Gammas,
			"rhos", cfg.Grid.Rhos,
			"dfs", cfg.Grid.DFs,
			"snrs", cfg.Grid.SNRs),
		slog.Group("estimators",
			"max_iter", cfg.Estimators.MaxIter,
			"tol", cfg.Estimators.Tol,
			"epsilon", cfg.Estimators.Epsilon,
			"huber_delta", cfg.Estimators.HuberDelta,
			"rank_tol", cfg.Estimators.RankTol,
			"max_cond", cfg.Estimators.MaxCond),
		slog.Group("output",
			"results", cfg.Output.Results,
			"metrics_file", cfg.Output.MetricsFile))
}
