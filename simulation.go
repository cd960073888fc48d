// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Points enumerates the grid with gamma outermost, then rho, df and snr.
// Index is the position in that order and feeds the seed derivation.
func (g Grid) Points() []GridPoint {
	points := make([]GridPoint, 0, g.Size())
	for _, gamma := range g.Gammas {
		for _, rho := range g.Rhos {
			for _, df := range g.DFs {
				for _, snr := range g.SNRs {
					points = append(points, GridPoint{
						Index: len(points),
						Gamma: gamma,
						Rho:   rho,
						DF:    df,
						SNR:   snr,
					})
				}
			}
		}
	}
	return points
}

// ExperimentConfigFor builds the configuration of one replicate of a grid point
func ExperimentConfigFor(n int, gp GridPoint, replicate int, master uint64) ExperimentConfig {
	return ExperimentConfig{
		N:         n,
		P:         PredictorsFromGamma(n, gp.Gamma),
		Gamma:     gp.Gamma,
		DF:        gp.DF,
		SNR:       gp.SNR,
		Rho:       gp.Rho,
		GridIndex: gp.Index,
		Replicate: replicate,
		Seed:      DeriveSeed(master, gp.Index, replicate),
	}
}

// RunReplicate simulates one dataset and fits every method on it.
// A DGP failure is returned (fatal for the run); estimator trouble ends up
// in the rows as a NaN mse with a status flag.
func RunReplicate(cfg ExperimentConfig, fitOpts FitOptions) ([]ResultRecord, error) {
	ds, err := SimulateFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	records := make([]ResultRecord, 0, len(AllMethods))
	for _, method := range AllMethods {
		fit, err := FitModel(ds.X, ds.Y, method, fitOpts)
		if err != nil {
			// p > n is a shape the estimators cannot handle, it gets its own status
			if !isRecoverable(err) && !errors.Is(err, ErrDimensionMismatch) {
				return nil, fmt.Errorf("fit %v [%s]: %w", method, cfg, err)
			}
			fit = FitResult{Method: method, Err: err}
		}

		mse, err := Evaluate(ds.Beta, fit.BetaHat)
		if err != nil {
			return nil, fmt.Errorf("evaluate %v [%s]: %w", method, cfg, err)
		}
		records = append(records, BuildRecord(cfg, fit, mse))
	}
	return records, nil
}

// validateRun catches options the grid loop cannot work with
func validateRun(opts SimulationOptions) error {
	if opts.Grid.N < 1 {
		return fmt.Errorf("%w: n must be >= 1, got %d", ErrInvalidParameter, opts.Grid.N)
	}
	if opts.Grid.Size() == 0 {
		return fmt.Errorf("%w: every grid factor needs at least one value", ErrInvalidParameter)
	}
	if opts.Replicates < 1 {
		return fmt.Errorf("%w: replicates must be >= 1, got %d", ErrInvalidParameter, opts.Replicates)
	}
	return nil
}

// RunSimulation walks the whole grid, runs Replicates replicates per grid point
// and returns the table with one row per (grid point, replicate, method).
// Rows are stored by grid index, so the table is the same for any Workers value.
func RunSimulation(ctx context.Context, opts SimulationOptions, logger *slog.Logger) (*ResultTable, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := validateRun(opts); err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	start := time.Now()
	runID := uuid.New().String()
	logger = logger.With("run_id", runID)

	points := opts.Grid.Points()
	rowsPerPoint := opts.Replicates * len(AllMethods)
	records := make([]ResultRecord, len(points)*rowsPerPoint)

	logger.Info("starting simulation",
		"grid_points", len(points),
		"replicates", opts.Replicates,
		"rows", len(records),
		"workers", opts.Workers,
		"master_seed", opts.MasterSeed)

	// Each grid point owns its own slice of records
	runPoint := func(gp GridPoint) error {
		out := records[gp.Index*rowsPerPoint : (gp.Index+1)*rowsPerPoint]
		for rep := 1; rep <= opts.Replicates; rep++ {
			cfg := ExperimentConfigFor(opts.Grid.N, gp, rep, opts.MasterSeed)
			recs, err := RunReplicate(cfg, opts.Fit)
			if err != nil {
				return err
			}
			copy(out[(rep-1)*len(AllMethods):], recs)
		}
		opts.Metrics.GridPointDone()
		logger.Debug("grid point done",
			"index", gp.Index,
			"gamma", gp.Gamma,
			"rho", gp.Rho,
			"df", gp.DF,
			"snr", gp.SNR)
		return nil
	}

	if opts.Workers == 1 {
		for _, gp := range points {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := runPoint(gp); err != nil {
				logger.Error("simulation aborted", "error", err)
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for _, gp := range points {
			gp := gp
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return runPoint(gp)
			})
		}
		if err := g.Wait(); err != nil {
			logger.Error("simulation aborted", "error", err)
			return nil, err
		}
	}

	flagged := 0
	for _, rec := range records {
		opts.Metrics.ObserveRecord(rec)
		if rec.Status != StatusOK {
			flagged++
		}
	}
	elapsed := time.Since(start)
	opts.Metrics.SetDuration(elapsed)

	logger.Info("simulation finished",
		"rows", len(records),
		"flagged", flagged,
		"elapsed", elapsed.Round(time.Millisecond))

	return &ResultTable{RunID: runID, Records: records}, nil
}
