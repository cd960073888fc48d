// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallGrid has 8 grid points with p in {3, 6}
func smallGrid() Grid {
	return Grid{
		N:      30,
		Gammas: []float64{0.1, 0.2},
		Rhos:   []float64{0, 0.5},
		DFs:    []float64{3},
		SNRs:   []float64{1, 5},
	}
}

func smallRun(workers int) SimulationOptions {
	return SimulationOptions{
		Grid:       smallGrid(),
		Replicates: 2,
		MasterSeed: 7,
		Fit:        DefaultFitOptions(),
		Workers:    workers,
	}
}

// tableFields flattens a table for comparison, NaN included
func tableFields(table *ResultTable) [][]string {
	out := make([][]string, len(table.Records))
	for i, rec := range table.Records {
		out[i] = rec.Fields()
	}
	return out
}

func TestGridPointsOrder(t *testing.T) {
	points := smallGrid().Points()
	require.Len(t, points, 8)
	assert.Equal(t, 8, smallGrid().Size())

	for i, gp := range points {
		assert.Equal(t, i, gp.Index)
	}
	// snr varies fastest, gamma slowest
	assert.Equal(t, GridPoint{Index: 1, Gamma: 0.1, Rho: 0, DF: 3, SNR: 5}, points[1])
	assert.Equal(t, GridPoint{Index: 2, Gamma: 0.1, Rho: 0.5, DF: 3, SNR: 1}, points[2])
	assert.Equal(t, 0.2, points[4].Gamma)
}

func TestRunSimulationShape(t *testing.T) {
	table, err := RunSimulation(context.Background(), smallRun(1), nil)
	require.NoError(t, err)
	require.Equal(t, 48, table.Len())
	assert.NotEmpty(t, table.RunID)

	perMethod := make(map[string]int)
	for _, rec := range table.Records {
		perMethod[rec.Method]++
		assert.Equal(t, 30, rec.N)
		assert.Contains(t, []int{3, 6}, rec.P)
		assert.GreaterOrEqual(t, rec.Replicate, 1)
		assert.LessOrEqual(t, rec.Replicate, 2)
		assert.False(t, math.IsNaN(rec.MSE), "full-rank designs always give an mse")
		assert.GreaterOrEqual(t, rec.MSE, 0.0)
	}
	assert.Equal(t, map[string]int{"OLS": 16, "LAD": 16, "Huber": 16}, perMethod)

	// the three methods of one replicate share the seed
	assert.Equal(t, table.Records[0].Seed, table.Records[1].Seed)
	assert.Equal(t, table.Records[0].Seed, table.Records[2].Seed)
	assert.NotEqual(t, table.Records[0].Seed, table.Records[3].Seed)
}

func TestRunSimulationDeterministic(t *testing.T) {
	a, err := RunSimulation(context.Background(), smallRun(1), nil)
	require.NoError(t, err)
	b, err := RunSimulation(context.Background(), smallRun(1), nil)
	require.NoError(t, err)

	assert.Equal(t, tableFields(a), tableFields(b))
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestRunSimulationIndependentOfWorkers(t *testing.T) {
	sequential, err := RunSimulation(context.Background(), smallRun(1), nil)
	require.NoError(t, err)
	parallel, err := RunSimulation(context.Background(), smallRun(4), nil)
	require.NoError(t, err)

	assert.Equal(t, tableFields(sequential), tableFields(parallel))
}

func TestDeriveSeed(t *testing.T) {
	assert.Equal(t, DeriveSeed(123, 4, 2), DeriveSeed(123, 4, 2))

	seen := make(map[uint64]bool)
	for grid := 0; grid < 20; grid++ {
		for rep := 1; rep <= 20; rep++ {
			s := DeriveSeed(123, grid, rep)
			assert.False(t, seen[s], "collision at grid=%d rep=%d", grid, rep)
			seen[s] = true
		}
	}
	assert.NotEqual(t, DeriveSeed(123, 0, 1), DeriveSeed(124, 0, 1))
	// swapping the coordinates is a different replicate
	assert.NotEqual(t, DeriveSeed(1, 2, 3), DeriveSeed(1, 3, 2))
}

func TestRunSimulationRejectsBadGrid(t *testing.T) {
	opts := smallRun(1)
	opts.Grid.Rhos = []float64{1}

	table, err := RunSimulation(context.Background(), opts, nil)
	assert.Nil(t, table)
	require.Error(t, err)

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Reason, "rho")
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestRunSimulationInvalidOptions(t *testing.T) {
	noReps := smallRun(1)
	noReps.Replicates = 0
	_, err := RunSimulation(context.Background(), noReps, nil)
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	emptyGrid := smallRun(1)
	emptyGrid.Grid.DFs = nil
	_, err = RunSimulation(context.Background(), emptyGrid, nil)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestRunSimulationCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 3} {
		_, err := RunSimulation(ctx, smallRun(workers), nil)
		assert.True(t, errors.Is(err, context.Canceled), "workers=%d", workers)
	}
}

func TestRunReplicateRecordsWideDesign(t *testing.T) {
	cfg := ExperimentConfig{N: 10, P: 12, Gamma: 1.2, DF: 5, SNR: 2, Rho: 0, Seed: 3}

	recs, err := RunReplicate(cfg, DefaultFitOptions())
	require.NoError(t, err)
	require.Len(t, recs, len(AllMethods))
	for _, rec := range recs {
		assert.True(t, math.IsNaN(rec.MSE))
		assert.Equal(t, StatusDimensionMismatch, rec.Status)
		assert.False(t, rec.Converged)
	}
}

func TestRunSimulationMetrics(t *testing.T) {
	opts := smallRun(2)
	opts.Metrics = NewRunMetrics()

	table, err := RunSimulation(context.Background(), opts, nil)
	require.NoError(t, err)

	assert.Equal(t, 8.0, testutil.ToFloat64(opts.Metrics.gridPoints))

	total := 0.0
	for _, m := range AllMethods {
		for _, status := range []string{StatusOK, StatusNotConverged, StatusRankDeficient, StatusDimensionMismatch} {
			total += testutil.ToFloat64(opts.Metrics.fits.WithLabelValues(m.String(), status))
		}
	}
	assert.Equal(t, float64(table.Len()), total)
	assert.Greater(t, testutil.ToFloat64(opts.Metrics.duration), 0.0)
}

// meanMSE averages the finite mse of one method
func meanMSE(table *ResultTable, method string, keep func(ResultRecord) bool) float64 {
	total, count := 0.0, 0
	for _, rec := range table.Records {
		if rec.Method != method || math.IsNaN(rec.MSE) || !keep(rec) {
			continue
		}
		total += rec.MSE
		count++
	}
	return total / float64(count)
}

func TestRobustMethodsWinUnderHeavyTails(t *testing.T) {
	// n = 200, p = 20, df = 3, snr = 2, seed 42
	opts := SimulationOptions{
		Grid:       Grid{N: 200, Gammas: []float64{0.1}, Rhos: []float64{0}, DFs: []float64{3}, SNRs: []float64{2}},
		Replicates: 10,
		MasterSeed: 42,
		Fit:        DefaultFitOptions(),
		Workers:    1,
	}
	table, err := RunSimulation(context.Background(), opts, nil)
	require.NoError(t, err)
	require.Equal(t, 30, table.Len())

	for _, rec := range table.Records {
		assert.Equal(t, 20, rec.P)
		assert.False(t, math.IsNaN(rec.MSE) || math.IsInf(rec.MSE, 0))
		assert.GreaterOrEqual(t, rec.MSE, 0.0)
	}

	all := func(ResultRecord) bool { return true }
	ols := meanMSE(table, "OLS", all)
	assert.Less(t, meanMSE(table, "LAD", all), ols)
	assert.Less(t, meanMSE(table, "Huber", all), ols)
}

func TestRelativeEfficiencyFallsWithTailWeight(t *testing.T) {
	opts := SimulationOptions{
		Grid:       Grid{N: 100, Gammas: []float64{0.1}, Rhos: []float64{0}, DFs: []float64{1, math.Inf(1)}, SNRs: []float64{5}},
		Replicates: 20,
		MasterSeed: 11,
		Fit:        DefaultFitOptions(),
		Workers:    2,
	}
	table, err := RunSimulation(context.Background(), opts, nil)
	require.NoError(t, err)

	ratio := func(df float64) float64 {
		at := func(rec ResultRecord) bool { return rec.DF == df }
		return meanMSE(table, "LAD", at) / meanMSE(table, "OLS", at)
	}

	cauchy, gaussian := ratio(1), ratio(math.Inf(1))
	assert.Less(t, cauchy, gaussian)
	assert.Less(t, cauchy, 1.0, "LAD should beat OLS under Cauchy noise")
	assert.Greater(t, gaussian, 0.9)
	assert.Less(t, gaussian, 2.5)
}
