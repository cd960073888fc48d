// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// almostEqual compares floats with tolerance
func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSimulateDatasetShapes(t *testing.T) {
	ds, err := SimulateDataset(40, 6, 3, 5, 0.5, 11)
	require.NoError(t, err)

	r, c := ds.X.Dims()
	assert.Equal(t, 40, r)
	assert.Equal(t, 6, c)
	assert.Equal(t, 40, ds.Y.Len())
	assert.Equal(t, 6, ds.Beta.Len())
	assert.Greater(t, ds.Sigma, 0.0)
}

func TestSimulateDatasetDeterministic(t *testing.T) {
	a, err := SimulateDataset(60, 8, 2, 1, 0.9, 2024)
	require.NoError(t, err)
	b, err := SimulateDataset(60, 8, 2, 1, 0.9, 2024)
	require.NoError(t, err)

	// bit identical, not just close
	assert.True(t, mat.Equal(a.X, b.X))
	assert.True(t, mat.Equal(a.Y, b.Y))
	assert.True(t, mat.Equal(a.Beta, b.Beta))
	assert.Equal(t, a.Sigma, b.Sigma)

	c, err := SimulateDataset(60, 8, 2, 1, 0.9, 2025)
	require.NoError(t, err)
	assert.False(t, mat.Equal(a.X, c.X), "a different seed should give a different design")
}

func TestSimulateDatasetIndependentOfCallOrder(t *testing.T) {
	first, err := SimulateDataset(30, 4, 5, 2, 0.1, 99)
	require.NoError(t, err)

	// draw unrelated datasets in between
	for seed := uint64(0); seed < 5; seed++ {
		_, err := SimulateDataset(25, 3, 1, 10, 0.3, seed)
		require.NoError(t, err)
	}

	again, err := SimulateDataset(30, 4, 5, 2, 0.1, 99)
	require.NoError(t, err)
	assert.True(t, mat.Equal(first.Y, again.Y))
}

func TestSimulateDatasetInvalidParameters(t *testing.T) {
	tests := []struct {
		name            string
		n, p            int
		df, snr, rho    float64
		wantReasonMatch string
	}{
		{"zero df", 20, 2, 0, 1, 0, "df"},
		{"negative df", 20, 2, -3, 1, 0, "df"},
		{"NaN df", 20, 2, math.NaN(), 1, 0, "df"},
		{"no samples", 0, 2, 3, 1, 0, "n must"},
		{"no predictors", 20, 0, 3, 1, 0, "p must"},
		{"zero snr", 20, 2, 3, 0, 0, "snr"},
		{"rho one", 20, 2, 3, 1, 1, "rho"},
		{"rho below minus one", 20, 2, 3, 1, -1.5, "rho"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ds, err := SimulateDataset(tc.n, tc.p, tc.df, tc.snr, tc.rho, 1)
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.True(t, errors.Is(err, ErrInvalidParameter))

			var ce *ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Contains(t, ce.Reason, tc.wantReasonMatch)
			assert.Equal(t, tc.n, ce.Config.N)
		})
	}
}

func TestSimulateFromConfigNamesConfiguration(t *testing.T) {
	cfg := ExperimentConfig{N: 10, P: 2, Gamma: 0.2, DF: -1, SNR: 1, Rho: 0, GridIndex: 4, Replicate: 3, Seed: 77}
	_, err := SimulateFromConfig(cfg)
	require.Error(t, err)

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, cfg, ce.Config)
	assert.Contains(t, err.Error(), "grid=4")
	assert.Contains(t, err.Error(), "rep=3")
}

func TestSimulateDatasetNoNoise(t *testing.T) {
	ds, err := SimulateDataset(50, 5, 3, math.Inf(1), 0.3, 7)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ds.Sigma)

	var signal mat.VecDense
	signal.MulVec(ds.X, ds.Beta)
	assert.True(t, mat.EqualApprox(&signal, ds.Y, 1e-12))
}

func TestSimulateDatasetGaussianAndLargeDF(t *testing.T) {
	for _, df := range []float64{math.Inf(1), 1e6, 1, 2} {
		ds, err := SimulateDataset(500, 3, df, 4, 0.2, 5)
		require.NoError(t, err, "df=%g", df)
		for i := 0; i < ds.Y.Len(); i++ {
			require.False(t, math.IsNaN(ds.Y.AtVec(i)) || math.IsInf(ds.Y.AtVec(i), 0), "df=%g row %d", df, i)
		}
	}
}

func TestSimulateDatasetRealizedSNR(t *testing.T) {
	// with df > 2 and a large sample the realized SNR should be close to the target
	ds, err := SimulateDataset(20000, 4, 30, 5, 0.3, 31)
	require.NoError(t, err)

	var signal, noise mat.VecDense
	signal.MulVec(ds.X, ds.Beta)
	noise.SubVec(ds.Y, &signal)

	snr := stat.Variance(signal.RawVector().Data, nil) / stat.Variance(noise.RawVector().Data, nil)
	assert.InDelta(t, 5.0, snr, 0.5)
}

func TestAR1Covariance(t *testing.T) {
	sigma := ar1Covariance(4, 0.5)
	assert.Equal(t, 1.0, sigma.At(2, 2))
	assert.Equal(t, 0.5, sigma.At(0, 1))
	assert.Equal(t, 0.25, sigma.At(3, 1))
	assert.Equal(t, 0.125, sigma.At(0, 3))

	identity := ar1Covariance(3, 0)
	assert.Equal(t, 1.0, identity.At(1, 1))
	assert.Equal(t, 0.0, identity.At(0, 2))
}

func TestDesignCorrelation(t *testing.T) {
	ds, err := SimulateDataset(20000, 3, 5, 1, 0.7, 3)
	require.NoError(t, err)

	col0 := mat.Col(nil, 0, ds.X)
	col1 := mat.Col(nil, 1, ds.X)
	col2 := mat.Col(nil, 2, ds.X)
	assert.InDelta(t, 0.7, stat.Correlation(col0, col1, nil), 0.03)
	assert.InDelta(t, 0.49, stat.Correlation(col0, col2, nil), 0.03)
}

func TestPredictorsFromGamma(t *testing.T) {
	assert.Equal(t, 40, PredictorsFromGamma(200, 0.2))
	assert.Equal(t, 100, PredictorsFromGamma(200, 0.5))
	assert.Equal(t, 160, PredictorsFromGamma(200, 0.8))
	assert.Equal(t, 0, PredictorsFromGamma(10, 0.01))
}

func TestSampleErrorsHeavyTailScaling(t *testing.T) {
	// df <= 2 is scaled by the sample sd so the draws have sd sigma exactly
	eps := sampleErrors(1000, 1.5, 2.0, newSource(8))
	assert.True(t, almostEqual(math.Sqrt(stat.PopVariance(eps, nil)), 2.0, 1e-9))

	single := sampleErrors(1, 1, 3.0, newSource(8))
	assert.False(t, math.IsNaN(single[0]), "one draw has zero spread and keeps scale sigma")

	none := sampleErrors(10, 4, 0, newSource(8))
	for _, e := range none {
		assert.Equal(t, 0.0, e)
	}
}
