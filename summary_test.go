// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantile(t *testing.T) {
	samples := []float64{5, 3, 1, 4, 2}

	tests := []struct {
		q    float64
		want float64
	}{
		{0.5, 3},
		{0.25, 2},
		{0.1, 1.4},
		{0, 1},
		{1, 5},
		{-0.2, 1},
		{1.5, 5},
	}
	for _, tc := range tests {
		got := quantile(samples, tc.q)
		assert.True(t, almostEqual(got, tc.want, 1e-12), "q=%g: got %g want %g", tc.q, got, tc.want)
	}

	assert.True(t, math.IsNaN(quantile(nil, 0.5)))
	assert.Equal(t, []float64{5, 3, 1, 4, 2}, samples, "input must not be sorted in place")
}

// summaryFixture has two replicates per rho for OLS and LAD at one (gamma, snr)
func summaryFixture() *ResultTable {
	table := &ResultTable{}
	add := func(method string, df, rho, mse float64, status string) {
		table.Append(ResultRecord{N: 100, P: 20, Gamma: 0.2, Rho: rho, DF: df, SNR: 5,
			Method: method, MSE: mse, Status: status, Converged: status == StatusOK})
	}
	add("OLS", 3, 0.1, 1, StatusOK)
	add("OLS", 3, 0.5, 2, StatusOK)
	add("OLS", 3, 0.9, 3, StatusOK)
	add("OLS", 3, 0.9, math.NaN(), StatusRankDeficient)
	add("LAD", 3, 0.1, 0.5, StatusOK)
	add("LAD", 3, 0.5, 1, StatusOK)
	add("LAD", 3, 0.9, 1.5, StatusNotConverged)
	add("OLS", math.Inf(1), 0.1, 4, StatusOK)
	add("Huber", 3, 0.1, math.NaN(), StatusRankDeficient)
	return table
}

func TestSummarize(t *testing.T) {
	rows := Summarize(summaryFixture(), SummaryOptions{NReplications: 500, Alpha: 0.1, Seed: 3})
	require.Len(t, rows, 4)

	// ordered by method rank, then df
	assert.Equal(t, "OLS", rows[0].Method)
	assert.Equal(t, 3.0, rows[0].DF)
	assert.Equal(t, "OLS", rows[1].Method)
	assert.True(t, math.IsInf(rows[1].DF, 1))
	assert.Equal(t, "LAD", rows[2].Method)
	assert.Equal(t, "Huber", rows[3].Method)

	ols := rows[0]
	assert.Equal(t, 4, ols.Count)
	assert.Equal(t, 3, ols.Valid, "NaN rows are counted but not averaged")
	assert.Equal(t, 2.0, ols.MeanMSE)
	assert.Equal(t, 2.0, ols.MedianMSE)
	assert.Equal(t, 0.1, ols.Alpha)
	assert.LessOrEqual(t, ols.LowerMSE, ols.MeanMSE)
	assert.GreaterOrEqual(t, ols.UpperMSE, ols.MeanMSE)
	assert.GreaterOrEqual(t, ols.LowerMSE, 1.0)
	assert.LessOrEqual(t, ols.UpperMSE, 3.0)

	lad := rows[2]
	assert.Equal(t, 1, lad.NotConverg)
	assert.Equal(t, 3, lad.Valid, "non-converged fits still carry an mse")
	assert.Equal(t, 1.0, lad.MeanMSE)

	huber := rows[3]
	assert.Equal(t, 1, huber.Count)
	assert.Equal(t, 0, huber.Valid)
	assert.True(t, math.IsNaN(huber.MeanMSE))
	assert.True(t, math.IsNaN(huber.LowerMSE))
}

func TestSummarizeDeterministic(t *testing.T) {
	opts := SummaryOptions{NReplications: 200, Alpha: 0.05, Seed: 9}
	a := Summarize(summaryFixture(), opts)
	b := Summarize(summaryFixture(), opts)
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].LowerMSE, b[i].LowerMSE)
		assert.Equal(t, a[i].UpperMSE, b[i].UpperMSE)
	}
}

func TestSummarizeDefaults(t *testing.T) {
	rows := Summarize(summaryFixture(), SummaryOptions{})
	require.NotEmpty(t, rows)
	assert.Equal(t, 0.05, rows[0].Alpha)

	assert.Empty(t, Summarize(&ResultTable{}, SummaryOptions{}))
}

func TestRelativeEfficiency(t *testing.T) {
	rows := Summarize(summaryFixture(), SummaryOptions{NReplications: 10})

	eff := RelativeEfficiency(rows, "LAD", "OLS")
	require.Len(t, eff, 1, "only df = 3 has both methods")
	assert.Equal(t, 3.0, eff[0].DF)
	assert.Equal(t, 0.5, eff[0].Ratio)

	missing := RelativeEfficiency(rows, "Huber", "OLS")
	require.Len(t, missing, 1)
	assert.True(t, math.IsNaN(missing[0].Ratio))

	assert.Empty(t, RelativeEfficiency(rows, "LAD", "Ridge"))
}
