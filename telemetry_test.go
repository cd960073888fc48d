// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMetricsTextfile(t *testing.T) {
	m := NewRunMetrics()
	m.ObserveRecord(ResultRecord{Method: "OLS", Status: StatusOK})
	m.ObserveRecord(ResultRecord{Method: "LAD", Status: StatusNotConverged, Iterations: 500})
	m.ObserveRecord(ResultRecord{Method: "LAD", Status: StatusNotConverged, Iterations: 500})
	m.GridPointDone()
	m.SetDuration(1500 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fits.WithLabelValues("LAD", StatusNotConverged)))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.duration))
	assert.Equal(t, 2, testutil.CollectAndCount(m.fits))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)

	path := filepath.Join(t.TempDir(), "tailsim.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `tailsim_fits_total{method="LAD",status="not_converged"} 2`)
	assert.Contains(t, string(data), "tailsim_grid_points_total 1")
	assert.Contains(t, string(data), "tailsim_fit_iterations_bucket")

	err = m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}

func TestRunMetricsNilIsNoop(t *testing.T) {
	var m *RunMetrics
	assert.NotPanics(t, func() {
		m.ObserveRecord(ResultRecord{Method: "OLS"})
		m.GridPointDone()
		m.SetDuration(time.Second)
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile("/nonexistent/path.prom"))
}
