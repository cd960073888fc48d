// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics counts what happened during a run.
// The collectors live in a private registry that is dumped in the node
// exporter textfile format at the end of the run. A nil *RunMetrics is a no-op.
type RunMetrics struct {
	registry   *prometheus.Registry
	fits       *prometheus.CounterVec
	iterations *prometheus.HistogramVec
	duration   prometheus.Gauge
	gridPoints prometheus.Counter
}

// NewRunMetrics registers the run collectors
func NewRunMetrics() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		fits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tailsim",
			Name:      "fits_total",
			Help:      "Estimator fits by method and outcome.",
		}, []string{"method", "status"}),
		iterations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tailsim",
			Name:      "fit_iterations",
			Help:      "IRLS iterations used per fit.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"method"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tailsim",
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last simulation run.",
		}),
		gridPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tailsim",
			Name:      "grid_points_total",
			Help:      "Grid points completed.",
		}),
	}
	m.registry.MustRegister(m.fits, m.iterations, m.duration, m.gridPoints)
	return m
}

// ObserveRecord counts one result row
func (m *RunMetrics) ObserveRecord(rec ResultRecord) {
	if m == nil {
		return
	}
	m.fits.WithLabelValues(rec.Method, rec.Status).Inc()
	m.iterations.WithLabelValues(rec.Method).Observe(float64(rec.Iterations))
}

// GridPointDone marks one grid point as finished
func (m *RunMetrics) GridPointDone() {
	if m == nil {
		return
	}
	m.gridPoints.Inc()
}

// SetDuration records the wall time of the run
func (m *RunMetrics) SetDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Set(d.Seconds())
}

// Registry exposes the collectors, mainly for tests
func (m *RunMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes the metrics atomically to path
func (m *RunMetrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
