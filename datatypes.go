// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ExperimentConfig is one (grid point x replicate) of the study.
// It is passed by value and never modified after the driver builds it.
type ExperimentConfig struct {
	N     int     // number of samples
	P     int     // number of predictors
	Gamma float64 // aspect ratio p/n as requested by the grid
	DF    float64 // Student-t degrees of freedom, +Inf means Gaussian
	SNR   float64 // signal-to-noise ratio Var(X beta) / sigma^2
	Rho   float64 // AR(1) predictor correlation

	GridIndex int    // position of the grid point in enumeration order
	Replicate int    // 1-based replicate id within the grid point
	Seed      uint64 // seed of the generator used by the DGP
}

// String identifies the configuration in diagnostics
func (c ExperimentConfig) String() string {
	return fmt.Sprintf("n=%d p=%d gamma=%g rho=%g df=%g snr=%g grid=%d rep=%d seed=%d",
		c.N, c.P, c.Gamma, c.Rho, c.DF, c.SNR, c.GridIndex, c.Replicate, c.Seed)
}

// Dataset is a synthetic regression problem y = X beta + eps.
type Dataset struct {
	// Design matrix (n x p)
	X *mat.Dense
	// Response (length n)
	Y *mat.VecDense
	// True coefficients (length p)
	Beta *mat.VecDense
	// Noise scale picked to hit the requested SNR
	Sigma float64
}

// Method is the closed set of estimators compared by the study.
type Method int

// Estimators in the order they are fitted and written
const (
	OLS Method = iota
	LAD
	Huber
)

// AllMethods lists every estimator in fitting order
var AllMethods = []Method{OLS, LAD, Huber}

func (m Method) String() string {
	switch m {
	case OLS:
		return "OLS"
	case LAD:
		return "LAD"
	case Huber:
		return "Huber"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps a case-insensitive name onto a Method
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ols":
		return OLS, nil
	case "lad":
		return LAD, nil
	case "huber":
		return Huber, nil
	}
	return 0, fmt.Errorf("%w: %q (choose OLS, LAD or Huber)", ErrUnknownMethod, s)
}

// FitOptions holds the hyperparameters of the iterative estimators.
type FitOptions struct {
	// Iteration cap for LAD and Huber
	MaxIter int
	// Convergence tolerance on the relative coefficient change
	Tol float64
	// Floor on |r_i| in the LAD weights
	Epsilon float64
	// Huber threshold on standardized residuals
	HuberDelta float64
	// Relative singular value cutoff for the numerical rank
	RankTol float64
	// Largest acceptable condition number of X
	MaxCond float64
}

// DefaultFitOptions returns the documented estimator constants.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		MaxIter:    500,
		Tol:        1e-6,
		Epsilon:    1e-8,
		HuberDelta: 1.345,
		RankTol:    1e-10,
		MaxCond:    1e12,
	}
}

// withDefaults fills in zero fields
func (o FitOptions) withDefaults() FitOptions {
	d := DefaultFitOptions()
	if o.MaxIter <= 0 {
		o.MaxIter = d.MaxIter
	}
	if o.Tol <= 0 {
		o.Tol = d.Tol
	}
	if o.Epsilon <= 0 {
		o.Epsilon = d.Epsilon
	}
	if o.HuberDelta <= 0 {
		o.HuberDelta = d.HuberDelta
	}
	if o.RankTol <= 0 {
		o.RankTol = d.RankTol
	}
	if o.MaxCond <= 0 {
		o.MaxCond = d.MaxCond
	}
	return o
}

// FitResult is what one estimator produced for one dataset.
type FitResult struct {
	Method     Method
	BetaHat    *mat.VecDense // nil when no estimate is available
	Converged  bool
	Iterations int
	// Err is a recoverable estimator failure such as ErrRankDeficiency.
	Err error
}

// Status values written to the results table
const (
	StatusOK            = "ok"
	StatusRankDeficient = "rank_deficient"
	StatusNotConverged  = "not_converged"
	// p > n, the estimators were not run
	StatusDimensionMismatch = "dimension_mismatch"
)

// ResultRecord is one row of the tidy results table.
// There is exactly one per (grid point, replicate, method).
type ResultRecord struct {
	N          int
	P          int
	Gamma      float64
	Rho        float64
	DF         float64
	SNR        float64
	Replicate  int
	Seed       uint64
	Method     string
	MSE        float64 // NaN when the estimator failed
	Converged  bool
	Iterations int
	Status     string
}

// ResultTable is the append-only collection of rows for one run.
type ResultTable struct {
	RunID   string
	Records []ResultRecord
}

// Append adds rows at the end of the table
func (t *ResultTable) Append(recs ...ResultRecord) {
	t.Records = append(t.Records, recs...)
}

// Len returns the number of rows
func (t *ResultTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// GridPoint is one cell of the Cartesian experiment grid.
type GridPoint struct {
	Index int
	Gamma float64
	Rho   float64
	DF    float64
	SNR   float64
}

// Grid lists every value of each experimental factor.
type Grid struct {
	N      int
	Gammas []float64
	Rhos   []float64
	DFs    []float64
	SNRs   []float64
}

// Size is the number of grid points
func (g Grid) Size() int {
	return len(g.Gammas) * len(g.Rhos) * len(g.DFs) * len(g.SNRs)
}

// SimulationOptions controls one run of the driver.
type SimulationOptions struct {
	Grid Grid

	// Replicates per grid point
	Replicates int

	// Master seed, every replicate seed is derived from it
	MasterSeed uint64

	// Estimator hyperparameters
	Fit FitOptions

	// Number of grid points processed concurrently (1 = sequential)
	Workers int

	// Optional run telemetry, may be nil
	Metrics *RunMetrics
}

// SummaryRow aggregates the replicates of one (method, gamma, snr, df) cell.
type SummaryRow struct {
	Method     string
	Gamma      float64
	SNR        float64
	DF         float64
	Count      int // rows in the cell
	Valid      int // rows with a finite mse
	MeanMSE    float64
	MedianMSE  float64
	LowerMSE   float64 // bootstrap CI of the mean
	UpperMSE   float64
	Alpha      float64
	NotConverg int
}

// SummaryOptions configures the bootstrap in Summarize.
type SummaryOptions struct {
	// Number of bootstrap resamples (e.g. 500-2000)
	NReplications int
	// Confidence level alpha (0.05 for a 95% interval)
	Alpha float64
	// RNG seed; 0 keeps the default of 1
	Seed uint64
}
