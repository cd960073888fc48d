// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// envPrefix is the prefix of every environment override, e.g. TAILSIM_REPLICATES
const envPrefix = "TAILSIM"

// Config is everything a run can be told. There are no hidden defaults:
// DefaultConfig lists every value and `tailsim config` prints the effective set.
type Config struct {
	// Seed is the master seed every replicate seed is derived from.
	Seed uint64 `yaml:"seed" envconfig:"SEED"`

	// Replicates per grid point.
	Replicates int `yaml:"replicates" envconfig:"REPLICATES" validate:"gte=1"`

	// Workers is the number of grid points simulated at once, 1 runs sequentially.
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"gte=1,lte=1024"`

	Grid       GridConfig      `yaml:"grid" envconfig:"GRID"`
	Estimators EstimatorConfig `yaml:"estimators" envconfig:"ESTIMATORS"`
	Summary    SummaryConfig   `yaml:"summary" envconfig:"SUMMARY"`
	Output     OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Logging    LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
}

// GridConfig lists the values of every experimental factor.
// Use .inf in YAML (inf in the environment) for Gaussian noise.
type GridConfig struct {
	N      int       `yaml:"n" envconfig:"N" validate:"gte=1"`
	Gammas []float64 `yaml:"gammas" envconfig:"GAMMAS" validate:"required,min=1,dive,gt=0"`
	Rhos   []float64 `yaml:"rhos" envconfig:"RHOS" validate:"required,min=1,dive,gt=-1,lt=1"`
	DFs    []float64 `yaml:"dfs" envconfig:"DFS" validate:"required,min=1,dive,gt=0"`
	SNRs   []float64 `yaml:"snrs" envconfig:"SNRS" validate:"required,min=1,dive,gt=0"`
}

// EstimatorConfig holds the LAD/Huber hyperparameters.
type EstimatorConfig struct {
	MaxIter    int     `yaml:"max_iter" envconfig:"MAX_ITER" validate:"gte=1"`
	Tol        float64 `yaml:"tol" envconfig:"TOL" validate:"gt=0"`
	Epsilon    float64 `yaml:"epsilon" envconfig:"EPSILON" validate:"gt=0"`
	HuberDelta float64 `yaml:"huber_delta" envconfig:"HUBER_DELTA" validate:"gt=0"`
	RankTol    float64 `yaml:"rank_tol" envconfig:"RANK_TOL" validate:"gt=0,lt=1"`
	MaxCond    float64 `yaml:"max_cond" envconfig:"MAX_COND" validate:"gt=1"`
}

// SummaryConfig configures the bootstrap bands of the summary table.
type SummaryConfig struct {
	BootstrapReplications int     `yaml:"bootstrap_replications" envconfig:"BOOTSTRAP_REPLICATIONS" validate:"gte=1"`
	Alpha                 float64 `yaml:"alpha" envconfig:"ALPHA" validate:"gt=0,lt=1"`
}

// OutputConfig says where artifacts go.
type OutputConfig struct {
	// Results is the results table, format picked by extension
	Results string `yaml:"results" envconfig:"RESULTS" validate:"required"`
	// SummaryFile is the grouped summary CSV
	SummaryFile string `yaml:"summary_file" envconfig:"SUMMARY_FILE" validate:"required"`
	// FiguresDir receives one PNG per (gamma, snr)
	FiguresDir string `yaml:"figures_dir" envconfig:"FIGURES_DIR" validate:"required"`
	// MetricsFile, if set, receives Prometheus textfile metrics of the run
	MetricsFile string `yaml:"metrics_file,omitempty" envconfig:"METRICS_FILE"`
	// Figure size in inches
	FigureWidth  float64 `yaml:"figure_width" envconfig:"FIGURE_WIDTH" validate:"gt=0"`
	FigureHeight float64 `yaml:"figure_height" envconfig:"FIGURE_HEIGHT" validate:"gt=0"`
}

// LoggingConfig configures the stderr logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns the grid and constants of the reference study.
func DefaultConfig() *Config {
	fit := DefaultFitOptions()
	return &Config{
		Seed:       123,
		Replicates: 5,
		Workers:    1,
		Grid: GridConfig{
			N:      200,
			Gammas: []float64{0.2, 0.5, 0.8},
			Rhos:   []float64{0.1, 0.5, 0.9},
			DFs:    []float64{1, 2, 3, 20, math.Inf(1)},
			SNRs:   []float64{1, 5, 10},
		},
		Estimators: EstimatorConfig{
			MaxIter:    fit.MaxIter,
			Tol:        fit.Tol,
			Epsilon:    fit.Epsilon,
			HuberDelta: fit.HuberDelta,
			RankTol:    fit.RankTol,
			MaxCond:    fit.MaxCond,
		},
		Summary: SummaryConfig{
			BootstrapReplications: 1000,
			Alpha:                 0.05,
		},
		Output: OutputConfig{
			Results:      "results/raw/simulation_results.csv",
			SummaryFile:  "results/summary/mse_summary.csv",
			FiguresDir:   "results/figures",
			FigureWidth:  5,
			FigureHeight: 3,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file (if path is
// not empty), then TAILSIM_* environment variables. Call Validate after
// applying command line flags.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("loading config from env: %w", err)
	}
	return cfg, nil
}

// LoadFromFile reads a YAML file on top of the defaults. Unknown keys are errors.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks struct constraints and that every gamma gives 1 <= p <= n.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, formatValidationError(fe))
			}
			return fmt.Errorf("%w: %s", ErrInvalidParameter, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	for _, g := range c.Grid.Gammas {
		p := PredictorsFromGamma(c.Grid.N, g)
		if p < 1 || p > c.Grid.N {
			return fmt.Errorf("%w: gamma %g gives p = %d with n = %d, need 1 <= p <= n",
				ErrInvalidParameter, g, p, c.Grid.N)
		}
	}
	return nil
}

// formatValidationError turns a validator error into a short message
func formatValidationError(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s needs at least %s value(s)", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s, got %v", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be <= %s, got %v", field, fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be > %s, got %v", field, fe.Param(), fe.Value())
	case "lt":
		return fmt.Sprintf("%s must be < %s, got %v", field, fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// FitOptions converts the estimator section
func (c *Config) FitOptions() FitOptions {
	return FitOptions{
		MaxIter:    c.Estimators.MaxIter,
		Tol:        c.Estimators.Tol,
		Epsilon:    c.Estimators.Epsilon,
		HuberDelta: c.Estimators.HuberDelta,
		RankTol:    c.Estimators.RankTol,
		MaxCond:    c.Estimators.MaxCond,
	}
}

// SimulationOptions converts the configuration into driver options
func (c *Config) SimulationOptions() SimulationOptions {
	return SimulationOptions{
		Grid: Grid{
			N:      c.Grid.N,
			Gammas: c.Grid.Gammas,
			Rhos:   c.Grid.Rhos,
			DFs:    c.Grid.DFs,
			SNRs:   c.Grid.SNRs,
		},
		Replicates: c.Replicates,
		MasterSeed: c.Seed,
		Fit:        c.FitOptions(),
		Workers:    c.Workers,
	}
}

// SummaryOptions converts the summary section, reusing the master seed
func (c *Config) SummaryOptions() SummaryOptions {
	return SummaryOptions{
		NReplications: c.Summary.BootstrapReplications,
		Alpha:         c.Summary.Alpha,
		Seed:          c.Seed,
	}
}

// WriteYAML prints the effective configuration
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
