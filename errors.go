// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"errors"
	"fmt"
)

// Fatal errors abort a run, recoverable ones end up as flagged rows.
var (
	// ErrInvalidParameter is a malformed experiment configuration (fatal).
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrDimensionMismatch means X and y (or two coefficient vectors) do not line up.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrRankDeficiency means X (or a weighted X) is not numerically full column rank.
	ErrRankDeficiency = errors.New("rank deficient design")
	// ErrNonConvergence is reported when an iterative fit ran out of iterations.
	ErrNonConvergence = errors.New("did not converge")
	// ErrUnknownMethod is an estimator name outside {OLS, LAD, Huber}.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrPersist is an I/O failure while saving the results table (fatal).
	ErrPersist = errors.New("persist results")
)

// ConfigError identifies the configuration that made the DGP fail.
type ConfigError struct {
	Config ExperimentConfig
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s [%s]", ErrInvalidParameter, e.Reason, e.Config)
}

// Unwrap lets errors.Is match ErrInvalidParameter
func (e *ConfigError) Unwrap() error { return ErrInvalidParameter }

// isRecoverable reports whether a fit error should be recorded as a row
// instead of aborting the run
func isRecoverable(err error) bool {
	return errors.Is(err, ErrRankDeficiency) || errors.Is(err, ErrNonConvergence)
}
