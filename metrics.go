// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Evaluate returns mean((betaHat - betaTrue)^2).
// A missing estimate gives NaN; vectors of different lengths are an error.
func Evaluate(betaTrue, betaHat mat.Vector) (float64, error) {
	if betaTrue == nil {
		return math.NaN(), fmt.Errorf("%w: true coefficients missing", ErrDimensionMismatch)
	}
	if betaHat == nil {
		return math.NaN(), nil
	}
	p := betaTrue.Len()
	if betaHat.Len() != p {
		return math.NaN(), fmt.Errorf("%w: beta has %d entries, estimate has %d", ErrDimensionMismatch, p, betaHat.Len())
	}
	if p == 0 {
		return math.NaN(), nil
	}

	var diff mat.VecDense
	diff.SubVec(betaHat, betaTrue)
	return mat.Dot(&diff, &diff) / float64(p), nil
}

// fitStatus maps a fit onto the status column
func fitStatus(fit FitResult) string {
	switch {
	case errors.Is(fit.Err, ErrDimensionMismatch):
		return StatusDimensionMismatch
	case errors.Is(fit.Err, ErrRankDeficiency):
		return StatusRankDeficient
	case fit.BetaHat == nil:
		return StatusRankDeficient
	case errors.Is(fit.Err, ErrNonConvergence), !fit.Converged:
		return StatusNotConverged
	default:
		return StatusOK
	}
}

// BuildRecord assembles the row for one (configuration, method) pair.
// Rows without an estimate always carry a NaN mse.
func BuildRecord(cfg ExperimentConfig, fit FitResult, mse float64) ResultRecord {
	if fit.BetaHat == nil {
		mse = math.NaN()
	}
	return ResultRecord{
		N:          cfg.N,
		P:          cfg.P,
		Gamma:      cfg.Gamma,
		Rho:        cfg.Rho,
		DF:         cfg.DF,
		SNR:        cfg.SNR,
		Replicate:  cfg.Replicate,
		Seed:       cfg.Seed,
		Method:     fit.Method.String(),
		MSE:        mse,
		Converged:  fit.Converged,
		Iterations: fit.Iterations,
		Status:     fitStatus(fit),
	}
}

// RecordHeader is the column order of the persisted table.
// The plotting side relies on these names and this order.
func RecordHeader() []string {
	return []string{
		"n", "p", "gamma", "rho", "df", "snr",
		"replicate_id", "seed", "method", "mse",
		"converged", "iterations", "status",
	}
}

// Fields renders the row in RecordHeader order
func (r ResultRecord) Fields() []string {
	return []string{
		strconv.Itoa(r.N),
		strconv.Itoa(r.P),
		formatFloat(r.Gamma),
		formatFloat(r.Rho),
		formatFloat(r.DF),
		formatFloat(r.SNR),
		strconv.Itoa(r.Replicate),
		strconv.FormatUint(r.Seed, 10),
		r.Method,
		formatFloat(r.MSE),
		strconv.FormatBool(r.Converged),
		strconv.Itoa(r.Iterations),
		r.Status,
	}
}

// formatFloat writes the shortest exact representation, spelling the
// non-finite values inf, -inf and NaN
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// parseFloat is the inverse of formatFloat
func parseFloat(s string) (float64, error) {
	switch s {
	case "NaN", "nan", "":
		return math.NaN(), nil
	case "inf", "Inf", "+inf", "+Inf", "infinity":
		return math.Inf(1), nil
	case "-inf", "-Inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, 64)
}

// parseRecord is the inverse of Fields
func parseRecord(fields []string) (ResultRecord, error) {
	if len(fields) != len(RecordHeader()) {
		return ResultRecord{}, fmt.Errorf("expected %d columns, got %d", len(RecordHeader()), len(fields))
	}

	var (
		rec ResultRecord
		err error
	)
	if rec.N, err = strconv.Atoi(fields[0]); err != nil {
		return rec, fmt.Errorf("n: %w", err)
	}
	if rec.P, err = strconv.Atoi(fields[1]); err != nil {
		return rec, fmt.Errorf("p: %w", err)
	}
	floats := []*float64{&rec.Gamma, &rec.Rho, &rec.DF, &rec.SNR}
	for i, dst := range floats {
		if *dst, err = parseFloat(fields[2+i]); err != nil {
			return rec, fmt.Errorf("%s: %w", RecordHeader()[2+i], err)
		}
	}
	if rec.Replicate, err = strconv.Atoi(fields[6]); err != nil {
		return rec, fmt.Errorf("replicate_id: %w", err)
	}
	if rec.Seed, err = strconv.ParseUint(fields[7], 10, 64); err != nil {
		return rec, fmt.Errorf("seed: %w", err)
	}
	rec.Method = fields[8]
	if rec.MSE, err = parseFloat(fields[9]); err != nil {
		return rec, fmt.Errorf("mse: %w", err)
	}
	if rec.Converged, err = strconv.ParseBool(fields[10]); err != nil {
		return rec, fmt.Errorf("converged: %w", err)
	}
	if rec.Iterations, err = strconv.Atoi(fields[11]); err != nil {
		return rec, fmt.Errorf("iterations: %w", err)
	}
	rec.Status = fields[12]
	return rec, nil
}
