// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// cellKey identifies one line point of the mse vs df plots
type cellKey struct {
	Method string
	Gamma  float64
	SNR    float64
	DF     float64
}

// methodRank orders methods the way they are fitted, unknown names last
func methodRank(name string) int {
	if m, err := ParseMethod(name); err == nil {
		return int(m)
	}
	return len(AllMethods)
}

// Summarize averages the mse over replicates and rho for every
// (method, gamma, snr, df) cell. NaN rows are counted but left out of the
// averages. Each mean gets a percentile bootstrap interval.
func Summarize(table *ResultTable, opts SummaryOptions) []SummaryRow {
	// Default options if not set
	if opts.NReplications <= 0 {
		opts.NReplications = 1000
	}
	if opts.Alpha <= 0 || opts.Alpha >= 1 {
		opts.Alpha = 0.05
	}
	if opts.Seed == 0 {
		opts.Seed = 1
	}

	// 1. Group rows by cell
	cells := make(map[cellKey]*SummaryRow)
	samples := make(map[cellKey][]float64)
	for _, rec := range table.Records {
		key := cellKey{Method: rec.Method, Gamma: rec.Gamma, SNR: rec.SNR, DF: rec.DF}
		row, ok := cells[key]
		if !ok {
			row = &SummaryRow{Method: rec.Method, Gamma: rec.Gamma, SNR: rec.SNR, DF: rec.DF, Alpha: opts.Alpha}
			cells[key] = row
		}
		row.Count++
		if rec.Status == StatusNotConverged {
			row.NotConverg++
		}
		if !math.IsNaN(rec.MSE) && !math.IsInf(rec.MSE, 0) {
			row.Valid++
			samples[key] = append(samples[key], rec.MSE)
		}
	}

	// 2. Stable order: gamma, snr, method, df
	keys := make([]cellKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Gamma != b.Gamma {
			return a.Gamma < b.Gamma
		}
		if a.SNR != b.SNR {
			return a.SNR < b.SNR
		}
		if ra, rb := methodRank(a.Method), methodRank(b.Method); ra != rb {
			return ra < rb
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		return a.DF < b.DF
	})

	// 3. Point estimates and bootstrap bands
	lowerQ := opts.Alpha / 2.0
	upperQ := 1.0 - opts.Alpha/2.0

	out := make([]SummaryRow, 0, len(keys))
	for idx, k := range keys {
		row := cells[k]
		vals := samples[k]
		if len(vals) == 0 {
			row.MeanMSE, row.MedianMSE = math.NaN(), math.NaN()
			row.LowerMSE, row.UpperMSE = math.NaN(), math.NaN()
			out = append(out, *row)
			continue
		}

		row.MeanMSE = stat.Mean(vals, nil)
		row.MedianMSE = median(vals)

		// Local RNG for this cell so the bands do not depend on map order
		rng := rand.New(newSource(DeriveSeed(opts.Seed, idx, 0)))
		means := bootstrapMeans(vals, opts.NReplications, rng)
		row.LowerMSE = quantile(means, lowerQ)
		row.UpperMSE = quantile(means, upperQ)

		out = append(out, *row)
	}
	return out
}

// bootstrapMeans resamples vals with replacement nrep times and returns the means
func bootstrapMeans(vals []float64, nrep int, rng *rand.Rand) []float64 {
	n := len(vals)
	means := make([]float64, nrep)
	for b := 0; b < nrep; b++ {
		total := 0.0
		for i := 0; i < n; i++ {
			total += vals[rng.IntN(n)]
		}
		means[b] = total / float64(n)
	}
	return means
}

// quantile is the q-quantile of x, interpolating linearly between the order
// statistics around position q*(n-1). q is clamped to [0, 1] and x is not reordered.
func quantile(x []float64, q float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(x)
	slices.Sort(sorted)

	q = math.Min(math.Max(q, 0), 1)
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if frac == 0 {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// EfficiencyRow compares two methods on one (gamma, snr, df) cell.
type EfficiencyRow struct {
	Gamma float64
	SNR   float64
	DF    float64
	Ratio float64 // mean mse of the first method over the second
}

// RelativeEfficiency returns mean mse(num) / mean mse(den) for every cell where
// both methods have a summary, e.g. LAD over OLS. Rows keep the summary order.
func RelativeEfficiency(rows []SummaryRow, num, den string) []EfficiencyRow {
	type point struct{ gamma, snr, df float64 }

	denom := make(map[point]float64)
	for _, s := range rows {
		if s.Method == den {
			denom[point{s.Gamma, s.SNR, s.DF}] = s.MeanMSE
		}
	}

	var out []EfficiencyRow
	for _, s := range rows {
		if s.Method != num {
			continue
		}
		d, ok := denom[point{s.Gamma, s.SNR, s.DF}]
		if !ok {
			continue
		}
		ratio := math.NaN()
		if d != 0 && !math.IsNaN(d) {
			ratio = s.MeanMSE / d
		}
		out = append(out, EfficiencyRow{Gamma: s.Gamma, SNR: s.SNR, DF: s.DF, Ratio: ratio})
	}
	return out
}
