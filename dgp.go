// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// pcgStream is the second PCG word, fixed so a seed maps to one stream
const pcgStream = 0x9e3779b97f4a7c15

// minSigma2 keeps the noise variance away from zero for finite SNR
const minSigma2 = 1e-12

// newSource builds the generator owned by a single DGP call
func newSource(seed uint64) *rand.PCG {
	return rand.NewPCG(seed, seed^pcgStream)
}

// PredictorsFromGamma converts an aspect ratio into a predictor count, p = round(gamma * n)
func PredictorsFromGamma(n int, gamma float64) int {
	return int(math.Round(gamma * float64(n)))
}

// SimulateFromConfig runs the DGP for one experiment configuration.
// Invalid parameters come back as a *ConfigError naming cfg.
func SimulateFromConfig(cfg ExperimentConfig) (*Dataset, error) {
	ds, err := SimulateDataset(cfg.N, cfg.P, cfg.DF, cfg.SNR, cfg.Rho, cfg.Seed)
	if err != nil {
		if ce, ok := err.(*ConfigError); ok {
			ce.Config = cfg
			return nil, ce
		}
		return nil, fmt.Errorf("simulate [%s]: %w", cfg, err)
	}
	return ds, nil
}

// validateDGP checks the parameters the generator depends on
func validateDGP(n, p int, df, snr, rho float64) error {
	switch {
	case n < 1:
		return fmt.Errorf("n must be >= 1, got %d", n)
	case p < 1:
		return fmt.Errorf("p must be >= 1, got %d", p)
	case math.IsNaN(df) || df <= 0:
		return fmt.Errorf("df must be > 0, got %g", df)
	case math.IsNaN(snr) || snr <= 0:
		return fmt.Errorf("snr must be > 0, got %g", snr)
	case math.IsNaN(rho) || rho <= -1 || rho >= 1:
		return fmt.Errorf("rho must lie in (-1, 1), got %g", rho)
	}
	return nil
}

// SimulateDataset draws one dataset y = X beta + eps.
// n: samples, p: predictors, df: Student-t degrees of freedom (+Inf for Gaussian),
// snr: target Var(X beta)/sigma^2 (+Inf for no noise), rho: AR(1) correlation.
// All randomness comes from a generator seeded with seed inside this call,
// drawn in the fixed order Z, beta, eps.
func SimulateDataset(n, p int, df, snr, rho float64, seed uint64) (*Dataset, error) {
	if err := validateDGP(n, p, df, snr, rho); err != nil {
		return nil, &ConfigError{
			Config: ExperimentConfig{N: n, P: p, DF: df, SNR: snr, Rho: rho, Seed: seed},
			Reason: err.Error(),
		}
	}

	src := newSource(seed)
	rng := rand.New(src)

	// 1. Correlated design
	X, err := sampleDesignMatrix(n, p, rho, rng)
	if err != nil {
		return nil, err
	}

	// 2. True coefficients beta ~ N(0, I)
	beta := mat.NewVecDense(p, nil)
	for j := 0; j < p; j++ {
		beta.SetVec(j, rng.NormFloat64())
	}

	// 3. Noise scale for the requested SNR
	var signal mat.VecDense
	signal.MulVec(X, beta)
	sigma := sigmaForSNR(signal.RawVector().Data, snr)

	// 4. Heavy-tailed noise
	eps := sampleErrors(n, df, sigma, src)

	// 5. Response
	y := mat.NewVecDense(n, nil)
	y.AddVec(&signal, mat.NewVecDense(n, eps))

	return &Dataset{X: X, Y: y, Beta: beta, Sigma: sigma}, nil
}

// ar1Covariance returns the p x p matrix with entries rho^|j-k|
func ar1Covariance(p int, rho float64) *mat.SymDense {
	sigma := mat.NewSymDense(p, nil)
	for j := 0; j < p; j++ {
		for k := j; k < p; k++ {
			sigma.SetSym(j, k, math.Pow(rho, float64(k-j)))
		}
	}
	return sigma
}

// sampleDesignMatrix draws X = Z L' where L L' is the AR(1) covariance
func sampleDesignMatrix(n, p int, rho float64, rng *rand.Rand) (*mat.Dense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(ar1Covariance(p, rho)); !ok {
		return nil, &ConfigError{
			Config: ExperimentConfig{N: n, P: p, Rho: rho},
			Reason: "AR(1) covariance is not positive definite",
		}
	}
	L := mat.NewTriDense(p, mat.Lower, nil)
	chol.LTo(L)

	// Gonum stores row major, so fill Z row by row
	z := make([]float64, n*p)
	for i := range z {
		z[i] = rng.NormFloat64()
	}
	Z := mat.NewDense(n, p, z)

	X := mat.NewDense(n, p, nil)
	X.Mul(Z, L.T())
	return X, nil
}

// sigmaForSNR picks sigma so that Var(signal)/sigma^2 = snr
func sigmaForSNR(signal []float64, snr float64) float64 {
	if math.IsInf(snr, 1) {
		return 0
	}

	var signalVar float64
	if len(signal) < 2 {
		// a single point has no sample variance, use its power instead
		for _, s := range signal {
			signalVar += s * s
		}
	} else {
		signalVar = stat.Variance(signal, nil)
	}

	sigma2 := signalVar / snr
	return math.Sqrt(math.Max(sigma2, minSigma2))
}

// sampleErrors draws n noise terms with standard deviation close to sigma.
// df = +Inf gives Gaussian noise; for df > 2 the t draws are rescaled with the
// theoretical variance df/(df-2), otherwise with their population standard deviation.
func sampleErrors(n int, df, sigma float64, src rand.Source) []float64 {
	eps := make([]float64, n)

	if math.IsInf(df, 1) {
		norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
		for i := range eps {
			eps[i] = norm.Rand() * sigma
		}
		return eps
	}

	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df, Src: src}
	for i := range eps {
		eps[i] = t.Rand()
	}

	var scale float64
	if df > 2 {
		scale = sigma / math.Sqrt(df/(df-2))
	} else {
		// population sd, n in the denominator
		sd := math.Sqrt(stat.PopVariance(eps, nil))
		if math.IsNaN(sd) || sd == 0 || math.IsInf(sd, 0) {
			scale = sigma
		} else {
			scale = sigma / sd
		}
	}

	for i := range eps {
		eps[i] *= scale
	}
	return eps
}
