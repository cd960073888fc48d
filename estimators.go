// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
	"gonum.org/v1/gonum/stat"
)

// madConsistency turns the median absolute deviation into a Gaussian sd estimate
const madConsistency = 0.6744897501960817

const (
	// ladWarmStart caps the IRLS steps used to find a starting vertex for LAD
	ladWarmStart = 30
	// simplexTol is the optimality tolerance on the reduced costs
	simplexTol = 1e-10
)

// FitModel estimates beta from (X, y) with the given method. No intercept is fitted.
// Shape problems (rows of X != len(y), fewer rows than columns) are returned as
// ErrDimensionMismatch. Numerical trouble is not an error: a rank deficient
// design comes back in FitResult.Err and a fit that ran out of iterations
// has Converged == false.
func FitModel(X mat.Matrix, y mat.Vector, method Method, opts FitOptions) (FitResult, error) {
	if X == nil || y == nil {
		return FitResult{Method: method}, fmt.Errorf("%w: X and y are required", ErrDimensionMismatch)
	}
	n, p := X.Dims()
	if y.Len() != n {
		return FitResult{Method: method}, fmt.Errorf("%w: X has %d rows, y has %d entries", ErrDimensionMismatch, n, y.Len())
	}
	if p < 1 || n < p {
		return FitResult{Method: method}, fmt.Errorf("%w: need n >= p >= 1, got n = %d, p = %d", ErrDimensionMismatch, n, p)
	}

	opts = opts.withDefaults()

	switch method {
	case OLS:
		return fitOLS(X, y, opts), nil
	case LAD:
		return fitLAD(X, y, opts), nil
	case Huber:
		return fitHuber(X, y, opts), nil
	default:
		return FitResult{Method: method}, fmt.Errorf("%w: %v", ErrUnknownMethod, method)
	}
}

// fitOLS is the closed form least squares fit
func fitOLS(X mat.Matrix, y mat.Vector, opts FitOptions) FitResult {
	beta, err := leastSquares(X, y, opts)
	if err != nil {
		return FitResult{Method: OLS, Err: err}
	}
	return FitResult{Method: OLS, BetaHat: beta, Converged: true}
}

// leastSquares solves X b ~ y through a thin SVD.
// It refuses designs whose numerical rank is below p or whose condition
// number exceeds opts.MaxCond.
func leastSquares(X mat.Matrix, y mat.Vector, opts FitOptions) (*mat.VecDense, error) {
	_, p := X.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDThin); !ok {
		return nil, fmt.Errorf("%w: SVD factorization failed", ErrRankDeficiency)
	}

	rank := svd.Rank(opts.RankTol)
	if rank < p {
		return nil, fmt.Errorf("%w: numerical rank %d < %d", ErrRankDeficiency, rank, p)
	}
	if cond := svd.Cond(); cond > opts.MaxCond || math.IsNaN(cond) {
		return nil, fmt.Errorf("%w: condition number %.3g exceeds %.3g", ErrRankDeficiency, cond, opts.MaxCond)
	}

	// Minimum-norm solution, the residual norm it returns needs a full U so it is ignored
	var beta mat.VecDense
	svd.SolveVecTo(&beta, y, rank)
	return &beta, nil
}

// weightedLeastSquares solves the weighted normal equations X'WX b = X'Wy.
// X has already passed the rank check, so a Cholesky factor is enough here.
func weightedLeastSquares(X mat.Matrix, y mat.Vector, w []float64) (*mat.VecDense, error) {
	n, p := X.Dims()
	Xw := mat.NewDense(n, p, nil)
	yw := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		sw := math.Sqrt(w[i])
		for j := 0; j < p; j++ {
			Xw.Set(i, j, sw*X.At(i, j))
		}
		yw.SetVec(i, sw*y.AtVec(i))
	}

	var xtwx mat.SymDense
	xtwx.SymOuterK(1, Xw.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtwx); !ok {
		return nil, fmt.Errorf("%w: weighted normal equations are not positive definite", ErrRankDeficiency)
	}

	var xtwy, beta mat.VecDense
	xtwy.MulVec(Xw.T(), yw)
	if err := chol.SolveVecTo(&beta, &xtwy); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRankDeficiency, err)
	}
	return &beta, nil
}

// residuals returns y - X beta as a plain slice
func residuals(X mat.Matrix, y mat.Vector, beta *mat.VecDense) []float64 {
	n, _ := X.Dims()
	var fitted mat.VecDense
	fitted.MulVec(X, beta)

	r := make([]float64, n)
	for i := 0; i < n; i++ {
		r[i] = y.AtVec(i) - fitted.AtVec(i)
	}
	return r
}

// irlsProblem describes one iteratively reweighted least squares fit.
type irlsProblem struct {
	method Method
	// weights for the next weighted solve given current residuals
	weights func(r []float64) []float64
	// criterion used to keep the best iterate, smaller is better
	objective func(r []float64) float64
}

// runIRLS reweights from start for at most maxIter steps. It stops once the
// largest coefficient change drops below tol relative to the coefficient
// size, or the objective changes by less than tol relative to its value.
// The best iterate seen is returned either way.
func runIRLS(X mat.Matrix, y mat.Vector, start *mat.VecDense, prob irlsProblem, maxIter int, tol float64) FitResult {
	beta := start
	r := residuals(X, y, beta)
	obj := prob.objective(r)

	best := mat.VecDenseCopyOf(beta)
	bestObj := obj

	converged := false
	iter := 0

	for iter < maxIter {
		iter++

		next, err := weightedLeastSquares(X, y, prob.weights(r))
		if err != nil {
			// degenerate weights, keep the best iterate and flag it
			break
		}

		delta := 0.0
		scale := 1.0
		for j := 0; j < next.Len(); j++ {
			delta = math.Max(delta, math.Abs(next.AtVec(j)-beta.AtVec(j)))
			scale = math.Max(scale, math.Abs(next.AtVec(j)))
		}

		beta = next
		r = residuals(X, y, beta)
		prev := obj
		obj = prob.objective(r)
		if obj <= bestObj {
			bestObj = obj
			best = mat.VecDenseCopyOf(beta)
		}

		if delta <= tol*scale || math.Abs(prev-obj) <= tol*prev {
			converged = true
			break
		}
	}

	return FitResult{
		Method:     prob.method,
		BetaHat:    best,
		Converged:  converged,
		Iterations: iter,
	}
}

// ladProblem reweights with 1/|r_i|, floored at eps
func ladProblem(eps float64) irlsProblem {
	return irlsProblem{
		method: LAD,
		weights: func(r []float64) []float64 {
			w := make([]float64, len(r))
			for i, ri := range r {
				w[i] = 1 / math.Max(math.Abs(ri), eps)
			}
			return w
		},
		objective: meanAbs,
	}
}

// fitLAD minimizes the mean absolute residual. A few IRLS steps from the OLS
// fit locate a vertex near the optimum, the simplex method then solves the
// linear program exactly from there. If no vertex can be built the IRLS
// iterate is returned with the usual convergence flag.
func fitLAD(X mat.Matrix, y mat.Vector, opts FitOptions) FitResult {
	start, err := leastSquares(X, y, opts)
	if err != nil {
		return FitResult{Method: LAD, Err: err}
	}
	prob := ladProblem(opts.Epsilon)

	// 1. Warm start
	warm := runIRLS(X, y, start, prob, min(opts.MaxIter, ladWarmStart), opts.Tol)

	// 2. Exact solve
	beta, err := ladSimplex(X, y, warm.BetaHat, opts)
	if err == nil {
		return FitResult{Method: LAD, BetaHat: beta, Converged: true, Iterations: warm.Iterations}
	}

	// 3. Fall back on IRLS for the rest of the budget
	if warm.Converged || warm.Iterations >= opts.MaxIter {
		return warm
	}
	rest := runIRLS(X, y, warm.BetaHat, prob, opts.MaxIter-warm.Iterations, opts.Tol)
	rest.Iterations += warm.Iterations
	return rest
}

// ladSimplex solves min sum |y - X b| as the standard form linear program
//
//	min 1'u+ + 1'u-  s.t.  X b+ - X b- + u+ - u- = y,  b+, b-, u+, u- >= 0
//
// starting from the vertex that interpolates the p observations best fitted
// by start.
func ladSimplex(X mat.Matrix, y mat.Vector, start *mat.VecDense, opts FitOptions) (*mat.VecDense, error) {
	n, p := X.Dims()
	r := residuals(X, y, start)

	// An exact fit is already optimal
	scale, worst := 1.0, 0.0
	for i := 0; i < n; i++ {
		scale = math.Max(scale, math.Abs(y.AtVec(i)))
		worst = math.Max(worst, math.Abs(r[i]))
	}
	if worst <= simplexTol*scale {
		return mat.VecDenseCopyOf(start), nil
	}

	// 1. Starting vertex through the p smallest residuals
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(r[order[a]]) < math.Abs(r[order[b]])
	})
	rows := order[:p]

	XI := mat.NewDense(p, p, nil)
	yI := mat.NewVecDense(p, nil)
	for k, i := range rows {
		for j := 0; j < p; j++ {
			XI.Set(k, j, X.At(i, j))
		}
		yI.SetVec(k, y.AtVec(i))
	}
	var lu mat.LU
	lu.Factorize(XI)
	if cond := lu.Cond(); cond > opts.MaxCond || math.IsNaN(cond) {
		return nil, fmt.Errorf("%w: starting vertex has condition number %.3g", ErrRankDeficiency, cond)
	}
	var vertex mat.VecDense
	if err := lu.SolveVecTo(&vertex, false, yI); err != nil {
		return nil, fmt.Errorf("%w: starting vertex: %v", ErrRankDeficiency, err)
	}
	rv := residuals(X, y, &vertex)

	// 2. Standard form, columns ordered b+, b-, u+, u-
	cols := 2*p + 2*n
	A := mat.NewDense(n, cols, nil)
	c := make([]float64, cols)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			v := X.At(i, j)
			A.Set(i, j, v)
			A.Set(i, p+j, -v)
		}
		A.Set(i, 2*p+i, 1)
		A.Set(i, 2*p+n+i, -1)
		b[i] = y.AtVec(i)
	}
	for k := 2 * p; k < cols; k++ {
		c[k] = 1
	}

	// The basis holds each coefficient and the residual of every
	// observation off the vertex, on the side of its sign
	onVertex := make([]bool, n)
	for _, i := range rows {
		onVertex[i] = true
	}
	basis := make([]int, 0, n)
	for j := 0; j < p; j++ {
		if vertex.AtVec(j) >= 0 {
			basis = append(basis, j)
		} else {
			basis = append(basis, p+j)
		}
	}
	for i := 0; i < n; i++ {
		if onVertex[i] {
			continue
		}
		if rv[i] >= 0 {
			basis = append(basis, 2*p+i)
		} else {
			basis = append(basis, 2*p+n+i)
		}
	}

	// 3. Simplex
	x, err := simplex(c, A, b, basis)
	if err != nil {
		return nil, err
	}
	beta := mat.NewVecDense(p, nil)
	for j := 0; j < p; j++ {
		beta.SetVec(j, x[j]-x[p+j])
	}
	return beta, nil
}

// simplex runs lp.Simplex from a known basis. lp.Simplex panics when the
// basis turns out infeasible in its own arithmetic, that is reported as an error.
func simplex(c []float64, A mat.Matrix, b []float64, basis []int) (x []float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			x, err = nil, fmt.Errorf("simplex: %v", rec)
		}
	}()

	_, x, err = lp.Simplex(c, A, b, simplexTol, basis)
	if err != nil {
		return nil, fmt.Errorf("simplex: %w", err)
	}
	return x, nil
}

// huberScale is MAD/0.6745 of the OLS residuals, corrected for the p fitted
// coefficients. It stays fixed during the fit.
func huberScale(r []float64, p int) float64 {
	s := robustScale(r)
	n := len(r)
	if n > p {
		s *= math.Sqrt(float64(n) / float64(n-p))
	}
	return s
}

// fitHuber minimizes the Huber loss of the standardized residuals r/s with the
// scale s held at its value for the OLS fit
func fitHuber(X mat.Matrix, y mat.Vector, opts FitOptions) FitResult {
	start, err := leastSquares(X, y, opts)
	if err != nil {
		return FitResult{Method: Huber, Err: err}
	}

	_, p := X.Dims()
	s := huberScale(residuals(X, y, start), p)
	delta := opts.HuberDelta

	prob := irlsProblem{
		method: Huber,
		weights: func(r []float64) []float64 {
			w := make([]float64, len(r))
			for i, ri := range r {
				if s == 0 {
					w[i] = 1
					continue
				}
				u := math.Abs(ri) / s
				if u <= delta {
					w[i] = 1
				} else {
					w[i] = delta / u
				}
			}
			return w
		},
		objective: func(r []float64) float64 {
			return huberObjective(r, s, delta)
		},
	}
	return runIRLS(X, y, start, prob, opts.MaxIter, opts.Tol)
}

// huberLoss is quadratic up to delta and linear beyond
func huberLoss(u, delta float64) float64 {
	a := math.Abs(u)
	if a <= delta {
		return 0.5 * u * u
	}
	return delta * (a - 0.5*delta)
}

// huberObjective is the mean Huber loss of r/s (plain squared loss if s is zero)
func huberObjective(r []float64, s, delta float64) float64 {
	if len(r) == 0 {
		return 0
	}
	total := 0.0
	for _, ri := range r {
		if s == 0 {
			total += 0.5 * ri * ri
			continue
		}
		total += huberLoss(ri/s, delta)
	}
	return total / float64(len(r))
}

// meanAbs is the mean absolute value of r
func meanAbs(r []float64) float64 {
	if len(r) == 0 {
		return 0
	}
	total := 0.0
	for _, ri := range r {
		total += math.Abs(ri)
	}
	return total / float64(len(r))
}

// median returns the 0.5 empirical quantile of x without modifying it
func median(x []float64) float64 {
	return quantile(x, 0.5)
}

// robustScale is MAD(r)/0.6745, falling back to the mean absolute residual
// when more than half the residuals are identical
func robustScale(r []float64) float64 {
	if len(r) == 0 {
		return 0
	}
	m := median(r)
	dev := make([]float64, len(r))
	for i, ri := range r {
		dev[i] = math.Abs(ri - m)
	}
	s := median(dev) / madConsistency
	if s > 0 {
		return s
	}
	return stat.Mean(dev, nil)
}
