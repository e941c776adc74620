// Package gauss implements the scalar Gaussian belief primitive used by the
// inference engine: precision-weighted fusion, message removal, moments of
// sums and differences of independent variables, and Brownian drift.
//
// Conventions:
//   - A Gaussian is an immutable value; every operation returns a new value.
//   - Sigma == 0 is the degenerate "certain" state (infinite precision). It is
//     special-cased in all arithmetic and is never a valid divisor.
//   - Sigma == +Inf is the uninformative state (zero precision), used to seed
//     message slots before any evidence has flowed through them.
package gauss

import (
	"fmt"
	"math"
)

// Gaussian represents a scalar normal belief N(Mu, Sigma²).
type Gaussian struct {
	Mu    float64
	Sigma float64
}

// Uninformative is the zero-precision belief: multiplying by it is a no-op.
var Uninformative = Gaussian{Mu: 0, Sigma: math.Inf(1)}

// New builds a belief, rejecting negative standard deviations.
func New(mu, sigma float64) (Gaussian, error) {
	if sigma < 0 || math.IsNaN(sigma) {
		return Gaussian{}, fmt.Errorf("%w: got %v", ErrNegativeSigma, sigma)
	}
	return Gaussian{Mu: mu, Sigma: sigma}, nil
}

// Certain returns the degenerate belief pinned at mu.
func Certain(mu float64) Gaussian {
	return Gaussian{Mu: mu, Sigma: 0}
}

// IsCertain reports whether the belief carries infinite precision.
func (g Gaussian) IsCertain() bool {
	return g.Sigma == 0
}

// IsUninformative reports whether the belief carries zero precision.
func (g Gaussian) IsUninformative() bool {
	return math.IsInf(g.Sigma, 1)
}

// Pi returns the precision 1/sigma².
func (g Gaussian) Pi() float64 {
	if g.IsCertain() {
		return math.Inf(1)
	}
	if g.IsUninformative() {
		return 0
	}
	return 1 / (g.Sigma * g.Sigma)
}

// Tau returns the precision-adjusted mean mu/sigma². Callers must special-case
// certain beliefs before reading Tau.
func (g Gaussian) Tau() float64 {
	if g.IsUninformative() {
		return 0
	}
	return g.Mu / (g.Sigma * g.Sigma)
}

// Mul fuses two beliefs by precision-weighted combination.
func (g Gaussian) Mul(o Gaussian) Gaussian {
	if g.IsCertain() {
		return g
	}
	if o.IsCertain() {
		return o
	}
	pi := g.Pi() + o.Pi()
	if pi <= 0 {
		return Uninformative
	}
	tau := g.Tau() + o.Tau()
	return Gaussian{Mu: tau / pi, Sigma: math.Sqrt(1 / pi)}
}

// Div removes a previously fused message, subtracting precision. A result with
// negative precision is a modeling or convergence defect: it is reported, not
// clamped, so the caller decides how to recover. Removing an identical message
// yields the uninformative belief.
func (g Gaussian) Div(o Gaussian) (Gaussian, error) {
	if o.IsCertain() {
		return Gaussian{}, ErrDivideByCertain
	}
	if g.IsCertain() {
		// Certain numerators dominate: no finite message can dilute them.
		return g, nil
	}
	pi := g.Pi() - o.Pi()
	switch {
	case pi < 0:
		return Gaussian{}, fmt.Errorf("%w: %v", ErrNonPositivePrecision, pi)
	case pi == 0:
		return Uninformative, nil
	}
	tau := g.Tau() - o.Tau()
	return Gaussian{Mu: tau / pi, Sigma: math.Sqrt(1 / pi)}, nil
}

// Add returns the belief over the sum of two independent variables.
func (g Gaussian) Add(o Gaussian) Gaussian {
	return Gaussian{Mu: g.Mu + o.Mu, Sigma: math.Hypot(g.Sigma, o.Sigma)}
}

// Sub returns the belief over the difference of two independent variables.
func (g Gaussian) Sub(o Gaussian) Gaussian {
	return Gaussian{Mu: g.Mu - o.Mu, Sigma: math.Hypot(g.Sigma, o.Sigma)}
}

// Forget applies Brownian drift over an elapsed time: the variance grows by
// gamma²·dt while the mean is untouched.
func (g Gaussian) Forget(gamma, dt float64) Gaussian {
	if gamma == 0 || dt <= 0 {
		return g
	}
	return Gaussian{Mu: g.Mu, Sigma: math.Hypot(g.Sigma, gamma*math.Sqrt(dt))}
}

// Delta returns the larger of the mean and standard-deviation distances
// between two beliefs, the quantity the convergence loop compares to epsilon.
func (g Gaussian) Delta(o Gaussian) float64 {
	if g.IsUninformative() && o.IsUninformative() {
		return 0
	}
	return math.Max(math.Abs(g.Mu-o.Mu), math.Abs(g.Sigma-o.Sigma))
}

// ApproxEqual reports whether both mean and standard deviation agree within tol.
func (g Gaussian) ApproxEqual(o Gaussian, tol float64) bool {
	return g.Delta(o) <= tol
}

// String renders the belief for logs and test failures.
func (g Gaussian) String() string {
	return fmt.Sprintf("N(mu=%.6f, sigma=%.6f)", g.Mu, g.Sigma)
}
