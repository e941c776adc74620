package gauss

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Numerical guards for the moment-matching corrections.
const (
	// maxZScore bounds standardized values before density/CDF ratios are
	// evaluated; beyond it the tail mass underflows float64 arithmetic.
	maxZScore = 30.0

	// minIntervalMass is the smallest interval probability the tie correction
	// will divide by before falling back to the nearest-edge approximation.
	minIntervalMass = 1e-12

	// maxShrink caps the variance-reduction factor so a correction never
	// manufactures a zero-variance belief through rounding alone.
	maxShrink = 1 - 1e-12
)

var unitNormal = distuv.UnitNormal

// clampZ bounds a standardized score to the numerically safe range, reporting
// whether clamping was required.
func clampZ(z float64) (float64, bool) {
	switch {
	case z > maxZScore:
		return maxZScore, true
	case z < -maxZScore:
		return -maxZScore, true
	}
	return z, false
}

// TruncWin returns the moments of the difference belief d restricted to
// d > margin, i.e. the observed strict win of the higher-ranked side.
//
// The boolean reports numeric degeneracy: the observation sat so far in the
// tail of d that the correction had to clamp before evaluating the
// density/CDF ratio.
func TruncWin(d Gaussian, margin float64) (Gaussian, bool) {
	if d.IsCertain() {
		return d, false
	}
	t := (d.Mu - margin) / d.Sigma
	t, clamped := clampZ(t)
	// A clamp on the winning side (t >> 0) only suppresses a vanishing
	// correction; only the upset side is a degeneracy.
	degenerate := clamped && t < 0

	v := unitNormal.Prob(t) / unitNormal.CDF(t)
	w := v * (v + t)
	if w > maxShrink {
		w = maxShrink
	}
	return Gaussian{
		Mu:    d.Mu + d.Sigma*v,
		Sigma: d.Sigma * math.Sqrt(1-w),
	}, degenerate
}

// TruncTie returns the moments of the difference belief d restricted to
// |d| <= margin, the observed tie between adjacent-ranked sides.
//
// With a zero draw margin the interval collapses and the analytic limit pins
// the difference at zero exactly; downstream arithmetic special-cases the
// resulting certain belief.
func TruncTie(d Gaussian, margin float64) (Gaussian, bool) {
	if margin <= 0 {
		return Certain(0), false
	}
	if d.IsCertain() {
		return d, false
	}
	alpha, _ := clampZ((-margin - d.Mu) / d.Sigma)
	beta, _ := clampZ((margin - d.Mu) / d.Sigma)

	mass := unitNormal.CDF(beta) - unitNormal.CDF(alpha)
	if mass < minIntervalMass {
		// The prior places essentially no mass on the tie interval. Pin the
		// difference to the nearest edge and let the caller flag the update.
		edge := margin
		if d.Mu < 0 {
			edge = -margin
		}
		return Certain(edge), true
	}

	pa, pb := unitNormal.Prob(alpha), unitNormal.Prob(beta)
	v := (pa - pb) / mass
	w := v*v + (beta*pb-alpha*pa)/mass
	if w > maxShrink {
		w = maxShrink
	}
	if w < 0 {
		w = 0
	}
	return Gaussian{
		Mu:    d.Mu + d.Sigma*v,
		Sigma: d.Sigma * math.Sqrt(1-w),
	}, false
}
