package model

// CurvePoint is one entry of a competitor's learning curve: the posterior
// skill belief at the time of a match the competitor played.
type CurvePoint struct {
	Time  float64
	Mu    float64
	Sigma float64

	// Degenerate marks a checkpoint whose update required a numeric
	// recovery (precision floor or tail clamp). Advisory only.
	Degenerate bool
}

// ConservativeRating is the risk-adjusted point estimate mu - 3*sigma used
// for ranking competitors.
func (p CurvePoint) ConservativeRating() float64 {
	return p.Mu - 3*p.Sigma
}

// Curve is a competitor's full learning curve, ordered by time.
type Curve []CurvePoint

// Last returns the final point of the curve and whether one exists.
func (c Curve) Last() (CurvePoint, bool) {
	if len(c) == 0 {
		return CurvePoint{}, false
	}
	return c[len(c)-1], true
}
