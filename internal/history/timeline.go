package history

import (
	"github.com/okian/skilldrift/internal/domain/gauss"
)

// checkpoint is one competitor's belief state at one match. It owns the three
// messages the smoothing schedule combines: the forward message from the
// competitor's past, the backward message from their future, and the
// likelihood message the match itself produced.
type checkpoint struct {
	t    float64
	prev *checkpoint
	next *checkpoint

	forward    gauss.Gaussian
	backward   gauss.Gaussian
	likelihood gauss.Gaussian

	prior     gauss.Gaussian
	posterior gauss.Gaussian

	// degenerate is set once any update at this checkpoint needed a numeric
	// recovery; it stays set as a warning annotation on the output curve.
	degenerate bool
}

// timeline is the ordered checkpoint sequence of one competitor, created
// lazily on first appearance and never destroyed during a run.
type timeline struct {
	id     string
	points []*checkpoint
}

// append adds a checkpoint at time t and links it to its predecessor.
// Matches arrive in nondecreasing timestamp order, so appending keeps the
// sequence ordered; equal timestamps keep stable input order.
func (tl *timeline) append(t float64) *checkpoint {
	cp := &checkpoint{
		t:          t,
		forward:    gauss.Uninformative,
		backward:   gauss.Uninformative,
		likelihood: gauss.Uninformative,
		prior:      gauss.Uninformative,
		posterior:  gauss.Uninformative,
	}
	if n := len(tl.points); n > 0 {
		prev := tl.points[n-1]
		prev.next = cp
		cp.prev = prev
	}
	tl.points = append(tl.points, cp)
	return cp
}

// forwardMessage is the drifted filtering belief entering cp from the past:
// the previous checkpoint's forward and likelihood messages fused, with
// Brownian drift applied over the elapsed time. First appearances use the
// global prior.
func (e *Engine) forwardMessage(cp *checkpoint) gauss.Gaussian {
	if cp.prev == nil {
		return gauss.Gaussian{Mu: e.priorMu, Sigma: e.priorSigma}
	}
	filtered := cp.prev.forward.Mul(cp.prev.likelihood)
	return filtered.Forget(e.gamma, cp.t-cp.prev.t)
}

// backwardMessage is the drifted smoothing belief entering cp from the
// future; uninformative at the competitor's last checkpoint.
func (e *Engine) backwardMessage(cp *checkpoint) gauss.Gaussian {
	if cp.next == nil {
		return gauss.Uninformative
	}
	smoothed := cp.next.backward.Mul(cp.next.likelihood)
	return smoothed.Forget(e.gamma, cp.next.t-cp.t)
}
