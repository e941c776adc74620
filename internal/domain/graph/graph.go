// Package graph builds the per-match factor graph and runs the local message
// passing that turns an observed ranking into one skill-belief update per
// competitor.
//
// The graph for a match is a chain: each competitor contributes a performance
// node (skill belief widened by the performance-noise variance beta²), each
// team node sums its members' performances, and each adjacent pair of teams
// in rank order is tied together by a difference node carrying the observed
// order or tie constraint. Evidence enters through the truncated-Gaussian
// correction on the difference nodes and flows back to the performance nodes
// by expectation propagation along the chain.
package graph

import (
	"math"

	"github.com/okian/skilldrift/internal/domain/gauss"
)

// Default inner-loop configuration constants.
const (
	defaultBeta          = 1.0
	defaultDrawMargin    = 0.0
	defaultMaxIterations = 10
	defaultTolerance     = 1e-8
)

// Option applies a configuration option to the Graph.
type Option func(*Graph)

// WithBeta sets the performance-noise standard deviation.
func WithBeta(beta float64) Option {
	return func(g *Graph) {
		if beta > 0 {
			g.beta = beta
		}
	}
}

// WithDrawMargin sets the half-width of the tie interval.
func WithDrawMargin(margin float64) Option {
	return func(g *Graph) {
		if margin >= 0 {
			g.margin = margin
		}
	}
}

// WithMaxIterations bounds the inner loop for matches with more than two
// teams. Two-team chains are exact after a single pass.
func WithMaxIterations(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.maxIterations = n
		}
	}
}

// WithTolerance sets the local convergence threshold of the inner loop.
func WithTolerance(tol float64) Option {
	return func(g *Graph) {
		if tol > 0 {
			g.tolerance = tol
		}
	}
}

// Graph runs match-local inference. It is stateless across matches and safe
// to reuse for every match of a history.
type Graph struct {
	beta          float64
	margin        float64
	maxIterations int
	tolerance     float64
}

// New creates a match graph runner with configuration options.
func New(opts ...Option) *Graph {
	g := &Graph{
		beta:          defaultBeta,
		margin:        defaultDrawMargin,
		maxIterations: defaultMaxIterations,
		tolerance:     defaultTolerance,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Result carries the per-member skill-space likelihood messages produced by
// one match, shaped exactly like the input teams.
type Result struct {
	// Likelihoods[i][j] is the update message for member j of team i.
	Likelihoods [][]gauss.Gaussian

	// Degenerate[i][j] marks members whose update needed a numeric recovery.
	Degenerate [][]bool

	// Iterations is the number of inner sweeps the chain needed.
	Iterations int
}

// Update runs message passing for one match. Teams are listed best place
// first; skills[i][j] is the current skill prior of member j of team i and
// ranks[i] is the place of team i (equal consecutive ranks mean a tie).
// Inputs are assumed validated by the model layer.
func (g *Graph) Update(skills [][]gauss.Gaussian, ranks []int) Result {
	n := len(skills)

	// Performance priors and team-sum priors.
	perf := make([][]gauss.Gaussian, n)
	teamPrior := make([]gauss.Gaussian, n)
	for i, members := range skills {
		perf[i] = make([]gauss.Gaussian, len(members))
		sum := gauss.Certain(0)
		for j, s := range members {
			p := gauss.Gaussian{Mu: s.Mu, Sigma: math.Hypot(s.Sigma, g.beta)}
			perf[i][j] = p
			sum = sum.Add(p)
		}
		teamPrior[i] = sum
	}

	// Messages from ordering factor k (between teams k and k+1) to each side.
	nf := n - 1
	toUpper := make([]gauss.Gaussian, nf)
	toLower := make([]gauss.Gaussian, nf)
	for k := 0; k < nf; k++ {
		toUpper[k] = gauss.Uninformative
		toLower[k] = gauss.Uninformative
	}
	factorDegen := make([]bool, nf)
	diffs := make([]gauss.Gaussian, nf)

	iterations := 0
	for iter := 0; iter < g.maxIterations; iter++ {
		iterations = iter + 1
		delta := 0.0
		for k := 0; k < nf; k++ {
			// Cavity beliefs: everything each side knows except this factor.
			cavUpper := teamPrior[k]
			if k > 0 {
				cavUpper = cavUpper.Mul(toLower[k-1])
			}
			cavLower := teamPrior[k+1]
			if k+1 < nf {
				cavLower = cavLower.Mul(toUpper[k+1])
			}

			d := cavUpper.Sub(cavLower)
			var dPost gauss.Gaussian
			var degen bool
			if ranks[k] == ranks[k+1] {
				dPost, degen = gauss.TruncTie(d, g.margin)
			} else {
				dPost, degen = gauss.TruncWin(d, g.margin)
			}

			var msg gauss.Gaussian
			if d.IsCertain() {
				// The chain already pins this difference; the factor adds nothing.
				msg = gauss.Uninformative
			} else {
				var err error
				msg, err = dPost.Div(d)
				if err != nil {
					// Precision floor: fall back to the uninformative message
					// and surface the degeneracy instead of aborting the match.
					msg = gauss.Uninformative
					degen = true
				}
			}
			if degen {
				factorDegen[k] = true
			}

			toUpper[k] = msg.Add(cavLower)
			toLower[k] = cavUpper.Sub(msg)

			delta = math.Max(delta, diffs[k].Delta(dPost))
			diffs[k] = dPost
		}
		if n == 2 || delta <= g.tolerance {
			break
		}
	}

	return g.collect(skills, perf, toUpper, toLower, factorDegen, iterations)
}

// collect folds the converged factor messages back onto each member's skill.
func (g *Graph) collect(skills, perf [][]gauss.Gaussian, toUpper, toLower []gauss.Gaussian, factorDegen []bool, iterations int) Result {
	n := len(skills)
	nf := n - 1
	lik := make([][]gauss.Gaussian, n)
	degen := make([][]bool, n)

	for i := range skills {
		teamLik := gauss.Uninformative
		flagged := false
		if i > 0 {
			teamLik = teamLik.Mul(toLower[i-1])
			flagged = flagged || factorDegen[i-1]
		}
		if i < nf {
			teamLik = teamLik.Mul(toUpper[i])
			flagged = flagged || factorDegen[i]
		}

		lik[i] = make([]gauss.Gaussian, len(skills[i]))
		degen[i] = make([]bool, len(skills[i]))
		for j := range skills[i] {
			degen[i][j] = flagged
			if teamLik.IsUninformative() {
				lik[i][j] = gauss.Uninformative
				continue
			}
			// Conservation: remove the sibling members' performance share,
			// then widen by the performance noise to land in skill space.
			others := gauss.Certain(0)
			for jj := range skills[i] {
				if jj != j {
					others = others.Add(perf[i][jj])
				}
			}
			perfMsg := teamLik.Sub(others)
			lik[i][j] = gauss.Gaussian{Mu: perfMsg.Mu, Sigma: math.Hypot(perfMsg.Sigma, g.beta)}
		}
	}

	return Result{Likelihoods: lik, Degenerate: degen, Iterations: iterations}
}
