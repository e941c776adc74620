// Package history implements the top-level inference engine: it owns every
// competitor timeline and the ordered match list, and refines all beliefs
// jointly through repeated forward/backward sweeps until the maximum
// per-checkpoint change drops below epsilon or the iteration budget runs out.
//
// Sweep schedule: one iteration is a forward chronological pass followed by a
// backward pass. Within a pass the engine is Gauss-Seidel: a match updates
// its participants immediately, so later matches in the same pass already see
// its effect. The backward pass is what lets late evidence reshape early
// checkpoints; without it the loop would be a plain filter and converge after
// one pass with no smoothing.
package history

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/skilldrift/internal/domain/gauss"
	"github.com/okian/skilldrift/internal/domain/graph"
	"github.com/okian/skilldrift/internal/domain/model"
	"github.com/okian/skilldrift/pkg/logger"
	"github.com/okian/skilldrift/pkg/metrics"
)

// Default engine parameters, matching the documented configuration defaults.
const (
	defaultGamma           = 0.03
	defaultPriorSigma      = 1.667
	defaultBeta            = 1.0
	defaultEpsilon         = 1e-6
	defaultMaxIterations   = 300
	defaultDrawMargin      = 0.0
	defaultInnerIterations = 10
)

// Engine runs the convergence loop over one match history. It exclusively
// owns the competitor registry during a run; callers read results only
// through the read API after Run returns.
type Engine struct {
	gamma           float64
	priorMu         float64
	priorSigma      float64
	beta            float64
	epsilon         float64
	maxIterations   int
	drawMargin      float64
	innerIterations int

	matches   []model.Match
	graph     *graph.Graph
	timelines map[string]*timeline
	ids       []string // first-appearance order, for deterministic output

	// slots[m][i][j] is the checkpoint of member j of team i in match m.
	slots [][][]*checkpoint

	state      State
	iterations int
	delta      float64

	log logger.Logger
}

// Result reports how a Run call ended.
type Result struct {
	State      State
	Iterations int
	Delta      float64
}

// New validates the match history and builds the engine. Validation fails
// fast on the first malformed match; no sweep runs on rejected input.
func New(matches []model.Match, opts ...Option) (*Engine, error) {
	e := &Engine{
		gamma:           defaultGamma,
		priorSigma:      defaultPriorSigma,
		beta:            defaultBeta,
		epsilon:         defaultEpsilon,
		maxIterations:   defaultMaxIterations,
		drawMargin:      defaultDrawMargin,
		innerIterations: defaultInnerIterations,
		timelines:       make(map[string]*timeline),
		state:           Uninitialized,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.graph = graph.New(
		graph.WithBeta(e.beta),
		graph.WithDrawMargin(e.drawMargin),
		graph.WithMaxIterations(e.innerIterations),
	)

	e.matches = make([]model.Match, len(matches))
	copy(e.matches, matches)

	seen := make(map[string]struct{}, len(e.matches))
	for mi, m := range e.matches {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[m.ID]; ok {
			return nil, fmt.Errorf("match %s: %w", m.ID, ErrDuplicateMatchID)
		}
		seen[m.ID] = struct{}{}
		if mi > 0 && m.Time < e.matches[mi-1].Time {
			return nil, fmt.Errorf("match %s: %w: %v after %v",
				m.ID, ErrNonMonotonicTimestamps, m.Time, e.matches[mi-1].Time)
		}
		e.slots = append(e.slots, e.enroll(m))
	}

	metrics.UpdateCompetitors(len(e.ids))
	metrics.UpdateCheckpoints(e.checkpointCount())
	return e, nil
}

// enroll creates the checkpoints for one match, creating timelines lazily on
// a competitor's first appearance.
func (e *Engine) enroll(m model.Match) [][]*checkpoint {
	teams := make([][]*checkpoint, len(m.Teams))
	for i, team := range m.Teams {
		teams[i] = make([]*checkpoint, len(team.Members))
		for j, id := range team.Members {
			tl, ok := e.timelines[id]
			if !ok {
				tl = &timeline{id: id}
				e.timelines[id] = tl
				e.ids = append(e.ids, id)
			}
			teams[i][j] = tl.append(m.Time)
		}
	}
	return teams
}

// Run sweeps the history until convergence or budget exhaustion. It is
// synchronous; the caller may cancel between sweeps through ctx. Calling Run
// again after a terminal state re-sweeps with a fresh budget and reports the
// residual delta, which is at most epsilon for a converged history.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	e.state = Running
	metrics.UpdateEngineState(int(e.state))
	log := e.logger()
	log.Info(ctx, "starting convergence run",
		logger.Int("matches", len(e.matches)),
		logger.Int("competitors", len(e.ids)),
		logger.Float64("gamma", e.gamma),
		logger.Float64("epsilon", e.epsilon),
		logger.Int("max_iterations", e.maxIterations),
	)

	e.iterations = 0
	e.delta = math.Inf(1)
	for e.iterations < e.maxIterations {
		select {
		case <-ctx.Done():
			return Result{State: e.state, Iterations: e.iterations, Delta: e.delta},
				fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
		default:
		}

		start := time.Now()
		e.delta = e.sweep()
		e.iterations++

		metrics.RecordSweepDuration(float64(time.Since(start).Milliseconds()))
		metrics.UpdateConvergenceDelta(e.delta)

		if e.delta < e.epsilon {
			e.state = Converged
			break
		}
	}
	if e.state != Converged {
		e.state = MaxIterationsReached
	}
	metrics.UpdateEngineState(int(e.state))

	log.Info(ctx, "convergence run finished",
		logger.String("state", e.state.String()),
		logger.Int("iterations", e.iterations),
		logger.Float64("delta", e.delta),
	)
	return Result{State: e.state, Iterations: e.iterations, Delta: e.delta}, nil
}

// sweep runs one forward pass and one backward pass over the full match list
// and returns the maximum posterior change across all checkpoints.
func (e *Engine) sweep() float64 {
	maxDelta := 0.0
	for mi := range e.matches {
		maxDelta = math.Max(maxDelta, e.updateMatch(mi, true))
	}
	for mi := len(e.matches) - 1; mi >= 0; mi-- {
		maxDelta = math.Max(maxDelta, e.updateMatch(mi, false))
	}
	return maxDelta
}

// updateMatch refreshes the direction-specific incoming messages for every
// participant, reruns the match factor graph on the resulting priors, and
// fuses the new likelihoods into the posteriors in place.
func (e *Engine) updateMatch(mi int, forward bool) float64 {
	m := e.matches[mi]
	slots := e.slots[mi]

	skills := make([][]gauss.Gaussian, len(slots))
	ranks := make([]int, len(slots))
	for i, team := range slots {
		ranks[i] = m.RankOf(i)
		skills[i] = make([]gauss.Gaussian, len(team))
		for j, cp := range team {
			if forward {
				cp.forward = e.forwardMessage(cp)
			} else {
				cp.backward = e.backwardMessage(cp)
			}
			cp.prior = cp.forward.Mul(cp.backward)
			skills[i][j] = cp.prior
		}
	}

	res := e.graph.Update(skills, ranks)
	metrics.RecordMatchProcessed()

	delta := 0.0
	for i, team := range slots {
		for j, cp := range team {
			cp.likelihood = res.Likelihoods[i][j]
			if res.Degenerate[i][j] && !cp.degenerate {
				cp.degenerate = true
				metrics.RecordDegenerateUpdate()
			}
			post := cp.prior.Mul(cp.likelihood)
			delta = math.Max(delta, cp.posterior.Delta(post))
			cp.posterior = post
		}
	}
	return delta
}

// LearningCurves returns, per competitor, the ordered sequence of posterior
// beliefs at each match they played. Valid only once the engine has left
// Uninitialized.
func (e *Engine) LearningCurves() (map[string]model.Curve, error) {
	if e.state == Uninitialized {
		return nil, ErrEngineNotRun
	}
	curves := make(map[string]model.Curve, len(e.ids))
	for _, id := range e.ids {
		tl := e.timelines[id]
		curve := make(model.Curve, 0, len(tl.points))
		for _, cp := range tl.points {
			curve = append(curve, model.CurvePoint{
				Time:       cp.t,
				Mu:         cp.posterior.Mu,
				Sigma:      cp.posterior.Sigma,
				Degenerate: cp.degenerate,
			})
		}
		curves[id] = curve
	}
	return curves, nil
}

// Checkpoint is the read-side view of one timeline entry, exposing the prior
// alongside the posterior.
type Checkpoint struct {
	Time       float64
	Prior      gauss.Gaussian
	Posterior  gauss.Gaussian
	Degenerate bool
}

// Checkpoints returns one competitor's full timeline, priors included. Valid
// only once the engine has left Uninitialized.
func (e *Engine) Checkpoints(id string) ([]Checkpoint, error) {
	if e.state == Uninitialized {
		return nil, ErrEngineNotRun
	}
	tl, ok := e.timelines[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompetitor, id)
	}
	out := make([]Checkpoint, 0, len(tl.points))
	for _, cp := range tl.points {
		out = append(out, Checkpoint{
			Time:       cp.t,
			Prior:      cp.prior,
			Posterior:  cp.posterior,
			Degenerate: cp.degenerate,
		})
	}
	return out, nil
}

// FinalRatings returns each competitor's conservative rating at their last
// checkpoint, the scalar the reporting side ranks by.
func (e *Engine) FinalRatings() (map[string]float64, error) {
	curves, err := e.LearningCurves()
	if err != nil {
		return nil, err
	}
	ratings := make(map[string]float64, len(curves))
	for id, curve := range curves {
		if last, ok := curve.Last(); ok {
			ratings[id] = last.ConservativeRating()
		}
	}
	return ratings, nil
}

// State returns the current engine state.
func (e *Engine) State() State { return e.state }

// Iterations returns the sweep count of the most recent Run call.
func (e *Engine) Iterations() int { return e.iterations }

// Delta returns the last measured maximum posterior change.
func (e *Engine) Delta() float64 { return e.delta }

// Competitors returns competitor ids in first-appearance order.
func (e *Engine) Competitors() []string {
	ids := make([]string, len(e.ids))
	copy(ids, e.ids)
	return ids
}

func (e *Engine) checkpointCount() int {
	n := 0
	for _, tl := range e.timelines {
		n += len(tl.points)
	}
	return n
}

func (e *Engine) logger() logger.Logger {
	if e.log == nil {
		e.log = logger.Get()
	}
	return e.log
}
