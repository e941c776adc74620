// Package simulation generates synthetic match histories from known,
// drifting true skills, and verifies that inference recovers them. It stands
// in for real tournament data when exercising the engine end to end.
package simulation

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/okian/skilldrift/internal/domain/model"
)

// Default generation parameters.
const (
	defaultCompetitors = 20
	defaultMatches     = 200
	defaultTeamSize    = 1
	defaultTeams       = 2
	defaultSkillSigma  = 1.0
	defaultBeta        = 1.0
	defaultTrueGamma   = 0.03
	defaultTimeStep    = 1.0
	defaultSeed        = 1
)

// Generator samples a match history from a ground-truth skill process: each
// competitor's true skill starts at Normal(0, skillSigma) and follows a
// Brownian walk with rate trueGamma, and each match performance is the true
// skill plus Normal(0, beta) noise.
type Generator struct {
	competitors int
	matches     int
	teamSize    int
	teams       int
	skillSigma  float64
	beta        float64
	trueGamma   float64
	timeStep    float64
	seed        uint64

	rng    *rand.Rand
	ids    []string
	skills []float64
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithCompetitors sets the pool size.
func WithCompetitors(n int) Option {
	return func(g *Generator) {
		if n > 1 {
			g.competitors = n
		}
	}
}

// WithMatches sets the number of matches to sample.
func WithMatches(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.matches = n
		}
	}
}

// WithTeamSize sets the members per team.
func WithTeamSize(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.teamSize = n
		}
	}
}

// WithTeams sets the teams per match.
func WithTeams(n int) Option {
	return func(g *Generator) {
		if n > 1 {
			g.teams = n
		}
	}
}

// WithBeta sets the performance-noise standard deviation of the ground truth.
func WithBeta(beta float64) Option {
	return func(g *Generator) {
		if beta > 0 {
			g.beta = beta
		}
	}
}

// WithTrueGamma sets the drift rate of the ground-truth skills.
func WithTrueGamma(gamma float64) Option {
	return func(g *Generator) {
		if gamma >= 0 {
			g.trueGamma = gamma
		}
	}
}

// WithTimeStep sets the elapsed time between consecutive matches.
func WithTimeStep(dt float64) Option {
	return func(g *Generator) {
		if dt > 0 {
			g.timeStep = dt
		}
	}
}

// WithSeed fixes the random source for reproducible histories.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// New constructs a Generator and draws the initial true skills.
func New(opts ...Option) *Generator {
	g := &Generator{
		competitors: defaultCompetitors,
		matches:     defaultMatches,
		teamSize:    defaultTeamSize,
		teams:       defaultTeams,
		skillSigma:  defaultSkillSigma,
		beta:        defaultBeta,
		trueGamma:   defaultTrueGamma,
		timeStep:    defaultTimeStep,
		seed:        defaultSeed,
	}
	for _, opt := range opts {
		opt(g)
	}

	g.rng = rand.New(rand.NewSource(g.seed))
	prior := distuv.Normal{Mu: 0, Sigma: g.skillSigma, Src: g.rng}

	g.ids = make([]string, g.competitors)
	g.skills = make([]float64, g.competitors)
	for i := range g.ids {
		g.ids[i] = fmt.Sprintf("competitor-%03d", i)
		g.skills[i] = prior.Rand()
	}
	return g
}

// History samples the full match history. True skills drift between matches,
// so later matches reflect a different ground truth than early ones.
func (g *Generator) History() []model.Match {
	noise := distuv.Normal{Mu: 0, Sigma: g.beta, Src: g.rng}
	need := g.teams * g.teamSize

	matches := make([]model.Match, 0, g.matches)
	for m := 0; m < g.matches; m++ {
		t := float64(m) * g.timeStep
		if m > 0 {
			g.drift(g.timeStep)
		}

		picked := g.rng.Perm(g.competitors)[:need]

		type teamDraw struct {
			team model.Team
			perf float64
		}
		draws := make([]teamDraw, g.teams)
		for i := range draws {
			members := make([]string, g.teamSize)
			perf := 0.0
			for j := 0; j < g.teamSize; j++ {
				idx := picked[i*g.teamSize+j]
				members[j] = g.ids[idx]
				perf += g.skills[idx] + noise.Rand()
			}
			draws[i] = teamDraw{team: model.Team{Members: members}, perf: perf}
		}

		// Order teams best to worst by observed performance; draws are
		// continuous so ties have probability zero.
		sort.Slice(draws, func(i, j int) bool {
			return draws[i].perf > draws[j].perf
		})
		teams := make([]model.Team, len(draws))
		for i, d := range draws {
			teams[i] = d.team
		}
		matches = append(matches, model.NewMatch(t, teams...))
	}
	return matches
}

// drift advances every true skill by one Brownian step.
func (g *Generator) drift(dt float64) {
	if g.trueGamma == 0 {
		return
	}
	step := distuv.Normal{Mu: 0, Sigma: g.trueGamma * math.Sqrt(dt), Src: g.rng}
	for i := range g.skills {
		g.skills[i] += step.Rand()
	}
}

// TrueSkills returns the current ground-truth skill per competitor.
func (g *Generator) TrueSkills() map[string]float64 {
	out := make(map[string]float64, len(g.ids))
	for i, id := range g.ids {
		out[id] = g.skills[i]
	}
	return out
}
