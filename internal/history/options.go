package history

import (
	"github.com/okian/skilldrift/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithGamma sets the skill drift rate per unit time.
func WithGamma(gamma float64) Option {
	return func(e *Engine) {
		if gamma >= 0 {
			e.gamma = gamma
		}
	}
}

// WithPriorSigma sets the standard deviation of the first-appearance prior.
func WithPriorSigma(sigma float64) Option {
	return func(e *Engine) {
		if sigma > 0 {
			e.priorSigma = sigma
		}
	}
}

// WithPriorMu sets the mean of the first-appearance prior.
func WithPriorMu(mu float64) Option {
	return func(e *Engine) {
		e.priorMu = mu
	}
}

// WithBeta sets the within-match performance-noise standard deviation.
func WithBeta(beta float64) Option {
	return func(e *Engine) {
		if beta > 0 {
			e.beta = beta
		}
	}
}

// WithEpsilon sets the global convergence threshold.
func WithEpsilon(eps float64) Option {
	return func(e *Engine) {
		if eps > 0 {
			e.epsilon = eps
		}
	}
}

// WithMaxIterations sets the sweep budget for one Run call.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithDrawMargin sets the tie half-width in performance units.
func WithDrawMargin(margin float64) Option {
	return func(e *Engine) {
		if margin >= 0 {
			e.drawMargin = margin
		}
	}
}

// WithInnerIterations bounds the match-local message-passing loop.
func WithInnerIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.innerIterations = n
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}
