// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"

	api "github.com/okian/skilldrift/internal/adapters/http/api"
	repository "github.com/okian/skilldrift/internal/adapters/repository"
	"github.com/okian/skilldrift/internal/domain/model"
	"github.com/okian/skilldrift/internal/history"
	"github.com/okian/skilldrift/pkg/logger"
)

// Service owns the inference engine and the published leaderboard. Start runs
// the convergence loop to a terminal state and publishes the final ratings;
// the read methods serve the HTTP API afterwards.
type Service struct {
	mu sync.RWMutex

	matches     []model.Match
	engineOpts  []history.Option
	engine      *history.Engine
	leaderboard repository.Store
	curves      map[string]model.Curve

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEngineOptions forwards options to the inference engine.
func WithEngineOptions(opts ...history.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithStore sets a custom leaderboard store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.leaderboard = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a Service over one match history.
func New(matches []model.Match, opts ...Option) *Service {
	s := &Service{
		matches: matches,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engine, runs it to a terminal state, and publishes the
// final conservative ratings to the leaderboard. It is synchronous; cancel
// through ctx to abort between sweeps.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	engine, err := history.New(s.matches, s.engineOpts...)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	s.engine = engine

	if s.leaderboard == nil {
		s.leaderboard = repository.NewTreapStore(
			repository.WithCapacityHint(len(engine.Competitors())),
		)
	}

	res, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("convergence run: %w", err)
	}
	s.logger.Info(ctx, "convergence finished",
		logger.String("state", res.State.String()),
		logger.Int("iterations", res.Iterations),
		logger.Float64("delta", res.Delta),
	)

	curves, err := engine.LearningCurves()
	if err != nil {
		return fmt.Errorf("read learning curves: %w", err)
	}
	s.curves = curves

	if err := s.publish(ctx, curves); err != nil {
		return fmt.Errorf("publish ratings: %w", err)
	}

	s.started = true
	return nil
}

// publish writes each competitor's final belief to the leaderboard.
func (s *Service) publish(ctx context.Context, curves map[string]model.Curve) error {
	for id, curve := range curves {
		last, ok := curve.Last()
		if !ok {
			continue
		}
		err := s.leaderboard.Publish(ctx, repository.Entry{
			CompetitorID: id,
			Rating:       last.ConservativeRating(),
			Mu:           last.Mu,
			Sigma:        last.Sigma,
			LastActive:   last.Time,
		})
		if err != nil {
			return err
		}
	}
	s.logger.Info(ctx, "leaderboard published",
		logger.Int("competitors", len(curves)),
	)
	return nil
}

// Stop logs shutdown; the engine and store hold no background resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "service stopped")
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]repository.Entry, error) {
	s.mu.RLock()
	store := s.leaderboard
	s.mu.RUnlock()
	if store == nil {
		return nil, history.ErrEngineNotRun
	}
	entries, err := store.TopN(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("leaderboard top-n: %w", err)
	}
	return entries, nil
}

// Rank returns the rank and rating for a given competitor id.
func (s *Service) Rank(ctx context.Context, competitorID string) (repository.Entry, error) {
	s.mu.RLock()
	store := s.leaderboard
	s.mu.RUnlock()
	if store == nil {
		return repository.Entry{}, history.ErrEngineNotRun
	}
	entry, err := store.Rank(ctx, competitorID)
	if err != nil {
		return repository.Entry{}, fmt.Errorf("leaderboard rank %q: %w", competitorID, err)
	}
	return entry, nil
}

// Curve returns one competitor's learning curve.
func (s *Service) Curve(_ context.Context, competitorID string) (model.Curve, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.curves == nil {
		return nil, history.ErrEngineNotRun
	}
	curve, ok := s.curves[competitorID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", history.ErrUnknownCompetitor, competitorID)
	}
	return curve, nil
}

// Status reports the state of the most recent convergence run.
func (s *Service) Status(_ context.Context) api.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := api.Status{
		State:   history.Uninitialized.String(),
		Matches: len(s.matches),
	}
	if s.engine != nil {
		st.State = s.engine.State().String()
		st.Iterations = s.engine.Iterations()
		st.Delta = s.engine.Delta()
		st.Competitors = len(s.engine.Competitors())
	}
	return st
}
