package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/okian/skilldrift/internal/adapters/http/api"
	app "github.com/okian/skilldrift/internal/app"
	"github.com/okian/skilldrift/internal/config"
	"github.com/okian/skilldrift/internal/domain/model"
	"github.com/okian/skilldrift/internal/history"
	"github.com/okian/skilldrift/internal/simulation"
	"github.com/okian/skilldrift/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Disable default Go metrics collection; the custom registry carries the
	// engine metrics we care about.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	matches, err := loadHistory(ctx, cfg)
	if err != nil {
		log.Error(ctx, "failed to load match history", logger.Error(err))
		return
	}

	svc := app.New(matches,
		app.WithLogger(log),
		app.WithEngineOptions(
			history.WithGamma(cfg.Gamma),
			history.WithPriorSigma(cfg.Sigma),
			history.WithBeta(cfg.Beta),
			history.WithEpsilon(cfg.Epsilon),
			history.WithMaxIterations(cfg.MaxIterations),
			history.WithDrawMargin(cfg.DrawMargin),
			history.WithInnerIterations(cfg.InnerIterations),
		),
	)
	defer svc.Stop()

	mux := http.NewServeMux()
	api.NewServer(svc, cfg.MaxLeaderboardLimit).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// The convergence run and the HTTP server start together; reads answer
	// 503 until the run reaches a terminal state.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svc.Start(gctx)
	})

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error(context.Background(), "service exited with error", logger.Error(err))
		return
	}
	log.Info(context.Background(), "server stopped")
}

// loadHistory reads the configured match file, or samples a synthetic
// history when none is configured so the service runs out of the box.
func loadHistory(ctx context.Context, cfg *config.Config) ([]model.Match, error) {
	log := logger.Get()
	if cfg.MatchesFile != "" {
		matches, err := app.LoadMatches(cfg.MatchesFile)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "loaded match history",
			logger.String("file", cfg.MatchesFile),
			logger.Int("matches", len(matches)),
		)
		return matches, nil
	}

	gen := simulation.New(simulation.WithBeta(cfg.Beta))
	matches := gen.History()
	log.Warn(ctx, "no matches_file configured; using a synthetic history",
		logger.Int("matches", len(matches)),
	)
	return matches, nil
}
