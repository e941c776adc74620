package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if SKILLDRIFT_CONFIG is set
//  3. env (prefix SKILLDRIFT_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SKILLDRIFT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: SKILLDRIFT_GAMMA, SKILLDRIFT_MAX_ITERATIONS, ...
	// Map env keys like SKILLDRIFT_MAX_ITERATIONS -> max_iterations (flat keys).
	envProvider := env.Provider("SKILLDRIFT_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "skilldrift_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects parameter combinations the engine cannot run with.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Gamma < 0:
		return fmt.Errorf("%w: gamma must not be negative", ErrInvalidConfig)
	case c.Sigma <= 0:
		return fmt.Errorf("%w: sigma must be positive", ErrInvalidConfig)
	case c.Beta <= 0:
		return fmt.Errorf("%w: beta must be positive", ErrInvalidConfig)
	case c.Epsilon <= 0:
		return fmt.Errorf("%w: epsilon must be positive", ErrInvalidConfig)
	case c.MaxIterations <= 0:
		return fmt.Errorf("%w: max_iterations must be positive", ErrInvalidConfig)
	case c.DrawMargin < 0:
		return fmt.Errorf("%w: draw_margin must not be negative", ErrInvalidConfig)
	case c.InnerIterations <= 0:
		return fmt.Errorf("%w: inner_iterations must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
