// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with documented defaults.
// - Load() layers an optional YAML file and SKILLDRIFT_* env vars on top.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address for the reporting API.
	Addr string `koanf:"addr"`

	// MatchesFile points at the JSON match history to ingest.
	MatchesFile string `koanf:"matches_file"`

	// Gamma is the skill drift rate per unit time.
	Gamma float64 `koanf:"gamma"`

	// Sigma is the initial belief standard deviation for new competitors.
	Sigma float64 `koanf:"sigma"`

	// Beta is the within-match performance-noise standard deviation.
	Beta float64 `koanf:"beta"`

	// Epsilon is the global convergence threshold.
	Epsilon float64 `koanf:"epsilon"`

	// MaxIterations bounds the sweep budget of one run.
	MaxIterations int `koanf:"max_iterations"`

	// DrawMargin is the half-width of the tie interval in performance units.
	DrawMargin float64 `koanf:"draw_margin"`

	// InnerIterations bounds match-local message passing for multi-team matches.
	InnerIterations int `koanf:"inner_iterations"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config with the documented defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		MatchesFile:         "",
		Gamma:               0.03,
		Sigma:               1.667,
		Beta:                1.0,
		Epsilon:             1e-6,
		MaxIterations:       300,
		DrawMargin:          0,
		InnerIterations:     10,
		MaxLeaderboardLimit: 100,
	}
}
