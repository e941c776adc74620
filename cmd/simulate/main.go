// Command simulate samples a synthetic match history from known true skills,
// runs the inference engine over it, and reports how well the inferred
// ratings recover the ground truth. Optionally writes the history as a JSON
// file consumable through the matches_file config.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/okian/skilldrift/internal/domain/model"
	"github.com/okian/skilldrift/internal/history"
	"github.com/okian/skilldrift/internal/simulation"
	"github.com/okian/skilldrift/pkg/logger"
)

// Default simulation parameters.
const (
	defaultCompetitors = 50
	defaultMatches     = 1000
	defaultTeamSize    = 1
	defaultTeams       = 2
	defaultSeed        = 1
	defaultGamma       = 0.03
	defaultBeta        = 1.0
	defaultTopN        = 10
	defaultRunTimeout  = 5 * time.Minute

	outputFilePermission = 0o600
)

func main() {
	var (
		competitors = flag.Int("competitors", defaultCompetitors, "Number of competitors in the pool")
		matches     = flag.Int("matches", defaultMatches, "Number of matches to sample")
		teamSize    = flag.Int("team-size", defaultTeamSize, "Members per team")
		teams       = flag.Int("teams", defaultTeams, "Teams per match")
		seed        = flag.Uint64("seed", defaultSeed, "Random seed")
		gamma       = flag.Float64("gamma", defaultGamma, "Drift rate for both ground truth and inference")
		beta        = flag.Float64("beta", defaultBeta, "Performance noise standard deviation")
		topN        = flag.Int("top", defaultTopN, "Number of top competitors to print")
		outputFile  = flag.String("output", "", "Write the sampled history to this JSON file")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	if err := run(ctx, runConfig{
		competitors: *competitors,
		matches:     *matches,
		teamSize:    *teamSize,
		teams:       *teams,
		seed:        *seed,
		gamma:       *gamma,
		beta:        *beta,
		topN:        *topN,
		outputFile:  *outputFile,
	}); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

type runConfig struct {
	competitors int
	matches     int
	teamSize    int
	teams       int
	seed        uint64
	gamma       float64
	beta        float64
	topN        int
	outputFile  string
}

func run(ctx context.Context, cfg runConfig) error {
	log := logger.Get()

	gen := simulation.New(
		simulation.WithCompetitors(cfg.competitors),
		simulation.WithMatches(cfg.matches),
		simulation.WithTeamSize(cfg.teamSize),
		simulation.WithTeams(cfg.teams),
		simulation.WithSeed(cfg.seed),
		simulation.WithTrueGamma(cfg.gamma),
		simulation.WithBeta(cfg.beta),
	)
	sampled := gen.History()
	log.Info(ctx, "sampled synthetic history",
		logger.Int("competitors", cfg.competitors),
		logger.Int("matches", len(sampled)),
	)

	if cfg.outputFile != "" {
		if err := writeHistory(cfg.outputFile, sampled); err != nil {
			return err
		}
		log.Info(ctx, "wrote history file", logger.String("file", cfg.outputFile))
	}

	eng, err := history.New(sampled,
		history.WithGamma(cfg.gamma),
		history.WithBeta(cfg.beta),
	)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	start := time.Now()
	res, err := eng.Run(ctx)
	if err != nil {
		return fmt.Errorf("convergence run: %w", err)
	}
	log.Info(ctx, "convergence finished",
		logger.String("state", res.State.String()),
		logger.Int("iterations", res.Iterations),
		logger.Float64("delta", res.Delta),
		logger.String("elapsed", time.Since(start).String()),
	)

	ratings, err := eng.FinalRatings()
	if err != nil {
		return fmt.Errorf("final ratings: %w", err)
	}

	report, err := simulation.Verify(gen.TrueSkills(), ratings)
	if err != nil {
		return fmt.Errorf("verify recovery: %w", err)
	}
	log.Info(ctx, "recovery report",
		logger.Int("competitors", report.Competitors),
		logger.Float64("correlation", report.Correlation),
		logger.Float64("median_true", report.MedianTrue),
		logger.Float64("median_inferred", report.MedianInferred),
	)

	printTop(ratings, gen.TrueSkills(), cfg.topN)
	return nil
}

// matchRecord mirrors the matches_file wire format.
type matchRecord struct {
	ID    string     `json:"id"`
	Time  float64    `json:"time"`
	Teams [][]string `json:"teams"`
	Ranks []int      `json:"ranks,omitempty"`
}

func writeHistory(path string, matches []model.Match) error {
	records := make([]matchRecord, 0, len(matches))
	for _, m := range matches {
		teams := make([][]string, 0, len(m.Teams))
		for _, t := range m.Teams {
			teams = append(teams, t.Members)
		}
		records = append(records, matchRecord{
			ID:    m.ID,
			Time:  m.Time,
			Teams: teams,
			Ranks: m.Ranks,
		})
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(path, raw, outputFilePermission); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

func printTop(ratings, trueSkills map[string]float64, n int) {
	type row struct {
		id     string
		rating float64
	}
	rows := make([]row, 0, len(ratings))
	for id, r := range ratings {
		rows = append(rows, row{id: id, rating: r})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].rating != rows[j].rating {
			return rows[i].rating > rows[j].rating
		}
		return rows[i].id < rows[j].id
	})
	if n > len(rows) {
		n = len(rows)
	}

	fmt.Printf("%-4s %-18s %12s %12s\n", "rank", "competitor", "rating", "true skill")
	for i := 0; i < n; i++ {
		fmt.Printf("%-4d %-18s %12.4f %12.4f\n",
			i+1, rows[i].id, rows[i].rating, trueSkills[rows[i].id])
	}
}
