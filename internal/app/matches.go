package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/okian/skilldrift/internal/domain/model"
)

// ErrLoadMatches is returned when the match-history file cannot be read or
// parsed.
var ErrLoadMatches = errors.New("load match history")

// matchRecord mirrors one match in the history file.
type matchRecord struct {
	ID    string     `json:"id,omitempty"`
	Time  float64    `json:"time"`
	Teams [][]string `json:"teams"`
	Ranks []int      `json:"ranks,omitempty"`
}

// LoadMatches reads a JSON match history: an array of matches, each with a
// timestamp, a list of teams (member id lists) ordered best to worst, and an
// optional nondecreasing rank slice for ties. Matches without an id get a
// generated one so validation errors stay traceable.
func LoadMatches(path string) ([]model.Match, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadMatches, err)
	}
	var records []matchRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadMatches, err)
	}

	matches := make([]model.Match, 0, len(records))
	for _, rec := range records {
		teams := make([]model.Team, 0, len(rec.Teams))
		for _, members := range rec.Teams {
			teams = append(teams, model.Team{Members: members})
		}
		id := rec.ID
		if id == "" {
			id = uuid.New().String()
		}
		matches = append(matches, model.Match{
			ID:    id,
			Time:  rec.Time,
			Teams: teams,
			Ranks: rec.Ranks,
		})
	}
	return matches, nil
}
