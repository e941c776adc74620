// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Team is an ordered, non-empty set of competitor identifiers playing
// together in one match.
type Team struct {
	Members []string
}

// Match is one ranked outcome: teams listed best place first, at a
// real-valued timestamp (e.g. days since an epoch). Ranks carry the tie
// structure; equal consecutive ranks mean the teams tied. A nil Ranks slice
// means a strict ranking by list position.
type Match struct {
	ID    string // unique id used to point at the offending match in errors
	Time  float64
	Teams []Team
	Ranks []int
}

// NewMatch builds a strictly ranked match with a generated id.
func NewMatch(t float64, teams ...Team) Match {
	return Match{ID: uuid.New().String(), Time: t, Teams: teams}
}

// NewMatchWithRanks builds a match with an explicit rank per team, allowing ties.
func NewMatchWithRanks(t float64, teams []Team, ranks []int) Match {
	return Match{ID: uuid.New().String(), Time: t, Teams: teams, Ranks: ranks}
}

// RankOf returns the place of team i, falling back to the list position for
// strictly ranked matches.
func (m Match) RankOf(i int) int {
	if m.Ranks == nil {
		return i
	}
	return m.Ranks[i]
}

// Competitors returns every competitor id in team order.
func (m Match) Competitors() []string {
	var ids []string
	for _, team := range m.Teams {
		ids = append(ids, team.Members...)
	}
	return ids
}

// Validate rejects malformed matches before any inference runs. Every error
// is wrapped with the match id so ingestion can identify the offender.
func (m Match) Validate() error {
	if math.IsNaN(m.Time) || math.IsInf(m.Time, 0) {
		return fmt.Errorf("match %s: %w: %v", m.ID, ErrInvalidTimestamp, m.Time)
	}
	if len(m.Teams) < 2 {
		return fmt.Errorf("match %s: %w: got %d", m.ID, ErrTooFewTeams, len(m.Teams))
	}
	seen := make(map[string]struct{})
	for i, team := range m.Teams {
		if len(team.Members) == 0 {
			return fmt.Errorf("match %s: team %d: %w", m.ID, i, ErrEmptyTeam)
		}
		for _, id := range team.Members {
			if strings.TrimSpace(id) == "" {
				return fmt.Errorf("match %s: team %d: %w", m.ID, i, ErrBlankCompetitor)
			}
			if _, dup := seen[id]; dup {
				return fmt.Errorf("match %s: %w: %q", m.ID, ErrDuplicateCompetitor, id)
			}
			seen[id] = struct{}{}
		}
	}
	if m.Ranks != nil {
		if len(m.Ranks) != len(m.Teams) {
			return fmt.Errorf("match %s: %w: %d ranks for %d teams", m.ID, ErrMalformedRanks, len(m.Ranks), len(m.Teams))
		}
		for i := 1; i < len(m.Ranks); i++ {
			if m.Ranks[i] < m.Ranks[i-1] {
				return fmt.Errorf("match %s: %w: ranks must be nondecreasing", m.ID, ErrMalformedRanks)
			}
		}
	}
	return nil
}
