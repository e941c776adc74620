// Package repository defines the leaderboard store interface and errors.
package repository

import "context"

// Entry represents a leaderboard row: one competitor's published rating plus
// the belief it was derived from.
type Entry struct {
	Rank         int
	CompetitorID string
	Rating       float64
	Mu           float64
	Sigma        float64
	LastActive   float64
}

// Store provides read/write access to the published leaderboard.
type Store interface {
	// Publish sets a competitor's current rating, replacing any previous
	// value. Ratings are republished wholesale after each convergence run.
	Publish(ctx context.Context, e Entry) error

	// Rank returns the current rank and rating for a competitor.
	// Returns ErrNotFound if the competitor is unknown.
	Rank(ctx context.Context, competitorID string) (Entry, error)

	// TopN returns the top-N entries ordered by rating desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of competitors on the leaderboard.
	Count(ctx context.Context) int
}
