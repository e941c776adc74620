package repository

import (
	"context"
	"math"
	"sync"

	"github.com/okian/skilldrift/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: rating DESC, then competitorID ASC (deterministic).
// The BST comparator treats "less" as ranks-earlier, so an in-order
// traversal produces the leaderboard from best to worst.

// ratingScale controls fixed-point scaling from float64. Ratings live on the
// skill scale (single digits around zero), so 12 decimal places keep every
// comparison exact without risking overflow.
const ratingScale = 1_000_000_000_000

type ratingFP int64

func toFixedPoint(x float64) ratingFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * ratingScale
	if scaled > float64(math.MaxInt64) {
		return ratingFP(math.MaxInt64)
	}
	if scaled < float64(math.MinInt64) {
		return ratingFP(math.MinInt64)
	}
	return ratingFP(math.Round(scaled))
}

func toFloat(x ratingFP) float64 {
	return float64(x) / ratingScale
}

// record stores the fixed-point rating plus the belief it came from.
type record struct {
	rating     ratingFP
	mu         float64
	sigma      float64
	lastActive float64
}

// treap node
type node struct {
	id     string
	rating ratingFP
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aRating, aID) should appear before (bRating, bID)
// in the leaderboard (higher ratings first).
func less(aRating ratingFP, aID string, bRating ratingFP, bID string) bool {
	if aRating != bRating {
		return aRating > bRating
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// ratingToPriority converts a rating to a heap priority. Higher ratings get
// higher priorities so the treap stays shallow near the top of the board.
func ratingToPriority(rating ratingFP) uint64 {
	const offset = uint64(1) << 63
	return uint64(rating) + offset
}

func insert(n *node, id string, rating ratingFP) *node {
	if n == nil {
		return &node{id: id, rating: rating, prio: ratingToPriority(rating), size: 1}
	}
	if less(rating, id, n.rating, n.id) {
		n.left = insert(n.left, id, rating)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, rating)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, rating ratingFP) *node {
	if n == nil {
		return nil
	}
	if rating == n.rating && id == n.id {
		// Merge children by rotating highest priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, rating)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, rating)
		}
	} else if less(rating, id, n.rating, n.id) {
		n.left = deleteNode(n.left, id, rating)
	} else {
		n.right = deleteNode(n.right, id, rating)
	}
	fix(n)
	return n
}

// countHigher returns the number of competitors with a strictly higher
// rating. Competition ranking is then countHigher+1, so tied ratings share a
// rank regardless of id order.
func countHigher(n *node, rating ratingFP) int {
	count := 0
	for n != nil {
		if n.rating > rating {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit entries in rank order (highest first).
func collectTopN(n *node, limit int, records map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, records, out)
	if len(*out) < limit {
		if rec, ok := records[n.id]; ok {
			*out = append(*out, entryOf(n.id, rec))
		}
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

func entryOf(id string, rec record) Entry {
	return Entry{
		CompetitorID: id,
		Rating:       toFloat(rec.rating),
		Mu:           rec.mu,
		Sigma:        rec.sigma,
		LastActive:   rec.lastActive,
	}
}

// TreapStore is the in-memory leaderboard. All methods are safe for
// concurrent use; Publish takes the write lock, reads take the read lock.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]record
}

// NewTreapStore constructs an empty leaderboard store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish implements Store.Publish with O(log n) expected time. Unlike a
// best-score board, republishing always replaces: a rating can drop when
// later evidence revises a competitor's whole curve downward.
func (s *TreapStore) Publish(_ context.Context, e Entry) error {
	nr := toFixedPoint(e.Rating)

	s.mu.Lock()
	if old, ok := s.byID[e.CompetitorID]; ok {
		s.root = deleteNode(s.root, e.CompetitorID, old.rating)
	}
	s.byID[e.CompetitorID] = record{
		rating:     nr,
		mu:         e.Mu,
		sigma:      e.Sigma,
		lastActive: e.LastActive,
	}
	s.root = insert(s.root, e.CompetitorID, nr)
	s.mu.Unlock()

	metrics.RecordRatingPublished()
	return nil
}

// Rank returns the current rank and rating for a competitor in O(log n).
func (s *TreapStore) Rank(_ context.Context, competitorID string) (Entry, error) {
	metrics.RecordLeaderboardQuery()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[competitorID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	entry := entryOf(competitorID, rec)
	entry.Rank = countHigher(s.root, rec.rating) + 1
	return entry, nil
}

// TopN returns the top N entries ordered by rating desc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	metrics.RecordLeaderboardQuery()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, n)
	collectTopN(s.root, n, s.byID, &out)
	assignRanksWithTies(out)
	return out, nil
}

// Count returns the total number of competitors.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// assignRanksWithTies assigns competition ranks: competitors with the same
// rating share a rank, and the next distinct rating skips past the tie group.
func assignRanksWithTies(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Rating == entries[i-1].Rating {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
