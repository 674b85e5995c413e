package store

import "context"

// Match relates exactly one lost item to exactly one found item with a
// bounded similarity score. At most one row exists per
// (lost_item_id, found_item_id) pair; the score is immutable once created.
type Match struct {
	ID          int32
	LostItemID  int32
	FoundItemID int32
	Score       int
	Notified    bool
	CreatedTs   int64
}

// FindMatch is the find condition for matches.
type FindMatch struct {
	ID          *int32
	LostItemID  *int32
	FoundItemID *int32
	Notified    *bool
	MinScore    *int

	Limit *int
}

// UpsertMatch inserts a match row if the pair is absent. A repeated ranking
// pass over the same pair returns the existing row unchanged, never a
// duplicate and never an updated score.
func (s *Store) UpsertMatch(ctx context.Context, create *Match) (*Match, error) {
	return s.driver.UpsertMatch(ctx, create)
}

// ListMatches lists matches with filter, ordered by score descending.
func (s *Store) ListMatches(ctx context.Context, find *FindMatch) ([]*Match, error) {
	return s.driver.ListMatches(ctx, find)
}

// MarkMatchNotified flips the notified flag from false to true. The flip is
// a single conditional write: the return value reports whether this call
// won the transition, so concurrent notifiers cannot double-send. The flag
// never reverts.
func (s *Store) MarkMatchNotified(ctx context.Context, id int32) (bool, error) {
	return s.driver.MarkMatchNotified(ctx, id)
}
