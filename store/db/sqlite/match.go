package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/reclaimhq/reclaim/store"
)

func (d *DB) UpsertMatch(ctx context.Context, create *store.Match) (*store.Match, error) {
	// Insert-if-absent on the pair key. A conflicting insert leaves the
	// existing row untouched, including its score.
	stmt := `
		INSERT INTO item_match (lost_item_id, found_item_id, score, notified)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (lost_item_id, found_item_id) DO NOTHING
		RETURNING id, notified, created_ts`

	err := d.db.QueryRowContext(ctx, stmt,
		create.LostItemID, create.FoundItemID, create.Score, create.Notified,
	).Scan(&create.ID, &create.Notified, &create.CreatedTs)
	if err == nil {
		return create, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to upsert match: %w", err)
	}

	// Conflict: the pair already exists, return the stored row.
	existing, err := d.ListMatches(ctx, &store.FindMatch{
		LostItemID:  &create.LostItemID,
		FoundItemID: &create.FoundItemID,
	})
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, fmt.Errorf("match pair (%d, %d) vanished after conflicting insert", create.LostItemID, create.FoundItemID)
	}
	return existing[0], nil
}

func (d *DB) ListMatches(ctx context.Context, find *store.FindMatch) ([]*store.Match, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "item_match.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.LostItemID; v != nil {
		where, args = append(where, "item_match.lost_item_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.FoundItemID; v != nil {
		where, args = append(where, "item_match.found_item_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Notified; v != nil {
		where, args = append(where, "item_match.notified = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.MinScore; v != nil {
		where, args = append(where, "item_match.score >= "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, lost_item_id, found_item_id, score, notified, created_ts
		FROM item_match
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY item_match.score DESC, item_match.id ASC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Match, 0)
	for rows.Next() {
		var match store.Match
		if err := rows.Scan(
			&match.ID,
			&match.LostItemID,
			&match.FoundItemID,
			&match.Score,
			&match.Notified,
			&match.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		list = append(list, &match)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) MarkMatchNotified(ctx context.Context, id int32) (bool, error) {
	// Update-if-false: the row count decides which caller won the flip.
	result, err := d.db.ExecContext(ctx, `UPDATE item_match SET notified = TRUE WHERE id = ? AND notified = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark match notified: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}
