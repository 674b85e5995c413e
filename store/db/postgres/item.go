package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/reclaimhq/reclaim/store"
)

func (d *DB) CreateItem(ctx context.Context, create *store.Item) (*store.Item, error) {
	fields := []string{"uid", "kind", "title", "description", "location", "reported_ts", "contact", "is_anonymous", "status", "is_found"}
	placeholderValues := []any{
		create.UID, create.Kind, create.Title, create.Description, create.Location,
		create.ReportedTs, create.Contact, create.IsAnonymous, create.Status, create.IsFound,
	}

	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		placeholderValues = append(placeholderValues, create.CreatedTs)
	}
	if create.UpdatedTs != 0 {
		fields = append(fields, "updated_ts")
		placeholderValues = append(placeholderValues, create.UpdatedTs)
	}

	stmt := `INSERT INTO item (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id, created_ts, updated_ts`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return create, nil
}

func (d *DB) ListItems(ctx context.Context, find *store.FindItem) ([]*store.Item, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "item.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "item.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Kind; v != nil {
		where, args = append(where, "item.kind = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "item.status = "+placeholder(len(args)+1)), append(args, *v)
	}

	// Insertion order; ranking relies on it for stable tie-breaking.
	query := `
		SELECT
			id, uid, kind, created_ts, updated_ts,
			title, description, location, reported_ts,
			contact, is_anonymous, status, is_found
		FROM item
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY item.id ASC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Item, 0)
	for rows.Next() {
		var item store.Item
		if err := rows.Scan(
			&item.ID,
			&item.UID,
			&item.Kind,
			&item.CreatedTs,
			&item.UpdatedTs,
			&item.Title,
			&item.Description,
			&item.Location,
			&item.ReportedTs,
			&item.Contact,
			&item.IsAnonymous,
			&item.Status,
			&item.IsFound,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		list = append(list, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) UpdateItem(ctx context.Context, update *store.UpdateItem) (*store.Item, error) {
	set, args := []string{}, []any{}

	if v := update.Status; v != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.IsFound; v != nil {
		set, args = append(set, "is_found = "+placeholder(len(args)+1)), append(args, *v)
	}
	updatedTs := time.Now().Unix()
	if v := update.UpdatedTs; v != nil {
		updatedTs = *v
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, updatedTs)

	args = append(args, update.ID)
	stmt := `UPDATE item SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, kind, created_ts, updated_ts, title, description, location, reported_ts, contact, is_anonymous, status, is_found`

	var item store.Item
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&item.ID,
		&item.UID,
		&item.Kind,
		&item.CreatedTs,
		&item.UpdatedTs,
		&item.Title,
		&item.Description,
		&item.Location,
		&item.ReportedTs,
		&item.Contact,
		&item.IsAnonymous,
		&item.Status,
		&item.IsFound,
	); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return &item, nil
}

func (d *DB) DeleteItem(ctx context.Context, delete *store.DeleteItem) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM item WHERE id = $1`, delete.ID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}
