package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/reclaimhq/reclaim/store"
)

// UpsertItemEmbedding inserts or updates an item embedding.
func (d *DB) UpsertItemEmbedding(ctx context.Context, embedding *store.ItemEmbedding) (*store.ItemEmbedding, error) {
	if embedding.CreatedTs == 0 {
		embedding.CreatedTs = time.Now().Unix()
	}
	if embedding.UpdatedTs == 0 {
		embedding.UpdatedTs = embedding.CreatedTs
	}

	stmt := `
		INSERT INTO item_embedding (item_id, embedding, model, created_ts, updated_ts)
		VALUES (` + placeholders(5) + `)
		ON CONFLICT (item_id, model)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, created_ts, updated_ts
	`

	vector := pgvector.NewVector(embedding.Embedding)
	err := d.db.QueryRowContext(ctx, stmt,
		embedding.ItemID,
		vector,
		embedding.Model,
		embedding.CreatedTs,
		embedding.UpdatedTs,
	).Scan(&embedding.ID, &embedding.CreatedTs, &embedding.UpdatedTs)

	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert item embedding")
	}

	return embedding, nil
}

// ListItemEmbeddings lists item embeddings.
func (d *DB) ListItemEmbeddings(ctx context.Context, find *store.FindItemEmbedding) ([]*store.ItemEmbedding, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ItemID != nil {
		where, args = append(where, "item_id = "+placeholder(len(args)+1)), append(args, *find.ItemID)
	}
	if find.Model != nil {
		where, args = append(where, "model = "+placeholder(len(args)+1)), append(args, *find.Model)
	}

	query := `
		SELECT id, item_id, embedding, model, created_ts, updated_ts
		FROM item_embedding
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list item embeddings")
	}
	defer rows.Close()

	list := []*store.ItemEmbedding{}
	for rows.Next() {
		var embedding store.ItemEmbedding
		var vector pgvector.Vector
		err := rows.Scan(
			&embedding.ID,
			&embedding.ItemID,
			&vector,
			&embedding.Model,
			&embedding.CreatedTs,
			&embedding.UpdatedTs,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan item embedding")
		}

		embedding.Embedding = vector.Slice()

		list = append(list, &embedding)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// DeleteItemEmbedding deletes the embeddings of an item.
func (d *DB) DeleteItemEmbedding(ctx context.Context, itemID int32) error {
	stmt := `DELETE FROM item_embedding WHERE item_id = ` + placeholder(1)
	if _, err := d.db.ExecContext(ctx, stmt, itemID); err != nil {
		return errors.Wrap(err, "failed to delete item embedding")
	}
	return nil
}
