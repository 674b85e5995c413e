package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/reclaimhq/reclaim/store"
)

// SQLite has no vector column type. The embedding cache is a pure
// optimization, so these return clean errors and the semantic scorer falls
// back to per-pass memoization. For the persistent cache, use PostgreSQL.

// UpsertItemEmbedding is NOT supported for SQLite.
func (d *DB) UpsertItemEmbedding(context.Context, *store.ItemEmbedding) (*store.ItemEmbedding, error) {
	return nil, errors.New("item embedding (vector storage) requires PostgreSQL with pgvector extension")
}

// ListItemEmbeddings is NOT supported for SQLite.
func (d *DB) ListItemEmbeddings(context.Context, *store.FindItemEmbedding) ([]*store.ItemEmbedding, error) {
	return nil, errors.New("item embedding (vector storage) requires PostgreSQL with pgvector extension")
}

// DeleteItemEmbedding is NOT supported for SQLite.
func (d *DB) DeleteItemEmbedding(context.Context, int32) error {
	return errors.New("item embedding (vector storage) requires PostgreSQL with pgvector extension")
}
