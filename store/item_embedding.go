package store

import "context"

// ItemEmbedding represents the cached embedding vector of an item's text
// blob. Purely an optimization for the semantic scorer: a missing or stale
// row only costs an extra provider call.
type ItemEmbedding struct {
	ID        int32
	ItemID    int32
	Embedding []float32
	Model     string
	CreatedTs int64
	UpdatedTs int64
}

// FindItemEmbedding is the find condition for item embeddings.
type FindItemEmbedding struct {
	ItemID *int32
	Model  *string
}

// UpsertItemEmbedding inserts or updates an item embedding.
func (s *Store) UpsertItemEmbedding(ctx context.Context, embedding *ItemEmbedding) (*ItemEmbedding, error) {
	return s.driver.UpsertItemEmbedding(ctx, embedding)
}

// GetItemEmbedding gets the embedding of a specific item for a model, or
// nil when none is cached.
func (s *Store) GetItemEmbedding(ctx context.Context, itemID int32, model string) (*ItemEmbedding, error) {
	list, err := s.driver.ListItemEmbeddings(ctx, &FindItemEmbedding{
		ItemID: &itemID,
		Model:  &model,
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListItemEmbeddings lists item embeddings.
func (s *Store) ListItemEmbeddings(ctx context.Context, find *FindItemEmbedding) ([]*ItemEmbedding, error) {
	return s.driver.ListItemEmbeddings(ctx, find)
}

// DeleteItemEmbedding deletes an item embedding.
func (s *Store) DeleteItemEmbedding(ctx context.Context, itemID int32) error {
	return s.driver.DeleteItemEmbedding(ctx, itemID)
}
