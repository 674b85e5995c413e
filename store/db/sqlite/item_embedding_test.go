package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestItemEmbeddingUnsupported(t *testing.T) {
	ctx := context.Background()
	d := &DB{}

	_, err := d.UpsertItemEmbedding(ctx, nil)
	require.ErrorContains(t, err, "requires PostgreSQL")

	_, err = d.ListItemEmbeddings(ctx, nil)
	require.ErrorContains(t, err, "requires PostgreSQL")

	require.ErrorContains(t, d.DeleteItemEmbedding(ctx, 1), "requires PostgreSQL")
}
