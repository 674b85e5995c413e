package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Item model related methods.
	CreateItem(ctx context.Context, create *Item) (*Item, error)
	ListItems(ctx context.Context, find *FindItem) ([]*Item, error)
	UpdateItem(ctx context.Context, update *UpdateItem) (*Item, error)
	DeleteItem(ctx context.Context, delete *DeleteItem) error

	// Match model related methods. UpsertMatch must be insert-if-absent on
	// the (lost_item_id, found_item_id) pair; MarkMatchNotified must be an
	// atomic update-if-false.
	UpsertMatch(ctx context.Context, create *Match) (*Match, error)
	ListMatches(ctx context.Context, find *FindMatch) ([]*Match, error)
	MarkMatchNotified(ctx context.Context, id int32) (bool, error)

	// ItemEmbedding model related methods.
	UpsertItemEmbedding(ctx context.Context, embedding *ItemEmbedding) (*ItemEmbedding, error)
	ListItemEmbeddings(ctx context.Context, find *FindItemEmbedding) ([]*ItemEmbedding, error)
	DeleteItemEmbedding(ctx context.Context, itemID int32) error
}
