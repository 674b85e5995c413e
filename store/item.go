package store

import (
	"context"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

// ItemKind distinguishes the two item variants being matched against each other.
type ItemKind string

const (
	ItemKindLost  ItemKind = "LOST"
	ItemKindFound ItemKind = "FOUND"
)

// Counterpart returns the opposite kind, i.e. the kind of the candidate set
// for one ranking pass.
func (k ItemKind) Counterpart() ItemKind {
	if k == ItemKindLost {
		return ItemKindFound
	}
	return ItemKindLost
}

// ModerationStatus is the moderation state of a found item. Lost items are
// created APPROVED and never moderated.
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "PENDING"
	StatusApproved ModerationStatus = "APPROVED"
	StatusRejected ModerationStatus = "REJECTED"
)

// Item is the object representing a reported lost or found item.
type Item struct {
	ID        int32
	UID       string
	Kind      ItemKind
	CreatedTs int64
	UpdatedTs int64

	Title       string
	Description string
	Location    string
	// ReportedTs is the date the item was lost or found, as reported.
	ReportedTs  int64
	Contact     string
	IsAnonymous bool
	Status      ModerationStatus
	// IsFound marks a lost item as resolved.
	IsFound bool
}

// FindItem is the find condition for items.
type FindItem struct {
	ID     *int32
	UID    *string
	Kind   *ItemKind
	Status *ModerationStatus

	Limit  *int
	Offset *int
}

// UpdateItem is the update request for items. Only moderation and
// resolution state are mutable; the reported content never changes.
type UpdateItem struct {
	ID        int32
	UpdatedTs *int64
	Status    *ModerationStatus
	IsFound   *bool
}

// DeleteItem is the delete request for items.
type DeleteItem struct {
	ID int32
}

// CreateItem creates a new item. A UID is assigned when absent.
func (s *Store) CreateItem(ctx context.Context, create *Item) (*Item, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.Status == "" {
		if create.Kind == ItemKindFound {
			create.Status = StatusPending
		} else {
			create.Status = StatusApproved
		}
	}
	return s.driver.CreateItem(ctx, create)
}

// ListItems lists items with filter. Results keep insertion order
// (ascending creation), which ranking relies on for tie-breaking.
func (s *Store) ListItems(ctx context.Context, find *FindItem) ([]*Item, error) {
	return s.driver.ListItems(ctx, find)
}

// GetItem gets an item with filter, or nil when no item matches.
func (s *Store) GetItem(ctx context.Context, find *FindItem) (*Item, error) {
	if find.UID != nil {
		if cached, ok := s.itemCache.Get(ctx, *find.UID); ok {
			if item, ok := cached.(*Item); ok {
				return item, nil
			}
		}
	}

	list, err := s.driver.ListItems(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	item := list[0]
	s.itemCache.Set(ctx, item.UID, item)
	return item, nil
}

// GetItemByUID gets an item by its UID, or nil when unknown.
func (s *Store) GetItemByUID(ctx context.Context, uid string) (*Item, error) {
	return s.GetItem(ctx, &FindItem{UID: &uid})
}

// UpdateItem updates an item's moderation or resolution state.
func (s *Store) UpdateItem(ctx context.Context, update *UpdateItem) (*Item, error) {
	item, err := s.driver.UpdateItem(ctx, update)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.Errorf("item %d not found", update.ID)
	}
	s.itemCache.Set(ctx, item.UID, item)
	return item, nil
}

// DeleteItem deletes an item. Administrator-only in the surrounding app.
func (s *Store) DeleteItem(ctx context.Context, delete *DeleteItem) error {
	item, err := s.GetItem(ctx, &FindItem{ID: &delete.ID})
	if err != nil {
		return err
	}
	if err := s.driver.DeleteItem(ctx, delete); err != nil {
		return err
	}
	if item != nil {
		s.itemCache.Delete(ctx, item.UID)
	}
	return nil
}
