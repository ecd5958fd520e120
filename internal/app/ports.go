package app

import (
	"context"
	"time"
)

// CatalogItem is one persisted item row. Checked and Collapsed hold the
// initial state the item is built with; runtime toggles are never stored.
// A negative Position appends the item after its current siblings.
type CatalogItem struct {
	ID        string
	ParentID  string
	Position  int
	Label     string
	Value     any
	Disabled  bool
	Checked   bool
	Collapsed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Catalog represents the item store used by CatalogOwner.
type Catalog interface {
	ListItems(context.Context) ([]CatalogItem, error)
	CreateItem(context.Context, CatalogItem) error
	RenameItem(context.Context, string, string, time.Time) error
	DeleteItem(context.Context, string) error
	ReplaceItems(context.Context, []CatalogItem) error
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time
