// Package catalog owns the user-editable expense category taxonomy.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"homeledger/internal/core"
)

// DefaultIcon is assigned to categories created through Add.
const DefaultIcon = "💰"

// Store is the persistence surface the catalog needs.
type Store interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	InsertCategory(ctx context.Context, name, icon string) (core.Category, error)
}

// Catalog serves the ordered category list and append-only adds. When the
// store cannot be reached the last successfully listed set is kept, so the
// caller can keep rendering while it surfaces a non-fatal notice.
type Catalog struct {
	store Store

	mu   sync.Mutex
	last []core.Category
}

func New(store Store) *Catalog {
	return &Catalog{store: store}
}

// List returns categories ordered by sort order ascending. On store failure
// it returns the last-known list together with a wrapped
// core.ErrStoreUnavailable; the retained list is never cleared.
func (c *Catalog) List(ctx context.Context) ([]core.Category, error) {
	cats, err := c.store.ListCategories(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.WarnContext(ctx, "Category list unavailable, keeping last-known set",
			"cached", len(c.last), "error", err)
		return append([]core.Category(nil), c.last...),
			fmt.Errorf("%w: list categories: %v", core.ErrStoreUnavailable, err)
	}
	c.last = cats
	return append([]core.Category(nil), cats...), nil
}

// Add creates a category with the default icon, appended after the current
// maximum order. Empty or whitespace-only names are rejected with
// core.ErrEmptyName before any store access. Adds from this process are
// serialized; duplicate names are allowed by design.
func (c *Catalog) Add(ctx context.Context, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cat, err := c.store.InsertCategory(ctx, name, DefaultIcon)
	if err != nil {
		return core.Category{}, fmt.Errorf("%w: add category: %v", core.ErrStoreUnavailable, err)
	}
	c.last = append(c.last, cat)
	return cat, nil
}

// NameOf resolves a category id against the last listed set. Unknown ids
// fall back to the id itself so derived descriptions stay deterministic.
func (c *Catalog) NameOf(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cat := range c.last {
		if cat.ID == id {
			return cat.Name
		}
	}
	return id
}
