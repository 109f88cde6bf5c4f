package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"homeledger/internal/core"
)

// MemoryStore is an in-process store with the same surface as the SQLite
// repository. It backs the memory data backend and the package tests.
type MemoryStore struct {
	mu      sync.Mutex
	cats    []core.Category
	entries map[string][]core.Entry // day key -> rows
}

// NewMemoryStore seeds the store with the given categories.
func NewMemoryStore(cats []core.Category) *MemoryStore {
	s := &MemoryStore{entries: make(map[string][]core.Entry)}
	s.cats = append(s.cats, cats...)
	sort.SliceStable(s.cats, func(i, j int) bool { return s.cats[i].SortOrder < s.cats[j].SortOrder })
	return s
}

// DefaultCategories mirrors the seed migration for stores without one.
func DefaultCategories() []core.Category {
	names := []struct{ id, name, icon string }{
		{"house-rent", "House Rent", "🏠"},
		{"internet", "Internet", "🌐"},
		{"grocery", "Grocery", "🛒"},
		{"fish", "Fish", "🐟"},
		{"meat", "Meat", "🥩"},
		{"chicken", "Chicken", "🍗"},
		{"vegetables", "Vegetables", "🥦"},
		{"fruits", "Fruits", "🍎"},
		{"medicine", "Medicine", "💊"},
		{"baby-items", "Baby Items", "🍼"},
		{"travel-exp", "Travel exp", "🚌"},
		{"others", "Others", "📦"},
	}
	cats := make([]core.Category, 0, len(names))
	for i, n := range names {
		cats = append(cats, core.Category{ID: n.id, Name: n.name, Icon: n.icon, SortOrder: int64(i + 1)})
	}
	return cats
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.cats...), nil
}

func (s *MemoryStore) InsertCategory(_ context.Context, name, icon string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var maxOrder int64
	for _, c := range s.cats {
		if c.SortOrder > maxOrder {
			maxOrder = c.SortOrder
		}
	}
	cat := core.Category{
		ID:        fmt.Sprintf("cat-%d", len(s.cats)+1),
		Name:      name,
		Icon:      icon,
		SortOrder: maxOrder + 1,
	}
	s.cats = append(s.cats, cat)
	return cat, nil
}

func (s *MemoryStore) EntriesByDate(_ context.Context, date string) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Entry(nil), s.entries[date]...), nil
}

func (s *MemoryStore) DeleteEntriesByDate(_ context.Context, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, date)
	return nil
}

func (s *MemoryStore) InsertEntries(_ context.Context, entries []core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries[e.Date] = append(s.entries[e.Date], e)
	}
	return nil
}

func (s *MemoryStore) ReplaceDayEntries(_ context.Context, date string, entries []core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, date)
	if len(entries) > 0 {
		s.entries[date] = append([]core.Entry(nil), entries...)
	}
	return nil
}

func (s *MemoryStore) SumAmountBetween(_ context.Context, first, last string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for date, rows := range s.entries {
		if date < first || date > last {
			continue
		}
		for _, e := range rows {
			total += e.AmountCents
		}
	}
	return total, nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Ping(_ context.Context) error { return nil }
