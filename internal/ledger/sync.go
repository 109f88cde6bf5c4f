// Package ledger synchronizes one day's persisted expense entries with the
// editable form state: load into editable form, persist edits back as a
// consistent per-day set.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"homeledger/internal/core"
)

// State is the sync lifecycle for the currently displayed day.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateSaving
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateSaving:
		return "saving"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Store is the persistence surface the sync needs: equality-on-date reads
// plus the two-step day replacement.
type Store interface {
	EntriesByDate(ctx context.Context, date string) ([]core.Entry, error)
	DeleteEntriesByDate(ctx context.Context, date string) error
	InsertEntries(ctx context.Context, entries []core.Entry) error
}

// Replacer is the optional atomic day swap. Stores that can replace a whole
// day in one transaction close the delete-then-insert failure window; the
// sync prefers this path whenever the store offers it.
type Replacer interface {
	ReplaceDayEntries(ctx context.Context, date string, entries []core.Entry) error
}

// Namer resolves a category id to its display name for derived descriptions.
type Namer interface {
	NameOf(id string) string
}

// DaySync owns the editable input state for exactly one day at a time.
// All methods are safe for concurrent use; the load path carries a
// last-issued-wins guard so a stale response can never overwrite the state
// of a later-requested day.
type DaySync struct {
	store Store
	names Namer
	now   func() time.Time

	mu      sync.Mutex
	state   State
	date    string // active day key, empty until the first Load
	loadSeq uint64
	inputs  core.DayInput
}

func NewDaySync(store Store, names Namer) *DaySync {
	return &DaySync{
		store:  store,
		names:  names,
		now:    time.Now,
		inputs: core.DayInput{},
	}
}

// State returns the current lifecycle state.
func (s *DaySync) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Date returns the day key the in-memory state belongs to.
func (s *DaySync) Date() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// Inputs returns a copy of the editable state.
func (s *DaySync) Inputs() core.DayInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputs.Clone()
}

// Load fetches the persisted entries for date and replaces the editable
// state with them. If another Load is issued before this one resolves, the
// earlier result is discarded: only the last-issued date may populate the
// state. A discarded load returns nil.
func (s *DaySync) Load(ctx context.Context, date string) error {
	s.mu.Lock()
	s.date = date
	s.loadSeq++
	seq := s.loadSeq
	if s.state != StateSaving {
		s.state = StateLoading
	}
	s.mu.Unlock()

	entries, err := s.store.EntriesByDate(ctx, date)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.loadSeq || s.date != date {
		slog.DebugContext(ctx, "Discarding superseded day load", "date", date, "active", s.date)
		return nil
	}
	if err != nil {
		// Keep whatever state the form had; the caller surfaces a notice.
		if s.state == StateLoading {
			s.state = StateError
		}
		return fmt.Errorf("%w: load day %s: %v", core.ErrStoreUnavailable, date, err)
	}

	s.inputs = inputsFromEntries(entries)
	s.state = StateLoaded
	return nil
}

// Edit records a raw amount string for a category. No validation happens
// here: invalid and partial values are kept verbatim so the user can keep
// typing, and are only filtered at save time.
func (s *DaySync) Edit(categoryID, rawValue string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.date == "" || (s.state != StateLoaded && s.state != StateError) {
		return ErrNoDayLoaded
	}
	s.inputs[categoryID] = rawValue
	return nil
}

// Save persists the editable state as the day's complete entry set.
//
// Entries whose value does not parse to a finite amount > 0 are dropped
// silently; if nothing is left, core.ErrNothingToSave is returned and the
// store is not touched. On success the state is re-synced from the store's
// post-save truth, so filtered-out values visibly disappear from the form.
// On failure the in-memory edits are preserved for a user-initiated retry.
func (s *DaySync) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateSaving {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	if s.date == "" || (s.state != StateLoaded && s.state != StateError) {
		s.mu.Unlock()
		return ErrNoDayLoaded
	}
	date := s.date
	entries := s.buildEntriesLocked(date)
	if len(entries) == 0 {
		s.mu.Unlock()
		return core.ErrNothingToSave
	}
	s.state = StateSaving
	s.mu.Unlock()

	err := s.replaceDay(ctx, date, entries)
	if err != nil {
		s.mu.Lock()
		if s.date == date {
			s.state = StateError
		}
		s.mu.Unlock()
		return err
	}

	// Re-sync from the store so the form reflects exactly what is persisted.
	synced, syncErr := s.store.EntriesByDate(ctx, date)
	if syncErr != nil {
		// The save itself landed; fall back to the set we just wrote.
		slog.WarnContext(ctx, "Post-save reload failed, using written set",
			"date", date, "error", syncErr)
		synced = entries
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.date != date {
		// User navigated away while saving; a newer Load owns the state now.
		return nil
	}
	s.inputs = inputsFromEntries(synced)
	s.state = StateLoaded
	slog.InfoContext(ctx, "Day ledger saved", "date", date, "entries", len(entries))
	return nil
}

// replaceDay swaps the persisted set for one day. With a Replacer store the
// swap is atomic; otherwise the delete and insert are two independent calls
// and a failure between them is reported as *PartialSaveError.
func (s *DaySync) replaceDay(ctx context.Context, date string, entries []core.Entry) error {
	if r, ok := s.store.(Replacer); ok {
		if err := r.ReplaceDayEntries(ctx, date, entries); err != nil {
			return fmt.Errorf("%w: replace day %s: %v", core.ErrStoreUnavailable, date, err)
		}
		return nil
	}
	if err := s.store.DeleteEntriesByDate(ctx, date); err != nil {
		return fmt.Errorf("%w: clear day %s: %v", core.ErrStoreUnavailable, date, err)
	}
	if err := s.store.InsertEntries(ctx, entries); err != nil {
		return &PartialSaveError{Date: date, Err: err}
	}
	return nil
}

// buildEntriesLocked filters the current inputs down to persistable rows.
// Caller must hold s.mu.
func (s *DaySync) buildEntriesLocked(date string) []core.Entry {
	ids := make([]string, 0, len(s.inputs))
	for id := range s.inputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	created := s.now().UTC()
	var entries []core.Entry
	for _, id := range ids {
		cents, ok := core.ParseAmountCents(s.inputs[id])
		if !ok {
			continue
		}
		entries = append(entries, core.Entry{
			Date:        date,
			CategoryID:  id,
			AmountCents: cents,
			Description: s.names.NameOf(id) + " expense",
			CreatedAt:   created,
		})
	}
	return entries
}

func inputsFromEntries(entries []core.Entry) core.DayInput {
	in := make(core.DayInput, len(entries))
	for _, e := range entries {
		in[e.CategoryID] = core.FormatCents(e.AmountCents)
	}
	return in
}
