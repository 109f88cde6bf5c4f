package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"homeledger/internal/core"
)

// fakeStore is a two-step store (no atomic replace) with failure injection
// and per-date read gating for concurrency tests.
type fakeStore struct {
	mu         sync.Mutex
	entries    map[string][]core.Entry
	failRead   error
	failDelete error
	failInsert error
	readGate   map[string]chan struct{} // EntriesByDate blocks on the date's channel
	insertGate chan struct{}            // InsertEntries blocks until closed
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries:  make(map[string][]core.Entry),
		readGate: make(map[string]chan struct{}),
	}
}

func (f *fakeStore) EntriesByDate(_ context.Context, date string) ([]core.Entry, error) {
	f.mu.Lock()
	gate := f.readGate[date]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead != nil {
		return nil, f.failRead
	}
	return append([]core.Entry(nil), f.entries[date]...), nil
}

func (f *fakeStore) DeleteEntriesByDate(_ context.Context, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.entries, date)
	return nil
}

func (f *fakeStore) InsertEntries(_ context.Context, entries []core.Entry) error {
	f.mu.Lock()
	gate := f.insertGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert != nil {
		return f.failInsert
	}
	for _, e := range entries {
		f.entries[e.Date] = append(f.entries[e.Date], e)
	}
	return nil
}

// replacingStore adds the atomic swap on top of fakeStore.
type replacingStore struct {
	*fakeStore
	failReplace error
}

func (r *replacingStore) ReplaceDayEntries(_ context.Context, date string, entries []core.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReplace != nil {
		return r.failReplace
	}
	delete(r.entries, date)
	if len(entries) > 0 {
		r.entries[date] = append([]core.Entry(nil), entries...)
	}
	return nil
}

type staticNames map[string]string

func (n staticNames) NameOf(id string) string {
	if name, ok := n[id]; ok {
		return name
	}
	return id
}

var testNames = staticNames{
	"rent":  "House Rent",
	"food":  "Grocery",
	"fuel":  "Travel exp",
	"books": "Others",
}

func newTestSync(store Store) *DaySync {
	s := NewDaySync(store, testNames)
	s.now = func() time.Time { return time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSaveRoundTrip(t *testing.T) {
	store := newFakeStore()
	s := newTestSync(store)
	ctx := context.Background()

	if err := s.Load(ctx, "2025-03-07"); err != nil {
		t.Fatalf("load: %v", err)
	}
	edits := map[string]string{
		"rent":  "0",
		"food":  "-5",
		"fuel":  "abc",
		"books": "12.50",
	}
	for id, v := range edits {
		if err := s.Edit(id, v); err != nil {
			t.Fatalf("edit %s: %v", id, err)
		}
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	rows := store.entries["2025-03-07"]
	if len(rows) != 1 {
		t.Fatalf("expected exactly one persisted row, got %d", len(rows))
	}
	got := rows[0]
	if got.CategoryID != "books" || got.AmountCents != 1250 {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.Description != "Others expense" {
		t.Fatalf("expected derived description, got %q", got.Description)
	}

	// Filtered-out values must visibly disappear from the form after save
	in := s.Inputs()
	if len(in) != 1 || in["books"] != "12.50" {
		t.Fatalf("expected resynced inputs {books:12.50}, got %v", in)
	}
	if s.State() != StateLoaded {
		t.Fatalf("expected Loaded after save, got %v", s.State())
	}

	// Loading the same day again returns exactly the saved set
	if err := s.Load(ctx, "2025-03-07"); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if in := s.Inputs(); len(in) != 1 || in["books"] != "12.50" {
		t.Fatalf("round-trip mismatch: %v", in)
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	store := newFakeStore()
	s := newTestSync(store)
	ctx := context.Background()

	if err := s.Load(ctx, "2025-03-07"); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = s.Edit("food", "7.25")
	_ = s.Edit("rent", "450")

	if err := s.Save(ctx); err != nil {
		t.Fatalf("first save: %v", err)
	}
	first := append([]core.Entry(nil), store.entries["2025-03-07"]...)

	if err := s.Save(ctx); err != nil {
		t.Fatalf("second save: %v", err)
	}
	second := store.entries["2025-03-07"]

	if len(first) != len(second) {
		t.Fatalf("idempotence broken: %d vs %d rows", len(first), len(second))
	}
	for i := range first {
		if first[i].CategoryID != second[i].CategoryID || first[i].AmountCents != second[i].AmountCents {
			t.Fatalf("row %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSaveNothingToSave(t *testing.T) {
	store := newFakeStore()
	store.entries["2025-03-07"] = []core.Entry{
		{Date: "2025-03-07", CategoryID: "food", AmountCents: 500, Description: "Grocery expense"},
	}
	s := newTestSync(store)
	ctx := context.Background()

	if err := s.Load(ctx, "2025-03-07"); err != nil {
		t.Fatalf("load: %v", err)
	}
	// Blank out everything: zero and garbage only
	_ = s.Edit("food", "0")
	_ = s.Edit("fuel", "xx")

	if err := s.Save(ctx); !errors.Is(err, core.ErrNothingToSave) {
		t.Fatalf("expected ErrNothingToSave, got %v", err)
	}

	// Prior persisted rows are untouched
	rows := store.entries["2025-03-07"]
	if len(rows) != 1 || rows[0].AmountCents != 500 {
		t.Fatalf("prior rows must survive a rejected save: %+v", rows)
	}
	if err := s.Load(ctx, "2025-03-07"); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if in := s.Inputs(); in["food"] != "5.00" {
		t.Fatalf("expected pre-existing set back, got %v", in)
	}
}

func TestLoadStalenessGuard(t *testing.T) {
	store := newFakeStore()
	store.entries["2025-03-01"] = []core.Entry{
		{Date: "2025-03-01", CategoryID: "rent", AmountCents: 45000},
	}
	store.entries["2025-03-02"] = []core.Entry{
		{Date: "2025-03-02", CategoryID: "food", AmountCents: 900},
	}
	gate := make(chan struct{})
	store.readGate["2025-03-01"] = gate

	s := newTestSync(store)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.Load(ctx, "2025-03-01") }()

	// Give the first load time to issue its read, then supersede it
	time.Sleep(20 * time.Millisecond)
	if err := s.Load(ctx, "2025-03-02"); err != nil {
		t.Fatalf("load B: %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("superseded load must be discarded silently, got %v", err)
	}

	if s.Date() != "2025-03-02" {
		t.Fatalf("active date overwritten by stale load: %s", s.Date())
	}
	in := s.Inputs()
	if _, leaked := in["rent"]; leaked {
		t.Fatalf("stale response leaked into state: %v", in)
	}
	if in["food"] != "9.00" {
		t.Fatalf("expected day B state, got %v", in)
	}
}

func TestSaveInFlightRejected(t *testing.T) {
	store := newFakeStore()
	gate := make(chan struct{})
	store.insertGate = gate

	s := newTestSync(store)
	ctx := context.Background()
	if err := s.Load(ctx, "2025-03-07"); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = s.Edit("food", "3")

	done := make(chan error, 1)
	go func() { done <- s.Save(ctx) }()
	time.Sleep(20 * time.Millisecond)

	if err := s.Save(ctx); !errors.Is(err, ErrSaveInFlight) {
		t.Fatalf("expected ErrSaveInFlight, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first save: %v", err)
	}
}

func TestPartialSaveFailureAndRepair(t *testing.T) {
	store := newFakeStore()
	store.entries["2025-03-07"] = []core.Entry{
		{Date: "2025-03-07", CategoryID: "food", AmountCents: 500},
	}
	s := newTestSync(store)
	ctx := context.Background()

	if err := s.Load(ctx, "2025-03-07"); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = s.Edit("rent", "450")

	store.failInsert = errors.New("disk full")
	err := s.Save(ctx)
	var pse *PartialSaveError
	if !errors.As(err, &pse) {
		t.Fatalf("expected PartialSaveError, got %v", err)
	}
	if errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatal("partial save must be distinct from StoreUnavailable")
	}
	if pse.Date != "2025-03-07" {
		t.Fatalf("unexpected date in error: %s", pse.Date)
	}

	// The known consistency gap: the day is now empty in the store,
	// while the user's edits survive in memory.
	if rows := store.entries["2025-03-07"]; len(rows) != 0 {
		t.Fatalf("expected cleared day after partial failure, got %+v", rows)
	}
	in := s.Inputs()
	if in["rent"] != "450" || in["food"] != "5.00" {
		t.Fatalf("in-memory edits must be preserved, got %v", in)
	}

	// A subsequent successful save fully repairs the day
	store.failInsert = nil
	if err := s.Save(ctx); err != nil {
		t.Fatalf("repair save: %v", err)
	}
	rows := store.entries["2025-03-07"]
	if len(rows) != 2 {
		t.Fatalf("expected repaired day with 2 rows, got %d", len(rows))
	}
}

func TestAtomicReplacerPath(t *testing.T) {
	store := &replacingStore{fakeStore: newFakeStore()}
	store.entries["2025-03-07"] = []core.Entry{
		{Date: "2025-03-07", CategoryID: "food", AmountCents: 500},
	}
	s := newTestSync(store)
	ctx := context.Background()

	if err := s.Load(ctx, "2025-03-07"); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = s.Edit("rent", "450")

	store.failReplace = errors.New("connection reset")
	err := s.Save(ctx)
	if !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("expected StoreUnavailable from atomic path, got %v", err)
	}
	var pse *PartialSaveError
	if errors.As(err, &pse) {
		t.Fatal("atomic path must never report a partial save")
	}
	// With the atomic swap the prior rows survive a failed save
	if rows := store.entries["2025-03-07"]; len(rows) != 1 || rows[0].AmountCents != 500 {
		t.Fatalf("prior rows must be intact after failed atomic save: %+v", rows)
	}

	store.failReplace = nil
	if err := s.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	if rows := store.entries["2025-03-07"]; len(rows) != 2 {
		t.Fatalf("expected 2 rows after save, got %d", len(rows))
	}
}

func TestEditBeforeLoad(t *testing.T) {
	s := newTestSync(newFakeStore())
	if err := s.Edit("food", "5"); !errors.Is(err, ErrNoDayLoaded) {
		t.Fatalf("expected ErrNoDayLoaded, got %v", err)
	}
	if err := s.Save(context.Background()); !errors.Is(err, ErrNoDayLoaded) {
		t.Fatalf("expected ErrNoDayLoaded from save, got %v", err)
	}
}

func TestLoadFailureRetainsPreviousState(t *testing.T) {
	store := newFakeStore()
	store.entries["2025-03-07"] = []core.Entry{
		{Date: "2025-03-07", CategoryID: "food", AmountCents: 500},
	}
	s := newTestSync(store)
	ctx := context.Background()

	if err := s.Load(ctx, "2025-03-07"); err != nil {
		t.Fatalf("load: %v", err)
	}

	store.failRead = errors.New("timeout")
	err := s.Load(ctx, "2025-03-07")
	if !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("expected StoreUnavailable, got %v", err)
	}
	if in := s.Inputs(); in["food"] != "5.00" {
		t.Fatalf("previous state must be retained on load failure, got %v", in)
	}
}
