package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"homeledger/internal/amqp"
	"homeledger/internal/core"
	"homeledger/internal/storage"
)

type failingWriter struct{}

func (failingWriter) AppendDayRows(context.Context, string, []core.Entry) error {
	return errors.New("quota exceeded")
}

func seedDay(t *testing.T, store *storage.MemoryStore, date string) []core.Entry {
	t.Helper()
	now := time.Now().UTC()
	entries := []core.Entry{
		{Date: date, CategoryID: "grocery", AmountCents: 1250, Description: "Grocery expense", CreatedAt: now},
		{Date: date, CategoryID: "meat", AmountCents: 400, Description: "Meat expense", CreatedAt: now},
	}
	if err := store.InsertEntries(context.Background(), entries); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return entries
}

func TestHandleDaySavedExportsPersistedRows(t *testing.T) {
	store := storage.NewMemoryStore(nil)
	seedDay(t, store, "2025-03-07")
	writer := NewMemoryWriter()
	w := NewWorker(store, writer)

	msg := amqp.NewDaySavedMessage("2025-03-07")
	if err := w.HandleDaySaved(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	rows := writer.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 exported rows, got %d", len(rows))
	}
	if rows[0].Date != "2025-03-07" || rows[0].AmountCents != 1250 {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
}

func TestHandleDaySavedSkipsEmptyDay(t *testing.T) {
	store := storage.NewMemoryStore(nil)
	writer := NewMemoryWriter()
	w := NewWorker(store, writer)

	if err := w.HandleDaySaved(context.Background(), amqp.NewDaySavedMessage("2025-03-07")); err != nil {
		t.Fatalf("empty day must not error: %v", err)
	}
	if len(writer.Rows()) != 0 {
		t.Fatal("nothing should have been exported")
	}
}

func TestHandleDaySavedPropagatesWriterErrors(t *testing.T) {
	store := storage.NewMemoryStore(nil)
	seedDay(t, store, "2025-03-07")
	w := NewWorker(store, failingWriter{})

	if err := w.HandleDaySaved(context.Background(), amqp.NewDaySavedMessage("2025-03-07")); err == nil {
		t.Fatal("expected writer error to propagate for requeue")
	}
}
