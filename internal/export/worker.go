package export

import (
	"context"
	"fmt"
	"log/slog"

	"homeledger/internal/amqp"
)

// Worker consumes day-saved events and exports the day's persisted rows.
// It always re-reads the store so the export reflects post-save truth, not
// whatever the message producer had in memory.
type Worker struct {
	store  Store
	writer DayWriter
}

func NewWorker(store Store, writer DayWriter) *Worker {
	return &Worker{store: store, writer: writer}
}

// HandleDaySaved exports one saved day. Errors propagate so the AMQP
// consumer can nack and retry.
func (w *Worker) HandleDaySaved(ctx context.Context, msg *amqp.DaySavedMessage) error {
	entries, err := w.store.EntriesByDate(ctx, msg.Date)
	if err != nil {
		return fmt.Errorf("read day %s from storage: %w", msg.Date, err)
	}
	if len(entries) == 0 {
		// A save never persists an empty day, so an empty read usually means
		// the rows were replaced again before we got here.
		slog.WarnContext(ctx, "No entries found for saved day, skipping export", "date", msg.Date)
		return nil
	}

	if err := w.writer.AppendDayRows(ctx, msg.Date, entries); err != nil {
		return fmt.Errorf("export day %s: %w", msg.Date, err)
	}

	slog.InfoContext(ctx, "Day exported", "date", msg.Date, "entries", len(entries))
	return nil
}
