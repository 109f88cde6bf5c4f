// Package export mirrors saved days to an external spreadsheet.
package export

import (
	"context"

	"homeledger/internal/core"
)

// DayWriter appends one day's persisted entries to the export target.
type DayWriter interface {
	AppendDayRows(ctx context.Context, date string, entries []core.Entry) error
}

// Store is the read surface the worker needs to fetch post-save truth.
type Store interface {
	EntriesByDate(ctx context.Context, date string) ([]core.Entry, error)
}
