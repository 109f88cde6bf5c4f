package core

import (
	"errors"
	"time"
)

type (
	// Category is one row of the user-editable expense taxonomy.
	// Categories are append-only; SortOrder drives display and iteration order.
	Category struct {
		ID        string
		Name      string
		Icon      string
		SortOrder int64
	}

	// Entry is one persisted expense row. The ledger keeps at most one
	// entry per (Date, CategoryID) pair, and only entries with a positive
	// amount are ever stored.
	Entry struct {
		Date        string // canonical YYYY-MM-DD key
		CategoryID  string
		AmountCents int64
		Description string
		CreatedAt   time.Time
	}

	// DayInput is the editable per-day form state: raw amount strings keyed
	// by category id. Values are kept verbatim while the user types, so a
	// value may be empty, zero, negative or not a number at all.
	DayInput map[string]string
)

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrEmptyName        = errors.New("empty category name")
	ErrNothingToSave    = errors.New("nothing to save")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// Clone returns an independent copy of the input map.
func (in DayInput) Clone() DayInput {
	out := make(DayInput, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// TotalCents sums the parseable positive amounts currently typed into the
// form. It is a pure computed value, recomputed on demand and never stored.
func (in DayInput) TotalCents() int64 {
	var total int64
	for _, raw := range in {
		if cents, ok := ParseAmountCents(raw); ok {
			total += cents
		}
	}
	return total
}
