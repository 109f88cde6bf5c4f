package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrSaveInFlight rejects a save issued while another save for the same
	// day has not resolved yet.
	ErrSaveInFlight = errors.New("save already in flight")

	// ErrNoDayLoaded rejects edits and saves before any day has been loaded.
	ErrNoDayLoaded = errors.New("no day loaded")
)

// PartialSaveError reports the delete-then-insert failure window: the day's
// rows were removed but the replacement rows were not written, so the
// persisted ledger is empty even though the in-memory edits survive. It is
// deliberately distinct from core.ErrStoreUnavailable; a subsequent
// successful save fully repairs the day.
type PartialSaveError struct {
	Date string
	Err  error
}

func (e *PartialSaveError) Error() string {
	return fmt.Sprintf("partial save for %s: day cleared but new entries not written: %v", e.Date, e.Err)
}

func (e *PartialSaveError) Unwrap() error { return e.Err }
