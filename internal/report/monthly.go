// Package report computes derived totals over the persisted ledger.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"homeledger/internal/core"
)

// Store is the range-query surface the aggregator needs.
type Store interface {
	SumAmountBetween(ctx context.Context, first, last string) (int64, error)
}

// MonthlyAggregator recomputes the running total of the month containing a
// given day. Totals are always recomputed from the store, never updated
// incrementally; on store failure the previous total is retained so the
// caller can keep displaying it next to a non-fatal notice.
type MonthlyAggregator struct {
	store Store

	mu        sync.Mutex
	lastCents int64
}

func NewMonthlyAggregator(store Store) *MonthlyAggregator {
	return &MonthlyAggregator{store: store}
}

// ComputeTotal sums amounts over the inclusive first..last day range of the
// month containing d. On failure it returns the retained previous total
// together with a wrapped core.ErrStoreUnavailable.
func (a *MonthlyAggregator) ComputeTotal(ctx context.Context, d time.Time) (int64, error) {
	first, last := core.MonthBounds(d)
	total, err := a.store.SumAmountBetween(ctx, first, last)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		slog.WarnContext(ctx, "Monthly total unavailable, keeping previous value",
			"first", first, "last", last, "previous_cents", a.lastCents, "error", err)
		return a.lastCents, fmt.Errorf("%w: month total %s..%s: %v", core.ErrStoreUnavailable, first, last, err)
	}
	a.lastCents = total
	return total, nil
}

// LastTotal returns the most recently computed total.
func (a *MonthlyAggregator) LastTotal() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastCents
}
