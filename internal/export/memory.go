package export

import (
	"context"
	"sync"

	"homeledger/internal/core"
)

// MemoryWriter collects exported rows in memory. Used in tests and as a
// stand-in target when no spreadsheet is configured.
type MemoryWriter struct {
	mu   sync.Mutex
	rows []core.Entry
}

var _ DayWriter = (*MemoryWriter)(nil)

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{}
}

func (m *MemoryWriter) AppendDayRows(_ context.Context, _ string, entries []core.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, entries...)
	return nil
}

// Rows returns a copy of everything appended so far.
func (m *MemoryWriter) Rows() []core.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Entry(nil), m.rows...)
}
