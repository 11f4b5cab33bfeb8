package source

import (
	"context"
	"sync"

	"github.com/ginjaninja78/loadexport/internal/normalize"
	"github.com/ginjaninja78/loadexport/internal/types"
)

// Memory is a slice-backed Local, used for embedding and tests.
type Memory struct {
	mu      sync.RWMutex
	records []types.RawRecord
	n       *normalize.Normalizer
}

// NewMemory creates a Memory holding records. The normalizer resolves
// project IDs for scoped queries.
func NewMemory(n *normalize.Normalizer, records ...types.RawRecord) *Memory {
	return &Memory{records: append([]types.RawRecord(nil), records...), n: n}
}

// Add appends records.
func (m *Memory) Add(records ...types.RawRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
}

// Loads implements Local.
func (m *Memory) Loads(ctx context.Context, scope string) ([]types.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filterScope(append([]types.RawRecord(nil), m.records...), scope, m.n), nil
}
