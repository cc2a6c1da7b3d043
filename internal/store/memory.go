package store

import (
	"context"
	"sort"
	"sync"

	"github.com/bft-labs/xferbench/internal/domain"
)

// Memory implements Store in process memory. It is the default receiver
// persistence and the store used throughout the tests.
type Memory struct {
	mu      sync.RWMutex
	records map[int64]domain.Record
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[int64]domain.Record)}
}

// Page returns up to limit records with ID greater than afterID in
// ascending ID order.
func (m *Memory) Page(ctx context.Context, afterID int64, limit int) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	ids := make([]int64, 0, len(m.records))
	for id := range m.records {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	m.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.records[id])
	}
	return out, nil
}

// Save persists one record, overwriting any prior entry with the same ID.
func (m *Memory) Save(ctx context.Context, rec domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.records[rec.ID] = rec
	m.mu.Unlock()
	return nil
}

// Count returns the number of stored records.
func (m *Memory) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.records)), nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }
