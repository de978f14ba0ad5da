// Package checkpoint persists the per-identity timestamp watermark below
// which usage events are assumed already processed.
package checkpoint

import (
	"context"
	"sync"
)

// Store holds one checkpoint per user identity. A missing checkpoint reads
// as zero, meaning "process everything".
type Store interface {
	Get(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, userID string, tsMillis int64) error
}

// MemoryStore is a process-local checkpoint store. It is the default when no
// Redis is configured; checkpoints then reset on restart, which only costs
// reprocessing of already-tolerated duplicates.
type MemoryStore struct {
	mu         sync.RWMutex
	watermarks map[string]int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{watermarks: make(map[string]int64)}
}

// Get returns the checkpoint for a user, zero when unset.
func (m *MemoryStore) Get(_ context.Context, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.watermarks[userID], nil
}

// Set stores the checkpoint for a user.
func (m *MemoryStore) Set(_ context.Context, userID string, tsMillis int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watermarks[userID] = tsMillis
	return nil
}
