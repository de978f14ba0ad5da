package source

import (
	"sync"

	"github.com/thebtf/rapport/internal/usage"
)

// Hub owns one buffered source per user identity, created on demand. The
// ingest endpoint writes through it and the processor reads from it.
type Hub struct {
	mu        sync.Mutex
	maxEvents int
	sources   map[string]*BufferedSource
}

// NewHub creates a hub whose sources retain at most maxEvents each.
func NewHub(maxEvents int) *Hub {
	return &Hub{maxEvents: maxEvents, sources: make(map[string]*BufferedSource)}
}

// Source returns the buffered source for a user, creating it if needed.
func (h *Hub) Source(userID string) *BufferedSource {
	h.mu.Lock()
	defer h.mu.Unlock()
	src, ok := h.sources[userID]
	if !ok {
		src = NewBufferedSource(h.maxEvents)
		h.sources[userID] = src
	}
	return src
}

// EventSource adapts Source to the shape the processor wants.
func (h *Hub) EventSource(userID string) usage.EventSource {
	return h.Source(userID)
}
