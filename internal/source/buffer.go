// Package source provides event source implementations feeding the usage
// query cycle.
package source

import (
	"context"
	"sync"

	"github.com/thebtf/rapport/internal/usage"
	"github.com/thebtf/rapport/pkg/models"
)

// BufferedSource is an in-memory event source fed by the ingest endpoint.
// Events are kept in delivery order; EventsSince returns the ones strictly
// after the checkpoint, which tolerates both duplicates and out-of-order
// timestamps the same way the platform facility would.
type BufferedSource struct {
	mu     sync.RWMutex
	events []models.UsageEvent
	closed bool
	max    int
}

// NewBufferedSource creates a source retaining at most max events; older
// events are discarded first. A non-positive max keeps everything.
func NewBufferedSource(max int) *BufferedSource {
	return &BufferedSource{max: max}
}

// Add appends raw events in delivery order.
func (b *BufferedSource) Add(events ...models.UsageEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.events = append(b.events, events...)
	if b.max > 0 && len(b.events) > b.max {
		b.events = b.events[len(b.events)-b.max:]
	}
}

// EventsSince returns buffered events with a timestamp strictly after
// sinceMillis, in delivery order. After Close it reports ErrUnavailable,
// which callers treat differently from an empty result.
func (b *BufferedSource) EventsSince(_ context.Context, sinceMillis int64) ([]models.UsageEvent, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, usage.ErrUnavailable
	}
	var out []models.UsageEvent
	for _, ev := range b.events {
		if ev.Timestamp > sinceMillis {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Len reports the number of buffered events.
func (b *BufferedSource) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}

// Close marks the source unavailable. Subsequent Adds are dropped.
func (b *BufferedSource) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}
