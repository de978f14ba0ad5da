package usage

import (
	"github.com/thebtf/rapport/pkg/models"
)

// SessionTracker matches conversation start events to later end events per
// UI surface. It holds at most one pending start per surface; a new start on
// a surface that already has one silently replaces it, since the stream is
// assumed to eventually balance only the latest entry.
//
// A tracker belongs to exactly one user identity's processing context and is
// mutated only within a cycle; callers serialize cycles per identity.
type SessionTracker struct {
	pending map[models.SurfaceID]models.UsageEvent
}

// NewSessionTracker creates an empty tracker.
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{pending: make(map[models.SurfaceID]models.UsageEvent)}
}

// Open registers startEvent as the pending conversation start for its
// surface, replacing any previous pending start without emitting anything.
func (t *SessionTracker) Open(startEvent models.UsageEvent) {
	t.pending[startEvent.SurfaceID()] = startEvent
}

// Close consumes the pending start for the surface, if any, and derives an
// in-app conversation event from the (start, end) pair. The pending start is
// removed regardless of whether an event is emitted.
//
// No event is emitted when there is no pending start, or when the end is not
// strictly after the start: equal or inverted timestamps are measurement
// noise from an unordered stream, not an error. The returned locus id is the
// start event's, since end events carry none.
func (t *SessionTracker) Close(surface models.SurfaceID, endEvent models.UsageEvent) (ev models.ConversationEvent, locusID string, ok bool) {
	start, exists := t.pending[surface]
	if !exists {
		return models.ConversationEvent{}, "", false
	}
	delete(t.pending, surface)

	if start.Timestamp >= endEvent.Timestamp {
		return models.ConversationEvent{}, "", false
	}
	return models.ConversationEvent{
		Timestamp:       start.Timestamp,
		Kind:            models.EventInAppConversation,
		DurationSeconds: (endEvent.Timestamp - start.Timestamp) / 1000,
	}, start.LocusID, true
}

// Pending returns the unmatched start event for a surface, if one exists.
func (t *SessionTracker) Pending(surface models.SurfaceID) (models.UsageEvent, bool) {
	ev, ok := t.pending[surface]
	return ev, ok
}

// Len reports the number of surfaces with an open session.
func (t *SessionTracker) Len() int {
	return len(t.pending)
}
