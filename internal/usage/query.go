package usage

import (
	"context"

	"github.com/rs/zerolog/log"
)

// QueryHelper runs query cycles for one user identity: it drains the event
// source since a checkpoint, feeds every event through the classifier, and
// tracks the maximum timestamp seen as the next checkpoint candidate.
//
// A helper is single-threaded; one cycle fully completes, including all
// appends, before the next may begin for the same identity.
type QueryHelper struct {
	userID        string
	source        EventSource
	classifier    *Classifier
	lastTimestamp int64
}

// NewQueryHelper creates a query helper for one user identity.
func NewQueryHelper(userID string, source EventSource, classifier *Classifier) *QueryHelper {
	return &QueryHelper{userID: userID, source: source, classifier: classifier}
}

// RunSince pulls all events since the given millisecond timestamp and
// classifies each one in delivery order. It returns false when the source is
// unavailable, leaving the watermark untouched so the caller retries from
// the same checkpoint. Otherwise it returns true iff at least one event was
// delivered, independent of whether any event produced a derived record:
// a stream of dropped events still counts for checkpoint advancement.
func (h *QueryHelper) RunSince(ctx context.Context, sinceMillis int64) bool {
	events, err := h.source.EventsSince(ctx, sinceMillis)
	if err != nil {
		log.Warn().Err(err).Str("user_id", h.userID).Msg("Usage event source unavailable")
		return false
	}

	for _, ev := range events {
		// The watermark advances on every event, including ones from
		// unregistered packages that the classifier drops.
		if ev.Timestamp > h.lastTimestamp {
			h.lastTimestamp = ev.Timestamp
		}
		h.classifier.Classify(ev)
	}
	return len(events) > 0
}

// LastObservedTimestamp returns the maximum event timestamp seen across all
// runs of this helper. It serves as the caller's next checkpoint.
func (h *QueryHelper) LastObservedTimestamp() int64 {
	return h.lastTimestamp
}
