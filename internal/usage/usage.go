// Package usage derives conversation engagement events from a raw stream of
// device usage events. A query cycle pulls everything since a checkpoint from
// the event source, classifies each event, matches conversation start/end
// pairs per UI surface, and appends the derived events to the owning
// aggregate's history buckets.
package usage

import (
	"context"
	"errors"

	"github.com/thebtf/rapport/pkg/models"
)

// ErrUnavailable is returned by an EventSource when the underlying facility
// cannot be reached. It is distinct from a nil error with zero events: a
// cycle that sees it reports failure and does not advance its watermark.
var ErrUnavailable = errors.New("usage: event source unavailable")

// EventSource supplies raw usage events for one user identity. Events may
// arrive out of strict timestamp order and may contain duplicates; the
// classifier tolerates both.
type EventSource interface {
	// EventsSince returns all events observed since the given wall-clock
	// millisecond timestamp, in delivery order. A nil error with an empty
	// slice means zero events were found; ErrUnavailable means the source
	// could not be queried at all.
	EventsSince(ctx context.Context, sinceMillis int64) ([]models.UsageEvent, error)
}

// Aggregate is the per-package root that owns conversation registrations and
// event histories. Lookups return nil when the identifier is not registered,
// which is the common case and not an error.
type Aggregate interface {
	PackageName() string
	ConversationByShortcut(shortcutID string) *models.ConversationInfo
	ConversationByLocus(locusID string) *models.ConversationInfo
	ConversationByNotificationChannel(channelID string) *models.ConversationInfo
}

// Resolver maps a package name to its aggregate root. Most installed
// packages never register, so a nil result is expected and silently drops
// the event being classified.
type Resolver interface {
	ResolvePackage(packageName string) Aggregate
}

// EventAppender persists a derived event under one history bucket of an
// aggregate. Append is the only write the classifier performs.
type EventAppender interface {
	AppendEvent(agg Aggregate, category models.EventCategory, key string, ev models.ConversationEvent) error
}
