package usage

import (
	"github.com/rs/zerolog/log"

	"github.com/thebtf/rapport/pkg/models"
)

// Classifier routes each raw event to the correct history bucket of its
// owning aggregate, consulting and mutating the session tracker for
// conversation surface transitions. Routing spans three identifier spaces
// (shortcut, locus, notification channel) because the same conversation can
// be engaged through three different UI entry points.
type Classifier struct {
	resolver Resolver
	tracker  *SessionTracker
	store    EventAppender
}

// NewClassifier creates a classifier. The resolver is the injected
// package-to-aggregate capability; the tracker carries pending session state
// across events and, if the instance is long-lived, across cycles.
func NewClassifier(resolver Resolver, tracker *SessionTracker, store EventAppender) *Classifier {
	return &Classifier{resolver: resolver, tracker: tracker, store: store}
}

// Classify processes one raw event, appending at most one derived event.
// Events from unregistered packages, with unknown identifiers, or with
// non-advancing timestamps all degrade to "no derived event produced";
// nothing here is fatal.
func (c *Classifier) Classify(ev models.UsageEvent) {
	agg := c.resolver.ResolvePackage(ev.PackageName)
	if agg == nil {
		return
	}

	switch ev.Kind {
	case models.UsageConversationSurfaceEntered:
		// Entering a surface always closes out a stale pending session
		// on it first, whether or not that close emits anything.
		c.closeConversation(agg, ev)
		if ev.LocusID == "" {
			return
		}
		// Only known conversations open a session; loci are never
		// created on the fly here.
		if agg.ConversationByLocus(ev.LocusID) == nil {
			return
		}
		c.tracker.Open(ev)
	case models.UsageSurfaceLeft:
		c.closeConversation(agg, ev)
	case models.UsageShortcutInvocation:
		c.appendByShortcut(agg, ev.ShortcutID, models.ConversationEvent{
			Timestamp: ev.Timestamp,
			Kind:      models.EventShortcutInvocation,
		})
	case models.UsageNotificationInterruption:
		c.appendByNotificationChannel(agg, ev.NotificationChannelID, models.ConversationEvent{
			Timestamp: ev.Timestamp,
			Kind:      models.EventNotificationPosted,
		})
	}
}

// closeConversation ends any pending session on the event's surface and
// files the derived event under the start event's locus.
func (c *Classifier) closeConversation(agg Aggregate, endEvent models.UsageEvent) {
	derived, locusID, ok := c.tracker.Close(endEvent.SurfaceID(), endEvent)
	if !ok {
		return
	}
	c.appendByLocus(agg, locusID, derived)
}

func (c *Classifier) appendByShortcut(agg Aggregate, shortcutID string, ev models.ConversationEvent) {
	if agg.ConversationByShortcut(shortcutID) == nil {
		return
	}
	c.append(agg, models.CategoryShortcutBased, shortcutID, ev)
}

func (c *Classifier) appendByLocus(agg Aggregate, locusID string, ev models.ConversationEvent) {
	if agg.ConversationByLocus(locusID) == nil {
		return
	}
	c.append(agg, models.CategoryLocusBased, locusID, ev)
}

func (c *Classifier) appendByNotificationChannel(agg Aggregate, channelID string, ev models.ConversationEvent) {
	conv := agg.ConversationByNotificationChannel(channelID)
	if conv == nil {
		return
	}
	// Notification-originated events are filed under the shortcut-based
	// category, keyed by the resolved conversation's shortcut id.
	c.append(agg, models.CategoryShortcutBased, conv.ShortcutID, ev)
}

func (c *Classifier) append(agg Aggregate, category models.EventCategory, key string, ev models.ConversationEvent) {
	if err := c.store.AppendEvent(agg, category, key, ev); err != nil {
		log.Warn().Err(err).
			Str("package", agg.PackageName()).
			Str("category", string(category)).
			Str("key", key).
			Msg("Failed to append derived event")
	}
}
