// Package models contains domain models for rapport.
package models

// UsageEventKind identifies the kind of a raw device usage event.
type UsageEventKind string

const (
	// UsageShortcutInvocation is reported when the user launches a
	// conversation through a published shortcut.
	UsageShortcutInvocation UsageEventKind = "shortcut_invocation"
	// UsageNotificationInterruption is reported when a notification is
	// posted on a conversation's channel.
	UsageNotificationInterruption UsageEventKind = "notification_interruption"
	// UsageConversationSurfaceEntered is reported when a UI surface sets a
	// locus, i.e. the user enters an in-app conversation context.
	UsageConversationSurfaceEntered UsageEventKind = "conversation_surface_entered"
	// UsageSurfaceLeft is reported when a surface is paused, stopped or
	// destroyed. The three lifecycle signals collapse to this one kind.
	UsageSurfaceLeft UsageEventKind = "surface_left"
)

// SurfaceID identifies the UI surface that produced an event. A surface hosts
// at most one open conversation session at a time, so the pair forms the
// session key for start/end matching.
type SurfaceID struct {
	PackageName string `json:"package_name"`
	Surface     string `json:"surface"`
}

// UsageEvent is a raw event delivered by the device usage event source.
// Timestamps are wall-clock milliseconds and are not guaranteed to be
// strictly increasing across the stream.
type UsageEvent struct {
	Timestamp   int64          `json:"timestamp"`
	PackageName string         `json:"package_name"`
	Surface     string         `json:"surface"`
	Kind        UsageEventKind `json:"kind"`

	// Kind-specific payload. Exactly one of these is set for the kinds
	// that carry one; SurfaceLeft carries none.
	ShortcutID            string `json:"shortcut_id,omitempty"`
	NotificationChannelID string `json:"notification_channel_id,omitempty"`
	LocusID               string `json:"locus_id,omitempty"`
}

// SurfaceID returns the session key for the surface that produced the event.
func (e UsageEvent) SurfaceID() SurfaceID {
	return SurfaceID{PackageName: e.PackageName, Surface: e.Surface}
}

// ConversationEventKind identifies the kind of a derived conversation event.
type ConversationEventKind string

const (
	// EventShortcutInvocation records a conversation opened via shortcut.
	EventShortcutInvocation ConversationEventKind = "shortcut_invocation"
	// EventNotificationPosted records a notification posted on a
	// conversation's channel.
	EventNotificationPosted ConversationEventKind = "notification_posted"
	// EventInAppConversation records a measured in-app conversation
	// session with a duration.
	EventInAppConversation ConversationEventKind = "in_app_conversation"
)

// EventCategory addresses one of the independently keyed history buckets an
// aggregate owns.
type EventCategory string

const (
	// CategoryShortcutBased keys histories by shortcut id. Notification
	// events are filed here under the resolved conversation's shortcut id.
	CategoryShortcutBased EventCategory = "shortcut_based"
	// CategoryLocusBased keys histories by locus id.
	CategoryLocusBased EventCategory = "locus_based"
)

// ConversationEvent is a derived engagement record appended to a
// conversation's history. For EventInAppConversation the timestamp is the
// session start time and DurationSeconds holds the measured engagement,
// truncated toward zero; other kinds carry the raw event's own timestamp and
// a zero duration.
type ConversationEvent struct {
	Timestamp       int64                 `json:"timestamp"`
	Kind            ConversationEventKind `json:"kind"`
	DurationSeconds int64                 `json:"duration_seconds,omitempty"`
}
