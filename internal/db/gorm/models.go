package gorm

import (
	"time"

	"gorm.io/gorm"

	"github.com/thebtf/rapport/pkg/models"
)

// GORM Models

// Conversation is a registered conversation for one package.
type Conversation struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	PackageName string `gorm:"index;uniqueIndex:idx_conversations_pkg_shortcut,priority:1;not null"`
	ShortcutID  string `gorm:"uniqueIndex:idx_conversations_pkg_shortcut,priority:2;not null"`
	LocusID     string `gorm:"index"`
	ChannelID   string `gorm:"index"`
	Label       string
	CreatedAt   string `gorm:"not null"`
}

func (Conversation) TableName() string { return "conversations" }

// BeforeCreate hook to ensure the creation timestamp is set.
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt == "" {
		c.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// Info converts the row to its domain model.
func (c *Conversation) Info() models.ConversationInfo {
	return models.ConversationInfo{
		ShortcutID:            c.ShortcutID,
		LocusID:               c.LocusID,
		NotificationChannelID: c.ChannelID,
		Label:                 c.Label,
	}
}

// ConversationEvent is one derived engagement record in a history bucket.
// Rows are append-only; insertion order within a bucket is the history order.
type ConversationEvent struct {
	ID          int64                        `gorm:"primaryKey;autoIncrement"`
	PackageName string                       `gorm:"index:idx_events_bucket,priority:1;not null"`
	Category    models.EventCategory         `gorm:"type:text;check:category IN ('shortcut_based', 'locus_based');index:idx_events_bucket,priority:2;not null"`
	BucketKey   string                       `gorm:"index:idx_events_bucket,priority:3;not null"`
	Kind        models.ConversationEventKind `gorm:"type:text;not null"`
	Timestamp   int64                        `gorm:"index;not null"`
	DurationSec int64                        `gorm:"default:0"`
}

func (ConversationEvent) TableName() string { return "conversation_events" }

// Event converts the row to its domain model.
func (e *ConversationEvent) Event() models.ConversationEvent {
	return models.ConversationEvent{
		Timestamp:       e.Timestamp,
		Kind:            e.Kind,
		DurationSeconds: e.DurationSec,
	}
}
