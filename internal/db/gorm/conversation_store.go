package gorm

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/thebtf/rapport/pkg/models"
)

// ConversationStore persists conversation registrations so the registry
// survives restarts.
type ConversationStore struct {
	store *Store
}

// NewConversationStore creates a new conversation store.
func NewConversationStore(store *Store) *ConversationStore {
	return &ConversationStore{store: store}
}

// Upsert inserts or replaces a conversation registration, keyed by
// package + shortcut id.
func (s *ConversationStore) Upsert(ctx context.Context, packageName string, info models.ConversationInfo) error {
	row := Conversation{
		PackageName: packageName,
		ShortcutID:  info.ShortcutID,
		LocusID:     info.LocusID,
		ChannelID:   info.NotificationChannelID,
		Label:       info.Label,
	}
	return s.store.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "package_name"}, {Name: "shortcut_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"locus_id", "channel_id", "label",
		}),
	}).Create(&row).Error
}

// Delete removes a conversation registration.
func (s *ConversationStore) Delete(ctx context.Context, packageName, shortcutID string) error {
	return s.store.DB.WithContext(ctx).
		Where("package_name = ? AND shortcut_id = ?", packageName, shortcutID).
		Delete(&Conversation{}).Error
}

// ListAll returns every stored registration, for registry loading at startup.
func (s *ConversationStore) ListAll(ctx context.Context) ([]Conversation, error) {
	var rows []Conversation
	err := s.store.DB.WithContext(ctx).
		Order("package_name, shortcut_id").
		Find(&rows).Error
	return rows, err
}
