package gorm

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: conversations and their event histories
		{
			ID: "001_conversations_and_events",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&Conversation{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&ConversationEvent{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("conversations", "conversation_events")
			},
		},
	})
	return m.Migrate()
}
