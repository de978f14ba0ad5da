package gorm

import (
	"context"

	"github.com/thebtf/rapport/internal/usage"
	"github.com/thebtf/rapport/pkg/models"
)

// EventStore persists derived conversation events into per-bucket histories.
// It is the aggregate store's write side used by the classifier, plus the
// read side serving the HTTP surface.
type EventStore struct {
	store *Store
}

// NewEventStore creates a new event store.
func NewEventStore(store *Store) *EventStore {
	return &EventStore{store: store}
}

// AppendEvent appends a derived event under one history bucket of the
// aggregate. This is the only write the classifier performs.
func (s *EventStore) AppendEvent(agg usage.Aggregate, category models.EventCategory, key string, ev models.ConversationEvent) error {
	row := ConversationEvent{
		PackageName: agg.PackageName(),
		Category:    category,
		BucketKey:   key,
		Kind:        ev.Kind,
		Timestamp:   ev.Timestamp,
		DurationSec: ev.DurationSeconds,
	}
	return s.store.DB.Create(&row).Error
}

// RecentEvents returns up to limit events from one bucket, newest first by
// insertion order.
func (s *EventStore) RecentEvents(ctx context.Context, packageName string, category models.EventCategory, key string, limit int) ([]models.ConversationEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []ConversationEvent
	err := s.store.DB.WithContext(ctx).
		Where("package_name = ? AND category = ? AND bucket_key = ?", packageName, category, key).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.ConversationEvent, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Event())
	}
	return out, nil
}

// PackageEvents returns up to limit events for a package across all buckets,
// newest first. Used by the surfacing read side when no bucket is named.
func (s *EventStore) PackageEvents(ctx context.Context, packageName string, limit int) ([]ConversationEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []ConversationEvent
	err := s.store.DB.WithContext(ctx).
		Where("package_name = ?", packageName).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// CountEvents reports the total number of stored derived events.
func (s *EventStore) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	err := s.store.DB.WithContext(ctx).Model(&ConversationEvent{}).Count(&n).Error
	return n, err
}
