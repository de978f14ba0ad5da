package usage

import (
	"context"
	"errors"

	"github.com/thebtf/rapport/pkg/models"
)

var errFailedAppend = errors.New("append failed")

// fakeAggregate is an in-memory aggregate root for classifier tests.
type fakeAggregate struct {
	pkg           string
	conversations []models.ConversationInfo
}

func (a *fakeAggregate) PackageName() string { return a.pkg }

func (a *fakeAggregate) ConversationByShortcut(shortcutID string) *models.ConversationInfo {
	for i := range a.conversations {
		if a.conversations[i].ShortcutID == shortcutID {
			return &a.conversations[i]
		}
	}
	return nil
}

func (a *fakeAggregate) ConversationByLocus(locusID string) *models.ConversationInfo {
	for i := range a.conversations {
		if locusID != "" && a.conversations[i].LocusID == locusID {
			return &a.conversations[i]
		}
	}
	return nil
}

func (a *fakeAggregate) ConversationByNotificationChannel(channelID string) *models.ConversationInfo {
	for i := range a.conversations {
		if channelID != "" && a.conversations[i].NotificationChannelID == channelID {
			return &a.conversations[i]
		}
	}
	return nil
}

// fakeResolver resolves a fixed set of packages.
type fakeResolver struct {
	packages map[string]*fakeAggregate
}

func (r *fakeResolver) ResolvePackage(packageName string) Aggregate {
	agg, ok := r.packages[packageName]
	if !ok {
		return nil // interface nil, not a typed nil
	}
	return agg
}

// appended records one AppendEvent call.
type appended struct {
	pkg      string
	category models.EventCategory
	key      string
	event    models.ConversationEvent
}

// fakeAppender records appends in order.
type fakeAppender struct {
	events []appended
	err    error
}

func (s *fakeAppender) AppendEvent(agg Aggregate, category models.EventCategory, key string, ev models.ConversationEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, appended{pkg: agg.PackageName(), category: category, key: key, event: ev})
	return nil
}

// fakeSource returns a canned event slice, or ErrUnavailable.
type fakeSource struct {
	events      []models.UsageEvent
	unavailable bool
}

func (f *fakeSource) EventsSince(_ context.Context, sinceMillis int64) ([]models.UsageEvent, error) {
	if f.unavailable {
		return nil, ErrUnavailable
	}
	var out []models.UsageEvent
	for _, ev := range f.events {
		if ev.Timestamp > sinceMillis {
			out = append(out, ev)
		}
	}
	return out, nil
}
