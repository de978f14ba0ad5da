package usage

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/thebtf/rapport/pkg/models"
)

// ClassifierSuite is a test suite for event classification and routing.
type ClassifierSuite struct {
	suite.Suite
	resolver   *fakeResolver
	store      *fakeAppender
	tracker    *SessionTracker
	classifier *Classifier
}

func (s *ClassifierSuite) SetupTest() {
	s.resolver = &fakeResolver{packages: map[string]*fakeAggregate{
		"com.example.chat": {
			pkg: "com.example.chat",
			conversations: []models.ConversationInfo{
				{ShortcutID: "friend-1", LocusID: "locus-a", NotificationChannelID: "channel-1"},
				{ShortcutID: "friend-2", LocusID: "locus-b"},
			},
		},
	}}
	s.store = &fakeAppender{}
	s.tracker = NewSessionTracker()
	s.classifier = NewClassifier(s.resolver, s.tracker, s.store)
}

func TestClassifierSuite(t *testing.T) {
	suite.Run(t, new(ClassifierSuite))
}

// TestUnknownPackageDropped tests that events from unregistered packages are
// dropped silently without touching tracker or store.
func (s *ClassifierSuite) TestUnknownPackageDropped() {
	s.classifier.Classify(models.UsageEvent{
		Timestamp:   1_000,
		PackageName: "com.example.unregistered",
		Surface:     "MainActivity",
		Kind:        models.UsageConversationSurfaceEntered,
		LocusID:     "locus-a",
	})

	s.Empty(s.store.events)
	s.Equal(0, s.tracker.Len())
}

// TestShortcutInvocation tests routing of shortcut invocations to the
// shortcut-based bucket.
func (s *ClassifierSuite) TestShortcutInvocation() {
	tests := []struct {
		name       string
		shortcutID string
		wantAppend bool
	}{
		{
			name:       "registered shortcut appended",
			shortcutID: "friend-1",
			wantAppend: true,
		},
		{
			name:       "unregistered shortcut dropped",
			shortcutID: "stranger",
			wantAppend: false,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.store.events = nil
			s.classifier.Classify(models.UsageEvent{
				Timestamp:   42_000,
				PackageName: "com.example.chat",
				Kind:        models.UsageShortcutInvocation,
				ShortcutID:  tt.shortcutID,
			})

			if !tt.wantAppend {
				s.Empty(s.store.events)
				return
			}
			s.Require().Len(s.store.events, 1)
			got := s.store.events[0]
			s.Equal("com.example.chat", got.pkg)
			s.Equal(models.CategoryShortcutBased, got.category)
			s.Equal(tt.shortcutID, got.key)
			s.Equal(models.EventShortcutInvocation, got.event.Kind)
			s.Equal(int64(42_000), got.event.Timestamp)
		})
	}
}

// TestNotificationInterruption tests that notification events resolve the
// channel to a conversation and file under its shortcut id.
func (s *ClassifierSuite) TestNotificationInterruption() {
	s.classifier.Classify(models.UsageEvent{
		Timestamp:             7_000,
		PackageName:           "com.example.chat",
		Kind:                  models.UsageNotificationInterruption,
		NotificationChannelID: "channel-1",
	})

	s.Require().Len(s.store.events, 1)
	got := s.store.events[0]
	s.Equal(models.CategoryShortcutBased, got.category)
	s.Equal("friend-1", got.key)
	s.Equal(models.EventNotificationPosted, got.event.Kind)

	// Unknown channel resolves to nothing and appends nothing.
	s.classifier.Classify(models.UsageEvent{
		Timestamp:             8_000,
		PackageName:           "com.example.chat",
		Kind:                  models.UsageNotificationInterruption,
		NotificationChannelID: "channel-unknown",
	})
	s.Len(s.store.events, 1)
}

// TestConversationSession tests the full enter/leave pairing through the
// classifier, filed into the locus-based bucket.
func (s *ClassifierSuite) TestConversationSession() {
	s.classifier.Classify(models.UsageEvent{
		Timestamp:   100_000,
		PackageName: "com.example.chat",
		Surface:     "ChatActivity",
		Kind:        models.UsageConversationSurfaceEntered,
		LocusID:     "locus-a",
	})
	s.Equal(1, s.tracker.Len())
	s.Empty(s.store.events)

	s.classifier.Classify(models.UsageEvent{
		Timestamp:   130_000,
		PackageName: "com.example.chat",
		Surface:     "ChatActivity",
		Kind:        models.UsageSurfaceLeft,
	})

	s.Equal(0, s.tracker.Len())
	s.Require().Len(s.store.events, 1)
	got := s.store.events[0]
	s.Equal(models.CategoryLocusBased, got.category)
	s.Equal("locus-a", got.key)
	s.Equal(models.EventInAppConversation, got.event.Kind)
	s.Equal(int64(100_000), got.event.Timestamp)
	s.Equal(int64(30), got.event.DurationSeconds)
}

// TestUnknownLocusOpensNoSession tests that an entered event whose locus is
// not a registered conversation does not open a session.
func (s *ClassifierSuite) TestUnknownLocusOpensNoSession() {
	s.classifier.Classify(models.UsageEvent{
		Timestamp:   1_000,
		PackageName: "com.example.chat",
		Surface:     "ChatActivity",
		Kind:        models.UsageConversationSurfaceEntered,
		LocusID:     "locus-unknown",
	})

	s.Equal(0, s.tracker.Len())

	s.classifier.Classify(models.UsageEvent{
		Timestamp:   9_000,
		PackageName: "com.example.chat",
		Surface:     "ChatActivity",
		Kind:        models.UsageSurfaceLeft,
	})
	s.Empty(s.store.events)
}

// TestReentryClosesStaleSession tests that entering a surface with a session
// already open closes the stale one first, then opens the new one, and only
// the latest entry yields a derived event.
func (s *ClassifierSuite) TestReentryClosesStaleSession() {
	enter := func(ts int64, locusID string) {
		s.classifier.Classify(models.UsageEvent{
			Timestamp:   ts,
			PackageName: "com.example.chat",
			Surface:     "ChatActivity",
			Kind:        models.UsageConversationSurfaceEntered,
			LocusID:     locusID,
		})
	}

	enter(100_000, "locus-a")
	enter(150_000, "locus-b")
	s.Equal(1, s.tracker.Len())

	// Re-entry emitted an implicit close for locus-a, a 50s session.
	s.Require().Len(s.store.events, 1)
	s.Equal("locus-a", s.store.events[0].key)
	s.Equal(int64(50), s.store.events[0].event.DurationSeconds)

	s.classifier.Classify(models.UsageEvent{
		Timestamp:   300_000,
		PackageName: "com.example.chat",
		Surface:     "ChatActivity",
		Kind:        models.UsageSurfaceLeft,
	})

	s.Require().Len(s.store.events, 2)
	got := s.store.events[1]
	s.Equal(models.CategoryLocusBased, got.category)
	s.Equal("locus-b", got.key)
	s.Equal(int64(150_000), got.event.Timestamp)
	s.Equal(int64(150), got.event.DurationSeconds)
}

// TestSessionLocusUnregisteredAtClose tests that a derived session event is
// dropped when its locus no longer resolves at close time.
func (s *ClassifierSuite) TestSessionLocusUnregisteredAtClose() {
	s.classifier.Classify(models.UsageEvent{
		Timestamp:   10_000,
		PackageName: "com.example.chat",
		Surface:     "ChatActivity",
		Kind:        models.UsageConversationSurfaceEntered,
		LocusID:     "locus-a",
	})
	s.Equal(1, s.tracker.Len())

	// The conversation disappears from the registry mid-session.
	s.resolver.packages["com.example.chat"].conversations = []models.ConversationInfo{
		{ShortcutID: "friend-2", LocusID: "locus-b"},
	}

	s.classifier.Classify(models.UsageEvent{
		Timestamp:   20_000,
		PackageName: "com.example.chat",
		Surface:     "ChatActivity",
		Kind:        models.UsageSurfaceLeft,
	})

	// The pending session is consumed but nothing is appended.
	s.Equal(0, s.tracker.Len())
	s.Empty(s.store.events)
}

// TestAppendErrorDoesNotPropagate tests that store failures are swallowed;
// classification has no fatal conditions.
func (s *ClassifierSuite) TestAppendErrorDoesNotPropagate() {
	s.store.err = errFailedAppend

	s.NotPanics(func() {
		s.classifier.Classify(models.UsageEvent{
			Timestamp:   1_000,
			PackageName: "com.example.chat",
			Kind:        models.UsageShortcutInvocation,
			ShortcutID:  "friend-1",
		})
	})
	s.Empty(s.store.events)
}
