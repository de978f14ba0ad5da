package registry

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/thebtf/rapport/pkg/models"
)

// RegistrySuite is a test suite for conversation registration and lookup.
type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func (s *RegistrySuite) SetupTest() {
	s.registry = New()
	s.registry.AddConversation("com.example.chat", models.ConversationInfo{
		ShortcutID:            "friend-1",
		LocusID:               "locus-a",
		NotificationChannelID: "channel-1",
		Label:                 "Friend One",
	})
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

// TestResolvePackage tests resolution of registered and unknown packages.
func (s *RegistrySuite) TestResolvePackage() {
	s.NotNil(s.registry.ResolvePackage("com.example.chat"))
	s.Nil(s.registry.ResolvePackage("com.example.unregistered"))
}

// TestLookups tests all three identifier spaces resolving to the same
// conversation.
func (s *RegistrySuite) TestLookups() {
	agg := s.registry.ResolvePackage("com.example.chat")
	s.Require().NotNil(agg)

	byShortcut := agg.ConversationByShortcut("friend-1")
	byLocus := agg.ConversationByLocus("locus-a")
	byChannel := agg.ConversationByNotificationChannel("channel-1")

	s.Require().NotNil(byShortcut)
	s.Require().NotNil(byLocus)
	s.Require().NotNil(byChannel)
	s.Equal(*byShortcut, *byLocus)
	s.Equal(*byShortcut, *byChannel)

	s.Nil(agg.ConversationByShortcut("stranger"))
	s.Nil(agg.ConversationByLocus(""))
	s.Nil(agg.ConversationByNotificationChannel(""))
}

// TestReplaceUpdatesIndexes tests that re-adding a shortcut id drops stale
// locus and channel index entries.
func (s *RegistrySuite) TestReplaceUpdatesIndexes() {
	s.registry.AddConversation("com.example.chat", models.ConversationInfo{
		ShortcutID:            "friend-1",
		LocusID:               "locus-a2",
		NotificationChannelID: "channel-2",
	})

	agg := s.registry.ResolvePackage("com.example.chat")
	s.Nil(agg.ConversationByLocus("locus-a"))
	s.Nil(agg.ConversationByNotificationChannel("channel-1"))
	s.NotNil(agg.ConversationByLocus("locus-a2"))
	s.NotNil(agg.ConversationByNotificationChannel("channel-2"))
}

// TestRemoveConversation tests removal and that the package keeps resolving.
func (s *RegistrySuite) TestRemoveConversation() {
	s.registry.RemoveConversation("com.example.chat", "friend-1")

	agg := s.registry.ResolvePackage("com.example.chat")
	s.Require().NotNil(agg)
	s.Nil(agg.ConversationByShortcut("friend-1"))
	s.Nil(agg.ConversationByLocus("locus-a"))
	s.Nil(agg.ConversationByNotificationChannel("channel-1"))

	// Removing from an unknown package is a no-op.
	s.registry.RemoveConversation("com.example.unregistered", "friend-1")
}

// TestPackageNames tests sorted package listing.
func (s *RegistrySuite) TestPackageNames() {
	s.registry.AddConversation("com.example.mail", models.ConversationInfo{ShortcutID: "inbox"})

	s.Equal([]string{"com.example.chat", "com.example.mail"}, s.registry.PackageNames())
}

// TestConversationsSorted tests the listing used by the HTTP surface.
func (s *RegistrySuite) TestConversationsSorted() {
	s.registry.AddConversation("com.example.chat", models.ConversationInfo{ShortcutID: "buddy-0"})

	agg := s.registry.ResolvePackage("com.example.chat").(*Package)
	convs := agg.Conversations()
	s.Require().Len(convs, 2)
	s.Equal("buddy-0", convs[0].ShortcutID)
	s.Equal("friend-1", convs[1].ShortcutID)
}
