package models

// ConversationInfo describes a conversation registered by a package. The
// same logical conversation can be engaged through three different UI entry
// points, so it carries up to three identifiers that all resolve back to it.
type ConversationInfo struct {
	ShortcutID            string `json:"shortcut_id"`
	LocusID               string `json:"locus_id,omitempty"`
	NotificationChannelID string `json:"notification_channel_id,omitempty"`
	Label                 string `json:"label,omitempty"`
}
