package models

import (
	"errors"
	"time"
)

// ErrMessageNotFound is returned by platform adapters when the target message
// no longer exists.
var ErrMessageNotFound = errors.New("message not found")

// Message is an inbound or historical chat message.
type Message struct {
	MessageID  string    `json:"message_id"`
	ChannelID  string    `json:"channel_id"`
	GuildID    string    `json:"guild_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// ChannelTopicPolicy is the allowed topic configured for a channel.
type ChannelTopicPolicy struct {
	ChannelID    string     `json:"channel_id"`
	AllowedTopic TopicLabel `json:"allowed_topic"`
}

// FlaggedMessage is a message whose predicted topic violates the channel policy
// and which is pending deletion.
type FlaggedMessage struct {
	MessageID        string     `json:"message_id"`
	ChannelID        string     `json:"channel_id"`
	AuthorID         string     `json:"author_id"`
	Text             string     `json:"text"`
	PredictedTopic   TopicLabel `json:"predicted_topic"`
	AllowedTopic     TopicLabel `json:"allowed_topic"`
	Confidence       float64    `json:"confidence"`
	Timestamp        time.Time  `json:"timestamp"`
	DeletionDeadline time.Time  `json:"deletion_deadline"`
	WarningID        string     `json:"warning_id"` // reply message carrying the warning
}

// Audit actions.
const (
	ActionDeleteScheduled = "delete_scheduled"
	ActionWarnOnly        = "warn_only"
)

// AuditRecord is one immutable line of the moderation log.
type AuditRecord struct {
	Timestamp      time.Time
	ChannelID      string
	AuthorID       string
	Text           string
	PredictedTopic TopicLabel
	Action         string
}
