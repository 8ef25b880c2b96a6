package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation represents a chat thread between two users about an ad.
type Conversation struct {
	ID          int       `db:"id" json:"id"`
	AdID        uuid.UUID `db:"ad_id" json:"ad_id"`
	User1ID     string    `db:"user1_id" json:"user1_id"`
	User2ID     string    `db:"user2_id" json:"user2_id"`
	LastMessage string    `db:"last_message" json:"last_message"`
	LastSender  string    `db:"last_sender" json:"last_sender"`
	LastUnread  bool      `db:"last_unread" json:"last_unread"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ConversationSummary is the API-facing view of a conversation for one user.
type ConversationSummary struct {
	ConversationID int       `json:"conversation_id"`
	AdID           uuid.UUID `json:"ad_id"`
	CounterpartID  string    `json:"counterpart_id"`
	LastMessage    string    `json:"last_message"`
	LastSender     string    `json:"last_sender"`
	LastUnread     bool      `json:"last_unread"`
	HasUnread      bool      `json:"has_unread"`
	Online         bool      `json:"online"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Message is one message inside a conversation.
type Message struct {
	ID             int       `db:"id" json:"id"`
	ConversationID int       `db:"conversation_id" json:"conversation_id"`
	SenderID       string    `db:"sender_id" json:"sender_id"`
	Text           string    `db:"text" json:"text"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ChatEvent is broadcast through inbox websocket rooms.
type ChatEvent struct {
	Type           string   `json:"type"`
	ConversationID int      `json:"conversation_id,omitempty"`
	Message        *Message `json:"message,omitempty"`
	UserID         string   `json:"user_id,omitempty"`
	Online         bool     `json:"online,omitempty"`
}
