// Package models defines the core data structures for BotEngine.
//
// It includes the durable conversation records (contacts, conversations,
// messages), the transient per-sender flow state, and the webhook payload
// types shared across modules.
package models

import (
	"errors"
	"time"
)

// MessageSender identifies who authored a message in a conversation.
type MessageSender string

const (
	// SenderClient is an inbound message from the contact.
	SenderClient MessageSender = "client"
	// SenderBot is an automated reply produced by the dispatcher.
	SenderBot MessageSender = "bot"
	// SenderHuman is a message sent manually by an operator.
	SenderHuman MessageSender = "human"
)

// MessageType describes the payload shape of a message.
type MessageType string

const (
	// MessageTypeText is a plain text message body.
	MessageTypeText MessageType = "text"
	// MessageTypeInteractive is a structured payload (e.g. URL buttons).
	MessageTypeInteractive MessageType = "interactive"
)

// Error variables for better error handling and testability
var (
	ErrEmptyContactID = errors.New("contact id cannot be empty")
	ErrEmptyRecipient = errors.New("recipient cannot be empty")
	ErrEmptyBody      = errors.New("message body cannot be empty")
	ErrInvalidSender  = errors.New("invalid message sender")
)

// IsValidSender checks if the given sender role is supported.
func IsValidSender(s MessageSender) bool {
	switch s {
	case SenderClient, SenderBot, SenderHuman:
		return true
	default:
		return false
	}
}

// Contact represents a chat-platform identity. Contacts are created on the
// first inbound message and never deleted.
type Contact struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"external_id"` // phone number or platform user id
	Name       string    `json:"name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Conversation is the one-to-one companion record of a Contact. It carries
// the human-intervention flag read by the dispatcher before every reply.
type Conversation struct {
	ContactID        int64     `json:"contact_id"`
	HumanIntervening bool      `json:"human_intervening"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Message is one entry in a contact's append-only message log.
type Message struct {
	ID        string        `json:"id"` // uuid assigned by the store
	ContactID int64         `json:"contact_id"`
	Sender    MessageSender `json:"sender"`
	Type      MessageType   `json:"type"`
	Content   string        `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
}

// ConversationSummary is the operator-facing view of a conversation, joining
// the contact with its intervention flag and most recent message.
type ConversationSummary struct {
	ContactID        int64     `json:"contact_id"`
	ExternalID       string    `json:"external_id"`
	Name             string    `json:"name,omitempty"`
	HumanIntervening bool      `json:"human_intervening"`
	LastMessage      string    `json:"last_message,omitempty"`
	LastUpdated      time.Time `json:"last_updated"`
}

// ConversationState is the transient record of an active multi-step flow for
// one sender. Absence of a state record means no flow is active.
type ConversationState struct {
	ContactID string            `json:"contact_id"`
	Flow      string            `json:"flow"`
	Step      string            `json:"step"`
	Data      map[string]string `json:"data,omitempty"` // step payload, e.g. selected product
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// FlowDefinition is an immutable catalog entry for a pluggable flow. Keys are
// dense integers starting at 1, assigned in manifest order.
type FlowDefinition struct {
	Key     int    `json:"key"`
	Label   string `json:"label"`
	Handler string `json:"handler"` // handler factory name resolved at load time
}
