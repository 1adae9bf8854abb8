// Package store provides storage backends for BotEngine.
//
// It persists the durable conversation relations (contacts, conversations,
// messages) together with the human-intervention flag, backed by SQLite
// (default), PostgreSQL, or an in-memory implementation for tests.
package store

import (
	"github.com/BTreeMap/BotEngine/internal/models"
)

// Store defines the conversation record store consumed by the dispatcher and
// the operator tool. Contact and Conversation rows are created lazily on
// first access, so callers never need a separate registration step.
type Store interface {
	// AddMessage appends a message to the contact's log, creating the
	// Contact and Conversation records if they do not exist yet.
	AddMessage(externalID string, sender models.MessageSender, msgType models.MessageType, content string) error

	// GetMessages returns the full message history for a contact in
	// timestamp order. Unknown contacts yield an empty slice.
	GetMessages(externalID string) ([]models.Message, error)

	// UpdateContactName sets the display name of a contact. Empty names are
	// ignored and an existing name is never overwritten.
	UpdateContactName(externalID, name string) error

	// IsIntervening reports whether a human operator has taken over the
	// conversation. It creates the underlying records if absent, so the
	// check never fails for an unknown contact (it returns false).
	IsIntervening(externalID string) (bool, error)

	// SetIntervening toggles the human-intervention flag, creating the
	// underlying records if absent.
	SetIntervening(externalID string, intervening bool) error

	// ListConversations returns operator-facing summaries of all
	// conversations, most recently updated first.
	ListConversations() ([]models.ConversationSummary, error)

	// Close releases the underlying resources.
	Close() error
}

// Opts holds configuration options for store implementations.
type Opts struct {
	DSN string
}

// Option defines a functional option for configuring a store.
type Option func(*Opts)

// WithDSN sets the database DSN (file path for SQLite, connection string for
// PostgreSQL).
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}
