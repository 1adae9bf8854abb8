// Package store provides storage backends for BotEngine.
//
// This file implements the PostgreSQL-backed conversation record store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/BTreeMap/BotEngine/internal/models"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is a Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgreSQL store with the given options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) ensureContact(externalID string) (int64, error) {
	if externalID == "" {
		return 0, models.ErrEmptyContactID
	}
	if _, err := s.db.Exec(`INSERT INTO contacts (external_id) VALUES ($1) ON CONFLICT (external_id) DO NOTHING`, externalID); err != nil {
		return 0, fmt.Errorf("failed to ensure contact %s: %w", externalID, err)
	}
	var contactID int64
	if err := s.db.QueryRow(`SELECT id FROM contacts WHERE external_id = $1`, externalID).Scan(&contactID); err != nil {
		return 0, fmt.Errorf("failed to look up contact %s: %w", externalID, err)
	}
	if _, err := s.db.Exec(`INSERT INTO conversations (contact_id) VALUES ($1) ON CONFLICT (contact_id) DO NOTHING`, contactID); err != nil {
		return 0, fmt.Errorf("failed to ensure conversation for %s: %w", externalID, err)
	}
	return contactID, nil
}

// AddMessage appends a message, creating contact and conversation rows on
// first contact.
func (s *PostgresStore) AddMessage(externalID string, sender models.MessageSender, msgType models.MessageType, content string) error {
	if !models.IsValidSender(sender) {
		return models.ErrInvalidSender
	}
	contactID, err := s.ensureContact(externalID)
	if err != nil {
		slog.Error("PostgresStore AddMessage ensure failed", "error", err, "externalID", externalID)
		return err
	}
	now := time.Now()
	_, err = s.db.Exec(
		`INSERT INTO messages (id, contact_id, sender, message_type, content, timestamp) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), contactID, string(sender), string(msgType), content, now,
	)
	if err != nil {
		slog.Error("PostgresStore AddMessage insert failed", "error", err, "externalID", externalID)
		return fmt.Errorf("failed to insert message for %s: %w", externalID, err)
	}
	if _, err := s.db.Exec(`UPDATE conversations SET last_updated = $1 WHERE contact_id = $2`, now, contactID); err != nil {
		slog.Error("PostgresStore AddMessage touch failed", "error", err, "externalID", externalID)
	}
	slog.Debug("PostgresStore AddMessage succeeded", "externalID", externalID, "sender", sender)
	return nil
}

// GetMessages returns the message history for a contact in timestamp order.
func (s *PostgresStore) GetMessages(externalID string) ([]models.Message, error) {
	rows, err := s.db.Query(
		`SELECT m.id, m.contact_id, m.sender, m.message_type, m.content, m.timestamp
		 FROM messages m JOIN contacts c ON m.contact_id = c.id
		 WHERE c.external_id = $1 ORDER BY m.timestamp ASC`, externalID)
	if err != nil {
		slog.Error("PostgresStore GetMessages query failed", "error", err, "externalID", externalID)
		return nil, fmt.Errorf("failed to query messages for %s: %w", externalID, err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ContactID, &m.Sender, &m.Type, &m.Content, &m.Timestamp); err != nil {
			slog.Error("PostgresStore GetMessages scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return messages, nil
}

// UpdateContactName sets the contact display name if not already set.
func (s *PostgresStore) UpdateContactName(externalID, name string) error {
	if name == "" {
		return nil
	}
	if _, err := s.ensureContact(externalID); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`UPDATE contacts SET name = $1 WHERE external_id = $2 AND (name IS NULL OR name = '')`,
		name, externalID,
	)
	if err != nil {
		slog.Error("PostgresStore UpdateContactName failed", "error", err, "externalID", externalID)
		return fmt.Errorf("failed to update contact name for %s: %w", externalID, err)
	}
	return nil
}

// IsIntervening reports whether a human operator has taken over the
// conversation, creating the underlying records if absent.
func (s *PostgresStore) IsIntervening(externalID string) (bool, error) {
	contactID, err := s.ensureContact(externalID)
	if err != nil {
		slog.Error("PostgresStore IsIntervening ensure failed", "error", err, "externalID", externalID)
		return false, err
	}
	var intervening bool
	err = s.db.QueryRow(`SELECT is_human_intervening FROM conversations WHERE contact_id = $1`, contactID).Scan(&intervening)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		slog.Error("PostgresStore IsIntervening query failed", "error", err, "externalID", externalID)
		return false, fmt.Errorf("failed to query intervention flag for %s: %w", externalID, err)
	}
	return intervening, nil
}

// SetIntervening toggles the human-intervention flag.
func (s *PostgresStore) SetIntervening(externalID string, intervening bool) error {
	contactID, err := s.ensureContact(externalID)
	if err != nil {
		slog.Error("PostgresStore SetIntervening ensure failed", "error", err, "externalID", externalID)
		return err
	}
	_, err = s.db.Exec(
		`UPDATE conversations SET is_human_intervening = $1, last_updated = $2 WHERE contact_id = $3`,
		intervening, time.Now(), contactID,
	)
	if err != nil {
		slog.Error("PostgresStore SetIntervening failed", "error", err, "externalID", externalID)
		return fmt.Errorf("failed to set intervention flag for %s: %w", externalID, err)
	}
	slog.Info("PostgresStore intervention flag updated", "externalID", externalID, "intervening", intervening)
	return nil
}

// ListConversations returns summaries of all conversations, most recently
// updated first.
func (s *PostgresStore) ListConversations() ([]models.ConversationSummary, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.external_id, COALESCE(c.name, ''), conv.is_human_intervening, conv.last_updated,
		        COALESCE((SELECT content FROM messages WHERE contact_id = c.id ORDER BY timestamp DESC LIMIT 1), '')
		 FROM contacts c JOIN conversations conv ON conv.contact_id = c.id
		 ORDER BY conv.last_updated DESC`)
	if err != nil {
		slog.Error("PostgresStore ListConversations query failed", "error", err)
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var summaries []models.ConversationSummary
	for rows.Next() {
		var cs models.ConversationSummary
		if err := rows.Scan(&cs.ContactID, &cs.ExternalID, &cs.Name, &cs.HumanIntervening, &cs.LastUpdated, &cs.LastMessage); err != nil {
			slog.Error("PostgresStore ListConversations scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		summaries = append(summaries, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation rows: %w", err)
	}
	return summaries, nil
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
