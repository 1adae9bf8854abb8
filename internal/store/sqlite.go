// Package store provides storage backends for BotEngine.
//
// This file implements the SQLite-backed conversation record store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/BTreeMap/BotEngine/internal/models"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is a Store backed by a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied")

	return &SQLiteStore{db: db}, nil
}

// ensureContact creates the contact and conversation rows if absent and
// returns the contact id.
func (s *SQLiteStore) ensureContact(externalID string) (int64, error) {
	if externalID == "" {
		return 0, models.ErrEmptyContactID
	}
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO contacts (external_id) VALUES (?)`, externalID); err != nil {
		return 0, fmt.Errorf("failed to ensure contact %s: %w", externalID, err)
	}
	var contactID int64
	if err := s.db.QueryRow(`SELECT id FROM contacts WHERE external_id = ?`, externalID).Scan(&contactID); err != nil {
		return 0, fmt.Errorf("failed to look up contact %s: %w", externalID, err)
	}
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO conversations (contact_id) VALUES (?)`, contactID); err != nil {
		return 0, fmt.Errorf("failed to ensure conversation for %s: %w", externalID, err)
	}
	return contactID, nil
}

// AddMessage appends a message, creating contact and conversation rows on
// first contact.
func (s *SQLiteStore) AddMessage(externalID string, sender models.MessageSender, msgType models.MessageType, content string) error {
	if !models.IsValidSender(sender) {
		return models.ErrInvalidSender
	}
	contactID, err := s.ensureContact(externalID)
	if err != nil {
		slog.Error("SQLiteStore AddMessage ensure failed", "error", err, "externalID", externalID)
		return err
	}
	now := time.Now()
	_, err = s.db.Exec(
		`INSERT INTO messages (id, contact_id, sender, message_type, content, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), contactID, string(sender), string(msgType), content, now,
	)
	if err != nil {
		slog.Error("SQLiteStore AddMessage insert failed", "error", err, "externalID", externalID)
		return fmt.Errorf("failed to insert message for %s: %w", externalID, err)
	}
	if _, err := s.db.Exec(`UPDATE conversations SET last_updated = ? WHERE contact_id = ?`, now, contactID); err != nil {
		slog.Error("SQLiteStore AddMessage touch failed", "error", err, "externalID", externalID)
	}
	slog.Debug("SQLiteStore AddMessage succeeded", "externalID", externalID, "sender", sender)
	return nil
}

// GetMessages returns the message history for a contact in timestamp order.
func (s *SQLiteStore) GetMessages(externalID string) ([]models.Message, error) {
	rows, err := s.db.Query(
		`SELECT m.id, m.contact_id, m.sender, m.message_type, m.content, m.timestamp
		 FROM messages m JOIN contacts c ON m.contact_id = c.id
		 WHERE c.external_id = ? ORDER BY m.timestamp ASC`, externalID)
	if err != nil {
		slog.Error("SQLiteStore GetMessages query failed", "error", err, "externalID", externalID)
		return nil, fmt.Errorf("failed to query messages for %s: %w", externalID, err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ContactID, &m.Sender, &m.Type, &m.Content, &m.Timestamp); err != nil {
			slog.Error("SQLiteStore GetMessages scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	slog.Debug("SQLiteStore GetMessages succeeded", "externalID", externalID, "count", len(messages))
	return messages, nil
}

// UpdateContactName sets the contact display name if not already set.
func (s *SQLiteStore) UpdateContactName(externalID, name string) error {
	if name == "" {
		return nil
	}
	if _, err := s.ensureContact(externalID); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`UPDATE contacts SET name = ? WHERE external_id = ? AND (name IS NULL OR name = '')`,
		name, externalID,
	)
	if err != nil {
		slog.Error("SQLiteStore UpdateContactName failed", "error", err, "externalID", externalID)
		return fmt.Errorf("failed to update contact name for %s: %w", externalID, err)
	}
	return nil
}

// IsIntervening reports whether a human operator has taken over the
// conversation, creating the underlying records if absent.
func (s *SQLiteStore) IsIntervening(externalID string) (bool, error) {
	contactID, err := s.ensureContact(externalID)
	if err != nil {
		slog.Error("SQLiteStore IsIntervening ensure failed", "error", err, "externalID", externalID)
		return false, err
	}
	var intervening bool
	err = s.db.QueryRow(`SELECT is_human_intervening FROM conversations WHERE contact_id = ?`, contactID).Scan(&intervening)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		slog.Error("SQLiteStore IsIntervening query failed", "error", err, "externalID", externalID)
		return false, fmt.Errorf("failed to query intervention flag for %s: %w", externalID, err)
	}
	return intervening, nil
}

// SetIntervening toggles the human-intervention flag.
func (s *SQLiteStore) SetIntervening(externalID string, intervening bool) error {
	contactID, err := s.ensureContact(externalID)
	if err != nil {
		slog.Error("SQLiteStore SetIntervening ensure failed", "error", err, "externalID", externalID)
		return err
	}
	_, err = s.db.Exec(
		`UPDATE conversations SET is_human_intervening = ?, last_updated = ? WHERE contact_id = ?`,
		intervening, time.Now(), contactID,
	)
	if err != nil {
		slog.Error("SQLiteStore SetIntervening failed", "error", err, "externalID", externalID)
		return fmt.Errorf("failed to set intervention flag for %s: %w", externalID, err)
	}
	slog.Info("SQLiteStore intervention flag updated", "externalID", externalID, "intervening", intervening)
	return nil
}

// ListConversations returns summaries of all conversations, most recently
// updated first.
func (s *SQLiteStore) ListConversations() ([]models.ConversationSummary, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.external_id, COALESCE(c.name, ''), conv.is_human_intervening, conv.last_updated,
		        COALESCE((SELECT content FROM messages WHERE contact_id = c.id ORDER BY timestamp DESC LIMIT 1), '')
		 FROM contacts c JOIN conversations conv ON conv.contact_id = c.id
		 ORDER BY conv.last_updated DESC`)
	if err != nil {
		slog.Error("SQLiteStore ListConversations query failed", "error", err)
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var summaries []models.ConversationSummary
	for rows.Next() {
		var cs models.ConversationSummary
		if err := rows.Scan(&cs.ContactID, &cs.ExternalID, &cs.Name, &cs.HumanIntervening, &cs.LastUpdated, &cs.LastMessage); err != nil {
			slog.Error("SQLiteStore ListConversations scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		summaries = append(summaries, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation rows: %w", err)
	}
	return summaries, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}
