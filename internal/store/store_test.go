package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/BTreeMap/BotEngine/internal/models"
)

// runStoreSuite exercises the Store contract shared by all backends.
func runStoreSuite(t *testing.T, s Store) {
	t.Helper()

	// Unknown contacts are harmless: no history, no intervention.
	msgs, err := s.GetMessages("+nobody")
	if err != nil {
		t.Fatalf("GetMessages for unknown contact failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("unknown contact should have no history, got %d", len(msgs))
	}
	intervening, err := s.IsIntervening("+nobody")
	if err != nil {
		t.Fatalf("IsIntervening for unknown contact failed: %v", err)
	}
	if intervening {
		t.Error("unknown contact should default to no intervention")
	}

	// First message lazily creates contact and conversation.
	if err := s.AddMessage("+123", models.SenderClient, models.MessageTypeText, "hello"); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	if err := s.AddMessage("+123", models.SenderBot, models.MessageTypeText, "welcome"); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	msgs, err = s.GetMessages("+123")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Sender != models.SenderClient || msgs[1].Sender != models.SenderBot {
		t.Errorf("history must preserve order, got %v then %v", msgs[0].Sender, msgs[1].Sender)
	}
	if msgs[0].ID == "" || msgs[0].ID == msgs[1].ID {
		t.Error("messages must carry distinct non-empty ids")
	}

	// Invalid sender roles are rejected.
	if err := s.AddMessage("+123", "martian", models.MessageTypeText, "hi"); err != models.ErrInvalidSender {
		t.Errorf("invalid sender should fail with ErrInvalidSender, got %v", err)
	}
	if err := s.AddMessage("", models.SenderClient, models.MessageTypeText, "hi"); err != models.ErrEmptyContactID {
		t.Errorf("empty contact id should fail with ErrEmptyContactID, got %v", err)
	}

	// Name updates: first write sticks, empty and later writes are no-ops.
	if err := s.UpdateContactName("+123", ""); err != nil {
		t.Fatalf("empty name update failed: %v", err)
	}
	if err := s.UpdateContactName("+123", "Ada"); err != nil {
		t.Fatalf("UpdateContactName failed: %v", err)
	}
	if err := s.UpdateContactName("+123", "Someone Else"); err != nil {
		t.Fatalf("UpdateContactName failed: %v", err)
	}

	// Intervention flag round-trip.
	if err := s.SetIntervening("+123", true); err != nil {
		t.Fatalf("SetIntervening failed: %v", err)
	}
	intervening, err = s.IsIntervening("+123")
	if err != nil {
		t.Fatalf("IsIntervening failed: %v", err)
	}
	if !intervening {
		t.Error("intervention flag should be set")
	}
	if err := s.SetIntervening("+123", false); err != nil {
		t.Fatalf("SetIntervening failed: %v", err)
	}
	intervening, _ = s.IsIntervening("+123")
	if intervening {
		t.Error("intervention flag should be cleared")
	}

	// A second contact updated later sorts first in the summary list.
	time.Sleep(5 * time.Millisecond)
	if err := s.AddMessage("+456", models.SenderClient, models.MessageTypeText, "newer"); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	convs, err := s.ListConversations()
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	// +nobody was created lazily by the intervention check above.
	if len(convs) != 3 {
		t.Fatalf("expected 3 conversations, got %d", len(convs))
	}
	if convs[0].ExternalID != "+456" {
		t.Errorf("most recently updated conversation should sort first, got %q", convs[0].ExternalID)
	}
	for _, c := range convs {
		if c.ExternalID == "+123" {
			if c.Name != "Ada" {
				t.Errorf("first name should stick, got %q", c.Name)
			}
			if c.LastMessage != "welcome" {
				t.Errorf("summary should carry the last message, got %q", c.LastMessage)
			}
			if c.HumanIntervening {
				t.Error("intervention flag should be cleared in the summary")
			}
		}
	}
}

func TestInMemoryStore(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()
	runStoreSuite(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(WithDSN(filepath.Join(t.TempDir(), "botengine.db")))
	if err != nil {
		t.Fatalf("failed to open SQLite store: %v", err)
	}
	defer s.Close()
	runStoreSuite(t, s)
}

func TestSQLiteStoreRequiresDSN(t *testing.T) {
	if _, err := NewSQLiteStore(); err == nil {
		t.Error("missing DSN should fail")
	}
}
