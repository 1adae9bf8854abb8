package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/BTreeMap/BotEngine/internal/models"
	"github.com/BTreeMap/BotEngine/internal/store"
)

// stubSender captures manual sends without a provider.
type stubSender struct {
	err   error
	to    string
	texts []string
}

func (s *stubSender) SendText(ctx context.Context, to, body string) error {
	s.to = to
	s.texts = append(s.texts, body)
	return s.err
}

func (s *stubSender) SendInteractive(ctx context.Context, to string, p models.InteractivePayload) error {
	return s.err
}

func TestSendManualRecordsHumanRole(t *testing.T) {
	st := store.NewInMemoryStore()
	sender := &stubSender{}

	if err := sendManual(st, sender, "+123", "the courier is on the way"); err != nil {
		t.Fatalf("sendManual failed: %v", err)
	}

	msgs, err := st.GetMessages("+123")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one recorded message, got %d", len(msgs))
	}
	if msgs[0].Sender != models.SenderHuman {
		t.Errorf("manual send must be recorded with the human role, got %q", msgs[0].Sender)
	}
	if msgs[0].Content != "the courier is on the way" {
		t.Errorf("unexpected content %q", msgs[0].Content)
	}
	if sender.to != "+123" || len(sender.texts) != 1 {
		t.Errorf("message not transmitted: to=%q sends=%d", sender.to, len(sender.texts))
	}
}

func TestSendManualSurfacesSendFailure(t *testing.T) {
	st := store.NewInMemoryStore()
	sender := &stubSender{err: errors.New("provider down")}

	if err := sendManual(st, sender, "+123", "hello"); err == nil {
		t.Error("operator sends are not fire-and-forget; delivery failure must surface")
	}

	// The human message stays recorded: the operator decided to say it.
	msgs, _ := st.GetMessages("+123")
	if len(msgs) != 1 || msgs[0].Sender != models.SenderHuman {
		t.Errorf("failed transmit should still leave the human record, got %+v", msgs)
	}
}

func TestOpenStoreDefaultsToSQLite(t *testing.T) {
	dir := t.TempDir()
	st, err := openStore("", dir)
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	defer st.Close()

	if _, ok := st.(*store.SQLiteStore); !ok {
		t.Errorf("empty DSN should open the SQLite store in the state dir, got %T", st)
	}
	if err := st.AddMessage("+123", models.SenderHuman, models.MessageTypeText, "hi"); err != nil {
		t.Errorf("default store should be usable: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "botengine.db")); err != nil {
		t.Errorf("database file should live in the state dir: %v", err)
	}
}
