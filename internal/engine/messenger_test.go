package engine

import (
	"context"
	"testing"

	"github.com/BTreeMap/BotEngine/internal/models"
)

func messengerEntry(events ...models.MessagingEvent) []models.WebhookEntry {
	return []models.WebhookEntry{{Messaging: events}}
}

func TestMessengerReceiptOnlyBatchIsNoOp(t *testing.T) {
	eng, st, sender := newTestEngine(t)
	ctx := context.Background()

	entries := messengerEntry(models.MessagingEvent{
		Sender:   models.MessagingParty{ID: "psid-1"},
		Delivery: map[string]any{"watermark": 1},
	})
	eng.ProcessMessengerEvents(ctx, entries)

	if msgs, _ := st.GetMessages("psid-1"); len(msgs) != 0 {
		t.Errorf("delivery receipt must not be persisted, got %d messages", len(msgs))
	}
	if len(sender.texts) != 0 {
		t.Errorf("delivery receipt must not trigger a reply, got %v", sender.texts)
	}
}

func TestMessengerQualifyingEventProcessed(t *testing.T) {
	eng, st, sender := newTestEngine(t)
	ctx := context.Background()

	entries := messengerEntry(
		models.MessagingEvent{
			Sender:   models.MessagingParty{ID: "psid-1"},
			Delivery: map[string]any{"watermark": 1},
		},
		models.MessagingEvent{
			Sender:  models.MessagingParty{ID: "psid-1"},
			Message: &models.MessagingText{MID: "mid.1", Text: "hello"},
		},
	)
	eng.ProcessMessengerEvents(ctx, entries)

	if got := countBySender(t, st, "psid-1", models.SenderClient); got != 1 {
		t.Errorf("qualifying event should be persisted once, got %d", got)
	}
	if got := countBySender(t, st, "psid-1", models.SenderBot); got != 1 {
		t.Errorf("qualifying event should get one reply, got %d", got)
	}
	if len(sender.texts) != 1 {
		t.Errorf("expected one transmission, got %d", len(sender.texts))
	}
}

func TestMessengerDuplicateMIDProcessedOnce(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	ctx := context.Background()

	entries := messengerEntry(models.MessagingEvent{
		Sender:  models.MessagingParty{ID: "psid-1"},
		Message: &models.MessagingText{MID: "mid.dup", Text: "hello"},
	})
	eng.ProcessMessengerEvents(ctx, entries)
	eng.ProcessMessengerEvents(ctx, entries)

	if got := countBySender(t, st, "psid-1", models.SenderClient); got != 1 {
		t.Errorf("redelivered batch must be deduplicated, got %d client messages", got)
	}
}

func TestMessengerMissingSenderSkipped(t *testing.T) {
	eng, _, sender := newTestEngine(t)
	ctx := context.Background()

	entries := messengerEntry(models.MessagingEvent{
		Message: &models.MessagingText{MID: "mid.1", Text: "hello"},
	})
	eng.ProcessMessengerEvents(ctx, entries)
	if len(sender.texts) != 0 {
		t.Errorf("event without sender must be dropped, got %v", sender.texts)
	}
}
