// Package engine implements the batched-events channel adapter.
package engine

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/BotEngine/internal/models"
)

// ProcessMessengerEvents decomposes a batched-event delivery
// (entry[].messaging[]) into individual sender+message pairs and feeds each
// through the same gate and reply pipeline as other channels. Sub-events
// without a message body (delivery receipts, echoes) are skipped; a batch
// with zero qualifying sub-events is a no-op.
func (e *Engine) ProcessMessengerEvents(ctx context.Context, entries []models.WebhookEntry) {
	for _, entry := range entries {
		for _, event := range entry.Messaging {
			senderID := event.Sender.ID
			if event.Message == nil {
				slog.Debug("Messenger adapter skipping event without message", "from", senderID)
				continue
			}
			if senderID == "" {
				slog.Warn("Messenger adapter skipping message without sender")
				continue
			}
			if e.filter.CheckAndMark(event.Message.MID) {
				continue
			}
			slog.Debug("Messenger adapter processing message", "from", senderID)
			e.processText(ctx, senderID, event.Message.Text)
		}
	}
}
