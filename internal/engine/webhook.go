// Package engine implements webhook payload decomposition.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/BTreeMap/BotEngine/internal/models"
)

// ProcessWebhook parses a raw webhook delivery body and routes its contents.
// Malformed payloads and empty message lists are skipped without error;
// remaining messages in a batch are still processed.
func (e *Engine) ProcessWebhook(ctx context.Context, body []byte) {
	var payload models.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.Warn("Engine ignoring malformed webhook payload", "error", err)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			names := profileNames(change.Value.Contacts)
			for _, msg := range change.Value.Messages {
				e.ProcessMessage(ctx, msg, names[msg.From])
			}
		}
	}

	// Batched-event channel entries share the same envelope.
	e.ProcessMessengerEvents(ctx, payload.Entry)
}

// profileNames indexes the optional contact profiles by platform id.
func profileNames(contacts []models.InboundContact) map[string]string {
	if len(contacts) == 0 {
		return nil
	}
	names := make(map[string]string, len(contacts))
	for _, c := range contacts {
		if c.WaID != "" && c.Profile.Name != "" {
			names[c.WaID] = c.Profile.Name
		}
	}
	return names
}
