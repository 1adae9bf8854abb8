// Package flow provides the pluggable conversation flows for BotEngine.
//
// A flow is a stateful multi-step dialog tracked per sender. Every flow,
// regardless of internal complexity, implements the single Handler
// capability; the registry and dispatcher never inspect a handler's
// internals.
package flow

import (
	"context"

	"github.com/BTreeMap/BotEngine/internal/models"
)

// Replier is the outbound reply surface handed to flows. Implementations
// record the reply in the conversation store and transmit it through the
// configured channel.
type Replier interface {
	// ReplyText sends a plain text reply to the contact.
	ReplyText(ctx context.Context, to, body string) error
	// ReplyInteractive sends a structured reply (e.g. a URL button).
	ReplyInteractive(ctx context.Context, to string, payload models.InteractivePayload) error
}

// Handler is the single capability a flow implements. Entry into a flow is a
// Handle call with empty input and no active state; the handler seeds its own
// state. Subsequent calls carry the sender's input for the current step.
type Handler interface {
	Handle(ctx context.Context, senderID, input string, reply Replier) error
}

// Factory constructs a Handler instance. Factories close over whatever
// dependencies the flow needs (typically the state manager).
type Factory func() Handler

// DefaultFactories returns the compile-time table of flow handler factories
// available to the registry manifest.
func DefaultFactories(states *StateManager) map[string]Factory {
	return map[string]Factory{
		"shop": func() Handler { return NewShopFlow(states) },
	}
}
