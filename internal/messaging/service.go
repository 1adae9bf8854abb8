// Package messaging provides the outbound delivery abstraction for BotEngine.
//
// A Sender transmits replies through a concrete provider API; the Outbound
// service wraps a Sender with conversation-store bookkeeping and the
// fire-and-forget error policy the webhook handler relies on.
package messaging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BTreeMap/BotEngine/internal/models"
	"github.com/BTreeMap/BotEngine/internal/store"
)

// DefaultSendTimeout bounds each outbound provider call. The inbound webhook
// handler must ack quickly regardless of outbound outcome, so this stays in
// the low seconds.
const DefaultSendTimeout = 3 * time.Second

// ErrMissingConfig indicates a sender was constructed without its required
// credentials.
var ErrMissingConfig = errors.New("messaging: missing sender configuration")

// Sender transmits a reply through a provider API.
type Sender interface {
	// SendText sends a plain text message.
	SendText(ctx context.Context, to, body string) error
	// SendInteractive sends a structured payload (URL button). Providers
	// without interactive support degrade to text.
	SendInteractive(ctx context.Context, to string, payload models.InteractivePayload) error
}

// Outbound records replies in the conversation store and transmits them.
// Delivery is fire-and-forget: provider failures are logged, never retried,
// and never surfaced to the dispatcher.
type Outbound struct {
	sender  Sender
	store   store.Store
	timeout time.Duration
}

// NewOutbound creates an Outbound service. A non-positive timeout falls back
// to DefaultSendTimeout.
func NewOutbound(sender Sender, st store.Store, timeout time.Duration) *Outbound {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Outbound{sender: sender, store: st, timeout: timeout}
}

// ReplyText records and transmits a plain text reply.
func (o *Outbound) ReplyText(ctx context.Context, to, body string) error {
	o.record(to, models.MessageTypeText, body)

	sendCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err := o.sender.SendText(sendCtx, to, body); err != nil {
		slog.Error("Outbound text send failed", "error", err, "to", to)
		return nil
	}
	slog.Debug("Outbound text sent", "to", to, "body_length", len(body))
	return nil
}

// ReplyInteractive records and transmits a structured reply.
func (o *Outbound) ReplyInteractive(ctx context.Context, to string, payload models.InteractivePayload) error {
	o.record(to, models.MessageTypeInteractive, payload.Body)

	sendCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err := o.sender.SendInteractive(sendCtx, to, payload); err != nil {
		slog.Error("Outbound interactive send failed", "error", err, "to", to)
		return nil
	}
	slog.Debug("Outbound interactive sent", "to", to)
	return nil
}

// record appends the bot-role message to the store. Persistence is
// best-effort relative to the reply path: a storage failure is logged and
// the send still goes out.
func (o *Outbound) record(to string, msgType models.MessageType, content string) {
	if err := o.store.AddMessage(to, models.SenderBot, msgType, content); err != nil {
		slog.Error("Outbound failed to record reply", "error", err, "to", to)
	}
}
