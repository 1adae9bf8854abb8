// Package engine implements the dispatcher rule chain.
package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/BTreeMap/BotEngine/internal/flow"
	"github.com/BTreeMap/BotEngine/internal/models"
)

// ProcessMessage handles one inbound message from a per-message channel:
// dedup, persistence, intervention gate, then the rule chain. It never
// returns an error to the webhook layer; the worst case for malformed input
// is the fallback reply.
func (e *Engine) ProcessMessage(ctx context.Context, msg models.InboundMessage, profileName string) {
	if msg.From == "" {
		slog.Warn("Dispatcher skipping message without sender", "messageID", msg.ID)
		return
	}
	var body string
	if msg.Text != nil {
		body = msg.Text.Body
	}

	if e.filter.CheckAndMark(msg.ID) {
		return
	}

	if profileName != "" {
		if err := e.store.UpdateContactName(msg.From, profileName); err != nil {
			slog.Error("Dispatcher failed to update contact name", "error", err, "from", msg.From)
		}
	}

	e.processText(ctx, msg.From, body)
}

// processText runs the shared pipeline for one (sender, text) pair. The
// per-contact lock is held for the whole cycle, so flow state reads and
// writes for a contact never interleave across concurrent deliveries.
func (e *Engine) processText(ctx context.Context, senderID, body string) {
	mu := e.contactLock(senderID)
	mu.Lock()
	defer mu.Unlock()

	// Persistence is best-effort relative to the reply path: the user should
	// still get a reply even if history is unavailable.
	if err := e.store.AddMessage(senderID, models.SenderClient, models.MessageTypeText, body); err != nil {
		slog.Error("Dispatcher failed to persist inbound message", "error", err, "from", senderID)
	}

	intervening, err := e.store.IsIntervening(senderID)
	if err != nil {
		slog.Error("Dispatcher intervention check failed", "error", err, "from", senderID)
	}
	if intervening {
		slog.Info("Human is intervening, suppressing automated reply", "from", senderID)
		return
	}

	e.dispatch(ctx, senderID, body)
}

// dispatch evaluates the routing rules in strict priority order; first match
// wins.
func (e *Engine) dispatch(ctx context.Context, senderID, raw string) {
	text := strings.ToLower(strings.TrimSpace(raw))

	// 1. Reload keyword.
	if text == "/reload" {
		if err := e.registry.Load(); err != nil {
			slog.Error("Dispatcher catalog reload failed", "error", err)
			e.reply(ctx, senderID, "⚠️ Reload failed, keeping the previous flows.")
			return
		}
		e.reply(ctx, senderID, "✅ Submenu flows reloaded.")
		return
	}

	// 2. Active flow delegation.
	if st, ok := e.states.Get(senderID); ok {
		if handler, found := e.flowHandler(st.Flow); found {
			if err := handler.Handle(ctx, senderID, text, e.outbound); err != nil {
				slog.Error("Dispatcher flow handler error", "error", err, "flow", st.Flow, "from", senderID)
			}
			return
		}
		// The active flow vanished (e.g. removed by a reload): drop the
		// stale state and fall through to the keyword rules.
		slog.Warn("Dispatcher clearing state for unknown flow", "flow", st.Flow, "from", senderID)
		e.states.Clear(senderID)
	}

	// 3. Greeting keywords.
	switch text {
	case "/start", "hello", "hi":
		e.states.Clear(senderID)
		e.reply(ctx, senderID, flow.WelcomeMessage())
		return
	}

	// 4. Menu keywords.
	switch text {
	case "menu", "options":
		e.states.Clear(senderID)
		e.reply(ctx, senderID, flow.MenuMessage())
		return
	case "list":
		e.states.Clear(senderID)
		e.reply(ctx, senderID, flow.ListMenuMessage())
		return
	}

	// 5. Built-in channel-info shortcuts, no state transition.
	if info, ok := flow.ChannelInfo(text); ok {
		e.reply(ctx, senderID, info)
		return
	}

	// 6. Submenu flow entry.
	if text == "4" || text == "demo" {
		if err := e.submenu.Handle(ctx, senderID, "", e.outbound); err != nil {
			slog.Error("Dispatcher submenu entry error", "error", err, "from", senderID)
		}
		return
	}

	// 7. Canned response lookup, else fallback.
	e.reply(ctx, senderID, flow.CannedResponse(text))
}

// flowHandler resolves the handler for an active flow name.
func (e *Engine) flowHandler(name string) (flow.Handler, bool) {
	if name == flow.FlowSubmenu {
		return e.submenu, true
	}
	return e.registry.HandlerByName(name)
}

// reply sends a text reply through the outbound service. Delivery errors are
// already absorbed there; this guards against programming errors only.
func (e *Engine) reply(ctx context.Context, to, body string) {
	if err := e.outbound.ReplyText(ctx, to, body); err != nil {
		slog.Error("Dispatcher reply failed", "error", err, "to", to)
	}
}
