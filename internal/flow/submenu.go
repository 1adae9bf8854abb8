// Package flow provides the built-in submenu flow over the registry catalog.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BTreeMap/BotEngine/internal/models"
)

// Flow and step identifiers for the submenu flow.
const (
	FlowSubmenu = "submenu"

	StepChooseDemo = "choose_demo"
)

// SubmenuFlow lists the registry catalog and dispatches the selected flow.
// It is built in rather than declared in the manifest, since it is the entry
// point into the catalog itself.
type SubmenuFlow struct {
	states   *StateManager
	registry *Registry
}

// Compile-time check that SubmenuFlow implements Handler.
var _ Handler = (*SubmenuFlow)(nil)

// NewSubmenuFlow creates a SubmenuFlow over the state manager and registry.
func NewSubmenuFlow(states *StateManager, registry *Registry) *SubmenuFlow {
	return &SubmenuFlow{states: states, registry: registry}
}

// Handle enters the submenu (empty input, no active state) or resolves the
// sender's selection against the catalog.
func (f *SubmenuFlow) Handle(ctx context.Context, senderID, input string, reply Replier) error {
	st, ok := f.states.Get(senderID)
	if !ok || st.Flow != FlowSubmenu {
		return f.enter(ctx, senderID, reply)
	}

	key, err := strconv.Atoi(input)
	if err != nil {
		return reply.ReplyText(ctx, senderID, "Invalid option. Please pick a number from the submenu.")
	}
	handler, def, found := f.registry.Resolve(key)
	if !found {
		return reply.ReplyText(ctx, senderID, "Invalid option. Please pick a number from the submenu.")
	}

	// Hand the conversation over to the selected flow. Clearing first lets
	// the flow seed its own state from a clean slate.
	f.states.Clear(senderID)
	slog.Info("SubmenuFlow dispatching selection", "senderID", senderID, "key", key, "label", def.Label)
	return handler.Handle(ctx, senderID, "", reply)
}

func (f *SubmenuFlow) enter(ctx context.Context, senderID string, reply Replier) error {
	f.states.Set(senderID, models.ConversationState{
		Flow: FlowSubmenu,
		Step: StepChooseDemo,
	})

	var b strings.Builder
	b.WriteString("🤖 *Bot demo submenu*\n\n")
	b.WriteString("Please choose one of the following demos:\n\n")
	for _, def := range f.registry.Catalog() {
		fmt.Fprintf(&b, "%d️⃣ %s\n", def.Key, def.Label)
	}
	b.WriteString("\n👉 Reply with the number of the option you want to explore.")

	slog.Info("SubmenuFlow entered", "senderID", senderID)
	return reply.ReplyText(ctx, senderID, b.String())
}
