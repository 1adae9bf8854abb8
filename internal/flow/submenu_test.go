package flow

import (
	"context"
	"strings"
	"testing"
)

func newTestSubmenu(t *testing.T) (*SubmenuFlow, *StateManager) {
	t.Helper()
	path := writeManifest(t, `
[[flow]]
label = "Shop checkout demo"
handler = "shop"
`)
	states := NewStateManager()
	registry := NewRegistry(path, DefaultFactories(states))
	if err := registry.Load(); err != nil {
		t.Fatalf("failed to load flow catalog: %v", err)
	}
	return NewSubmenuFlow(states, registry), states
}

func TestSubmenuEntryListsCatalog(t *testing.T) {
	submenu, states := newTestSubmenu(t)
	reply := &testReplier{}

	if err := submenu.Handle(context.Background(), "+123", "", reply); err != nil {
		t.Fatalf("unexpected error on entry: %v", err)
	}

	st, ok := states.Get("+123")
	if !ok || st.Flow != FlowSubmenu || st.Step != StepChooseDemo {
		t.Fatalf("entry should set choose_demo state, got %+v (active=%v)", st, ok)
	}
	if !strings.Contains(reply.last(t), "1️⃣ Shop checkout demo") {
		t.Errorf("entry should list the catalog:\n%s", reply.last(t))
	}
}

func TestSubmenuInvalidSelection(t *testing.T) {
	submenu, states := newTestSubmenu(t)
	reply := &testReplier{}
	ctx := context.Background()

	submenu.Handle(ctx, "+123", "", reply)
	for _, input := range []string{"nope", "0", "7"} {
		if err := submenu.Handle(ctx, "+123", input, reply); err != nil {
			t.Fatalf("unexpected error for input %q: %v", input, err)
		}
		if !strings.Contains(reply.last(t), "Invalid option") {
			t.Errorf("input %q should get the invalid-option reply, got %q", input, reply.last(t))
		}
		if st, ok := states.Get("+123"); !ok || st.Flow != FlowSubmenu {
			t.Errorf("invalid input must keep the submenu state, got %+v", st)
		}
	}
}

func TestSubmenuValidSelectionDispatches(t *testing.T) {
	submenu, states := newTestSubmenu(t)
	reply := &testReplier{}
	ctx := context.Background()

	submenu.Handle(ctx, "+123", "", reply)
	if err := submenu.Handle(ctx, "+123", "1", reply); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The selection hands over to the shop flow, which seeds its own state.
	st, ok := states.Get("+123")
	if !ok || st.Flow != FlowShop || st.Step != StepChooseProduct {
		t.Errorf("selection should enter the shop flow, got %+v (active=%v)", st, ok)
	}
	if !strings.Contains(reply.last(t), "Available products") {
		t.Errorf("shop entry prompt expected, got %q", reply.last(t))
	}
}
