// Package engine implements the conversational dispatch engine.
//
// The engine owns all process-lifetime dispatch state (dedup filter, state
// manager, flow registry, per-contact locks) as explicit instance fields, so
// multiple isolated engines can exist side by side (e.g. in tests). Each
// inbound webhook call runs concurrently; processing is serialized per
// contact and fully parallel across contacts.
package engine

import (
	"sync"

	"github.com/BTreeMap/BotEngine/internal/dedup"
	"github.com/BTreeMap/BotEngine/internal/flow"
	"github.com/BTreeMap/BotEngine/internal/store"
)

// Engine routes inbound messages through dedup, persistence, the human
// intervention gate, flow state and the rule chain.
type Engine struct {
	store    store.Store
	filter   *dedup.Filter
	states   *flow.StateManager
	registry *flow.Registry
	submenu  flow.Handler
	outbound flow.Replier

	lockMu       sync.Mutex
	contactLocks map[string]*sync.Mutex
}

// New creates an Engine over its collaborators. The submenu flow is built in
// because it is the entry point into the registry catalog.
func New(st store.Store, filter *dedup.Filter, states *flow.StateManager, registry *flow.Registry, outbound flow.Replier) *Engine {
	return &Engine{
		store:        st,
		filter:       filter,
		states:       states,
		registry:     registry,
		submenu:      flow.NewSubmenuFlow(states, registry),
		outbound:     outbound,
		contactLocks: make(map[string]*sync.Mutex),
	}
}

// contactLock returns the process-lifetime mutex serializing one contact's
// processing. Locks are created lazily and never removed; the set of active
// contacts is bounded by the conversation store anyway.
func (e *Engine) contactLock(contactID string) *sync.Mutex {
	e.lockMu.Lock()
	defer e.lockMu.Unlock()
	mu, ok := e.contactLocks[contactID]
	if !ok {
		mu = &sync.Mutex{}
		e.contactLocks[contactID] = mu
	}
	return mu
}

// States exposes the state manager (used by tests and the API layer).
func (e *Engine) States() *flow.StateManager {
	return e.states
}
