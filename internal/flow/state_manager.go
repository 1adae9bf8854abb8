// Package flow provides concrete implementations of state management.
package flow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/BTreeMap/BotEngine/internal/models"
)

// StateManager is the transient per-sender conversation state store. It
// holds at most one active state record per contact; absence means no
// multi-step flow is active. The engine serializes processing per contact,
// so a state record is exclusively owned for the duration of one inbound
// cycle; the internal mutex protects cross-contact map access.
type StateManager struct {
	mu     sync.RWMutex
	states map[string]models.ConversationState
}

// NewStateManager creates an empty StateManager.
func NewStateManager() *StateManager {
	slog.Debug("Creating StateManager")
	return &StateManager{states: make(map[string]models.ConversationState)}
}

// Get returns a copy of the contact's active state, if any.
func (sm *StateManager) Get(contactID string) (models.ConversationState, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	st, ok := sm.states[contactID]
	if ok && st.Data != nil {
		data := make(map[string]string, len(st.Data))
		for k, v := range st.Data {
			data[k] = v
		}
		st.Data = data
	}
	return st, ok
}

// Set stores the contact's state, stamping created/updated times.
func (sm *StateManager) Set(contactID string, st models.ConversationState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	now := time.Now()
	st.ContactID = contactID
	st.UpdatedAt = now
	if prev, ok := sm.states[contactID]; ok {
		st.CreatedAt = prev.CreatedAt
	} else {
		st.CreatedAt = now
	}
	sm.states[contactID] = st
	slog.Debug("StateManager Set", "contactID", contactID, "flow", st.Flow, "step", st.Step)
}

// Clear removes the contact's state entirely, distinguishing "flow finished"
// from "flow with empty payload".
func (sm *StateManager) Clear(contactID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.states, contactID)
	slog.Debug("StateManager Clear", "contactID", contactID)
}

// IsActive reports whether the contact has an active flow.
func (sm *StateManager) IsActive(contactID string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	_, ok := sm.states[contactID]
	return ok
}
