// Package store provides storage backends for BotEngine.
//
// This file implements an in-memory store used by tests.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/BTreeMap/BotEngine/internal/models"
	"github.com/google/uuid"
)

// InMemoryStore is a thread-safe in-memory Store. Messages for different
// contacts live in separate slices, so concurrent appends for different
// contacts only contend on the bookkeeping mutex.
type InMemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	contacts map[string]*memoryContact
}

type memoryContact struct {
	contact      models.Contact
	conversation models.Conversation
	messages     []models.Message
}

// Compile-time check that InMemoryStore implements Store.
var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{contacts: make(map[string]*memoryContact)}
}

// ensureContact creates the contact and conversation records if absent.
// Caller must hold the write lock.
func (s *InMemoryStore) ensureContact(externalID string) (*memoryContact, error) {
	if externalID == "" {
		return nil, models.ErrEmptyContactID
	}
	if mc, ok := s.contacts[externalID]; ok {
		return mc, nil
	}
	s.nextID++
	now := time.Now()
	mc := &memoryContact{
		contact:      models.Contact{ID: s.nextID, ExternalID: externalID, CreatedAt: now},
		conversation: models.Conversation{ContactID: s.nextID, LastUpdated: now},
	}
	s.contacts[externalID] = mc
	return mc, nil
}

// AddMessage appends a message to the contact's log.
func (s *InMemoryStore) AddMessage(externalID string, sender models.MessageSender, msgType models.MessageType, content string) error {
	if !models.IsValidSender(sender) {
		return models.ErrInvalidSender
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	mc, err := s.ensureContact(externalID)
	if err != nil {
		return err
	}
	now := time.Now()
	mc.messages = append(mc.messages, models.Message{
		ID:        uuid.NewString(),
		ContactID: mc.contact.ID,
		Sender:    sender,
		Type:      msgType,
		Content:   content,
		Timestamp: now,
	})
	mc.conversation.LastUpdated = now
	return nil
}

// GetMessages returns a copy of the contact's message history.
func (s *InMemoryStore) GetMessages(externalID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mc, ok := s.contacts[externalID]
	if !ok {
		return nil, nil
	}
	out := make([]models.Message, len(mc.messages))
	copy(out, mc.messages)
	return out, nil
}

// UpdateContactName sets the contact display name if not already set.
func (s *InMemoryStore) UpdateContactName(externalID, name string) error {
	if name == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	mc, err := s.ensureContact(externalID)
	if err != nil {
		return err
	}
	if mc.contact.Name == "" {
		mc.contact.Name = name
	}
	return nil
}

// IsIntervening reports the human-intervention flag, creating the records if
// absent.
func (s *InMemoryStore) IsIntervening(externalID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mc, err := s.ensureContact(externalID)
	if err != nil {
		return false, err
	}
	return mc.conversation.HumanIntervening, nil
}

// SetIntervening toggles the human-intervention flag.
func (s *InMemoryStore) SetIntervening(externalID string, intervening bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mc, err := s.ensureContact(externalID)
	if err != nil {
		return err
	}
	mc.conversation.HumanIntervening = intervening
	mc.conversation.LastUpdated = time.Now()
	return nil
}

// ListConversations returns summaries of all conversations, most recently
// updated first.
func (s *InMemoryStore) ListConversations() ([]models.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]models.ConversationSummary, 0, len(s.contacts))
	for _, mc := range s.contacts {
		cs := models.ConversationSummary{
			ContactID:        mc.contact.ID,
			ExternalID:       mc.contact.ExternalID,
			Name:             mc.contact.Name,
			HumanIntervening: mc.conversation.HumanIntervening,
			LastUpdated:      mc.conversation.LastUpdated,
		}
		if n := len(mc.messages); n > 0 {
			cs.LastMessage = mc.messages[n-1].Content
		}
		summaries = append(summaries, cs)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastUpdated.After(summaries[j].LastUpdated)
	})
	return summaries, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
