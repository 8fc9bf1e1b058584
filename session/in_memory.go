package session

import (
	"slices"
	"sync"

	"github.com/hupe1980/chatcore/model"
)

// Store maps session ids to conversations.
type Store interface {
	// Get returns the conversation for id, creating an empty one lazily.
	Get(id string) *model.Conversation
	// Create starts (or replaces) the conversation for id, seeded with msgs.
	Create(id string, msgs ...model.Message) *model.Conversation
	// Delete forgets the conversation for id.
	Delete(id string)
	// IDs lists known session ids, sorted.
	IDs() []string
}

// InMemoryStore is a volatile Store implementation keeping conversations in
// a process local map. The map is safe for concurrent access; each returned
// conversation is shared, not cloned, and must be driven by one turn at a time.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Conversation
	seed     []model.Message
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty store. Lazily created conversations
// start with seed (typically a system prompt).
func NewInMemoryStore(seed ...model.Message) *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*model.Conversation),
		seed:     slices.Clone(seed),
	}
}

// Get returns an existing conversation or creates a seeded one.
func (s *InMemoryStore) Get(id string) *model.Conversation {
	s.mu.RLock()
	conv, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return conv
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.sessions[id]; ok {
		return conv
	}
	return s.createLocked(id, s.seed)
}

// Create replaces the conversation for id. Without msgs the store seed is used.
func (s *InMemoryStore) Create(id string, msgs ...model.Message) *model.Conversation {
	if len(msgs) == 0 {
		msgs = s.seed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(id, msgs)
}

// Delete removes the conversation for id.
func (s *InMemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// IDs returns the known session ids in sorted order.
func (s *InMemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// createLocked allocates and stores a conversation; caller must hold the write lock.
func (s *InMemoryStore) createLocked(id string, msgs []model.Message) *model.Conversation {
	conv := model.NewConversation(msgs...)
	s.sessions[id] = conv
	return conv
}
