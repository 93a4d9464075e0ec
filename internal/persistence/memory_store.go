package persistence

import (
	"context"
	"sync"

	"github.com/mpetrin/tripweave/pkg/api"
)

// InMemoryStore is a goroutine-safe HistoryStore backed by maps. Every
// snapshot is deep-copied through the codec on the way in and out, so
// callers can keep mutating their state without corrupting history.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]*api.TripState // ordered by sequence, ascending
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		snapshots: make(map[string][]*api.TripState),
	}
}

// Ensure InMemoryStore implements the interfaces.
var _ HistoryStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) Save(ctx context.Context, st *api.TripState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.snapshots[st.ConversationID]
	st.CheckpointSeq = len(history) + 1

	snap, err := CloneState(st)
	if err != nil {
		return err
	}
	s.snapshots[st.ConversationID] = append(history, snap)
	return nil
}

func (s *InMemoryStore) Load(ctx context.Context, conversationID string) (*api.TripState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.snapshots[conversationID]
	if len(history) == 0 {
		return nil, ErrConversationNotFound
	}
	return CloneState(history[len(history)-1])
}

func (s *InMemoryStore) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, conversationID)
	return nil
}

func (s *InMemoryStore) LoadVersion(ctx context.Context, conversationID string, seq int) (*api.TripState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.snapshots[conversationID]
	if len(history) == 0 {
		return nil, ErrConversationNotFound
	}
	if seq < 1 || seq > len(history) {
		return nil, ErrCheckpointNotFound
	}
	return CloneState(history[seq-1])
}

func (s *InMemoryStore) ListVersions(ctx context.Context, conversationID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.snapshots[conversationID]
	if len(history) == 0 {
		return nil, ErrConversationNotFound
	}
	seqs := make([]int, len(history))
	for i := range history {
		seqs[i] = i + 1
	}
	return seqs, nil
}
