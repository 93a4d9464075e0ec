package engine

import "sync"

// conversationLocks serializes turns per conversation id: a second
// Advance for an id already in flight blocks until the first finishes.
// Different ids proceed independently.
type conversationLocks struct {
	mu   *sync.Mutex
	byID map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newConversationLocks() conversationLocks {
	return conversationLocks{
		mu:   &sync.Mutex{},
		byID: make(map[string]*lockEntry),
	}
}

// lock acquires the per-id mutex and returns the release func. Entries
// are reference-counted so the map does not grow with dead conversations.
func (l conversationLocks) lock(id string) func() {
	l.mu.Lock()
	entry, ok := l.byID[id]
	if !ok {
		entry = &lockEntry{}
		l.byID[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.byID, id)
		}
		l.mu.Unlock()
	}
}
