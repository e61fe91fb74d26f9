package chat

import "sync"

// Memory is the shared conversation history handed to the completion
// service as context. A single instance serves every request: turns are
// appended in strict (user, assistant) pairs and the oldest pairs are
// evicted once the history exceeds its bound. Concurrent requests
// interleave their pairs in arrival order - there is no per-session
// isolation, the assistant has one conversation with the world.
type Memory struct {
	mu       sync.Mutex
	maxPairs int
	turns    []Turn
}

// NewMemory creates an empty history bounded to maxPairs exchanges.
func NewMemory(maxPairs int) *Memory {
	return &Memory{maxPairs: maxPairs}
}

// Append records one completed exchange. The history grows two turns at a
// time and pairs are evicted whole from the front, so the length never
// exceeds 2*maxPairs.
func (m *Memory) Append(user, assistant Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.turns = append(m.turns, user, assistant)

	if excess := len(m.turns) - 2*m.maxPairs; excess > 0 {
		// Copy so evicted turns do not pin the old backing array
		m.turns = append([]Turn(nil), m.turns[excess:]...)
	}
}

// Snapshot returns a copy of the history, oldest first. The copy is
// detached: pairs appended after the snapshot are not reflected in it.
func (m *Memory) Snapshot() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len reports the number of stored turns (two per exchange).
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}
