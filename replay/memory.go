package replay

import (
	"context"
	"sync"

	"github.com/eringen/routeweb/gateway"
)

// MemoryStore keeps slots in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	slots  map[string][]byte
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

func (m *MemoryStore) Publish(ctx context.Context, tab string, result *gateway.RouteResult) error {
	data, err := encode(result)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.slots[tab] = data
	return nil
}

func (m *MemoryStore) Consume(ctx context.Context, tab string) (*gateway.RouteResult, bool, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, false, ErrClosed
	}
	data, found := m.slots[tab]
	delete(m.slots, tab)
	m.mu.Unlock()

	if !found {
		return nil, false, nil
	}
	r, ok := decode(data)
	return r, ok, nil
}

func (m *MemoryStore) Purge(ctx context.Context, live func(tab string) bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	n := 0
	for tab := range m.slots {
		if !live(tab) {
			delete(m.slots, tab)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.slots = nil
	return nil
}
