package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/tailored-agentic-units/intake/session"
)

type memoryStore struct {
	sessions map[string]*session.Session
	order    []string
	mu       sync.RWMutex
}

// NewMemoryStore creates a Store backed by an in-memory map. Sessions live
// for the lifetime of the process.
func NewMemoryStore() Store {
	return &memoryStore{
		sessions: make(map[string]*session.Session),
	}
}

func (m *memoryStore) Create(ctx context.Context, s *session.Session) error {
	if err := checkRecord(s); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, s.ID)
	}
	m.sessions[s.ID] = s.Clone()
	m.order = append(m.order, s.ID)
	return nil
}

func (m *memoryStore) Get(ctx context.Context, id string) (*session.Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[id]
	if !exists {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (m *memoryStore) Update(ctx context.Context, s *session.Session) error {
	if err := checkRecord(s); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, s.ID)
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *memoryStore) List(ctx context.Context) ([]*session.Session, error) {
	return m.collect(func(*session.Session) bool { return true }), nil
}

func (m *memoryStore) ListByStatus(ctx context.Context, status session.Status) ([]*session.Session, error) {
	return m.collect(func(s *session.Session) bool { return s.Status == status }), nil
}

func (m *memoryStore) CountByStatus(ctx context.Context) (map[session.Status]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := emptyCounts()
	for _, s := range m.sessions {
		counts[s.Status]++
	}
	return counts, nil
}

func (m *memoryStore) Close() error {
	return nil
}

// collect returns copies in insertion order, which is creation order.
func (m *memoryStore) collect(keep func(*session.Session) bool) []*session.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*session.Session, 0, len(m.order))
	for _, id := range m.order {
		if s := m.sessions[id]; keep(s) {
			out = append(out, s.Clone())
		}
	}
	return out
}

func checkRecord(s *session.Session) error {
	if s == nil {
		return fmt.Errorf("%w: nil session", ErrInvalid)
	}
	if s.ID == "" {
		return fmt.Errorf("%w: empty session id", ErrInvalid)
	}
	return nil
}
