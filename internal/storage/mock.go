package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*Session
	worlds    map[string][]byte
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID]*Session),
		worlds:   make(map[string][]byte),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStorage) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// AddWorld registers a world catalogue for testing
func (m *MockStorage) AddWorld(filename string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.worlds[filename] = data
}

// AddSession registers a session for testing
func (m *MockStorage) AddSession(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pingError != nil {
		return m.pingError
	}
	return nil
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveSession stores a session in memory
func (m *MockStorage) SaveSession(ctx context.Context, id uuid.UUID, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = time.Now()
	m.sessions[id] = s
	return nil
}

// LoadSession retrieves a session from memory. Returns nil for not found.
func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return s, nil
}

// DeleteSession removes a session from memory
func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// ListWorlds lists registered world catalogues
func (m *MockStorage) ListWorlds(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	worlds := make(map[string]string, len(m.worlds))
	for filename := range m.worlds {
		worlds[filename] = filename
	}
	return worlds, nil
}

// GetWorldCatalogue returns a registered world catalogue
func (m *MockStorage) GetWorldCatalogue(ctx context.Context, filename string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.worlds[filename]
	if !ok {
		return nil, fmt.Errorf("world not found: %s", filename)
	}
	return data, nil
}
