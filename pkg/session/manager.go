package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a request session does not exist (or has
// already been discarded).
var ErrNotFound = errors.New("request session not found")

// Manager holds the in-flight request sessions for this process.
type Manager struct {
	sessions map[string]*RequestSession
	mu       sync.RWMutex
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*RequestSession)}
}

// Create registers a new session for an outbound message. requestID may be
// caller-supplied (opaque) or empty, in which case one is generated. A
// duplicate ID is rejected — sessions are never shared across requests.
func (m *Manager) Create(requestID, message string) (*RequestSession, error) {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	now := time.Now()

	session := &RequestSession{
		ID:        requestID,
		Message:   message,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[requestID]; exists {
		return nil, fmt.Errorf("request session already exists: %s", requestID)
	}
	m.sessions[requestID] = session
	return session, nil
}

// Get retrieves a session by request ID.
func (m *Manager) Get(requestID string) (*RequestSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[requestID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	return session, nil
}

// List returns snapshots of all sessions.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshots := make([]Snapshot, 0, len(m.sessions))
	for _, s := range m.sessions {
		snapshots = append(snapshots, s.Clone())
	}
	return snapshots
}

// Delete discards a session. The ephemeral state is gone for good.
func (m *Manager) Delete(requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[requestID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	delete(m.sessions, requestID)
	return nil
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
