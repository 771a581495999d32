package state

import (
	"sync"
	"time"
)

// Manager manages session state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	sessionID string
	startedAt time.Time
	phase     Phase
	changedAt time.Time

	// Open view
	playlistID string
}

// New creates a new state manager in PhaseActive.
func New(sessionID string) *Manager {
	now := time.Now()
	return &Manager{
		sessionID: sessionID,
		startedAt: now,
		phase:     PhaseActive,
		changedAt: now,
	}
}

// GetSessionID returns the session ID.
func (m *Manager) GetSessionID() string {
	return m.sessionID
}

// GetPhase returns the current session phase.
func (m *Manager) GetPhase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Transition moves to phase p and reports whether the phase changed.
// Phases only move forward: Active, then LoggedOut, then Closed.
// Leaving PhaseActive clears the open playlist.
func (m *Manager) Transition(p Phase) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p <= m.phase {
		return false
	}
	m.phase = p
	m.changedAt = time.Now()
	m.playlistID = ""
	return true
}

// IsActive reports whether catalog operations are allowed.
func (m *Manager) IsActive() bool {
	return m.GetPhase() == PhaseActive
}

// GetTimes returns the session start time and the last phase change time.
func (m *Manager) GetTimes() (startedAt, changedAt time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.startedAt, m.changedAt
}

// GetPlaylistID returns the open playlist ID, empty when no view is open.
func (m *Manager) GetPlaylistID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.playlistID
}

// SetPlaylistID records the open playlist ID. A non-empty ID is only recorded
// while the session is active; it reports whether the ID was recorded.
func (m *Manager) SetPlaylistID(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != "" && m.phase != PhaseActive {
		return false
	}
	m.playlistID = id
	return true
}
