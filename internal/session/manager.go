package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ent0n29/remindbot/internal/dialog"
)

var ErrNotFound = errors.New("session not found")

// Manager stores one Session per user. Sessions are created on first use and
// live for the lifetime of the process.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	onChange func(active int)
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// SetChangeHook registers a callback invoked after every Save with the number
// of users whose dialog is not idle.
func (m *Manager) SetChangeHook(hook func(active int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = hook
}

// Dialog returns the user's current dialog state; unknown users are idle.
func (m *Manager) Dialog(userID string) dialog.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[strings.TrimSpace(userID)]
	if !ok {
		return dialog.State{Stage: dialog.StageIdle}
	}
	return s.Dialog
}

// Save replaces the user's dialog state, creating the session if needed.
func (m *Manager) Save(userID string, st dialog.State) {
	userID = strings.TrimSpace(userID)
	now := time.Now().UTC()

	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok {
		s = &Session{UserID: userID, StartedAt: now}
		m.sessions[userID] = s
	}
	s.Dialog = st
	s.LastActivityAt = now
	hook := m.onChange
	active := m.activeLocked()
	m.mu.Unlock()

	if hook != nil {
		hook(active)
	}
}

// Reset puts the user's dialog back to idle.
func (m *Manager) Reset(userID string) {
	m.Save(userID, dialog.State{Stage: dialog.StageIdle})
}

func (m *Manager) Get(userID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[strings.TrimSpace(userID)]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

// ActiveCount returns the number of users with a dialog in progress.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeLocked()
}

func (m *Manager) activeLocked() int {
	count := 0
	for _, s := range m.sessions {
		if !s.Dialog.Idle() {
			count++
		}
	}
	return count
}

func clone(s *Session) *Session {
	c := *s
	return &c
}
