package session

import (
	"sync"
	"time"

	"github.com/brixta-dev/cemtemchat/pkg/providers"
)

// Session holds one conversation: its message history plus the staged write,
// if the agent has primed one and is waiting for the user's yes/no.
// PendingOperation and PendingPayload are set and cleared together.
type Session struct {
	Key      string
	Messages []providers.Message
	Created  time.Time
	Updated  time.Time

	pendingOperation string
	pendingPayload   map[string]interface{}

	// turnMu serializes turns within this session. Different sessions
	// never contend on it.
	turnMu sync.Mutex

	mu sync.Mutex
}

// Lock acquires the session's turn lock. Each user turn holds it for the
// whole round-trip so histories never interleave.
func (s *Session) Lock() {
	s.turnMu.Lock()
}

func (s *Session) Unlock() {
	s.turnMu.Unlock()
}

func (s *Session) AddMessage(msg providers.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, msg)
	s.Updated = time.Now()
}

// History returns a copy of the message log.
func (s *Session) History() []providers.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]providers.Message, len(s.Messages))
	copy(history, s.Messages)
	return history
}

// SetPending stages a write operation for confirmation, replacing any
// previously staged one.
func (s *Session) SetPending(operation string, payload map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingOperation = operation
	s.pendingPayload = payload
	s.Updated = time.Now()
}

// PopPending atomically takes the staged write, clearing both fields. The
// second return is false when nothing is staged.
func (s *Session) PopPending() (string, map[string]interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingOperation == "" || s.pendingPayload == nil {
		s.pendingOperation = ""
		s.pendingPayload = nil
		return "", nil, false
	}
	op, payload := s.pendingOperation, s.pendingPayload
	s.pendingOperation = ""
	s.pendingPayload = nil
	s.Updated = time.Now()
	return op, payload, true
}

// HasPending reports whether a staged write is waiting for confirmation.
func (s *Session) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingOperation != "" && s.pendingPayload != nil
}

// Manager keeps sessions in memory, keyed by "channel:chatID". State lives
// only for the process lifetime; web sessions are additionally removed when
// their connection drops.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) GetOrCreate(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if ok {
		return s
	}

	s = &Session{
		Key:      key,
		Messages: []providers.Message{},
		Created:  time.Now(),
		Updated:  time.Now(),
	}
	m.sessions[key] = s
	return s
}

func (m *Manager) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
