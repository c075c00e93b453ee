package session

import (
	"sync"
	"time"

	"github.com/artsabotage/gameserver/network"
)

// Session is one live connection. RoomCode tracks the room the
// connection is currently joined to; the gateway validates claimed room
// codes against it before touching the registries. RoomCode is only
// touched by the session's own read loop; lastActive is also bumped
// there, so reads go through LastActive.
type Session struct {
	ID        string
	Conn      network.Connection
	RoomCode  string
	CreatedAt time.Time

	mu         sync.Mutex
	lastActive time.Time
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
	}
}

// Send writes an event to the connection. Broadcast goroutines call
// this concurrently; it must not touch session state, the connection
// serializes its own writes.
func (s *Session) Send(event *network.Event) error {
	return s.Conn.Send(event)
}

// Touch records inbound activity.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager indexes live sessions by connection id.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
