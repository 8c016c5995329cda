// session/session.go
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/wfunc/rmcs/network"
)

// QueueSize bounds the packets waiting to be written to one watcher.
const QueueSize = 64

var (
	ErrQueueFull = errors.New("session: send queue full")
	ErrClosed    = errors.New("session: closed")
)

// Session is one websocket watching a room. Packets are queued and written
// by WritePump, so a slow watcher never blocks the sender.
type Session struct {
	ID         string
	RoomID     string
	Conn       network.Connection
	CreatedAt  time.Time
	lastActive time.Time
	mutex      sync.RWMutex

	outbox    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewSession(id, roomID string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		RoomID:     roomID,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
		outbox:     make(chan []byte, QueueSize),
		done:       make(chan struct{}),
	}
}

// Send encodes and queues one message.
func (s *Session) Send(msgID uint16, data []byte) error {
	packet, err := network.Encode(msgID, data)
	if err != nil {
		return err
	}
	return s.Enqueue(packet)
}

// Enqueue queues an encoded packet without blocking.
func (s *Session) Enqueue(packet []byte) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.outbox <- packet:
		s.Touch()
		return nil
	default:
		return ErrQueueFull
	}
}

// WritePump writes queued packets until the session is closed or a write
// fails, then closes the connection. Packets queued before Close are
// flushed first.
func (s *Session) WritePump() {
	defer s.Conn.Close()
	for {
		select {
		case packet := <-s.outbox:
			if err := s.Conn.Write(packet); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			for {
				select {
				case packet := <-s.outbox:
					if err := s.Conn.Write(packet); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// Touch marks the session as alive.
func (s *Session) Touch() {
	s.mutex.Lock()
	s.lastActive = time.Now()
	s.mutex.Unlock()
}

func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

func (s *Session) GetID() string {
	return s.ID
}

// Close stops the session. WritePump flushes what is queued and closes the
// connection.
func (s *Session) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// Session管理器
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

// Remove reports whether the session was present.
func (m *Manager) Remove(sessionID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	_, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	return ok
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// ByRoom returns the sessions watching roomID.
func (m *Manager) ByRoom(roomID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.RoomID == roomID {
			result = append(result, session)
		}
	}
	return result
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// All returns a snapshot of every session.
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}
