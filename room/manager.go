package room

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/rmcs/game"
	"github.com/wfunc/rmcs/logger"
)

// deps are the collaborators every room of a Manager shares.
type deps struct {
	shuffler    game.Shuffler
	broadcaster Broadcaster
	recorder    Recorder
	observer    Observer
	clock       func() time.Time
}

type Option func(*deps)

func WithShuffler(s game.Shuffler) Option {
	return func(d *deps) { d.shuffler = s }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(d *deps) { d.broadcaster = b }
}

func WithRecorder(rec Recorder) Option {
	return func(d *deps) { d.recorder = rec }
}

func WithObserver(o Observer) Option {
	return func(d *deps) { d.observer = o }
}

func WithClock(clock func() time.Time) Option {
	return func(d *deps) { d.clock = clock }
}

// --- 房间管理器 ---

// Manager is the room directory. It is the only state shared across rooms.
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex
	deps  deps
}

// NewRoomManager 创建一个新的房间管理器
func NewRoomManager(opts ...Option) *Manager {
	d := deps{
		shuffler:    game.DefaultShuffler,
		broadcaster: nopBroadcaster{},
		recorder:    nopRecorder{},
		observer:    nopObserver{},
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return &Manager{
		rooms: make(map[string]*Room),
		deps:  d,
	}
}

// CreateRoom opens a room seated with its host.
func (m *Manager) CreateRoom(roomName, hostName string) (*Room, PlayerBrief, error) {
	roomName, err := cleanName(roomName)
	if err != nil {
		return nil, PlayerBrief{}, err
	}
	hostName, err = cleanName(hostName)
	if err != nil {
		return nil, PlayerBrief{}, err
	}

	host := newPlayer(hostName)
	room := newRoom(uuid.NewString(), roomName, host, m.deps)

	m.mutex.Lock()
	m.rooms[room.ID] = room
	m.mutex.Unlock()

	m.deps.observer.RoomCreated()
	logger.Log.Infof("Room %s (%q) created by player %s", room.ID, room.Name, host.ID)
	return room, host.brief(), nil
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// Lookup is GetRoom with a NotFound error for unknown ids.
func (m *Manager) Lookup(id string) (*Room, error) {
	room, ok := m.GetRoom(id)
	if !ok {
		return nil, errRoomNotFound
	}
	return room, nil
}

// RemoveRoom drops a room and notifies its watchers.
func (m *Manager) RemoveRoom(id string) bool {
	return m.removeIf(id, func(*Room) bool { return true })
}

// removeIfIdle drops the room only if it is still idle since cutoff. The
// check and the delete share the directory write lock.
func (m *Manager) removeIfIdle(id string, cutoff time.Time) bool {
	return m.removeIf(id, func(r *Room) bool { return r.LastActive().Before(cutoff) })
}

func (m *Manager) removeIf(id string, cond func(*Room) bool) bool {
	m.mutex.Lock()
	room, exists := m.rooms[id]
	if !exists || !cond(room) {
		m.mutex.Unlock()
		return false
	}
	delete(m.rooms, id)
	m.mutex.Unlock()

	room.close()
	m.deps.observer.RoomRemoved()
	return true
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// ExpireIdle removes rooms with no activity for ttl and returns their ids.
func (m *Manager) ExpireIdle(ttl time.Duration) []string {
	if ttl <= 0 {
		return nil
	}
	cutoff := m.deps.clock().Add(-ttl)

	m.mutex.RLock()
	var stale []string
	for id, room := range m.rooms {
		if room.LastActive().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mutex.RUnlock()

	expired := stale[:0]
	for _, id := range stale {
		if m.removeIfIdle(id, cutoff) {
			logger.Log.Infof("Room %s expired after %v idle", id, ttl)
			expired = append(expired, id)
		}
	}
	return expired
}
