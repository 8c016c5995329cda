// broadcast/broadcast.go
package broadcast

import (
	"fmt"

	"github.com/wfunc/rmcs/logger"
	"github.com/wfunc/rmcs/network"
	"github.com/wfunc/rmcs/session"
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	BroadcastToAll(msgID uint16, data []byte) error
	CloseRoom(roomID string)
}

// SessionHooks lets the owner of the sessions observe drops.
type SessionHooks struct {
	OnDrop func(s *session.Session)
}

// RoomBroadcaster fans room events out to the sessions watching the room.
// A session that cannot take the packet (closed, or too far behind) is
// dropped.
type RoomBroadcaster struct {
	sessionManager *session.Manager
	hooks          SessionHooks
}

func NewRoomBroadcaster(sessionManager *session.Manager, hooks SessionHooks) *RoomBroadcaster {
	return &RoomBroadcaster{
		sessionManager: sessionManager,
		hooks:          hooks,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	return b.sendAll(b.sessionManager.ByRoom(roomID), msgID, data)
}

func (b *RoomBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	return b.sendAll(b.sessionManager.All(), msgID, data)
}

// sendAll encodes once. An unencodable message is the sender's fault and
// reaches nobody; no session is dropped for it.
func (b *RoomBroadcaster) sendAll(sessions []*session.Session, msgID uint16, data []byte) error {
	packet, err := network.Encode(msgID, data)
	if err != nil {
		return fmt.Errorf("broadcast %s: %w", network.MsgName(msgID), err)
	}
	for _, s := range sessions {
		if err := s.Enqueue(packet); err != nil {
			logger.Log.Debugf("Dropping session %s: %v", s.GetID(), err)
			b.drop(s)
		}
	}
	return nil
}

// CloseRoom disconnects every watcher of roomID.
func (b *RoomBroadcaster) CloseRoom(roomID string) {
	for _, s := range b.sessionManager.ByRoom(roomID) {
		b.drop(s)
	}
}

func (b *RoomBroadcaster) drop(s *session.Session) {
	if !b.sessionManager.Remove(s.GetID()) {
		return
	}
	_ = s.Close()
	if b.hooks.OnDrop != nil {
		b.hooks.OnDrop(s)
	}
}
