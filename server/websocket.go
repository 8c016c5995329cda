package server

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wfunc/rmcs/logger"
	"github.com/wfunc/rmcs/network"
	"github.com/wfunc/rmcs/room"
	"github.com/wfunc/rmcs/session"
)

const watcherHeartbeat = time.Minute

// handleWebSocket attaches a watcher to a room. The watcher first gets the
// current player list, then every room event until it or the room goes away.
func (s *GameServer) handleWebSocket(c *gin.Context) {
	r, ok := s.lookupRoom(c)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}

	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.NewString(), r.ID, wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncWatchers()
	go sess.WritePump()
	logger.Log.Infof("New watcher from %s, session ID: %s, room: %s", wsConn.RemoteAddr(), sess.GetID(), r.ID)

	defer func() {
		logger.Log.Infof("Watcher closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		if s.sessionManager.Remove(sess.GetID()) {
			s.monitor.DecWatchers()
		}
		sess.Close()
	}()

	snapshot, err := json.Marshal(struct {
		RoomID string `json:"roomId"`
		room.PlayersView
	}{r.ID, r.Players()})
	if err == nil {
		if err := sess.Send(network.MsgTypePlayersChanged, snapshot); err != nil {
			return
		}
	}

	wsConn.SetHeartbeat(watcherHeartbeat)
	for {
		packet, err := wsConn.ReadPacket()
		if err != nil {
			return
		}
		switch packet.MsgID {
		case network.MsgTypeHeartbeat:
			sess.Touch()
			if err := sess.Send(network.MsgTypeHeartbeat, nil); err != nil {
				return
			}
		default:
			logger.Log.Debugf("Session %s sent unsupported message %d", sess.GetID(), packet.MsgID)
		}
	}
}
