package network

// Message ids pushed to room watchers. Payloads are JSON.
const (
	MsgTypeHeartbeat      = 1
	MsgTypePlayersChanged = 301
	MsgTypeRoundStarted   = 303
	MsgTypeGuessResolved  = 305
	MsgTypePlayerLeft     = 306
	MsgTypeRoomClosed     = 307
)

// MsgName returns a readable name for a message id.
func MsgName(msgID uint16) string {
	switch msgID {
	case MsgTypeHeartbeat:
		return "heartbeat"
	case MsgTypePlayersChanged:
		return "players_changed"
	case MsgTypeRoundStarted:
		return "round_started"
	case MsgTypeGuessResolved:
		return "guess_resolved"
	case MsgTypePlayerLeft:
		return "player_left"
	case MsgTypeRoomClosed:
		return "room_closed"
	default:
		return "unknown"
	}
}
