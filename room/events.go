package room

import (
	"encoding/json"

	"github.com/wfunc/rmcs/logger"
)

type playersChangedEvent struct {
	RoomID string `json:"roomId"`
	PlayersView
}

type roundStartedEvent struct {
	RoomID string `json:"roomId"`
	Round  int    `json:"round"`
}

type guessResolvedEvent struct {
	RoomID          string         `json:"roomId"`
	Round           int            `json:"round"`
	Result          string         `json:"result"`
	ActualChorID    string         `json:"actualChorId"`
	GuessedPlayerID string         `json:"guessedPlayerId"`
	Players         []ResultPlayer `json:"players"`
}

type playerLeftEvent struct {
	RoomID     string `json:"roomId"`
	PlayerID   string `json:"playerId"`
	PromotedID string `json:"promotedId,omitempty"`
}

// emit must be called without r.mu held.
func (r *Room) emit(msgID uint16, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("room %s: marshal event %d: %v", r.ID, msgID, err)
		return
	}
	if err := r.broadcaster.BroadcastToRoom(r.ID, msgID, data); err != nil {
		logger.Log.Warnf("room %s: broadcast event %d: %v", r.ID, msgID, err)
	}
}
