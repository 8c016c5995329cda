// models/models.go
package models

import (
	"time"
)

// RoundRecord 一局结束后的归档记录
type RoundRecord struct {
	RoomID          string          `json:"roomId"`
	RoomName        string          `json:"roomName"`
	Round           int             `json:"round"`
	MantriID        string          `json:"mantriId"`
	ChorID          string          `json:"chorId"`
	GuessedPlayerID string          `json:"guessedPlayerId"`
	Correct         bool            `json:"correct"`
	Players         []PlayerOutcome `json:"players"`
	ResolvedAt      time.Time       `json:"resolvedAt"`
}

// PlayerOutcome is one player's line in a resolved round.
type PlayerOutcome struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Delta    int    `json:"delta"`
	Score    int    `json:"score"` // running total after this round
}

