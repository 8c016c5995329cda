// persistence/interface.go
package persistence

import (
	"errors"

	"github.com/wfunc/rmcs/models"
)

// Database stores the archive of resolved rounds.
type Database interface {
	SaveRoundRecord(rec models.RoundRecord) error
	LoadRoundRecords(roomID string) ([]models.RoundRecord, error)
	RoomStats(roomID string) (RoomStats, error)
	Close() error
}

// RoomStats aggregates a room's archived rounds.
type RoomStats struct {
	TotalRounds    int `json:"totalRounds"`
	CorrectGuesses int `json:"correctGuesses"`
}

// 错误定义
var (
	ErrRecordNotFound = errors.New("record not found")
)
