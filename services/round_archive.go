// services/round_archive.go
package services

import (
	"fmt"

	"github.com/wfunc/rmcs/models"
	"github.com/wfunc/rmcs/persistence"
)

// RoundArchive records resolved rounds and serves a room's history.
type RoundArchive struct {
	db persistence.Database
}

func NewRoundArchive(db persistence.Database) *RoundArchive {
	return &RoundArchive{db: db}
}

// History 房间的回合历史
type History struct {
	RoomID string                `json:"roomId"`
	Rounds []models.RoundRecord  `json:"rounds"`
	Stats  persistence.RoomStats `json:"stats"`
}

// Record implements room.Recorder.
func (a *RoundArchive) Record(rec models.RoundRecord) error {
	if rec.RoomID == "" || rec.Round <= 0 {
		return fmt.Errorf("archive: incomplete round record (room %q, round %d)", rec.RoomID, rec.Round)
	}
	if err := a.db.SaveRoundRecord(rec); err != nil {
		return fmt.Errorf("archive: save round %d of room %s: %w", rec.Round, rec.RoomID, err)
	}
	return nil
}

// History returns every archived round of a room, oldest first. A room
// with no resolved rounds has an empty history.
func (a *RoundArchive) History(roomID string) (History, error) {
	h := History{RoomID: roomID, Rounds: []models.RoundRecord{}}

	recs, err := a.db.LoadRoundRecords(roomID)
	switch {
	case persistence.IsNotFound(err):
		return h, nil
	case err != nil:
		return h, fmt.Errorf("archive: load rounds of room %s: %w", roomID, err)
	}
	h.Rounds = recs

	stats, err := a.db.RoomStats(roomID)
	if err != nil {
		return h, fmt.Errorf("archive: stats of room %s: %w", roomID, err)
	}
	h.Stats = stats
	return h, nil
}

func (a *RoundArchive) Close() error {
	return a.db.Close()
}
