// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormRoundRecord 归档的回合记录
type GormRoundRecord struct {
	gorm.Model
	RoomID          string          `gorm:"index:idx_round_room,priority:1;not null"`
	RoomName        string          `gorm:"not null"`
	Round           int             `gorm:"index:idx_round_room,priority:2;not null"`
	MantriID        string          `gorm:"not null"`
	ChorID          string          `gorm:"not null"`
	GuessedPlayerID string          `gorm:"not null"`
	Correct         bool            `gorm:"not null"`
	Players         []PlayerOutcome `gorm:"type:jsonb;serializer:json;not null"`
	ResolvedAt      time.Time       `gorm:"not null"`
}

func (GormRoundRecord) TableName() string {
	return "round_records"
}

func NewGormRoundRecord(rec RoundRecord) *GormRoundRecord {
	return &GormRoundRecord{
		RoomID:          rec.RoomID,
		RoomName:        rec.RoomName,
		Round:           rec.Round,
		MantriID:        rec.MantriID,
		ChorID:          rec.ChorID,
		GuessedPlayerID: rec.GuessedPlayerID,
		Correct:         rec.Correct,
		Players:         rec.Players,
		ResolvedAt:      rec.ResolvedAt,
	}
}

func (g *GormRoundRecord) ToRecord() RoundRecord {
	return RoundRecord{
		RoomID:          g.RoomID,
		RoomName:        g.RoomName,
		Round:           g.Round,
		MantriID:        g.MantriID,
		ChorID:          g.ChorID,
		GuessedPlayerID: g.GuessedPlayerID,
		Correct:         g.Correct,
		Players:         g.Players,
		ResolvedAt:      g.ResolvedAt,
	}
}
