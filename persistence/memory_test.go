package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/rmcs/config"
	"github.com/wfunc/rmcs/models"
)

func record(roomID string, round int, correct bool) models.RoundRecord {
	return models.RoundRecord{
		RoomID:     roomID,
		Round:      round,
		Correct:    correct,
		ResolvedAt: time.Unix(int64(round), 0),
		Players: []models.PlayerOutcome{
			{PlayerID: "p1", Name: "Alice", Role: "Raja", Delta: 1000, Score: 1000 * round},
		},
	}
}

func TestMemory_SaveAndLoad(t *testing.T) {
	db := NewMemory()
	require.NoError(t, db.SaveRoundRecord(record("room-1", 1, true)))
	require.NoError(t, db.SaveRoundRecord(record("room-1", 2, false)))
	require.NoError(t, db.SaveRoundRecord(record("room-2", 1, true)))

	recs, err := db.LoadRoundRecords("room-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].Round)
	assert.Equal(t, 2, recs[1].Round)
	assert.False(t, recs[1].Correct)
}

func TestMemory_LoadUnknownRoom(t *testing.T) {
	_, err := NewMemory().LoadRoundRecords("missing")
	assert.True(t, IsNotFound(err))
}

func TestMemory_ReturnsCopies(t *testing.T) {
	db := NewMemory()
	require.NoError(t, db.SaveRoundRecord(record("room-1", 1, true)))

	recs, err := db.LoadRoundRecords("room-1")
	require.NoError(t, err)
	recs[0].Players[0].Score = -1

	again, err := db.LoadRoundRecords("room-1")
	require.NoError(t, err)
	assert.Equal(t, 1000, again[0].Players[0].Score)
}

func TestMemory_RoomStats(t *testing.T) {
	db := NewMemory()
	require.NoError(t, db.SaveRoundRecord(record("room-1", 1, true)))
	require.NoError(t, db.SaveRoundRecord(record("room-1", 2, false)))
	require.NoError(t, db.SaveRoundRecord(record("room-1", 3, true)))

	stats, err := db.RoomStats("room-1")
	require.NoError(t, err)
	assert.Equal(t, RoomStats{TotalRounds: 3, CorrectGuesses: 2}, stats)

	empty, err := db.RoomStats("other")
	require.NoError(t, err)
	assert.Equal(t, RoomStats{}, empty)
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "game"})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=game sslmode=disable", dsn)
}

func TestOpen_Memory(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, db)
	assert.NoError(t, db.Close())

	_, err = Open(config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}
