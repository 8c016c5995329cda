package persistence

import (
	"slices"
	"sync"

	"github.com/wfunc/rmcs/models"
)

// Memory keeps the archive in process. It is the default store and
// forgets everything on restart.
type Memory struct {
	records map[string][]models.RoundRecord
	mutex   sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string][]models.RoundRecord)}
}

func (m *Memory) SaveRoundRecord(rec models.RoundRecord) error {
	rec.Players = slices.Clone(rec.Players)

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.records[rec.RoomID] = append(m.records[rec.RoomID], rec)
	return nil
}

func (m *Memory) LoadRoundRecords(roomID string) ([]models.RoundRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	recs, ok := m.records[roomID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := make([]models.RoundRecord, len(recs))
	for i, rec := range recs {
		rec.Players = slices.Clone(rec.Players)
		out[i] = rec
	}
	return out, nil
}

func (m *Memory) RoomStats(roomID string) (RoomStats, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var stats RoomStats
	for _, rec := range m.records[roomID] {
		stats.TotalRounds++
		if rec.Correct {
			stats.CorrectGuesses++
		}
	}
	return stats, nil
}

func (m *Memory) Close() error {
	return nil
}
