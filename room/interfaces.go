package room

import "github.com/wfunc/rmcs/models"

// Broadcaster defines the interface for broadcasting messages to a room.
// This is defined here to break the import cycle between room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
}

// Recorder archives resolved rounds. Failures are logged by the room and
// never undo the round.
type Recorder interface {
	Record(rec models.RoundRecord) error
}

// Observer is told about lifecycle events, typically to update metrics.
type Observer interface {
	RoomCreated()
	RoomRemoved()
	RoundStarted()
	GuessResolved(correct bool)
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastToRoom(string, uint16, []byte) error { return nil }

type nopRecorder struct{}

func (nopRecorder) Record(models.RoundRecord) error { return nil }

type nopObserver struct{}

func (nopObserver) RoomCreated()       {}
func (nopObserver) RoomRemoved()       {}
func (nopObserver) RoundStarted()      {}
func (nopObserver) GuessResolved(bool) {}
