package room

import (
	"github.com/google/uuid"
	"github.com/wfunc/rmcs/game"
)

// Player is a participant of exactly one room. Its score accumulates
// across rounds; its role is reset every round.
type Player struct {
	ID    string
	Name  string
	Role  game.Role
	Score int
}

func newPlayer(name string) *Player {
	return &Player{
		ID:   uuid.NewString(),
		Name: name,
		Role: game.NoRole,
	}
}

func (p *Player) brief() PlayerBrief {
	return PlayerBrief{ID: p.ID, Name: p.Name}
}
