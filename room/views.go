package room

import "github.com/wfunc/rmcs/game"

// PlayerBrief identifies a player without revealing round state.
type PlayerBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type JoinResult struct {
	Added      []PlayerBrief `json:"added"`
	Waitlisted []PlayerBrief `json:"waitlisted"`
}

type PlayersView struct {
	Players       []PlayerBrief `json:"players"`
	WaitlistCount int           `json:"waitlistCount"`
}

type GuessResult struct {
	Correct      bool   `json:"-"`
	Result       string `json:"result"`
	ActualChorID string `json:"actualChorId"`
}

// ResultPlayer is one row of a resolved round. Role is rendered by name,
// "Unknown" when the player was not dealt in.
type ResultPlayer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Score int    `json:"score"`
}

type ResultView struct {
	Round   int            `json:"round"`
	Players []ResultPlayer `json:"players"`
}

type Standing struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type LeaveResult struct {
	Removed  PlayerBrief  `json:"removed"`
	Promoted *PlayerBrief `json:"promoted,omitempty"`
}

const (
	resultCorrect   = "correct"
	resultIncorrect = "incorrect"
)

func resultLabel(correct bool) string {
	if correct {
		return resultCorrect
	}
	return resultIncorrect
}

func roleLabel(r game.Role) string {
	return r.String()
}
