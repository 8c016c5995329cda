package game

import (
	"math/rand/v2"
)

// Assignment maps each role to the seat index of the player holding it.
// Being indexed by role, it deals every role exactly once.
type Assignment [RoleCount]int

// Holder returns the seat holding role r.
func (a Assignment) Holder(r Role) int {
	return a[r]
}

// Seats inverts the assignment into seat -> role.
func (a Assignment) Seats() [RoleCount]Role {
	var seats [RoleCount]Role
	for role, seat := range a {
		seats[seat] = Role(role)
	}
	return seats
}

// Shuffler permutes n elements in place through swap.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type shuffleFunc func(n int, swap func(i, j int))

func (f shuffleFunc) Shuffle(n int, swap func(i, j int)) { f(n, swap) }

// DefaultShuffler draws from the auto-seeded global source.
var DefaultShuffler Shuffler = shuffleFunc(rand.Shuffle)

// Deal returns a uniformly random assignment of the four roles to seats
// 0..3, using the Fisher-Yates shuffle of s.
func Deal(s Shuffler) Assignment {
	if s == nil {
		s = DefaultShuffler
	}
	seats := Roles
	s.Shuffle(len(seats), func(i, j int) {
		seats[i], seats[j] = seats[j], seats[i]
	})

	var a Assignment
	for seat, role := range seats {
		a[role] = seat
	}
	return a
}

// FixedShuffler deals Roles in canonical order, so seat i gets Roles[i].
// Used for deterministic games in tests and demos.
var FixedShuffler Shuffler = shuffleFunc(func(int, func(i, j int)) {})
