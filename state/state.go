// state/state.go
package state

import (
	"errors"
	"fmt"
	"sync"
)

// Phase is the position of a room inside its current round.
type Phase int

const (
	PhaseNoRound Phase = iota
	PhaseRolesAssigned
	PhaseGuessResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseNoRound:
		return "no_round"
	case PhaseRolesAssigned:
		return "roles_assigned"
	case PhaseGuessResolved:
		return "guess_resolved"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Event names a request to move between phases.
type Event string

const (
	EventAssignRoles Event = "assign_roles"
	EventSubmitGuess Event = "submit_guess"
	EventReset       Event = "reset"
)

// ErrTransitionNotAllowed is returned when an event is not legal in the current phase.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// 状态机接口
type StateMachine interface {
	Fire(event Event) error
	Can(event Event) bool
	Current() Phase
	AddTransition(from Phase, event Event, to Phase)
}

type transitionKey struct {
	from  Phase
	event Event
}

// BaseStateMachine is a table-driven phase machine. It is safe for
// concurrent use but callers that combine Can and Fire must serialise
// themselves.
type BaseStateMachine struct {
	current     Phase
	transitions map[transitionKey]Phase
	mutex       sync.RWMutex
}

func NewBaseStateMachine(initial Phase) *BaseStateMachine {
	return &BaseStateMachine{
		current:     initial,
		transitions: make(map[transitionKey]Phase),
	}
}

// NewRoundMachine returns the round lifecycle:
//
//	no_round | guess_resolved --assign_roles--> roles_assigned
//	roles_assigned --submit_guess--> guess_resolved
//	no_round | guess_resolved --reset--> no_round
func NewRoundMachine() *BaseStateMachine {
	sm := NewBaseStateMachine(PhaseNoRound)
	sm.AddTransition(PhaseNoRound, EventAssignRoles, PhaseRolesAssigned)
	sm.AddTransition(PhaseGuessResolved, EventAssignRoles, PhaseRolesAssigned)
	sm.AddTransition(PhaseRolesAssigned, EventSubmitGuess, PhaseGuessResolved)
	sm.AddTransition(PhaseNoRound, EventReset, PhaseNoRound)
	sm.AddTransition(PhaseGuessResolved, EventReset, PhaseNoRound)
	return sm
}

func (sm *BaseStateMachine) AddTransition(from Phase, event Event, to Phase) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.transitions[transitionKey{from, event}] = to
}

func (sm *BaseStateMachine) Can(event Event) bool {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	_, ok := sm.transitions[transitionKey{sm.current, event}]
	return ok
}

func (sm *BaseStateMachine) Fire(event Event) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	to, ok := sm.transitions[transitionKey{sm.current, event}]
	if !ok {
		return fmt.Errorf("%w: %s in phase %s", ErrTransitionNotAllowed, event, sm.current)
	}
	sm.current = to
	return nil
}

func (sm *BaseStateMachine) Current() Phase {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.current
}
