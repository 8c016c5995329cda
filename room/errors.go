package room

import (
	"errors"
	"fmt"
)

// Error kinds returned by room operations. Callers test them with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidArgument = errors.New("invalid argument")
)

// opError pairs a kind with the message shown to the caller.
type opError struct {
	kind error
	msg  string
}

func (e *opError) Error() string { return e.msg }
func (e *opError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &opError{kind: kind, msg: msg}
}

var (
	errRoomNotFound     = newError(ErrNotFound, "Room not found")
	errPlayerNotFound   = newError(ErrNotFound, "Player not found")
	errNeedFourPlayers  = newError(ErrInvalidState, "Exactly 4 players are required to start the game")
	errGuessPending     = newError(ErrInvalidState, "Mantri has not guessed yet")
	errRolesNotAssigned = newError(ErrInvalidState, "Roles not assigned yet")
	errGuessResolved    = newError(ErrInvalidState, "Guess already submitted for this round")
	errRoundInProgress  = newError(ErrInvalidState, "Cannot leave while a guess is pending")
	errNotMantri        = newError(ErrForbidden, "Only Mantri can guess")
	errBlankName        = newError(ErrInvalidArgument, "Player and room names must not be blank")
	errNameTooLong      = newError(ErrInvalidArgument, fmt.Sprintf("Player and room names are limited to %d characters", MaxNameLength))
)
