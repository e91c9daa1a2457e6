package session

import "errors"

// CommandError is an illegal but well-formed action. It is always recoverable
// and its reason is reported to the client verbatim after "FAIL ".
//
// Invariant: a returned CommandError means no session state was changed,
// except for ErrMissed, which still spends the attacker's turn.
type CommandError struct {
	Reason string
}

// Error returns the client-facing reason.
func (e *CommandError) Error() string { return e.Reason }

func failure(reason string) *CommandError { return &CommandError{Reason: reason} }

// Command failures.
var (
	ErrGameNotStarted  = failure("Game has not started")
	ErrNotYourTurn     = failure("It is not your turn")
	ErrGameOver        = failure("the game is over")
	ErrNoActionPoints  = failure("no action points left")
	ErrBlocked         = failure("can't move into a wall")
	ErrOccupied        = failure("can't move into a player")
	ErrInvalidPosition = failure("invalid position")
	ErrNotWalkable     = failure("cannot walk on this tile")
	ErrNothingToPickUp = failure("nothing to pick up")
	ErrAlreadyHeld     = failure("already have item")
	ErrNoTarget        = failure("There is no player there.")
	ErrNoGold          = failure("You Have no Gold")
	ErrMissed          = failure("You Missed the target.")
	ErrNameAlreadySet  = failure("player's name already set")
)

// ErrIllegalState reports a violated engine invariant, such as an unknown
// player id or a map with no free tile left for a spawn. It is not reachable
// through well-behaved protocol use.
var ErrIllegalState = errors.New("illegal session state")
