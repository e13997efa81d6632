package apperror

import "errors"

// Protocol violations: the action came from the wrong seat or in the
// wrong phase. Reported to the offending sender only, state unchanged.
var (
	ErrNotYourTurn = errors.New("it's not your turn")
	ErrNotChooser  = errors.New("only the trump chooser can pick the trump suit")
	ErrWrongPhase  = errors.New("action is not valid in the current phase")
	ErrNotInRoom   = errors.New("player is not seated in this room")
	ErrGameStarted = errors.New("game has already started")
)

// Rule violations: the action is well-formed but breaks a game rule.
// Reported to the sender with the reason, state unchanged.
var (
	ErrMustFollowSuit = errors.New("you must follow the lead suit")
	ErrInvalidCard    = errors.New("invalid card index")
	ErrUnknownSuit    = errors.New("unknown trump suit")
)

// Room lookup failures: no state is created or changed.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrBadSeatCount = errors.New("seat count must be 2, 4, 6 or 8")
)

// ErrInvariant marks a room-level inconsistency that should never occur
// during correct operation. Unlike the kinds above it is not recoverable
// by the sender and is surfaced loudly.
var ErrInvariant = errors.New("room state invariant violated")
