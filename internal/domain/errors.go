package domain

import "errors"

var (
	// ErrRoomNotFound is returned when no live room matches a PIN.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNotHost is returned when a non-host issues a host-only command.
	ErrNotHost = errors.New("only the host can perform this action")
	// ErrInvalidPhase is returned when a command is not allowed in the room's current phase.
	ErrInvalidPhase = errors.New("invalid action for current phase")
	// ErrAlreadyAnswered is returned for a second submission on the same question.
	ErrAlreadyAnswered = errors.New("answer already submitted")
	// ErrPlayerNotFound is returned when a connection acts in a room it has not joined.
	ErrPlayerNotFound = errors.New("player not found in room")
	// ErrHostCannotJoin is returned when a host tries to join its own room as a player.
	ErrHostCannotJoin = errors.New("host cannot join as a player")
	// ErrNoQuestions indicates a room has nothing to play.
	ErrNoQuestions = errors.New("room has no playable questions")
	// ErrPinSpaceExhausted indicates no free PIN was found within the retry budget.
	ErrPinSpaceExhausted = errors.New("failed to allocate a unique room pin")
	// ErrBankNotFound indicates a question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrUnknownScoring indicates a scoring policy name that is not supported.
	ErrUnknownScoring = errors.New("unknown scoring policy")
)
