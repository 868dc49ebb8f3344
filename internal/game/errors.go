package game

import "github.com/myrjola/whodunit/internal/errors"

var (
	// ErrNotFound is returned for unknown sessions, scenarios, locations and characters.
	ErrNotFound = errors.NewSentinel("not found")
	// ErrCapabilityDisabled is returned when chat, investigation or voting is attempted outside its phases.
	ErrCapabilityDisabled = errors.NewSentinel("disabled in current phase")
	// ErrTransitionRejected is returned when the guard of the current phase blocks advancing.
	ErrTransitionRejected = errors.NewSentinel("phase transition rejected")
	// ErrTerminalPhase is returned when advancing past REVEAL.
	ErrTerminalPhase = errors.NewSentinel("terminal state")
	ErrDuplicateVote = errors.NewSentinel("vote already submitted")
	ErrInvalidInput  = errors.NewSentinel("invalid input")
)
