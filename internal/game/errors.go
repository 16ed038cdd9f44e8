package game

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalAction is returned for actions that break the rules of the
	// current betting round. The game is left unchanged.
	ErrIllegalAction = errors.New("illegal action")

	// ErrNotFound is returned when a player is not seated in the game.
	ErrNotFound = errors.New("not found")

	// ErrIntegrity marks a broken engine invariant (deck exhaustion, negative
	// stacks, pot mismatch). The hand in progress is aborted and refunded.
	ErrIntegrity = errors.New("integrity violation")

	// ErrNotEnoughPlayers is returned when fewer than two seats can play.
	ErrNotEnoughPlayers = errors.New("not enough players with chips")
)

func illegal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalAction, fmt.Sprintf(format, args...))
}

func integrity(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIntegrity, fmt.Sprintf(format, args...))
}
