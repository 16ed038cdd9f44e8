// Package store holds the collaborators the game service talks to: table and
// user records, and the persistence of in-flight games.
package store

import (
	"context"
	"errors"

	"github.com/lox/pokertables/internal/game"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("not found")

// Table is the static description of a table games are started on
type Table struct {
	ID         string
	SmallBlind int
	BigBlind   int
	MaxSeats   int
	BotCount   int
	BotChips   int
}

// User is an account with a chip balance
type User struct {
	ID    string
	Chips int
}

// GameStore loads and saves game records. Implementations must return
// ErrNotFound for unknown ids.
type GameStore interface {
	LoadGame(ctx context.Context, id string) (*game.Game, error)
	SaveGame(ctx context.Context, g *game.Game) error
	// ActiveGameForTable returns the id of the table's unfinished game
	ActiveGameForTable(ctx context.Context, tableID string) (string, error)
	Close() error
}

// TableRepository looks up tables by id
type TableRepository interface {
	GetTable(ctx context.Context, id string) (Table, error)
}

// UserRepository reads and updates user balances
type UserRepository interface {
	GetUsers(ctx context.Context, ids []string) ([]User, error)
	UpdateChips(ctx context.Context, id string, chips int) error
}
