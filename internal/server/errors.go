package server

import "errors"

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrTableNotFound    = errors.New("table not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrGameExists       = errors.New("table already has an active game")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrTooManyPlayers   = errors.New("more players than seats")
)
