package store

import (
	"context"
	"fmt"

	"github.com/lox/pokertables/internal/config"
)

// OpenGameStore builds the game store selected by configuration
func OpenGameStore(ctx context.Context, cfg *config.StoreSettings) (GameStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemory(), nil
	case config.DriverSQLite:
		s, err := NewSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverRedis:
		r, err := NewRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
