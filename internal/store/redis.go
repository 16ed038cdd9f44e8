package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lox/pokertables/internal/game"
)

// Redis keeps each game as a JSON string under game:<id>, plus a
// table:<id>:active pointer to the table's running game
type Redis struct {
	rdb *redis.Client
}

// RedisOptions selects the server to connect to
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis connects and pings the server
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return NewRedisFromClient(rdb), nil
}

// NewRedisFromClient wraps an existing client
func NewRedisFromClient(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func gameKey(id string) string { return "game:" + id }

func activeKey(tableID string) string { return "table:" + tableID + ":active" }

func (r *Redis) LoadGame(ctx context.Context, id string) (*game.Game, error) {
	data, err := r.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}

	var g game.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return &g, nil
}

func (r *Redis) SaveGame(ctx context.Context, g *game.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", g.ID, err)
	}

	active := activeKey(g.TableID)
	current, err := r.rdb.Get(ctx, active).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("read active game for table %s: %w", g.TableID, err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, gameKey(g.ID), data, 0)
		switch {
		case g.Status == game.StatusActive:
			pipe.Set(ctx, active, g.ID, 0)
		case current == g.ID:
			pipe.Del(ctx, active)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	return nil
}

func (r *Redis) ActiveGameForTable(ctx context.Context, tableID string) (string, error) {
	id, err := r.rdb.Get(ctx, activeKey(tableID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("active game for table %s: %w", tableID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read active game for table %s: %w", tableID, err)
	}
	return id, nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
