package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holdem-server.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "localhost:8080", cfg.ListenAddress())
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	require.Len(t, cfg.Tables, 1)
	assert.Equal(t, 1000, cfg.Tables[0].BotChips)
	assert.Equal(t, 6, cfg.Tables[0].MaxSeats)

	delay, err := cfg.BotDelay()
	require.NoError(t, err)
	assert.Equal(t, time.Second, delay)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server {
  address   = "0.0.0.0"
  port      = 9000
  log_level = "debug"
  bot_delay = "250ms"
  seed      = 42
}

store {
  driver = "sqlite"
  dsn    = "/tmp/holdem.db"
}

table "high" {
  small_blind = 50
  big_blind   = 100
  max_seats   = 9
  bot_count   = 3
}

player "alice" {
  chips = 5000
}

player "bob" {
  chips = 2500
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddress())
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, int64(42), cfg.Server.Seed)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/holdem.db", cfg.Store.DSN)
	assert.Equal(t, "localhost:6379", cfg.Store.RedisAddr)

	table := cfg.Table("high")
	require.NotNil(t, table)
	assert.Equal(t, 9, table.MaxSeats)
	assert.Equal(t, 3, table.BotCount)
	assert.Equal(t, 5000, table.BotChips)
	assert.Nil(t, cfg.Table("missing"))

	assert.Equal(t, []PlayerConfig{{ID: "alice", Chips: 5000}, {ID: "bob", Chips: 2500}}, cfg.Players)

	delay, err := cfg.BotDelay()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, delay)
}

func TestLoadRejectsBadHCL(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, `server { port = `))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `table "x" { small_blind = 1 }`))
	assert.Error(t, err, "big_blind is required")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "invalid port"},
		{"bad delay", func(c *Config) { c.Server.BotDelay = "soon" }, "invalid bot_delay"},
		{"bad driver", func(c *Config) { c.Store.Driver = "mongo" }, "unknown store driver"},
		{"no tables", func(c *Config) { c.Tables = nil }, "at least one table"},
		{"inverted blinds", func(c *Config) { c.Tables[0].BigBlind = 5 }, "big blind"},
		{"too many seats", func(c *Config) { c.Tables[0].MaxSeats = 11 }, "max seats"},
		{"too many bots", func(c *Config) { c.Tables[0].BotCount = 7 }, "bot count"},
		{"broke player", func(c *Config) { c.Players = []PlayerConfig{{ID: "x"}} }, "chips must be positive"},
		{"duplicate player", func(c *Config) {
			c.Players = []PlayerConfig{{ID: "x", Chips: 1}, {ID: "x", Chips: 1}}
		}, "defined twice"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}
