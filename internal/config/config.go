package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// DefaultFile is the config file read when no path is given
const DefaultFile = "holdem-server.hcl"

// Store drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config represents the complete server configuration
type Config struct {
	Server  *ServerSettings `hcl:"server,block"`
	Store   *StoreSettings  `hcl:"store,block"`
	Tables  []TableConfig   `hcl:"table,block"`
	Players []PlayerConfig  `hcl:"player,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	BotDelay string `hcl:"bot_delay,optional"`
	Seed     int64  `hcl:"seed,optional"`
}

// StoreSettings selects where game records are kept
type StoreSettings struct {
	Driver        string `hcl:"driver,optional"`
	DSN           string `hcl:"dsn,optional"`
	RedisAddr     string `hcl:"redis_addr,optional"`
	RedisPassword string `hcl:"redis_password,optional"`
	RedisDB       int    `hcl:"redis_db,optional"`
}

// TableConfig defines a poker table
type TableConfig struct {
	Name       string `hcl:"name,label"`
	SmallBlind int    `hcl:"small_blind"`
	BigBlind   int    `hcl:"big_blind"`
	MaxSeats   int    `hcl:"max_seats,optional"`
	BotCount   int    `hcl:"bot_count,optional"`
	BotChips   int    `hcl:"bot_chips,optional"`
}

// PlayerConfig seeds a user account and its chip balance
type PlayerConfig struct {
	ID    string `hcl:"id,label"`
	Chips int    `hcl:"chips"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	cfg := &Config{
		Tables: []TableConfig{
			{Name: "main", SmallBlind: 10, BigBlind: 20, BotCount: 2},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from an HCL file. A missing file yields defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.BotDelay == "" {
		c.Server.BotDelay = "1s"
	}

	if c.Store == nil {
		c.Store = &StoreSettings{}
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMemory
	}
	if c.Store.DSN == "" {
		c.Store.DSN = "holdem.db"
	}
	if c.Store.RedisAddr == "" {
		c.Store.RedisAddr = "localhost:6379"
	}

	for i := range c.Tables {
		if c.Tables[i].MaxSeats == 0 {
			c.Tables[i].MaxSeats = 6
		}
		if c.Tables[i].BotChips == 0 {
			c.Tables[i].BotChips = c.Tables[i].BigBlind * 50 // 50 big blinds
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := c.BotDelay(); err != nil {
		return err
	}

	switch c.Store.Driver {
	case DriverMemory, DriverSQLite, DriverRedis:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table must be configured")
	}
	seen := make(map[string]bool)
	for _, table := range c.Tables {
		if seen[table.Name] {
			return fmt.Errorf("table %s: defined twice", table.Name)
		}
		seen[table.Name] = true
		if table.SmallBlind <= 0 {
			return fmt.Errorf("table %s: small blind must be positive", table.Name)
		}
		if table.BigBlind < table.SmallBlind {
			return fmt.Errorf("table %s: big blind must not be less than small blind", table.Name)
		}
		if table.MaxSeats < 2 || table.MaxSeats > 10 {
			return fmt.Errorf("table %s: max seats must be between 2 and 10", table.Name)
		}
		if table.BotCount < 0 || table.BotCount > table.MaxSeats {
			return fmt.Errorf("table %s: bot count must be between 0 and %d", table.Name, table.MaxSeats)
		}
		if table.BotChips <= 0 {
			return fmt.Errorf("table %s: bot chips must be positive", table.Name)
		}
	}

	players := make(map[string]bool)
	for _, p := range c.Players {
		if players[p.ID] {
			return fmt.Errorf("player %s: defined twice", p.ID)
		}
		players[p.ID] = true
		if p.Chips <= 0 {
			return fmt.Errorf("player %s: chips must be positive", p.ID)
		}
	}
	return nil
}

// ListenAddress returns the host:port the server binds to
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// BotDelay parses the pause before each automated turn
func (c *Config) BotDelay() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.BotDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid bot_delay %q: %w", c.Server.BotDelay, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("bot_delay must not be negative")
	}
	return d, nil
}

// Table returns a table configuration by name
func (c *Config) Table(name string) *TableConfig {
	for i := range c.Tables {
		if c.Tables[i].Name == name {
			return &c.Tables[i]
		}
	}
	return nil
}
