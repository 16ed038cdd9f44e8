package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/pokertables/internal/config"
)

func levelStyle(label, color string) lipgloss.Style {
	return lipgloss.NewStyle().
		SetString(label).
		Bold(true).
		MaxWidth(4).
		Foreground(lipgloss.Color(color))
}

// newLogger builds the root logger at the configured level
func newLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
	})

	styles := log.DefaultStyles()
	styles.Levels[log.DebugLevel] = levelStyle("DEBU", "63")
	styles.Levels[log.InfoLevel] = levelStyle("INFO", "86")
	styles.Levels[log.WarnLevel] = levelStyle("WARN", "192")
	styles.Levels[log.ErrorLevel] = levelStyle("ERRO", "204")
	styles.Keys["game"] = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	logger.SetStyles(styles)
	return logger, nil
}

// loadConfig reads and validates the config file, applying CLI overrides
func loadConfig(cli *CLI) (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, nil, err
	}
	if cli.LogLevel != "" {
		cfg.Server.LogLevel = cli.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.Server.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
