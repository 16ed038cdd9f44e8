package main

import (
	"context"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/lox/pokertables/internal/server"
	"github.com/lox/pokertables/internal/store"
)

type ServeCmd struct {
	Addr string `short:"a" help:"Address to bind to, host:port (overrides config)"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, logger, err := loadConfig(cli)
	if err != nil {
		return err
	}
	delay, err := cfg.BotDelay()
	if err != nil {
		return err
	}
	addr := cfg.ListenAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	games, err := store.OpenGameStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = games.Close() }()

	accounts := store.NewMemoryFromConfig(cfg)
	svc := server.NewService(games, accounts, accounts, logger,
		server.WithBotDelay(delay),
		server.WithSeed(cfg.Server.Seed),
	)
	defer svc.Close()
	hub := server.NewHub(svc, logger)

	logger.Info("Starting Holdem Server",
		"addr", addr,
		"store", cfg.Store.Driver,
		"tables", len(cfg.Tables),
		"players", len(cfg.Players),
		"botDelay", delay)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.ListenAndServe(ctx, addr)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
