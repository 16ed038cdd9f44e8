package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokertables/internal/game"
	"github.com/lox/pokertables/internal/server"
	"github.com/lox/pokertables/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))
)

type SimulateCmd struct {
	Games   int           `short:"g" default:"4" help:"Number of games to run concurrently"`
	Bots    int           `short:"b" help:"Bots per game (defaults to the table's bot count)"`
	Table   string        `short:"t" help:"Table config to copy (defaults to the first table)"`
	Timeout time.Duration `default:"1m" help:"Give up on games still running after this long"`
}

// finishWatcher signals when games finish
type finishWatcher struct {
	mu       sync.Mutex
	finished map[string]chan struct{}
}

func (w *finishWatcher) ch(id string) chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished == nil {
		w.finished = make(map[string]chan struct{})
	}
	c, ok := w.finished[id]
	if !ok {
		c = make(chan struct{})
		w.finished[id] = c
	}
	return c
}

func (w *finishWatcher) GameUpdated(g *game.Game) {
	if g.Status != game.StatusFinished {
		return
	}
	c := w.ch(g.ID)
	select {
	case <-c:
	default:
		close(c)
	}
}

func (c *SimulateCmd) Run(cli *CLI) error {
	cfg, logger, err := loadConfig(cli)
	if err != nil {
		return err
	}

	tableCfg := &cfg.Tables[0]
	if c.Table != "" {
		if tableCfg = cfg.Table(c.Table); tableCfg == nil {
			return fmt.Errorf("unknown table %q", c.Table)
		}
	}
	bots := tableCfg.BotCount
	if c.Bots > 0 {
		bots = c.Bots
	}
	if bots < 2 || bots > tableCfg.MaxSeats {
		return fmt.Errorf("need between 2 and %d bots, got %d", tableCfg.MaxSeats, bots)
	}

	mem := store.NewMemory()
	for i := 1; i <= c.Games; i++ {
		mem.PutTable(store.Table{
			ID:         fmt.Sprintf("sim-%d", i),
			SmallBlind: tableCfg.SmallBlind,
			BigBlind:   tableCfg.BigBlind,
			MaxSeats:   tableCfg.MaxSeats,
			BotCount:   bots,
			BotChips:   tableCfg.BotChips,
		})
	}

	watcher := &finishWatcher{}
	svc := server.NewService(mem, mem, mem, logger,
		server.WithBotDelay(0),
		server.WithSeed(cfg.Server.Seed),
		server.WithNotifier(watcher),
	)
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	logger.Info("Starting simulation", "games", c.Games, "bots", bots, "table", tableCfg.Name)
	start := time.Now()

	results := make([]server.GameState, c.Games)
	g, gctx := errgroup.WithContext(ctx)
	for i := range c.Games {
		g.Go(func() error {
			state, err := svc.StartGame(gctx, fmt.Sprintf("sim-%d", i+1), nil)
			if err != nil {
				return err
			}
			select {
			case <-watcher.ch(state.ID):
			case <-gctx.Done():
				logger.Warn("Game still running", "game", state.ID)
			}
			results[i], err = svc.GetState(context.Background(), state.ID, "")
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Simulation complete", "elapsed", time.Since(start).Round(time.Millisecond))
	printResults(results)
	return nil
}

func printResults(results []server.GameState) {
	fmt.Println(headerStyle.Render("Simulation results"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TABLE\tSTATUS\tHANDS\tWINNER\tCHIPS")
	for _, r := range results {
		chips := 0
		for _, s := range r.Seats {
			chips += s.Chips
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\n", r.TableID, r.Status, r.HandNumber, winStyle.Render(r.Winner), chips)
	}
	_ = w.Flush()
}
