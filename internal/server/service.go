package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokertables/internal/bot"
	"github.com/lox/pokertables/internal/deck"
	"github.com/lox/pokertables/internal/game"
	"github.com/lox/pokertables/internal/gameid"
	"github.com/lox/pokertables/internal/store"
)

// Notifier is told about every state change. It is called while the game is
// locked and must not keep g or block.
type Notifier interface {
	GameUpdated(g *game.Game)
}

// ResultStatus is how a submitted action was handled
type ResultStatus string

const (
	ResultContinue      ResultStatus = "continue"
	ResultRoundAdvanced ResultStatus = "round_advanced"
	ResultHandOver      ResultStatus = "hand_over"
	ResultRejected      ResultStatus = "rejected"
)

func resultFromOutcome(o game.Outcome) ResultStatus {
	switch o {
	case game.OutcomeRoundAdvanced:
		return ResultRoundAdvanced
	case game.OutcomeHandOver:
		return ResultHandOver
	default:
		return ResultContinue
	}
}

// ActionResult is returned from SubmitAction
type ActionResult struct {
	Status ResultStatus `json:"status"`
	Reason string       `json:"reason,omitempty"`
	State  GameState    `json:"state"`
}

// Option configures a Service
type Option func(*Service)

// WithClock sets the clock used to pace bot turns
func WithClock(clock quartz.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithBotDelay sets the pause before each bot turn
func WithBotDelay(d time.Duration) Option {
	return func(s *Service) { s.botDelay = d }
}

// WithNotifier sets who hears about state changes
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithSeed makes deals and bot decisions reproducible. Zero picks a random
// seed per game.
func WithSeed(seed int64) Option {
	return func(s *Service) { s.seed = seed }
}

// WithBotOptions tunes the bot policy
func WithBotOptions(opts bot.Options) Option {
	return func(s *Service) { s.botOptions = opts }
}

type noopNotifier struct{}

func (noopNotifier) GameUpdated(*game.Game) {}

// Service runs games: it serializes actions per game, persists every change,
// notifies listeners and plays bot seats.
type Service struct {
	games  store.GameStore
	tables store.TableRepository
	users  store.UserRepository

	notifier   Notifier
	clock      quartz.Clock
	botDelay   time.Duration
	botOptions bot.Options
	seed       int64
	logger     *log.Logger

	locks     *keyedMutex
	scheduler *botScheduler

	policyMu sync.Mutex
	policy   *bot.Policy

	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates a game service
func NewService(games store.GameStore, tables store.TableRepository, users store.UserRepository, logger *log.Logger, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		games:      games,
		tables:     tables,
		users:      users,
		notifier:   noopNotifier{},
		clock:      quartz.NewReal(),
		botDelay:   time.Second,
		botOptions: bot.DefaultOptions(),
		logger:     logger.WithPrefix("service"),
		locks:      newKeyedMutex(),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	rng := deck.NewRNG(s.seed)
	if s.seed == 0 {
		rng = deck.NewRNG(rand.Int64())
	}
	s.policy = bot.NewPolicy(rng, s.botOptions, logger)
	s.scheduler = newBotScheduler(s.clock, s.botDelay, s.playBotTurn, s.logger)
	return s
}

// SetNotifier replaces the notifier. It must be called before any game starts.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Close stops scheduling bot turns
func (s *Service) Close() {
	s.scheduler.Stop()
	s.cancel()
}

// StartGame seats the given players plus the table's bots and deals the
// first hand
func (s *Service) StartGame(ctx context.Context, tableID string, playerIDs []string) (GameState, error) {
	unlock := s.locks.Lock("table:" + tableID)
	defer unlock()

	table, err := s.tables.GetTable(ctx, tableID)
	if errors.Is(err, store.ErrNotFound) {
		return GameState{}, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	if err != nil {
		return GameState{}, err
	}

	existing, err := s.games.ActiveGameForTable(ctx, tableID)
	switch {
	case err == nil:
		return GameState{}, fmt.Errorf("%w: %s is running on %s", ErrGameExists, existing, tableID)
	case !errors.Is(err, store.ErrNotFound):
		return GameState{}, err
	}

	if len(playerIDs) > table.MaxSeats {
		return GameState{}, fmt.Errorf("%w: %d players for %d seats", ErrTooManyPlayers, len(playerIDs), table.MaxSeats)
	}
	users, err := s.users.GetUsers(ctx, playerIDs)
	if errors.Is(err, store.ErrNotFound) {
		return GameState{}, fmt.Errorf("%w: %w", ErrPlayerNotFound, err)
	}
	if err != nil {
		return GameState{}, err
	}

	players := make([]game.Player, 0, table.MaxSeats)
	for _, u := range users {
		players = append(players, game.Player{ID: u.ID, Chips: u.Chips})
	}
	bots := min(table.BotCount, table.MaxSeats-len(players))
	for i := 1; i <= bots; i++ {
		players = append(players, game.Player{ID: fmt.Sprintf("bot-%d", i), Chips: table.BotChips, Bot: true})
	}

	seed := s.seed
	if seed == 0 {
		seed = rand.Int64()
	}
	g, err := game.NewGame(game.Config{
		ID:         gameid.New(),
		TableID:    table.ID,
		SmallBlind: table.SmallBlind,
		BigBlind:   table.BigBlind,
		Seed:       seed,
	}, players)
	switch {
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return GameState{}, fmt.Errorf("%w: %w", ErrNotEnoughPlayers, err)
	case err != nil:
		return GameState{}, err
	}

	unlockGame := s.locks.Lock(g.ID)
	defer unlockGame()

	if err := s.commit(ctx, g); err != nil {
		return GameState{}, err
	}
	s.logger.Info("Game started",
		"game", g.ID,
		"table", tableID,
		"players", len(users),
		"bots", bots,
		"seed", seed)
	return s.state(g, ""), nil
}

// SubmitAction applies a player's action. Rejected actions return a result
// with ResultRejected alongside an error wrapping game.ErrIllegalAction.
func (s *Service) SubmitAction(ctx context.Context, gameID, playerID, action string, amount int) (ActionResult, error) {
	unlock := s.locks.Lock(gameID)
	defer unlock()

	g, err := s.load(ctx, gameID)
	if err != nil {
		return ActionResult{}, err
	}

	actionType, err := game.ParseAction(action)
	if err != nil {
		return s.rejected(g, playerID, err), err
	}

	outcome, err := g.Apply(playerID, actionType, amount)
	switch {
	case errors.Is(err, game.ErrNotFound):
		return ActionResult{}, fmt.Errorf("%w: %s in game %s", ErrPlayerNotFound, playerID, gameID)
	case errors.Is(err, game.ErrIllegalAction):
		s.logger.Debug("Action rejected", "game", gameID, "player", playerID, "action", action, "error", err)
		return s.rejected(g, playerID, err), err
	case errors.Is(err, game.ErrIntegrity):
		// the hand was aborted and refunded, the game itself is consistent
		s.logger.Error("Hand aborted", "game", gameID, "hand", g.HandNumber, "error", err)
	case err != nil:
		return ActionResult{}, err
	}

	s.logger.Debug("Action applied",
		"game", gameID,
		"player", playerID,
		"action", actionType,
		"amount", amount,
		"outcome", outcome)

	if err := s.commit(ctx, g); err != nil {
		return ActionResult{}, err
	}
	return ActionResult{Status: resultFromOutcome(outcome), State: s.state(g, playerID)}, nil
}

func (s *Service) rejected(g *game.Game, playerID string, err error) ActionResult {
	return ActionResult{Status: ResultRejected, Reason: err.Error(), State: s.state(g, playerID)}
}

// GetState returns the game as seen by viewer
func (s *Service) GetState(ctx context.Context, gameID, viewer string) (GameState, error) {
	unlock := s.locks.Lock(gameID)
	defer unlock()

	g, err := s.load(ctx, gameID)
	if err != nil {
		return GameState{}, err
	}
	return s.state(g, viewer), nil
}

// LeaveGame sits the player out for the rest of the game, folding any hand
// in progress. The player's stack is written back to their account once no
// chips of theirs are left in the pot.
func (s *Service) LeaveGame(ctx context.Context, gameID, playerID string) (GameState, error) {
	unlock := s.locks.Lock(gameID)
	defer unlock()

	g, err := s.load(ctx, gameID)
	if err != nil {
		return GameState{}, err
	}

	_, err = g.Leave(playerID)
	switch {
	case errors.Is(err, game.ErrNotFound):
		return GameState{}, fmt.Errorf("%w: %s in game %s", ErrPlayerNotFound, playerID, gameID)
	case errors.Is(err, game.ErrIntegrity):
		s.logger.Error("Hand aborted", "game", gameID, "error", err)
	case err != nil:
		return GameState{}, err
	}

	seat, _ := g.Seat(playerID)
	s.logger.Info("Player left", "game", gameID, "player", playerID, "chips", seat.Chips)

	if err := s.commit(ctx, g); err != nil {
		return GameState{}, err
	}
	return s.state(g, playerID), nil
}

// BotTurnPending reports whether a bot turn is scheduled for the game
func (s *Service) BotTurnPending(gameID string) bool {
	return s.scheduler.Pending(gameID)
}

func (s *Service) load(ctx context.Context, gameID string) (*game.Game, error) {
	g, err := s.games.LoadGame(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if err != nil {
		s.logger.Error("Failed to load game", "game", gameID, "error", err)
		return nil, err
	}
	return g, nil
}

// commit pays out settled stacks, saves g, queues the next bot turn and tells
// the notifier. The game lock must be held.
func (s *Service) commit(ctx context.Context, g *game.Game) error {
	s.cashOut(ctx, g)
	if err := s.games.SaveGame(ctx, g); err != nil {
		s.logger.Error("Failed to save game", "game", g.ID, "error", err)
		return err
	}

	if g.Status == game.StatusFinished {
		s.scheduler.Cancel(g.ID)
		s.logger.Info("Game finished",
			"game", g.ID,
			"hands", g.HandNumber,
			"winner", g.Winner,
			"winners", g.Winners)
	} else if seat := g.CurrentSeat(); seat != nil && seat.Bot {
		s.scheduler.Schedule(g.ID)
	}

	s.notifier.GameUpdated(g)
	return nil
}

// cashOut writes final stacks back to player accounts: every seat once the
// game is over, and a seat that left as soon as it has nothing in the pot.
// Each seat is paid out once.
func (s *Service) cashOut(ctx context.Context, g *game.Game) {
	for _, seat := range g.Seats {
		if seat.Bot || seat.CashedOut {
			continue
		}
		if g.Status != game.StatusFinished && (!seat.SittingOut || seat.Committed > 0) {
			continue
		}
		if err := s.users.UpdateChips(ctx, seat.PlayerID, seat.Chips); err != nil {
			s.logger.Error("Failed to update chips", "game", g.ID, "player", seat.PlayerID, "error", err)
			continue
		}
		seat.CashedOut = true
		s.logger.Debug("Chips returned", "game", g.ID, "player", seat.PlayerID, "chips", seat.Chips)
	}
}

// playBotTurn runs when a scheduled bot turn fires. A failed turn leaves the
// game as it was and is tried again later.
func (s *Service) playBotTurn(gameID string) {
	unlock := s.locks.Lock(gameID)
	defer unlock()

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	err := s.botTurn(ctx, gameID)
	switch {
	case err == nil:
		s.scheduler.Succeeded(gameID)
	case errors.Is(err, ErrGameNotFound), s.ctx.Err() != nil:
		s.logger.Warn("Bot turn dropped", "game", gameID, "error", err)
	default:
		s.logger.Warn("Bot turn failed", "game", gameID, "error", err)
		s.scheduler.Retry(gameID)
	}
}

func (s *Service) botTurn(ctx context.Context, gameID string) error {
	g, err := s.load(ctx, gameID)
	if err != nil {
		return err
	}
	seat := g.CurrentSeat()
	if g.Status != game.StatusActive || seat == nil || !seat.Bot {
		return nil
	}

	s.policyMu.Lock()
	decision, err := s.policy.Decide(g, seat.PlayerID)
	s.policyMu.Unlock()
	if err != nil {
		return fmt.Errorf("bot %s decision: %w", seat.PlayerID, err)
	}

	outcome, err := g.Apply(seat.PlayerID, decision.Action, decision.Amount)
	switch {
	case errors.Is(err, game.ErrIntegrity):
		s.logger.Error("Hand aborted", "game", gameID, "error", err)
	case err != nil:
		return fmt.Errorf("bot %s %s %d rejected: %w", seat.PlayerID, decision.Action, decision.Amount, err)
	}

	s.logger.Debug("Bot acted",
		"game", gameID,
		"player", seat.PlayerID,
		"action", decision.Action,
		"amount", decision.Amount,
		"outcome", outcome)

	return s.commit(ctx, g)
}

func (s *Service) state(g *game.Game, viewer string) GameState {
	state := NewGameState(g, viewer)
	state.BotTurnPending = s.scheduler.Pending(g.ID)
	return state
}
