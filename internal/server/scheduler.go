package server

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

const (
	// minRetryDelay keeps zero-delay schedulers from spinning on failures
	minRetryDelay = 100 * time.Millisecond
	maxRetryDelay = 30 * time.Second
)

// botScheduler defers automated turns. At most one turn is pending per game.
type botScheduler struct {
	clock  quartz.Clock
	delay  time.Duration
	run    func(gameID string)
	logger *log.Logger

	mu       sync.Mutex
	seq      uint64
	pending  map[string]*pendingTurn
	failures map[string]int
	stopped  bool
}

type pendingTurn struct {
	seq   uint64
	timer *quartz.Timer
}

func newBotScheduler(clock quartz.Clock, delay time.Duration, run func(string), logger *log.Logger) *botScheduler {
	return &botScheduler{
		clock:    clock,
		delay:    delay,
		run:      run,
		logger:   logger.WithPrefix("scheduler"),
		pending:  make(map[string]*pendingTurn),
		failures: make(map[string]int),
	}
}

// Schedule queues a bot turn for the game unless one is already waiting.
// It reports whether a new turn was queued.
func (s *botScheduler) Schedule(gameID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(gameID, s.delay)
}

// Retry queues another attempt after a failed turn. Each consecutive failure
// doubles the wait, up to maxRetryDelay.
func (s *botScheduler) Retry(gameID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[gameID]++
	delay := retryDelay(s.delay, s.failures[gameID])
	s.logger.Debug("Bot turn retry", "game", gameID, "attempt", s.failures[gameID], "delay", delay)
	return s.scheduleLocked(gameID, delay)
}

// Succeeded resets the game's failure count
func (s *botScheduler) Succeeded(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, gameID)
}

func retryDelay(base time.Duration, failures int) time.Duration {
	d := max(base, minRetryDelay)
	for i := 1; i < failures && d < maxRetryDelay; i++ {
		d *= 2
	}
	return min(d, maxRetryDelay)
}

func (s *botScheduler) scheduleLocked(gameID string, delay time.Duration) bool {
	if s.stopped {
		return false
	}
	if _, ok := s.pending[gameID]; ok {
		return false
	}

	s.seq++
	turn := &pendingTurn{seq: s.seq}
	seq := turn.seq
	turn.timer = s.clock.AfterFunc(delay, func() { s.fire(gameID, seq) }, "bot", gameID)
	s.pending[gameID] = turn

	s.logger.Debug("Bot turn scheduled", "game", gameID, "delay", delay)
	return true
}

func (s *botScheduler) fire(gameID string, seq uint64) {
	s.mu.Lock()
	turn, ok := s.pending[gameID]
	if !ok || turn.seq != seq {
		s.mu.Unlock()
		return
	}
	delete(s.pending, gameID)
	s.mu.Unlock()

	s.run(gameID)
}

// Cancel drops the game's pending turn, if any
func (s *botScheduler) Cancel(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.failures, gameID)
	if turn, ok := s.pending[gameID]; ok {
		turn.timer.Stop()
		delete(s.pending, gameID)
		s.logger.Debug("Bot turn cancelled", "game", gameID)
	}
}

// Pending reports whether a bot turn is waiting for the game
func (s *botScheduler) Pending(gameID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[gameID]
	return ok
}

// Stop cancels every pending turn and refuses new ones
func (s *botScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	clear(s.failures)
	for id, turn := range s.pending {
		turn.timer.Stop()
		delete(s.pending, id)
	}
}
