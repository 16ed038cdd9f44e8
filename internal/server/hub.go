package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/pokertables/internal/game"
)

// Hub serves the websocket API and pushes game updates to subscribed
// connections. It implements Notifier.
type Hub struct {
	service  *Service
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu          sync.RWMutex
	connections map[*Connection]struct{}
}

// NewHub creates a hub for the service and registers it as the service's
// notifier
func NewHub(service *Service, logger *log.Logger) *Hub {
	h := &Hub{
		service: service,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Identity comes from the auth layer in front of us
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.WithPrefix("hub"),
		connections: make(map[*Connection]struct{}),
	}
	service.SetNotifier(h)
	return h
}

// Handler returns the HTTP routes served by the hub
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/health", h.handleHealth)
	return mux
}

// ListenAndServe serves until ctx is cancelled
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("Starting WebSocket server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	h.logger.Info("Shutting down WebSocket server")
	h.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// GameUpdated sends each subscriber its own view of the game
func (h *Hub) GameUpdated(g *game.Game) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	pending := h.service.BotTurnPending(g.ID)
	count := 0
	for conn := range h.connections {
		if conn.Game() != g.ID {
			continue
		}
		state := NewGameState(g, conn.Player())
		state.BotTurnPending = pending
		msg, err := NewMessage(MessageTypeState, state)
		if err != nil {
			h.logger.Error("Failed to create state message", "game", g.ID, "error", err)
			return
		}
		if err := conn.SendMessage(msg); err != nil {
			h.logger.Warn("Dropped update", "game", g.ID, "player", conn.Player(), "error", err)
			continue
		}
		count++
	}

	h.logger.Debug("Broadcast game state", "game", g.ID, "phase", g.Phase, "recipients", count)
}

// Connections returns how many clients are connected
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		http.Error(w, "player is required", http.StatusBadRequest)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(ws, playerID, h)
	if gameID := r.URL.Query().Get("game"); gameID != "" {
		conn.SetGame(gameID)
	}
	h.register(conn)
	conn.Start()

	go func() {
		<-conn.Done()
		h.unregister(conn)
	}()
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (h *Hub) register(conn *Connection) {
	h.mu.Lock()
	h.connections[conn] = struct{}{}
	total := len(h.connections)
	h.mu.Unlock()
	h.logger.Info("Client connected", "player", conn.Player(), "total", total)
}

func (h *Hub) unregister(conn *Connection) {
	h.mu.Lock()
	delete(h.connections, conn)
	total := len(h.connections)
	h.mu.Unlock()
	h.logger.Info("Client disconnected", "player", conn.Player(), "total", total)
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.connections))
	for conn := range h.connections {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}
