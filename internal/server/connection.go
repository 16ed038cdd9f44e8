package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Per-request budget for service calls made on behalf of the client
	requestTimeout = 5 * time.Second
)

var ErrConnectionClosed = errors.New("connection closed")

// Connection is one client's websocket. The player id is fixed at upgrade
// time; the subscribed game changes with subscribe and start messages.
type Connection struct {
	conn     *websocket.Conn
	send     chan *Message
	playerID string
	hub      *Hub
	logger   *log.Logger

	mu     sync.RWMutex
	gameID string

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	sendMu    sync.Mutex
	closed    bool
}

func newConnection(conn *websocket.Conn, playerID string, hub *Hub) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:     conn,
		send:     make(chan *Message, 256),
		playerID: playerID,
		hub:      hub,
		logger:   hub.logger.WithPrefix("conn").With("player", playerID),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.sendMu.Lock()
		c.closed = true
		close(c.send)
		c.sendMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// Done is closed once the connection shuts down
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// SendMessage queues a message for the client. A full buffer closes the
// connection.
func (c *Connection) SendMessage(msg *Message) error {
	c.sendMu.Lock()
	if c.closed {
		c.sendMu.Unlock()
		return ErrConnectionClosed
	}
	select {
	case c.send <- msg:
		c.sendMu.Unlock()
		return nil
	default:
		c.sendMu.Unlock()
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// Player returns the player behind the connection
func (c *Connection) Player() string {
	return c.playerID
}

// SetGame subscribes the connection to a game's updates
func (c *Connection) SetGame(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameID = gameID
}

// Game returns the subscribed game id
func (c *Connection) Game() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gameID
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "request", msg.RequestID)

	ctx, cancel := context.WithTimeout(c.ctx, requestTimeout)
	defer cancel()

	switch msg.Type {
	case MessageTypeSubscribe:
		var data SubscribeData
		if !c.decode(msg, &data) {
			return
		}
		state, err := c.hub.service.GetState(ctx, data.GameID, c.playerID)
		if err != nil {
			c.sendError(msg, err)
			return
		}
		c.SetGame(data.GameID)
		c.reply(msg, MessageTypeState, state)

	case MessageTypeStart:
		var data StartData
		if !c.decode(msg, &data) {
			return
		}
		state, err := c.hub.service.StartGame(ctx, data.TableID, data.Players)
		if err != nil {
			c.sendError(msg, err)
			return
		}
		c.SetGame(state.ID)
		if state, err = c.hub.service.GetState(ctx, state.ID, c.playerID); err != nil {
			c.sendError(msg, err)
			return
		}
		c.reply(msg, MessageTypeState, state)

	case MessageTypeAction:
		var data ActionData
		if !c.decode(msg, &data) {
			return
		}
		result, err := c.hub.service.SubmitAction(ctx, c.gameFor(data.GameID), c.playerID, data.Action, data.Amount)
		if err != nil && result.Status != ResultRejected {
			c.sendError(msg, err)
			return
		}
		c.reply(msg, MessageTypeResult, result)

	case MessageTypeLeave:
		var data LeaveData
		if !c.decode(msg, &data) {
			return
		}
		state, err := c.hub.service.LeaveGame(ctx, c.gameFor(data.GameID), c.playerID)
		if err != nil {
			c.sendError(msg, err)
			return
		}
		c.reply(msg, MessageTypeState, state)

	case MessageTypeState:
		var data StateRequestData
		if !c.decode(msg, &data) {
			return
		}
		state, err := c.hub.service.GetState(ctx, c.gameFor(data.GameID), c.playerID)
		if err != nil {
			c.sendError(msg, err)
			return
		}
		c.reply(msg, MessageTypeState, state)

	default:
		c.sendErrorCode(msg, "unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// gameFor falls back to the subscribed game when the request names none
func (c *Connection) gameFor(gameID string) string {
	if gameID != "" {
		return gameID
	}
	return c.Game()
}

func (c *Connection) decode(msg *Message, v any) bool {
	if len(msg.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		c.sendErrorCode(msg, "invalid_message", "Failed to parse "+msg.Type.String()+" data")
		return false
	}
	return true
}

func (c *Connection) reply(req *Message, typ MessageType, data any) {
	out, err := NewMessage(typ, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", typ, "error", err)
		return
	}
	out.RequestID = req.RequestID
	_ = c.SendMessage(out)
}

func (c *Connection) sendError(req *Message, err error) {
	c.sendErrorCode(req, errorCode(err), err.Error())
}

func (c *Connection) sendErrorCode(req *Message, code, message string) {
	c.logger.Warn("Request failed", "type", req.Type, "code", code, "error", message)
	c.reply(req, MessageTypeError, ErrorData{Code: code, Message: message})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrGameNotFound):
		return "game_not_found"
	case errors.Is(err, ErrTableNotFound):
		return "table_not_found"
	case errors.Is(err, ErrPlayerNotFound):
		return "player_not_found"
	case errors.Is(err, ErrGameExists):
		return "game_exists"
	case errors.Is(err, ErrNotEnoughPlayers), errors.Is(err, ErrTooManyPlayers):
		return "bad_players"
	default:
		return "internal_error"
	}
}
