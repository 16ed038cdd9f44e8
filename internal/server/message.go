package server

import (
	"encoding/json"
	"time"
)

// MessageType identifies the payload carried by a Message
type MessageType string

// Client → server
const (
	MessageTypeSubscribe MessageType = "subscribe"
	MessageTypeStart     MessageType = "start"
	MessageTypeAction    MessageType = "action"
	MessageTypeLeave     MessageType = "leave"
	MessageTypeState     MessageType = "state"
)

// Server → client. State doubles as the reply to a state request.
const (
	MessageTypeResult MessageType = "result"
	MessageTypeError  MessageType = "error"
)

func (t MessageType) String() string { return string(t) }

// Message is the envelope for everything sent over the websocket
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

type SubscribeData struct {
	GameID string `json:"game_id"`
}

type StartData struct {
	TableID string   `json:"table_id"`
	Players []string `json:"players"`
}

type ActionData struct {
	GameID string `json:"game_id,omitempty"`
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

type LeaveData struct {
	GameID string `json:"game_id,omitempty"`
}

type StateRequestData struct {
	GameID string `json:"game_id,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
