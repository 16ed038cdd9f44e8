package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) (*fixture, *httptest.Server) {
	t.Helper()
	f := newFixture(t, 0)
	hub := NewHub(f.svc, testLogger())
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)
	return f, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ MessageType, data any) {
	t.Helper()
	msg, err := NewMessage(typ, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

// expect reads until a message of the given type arrives and decodes it
func expect(t *testing.T, conn *websocket.Conn, typ MessageType, v any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == typ {
			require.NoError(t, json.Unmarshal(msg.Data, v))
			return
		}
	}
}

func TestHubPlaysAHand(t *testing.T) {
	t.Parallel()

	f, srv := newTestHub(t)
	alice := dial(t, srv, "player=alice")

	send(t, alice, MessageTypeStart, StartData{TableID: "main", Players: []string{"alice", "bob"}})
	var started GameState
	expect(t, alice, MessageTypeState, &started)
	require.NotEmpty(t, started.ID)
	seat, _ := started.Seat("alice")
	assert.Len(t, seat.HoleCards, 2)

	bob := dial(t, srv, "player=bob&game="+started.ID)
	var before GameState
	send(t, bob, MessageTypeState, StateRequestData{})
	expect(t, bob, MessageTypeState, &before)
	assert.Equal(t, "alice", before.CurrentPlayer)

	send(t, alice, MessageTypeAction, ActionData{Action: "call"})
	var result ActionResult
	expect(t, alice, MessageTypeResult, &result)
	assert.Equal(t, ResultContinue, result.Status)

	var pushed GameState
	expect(t, bob, MessageTypeState, &pushed)
	assert.Equal(t, "bob", pushed.CurrentPlayer)
	aliceView, _ := pushed.Seat("alice")
	bobView, _ := pushed.Seat("bob")
	assert.Empty(t, aliceView.HoleCards, "bob never sees alice's cards")
	assert.Len(t, bobView.HoleCards, 2)
	assert.NotEmpty(t, pushed.ValidActions)

	// rejected actions come back as results, not errors
	send(t, alice, MessageTypeAction, ActionData{Action: "check"})
	expect(t, alice, MessageTypeResult, &result)
	assert.Equal(t, ResultRejected, result.Status)
	assert.Contains(t, result.Reason, "not your turn")

	send(t, bob, MessageTypeLeave, LeaveData{})
	var left GameState
	expect(t, bob, MessageTypeState, &left)
	assert.Equal(t, "alice", left.Winner)

	state, err := f.svc.GetState(context.Background(), started.ID, "")
	require.NoError(t, err)
	assert.Equal(t, left.Status, state.Status)
}

func TestHubErrors(t *testing.T) {
	t.Parallel()

	_, srv := newTestHub(t)
	conn := dial(t, srv, "player=alice")

	var e ErrorData
	send(t, conn, MessageTypeSubscribe, SubscribeData{GameID: "missing"})
	expect(t, conn, MessageTypeError, &e)
	assert.Equal(t, "game_not_found", e.Code)

	send(t, conn, MessageTypeStart, StartData{TableID: "nope"})
	expect(t, conn, MessageTypeError, &e)
	assert.Equal(t, "table_not_found", e.Code)

	send(t, conn, MessageType("dance"), nil)
	expect(t, conn, MessageTypeError, &e)
	assert.Equal(t, "unknown_message_type", e.Code)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "action", "data": "nonsense"}))
	expect(t, conn, MessageTypeError, &e)
	assert.Equal(t, "invalid_message", e.Code)
}

func TestHubRequiresPlayer(t *testing.T) {
	t.Parallel()

	_, srv := newTestHub(t)
	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	_, srv := newTestHub(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
