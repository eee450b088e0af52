package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/dealerd/internal/audit"
	"github.com/lox/dealerd/internal/engine"
	"github.com/lox/dealerd/internal/game"
	"github.com/lox/dealerd/internal/natsbus"
)

type memCache struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

func newMemCache() *memCache {
	return &memCache{data: map[string]map[string]string{}}
}

func (c *memCache) HSet(_ context.Context, key string, fields map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data[key] == nil {
		c.data[key] = map[string]string{}
	}
	for k, v := range fields {
		c.data[key][k] = v
	}
	return nil
}

func (c *memCache) HGet(_ context.Context, key, field string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key][field]
	return v, ok, nil
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestServer(t *testing.T) (*httptest.Server, *memCache) {
	t.Helper()
	logger := testLogger()
	cache := newMemCache()
	hub := NewHub(logger)
	registry := engine.NewRegistry(cache, natsbus.Noop{}, audit.Noop{}, noopLocker{}, hub, logger)
	srv := NewServer("127.0.0.1:0", registry, cache, hub, logger)

	ts := httptest.NewServer(srv.httpSrv.Handler)
	t.Cleanup(func() {
		ts.Close()
		registry.Close()
	})
	return ts, cache
}

func dialTable(t *testing.T, ts *httptest.Server, tableID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + tableID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendAction(t *testing.T, conn *websocket.Conn, a game.Action) {
	t.Helper()
	msg := struct {
		Type string `json:"type"`
		game.Action
	}{Type: "action", Action: a}
	require.NoError(t, conn.WriteJSON(msg))
}

func readUpdate(t *testing.T, conn *websocket.Conn) engine.UpdateEnvelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env engine.UpdateEnvelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMissingTableIDRejected(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/ws/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func TestJoinOverWebSocket(t *testing.T) {
	ts, cache := newTestServer(t)
	conn := dialTable(t, ts, "t1")

	sendAction(t, conn, game.Action{Kind: game.ActionJoin, PlayerID: "p0", Username: "alice", Buyin: 500})

	env := readUpdate(t, conn)
	assert.Equal(t, "update", env.Type)
	assert.Equal(t, "t1", env.TableID)
	assert.Equal(t, uint64(2), env.Seq)
	require.Len(t, env.Events, 2, "player_joined and state_update payloads")
	joined, ok := env.Events[0].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, joined, "player")

	var state map[string]any
	require.NoError(t, json.Unmarshal(env.State, &state))
	assert.Equal(t, "waiting", state["phase"])

	// Snapshot also landed in the cache for late joiners
	_, ok, err := cache.HGet(context.Background(), "table:t1:state", "data")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHandStartBroadcastToAllSockets(t *testing.T) {
	ts, _ := newTestServer(t)
	conn1 := dialTable(t, ts, "t1")

	sendAction(t, conn1, game.Action{Kind: game.ActionJoin, PlayerID: "p0", Buyin: 1000})
	readUpdate(t, conn1)

	conn2 := dialTable(t, ts, "t1")
	// Late joiner gets the cached snapshot replayed with seq 0
	replay := readUpdate(t, conn2)
	assert.Equal(t, uint64(0), replay.Seq)
	assert.Empty(t, replay.Events)

	sendAction(t, conn2, game.Action{Kind: game.ActionJoin, PlayerID: "p1", Buyin: 1000})

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		env := readUpdate(t, conn)

		// The hand_started payload carries the pre-shuffle commitment
		committed := false
		for _, ev := range env.Events {
			if payload, ok := ev.(map[string]any); ok {
				if _, ok := payload["commitment"]; ok {
					committed = true
				}
			}
		}
		assert.True(t, committed, "hand_started payload expected in the update")

		var state map[string]any
		require.NoError(t, json.Unmarshal(env.State, &state))
		assert.Equal(t, "preflop", state["phase"])
	}
}

func TestSnapshotReplayIsFirstFrame(t *testing.T) {
	ts, _ := newTestServer(t)
	conn1 := dialTable(t, ts, "t1")

	sendAction(t, conn1, game.Action{Kind: game.ActionJoin, PlayerID: "p0", Buyin: 1000})
	readUpdate(t, conn1)

	// Kick off a broadcast concurrently with the second client connecting.
	// Whatever the interleaving, the new socket's first frame must be the
	// cached replay, never a live update.
	sendAction(t, conn1, game.Action{Kind: game.ActionJoin, PlayerID: "p1", Buyin: 1000})
	conn2 := dialTable(t, ts, "t1")

	env := readUpdate(t, conn2)
	assert.Equal(t, uint64(0), env.Seq)
	assert.Empty(t, env.Events)

	readUpdate(t, conn1)
}

func TestNonActionMessagesIgnored(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dialTable(t, ts, "t1")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	sendAction(t, conn, game.Action{Kind: game.ActionJoin, PlayerID: "p0"})

	// Only the join produces a broadcast; the garbage is dropped silently
	env := readUpdate(t, conn)
	assert.Equal(t, uint64(2), env.Seq)
	require.Len(t, env.Events, 2)
}

func TestInitialStateReplayForEmptyTable(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dialTable(t, ts, "t1")

	// Nothing cached yet: no replay, the socket just waits for broadcasts
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "no message expected before any action")
}
