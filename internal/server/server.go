// Package server exposes the per-table WebSocket endpoint. It upgrades
// sockets, subscribes them to a table's broadcast set, replays the latest
// cached snapshot, and routes client action envelopes into the table engine.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/dealerd/internal/engine"
)

// Server is the WebSocket front of the table engines.
type Server struct {
	registry *engine.Registry
	cache    engine.Cache
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *log.Logger
	httpSrv  *http.Server
}

// NewServer wires the socket layer to the engine registry and cache.
func NewServer(addr string, registry *engine.Registry, cache engine.Cache, hub *Hub, logger *log.Logger) *Server {
	s := &Server{
		registry: registry,
		cache:    cache,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Origin checking is an auth concern, out of scope here
				return true
			},
		},
		logger: logger.WithPrefix("server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/{table}", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	s.httpSrv = &http.Server{Addr: addr, Handler: mux}

	return s
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	tableID := r.PathValue("table")
	if tableID == "" {
		http.Error(w, "missing table id", http.StatusBadRequest)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	eng := s.registry.Get(tableID)
	conn := newConnection(ws, tableID, eng, s.logger)
	conn.onClose = func(c *Connection) {
		s.hub.remove(tableID, c)
		s.logger.Info("client disconnected", "table", tableID)
	}

	conn.start()
	s.logger.Info("client connected", "table", tableID)

	// Queue the replay before joining the broadcast set so the client's
	// first frame is always the seq-0 snapshot, never a live update.
	s.sendInitialState(r.Context(), conn, tableID)
	s.hub.add(tableID, conn)
}

// sendInitialState replays the latest cached snapshot so a late joiner sees
// the table before the next broadcast. Seq 0 marks it as a replay.
func (s *Server) sendInitialState(ctx context.Context, conn *Connection, tableID string) {
	data, ok, err := s.cache.HGet(ctx, "table:"+tableID+":state", "data")
	if err != nil {
		s.logger.Warn("failed to read cached state", "table", tableID, "error", err)
		return
	}
	if !ok {
		return
	}

	update, err := json.Marshal(engine.UpdateEnvelope{
		Type:    "update",
		TableID: tableID,
		Seq:     0,
		State:   json.RawMessage(data),
		Events:  []any{},
	})
	if err != nil {
		s.logger.Error("failed to encode initial state", "error", err)
		return
	}
	if err := conn.Send(update); err != nil {
		s.logger.Debug("failed to send initial state", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
