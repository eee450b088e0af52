package server

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Hub tracks live connections per table and implements the engine's
// Broadcaster port. Connect/disconnect mutate the sets; Broadcast snapshots
// a set before sending so iteration tolerates concurrent mutation.
type Hub struct {
	mu     sync.RWMutex
	tables map[string]map[*Connection]struct{}
	logger *log.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		tables: make(map[string]map[*Connection]struct{}),
		logger: logger.WithPrefix("hub"),
	}
}

func (h *Hub) add(tableID string, c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tables[tableID] == nil {
		h.tables[tableID] = make(map[*Connection]struct{})
	}
	h.tables[tableID][c] = struct{}{}
}

func (h *Hub) remove(tableID string, c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.tables[tableID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.tables, tableID)
		}
	}
}

// Broadcast sends a message to every live socket on a table. Dead or slow
// sockets are dropped silently.
func (h *Hub) Broadcast(tableID string, message []byte) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.tables[tableID]))
	for c := range h.tables[tableID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.Send(message); err != nil {
			h.logger.Debug("dropping dead connection", "table", tableID, "error", err)
			h.remove(tableID, c)
			_ = c.Close()
		}
	}
}
