package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/dealerd/internal/game"
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
)

// ErrSendBufferFull is returned when a client can't keep up with broadcasts.
var ErrSendBufferFull = errors.New("connection send buffer full")

// enqueuer is the slice of the table engine a connection needs.
type enqueuer interface {
	Enqueue(a game.Action)
}

// Connection wraps one client socket subscribed to a single table.
type Connection struct {
	conn    *websocket.Conn
	tableID string
	engine  enqueuer
	send    chan []byte
	logger  *log.Logger
	onClose func(*Connection)

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// newConnection wraps an upgraded socket for a table.
func newConnection(conn *websocket.Conn, tableID string, engine enqueuer, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:    conn,
		tableID: tableID,
		engine:  engine,
		send:    make(chan []byte, 256),
		logger:  logger.WithPrefix("conn").With("table", tableID),
		onClose: func(*Connection) {},
		ctx:     ctx,
		cancel:  cancel,
	}
}

// start begins the read/write pumps.
func (c *Connection) start() {
	go c.writePump()
	go c.readPump()
}

// Close shuts the connection down; safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// Send queues a message for delivery. It never blocks: a full buffer means
// the client is too slow and the connection is reported dead.
func (c *Connection) Send(message []byte) error {
	select {
	case c.send <- message:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return ErrSendBufferFull
	}
}

// actionEnvelope is the client -> server message format. Unknown or
// malformed fields are simply ignored downstream.
type actionEnvelope struct {
	Type string `json:"type"`
	game.Action
}

// readPump decodes client envelopes and routes actions to the table engine.
func (c *Connection) readPump() {
	defer func() {
		c.onClose(c)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			return
		}

		var envelope actionEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			c.logger.Debug("ignoring malformed message", "error", err)
			continue
		}
		if envelope.Type != "action" {
			c.logger.Debug("ignoring message", "type", envelope.Type)
			continue
		}

		c.engine.Enqueue(envelope.Action)
	}
}

// writePump drains the send channel onto the socket and keeps it alive with
// pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
