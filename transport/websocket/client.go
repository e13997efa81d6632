package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendQueueSize = 32
	writeTimeout  = 10 * time.Second
)

// client is one connected player: the socket plus its outbound queue.
// All writes go through the queue so a single goroutine owns the
// connection's write side.
type client struct {
	id   string
	conn *websocket.Conn

	closeOnce sync.Once
	send      chan []byte
}

func newClient(id string, conn *websocket.Conn) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}
}

// enqueue queues a frame without blocking; it reports false when the
// queue is full or closed.
func (that *client) enqueue(data []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	select {
	case that.send <- data:
		return true
	default:
		return false
	}
}

func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.send)
	})
}

// writePump drains the outbound queue onto the socket until the queue
// closes.
func (that *client) writePump(logger *slog.Logger) {
	defer that.conn.Close()

	for data := range that.send {
		if err := that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			logger.Error("failed to set write deadline", "playerID", that.id, "error", err)
			return
		}

		if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Debug("failed to write message", "playerID", that.id, "error", err)
			return
		}
	}
}
