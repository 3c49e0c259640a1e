package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	sendQueueSize  = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// Client is one live socket. Only writePump writes to conn.
type Client struct {
	info ConnInfo
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient wraps conn. A nil conn yields a queue-only client.
func NewClient(conn *websocket.Conn, info ConnInfo) *Client {
	return &Client{
		info: info,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

func (c *Client) UserID() string { return c.info.UserID }

// Enqueue queues payload without blocking. It reports false when the client is
// closed or its queue is full; the payload is then dropped.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close stops the writer. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Done is closed when the client is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) writePump(log *logrus.Entry) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.WithError(err).Debug("websocket write failed")
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// readPump delivers frames to handle until the socket fails or ctx ends.
func (c *Client) readPump(ctx context.Context, handle func(ctx context.Context, raw []byte)) error {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		handle(ctx, raw)
	}
}
