package inspect

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/fibre/pkg/protocol"
)

const (
	sendBuffer   = 256
	writeTimeout = 10 * time.Second
)

// client is one WebSocket connection. send and close are only called on the
// scheduler loop.
type client struct {
	conn   *websocket.Conn
	remote string
	out    chan *protocol.Frame
	closed bool
}

func newClient(conn *websocket.Conn, remote string) *client {
	return &client{
		conn:   conn,
		remote: remote,
		out:    make(chan *protocol.Frame, sendBuffer),
	}
}

// send queues f without blocking. It returns false if the queue is full.
func (c *client) send(f *protocol.Frame) bool {
	if c.closed {
		return false
	}
	select {
	case c.out <- f:
		return true
	default:
		return false
	}
}

// sendAll queues frames in order. It stops at the first one that does not
// fit and returns false.
func (c *client) sendAll(frames []*protocol.Frame) bool {
	for _, f := range frames {
		if !c.send(f) {
			return false
		}
	}
	return true
}

func (c *client) close() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.out)
}

// writePump writes queued frames until the queue is closed, then closes the
// connection.
func (c *client) writePump() {
	defer c.conn.Close()
	for f := range c.out {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, f.Encode()); err != nil {
			// Drain so the loop never blocks on a dead client.
			for range c.out {
			}
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
