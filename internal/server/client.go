package server

import (
	"net"
	"sync"

	"tmuxd/internal/protocol"
	"tmuxd/internal/registry"
)

// client is one attached connection. Its conn is only ever read from the
// connection's own goroutine (handleConn) and only ever written to from
// writeLoop, draining outbox; every other field is touched exclusively
// from the dispatcher goroutine.
type client struct {
	clientID string
	conn     *protocol.Conn
	netConn  net.Conn

	outbox chan protocol.Message

	sessionID registry.ID
	windowID  registry.ID
	paneID    registry.ID

	cols, rows uint16
	suspended  bool

	// env accumulates Environ vars received before Identify, forwarded
	// into a freshly created session's pane environment.
	env []string

	closeOnce sync.Once
}

func newClient(conn *protocol.Conn, netConn net.Conn, id uint64) *client {
	return &client{
		clientID: idString(id),
		conn:     conn,
		netConn:  netConn,
		outbox:   make(chan protocol.Message, 64),
	}
}

func idString(id uint64) string {
	const digits = "0123456789"
	if id == 0 {
		return "0"
	}
	buf := make([]byte, 0, 20)
	for id > 0 {
		buf = append([]byte{digits[id%10]}, buf...)
		id /= 10
	}
	return string(buf)
}

// writeLoop drains outbox and writes to the wire, closing the connection
// once the channel is closed or a write fails.
func (c *client) writeLoop() {
	for msg := range c.outbox {
		if c.suspended {
			if _, ok := msg.(*protocol.Output); ok {
				continue
			}
		}
		if err := c.conn.WriteMessage(msg); err != nil {
			break
		}
	}
	c.netConn.Close()
}

// send enqueues msg for delivery, dropping it if the client's outbox is
// already closed or saturated rather than blocking the dispatcher.
func (c *client) send(msg protocol.Message) {
	defer func() { _ = recover() }() // send on a closed outbox panics
	select {
	case c.outbox <- msg:
	default:
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.outbox)
		c.netConn.Close()
	})
}
