// Package client implements the attach edge: dialing the daemon's
// control socket, performing the version handshake, and driving the
// local terminal for the duration of one attached session. It owns no
// multiplexer state itself — the daemon renders every pane, and this
// package is a raw-byte pass-through between the wire and the tty.
package client

import (
	"fmt"
	"net"
	"sync/atomic"

	"tmuxd"
	"tmuxd/internal/protocol"
)

// Client manages one connection to the tmuxd daemon.
type Client struct {
	conn    *protocol.Conn
	netConn net.Conn

	cmdID atomic.Uint32
}

// Connect dials the daemon's control socket and performs the version
// handshake, failing if the daemon speaks a different protocol version.
func Connect(socketPath string) (*Client, error) {
	nc, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("client: connect to daemon: %w", err)
	}
	conn := protocol.NewConn(nc)
	serverVer, _, err := conn.Handshake(protocol.ProtocolVersion, tmuxd.Version())
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("client: handshake: %w", err)
	}
	if serverVer != protocol.ProtocolVersion {
		nc.Close()
		return nil, fmt.Errorf("client: protocol version mismatch: server speaks %d, client speaks %d", serverVer, protocol.ProtocolVersion)
	}
	return &Client{conn: conn, netConn: nc}, nil
}

func (c *Client) Close() error { return c.netConn.Close() }

func (c *Client) ReadMessage() (protocol.Message, error) { return c.conn.ReadMessage() }

func (c *Client) WriteMessage(msg protocol.Message) error { return c.conn.WriteMessage(msg) }

// Identify sends the initial Identify message and returns the daemon's
// Ready reply (session name, screen dump, cursor position).
func (c *Client) Identify(m *protocol.Identify) (*protocol.Ready, error) {
	if err := c.conn.WriteMessage(m); err != nil {
		return nil, fmt.Errorf("client: send identify: %w", err)
	}
	return c.readReady()
}

// Command sends argv as a tmux-style command line and waits for the
// correlated Ready reply.
func (c *Client) Command(argv []string) (*protocol.Ready, error) {
	id := c.cmdID.Add(1)
	if err := c.conn.WriteMessage(&protocol.Command{ID: id, Argv: argv}); err != nil {
		return nil, fmt.Errorf("client: send command: %w", err)
	}
	for {
		msg, err := c.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("client: read reply: %w", err)
		}
		reply, ok := msg.(*protocol.Ready)
		if !ok || reply.ID != id {
			continue
		}
		if !reply.Ok && reply.Error != "" {
			return reply, fmt.Errorf("server: %s", reply.Error)
		}
		return reply, nil
	}
}

func (c *Client) readReady() (*protocol.Ready, error) {
	msg, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("client: read reply: %w", err)
	}
	ready, ok := msg.(*protocol.Ready)
	if !ok {
		return nil, fmt.Errorf("client: unexpected reply type 0x%02x", msg.Type())
	}
	if !ready.Ok && ready.Error != "" {
		return ready, fmt.Errorf("server: %s", ready.Error)
	}
	return ready, nil
}
