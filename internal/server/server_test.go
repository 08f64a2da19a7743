package server_test

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"tmuxd/internal/config"
	"tmuxd/internal/protocol"
	"tmuxd/internal/server"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Daemon.SocketPath = filepath.Join(t.TempDir(), "tmuxd.sock")
	cfg.Session.DefaultCommand = "/bin/sh"
	return cfg
}

func startServer(t *testing.T, cfg *config.Config) *server.Server {
	t.Helper()
	srv := server.New(cfg)
	errc := make(chan error, 1)
	go func() { errc <- srv.Listen() }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn, err := net.Dial("unix", cfg.Daemon.SocketPath); err == nil {
			conn.Close()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Cleanup(func() {
		srv.Shutdown()
		select {
		case <-errc:
		case <-time.After(2 * time.Second):
		}
	})
	return srv
}

func dial(t *testing.T, cfg *config.Config) *protocol.Conn {
	t.Helper()
	nc, err := net.Dial("unix", cfg.Daemon.SocketPath)
	assert.NilError(t, err)
	t.Cleanup(func() { nc.Close() })
	conn := protocol.NewConn(nc)
	_, _, err = conn.Handshake(protocol.ProtocolVersion, "test")
	assert.NilError(t, err)
	return conn
}

func identify(t *testing.T, conn *protocol.Conn, session string) *protocol.Ready {
	t.Helper()
	assert.NilError(t, conn.WriteMessage(&protocol.Identify{
		SessionName: session, Cols: 80, Rows: 24, Version: "test",
	}))
	msg, err := conn.ReadMessage()
	assert.NilError(t, err)
	ready, ok := msg.(*protocol.Ready)
	assert.Assert(t, ok, "expected Ready, got %T", msg)
	return ready
}

// skipOutput returns the first message, starting with msg, that is not an
// Output: the server pushes redraws and pane output to an attached client
// independently of command replies.
func skipOutput(t *testing.T, conn *protocol.Conn, msg protocol.Message) protocol.Message {
	t.Helper()
	for {
		if _, ok := msg.(*protocol.Output); !ok {
			return msg
		}
		var err error
		msg, err = conn.ReadMessage()
		assert.NilError(t, err)
	}
}

func TestIdentifyCreatesSession(t *testing.T) {
	cfg := testConfig(t)
	startServer(t, cfg)

	conn := dial(t, cfg)
	ready := identify(t, conn, "work")

	assert.Assert(t, ready.Ok, ready.Error)
	assert.Equal(t, ready.SessionName, "work")
	assert.Equal(t, int(ready.Cols), 80)
	assert.Equal(t, int(ready.Rows), 24)
}

func TestIdentifyReattachesExistingSession(t *testing.T) {
	cfg := testConfig(t)
	startServer(t, cfg)

	first := dial(t, cfg)
	ready1 := identify(t, first, "shared")
	assert.Assert(t, ready1.Ok)

	second := dial(t, cfg)
	ready2 := identify(t, second, "shared")
	assert.Assert(t, ready2.Ok)
	assert.Equal(t, ready2.SessionName, "shared")
}

func TestCommandSplitWindowAndListPanes(t *testing.T) {
	cfg := testConfig(t)
	startServer(t, cfg)

	conn := dial(t, cfg)
	ready := identify(t, conn, "panes")
	assert.Assert(t, ready.Ok, ready.Error)

	assert.NilError(t, conn.WriteMessage(&protocol.Command{ID: 1, Argv: []string{"split-window"}}))
	msg, err := conn.ReadMessage()
	assert.NilError(t, err)
	reply := skipOutput(t, conn, msg).(*protocol.Ready)
	assert.Assert(t, reply.Ok, reply.Error)

	assert.NilError(t, conn.WriteMessage(&protocol.Command{ID: 2, Argv: []string{"list-panes"}}))
	msg, err = conn.ReadMessage()
	assert.NilError(t, err)
	reply = skipOutput(t, conn, msg).(*protocol.Ready)
	assert.Assert(t, reply.Ok)
	assert.Equal(t, len(splitNonEmpty(reply.Error)), 2)
}

func TestCommandUnknownNameFails(t *testing.T) {
	cfg := testConfig(t)
	startServer(t, cfg)

	conn := dial(t, cfg)
	ready := identify(t, conn, "misc")
	assert.Assert(t, ready.Ok, ready.Error)

	assert.NilError(t, conn.WriteMessage(&protocol.Command{ID: 9, Argv: []string{"bogus-command"}}))
	msg, err := conn.ReadMessage()
	assert.NilError(t, err)
	reply := skipOutput(t, conn, msg).(*protocol.Ready)
	assert.Assert(t, !reply.Ok)
	assert.Assert(t, reply.Error != "")
}

func TestKillServerShutsDownListener(t *testing.T) {
	cfg := testConfig(t)
	srv := startServer(t, cfg)

	conn := dial(t, cfg)
	ready := identify(t, conn, "doomed")
	assert.Assert(t, ready.Ok, ready.Error)

	assert.NilError(t, conn.WriteMessage(&protocol.Command{ID: 1, Argv: []string{"kill-server"}}))
	_, err := conn.ReadMessage()
	assert.NilError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(cfg.Daemon.SocketPath); os.IsNotExist(err) {
			return
		}
		if _, err := net.Dial("unix", cfg.Daemon.SocketPath); err != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	_ = srv
	t.Fatal("server did not shut down after kill-server")
}

func splitNonEmpty(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
