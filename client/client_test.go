package client

import (
	"net"
	"os"
	"testing"

	"gotest.tools/v3/assert"

	"tmuxd/internal/protocol"
)

func TestConnectAcceptsRevisionMismatchWhenProtocolMatches(t *testing.T) {
	f, err := os.CreateTemp("/tmp", "tmuxdsock-*")
	assert.NilError(t, err)
	sock := f.Name()
	assert.NilError(t, f.Close())
	assert.NilError(t, os.Remove(sock))
	defer os.Remove(sock)

	ln, err := net.Listen("unix", sock)
	assert.NilError(t, err)
	defer ln.Close()

	done := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()

		pc := protocol.NewConn(conn)
		clientVer, _, err := pc.AcceptHandshake()
		if err != nil {
			done <- err
			return
		}
		err = pc.AcceptVersion(clientVer, "different-revision")
		done <- err
	}()

	c, err := Connect(sock)
	assert.NilError(t, err)
	assert.NilError(t, c.Close())
	assert.NilError(t, <-done)
}

func TestConnectRejectsProtocolMismatch(t *testing.T) {
	f, err := os.CreateTemp("/tmp", "tmuxdsock-*")
	assert.NilError(t, err)
	sock := f.Name()
	assert.NilError(t, f.Close())
	assert.NilError(t, os.Remove(sock))
	defer os.Remove(sock)

	ln, err := net.Listen("unix", sock)
	assert.NilError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		pc := protocol.NewConn(conn)
		if _, _, err := pc.AcceptHandshake(); err != nil {
			return
		}
		pc.AcceptVersion(protocol.ProtocolVersion+1, "mismatched")
	}()

	_, err = Connect(sock)
	assert.ErrorContains(t, err, "protocol version mismatch")
}
