package client

import (
	"errors"
	"net"
	"os"
	"testing"

	"gotest.tools/v3/assert"

	"tmuxd/internal/keys"
)

func TestCollectEnv(t *testing.T) {
	t.Run("always forwards TERM and SHELL", func(t *testing.T) {
		os.Setenv("TERM", "xterm-256color")
		defer os.Unsetenv("TERM")
		t.Setenv("SHELL", "/bin/sh")

		env := collectEnv(nil)
		assert.Assert(t, contains(env, "TERM=xterm-256color"))
		assert.Assert(t, contains(env, "SHELL=/bin/sh"))
	})

	t.Run("forwards extra names when set", func(t *testing.T) {
		os.Setenv("MY_VAR", "hello")
		defer os.Unsetenv("MY_VAR")

		env := collectEnv([]string{"MY_VAR"})
		assert.Assert(t, contains(env, "MY_VAR=hello"))
	})

	t.Run("skips unset names", func(t *testing.T) {
		os.Unsetenv("DOES_NOT_EXIST_VAR")
		env := collectEnv([]string{"DOES_NOT_EXIST_VAR"})
		assert.Assert(t, !contains(env, "DOES_NOT_EXIST_VAR="))
	})
}

func contains(env []string, s string) bool {
	for _, e := range env {
		if e == s {
			return true
		}
	}
	return false
}

func TestDetachMatchWithinStdinChunk(t *testing.T) {
	dk, err := keys.ParseDetach("ctrl+b")
	assert.NilError(t, err)

	t.Run("matches raw control byte", func(t *testing.T) {
		matched, length := dk.Matches([]byte{0x02, 'x'})
		assert.Assert(t, matched)
		assert.Equal(t, length, 1)
	})

	t.Run("no match on unrelated input", func(t *testing.T) {
		matched, _ := dk.Matches([]byte("hello"))
		assert.Assert(t, !matched)
	})
}

func TestIsConnClosed(t *testing.T) {
	t.Run("recognizes use-of-closed-connection error", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		assert.NilError(t, err)
		conn, acceptErr := func() (net.Conn, error) {
			done := make(chan net.Conn, 1)
			go func() {
				c, _ := net.Dial("tcp", ln.Addr().String())
				done <- c
			}()
			c, err := ln.Accept()
			<-done
			return c, err
		}()
		assert.NilError(t, acceptErr)
		assert.NilError(t, conn.Close())
		assert.NilError(t, ln.Close())

		_, readErr := conn.Read(make([]byte, 1))
		assert.Assert(t, isConnClosed(readErr))
	})

	t.Run("other errors are not conn-closed", func(t *testing.T) {
		assert.Assert(t, !isConnClosed(errors.New("some other error")))
	})
}
