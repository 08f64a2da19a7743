package main

import (
	"testing"

	"github.com/posener/complete"
	"gotest.tools/v3/assert"
)

func TestSocketFromCompletionArgs(t *testing.T) {
	t.Setenv("TMUXD_SOCKET", "")
	args := complete.Args{All: []string{"--socket", "/tmp/tmuxd.sock", "list-sessions"}}
	socket := socketFromCompletionArgs(args)
	assert.Equal(t, socket, "/tmp/tmuxd.sock")
}

func TestSocketFromCompletionArgsEqualsForm(t *testing.T) {
	t.Setenv("TMUXD_SOCKET", "")
	args := complete.Args{All: []string{"--socket=/tmp/eq.sock", "list-sessions"}}
	socket := socketFromCompletionArgs(args)
	assert.Equal(t, socket, "/tmp/eq.sock")
}

func TestSocketFromCompletionArgsEnv(t *testing.T) {
	t.Setenv("TMUXD_SOCKET", "/tmp/env.sock")
	args := complete.Args{All: []string{"list-sessions"}}
	socket := socketFromCompletionArgs(args)
	assert.Equal(t, socket, "/tmp/env.sock")
}
