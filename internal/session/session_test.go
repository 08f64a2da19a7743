package session

import (
	"testing"

	"gotest.tools/v3/assert"

	"tmuxd/internal/registry"
)

func TestAddWindowAssignsNextIndex(t *testing.T) {
	s := New(1, "work", 0, registry.ID(1))
	idx := s.AddWindow(registry.ID(2))
	assert.Equal(t, idx, 1)
}

func TestSelectWindowPushesLastStack(t *testing.T) {
	s := New(1, "work", 0, registry.ID(1))
	s.AddWindow(registry.ID(2))
	assert.NilError(t, s.SelectWindow(registry.ID(2)))
	assert.Equal(t, s.Current(), registry.ID(2))
	assert.NilError(t, s.SelectLast())
	assert.Equal(t, s.Current(), registry.ID(1))
}

func TestRemoveCurrentWindowFallsBackToLastStack(t *testing.T) {
	s := New(1, "work", 0, registry.ID(1))
	s.AddWindow(registry.ID(2))
	s.AddWindow(registry.ID(3))
	assert.NilError(t, s.SelectWindow(registry.ID(2)))
	assert.NilError(t, s.SelectWindow(registry.ID(3)))

	s.RemoveWindow(registry.ID(3))
	assert.Equal(t, s.Current(), registry.ID(2))
}

func TestRenumberPreservesCurrentWindowIdentity(t *testing.T) {
	s := New(1, "work", 0, registry.ID(1))
	s.AddWindow(registry.ID(2))
	s.AddWindow(registry.ID(3))
	s.RemoveWindow(registry.ID(2)) // leaves a gap at index 1
	assert.NilError(t, s.SelectWindow(registry.ID(3)))

	s.Renumber()

	idx, ok := s.IndexOf(registry.ID(3))
	assert.Assert(t, ok)
	assert.Equal(t, idx, 1)
	assert.Equal(t, s.Current(), registry.ID(3))
}

func TestSwapWinlinkExchangesWindows(t *testing.T) {
	s := New(1, "work", 0, registry.ID(1))
	s.AddWindow(registry.ID(2))
	assert.NilError(t, s.SwapWinlink(0, 1))
	w, _ := s.WindowAt(0)
	assert.Equal(t, w, registry.ID(2))
}
