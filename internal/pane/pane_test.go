package pane

import (
	"strings"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func spawnEcho(t *testing.T, argv []string) *Pane {
	t.Helper()
	p, err := Spawn(Options{
		Argv:         argv,
		Cols:         80,
		Rows:         24,
		HistoryLimit: 200,
	})
	assert.NilError(t, err)
	t.Cleanup(func() {
		p.Kill()
		p.Close()
	})
	return p
}

func TestSpawnFeedsScreen(t *testing.T) {
	p := spawnEcho(t, []string{"/bin/sh", "-c", "printf hello"})

	done := make(chan error, 1)
	p.ReadLoop(func(b []byte) { p.Feed(b) }, func(err error) { done <- err })

	row := p.Screen.Grid().Row(0)
	var sb strings.Builder
	for _, c := range row.Cells {
		if c.Rune != 0 {
			sb.WriteRune(c.Rune)
		}
	}
	assert.Assert(t, strings.Contains(sb.String(), "hello"))
}

func TestReadLoopInvokesOnExitWithStatus(t *testing.T) {
	p := spawnEcho(t, []string{"/bin/sh", "-c", "exit 3"})

	done := make(chan error, 1)
	p.ReadLoop(func([]byte) {}, func(err error) { done <- err })

	err := <-done
	assert.ErrorContains(t, err, "exit status 3")
}

func TestInputBackpressuresAtQueueLimit(t *testing.T) {
	p := spawnEcho(t, []string{"/bin/sh", "-c", "sleep 5"})

	for i := 0; i < maxWriteQueue; i++ {
		assert.NilError(t, p.Input([]byte("x")))
	}
	err := p.Input([]byte("x"))
	assert.Equal(t, err, ErrBackpressured)
	assert.Assert(t, p.Suspended())
}

func TestDrainClearsSuspendedState(t *testing.T) {
	p := spawnEcho(t, []string{"/bin/sh", "-c", "cat >/dev/null"})

	for i := 0; i < maxWriteQueue; i++ {
		assert.NilError(t, p.Input([]byte("x")))
	}
	_, _ = p.Input([]byte("x"))
	assert.Assert(t, p.Suspended())

	assert.NilError(t, p.Drain())
	assert.Assert(t, !p.Suspended())
}

func TestFeedUpdatesLastActivity(t *testing.T) {
	p := spawnEcho(t, []string{"/bin/sh", "-c", "sleep 5"})
	before := p.LastActivity
	time.Sleep(time.Millisecond)
	p.Feed([]byte("x"))
	assert.Assert(t, p.LastActivity.After(before))
}

func TestResizePropagatesToScreen(t *testing.T) {
	p := spawnEcho(t, []string{"/bin/sh", "-c", "sleep 5"})
	assert.NilError(t, p.Resize(100, 30))
	assert.Equal(t, p.Screen.Cols(), 100)
	assert.Equal(t, p.Screen.Rows(), 30)
}

func TestDefaultShellFallsBackWhenNoCommand(t *testing.T) {
	p, err := Spawn(Options{Cols: 80, Rows: 24, HistoryLimit: 100})
	assert.NilError(t, err)
	defer func() {
		p.Kill()
		p.Close()
	}()
	assert.Assert(t, p.Cmd.Path != "")
}
