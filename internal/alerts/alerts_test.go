package alerts

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"tmuxd/internal/registry"
)

func TestBellCoalescedWithinTick(t *testing.T) {
	ch := make(chan Event, 10)
	tr := New(0, ch)
	win := registry.ID(1)

	tr.Bell(win, registry.ID(5))
	tr.Bell(win, registry.ID(5))
	assert.Equal(t, len(ch), 1)

	tr.EndTick()
	tr.Bell(win, registry.ID(5))
	assert.Equal(t, len(ch), 2)
}

func TestSilenceFiresAfterInterval(t *testing.T) {
	ch := make(chan Event, 10)
	tr := New(20*time.Millisecond, ch)
	win := registry.ID(1)

	tr.Output(win, registry.ID(2))
	<-ch // activity event

	select {
	case ev := <-ch:
		assert.Equal(t, ev.Kind, Silence)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("silence event never fired")
	}
}

func TestStopWindowCancelsTimer(t *testing.T) {
	ch := make(chan Event, 10)
	tr := New(10*time.Millisecond, ch)
	win := registry.ID(1)
	tr.Output(win, registry.ID(2))
	<-ch
	tr.StopWindow(win)

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event after StopWindow: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
