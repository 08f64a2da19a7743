// Package alerts turns per-pane bell/output/silence events into
// per-window alert flags, debounced and coalesced so a noisy pane can
// raise at most one alert of each kind per dispatcher tick.
package alerts

import (
	"time"

	"tmuxd/internal/registry"
)

// Kind identifies what kind of alert fired.
type Kind int

const (
	Bell Kind = iota
	Activity
	Silence
)

// Event names the window an alert applies to and what fired it. Pane
// identifies the triggering pane for Bell/Activity; it is zero for Silence.
type Event struct {
	Window registry.ID
	Pane   registry.ID
	Kind   Kind
}

// Tracker watches pane output and raises window-scoped alert events,
// coalescing repeats within a tick and debouncing silence via a timer
// per window (mirroring the lease-expiry timer pattern used for dead
// sessions: one time.AfterFunc per tracked entity, reset on activity).
type Tracker struct {
	silenceInterval time.Duration
	timers          map[registry.ID]*time.Timer
	pending         map[registry.ID]map[Kind]bool // window -> kinds already queued this tick
	out             chan<- Event
}

// New returns a Tracker that delivers coalesced events to out. A zero
// silenceInterval disables silence detection.
func New(silenceInterval time.Duration, out chan<- Event) *Tracker {
	return &Tracker{
		silenceInterval: silenceInterval,
		timers:          make(map[registry.ID]*time.Timer),
		pending:         make(map[registry.ID]map[Kind]bool),
		out:             out,
	}
}

func (t *Tracker) queue(window, pane registry.ID, kind Kind) {
	set := t.pending[window]
	if set == nil {
		set = make(map[Kind]bool)
		t.pending[window] = set
	}
	if set[kind] {
		return
	}
	set[kind] = true
	t.out <- Event{Window: window, Pane: pane, Kind: kind}
}

// Bell records a bell from pane within window.
func (t *Tracker) Bell(window, pane registry.ID) {
	t.queue(window, pane, Bell)
}

// Output records that pane produced printable output, which counts as
// activity and resets that window's silence timer.
func (t *Tracker) Output(window, pane registry.ID) {
	t.queue(window, pane, Activity)
	t.resetSilence(window)
}

func (t *Tracker) resetSilence(window registry.ID) {
	if t.silenceInterval <= 0 {
		return
	}
	if timer, ok := t.timers[window]; ok {
		timer.Stop()
	}
	t.timers[window] = time.AfterFunc(t.silenceInterval, func() {
		t.queue(window, 0, Silence)
	})
}

// StopWindow cancels any pending silence timer for window, e.g. when it
// is destroyed.
func (t *Tracker) StopWindow(window registry.ID) {
	if timer, ok := t.timers[window]; ok {
		timer.Stop()
		delete(t.timers, window)
	}
	delete(t.pending, window)
}

// EndTick clears the per-window coalescing set so the next tick's first
// occurrence of each kind is delivered again.
func (t *Tracker) EndTick() {
	for w := range t.pending {
		delete(t.pending, w)
	}
}
