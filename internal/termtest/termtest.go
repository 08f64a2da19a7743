// Package termtest drives a real pty-backed child process through
// internal/pane and internal/vt, giving tests of the server's command
// handling something closer to ground truth than a mocked Screen.
package termtest

import (
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"

	"tmuxd/internal/keys"
	"tmuxd/internal/pane"
)

type options struct {
	cols, rows   int
	historyLimit int
	env          []string
	dir          string
	timeout      time.Duration
}

type Option func(*options)

func WithSize(cols, rows int) Option {
	return func(o *options) { o.cols, o.rows = cols, rows }
}

func WithScrollback(n int) Option {
	return func(o *options) { o.historyLimit = n }
}

func WithEnv(env ...string) Option {
	return func(o *options) { o.env = append(o.env, env...) }
}

func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// Term wraps one pane.Pane for assertions in a single-threaded test: its
// own read goroutine feeds the Screen directly since there is no
// concurrent dispatcher to serialize against here.
type Term struct {
	t    testing.TB
	pane *pane.Pane
	done chan struct{}
	opts options
}

func New(t testing.TB, command []string, opts ...Option) *Term {
	t.Helper()

	o := options{
		cols:         80,
		rows:         24,
		historyLimit: 1000,
		timeout:      5 * time.Second,
	}
	for _, fn := range opts {
		fn(&o)
	}

	p, err := pane.Spawn(pane.Options{
		Argv:         command,
		Env:          o.env,
		Dir:          o.dir,
		Cols:         o.cols,
		Rows:         o.rows,
		HistoryLimit: o.historyLimit,
	})
	if err != nil {
		t.Fatalf("termtest: spawn: %v", err)
	}

	tm := &Term{t: t, pane: p, done: make(chan struct{}), opts: o}
	go tm.readLoop()

	t.Cleanup(func() {
		p.Kill()
		<-tm.done
		p.Close()
	})

	return tm
}

func (tm *Term) readLoop() {
	tm.pane.ReadLoop(tm.pane.Feed, func(error) {})
	close(tm.done)
}

func (tm *Term) Type(s string) {
	tm.t.Helper()
	if err := tm.pane.Input([]byte(s)); err != nil {
		tm.t.Fatalf("termtest: type: %v", err)
	}
	if err := tm.pane.Drain(); err != nil {
		tm.t.Fatalf("termtest: drain: %v", err)
	}
}

func (tm *Term) Key(code keys.Code, mods keys.Mod) {
	tm.t.Helper()
	data := keys.Encode(keys.Input{Code: code, Mods: mods})
	if len(data) == 0 {
		return
	}
	if err := tm.pane.Input(data); err != nil {
		tm.t.Fatalf("termtest: key: %v", err)
	}
	if err := tm.pane.Drain(); err != nil {
		tm.t.Fatalf("termtest: drain: %v", err)
	}
}

// Screen renders the visible grid as plain text, one line per row with
// trailing blanks trimmed.
func (tm *Term) Screen() string {
	tm.t.Helper()
	g := tm.pane.Screen.Grid()
	var b strings.Builder
	for i := 0; i < tm.pane.Screen.Rows(); i++ {
		row := g.Row(i)
		if row == nil {
			continue
		}
		line := make([]rune, 0, len(row.Cells))
		for _, cell := range row.Cells {
			if cell.Rune == 0 {
				line = append(line, ' ')
				continue
			}
			line = append(line, cell.Runes()...)
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimRight(string(line), " "))
	}
	return b.String()
}

func (tm *Term) Resize(cols, rows int) {
	tm.t.Helper()
	ws := &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}
	if err := pty.Setsize(tm.pane.PTY, ws); err != nil {
		tm.t.Fatalf("termtest: setsize: %v", err)
	}
	tm.pane.Screen.Resize(cols, rows)
}

type waitOptions struct {
	timeout  time.Duration
	interval time.Duration
}

type WaitOption func(*waitOptions)

func WaitTimeout(d time.Duration) WaitOption { return func(o *waitOptions) { o.timeout = d } }
func WaitInterval(d time.Duration) WaitOption { return func(o *waitOptions) { o.interval = d } }

func (tm *Term) WaitFor(substr string, opts ...WaitOption) {
	tm.t.Helper()

	wo := waitOptions{timeout: tm.opts.timeout, interval: 50 * time.Millisecond}
	for _, fn := range opts {
		fn(&wo)
	}

	deadline := time.After(wo.timeout)
	ticker := time.NewTicker(wo.interval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-deadline:
			tm.t.Fatalf("termtest: WaitFor(%q) timed out after %v\nlast screen:\n%s", substr, wo.timeout, last)
		case <-ticker.C:
			last = tm.Screen()
			if strings.Contains(last, substr) {
				return
			}
		}
	}
}

func (tm *Term) Done() <-chan struct{} {
	return tm.done
}

// CursorRow returns the screen row (0-indexed) the cursor currently sits on.
func (tm *Term) CursorRow() int {
	row, _ := tm.pane.Screen.CursorPosition()
	return row
}

// RowContains reports whether screen row (0-indexed) contains substr.
func (tm *Term) RowContains(row int, substr string) bool {
	lines := strings.Split(tm.Screen(), "\n")
	if row < 0 || row >= len(lines) {
		return false
	}
	return strings.Contains(lines[row], substr)
}

func (tm *Term) WaitRowContains(row int, substr string, opts ...WaitOption) {
	tm.t.Helper()

	wo := waitOptions{timeout: tm.opts.timeout, interval: 50 * time.Millisecond}
	for _, fn := range opts {
		fn(&wo)
	}

	deadline := time.After(wo.timeout)
	ticker := time.NewTicker(wo.interval)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			tm.t.Fatalf("termtest: WaitRowContains(%d, %q) timed out after %v\nlast screen:\n%s", row, substr, wo.timeout, tm.Screen())
		case <-ticker.C:
			if tm.RowContains(row, substr) {
				return
			}
		}
	}
}

// WaitStable blocks until the screen contents haven't changed for d,
// e.g. to let a shell settle after a command before asserting on output.
func (tm *Term) WaitStable(d time.Duration) {
	tm.t.Helper()

	last := tm.Screen()
	deadline := time.After(tm.opts.timeout)
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	stableSince := time.Now()

	for {
		select {
		case <-deadline:
			tm.t.Fatalf("termtest: WaitStable(%v) timed out after %v", d, tm.opts.timeout)
		case <-ticker.C:
			cur := tm.Screen()
			if cur != last {
				last = cur
				stableSince = time.Now()
				continue
			}
			if time.Since(stableSince) >= d {
				return
			}
		}
	}
}
