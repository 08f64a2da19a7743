// Package pane owns one pseudo-terminal-backed child process and the
// vt.Screen that renders its output. A Pane's read loop only ever
// forwards raw bytes to a callback; it never mutates the Screen itself,
// so the owning dispatcher (internal/server) is the sole mutator of grid
// state, per this module's single-threaded-core design.
package pane

import (
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/creack/pty"
	"github.com/riywo/loginshell"

	"tmuxd/internal/vt"
)

// maxWriteQueue bounds how many un-flushed writer chunks a pane will
// buffer. Once it is reached, Input refuses further chunks with
// ErrBackpressured and Suspended reports true until Drain empties the
// queue; reads from the PTY are not paused.
const maxWriteQueue = 256

// Pane owns a child process's pty, its terminal emulation state, and the
// bookkeeping needed to spawn, resize, and reap it.
type Pane struct {
	PTY  *os.File
	Cmd  *exec.Cmd
	Screen *vt.Screen

	RemainOnExit bool
	Dead         bool
	ExitErr      error

	writeQueue [][]byte
	suspended  bool

	LastActivity time.Time
	StartedAt    time.Time
}

// Options configures Spawn.
type Options struct {
	Argv         []string
	Env          []string
	Dir          string
	Cols, Rows   int
	HistoryLimit int
	Hooks        vt.Hooks
	RemainOnExit bool
}

// Spawn starts argv (or the user's login shell if empty) attached to a
// new pty sized cols x rows, and constructs the pane's Screen.
func Spawn(o Options) (*Pane, error) {
	argv := o.Argv
	if len(argv) == 0 {
		shell, err := defaultShell()
		if err != nil {
			return nil, err
		}
		argv = []string{shell}
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = o.Env
	cmd.Dir = o.Dir

	ws := &pty.Winsize{Cols: uint16(o.Cols), Rows: uint16(o.Rows)}
	ptmx, err := pty.StartWithSize(cmd, ws)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	p := &Pane{
		PTY:          ptmx,
		Cmd:          cmd,
		Screen:       vt.New(o.Cols, o.Rows, o.HistoryLimit, o.Hooks),
		RemainOnExit: o.RemainOnExit,
		StartedAt:    now,
		LastActivity: now,
	}
	return p, nil
}

// defaultShell resolves the user's login shell, falling back to $SHELL
// and then /bin/sh, matching how an interactive terminal session would
// pick a shell absent an explicit command.
func defaultShell() (string, error) {
	if shell, err := loginshell.Shell(); err == nil && shell != "" {
		return shell, nil
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell, nil
	}
	return "/bin/sh", nil
}

// ReadLoop reads raw bytes from the pty until it closes, invoking onData
// for each chunk and onExit once when the process exits. It does not
// touch Screen; the caller's onData is expected to route the bytes to a
// single dispatcher goroutine which calls Feed.
func (p *Pane) ReadLoop(onData func([]byte), onExit func(error)) {
	buf := make([]byte, 32*1024)
	for {
		n, err := p.PTY.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			onData(chunk)
		}
		if err != nil {
			break
		}
	}
	err := p.Cmd.Wait()
	onExit(err)
}

// Feed hands bytes read from the pty to the screen's VT decoder. Must
// only be called from the dispatcher goroutine.
func (p *Pane) Feed(data []byte) {
	p.LastActivity = time.Now()
	p.Screen.Write(data)
}

// Input queues bytes to be written to the pty (child stdin). Returns
// ErrBackpressured if the queue is already saturated; the caller should
// stop reading from the originating client connection until Drain frees
// room, mirroring the dispatcher's single-threaded fairness rule.
var ErrBackpressured = errors.New("pane: write queue full")

func (p *Pane) Input(data []byte) error {
	if len(p.writeQueue) >= maxWriteQueue {
		p.suspended = true
		return ErrBackpressured
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	p.writeQueue = append(p.writeQueue, cp)
	return nil
}

// Drain flushes queued input to the pty, stopping at the first error.
func (p *Pane) Drain() error {
	for len(p.writeQueue) > 0 {
		chunk := p.writeQueue[0]
		if _, err := p.PTY.Write(chunk); err != nil {
			return err
		}
		p.writeQueue = p.writeQueue[1:]
	}
	p.suspended = false
	return nil
}

// Suspended reports whether Input has backpressured the client side.
func (p *Pane) Suspended() bool { return p.suspended }

// Resize changes both the pty's kernel winsize (which raises SIGWINCH in
// the child's process group) and the Screen's dimensions.
func (p *Pane) Resize(cols, rows int) error {
	ws := &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}
	if err := pty.Setsize(p.PTY, ws); err != nil {
		return err
	}
	p.Screen.Resize(cols, rows)
	return nil
}

// Kill terminates the child process.
func (p *Pane) Kill() error {
	if p.Cmd.Process == nil {
		return nil
	}
	return p.Cmd.Process.Kill()
}

// Close releases the pty file descriptor.
func (p *Pane) Close() error {
	return p.PTY.Close()
}
