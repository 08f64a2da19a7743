// Package vt drives a grid.Grid from a stream of terminal input bytes
// using github.com/danielgatis/go-ansicode's decoder, the same parser
// danielgatis-go-headless-term is built on. Screen implements
// ansicode.Handler directly, the way that package's Terminal type does.
package vt

import (
	"github.com/danielgatis/go-ansicode"

	"tmuxd/internal/grid"
)

// Mode is a bitset of terminal modes toggled by CSI ?h / ?l (DECSET/DECRST)
// and a handful of ANSI modes handled the same way.
type Mode uint32

const (
	ModeAutoWrap Mode = 1 << iota
	ModeOrigin
	ModeInsert
	ModeCursorVisible
	ModeApplicationCursor
	ModeApplicationKeypad
	ModeBracketedPaste
	ModeFocusReporting
	ModeMouseX10
	ModeMouseNormal
	ModeMouseButtonEvent
	ModeMouseAnyEvent
	ModeMouseSGR
)

// pen is the set of attributes that will be applied to the next printed
// cell. It survives ClearScreen/ClearLine; only a full reset clears it.
type pen struct {
	fg, bg grid.Color
	attr   grid.Attr
}

func (p pen) cell(r rune, w uint8) grid.Cell {
	return grid.Cell{Rune: r, Width: w, Fg: p.fg, Bg: p.bg, Attr: p.attr}
}

// Hooks lets the owning pane observe side effects the grid itself does
// not model: bell, title changes, and OSC 52 clipboard traffic. Any hook
// left nil is a no-op, matching how danielgatis-go-headless-term's
// functional options default to doing nothing.
type Hooks struct {
	OnBell             func()
	OnTitleChanged     func(title string)
	OnClipboardStore   func(selection byte, data []byte)
	OnClipboardLoad    func(selection byte) []byte
	OnWorkingDirectory func(uri string)
	// OnResponse delivers bytes the screen wants written back to the
	// pane's pty (DSR/DA replies, clipboard query answers).
	OnResponse func([]byte)
}

func (s *Screen) respond(b []byte) {
	if s.hooks.OnResponse != nil {
		s.hooks.OnResponse(b)
	}
}

// Screen owns a primary grid with scrollback and an alternate grid
// without, cursor and pen state, and the mode bits that change how input
// bytes are interpreted. It implements ansicode.Handler so an
// ansicode.Decoder can drive it directly.
type Screen struct {
	primary   *grid.Grid
	alternate *grid.Grid
	alt       bool // true while the alternate screen is active

	cursorRow, cursorCol int
	pendingWrap          bool

	curPen  pen
	mode    Mode
	scrollTop, scrollBottom int // inclusive, 0-indexed, within visible rows

	tabstops []bool

	savedRow, savedCol int
	savedPen           pen
	savedMode          Mode

	titleStack []string
	title      string

	decoder *ansicode.Decoder
	hooks   Hooks
}

// New returns a Screen sized cols x rows with the given scrollback limit.
func New(cols, rows, historyLimit int, hooks Hooks) *Screen {
	s := &Screen{
		primary:   grid.New(cols, rows, historyLimit),
		alternate: grid.New(cols, rows, 0),
		hooks:     hooks,
	}
	s.mode = ModeAutoWrap | ModeCursorVisible
	s.scrollBottom = rows - 1
	s.resetTabstops(cols)
	s.decoder = ansicode.NewDecoder(s)
	return s
}

func (s *Screen) resetTabstops(cols int) {
	s.tabstops = make([]bool, cols)
	for i := 0; i < cols; i += 8 {
		s.tabstops[i] = true
	}
}

// Write feeds raw bytes from the pane's PTY through the VT decoder.
func (s *Screen) Write(p []byte) (int, error) {
	return s.decoder.Write(p)
}

func (s *Screen) active() *grid.Grid {
	if s.alt {
		return s.alternate
	}
	return s.primary
}

// Cols, Rows report the current screen dimensions.
func (s *Screen) Cols() int { return s.active().Cols }
func (s *Screen) Rows() int { return s.active().Rows }

// CursorPosition returns the 0-indexed cursor row/col.
func (s *Screen) CursorPosition() (row, col int) { return s.cursorRow, s.cursorCol }

// CursorVisible reports whether the cursor should be rendered.
func (s *Screen) CursorVisible() bool { return s.mode&ModeCursorVisible != 0 }

// IsAlternate reports whether the alternate screen is currently active.
func (s *Screen) IsAlternate() bool { return s.alt }

// Grid exposes the active grid for rendering/diffing.
func (s *Screen) Grid() *grid.Grid { return s.active() }

// Title returns the most recently set window title (OSC 0/2).
func (s *Screen) Title() string { return s.title }

// Resize adjusts both the primary and alternate grids and clamps the
// cursor and scroll region to the new bounds.
func (s *Screen) Resize(cols, rows int) {
	s.primary.Resize(cols, rows, s.curPen.bg)
	s.alternate.Resize(cols, rows, s.curPen.bg)
	s.resetTabstops(cols)
	if s.cursorRow >= rows {
		s.cursorRow = rows - 1
	}
	if s.cursorCol >= cols {
		s.cursorCol = cols - 1
	}
	s.scrollBottom = rows - 1
	s.scrollTop = 0
	s.pendingWrap = false
}

func (s *Screen) clampCursor() {
	g := s.active()
	if s.cursorRow < 0 {
		s.cursorRow = 0
	}
	if s.cursorRow >= g.Rows {
		s.cursorRow = g.Rows - 1
	}
	if s.cursorCol < 0 {
		s.cursorCol = 0
	}
	if s.cursorCol >= g.Cols {
		s.cursorCol = g.Cols - 1
	}
}

func (s *Screen) originTop() int {
	if s.mode&ModeOrigin != 0 {
		return s.scrollTop
	}
	return 0
}

func (s *Screen) originBottom() int {
	if s.mode&ModeOrigin != 0 {
		return s.scrollBottom
	}
	return s.active().Rows - 1
}

// lineFeed advances the cursor one row, scrolling the region if the
// cursor is already on the bottom scroll line.
func (s *Screen) lineFeed() {
	if s.cursorRow == s.scrollBottom {
		s.active().ScrollUp(s.scrollTop, s.scrollBottom, s.curPen.bg, !s.alt && s.scrollTop == 0)
		return
	}
	if s.cursorRow < s.active().Rows-1 {
		s.cursorRow++
	}
}

func (s *Screen) reverseLineFeed() {
	if s.cursorRow == s.scrollTop {
		s.active().ScrollDown(s.scrollTop, s.scrollBottom, s.curPen.bg)
		return
	}
	if s.cursorRow > 0 {
		s.cursorRow--
	}
}
