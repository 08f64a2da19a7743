// Package session implements one multiplexer session: an ordered set of
// windows (winlinks), which one is current, and the history needed for
// last-window selection.
package session

import (
	"errors"
	"sort"

	"tmuxd/internal/registry"
)

// Winlink binds a window to its index within a session. The index is
// stable until a renumber; it is what clients refer to as "session:N".
type Winlink struct {
	Index  int
	Window registry.ID
}

// Session owns the winlink table and current/last window pointers.
type Session struct {
	ID   registry.ID
	Name string

	baseIndex int
	winlinks  []Winlink
	current   registry.ID
	lastStack []registry.ID
}

// New creates a session whose first window is firstWindow at baseIndex.
func New(id registry.ID, name string, baseIndex int, firstWindow registry.ID) *Session {
	return &Session{
		ID:        id,
		Name:      name,
		baseIndex: baseIndex,
		winlinks:  []Winlink{{Index: baseIndex, Window: firstWindow}},
		current:   firstWindow,
	}
}

// Winlinks returns the winlink table in ascending index order.
func (s *Session) Winlinks() []Winlink {
	out := make([]Winlink, len(s.winlinks))
	copy(out, s.winlinks)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Current returns the currently selected window's ID.
func (s *Session) Current() registry.ID { return s.current }

func (s *Session) nextIndex() int {
	max := s.baseIndex - 1
	for _, wl := range s.winlinks {
		if wl.Index > max {
			max = wl.Index
		}
	}
	return max + 1
}

// AddWindow appends window at the next free index and returns that index.
func (s *Session) AddWindow(window registry.ID) int {
	idx := s.nextIndex()
	s.winlinks = append(s.winlinks, Winlink{Index: idx, Window: window})
	return idx
}

// InsertWindowAt inserts window at a specific index, failing if taken.
func (s *Session) InsertWindowAt(window registry.ID, index int) error {
	for _, wl := range s.winlinks {
		if wl.Index == index {
			return errors.New("session: index already in use")
		}
	}
	s.winlinks = append(s.winlinks, Winlink{Index: index, Window: window})
	return nil
}

// RemoveWindow drops window from the winlink table. If it was current,
// the most recent entry on the last-window stack becomes current, or
// failing that the lowest-index remaining window.
func (s *Session) RemoveWindow(window registry.ID) {
	for i, wl := range s.winlinks {
		if wl.Window == window {
			s.winlinks = append(s.winlinks[:i], s.winlinks[i+1:]...)
			break
		}
	}
	s.pruneLastStack(window)
	if s.current != window {
		return
	}
	s.current = 0
	for len(s.lastStack) > 0 {
		cand := s.lastStack[len(s.lastStack)-1]
		s.lastStack = s.lastStack[:len(s.lastStack)-1]
		if s.hasWindow(cand) {
			s.current = cand
			return
		}
	}
	if wls := s.Winlinks(); len(wls) > 0 {
		s.current = wls[0].Window
	}
}

func (s *Session) pruneLastStack(window registry.ID) {
	out := s.lastStack[:0]
	for _, id := range s.lastStack {
		if id != window {
			out = append(out, id)
		}
	}
	s.lastStack = out
}

func (s *Session) hasWindow(window registry.ID) bool {
	for _, wl := range s.winlinks {
		if wl.Window == window {
			return true
		}
	}
	return false
}

var ErrNoSuchWindow = errors.New("session: no such window")

// SelectWindow makes window current, pushing the previous current onto
// the last-window stack.
func (s *Session) SelectWindow(window registry.ID) error {
	if !s.hasWindow(window) {
		return ErrNoSuchWindow
	}
	if s.current != 0 && s.current != window {
		s.lastStack = append(s.lastStack, s.current)
	}
	s.current = window
	return nil
}

var ErrNoLastWindow = errors.New("session: no last window")

// SelectLast switches back to the most recently current window.
func (s *Session) SelectLast() error {
	for len(s.lastStack) > 0 {
		cand := s.lastStack[len(s.lastStack)-1]
		s.lastStack = s.lastStack[:len(s.lastStack)-1]
		if s.hasWindow(cand) {
			s.lastStack = append(s.lastStack, s.current)
			s.current = cand
			return nil
		}
	}
	return ErrNoLastWindow
}

// WindowAt returns the window bound to index, if any.
func (s *Session) WindowAt(index int) (registry.ID, bool) {
	for _, wl := range s.winlinks {
		if wl.Index == index {
			return wl.Window, true
		}
	}
	return 0, false
}

// IndexOf returns window's current index, if it is part of this session.
func (s *Session) IndexOf(window registry.ID) (int, bool) {
	for _, wl := range s.winlinks {
		if wl.Window == window {
			return wl.Index, true
		}
	}
	return 0, false
}

// SwapWinlink exchanges the windows bound to two indices without
// changing either window's identity, the idiom tmux's server_link_window
// family uses for swap-window (see DESIGN.md).
func (s *Session) SwapWinlink(i, j int) error {
	ii, jj := -1, -1
	for k, wl := range s.winlinks {
		if wl.Index == i {
			ii = k
		}
		if wl.Index == j {
			jj = k
		}
	}
	if ii < 0 || jj < 0 {
		return ErrNoSuchWindow
	}
	s.winlinks[ii].Window, s.winlinks[jj].Window = s.winlinks[jj].Window, s.winlinks[ii].Window
	return nil
}

// Renumber compacts winlink indices to start at baseIndex with no gaps,
// in ascending order, then re-resolves current by window identity so the
// same window stays selected across the renumber (see DESIGN.md's
// resolution of the renumber-windows Open Question).
func (s *Session) Renumber() {
	wls := s.Winlinks()
	currentWindow := s.current
	for i := range wls {
		wls[i].Index = s.baseIndex + i
	}
	s.winlinks = wls
	s.current = currentWindow
}

// Len returns the number of windows in the session.
func (s *Session) Len() int { return len(s.winlinks) }
