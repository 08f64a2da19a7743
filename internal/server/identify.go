package server

import (
	"os"
	"strings"

	"tmuxd/internal/layout"
	"tmuxd/internal/protocol"
	"tmuxd/internal/registry"
	"tmuxd/internal/window"
)

// handleIdentify attaches c to an existing session by name, or creates
// one, per attach-session/new-session -A semantics: a named session that
// already exists is joined rather than duplicated.
func (s *Server) handleIdentify(c *client, m *protocol.Identify) {
	c.cols, c.rows = m.Cols, m.Rows
	cols, rows := int(m.Cols), int(m.Rows)
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}

	sessionID, existed := s.sessionByName[m.SessionName]
	if !existed {
		env := append(append([]string{}, c.env...), s.forwardedEnv()...)
		id, err := s.createSession(m.SessionName, s.defaultCommand(), env, "", cols, rows)
		if err != nil {
			c.send(&protocol.Ready{Ok: false, Error: err.Error()})
			return
		}
		sessionID = id
	}

	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		c.send(&protocol.Ready{Ok: false, Error: "server: session vanished"})
		return
	}

	windowID := sess.Current()
	w, ok := s.windows.Get(windowID)
	if !ok {
		c.send(&protocol.Ready{Ok: false, Error: "server: window vanished"})
		return
	}
	active := w.ActivePane()
	p, ok := s.panes.Get(active)
	if !ok {
		c.send(&protocol.Ready{Ok: false, Error: "server: pane vanished"})
		return
	}

	c.sessionID = sessionID
	c.windowID = windowID
	c.paneID = active

	if existed {
		s.resizeWindowToFit(windowID, w)
	}

	row, col := p.Screen.CursorPosition()
	c.send(&protocol.Ready{
		Ok:                true,
		SessionName:       sess.Name,
		Cols:              uint16(w.Bounds().W),
		Rows:              uint16(w.Bounds().H),
		ScreenDump:        renderFull(p.Screen),
		CursorRow:         uint32(row),
		CursorCol:         uint32(col),
		IsAlternateScreen: p.Screen.IsAlternate(),
	})
}

// resizeWindowToFit reapplies the effective-size policy across every
// client attached to windowID, e.g. when a new client joins an already
// attached session and the smallest-client policy must account for it.
func (s *Server) resizeWindowToFit(windowID registry.ID, w *window.Window) {
	cols, rows := s.effectiveWindowSize(windowID, w)
	if cols == w.Bounds().W && rows == w.Bounds().H {
		return
	}
	w.Resize(layout.Rect{W: cols, H: rows})
	s.applyLayout(windowID)
}

func (s *Server) defaultCommand() []string {
	cmd := s.cfg.Session.DefaultCommand
	if cmd == "" {
		return nil
	}
	return strings.Fields(cmd)
}

func (s *Server) forwardedEnv() []string {
	var out []string
	for _, name := range s.cfg.Session.ForwardEnv {
		if v, ok := os.LookupEnv(name); ok {
			out = append(out, name+"="+v)
		}
	}
	return out
}
