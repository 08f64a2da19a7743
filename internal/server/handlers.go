package server

import (
	"log/slog"

	"tmuxd/internal/alerts"
	"tmuxd/internal/keys"
	"tmuxd/internal/layout"
	"tmuxd/internal/protocol"
	"tmuxd/internal/registry"
	"tmuxd/internal/session"
	"tmuxd/internal/window"
)

// onPaneOutput feeds pane output into its Screen and forwards the raw
// bytes to every client currently viewing that pane.
func (s *Server) onPaneOutput(paneID registry.ID, data []byte) {
	p, ok := s.panes.Get(paneID)
	if !ok {
		return
	}
	p.Feed(data)

	windowID := s.paneWindow[paneID]
	s.alertTracker.Output(windowID, paneID)

	for _, c := range s.clients {
		if c.paneID == paneID {
			c.send(&protocol.Output{Data: data})
		}
	}
}

// onPaneExit marks the pane dead; unless remain-on-exit is set for it,
// the pane (and its window/session, if left empty) is torn down.
func (s *Server) onPaneExit(paneID registry.ID, err error) {
	p, ok := s.panes.Get(paneID)
	if !ok {
		return
	}
	p.Dead = true
	p.ExitErr = err

	windowID := s.paneWindow[paneID]
	var exitCode int32
	if err != nil {
		exitCode = -1
	}
	for _, c := range s.clients {
		if c.paneID == paneID {
			c.send(&protocol.Exit{PaneID: uint32(paneID), ExitCode: exitCode})
		}
	}

	tree := s.optTree()
	if tree.Flag("remain-on-exit") {
		return
	}

	w, ok := s.windows.Get(windowID)
	if !ok {
		return
	}
	empty := w.ClosePane(paneID)
	if err := s.destroyPane(paneID); err != nil {
		slog.Warn("destroy exited pane", "pane", paneID, "err", err)
	}
	if empty {
		s.closeWindowAndMaybeSession(windowID)
		return
	}
	s.applyLayout(windowID)
	s.retargetClients(windowID)
}

// closeWindowAndMaybeSession removes windowID from its session; if that
// was the session's last window, the session is destroyed too.
func (s *Server) closeWindowAndMaybeSession(windowID registry.ID) {
	sessionID, ok := s.windowSession[windowID]
	if !ok {
		if err := s.destroyWindow(windowID); err != nil {
			slog.Warn("destroy window", "window", windowID, "err", err)
		}
		return
	}
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	sess.RemoveWindow(windowID)
	if err := s.destroyWindow(windowID); err != nil {
		slog.Warn("destroy window", "window", windowID, "err", err)
	}
	if sess.Len() == 0 {
		if err := s.destroySession(sessionID); err != nil {
			slog.Warn("destroy session", "session", sessionID, "err", err)
		}
		return
	}
	s.retargetSessionClients(sessionID, sess)
}

// retargetClients redraws every client currently viewing windowID, e.g.
// after its active pane changed underneath them.
func (s *Server) retargetClients(windowID registry.ID) {
	w, ok := s.windows.Get(windowID)
	if !ok {
		return
	}
	active := w.ActivePane()
	for _, c := range s.clients {
		if c.windowID != windowID || c.paneID == active {
			continue
		}
		c.paneID = active
		s.sendRedraw(c, active)
	}
}

// retargetSessionClients moves every client attached to sess off a
// destroyed window onto whatever is now current.
func (s *Server) retargetSessionClients(sessionID registry.ID, sess *session.Session) {
	current := sess.Current()
	w, ok := s.windows.Get(current)
	if !ok {
		return
	}
	active := w.ActivePane()
	for _, c := range s.clients {
		if c.sessionID != sessionID {
			continue
		}
		c.windowID = current
		c.paneID = active
		s.sendRedraw(c, active)
	}
}

func (s *Server) sendRedraw(c *client, paneID registry.ID) {
	p, ok := s.panes.Get(paneID)
	if !ok {
		return
	}
	c.send(&protocol.Output{Data: renderFull(p.Screen)})
}

// onAlert applies an alert event's window flags and, per bell-action /
// activity-action, notifies attached clients via Wakeup: every client for
// "any", those viewing the window for "current", the others for "other".
func (s *Server) onAlert(ev alerts.Event) {
	w, ok := s.windows.Get(ev.Window)
	if !ok {
		return
	}
	tree := s.optTree()
	var action string
	switch ev.Kind {
	case alerts.Bell:
		w.Bell = true
		action = tree.String("bell-action")
	case alerts.Activity:
		if !tree.Flag("monitor-activity") {
			return
		}
		w.Activity = true
		action = tree.String("activity-action")
	case alerts.Silence:
		w.Silence = true
		action = tree.String("activity-action")
	}
	if action == "none" || action == "" {
		return
	}
	for _, c := range s.clients {
		viewing := c.windowID == ev.Window
		switch action {
		case "current":
			if !viewing {
				continue
			}
		case "other":
			if viewing {
				continue
			}
		}
		c.send(&protocol.Wakeup{WindowID: uint32(ev.Window), Reason: wakeupReason(ev.Kind)})
	}
}

func wakeupReason(k alerts.Kind) string {
	switch k {
	case alerts.Bell:
		return "bell"
	case alerts.Activity:
		return "activity"
	case alerts.Silence:
		return "silence"
	default:
		return ""
	}
}

// onClientMessage dispatches one decoded wire message for an already
// (or not yet) attached client.
func (s *Server) onClientMessage(c *client, msg protocol.Message) {
	switch m := msg.(type) {
	case *protocol.Identify:
		s.handleIdentify(c, m)
	case *protocol.Environ:
		c.env = m.Vars
	case *protocol.Command:
		reply := s.executeCommand(c, m)
		c.send(reply)
	case *protocol.Stdin:
		s.routeInput(c, registry.ID(m.PaneID), m.Data)
	case *protocol.Resize:
		s.handleResize(c, m)
	case *protocol.Suspend:
		c.suspended = !m.Resume
	case *protocol.Keys:
		s.routeInput(c, c.paneID, keys.Encode(keys.Input{Code: keys.Code(m.Code), Mods: keys.Mod(m.Mods)}))
	case *protocol.Lock:
		if c.sessionID != 0 {
			s.locked[c.sessionID] = m.Password
		}
	case *protocol.Unlock:
		if c.sessionID != 0 && s.locked[c.sessionID] == m.Password {
			delete(s.locked, c.sessionID)
		}
	}
}

// routeInput writes data to paneID (or the client's current pane if
// paneID is zero), queueing and draining through the pane's backpressure
// path.
func (s *Server) routeInput(c *client, paneID registry.ID, data []byte) {
	if len(data) == 0 {
		return
	}
	if paneID == 0 {
		paneID = c.paneID
	}
	if s.locked[c.sessionID] != "" {
		return
	}
	p, ok := s.panes.Get(paneID)
	if !ok {
		return
	}
	if err := p.Input(data); err != nil {
		slog.Debug("pane input backpressured", "pane", paneID, "err", err)
		return
	}
	if err := p.Drain(); err != nil {
		slog.Debug("pane input drain failed", "pane", paneID, "err", err)
	}
}

func (s *Server) handleResize(c *client, m *protocol.Resize) {
	c.cols, c.rows = m.Cols, m.Rows
	w, ok := s.windows.Get(c.windowID)
	if !ok {
		return
	}
	cols, rows := s.effectiveWindowSize(c.windowID, w)
	if cols == w.Bounds().W && rows == w.Bounds().H {
		return
	}
	w.Resize(layout.Rect{W: cols, H: rows})
	s.applyLayout(c.windowID)
}

// effectiveWindowSize implements the aggressive-resize Open Question
// resolution recorded in DESIGN.md: the smallest attached client's size
// by default, or the current client's size when aggressive-resize is on.
func (s *Server) effectiveWindowSize(windowID registry.ID, w *window.Window) (int, int) {
	tree := s.optTree()
	aggressive := tree.Flag("aggressive-resize")

	cols, rows := 0, 0
	first := true
	for _, c := range s.clients {
		if c.windowID != windowID || c.cols == 0 || c.rows == 0 {
			continue
		}
		if aggressive {
			cols, rows = int(c.cols), int(c.rows)
			continue
		}
		if first || int(c.cols) < cols {
			cols = int(c.cols)
		}
		if first || int(c.rows) < rows {
			rows = int(c.rows)
		}
		first = false
	}
	if cols == 0 || rows == 0 {
		b := w.Bounds()
		return b.W, b.H
	}
	return cols, rows
}

// onClientGone releases a disconnected client's resources and drops it
// from the live set; the session/window/pane it was viewing survive.
func (s *Server) onClientGone(c *client) {
	c.close()
	delete(s.clients, c.clientID)
}
