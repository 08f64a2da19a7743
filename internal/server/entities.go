package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"

	"tmuxd/internal/layout"
	"tmuxd/internal/pane"
	"tmuxd/internal/protocol"
	"tmuxd/internal/registry"
	"tmuxd/internal/session"
	"tmuxd/internal/window"
)

// spawnPane starts argv as the child of a fresh pty and registers the
// resulting pane under windowID, wiring its Screen's hooks to report
// bell/response side effects back through the dispatcher.
func (s *Server) spawnPane(argv, env []string, dir string, cols, rows int, windowID registry.ID) (registry.ID, error) {
	var paneID registry.ID
	hooks := vtHooksFor(s, windowID, &paneID)

	tree := s.optTree()
	p, err := pane.Spawn(pane.Options{
		Argv:         argv,
		Env:          env,
		Dir:          dir,
		Cols:         cols,
		Rows:         rows,
		HistoryLimit: int(tree.Number("history-limit")),
		Hooks:        hooks,
		RemainOnExit: tree.Flag("remain-on-exit"),
	})
	if err != nil {
		return 0, err
	}

	paneID = s.panes.Insert(p)
	s.paneWindow[paneID] = windowID

	go p.ReadLoop(
		func(b []byte) { s.events <- paneOutputEvent{pane: paneID, data: b} },
		func(err error) { s.events <- paneExitEvent{pane: paneID, err: err} },
	)
	return paneID, nil
}

// createWindow reserves a window ID, spawns its first pane, and builds
// the Window value, using the two-phase Insert(nil)->Set(id, value)
// pattern required for a struct that stores its own registry.ID.
func (s *Server) createWindow(name string, argv, env []string, dir string, bounds layout.Rect) (registry.ID, error) {
	windowID := s.windows.Insert(nil)

	paneID, err := s.spawnPane(argv, env, dir, bounds.W, bounds.H, windowID)
	if err != nil {
		s.windows.Remove(windowID)
		return 0, err
	}

	w := window.New(windowID, name, paneID, bounds)
	s.windows.Set(windowID, w)
	return windowID, nil
}

// createSession reserves a session ID, creates its first window, and
// builds the Session value, mirroring createWindow's two-phase pattern.
func (s *Server) createSession(name string, argv, env []string, dir string, cols, rows int) (registry.ID, error) {
	if name == "" {
		name = s.uniqueSessionName()
	}
	if _, exists := s.sessionByName[name]; exists {
		return 0, fmt.Errorf("server: session %q already exists", name)
	}

	sessionID := s.sessions.Insert(nil)

	tree := s.optTree()
	baseIndex := int(tree.Number("base-index"))
	bounds := layout.Rect{W: cols, H: rows}

	windowID, err := s.createWindow("0", argv, env, dir, bounds)
	if err != nil {
		s.sessions.Remove(sessionID)
		return 0, err
	}
	s.windowSession[windowID] = sessionID

	sess := session.New(sessionID, name, baseIndex, windowID)
	s.sessions.Set(sessionID, sess)
	s.sessionByName[name] = sessionID
	return sessionID, nil
}

// destroyPane kills the child process, closes the pty, and tombstones
// the pane's registry entry.
func (s *Server) destroyPane(paneID registry.ID) error {
	p, ok := s.panes.Get(paneID)
	if !ok {
		return nil
	}
	var result error
	if err := p.Kill(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := p.Close(); err != nil && !os.IsNotExist(err) {
		result = multierror.Append(result, err)
	}
	delete(s.paneWindow, paneID)
	s.panes.Remove(paneID)
	return result
}

// destroyWindow tears down every pane tiled in windowID and tombstones
// the window itself.
func (s *Server) destroyWindow(windowID registry.ID) error {
	w, ok := s.windows.Get(windowID)
	if !ok {
		return nil
	}
	var result error
	for _, paneID := range w.Panes() {
		if err := s.destroyPane(paneID); err != nil {
			result = multierror.Append(result, err)
		}
	}
	s.alertTracker.StopWindow(windowID)
	delete(s.windowSession, windowID)
	s.windows.Remove(windowID)
	return result
}

// destroySession tears down every window in the session, detaches any
// clients still attached to it, and tombstones the session itself.
func (s *Server) destroySession(sessionID registry.ID) error {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil
	}
	var result error
	for _, wl := range sess.Winlinks() {
		if err := s.destroyWindow(wl.Window); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, c := range s.clients {
		if c.sessionID == sessionID {
			c.send(&protocol.Shutdown{Reason: "session closed"})
		}
	}
	delete(s.sessionByName, sess.Name)
	s.sessions.Remove(sessionID)
	return result
}
