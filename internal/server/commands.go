package server

import (
	"fmt"
	"strconv"
	"strings"

	"tmuxd/internal/layout"
	"tmuxd/internal/options"
	"tmuxd/internal/protocol"
	"tmuxd/internal/registry"
	"tmuxd/internal/session"
)

// executeCommand parses and runs one tmux-style command line, returning
// the Ready reply correlated to m.ID by the caller.
func (s *Server) executeCommand(c *client, m *protocol.Command) protocol.Message {
	reply := &protocol.Ready{ID: m.ID}
	if len(m.Argv) == 0 {
		reply.Error = "server: empty command"
		return reply
	}

	name, args := m.Argv[0], m.Argv[1:]
	var err error
	switch name {
	case "new-session", "new":
		err = s.cmdNewSession(c, args)
	case "new-window":
		err = s.cmdNewWindow(c, args)
	case "split-window", "splitw":
		err = s.cmdSplitWindow(c, args)
	case "select-pane":
		err = s.cmdSelectPane(c, args)
	case "select-window":
		err = s.cmdSelectWindow(c, args)
	case "select-layout":
		err = s.cmdSelectLayout(c, args)
	case "last-window", "last":
		err = s.cmdLastWindow(c)
	case "last-pane":
		err = s.cmdLastPane(c)
	case "resize-pane":
		err = s.cmdResizePane(c, args)
	case "rotate-window":
		err = s.cmdRotateWindow(c, args)
	case "zoom-pane", "resize-pane -Z":
		err = s.cmdZoomPane(c)
	case "send-keys":
		err = s.cmdSendKeys(c, args)
	case "rename-window":
		err = s.cmdRenameWindow(c, args)
	case "rename-session":
		err = s.cmdRenameSession(c, args)
	case "kill-pane":
		err = s.cmdKillPane(c, args)
	case "kill-window":
		err = s.cmdKillWindow(c, args)
	case "kill-session":
		err = s.cmdKillSession(c, args)
	case "kill-server":
		err = s.cmdKillServer()
	case "detach-client", "detach":
		for _, other := range s.clients {
			if other != c && c.sessionID != 0 && other.sessionID == c.sessionID {
				s.onClientGone(other)
			}
		}
		reply.Ok = true
		return reply
	case "set-option", "set":
		err = s.cmdSetOption(c, args)
	case "list-sessions", "ls":
		reply.Ok = true
		reply.Error = s.listSessions()
		return reply
	case "list-windows":
		reply.Ok = true
		reply.Error = s.listWindows(c)
		return reply
	case "list-panes":
		reply.Ok = true
		reply.Error = s.listPanes(c)
		return reply
	case "capture-pane", "capturep":
		text, capErr := s.capturePane(c, args)
		if capErr != nil {
			reply.Error = capErr.Error()
			return reply
		}
		reply.Ok = true
		reply.Error = text
		return reply
	default:
		err = fmt.Errorf("server: unknown command %q", name)
	}

	if err != nil {
		reply.Error = err.Error()
		return reply
	}
	reply.Ok = true
	return reply
}

// --- session/window/pane lifecycle ---

func (s *Server) cmdNewSession(c *client, args []string) error {
	name := flagValue(args, "-s")
	cols, rows := 80, 24
	if w, ok := s.windows.Get(c.windowID); ok {
		b := w.Bounds()
		cols, rows = b.W, b.H
	}
	sessionID, err := s.createSession(name, s.defaultCommand(), s.forwardedEnv(), "", cols, rows)
	if err != nil {
		return err
	}
	sess, _ := s.sessions.Get(sessionID)
	c.sessionID = sessionID
	c.windowID = sess.Current()
	w, _ := s.windows.Get(c.windowID)
	c.paneID = w.ActivePane()
	s.sendRedraw(c, c.paneID)
	return nil
}

func (s *Server) cmdNewWindow(c *client, args []string) error {
	sess, ok := s.sessions.Get(c.sessionID)
	if !ok {
		return errNotAttached
	}
	name := flagValue(args, "-n")
	if name == "" {
		name = strconv.Itoa(len(sess.Winlinks()))
	}
	w, ok := s.windows.Get(c.windowID)
	bounds := layout.Rect{W: 80, H: 24}
	if ok {
		bounds = w.Bounds()
	}
	windowID, err := s.createWindow(name, s.defaultCommand(), s.forwardedEnv(), "", bounds)
	if err != nil {
		return err
	}
	sess.AddWindow(windowID)
	s.windowSession[windowID] = c.sessionID
	if err := sess.SelectWindow(windowID); err != nil {
		return err
	}
	s.retargetSessionClients(c.sessionID, sess)
	return nil
}

func (s *Server) cmdSplitWindow(c *client, args []string) error {
	w, ok := s.windows.Get(c.windowID)
	if !ok {
		return errNotAttached
	}
	o := layout.Horizontal
	if hasFlag(args, "-v") {
		o = layout.Vertical
	}
	if _, ok := s.panes.Get(w.ActivePane()); !ok {
		return errNotAttached
	}
	dir := ""
	if cwd := flagValue(args, "-c"); cwd != "" {
		dir = cwd
	}
	rect := layout.Rects(w.Root(), w.Bounds())[layout.FindPane(w.Root(), w.ActivePane())]
	cols, rows := rect.W, rect.H
	if cols == 0 {
		cols = w.Bounds().W
	}
	if rows == 0 {
		rows = w.Bounds().H
	}
	paneID, err := s.spawnPane(s.defaultCommand(), s.forwardedEnv(), dir, cols, rows, c.windowID)
	if err != nil {
		return err
	}
	if err := w.Split(o, paneID); err != nil {
		s.destroyPane(paneID)
		return err
	}
	s.applyLayout(c.windowID)
	s.retargetClients(c.windowID)
	return nil
}

func (s *Server) cmdSelectPane(c *client, args []string) error {
	w, ok := s.windows.Get(c.windowID)
	if !ok {
		return errNotAttached
	}
	if hasFlag(args, "-l") {
		if err := w.SelectLastPane(); err != nil {
			return err
		}
		s.retargetClients(c.windowID)
		return nil
	}
	target := flagValue(args, "-t")
	id, err := strconv.Atoi(target)
	if err != nil {
		return fmt.Errorf("server: invalid pane target %q", target)
	}
	if err := w.SelectPane(registry.ID(id)); err != nil {
		return err
	}
	s.retargetClients(c.windowID)
	return nil
}

func (s *Server) cmdSelectWindow(c *client, args []string) error {
	sess, ok := s.sessions.Get(c.sessionID)
	if !ok {
		return errNotAttached
	}
	if hasFlag(args, "-l") {
		if err := sess.SelectLast(); err != nil {
			return err
		}
		s.retargetSessionClients(c.sessionID, sess)
		return nil
	}
	target := flagValue(args, "-t")
	idx, err := strconv.Atoi(target)
	if err != nil {
		return fmt.Errorf("server: invalid window target %q", target)
	}
	windowID, ok := sess.WindowAt(idx)
	if !ok {
		return fmt.Errorf("server: no window at index %d", idx)
	}
	if err := sess.SelectWindow(windowID); err != nil {
		return err
	}
	s.retargetSessionClients(c.sessionID, sess)
	return nil
}

func (s *Server) cmdLastWindow(c *client) error {
	sess, ok := s.sessions.Get(c.sessionID)
	if !ok {
		return errNotAttached
	}
	if err := sess.SelectLast(); err != nil {
		return err
	}
	s.retargetSessionClients(c.sessionID, sess)
	return nil
}

func (s *Server) cmdLastPane(c *client) error {
	w, ok := s.windows.Get(c.windowID)
	if !ok {
		return errNotAttached
	}
	if err := w.SelectLastPane(); err != nil {
		return err
	}
	s.retargetClients(c.windowID)
	return nil
}

func (s *Server) cmdSelectLayout(c *client, args []string) error {
	w, ok := s.windows.Get(c.windowID)
	if !ok {
		return errNotAttached
	}
	if len(args) == 0 {
		return fmt.Errorf("server: select-layout requires a layout name")
	}
	preset, err := parsePreset(args[0])
	if err != nil {
		return err
	}
	w.SelectLayout(preset)
	s.applyLayout(c.windowID)
	s.retargetClients(c.windowID)
	return nil
}

func parsePreset(name string) (layout.Preset, error) {
	switch name {
	case "even-horizontal":
		return layout.EvenHorizontal, nil
	case "even-vertical":
		return layout.EvenVertical, nil
	case "main-horizontal":
		return layout.MainHorizontal, nil
	case "main-vertical":
		return layout.MainVertical, nil
	case "tiled":
		return layout.Tiled, nil
	default:
		return 0, fmt.Errorf("server: unknown layout %q", name)
	}
}

func (s *Server) cmdResizePane(c *client, args []string) error {
	w, ok := s.windows.Get(c.windowID)
	if !ok {
		return errNotAttached
	}
	leaf := layout.FindPane(w.Root(), w.ActivePane())
	if leaf == nil {
		return fmt.Errorf("server: active pane not tiled")
	}
	dx, dy := 0, 0
	if v := flagValue(args, "-R"); v != "" {
		dx, _ = strconv.Atoi(v)
	} else if v := flagValue(args, "-L"); v != "" {
		dx, _ = strconv.Atoi(v)
		dx = -dx
	}
	if v := flagValue(args, "-D"); v != "" {
		dy, _ = strconv.Atoi(v)
	} else if v := flagValue(args, "-U"); v != "" {
		dy, _ = strconv.Atoi(v)
		dy = -dy
	}
	delta := dx
	if delta == 0 {
		delta = dy
	}
	if err := layout.ResizeLeaf(leaf, delta); err != nil {
		return err
	}
	s.applyLayout(c.windowID)
	return nil
}

func (s *Server) cmdRotateWindow(c *client, args []string) error {
	w, ok := s.windows.Get(c.windowID)
	if !ok {
		return errNotAttached
	}
	w.RotatePanes(!hasFlag(args, "-D"))
	s.applyLayout(c.windowID)
	s.retargetClients(c.windowID)
	return nil
}

func (s *Server) cmdZoomPane(c *client) error {
	w, ok := s.windows.Get(c.windowID)
	if !ok {
		return errNotAttached
	}
	w.ToggleZoom()
	s.applyLayout(c.windowID)
	s.retargetClients(c.windowID)
	return nil
}

func (s *Server) cmdSendKeys(c *client, args []string) error {
	if len(args) == 0 {
		return nil
	}
	paneID := c.paneID
	if t := flagValue(args, "-t"); t != "" {
		id, err := strconv.Atoi(t)
		if err == nil {
			paneID = registry.ID(id)
		}
	}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "-t" {
			i++ // skip the pane ID
			continue
		}
		if strings.HasPrefix(a, "-") {
			continue
		}
		s.routeInput(c, paneID, []byte(a))
	}
	return nil
}

func (s *Server) cmdRenameWindow(c *client, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("server: rename-window requires a name")
	}
	w, ok := s.windows.Get(c.windowID)
	if !ok {
		return errNotAttached
	}
	w.Name = args[0]
	return nil
}

func (s *Server) cmdRenameSession(c *client, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("server: rename-session requires a name")
	}
	sess, ok := s.sessions.Get(c.sessionID)
	if !ok {
		return errNotAttached
	}
	if _, exists := s.sessionByName[args[0]]; exists {
		return fmt.Errorf("server: session %q already exists", args[0])
	}
	delete(s.sessionByName, sess.Name)
	sess.Name = args[0]
	s.sessionByName[args[0]] = c.sessionID
	return nil
}

func (s *Server) cmdKillPane(c *client, args []string) error {
	paneID := c.paneID
	if t := flagValue(args, "-t"); t != "" {
		if id, err := strconv.Atoi(t); err == nil {
			paneID = registry.ID(id)
		}
	}
	windowID := s.paneWindow[paneID]
	w, ok := s.windows.Get(windowID)
	if !ok {
		return errNotAttached
	}
	empty := w.ClosePane(paneID)
	if err := s.destroyPane(paneID); err != nil {
		return err
	}
	if empty {
		s.closeWindowAndMaybeSession(windowID)
		return nil
	}
	s.applyLayout(windowID)
	s.retargetClients(windowID)
	return nil
}

func (s *Server) cmdKillWindow(c *client, args []string) error {
	windowID := c.windowID
	if t := flagValue(args, "-t"); t != "" {
		if sess, ok := s.sessions.Get(c.sessionID); ok {
			if idx, err := strconv.Atoi(t); err == nil {
				if id, ok := sess.WindowAt(idx); ok {
					windowID = id
				}
			}
		}
	}
	s.closeWindowAndMaybeSession(windowID)
	return nil
}

func (s *Server) cmdKillSession(c *client, args []string) error {
	sessionID := c.sessionID
	if t := flagValue(args, "-t"); t != "" {
		if id, ok := s.sessionByName[t]; ok {
			sessionID = id
		}
	}
	return s.destroySession(sessionID)
}

func (s *Server) cmdKillServer() error {
	go s.Shutdown()
	return nil
}

func (s *Server) cmdSetOption(c *client, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("server: set-option requires a name and value")
	}
	name, value := args[0], args[1]
	spec, ok := s.specs[name]
	if !ok {
		return fmt.Errorf("server: unknown option %q", name)
	}
	v := options.Value{Kind: spec.Kind}
	switch spec.Kind {
	case options.KindFlag:
		v.Flag = value == "on" || value == "true" || value == "1"
	case options.KindNumber:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("server: %q expects a number", name)
		}
		v.Number = n
	case options.KindChoice:
		v.String = value
		v.Choices = spec.Default.Choices
	default:
		v.String = value
	}
	return options.Set(s.specs, s.globalTable, name, v)
}

// --- read-only listing ---

func (s *Server) listSessions() string {
	var b strings.Builder
	s.sessions.Each(func(_ registry.ID, sess *session.Session) {
		fmt.Fprintf(&b, "%s: %d windows\n", sess.Name, sess.Len())
	})
	return b.String()
}

func (s *Server) listWindows(c *client) string {
	sess, ok := s.sessions.Get(c.sessionID)
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, wl := range sess.Winlinks() {
		w, ok := s.windows.Get(wl.Window)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%d: %s (%d panes)\n", wl.Index, w.Name, len(w.Panes()))
	}
	return b.String()
}

// capturePane renders the target pane's visible grid as plain text, one
// line per row with trailing blanks trimmed. -t selects a pane other
// than the client's current one.
func (s *Server) capturePane(c *client, args []string) (string, error) {
	paneID := c.paneID
	if t := flagValue(args, "-t"); t != "" {
		id, err := strconv.Atoi(t)
		if err != nil {
			return "", fmt.Errorf("server: invalid pane target %q", t)
		}
		paneID = registry.ID(id)
	}
	p, ok := s.panes.Get(paneID)
	if !ok {
		return "", fmt.Errorf("server: no such pane %d", paneID)
	}
	g := p.Screen.Grid()
	var b strings.Builder
	for i := 0; i < p.Screen.Rows(); i++ {
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
		fmt.Fprintln(&b, strings.TrimRight(string(line), " "))
	}
	return b.String(), nil
}

func (s *Server) listPanes(c *client) string {
	w, ok := s.windows.Get(c.windowID)
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, id := range w.Panes() {
		marker := " "
		if id == w.ActivePane() {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s pane %d\n", marker, id)
	}
	return b.String()
}

var errNotAttached = fmt.Errorf("server: client not attached to a session")

func flagValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}
