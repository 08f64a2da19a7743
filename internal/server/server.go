// Package server implements the daemon side of the multiplexer: it owns
// every session, window, and pane, accepts client connections, and runs
// the single dispatcher goroutine that is the sole mutator of any of
// that state. Reader goroutines (one per pane, one per client
// connection) only ever push an opaque event onto one fan-in channel;
// everything else — layout recompute, alert bookkeeping, command
// execution, full-screen redraws — happens on the dispatcher goroutine.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sys/unix"

	"tmuxd"
	"tmuxd/internal/alerts"
	"tmuxd/internal/config"
	"tmuxd/internal/layout"
	"tmuxd/internal/options"
	"tmuxd/internal/pane"
	"tmuxd/internal/protocol"
	"tmuxd/internal/registry"
	"tmuxd/internal/session"
	"tmuxd/internal/vt"
	"tmuxd/internal/window"
)

// Server owns the whole entity tree and the listener that accepts
// attaching clients. All fields below are touched only from the
// dispatcher goroutine started by Listen, except where noted.
type Server struct {
	cfg        *config.Config
	socketPath string
	pidPath    string

	sessions *registry.Registry[*session.Session]
	windows  *registry.Registry[*window.Window]
	panes    *registry.Registry[*pane.Pane]

	// clients is a plain map rather than a registry.Registry: nothing on
	// the wire references a client by registry.ID, and every mutation
	// already happens exclusively on the dispatcher goroutine.
	clients map[string]*client

	paneWindow    map[registry.ID]registry.ID
	windowSession map[registry.ID]registry.ID
	sessionByName map[string]registry.ID

	specs       map[string]options.Spec
	globalTable options.Table

	alertTracker *alerts.Tracker
	alertEvents  chan alerts.Event

	locked map[registry.ID]string

	events chan any

	// listener is set once by Listen and only read by the accept loop and
	// Shutdown, guarded by shutdownOnce rather than a mutex.
	listener net.Listener

	clientIDCounter atomic.Uint64
	shutdownOnce    sync.Once
	done            chan struct{}
	startedAt       time.Time
}

// New builds a Server from cfg but does not start listening.
func New(cfg *config.Config) *Server {
	specs := options.Defaults()
	global := make(options.Table)
	seedGlobalOptions(specs, global, cfg.Options)

	alertEvents := make(chan alerts.Event, 64)
	silence := time.Duration(cfg.Options.SilenceInterval) * time.Second

	s := &Server{
		cfg:           cfg,
		socketPath:    firstNonEmpty(cfg.Daemon.SocketPath, config.SocketPath()),
		sessions:      registry.New[*session.Session](),
		windows:       registry.New[*window.Window](),
		panes:         registry.New[*pane.Pane](),
		clients:       make(map[string]*client),
		paneWindow:    make(map[registry.ID]registry.ID),
		windowSession: make(map[registry.ID]registry.ID),
		sessionByName: make(map[string]registry.ID),
		specs:         specs,
		globalTable:   global,
		locked:        make(map[registry.ID]string),
		alertEvents:   alertEvents,
		events:        make(chan any, 256),
		done:          make(chan struct{}),
		startedAt:     time.Now(),
	}
	s.alertTracker = alerts.New(silence, alertEvents)
	s.pidPath = filepath.Join(filepath.Dir(s.socketPath), "tmuxd.pid")
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// seedGlobalOptions applies the TOML-loaded option overrides to the
// global-server scope, skipping zero-valued fields so unset TOML keys
// fall back to the spec's own default rather than a Go zero value.
func seedGlobalOptions(specs map[string]options.Spec, table options.Table, oc config.OptionsConfig) {
	setIf := func(name string, v options.Value, nonZero bool) {
		if !nonZero {
			return
		}
		_ = options.Set(specs, table, name, v)
	}
	setIf("history-limit", options.Value{Kind: options.KindNumber, Number: oc.HistoryLimit}, oc.HistoryLimit != 0)
	setIf("base-index", options.Value{Kind: options.KindNumber, Number: oc.BaseIndex}, oc.BaseIndex != 0)
	setIf("pane-base-index", options.Value{Kind: options.KindNumber, Number: oc.PaneBaseIndex}, oc.PaneBaseIndex != 0)
	setIf("renumber-windows", options.Value{Kind: options.KindFlag, Flag: oc.RenumberWindows}, oc.RenumberWindows)
	setIf("aggressive-resize", options.Value{Kind: options.KindFlag, Flag: oc.AggressiveResize}, oc.AggressiveResize)
	setIf("pane-min-size", options.Value{Kind: options.KindNumber, Number: oc.PaneMinSize}, oc.PaneMinSize != 0)
	setIf("bell-action", options.Value{Kind: options.KindChoice, String: oc.BellAction, Choices: specs["bell-action"].Default.Choices}, oc.BellAction != "")
	setIf("visual-bell", options.Value{Kind: options.KindFlag, Flag: oc.VisualBell}, oc.VisualBell)
	setIf("activity-action", options.Value{Kind: options.KindChoice, String: oc.ActivityAction, Choices: specs["activity-action"].Default.Choices}, oc.ActivityAction != "")
	setIf("monitor-activity", options.Value{Kind: options.KindFlag, Flag: oc.MonitorActivity}, oc.MonitorActivity)
	setIf("silence-interval", options.Value{Kind: options.KindNumber, Number: oc.SilenceInterval}, oc.SilenceInterval != 0)
	setIf("remain-on-exit", options.Value{Kind: options.KindFlag, Flag: oc.RemainOnExit}, oc.RemainOnExit)
	setIf("destroy-unattached", options.Value{Kind: options.KindFlag, Flag: oc.DestroyUnattached}, oc.DestroyUnattached)
	setIf("default-layout", options.Value{Kind: options.KindChoice, String: oc.DefaultLayout, Choices: specs["default-layout"].Default.Choices}, oc.DefaultLayout != "")
}

func (s *Server) optTree(extra ...options.Table) *options.Tree {
	scopes := append(append([]options.Table{}, extra...), s.globalTable)
	return options.NewTree(s.specs, scopes...)
}

// --- event types pushed onto s.events by reader goroutines ---

type paneOutputEvent struct {
	pane registry.ID
	data []byte
}

type paneExitEvent struct {
	pane registry.ID
	err  error
}

type clientMessageEvent struct {
	c   *client
	msg protocol.Message
}

type clientConnectedEvent struct {
	c *client
}

type clientGoneEvent struct {
	c *client
}

type alertEvent struct {
	ev alerts.Event
}

// Listen opens the control socket, starts the dispatcher goroutine, and
// accepts connections until Shutdown is called or a terminating signal
// arrives.
func (s *Server) Listen() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o700); err != nil {
		return fmt.Errorf("server: create socket dir: %w", err)
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("remove stale socket", "path", s.socketPath, "err", err)
	}
	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.listener = ln

	if err := os.WriteFile(s.pidPath, fmt.Appendf(nil, "%d\n", os.Getpid()), 0o600); err != nil {
		slog.Warn("write pid file", "err", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case <-sigCh:
			slog.Info("received shutdown signal")
			s.Shutdown()
		case <-s.done:
		}
	}()

	go s.forwardAlerts()
	go s.dispatch()

	slog.Info("server listening", "socket", s.socketPath)
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
				slog.Error("accept error", "err", err)
				continue
			}
		}
		go s.handleConn(conn)
	}
}

func (s *Server) forwardAlerts() {
	for ev := range s.alertEvents {
		select {
		case s.events <- alertEvent{ev: ev}:
		case <-s.done:
			return
		}
	}
}

// Shutdown gracefully tears down every session and closes the listener.
// Safe to call more than once.
func (s *Server) Shutdown() error {
	var result error
	s.shutdownOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				result = multierror.Append(result, err)
			}
		}
		for _, c := range s.clients {
			_ = c.conn.WriteMessage(&protocol.Shutdown{Reason: "server shutting down"})
			c.close()
		}
		s.sessions.Each(func(id registry.ID, _ *session.Session) {
			if err := s.destroySession(id); err != nil {
				result = multierror.Append(result, err)
			}
		})
		if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			result = multierror.Append(result, err)
		}
		if err := os.Remove(s.pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			result = multierror.Append(result, err)
		}
	})
	return result
}

// handleConn validates the peer's UID, performs the version handshake,
// and then only ever reads a message and pushes it onto the dispatcher —
// it never touches session/window/pane state directly.
func (s *Server) handleConn(netConn net.Conn) {
	unixConn, ok := netConn.(*net.UnixConn)
	if !ok {
		netConn.Close()
		return
	}
	if !peerUIDMatches(unixConn) {
		netConn.Close()
		return
	}

	conn := protocol.NewConn(netConn)
	clientVer, _, err := conn.AcceptHandshake()
	if err != nil {
		netConn.Close()
		return
	}
	if clientVer != protocol.ProtocolVersion {
		_ = conn.AcceptVersion(0, "")
		netConn.Close()
		return
	}
	if err := conn.AcceptVersion(protocol.ProtocolVersion, tmuxd.Version()); err != nil {
		netConn.Close()
		return
	}

	cl := newClient(conn, netConn, s.clientIDCounter.Add(1))
	go cl.writeLoop()
	s.events <- clientConnectedEvent{c: cl}

	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.events <- clientMessageEvent{c: cl, msg: msg}
	}
	s.events <- clientGoneEvent{c: cl}
}

func peerUIDMatches(conn *net.UnixConn) bool {
	raw, err := conn.SyscallConn()
	if err != nil {
		return false
	}
	var peerUID int
	var credErr error
	raw.Control(func(fd uintptr) {
		cred, err := unix.GetsockoptXucred(int(fd), unix.SOL_LOCAL, unix.LOCAL_PEERCRED)
		if err != nil {
			credErr = err
			return
		}
		peerUID = int(cred.Uid)
	})
	if credErr != nil {
		slog.Warn("getpeereid failed", "err", credErr)
		return false
	}
	return peerUID == os.Getuid()
}

// dispatch is the single goroutine that mutates all entity state. It
// drains one event at a time, handles it to completion, then sweeps
// tombstoned registry entries so no ID resolves differently mid-tick.
func (s *Server) dispatch() {
	for {
		select {
		case ev := <-s.events:
			s.handleEvent(ev)
			s.alertTracker.EndTick()
			s.sessions.Sweep()
			s.windows.Sweep()
			s.panes.Sweep()
		case <-s.done:
			return
		}
	}
}

func (s *Server) handleEvent(ev any) {
	switch e := ev.(type) {
	case paneOutputEvent:
		s.onPaneOutput(e.pane, e.data)
	case paneExitEvent:
		s.onPaneExit(e.pane, e.err)
	case clientConnectedEvent:
		s.clients[e.c.clientID] = e.c
	case clientMessageEvent:
		s.onClientMessage(e.c, e.msg)
	case clientGoneEvent:
		s.onClientGone(e.c)
	case alertEvent:
		s.onAlert(e.ev)
	}
}

// applyLayout resizes every pane tiled in windowID to match the rect the
// layout tree currently assigns it, after any split, close, resize, or
// select-layout changes the tree.
func (s *Server) applyLayout(windowID registry.ID) {
	w, ok := s.windows.Get(windowID)
	if !ok {
		return
	}
	rects := layout.Rects(w.Root(), w.Bounds())
	for node, rect := range rects {
		p, ok := s.panes.Get(node.Pane)
		if !ok {
			continue
		}
		if rect.W > 0 && rect.H > 0 {
			if err := p.Resize(rect.W, rect.H); err != nil {
				slog.Warn("resize pane", "pane", node.Pane, "err", err)
			}
		}
	}
}

// vtHooksFor builds the vt.Hooks a newly spawned pane's Screen uses to
// report side effects back into the dispatcher; paneID is filled in by
// the caller immediately after Insert, before the pane's read loop
// starts, so the closures below always see its final value.
func vtHooksFor(s *Server, windowID registry.ID, paneID *registry.ID) vt.Hooks {
	return vt.Hooks{
		OnBell: func() { s.alertTracker.Bell(windowID, *paneID) },
		OnResponse: func(b []byte) {
			if p, ok := s.panes.Get(*paneID); ok {
				_ = p.Input(b)
				_ = p.Drain()
			}
		},
	}
}
