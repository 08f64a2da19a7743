package main

import (
	"cmp"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"
	kongcompletion "github.com/jotaen/kong-completion"
	"golang.org/x/term"

	"tmuxd"
	"tmuxd/client"
	"tmuxd/internal/config"
	"tmuxd/internal/keys"
	"tmuxd/internal/protocol"
	"tmuxd/internal/server"
)

type CLI struct {
	Version kong.VersionFlag          `help:"Print version."`
	Socket  string                    `help:"Unix socket path override." env:"TMUXD_SOCKET"`
	Attach  AttachCmd                 `cmd:"" aliases:"a" help:"Attach to a session (create if needed)."`
	New     NewCmd                    `cmd:"" name:"new-session" aliases:"new" help:"Create a session without attaching."`
	List    ListCmd                   `cmd:"" name:"list-sessions" aliases:"ls" help:"List sessions."`

	NewWindow     NewWindowCmd     `cmd:"" name:"new-window" help:"Create a window in a session."`
	SplitWindow   SplitWindowCmd   `cmd:"" name:"split-window" aliases:"splitw" help:"Split the active pane."`
	SelectPane    SelectPaneCmd    `cmd:"" name:"select-pane" help:"Select a pane within a window."`
	SelectWindow  SelectWindowCmd  `cmd:"" name:"select-window" help:"Select a window within a session."`
	SelectLayout  SelectLayoutCmd  `cmd:"" name:"select-layout" help:"Apply a layout preset to the active window."`
	ResizePane    ResizePaneCmd    `cmd:"" name:"resize-pane" help:"Resize the active pane."`
	RotateWindow  RotateWindowCmd  `cmd:"" name:"rotate-window" help:"Rotate pane positions in the active window."`
	ZoomPane      ZoomPaneCmd      `cmd:"" name:"zoom-pane" help:"Toggle zoom on the active pane."`
	RenameWindow  RenameWindowCmd  `cmd:"" name:"rename-window" help:"Rename the active window."`
	RenameSession RenameSessionCmd `cmd:"" name:"rename-session" help:"Rename a session."`
	SetOption     SetOptionCmd     `cmd:"" name:"set-option" aliases:"set" help:"Set a server option."`

	SendKeys    SendKeysCmd    `cmd:"" name:"send-keys" aliases:"send" help:"Send keys to a pane."`
	CapturePane CapturePaneCmd `cmd:"" name:"capture-pane" aliases:"capturep" help:"Print a pane's visible contents."`

	KillPane    KillPaneCmd    `cmd:"" name:"kill-pane" help:"Kill a pane."`
	KillWindow  KillWindowCmd  `cmd:"" name:"kill-window" help:"Kill a window."`
	KillSession KillSessionCmd `cmd:"" name:"kill-session" help:"Kill a session."`
	KillServer  KillServerCmd  `cmd:"" name:"kill-server" help:"Shut down the daemon."`
	Detach      DetachCmd      `cmd:"" name:"detach-client" aliases:"detach" help:"Detach from current session."`

	Init       InitCmd                   `cmd:"" help:"Create default config file."`
	Config     ConfigCmd                 `cmd:"" help:"Print effective configuration."`
	Daemon     DaemonCmd                 `cmd:"" help:"Start daemon in foreground."`
	Completion kongcompletion.Completion `cmd:"" help:"Print shell completion setup instructions."`
}

const (
	headlessCols = 120
	headlessRows = 30
)

// joinAttached connects to the daemon (starting it if absent) and, when
// session is non-empty, identifies into it headlessly: the session is
// created if it doesn't exist yet, matching new-session -A semantics,
// but no terminal is put into raw mode or wired to stdio.
func joinAttached(cfg *config.Config, session string) (*client.Client, error) {
	sock := socketPath(cfg)
	if err := ensureDaemon(sock); err != nil {
		return nil, err
	}
	c, err := client.Connect(sock)
	if err != nil {
		return nil, err
	}
	if session == "" {
		return c, nil
	}
	if _, err := c.Identify(&protocol.Identify{
		SessionName: session,
		Term:        os.Getenv("TERM"),
		Cols:        headlessCols,
		Rows:        headlessRows,
		Version:     tmuxd.Version(),
	}); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func socketPath(cfg *config.Config) string {
	return cmp.Or(cfg.Daemon.SocketPath, config.SocketPath())
}

// runCommand joins session (if non-empty) then issues a single
// tmux-style command line, printing any text the server returns.
func runCommand(cfg *config.Config, session string, argv []string) error {
	c, err := joinAttached(cfg, session)
	if err != nil {
		return err
	}
	defer c.Close()

	reply, err := c.Command(argv)
	if err != nil {
		return err
	}
	if reply.Error != "" {
		fmt.Print(reply.Error)
	}
	return nil
}

type AttachCmd struct {
	Name string `arg:"" optional:"" help:"Session name."`
}

func (cmd *AttachCmd) Run(cfg *config.Config) error {
	if !isInteractiveAttachTTY() {
		return fmt.Errorf("interactive attach requires a TTY")
	}

	dk, err := keys.ParseDetach(cfg.Client.DetachKeybind)
	if err != nil {
		return fmt.Errorf("invalid detach_keybind %q: %w", cfg.Client.DetachKeybind, err)
	}

	sock := socketPath(cfg)
	if err := ensureDaemon(sock); err != nil {
		return err
	}
	c, err := client.Connect(sock)
	if err != nil {
		return err
	}
	defer c.Close()

	return c.RunAttach(cmd.Name, dk, cfg.Session.ForwardEnv)
}

type NewCmd struct {
	Name string `arg:"" optional:"" help:"Session name."`
}

func (cmd *NewCmd) Run(cfg *config.Config) error {
	c, err := joinAttached(cfg, cmd.Name)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("created session %q\n", cmd.Name)
	return nil
}

type ListCmd struct{}

func (cmd *ListCmd) Run(cfg *config.Config) error {
	return runCommand(cfg, "", []string{"list-sessions"})
}

type NewWindowCmd struct {
	Session string `required:"" short:"t" help:"Target session."`
	Name    string `short:"n" help:"Window name."`
}

func (cmd *NewWindowCmd) Run(cfg *config.Config) error {
	argv := []string{"new-window"}
	if cmd.Name != "" {
		argv = append(argv, "-n", cmd.Name)
	}
	return runCommand(cfg, cmd.Session, argv)
}

type SplitWindowCmd struct {
	Session    string `required:"" short:"t" help:"Target session."`
	Vertical   bool   `short:"v" help:"Split vertically instead of horizontally."`
	WorkingDir string `short:"c" help:"Working directory for the new pane."`
}

func (cmd *SplitWindowCmd) Run(cfg *config.Config) error {
	argv := []string{"split-window"}
	if cmd.Vertical {
		argv = append(argv, "-v")
	}
	if cmd.WorkingDir != "" {
		argv = append(argv, "-c", cmd.WorkingDir)
	}
	return runCommand(cfg, cmd.Session, argv)
}

type SelectPaneCmd struct {
	Session string `required:"" short:"t" help:"Target session."`
	Target  string `short:"p" help:"Pane ID to select."`
	Last    bool   `short:"l" help:"Select the previously active pane."`
}

func (cmd *SelectPaneCmd) Run(cfg *config.Config) error {
	argv := []string{"select-pane"}
	if cmd.Last {
		argv = append(argv, "-l")
	} else {
		argv = append(argv, "-t", cmd.Target)
	}
	return runCommand(cfg, cmd.Session, argv)
}

type SelectWindowCmd struct {
	Session string `required:"" short:"t" help:"Target session."`
	Index   int    `short:"i" default:"-1" help:"Window index to select."`
	Last    bool   `short:"l" help:"Select the previously active window."`
}

func (cmd *SelectWindowCmd) Run(cfg *config.Config) error {
	argv := []string{"select-window"}
	if cmd.Last {
		argv = append(argv, "-l")
	} else {
		argv = append(argv, "-t", strconv.Itoa(cmd.Index))
	}
	return runCommand(cfg, cmd.Session, argv)
}

type SelectLayoutCmd struct {
	Session string `required:"" short:"t" help:"Target session."`
	Preset  string `arg:"" enum:"even-horizontal,even-vertical,main-horizontal,main-vertical,tiled" help:"Layout preset name."`
}

func (cmd *SelectLayoutCmd) Run(cfg *config.Config) error {
	return runCommand(cfg, cmd.Session, []string{"select-layout", cmd.Preset})
}

type ResizePaneCmd struct {
	Session string `required:"" short:"t" help:"Target session."`
	Up      int    `short:"U" default:"0" help:"Move the divider next to the active pane up by N cells."`
	Down    int    `short:"D" default:"0" help:"Move the divider next to the active pane down by N cells."`
	Left    int    `short:"L" default:"0" help:"Move the divider next to the active pane left by N cells."`
	Right   int    `short:"R" default:"0" help:"Move the divider next to the active pane right by N cells."`
}

func (cmd *ResizePaneCmd) Run(cfg *config.Config) error {
	return runCommand(cfg, cmd.Session, resizePaneArgv(*cmd))
}

func resizePaneArgv(cmd ResizePaneCmd) []string {
	argv := []string{"resize-pane"}
	add := func(flag string, n int) {
		if n != 0 {
			argv = append(argv, flag, strconv.Itoa(n))
		}
	}
	add("-U", cmd.Up)
	add("-D", cmd.Down)
	add("-L", cmd.Left)
	add("-R", cmd.Right)
	return argv
}

type RotateWindowCmd struct {
	Session string `required:"" short:"t" help:"Target session."`
	Reverse bool   `short:"D" help:"Rotate in the opposite direction."`
}

func (cmd *RotateWindowCmd) Run(cfg *config.Config) error {
	argv := []string{"rotate-window"}
	if cmd.Reverse {
		argv = append(argv, "-D")
	}
	return runCommand(cfg, cmd.Session, argv)
}

type ZoomPaneCmd struct {
	Session string `required:"" short:"t" help:"Target session."`
}

func (cmd *ZoomPaneCmd) Run(cfg *config.Config) error {
	return runCommand(cfg, cmd.Session, []string{"zoom-pane"})
}

type RenameWindowCmd struct {
	Session string `required:"" short:"t" help:"Target session."`
	Name    string `arg:"" help:"New window name."`
}

func (cmd *RenameWindowCmd) Run(cfg *config.Config) error {
	return runCommand(cfg, cmd.Session, []string{"rename-window", cmd.Name})
}

type RenameSessionCmd struct {
	Session string `required:"" short:"t" help:"Session to rename."`
	Name    string `arg:"" help:"New session name."`
}

func (cmd *RenameSessionCmd) Run(cfg *config.Config) error {
	return runCommand(cfg, cmd.Session, []string{"rename-session", cmd.Name})
}

type SetOptionCmd struct {
	Session string `short:"t" help:"Target session (any attached client is sufficient)."`
	Name    string `arg:"" help:"Option name."`
	Value   string `arg:"" help:"Option value."`
}

func (cmd *SetOptionCmd) Run(cfg *config.Config) error {
	return runCommand(cfg, cmd.Session, []string{"set-option", cmd.Name, cmd.Value})
}

type SendKeysCmd struct {
	Session string   `required:"" short:"t" help:"Target session."`
	Pane    string   `short:"p" help:"Pane ID (default: session's active pane)."`
	Text    []string `arg:"" optional:"" help:"Literal text to send."`
}

func (cmd *SendKeysCmd) Run(cfg *config.Config) error {
	if len(cmd.Text) == 0 {
		return fmt.Errorf("send-keys requires text")
	}
	argv := append([]string{"send-keys"}, cmd.Text...)
	if cmd.Pane != "" {
		argv = append(argv, "-t", cmd.Pane)
	}
	return runCommand(cfg, cmd.Session, argv)
}

type CapturePaneCmd struct {
	Session string `required:"" short:"t" help:"Target session."`
	Pane    string `short:"p" help:"Pane ID (default: session's active pane)."`
}

func (cmd *CapturePaneCmd) Run(cfg *config.Config) error {
	argv := []string{"capture-pane"}
	if cmd.Pane != "" {
		argv = append(argv, "-t", cmd.Pane)
	}
	return runCommand(cfg, cmd.Session, argv)
}

type KillPaneCmd struct {
	Session string `required:"" short:"t" help:"Target session."`
	Pane    string `short:"p" help:"Pane ID (default: session's active pane)."`
}

func (cmd *KillPaneCmd) Run(cfg *config.Config) error {
	argv := []string{"kill-pane"}
	if cmd.Pane != "" {
		argv = append(argv, "-t", cmd.Pane)
	}
	return runCommand(cfg, cmd.Session, argv)
}

type KillWindowCmd struct {
	Session string `required:"" short:"t" help:"Target session."`
	Index   string `short:"i" help:"Window index (default: session's current window)."`
}

func (cmd *KillWindowCmd) Run(cfg *config.Config) error {
	argv := []string{"kill-window"}
	if cmd.Index != "" {
		argv = append(argv, "-t", cmd.Index)
	}
	return runCommand(cfg, cmd.Session, argv)
}

type KillSessionCmd struct {
	Name string `arg:"" help:"Session name."`
}

func (cmd *KillSessionCmd) Run(cfg *config.Config) error {
	if err := runCommand(cfg, "", []string{"kill-session", "-t", cmd.Name}); err != nil {
		return err
	}
	fmt.Printf("killed session %q\n", cmd.Name)
	return nil
}

type KillServerCmd struct{}

func (cmd *KillServerCmd) Run(cfg *config.Config) error {
	return runCommand(cfg, "", []string{"kill-server"})
}

type DetachCmd struct {
	Session string `required:"" short:"t" help:"Session whose client should be detached."`
}

func (cmd *DetachCmd) Run(cfg *config.Config) error {
	return runCommand(cfg, cmd.Session, []string{"detach-client"})
}

type InitCmd struct{}

func (cmd *InitCmd) Run(_ *config.Config) error {
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(config.Default()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("created %s\n", path)
	return nil
}

type ConfigCmd struct{}

func (cmd *ConfigCmd) Run(cfg *config.Config) error {
	return toml.NewEncoder(os.Stdout).Encode(cfg)
}

type DaemonCmd struct {
	AutoExit bool `help:"Exit when last session dies."`
}

func (cmd *DaemonCmd) Run(cfg *config.Config) error {
	if cmd.AutoExit {
		cfg.Daemon.AutoExit = true
	}
	srv := server.New(cfg)
	return srv.Listen()
}

func isInteractiveAttachTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

type exitCoder interface {
	ExitCode() int
}

func main() {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.UsageOnError(),
		kong.Vars{"version": tmuxd.Version()},
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	kongcompletion.Register(parser, kongcompletion.WithPredictor("session", sessionPredictor{}))

	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		parser.Printf("%s", err)
		parser.Exit(1)
		return
	}

	cfg, err := config.Load()
	ctx.FatalIfErrorf(err)
	if cli.Socket != "" {
		cfg.Daemon.SocketPath = cli.Socket
	}
	err = ctx.Run(cfg)
	if err == nil {
		return
	}

	var ec exitCoder
	if errors.As(err, &ec) {
		os.Exit(ec.ExitCode())
	}
	ctx.FatalIfErrorf(err)
}

func ensureDaemon(sock string) error {
	if client.DaemonRunning(sock) {
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	dir := filepath.Dir(sock)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}

	logFile, err := os.CreateTemp(dir, "tmuxd-server-*.log")
	if err != nil {
		return fmt.Errorf("create daemon log: %w", err)
	}

	cmd := exec.Command(exe, "daemon", "--socket", sock)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdout = nil
	cmd.Stderr = logFile
	if err := cmd.Start(); err != nil {
		logFile.Close()
		os.Remove(logFile.Name())
		return fmt.Errorf("start daemon: %w", err)
	}

	finalPath := filepath.Join(dir, fmt.Sprintf("tmuxd-server-%d.log", cmd.Process.Pid))
	os.Rename(logFile.Name(), finalPath)
	logFile.Close()
	cmd.Process.Release()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("unix", sock)
		if err == nil {
			conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("timed out waiting for daemon at %s", sock)
}
