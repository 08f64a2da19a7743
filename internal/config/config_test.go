package config

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.Daemon.DefaultScrollback, uint32(10000))
	assert.Equal(t, cfg.Daemon.StatePersistence, true)
	assert.Equal(t, cfg.Daemon.StatePersistenceInterval, 30)
	assert.Equal(t, cfg.Client.DetachKeybind, "ctrl+b")
	assert.Equal(t, cfg.Session.DefaultCommand, "")
	assert.DeepEqual(t, cfg.Session.ForwardEnv, []string{"COLORTERM", "TERM"})
	assert.Equal(t, cfg.Session.ResizePolicy, "smallest")
	assert.Equal(t, cfg.Options.HistoryLimit, int64(2000))
	assert.Equal(t, cfg.Options.BellAction, "any")
	assert.Equal(t, cfg.Options.DefaultLayout, "even-horizontal")
}

func TestLoadMissing(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.toml")
	assert.NilError(t, err)
	assert.DeepEqual(t, cfg, Default())
}

func TestLoadDefaultCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	err := os.WriteFile(path, []byte(`[session]
default_command = "/bin/zsh"
`), 0o600)
	assert.NilError(t, err)

	cfg, err := LoadFrom(path)
	assert.NilError(t, err)
	assert.Equal(t, cfg.Session.DefaultCommand, "/bin/zsh")
	// Other defaults preserved.
	assert.Equal(t, cfg.Daemon.DefaultScrollback, uint32(10000))
	assert.Equal(t, cfg.Client.DetachKeybind, "ctrl+b")
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	err := os.WriteFile(path, []byte(`[daemon]
default_scrollback = 5000
auto_exit = true

[client]
detach_keybind = "ctrl+q"

[session]
default_command = "/usr/bin/fish"
forward_env = ["TERM"]

[options]
history_limit = 5000
renumber_windows = true
`), 0o600)
	assert.NilError(t, err)

	cfg, err := LoadFrom(path)
	assert.NilError(t, err)
	assert.Equal(t, cfg.Daemon.DefaultScrollback, uint32(5000))
	assert.Equal(t, cfg.Daemon.AutoExit, true)
	assert.Equal(t, cfg.Client.DetachKeybind, "ctrl+q")
	assert.DeepEqual(t, cfg.Session.ForwardEnv, []string{"TERM"})
	assert.Equal(t, cfg.Session.DefaultCommand, "/usr/bin/fish")
	assert.Equal(t, cfg.Options.HistoryLimit, int64(5000))
	assert.Equal(t, cfg.Options.RenumberWindows, true)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	err := os.WriteFile(path, []byte(`not valid toml {{`), 0o600)
	assert.NilError(t, err)

	_, err = LoadFrom(path)
	assert.Assert(t, err != nil)
}

func TestSocketPathUsesRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	assert.Equal(t, SocketPath(), "/run/user/1000/tmuxd.sock")
}
