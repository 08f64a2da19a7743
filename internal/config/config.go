// Package config loads the static startup file (socket path, default
// command, server-wide option defaults) that seeds internal/options at
// boot. Values here change only by editing the file and restarting;
// internal/options handles everything that can change at runtime.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Daemon  DaemonConfig  `toml:"daemon"`
	Client  ClientConfig  `toml:"client"`
	Session SessionConfig `toml:"session"`
	Options OptionsConfig `toml:"options"`
}

type DaemonConfig struct {
	SocketPath               string `toml:"socket_path"`
	AutoExit                 bool   `toml:"auto_exit"`
	DefaultScrollback        uint32 `toml:"default_scrollback"`
	StatePersistence         bool   `toml:"state_persistence"`
	StatePersistenceInterval int    `toml:"state_persistence_interval"`
}

type ClientConfig struct {
	DetachKeybind string `toml:"detach_keybind"`
}

type SessionConfig struct {
	DefaultCommand string   `toml:"default_command"`
	ForwardEnv     []string `toml:"forward_env"`
	ResizePolicy   string   `toml:"resize_policy"`
}

// OptionsConfig seeds the global-server scope of internal/options at
// boot; see options.Defaults for the full spec of each name.
type OptionsConfig struct {
	HistoryLimit      int64  `toml:"history_limit"`
	BaseIndex         int64  `toml:"base_index"`
	PaneBaseIndex     int64  `toml:"pane_base_index"`
	RenumberWindows   bool   `toml:"renumber_windows"`
	AggressiveResize  bool   `toml:"aggressive_resize"`
	PaneMinSize       int64  `toml:"pane_min_size"`
	BellAction        string `toml:"bell_action"`
	VisualBell        bool   `toml:"visual_bell"`
	ActivityAction    string `toml:"activity_action"`
	MonitorActivity   bool   `toml:"monitor_activity"`
	SilenceInterval   int64  `toml:"silence_interval"`
	RemainOnExit      bool   `toml:"remain_on_exit"`
	DestroyUnattached bool   `toml:"destroy_unattached"`
	DefaultLayout     string `toml:"default_layout"`
}

func Default() *Config {
	return &Config{
		Daemon: DaemonConfig{
			DefaultScrollback:        10000,
			StatePersistence:         true,
			StatePersistenceInterval: 30,
		},
		Client: ClientConfig{
			DetachKeybind: "ctrl+b",
		},
		Session: SessionConfig{
			ForwardEnv:   []string{"COLORTERM", "TERM"},
			ResizePolicy: "smallest",
		},
		Options: OptionsConfig{
			HistoryLimit:   2000,
			PaneMinSize:    1,
			BellAction:     "any",
			ActivityAction: "other",
			DefaultLayout:  "even-horizontal",
		},
	}
}

func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	return LoadFrom(path)
}

func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "tmuxd", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "tmuxd", "config.toml"), nil
}

// SocketPath returns the default control-socket path when the config
// file doesn't set daemon.socket_path: under XDG_RUNTIME_DIR if set, or
// a per-user directory under os.TempDir() ($TMPDIR, else /tmp) otherwise.
func SocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "tmuxd.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("tmuxd-%d", os.Getuid()), "tmuxd.sock")
}
