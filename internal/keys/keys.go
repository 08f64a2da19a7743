// Package keys parses the "ctrl+x"-style key notation used by the
// client's detach keybinding, independent of any particular
// terminal emulation library.
package keys

import (
	"fmt"
	"strings"
)

// Code identifies a key. Printable keys use their rune value directly;
// named keys use the constants below, chosen outside the printable
// ASCII range so the two spaces never collide.
type Code rune

const (
	Enter Code = 0xE000 + iota
	Escape
	Tab
	Backspace
	Up
	Down
	Left
	Right
	Home
	End
	PageUp
	PageDown
	Insert
	Delete
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
)

// Mod is a bitmask of keyboard modifiers.
type Mod uint8

const (
	ModCtrl Mod = 1 << iota
	ModShift
	ModAlt
	ModSuper
)

// Input is one decoded key notation: a key code plus modifiers.
type Input struct {
	Code Code
	Mods Mod
}

var named = map[string]Code{
	"enter": Enter, "return": Enter,
	"escape": Escape, "esc": Escape,
	"tab":       Tab,
	"backspace": Backspace,
	"up":        Up,
	"down":      Down,
	"left":      Left,
	"right":     Right,
	"home":      Home,
	"end":       End,
	"pageup":    PageUp, "pgup": PageUp,
	"pagedown": PageDown, "pgdn": PageDown,
	"insert": Insert,
	"delete": Delete, "del": Delete,
	"f1": F1, "f2": F2, "f3": F3, "f4": F4, "f5": F5, "f6": F6,
	"f7": F7, "f8": F8, "f9": F9, "f10": F10, "f11": F11, "f12": F12,
}

// Parse decodes a notation like "ctrl+shift+a" or "pageup" into an Input.
func Parse(notation string) (Input, error) {
	notation = strings.TrimSpace(strings.ToLower(notation))
	if notation == "" {
		return Input{}, fmt.Errorf("keys: empty notation")
	}
	parts := strings.Split(notation, "+")
	keyPart := parts[len(parts)-1]

	var mods Mod
	for _, m := range parts[:len(parts)-1] {
		switch m {
		case "ctrl", "control", "c":
			mods |= ModCtrl
		case "shift", "s":
			mods |= ModShift
		case "alt", "opt", "option", "m":
			mods |= ModAlt
		case "super", "cmd", "command":
			mods |= ModSuper
		default:
			return Input{}, fmt.Errorf("keys: unknown modifier %q", m)
		}
	}

	code, err := parseKeyName(keyPart)
	if err != nil {
		return Input{}, err
	}
	return Input{Code: code, Mods: mods}, nil
}

func parseKeyName(name string) (Code, error) {
	if name == "space" {
		return Code(' '), nil
	}
	if c, ok := named[name]; ok {
		return c, nil
	}
	if len(name) == 1 {
		ch := name[0]
		if ch >= 0x20 && ch <= 0x7e {
			return Code(ch), nil
		}
	}
	return 0, fmt.Errorf("keys: unknown key %q", name)
}

// Printable reports whether code is a plain printable ASCII key (not one
// of the named constants above 0xE000).
func (c Code) Printable() bool { return c >= 0x20 && c <= 0x7e }

// Detach is a parsed detach keybinding, matched against either its raw
// control byte or the Kitty keyboard protocol CSI-u sequence a modern
// terminal sends for ctrl+<key> combinations ESC itself can't represent.
type Detach struct {
	RawByte byte
	CSISeq  []byte
}

// ParseDetach parses a detach keybinding notation, requiring a ctrl
// modifier over a printable key (tmux's default is ctrl+b, for example).
func ParseDetach(notation string) (Detach, error) {
	in, err := Parse(notation)
	if err != nil {
		return Detach{}, err
	}
	if in.Mods&ModCtrl == 0 {
		return Detach{}, fmt.Errorf("keys: detach keybind must include ctrl")
	}
	if !in.Code.Printable() {
		return Detach{}, fmt.Errorf("keys: detach keybind must be ctrl+<printable key>")
	}
	kittyMods := uint32(1)
	if in.Mods&ModShift != 0 {
		kittyMods += 1
	}
	if in.Mods&ModAlt != 0 {
		kittyMods += 2
	}
	if in.Mods&ModCtrl != 0 {
		kittyMods += 4
	}
	if in.Mods&ModSuper != 0 {
		kittyMods += 8
	}
	raw := byte(uint32(in.Code) & 0x1f)
	if raw == 0x1b {
		// Collides with ESC; only the CSI u form can be matched unambiguously.
		raw = 0
	}
	return Detach{
		RawByte: raw,
		CSISeq:  fmt.Appendf(nil, "\x1b[%d;%du", in.Code, kittyMods),
	}, nil
}

// Matches reports whether buf begins with this detach binding, either as
// the raw control byte alone or the full CSI-u sequence.
func (d Detach) Matches(buf []byte) (matched bool, length int) {
	if len(d.CSISeq) > 0 && len(buf) >= len(d.CSISeq) && string(buf[:len(d.CSISeq)]) == string(d.CSISeq) {
		return true, len(d.CSISeq)
	}
	if d.RawByte != 0 && len(buf) >= 1 && buf[0] == d.RawByte {
		return true, 1
	}
	return false, 0
}

// namedSequences gives the classic (non-application-mode) VT100/ANSI byte
// sequence for each named key, used to encode an Input into pty input
// when a client sends a decoded Keys message instead of raw bytes.
var namedSequences = map[Code]string{
	Enter: "\r", Tab: "\t", Backspace: "\x7f", Escape: "\x1b",
	Up: "\x1b[A", Down: "\x1b[B", Right: "\x1b[C", Left: "\x1b[D",
	Home: "\x1b[H", End: "\x1b[F",
	PageUp: "\x1b[5~", PageDown: "\x1b[6~",
	Insert: "\x1b[2~", Delete: "\x1b[3~",
	F1: "\x1bOP", F2: "\x1bOQ", F3: "\x1bOR", F4: "\x1bOS",
	F5: "\x1b[15~", F6: "\x1b[17~", F7: "\x1b[18~", F8: "\x1b[19~",
	F9: "\x1b[20~", F10: "\x1b[21~", F11: "\x1b[23~", F12: "\x1b[24~",
}

// Encode renders in as the bytes a terminal would send for that key
// press, applying ctrl by clearing bits 6-7 of a printable key (the
// standard control-character mapping) and alt by prefixing ESC.
func Encode(in Input) []byte {
	var base []byte
	if seq, ok := namedSequences[in.Code]; ok {
		base = []byte(seq)
	} else if in.Code.Printable() {
		r := rune(in.Code)
		if in.Mods&ModCtrl != 0 && r >= 0x3f && r < 0x80 {
			base = []byte{byte(r) & 0x1f}
		} else {
			base = []byte(string(r))
		}
	}
	if len(base) == 0 {
		return nil
	}
	if in.Mods&ModAlt != 0 {
		return append([]byte{0x1b}, base...)
	}
	return base
}
