package server

import (
	"bytes"
	"fmt"

	"tmuxd/internal/grid"
	"tmuxd/internal/vt"
)

// renderFull serializes the screen's visible grid as a full redraw: erase
// display, home cursor, the text and minimal SGR runs for each row, then
// a final cursor position and visibility command. Clients are raw-byte
// pass-throughs (see the client package doc comment), so this is plain
// terminal output, not a custom wire format.
func renderFull(screen *vt.Screen) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x1b[2J\x1b[H")

	g := screen.Grid()
	var cur grid.Cell
	haveCur := false
	for row := 0; row < g.Rows; row++ {
		r := g.Row(row)
		for _, c := range r.Cells {
			if c.IsWideSpacer() {
				continue
			}
			if !haveCur || cur.Fg != c.Fg || cur.Bg != c.Bg || cur.Attr != c.Attr {
				buf.Write(sgr(c))
				cur = c
				haveCur = true
			}
			if c.Rune == 0 {
				buf.WriteByte(' ')
			} else {
				for _, r := range c.Runes() {
					buf.WriteRune(r)
				}
			}
		}
		if row < g.Rows-1 {
			buf.WriteString("\r\n")
		}
	}

	row, col := screen.CursorPosition()
	fmt.Fprintf(&buf, "\x1b[%d;%dH", row+1, col+1)
	if screen.CursorVisible() {
		buf.WriteString("\x1b[?25h")
	} else {
		buf.WriteString("\x1b[?25l")
	}
	return buf.Bytes()
}

// sgr renders the CSI SGR sequence selecting c's attributes and colors,
// always starting from a full reset so consecutive full redraws never
// inherit a prior cell's state from outside this function's control.
func sgr(c grid.Cell) []byte {
	var parts []byte
	parts = append(parts, []byte("\x1b[0")...)
	if c.Attr&grid.AttrBold != 0 {
		parts = append(parts, ";1"...)
	}
	if c.Attr&grid.AttrDim != 0 {
		parts = append(parts, ";2"...)
	}
	if c.Attr&grid.AttrItalic != 0 {
		parts = append(parts, ";3"...)
	}
	if c.Attr&grid.AttrUnderline != 0 {
		parts = append(parts, ";4"...)
	}
	if c.Attr&grid.AttrBlink != 0 {
		parts = append(parts, ";5"...)
	}
	if c.Attr&grid.AttrReverse != 0 {
		parts = append(parts, ";7"...)
	}
	if c.Attr&grid.AttrHidden != 0 {
		parts = append(parts, ";8"...)
	}
	if c.Attr&grid.AttrStrikethrough != 0 {
		parts = append(parts, ";9"...)
	}
	parts = append(parts, colorSGR(c.Fg, false)...)
	parts = append(parts, colorSGR(c.Bg, true)...)
	parts = append(parts, 'm')
	return parts
}

func colorSGR(c grid.Color, bg bool) []byte {
	switch c.Kind {
	case grid.ColorIndexed:
		if bg {
			return fmt.Appendf(nil, ";48;5;%d", c.Index)
		}
		return fmt.Appendf(nil, ";38;5;%d", c.Index)
	case grid.ColorRGB:
		if bg {
			return fmt.Appendf(nil, ";48;2;%d;%d;%d", c.R, c.G, c.B)
		}
		return fmt.Appendf(nil, ";38;2;%d;%d;%d", c.R, c.G, c.B)
	default:
		return nil
	}
}
