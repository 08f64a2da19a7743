// Package grid implements the fixed-width cell buffer and scrollback
// history that back a terminal screen. It owns no escape-sequence
// interpretation; internal/vt drives it.
package grid

import "github.com/unilibs/uniwidth"

// Attr is a bitmask of cell rendering attributes.
type Attr uint16

const (
	AttrBold Attr = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
	AttrHidden
	AttrStrikethrough
	// AttrWideSpacer marks the second column of a 2-column wide rune; it
	// carries no content of its own and is skipped by renderers.
	AttrWideSpacer
)

// ColorKind distinguishes the three color representations a cell may use.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorIndexed
	ColorRGB
)

// Color is a terminal color: the default (inherits the pane's palette
// default), an indexed palette entry (0-255), or a 24-bit RGB triple.
type Color struct {
	Kind    ColorKind
	Index   uint8
	R, G, B uint8
}

// MaxCombiners is the fixed cap on zero-width combining marks stacked
// onto a single base cell; combiners past the cap are dropped.
const MaxCombiners = 5

// Cell is one grid position: a base rune plus up to MaxCombiners
// zero-width combining marks, its display width, and its styling.
type Cell struct {
	Rune         rune
	Combiners    [MaxCombiners]rune
	NumCombiners uint8
	Width        uint8
	Fg           Color
	Bg           Color
	Attr         Attr
}

// AppendCombiner stacks a zero-width combining mark onto the cell,
// dropping it once MaxCombiners is reached.
func (c *Cell) AppendCombiner(r rune) {
	if int(c.NumCombiners) >= MaxCombiners {
		return
	}
	c.Combiners[c.NumCombiners] = r
	c.NumCombiners++
}

// Runes returns the cell's full code point sequence: base rune followed
// by any stacked combiners.
func (c Cell) Runes() []rune {
	out := make([]rune, 0, 1+c.NumCombiners)
	out = append(out, c.Rune)
	for i := 0; i < int(c.NumCombiners); i++ {
		out = append(out, c.Combiners[i])
	}
	return out
}

// Blank returns the empty cell used to clear grid positions. bg is
// preserved across clears so that background-color-erase semantics hold.
func Blank(bg Color) Cell {
	return Cell{Rune: ' ', Width: 1, Bg: bg}
}

// IsWideSpacer reports whether this cell is the trailing half of a wide rune.
func (c Cell) IsWideSpacer() bool { return c.Attr&AttrWideSpacer != 0 }

// RuneWidth returns the display width of r: 0 for combining/control runes,
// 2 for wide runes (CJK, fullwidth, most emoji), 1 otherwise.
func RuneWidth(r rune) int {
	return uniwidth.RuneWidth(r)
}
