package grid

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestSetCellRoundTrip(t *testing.T) {
	g := New(10, 5, 100)
	c := Cell{Rune: 'x', Width: 1}
	g.SetCell(2, 3, c)
	assert.Equal(t, g.Row(2).Cells[3].Rune, 'x')
	assert.Assert(t, g.Dirty(2))
	assert.Assert(t, !g.Dirty(0))
}

func TestScrollUpKeepsHistoryBounded(t *testing.T) {
	g := New(10, 3, 2)
	for i := 0; i < 10; i++ {
		g.ScrollUp(0, 2, Color{}, true)
	}
	assert.Assert(t, g.HistoryLen() <= 2)
}

func TestScrollUpWithoutHistory(t *testing.T) {
	g := New(10, 3, 0)
	g.SetCell(0, 0, Cell{Rune: 'a', Width: 1})
	g.ScrollUp(0, 2, Color{}, true)
	assert.Equal(t, g.HistoryLen(), 0)
}

func TestResizeGrowPullsFromHistory(t *testing.T) {
	g := New(10, 3, 10)
	g.SetCell(0, 0, Cell{Rune: 'a', Width: 1})
	g.ScrollUp(0, 2, Color{}, true)
	assert.Equal(t, g.HistoryLen(), 1)
	g.Resize(10, 4, Color{})
	assert.Equal(t, g.Rows, 4)
	assert.Equal(t, g.HistoryLen(), 0)
}

func TestResizeShrinkPushesToHistory(t *testing.T) {
	g := New(10, 4, 10)
	g.Resize(10, 2, Color{})
	assert.Equal(t, g.Rows, 2)
	assert.Equal(t, g.HistoryLen(), 2)
}

func TestResizeColsPreservesContent(t *testing.T) {
	g := New(5, 2, 0)
	g.SetCell(0, 0, Cell{Rune: 'z', Width: 1})
	g.Resize(8, 2, Color{})
	assert.Equal(t, g.Row(0).Cells[0].Rune, 'z')
	assert.Equal(t, len(g.Row(0).Cells), 8)
}

func TestResizeColsReflowsWrappedLine(t *testing.T) {
	g := New(3, 2, 0)
	for i, r := range []rune("abcd") {
		g.SetCell(i/3, i%3, Cell{Rune: r, Width: 1})
	}
	g.Row(0).Wrapped = true

	g.Resize(4, 2, Color{})

	assert.Equal(t, g.Row(0).Cells[0].Rune, 'a')
	assert.Equal(t, g.Row(0).Cells[1].Rune, 'b')
	assert.Equal(t, g.Row(0).Cells[2].Rune, 'c')
	assert.Equal(t, g.Row(0).Cells[3].Rune, 'd')
	assert.Assert(t, !g.Row(0).Wrapped)
}

func TestResizeColsRewrapsNarrower(t *testing.T) {
	g := New(4, 3, 5)
	for i, r := range []rune("abcd") {
		g.SetCell(0, i, Cell{Rune: r, Width: 1})
	}

	g.Resize(2, 3, Color{})

	// The rewrapped "abcd" line no longer fits in 3 visible rows once
	// split at width 2, so its first row ages into scrollback the same
	// way ScrollUp would; the rest of the window still shows the tail.
	assert.Equal(t, g.HistoryLen(), 1)
	sb := g.ScrollbackRow(0)
	assert.Equal(t, sb.Cells[0].Rune, 'a')
	assert.Equal(t, sb.Cells[1].Rune, 'b')
	assert.Assert(t, sb.Wrapped)
	assert.Equal(t, g.Row(0).Cells[0].Rune, 'c')
	assert.Equal(t, g.Row(0).Cells[1].Rune, 'd')
}

func TestClearRowPreservesBackground(t *testing.T) {
	g := New(4, 2, 0)
	bg := Color{Kind: ColorIndexed, Index: 3}
	g.SetCell(0, 0, Cell{Rune: 'q', Width: 1})
	g.ClearRow(0, bg)
	for _, c := range g.Row(0).Cells {
		assert.Equal(t, c.Rune, ' ')
		assert.Equal(t, c.Bg, bg)
	}
}
