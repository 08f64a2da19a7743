package grid

// Row is one line of cells plus whether it soft-wraps into the next row.
type Row struct {
	Cells   []Cell
	Wrapped bool
}

func newRow(cols int, bg Color) Row {
	cells := make([]Cell, cols)
	blank := Blank(bg)
	for i := range cells {
		cells[i] = blank
	}
	return Row{Cells: cells}
}

// Grid is a fixed-width, variable-height cell buffer with a bounded
// scrollback history. Visible rows are Rows[History:]; rows before that
// index have scrolled off the top and are kept only up to HistoryLimit.
type Grid struct {
	Cols, Rows   int
	HistoryLimit int

	rows    []Row  // history ... visible, length = history + Rows
	history int     // number of rows currently in scrollback
	damage  []bool  // one entry per visible row
}

// New returns a grid of the given size with no scrollback yet accumulated.
func New(cols, rows, historyLimit int) *Grid {
	g := &Grid{Cols: cols, Rows: rows, HistoryLimit: historyLimit}
	g.rows = make([]Row, rows)
	for i := range g.rows {
		g.rows[i] = newRow(cols, Color{})
	}
	g.damage = make([]bool, rows)
	return g
}

// HistoryLen returns the number of rows currently retained in scrollback.
func (g *Grid) HistoryLen() int { return g.history }

// Row returns the visible row at index i (0 is the top of the screen).
func (g *Grid) Row(i int) *Row {
	return &g.rows[g.history+i]
}

// ScrollbackRow returns a scrollback row, 0 being the oldest retained.
func (g *Grid) ScrollbackRow(i int) *Row {
	return &g.rows[i]
}

// MarkDirty flags visible row i as damaged.
func (g *Grid) MarkDirty(i int) {
	if i >= 0 && i < len(g.damage) {
		g.damage[i] = true
	}
}

// Dirty reports whether visible row i has pending damage.
func (g *Grid) Dirty(i int) bool {
	return i >= 0 && i < len(g.damage) && g.damage[i]
}

// ClearDamage resets all damage flags, typically after a render pass.
func (g *Grid) ClearDamage() {
	for i := range g.damage {
		g.damage[i] = false
	}
}

// SetCell writes a cell at visible row/col and marks the row dirty.
func (g *Grid) SetCell(row, col int, c Cell) {
	r := g.Row(row)
	if col < 0 || col >= len(r.Cells) {
		return
	}
	r.Cells[col] = c
	g.MarkDirty(row)
}

// ClearRow resets every cell in visible row i to blank, preserving bg.
func (g *Grid) ClearRow(i int, bg Color) {
	r := g.Row(i)
	blank := Blank(bg)
	for j := range r.Cells {
		r.Cells[j] = blank
	}
	r.Wrapped = false
	g.MarkDirty(i)
}

// ClearRange clears cells [from,to) in visible row i, preserving bg.
func (g *Grid) ClearRange(i, from, to int, bg Color) {
	r := g.Row(i)
	if from < 0 {
		from = 0
	}
	if to > len(r.Cells) {
		to = len(r.Cells)
	}
	blank := Blank(bg)
	for j := from; j < to; j++ {
		r.Cells[j] = blank
	}
	g.MarkDirty(i)
}

// ScrollUp moves the top visible row into scrollback (if history is kept)
// and appends a fresh blank row at the bottom of the visible region
// between [top,bottom] inclusive (0-indexed, bottom inclusive).
func (g *Grid) ScrollUp(top, bottom int, bg Color, keepHistory bool) {
	if top < 0 {
		top = 0
	}
	if bottom >= g.Rows {
		bottom = g.Rows - 1
	}
	if top > bottom {
		return
	}
	if top == 0 && keepHistory && g.HistoryLimit > 0 {
		departing := *g.Row(0)
		g.rows = append(g.rows, Row{})
		copy(g.rows[g.history+1:], g.rows[g.history:len(g.rows)-1])
		g.rows[g.history] = departing
		g.history++
		g.trimHistory()
	}
	g.shiftVisibleUp(top, bottom, bg)
	for i := top; i <= bottom; i++ {
		g.MarkDirty(i)
	}
}

func (g *Grid) shiftVisibleUp(top, bottom int, bg Color) {
	for i := top; i < bottom; i++ {
		*g.Row(i) = *g.Row(i + 1)
	}
	*g.Row(bottom) = newRow(g.Cols, bg)
}

// ScrollDown shifts visible rows [top,bottom] down by one, discarding the
// bottom row and inserting a blank row at top. Used by reverse-index and
// DECSTBM-scoped reverse scrolling; never touches scrollback.
func (g *Grid) ScrollDown(top, bottom int, bg Color) {
	if top < 0 {
		top = 0
	}
	if bottom >= g.Rows {
		bottom = g.Rows - 1
	}
	if top > bottom {
		return
	}
	for i := bottom; i > top; i-- {
		*g.Row(i) = *g.Row(i - 1)
	}
	*g.Row(top) = newRow(g.Cols, bg)
	for i := top; i <= bottom; i++ {
		g.MarkDirty(i)
	}
}

func (g *Grid) trimHistory() {
	excess := g.history - g.HistoryLimit
	if excess <= 0 {
		return
	}
	g.rows = g.rows[excess:]
	g.history -= excess
}

// Resize changes the visible dimensions. Growing rows pulls lines back
// from scrollback to fill the new space; shrinking rows pushes lines
// into scrollback. A column change reflows text: wrapped logical lines
// (runs of rows joined by Row.Wrapped) are rejoined and rewrapped to
// the new width across the whole buffer, scrollback included.
func (g *Grid) Resize(cols, rows int, bg Color) {
	if cols != g.Cols {
		g.resizeCols(cols, bg)
	}
	if rows > g.Rows {
		g.growRows(rows, bg)
	} else if rows < g.Rows {
		g.shrinkRows(rows, bg)
	}
	g.damage = make([]bool, rows)
	for i := range g.damage {
		g.damage[i] = true
	}
}

func (g *Grid) resizeCols(cols int, bg Color) {
	lines := g.collectLogicalLines()
	g.Cols = cols

	var rebuilt []Row
	for _, line := range lines {
		rebuilt = append(rebuilt, wrapLine(line, cols, bg)...)
	}

	visible := g.Rows
	for len(rebuilt) < visible {
		rebuilt = append(rebuilt, newRow(cols, bg))
	}
	g.rows = rebuilt
	if len(g.rows) > visible {
		g.history = len(g.rows) - visible
	} else {
		g.history = 0
	}
	g.trimHistory()
}

func (g *Grid) growRows(rows int, bg Color) {
	need := rows - g.Rows
	pulled := min(need, g.history)
	for i := 0; i < need-pulled; i++ {
		g.rows = append(g.rows, newRow(g.Cols, bg))
	}
	g.history -= pulled
	g.Rows = rows
}

func (g *Grid) shrinkRows(rows int, bg Color) {
	excess := g.Rows - rows
	if g.HistoryLimit > 0 {
		g.history += excess
		g.trimHistory()
	} else {
		g.rows = g.rows[:g.history+rows]
	}
	// trimHistory may have dropped more than `excess` history rows; if the
	// backing slice no longer has room for the new visible height, pad it.
	for len(g.rows) < g.history+rows {
		g.rows = append(g.rows, newRow(g.Cols, bg))
	}
	g.Rows = rows
}
