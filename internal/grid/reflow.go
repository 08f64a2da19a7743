package grid

// collectLogicalLines regroups the full row buffer (scrollback + visible)
// into logical lines: runs of consecutive rows joined by Wrapped, each
// trimmed of the trailing blank cells that padded the old row width.
func (g *Grid) collectLogicalLines() [][]Cell {
	var lines [][]Cell
	var cur []Cell
	for i := range g.rows {
		r := &g.rows[i]
		cur = append(cur, r.Cells...)
		if !r.Wrapped {
			lines = append(lines, trimTrailingBlank(cur))
			cur = nil
		}
	}
	if len(cur) > 0 {
		lines = append(lines, trimTrailingBlank(cur))
	}
	return lines
}

func isBlankCell(c Cell) bool {
	return c.Rune == ' ' && c.Width == 1 && c.Attr == 0 && c.NumCombiners == 0
}

func trimTrailingBlank(cells []Cell) []Cell {
	end := len(cells)
	for end > 0 && isBlankCell(cells[end-1]) {
		end--
	}
	return cells[:end]
}

// wrapLine rejoins a logical line's cells into rows of width cols,
// setting Wrapped on every row but the last. It never splits a wide
// rune from its spacer cell across a wrap point.
func wrapLine(cells []Cell, cols int, bg Color) []Row {
	if len(cells) == 0 {
		return []Row{newRow(cols, bg)}
	}
	var rows []Row
	for i := 0; i < len(cells); {
		end := min(i+cols, len(cells))
		if end < len(cells) && end-i > 1 && cells[end-1].Width == 2 {
			end--
		}
		chunk := cells[i:end]
		row := Row{Cells: make([]Cell, cols)}
		copy(row.Cells, chunk)
		blank := Blank(bg)
		for j := len(chunk); j < cols; j++ {
			row.Cells[j] = blank
		}
		row.Wrapped = end < len(cells)
		rows = append(rows, row)
		i = end
	}
	return rows
}
