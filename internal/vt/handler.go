package vt

import (
	"fmt"
	"image/color"

	"github.com/danielgatis/go-ansicode"

	"tmuxd/internal/grid"
)

// Ensure Screen satisfies the decoder's callback interface, the same way
// danielgatis-go-headless-term's Terminal asserts it against ansicode.Handler.
var _ ansicode.Handler = (*Screen)(nil)

// Input prints one decoded rune at the cursor, handling auto-wrap and
// wide-character spacer cells. A width-0 rune is a combining mark: it
// stacks onto the preceding base cell (skipping over a wide spacer) up
// to grid.MaxCombiners, and is dropped if there is no preceding cell or
// the cap is already full.
func (s *Screen) Input(r rune) {
	w := grid.RuneWidth(r)
	if w == 0 {
		s.appendCombiner(r)
		return
	}
	g := s.active()
	if s.pendingWrap {
		if s.mode&ModeAutoWrap != 0 {
			g.Row(s.cursorRow).Wrapped = true
			s.cursorRow2Next()
			s.cursorCol = 0
		}
		s.pendingWrap = false
	}
	if s.mode&ModeInsert != 0 {
		s.shiftRowRight(s.cursorRow, s.cursorCol, w)
	}
	cell := s.curPen.cell(r, uint8(w))
	g.SetCell(s.cursorRow, s.cursorCol, cell)
	if w == 2 && s.cursorCol+1 < g.Cols {
		spacer := s.curPen.cell(0, 0)
		spacer.Attr |= grid.AttrWideSpacer
		g.SetCell(s.cursorRow, s.cursorCol+1, spacer)
	}
	if s.cursorCol+w >= g.Cols {
		s.cursorCol = g.Cols - 1
		s.pendingWrap = true
	} else {
		s.cursorCol += w
	}
}

// appendCombiner stacks a zero-width rune onto the base cell immediately
// to the left of the cursor. pendingWrap means the last printed cell is
// still at cursorCol, not cursorCol-1.
func (s *Screen) appendCombiner(r rune) {
	g := s.active()
	col := s.cursorCol - 1
	if s.pendingWrap {
		col = s.cursorCol
	}
	if col < 0 {
		return
	}
	row := g.Row(s.cursorRow)
	if row == nil || col >= len(row.Cells) {
		return
	}
	if row.Cells[col].IsWideSpacer() && col > 0 {
		col--
	}
	cell := &row.Cells[col]
	if cell.Rune == 0 {
		return
	}
	cell.AppendCombiner(r)
	g.MarkDirty(s.cursorRow)
}

func (s *Screen) cursorRow2Next() {
	s.lineFeed()
}

func (s *Screen) shiftRowRight(row, col, n int) {
	g := s.active()
	r := g.Row(row)
	for i := len(r.Cells) - 1; i >= col+n && i-n >= 0; i-- {
		r.Cells[i] = r.Cells[i-n]
	}
	g.MarkDirty(row)
}

func (s *Screen) LineFeed()       { s.lineFeed(); s.pendingWrap = false }
func (s *Screen) CarriageReturn() { s.cursorCol = 0; s.pendingWrap = false }
func (s *Screen) Backspace() {
	if s.cursorCol > 0 {
		s.cursorCol--
	}
	s.pendingWrap = false
}

func (s *Screen) Bell() {
	if s.hooks.OnBell != nil {
		s.hooks.OnBell()
	}
}

func (s *Screen) Goto(row, col int) {
	s.cursorRow = s.originTop() + row
	s.cursorCol = col
	s.clampCursor()
	s.pendingWrap = false
}

func (s *Screen) GotoCol(col int) {
	s.cursorCol = col
	s.clampCursor()
	s.pendingWrap = false
}

func (s *Screen) GotoLine(row int) {
	s.cursorRow = s.originTop() + row
	s.clampCursor()
	s.pendingWrap = false
}

func (s *Screen) MoveUp(n int)   { s.cursorRow -= n; s.clampCursor(); s.pendingWrap = false }
func (s *Screen) MoveDown(n int) { s.cursorRow += n; s.clampCursor(); s.pendingWrap = false }
func (s *Screen) MoveForward(n int) {
	s.cursorCol += n
	s.clampCursor()
	s.pendingWrap = false
}
func (s *Screen) MoveBackward(n int) {
	s.cursorCol -= n
	s.clampCursor()
	s.pendingWrap = false
}
func (s *Screen) MoveUpCr(n int)   { s.MoveUp(n); s.cursorCol = 0 }
func (s *Screen) MoveDownCr(n int) { s.MoveDown(n); s.cursorCol = 0 }

func (s *Screen) HorizontalTabSet() {
	if s.cursorCol < len(s.tabstops) {
		s.tabstops[s.cursorCol] = true
	}
}

func (s *Screen) Tab(n int) {
	for ; n > 0; n-- {
		next := s.nextTabstop(s.cursorCol)
		if next < 0 {
			s.cursorCol = s.active().Cols - 1
			break
		}
		s.cursorCol = next
	}
}

func (s *Screen) nextTabstop(from int) int {
	for i := from + 1; i < len(s.tabstops); i++ {
		if s.tabstops[i] {
			return i
		}
	}
	return -1
}

func (s *Screen) MoveForwardTabs(n int) { s.Tab(n) }
func (s *Screen) MoveBackwardTabs(n int) {
	for ; n > 0; n-- {
		prev := -1
		for i := s.cursorCol - 1; i >= 0; i-- {
			if s.tabstops[i] {
				prev = i
				break
			}
		}
		if prev < 0 {
			s.cursorCol = 0
			break
		}
		s.cursorCol = prev
	}
}

func (s *Screen) ClearTabs(mode ansicode.TabulationClearMode) {
	switch mode {
	case ansicode.TabulationClearModeCurrent:
		if s.cursorCol < len(s.tabstops) {
			s.tabstops[s.cursorCol] = false
		}
	case ansicode.TabulationClearModeAll:
		for i := range s.tabstops {
			s.tabstops[i] = false
		}
	}
}

func (s *Screen) ClearLine(mode ansicode.LineClearMode) {
	g := s.active()
	switch mode {
	case ansicode.LineClearModeRight:
		g.ClearRange(s.cursorRow, s.cursorCol, g.Cols, s.curPen.bg)
	case ansicode.LineClearModeLeft:
		g.ClearRange(s.cursorRow, 0, s.cursorCol+1, s.curPen.bg)
	case ansicode.LineClearModeAll:
		g.ClearRow(s.cursorRow, s.curPen.bg)
	}
}

func (s *Screen) ClearScreen(mode ansicode.ClearMode) {
	g := s.active()
	switch mode {
	case ansicode.ClearModeBelow:
		g.ClearRange(s.cursorRow, s.cursorCol, g.Cols, s.curPen.bg)
		for i := s.cursorRow + 1; i < g.Rows; i++ {
			g.ClearRow(i, s.curPen.bg)
		}
	case ansicode.ClearModeAbove:
		g.ClearRange(s.cursorRow, 0, s.cursorCol+1, s.curPen.bg)
		for i := 0; i < s.cursorRow; i++ {
			g.ClearRow(i, s.curPen.bg)
		}
	case ansicode.ClearModeAll:
		for i := 0; i < g.Rows; i++ {
			g.ClearRow(i, s.curPen.bg)
		}
	case ansicode.ClearModeSaved:
		// Scrollback purge; nothing else to clear.
	}
}

func (s *Screen) Decaln() {
	g := s.active()
	for i := 0; i < g.Rows; i++ {
		for j := 0; j < g.Cols; j++ {
			g.SetCell(i, j, grid.Cell{Rune: 'E', Width: 1})
		}
	}
}

func (s *Screen) InsertBlank(n int) {
	g := s.active()
	r := g.Row(s.cursorRow)
	for i := len(r.Cells) - 1; i >= s.cursorCol+n; i-- {
		r.Cells[i] = r.Cells[i-n]
	}
	blank := grid.Blank(s.curPen.bg)
	for i := s.cursorCol; i < s.cursorCol+n && i < len(r.Cells); i++ {
		r.Cells[i] = blank
	}
	g.MarkDirty(s.cursorRow)
}

func (s *Screen) DeleteChars(n int) {
	g := s.active()
	r := g.Row(s.cursorRow)
	copy(r.Cells[s.cursorCol:], r.Cells[s.cursorCol+n:])
	blank := grid.Blank(s.curPen.bg)
	for i := len(r.Cells) - n; i < len(r.Cells); i++ {
		if i >= 0 {
			r.Cells[i] = blank
		}
	}
	g.MarkDirty(s.cursorRow)
}

func (s *Screen) EraseChars(n int) {
	s.active().ClearRange(s.cursorRow, s.cursorCol, s.cursorCol+n, s.curPen.bg)
}

func (s *Screen) InsertBlankLines(n int) {
	if s.cursorRow < s.scrollTop || s.cursorRow > s.scrollBottom {
		return
	}
	for i := 0; i < n; i++ {
		s.active().ScrollDown(s.cursorRow, s.scrollBottom, s.curPen.bg)
	}
}

func (s *Screen) DeleteLines(n int) {
	if s.cursorRow < s.scrollTop || s.cursorRow > s.scrollBottom {
		return
	}
	for i := 0; i < n; i++ {
		s.active().ScrollUp(s.cursorRow, s.scrollBottom, s.curPen.bg, false)
	}
}

func (s *Screen) ScrollUp(n int) {
	for i := 0; i < n; i++ {
		s.active().ScrollUp(s.scrollTop, s.scrollBottom, s.curPen.bg, !s.alt && s.scrollTop == 0)
	}
}

func (s *Screen) ScrollDown(n int) {
	for i := 0; i < n; i++ {
		s.active().ScrollDown(s.scrollTop, s.scrollBottom, s.curPen.bg)
	}
}

func (s *Screen) ReverseIndex() { s.reverseLineFeed() }

func (s *Screen) SaveCursorPosition() {
	s.savedRow, s.savedCol = s.cursorRow, s.cursorCol
	s.savedPen = s.curPen
	s.savedMode = s.mode
}

func (s *Screen) RestoreCursorPosition() {
	s.cursorRow, s.cursorCol = s.savedRow, s.savedCol
	s.curPen = s.savedPen
	s.mode = s.savedMode
	s.clampCursor()
	s.pendingWrap = false
}

func (s *Screen) SetScrollingRegion(top, bottom int) {
	if top < 0 {
		top = 0
	}
	if bottom >= s.active().Rows {
		bottom = s.active().Rows - 1
	}
	if top >= bottom {
		top, bottom = 0, s.active().Rows-1
	}
	s.scrollTop, s.scrollBottom = top, bottom
	s.cursorRow, s.cursorCol = s.originTop(), 0
}

func (s *Screen) SetMode(mode ansicode.TerminalMode)   { s.setMode(mode, true) }
func (s *Screen) UnsetMode(mode ansicode.TerminalMode) { s.setMode(mode, false) }

func (s *Screen) SetKeypadApplicationMode()   { s.mode |= ModeApplicationKeypad }
func (s *Screen) UnsetKeypadApplicationMode() { s.mode &^= ModeApplicationKeypad }

func (s *Screen) setMode(mode ansicode.TerminalMode, set bool) {
	var m Mode
	switch mode {
	case ansicode.TerminalModeInsert:
		m = ModeInsert
	case ansicode.TerminalModeOrigin:
		m = ModeOrigin
		if set {
			s.cursorRow, s.cursorCol = s.scrollTop, 0
		}
	case ansicode.TerminalModeLineWrap:
		m = ModeAutoWrap
	case ansicode.TerminalModeShowCursor:
		m = ModeCursorVisible
	case ansicode.TerminalModeReportMouseClicks:
		m = ModeMouseX10
	case ansicode.TerminalModeReportCellMouseMotion:
		m = ModeMouseButtonEvent
	case ansicode.TerminalModeReportAllMouseMotion:
		m = ModeMouseAnyEvent
	case ansicode.TerminalModeReportFocusInOut:
		m = ModeFocusReporting
	case ansicode.TerminalModeSGRMouse:
		m = ModeMouseSGR
	case ansicode.TerminalModeSwapScreenAndSetRestoreCursor:
		if set {
			s.SaveCursorPosition()
			s.alt = true
			s.alternate.Resize(s.primary.Cols, s.primary.Rows, s.curPen.bg)
			for i := 0; i < s.alternate.Rows; i++ {
				s.alternate.ClearRow(i, s.curPen.bg)
			}
		} else {
			s.alt = false
			s.RestoreCursorPosition()
		}
		return
	case ansicode.TerminalModeBracketedPaste:
		m = ModeBracketedPaste
	case ansicode.TerminalModeCursorKeys:
		m = ModeApplicationCursor
	default:
		return
	}
	if set {
		s.mode |= m
	} else {
		s.mode &^= m
	}
}

func (s *Screen) SetTerminalCharAttribute(attr ansicode.TerminalCharAttribute) {
	switch attr.Attr {
	case ansicode.CharAttributeReset:
		s.curPen = pen{}
	case ansicode.CharAttributeBold:
		s.curPen.attr |= grid.AttrBold
	case ansicode.CharAttributeDim:
		s.curPen.attr |= grid.AttrDim
	case ansicode.CharAttributeItalic:
		s.curPen.attr |= grid.AttrItalic
	case ansicode.CharAttributeUnderline, ansicode.CharAttributeDoubleUnderline,
		ansicode.CharAttributeCurlyUnderline, ansicode.CharAttributeDottedUnderline,
		ansicode.CharAttributeDashedUnderline:
		s.curPen.attr |= grid.AttrUnderline
	case ansicode.CharAttributeBlinkSlow, ansicode.CharAttributeBlinkFast:
		s.curPen.attr |= grid.AttrBlink
	case ansicode.CharAttributeReverse:
		s.curPen.attr |= grid.AttrReverse
	case ansicode.CharAttributeHidden:
		s.curPen.attr |= grid.AttrHidden
	case ansicode.CharAttributeStrike:
		s.curPen.attr |= grid.AttrStrikethrough
	case ansicode.CharAttributeCancelBold:
		s.curPen.attr &^= grid.AttrBold
	case ansicode.CharAttributeCancelBoldDim:
		s.curPen.attr &^= grid.AttrBold | grid.AttrDim
	case ansicode.CharAttributeCancelItalic:
		s.curPen.attr &^= grid.AttrItalic
	case ansicode.CharAttributeCancelUnderline:
		s.curPen.attr &^= grid.AttrUnderline
	case ansicode.CharAttributeCancelBlink:
		s.curPen.attr &^= grid.AttrBlink
	case ansicode.CharAttributeCancelReverse:
		s.curPen.attr &^= grid.AttrReverse
	case ansicode.CharAttributeCancelHidden:
		s.curPen.attr &^= grid.AttrHidden
	case ansicode.CharAttributeCancelStrike:
		s.curPen.attr &^= grid.AttrStrikethrough
	case ansicode.CharAttributeForeground:
		s.curPen.fg = resolveColor(attr)
	case ansicode.CharAttributeBackground:
		s.curPen.bg = resolveColor(attr)
	}
}

func resolveColor(attr ansicode.TerminalCharAttribute) grid.Color {
	if attr.RGBColor != nil {
		return grid.Color{Kind: grid.ColorRGB, R: attr.RGBColor.R, G: attr.RGBColor.G, B: attr.RGBColor.B}
	}
	if attr.IndexedColor != nil {
		return grid.Color{Kind: grid.ColorIndexed, Index: attr.IndexedColor.Index}
	}
	return grid.Color{}
}

func (s *Screen) SetTitle(title string) {
	s.title = title
	if s.hooks.OnTitleChanged != nil {
		s.hooks.OnTitleChanged(title)
	}
}

func (s *Screen) PushTitle() { s.titleStack = append(s.titleStack, s.title) }
func (s *Screen) PopTitle() {
	if n := len(s.titleStack); n > 0 {
		s.SetTitle(s.titleStack[n-1])
		s.titleStack = s.titleStack[:n-1]
	}
}

func (s *Screen) ResetState() {
	cols, rows := s.active().Cols, s.active().Rows
	s.primary = grid.New(cols, rows, s.primary.HistoryLimit)
	s.alternate = grid.New(cols, rows, 0)
	s.alt = false
	s.cursorRow, s.cursorCol = 0, 0
	s.pendingWrap = false
	s.curPen = pen{}
	s.mode = ModeAutoWrap | ModeCursorVisible
	s.scrollTop, s.scrollBottom = 0, rows-1
	s.resetTabstops(cols)
	s.title = ""
	s.titleStack = nil
}

func (s *Screen) Substitute() {
	s.Input('�')
}

func (s *Screen) DeviceStatus(n int) {
	switch n {
	case 5:
		s.respond([]byte("\x1b[0n"))
	case 6:
		s.respond(fmt.Appendf(nil, "\x1b[%d;%dR", s.cursorRow+1, s.cursorCol+1))
	}
}

func (s *Screen) IdentifyTerminal(b byte) {
	s.respond([]byte("\x1b[?1;2c"))
}

func (s *Screen) SetCursorStyle(style ansicode.CursorStyle) {}

func (s *Screen) ConfigureCharset(index ansicode.CharsetIndex, charset ansicode.Charset) {}
func (s *Screen) SetActiveCharset(n int)                                                {}

func (s *Screen) ClipboardLoad(selection byte, terminator string) {
	if s.hooks.OnClipboardLoad == nil {
		return
	}
	data := s.hooks.OnClipboardLoad(selection)
	s.respond(fmt.Appendf(nil, "\x1b]52;%c;%s%s", selection, data, terminator))
}

func (s *Screen) ClipboardStore(selection byte, data []byte) {
	if s.hooks.OnClipboardStore != nil {
		s.hooks.OnClipboardStore(selection, data)
	}
}

func (s *Screen) SetHyperlink(hyperlink *ansicode.Hyperlink) {}

func (s *Screen) PushKeyboardMode(mode ansicode.KeyboardMode)  {}
func (s *Screen) PopKeyboardMode(n int)                        {}
func (s *Screen) SetKeyboardMode(mode ansicode.KeyboardMode, behavior ansicode.KeyboardModeBehavior) {
}
func (s *Screen) ReportKeyboardMode()               { s.respond([]byte("\x1b[?0u")) }
func (s *Screen) ReportModifyOtherKeys()             {}
func (s *Screen) SetModifyOtherKeys(modify ansicode.ModifyOtherKeys) {}

func (s *Screen) ResetColor(i int)                {}
func (s *Screen) SetColor(index int, c color.Color) {}
func (s *Screen) SetDynamicColor(prefix string, index int, terminator string) {}

func (s *Screen) StartOfStringReceived(data []byte)  {}
func (s *Screen) PrivacyMessageReceived(data []byte) {}
func (s *Screen) ApplicationCommandReceived(data []byte) {}
func (s *Screen) SixelReceived(params [][]uint16, data []byte) {}
func (s *Screen) CellSizePixels() {}

func (s *Screen) TextAreaSizeChars() {
	s.respond(fmt.Appendf(nil, "\x1b[8;%d;%dt", s.active().Rows, s.active().Cols))
}

func (s *Screen) TextAreaSizePixels() {}

func (s *Screen) SetWorkingDirectory(uri string) {
	if s.hooks.OnWorkingDirectory != nil {
		s.hooks.OnWorkingDirectory(uri)
	}
}

func (s *Screen) WorkingDirectory() string     { return "" }
func (s *Screen) WorkingDirectoryPath() string { return "" }
