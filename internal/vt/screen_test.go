package vt

import (
	"testing"

	"github.com/danielgatis/go-ansicode"
	"gotest.tools/v3/assert"

	"tmuxd/internal/grid"
)

func TestInputAdvancesCursor(t *testing.T) {
	s := New(10, 3, 0, Hooks{})
	s.Write([]byte("ab"))
	row, col := s.CursorPosition()
	assert.Equal(t, row, 0)
	assert.Equal(t, col, 2)
	assert.Equal(t, s.Grid().Row(0).Cells[0].Rune, 'a')
}

func TestCarriageReturnLineFeed(t *testing.T) {
	s := New(5, 3, 0, Hooks{})
	s.Write([]byte("ab\r\ncd"))
	row, col := s.CursorPosition()
	assert.Equal(t, row, 1)
	assert.Equal(t, col, 2)
	assert.Equal(t, s.Grid().Row(1).Cells[0].Rune, 'c')
}

func TestAutoWrapMarksRowWrapped(t *testing.T) {
	s := New(3, 2, 0, Hooks{})
	s.Write([]byte("abcd"))
	assert.Assert(t, s.Grid().Row(0).Wrapped)
	row, col := s.CursorPosition()
	assert.Equal(t, row, 1)
	assert.Equal(t, col, 1)
}

func TestSGRAttributeSurvivesClearScreen(t *testing.T) {
	s := New(5, 2, 0, Hooks{})
	s.SetTerminalCharAttribute(ansicode.TerminalCharAttribute{Attr: ansicode.CharAttributeBold})
	s.ClearScreen(ansicode.ClearModeAll)
	assert.Assert(t, s.curPen.attr&grid.AttrBold != 0)
}

func TestResetStateClearsPen(t *testing.T) {
	s := New(5, 2, 0, Hooks{})
	s.SetTerminalCharAttribute(ansicode.TerminalCharAttribute{Attr: ansicode.CharAttributeBold})
	s.ResetState()
	assert.Equal(t, s.curPen.attr, grid.Attr(0))
}

func TestAlternateScreenSwapRestoresCursor(t *testing.T) {
	s := New(5, 2, 0, Hooks{})
	s.Write([]byte("ab"))
	s.SetMode(ansicode.TerminalModeSwapScreenAndSetRestoreCursor)
	assert.Assert(t, s.IsAlternate())
	s.Write([]byte("zz"))
	s.UnsetMode(ansicode.TerminalModeSwapScreenAndSetRestoreCursor)
	assert.Assert(t, !s.IsAlternate())
	row, col := s.CursorPosition()
	assert.Equal(t, row, 0)
	assert.Equal(t, col, 2)
}

func TestDeviceStatusReportsCursorPosition(t *testing.T) {
	var got []byte
	s := New(5, 2, 0, Hooks{OnResponse: func(b []byte) { got = b }})
	s.Goto(1, 2)
	s.DeviceStatus(6)
	assert.Equal(t, string(got), "\x1b[2;3R")
}

func TestScrollbackBoundedAfterManyLineFeeds(t *testing.T) {
	s := New(5, 2, 3, Hooks{})
	for i := 0; i < 20; i++ {
		s.Write([]byte("x\r\n"))
	}
	assert.Assert(t, s.Grid().HistoryLen() <= 3)
}

const combiningAcuteAccent = rune(0x0301)

func TestCombiningMarkStacksOntoBaseCell(t *testing.T) {
	s := New(5, 2, 0, Hooks{})
	s.Write([]byte(string([]rune{'e', combiningAcuteAccent})))
	cell := s.Grid().Row(0).Cells[0]
	assert.Equal(t, cell.Rune, 'e')
	assert.Equal(t, int(cell.NumCombiners), 1)
	assert.Equal(t, cell.Combiners[0], combiningAcuteAccent)
	row, col := s.CursorPosition()
	assert.Equal(t, row, 0)
	assert.Equal(t, col, 1)
}

func TestCombiningMarkWithNoPrecedingCellIsDropped(t *testing.T) {
	s := New(5, 2, 0, Hooks{})
	s.Write([]byte(string([]rune{combiningAcuteAccent})))
	row, col := s.CursorPosition()
	assert.Equal(t, row, 0)
	assert.Equal(t, col, 0)
	assert.Equal(t, s.Grid().Row(0).Cells[0].Rune, ' ')
}

func TestKeypadApplicationModeToggles(t *testing.T) {
	s := New(5, 2, 0, Hooks{})
	s.SetKeypadApplicationMode()
	assert.Assert(t, s.mode&ModeApplicationKeypad != 0)
	s.UnsetKeypadApplicationMode()
	assert.Assert(t, s.mode&ModeApplicationKeypad == 0)
}
