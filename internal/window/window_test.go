package window

import (
	"testing"

	"gotest.tools/v3/assert"

	"tmuxd/internal/layout"
	"tmuxd/internal/registry"
)

func bounds() layout.Rect { return layout.Rect{W: 80, H: 24} }

func TestSplitAndClosePaneRestoresSingleLeaf(t *testing.T) {
	w := New(1, "main", registry.ID(1), bounds())
	assert.NilError(t, w.Split(layout.Horizontal, registry.ID(2)))
	assert.Equal(t, w.ActivePane(), registry.ID(2))
	assert.Equal(t, len(w.Panes()), 2)

	empty := w.ClosePane(registry.ID(2))
	assert.Assert(t, !empty)
	assert.Equal(t, w.ActivePane(), registry.ID(1))
	assert.Equal(t, len(w.Panes()), 1)
}

func TestCloseLastPaneReportsEmpty(t *testing.T) {
	w := New(1, "main", registry.ID(1), bounds())
	assert.Assert(t, w.ClosePane(registry.ID(1)))
}

func TestZoomRestoresLayoutOnToggle(t *testing.T) {
	w := New(1, "main", registry.ID(1), bounds())
	assert.NilError(t, w.Split(layout.Horizontal, registry.ID(2)))
	before := len(w.Panes())

	w.ToggleZoom()
	assert.Assert(t, w.Zoomed())
	assert.Equal(t, len(layout.Leaves(w.Root())), 1)

	w.ToggleZoom()
	assert.Assert(t, !w.Zoomed())
	assert.Equal(t, len(w.Panes()), before)
}

func TestSplitWhileZoomedFails(t *testing.T) {
	w := New(1, "main", registry.ID(1), bounds())
	w.ToggleZoom()
	err := w.Split(layout.Horizontal, registry.ID(9))
	assert.ErrorIs(t, err, ErrZoomed)
}

func TestSelectLastPaneTogglesBack(t *testing.T) {
	w := New(1, "main", registry.ID(1), bounds())
	assert.NilError(t, w.Split(layout.Horizontal, registry.ID(2)))
	assert.NilError(t, w.SelectLastPane())
	assert.Equal(t, w.ActivePane(), registry.ID(1))
}
