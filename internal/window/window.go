// Package window implements one multiplexer window: a layout tree of
// panes plus the alert flags and content bounds a window
// needs independent of which session it belongs to.
package window

import (
	"errors"

	"tmuxd/internal/layout"
	"tmuxd/internal/registry"
)

// Window groups one or more panes under a single layout tree.
type Window struct {
	ID   registry.ID
	Name string

	root   *layout.Node
	bounds layout.Rect

	active registry.ID
	last   registry.ID

	zoomed       bool
	zoomedRoot   *layout.Node
	zoomedActive registry.ID

	Bell     bool
	Activity bool
	Silence  bool
}

// New creates a window containing a single pane filling bounds.
func New(id registry.ID, name string, firstPane registry.ID, bounds layout.Rect) *Window {
	return &Window{
		ID:     id,
		Name:   name,
		root:   layout.NewLeaf(firstPane),
		bounds: bounds,
		active: firstPane,
	}
}

// Root returns the window's layout tree (the zoomed single-leaf tree
// while zoomed).
func (w *Window) Root() *layout.Node { return w.root }

// Bounds returns the window's content rectangle.
func (w *Window) Bounds() layout.Rect { return w.bounds }

// ActivePane returns the currently focused pane's ID.
func (w *Window) ActivePane() registry.ID { return w.active }

// Panes returns every pane ID currently tiled in this window.
func (w *Window) Panes() []registry.ID {
	var ids []registry.ID
	for _, l := range layout.Leaves(w.root) {
		ids = append(ids, l.Pane)
	}
	return ids
}

var ErrZoomed = errors.New("window: operation not allowed while zoomed")

// Split adds newPane next to the active pane, splitting along o.
func (w *Window) Split(o layout.Orientation, newPane registry.ID) error {
	if w.zoomed {
		return ErrZoomed
	}
	leaf := layout.FindPane(w.root, w.active)
	if leaf == nil {
		return errors.New("window: active pane not found in layout")
	}
	second, err := layout.Split(w.root, leaf, o, newPane, w.bounds)
	if err != nil {
		return err
	}
	w.last = w.active
	w.active = second.Pane
	return nil
}

// ClosePane removes pane from the layout. It reports whether the window
// is now empty (the caller must destroy it in that case).
func (w *Window) ClosePane(pane registry.ID) (empty bool) {
	leaf := layout.FindPane(w.root, pane)
	if leaf == nil {
		return w.root.Leaf && w.root.Pane == pane
	}
	if w.root.Leaf {
		return true
	}
	newRoot := layout.Close(w.root, leaf)
	if newRoot == nil {
		return true
	}
	w.root = newRoot
	if w.active == pane {
		if w.last != 0 && layout.FindPane(w.root, w.last) != nil {
			w.active = w.last
		} else {
			w.active = layout.Leaves(w.root)[0].Pane
		}
	}
	return false
}

// SelectPane changes the active pane and records the previous one as
// "last" for select-pane -l.
func (w *Window) SelectPane(pane registry.ID) error {
	if layout.FindPane(w.root, pane) == nil {
		return errors.New("window: no such pane")
	}
	w.last = w.active
	w.active = pane
	return nil
}

// SelectLastPane swaps to whichever pane was active before the current one.
func (w *Window) SelectLastPane() error {
	if w.last == 0 {
		return errors.New("window: no last pane")
	}
	return w.SelectPane(w.last)
}

// ToggleZoom expands the active pane to fill the whole window, or
// restores the previous layout if already zoomed.
func (w *Window) ToggleZoom() {
	if w.zoomed {
		w.root = w.zoomedRoot
		w.active = w.zoomedActive
		w.zoomed = false
		w.zoomedRoot = nil
		return
	}
	w.zoomedRoot = w.root
	w.zoomedActive = w.active
	w.root = layout.NewLeaf(w.active)
	w.zoomed = true
}

// Zoomed reports whether the window is currently zoomed onto one pane.
func (w *Window) Zoomed() bool { return w.zoomed }

// Resize updates the window's content rectangle and rescales the layout
// tree (or, while zoomed, both the visible single-leaf tree and the
// stashed full tree) to fit.
func (w *Window) Resize(bounds layout.Rect) {
	w.bounds = bounds
	layout.Rescale(w.root, bounds)
	if w.zoomed {
		layout.Rescale(w.zoomedRoot, bounds)
	}
}

// SelectLayout replaces the tree entirely with a freshly arranged preset
// over the window's current panes, discarding manual resizes.
func (w *Window) SelectLayout(preset layout.Preset) {
	panes := w.Panes()
	w.root = layout.Arrange(preset, panes, w.bounds)
	if layout.FindPane(w.root, w.active) == nil && len(panes) > 0 {
		w.active = panes[0]
	}
}

// RotatePanes reassigns which pane ID occupies each leaf position one
// step around the tree's leaf order, leaving the layout shape (split
// structure and sizes) untouched. forward moves each pane one leaf toward
// lower leaf indices (the first wraps to the last), matching
// rotate-window; the reverse direction matches rotate-window -D.
func (w *Window) RotatePanes(forward bool) {
	leaves := layout.Leaves(w.root)
	if len(leaves) < 2 {
		return
	}
	ids := make([]registry.ID, len(leaves))
	for i, l := range leaves {
		ids[i] = l.Pane
	}
	rotated := make([]registry.ID, len(ids))
	if forward {
		copy(rotated, append(append([]registry.ID{}, ids[1:]...), ids[0]))
	} else {
		copy(rotated, append([]registry.ID{ids[len(ids)-1]}, ids[:len(ids)-1]...))
	}
	for i, l := range leaves {
		l.Pane = rotated[i]
	}
	for i, id := range ids {
		if id == w.active {
			w.active = rotated[i]
			break
		}
	}
}

// ClearAlerts resets the alert flags, e.g. when the window becomes current.
func (w *Window) ClearAlerts() {
	w.Bell, w.Activity, w.Silence = false, false, false
}
