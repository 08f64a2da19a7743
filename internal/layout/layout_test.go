package layout

import (
	"testing"

	"gotest.tools/v3/assert"

	"tmuxd/internal/registry"
)

func TestSplitDividesExtentAndFitsDivider(t *testing.T) {
	root := NewLeaf(registry.ID(1))
	bounds := Rect{W: 21, H: 10}
	second, err := Split(root, root, Horizontal, registry.ID(2), bounds)
	assert.NilError(t, err)
	assert.Assert(t, second != nil)

	rects := Rects(root, bounds)
	assert.Equal(t, len(rects), 2)
	total := 0
	for _, r := range rects {
		total += r.W
	}
	assert.Equal(t, total, bounds.W-1) // one column consumed by the divider
}

func TestSplitTooSmallFails(t *testing.T) {
	root := NewLeaf(registry.ID(1))
	_, err := Split(root, root, Horizontal, registry.ID(2), Rect{W: 2, H: 5})
	assert.ErrorIs(t, err, ErrTooSmall)
}

func TestCloseCollapsesSingleChildSplit(t *testing.T) {
	root := NewLeaf(registry.ID(1))
	bounds := Rect{W: 21, H: 10}
	second, err := Split(root, root, Horizontal, registry.ID(2), bounds)
	assert.NilError(t, err)

	newRoot := Close(root, second)
	assert.Assert(t, newRoot.Leaf)
	assert.Equal(t, newRoot.Pane, registry.ID(1))
}

func TestArrangeEvenHorizontalCoversBounds(t *testing.T) {
	panes := []registry.ID{1, 2, 3}
	bounds := Rect{W: 82, H: 20}
	root := Arrange(EvenHorizontal, panes, bounds)
	rects := Rects(root, bounds)
	assert.Equal(t, len(rects), 3)
	minX, maxX := bounds.W, 0
	for _, r := range rects {
		if r.X < minX {
			minX = r.X
		}
		if r.X+r.W > maxX {
			maxX = r.X + r.W
		}
	}
	assert.Equal(t, minX, 0)
	assert.Equal(t, maxX, bounds.W)
}

func TestArrangeTiledProducesGrid(t *testing.T) {
	panes := []registry.ID{1, 2, 3, 4}
	bounds := Rect{W: 40, H: 20}
	root := Arrange(Tiled, panes, bounds)
	leaves := Leaves(root)
	assert.Equal(t, len(leaves), 4)
}

func TestResizeRejectsBelowMinimum(t *testing.T) {
	parent := &Node{Orientation: Horizontal, Sizes: []int{2, 2}}
	err := Resize(parent, 0, 2)
	assert.ErrorIs(t, err, ErrTooSmall)
}
