// Package layout tiles a window's rectangle across its panes using a
// tree of splits, the way tmux's layout engine does: leaves hold
// a pane reference, split nodes hold an orientation and an ordered list
// of children separated by single-cell dividers.
package layout

import (
	"errors"

	"tmuxd/internal/registry"
)

// ErrTooSmall is returned when a split or resize would leave a pane
// smaller than MinSize in either dimension.
var ErrTooSmall = errors.New("layout: not enough room")

// MinSize is the minimum content width/height a leaf may have, matching
// tmux's PANE_MINIMUM (a pane needs at least one visible column/row).
const MinSize = 1

// Orientation of a split node.
type Orientation int

const (
	Horizontal Orientation = iota // children side by side, divided by columns
	Vertical                      // children stacked, divided by rows
)

// Rect is a window-relative rectangle in cells.
type Rect struct{ X, Y, W, H int }

// Node is one element of the layout tree: either a Leaf (holds a pane ID)
// or a Split (holds children and their sizes in cells).
type Node struct {
	Leaf bool
	Pane registry.ID

	Orientation Orientation
	Children    []*Node
	// Sizes holds each child's extent along the split axis (width for
	// Horizontal, height for Vertical), summing to this node's own
	// extent along that axis minus (len(Children)-1) divider cells.
	Sizes []int

	parent *Node
}

// NewLeaf returns a single-pane leaf node.
func NewLeaf(pane registry.ID) *Node {
	return &Node{Leaf: true, Pane: pane}
}

// Rects computes the absolute rectangle of every leaf in the tree rooted
// at n, given the overall rectangle the tree must fill.
func Rects(n *Node, bounds Rect) map[*Node]Rect {
	out := make(map[*Node]Rect)
	walk(n, bounds, out)
	return out
}

func walk(n *Node, bounds Rect, out map[*Node]Rect) {
	if n.Leaf {
		out[n] = bounds
		return
	}
	pos := 0
	for i, child := range n.Children {
		size := n.Sizes[i]
		var cb Rect
		if n.Orientation == Horizontal {
			cb = Rect{X: bounds.X + pos, Y: bounds.Y, W: size, H: bounds.H}
		} else {
			cb = Rect{X: bounds.X, Y: bounds.Y + pos, W: bounds.W, H: size}
		}
		walk(child, cb, out)
		pos += size + 1 // one cell for the divider
	}
}

// Split replaces leaf with a new split node holding leaf and a new leaf
// for newPane, dividing leaf's current extent in two. Returns the new
// split node's second child (the freshly created leaf).
func Split(root *Node, leaf *Node, o Orientation, newPane registry.ID, bounds Rect) (*Node, error) {
	rects := Rects(root, bounds)
	r, ok := rects[leaf]
	if !ok {
		return nil, errors.New("layout: leaf not found in tree")
	}
	extent := r.W
	if o == Vertical {
		extent = r.H
	}
	if extent < 2*MinSize+1 {
		return nil, ErrTooSmall
	}
	firstSize := (extent - 1) / 2
	secondSize := extent - 1 - firstSize

	first := NewLeaf(leaf.Pane)
	second := NewLeaf(newPane)
	split := &Node{Orientation: o, Children: []*Node{first, second}, Sizes: []int{firstSize, secondSize}}
	first.parent = split
	second.parent = split

	parent := leaf.parent
	*leaf = *split
	leaf.parent = parent
	leaf.Children[0].parent = leaf
	leaf.Children[1].parent = leaf
	return leaf.Children[1], nil
}

// Close removes leaf from the tree, giving its space to its sibling. If
// the parent split is left with a single child, the parent collapses
// into that child (matching tmux's layout_close_pane).
func Close(root *Node, leaf *Node) *Node {
	parent := leaf.parent
	if parent == nil {
		return nil // leaf was the whole tree; caller must destroy the window
	}
	idx := childIndex(parent, leaf)
	removedSize := parent.Sizes[idx]
	parent.Children = append(parent.Children[:idx], parent.Children[idx+1:]...)
	parent.Sizes = append(parent.Sizes[:idx], parent.Sizes[idx+1:]...)
	if len(parent.Children) > 0 {
		// Give the freed space (plus the divider it used) to the neighbor.
		give := idx
		if give >= len(parent.Children) {
			give = len(parent.Children) - 1
		}
		parent.Sizes[give] += removedSize + 1
	}
	if len(parent.Children) == 1 {
		only := parent.Children[0]
		grandparent := parent.parent
		*parent = *only
		parent.parent = grandparent
		for _, c := range parent.Children {
			c.parent = parent
		}
		return findRoot(parent)
	}
	return findRoot(parent)
}

func childIndex(parent, child *Node) int {
	for i, c := range parent.Children {
		if c == child {
			return i
		}
	}
	return -1
}

func findRoot(n *Node) *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// Resize grows or shrinks the two siblings adjacent to leaf's parent
// boundary at childIdx by delta cells, taking space from (or giving it
// to) the next sibling. Returns ErrTooSmall if either side would drop
// below MinSize.
func Resize(parent *Node, childIdx int, delta int) error {
	if childIdx < 0 || childIdx+1 >= len(parent.Sizes) {
		return errors.New("layout: no sibling to resize against")
	}
	a, b := parent.Sizes[childIdx]+delta, parent.Sizes[childIdx+1]-delta
	if a < MinSize || b < MinSize {
		return ErrTooSmall
	}
	parent.Sizes[childIdx], parent.Sizes[childIdx+1] = a, b
	return nil
}

// ResizeLeaf moves the divider next to leaf along its parent split's axis
// by delta cells. That is the divider after leaf, so a positive delta
// grows leaf and shrinks the next sibling; when leaf is the last child it
// is the divider before leaf, so a positive delta grows the previous
// sibling and shrinks leaf. It is the
// entry point for resize-pane, which only knows about a pane's leaf
// node and not the split tree's internal parent/childIndex bookkeeping.
func ResizeLeaf(leaf *Node, delta int) error {
	parent := leaf.parent
	if parent == nil {
		return errors.New("layout: pane has no sibling to resize against")
	}
	idx := childIndex(parent, leaf)
	if idx < 0 {
		return errors.New("layout: pane not found under its parent")
	}
	if idx+1 >= len(parent.Sizes) && idx > 0 {
		idx--
	}
	return Resize(parent, idx, delta)
}

// Rescale adjusts every split's Sizes to fit newBounds, preserving each
// split's existing proportions (to the nearest cell, remainder given to
// the last child) rather than re-running a preset. Used when a window's
// rectangle changes because a pane elsewhere was added, removed, or the
// terminal itself was resized.
func Rescale(n *Node, newBounds Rect) {
	if n.Leaf {
		return
	}
	newExtent := newBounds.W
	if n.Orientation == Vertical {
		newExtent = newBounds.H
	}
	oldExtent := 0
	for _, sz := range n.Sizes {
		oldExtent += sz
	}
	oldExtent += len(n.Sizes) - 1 // dividers
	newUsable := newExtent - (len(n.Sizes) - 1)
	if newUsable < len(n.Sizes)*MinSize {
		newUsable = len(n.Sizes) * MinSize
	}
	scaled := make([]int, len(n.Sizes))
	sum := 0
	for i, sz := range n.Sizes {
		oldUsable := oldExtent - (len(n.Sizes) - 1)
		if oldUsable <= 0 {
			oldUsable = 1
		}
		scaled[i] = sz * newUsable / oldUsable
		if scaled[i] < MinSize {
			scaled[i] = MinSize
		}
		sum += scaled[i]
	}
	scaled[len(scaled)-1] += newUsable - sum
	n.Sizes = scaled

	pos := 0
	for i, child := range n.Children {
		size := n.Sizes[i]
		var cb Rect
		if n.Orientation == Horizontal {
			cb = Rect{X: newBounds.X + pos, Y: newBounds.Y, W: size, H: newBounds.H}
		} else {
			cb = Rect{X: newBounds.X, Y: newBounds.Y + pos, W: newBounds.W, H: size}
		}
		Rescale(child, cb)
		pos += size + 1
	}
}

// Leaves returns every leaf node in the tree, left-to-right / top-to-bottom.
func Leaves(n *Node) []*Node {
	if n.Leaf {
		return []*Node{n}
	}
	var out []*Node
	for _, c := range n.Children {
		out = append(out, Leaves(c)...)
	}
	return out
}

// FindPane returns the leaf holding pane, if any.
func FindPane(root *Node, pane registry.ID) *Node {
	for _, l := range Leaves(root) {
		if l.Pane == pane {
			return l
		}
	}
	return nil
}
