package layout

import "tmuxd/internal/registry"

// Preset names the built-in arrangements selectable via select-layout,
// matching tmux's layout-set presets.
type Preset int

const (
	EvenHorizontal Preset = iota
	EvenVertical
	MainHorizontal
	MainVertical
	Tiled
)

// Arrange rebuilds a layout tree from scratch for panes, according to
// preset, filling bounds. panes must be non-empty; the first is treated
// as the "main" pane for MainHorizontal/MainVertical.
func Arrange(preset Preset, panes []registry.ID, bounds Rect) *Node {
	switch preset {
	case EvenHorizontal:
		return evenSplit(panes, Horizontal, bounds)
	case EvenVertical:
		return evenSplit(panes, Vertical, bounds)
	case MainHorizontal:
		return mainSplit(panes, Horizontal, Vertical, bounds, mainRowsDefault)
	case MainVertical:
		return mainSplit(panes, Vertical, Horizontal, bounds, mainColsDefault)
	case Tiled:
		return tiled(panes, bounds)
	default:
		return evenSplit(panes, Horizontal, bounds)
	}
}

const (
	mainRowsDefault = 24 // size in rows given to the main pane above the stack
	mainColsDefault = 80 // size in cols given to the main pane left of the stack
)

func evenSplit(panes []registry.ID, o Orientation, bounds Rect) *Node {
	if len(panes) == 1 {
		return NewLeaf(panes[0])
	}
	extent := bounds.W
	if o == Vertical {
		extent = bounds.H
	}
	sizes := distribute(extent, len(panes))
	children := make([]*Node, len(panes))
	for i, p := range panes {
		children[i] = NewLeaf(p)
	}
	root := &Node{Orientation: o, Children: children, Sizes: sizes}
	for _, c := range children {
		c.parent = root
	}
	return root
}

// mainSplit gives the first pane a fixed-size slice (capped to leave room
// for at least one row/col for the stack) and evens the rest out behind it.
func mainSplit(panes []registry.ID, stackOrient, outerOrient Orientation, bounds Rect, mainSize int) *Node {
	if len(panes) == 1 {
		return NewLeaf(panes[0])
	}
	extent := bounds.W
	if outerOrient == Vertical {
		extent = bounds.H
	}
	main := mainSize
	if main > extent-2*MinSize-1 {
		main = extent - 2*MinSize - 1
	}
	if main < MinSize {
		main = MinSize
	}
	rest := extent - main - 1

	mainLeaf := NewLeaf(panes[0])
	var stack *Node
	if len(panes) == 2 {
		stack = NewLeaf(panes[1])
	} else {
		stackBounds := Rect{W: bounds.W, H: rest}
		if outerOrient == Horizontal {
			stackBounds = Rect{W: rest, H: bounds.H}
		}
		stack = evenSplit(panes[1:], stackOrient, stackBounds)
	}
	root := &Node{Orientation: outerOrient, Children: []*Node{mainLeaf, stack}, Sizes: []int{main, rest}}
	mainLeaf.parent = root
	stack.parent = root
	return root
}

func tiled(panes []registry.ID, bounds Rect) *Node {
	if len(panes) <= 1 {
		return NewLeaf(panes[0])
	}
	cols := 1
	for cols*cols < len(panes) {
		cols++
	}
	rows := (len(panes) + cols - 1) / cols

	rowSizes := distribute(bounds.H, rows)
	rowNodes := make([]*Node, 0, rows)
	idx := 0
	for r := 0; r < rows; r++ {
		remaining := len(panes) - idx
		thisRowCols := cols
		if remaining < cols {
			thisRowCols = remaining
		}
		colSizes := distribute(bounds.W, thisRowCols)
		children := make([]*Node, thisRowCols)
		for c := 0; c < thisRowCols; c++ {
			children[c] = NewLeaf(panes[idx])
			idx++
		}
		row := &Node{Orientation: Horizontal, Children: children, Sizes: colSizes}
		for _, c := range children {
			c.parent = row
		}
		rowNodes = append(rowNodes, row)
	}
	if len(rowNodes) == 1 {
		return rowNodes[0]
	}
	root := &Node{Orientation: Vertical, Children: rowNodes, Sizes: rowSizes}
	for _, c := range rowNodes {
		c.parent = root
	}
	return root
}

// distribute splits extent cells among n children separated by one-cell
// dividers, giving any remainder to the earliest children.
func distribute(extent, n int) []int {
	usable := extent - (n - 1)
	if usable < n*MinSize {
		usable = n * MinSize
	}
	base := usable / n
	rem := usable % n
	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = base
		if i < rem {
			sizes[i]++
		}
	}
	return sizes
}
