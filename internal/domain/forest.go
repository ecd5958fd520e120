package domain

import "slices"

// Forest is the registry of independently rooted trees that share
// root-level navigation and single-leaf selection.
type Forest struct {
	roots []*Node
}

// NewForest constructs an empty forest.
func NewForest() *Forest {
	return &Forest{}
}

// Register appends a top-level source node. Shadows, nodes with a parent and
// nodes already registered are ignored.
func (f *Forest) Register(node *Node) bool {
	if node == nil || node.kind != KindSource || node.parent != nil {
		return false
	}
	if slices.Contains(f.roots, node) {
		return false
	}
	f.roots = append(f.roots, node)
	return true
}

// Unregister removes a root by identity.
func (f *Forest) Unregister(node *Node) bool {
	idx := slices.Index(f.roots, node)
	if idx < 0 {
		return false
	}
	f.roots = slices.Delete(f.roots, idx, idx+1)
	return true
}

// Roots returns the registered roots in registration order.
func (f *Forest) Roots() []*Node {
	return slices.Clone(f.roots)
}

// Len returns the number of registered roots.
func (f *Forest) Len() int {
	return len(f.roots)
}

// Contains reports whether node is a registered root.
func (f *Forest) Contains(node *Node) bool {
	return slices.Contains(f.roots, node)
}

// IndexOf returns the position of a registered root, or -1.
func (f *Forest) IndexOf(node *Node) int {
	return slices.Index(f.roots, node)
}

// Sibling returns the neighbour step positions away from node within its
// parent's children, or within the registered roots for top-level nodes.
// It returns nil past either boundary or when node is not found.
func (f *Forest) Sibling(node *Node, step int) *Node {
	if node == nil {
		return nil
	}
	siblings := f.roots
	if node.parent != nil {
		siblings = node.parent.children
	}
	idx := slices.Index(siblings, node)
	if idx < 0 {
		return nil
	}
	next := idx + step
	if next < 0 || next >= len(siblings) {
		return nil
	}
	return siblings[next]
}

// Select makes node the only selected node across its own tree and every
// registered root. Nodes with children are never selected.
func (f *Forest) Select(node *Node) bool {
	if node == nil || !node.IsLeaf() {
		return false
	}
	clearSelected(node.Top())
	f.ClearSelection()
	node.selected = true
	return true
}

// Selected returns the selected leaf across the registered roots, if any.
func (f *Forest) Selected() *Node {
	var found *Node
	for _, root := range f.roots {
		root.Walk(func(n *Node) bool {
			if n.selected {
				found = n
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// ClearSelection drops the selected flag in every registered tree.
func (f *Forest) ClearSelection() {
	for _, root := range f.roots {
		clearSelected(root)
	}
}

func clearSelected(root *Node) {
	root.Walk(func(n *Node) bool {
		n.selected = false
		return true
	})
}
