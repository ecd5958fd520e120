package app

import "github.com/evanschultz/treeview/internal/domain"

// NavigationController moves a single active cursor through a tree. The
// cursor starts on the first item the first time it is used. Moves at the
// top level step through every root registered in the forest, so the cursor
// can cross into neighbouring trees.
type NavigationController struct {
	ctl    *TreeController
	active *domain.Node
}

// Active returns the node under the cursor, or nil before the first move.
func (n *NavigationController) Active() *domain.Node {
	return n.active
}

// SetActive moves the cursor to node.
func (n *NavigationController) SetActive(node *domain.Node) {
	if node == nil {
		return
	}
	if n.active != nil {
		n.active.SetActive(false)
	}
	n.active = node
	node.SetActive(true)
}

// MoveUp moves to the previous sibling. It returns the new active node, or
// nil when the cursor stayed in place.
func (n *NavigationController) MoveUp() *domain.Node {
	return n.move(func(cur *domain.Node) *domain.Node {
		return n.ctl.forest.Sibling(cur, -1)
	})
}

// MoveDown moves to the next sibling.
func (n *NavigationController) MoveDown() *domain.Node {
	return n.move(func(cur *domain.Node) *domain.Node {
		return n.ctl.forest.Sibling(cur, 1)
	})
}

// MoveLeft moves to the parent.
func (n *NavigationController) MoveLeft() *domain.Node {
	return n.move((*domain.Node).Parent)
}

// MoveRight moves to the first child.
func (n *NavigationController) MoveRight() *domain.Node {
	return n.move((*domain.Node).FirstChild)
}

// Select makes the active node the forest-wide selection and emits
// item-selected. Nodes with children only keep the cursor.
func (n *NavigationController) Select() *domain.Node {
	if n.active == nil {
		return nil
	}
	node := n.active
	if !n.ctl.forest.Select(node) {
		return nil
	}
	n.ctl.selected = node
	n.ctl.listeners.each(func(l Listener) { l.ItemSelected(node) })
	return node
}

// Activate moves the cursor to node and selects it when it is a leaf.
func (n *NavigationController) Activate(node *domain.Node) *domain.Node {
	n.SetActive(node)
	return n.Select()
}

func (n *NavigationController) move(next func(*domain.Node) *domain.Node) *domain.Node {
	if n.active == nil {
		if len(n.ctl.items) == 0 {
			return nil
		}
		n.SetActive(n.ctl.items[0])
	}
	target := next(n.active)
	if target == nil {
		return nil
	}
	n.SetActive(target)
	return target
}

func (n *NavigationController) reset() {
	if n.active != nil {
		n.active.SetActive(false)
	}
	n.active = nil
}
