package app

import "github.com/evanschultz/treeview/internal/domain"

// EditState is the editing lifecycle of a controller.
type EditState uint8

// EditState values.
const (
	EditIdle EditState = iota
	EditExisting
	EditNew
)

// EditingController runs the add and rename lifecycle. At most one edit is
// open per controller; starting another one cancels the open edit first.
type EditingController struct {
	ctl   *TreeController
	node  *domain.Node
	isNew bool
}

// State reports the current lifecycle state.
func (e *EditingController) State() EditState {
	switch {
	case e.node == nil:
		return EditIdle
	case e.isNew:
		return EditNew
	default:
		return EditExisting
	}
}

// Current returns the node being edited, if any.
func (e *EditingController) Current() *domain.Node {
	return e.node
}

// EditItem opens a rename of node with the buffer seeded from its label.
// A shadow is resolved to the node it stands for.
func (e *EditingController) EditItem(node *domain.Node) bool {
	if node == nil {
		return false
	}
	if node.IsShadow() {
		node = node.Source()
	}
	if node == e.node {
		return true
	}
	e.Cancel()
	node.StartEdit()
	e.node = node
	e.isNew = false
	return true
}

// AddChildItem expands parent and appends a pending, unchecked child in edit
// mode. The child is not announced until Commit. Uncommitted nodes cannot
// take children.
func (e *EditingController) AddChildItem(parent *domain.Node) *domain.Node {
	if parent == nil {
		return nil
	}
	if parent.IsShadow() {
		parent = parent.Source()
	}
	if parent.Created() {
		return nil
	}
	e.Cancel()
	parent.SetCollapsed(false)
	child := domain.NewPendingChild(parent)
	if !e.ctl.cfg.DecoupleChildFromParent {
		rollUpAncestors(child)
	}
	e.node = child
	e.isNew = true
	e.ctl.refreshView()
	return child
}

// AddRootItem registers a pending root item in edit mode at the end of the
// items.
func (e *EditingController) AddRootItem() *domain.Node {
	e.Cancel()
	root := domain.NewPendingRoot(e.ctl.forest)
	e.ctl.items = append(e.ctl.items, root)
	e.node = root
	e.isNew = true
	e.ctl.refreshView()
	return root
}

// SetBuffer replaces the in-progress label text.
func (e *EditingController) SetBuffer(text string) {
	if e.node == nil {
		return
	}
	e.node.SetEditBuffer(text)
}

// Commit applies the buffer. A new node becomes committed and item-added is
// emitted, even for an empty label; an existing node emits item-renamed only
// when its label changed.
func (e *EditingController) Commit() bool {
	node, isNew := e.node, e.isNew
	if node == nil {
		return false
	}
	e.node, e.isNew = nil, false

	text := node.EditBuffer()
	renamed := text != node.Label
	if isNew {
		node.ClearCreated()
	}
	node.Label = text
	node.EndEdit()
	e.ctl.refreshView()

	switch {
	case isNew:
		added := AddedItem{Added: node, Parent: node.Parent()}
		e.ctl.emitSelection()
		e.ctl.listeners.each(func(l Listener) { l.ItemAdded(added) })
	case renamed:
		e.ctl.listeners.each(func(l Listener) { l.ItemRenamed(node) })
	}
	return true
}

// Cancel discards the buffer. Cancelling a new node emits
// item-delete-requested; the owner decides whether to Remove it.
func (e *EditingController) Cancel() bool {
	node, isNew := e.node, e.isNew
	if node == nil {
		return false
	}
	e.node, e.isNew = nil, false
	node.EndEdit()
	if isNew {
		e.ctl.listeners.each(func(l Listener) { l.ItemDeleteRequested(node) })
	}
	return true
}

// RequestDelete emits item-delete-requested for node without changing the
// tree.
func (e *EditingController) RequestDelete(node *domain.Node) {
	if node == nil {
		return
	}
	if node.IsShadow() {
		node = node.Source()
	}
	e.ctl.listeners.each(func(l Listener) { l.ItemDeleteRequested(node) })
}

func (e *EditingController) reset() {
	if e.node != nil {
		e.node.EndEdit()
	}
	e.node, e.isNew = nil, false
}

// adopt resumes the first node built in edit mode as the open edit. Other
// nodes built in edit mode leave it.
func (e *EditingController) adopt(items []*domain.Node) {
	for _, item := range items {
		item.Walk(func(n *domain.Node) bool {
			if !n.Editing() {
				return true
			}
			if e.node == nil {
				e.node, e.isNew = n, n.Created()
			} else {
				n.EndEdit()
			}
			return true
		})
	}
}
