package domain

import (
	"fmt"
	"slices"
	"strings"
)

// NodeKind distinguishes source nodes from filter shadows.
type NodeKind uint8

// NodeKind values.
const (
	KindSource NodeKind = iota
	KindShadow
)

// NodeSpec is the plain construction input for a node subtree.
type NodeSpec struct {
	Label     string
	Value     any
	Disabled  bool
	Checked   *bool
	Collapsed bool
	IsEdit    bool
	IsRoot    bool
	Children  []NodeSpec
}

// Node is one labeled entry of a checkbox tree.
//
// Children are owned exclusively by their parent; the parent pointer is a
// plain back-reference. Shadow nodes (KindShadow) are transient projections
// built by Project and point at the source node they stand in for.
type Node struct {
	Label string
	Value any

	kind     NodeKind
	parent   *Node
	source   *Node
	children []*Node

	checked   CheckState
	disabled  bool
	collapsed bool
	selected  bool
	active    bool
	isRoot    bool
	created   bool

	editing    bool
	editBuffer string
}

// NewNode builds a node subtree from spec. Top-level nodes are registered
// with forest when it is non-nil.
func NewNode(forest *Forest, spec NodeSpec) (*Node, error) {
	node, err := buildNode(spec, nil, false)
	if err != nil {
		return nil, err
	}
	if forest != nil {
		forest.Register(node)
	}
	return node, nil
}

// NewNodes builds every spec in order, registering each top-level node.
func NewNodes(forest *Forest, specs []NodeSpec) ([]*Node, error) {
	out := make([]*Node, 0, len(specs))
	for idx, spec := range specs {
		node, err := buildNode(spec, nil, false)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", idx, err)
		}
		out = append(out, node)
	}
	if forest != nil {
		for _, node := range out {
			forest.Register(node)
		}
	}
	return out, nil
}

// buildNode validates spec and constructs the subtree below parent.
func buildNode(spec NodeSpec, parent *Node, inheritDisabled bool) (*Node, error) {
	if strings.TrimSpace(spec.Label) == "" {
		return nil, fmt.Errorf("%w: label is required", ErrInvalidNodeSpec)
	}
	if spec.Children != nil && len(spec.Children) == 0 {
		return nil, fmt.Errorf("%w: children of %q must not be empty", ErrInvalidNodeSpec, spec.Label)
	}

	n := &Node{
		Label:     spec.Label,
		Value:     spec.Value,
		parent:    parent,
		checked:   Checked,
		disabled:  spec.Disabled || inheritDisabled,
		collapsed: spec.Collapsed,
		isRoot:    spec.IsRoot,
	}
	if spec.Checked != nil {
		n.checked = CheckStateOf(*spec.Checked)
	}
	if spec.IsEdit {
		n.editing = true
		n.editBuffer = spec.Label
	}
	if spec.Children == nil {
		return n, nil
	}

	children := make([]*Node, 0, len(spec.Children))
	for idx, childSpec := range spec.Children {
		child, err := buildNode(childSpec, n, n.disabled)
		if err != nil {
			return nil, fmt.Errorf("%s/children[%d]: %w", spec.Label, idx, err)
		}
		children = append(children, child)
	}
	n.children = children
	n.checked = commonChecked(children)
	return n, nil
}

// NewPendingChild appends an empty, uncommitted child to parent and returns it.
// The child starts in edit mode with an empty buffer.
func NewPendingChild(parent *Node) *Node {
	child := &Node{
		Value:   "",
		parent:  parent,
		checked: Unchecked,
		created: true,
		editing: true,
	}
	parent.children = append(parent.children, child)
	return child
}

// NewPendingRoot creates an empty, uncommitted top-level node in edit mode.
func NewPendingRoot(forest *Forest) *Node {
	root := &Node{
		Value:   "",
		checked: Checked,
		isRoot:  true,
		created: true,
		editing: true,
	}
	if forest != nil {
		forest.Register(root)
	}
	return root
}

// Kind reports whether the node is a source node or a filter shadow.
func (n *Node) Kind() NodeKind {
	return n.kind
}

// IsShadow reports whether the node is a filter projection.
func (n *Node) IsShadow() bool {
	return n.kind == KindShadow
}

// Source returns the node a shadow stands in for, or nil for source nodes.
func (n *Node) Source() *Node {
	return n.source
}

// Parent returns the parent node, or nil at the top level.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the child list; nil for leaves.
func (n *Node) Children() []*Node {
	if n.children == nil {
		return nil
	}
	return slices.Clone(n.children)
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// FirstChild returns the first child, or nil for leaves.
func (n *Node) FirstChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n.children == nil
}

// SetChildren replaces the child list, adopts each child and rolls the
// checked state up from the new children. An empty non-nil list is rejected.
func (n *Node) SetChildren(children []*Node) error {
	if children != nil && len(children) == 0 {
		return fmt.Errorf("%w: children of %q must not be empty", ErrInvalidNodeSpec, n.Label)
	}
	n.children = children
	for _, child := range children {
		if n.kind == KindSource {
			child.parent = n
		}
	}
	if children != nil {
		RollUpChecked(n)
	}
	return nil
}

// RemoveChild detaches child by identity. A node left without children
// becomes a leaf again.
func (n *Node) RemoveChild(child *Node) bool {
	idx := slices.Index(n.children, child)
	if idx < 0 {
		return false
	}
	n.children = slices.Delete(n.children, idx, idx+1)
	if child.parent == n {
		child.parent = nil
	}
	if len(n.children) == 0 {
		n.children = nil
		if n.checked == Indeterminate {
			n.checked = Unchecked
		}
	}
	return true
}

// Checked returns the tri-state checkbox value.
func (n *Node) Checked() CheckState {
	return n.checked
}

// SetChecked writes a boolean checkbox value; disabled nodes ignore it.
func (n *Node) SetChecked(checked bool) {
	n.SetCheckState(CheckStateOf(checked))
}

// SetCheckState writes a tri-state value; disabled nodes ignore it.
func (n *Node) SetCheckState(state CheckState) {
	if n.disabled {
		return
	}
	n.checked = state
}

// Disabled reports whether the node rejects checked writes.
func (n *Node) Disabled() bool {
	return n.disabled
}

// SetDisabled sets disabled on the node and every descendant.
func (n *Node) SetDisabled(disabled bool) {
	n.disabled = disabled
	for _, child := range n.children {
		child.SetDisabled(disabled)
	}
}

// Collapsed reports whether the node's children are hidden.
func (n *Node) Collapsed() bool {
	return n.collapsed
}

// SetCollapsed sets the collapsed flag of this node only.
func (n *Node) SetCollapsed(collapsed bool) {
	n.collapsed = collapsed
}

// Selected reports whether the node is the forest-wide selected leaf.
func (n *Node) Selected() bool {
	return n.selected
}

// Active reports whether the keyboard cursor is on the node.
func (n *Node) Active() bool {
	return n.active
}

// SetActive sets the keyboard cursor flag.
func (n *Node) SetActive(active bool) {
	n.active = active
}

// IsRoot reports whether the node was declared as a root item.
func (n *Node) IsRoot() bool {
	return n.isRoot
}

// Created reports whether the node is an uncommitted addition.
func (n *Node) Created() bool {
	return n.created
}

// ClearCreated marks a pending addition as committed.
func (n *Node) ClearCreated() {
	n.created = false
}

// Editing reports whether the node is being edited.
func (n *Node) Editing() bool {
	return n.editing
}

// EditBuffer returns the in-progress label text.
func (n *Node) EditBuffer() string {
	return n.editBuffer
}

// StartEdit enters edit mode with the buffer seeded from the label.
func (n *Node) StartEdit() {
	n.editing = true
	n.editBuffer = n.Label
}

// SetEditBuffer replaces the in-progress label text.
func (n *Node) SetEditBuffer(text string) {
	n.editBuffer = text
}

// EndEdit leaves edit mode and clears the buffer.
func (n *Node) EndEdit() {
	n.editing = false
	n.editBuffer = ""
}

// Depth returns the number of ancestors above the node.
func (n *Node) Depth() int {
	depth := 0
	for p := n.parent; p != nil; p = p.parent {
		depth++
	}
	return depth
}

// Top returns the top-level ancestor of the node (the node itself at the top).
func (n *Node) Top() *Node {
	top := n
	for top.parent != nil {
		top = top.parent
	}
	return top
}

// Ancestors returns the chain from the top-level ancestor down to the parent.
func (n *Node) Ancestors() []*Node {
	var chain []*Node
	for p := n.parent; p != nil; p = p.parent {
		chain = append(chain, p)
	}
	slices.Reverse(chain)
	return chain
}

// Walk visits the node and its descendants in pre-order until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, child := range n.children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// Leaves returns every leaf below the node in pre-order.
func (n *Node) Leaves() []*Node {
	var out []*Node
	n.Walk(func(node *Node) bool {
		if node.IsLeaf() {
			out = append(out, node)
		}
		return true
	})
	return out
}

// Spec returns a construction input that rebuilds the node's current state.
// Internal nodes carry no checked value since theirs is derived from the
// leaves. Uncommitted children are left out.
func (n *Node) Spec() NodeSpec {
	spec := NodeSpec{
		Label:     n.Label,
		Value:     n.Value,
		Disabled:  n.disabled,
		Collapsed: n.collapsed,
		IsRoot:    n.isRoot,
	}
	if n.IsLeaf() {
		checked := n.checked == Checked
		spec.Checked = &checked
		return spec
	}
	children := Specs(n.children)
	if len(children) > 0 {
		spec.Children = children
	}
	return spec
}

// Specs returns the Spec of every committed node in order.
func Specs(nodes []*Node) []NodeSpec {
	out := make([]NodeSpec, 0, len(nodes))
	for _, node := range nodes {
		if node.created {
			continue
		}
		out = append(out, node.Spec())
	}
	return out
}
