package domain

// Selection partitions the leaves of a collection by checked state.
type Selection struct {
	Checked   []*Node
	Unchecked []*Node
}

// Len returns the number of leaves in the partition.
func (s Selection) Len() int {
	return len(s.Checked) + len(s.Unchecked)
}

// RollUpChecked recomputes checked bottom-up below node and returns the
// node's value. Leaves keep their own value; an internal node takes the
// common value of its children, or Indeterminate when they differ.
func RollUpChecked(node *Node) CheckState {
	if node.IsLeaf() {
		return node.checked
	}
	state := RollUpChecked(node.children[0])
	for _, child := range node.children[1:] {
		if RollUpChecked(child) != state {
			state = Indeterminate
		}
	}
	node.checked = state
	return state
}

// SetCheckedRecursive writes checked on node and every descendant. A
// disabled node is left untouched along with its subtree; each child gates
// its own write.
func SetCheckedRecursive(node *Node, checked bool) {
	if node.disabled {
		return
	}
	node.checked = CheckStateOf(checked)
	for _, child := range node.children {
		SetCheckedRecursive(child, checked)
	}
}

// SetCollapsedRecursive writes collapsed on node and every descendant.
func SetCollapsedRecursive(node *Node, collapsed bool) {
	node.collapsed = collapsed
	for _, child := range node.children {
		SetCollapsedRecursive(child, collapsed)
	}
}

// PartitionLeaves splits every leaf reachable from nodes into checked and
// unchecked sets, preserving pre-order.
func PartitionLeaves(nodes []*Node) Selection {
	var sel Selection
	for _, node := range nodes {
		partitionInto(node, &sel)
	}
	return sel
}

func partitionInto(node *Node, sel *Selection) {
	if node.IsLeaf() {
		if node.checked == Checked {
			sel.Checked = append(sel.Checked, node)
		} else {
			sel.Unchecked = append(sel.Unchecked, node)
		}
		return
	}
	for _, child := range node.children {
		partitionInto(child, sel)
	}
}
