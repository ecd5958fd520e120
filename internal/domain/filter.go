package domain

import "strings"

// Project returns the part of items whose labels contain text, compared
// case-insensitively. Empty text returns items itself. A matching node is
// kept by reference with its full subtree; a non-matching node with matching
// descendants is replaced by an expanded shadow holding only those
// descendants; everything else is dropped.
func Project(items []*Node, text string) []*Node {
	if text == "" {
		return items
	}
	needle := strings.ToLower(text)
	out := make([]*Node, 0, len(items))
	for _, item := range items {
		if projected := projectNode(item, needle); projected != nil {
			out = append(out, projected)
		}
	}
	return out
}

func projectNode(node *Node, needle string) *Node {
	if strings.Contains(strings.ToLower(node.Label), needle) {
		return node
	}
	if node.IsLeaf() {
		return nil
	}
	var kept []*Node
	for _, child := range node.children {
		if projected := projectNode(child, needle); projected != nil {
			kept = append(kept, projected)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return newShadow(node, kept)
}

// newShadow builds a shadow of source over children. Original nodes among
// children keep their own parent; nested shadows are adopted.
func newShadow(source *Node, children []*Node) *Node {
	shadow := &Node{
		Label:     source.Label,
		Value:     source.Value,
		kind:      KindShadow,
		source:    source,
		children:  children,
		disabled:  source.disabled,
		collapsed: false,
	}
	for _, child := range children {
		if child.kind == KindShadow {
			child.parent = shadow
		}
	}
	shadow.checked = commonChecked(children)
	return shadow
}

// RefreshShadow re-folds the checked state of shadow and its nested shadows
// from their current children, bottom-up.
func RefreshShadow(shadow *Node) CheckState {
	if shadow.kind != KindShadow {
		return shadow.checked
	}
	for _, child := range shadow.children {
		if child.kind == KindShadow {
			RefreshShadow(child)
		}
	}
	shadow.checked = commonChecked(shadow.children)
	return shadow.checked
}

// WriteBack pushes the checked state of a shadow subtree into the source
// tree, depth-first. A source node becomes Checked only when its shadow is
// Checked and every one of its own children, including those the filter
// hid, is Checked; otherwise it takes the fold of its full child set.
// Disabled source nodes are left as they are.
func WriteBack(shadow *Node) {
	if shadow.kind != KindShadow {
		return
	}
	for _, child := range shadow.children {
		if child.kind == KindShadow {
			WriteBack(child)
		}
	}
	source := shadow.source
	state := commonChecked(source.children)
	if shadow.checked != Checked && state == Checked {
		state = Unchecked
	}
	source.SetCheckState(state)
}
