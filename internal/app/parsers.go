package app

import (
	"slices"
	"strings"

	"github.com/evanschultz/treeview/internal/domain"
)

// EventParser converts the current selection into the value passed to
// Listener.SelectionChanged.
type EventParser interface {
	Parse(items []*domain.Node, sel domain.Selection) any
}

// EventParserFunc adapts a function to EventParser.
type EventParserFunc func(items []*domain.Node, sel domain.Selection) any

// Parse implements EventParser.
func (f EventParserFunc) Parse(items []*domain.Node, sel domain.Selection) any {
	return f(items, sel)
}

// ValuesParser reports the values of the checked leaves. It is the default parser.
type ValuesParser struct{}

// Parse implements EventParser.
func (ValuesParser) Parse(_ []*domain.Node, sel domain.Selection) any {
	return nodeValues(sel.Checked)
}

// SelectionValues holds leaf values split by checked state.
type SelectionValues struct {
	Checked   []any `json:"checked"`
	Unchecked []any `json:"unchecked"`
}

// SelectionParser reports both checked and unchecked leaf values.
type SelectionParser struct{}

// Parse implements EventParser.
func (SelectionParser) Parse(_ []*domain.Node, sel domain.Selection) any {
	return SelectionValues{
		Checked:   nodeValues(sel.Checked),
		Unchecked: nodeValues(sel.Unchecked),
	}
}

// DownlineItem is a checked leaf together with the chain of nodes above it.
type DownlineItem struct {
	Node   *domain.Node
	Parent *DownlineItem
}

// Path returns the labels from the top-level ancestor down to the leaf.
func (d DownlineItem) Path() []string {
	var out []string
	for cur := &d; cur != nil; cur = cur.Parent {
		out = append(out, cur.Node.Label)
	}
	slices.Reverse(out)
	return out
}

// String renders the path joined by " / ".
func (d DownlineItem) String() string {
	return strings.Join(d.Path(), " / ")
}

// DownlineParser reports each checked leaf with its ancestor chain, walking
// items in pre-order.
type DownlineParser struct{}

// Parse implements EventParser.
func (DownlineParser) Parse(items []*domain.Node, _ domain.Selection) any {
	var out []DownlineItem
	for _, item := range items {
		collectDownline(item, nil, &out)
	}
	return out
}

func collectDownline(node *domain.Node, parent *DownlineItem, out *[]DownlineItem) {
	entry := DownlineItem{Node: node, Parent: parent}
	if node.IsLeaf() {
		if node.Checked() == domain.Checked {
			*out = append(*out, entry)
		}
		return
	}
	for _, child := range node.Children() {
		collectDownline(child, &entry, out)
	}
}

func nodeValues(nodes []*domain.Node) []any {
	out := make([]any, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, node.Value)
	}
	return out
}
