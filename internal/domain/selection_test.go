package domain

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func TestRollUpCheckedPropagatesIndeterminate(t *testing.T) {
	root := mustNode(t, NewForest(), NodeSpec{
		Label: "A",
		Children: []NodeSpec{
			{Label: "B", Children: []NodeSpec{leaf("B1", true), leaf("B2", true)}},
			{Label: "C", Children: []NodeSpec{leaf("C1", true), leaf("C2", true)}},
		},
	})
	if root.Checked() != Checked {
		t.Fatalf("expected checked root, got %s", root.Checked())
	}

	findLabel(t, root, "C2").SetChecked(false)
	if got := RollUpChecked(root); got != Indeterminate {
		t.Fatalf("expected indeterminate root, got %s", got)
	}
	if findLabel(t, root, "C").Checked() != Indeterminate {
		t.Fatal("expected intermediate node rolled up")
	}
	if findLabel(t, root, "B").Checked() != Checked {
		t.Fatal("expected untouched branch to stay checked")
	}
}

func TestRollUpCheckedLeafKeepsValue(t *testing.T) {
	node := mustNode(t, NewForest(), leaf("A", false))
	if got := RollUpChecked(node); got != Unchecked {
		t.Fatalf("expected leaf value, got %s", got)
	}
}

func TestSetCheckedRecursiveGatesEachChild(t *testing.T) {
	root := mustNode(t, NewForest(), NodeSpec{
		Label:   "A",
		Checked: boolPtr(false),
		Children: []NodeSpec{
			leaf("B", false),
			{Label: "C", Disabled: true, Checked: boolPtr(false)},
			{Label: "D", Children: []NodeSpec{leaf("D1", false)}},
		},
	})
	SetCheckedRecursive(root, true)
	for label, want := range map[string]CheckState{
		"A":  Checked,
		"B":  Checked,
		"C":  Unchecked,
		"D":  Checked,
		"D1": Checked,
	} {
		if got := findLabel(t, root, label).Checked(); got != want {
			t.Fatalf("%s checked = %s, want %s", label, got, want)
		}
	}
}

func TestSetCollapsedRecursive(t *testing.T) {
	root := mustNode(t, NewForest(), NodeSpec{
		Label:    "A",
		Children: []NodeSpec{{Label: "B", Children: []NodeSpec{leaf("C", true)}}},
	})
	SetCollapsedRecursive(root, true)
	root.Walk(func(n *Node) bool {
		if !n.Collapsed() {
			t.Fatalf("expected %q collapsed", n.Label)
		}
		return true
	})
}

func TestPartitionLeaves(t *testing.T) {
	forest := NewForest()
	a := mustNode(t, forest, NodeSpec{
		Label: "A",
		Children: []NodeSpec{
			leaf("A1", true),
			{Label: "A2", Children: []NodeSpec{leaf("A21", false), leaf("A22", true)}},
		},
	})
	b := mustNode(t, forest, leaf("B", false))

	sel := PartitionLeaves([]*Node{a, b})
	if got := labels(sel.Checked); fmt.Sprint(got) != "[A1 A22]" {
		t.Fatalf("unexpected checked leaves %v", got)
	}
	if got := labels(sel.Unchecked); fmt.Sprint(got) != "[A21 B]" {
		t.Fatalf("unexpected unchecked leaves %v", got)
	}
	if sel.Len() != 4 {
		t.Fatalf("expected 4 leaves, got %d", sel.Len())
	}
	if empty := PartitionLeaves(nil); empty.Len() != 0 {
		t.Fatal("expected empty partition for no nodes")
	}
}

func labels(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Label)
	}
	return out
}

// specGen draws random trees up to depth levels deep.
func specGen(depth int) *rapid.Generator[NodeSpec] {
	return rapid.Custom(func(t *rapid.T) NodeSpec {
		return drawSpec(t, depth, "n")
	})
}

func drawSpec(t *rapid.T, depth int, label string) NodeSpec {
	spec := NodeSpec{
		Label:    label,
		Value:    label,
		Checked:  boolPtr(rapid.Bool().Draw(t, label+".checked")),
		Disabled: rapid.IntRange(0, 9).Draw(t, label+".disabled") == 0,
	}
	if depth == 0 || !rapid.Bool().Draw(t, label+".internal") {
		return spec
	}
	count := rapid.IntRange(1, 4).Draw(t, label+".children")
	for i := 0; i < count; i++ {
		spec.Children = append(spec.Children, drawSpec(t, depth-1, fmt.Sprintf("%s.%d", label, i)))
	}
	return spec
}

func assertRolledUp(t *rapid.T, node *Node) {
	if node.IsLeaf() {
		if node.Checked() == Indeterminate {
			t.Fatalf("leaf %q holds indeterminate", node.Label)
		}
		return
	}
	for _, child := range node.children {
		assertRolledUp(t, child)
	}
	if want := CommonChecked(node.children); node.Checked() != want {
		t.Fatalf("node %q checked = %s, want %s", node.Label, node.Checked(), want)
	}
}

func TestPropertyConstructionRollsUp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		node, err := NewNode(NewForest(), specGen(4).Draw(t, "spec"))
		if err != nil {
			t.Fatalf("NewNode() error = %v", err)
		}
		assertRolledUp(t, node)
	})
}

func TestPropertyRollUpAfterLeafWrites(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		node, err := NewNode(NewForest(), specGen(4).Draw(t, "spec"))
		if err != nil {
			t.Fatalf("NewNode() error = %v", err)
		}
		leaves := node.Leaves()
		writes := rapid.IntRange(0, 8).Draw(t, "writes")
		for i := 0; i < writes; i++ {
			target := leaves[rapid.IntRange(0, len(leaves)-1).Draw(t, "leaf")]
			target.SetChecked(rapid.Bool().Draw(t, "value"))
		}
		RollUpChecked(node)
		assertRolledUp(t, node)
	})
}

func TestPropertyPartitionIsDisjointAndComplete(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		specs := rapid.SliceOfN(specGen(3), 0, 4).Draw(t, "specs")
		nodes := make([]*Node, 0, len(specs))
		for _, spec := range specs {
			node, err := NewNode(nil, spec)
			if err != nil {
				t.Fatalf("NewNode() error = %v", err)
			}
			nodes = append(nodes, node)
		}

		sel := PartitionLeaves(nodes)
		seen := map[*Node]int{}
		for _, n := range sel.Checked {
			if n.Checked() != Checked {
				t.Fatalf("unchecked leaf %q in checked set", n.Label)
			}
			seen[n]++
		}
		for _, n := range sel.Unchecked {
			if n.Checked() == Checked {
				t.Fatalf("checked leaf %q in unchecked set", n.Label)
			}
			seen[n]++
		}
		total := 0
		for _, node := range nodes {
			for _, l := range node.Leaves() {
				total++
				if seen[l] != 1 {
					t.Fatalf("leaf %q appears %d times", l.Label, seen[l])
				}
			}
		}
		if total != len(seen) {
			t.Fatalf("partition has %d leaves, tree has %d", len(seen), total)
		}
	})
}

func TestPropertyDisableCascades(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		node, err := NewNode(NewForest(), specGen(4).Draw(t, "spec"))
		if err != nil {
			t.Fatalf("NewNode() error = %v", err)
		}
		var all []*Node
		node.Walk(func(n *Node) bool {
			all = append(all, n)
			return true
		})
		target := all[rapid.IntRange(0, len(all)-1).Draw(t, "target")]
		target.SetDisabled(true)

		before := map[*Node]CheckState{}
		target.Walk(func(n *Node) bool {
			if !n.Disabled() {
				t.Fatalf("descendant %q not disabled", n.Label)
			}
			before[n] = n.Checked()
			return true
		})
		SetCheckedRecursive(target, rapid.Bool().Draw(t, "value"))
		target.Walk(func(n *Node) bool {
			n.SetChecked(!n.Checked().IsChecked())
			if n.Checked() != before[n] {
				t.Fatalf("disabled node %q changed to %s", n.Label, n.Checked())
			}
			return true
		})
	})
}
