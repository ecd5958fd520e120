package app

import (
	"slices"
	"strings"

	"github.com/evanschultz/treeview/internal/domain"
)

// ControllerConfig holds configuration for a TreeController.
type ControllerConfig struct {
	Tree   TreeConfig
	Parser EventParser
	Text   TextProvider
}

// TreeController owns one tree widget's state: its items, the synthetic All
// node, the filter text and projected view, the current selection and the
// navigation and editing sub-controllers.
//
// The All node is never the parent of the items; it only mirrors the fold of
// the view.
type TreeController struct {
	forest *domain.Forest
	cfg    TreeConfig
	parser EventParser
	text   TextProvider

	items      []*domain.Node
	all        *domain.Node
	filterText string
	view       []*domain.Node
	selection  domain.Selection
	parsed     any
	selected   *domain.Node

	listeners listenerSet
	nav       *NavigationController
	edit      *EditingController
}

// NewTreeController constructs a controller over forest. A nil forest gets a
// private one.
func NewTreeController(forest *domain.Forest, cfg ControllerConfig) *TreeController {
	if forest == nil {
		forest = domain.NewForest()
	}
	if cfg.Parser == nil {
		cfg.Parser = ValuesParser{}
	}
	if cfg.Text == nil {
		cfg.Text = DefaultText{Language: LanguageEnglish}
	}
	c := &TreeController{
		forest: forest,
		cfg:    cfg.Tree,
		parser: cfg.Parser,
		text:   cfg.Text,
	}
	c.all = c.newAllNode()
	c.nav = &NavigationController{ctl: c}
	c.edit = &EditingController{ctl: c}
	return c
}

func (c *TreeController) newAllNode() *domain.Node {
	label := c.text.AllCheckboxText()
	if strings.TrimSpace(label) == "" {
		label = "All"
	}
	unchecked := false
	all, err := domain.NewNode(nil, domain.NodeSpec{Label: label, Checked: &unchecked})
	if err != nil {
		panic(err)
	}
	return all
}

// Forest returns the root registry shared by this controller.
func (c *TreeController) Forest() *domain.Forest {
	return c.forest
}

// Config returns the tree options.
func (c *TreeController) Config() TreeConfig {
	return c.cfg
}

// Text returns the controller's text provider.
func (c *TreeController) Text() TextProvider {
	return c.text
}

// Items returns the source items in order.
func (c *TreeController) Items() []*domain.Node {
	return slices.Clone(c.items)
}

// All returns the synthetic header node.
func (c *TreeController) All() *domain.Node {
	return c.all
}

// FilterText returns the active filter text.
func (c *TreeController) FilterText() string {
	return c.filterText
}

// View returns the filtered projection of the items; the items themselves
// when no filter is set.
func (c *TreeController) View() []*domain.Node {
	return slices.Clone(c.view)
}

// Selection returns the last computed leaf partition.
func (c *TreeController) Selection() domain.Selection {
	return c.selection
}

// Parsed returns the parser output last sent with selection-changed.
func (c *TreeController) Parsed() any {
	return c.parsed
}

// SelectedItem returns the leaf last chosen through navigation, if any.
func (c *TreeController) SelectedItem() *domain.Node {
	return c.selected
}

// Navigation returns the keyboard navigation controller.
func (c *TreeController) Navigation() *NavigationController {
	return c.nav
}

// Editing returns the add/rename controller.
func (c *TreeController) Editing() *EditingController {
	return c.edit
}

// Subscribe registers l and returns a func that removes it.
func (c *TreeController) Subscribe(l Listener) func() {
	return c.listeners.add(l)
}

// SetItems replaces the items, rebuilds the All node, resets the cursor and
// any open edit, recomputes the view and emits selection-changed. Items must
// already be registered with the forest by their owner.
func (c *TreeController) SetItems(items []*domain.Node) {
	c.edit.reset()
	c.nav.reset()
	c.items = slices.Clone(items)
	c.edit.adopt(c.items)
	c.all = c.newAllNode()
	c.selected = nil
	c.refreshView()
	c.updateCollapsedOfAll()
	c.emitSelection()
}

// ReplaceItems unregisters the current items from the forest, registers the
// new ones and calls SetItems.
func (c *TreeController) ReplaceItems(items []*domain.Node) {
	for _, item := range c.items {
		c.forest.Unregister(item)
	}
	for _, item := range items {
		c.forest.Register(item)
	}
	c.SetItems(items)
}

// LoadSpecs builds nodes from specs and replaces the items with them. On
// error the current items are kept.
func (c *TreeController) LoadSpecs(specs []domain.NodeSpec) error {
	nodes, err := domain.NewNodes(nil, specs)
	if err != nil {
		return err
	}
	c.ReplaceItems(nodes)
	return nil
}

// SetFilterText reprojects the view for text and emits filter-changed.
func (c *TreeController) SetFilterText(text string) {
	c.filterText = text
	c.refreshView()
	c.updateCollapsedOfAll()
	c.listeners.each(func(l Listener) { l.FilterChanged(text) })
}

// ToggleItem flips the checkbox of node, which may be a source node or a
// shadow from the view. Unless children are decoupled, the new value cascades
// to enabled descendants, the node and its ancestors are re-folded and
// shadows are written back to the source tree. Disabled nodes are ignored.
func (c *TreeController) ToggleItem(node *domain.Node) bool {
	if node == nil || node.Disabled() {
		return false
	}
	checked := node.Checked() != domain.Checked
	node.SetChecked(checked)

	if c.cfg.DecoupleChildFromParent {
		if node.IsShadow() {
			node.Source().SetChecked(checked)
		}
	} else {
		for _, child := range node.Children() {
			domain.SetCheckedRecursive(child, checked)
		}
		domain.RollUpChecked(node)
		rollUpAncestors(node)
		if c.filterActive() {
			for _, root := range c.view {
				if root.IsShadow() {
					domain.RefreshShadow(root)
					domain.WriteBack(root)
				}
			}
		}
	}

	c.updateCheckedOfAll()
	c.emitSelection()
	return true
}

// ToggleAll checks every node of the view when the All node is not fully
// checked, and unchecks them otherwise. Each view root is re-folded so that
// disabled descendants keep their parents indeterminate, and shadows are
// written back before any listener is notified.
func (c *TreeController) ToggleAll() {
	checked := c.all.Checked() != domain.Checked
	for _, root := range c.view {
		domain.SetCheckedRecursive(root, checked)
		domain.RollUpChecked(root)
		if root.IsShadow() {
			domain.WriteBack(root)
		}
	}
	c.updateCheckedOfAll()
	c.emitSelection()
}

// ToggleCollapsed flips the collapsed flag of node only.
func (c *TreeController) ToggleCollapsed(node *domain.Node) {
	if node == nil {
		return
	}
	node.SetCollapsed(!node.Collapsed())
	c.updateCollapsedOfAll()
}

// ToggleAllCollapsed flips the All node's collapsed flag and applies it to
// every node of the view.
func (c *TreeController) ToggleAllCollapsed() {
	collapsed := !c.all.Collapsed()
	c.all.SetCollapsed(collapsed)
	for _, root := range c.view {
		domain.SetCollapsedRecursive(root, collapsed)
	}
}

// Remove detaches node, or the source node a shadow stands for, from its
// parent or from the items. Owners call it after honoring a delete request.
func (c *TreeController) Remove(node *domain.Node) bool {
	if node == nil {
		return false
	}
	if node.IsShadow() {
		node = node.Source()
	}
	if parent := node.Parent(); parent != nil {
		if !parent.RemoveChild(node) {
			return false
		}
		if !c.cfg.DecoupleChildFromParent {
			if !parent.IsLeaf() {
				parent.SetCheckState(domain.CommonChecked(parent.Children()))
			}
			rollUpAncestors(parent)
		}
	} else {
		idx := slices.Index(c.items, node)
		if idx < 0 {
			return false
		}
		c.items = slices.Delete(c.items, idx, idx+1)
		c.forest.Unregister(node)
	}

	if contains(node, c.nav.active) {
		c.nav.reset()
	}
	if contains(node, c.edit.node) {
		c.edit.reset()
	}
	if contains(node, c.selected) {
		c.selected = nil
	}
	c.refreshView()
	c.emitSelection()
	return true
}

// HeaderText is the dropdown caption: the selected label when checkboxes are
// off, otherwise the text provider's summary of the selection.
func (c *TreeController) HeaderText() string {
	if !c.cfg.HasCheckbox {
		if c.selected != nil {
			return c.selected.Label
		}
		return c.text.NoSelectionText()
	}
	return c.text.Text(c.selection)
}

// HasFilterItems reports whether the view is non-empty.
func (c *TreeController) HasFilterItems() bool {
	return len(c.view) > 0
}

func (c *TreeController) filterActive() bool {
	return c.filterText != ""
}

func (c *TreeController) refreshView() {
	c.view = domain.Project(c.items, c.filterText)
	c.updateCheckedOfAll()
}

func (c *TreeController) updateCheckedOfAll() {
	c.all.SetCheckState(domain.CommonChecked(c.view))
}

func (c *TreeController) updateCollapsedOfAll() {
	expanded := slices.ContainsFunc(c.view, func(n *domain.Node) bool {
		return !n.Collapsed()
	})
	c.all.SetCollapsed(!expanded)
}

func (c *TreeController) emitSelection() {
	c.selection = domain.PartitionLeaves(c.items)
	c.parsed = c.parser.Parse(slices.Clone(c.items), c.selection)
	value := c.parsed
	c.listeners.each(func(l Listener) { l.SelectionChanged(value) })
}

// rollUpAncestors re-folds every ancestor of node from its children.
func rollUpAncestors(node *domain.Node) {
	for p := node.Parent(); p != nil; p = p.Parent() {
		p.SetCheckState(domain.CommonChecked(p.Children()))
	}
}

// contains reports whether target is root or one of its descendants.
func contains(root, target *domain.Node) bool {
	if target == nil {
		return false
	}
	for n := target; n != nil; n = n.Parent() {
		if n == root {
			return true
		}
	}
	return false
}
