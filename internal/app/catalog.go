package app

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/evanschultz/treeview/internal/domain"
)

// CatalogOwnerConfig holds configuration for a catalog owner.
type CatalogOwnerConfig struct {
	// OnError receives failures from listener callbacks, which cannot return them.
	OnError func(error)
	// WriteTimeout bounds each catalog write made from a listener callback.
	WriteTimeout time.Duration
}

// defaultWriteTimeout applies when CatalogOwnerConfig.WriteTimeout is unset.
const defaultWriteTimeout = 5 * time.Second

// CatalogOwner owns the items of a TreeController whose nodes come from a
// Catalog. It builds the nodes, keeps the node to row mapping and applies
// item-added, item-renamed and item-delete-requested events to the catalog.
// Checked and collapsed toggles stay in memory.
type CatalogOwner struct {
	catalog Catalog
	ctl     *TreeController
	idGen   IDGenerator
	clock   Clock
	onError func(error)
	timeout time.Duration

	ids map[*domain.Node]string
}

// NewCatalogOwner constructs a new value for this package.
func NewCatalogOwner(catalog Catalog, ctl *TreeController, idGen IDGenerator, clock Clock, cfg CatalogOwnerConfig) *CatalogOwner {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.OnError == nil {
		cfg.OnError = func(error) {}
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	return &CatalogOwner{
		catalog: catalog,
		ctl:     ctl,
		idGen:   idGen,
		clock:   clock,
		onError: cfg.OnError,
		timeout: cfg.WriteTimeout,
		ids:     map[*domain.Node]string{},
	}
}

// Load builds the controller's items from the catalog.
func (o *CatalogOwner) Load(ctx context.Context) error {
	rows, err := o.catalog.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("list catalog items: %w", err)
	}
	specs, tree, err := specsFromRows(rows)
	if err != nil {
		return err
	}
	nodes, err := domain.NewNodes(nil, specs)
	if err != nil {
		return err
	}
	ids := make(map[*domain.Node]string, len(rows))
	for idx, node := range nodes {
		bindIDs(node, tree[idx], ids)
	}
	o.ids = ids
	o.ctl.ReplaceItems(nodes)
	return nil
}

// Import replaces the catalog with specs and reloads the controller.
func (o *CatalogOwner) Import(ctx context.Context, specs []domain.NodeSpec) error {
	if _, err := domain.NewNodes(nil, specs); err != nil {
		return err
	}
	now := o.clock().UTC()
	var rows []CatalogItem
	for idx, spec := range specs {
		rows = o.appendRows(rows, spec, "", idx, now)
	}
	if err := o.catalog.ReplaceItems(ctx, rows); err != nil {
		return fmt.Errorf("replace catalog items: %w", err)
	}
	return o.Load(ctx)
}

// Export reads the catalog back as node specs.
func (o *CatalogOwner) Export(ctx context.Context) ([]domain.NodeSpec, error) {
	rows, err := o.catalog.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog items: %w", err)
	}
	specs, _, err := specsFromRows(rows)
	return specs, err
}

// ID returns the catalog row ID of node.
func (o *CatalogOwner) ID(node *domain.Node) (string, bool) {
	id, ok := o.ids[node]
	return id, ok
}

// ItemAdded stores a committed addition under its parent's row. Additions
// committed with a blank label cannot be rebuilt later, so they are removed
// from the controller instead.
func (o *CatalogOwner) ItemAdded(item AddedItem) {
	node := item.Added
	if strings.TrimSpace(node.Label) == "" {
		o.onError(fmt.Errorf("add item: %w: label is required", domain.ErrInvalidNodeSpec))
		o.ctl.Remove(node)
		return
	}
	parentID := ""
	if item.Parent != nil {
		id, ok := o.ids[item.Parent]
		if !ok {
			o.onError(fmt.Errorf("add %q: parent %q: %w", node.Label, item.Parent.Label, ErrNotFound))
			return
		}
		parentID = id
	}
	now := o.clock().UTC()
	row := CatalogItem{
		ID:        o.idGen(),
		ParentID:  parentID,
		Position:  -1,
		Label:     node.Label,
		Value:     node.Value,
		Disabled:  node.Disabled(),
		Checked:   node.Checked() == domain.Checked,
		Collapsed: node.Collapsed(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	ctx, cancel := o.writeContext()
	defer cancel()
	if err := o.catalog.CreateItem(ctx, row); err != nil {
		o.onError(fmt.Errorf("add %q: %w", node.Label, err))
		return
	}
	o.ids[node] = row.ID
}

// ItemRenamed stores the node's new label.
func (o *CatalogOwner) ItemRenamed(node *domain.Node) {
	id, ok := o.ids[node]
	if !ok {
		o.onError(fmt.Errorf("rename %q: %w", node.Label, ErrNotFound))
		return
	}
	ctx, cancel := o.writeContext()
	defer cancel()
	if err := o.catalog.RenameItem(ctx, id, node.Label, o.clock().UTC()); err != nil {
		o.onError(fmt.Errorf("rename %q: %w", node.Label, err))
	}
}

// ItemDeleteRequested deletes the node's row subtree, then removes the node
// from the controller. Pending nodes that were never stored are only removed.
func (o *CatalogOwner) ItemDeleteRequested(node *domain.Node) {
	if id, ok := o.ids[node]; ok {
		ctx, cancel := o.writeContext()
		defer cancel()
		if err := o.catalog.DeleteItem(ctx, id); err != nil {
			o.onError(fmt.Errorf("delete %q: %w", node.Label, err))
			return
		}
	}
	node.Walk(func(n *domain.Node) bool {
		delete(o.ids, n)
		return true
	})
	o.ctl.Remove(node)
}

// writeContext scopes one listener-driven write. Listener callbacks carry no
// context of their own.
func (o *CatalogOwner) writeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.timeout)
}

// SelectionChanged implements Listener.
func (o *CatalogOwner) SelectionChanged(any) {}

// FilterChanged implements Listener.
func (o *CatalogOwner) FilterChanged(string) {}

// ItemSelected implements Listener.
func (o *CatalogOwner) ItemSelected(*domain.Node) {}

func (o *CatalogOwner) appendRows(rows []CatalogItem, spec domain.NodeSpec, parentID string, position int, now time.Time) []CatalogItem {
	row := CatalogItem{
		ID:        o.idGen(),
		ParentID:  parentID,
		Position:  position,
		Label:     spec.Label,
		Value:     spec.Value,
		Disabled:  spec.Disabled,
		Checked:   spec.Checked == nil || *spec.Checked,
		Collapsed: spec.Collapsed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	rows = append(rows, row)
	for idx, child := range spec.Children {
		rows = o.appendRows(rows, child, row.ID, idx, now)
	}
	return rows
}

// idTree mirrors the shape of a spec tree with the row IDs behind it.
type idTree struct {
	id       string
	children []idTree
}

// specsFromRows rebuilds the spec forest from flat rows ordered by position.
// Rows that cannot be reached from a top-level row are reported as missing
// parents.
func specsFromRows(rows []CatalogItem) ([]domain.NodeSpec, []idTree, error) {
	byParent := map[string][]CatalogItem{}
	for _, row := range rows {
		byParent[row.ParentID] = append(byParent[row.ParentID], row)
	}
	for _, siblings := range byParent {
		slices.SortStableFunc(siblings, func(a, b CatalogItem) int {
			return cmp.Compare(a.Position, b.Position)
		})
	}

	seen := 0
	var build func(parentID string) ([]domain.NodeSpec, []idTree)
	build = func(parentID string) ([]domain.NodeSpec, []idTree) {
		siblings := byParent[parentID]
		if len(siblings) == 0 {
			return nil, nil
		}
		specs := make([]domain.NodeSpec, 0, len(siblings))
		trees := make([]idTree, 0, len(siblings))
		for _, row := range siblings {
			seen++
			checked := row.Checked
			children, childTrees := build(row.ID)
			specs = append(specs, domain.NodeSpec{
				Label:     row.Label,
				Value:     row.Value,
				Disabled:  row.Disabled,
				Checked:   &checked,
				Collapsed: row.Collapsed,
				Children:  children,
			})
			trees = append(trees, idTree{id: row.ID, children: childTrees})
		}
		return specs, trees
	}

	specs, trees := build("")
	if seen != len(rows) {
		return nil, nil, fmt.Errorf("%d catalog items with missing parent: %w", len(rows)-seen, ErrNotFound)
	}
	return specs, trees, nil
}

func bindIDs(node *domain.Node, tree idTree, ids map[*domain.Node]string) {
	ids[node] = tree.id
	for idx, child := range node.Children() {
		bindIDs(child, tree.children[idx], ids)
	}
}
