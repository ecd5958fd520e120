package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/evanschultz/treeview/internal/app"
	"github.com/evanschultz/treeview/internal/domain"
)

// inputMode represents which widget receives key presses.
type inputMode int

// modeNone and related constants define the input modes.
const (
	modeNone inputMode = iota
	modeFilter
	modeEdit
)

// Model renders one TreeController as an interactive checkbox tree.
type Model struct {
	ctl   *app.TreeController
	title string

	ready  bool
	width  int
	height int
	status string

	help      help.Model
	keys      keyMap
	showHelp  bool
	helpPanel *helpPanel

	mode        inputMode
	filterInput textinput.Model
	editInput   textinput.Model

	loader   Loader
	saver    Saver
	changes  <-chan struct{}
	copyText func(string) error
}

// itemsChangedMsg reports that the item source changed on disk.
type itemsChangedMsg struct{}

// itemsLoadedMsg carries the result of a reload.
type itemsLoadedMsg struct {
	specs []domain.NodeSpec
	err   error
}

// itemsSavedMsg carries the result of a save.
type itemsSavedMsg struct {
	count int
	err   error
}

// NewModel constructs a model over ctl.
func NewModel(ctl *app.TreeController, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	text := ctl.Text()
	filterInput := textinput.New()
	filterInput.Prompt = "/ "
	filterInput.Placeholder = text.FilterPlaceholder()
	filterInput.CharLimit = 120
	filterInput.SetValue(ctl.FilterText())
	editInput := textinput.New()
	editInput.Prompt = ""
	editInput.CharLimit = 200
	m := Model{
		ctl:         ctl,
		title:       "treeview",
		status:      "ready",
		help:        h,
		keys:        newKeyMap(),
		helpPanel:   &helpPanel{},
		filterInput: filterInput,
		editInput:   editInput,
		copyText:    clipboard.WriteAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.gateBindings()
	return m
}

// gateBindings disables the bindings the tree configuration turns off.
func (m *Model) gateBindings() {
	cfg := m.ctl.Config()
	m.keys.toggle.SetEnabled(cfg.HasCheckbox)
	m.keys.toggleAll.SetEnabled(cfg.HasCheckbox && cfg.HasAllCheckBox)
	m.keys.collapseAll.SetEnabled(cfg.HasCollapseExpand)
	m.keys.filter.SetEnabled(cfg.HasFilter)
	m.keys.edit.SetEnabled(cfg.HasEdit)
	m.keys.addChild.SetEnabled(cfg.HasAdd)
	m.keys.addRoot.SetEnabled(cfg.HasAdd)
	m.keys.deleteItem.SetEnabled(cfg.HasDelete)
	m.keys.copy.SetEnabled(cfg.HasCheckbox)
	m.keys.reload.SetEnabled(m.loader != nil)
	m.keys.save.SetEnabled(m.saver != nil)
}

// Init starts listening for item changes when a change source is set.
func (m Model) Init() tea.Cmd {
	if m.changes == nil || m.loader == nil {
		return nil
	}
	return waitForChange(m.changes)
}

// Update applies one message to the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(max(0, msg.Width-2))
		m.filterInput.SetWidth(max(10, m.contentWidth()-4))
		m.editInput.SetWidth(max(10, m.contentWidth()-8))
		return m, nil

	case itemsChangedMsg:
		return m, tea.Batch(m.loadItems, waitForChange(m.changes))

	case itemsLoadedMsg:
		if msg.err != nil {
			m.status = "reload failed: " + msg.err.Error()
			return m, nil
		}
		if err := m.ctl.LoadSpecs(msg.specs); err != nil {
			m.status = "reload failed: " + err.Error()
			return m, nil
		}
		m.leaveInputMode()
		m.status = fmt.Sprintf("reloaded %d items", len(msg.specs))
		return m, nil

	case itemsSavedMsg:
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("saved %d items", msg.count)
		return m, nil

	case tea.KeyPressMsg:
		switch m.mode {
		case modeFilter:
			return m.handleFilterModeKey(msg)
		case modeEdit:
			return m.handleEditModeKey(msg)
		default:
			return m.handleNormalModeKey(msg)
		}
	}
	return m, nil
}

// waitForChange blocks until the change source fires.
func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return itemsChangedMsg{}
	}
}

// loadItems runs the loader off the update loop.
func (m Model) loadItems() tea.Msg {
	specs, err := m.loader(context.Background())
	return itemsLoadedMsg{specs: specs, err: err}
}

// saveItems snapshots the items on the update loop and writes them off it.
func (m Model) saveItems() tea.Cmd {
	specs := domain.Specs(m.ctl.Items())
	saver := m.saver
	return func() tea.Msg {
		return itemsSavedMsg{count: len(specs), err: saver(context.Background(), specs)}
	}
}

func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	nav := m.ctl.Navigation()
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.showHelp = !m.showHelp
		return m, nil
	case msg.String() == "esc":
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if m.ctl.FilterText() != "" {
			m.clearFilter()
			m.status = "filter cleared"
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadItems
	case key.Matches(msg, m.keys.save):
		m.status = "saving..."
		return m, m.saveItems()
	case key.Matches(msg, m.keys.moveUp):
		m.step(nav.MoveUp, nav.MoveUp)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.step(nav.MoveDown, nav.MoveDown)
		return m, nil
	case key.Matches(msg, m.keys.moveLeft):
		m.step(nav.MoveLeft, nil)
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		if cur := m.cursor(); cur != nil && !cur.IsLeaf() {
			if row, ok := m.rowFor(cur); ok && row.node.Collapsed() {
				m.ctl.ToggleCollapsed(row.node)
			}
		}
		m.step(nav.MoveRight, nav.MoveDown)
		return m, nil
	case key.Matches(msg, m.keys.selectItem):
		m.cursor()
		if node := nav.Select(); node != nil {
			m.status = "selected " + node.Label
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		if row, ok := m.rowFor(m.cursor()); ok {
			if !m.ctl.ToggleItem(row.node) {
				m.status = "item is disabled"
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.toggleAll):
		m.ctl.ToggleAll()
		return m, nil
	case key.Matches(msg, m.keys.collapse):
		if row, ok := m.rowFor(m.cursor()); ok && !row.node.IsLeaf() {
			m.ctl.ToggleCollapsed(row.node)
		}
		return m, nil
	case key.Matches(msg, m.keys.collapseAll):
		m.ctl.ToggleAllCollapsed()
		m.revealCursor()
		return m, nil
	case key.Matches(msg, m.keys.filter):
		m.mode = modeFilter
		m.filterInput.SetValue(m.ctl.FilterText())
		m.filterInput.CursorEnd()
		return m, m.filterInput.Focus()
	case key.Matches(msg, m.keys.edit):
		cur := m.cursor()
		if cur == nil || !m.ctl.Editing().EditItem(cur) {
			return m, nil
		}
		return m, m.enterEditMode(cur.EditBuffer())
	case key.Matches(msg, m.keys.addChild):
		cur := m.cursor()
		if cur == nil {
			return m, nil
		}
		m.clearFilter()
		child := m.ctl.Editing().AddChildItem(cur)
		if child == nil {
			m.status = "commit the new item first"
			return m, nil
		}
		nav.SetActive(child)
		return m, m.enterEditMode("")
	case key.Matches(msg, m.keys.addRoot):
		m.clearFilter()
		root := m.ctl.Editing().AddRootItem()
		nav.SetActive(root)
		return m, m.enterEditMode("")
	case key.Matches(msg, m.keys.deleteItem):
		cur := m.cursor()
		if cur == nil {
			return m, nil
		}
		parent := cur.Parent()
		m.ctl.Editing().RequestDelete(cur)
		m.restoreCursor(parent)
		m.status = "delete requested: " + cur.Label
		return m, nil
	case key.Matches(msg, m.keys.copy):
		text, err := formatParsed(m.ctl.Parsed())
		if err == nil {
			err = m.copyText(text)
		}
		if err != nil {
			m.status = "clipboard error: " + err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("copied %d selected", len(m.ctl.Selection().Checked))
		return m, nil
	}
	return m, nil
}

func (m Model) handleFilterModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.clearFilter()
		m.leaveInputMode()
		return m, nil
	case "enter":
		m.leaveInputMode()
		m.syncCursorToView()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if value := m.filterInput.Value(); value != m.ctl.FilterText() {
		m.ctl.SetFilterText(value)
		m.syncCursorToView()
	}
	return m, cmd
}

func (m Model) handleEditModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	edit := m.ctl.Editing()
	current := edit.Current()
	if current == nil {
		m.leaveInputMode()
		return m, nil
	}
	switch msg.String() {
	case "esc":
		parent := current.Parent()
		edit.Cancel()
		m.restoreCursor(parent)
		m.leaveInputMode()
		m.status = "edit cancelled"
		return m, nil
	case "enter":
		parent := current.Parent()
		edit.SetBuffer(m.editInput.Value())
		edit.Commit()
		m.restoreCursor(parent)
		m.leaveInputMode()
		return m, nil
	}
	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	edit.SetBuffer(m.editInput.Value())
	return m, cmd
}

func (m *Model) enterEditMode(value string) tea.Cmd {
	m.mode = modeEdit
	m.editInput.SetValue(value)
	m.editInput.CursorEnd()
	return m.editInput.Focus()
}

func (m *Model) leaveInputMode() {
	m.mode = modeNone
	m.filterInput.Blur()
	m.editInput.Blur()
}

func (m *Model) clearFilter() {
	m.filterInput.SetValue("")
	if m.ctl.FilterText() != "" {
		m.ctl.SetFilterText("")
	}
}

// cursor returns the active source node, settling on the first visible row
// when there is none yet.
func (m *Model) cursor() *domain.Node {
	nav := m.ctl.Navigation()
	if active := nav.Active(); active != nil {
		return active
	}
	rows := m.rows()
	if len(rows) == 0 {
		return nil
	}
	nav.SetActive(sourceOf(rows[0].node))
	return nav.Active()
}

// step runs move once, then keeps applying next while the cursor sits on a
// node hidden by the filter or a collapsed ancestor. The cursor returns to
// where it was when no visible node is reached.
func (m *Model) step(move, next func() *domain.Node) {
	nav := m.ctl.Navigation()
	prev := m.cursor()
	if prev == nil {
		return
	}
	visible := m.visibleSet()
	target := move()
	for target != nil && !visible[target] && next != nil {
		target = next()
	}
	if target == nil || !visible[target] {
		nav.SetActive(prev)
	}
}

// restoreCursor puts the cursor back on fallback, or the first row, when
// the active node was removed.
func (m *Model) restoreCursor(fallback *domain.Node) {
	nav := m.ctl.Navigation()
	active := nav.Active()
	if active != nil && m.visibleSet()[active] {
		return
	}
	if fallback != nil && m.visibleSet()[fallback] {
		nav.SetActive(fallback)
		return
	}
	if rows := m.rows(); len(rows) > 0 {
		nav.SetActive(sourceOf(rows[0].node))
	}
}

// revealCursor moves the cursor up to its outermost collapsed ancestor.
func (m *Model) revealCursor() {
	nav := m.ctl.Navigation()
	active := nav.Active()
	if active == nil {
		return
	}
	for _, ancestor := range active.Ancestors() {
		if ancestor.Collapsed() {
			nav.SetActive(ancestor)
			return
		}
	}
}

// syncCursorToView moves the cursor onto the first row when the filter hid it.
func (m *Model) syncCursorToView() {
	rows := m.rows()
	if len(rows) == 0 {
		return
	}
	if active := m.ctl.Navigation().Active(); active != nil && m.visibleSet()[active] {
		return
	}
	m.ctl.Navigation().SetActive(sourceOf(rows[0].node))
}

// row is one rendered line of the projected tree.
type row struct {
	node  *domain.Node
	depth int
}

// rows flattens the projected view, skipping children of collapsed nodes.
func (m Model) rows() []row {
	out := make([]row, 0)
	var walk func(*domain.Node, int)
	walk = func(node *domain.Node, depth int) {
		out = append(out, row{node: node, depth: depth})
		if node.IsLeaf() || node.Collapsed() {
			return
		}
		for _, child := range node.Children() {
			walk(child, depth+1)
		}
	}
	for _, root := range m.ctl.View() {
		walk(root, 0)
	}
	return out
}

// rowFor finds the rendered row standing for the source node.
func (m Model) rowFor(source *domain.Node) (row, bool) {
	if source == nil {
		return row{}, false
	}
	for _, r := range m.rows() {
		if sourceOf(r.node) == source {
			return r, true
		}
	}
	return row{}, false
}

func (m Model) visibleSet() map[*domain.Node]bool {
	rows := m.rows()
	out := make(map[*domain.Node]bool, len(rows))
	for _, r := range rows {
		out[sourceOf(r.node)] = true
	}
	return out
}

func sourceOf(node *domain.Node) *domain.Node {
	if node.IsShadow() {
		return node.Source()
	}
	return node
}

// formatParsed renders parser output for the clipboard: one path per line
// for downline items, JSON otherwise.
func formatParsed(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case []app.DownlineItem:
		lines := make([]string, 0, len(v))
		for _, item := range v {
			lines = append(lines, item.String())
		}
		return strings.Join(lines, "\n"), nil
	default:
		return encodeJSON(v)
	}
}
