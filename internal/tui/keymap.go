package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// KeyConfig holds user overrides for the configurable bindings. Blank
// fields keep the defaults.
type KeyConfig struct {
	Toggle      string
	ToggleAll   string
	Collapse    string
	CollapseAll string
	Filter      string
	Edit        string
	AddChild    string
	AddRoot     string
	Delete      string
	Copy        string
}

// keyMap holds every binding the model reacts to.
type keyMap struct {
	quit        key.Binding
	toggleHelp  key.Binding
	reload      key.Binding
	save        key.Binding
	moveUp      key.Binding
	moveDown    key.Binding
	moveLeft    key.Binding
	moveRight   key.Binding
	selectItem  key.Binding
	toggle      key.Binding
	toggleAll   key.Binding
	collapse    key.Binding
	collapseAll key.Binding
	filter      key.Binding
	edit        key.Binding
	addChild    key.Binding
	addRoot     key.Binding
	deleteItem  key.Binding
	copy        key.Binding
}

// newKeyMap constructs the default key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload items")),
		save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save items")),
		moveUp:      key.NewBinding(key.WithKeys("k", "w", "up"), key.WithHelp("k/↑", "previous sibling")),
		moveDown:    key.NewBinding(key.WithKeys("j", "s", "down"), key.WithHelp("j/↓", "next sibling")),
		moveLeft:    key.NewBinding(key.WithKeys("h", "a", "left"), key.WithHelp("h/←", "parent")),
		moveRight:   key.NewBinding(key.WithKeys("l", "d", "right"), key.WithHelp("l/→", "first child")),
		selectItem:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select item")),
		toggle:      key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "toggle checkbox")),
		toggleAll:   key.NewBinding(key.WithKeys("*"), key.WithHelp("*", "toggle all")),
		collapse:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "collapse/expand")),
		collapseAll: key.NewBinding(key.WithKeys("O", "shift+o"), key.WithHelp("O", "collapse/expand all")),
		filter:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		edit:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename item")),
		addChild:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new child")),
		addRoot:     key.NewBinding(key.WithKeys("N", "shift+n"), key.WithHelp("N", "new root")),
		deleteItem:  key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete item")),
		copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy selection")),
	}
}

// applyConfig overrides configurable bindings, keeping help descriptions.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.toggle, cfg.Toggle, "space", "toggle checkbox")
	configureBinding(&k.toggleAll, cfg.ToggleAll, "*", "toggle all")
	configureBinding(&k.collapse, cfg.Collapse, "o", "collapse/expand")
	configureBinding(&k.collapseAll, cfg.CollapseAll, "O", "collapse/expand all")
	configureBinding(&k.filter, cfg.Filter, "/", "filter")
	configureBinding(&k.edit, cfg.Edit, "e", "rename item")
	configureBinding(&k.addChild, cfg.AddChild, "n", "new child")
	configureBinding(&k.addRoot, cfg.AddRoot, "N", "new root")
	configureBinding(&k.deleteItem, cfg.Delete, "x", "delete item")
	configureBinding(&k.copy, cfg.Copy, "y", "copy selection")
}

// configureBinding replaces the keys of b with the parsed override.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns a configured key into matcher keys and help text.
// Single upper-case runes also match their shift+ form.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if raw == "space" || raw == " " {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(raw) == 1 {
		r, _ := utf8.DecodeRuneInString(raw)
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + string(unicode.ToLower(r))}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// ShortHelp returns the one-line help bindings.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.filter, k.edit, k.addChild, k.deleteItem, k.toggleHelp, k.quit}
}

// FullHelp returns the grouped help bindings.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveUp, k.moveDown, k.moveLeft, k.moveRight, k.selectItem},
		{k.toggle, k.toggleAll, k.collapse, k.collapseAll, k.filter},
		{k.edit, k.addChild, k.addRoot, k.deleteItem},
		{k.copy, k.reload, k.save, k.toggleHelp, k.quit},
	}
}
