package app

import (
	"slices"

	"github.com/evanschultz/treeview/internal/domain"
)

// AddedItem describes a committed addition and the node it was added under.
// Parent is nil for new root items.
type AddedItem struct {
	Added  *domain.Node
	Parent *domain.Node
}

// Listener receives controller notifications. Every call happens after the
// triggering mutation, including rollups and write-backs, has completed.
type Listener interface {
	SelectionChanged(value any)
	FilterChanged(text string)
	ItemAdded(item AddedItem)
	ItemRenamed(node *domain.Node)
	ItemDeleteRequested(node *domain.Node)
	ItemSelected(node *domain.Node)
}

// ListenerFuncs adapts optional callbacks to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnSelectionChanged    func(any)
	OnFilterChanged       func(string)
	OnItemAdded           func(AddedItem)
	OnItemRenamed         func(*domain.Node)
	OnItemDeleteRequested func(*domain.Node)
	OnItemSelected        func(*domain.Node)
}

// SelectionChanged implements Listener.
func (f ListenerFuncs) SelectionChanged(value any) {
	if f.OnSelectionChanged != nil {
		f.OnSelectionChanged(value)
	}
}

// FilterChanged implements Listener.
func (f ListenerFuncs) FilterChanged(text string) {
	if f.OnFilterChanged != nil {
		f.OnFilterChanged(text)
	}
}

// ItemAdded implements Listener.
func (f ListenerFuncs) ItemAdded(item AddedItem) {
	if f.OnItemAdded != nil {
		f.OnItemAdded(item)
	}
}

// ItemRenamed implements Listener.
func (f ListenerFuncs) ItemRenamed(node *domain.Node) {
	if f.OnItemRenamed != nil {
		f.OnItemRenamed(node)
	}
}

// ItemDeleteRequested implements Listener.
func (f ListenerFuncs) ItemDeleteRequested(node *domain.Node) {
	if f.OnItemDeleteRequested != nil {
		f.OnItemDeleteRequested(node)
	}
}

// ItemSelected implements Listener.
func (f ListenerFuncs) ItemSelected(node *domain.Node) {
	if f.OnItemSelected != nil {
		f.OnItemSelected(node)
	}
}

type subscription struct {
	id       int
	listener Listener
}

// listenerSet keeps subscribers in subscription order.
type listenerSet struct {
	nextID int
	subs   []subscription
}

func (s *listenerSet) add(l Listener) func() {
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, listener: l})
	return func() {
		s.subs = slices.DeleteFunc(s.subs, func(sub subscription) bool {
			return sub.id == id
		})
	}
}

// each calls fn for a snapshot of the current subscribers, so listeners may
// unsubscribe while being notified.
func (s *listenerSet) each(fn func(Listener)) {
	for _, sub := range slices.Clone(s.subs) {
		fn(sub.listener)
	}
}
