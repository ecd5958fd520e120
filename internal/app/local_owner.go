package app

import (
	"strings"

	"github.com/evanschultz/treeview/internal/domain"
)

// LocalOwner owns items that live only in memory or in a spec file. It
// honors delete requests right away and drops committed additions whose
// label is blank.
type LocalOwner struct {
	ctl *TreeController
}

// NewLocalOwner constructs an owner for ctl. Subscribe it to take effect.
func NewLocalOwner(ctl *TreeController) *LocalOwner {
	return &LocalOwner{ctl: ctl}
}

// ItemAdded implements Listener.
func (o *LocalOwner) ItemAdded(item AddedItem) {
	if strings.TrimSpace(item.Added.Label) == "" {
		o.ctl.Remove(item.Added)
	}
}

// ItemDeleteRequested implements Listener.
func (o *LocalOwner) ItemDeleteRequested(node *domain.Node) {
	o.ctl.Remove(node)
}

// SelectionChanged implements Listener.
func (o *LocalOwner) SelectionChanged(any) {}

// FilterChanged implements Listener.
func (o *LocalOwner) FilterChanged(string) {}

// ItemRenamed implements Listener.
func (o *LocalOwner) ItemRenamed(*domain.Node) {}

// ItemSelected implements Listener.
func (o *LocalOwner) ItemSelected(*domain.Node) {}
