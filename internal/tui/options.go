package tui

import (
	"context"

	"github.com/evanschultz/treeview/internal/domain"
)

// Loader fetches the current item specs from wherever the tree is kept.
type Loader func(context.Context) ([]domain.NodeSpec, error)

// Saver persists the current item specs.
type Saver func(context.Context, []domain.NodeSpec) error

type Option func(*Model)

func WithTitle(title string) Option {
	return func(m *Model) {
		if title != "" {
			m.title = title
		}
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithLoader enables manual reloads and, together with WithChanges, live ones.
func WithLoader(loader Loader) Option {
	return func(m *Model) {
		m.loader = loader
	}
}

// WithChanges reloads the items whenever changes receives.
func WithChanges(changes <-chan struct{}) Option {
	return func(m *Model) {
		m.changes = changes
	}
}

func WithSaver(saver Saver) Option {
	return func(m *Model) {
		m.saver = saver
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}
