package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/evanschultz/treeview/internal/adapters/specfile"
	"github.com/evanschultz/treeview/internal/adapters/storage/sqlite"
	"github.com/evanschultz/treeview/internal/app"
	"github.com/evanschultz/treeview/internal/config"
	"github.com/evanschultz/treeview/internal/domain"
	"github.com/evanschultz/treeview/internal/tui"
	"github.com/google/uuid"
)

// itemSource holds one controller together with whatever owns its items:
// an item spec file or the sqlite catalog.
type itemSource struct {
	env    runtimeEnv
	ctl    *app.TreeController
	logger *runtimeLogger

	path   string
	format specfile.Format

	repo  *sqlite.Repository
	owner *app.CatalogOwner
}

// openItemSource builds the controller from cfg and loads its items.
func openItemSource(ctx context.Context, cfg config.Config, logger *runtimeLogger) (*itemSource, error) {
	ctl, err := newController(cfg)
	if err != nil {
		return nil, err
	}
	ctl.Subscribe(eventLogger(logger))
	src := &itemSource{ctl: ctl, logger: logger}

	if cfg.Items.Path != "" {
		src.path = cfg.Items.Path
		if cfg.Items.Format != "" {
			if src.format, err = specfile.ParseFormat(cfg.Items.Format); err != nil {
				return nil, err
			}
		}
		ctl.Subscribe(app.NewLocalOwner(ctl))
		logger.Info("loading item file", "path", src.path, "format", string(src.format))
		specs, err := src.loadFile(ctx)
		if err != nil {
			return nil, err
		}
		if err := ctl.LoadSpecs(specs); err != nil {
			return nil, fmt.Errorf("load items: %w", err)
		}
		logger.Info("item file ready", "path", src.path, "items", len(specs))
		return src, nil
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")
	src.repo = repo
	src.owner = app.NewCatalogOwner(repo, ctl, uuid.NewString, time.Now, app.CatalogOwnerConfig{
		OnError: func(err error) {
			logger.Error("catalog write failed", "err", err)
		},
	})
	ctl.Subscribe(src.owner)
	if err := src.owner.Load(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return src, nil
}

// loadFile reads the item file. A missing file is an empty tree.
func (s *itemSource) loadFile(context.Context) ([]domain.NodeSpec, error) {
	specs, err := specfile.Load(s.path, s.format)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return specs, err
}

func (s *itemSource) saveFile(_ context.Context, specs []domain.NodeSpec) error {
	if err := specfile.Save(s.path, s.format, specs); err != nil {
		s.logger.Error("item file save failed", "path", s.path, "err", err)
		return err
	}
	s.logger.Info("item file saved", "path", s.path, "items", len(specs))
	return nil
}

// Export returns the stored items.
func (s *itemSource) Export(ctx context.Context) ([]domain.NodeSpec, error) {
	if s.owner != nil {
		return s.owner.Export(ctx)
	}
	return domain.Specs(s.ctl.Items()), nil
}

// Import replaces the stored items with specs.
func (s *itemSource) Import(ctx context.Context, specs []domain.NodeSpec) error {
	if s.owner != nil {
		return s.owner.Import(ctx, specs)
	}
	if err := s.ctl.LoadSpecs(specs); err != nil {
		return err
	}
	return s.saveFile(ctx, specs)
}

// ExportView returns the items projected through filter.
func (s *itemSource) ExportView(filter string) []domain.NodeSpec {
	s.ctl.SetFilterText(filter)
	return domain.Specs(s.ctl.View())
}

// tuiOptions wires reload and save for file-backed items. Catalog items are
// written as they change.
func (s *itemSource) tuiOptions() []tui.Option {
	if s.owner != nil {
		return nil
	}
	return []tui.Option{
		tui.WithLoader(s.loadFile),
		tui.WithSaver(s.saveFile),
	}
}

func (s *itemSource) Close() error {
	if s.repo == nil {
		return nil
	}
	return s.repo.Close()
}

// newController maps the tree section of cfg onto a controller.
func newController(cfg config.Config) (*app.TreeController, error) {
	lang, err := app.ParseLanguage(cfg.Text.Language)
	if err != nil {
		return nil, err
	}
	return app.NewTreeController(nil, app.ControllerConfig{
		Tree: app.TreeConfig{
			HasCheckbox:             cfg.Tree.HasCheckbox,
			HasAllCheckBox:          cfg.Tree.HasAllCheckBox,
			HasFilter:               cfg.Tree.HasFilter,
			HasCollapseExpand:       cfg.Tree.HasCollapseExpand,
			HasAdd:                  cfg.Tree.HasAdd,
			HasEdit:                 cfg.Tree.HasEdit,
			HasDelete:               cfg.Tree.HasDelete,
			DecoupleChildFromParent: cfg.Tree.DecoupleChildFromParent,
			MaxHeight:               cfg.Tree.MaxHeight,
			MaxWidth:                cfg.Tree.MaxWidth,
		},
		Parser: parserFor(cfg.Tree.Parser),
		Text:   app.DefaultText{Language: lang},
	}), nil
}

func parserFor(kind config.ParserKind) app.EventParser {
	switch kind {
	case config.ParserSelection:
		return app.SelectionParser{}
	case config.ParserDownline:
		return app.DownlineParser{}
	default:
		return app.ValuesParser{}
	}
}

func toTUIKeyConfig(keys config.KeyConfig) tui.KeyConfig {
	return tui.KeyConfig{
		Toggle:      keys.Toggle,
		ToggleAll:   keys.ToggleAll,
		Collapse:    keys.Collapse,
		CollapseAll: keys.CollapseAll,
		Filter:      keys.Filter,
		Edit:        keys.Edit,
		AddChild:    keys.AddChild,
		AddRoot:     keys.AddRoot,
		Delete:      keys.Delete,
		Copy:        keys.Copy,
	}
}
