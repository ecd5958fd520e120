package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type ParserKind string

const (
	ParserValues    ParserKind = "values"
	ParserSelection ParserKind = "selection"
	ParserDownline  ParserKind = "downline"
)

var (
	logLevels   = []string{"debug", "info", "warn", "error"}
	languages   = []string{"en", "ru", "vi"}
	itemFormats = []string{"", "json", "yaml", "toml"}
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Tree     TreeConfig     `toml:"tree"`
	Text     TextConfig     `toml:"text"`
	Items    ItemsConfig    `toml:"items"`
	Keys     KeyConfig      `toml:"keys"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type TreeConfig struct {
	HasCheckbox             bool       `toml:"has_checkbox"`
	HasAllCheckBox          bool       `toml:"has_all_checkbox"`
	HasFilter               bool       `toml:"has_filter"`
	HasCollapseExpand       bool       `toml:"has_collapse_expand"`
	HasAdd                  bool       `toml:"has_add"`
	HasEdit                 bool       `toml:"has_edit"`
	HasDelete               bool       `toml:"has_delete"`
	DecoupleChildFromParent bool       `toml:"decouple_child_from_parent"`
	MaxHeight               int        `toml:"max_height"`
	MaxWidth                int        `toml:"max_width"`
	Parser                  ParserKind `toml:"parser"`
}

type TextConfig struct {
	Language string `toml:"language"`
}

// ItemsConfig points the tree at a spec file instead of the sqlite catalog.
type ItemsConfig struct {
	Path   string `toml:"path"`
	Format string `toml:"format"` // json | yaml | toml, empty infers from extension
	Watch  bool   `toml:"watch"`
}

type KeyConfig struct {
	Toggle      string `toml:"toggle"`
	ToggleAll   string `toml:"toggle_all"`
	Collapse    string `toml:"collapse"`
	CollapseAll string `toml:"collapse_all"`
	Filter      string `toml:"filter"`
	Edit        string `toml:"edit"`
	AddChild    string `toml:"add_child"`
	AddRoot     string `toml:"add_root"`
	Delete      string `toml:"delete"`
	Copy        string `toml:"copy"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".treeview/log",
			},
		},
		Tree: TreeConfig{
			HasCheckbox:       true,
			HasAllCheckBox:    true,
			HasFilter:         true,
			HasCollapseExpand: true,
			HasAdd:            true,
			HasEdit:           true,
			HasDelete:         true,
			MaxHeight:         500,
			MaxWidth:          240,
			Parser:            ParserValues,
		},
		Text: TextConfig{
			Language: "en",
		},
		Keys: KeyConfig{
			Toggle:      "space",
			ToggleAll:   "*",
			Collapse:    "o",
			CollapseAll: "O",
			Filter:      "/",
			Edit:        "e",
			AddChild:    "n",
			AddRoot:     "N",
			Delete:      "x",
			Copy:        "y",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	level := strings.TrimSpace(strings.ToLower(c.Logging.Level))
	if level != "" && !slices.Contains(logLevels, level) {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if c.Tree.MaxHeight < 0 {
		return errors.New("tree.max_height must be >= 0")
	}
	if c.Tree.MaxWidth < 0 {
		return errors.New("tree.max_width must be >= 0")
	}
	switch c.Tree.Parser {
	case "", ParserValues, ParserSelection, ParserDownline:
	default:
		return fmt.Errorf("invalid tree.parser: %q", c.Tree.Parser)
	}

	lang := strings.TrimSpace(strings.ToLower(c.Text.Language))
	if lang != "" && !slices.Contains(languages, lang) {
		return fmt.Errorf("invalid text.language: %q", c.Text.Language)
	}

	format := strings.TrimSpace(strings.ToLower(c.Items.Format))
	if !slices.Contains(itemFormats, format) {
		return fmt.Errorf("invalid items.format: %q", c.Items.Format)
	}
	if c.Items.Watch && strings.TrimSpace(c.Items.Path) == "" {
		return errors.New("items.watch requires items.path")
	}

	seen := map[string]string{}
	for name, binding := range c.Keys.bindings() {
		binding = strings.TrimSpace(binding)
		if binding == "" {
			continue
		}
		if other, ok := seen[binding]; ok {
			return fmt.Errorf("keys.%s duplicates keys.%s: %q", name, other, binding)
		}
		seen[binding] = name
	}

	return nil
}

func (k KeyConfig) bindings() map[string]string {
	return map[string]string{
		"toggle":       k.Toggle,
		"toggle_all":   k.ToggleAll,
		"collapse":     k.Collapse,
		"collapse_all": k.CollapseAll,
		"filter":       k.Filter,
		"edit":         k.Edit,
		"add_child":    k.AddChild,
		"add_root":     k.AddRoot,
		"delete":       k.Delete,
		"copy":         k.Copy,
	}
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
