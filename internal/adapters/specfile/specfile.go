// Package specfile reads and writes item trees as JSON, YAML or TOML documents.
package specfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanschultz/treeview/internal/app"
	"github.com/evanschultz/treeview/internal/domain"
	json "github.com/goccy/go-json"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format names a document encoding.
type Format string

// Format values.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// document is the on-disk shape: a top-level items list.
type document struct {
	Items []item `json:"items" yaml:"items" toml:"items"`
}

// item mirrors domain.NodeSpec. A present but empty children list is kept
// non-nil so that validation rejects it.
type item struct {
	Label     string `json:"label" yaml:"label" toml:"label"`
	Value     any    `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
	Disabled  bool   `json:"disabled,omitempty" yaml:"disabled,omitempty" toml:"disabled,omitempty"`
	Checked   *bool  `json:"checked,omitempty" yaml:"checked,omitempty" toml:"checked,omitempty"`
	Collapsed bool   `json:"collapsed,omitempty" yaml:"collapsed,omitempty" toml:"collapsed,omitempty"`
	IsEdit    bool   `json:"is_edit,omitempty" yaml:"is_edit,omitempty" toml:"is_edit,omitempty"`
	IsRoot    bool   `json:"is_root,omitempty" yaml:"is_root,omitempty" toml:"is_root,omitempty"`
	Children  []item `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty"`
}

// ParseFormat normalizes a format name. "yml" is accepted for YAML.
func ParseFormat(raw string) (Format, error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", app.ErrUnknownFormat, raw)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", app.ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Decode parses a document and validates it by building the items once.
// Decode and validation failures both match domain.ErrInvalidNodeSpec.
func Decode(content []byte, format Format) ([]domain.NodeSpec, error) {
	var doc document
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(content, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(content, &doc)
	case FormatTOML:
		err = toml.Unmarshal(content, &doc)
	default:
		return nil, fmt.Errorf("%w: %q", app.ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidNodeSpec, fmt.Errorf("decode %s: %w", format, err))
	}

	specs := toSpecs(doc.Items)
	if _, err := domain.NewNodes(nil, specs); err != nil {
		return nil, err
	}
	return specs, nil
}

// Encode renders specs as a document.
func Encode(specs []domain.NodeSpec, format Format) ([]byte, error) {
	doc := document{Items: fromSpecs(specs)}
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(out, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatTOML:
		out, err := toml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", app.ErrUnknownFormat, format)
	}
}

// Load reads the document at path. An empty format is inferred from the extension.
func Load(path string, format Format) ([]domain.NodeSpec, error) {
	format, err := resolveFormat(path, format)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	return Decode(content, format)
}

// Save writes specs to path, creating the parent directory.
func Save(path string, format Format, specs []domain.NodeSpec) error {
	format, err := resolveFormat(path, format)
	if err != nil {
		return err
	}
	content, err := Encode(specs, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create items dir: %w", err)
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write items: %w", err)
	}
	return nil
}

func resolveFormat(path string, format Format) (Format, error) {
	if format == "" {
		return FormatFromPath(path)
	}
	return ParseFormat(string(format))
}

func toSpecs(items []item) []domain.NodeSpec {
	out := make([]domain.NodeSpec, 0, len(items))
	for _, it := range items {
		spec := domain.NodeSpec{
			Label:     it.Label,
			Value:     it.Value,
			Disabled:  it.Disabled,
			Checked:   it.Checked,
			Collapsed: it.Collapsed,
			IsEdit:    it.IsEdit,
			IsRoot:    it.IsRoot,
		}
		if it.Children != nil {
			spec.Children = toSpecs(it.Children)
		}
		out = append(out, spec)
	}
	return out
}

func fromSpecs(specs []domain.NodeSpec) []item {
	out := make([]item, 0, len(specs))
	for _, spec := range specs {
		it := item{
			Label:     spec.Label,
			Value:     spec.Value,
			Disabled:  spec.Disabled,
			Checked:   spec.Checked,
			Collapsed: spec.Collapsed,
			IsEdit:    spec.IsEdit,
			IsRoot:    spec.IsRoot,
		}
		if spec.Children != nil {
			it.Children = fromSpecs(spec.Children)
		}
		out = append(out, it)
	}
	return out
}
