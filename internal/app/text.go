package app

import (
	"fmt"
	"strings"

	"github.com/evanschultz/treeview/internal/domain"
)

// TextProvider supplies the user-facing strings of a tree.
type TextProvider interface {
	Text(sel domain.Selection) string
	AllCheckboxText() string
	FilterPlaceholder() string
	NoItemsFoundText() string
	NoSelectionText() string
	CollapseExpandTooltip(collapsed bool) string
}

// Language identifies a DefaultText catalog.
type Language string

// Supported languages.
const (
	LanguageEnglish    Language = "en"
	LanguageRussian    Language = "ru"
	LanguageVietnamese Language = "vi"
)

type textCatalog struct {
	all           string
	selectOptions string
	optionsFormat string
	filter        string
	noItemsFound  string
	noSelection   string
	expand        string
	collapse      string
}

var textCatalogs = map[Language]textCatalog{
	LanguageEnglish: {
		all:           "All",
		selectOptions: "Select options",
		optionsFormat: "%d options selected",
		filter:        "Filter",
		noItemsFound:  "No items found",
		noSelection:   "Nothing selected",
		expand:        "Expand",
		collapse:      "Collapse",
	},
	LanguageRussian: {
		all:           "Все",
		selectOptions: "Выберите опции",
		optionsFormat: "Выбрано опций: %d",
		filter:        "Фильтр",
		noItemsFound:  "Объекты не найдены",
		noSelection:   "Элемент не выбран",
		expand:        "Развернуть",
		collapse:      "Свернуть",
	},
	LanguageVietnamese: {
		all:           "Tất cả",
		selectOptions: "Chọn mục",
		optionsFormat: "%d mục đã được chọn",
		filter:        "Lọc",
		noItemsFound:  "Không có mục nào được tìm thấy",
		noSelection:   "Chưa chọn mục nào",
		expand:        "Mở rộng",
		collapse:      "Thu lại",
	},
}

// SupportedLanguages lists the languages DefaultText knows.
func SupportedLanguages() []Language {
	return []Language{LanguageEnglish, LanguageRussian, LanguageVietnamese}
}

// ParseLanguage normalizes a language code.
func ParseLanguage(raw string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(raw)))
	if lang == "" {
		return LanguageEnglish, nil
	}
	if _, ok := textCatalogs[lang]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, raw)
	}
	return lang, nil
}

// DefaultText is the built-in TextProvider.
type DefaultText struct {
	Language Language
}

func (d DefaultText) catalog() textCatalog {
	if c, ok := textCatalogs[d.Language]; ok {
		return c
	}
	return textCatalogs[LanguageEnglish]
}

// Text summarizes a selection: "All" when nothing is unchecked, the single
// label when exactly one leaf is checked, otherwise a count.
func (d DefaultText) Text(sel domain.Selection) string {
	c := d.catalog()
	if len(sel.Unchecked) == 0 {
		return c.all
	}
	switch len(sel.Checked) {
	case 0:
		return c.selectOptions
	case 1:
		return sel.Checked[0].Label
	default:
		return fmt.Sprintf(c.optionsFormat, len(sel.Checked))
	}
}

// AllCheckboxText implements TextProvider.
func (d DefaultText) AllCheckboxText() string {
	return d.catalog().all
}

// FilterPlaceholder implements TextProvider.
func (d DefaultText) FilterPlaceholder() string {
	return d.catalog().filter
}

// NoItemsFoundText implements TextProvider.
func (d DefaultText) NoItemsFoundText() string {
	return d.catalog().noItemsFound
}

// NoSelectionText is shown in place of a selected label when none exists.
func (d DefaultText) NoSelectionText() string {
	return d.catalog().noSelection
}

// CollapseExpandTooltip returns the action offered for the current state.
func (d DefaultText) CollapseExpandTooltip(collapsed bool) string {
	if collapsed {
		return d.catalog().expand
	}
	return d.catalog().collapse
}
