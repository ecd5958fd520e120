package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	"github.com/charmbracelet/glamour"
)

// helpPanel renders the full key reference as markdown. The glamour
// renderer is rebuilt only when the wrap width changes.
type helpPanel struct {
	width    int
	renderer *glamour.TermRenderer
}

func (p *helpPanel) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}
	wrapWidth := max(width, 24)
	if p.renderer == nil || p.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		p.renderer = renderer
		p.width = wrapWidth
	}
	rendered, err := p.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// helpSection groups bindings under a markdown heading.
type helpSection struct {
	title    string
	bindings []key.Binding
}

// helpMarkdown lists the enabled bindings as one table per section.
func helpMarkdown(title string, sections []helpSection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)
	for _, section := range sections {
		rows := 0
		for _, binding := range section.bindings {
			if binding.Enabled() {
				rows++
			}
		}
		if rows == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n| key | action |\n| --- | --- |\n", section.title)
		for _, binding := range section.bindings {
			if !binding.Enabled() {
				continue
			}
			h := binding.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
	}
	return b.String()
}

func (k keyMap) helpSections() []helpSection {
	groups := k.FullHelp()
	titles := []string{"Navigation", "Checkboxes", "Editing", "General"}
	out := make([]helpSection, 0, len(groups))
	for idx, group := range groups {
		out = append(out, helpSection{title: titles[idx], bindings: group})
	}
	return out
}
