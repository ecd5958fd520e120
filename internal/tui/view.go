package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evanschultz/treeview/internal/domain"
	json "github.com/goccy/go-json"
)

// chromeLines counts the fixed lines around the rows: title, status, help
// and the optional filter, All and divider lines.
const chromeLines = 3

var (
	accent = lipgloss.Color("62")
	muted  = lipgloss.Color("241")
	dim    = lipgloss.Color("239")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	headerStyle   = lipgloss.NewStyle().Foreground(accent)
	statusStyle   = lipgloss.NewStyle().Foreground(dim)
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	selectedStyle = lipgloss.NewStyle().Underline(true)
	disabledStyle = lipgloss.NewStyle().Foreground(muted).Faint(true)
	dividerStyle  = lipgloss.NewStyle().Foreground(dim)
)

// View renders the tree.
func (m Model) View() tea.View {
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}
	if m.showHelp {
		body := m.helpPanel.render(helpMarkdown(m.title+" keys", m.keys.helpSections()), m.contentWidth())
		v := tea.NewView(body + "\n\n" + statusStyle.Render("press ? or esc to close"))
		v.AltScreen = true
		return v
	}

	cfg := m.ctl.Config()
	text := m.ctl.Text()
	width := m.contentWidth()
	clip := lipgloss.NewStyle().MaxWidth(width)

	lines := []string{titleStyle.Render(m.title) + "  " + headerStyle.Render(m.ctl.HeaderText())}
	if cfg.HasFilter {
		if m.mode == modeFilter || m.ctl.FilterText() != "" {
			lines = append(lines, m.filterInput.View())
		} else {
			lines = append(lines, statusStyle.Render("/ "+text.FilterPlaceholder()))
		}
	}
	if cfg.HasCheckbox && cfg.HasAllCheckBox {
		all := m.ctl.All()
		line := checkbox(all.Checked()) + " " + all.Label
		if cfg.HasCollapseExpand {
			glyph := "▾"
			if all.Collapsed() {
				glyph = "▸"
			}
			line += "   " + statusStyle.Render(glyph+" "+text.CollapseExpandTooltip(all.Collapsed()))
		}
		lines = append(lines, line)
	}
	if cfg.HasDivider() {
		lines = append(lines, dividerStyle.Render(strings.Repeat("─", max(1, width))))
	}

	rows := m.rows()
	if len(rows) == 0 {
		empty := text.NoItemsFoundText()
		if m.ctl.FilterText() == "" && len(m.ctl.Items()) == 0 {
			empty = "no items yet, press " + m.keys.addRoot.Help().Key + " to add one"
		}
		lines = append(lines, statusStyle.Render(empty))
	}
	start, end := windowBounds(len(rows), m.activeRowIndex(rows), m.rowBudget(len(lines)))
	for _, r := range rows[start:end] {
		lines = append(lines, clip.Render(m.renderRow(r, cfg.HasCheckbox)))
	}
	if end-start < len(rows) {
		lines = append(lines, statusStyle.Render(fmt.Sprintf("%d-%d of %d", start+1, end, len(rows))))
	}

	lines = append(lines, "", statusStyle.Render(m.status))
	helpBubble := m.help
	helpBubble.ShowAll = false
	lines = append(lines, helpBubble.View(m.keys))

	v := tea.NewView(strings.Join(lines, "\n"))
	v.AltScreen = true
	return v
}

func (m Model) renderRow(r row, hasCheckbox bool) string {
	node := r.node
	source := sourceOf(node)
	active := source == m.ctl.Navigation().Active()

	var b strings.Builder
	if active {
		b.WriteString("› ")
	} else {
		b.WriteString("  ")
	}
	b.WriteString(strings.Repeat("  ", r.depth))
	b.WriteString(expander(node))
	b.WriteString(" ")
	if hasCheckbox {
		b.WriteString(checkbox(node.Checked()))
		b.WriteString(" ")
	}
	if m.mode == modeEdit && source == m.ctl.Editing().Current() {
		b.WriteString(m.editInput.View())
		return b.String()
	}

	label := node.Label
	switch {
	case node.Disabled():
		label = disabledStyle.Render(label)
	case active:
		label = activeStyle.Render(label)
	case source.Selected():
		label = selectedStyle.Render(label)
	}
	b.WriteString(label)
	return b.String()
}

func (m Model) activeRowIndex(rows []row) int {
	active := m.ctl.Navigation().Active()
	for idx, r := range rows {
		if sourceOf(r.node) == active {
			return idx
		}
	}
	return 0
}

// rowBudget is the number of tree rows that fit, capped by the tree's
// configured maximum height.
func (m Model) rowBudget(used int) int {
	budget := m.height - used - chromeLines
	if limit := m.ctl.Config().MaxHeight; limit > 0 {
		budget = min(budget, limit)
	}
	return max(1, budget)
}

// contentWidth is the terminal width capped by the tree's maximum width.
func (m Model) contentWidth() int {
	width := m.width
	if limit := m.ctl.Config().MaxWidth; limit > 0 && (width == 0 || width > limit) {
		width = limit
	}
	return max(1, width)
}

func checkbox(state domain.CheckState) string {
	switch state {
	case domain.Checked:
		return "[x]"
	case domain.Indeterminate:
		return "[-]"
	default:
		return "[ ]"
	}
}

func expander(node *domain.Node) string {
	switch {
	case node.IsLeaf():
		return " "
	case node.Collapsed():
		return "▸"
	default:
		return "▾"
	}
}

// windowBounds returns an inclusive-exclusive window that keeps selected visible.
func windowBounds(total, selected, windowSize int) (int, int) {
	if total <= 0 || windowSize <= 0 {
		return 0, 0
	}
	if total <= windowSize {
		return 0, total
	}
	selected = min(max(selected, 0), total-1)
	start := max(0, selected-windowSize/2)
	end := start + windowSize
	if end > total {
		end = total
		start = max(0, end-windowSize)
	}
	return start, end
}

func encodeJSON(v any) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode selection: %w", err)
	}
	return string(out), nil
}
