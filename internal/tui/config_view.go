package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func renderConfigTitle() string {
	raw := []string{
		"█▀▀ █▀█ █▄ █ █▀▀ █ █▀▀",
		"█▄▄ █▄█ █ ▀█ █▀  █ █▄█",
		"▀▀▀ ▀▀▀ ▀  ▀ ▀   ▀ ▀▀▀",
	}
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#87CEEB")).
		Bold(true)
	rows := make([]string, 0, len(raw))
	for _, line := range raw {
		rows = append(rows, style.Render(line))
	}
	return strings.Join(rows, "\n")
}

// renderInfoOverlay shows the active rota and where data lives. All values
// are read-only here; they come from the config file and environment.
func (m model) renderInfoOverlay(maxWidth int) string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#D4CDE9"))

	cycle := m.ctrl.Cycle()
	rota := make([]string, 0, cycle.Len())
	for i, label := range cycle.Labels() {
		rota = append(rota, shiftStyle(i).Render(fmt.Sprintf("%d. %s", i+1, label)))
	}

	field := func(label, value string) string {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		return labelStyle.Render(fmt.Sprintf("%-14s", label)) + valueStyle.Render(value)
	}

	labels := m.ctrl.Labels()
	content := strings.Join([]string{
		renderConfigTitle(),
		"",
		field("base date", cycle.Base().Format("2006-01-02")),
		field("rota", ""),
		"  " + strings.Join(rota, "  "),
		"",
		field("storage mode", m.info.StorageMode),
		field("database", m.info.StoragePath),
		field("config file", m.info.ConfigPath),
		field("currency", strings.TrimSpace(labels.CurrencySuffix)),
		"",
		lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true).Render("Esc to close"),
	}, "\n")

	panelWidth := max(44, min(maxWidth-6, 72))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(1, 2).
		Width(panelWidth).
		Render(content)
}

type keySpec struct {
	keys        string
	description string
}

func keyCatalog() []keySpec {
	return []keySpec{
		{keys: "arrows / hjkl", description: "move the selected day"},
		{keys: "[ ]", description: "previous / next month"},
		{keys: "t", description: "jump to today"},
		{keys: "click", description: "select a day, or [<] [>] to change month"},
		{keys: "tab", description: "switch between calendar and details"},
		{keys: "a", description: "add a transaction to the selected day"},
		{keys: "s", description: "add a schedule to the selected day"},
		{keys: "d", description: "delete the highlighted detail row"},
		{keys: "i", description: "show rota and storage info"},
		{keys: "q", description: "quit"},
	}
}

func renderHelpOverlay(maxWidth int) string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5FA8FF")).
		Bold(true).
		Render("Key Help")

	catalog := keyCatalog()
	rows := make([]string, 0, len(catalog))
	for _, k := range catalog {
		rows = append(rows, fmt.Sprintf("%-14s %s", k.keys, k.description))
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFD54A")).
		Bold(true).
		Render("Esc to close")

	content := strings.Join([]string{title, "", strings.Join(rows, "\n"), "", footer}, "\n")
	panelWidth := min(maxWidth-6, 64)
	panelWidth = max(36, panelWidth)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(1, 2).
		Width(panelWidth).
		Render(content)
}
