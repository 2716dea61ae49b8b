package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/dutycal/internal/daybook"
)

var (
	dialogPanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6CBFE6")).
			Padding(1, 2)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F15B5B"))
)

func (m model) renderDialog() string {
	maxWidth := m.width
	if maxWidth <= 0 {
		maxWidth = fallbackWidth
	}
	switch m.dialog {
	case dialogTransaction:
		return m.renderTransactionDialog(maxWidth)
	case dialogSchedule:
		return m.renderScheduleDialog(maxWidth)
	case dialogConfirm:
		return m.renderConfirmDialog(maxWidth)
	case dialogHelp:
		return renderHelpOverlay(maxWidth)
	case dialogInfo:
		return m.renderInfoOverlay(maxWidth)
	default:
		return ""
	}
}

// dialogRect is where renderDialog lands once lipgloss.Place centers it.
func (m model) dialogRect() hitRect {
	overlay := m.renderDialog()
	if overlay == "" {
		return hitRect{}
	}
	w := lipgloss.Width(overlay)
	h := lipgloss.Height(overlay)
	return hitRect{x: max(0, (m.width-w)/2), y: max(0, (m.height-h)/2), w: w, h: h}
}

func (m model) dialogTitle(prefix string) string {
	title := prefix
	if detail := m.ctrl.Snapshot().Detail; detail != nil {
		title += " · " + detail.Title
	}
	return titleStyle.Render(title)
}

func (m model) renderTransactionDialog(maxWidth int) string {
	panelWidth := max(44, min(maxWidth-6, 60))
	labels := m.ctrl.Labels()

	option := func(kind daybook.Kind, label string) string {
		style := dimStyle
		if m.formKind == kind {
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Underline(true)
			if kind == daybook.Income {
				style = style.Foreground(lipgloss.Color("#5CCB76"))
			} else {
				style = style.Foreground(lipgloss.Color("#F15B5B"))
			}
		}
		return style.Render(label)
	}
	typeLine := option(daybook.Expense, labels.Expense) + "  " + option(daybook.Income, labels.Income)
	typeBorder := lipgloss.Color("#FFFFFF")
	if m.formFocus == txFieldType {
		typeBorder = lipgloss.Color("#FFD54A")
	}
	typeField := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(typeBorder).
		Padding(0, 1).
		Render(typeLine)

	item := m.itemInput
	item.Width = max(12, panelWidth-14)
	amount := m.amountInput
	amount.Width = max(12, panelWidth-16)

	lines := []string{
		m.dialogTitle("Add transaction"),
		"",
		typeField,
		"",
		item.View(),
		amount.View(),
	}
	if m.formErr != "" {
		lines = append(lines, "", errorStyle.Render(m.formErr))
	}
	lines = append(lines, "", hintStyle.Render("tab next field  left/right type  enter save  esc cancel"))
	return dialogPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

func (m model) renderScheduleDialog(maxWidth int) string {
	panelWidth := max(44, min(maxWidth-6, 60))
	input := m.scheduleInput
	input.Width = max(12, panelWidth-10)

	lines := []string{
		m.dialogTitle("Add schedule"),
		"",
		input.View(),
	}
	if m.formErr != "" {
		lines = append(lines, "", errorStyle.Render(m.formErr))
	}
	lines = append(lines, "", hintStyle.Render("enter save  esc cancel"))
	return dialogPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

func (m model) renderConfirmDialog(maxWidth int) string {
	panelWidth := max(40, min(maxWidth-6, 56))
	content := strings.Join([]string{
		titleStyle.Render("Confirm delete"),
		"",
		m.confirmPrompt,
		"",
		hintStyle.Render("y/enter delete  n/esc keep"),
	}, "\n")
	return dialogPanel.BorderForeground(lipgloss.Color("#F15B5B")).Width(panelWidth).Render(content)
}
