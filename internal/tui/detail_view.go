package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/dutycal/internal/daybook"
	"github.com/lachiem1/dutycal/internal/view"
)

func (m model) renderDetail(detail *view.Detail) string {
	border := lipgloss.Color("#6CBFE6")
	if m.focus == focusDetail {
		border = lipgloss.Color("#FFD54A")
	}
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(detailWidth - 2).
		Height(cellHeight*5 + 1)

	if detail == nil {
		return panel.Render(dimStyle.Render("No date selected."))
	}

	inner := detailWidth - 4
	lines := []string{titleStyle.Render(detail.Title) + "  " + m.renderSelectedShift(detail.Key)}

	cursor := -1
	if m.focus == focusDetail {
		cursor = m.detailCursor
	}
	row := 0

	lines = append(lines, "", weekdayStyle.Render("Transactions"))
	for _, tx := range detail.Transactions {
		if tx.Placeholder {
			lines = append(lines, dimStyle.Render("  "+tx.Message))
			continue
		}
		amount := incomeStyle.Render(tx.AmountText)
		if tx.Kind == daybook.Expense {
			amount = expenseStyle.Render(tx.AmountText)
		}
		label := truncate(tx.TypeLabel+"  "+tx.Item, inner-lipgloss.Width(tx.AmountText)-3)
		gap := max(1, inner-2-lipgloss.Width(label)-lipgloss.Width(tx.AmountText))
		lines = append(lines, cursorMark(row == cursor)+label+strings.Repeat(" ", gap)+amount)
		row++
	}

	lines = append(lines, "", weekdayStyle.Render("Schedules"))
	for _, s := range detail.Schedules {
		if s.Placeholder {
			lines = append(lines, dimStyle.Render("  "+s.Message))
			continue
		}
		lines = append(lines, cursorMark(row == cursor)+truncate(s.Text, inner-2))
		row++
	}

	if detail.Income != 0 || detail.Expense != 0 {
		lines = append(lines, "",
			dimStyle.Render("total ")+
				incomeStyle.Render("+"+view.Grouped(detail.Income))+" "+
				expenseStyle.Render("-"+view.Grouped(detail.Expense)))
	}
	return panel.Render(strings.Join(lines, "\n"))
}

func (m model) renderSelectedShift(key daybook.DateKey) string {
	t, err := key.Time()
	if err != nil {
		return ""
	}
	cycle := m.ctrl.Cycle()
	return shiftStyle(cycle.Index(t)).Render(cycle.LabelFor(t))
}

func cursorMark(active bool) string {
	if active {
		return buttonStyle.Render("> ")
	}
	return "  "
}
