package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/dutycal/internal/view"
)

const (
	cellHeight   = 5
	minCellWidth = 7
	maxCellWidth = 14
	detailWidth  = 38
	detailGap    = 2
	// Rows above the first grid row inside the frame: header, blank, weekdays.
	gridTopOffset = 3
	fallbackWidth = 110
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#F47A60")).
			Padding(0, 1)
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true)
	buttonStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	feedbackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D4CDE9"))
	incomeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5CCB76"))
	expenseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F15B5B"))
	sundayStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F15B5B")).Bold(true)
	saturdayStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6CBFE6")).Bold(true)
	weekdayStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	selectedBG    = lipgloss.Color("#3B3355")
)

// shiftColors cycles per label index so each duty reads at a glance.
var shiftColors = []lipgloss.Color{"#A78BFA", "#9CA3AF", "#5CCB76", "#FFD54A", "#F47A60", "#6CBFE6"}

type hitRect struct {
	x int
	y int
	w int
	h int
}

func (r hitRect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// screenLayout is shared by View and mouse hit-testing so clicks land on
// the cell that was painted there.
type screenLayout struct {
	originX   int
	originY   int
	cellWidth int
	prevRect  hitRect
	nextRect  hitRect
}

func (m model) layout() screenLayout {
	width := m.width
	if width <= 0 {
		width = fallbackWidth
	}
	inner := width - frameStyle.GetHorizontalFrameSize()
	cellWidth := (inner - detailWidth - detailGap) / 7
	cellWidth = max(minCellWidth, min(maxCellWidth, cellWidth))

	originX := frameStyle.GetBorderLeftSize() + frameStyle.GetPaddingLeft()
	originY := frameStyle.GetBorderTopSize() + frameStyle.GetPaddingTop()

	prevW := lipgloss.Width(prevButtonLabel)
	titleW := lipgloss.Width(m.ctrl.Month().Title())
	return screenLayout{
		originX:   originX,
		originY:   originY,
		cellWidth: cellWidth,
		prevRect:  hitRect{x: originX, y: originY, w: prevW, h: 1},
		nextRect:  hitRect{x: originX + prevW + 1 + titleW + 1, y: originY, w: lipgloss.Width(nextButtonLabel), h: 1},
	}
}

func (l screenLayout) cellRects(n int) []hitRect {
	rects := make([]hitRect, n)
	top := l.originY + gridTopOffset
	for i := range rects {
		rects[i] = hitRect{
			x: l.originX + (i%7)*l.cellWidth,
			y: top + (i/7)*cellHeight,
			w: l.cellWidth,
			h: cellHeight,
		}
	}
	return rects
}

const (
	prevButtonLabel = "[<]"
	nextButtonLabel = "[>]"
)

func (m model) renderHeader(title string) string {
	prev := buttonStyle.Render(prevButtonLabel)
	next := buttonStyle.Render(nextButtonLabel)
	if m.clicked == 0 {
		prev = buttonStyle.Underline(true).Render(prevButtonLabel)
	}
	if m.clicked == 1 {
		next = buttonStyle.Underline(true).Render(nextButtonLabel)
	}
	return prev + " " + titleStyle.Render(title) + " " + next + "   " + m.renderLegend()
}

func (m model) renderLegend() string {
	labels := m.ctrl.Cycle().Labels()
	parts := make([]string, 0, len(labels))
	for i, label := range labels {
		parts = append(parts, shiftStyle(i).Render(label))
	}
	return dimStyle.Render("rota: ") + strings.Join(parts, dimStyle.Render(" > "))
}

func shiftStyle(index int) lipgloss.Style {
	if index < 0 {
		return dimStyle
	}
	return lipgloss.NewStyle().Foreground(shiftColors[index%len(shiftColors)])
}

func (m model) renderGrid(cells []view.Cell, lay screenLayout) string {
	cw := lay.cellWidth
	names := make([]string, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		style := weekdayStyle
		switch d {
		case time.Sunday:
			style = sundayStyle
		case time.Saturday:
			style = saturdayStyle
		}
		names = append(names, style.Width(cw).Render(d.String()[:3]))
	}
	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, names...)}

	cycle := m.ctrl.Cycle()
	labelIndex := make(map[string]int, cycle.Len())
	for i, label := range cycle.Labels() {
		labelIndex[label] = i
	}

	for start := 0; start < len(cells); start += 7 {
		end := min(start+7, len(cells))
		rendered := make([]string, 0, 7)
		for _, cell := range cells[start:end] {
			rendered = append(rendered, renderCell(cell, cw, labelIndex))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}
	return strings.Join(rows, "\n")
}

func renderCell(cell view.Cell, width int, labelIndex map[string]int) string {
	box := lipgloss.NewStyle().Width(width).Height(cellHeight)
	if cell.Blank {
		return box.Render("")
	}
	if cell.Selected {
		box = box.Background(selectedBG)
	}
	text := width - 1

	dayStyle := weekdayStyle.UnsetBold()
	switch cell.Weekday {
	case time.Sunday:
		dayStyle = sundayStyle
	case time.Saturday:
		dayStyle = saturdayStyle
	}
	if cell.Today {
		dayStyle = dayStyle.Underline(true).Bold(true)
	}
	dayText := fmt.Sprintf("%2d", cell.Day)
	idx, ok := labelIndex[cell.Shift]
	if !ok {
		idx = -1
	}
	lines := []string{
		dayStyle.Render(dayText) + " " + shiftStyle(idx).Render(truncate(cell.Shift, text-len(dayText)-1)),
		incomeStyle.Render(truncate(cell.IncomeText, text)),
		expenseStyle.Render(truncate(cell.ExpenseText, text)),
	}
	switch n := len(cell.Schedules); {
	case n == 0:
	case n <= 2:
		for _, s := range cell.Schedules {
			lines = append(lines, feedbackStyle.Render(truncate("• "+s, text)))
		}
	default:
		lines = append(lines,
			feedbackStyle.Render(truncate("• "+cell.Schedules[0], text)),
			dimStyle.Render(truncate(fmt.Sprintf("+%d more", n-1), text)),
		)
	}
	return box.Render(strings.Join(lines, "\n"))
}

// truncate cuts s to at most width terminal columns, marking the cut.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := lipgloss.Width(string(r))
		if used+w > width-1 {
			break
		}
		b.WriteRune(r)
		used += w
	}
	return b.String() + "…"
}
