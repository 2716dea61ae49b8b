package tui

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/dutycal/internal/app"
	"github.com/lachiem1/dutycal/internal/daybook"
)

type clearCommandTextMsg struct {
	id int
}

type clearButtonFlashMsg struct {
	id int
}

type focusArea int

const (
	focusGrid focusArea = iota
	focusDetail
)

type dialogMode int

const (
	dialogNone dialogMode = iota
	dialogTransaction
	dialogSchedule
	dialogConfirm
	dialogHelp
	dialogInfo
)

const (
	txFieldType = iota
	txFieldItem
	txFieldAmount
	txFieldCount
)

// Info is read-only context shown in the info overlay.
type Info struct {
	StorageMode string
	StoragePath string
	ConfigPath  string
}

type model struct {
	ctrl   *app.Controller
	info   Info
	logger *slog.Logger

	width  int
	height int

	focus        focusArea
	detailCursor int

	dialog        dialogMode
	formKind      daybook.Kind
	formFocus     int
	formErr       string
	itemInput     textinput.Model
	amountInput   textinput.Model
	scheduleInput textinput.Model
	confirmPrompt string

	commandText   string
	commandTextID int
	clicked       int
	clickedID     int

	quitting bool
}

// New wraps ctrl in a bubbletea model. Run it with tea.WithMouseCellMotion
// so day cells can be clicked.
func New(ctrl *app.Controller, info Info, logger *slog.Logger) tea.Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	item := textinput.New()
	item.Prompt = "item: "
	item.Placeholder = "lunch"
	item.CharLimit = 80
	item.Width = 32

	amount := textinput.New()
	amount.Prompt = "amount: "
	amount.Placeholder = "20000"
	amount.CharLimit = 18
	amount.Width = 20

	schedule := textinput.New()
	schedule.Prompt = "> "
	schedule.Placeholder = "dentist 3pm"
	schedule.CharLimit = 120
	schedule.Width = 40

	return model{
		ctrl:          ctrl,
		info:          info,
		logger:        logger,
		itemInput:     item,
		amountInput:   amount,
		scheduleInput: schedule,
		formKind:      daybook.Expense,
		clicked:       -1,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case clearCommandTextMsg:
		if msg.id == m.commandTextID {
			m.commandText = ""
		}
		return m, nil

	case clearButtonFlashMsg:
		if msg.id == m.clickedID {
			m.clicked = -1
		}
		return m, nil

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		return m.handleClick(msg.X, msg.Y)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.dialog {
		case dialogTransaction:
			return m.updateTransactionDialog(msg)
		case dialogSchedule:
			return m.updateScheduleDialog(msg)
		case dialogConfirm:
			return m.updateConfirmDialog(msg)
		case dialogHelp, dialogInfo:
			switch msg.String() {
			case "esc", "enter", "?", "i":
				m.dialog = dialogNone
			case "q":
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}
		return m.updateMain(msg)
	}
	return m, nil
}

func (m model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.dialog = dialogHelp
		return m, nil
	case "i":
		m.dialog = dialogInfo
		return m, nil
	case "[", "shift+left", "pgup":
		m.ctrl.NavigateMonth(-1)
		return m, nil
	case "]", "shift+right", "pgdown":
		m.ctrl.NavigateMonth(1)
		return m, nil
	case "t":
		m.ctrl.GoToToday()
		m.detailCursor = 0
		return m, nil
	case "tab":
		if m.focus == focusGrid {
			m.focus = focusDetail
		} else {
			m.focus = focusGrid
		}
		m.clampDetailCursor()
		return m, nil
	case "a":
		return m.openTransactionDialog()
	case "s":
		return m.openScheduleDialog()
	}

	if m.focus == focusDetail {
		switch msg.String() {
		case "esc":
			m.focus = focusGrid
		case "up", "k":
			m.detailCursor--
			m.clampDetailCursor()
		case "down", "j":
			m.detailCursor++
			m.clampDetailCursor()
		case "d", "x", "delete", "backspace":
			return m.requestDeleteAtCursor()
		}
		return m, nil
	}

	switch msg.String() {
	case "left", "h":
		m.moveSelection(-1)
	case "right", "l":
		m.moveSelection(1)
	case "up", "k":
		m.moveSelection(-7)
	case "down", "j":
		m.moveSelection(7)
	case "enter":
		if _, ok := m.ctrl.Selected(); ok {
			m.focus = focusDetail
			m.clampDetailCursor()
		}
	}
	return m, nil
}

func (m *model) moveSelection(days int) {
	m.ctrl.MoveSelection(days)
	m.detailCursor = 0
}

func (m model) openTransactionDialog() (tea.Model, tea.Cmd) {
	if _, ok := m.ctrl.Selected(); !ok {
		return m.withCommandFeedback("select a date first")
	}
	m.dialog = dialogTransaction
	m.formKind = daybook.Expense
	m.formFocus = txFieldItem
	m.formErr = ""
	m.itemInput.SetValue("")
	m.amountInput.SetValue("")
	m.focusTransactionField()
	return m, textinput.Blink
}

func (m model) openScheduleDialog() (tea.Model, tea.Cmd) {
	if _, ok := m.ctrl.Selected(); !ok {
		return m.withCommandFeedback("select a date first")
	}
	m.dialog = dialogSchedule
	m.formErr = ""
	m.scheduleInput.SetValue("")
	m.scheduleInput.Focus()
	return m, textinput.Blink
}

func (m *model) focusTransactionField() {
	m.itemInput.Blur()
	m.amountInput.Blur()
	switch m.formFocus {
	case txFieldItem:
		m.itemInput.Focus()
	case txFieldAmount:
		m.amountInput.Focus()
	}
}

func (m *model) closeDialog() {
	m.dialog = dialogNone
	m.formErr = ""
	m.itemInput.Blur()
	m.amountInput.Blur()
	m.scheduleInput.Blur()
}

func (m model) updateTransactionDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeDialog()
		return m, nil
	case "tab", "down":
		m.formFocus = (m.formFocus + 1) % txFieldCount
		m.focusTransactionField()
		return m, nil
	case "shift+tab", "up":
		m.formFocus = (m.formFocus - 1 + txFieldCount) % txFieldCount
		m.focusTransactionField()
		return m, nil
	case "enter":
		return m.submitTransaction()
	}

	if m.formFocus == txFieldType {
		switch msg.String() {
		case "left", "right", " ", "h", "l":
			if m.formKind == daybook.Income {
				m.formKind = daybook.Expense
			} else {
				m.formKind = daybook.Income
			}
		case "+", "i":
			m.formKind = daybook.Income
		case "-", "e":
			m.formKind = daybook.Expense
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.formFocus == txFieldItem {
		m.itemInput, cmd = m.itemInput.Update(msg)
	} else {
		m.amountInput, cmd = m.amountInput.Update(msg)
	}
	m.formErr = ""
	return m, cmd
}

func (m model) submitTransaction() (tea.Model, tea.Cmd) {
	err := m.ctrl.AddTransaction(app.TransactionForm{
		Kind:   m.formKind,
		Item:   m.itemInput.Value(),
		Amount: m.amountInput.Value(),
	})
	var verr *app.ValidationError
	if errors.As(err, &verr) {
		m.formErr = firstFieldError(verr, "item", "amount", "type")
		return m, nil
	}
	m.closeDialog()
	m.clampDetailCursor()
	if err != nil {
		return m.withCommandFeedback("save failed: " + err.Error())
	}
	return m.withCommandFeedback("transaction added")
}

func (m model) updateScheduleDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeDialog()
		return m, nil
	case "enter":
		err := m.ctrl.AddSchedule(app.ScheduleForm{Text: m.scheduleInput.Value()})
		var verr *app.ValidationError
		if errors.As(err, &verr) {
			m.formErr = firstFieldError(verr, "text")
			return m, nil
		}
		m.closeDialog()
		m.clampDetailCursor()
		if err != nil {
			return m.withCommandFeedback("save failed: " + err.Error())
		}
		return m.withCommandFeedback("schedule added")
	}

	var cmd tea.Cmd
	m.scheduleInput, cmd = m.scheduleInput.Update(msg)
	m.formErr = ""
	return m, cmd
}

func (m model) requestDeleteAtCursor() (tea.Model, tea.Cmd) {
	target, index, ok := m.detailTarget(m.detailCursor)
	if !ok {
		return m, nil
	}
	var (
		conf app.Confirmation
		err  error
	)
	if target == app.TargetSchedule {
		conf, err = m.ctrl.RequestDeleteSchedule(index)
	} else {
		conf, err = m.ctrl.RequestDeleteTransaction(index)
	}
	if err != nil {
		return m.withCommandFeedback(err.Error())
	}
	m.dialog = dialogConfirm
	m.confirmPrompt = conf.Prompt
	return m, nil
}

func (m model) updateConfirmDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		return m.confirmDelete()
	case "n", "N", "esc":
		m.ctrl.Decline()
		m.dialog = dialogNone
		return m, nil
	}
	return m, nil
}

func (m model) confirmDelete() (tea.Model, tea.Cmd) {
	err := m.ctrl.Confirm()
	m.dialog = dialogNone
	m.confirmPrompt = ""
	m.clampDetailCursor()
	if err != nil {
		return m.withCommandFeedback("delete failed: " + err.Error())
	}
	return m.withCommandFeedback("deleted")
}

func (m model) handleClick(x, y int) (tea.Model, tea.Cmd) {
	switch m.dialog {
	case dialogTransaction, dialogSchedule:
		if !m.dialogRect().contains(x, y) {
			m.closeDialog()
		}
		return m, nil
	case dialogConfirm:
		if !m.dialogRect().contains(x, y) {
			m.ctrl.Decline()
			m.dialog = dialogNone
		}
		return m, nil
	case dialogHelp, dialogInfo:
		m.dialog = dialogNone
		return m, nil
	}

	lay := m.layout()
	switch {
	case lay.prevRect.contains(x, y):
		m.ctrl.NavigateMonth(-1)
		return m.flashButton(0)
	case lay.nextRect.contains(x, y):
		m.ctrl.NavigateMonth(1)
		return m.flashButton(1)
	}

	snap := m.ctrl.Snapshot()
	for i, rect := range lay.cellRects(len(snap.Grid)) {
		if rect.contains(x, y) && !snap.Grid[i].Blank {
			m.ctrl.SelectDate(snap.Grid[i].Key)
			m.focus = focusGrid
			m.detailCursor = 0
			return m, nil
		}
	}
	return m, nil
}

func (m model) flashButton(id int) (tea.Model, tea.Cmd) {
	m.clicked = id
	m.clickedID++
	return m, clearButtonFlashCmd(m.clickedID)
}

// detailTarget maps a cursor position over the combined detail rows
// (transactions first, then schedules) to a delete target.
func (m model) detailTarget(cursor int) (app.Target, int, bool) {
	snap := m.ctrl.Snapshot()
	if snap.Detail == nil || cursor < 0 {
		return 0, 0, false
	}
	var txCount, schedCount int
	if snap.Detail.HasTransactions() {
		txCount = len(snap.Detail.Transactions)
	}
	if snap.Detail.HasSchedules() {
		schedCount = len(snap.Detail.Schedules)
	}
	switch {
	case cursor < txCount:
		return app.TargetTransaction, snap.Detail.Transactions[cursor].Index, true
	case cursor < txCount+schedCount:
		return app.TargetSchedule, snap.Detail.Schedules[cursor-txCount].Index, true
	default:
		return 0, 0, false
	}
}

func (m model) detailRowCount() int {
	snap := m.ctrl.Snapshot()
	if snap.Detail == nil {
		return 0
	}
	n := 0
	if snap.Detail.HasTransactions() {
		n += len(snap.Detail.Transactions)
	}
	if snap.Detail.HasSchedules() {
		n += len(snap.Detail.Schedules)
	}
	return n
}

func (m *model) clampDetailCursor() {
	n := m.detailRowCount()
	if m.detailCursor >= n {
		m.detailCursor = n - 1
	}
	if m.detailCursor < 0 {
		m.detailCursor = 0
	}
}

func (m model) withCommandFeedback(text string) (tea.Model, tea.Cmd) {
	m.commandText = text
	m.commandTextID++
	id := m.commandTextID
	m.logger.Debug("feedback", slog.String("text", text))
	return m, tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return clearCommandTextMsg{id: id}
	})
}

func clearButtonFlashCmd(id int) tea.Cmd {
	return tea.Tick(450*time.Millisecond, func(time.Time) tea.Msg {
		return clearButtonFlashMsg{id: id}
	})
}

func firstFieldError(verr *app.ValidationError, order ...string) string {
	for _, name := range order {
		if msg := verr.Field(name); msg != "" {
			return msg
		}
	}
	return verr.Error()
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	lay := m.layout()
	snap := m.ctrl.Snapshot()

	header := m.renderHeader(snap.Title)
	grid := m.renderGrid(snap.Grid, lay)
	detail := m.renderDetail(snap.Detail)
	body := lipgloss.JoinHorizontal(lipgloss.Top, grid, strings.Repeat(" ", detailGap), detail)

	lines := []string{header, "", body}
	if strings.TrimSpace(m.commandText) != "" {
		lines = append(lines, "", feedbackStyle.Render(m.commandText))
	}
	lines = append(lines, "", hintStyle.Render(m.footerHint()))
	content := strings.Join(lines, "\n")

	frame := frameStyle
	if m.width > 0 {
		frame = frame.Width(max(1, m.width-frame.GetHorizontalBorderSize()))
	}
	if m.height > 0 {
		frame = frame.Height(max(1, m.height-frame.GetVerticalBorderSize()))
	}

	if overlay := m.renderDialog(); overlay != "" && m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
	}
	return frame.Render(content)
}

func (m model) footerHint() string {
	if m.focus == focusDetail {
		return "up/down row  d delete  a add transaction  s add schedule  tab/esc calendar  ? help"
	}
	return "arrows day  [ ] month  t today  a add transaction  s add schedule  tab details  ? help  q quit"
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
