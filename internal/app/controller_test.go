package app

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/lachiem1/dutycal/internal/daybook"
	"github.com/lachiem1/dutycal/internal/shift"
	"github.com/lachiem1/dutycal/internal/view"
)

type recordingPersister struct {
	saves int
	last  *daybook.Store
	err   error
}

func (p *recordingPersister) Save(ctx context.Context, store *daybook.Store) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("save called without deadline")
	}
	p.saves++
	p.last = store.Clone()
	return p.err
}

var fixedNow = time.Date(2025, time.July, 11, 15, 30, 0, 0, time.Local)

func newTestController(t *testing.T) (*Controller, *recordingPersister) {
	t.Helper()
	p := &recordingPersister{}
	c := New(daybook.New(), p, shift.Default(), WithClock(func() time.Time { return fixedNow }))
	return c, p
}

func TestNewStartsOnToday(t *testing.T) {
	c, _ := newTestController(t)
	key, ok := c.Selected()
	if !ok || key != "2025-07-11" {
		t.Fatalf("Selected() = (%q, %v), want (2025-07-11, true)", key, ok)
	}
	if c.Month() != (view.Month{Year: 2025, Month: time.July}) {
		t.Fatalf("Month() = %+v, want July 2025", c.Month())
	}
	snap := c.Snapshot()
	if snap.Title != "July 2025" {
		t.Fatalf("Snapshot().Title = %q, want %q", snap.Title, "July 2025")
	}
	var today *view.Cell
	for i := range snap.Grid {
		if snap.Grid[i].Today {
			today = &snap.Grid[i]
		}
	}
	if today == nil || today.Key != "2025-07-11" || !today.Selected {
		t.Fatalf("today cell = %+v, want 2025-07-11 selected", today)
	}
}

func TestSelectDateOutsideMonthIsLegal(t *testing.T) {
	c, _ := newTestController(t)
	c.SelectDate("2025-09-03")
	if key, _ := c.Selected(); key != "2025-09-03" {
		t.Fatalf("Selected() = %q, want %q", key, "2025-09-03")
	}
	snap := c.Snapshot()
	for _, cell := range snap.Grid {
		if cell.Selected {
			t.Fatalf("cell %s highlighted while selection is in another month", cell.Key)
		}
	}
	if snap.Detail == nil || snap.Detail.Key != "2025-09-03" {
		t.Fatalf("Snapshot().Detail = %+v, want detail for 2025-09-03", snap.Detail)
	}

	c.NavigateMonth(2)
	found := false
	for _, cell := range c.Snapshot().Grid {
		if cell.Selected && cell.Key == "2025-09-03" {
			found = true
		}
	}
	if !found {
		t.Fatal("selected cell not highlighted after navigating to its month")
	}
}

func TestNavigateMonthKeepsSelectionAndReproducesGrid(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.AddSchedule(ScheduleForm{Text: "dentist"}); err != nil {
		t.Fatalf("AddSchedule() error = %v", err)
	}
	before := c.Snapshot()

	c.NavigateMonth(1)
	if c.Month() != (view.Month{Year: 2025, Month: time.August}) {
		t.Fatalf("Month() = %+v, want August 2025", c.Month())
	}
	if key, _ := c.Selected(); key != "2025-07-11" {
		t.Fatalf("Selected() = %q after navigation, want 2025-07-11", key)
	}
	c.NavigateMonth(-1)

	after := c.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Fatal("Snapshot() differs after navigating forward and back")
	}
}

func TestAddIncomeAndExpenseShowsTotals(t *testing.T) {
	c, p := newTestController(t)
	if err := c.AddTransaction(TransactionForm{Kind: daybook.Income, Item: "pay", Amount: "50000"}); err != nil {
		t.Fatalf("AddTransaction(income) error = %v", err)
	}
	if err := c.AddTransaction(TransactionForm{Kind: daybook.Expense, Item: " team   lunch ", Amount: "20,000"}); err != nil {
		t.Fatalf("AddTransaction(expense) error = %v", err)
	}
	if p.saves != 2 {
		t.Fatalf("saves = %d, want 2", p.saves)
	}

	snap := c.Snapshot()
	var cell view.Cell
	for _, candidate := range snap.Grid {
		if candidate.Key == "2025-07-11" {
			cell = candidate
		}
	}
	if cell.IncomeText != "+50,000" || cell.ExpenseText != "-20,000" {
		t.Fatalf("cell totals = (%q, %q), want (+50,000, -20,000)", cell.IncomeText, cell.ExpenseText)
	}

	rows := snap.Detail.Transactions
	if len(rows) != 2 {
		t.Fatalf("detail rows = %d, want 2", len(rows))
	}
	if rows[0].TypeLabel != "income" || rows[1].TypeLabel != "expense" {
		t.Fatalf("type labels = (%q, %q), want (income, expense)", rows[0].TypeLabel, rows[1].TypeLabel)
	}
	if rows[1].Item != "team lunch" || rows[1].AmountText != "20,000 won" {
		t.Fatalf("row 1 = %+v, want normalized item and grouped amount", rows[1])
	}
	if !reflect.DeepEqual(p.last, c.Store()) {
		t.Fatal("persisted store differs from in-memory store")
	}
}

func TestAddTransactionDefaultsToExpense(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.AddTransaction(TransactionForm{Item: "bus", Amount: "1500"}); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	got := c.Store().TransactionsOn("2025-07-11")
	if len(got) != 1 || got[0].Type != daybook.Expense {
		t.Fatalf("TransactionsOn() = %+v, want one expense", got)
	}
}

func TestAddTransactionRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		form  TransactionForm
		field string
	}{
		{"negative amount", TransactionForm{Kind: daybook.Expense, Item: "lunch", Amount: "-5"}, "amount"},
		{"non-numeric amount", TransactionForm{Kind: daybook.Expense, Item: "lunch", Amount: "abc"}, "amount"},
		{"zero amount", TransactionForm{Kind: daybook.Income, Item: "pay", Amount: "0"}, "amount"},
		{"fractional amount", TransactionForm{Kind: daybook.Income, Item: "pay", Amount: "1.5"}, "amount"},
		{"leading plus sign", TransactionForm{Kind: daybook.Income, Item: "pay", Amount: "+5"}, "amount"},
		{"malformed grouping", TransactionForm{Kind: daybook.Income, Item: "pay", Amount: "5,0,0"}, "amount"},
		{"grouped zero", TransactionForm{Kind: daybook.Income, Item: "pay", Amount: "000,000"}, "amount"},
		{"above cap", TransactionForm{Kind: daybook.Income, Item: "pay", Amount: "1,000,000,000,000"}, "amount"},
		{"int64 max", TransactionForm{Kind: daybook.Income, Item: "pay", Amount: "9223372036854775807"}, "amount"},
		{"beyond int64", TransactionForm{Kind: daybook.Income, Item: "pay", Amount: "99999999999999999999"}, "amount"},
		{"empty amount", TransactionForm{Kind: daybook.Income, Item: "pay", Amount: " "}, "amount"},
		{"blank item", TransactionForm{Kind: daybook.Expense, Item: "   ", Amount: "100"}, "item"},
		{"unknown type", TransactionForm{Kind: "gift", Item: "pay", Amount: "100"}, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, p := newTestController(t)
			before := c.Store().Clone()

			err := c.AddTransaction(tt.form)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("AddTransaction() error = %v, want *ValidationError", err)
			}
			if verr.Field(tt.field) == "" {
				t.Fatalf("ValidationError fields = %v, want entry for %q", verr.Fields, tt.field)
			}
			if !reflect.DeepEqual(c.Store(), before) {
				t.Fatal("store changed after invalid input")
			}
			if p.saves != 0 {
				t.Fatalf("saves = %d, want 0", p.saves)
			}
		})
	}
}

func TestAddTransactionAcceptsAmountAtCap(t *testing.T) {
	c, _ := newTestController(t)
	for _, amount := range []string{"999,999,999,999", "999999999999"} {
		if err := c.AddTransaction(TransactionForm{Kind: daybook.Income, Item: "bonus", Amount: amount}); err != nil {
			t.Fatalf("AddTransaction(%q) unexpected error: %v", amount, err)
		}
	}

	snap := c.Snapshot()
	const want = 2 * daybook.MaxAmount
	if snap.Detail.Income != want {
		t.Fatalf("Detail.Income = %d, want %d", snap.Detail.Income, want)
	}
	for _, cell := range snap.Grid {
		if cell.Key != "2025-07-11" {
			continue
		}
		if cell.Income != want || cell.IncomeText != "+1,999,999,999,998" {
			t.Fatalf("cell totals = (%d, %q), want (%d, %q)", cell.Income, cell.IncomeText, want, "+1,999,999,999,998")
		}
	}
}

func TestAddScheduleRejectsBlankText(t *testing.T) {
	c, p := newTestController(t)
	err := c.AddSchedule(ScheduleForm{Text: " \n\t "})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field("text") == "" {
		t.Fatalf("AddSchedule() error = %v, want text validation error", err)
	}
	if len(c.Store().Schedules) != 0 || p.saves != 0 {
		t.Fatal("blank schedule mutated or saved the store")
	}
}

func TestMutationsRequireSelection(t *testing.T) {
	c, _ := newTestController(t)
	c.ClearSelection()

	if err := c.AddTransaction(TransactionForm{Item: "x", Amount: "1"}); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("AddTransaction() error = %v, want ErrNoSelection", err)
	}
	if err := c.AddSchedule(ScheduleForm{Text: "x"}); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("AddSchedule() error = %v, want ErrNoSelection", err)
	}
	if _, err := c.RequestDeleteSchedule(0); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("RequestDeleteSchedule() error = %v, want ErrNoSelection", err)
	}
	if c.Snapshot().Detail != nil {
		t.Fatal("Snapshot().Detail != nil without selection")
	}
}

func TestDeleteScheduleWithConfirmation(t *testing.T) {
	c, p := newTestController(t)
	if err := c.AddSchedule(ScheduleForm{Text: "dentist"}); err != nil {
		t.Fatalf("AddSchedule() error = %v", err)
	}

	conf, err := c.RequestDeleteSchedule(0)
	if err != nil {
		t.Fatalf("RequestDeleteSchedule() error = %v", err)
	}
	if !strings.Contains(conf.Prompt, "dentist") {
		t.Fatalf("Prompt = %q, want it to name the note", conf.Prompt)
	}
	if len(c.Store().SchedulesOn("2025-07-11")) != 1 {
		t.Fatal("request mutated the store")
	}

	if err := c.Confirm(); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if _, ok := c.Store().Schedules["2025-07-11"]; ok {
		t.Fatal("date key still present after deleting its last schedule")
	}
	if p.saves != 2 {
		t.Fatalf("saves = %d, want 2", p.saves)
	}
	if _, ok := c.Pending(); ok {
		t.Fatal("Pending() still set after Confirm")
	}

	snap := c.Snapshot()
	for _, cell := range snap.Grid {
		if cell.Key == "2025-07-11" && len(cell.Schedules) != 0 {
			t.Fatalf("grid preview = %v, want none", cell.Schedules)
		}
	}
	if len(snap.Detail.Schedules) != 1 || !snap.Detail.Schedules[0].Placeholder {
		t.Fatalf("detail schedules = %+v, want placeholder", snap.Detail.Schedules)
	}
}

func TestDeclineLeavesStoreUntouched(t *testing.T) {
	c, p := newTestController(t)
	if err := c.AddTransaction(TransactionForm{Kind: daybook.Income, Item: "pay", Amount: "100"}); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	before := c.Store().Clone()

	if _, err := c.RequestDeleteTransaction(0); err != nil {
		t.Fatalf("RequestDeleteTransaction() error = %v", err)
	}
	c.Decline()

	if !reflect.DeepEqual(c.Store(), before) {
		t.Fatal("store changed after Decline")
	}
	if p.saves != 1 {
		t.Fatalf("saves = %d, want 1", p.saves)
	}
	if err := c.Confirm(); !errors.Is(err, ErrNothingPending) {
		t.Fatalf("Confirm() after Decline error = %v, want ErrNothingPending", err)
	}
}

func TestSecondRequestReplacesPending(t *testing.T) {
	c, _ := newTestController(t)
	for _, item := range []string{"a", "b"} {
		if err := c.AddTransaction(TransactionForm{Item: item, Amount: "1"}); err != nil {
			t.Fatalf("AddTransaction(%s) error = %v", item, err)
		}
	}
	if _, err := c.RequestDeleteTransaction(0); err != nil {
		t.Fatalf("RequestDeleteTransaction(0) error = %v", err)
	}
	if _, err := c.RequestDeleteTransaction(1); err != nil {
		t.Fatalf("RequestDeleteTransaction(1) error = %v", err)
	}
	if err := c.Confirm(); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	got := c.Store().TransactionsOn("2025-07-11")
	if len(got) != 1 || got[0].Item != "a" {
		t.Fatalf("TransactionsOn() = %+v, want only %q left", got, "a")
	}
}

func TestConfirmStaleIndexIsNoop(t *testing.T) {
	c, p := newTestController(t)
	if _, err := c.RequestDeleteTransaction(3); err != nil {
		t.Fatalf("RequestDeleteTransaction() error = %v", err)
	}
	if err := c.Confirm(); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if p.saves != 0 {
		t.Fatalf("saves = %d, want 0 for a no-op delete", p.saves)
	}
}

func TestSaveFailureKeepsMutation(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	c := New(nil, p, shift.Default(), WithClock(func() time.Time { return fixedNow }))

	err := c.AddSchedule(ScheduleForm{Text: "gym"})
	if err == nil || !strings.HasPrefix(err.Error(), "save daybook: ") {
		t.Fatalf("AddSchedule() error = %v, want wrapped save error", err)
	}
	if !errors.Is(err, p.err) {
		t.Fatalf("AddSchedule() error = %v, want it to wrap %v", err, p.err)
	}
	if len(c.Store().SchedulesOn("2025-07-11")) != 1 {
		t.Fatal("in-memory mutation lost after save failure")
	}
}

func TestNilPersisterKeepsChangesInMemory(t *testing.T) {
	c := New(nil, nil, shift.Cycle{}, WithClock(func() time.Time { return fixedNow }))
	if err := c.AddSchedule(ScheduleForm{Text: "gym"}); err != nil {
		t.Fatalf("AddSchedule() error = %v", err)
	}
	if c.Cycle().Len() != 4 {
		t.Fatalf("Cycle().Len() = %d, want default rota", c.Cycle().Len())
	}
}

func TestMoveSelectionFollowsMonth(t *testing.T) {
	c, _ := newTestController(t)
	c.SelectDate("2025-07-31")
	c.MoveSelection(1)
	if key, _ := c.Selected(); key != "2025-08-01" {
		t.Fatalf("Selected() = %q, want 2025-08-01", key)
	}
	if c.Month() != (view.Month{Year: 2025, Month: time.August}) {
		t.Fatalf("Month() = %+v, want August 2025", c.Month())
	}

	c.MoveSelection(-7 * 5)
	if key, _ := c.Selected(); key != "2025-06-27" {
		t.Fatalf("Selected() = %q, want 2025-06-27", key)
	}

	c.NavigateMonth(6)
	c.GoToToday()
	if key, _ := c.Selected(); key != "2025-07-11" || c.Month().Month != time.July {
		t.Fatalf("GoToToday() left (%q, %+v)", key, c.Month())
	}
}

func TestWithLabelsChangesDetail(t *testing.T) {
	labels := view.DefaultLabels()
	labels.Income = "수입"
	labels.CurrencySuffix = "원"
	c := New(nil, nil, shift.Default(), WithClock(func() time.Time { return fixedNow }), WithLabels(labels))
	if err := c.AddTransaction(TransactionForm{Kind: daybook.Income, Item: "pay", Amount: "1000"}); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	row := c.Snapshot().Detail.Transactions[0]
	if row.TypeLabel != "수입" || row.AmountText != "1,000원" {
		t.Fatalf("row = %+v, want localized labels", row)
	}
}
