package view

import (
	"time"

	"github.com/lachiem1/dutycal/internal/daybook"
	"github.com/lachiem1/dutycal/internal/shift"
)

// Cell is one grid unit: a leading blank pad or a day of the month.
type Cell struct {
	Blank bool

	Day      int
	Key      daybook.DateKey
	Shift    string
	Weekday  time.Weekday
	Weekend  bool
	Today    bool
	Selected bool

	Income      int64
	Expense     int64
	IncomeText  string // "+50,000", empty when Income is zero
	ExpenseText string // "-20,000", empty when Expense is zero

	Schedules []string
}

// BuildMonth derives the full cell sequence for month from current state.
// It has no side effects; call it again after any change.
func BuildMonth(
	month Month,
	store *daybook.Store,
	selected daybook.DateKey,
	today time.Time,
	cycle shift.Cycle,
) []Cell {
	if store == nil {
		store = daybook.New()
	}
	lead := int(month.FirstWeekday())
	days := month.Days()
	todayKey := daybook.KeyFor(today)

	cells := make([]Cell, 0, lead+days)
	for i := 0; i < lead; i++ {
		cells = append(cells, Cell{Blank: true})
	}

	for day := 1; day <= days; day++ {
		date := time.Date(month.Year, month.Month, day, 0, 0, 0, 0, time.Local)
		key := daybook.KeyFor(date)
		weekday := date.Weekday()
		income, expense := store.Totals(key)

		var previews []string
		for _, note := range store.SchedulesOn(key) {
			previews = append(previews, note.Text)
		}

		cells = append(cells, Cell{
			Day:         day,
			Key:         key,
			Shift:       cycle.LabelFor(date),
			Weekday:     weekday,
			Weekend:     weekday == time.Saturday || weekday == time.Sunday,
			Today:       key == todayKey,
			Selected:    selected != "" && key == selected,
			Income:      income,
			Expense:     expense,
			IncomeText:  signedTotal("+", income),
			ExpenseText: signedTotal("-", expense),
			Schedules:   previews,
		})
	}
	return cells
}
