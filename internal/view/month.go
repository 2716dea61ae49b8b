package view

import (
	"fmt"
	"time"

	"github.com/lachiem1/dutycal/internal/daybook"
)

// Month is a displayed calendar month. Day-of-month is irrelevant.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// First returns local midnight on the 1st.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.Local)
}

// Add shifts by delta months, normalizing across year boundaries.
func (m Month) Add(delta int) Month {
	return MonthOf(time.Date(m.Year, m.Month+time.Month(delta), 1, 0, 0, 0, 0, time.Local))
}

// Days is the number of days in the month; day 0 of the next month is the
// last day of this one.
func (m Month) Days() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.Local).Day()
}

// FirstWeekday is the weekday of the 1st, 0=Sunday.
func (m Month) FirstWeekday() time.Weekday {
	return m.First().Weekday()
}

func (m Month) Title() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

func (m Month) Contains(key daybook.DateKey) bool {
	t, err := key.Time()
	if err != nil {
		return false
	}
	return MonthOf(t) == m
}

func (m Month) Key(day int) daybook.DateKey {
	return daybook.DateKey(fmt.Sprintf("%04d-%02d-%02d", m.Year, int(m.Month), day))
}
