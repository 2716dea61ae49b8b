package view

import (
	"github.com/lachiem1/dutycal/internal/daybook"
)

type TransactionRow struct {
	// Index is the delete target within the day's list; -1 on a placeholder.
	Index       int
	Placeholder bool
	Message     string

	Kind       daybook.Kind
	TypeLabel  string
	Item       string
	AmountText string // "50,000 won"
}

type ScheduleRow struct {
	Index       int
	Placeholder bool
	Message     string

	Text string
}

type Detail struct {
	Key          daybook.DateKey
	Title        string
	Transactions []TransactionRow
	Schedules    []ScheduleRow
	Income       int64
	Expense      int64
}

// HasTransactions reports whether any real (deletable) transaction rows exist.
func (d Detail) HasTransactions() bool {
	return len(d.Transactions) > 0 && !d.Transactions[0].Placeholder
}

func (d Detail) HasSchedules() bool {
	return len(d.Schedules) > 0 && !d.Schedules[0].Placeholder
}

// RenderDetail derives the detail panel for key. An empty list renders as a
// single placeholder row rather than nothing.
func RenderDetail(key daybook.DateKey, store *daybook.Store, labels Labels) Detail {
	if store == nil {
		store = daybook.New()
	}
	d := Detail{Key: key, Title: detailTitle(key)}
	d.Income, d.Expense = store.Totals(key)

	for i, tx := range store.TransactionsOn(key) {
		typeLabel := labels.Expense
		if tx.Type == daybook.Income {
			typeLabel = labels.Income
		}
		d.Transactions = append(d.Transactions, TransactionRow{
			Index:      i,
			Kind:       tx.Type,
			TypeLabel:  typeLabel,
			Item:       tx.Item,
			AmountText: Grouped(tx.Amount) + labels.CurrencySuffix,
		})
	}
	if len(d.Transactions) == 0 {
		d.Transactions = []TransactionRow{{Index: -1, Placeholder: true, Message: labels.NoTransactions}}
	}

	for i, note := range store.SchedulesOn(key) {
		d.Schedules = append(d.Schedules, ScheduleRow{Index: i, Text: note.Text})
	}
	if len(d.Schedules) == 0 {
		d.Schedules = []ScheduleRow{{Index: -1, Placeholder: true, Message: labels.NoSchedules}}
	}
	return d
}

func detailTitle(key daybook.DateKey) string {
	t, err := key.Time()
	if err != nil {
		return string(key)
	}
	return t.Format("January 2")
}
