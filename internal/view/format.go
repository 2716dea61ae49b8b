package view

import "github.com/dustin/go-humanize"

// Labels holds every user-facing string the view models produce.
type Labels struct {
	Income         string
	Expense        string
	CurrencySuffix string
	NoTransactions string
	NoSchedules    string
}

func DefaultLabels() Labels {
	return Labels{
		Income:         "income",
		Expense:        "expense",
		CurrencySuffix: " won",
		NoTransactions: "No transactions.",
		NoSchedules:    "No schedules.",
	}
}

// Grouped formats n with thousands separators, e.g. 50000 -> "50,000".
func Grouped(n int64) string {
	return humanize.Comma(n)
}

func signedTotal(sign string, n int64) string {
	if n == 0 {
		return ""
	}
	return sign + Grouped(n)
}
