package daybook

import (
	"fmt"
	"math"
	"time"
)

// KeyLayout is the canonical DateKey format.
const KeyLayout = "2006-01-02"

// DateKey identifies one local calendar day as YYYY-MM-DD.
type DateKey string

func KeyFor(t time.Time) DateKey {
	return DateKey(t.Format(KeyLayout))
}

// ParseKey parses a DateKey into local midnight of that day.
func ParseKey(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(KeyLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date key %q: %w", raw, err)
	}
	return t, nil
}

func (k DateKey) Time() (time.Time, error) {
	return ParseKey(string(k))
}

// Valid reports whether k is a real calendar day in canonical form.
func (k DateKey) Valid() bool {
	t, err := ParseKey(string(k))
	if err != nil {
		return false
	}
	return KeyFor(t) == k
}

type Kind string

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// MaxAmount is the largest amount a single transaction may carry.
const MaxAmount int64 = 999_999_999_999

type Transaction struct {
	Type   Kind   `json:"type"`
	Item   string `json:"item"`
	Amount int64  `json:"amount"`
}

type ScheduleNote struct {
	Text string `json:"text"`
}

// Store holds every dated entry. A key is present in a map only while its
// list is non-empty.
//
// Store is not safe for concurrent use.
type Store struct {
	Transactions map[DateKey][]Transaction  `json:"transactions"`
	Schedules    map[DateKey][]ScheduleNote `json:"schedules"`
}

func New() *Store {
	return &Store{
		Transactions: map[DateKey][]Transaction{},
		Schedules:    map[DateKey][]ScheduleNote{},
	}
}

// AddTransaction appends tx to the list for key. The caller validates tx.
func (s *Store) AddTransaction(key DateKey, tx Transaction) {
	if s.Transactions == nil {
		s.Transactions = map[DateKey][]Transaction{}
	}
	s.Transactions[key] = append(s.Transactions[key], tx)
}

// AddSchedule appends note to the list for key. The caller validates note.
func (s *Store) AddSchedule(key DateKey, note ScheduleNote) {
	if s.Schedules == nil {
		s.Schedules = map[DateKey][]ScheduleNote{}
	}
	s.Schedules[key] = append(s.Schedules[key], note)
}

// DeleteTransaction removes the transaction at index under key. It reports
// false and changes nothing when the key or index no longer exists.
func (s *Store) DeleteTransaction(key DateKey, index int) bool {
	next, ok := removeAt(s.Transactions[key], index)
	if !ok {
		return false
	}
	if len(next) == 0 {
		delete(s.Transactions, key)
		return true
	}
	s.Transactions[key] = next
	return true
}

// DeleteSchedule removes the note at index under key, with the same no-op
// rules as DeleteTransaction.
func (s *Store) DeleteSchedule(key DateKey, index int) bool {
	next, ok := removeAt(s.Schedules[key], index)
	if !ok {
		return false
	}
	if len(next) == 0 {
		delete(s.Schedules, key)
		return true
	}
	s.Schedules[key] = next
	return true
}

func (s *Store) TransactionsOn(key DateKey) []Transaction {
	return s.Transactions[key]
}

func (s *Store) SchedulesOn(key DateKey) []ScheduleNote {
	return s.Schedules[key]
}

// Totals sums income and expense amounts for key. Each sum saturates at
// math.MaxInt64 instead of wrapping.
func (s *Store) Totals(key DateKey) (income, expense int64) {
	for _, tx := range s.Transactions[key] {
		if tx.Type == Income {
			income = addSaturating(income, tx.Amount)
			continue
		}
		expense = addSaturating(expense, tx.Amount)
	}
	return income, expense
}

// addSaturating adds non-negative amounts; negative ones from hand-edited
// data are ignored.
func addSaturating(sum, amount int64) int64 {
	if amount <= 0 {
		return sum
	}
	if sum > math.MaxInt64-amount {
		return math.MaxInt64
	}
	return sum + amount
}

// Normalize restores the invariants on decoded data: both maps non-nil and no
// key mapped to an empty list.
func (s *Store) Normalize() {
	if s.Transactions == nil {
		s.Transactions = map[DateKey][]Transaction{}
	}
	if s.Schedules == nil {
		s.Schedules = map[DateKey][]ScheduleNote{}
	}
	for k, v := range s.Transactions {
		if len(v) == 0 {
			delete(s.Transactions, k)
		}
	}
	for k, v := range s.Schedules {
		if len(v) == 0 {
			delete(s.Schedules, k)
		}
	}
}

func (s *Store) Clone() *Store {
	out := New()
	for k, v := range s.Transactions {
		out.Transactions[k] = append([]Transaction(nil), v...)
	}
	for k, v := range s.Schedules {
		out.Schedules[k] = append([]ScheduleNote(nil), v...)
	}
	return out
}

// removeAt returns a fresh slice without list[index] so callers holding the
// old slice never observe a shifted view.
func removeAt[T any](list []T, index int) ([]T, bool) {
	if index < 0 || index >= len(list) {
		return list, false
	}
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:index]...)
	out = append(out, list[index+1:]...)
	return out, true
}
