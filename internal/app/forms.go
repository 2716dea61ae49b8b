package app

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/lachiem1/dutycal/internal/daybook"
	"github.com/lachiem1/dutycal/internal/view"
)

// TransactionForm is the raw input of the transaction modal. Amount stays a
// string until validation so bad input can be reported instead of coerced.
type TransactionForm struct {
	Kind   daybook.Kind `json:"type"`
	Item   string       `json:"item"`
	Amount string       `json:"amount"`
}

// Validate checks the form without touching any store.
func (f TransactionForm) Validate() error {
	f = f.normalized()
	return validation.ValidateStruct(&f,
		validation.Field(&f.Kind, validation.Required, validation.In(daybook.Income, daybook.Expense)),
		validation.Field(&f.Item, validation.Required.Error("enter an item name")),
		validation.Field(&f.Amount,
			validation.Required.Error("enter an amount"),
			validation.Match(amountPattern).Error("amount must be digits, optionally grouped like 50,000"),
			validation.By(amountInRange),
		),
	)
}

// Transaction converts a valid form. Call Validate first.
func (f TransactionForm) Transaction() daybook.Transaction {
	f = f.normalized()
	amount, _ := parseAmount(f.Amount)
	return daybook.Transaction{Type: f.Kind, Item: f.Item, Amount: amount}
}

func (f TransactionForm) normalized() TransactionForm {
	if f.Kind == "" {
		f.Kind = daybook.Expense
	}
	f.Item = daybook.NormalizeText(f.Item)
	f.Amount = strings.TrimSpace(f.Amount)
	return f
}

type ScheduleForm struct {
	Text string `json:"text"`
}

func (f ScheduleForm) Validate() error {
	f.Text = daybook.NormalizeText(f.Text)
	return validation.ValidateStruct(&f,
		validation.Field(&f.Text, validation.Required.Error("enter schedule text")),
	)
}

func (f ScheduleForm) Note() daybook.ScheduleNote {
	return daybook.ScheduleNote{Text: daybook.NormalizeText(f.Text)}
}

// amountPattern is plain digits or digits in well-formed groups of three.
var amountPattern = regexp.MustCompile(`^\d+$|^\d{1,3}(,\d{3})+$`)

// parseAmount reads an amount that already matched amountPattern.
func parseAmount(raw string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), 10, 64)
}

func amountInRange(value any) error {
	s, _ := value.(string)
	if s == "" || !amountPattern.MatchString(s) {
		return nil
	}
	n, err := parseAmount(s)
	if err != nil || n > daybook.MaxAmount {
		return fmt.Errorf("amount must be at most %s", view.Grouped(daybook.MaxAmount))
	}
	if n <= 0 {
		return errors.New("amount must be a positive whole number")
	}
	return nil
}

// ValidationError reports user-correctable form problems keyed by field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return strings.Join(parts, "; ")
}

// Field returns the message for one field, or "".
func (e *ValidationError) Field(name string) string {
	return e.Fields[name]
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return &ValidationError{Fields: map[string]string{"form": err.Error()}}
	}
	fields := make(map[string]string, len(errs))
	for name, fieldErr := range errs {
		fields[name] = fieldErr.Error()
	}
	return &ValidationError{Fields: fields}
}
