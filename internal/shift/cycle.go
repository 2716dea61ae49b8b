package shift

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultBaseDate is a known night-duty day for the default rota.
const DefaultBaseDate = "2025-07-11"

// DefaultLabels is the four-day rota: night, off after nights, rest, day.
func DefaultLabels() []string {
	return []string{"night", "off", "rest", "day"}
}

// Cycle maps calendar days onto a fixed-length repeating list of duty labels.
// Base is the day that carries Labels[0].
type Cycle struct {
	base   time.Time
	labels []string
}

func NewCycle(base time.Time, labels []string) (Cycle, error) {
	if len(labels) == 0 {
		return Cycle{}, errors.New("shift cycle needs at least one label")
	}
	out := make([]string, 0, len(labels))
	for i, label := range labels {
		trimmed := strings.TrimSpace(label)
		if trimmed == "" {
			return Cycle{}, fmt.Errorf("shift label %d is blank", i)
		}
		out = append(out, trimmed)
	}
	return Cycle{base: dateOnly(base), labels: out}, nil
}

// Default returns the built-in rota anchored at DefaultBaseDate.
func Default() Cycle {
	base, _ := time.ParseInLocation("2006-01-02", DefaultBaseDate, time.Local)
	c, _ := NewCycle(base, DefaultLabels())
	return c
}

func (c Cycle) Base() time.Time {
	return c.base
}

func (c Cycle) Labels() []string {
	return append([]string(nil), c.labels...)
}

func (c Cycle) Len() int {
	return len(c.labels)
}

// Index returns the position of t's calendar day in the cycle. The result is
// always in [0, Len()), including for days before the base date.
func (c Cycle) Index(t time.Time) int {
	n := len(c.labels)
	if n == 0 {
		return 0
	}
	days := daysBetween(c.base, dateOnly(t))
	return ((days % n) + n) % n
}

// LabelFor returns the duty label for t's calendar day. Time of day is ignored.
func (c Cycle) LabelFor(t time.Time) string {
	if len(c.labels) == 0 {
		return ""
	}
	return c.labels[c.Index(t)]
}

// dateOnly keeps the local calendar fields of t and drops the clock. UTC is
// used for the result so that differencing never crosses a DST change.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}
