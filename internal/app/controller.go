// Package app holds the calendar's application state and the operations a
// user can apply to it. Painting lives in internal/tui; everything the screen
// shows is re-derived from State through Snapshot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lachiem1/dutycal/internal/daybook"
	"github.com/lachiem1/dutycal/internal/shift"
	"github.com/lachiem1/dutycal/internal/view"
)

// DefaultSaveTimeout bounds each synchronous save.
const DefaultSaveTimeout = 5 * time.Second

var (
	ErrNoSelection    = errors.New("no date selected")
	ErrNothingPending = errors.New("no delete awaiting confirmation")
)

// Persister writes the full store after every mutation.
type Persister interface {
	Save(ctx context.Context, store *daybook.Store) error
}

type Target int

const (
	TargetTransaction Target = iota
	TargetSchedule
)

func (t Target) String() string {
	if t == TargetSchedule {
		return "schedule"
	}
	return "transaction"
}

// Confirmation is a delete awaiting the user's yes or no.
type Confirmation struct {
	Target Target
	Key    daybook.DateKey
	Index  int
	Prompt string
}

// State is the complete application state. Selected is empty when no date
// is selected.
type State struct {
	Store    *daybook.Store
	Month    view.Month
	Selected daybook.DateKey
	Pending  *Confirmation
}

type Snapshot struct {
	Month  view.Month
	Title  string
	Grid   []view.Cell
	Detail *view.Detail // nil without a selection
}

type Option func(*Controller)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLabels(labels view.Labels) Option {
	return func(c *Controller) {
		c.labels = labels
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithSaveTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.saveTimeout = d
		}
	}
}

// Controller applies user actions to State and persists after each mutation.
// It is not safe for concurrent use; drive it from a single event loop.
type Controller struct {
	state       State
	persister   Persister
	cycle       shift.Cycle
	labels      view.Labels
	now         func() time.Time
	logger      *slog.Logger
	saveTimeout time.Duration
}

// New starts with today selected and today's month displayed. A nil store
// starts empty; a nil persister keeps changes in memory only.
func New(store *daybook.Store, persister Persister, cycle shift.Cycle, opts ...Option) *Controller {
	if store == nil {
		store = daybook.New()
	}
	c := &Controller{
		persister:   persister,
		cycle:       cycle,
		labels:      view.DefaultLabels(),
		now:         time.Now,
		logger:      slog.New(slog.DiscardHandler),
		saveTimeout: DefaultSaveTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cycle.Len() == 0 {
		c.cycle = shift.Default()
	}

	today := c.now()
	c.state = State{
		Store:    store,
		Month:    view.MonthOf(today),
		Selected: daybook.KeyFor(today),
	}
	return c
}

// State returns the current state. The Store pointer is shared.
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Store() *daybook.Store {
	return c.state.Store
}

func (c *Controller) Selected() (daybook.DateKey, bool) {
	return c.state.Selected, c.state.Selected != ""
}

func (c *Controller) Month() view.Month {
	return c.state.Month
}

func (c *Controller) Pending() (Confirmation, bool) {
	if c.state.Pending == nil {
		return Confirmation{}, false
	}
	return *c.state.Pending, true
}

func (c *Controller) Cycle() shift.Cycle {
	return c.cycle
}

func (c *Controller) Labels() view.Labels {
	return c.labels
}

// SelectDate selects key whether or not it lies in the displayed month.
func (c *Controller) SelectDate(key daybook.DateKey) {
	c.state.Selected = key
}

func (c *Controller) ClearSelection() {
	c.state.Selected = ""
}

// NavigateMonth moves the displayed month. The selection is left alone.
func (c *Controller) NavigateMonth(delta int) {
	c.state.Month = c.state.Month.Add(delta)
}

// GoToToday selects today and displays its month.
func (c *Controller) GoToToday() {
	today := c.now()
	c.state.Month = view.MonthOf(today)
	c.state.Selected = daybook.KeyFor(today)
}

// MoveSelection shifts the selection by days and displays the month of the
// new date. Without a valid selection it starts from today.
func (c *Controller) MoveSelection(days int) {
	from, err := c.state.Selected.Time()
	if err != nil {
		from = c.now()
	}
	y, m, d := from.Date()
	next := time.Date(y, m, d+days, 0, 0, 0, 0, time.Local)
	c.state.Selected = daybook.KeyFor(next)
	c.state.Month = view.MonthOf(next)
}

// AddTransaction validates form, appends it to the selected date and saves.
// Invalid input returns *ValidationError and leaves the store untouched.
func (c *Controller) AddTransaction(form TransactionForm) error {
	key, ok := c.Selected()
	if !ok {
		return ErrNoSelection
	}
	if err := form.Validate(); err != nil {
		return asValidationError(err)
	}
	tx := form.Transaction()
	c.state.Store.AddTransaction(key, tx)
	c.logger.Info("transaction added",
		slog.String("date", string(key)),
		slog.String("type", string(tx.Type)),
		slog.Int64("amount", tx.Amount))
	return c.save()
}

func (c *Controller) AddSchedule(form ScheduleForm) error {
	key, ok := c.Selected()
	if !ok {
		return ErrNoSelection
	}
	if err := form.Validate(); err != nil {
		return asValidationError(err)
	}
	c.state.Store.AddSchedule(key, form.Note())
	c.logger.Info("schedule added", slog.String("date", string(key)))
	return c.save()
}

// RequestDeleteTransaction records a pending delete of row index on the
// selected date and returns the prompt to show. Nothing is mutated until
// Confirm. A new request replaces any earlier pending one.
func (c *Controller) RequestDeleteTransaction(index int) (Confirmation, error) {
	key, ok := c.Selected()
	if !ok {
		return Confirmation{}, ErrNoSelection
	}
	prompt := "Delete this transaction?"
	if txs := c.state.Store.TransactionsOn(key); index >= 0 && index < len(txs) {
		prompt = fmt.Sprintf("Delete %q (%s%s)?", txs[index].Item, view.Grouped(txs[index].Amount), c.labels.CurrencySuffix)
	}
	return c.request(Confirmation{Target: TargetTransaction, Key: key, Index: index, Prompt: prompt}), nil
}

func (c *Controller) RequestDeleteSchedule(index int) (Confirmation, error) {
	key, ok := c.Selected()
	if !ok {
		return Confirmation{}, ErrNoSelection
	}
	prompt := "Delete this schedule?"
	if notes := c.state.Store.SchedulesOn(key); index >= 0 && index < len(notes) {
		prompt = fmt.Sprintf("Delete schedule %q?", notes[index].Text)
	}
	return c.request(Confirmation{Target: TargetSchedule, Key: key, Index: index, Prompt: prompt}), nil
}

func (c *Controller) request(conf Confirmation) Confirmation {
	c.state.Pending = &conf
	return conf
}

// Confirm applies the pending delete and saves. A row that has vanished
// since the request is a silent no-op.
func (c *Controller) Confirm() error {
	pending := c.state.Pending
	if pending == nil {
		return ErrNothingPending
	}
	c.state.Pending = nil

	var removed bool
	switch pending.Target {
	case TargetSchedule:
		removed = c.state.Store.DeleteSchedule(pending.Key, pending.Index)
	default:
		removed = c.state.Store.DeleteTransaction(pending.Key, pending.Index)
	}
	if !removed {
		c.logger.Info("delete target no longer exists",
			slog.String("target", pending.Target.String()),
			slog.String("date", string(pending.Key)),
			slog.Int("index", pending.Index))
		return nil
	}
	c.logger.Info(pending.Target.String()+" deleted",
		slog.String("date", string(pending.Key)),
		slog.Int("index", pending.Index))
	return c.save()
}

// Decline drops the pending delete without touching the store.
func (c *Controller) Decline() {
	c.state.Pending = nil
}

// Snapshot derives the grid and detail view from the current state.
func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		Month: c.state.Month,
		Title: c.state.Month.Title(),
		Grid:  view.BuildMonth(c.state.Month, c.state.Store, c.state.Selected, c.now(), c.cycle),
	}
	if key, ok := c.Selected(); ok {
		detail := view.RenderDetail(key, c.state.Store, c.labels)
		snap.Detail = &detail
	}
	return snap
}

func (c *Controller) save() error {
	if c.persister == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.saveTimeout)
	defer cancel()
	if err := c.persister.Save(ctx, c.state.Store); err != nil {
		c.logger.Error("save failed", slog.String("error", err.Error()))
		return fmt.Errorf("save daybook: %w", err)
	}
	return nil
}
