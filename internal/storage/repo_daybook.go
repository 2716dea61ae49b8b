package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lachiem1/dutycal/internal/daybook"
)

// DaybookKey is the single slot holding the whole serialized daybook.
const DaybookKey = "daybook.v2"

type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

type DaybookRepo struct {
	kv     KV
	logger *slog.Logger
}

func NewDaybookRepo(kv KV, logger *slog.Logger) *DaybookRepo {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DaybookRepo{kv: kv, logger: logger}
}

// Load returns the persisted daybook. Absent, unreadable or corrupt data all
// yield an empty store; losing history must not block further use.
func (r *DaybookRepo) Load(ctx context.Context) *daybook.Store {
	raw, found, err := r.kv.Get(ctx, DaybookKey)
	if err != nil {
		r.logger.Warn("daybook read failed, starting empty", slog.String("error", err.Error()))
		return daybook.New()
	}
	if !found {
		r.logger.Info("no saved daybook, starting empty")
		return daybook.New()
	}

	store, err := decodeDaybook(raw)
	if err != nil {
		r.logger.Warn("daybook is corrupt, starting empty", slog.String("error", err.Error()))
		return daybook.New()
	}
	r.logger.Info("daybook loaded",
		slog.Int("transaction_days", len(store.Transactions)),
		slog.Int("schedule_days", len(store.Schedules)))
	return store
}

// Save overwrites the slot with the full store.
func (r *DaybookRepo) Save(ctx context.Context, store *daybook.Store) error {
	raw, err := encodeDaybook(store)
	if err != nil {
		return err
	}
	if err := r.kv.Put(ctx, DaybookKey, raw); err != nil {
		return fmt.Errorf("write daybook: %w", err)
	}
	return nil
}

func encodeDaybook(store *daybook.Store) (string, error) {
	if store == nil {
		store = daybook.New()
	}
	out := *store
	if out.Transactions == nil {
		out.Transactions = map[daybook.DateKey][]daybook.Transaction{}
	}
	if out.Schedules == nil {
		out.Schedules = map[daybook.DateKey][]daybook.ScheduleNote{}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode daybook: %w", err)
	}
	return string(data), nil
}

func decodeDaybook(raw string) (*daybook.Store, error) {
	var store daybook.Store
	if err := json.Unmarshal([]byte(raw), &store); err != nil {
		return nil, fmt.Errorf("decode daybook: %w", err)
	}
	// Older blobs predate schedules; Normalize fills the missing map.
	store.Normalize()
	return &store, nil
}
