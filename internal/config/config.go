// Package config loads dutycal's YAML configuration with environment variable
// expansion and validates it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/lachiem1/dutycal/internal/shift"
	"github.com/lachiem1/dutycal/internal/storage"
	"github.com/lachiem1/dutycal/internal/view"
)

const dateLayout = "2006-01-02"

// Validator is implemented by configuration types that can check themselves.
type Validator interface {
	Validate() error
}

// Config represents the application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Shift   ShiftConfig   `yaml:"shift"`
	Display DisplayConfig `yaml:"display"`
	Log     LogConfig     `yaml:"log"`
}

// NewDefaultConfig returns the configuration used when no file exists.
func NewDefaultConfig() *Config {
	labels := view.DefaultLabels()
	return &Config{
		Storage: StorageConfig{Mode: string(storage.ModePlain)},
		Shift: ShiftConfig{
			BaseDate: shift.DefaultBaseDate,
			Labels:   shift.DefaultLabels(),
		},
		Display: DisplayConfig{
			IncomeLabel:    labels.Income,
			ExpenseLabel:   labels.Expense,
			CurrencySuffix: labels.CurrencySuffix,
			NoTransactions: labels.NoTransactions,
			NoSchedules:    labels.NoSchedules,
		},
		Log: LogConfig{Level: slog.LevelInfo},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Shift.Validate(); err != nil {
		return fmt.Errorf("shift: %w", err)
	}
	if err := c.Display.Validate(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

// StorageConfig selects where and how the daybook database is kept.
type StorageConfig struct {
	Mode string `yaml:"mode"`
	Path string `yaml:"path"`
}

func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.In(string(storage.ModePlain), string(storage.ModeSecure))),
	)
}

// Resolved converts to the storage package's config. Env overrides are
// applied later by storage.ResolveConfig.
func (c StorageConfig) Resolved() storage.Config {
	return storage.Config{
		Mode: storage.Mode(strings.ToLower(strings.TrimSpace(c.Mode))),
		Path: strings.TrimSpace(c.Path),
	}
}

// ShiftConfig anchors the duty rota.
type ShiftConfig struct {
	BaseDate string   `yaml:"base_date"`
	Labels   []string `yaml:"labels"`
}

func (c *ShiftConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseDate, validation.Required, validation.Date(dateLayout)),
		validation.Field(&c.Labels, validation.Required, validation.Each(validation.By(notBlank))),
	)
}

// Cycle builds the rota. BaseDate is read as a local calendar date.
func (c ShiftConfig) Cycle() (shift.Cycle, error) {
	base, err := time.ParseInLocation(dateLayout, strings.TrimSpace(c.BaseDate), time.Local)
	if err != nil {
		return shift.Cycle{}, fmt.Errorf("parse base_date: %w", err)
	}
	return shift.NewCycle(base, c.Labels)
}

// DisplayConfig holds the user-facing strings.
type DisplayConfig struct {
	IncomeLabel    string `yaml:"income_label"`
	ExpenseLabel   string `yaml:"expense_label"`
	CurrencySuffix string `yaml:"currency_suffix"`
	NoTransactions string `yaml:"no_transactions"`
	NoSchedules    string `yaml:"no_schedules"`
}

func (c *DisplayConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.IncomeLabel, validation.By(notBlank)),
		validation.Field(&c.ExpenseLabel, validation.By(notBlank)),
	)
}

func (c DisplayConfig) Labels() view.Labels {
	return view.Labels{
		Income:         c.IncomeLabel,
		Expense:        c.ExpenseLabel,
		CurrencySuffix: c.CurrencySuffix,
		NoTransactions: c.NoTransactions,
		NoSchedules:    c.NoSchedules,
	}
}

// LogConfig controls the JSON log file. The TUI owns the terminal, so logs
// never go to stdout.
type LogConfig struct {
	Level slog.Level `yaml:"level"`
	Path  string     `yaml:"path"`
}

// ResolvedPath returns Path, or dutycal.log under the user config directory.
func (c LogConfig) ResolvedPath() (string, error) {
	if p := strings.TrimSpace(c.Path); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(dir, "dutycal", "dutycal.log"), nil
}

// DefaultPath is where the config file lives when no flag or env names one.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(dir, "dutycal", "config.yaml"), nil
}

// Load reads filename into target after expanding environment variables.
// Fields absent from the file keep whatever target already holds.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}

// LoadFile layers filename over the defaults. A missing file is not an error.
func LoadFile(filename string) (*Config, error) {
	cfg := NewDefaultConfig()
	if strings.TrimSpace(filename) == "" {
		return cfg, nil
	}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err := Load(filename, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be blank")
	}
	return nil
}
