package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lachiem1/dutycal/internal/auth"
	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModePlain  Mode = "plain"
	ModeSecure Mode = "secure"
)

const schemaVersion = 2

var errSecureUnsupported = errors.New("secure mode requires a sqlcipher-enabled build; rebuild with '-tags sqlcipher'")

type Config struct {
	Mode Mode
	Path string
}

// Open resolves cfg against the environment, opens the database in the
// requested mode and brings its schema up to date.
func Open(ctx context.Context, base Config, logger *slog.Logger) (*sql.DB, Config, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg, err := ResolveConfig(base)
	if err != nil {
		return nil, Config{}, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, Config{}, fmt.Errorf("create db directory: %w", err)
	}
	existed, err := hasLocalDBFiles(cfg.Path)
	if err != nil {
		return nil, Config{}, fmt.Errorf("check db files: %w", err)
	}

	var db *sql.DB
	switch cfg.Mode {
	case ModeSecure:
		db, err = openSecure(cfg.Path)
	default:
		db, err = openPlainSQLite(cfg.Path)
	}
	if err != nil {
		return nil, Config{}, err
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, Config{}, err
	}

	logger.Info("database opened",
		slog.String("mode", string(cfg.Mode)),
		slog.String("path", cfg.Path),
		slog.Bool("new", !existed))
	return db, cfg, nil
}

func openSecure(path string) (*sql.DB, error) {
	// Fail before the keychain is touched.
	if !secureSQLiteSupported() {
		return nil, errSecureUnsupported
	}

	key, created, err := auth.EnsureDBKey()
	if err != nil {
		return nil, fmt.Errorf("ensure secure db key: %w", err)
	}
	if created {
		// Files encrypted under a lost key are unreadable; start over.
		if err := resetLocalDBFiles(path); err != nil {
			return nil, fmt.Errorf("reset db after key creation: %w", err)
		}
	}
	return openSecureSQLite(path, key)
}

func openPlainSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		db.Close()
		return nil, fmt.Errorf("set db permissions: %w", err)
	}
	return db, nil
}

// Wipe removes local database files for the resolved DB path.
func Wipe(base Config) (Config, error) {
	cfg, err := ResolveConfig(base)
	if err != nil {
		return Config{}, err
	}
	if err := resetLocalDBFiles(cfg.Path); err != nil {
		return Config{}, fmt.Errorf("wipe local db files: %w", err)
	}
	return cfg, nil
}

// ResolveConfig applies DUTYCAL_DB_MODE / DUTYCAL_DB_PATH overrides and fills
// the default path under the user config directory.
func ResolveConfig(base Config) (Config, error) {
	cfg := base
	if mode := strings.TrimSpace(os.Getenv("DUTYCAL_DB_MODE")); mode != "" {
		cfg.Mode = Mode(strings.ToLower(mode))
	}
	if cfg.Mode == "" {
		cfg.Mode = ModePlain
	}
	if cfg.Mode != ModePlain && cfg.Mode != ModeSecure {
		return Config{}, fmt.Errorf("unknown storage mode %q", cfg.Mode)
	}

	if dbPath := strings.TrimSpace(os.Getenv("DUTYCAL_DB_PATH")); dbPath != "" {
		cfg.Path = dbPath
	}
	if strings.TrimSpace(cfg.Path) != "" {
		return cfg, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve user config directory: %w", err)
	}
	cfg.Path = filepath.Join(configDir, "dutycal", "dutycal.db")
	return cfg, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	const bootstrapSchema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  version INTEGER NOT NULL
);

INSERT OR IGNORE INTO schema_migrations (id, version) VALUES (1, 1);
`
	if _, err := db.ExecContext(ctx, bootstrapSchema); err != nil {
		return fmt.Errorf("run sqlite migrations: %w", err)
	}

	var currentVersion int
	if err := db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE id = 1").Scan(&currentVersion); err != nil {
		return fmt.Errorf("read sqlite schema version: %w", err)
	}

	if currentVersion > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", currentVersion, schemaVersion)
	}

	if currentVersion < 2 {
		if err := applyV2Migrations(ctx, db); err != nil {
			return err
		}
	}

	return nil
}

func applyV2Migrations(ctx context.Context, db *sql.DB) (err error) {
	const schema = `
CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite migration v2 transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("run sqlite v2 migrations: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "UPDATE schema_migrations SET version = 2 WHERE id = 1"); err != nil {
		return fmt.Errorf("update sqlite schema version to 2: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite v2 migrations: %w", err)
	}
	return nil
}

func hasLocalDBFiles(path string) (bool, error) {
	for _, p := range localDBFiles(path) {
		_, err := os.Stat(p)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return false, err
		}
	}
	return false, nil
}

func resetLocalDBFiles(path string) error {
	for _, p := range localDBFiles(path) {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func localDBFiles(path string) []string {
	return []string{
		path,
		path + "-wal",
		path + "-shm",
	}
}
