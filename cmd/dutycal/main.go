package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/lachiem1/dutycal/internal/app"
	"github.com/lachiem1/dutycal/internal/auth"
	"github.com/lachiem1/dutycal/internal/config"
	"github.com/lachiem1/dutycal/internal/daybook"
	"github.com/lachiem1/dutycal/internal/storage"
	"github.com/lachiem1/dutycal/internal/tui"
)

func main() {
	cmd := &cli.Command{
		Name:   "dutycal",
		Usage:  "Shift-duty calendar with per-day transactions and schedule notes",
		Action: runTUI,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "<user config dir>/dutycal/config.yaml",
				Sources:     cli.EnvVars("DUTYCAL_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "ephemeral",
				Usage: "Keep data in memory only; nothing is read from or written to disk",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "shift",
				Usage:     "Print the duty label for a date (today by default)",
				ArgsUsage: "[YYYY-MM-DD]",
				Action:    runShift,
			},
			{
				Name:   "wipe",
				Usage:  "Remove the local database files",
				Action: runWipe,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "forget-key",
						Usage: "Also remove the secure-mode key from the OS keychain",
					},
				},
			},
			{
				Name:   "export",
				Usage:  "Print the stored daybook as JSON",
				Action: runExport,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "dutycal: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cli.Command) (*config.Config, string, error) {
	path := strings.TrimSpace(cmd.String("config"))
	explicit := path != ""
	if !explicit {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, "", err
		}
	}
	if explicit {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("config file not found: %s", path)
		}
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, path, nil
}

// openLogger writes JSON logs to a file; the TUI owns stdout.
func openLogger(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	path, err := cfg.ResolvedPath()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: cfg.Level}))
	return logger, f, nil
}

func runTUI(ctx context.Context, cmd *cli.Command) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("dutycal needs an interactive terminal; use 'dutycal shift' or 'dutycal export' in scripts")
	}

	cfg, cfgPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := openLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	cycle, err := cfg.Shift.Cycle()
	if err != nil {
		return fmt.Errorf("build shift cycle: %w", err)
	}

	info := tui.Info{ConfigPath: cfgPath}
	var kv storage.KV
	if cmd.Bool("ephemeral") {
		kv = storage.NewMemoryKV()
		info.StorageMode = "memory"
		info.StoragePath = "(not persisted)"
	} else {
		db, resolved, err := storage.Open(ctx, cfg.Storage.Resolved(), logger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		kv = storage.NewKVRepo(db)
		info.StorageMode = string(resolved.Mode)
		info.StoragePath = resolved.Path
	}

	repo := storage.NewDaybookRepo(kv, logger)
	loadCtx, cancel := context.WithTimeout(ctx, app.DefaultSaveTimeout)
	store := repo.Load(loadCtx)
	cancel()

	ctrl := app.New(store, repo, cycle,
		app.WithLabels(cfg.Display.Labels()),
		app.WithLogger(logger),
	)

	logger.Info("starting tui", slog.String("config", cfgPath), slog.String("storage", info.StorageMode))
	program := tea.NewProgram(tui.New(ctrl, info, logger), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func runShift(_ context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cycle, err := cfg.Shift.Cycle()
	if err != nil {
		return fmt.Errorf("build shift cycle: %w", err)
	}

	date := time.Now()
	if raw := strings.TrimSpace(cmd.Args().First()); raw != "" {
		date, err = daybook.ParseKey(raw)
		if err != nil {
			return err
		}
	}
	fmt.Printf("%s %s\n", daybook.KeyFor(date), cycle.LabelFor(date))
	return nil
}

func runWipe(_ context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	resolved, err := storage.Wipe(cfg.Storage.Resolved())
	if err != nil {
		return err
	}
	fmt.Printf("local database wiped: %s\n", resolved.Path)

	if cmd.Bool("forget-key") {
		if err := auth.RemoveDBKey(); err != nil {
			return fmt.Errorf("remove db key: %w", err)
		}
		fmt.Println("secure-mode key removed from keychain.")
	}
	return nil
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := openLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	db, _, err := storage.Open(ctx, cfg.Storage.Resolved(), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	store := storage.NewDaybookRepo(storage.NewKVRepo(db), logger).Load(ctx)
	out, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("encode daybook: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
