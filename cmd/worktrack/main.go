package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/worktrack/internal/app"
	"github.com/nhle/worktrack/internal/docstore"
	"github.com/nhle/worktrack/internal/identity"
	"github.com/nhle/worktrack/internal/model"
	"github.com/nhle/worktrack/internal/sync"
	"github.com/nhle/worktrack/internal/theme"
)

// environment overrides parts of the configuration file.
type environment struct {
	ConfigPath string `env:"WORKTRACK_CONFIG"`
	Driver     string `env:"WORKTRACK_DRIVER"`
	DSN        string `env:"WORKTRACK_DSN"`
	Email      string `env:"WORKTRACK_EMAIL"`
	Theme      string `env:"WORKTRACK_THEME"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worktrack: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var e environment
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	cfg, err := loadConfig(e)
	if err != nil {
		return err
	}
	theme.Use(cfg.Display.Theme)

	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		f, err := tea.LogToFile(cfg.Log.File, "worktrack")
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
	}

	store, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	provider, err := identity.Open(cfg.Identity)
	if err != nil {
		return fmt.Errorf("opening keyring: %w", err)
	}
	if e.Email != "" {
		if _, err := provider.SignIn(e.Email); err != nil {
			return fmt.Errorf("signing in: %w", err)
		}
	}

	manager := sync.New(store, cfg.Sync.PollInterval())
	defer manager.Close()

	state := app.NewState(store, manager, cfg)
	p := tea.NewProgram(app.New(state, provider), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// loadConfig reads the configuration file, writing the defaults on first
// run, and applies environment overrides.
func loadConfig(e environment) (*model.AppConfig, error) {
	path := e.ConfigPath
	if path == "" {
		path = model.DefaultConfigPath()
	}

	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if err := model.SaveConfig(path, cfg); err != nil {
			log.Printf("worktrack: writing default config: %v", err)
		}
	}

	if e.Driver != "" {
		cfg.Store.Driver = e.Driver
	}
	if e.DSN != "" {
		cfg.Store.DSN = e.DSN
	}
	if e.Theme != "" {
		cfg.Display.Theme = e.Theme
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openStore opens the document store and declares its composite indexes.
func openStore(cfg model.StoreConfig) (*docstore.SQLStore, error) {
	if cfg.Driver == "sqlite" && cfg.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	store, err := docstore.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Driver, err)
	}

	ctx := context.Background()
	for _, idx := range cfg.Indexes {
		if err := store.EnsureIndex(ctx, idx.Collection, idx.Field, idx.OrderBy); err != nil {
			store.Close()
			return nil, fmt.Errorf("declaring index on %s.%s: %w", idx.Collection, idx.Field, err)
		}
	}
	return store, nil
}
