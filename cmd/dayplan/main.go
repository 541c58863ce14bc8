package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mflores/dayplan/internal/app"
	"github.com/mflores/dayplan/internal/auth"
	"github.com/mflores/dayplan/internal/calendar"
	"github.com/mflores/dayplan/internal/kv"
	"github.com/mflores/dayplan/internal/model"
	"github.com/mflores/dayplan/internal/remote"
	"github.com/mflores/dayplan/internal/session"
	"github.com/mflores/dayplan/internal/store"
	"github.com/mflores/dayplan/internal/watch"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	authn, tasks, err := buildBackend(cfg, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	defer tasks.Close()
	defer authn.Close()

	holder := session.NewHolder(authn)
	defer holder.Close()

	watcher := watch.New(tasks, time.Duration(cfg.Remote.PollIntervalSec)*time.Second)

	loc := calendar.LocaleFor(cfg.Locale)
	root := app.New(authn, tasks, holder, watcher, loc, cfg.Backend == model.BackendLocal)

	p := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running program: %v\n", err)
		os.Exit(1)
	}
}

// buildBackend wires the authenticator and task store for the configured
// backend.
func buildBackend(cfg *model.AppConfig, configPath string) (auth.Authenticator, store.TaskStore, error) {
	if cfg.Backend == model.BackendRemote {
		client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.AnonKey)
		return auth.NewRemoteAuthenticator(client, nil), store.NewRemoteStore(client), nil
	}

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database %s: %w", cfg.DBPath, err)
	}

	statePath := filepath.Join(filepath.Dir(configPath), "state.json")
	state, err := kv.Open(statePath)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("opening state file %s: %w", statePath, err)
	}

	return auth.NewLocalAuthenticator(db, state), db, nil
}
