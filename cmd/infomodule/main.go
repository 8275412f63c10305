package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/nhle/info-module/internal/api"
	"github.com/nhle/info-module/internal/app"
	"github.com/nhle/info-module/internal/credential"
	"github.com/nhle/info-module/internal/logging"
	"github.com/nhle/info-module/internal/model"
	"github.com/nhle/info-module/internal/notice"
	"github.com/nhle/info-module/internal/session"
	"github.com/nhle/info-module/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "infomodule:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.String("config", model.DefaultConfigPath(), "path to the YAML config file")
	baseURL := pflag.String("base-url", "", "backend base URL, overrides the config file")
	logLevel := pflag.String("log-level", "", "log level (debug, info, warn, error)")
	saveConfig := pflag.Bool("save-config", false, "write the effective settings to the config file and exit")
	pflag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	cfg.ApplyOverrides(*baseURL, *logLevel)

	if *saveConfig {
		if err := model.SaveConfig(*configPath, cfg); err != nil {
			return err
		}
		fmt.Println("saved settings to", *configPath)
		return nil
	}

	log, logFile, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log.Info().Str("baseURL", cfg.API.BaseURL).Msg("application configuration loaded")

	dataDir := filepath.Dir(cfg.Storage.DBPath)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if n, err := st.PurgeExpired(context.Background()); err != nil {
		log.Warn().Err(err).Msg("failed to purge expired state")
	} else if n > 0 {
		log.Debug().Int64("rows", n).Msg("purged expired state")
	}

	ring, err := credential.Open(dataDir)
	if err != nil {
		return err
	}
	tokens := credential.NewTokenStore(ring)

	client := api.NewClient(cfg.API.BaseURL, tokens, time.Duration(cfg.API.TimeoutSec)*time.Second, log)

	mgr := session.NewManager(session.ConfigFrom(cfg.Session), session.Deps{
		Auth:          api.NewAuthService(client),
		Notifications: api.NewNotificationService(client),
		Notices:       api.NewNoticeService(client),
		Tokens:        tokens,
		Tracker:       notice.NewTracker(st),
		Unauthorized:  client,
		Log:           log,
	})
	defer mgr.Dispose()

	p := tea.NewProgram(app.New(mgr, cfg.Session), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}

	log.Info().Msg("application stopped")
	return nil
}
