package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nhle/order-dashboard/internal/app"
	"github.com/nhle/order-dashboard/internal/install"
	"github.com/nhle/order-dashboard/internal/metrics"
	"github.com/nhle/order-dashboard/internal/model"
	"github.com/nhle/order-dashboard/internal/store"
	"github.com/nhle/order-dashboard/internal/toast"
)

func resolveConfigPath(p string) string {
	if p == "" {
		return model.DefaultConfigPath()
	}
	return p
}

// loadEnv reads the configuration and opens the local store.
func loadEnv(configPath string) (*model.AppConfig, *store.SQLiteStore, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating store directory: %w", err)
	}
	st, err := store.NewSQLiteStore(cfg.StorePath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

func runDashboard(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	configPath = resolveConfigPath(configPath)

	if err := os.MkdirAll(model.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	logFile, err := tea.LogToFile(filepath.Join(model.ConfigDir(), "orderdash.log"), "orderdash")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	cfg, st, err := loadEnv(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, metrics.Router(reg)); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	m := app.New(cfg, app.Options{
		ConfigPath: configPath,
		Store:      st,
		Metrics:    rec,
		Alerter:    toast.BellAlerter{W: os.Stdout},
		Platform:   install.NewDesktopPlatform(),
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(app.Model); ok {
		fm.Stop()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
