// Package app собирает общие зависимости сервиса и бота из конфига.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivay00001/Reality-Lab/api/internal/collector"
	"github.com/Shivay00001/Reality-Lab/api/internal/config"
	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
	"github.com/Shivay00001/Reality-Lab/api/internal/forensic/gemini"
	"github.com/Shivay00001/Reality-Lab/api/internal/forensic/googleai"
	"github.com/Shivay00001/Reality-Lab/api/internal/preview"
	"github.com/Shivay00001/Reality-Lab/api/internal/session"
	"github.com/Shivay00001/Reality-Lab/api/internal/store"
)

type App struct {
	Config   *config.Config
	Log      *slog.Logger
	Engines  *forensic.Engines
	Sessions *session.Manager
	// Reports и DB равны nil, если база не настроена
	Reports *store.ReportRepo
	DB      *sql.DB
}

func Build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	profiles := forensic.DefaultProfiles()
	if cfg.ProfilesPath != "" {
		p, err := forensic.LoadProfiles(cfg.ProfilesPath)
		if err != nil {
			return nil, err
		}
		profiles = p
		log.Info("profiles loaded", "path", cfg.ProfilesPath)
	}

	primary := googleai.New(cfg.GeminiAPIKey, cfg.GeminiModel).WithLogger(log)
	if cfg.GeminiBaseURL != "" {
		primary = primary.WithBaseURL(cfg.GeminiBaseURL)
	}
	sdk := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel).WithLogger(log)

	engs := forensic.NewEngines(cfg.Engine, primary, sdk)
	def, err := engs.Default()
	if err != nil {
		return nil, fmt.Errorf("FORENSIC_ENGINE: %w", err)
	}

	a := &App{Config: cfg, Log: log, Engines: engs}
	opts := session.Options{
		Profiles:  profiles,
		Collector: collector.New(profiles),
		Previews:  preview.NewRegistry(),
		Logger:    log,
	}

	if dsn := store.ResolveDSN(cfg.DatabaseURL); dsn != "" {
		db, err := store.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.DB = db
		a.Reports = store.NewReportRepo(db)
		opts.OnComplete = a.Reports.Archive(log)
		log.Info("db connected", "dsn", store.SafeDSNSummary(dsn))
	} else {
		log.Info("report archive disabled: DATABASE_URL is empty")
	}

	a.Sessions = session.NewManager(opts)
	log.Info("engines ready", "default", def.Name(), "model", def.GetModel(), "available", engs.Names())
	return a, nil
}

// RunJanitor периодически удаляет простаивающие сессии и старые отчёты архива.
func (a *App) RunJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if n := a.Sessions.Sweep(a.Config.SessionTTL); n > 0 {
			a.Log.Info("sessions swept", "count", n, "left", a.Sessions.Len())
		}
		if a.Reports != nil && a.Config.ReportTTL > 0 {
			n, err := a.Reports.PurgeOlderThan(ctx, a.Config.ReportTTL)
			if err != nil {
				a.Log.Warn("purge reports", "err", err)
			} else if n > 0 {
				a.Log.Info("reports purged", "count", n)
			}
		}
	}
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
