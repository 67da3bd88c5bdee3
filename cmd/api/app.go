package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"go.trai.ch/zerr"

	"herd-marketplace/cmd/api/commands"
	pg "herd-marketplace/internal/adapters/storage/postgres"
	"herd-marketplace/internal/adapters/storage/sqlite"
	"herd-marketplace/internal/cache"
	"herd-marketplace/internal/domain/marketplace"
	"herd-marketplace/internal/platform/config"
	"herd-marketplace/internal/platform/logger"
	"herd-marketplace/internal/router"
)

var (
	ErrNoDatabase   = zerr.New("DB_DSN is not configured")
	ErrNoCacheStore = zerr.New("CACHE_SQLITE_PATH is not configured")
)

const shutdownTimeout = 10 * time.Second

// application implementa commands.Application sobre la config cargada.
type application struct {
	cfg config.Config
	log logger.Logger
}

var _ commands.Application = (*application)(nil)

func newApplication(cfg config.Config, log logger.Logger) *application {
	return &application{cfg: cfg, log: log}
}

func (a *application) Serve(ctx context.Context) error {
	opts := router.Options{Config: a.cfg, Logger: a.log}

	// Postgres si hay DSN; si no, in-memory (modo dev)
	if a.cfg.Database.DSN != "" {
		db, err := openDB(ctx, a.cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.DB = db
	}

	if a.cfg.Cache.SQLitePath != "" {
		kv, err := sqlite.Open(a.cfg.Cache.SQLitePath)
		if err != nil {
			return err
		}
		defer kv.Close()
		opts.KVStore = kv
	}

	app, err := router.New(opts)
	if err != nil {
		return err
	}

	poller := marketplace.NewPoller(a.cfg.Marketplace.PollInterval, func(ctx context.Context) error {
		_, err := app.Marketplace.Refresh(ctx)
		return err
	}, a.log)
	poller.Start(ctx)
	defer poller.Stop()

	srv := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      app.Handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *application) Migrate(ctx context.Context) error {
	if a.cfg.Database.DSN == "" {
		return ErrNoDatabase
	}
	db, err := openDB(ctx, a.cfg.Database.DSN)
	if err != nil {
		return err
	}
	return db.Close()
}

func (a *application) CompactCache(ctx context.Context) error {
	if a.cfg.Cache.SQLitePath == "" {
		return ErrNoCacheStore
	}
	kv, err := sqlite.Open(a.cfg.Cache.SQLitePath)
	if err != nil {
		return err
	}
	defer kv.Close()

	cache.NewBackend(kv, cache.Options{
		TTL:        a.cfg.Cache.TTL,
		MaxEntries: a.cfg.Cache.MaxEntries,
		Logger:     a.log,
	}).Compact(ctx)
	return nil
}

// openDB abre Postgres y aplica el esquema (idempotente).
func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := pg.Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
