package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.trai.ch/zerr"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	ErrOpenFailed    = zerr.New("failed to open postgres")
	ErrMigrateFailed = zerr.New("failed to apply herd schema")
)

// Open abre una conexión pool a Postgres usando pgx (database/sql).
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	return db, nil
}

// schema es idempotente. weighings.seq conserva el orden de inserción para fechas iguales.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS animals (
		id              TEXT PRIMARY KEY,
		project_id      TEXT NOT NULL,
		code            TEXT NOT NULL,
		breed           TEXT NOT NULL DEFAULT '',
		sex             TEXT NOT NULL,
		is_breeder      BOOLEAN NOT NULL DEFAULT FALSE,
		father_id       TEXT NULL,
		mother_id       TEXT NULL,
		status          TEXT NOT NULL,
		entry_weight_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
		batch_id        TEXT NULL,
		birth_date      DATE NULL,
		archived_at     TIMESTAMPTZ NULL,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS animals_project_idx ON animals (project_id)`,
	`CREATE TABLE IF NOT EXISTS weighings (
		seq        BIGSERIAL,
		id         TEXT PRIMARY KEY,
		animal_id  TEXT NOT NULL,
		date       TIMESTAMPTZ NOT NULL,
		weight_kg  DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS weighings_animal_idx ON weighings (animal_id, date, seq)`,
	`CREATE TABLE IF NOT EXISTS batches (
		id                TEXT PRIMARY KEY,
		project_id        TEXT NOT NULL,
		name              TEXT NOT NULL,
		average_weight_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS batch_members (
		batch_id  TEXT NOT NULL REFERENCES batches (id) ON DELETE CASCADE,
		animal_id TEXT NOT NULL,
		position  INT NOT NULL,
		PRIMARY KEY (batch_id, animal_id)
	)`,
}

// Migrate crea las tablas del cheptel si no existen.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %w", ErrMigrateFailed, err)
		}
	}
	return nil
}
