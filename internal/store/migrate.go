package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// OpenDB opens a database/sql handle on the pgx driver, as goose requires.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func useMigrations() error {
	goose.SetBaseFS(migrationsFS)
	return goose.SetDialect("postgres")
}

// Migrate applies all pending schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	if err := useMigrations(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	if err := useMigrations(); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("roll back migration: %w", err)
	}
	return nil
}

// MigrationStatus logs the applied state of every migration through goose's
// logger.
func MigrationStatus(ctx context.Context, db *sql.DB) error {
	if err := useMigrations(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, db, migrationsDir)
}
