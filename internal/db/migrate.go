package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func setupGoose() error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	dir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("locating migrations: %w", err)
	}
	goose.SetBaseFS(dir)
	return nil
}

func Migrate(conn *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	if err := goose.Up(conn, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("migrations up to date")
	return nil
}

func MigrateDown(conn *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	if err := goose.Down(conn, "."); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	slog.Info("rolled back one migration")
	return nil
}

func MigrationStatus(conn *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	return goose.Status(conn, ".")
}
