// Package migrations applies the versioned SQL files under migrations/ with
// golang-migrate. Those files are the schema of record outside development.
package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	DefaultDir   = "migrations"
	DefaultTable = "schema_migrations"
)

type migrator interface {
	Up() error
	Close() (sourceErr error, databaseErr error)
}

var driverFactory = func(db *sql.DB, cfg Config) (database.Driver, error) {
	return postgres.WithInstance(db, &postgres.Config{MigrationsTable: cfg.MigrationsTable})
}

var migratorFactory = func(sourceURL string, driver database.Driver) (migrator, error) {
	return migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
}

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Config struct {
	Dir             string
	MigrationsTable string
	Logger          Logger
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Dir) == "" {
		c.Dir = DefaultDir
	}
	if strings.TrimSpace(c.MigrationsTable) == "" {
		c.MigrationsTable = DefaultTable
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
	return c
}

// sourceURL turns dir into the file:// URL golang-migrate expects, escaping
// spaces and normalising separators.
func sourceURL(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("migrations: resolve dir: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// Check walks every version in dir and fails unless each one has a readable
// up and down file. It returns the versions in order.
func Check(dir string) ([]uint, error) {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultDir
	}
	srcURL, err := sourceURL(dir)
	if err != nil {
		return nil, err
	}

	src, err := source.Open(srcURL)
	if err != nil {
		return nil, fmt.Errorf("migrations: open %s: %w", dir, err)
	}
	defer src.Close()

	version, err := src.First()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("migrations: no migrations in %s", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("migrations: first version: %w", err)
	}

	var versions []uint
	for {
		if err := readPair(src, version); err != nil {
			return versions, err
		}
		versions = append(versions, version)

		next, err := src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			return versions, nil
		}
		if err != nil {
			return versions, fmt.Errorf("migrations: next after %d: %w", version, err)
		}
		version = next
	}
}

func readPair(src source.Driver, version uint) error {
	up, name, err := src.ReadUp(version)
	if err != nil {
		return fmt.Errorf("migrations: version %d has no up file: %w", version, err)
	}
	up.Close()

	down, _, err := src.ReadDown(version)
	if err != nil {
		return fmt.Errorf("migrations: %d_%s has no down file: %w", version, name, err)
	}
	return down.Close()
}

// Up applies pending migrations. golang-migrate takes no context, so a done
// ctx closes the migrator and Up returns ctx.Err() without waiting for it.
func Up(ctx context.Context, db *sql.DB, cfg Config) error {
	if db == nil {
		return fmt.Errorf("migrations: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg = cfg.withDefaults()

	srcURL, err := sourceURL(cfg.Dir)
	if err != nil {
		return err
	}

	driver, err := driverFactory(db, cfg)
	if err != nil {
		return fmt.Errorf("migrations: postgres driver: %w", err)
	}

	m, err := migratorFactory(srcURL, driver)
	if err != nil {
		return fmt.Errorf("migrations: init: %w", err)
	}

	var closeOnce sync.Once
	closeMigrator := func() {
		closeOnce.Do(func() {
			srcErr, dbErr := m.Close()
			if srcErr != nil {
				cfg.Logger.Warn("Migrations source close error", "error", srcErr)
			}
			if dbErr != nil {
				cfg.Logger.Warn("Migrations db close error", "error", dbErr)
			}
		})
	}
	defer closeMigrator()

	cfg.Logger.Info("Running SQL migrations", "source", srcURL, "table", cfg.MigrationsTable)

	done := make(chan error, 1)
	go func() { done <- m.Up() }()

	select {
	case <-ctx.Done():
		closeMigrator()
		return ctx.Err()
	case err := <-done:
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			cfg.Logger.Info("No migrations to apply")
			return nil
		case err != nil:
			return fmt.Errorf("migrations: up: %w", err)
		}
	}

	cfg.Logger.Info("Migrations applied successfully")
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
