package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

func (db *DB) migrate(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations/"+db.driver)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	switch db.driver {
	case DriverSQLite:
		// Runs on the shared handle: a separate connection would see a
		// different ":memory:" database. The migrate instance is not closed
		// because closing the driver closes db.conn.
		driver, err := migratesqlite.WithInstance(db.conn, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("create sqlite driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", src, DriverSQLite, driver)
		if err != nil {
			return fmt.Errorf("create migrate instance: %w", err)
		}
		return up(m)

	case DriverPostgres:
		migrateDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return fmt.Errorf("open migration database: %w", err)
		}
		driver, err := migratepg.WithInstance(migrateDB, &migratepg.Config{})
		if err != nil {
			migrateDB.Close()
			return fmt.Errorf("create postgres driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", src, DriverPostgres, driver)
		if err != nil {
			migrateDB.Close()
			return fmt.Errorf("create migrate instance: %w", err)
		}
		defer m.Close()
		return up(m)
	}

	return fmt.Errorf("unsupported database driver %q", db.driver)
}

func up(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
