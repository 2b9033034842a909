package postgres

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies the database migrations from the specified source URL
// (for example file://migrations) using the provided Data Source Name (DSN).
func RunMigrations(sourceURL string, dsn string) error {
	const op = "postgres.RunMigrations"

	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}

	return up(op, m)
}

// RunFSMigrations applies the migrations found in dir of fsys.
func RunFSMigrations(fsys fs.FS, dir string, dsn string) error {
	const op = "postgres.RunFSMigrations"

	source, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("%s: failed to open migrations source: %w", op, err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}

	return up(op, m)
}

func up(op string, m *migrate.Migrate) error {
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	return nil
}
