// Package migration applies versioned SQL migrations with golang-migrate.
//
// Migration files follow VERSION_name.up.sql / VERSION_name.down.sql and are
// read from any fs.FS, usually an embed.FS next to the code that owns the
// tables.
package migration

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/kbukum/voxrelay/database"
)

// Up applies every pending migration under dir. No pending migrations is
// not an error.
func Up(db *database.DB, fsys fs.FS, dir string) error {
	m, err := newMigrator(db, fsys, dir)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back every applied migration.
func Down(db *database.DB, fsys fs.FS, dir string) error {
	m, err := newMigrator(db, fsys, dir)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Version returns the applied version and whether the last run left the
// schema dirty. It returns migrate.ErrNilVersion before the first migration.
func Version(db *database.DB, fsys fs.FS, dir string) (uint, bool, error) {
	m, err := newMigrator(db, fsys, dir)
	if err != nil {
		return 0, false, err
	}
	return m.Version()
}

// newMigrator builds a migrator over db's pool. The migrator is never
// closed because that would close the shared pool.
func newMigrator(db *database.DB, fsys fs.FS, dir string) (*migrate.Migrate, error) {
	sqlDB, err := db.SQL()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("create migrate driver: %w", err)
	}
	source, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
