package database

import (
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/tiago-cos/prosa-sub000/migrations"
)

var migrationDirs = map[string]string{
	DriverPostgres: "postgresql",
	DriverMySQL:    "mysql",
	DriverSQLite:   "sqlite",
}

// NewMigrate creates a migrate instance over the embedded migrations of driver.
// connectionString is the same DSN given to Connect.
func NewMigrate(driver, connectionString string) (*migrate.Migrate, error) {
	dir, ok := migrationDirs[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	source, err := iofs.New(migrations.FS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrationURL(driver, connectionString))
	if err != nil {
		_ = source.Close()
		return nil, err
	}
	return m, nil
}

// migrationURL turns a driver DSN into the URL form golang-migrate expects.
func migrationURL(driver, connectionString string) string {
	switch driver {
	case DriverMySQL:
		if !strings.HasPrefix(connectionString, "mysql://") {
			return "mysql://" + connectionString
		}
	case DriverSQLite:
		if !strings.HasPrefix(connectionString, "sqlite://") {
			return "sqlite://" + connectionString
		}
	}
	return connectionString
}
