package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// MigrationManager applies the SQL files under a migrations directory.
type MigrationManager struct {
	migrate *migrate.Migrate
	source  source.Driver
	path    string
	logger  *logrus.Logger
}

// NewMigrationManager opens the file source at migrationPath (default
// ./migrations) against db.
func NewMigrationManager(db *sql.DB, migrationPath string, logger *logrus.Logger) (*MigrationManager, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	path, err := resolveMigrationPath(migrationPath)
	if err != nil {
		return nil, err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	src, err := source.Open("file://" + path)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations at %s: %w", path, err)
	}

	m, err := migrate.NewWithInstance("file", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &MigrationManager{migrate: m, source: src, path: path, logger: logger}, nil
}

func resolveMigrationPath(path string) (string, error) {
	if path == "" {
		path = "./migrations"
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid migrations path %q: %w", path, err)
	}
	return abs, nil
}

func (mm *MigrationManager) Path() string {
	return mm.path
}

// Up applies every pending migration.
func (mm *MigrationManager) Up() error {
	mm.logger.Info("Starting database migration up")
	started := time.Now()

	err := mm.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		mm.logger.Info("No migrations to apply")
		return nil
	}
	RecordMigration("up", time.Since(started), err)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	mm.logger.Info("Database migrations completed successfully")
	return nil
}

// Steps applies n migrations, rolling back when n is negative.
func (mm *MigrationManager) Steps(n int) error {
	mm.logger.WithField("steps", n).Info("Migrating by steps")
	started := time.Now()

	err := mm.migrate.Steps(n)
	direction := "up"
	if n < 0 {
		direction = "down"
	}
	RecordMigration(direction, time.Since(started), err)
	if err != nil {
		return fmt.Errorf("failed to migrate %d steps: %w", n, err)
	}
	return nil
}

// Down rolls back the most recent migration.
func (mm *MigrationManager) Down() error {
	return mm.Steps(-1)
}

// MigrateTo moves the schema to version in either direction.
func (mm *MigrationManager) MigrateTo(version uint) error {
	mm.logger.Infof("Migrating to version %d", version)

	err := mm.migrate.Migrate(version)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate to version %d: %w", version, err)
	}
	return nil
}

// Version reports the applied version. A fresh database is version 0.
func (mm *MigrationManager) Version() (uint, bool, error) {
	version, dirty, err := mm.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Pending reports whether the source holds a migration newer than the
// applied version.
func (mm *MigrationManager) Pending() (bool, error) {
	version, dirty, err := mm.Version()
	if err != nil {
		return false, err
	}
	if dirty {
		return false, fmt.Errorf("database is in dirty state at version %d", version)
	}

	if version == 0 {
		_, err = mm.source.First()
	} else {
		_, err = mm.source.Next(version)
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read migration source: %w", err)
	}
	return true, nil
}

// ForceVersion marks version as applied without running it. Used to clear a
// dirty state after a manual fix.
func (mm *MigrationManager) ForceVersion(version uint) error {
	mm.logger.Warnf("Force setting migration version to %d", version)
	if err := mm.migrate.Force(int(version)); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

func (mm *MigrationManager) Close() error {
	sourceErr, dbErr := mm.migrate.Close()
	if sourceErr != nil || dbErr != nil {
		return fmt.Errorf("errors occurred while closing migrator: source=%v, db=%v", sourceErr, dbErr)
	}
	return nil
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)_.+\.(up|down)\.sql$`)

var nonIdentifier = regexp.MustCompile(`[^a-z0-9]+`)

// CreateMigrationFile writes an empty up/down pair numbered after the highest
// existing migration and returns the up file path.
func CreateMigrationFile(migrationPath, name string) (string, error) {
	slug := strings.Trim(nonIdentifier.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(migrationPath, 0o755); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(migrationPath)
	if err != nil {
		return "", err
	}
	var next uint64 = 1
	for _, entry := range entries {
		match := migrationFilePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		if n, err := strconv.ParseUint(match[1], 10, 64); err == nil && n >= next {
			next = n + 1
		}
	}

	base := filepath.Join(migrationPath, fmt.Sprintf("%06d_%s", next, slug))
	up := base + ".up.sql"
	for _, file := range []string{up, base + ".down.sql"} {
		if err := os.WriteFile(file, nil, 0o644); err != nil {
			return "", err
		}
	}
	return up, nil
}
