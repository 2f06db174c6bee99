package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/plotcraft/backend-go/internal/config"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Database bundles the gorm handle with its health checker and metrics.
type Database struct {
	db            *gorm.DB
	sqlDB         *sql.DB
	healthChecker *HealthChecker
	metrics       *MetricsCollector
}

// NewDatabase opens, migrates and instruments the configured database.
func NewDatabase(cfg *config.Config, logger *logrus.Logger) (*Database, error) {
	db, err := Open(cfg.Database, cfg.Server.Env)
	if err != nil {
		RecordConnectionError("open")
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return Wrap(db, logger)
}

// Wrap instruments an existing gorm handle.
func Wrap(db *gorm.DB, logger *logrus.Logger) (*Database, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}

	metrics := NewMetricsCollector(sqlDB, logger)
	if err := metrics.Instrument(db); err != nil {
		return nil, fmt.Errorf("failed to register query metrics: %w", err)
	}

	return &Database{
		db:            db,
		sqlDB:         sqlDB,
		healthChecker: NewHealthChecker(sqlDB, logger),
		metrics:       metrics,
	}, nil
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}

func (d *Database) Close() error {
	d.healthChecker.Stop()
	return d.sqlDB.Close()
}

// HealthCheck trusts the background checker when it reports healthy and pings
// otherwise.
func (d *Database) HealthCheck(ctx context.Context) error {
	if d.healthChecker.IsHealthy() {
		return nil
	}
	return d.healthChecker.Check(ctx)
}

// StartMonitoring runs the health checker and pool sampler until ctx is done.
func (d *Database) StartMonitoring(ctx context.Context) {
	d.healthChecker.Start(ctx)
	d.metrics.Start(ctx)
}

func (d *Database) HealthStatus() HealthCheckResult {
	return d.healthChecker.GetHealthResult()
}
