package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	dbConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "plotcraft_db_connections",
			Help: "Database pool connections by state",
		},
		[]string{"state"},
	)

	dbQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plotcraft_db_queries_total",
			Help: "Database statements executed through gorm",
		},
		[]string{"operation", "table", "status"},
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plotcraft_db_query_duration_seconds",
			Help:    "Duration of database statements",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	dbErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plotcraft_db_errors_total",
			Help: "Database errors by origin",
		},
		[]string{"operation", "error_type"},
	)
)

const startedAtKey = "plotcraft:started_at"

// MetricsCollector publishes pool statistics and per-statement timings.
type MetricsCollector struct {
	db              *sql.DB
	logger          *logrus.Logger
	collectInterval time.Duration
}

func NewMetricsCollector(db *sql.DB, logger *logrus.Logger) *MetricsCollector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MetricsCollector{
		db:              db,
		logger:          logger,
		collectInterval: 15 * time.Second,
	}
}

// Start samples pool stats until ctx is done.
func (mc *MetricsCollector) Start(ctx context.Context) {
	mc.logger.Info("Starting database metrics collection")

	go func() {
		ticker := time.NewTicker(mc.collectInterval)
		defer ticker.Stop()

		mc.Collect()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mc.Collect()
			}
		}
	}()
}

// Collect samples the pool once.
func (mc *MetricsCollector) Collect() {
	stats := mc.db.Stats()

	dbConnections.WithLabelValues("idle").Set(float64(stats.Idle))
	dbConnections.WithLabelValues("in_use").Set(float64(stats.InUse))
	dbConnections.WithLabelValues("open").Set(float64(stats.OpenConnections))
	dbConnections.WithLabelValues("wait_count").Set(float64(stats.WaitCount))

	mc.logger.WithFields(logrus.Fields{
		"idle":   stats.Idle,
		"in_use": stats.InUse,
		"open":   stats.OpenConnections,
		"wait":   stats.WaitCount,
	}).Debug("Database connection pool stats collected")
}

// Instrument registers gorm callbacks that time every create, query, update
// and delete.
func (mc *MetricsCollector) Instrument(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		op := h.op
		if err := h.before("plotcraft:before_"+op, markStart); err != nil {
			return err
		}
		if err := h.after("plotcraft:after_"+op, func(tx *gorm.DB) { observe(op, tx) }); err != nil {
			return err
		}
	}
	return nil
}

func markStart(tx *gorm.DB) {
	tx.InstanceSet(startedAtKey, time.Now())
}

func observe(op string, tx *gorm.DB) {
	started, ok := tx.InstanceGet(startedAtKey)
	if !ok {
		return
	}
	var err error
	if tx.Error != nil && tx.Error != gorm.ErrRecordNotFound {
		err = tx.Error
	}
	RecordQuery(op, tx.Statement.Table, time.Since(started.(time.Time)), err)
}

// RecordQuery records one statement.
func RecordQuery(operation, table string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
		dbErrors.WithLabelValues(operation, "query_error").Inc()
	}
	dbQueries.WithLabelValues(operation, table, status).Inc()
	dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

func RecordConnectionError(errorType string) {
	dbErrors.WithLabelValues("connection", errorType).Inc()
}

// RecordMigration records a migration run under the migration operation.
func RecordMigration(direction string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
		dbErrors.WithLabelValues("migration", "migration_error").Inc()
	}
	dbQueries.WithLabelValues("migration", direction, status).Inc()
	if err == nil {
		dbQueryDuration.WithLabelValues("migration", direction).Observe(duration.Seconds())
	}
}
