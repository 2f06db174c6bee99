package database

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HealthChecker pings the database periodically and remembers the outcome.
type HealthChecker struct {
	db            *sql.DB
	logger        *logrus.Logger
	checkInterval time.Duration
	pingTimeout   time.Duration
	retryDelay    time.Duration
	maxRetries    int

	mu        sync.RWMutex
	healthy   bool
	lastCheck time.Time
	lastError error
	latency   time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
}

type HealthCheckResult struct {
	Healthy      bool      `json:"healthy"`
	LastCheck    time.Time `json:"last_check"`
	LastError    string    `json:"last_error,omitempty"`
	ResponseTime string    `json:"response_time,omitempty"`
}

func NewHealthChecker(db *sql.DB, logger *logrus.Logger) *HealthChecker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HealthChecker{
		db:            db,
		logger:        logger,
		checkInterval: 30 * time.Second,
		pingTimeout:   5 * time.Second,
		retryDelay:    5 * time.Second,
		maxRetries:    3,
	}
}

func (hc *HealthChecker) SetCheckInterval(interval time.Duration) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checkInterval = interval
}

func (hc *HealthChecker) SetRetryConfig(delay time.Duration, maxRetries int) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.retryDelay = delay
	hc.maxRetries = maxRetries
}

// Start runs checks in the background until ctx is done or Stop is called.
// Calling Start on a running checker is a no-op.
func (hc *HealthChecker) Start(ctx context.Context) {
	hc.mu.Lock()
	if hc.cancel != nil {
		hc.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	hc.cancel = cancel
	hc.done = make(chan struct{})
	interval := hc.checkInterval
	done := hc.done
	hc.mu.Unlock()

	hc.logger.Info("Starting database health checker")

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		hc.checkAndRetry(ctx)
		for {
			select {
			case <-ctx.Done():
				hc.logger.Info("Database health checker stopped")
				return
			case <-ticker.C:
				hc.checkAndRetry(ctx)
			}
		}
	}()
}

// Stop halts background checks and waits for the loop to exit.
func (hc *HealthChecker) Stop() {
	hc.mu.Lock()
	cancel, done := hc.cancel, hc.done
	hc.cancel, hc.done = nil, nil
	hc.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Check pings once and records the result.
func (hc *HealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, hc.pingTimeout)
	defer cancel()

	start := time.Now()
	err := hc.db.PingContext(ctx)
	elapsed := time.Since(start)

	hc.mu.Lock()
	wasHealthy := hc.healthy
	hc.lastCheck = time.Now()
	hc.latency = elapsed
	hc.lastError = err
	hc.healthy = err == nil
	hc.mu.Unlock()

	fields := logrus.Fields{"response_time": elapsed}
	switch {
	case err != nil:
		fields["error"] = err.Error()
		hc.logger.WithFields(fields).Warn("Database health check failed")
	case !wasHealthy:
		hc.logger.WithFields(fields).Info("Database connection healthy")
	default:
		hc.logger.WithFields(fields).Debug("Database health check passed")
	}
	return err
}

func (hc *HealthChecker) checkAndRetry(ctx context.Context) {
	if err := hc.Check(ctx); err == nil {
		return
	}

	hc.mu.RLock()
	delay, retries := hc.retryDelay, hc.maxRetries
	hc.mu.RUnlock()

	for attempt := 1; attempt <= retries; attempt++ {
		hc.logger.WithField("attempt", attempt).Info("Retrying database connection")
		select {
		case <-time.After(delay * time.Duration(attempt)):
			if err := hc.Check(ctx); err == nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
	hc.logger.Error("Database connection failed after all retries")
}

func (hc *HealthChecker) IsHealthy() bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.healthy
}

func (hc *HealthChecker) GetHealthResult() HealthCheckResult {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	result := HealthCheckResult{
		Healthy:   hc.healthy,
		LastCheck: hc.lastCheck,
	}
	if hc.lastError != nil {
		result.LastError = hc.lastError.Error()
	}
	if !hc.lastCheck.IsZero() {
		result.ResponseTime = hc.latency.String()
	}
	return result
}

// WaitForHealthy blocks until a check has succeeded or timeout elapses.
func (hc *HealthChecker) WaitForHealthy(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		if hc.IsHealthy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
