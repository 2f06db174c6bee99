package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPingMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestHealthChecker_Basic(t *testing.T) {
	db, mock := newPingMock(t)
	mock.ExpectPing()

	checker := NewHealthChecker(db, quietLogger())
	require.NoError(t, checker.Check(context.Background()))
	assert.True(t, checker.IsHealthy())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthChecker_FailureAndRecovery(t *testing.T) {
	db, mock := newPingMock(t)
	checker := NewHealthChecker(db, quietLogger())
	ctx := context.Background()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, checker.Check(ctx))
	assert.False(t, checker.IsHealthy())
	assert.Equal(t, "connection refused", checker.GetHealthResult().LastError)

	mock.ExpectPing()
	assert.NoError(t, checker.Check(ctx))
	assert.True(t, checker.IsHealthy())
	assert.Empty(t, checker.GetHealthResult().LastError)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthChecker_BackgroundMonitoring(t *testing.T) {
	db, mock := newPingMock(t)
	mock.ExpectPing()

	checker := NewHealthChecker(db, quietLogger())
	checker.SetCheckInterval(time.Hour)

	checker.Start(context.Background())
	require.NoError(t, checker.WaitForHealthy(context.Background(), time.Second))
	checker.Stop()
	checker.Stop()

	assert.True(t, checker.IsHealthy())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthChecker_ResultBeforeFirstCheck(t *testing.T) {
	db, _ := newPingMock(t)
	checker := NewHealthChecker(db, nil)

	result := checker.GetHealthResult()
	assert.False(t, result.Healthy)
	assert.True(t, result.LastCheck.IsZero())
	assert.Empty(t, result.ResponseTime)
}

func TestHealthChecker_WaitForHealthy(t *testing.T) {
	db, mock := newPingMock(t)
	checker := NewHealthChecker(db, quietLogger())
	ctx := context.Background()

	mock.ExpectPing().WillReturnError(errors.New("starting up"))
	require.Error(t, checker.Check(ctx))

	assert.ErrorIs(t, checker.WaitForHealthy(ctx, 50*time.Millisecond), context.DeadlineExceeded)

	mock.ExpectPing()
	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = checker.Check(ctx)
	}()

	assert.NoError(t, checker.WaitForHealthy(ctx, time.Second))
	assert.NoError(t, mock.ExpectationsWereMet())
}
