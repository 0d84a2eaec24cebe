package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"paymordomo/config"
)

func TestConnectRetriesUntilSuccess(t *testing.T) {
	mockDb, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDb.Close()

	calls := 0
	open := func(string) (*gorm.DB, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return gorm.Open(postgres.New(postgres.Config{Conn: mockDb, DriverName: "postgres"}), &gorm.Config{})
	}

	db, err := connect(context.Background(), open, "dsn", 5, time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, db)
	assert.Equal(t, 3, calls)
}

func TestConnectGivesUp(t *testing.T) {
	calls := 0
	open := func(string) (*gorm.DB, error) {
		calls++
		return nil, errors.New("connection refused")
	}

	_, err := connect(context.Background(), open, "dsn", 2, time.Millisecond, zap.NewNop())
	assert.ErrorContains(t, err, "after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestNewLoggerLevels(t *testing.T) {
	log, err := NewLogger(&config.Config{LogLevel: "error"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))

	log, err = NewLogger(&config.Config{LogLevel: "bogus"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = NewLogger(&config.Config{LogLevel: "debug", LogDev: true})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}
