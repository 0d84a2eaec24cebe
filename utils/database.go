package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenFunc opens a gorm connection. Swapped in tests.
type OpenFunc func(dsn string) (*gorm.DB, error)

func openPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// ConnectDB opens postgres, retrying with exponential backoff up to retries
// extra attempts.
func ConnectDB(ctx context.Context, dsn string, retries int, log *zap.Logger) (*gorm.DB, error) {
	return connect(ctx, openPostgres, dsn, retries, 500*time.Millisecond, log)
}

func connect(ctx context.Context, open OpenFunc, dsn string, retries int, initial time.Duration, log *zap.Logger) (*gorm.DB, error) {
	var db *gorm.DB
	operation := func() error {
		var err error
		db, err = open(dsn)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxElapsedTime = 0
	if retries < 0 {
		retries = 0
	}
	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx),
		func(err error, d time.Duration) {
			log.Warn("database connect failed, retrying", zap.Error(err), zap.Duration("backoff", d))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", retries+1, err)
	}
	return db, nil
}
