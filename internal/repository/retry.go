package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Operation is a single store call that may be repeated.
type Operation func() error

// RetryPredicate decides whether an error is worth another attempt.
type RetryPredicate func(err error) bool

const (
	readRetries    = 1
	retryBaseDelay = 50 * time.Millisecond
)

// withRetries runs op once plus up to maxRetries more times while retryable(err).
func withRetries(ctx context.Context, op Operation, maxRetries int, retryable RetryPredicate) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries || !retryable(err) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * retryBaseDelay):
		}
	}
	return err
}

// readWithRetry 멱등 조회 전용. 연결 오류 시 한 번만 재시도.
func readWithRetry(ctx context.Context, op Operation) error {
	return withRetries(ctx, op, readRetries, IsTransient)
}

// IsTransient reports connectivity failures that are safe to retry for reads.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn)
}

// isWriteConflict reports MySQL deadlock (1213) and lock wait timeout (1205).
func isWriteConflict(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1213 || me.Number == 1205
	}
	return false
}
