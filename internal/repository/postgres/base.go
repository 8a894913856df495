package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/medbridge/portal-api/pkg/errors"
	"github.com/medbridge/portal-api/pkg/metrics"
)

const defaultQueryTimeout = 5 * time.Second

// BaseRepository provides common functionality for all repositories:
// bounded query timeouts, operation metrics and transactions.
type BaseRepository struct {
	db      *sqlx.DB
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewBaseRepository creates a new base repository. metrics may be nil.
func NewBaseRepository(db *sqlx.DB, timeout time.Duration, m *metrics.Metrics) BaseRepository {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return BaseRepository{db: db, timeout: timeout, metrics: m}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// do bounds a store call with the configured timeout and records metrics.
// A deadline expiry surfaces as a retryable Unavailable, never a hang.
func (r *BaseRepository) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)

	if r.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		r.metrics.DatabaseOperations.WithLabelValues(op, status).Inc()
		r.metrics.DatabaseLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Unavailable(err)
	}
	return err
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
