package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medbridge/portal-api/internal/model"
)

func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		SELECT id, event_type, payload, status, error_message, created_at, processed_at
		FROM outbox_events
		WHERE status = $1
		ORDER BY created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT $2
	`
	var events []*model.OutboxEvent
	err := r.do(ctx, "outbox_get_pending", func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &events, query, model.OutboxStatusPending, limit)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE outbox_events
		SET status = $2, processed_at = NOW(), error_message = NULL
		WHERE id = $1
	`
	return r.do(ctx, "outbox_mark_processed", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, query, id, model.OutboxStatusProcessed)
		if err != nil {
			return fmt.Errorf("failed to mark event processed: %w", err)
		}
		return nil
	})
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	query := `
		UPDATE outbox_events
		SET status = $2, error_message = $3
		WHERE id = $1
	`
	return r.do(ctx, "outbox_mark_failed", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, query, id, model.OutboxStatusFailed, errMsg)
		if err != nil {
			return fmt.Errorf("failed to mark event failed: %w", err)
		}
		return nil
	})
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = $1 AND processed_at < $2
	`
	var deleted int64
	err := r.do(ctx, "outbox_delete_processed", func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, query, model.OutboxStatusProcessed, before)
		if err != nil {
			return fmt.Errorf("failed to delete processed events: %w", err)
		}
		deleted, err = result.RowsAffected()
		return err
	})
	return deleted, err
}
