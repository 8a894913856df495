package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/internal/repository"
)

const notificationColumns = `
	id, patient_id, appointment_id, doctor_id, doctor_name,
	doctor_specialty, type, title, body, payload, read, pinned, created_at
`

func (r *notificationRepository) CreateWithEvent(ctx context.Context, n *model.Notification, evt *model.OutboxEvent) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()

	evt.ID = uuid.New()
	evt.Status = model.OutboxStatusPending
	evt.CreatedAt = n.CreatedAt

	return r.do(ctx, "notification_create", func(ctx context.Context) error {
		return r.WithTx(ctx, func(tx *sqlx.Tx) error {
			notifQuery := `
				INSERT INTO notifications (` + notificationColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			`
			if _, err := tx.ExecContext(ctx, notifQuery,
				n.ID, n.PatientID, n.AppointmentID, n.DoctorID, n.DoctorName,
				n.DoctorSpecialty, n.Type, n.Title, n.Body, n.Payload,
				n.Read, n.Pinned, n.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to create notification: %w", err)
			}

			eventQuery := `
				INSERT INTO outbox_events (id, event_type, payload, status, created_at)
				VALUES ($1, $2, $3, $4, $5)
			`
			if _, err := tx.ExecContext(ctx, eventQuery,
				evt.ID, evt.EventType, evt.Payload, evt.Status, evt.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to create outbox event: %w", err)
			}
			return nil
		})
	})
}

func (r *notificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	var n model.Notification
	err := r.do(ctx, "notification_get", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &n, query, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE patient_id = $1
		ORDER BY pinned DESC, created_at DESC
	`
	var notifications []*model.Notification
	err := r.do(ctx, "notification_list", func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &notifications, query, patientID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) SetFlags(ctx context.Context, id uuid.UUID, read, pinned *bool) (*model.Notification, error) {
	query := `
		UPDATE notifications
		SET read = COALESCE($2, read),
			pinned = COALESCE($3, pinned)
		WHERE id = $1
		RETURNING ` + notificationColumns

	var n model.Notification
	err := r.do(ctx, "notification_set_flags", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &n, query, id, read, pinned)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM notifications WHERE id = $1`

	return r.do(ctx, "notification_delete", func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, query, id)
		if err != nil {
			return fmt.Errorf("failed to delete notification: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNoRows
		}
		return nil
	})
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, patientID uuid.UUID) (int64, error) {
	// Conditional on read != true so the count reports rows actually
	// changed, not rows requested.
	query := `
		UPDATE notifications
		SET read = TRUE
		WHERE patient_id = $1 AND read = FALSE
	`
	var updated int64
	err := r.do(ctx, "notification_mark_all_read", func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, query, patientID)
		if err != nil {
			return fmt.Errorf("failed to mark notifications read: %w", err)
		}
		updated, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		return nil
	})
	return updated, err
}
