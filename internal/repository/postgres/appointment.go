package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/internal/repository"
)

const appointmentColumns = `
	id, patient_id, doctor_id, requested_at, confirmed_at, status,
	risk_level, risk_diabetes, risk_hypertension, notes,
	created_at, updated_at
`

func (r *appointmentRepository) Create(ctx context.Context, apt *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, requested_at, status,
			risk_level, risk_diabetes, risk_hypertension, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	apt.ID = uuid.New()
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = apt.CreatedAt

	return r.do(ctx, "appointment_create", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, query,
			apt.ID,
			apt.PatientID,
			apt.DoctorID,
			apt.RequestedAt,
			apt.Status,
			apt.Level,
			apt.DiabetesPct,
			apt.HypertensionPct,
			apt.Notes,
			apt.CreatedAt,
			apt.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return nil
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var apt model.Appointment
	err := r.do(ctx, "appointment_get", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &apt, query, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) ListPendingForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND status = $2
		ORDER BY requested_at ASC, created_at ASC
	`
	var appointments []*model.Appointment
	err := r.do(ctx, "appointment_list_pending", func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &appointments, query, doctorID, model.AppointmentStatusPending)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1
		ORDER BY requested_at DESC
	`
	var appointments []*model.Appointment
	err := r.do(ctx, "appointment_list_patient", func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &appointments, query, patientID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list patient appointments: %w", err)
	}
	return appointments, nil
}

// TransitionStatus is deliberately a single conditional UPDATE, not a
// read-then-write: two concurrent transitions on the same appointment
// cannot both succeed, and confirmed_at is written at most once.
func (r *appointmentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, to model.AppointmentStatus, from []model.AppointmentStatus) (*model.Appointment, error) {
	query := `
		UPDATE appointments
		SET status = $2,
			confirmed_at = CASE
				WHEN $2 = 'confirmed' AND confirmed_at IS NULL THEN NOW()
				ELSE confirmed_at
			END,
			updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
		RETURNING ` + appointmentColumns

	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}

	var apt model.Appointment
	err := r.do(ctx, "appointment_transition", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &apt, query, id, to, pq.Array(statuses))
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition appointment: %w", err)
	}
	return &apt, nil
}
