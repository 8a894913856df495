package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medbridge/portal-api/internal/model"
)

// ErrNoRows is returned when a lookup or conditional write matched
// nothing. Services translate it into NotFound or InvalidTransition.
var ErrNoRows = errors.New("no rows matched")

type AppointmentRepository interface {
	Create(ctx context.Context, apt *model.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	ListPendingForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
	// TransitionStatus performs a single conditional update: status moves
	// to `to` only if the current status is one of `from`. confirmed_at is
	// set server-side, only when entering confirmed for the first time.
	// Returns ErrNoRows when no row satisfied the condition.
	TransitionStatus(ctx context.Context, id uuid.UUID, to model.AppointmentStatus, from []model.AppointmentStatus) (*model.Appointment, error)
}

type NotificationRepository interface {
	// CreateWithEvent inserts the notification and its outbox event in one
	// transaction so realtime delivery can only follow a committed record.
	CreateWithEvent(ctx context.Context, n *model.Notification, evt *model.OutboxEvent) error
	Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Notification, error)
	SetFlags(ctx context.Context, id uuid.UUID, read, pinned *bool) (*model.Notification, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// MarkAllRead flips read on the patient's unread notifications and
	// returns the number of rows actually changed.
	MarkAllRead(ctx context.Context, patientID uuid.UUID) (int64, error)
}

type AISummaryRepository interface {
	Upsert(ctx context.Context, summary *model.AISummary) error
	Get(ctx context.Context, patientID uuid.UUID) (*model.AISummary, error)
}

type ClinicalRepository interface {
	CreateVitals(ctx context.Context, v *model.VitalsRecord) error
	CreateLabReport(ctx context.Context, r *model.LabReport) error
	GetLatestVitals(ctx context.Context, patientID uuid.UUID) (*model.VitalsRecord, error)
	GetLatestLabReport(ctx context.Context, patientID uuid.UUID) (*model.LabReport, error)
}

type UserRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type OutboxRepository interface {
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
