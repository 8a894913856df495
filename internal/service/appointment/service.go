package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/internal/repository"
	"github.com/medbridge/portal-api/internal/service/notification"
	"github.com/medbridge/portal-api/internal/service/risk"
	"github.com/medbridge/portal-api/pkg/auth"
	apperrors "github.com/medbridge/portal-api/pkg/errors"
	"github.com/medbridge/portal-api/pkg/logger"
	"github.com/medbridge/portal-api/pkg/metrics"
)

// Config holds the named behavior choices of the appointment core.
type Config struct {
	// RefreshOnRead re-classifies queue entries from the patient's
	// current AI summary on every queue view instead of using the
	// booking-time snapshot. The stored snapshot is never mutated either
	// way.
	RefreshOnRead bool `mapstructure:"refresh_on_read"`
}

type Service struct {
	repo     repository.AppointmentRepository
	riskSvc  *risk.Service
	notifSvc *notification.Service
	config   Config
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(repo repository.AppointmentRepository, riskSvc *risk.Service,
	notifSvc *notification.Service, config Config, logger *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		riskSvc:  riskSvc,
		notifSvc: notifSvc,
		config:   config,
		logger:   logger,
		metrics:  m,
	}
}

// Book creates a pending appointment carrying an immutable copy of the
// patient's current risk classification. The snapshot is taken once,
// here: triage reflects the patient's condition at request time.
func (s *Service) Book(ctx context.Context, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	snapshot, err := s.riskSvc.Snapshot(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot patient risk: %w", err)
	}

	apt := &model.Appointment{
		PatientID:    req.PatientID,
		DoctorID:     req.DoctorID,
		RequestedAt:  req.RequestedTime,
		Status:       model.AppointmentStatusPending,
		RiskSnapshot: snapshot,
		Notes:        req.Notes,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	if s.metrics != nil {
		s.metrics.TriageLevels.WithLabelValues(string(snapshot.Level)).Inc()
	}

	s.dispatch(ctx, apt, notification.KindBooked)
	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNoRows) {
		return nil, apperrors.NotFound("appointment", err)
	}
	return apt, err
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	return s.repo.ListForPatient(ctx, patientID)
}

// Transition moves an appointment along the lifecycle graph. The write
// is a single conditional update so concurrent transitions cannot race,
// and the notification is dispatched only after that write commits.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to model.AppointmentStatus, actor *auth.Principal) (*model.Appointment, error) {
	from := model.AllowedPredecessors(to)
	if from == nil {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid status: %s", to), nil)
	}

	apt, err := s.repo.TransitionStatus(ctx, id, to, from)
	if errors.Is(err, repository.ErrNoRows) {
		// Distinguish a missing appointment from an illegal edge.
		current, getErr := s.repo.Get(ctx, id)
		if errors.Is(getErr, repository.ErrNoRows) {
			return nil, apperrors.NotFound("appointment", getErr)
		}
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.InvalidTransition(string(current.Status), string(to))
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment transitioned",
		"appointment_id", id.String(),
		"status", string(to),
		"actor_id", actor.ID.String(),
		"actor_role", actor.Role)

	s.dispatch(ctx, apt, notification.KindForStatus(to))
	return apt, nil
}

// DoctorQueue returns the doctor's pending appointments in triage order.
func (s *Service) DoctorQueue(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	pending, err := s.repo.ListPendingForDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	if s.config.RefreshOnRead {
		for _, apt := range pending {
			snapshot, err := s.riskSvc.Snapshot(ctx, apt.PatientID)
			if err != nil {
				s.logger.Warn("failed to refresh risk for queue entry",
					"appointment_id", apt.ID.String())
				continue
			}
			apt.RiskSnapshot = snapshot
		}
	}

	return BuildQueue(pending), nil
}

// dispatch runs after a committed write; a failure here must not undo
// the domain change, so it is logged and surfaced through metrics only.
func (s *Service) dispatch(ctx context.Context, apt *model.Appointment, kind notification.EventKind) {
	if _, err := s.notifSvc.Dispatch(ctx, apt, kind); err != nil {
		s.logger.Error(err, "failed to dispatch notification",
			"appointment_id", apt.ID.String(),
			"kind", string(kind))
	}
}
