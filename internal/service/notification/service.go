package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/medbridge/portal-api/internal/email"
	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/internal/repository"
	"github.com/medbridge/portal-api/pkg/auth"
	apperrors "github.com/medbridge/portal-api/pkg/errors"
	"github.com/medbridge/portal-api/pkg/logger"
	"github.com/medbridge/portal-api/pkg/metrics"
)

// EventKind tags the appointment lifecycle event a notification records.
type EventKind string

const (
	KindBooked    EventKind = "booked"
	KindConfirmed EventKind = "confirmed"
	KindCancelled EventKind = "cancelled"
	KindCompleted EventKind = "completed"
)

// KindForStatus maps a committed appointment status onto its event kind.
func KindForStatus(status model.AppointmentStatus) EventKind {
	switch status {
	case model.AppointmentStatusConfirmed:
		return KindConfirmed
	case model.AppointmentStatusCancelled:
		return KindCancelled
	case model.AppointmentStatusCompleted:
		return KindCompleted
	default:
		return KindBooked
	}
}

// EventTypeNotificationCreated is the outbox event type the realtime
// bridge subscribes to.
const EventTypeNotificationCreated = "notification.created"

// BroadcastEvent is the envelope published on the backplane for every
// committed notification. Delivery targets room patient:<PatientID> only.
type BroadcastEvent struct {
	Event        string              `json:"event"`
	PatientID    uuid.UUID           `json:"patient_id"`
	Notification *model.Notification `json:"notification"`
	Appointment  *model.Appointment  `json:"appointment,omitempty"`
}

const (
	doctorCacheTTL     = 5 * time.Minute
	doctorCacheCleanup = 10 * time.Minute
)

// Service is the notification dispatcher plus the owner-gated read/mutate
// surface. Records are create-only: every status change is its own
// history entry, never an edit of a previous one.
type Service struct {
	repo       repository.NotificationRepository
	userRepo   repository.UserRepository
	emailSvc   email.Service
	doctorInfo *cache.Cache
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewService(repo repository.NotificationRepository, userRepo repository.UserRepository,
	emailSvc email.Service, logger *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:       repo,
		userRepo:   userRepo,
		emailSvc:   emailSvc,
		doctorInfo: cache.New(doctorCacheTTL, doctorCacheCleanup),
		logger:     logger,
		metrics:    m,
	}
}

var titles = map[EventKind]string{
	KindBooked:    "Appointment requested",
	KindConfirmed: "Appointment confirmed",
	KindCancelled: "Appointment cancelled",
	KindCompleted: "Appointment completed",
}

var bodies = map[EventKind]string{
	KindBooked:    "Your appointment request with Dr. %s has been received and is awaiting confirmation.",
	KindConfirmed: "Your appointment with Dr. %s has been confirmed.",
	KindCancelled: "Your appointment with Dr. %s has been cancelled.",
	KindCompleted: "Your appointment with Dr. %s has been marked as completed.",
}

// Dispatch persists exactly one notification for the given lifecycle
// event and enqueues its broadcast in the same transaction. It must be
// called only after the appointment write has committed.
func (s *Service) Dispatch(ctx context.Context, apt *model.Appointment, kind EventKind) (*model.Notification, error) {
	title, ok := titles[kind]
	if !ok {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown event kind: %s", kind), nil)
	}

	doctor := s.lookupDoctor(ctx, apt.DoctorID)

	aptID := apt.ID
	doctorID := apt.DoctorID
	n := &model.Notification{
		PatientID:       apt.PatientID,
		AppointmentID:   &aptID,
		DoctorID:        &doctorID,
		DoctorName:      doctor.Name,
		DoctorSpecialty: doctor.Specialty,
		Type:            model.NotificationTypeAppointmentStatus,
		Title:           title,
		Body:            fmt.Sprintf(bodies[kind], doctor.Name),
		Payload: model.AppointmentStatusPayload{
			Status:        apt.Status,
			AppointmentID: apt.ID,
		},
	}

	evt := &model.OutboxEvent{EventType: EventTypeNotificationCreated}
	payload, err := json.Marshal(BroadcastEvent{
		Event:        EventTypeNotificationCreated,
		PatientID:    apt.PatientID,
		Notification: n,
		Appointment:  apt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal broadcast event: %w", err)
	}
	evt.Payload = payload

	if err := s.repo.CreateWithEvent(ctx, n, evt); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}

	if s.metrics != nil {
		s.metrics.NotificationsDispatched.WithLabelValues(string(kind)).Inc()
	}

	s.sendEmail(ctx, apt.PatientID, n)
	return n, nil
}

// lookupDoctor resolves denormalized doctor display data through a TTL
// cache; a failed lookup degrades to empty fields rather than blocking
// the dispatch.
func (s *Service) lookupDoctor(ctx context.Context, doctorID uuid.UUID) *model.User {
	if cached, ok := s.doctorInfo.Get(doctorID.String()); ok {
		return cached.(*model.User)
	}

	doctor, err := s.userRepo.Get(ctx, doctorID)
	if err != nil {
		s.logger.Warn("failed to resolve doctor for notification", "doctor_id", doctorID.String())
		return &model.User{ID: doctorID}
	}

	s.doctorInfo.Set(doctorID.String(), doctor, cache.DefaultExpiration)
	return doctor
}

func (s *Service) sendEmail(ctx context.Context, patientID uuid.UUID, n *model.Notification) {
	if s.emailSvc == nil {
		return
	}
	patient, err := s.userRepo.Get(ctx, patientID)
	if err != nil || patient.Email == "" {
		return
	}
	if err := s.emailSvc.SendCustom(ctx, patient.Email, n.Title, n.Body); err != nil {
		s.logger.Error(err, "failed to send notification email", "notification_id", n.ID.String())
	}
}

// authorize is the single ownership check shared by every read/mutate
// path: the owning patient or an admin, nobody else.
func (s *Service) authorize(n *model.Notification, caller *auth.Principal) error {
	if caller.ID == n.PatientID || caller.Role == auth.RoleAdmin {
		return nil
	}
	return apperrors.Forbidden("notification does not belong to caller")
}

func (s *Service) getAuthorized(ctx context.Context, id uuid.UUID, caller *auth.Principal) (*model.Notification, error) {
	n, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNoRows) {
		return nil, apperrors.NotFound("notification", err)
	}
	if err != nil {
		return nil, err
	}
	if err := s.authorize(n, caller); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, caller *auth.Principal) (*model.Notification, error) {
	return s.getAuthorized(ctx, id, caller)
}

// List returns the caller's notifications, newest first with pinned
// entries on top.
func (s *Service) List(ctx context.Context, caller *auth.Principal) ([]*model.Notification, error) {
	return s.repo.ListForPatient(ctx, caller.ID)
}

func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, caller *auth.Principal) (*model.Notification, error) {
	read := true
	return s.setFlags(ctx, id, caller, &read, nil)
}

func (s *Service) MarkUnread(ctx context.Context, id uuid.UUID, caller *auth.Principal) (*model.Notification, error) {
	read := false
	return s.setFlags(ctx, id, caller, &read, nil)
}

// Patch applies the whitelisted flags only. An empty patch is a
// validation error, not a silent no-op success.
func (s *Service) Patch(ctx context.Context, id uuid.UUID, caller *auth.Principal, req *model.PatchNotificationRequest) (*model.Notification, error) {
	if req.Empty() {
		return nil, apperrors.BadRequest("no recognized fields to update", nil)
	}
	return s.setFlags(ctx, id, caller, req.Read, req.Pinned)
}

func (s *Service) setFlags(ctx context.Context, id uuid.UUID, caller *auth.Principal, read, pinned *bool) (*model.Notification, error) {
	if _, err := s.getAuthorized(ctx, id, caller); err != nil {
		return nil, err
	}
	n, err := s.repo.SetFlags(ctx, id, read, pinned)
	if errors.Is(err, repository.ErrNoRows) {
		return nil, apperrors.NotFound("notification", err)
	}
	return n, err
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, caller *auth.Principal) error {
	if _, err := s.getAuthorized(ctx, id, caller); err != nil {
		return err
	}
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNoRows) {
		return apperrors.NotFound("notification", err)
	}
	return err
}

// MarkAllRead flips the caller's unread notifications and reports the
// count actually changed.
func (s *Service) MarkAllRead(ctx context.Context, caller *auth.Principal) (int64, error) {
	return s.repo.MarkAllRead(ctx, caller.ID)
}
