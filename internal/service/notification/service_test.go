package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/internal/repository"
	"github.com/medbridge/portal-api/pkg/auth"
	apperrors "github.com/medbridge/portal-api/pkg/errors"
	"github.com/medbridge/portal-api/pkg/logger"
)

type memNotificationRepo struct {
	notifications map[uuid.UUID]*model.Notification
	events        []*model.OutboxEvent
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{notifications: make(map[uuid.UUID]*model.Notification)}
}

func (r *memNotificationRepo) CreateWithEvent(_ context.Context, n *model.Notification, evt *model.OutboxEvent) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	r.notifications[n.ID] = n
	r.events = append(r.events, evt)
	return nil
}

func (r *memNotificationRepo) Get(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	n, ok := r.notifications[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	copied := *n
	return &copied, nil
}

func (r *memNotificationRepo) ListForPatient(_ context.Context, patientID uuid.UUID) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range r.notifications {
		if n.PatientID == patientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memNotificationRepo) SetFlags(_ context.Context, id uuid.UUID, read, pinned *bool) (*model.Notification, error) {
	n, ok := r.notifications[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	if read != nil {
		n.Read = *read
	}
	if pinned != nil {
		n.Pinned = *pinned
	}
	copied := *n
	return &copied, nil
}

func (r *memNotificationRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.notifications[id]; !ok {
		return repository.ErrNoRows
	}
	delete(r.notifications, id)
	return nil
}

func (r *memNotificationRepo) MarkAllRead(_ context.Context, patientID uuid.UUID) (int64, error) {
	var count int64
	for _, n := range r.notifications {
		if n.PatientID == patientID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

type memUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *memUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	return u, nil
}

type testEnv struct {
	svc     *Service
	repo    *memNotificationRepo
	doctor  *model.User
	patient *auth.Principal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	doctor := &model.User{ID: uuid.New(), Name: "Wu", Specialty: "Internal Medicine", Role: auth.RoleDoctor}
	repo := newMemNotificationRepo()
	users := &memUserRepo{users: map[uuid.UUID]*model.User{doctor.ID: doctor}}
	svc := NewService(repo, users, nil, logger.NewLogger(nil), nil)

	return &testEnv{
		svc:     svc,
		repo:    repo,
		doctor:  doctor,
		patient: &auth.Principal{ID: uuid.New(), Role: auth.RolePatient},
	}
}

func (e *testEnv) dispatch(t *testing.T, kind EventKind) *model.Notification {
	t.Helper()

	apt := &model.Appointment{
		PatientID: e.patient.ID,
		DoctorID:  e.doctor.ID,
		Status:    model.AppointmentStatusPending,
	}
	apt.ID = uuid.New()

	n, err := e.svc.Dispatch(context.Background(), apt, kind)
	require.NoError(t, err)
	return n
}

func TestDispatch_BuildsNotificationAndOutboxEvent(t *testing.T) {
	e := newTestEnv(t)

	n := e.dispatch(t, KindConfirmed)

	assert.Equal(t, e.patient.ID, n.PatientID)
	assert.Equal(t, "Appointment confirmed", n.Title)
	assert.Equal(t, "Your appointment with Dr. Wu has been confirmed.", n.Body)
	assert.Equal(t, "Wu", n.DoctorName)
	assert.Equal(t, "Internal Medicine", n.DoctorSpecialty)
	assert.Equal(t, model.NotificationTypeAppointmentStatus, n.Type)
	assert.False(t, n.Read)
	assert.False(t, n.Pinned)

	require.Len(t, e.repo.events, 1)
	assert.Equal(t, EventTypeNotificationCreated, e.repo.events[0].EventType)
	assert.NotEmpty(t, e.repo.events[0].Payload)
}

func TestDispatch_UnknownDoctorDegradesToEmptyDisplayFields(t *testing.T) {
	e := newTestEnv(t)

	apt := &model.Appointment{
		PatientID: e.patient.ID,
		DoctorID:  uuid.New(),
	}
	apt.ID = uuid.New()

	n, err := e.svc.Dispatch(context.Background(), apt, KindBooked)

	require.NoError(t, err)
	assert.Empty(t, n.DoctorName)
	assert.Empty(t, n.DoctorSpecialty)
}

func TestDispatch_UnknownKindRejected(t *testing.T) {
	e := newTestEnv(t)

	apt := &model.Appointment{PatientID: e.patient.ID, DoctorID: e.doctor.ID}
	apt.ID = uuid.New()

	_, err := e.svc.Dispatch(context.Background(), apt, EventKind("rescheduled"))

	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
}

func TestOwnership(t *testing.T) {
	e := newTestEnv(t)
	n := e.dispatch(t, KindBooked)

	stranger := &auth.Principal{ID: uuid.New(), Role: auth.RolePatient}
	strangeDoctor := &auth.Principal{ID: uuid.New(), Role: auth.RoleDoctor}
	admin := &auth.Principal{ID: uuid.New(), Role: auth.RoleAdmin}

	tests := []struct {
		name      string
		caller    *auth.Principal
		forbidden bool
	}{
		{"owner allowed", e.patient, false},
		{"admin allowed", admin, false},
		{"other patient forbidden", stranger, true},
		{"doctor forbidden", strangeDoctor, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Get(context.Background(), n.ID, tt.caller)
			if tt.forbidden {
				assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOwnership_AppliesToMutations(t *testing.T) {
	e := newTestEnv(t)
	n := e.dispatch(t, KindBooked)
	stranger := &auth.Principal{ID: uuid.New(), Role: auth.RolePatient}

	_, err := e.svc.MarkRead(context.Background(), n.ID, stranger)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	pinned := true
	_, err = e.svc.Patch(context.Background(), n.ID, stranger, &model.PatchNotificationRequest{Pinned: &pinned})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	err = e.svc.Delete(context.Background(), n.ID, stranger)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	// Record untouched.
	current, err := e.svc.Get(context.Background(), n.ID, e.patient)
	require.NoError(t, err)
	assert.False(t, current.Read)
	assert.False(t, current.Pinned)
}

func TestMarkReadAndUnread(t *testing.T) {
	e := newTestEnv(t)
	n := e.dispatch(t, KindBooked)

	updated, err := e.svc.MarkRead(context.Background(), n.ID, e.patient)
	require.NoError(t, err)
	assert.True(t, updated.Read)

	updated, err = e.svc.MarkUnread(context.Background(), n.ID, e.patient)
	require.NoError(t, err)
	assert.False(t, updated.Read)
}

func TestPatch_WhitelistedFlagsOnly(t *testing.T) {
	e := newTestEnv(t)
	n := e.dispatch(t, KindBooked)

	pinned := true
	updated, err := e.svc.Patch(context.Background(), n.ID, e.patient, &model.PatchNotificationRequest{Pinned: &pinned})

	require.NoError(t, err)
	assert.True(t, updated.Pinned)
	assert.False(t, updated.Read)
}

func TestPatch_EmptyPatchIsValidationError(t *testing.T) {
	e := newTestEnv(t)
	n := e.dispatch(t, KindBooked)

	_, err := e.svc.Patch(context.Background(), n.ID, e.patient, &model.PatchNotificationRequest{})

	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
}

func TestMarkAllRead_ReportsChangedCountOnly(t *testing.T) {
	e := newTestEnv(t)
	first := e.dispatch(t, KindBooked)
	e.dispatch(t, KindConfirmed)
	e.dispatch(t, KindCompleted)

	_, err := e.svc.MarkRead(context.Background(), first.ID, e.patient)
	require.NoError(t, err)

	count, err := e.svc.MarkAllRead(context.Background(), e.patient)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Second run changes nothing.
	count, err = e.svc.MarkAllRead(context.Background(), e.patient)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDelete_MissingIsNotFound(t *testing.T) {
	e := newTestEnv(t)

	err := e.svc.Delete(context.Background(), uuid.New(), e.patient)

	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestKindForStatus(t *testing.T) {
	assert.Equal(t, KindConfirmed, KindForStatus(model.AppointmentStatusConfirmed))
	assert.Equal(t, KindCancelled, KindForStatus(model.AppointmentStatusCancelled))
	assert.Equal(t, KindCompleted, KindForStatus(model.AppointmentStatusCompleted))
	assert.Equal(t, KindBooked, KindForStatus(model.AppointmentStatusPending))
}
