package appointment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/medbridge/portal-api/internal/model"
)

func apt(level model.RiskLevel, requestedAt time.Time) *model.Appointment {
	a := &model.Appointment{
		PatientID:    uuid.New(),
		DoctorID:     uuid.New(),
		RequestedAt:  requestedAt,
		Status:       model.AppointmentStatusPending,
		RiskSnapshot: model.RiskSnapshot{Level: level},
	}
	a.ID = uuid.New()
	return a
}

func TestBuildQueue_RiskLevelGovernsOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	low := apt(model.RiskLevelLow, base)
	critical := apt(model.RiskLevelCritical, base.Add(2*time.Hour))
	moderate := apt(model.RiskLevelModerate, base.Add(time.Hour))
	unknown := apt(model.RiskLevelUnknown, base.Add(-time.Hour))

	queue := BuildQueue([]*model.Appointment{low, critical, moderate, unknown})

	assert.Equal(t, []*model.Appointment{critical, moderate, low, unknown}, queue)
}

func TestBuildQueue_EarlierRequestWinsWithinLevel(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	later := apt(model.RiskLevelHigh, base.Add(time.Hour))
	earlier := apt(model.RiskLevelHigh, base)

	queue := BuildQueue([]*model.Appointment{later, earlier})

	assert.Equal(t, []*model.Appointment{earlier, later}, queue)
}

func TestBuildQueue_StableForEqualKeys(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first := apt(model.RiskLevelModerate, at)
	second := apt(model.RiskLevelModerate, at)
	third := apt(model.RiskLevelModerate, at)

	input := []*model.Appointment{first, second, third}

	// Equal-key entries keep input order across repeated builds.
	for i := 0; i < 5; i++ {
		queue := BuildQueue(input)
		assert.Equal(t, input, queue)
	}
}

func TestBuildQueue_DoesNotMutateInput(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	low := apt(model.RiskLevelLow, base)
	critical := apt(model.RiskLevelCritical, base)
	input := []*model.Appointment{low, critical}

	BuildQueue(input)

	assert.Equal(t, []*model.Appointment{low, critical}, input)
}

func TestBuildQueue_Empty(t *testing.T) {
	assert.Empty(t, BuildQueue(nil))
}
