package clinical

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/internal/repository"
	"github.com/medbridge/portal-api/internal/service/risk"
	"github.com/medbridge/portal-api/pkg/logger"
)

type memClinicalRepo struct {
	vitals  map[uuid.UUID]*model.VitalsRecord
	reports map[uuid.UUID]*model.LabReport
}

func newMemClinicalRepo() *memClinicalRepo {
	return &memClinicalRepo{
		vitals:  make(map[uuid.UUID]*model.VitalsRecord),
		reports: make(map[uuid.UUID]*model.LabReport),
	}
}

func (r *memClinicalRepo) CreateVitals(_ context.Context, v *model.VitalsRecord) error {
	v.ID = uuid.New()
	v.RecordedAt = time.Now()
	r.vitals[v.PatientID] = v
	return nil
}

func (r *memClinicalRepo) CreateLabReport(_ context.Context, report *model.LabReport) error {
	report.ID = uuid.New()
	report.RecordedAt = time.Now()
	r.reports[report.PatientID] = report
	return nil
}

func (r *memClinicalRepo) GetLatestVitals(_ context.Context, patientID uuid.UUID) (*model.VitalsRecord, error) {
	v, ok := r.vitals[patientID]
	if !ok {
		return nil, repository.ErrNoRows
	}
	return v, nil
}

func (r *memClinicalRepo) GetLatestLabReport(_ context.Context, patientID uuid.UUID) (*model.LabReport, error) {
	report, ok := r.reports[patientID]
	if !ok {
		return nil, repository.ErrNoRows
	}
	return report, nil
}

type memSummaryRepo struct {
	summaries map[uuid.UUID]*model.AISummary
	upserts   int
}

func (r *memSummaryRepo) Upsert(_ context.Context, s *model.AISummary) error {
	r.summaries[s.PatientID] = s
	r.upserts++
	return nil
}

func (r *memSummaryRepo) Get(_ context.Context, patientID uuid.UUID) (*model.AISummary, error) {
	s, ok := r.summaries[patientID]
	if !ok {
		return nil, repository.ErrNoRows
	}
	return s, nil
}

func f(v float64) *float64 { return &v }

func newTestService() (*Service, *memSummaryRepo) {
	clinicalRepo := newMemClinicalRepo()
	summaryRepo := &memSummaryRepo{summaries: make(map[uuid.UUID]*model.AISummary)}
	riskSvc := risk.NewService(summaryRepo, clinicalRepo, logger.NewLogger(nil), nil)
	return NewService(clinicalRepo, riskSvc), summaryRepo
}

func TestRecordVitals_TriggersScoring(t *testing.T) {
	svc, summaries := newTestService()
	patientID := uuid.New()

	vitals, err := svc.RecordVitals(context.Background(), &model.CreateVitalsRequest{
		PatientID:  patientID,
		HeartRate:  f(95),
		SystolicBP: f(150),
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, vitals.ID)

	summary, ok := summaries.summaries[patientID]
	require.True(t, ok, "vitals write should produce a summary")
	assert.Equal(t, 80, summary.HypertensionRisk)
	assert.Equal(t, 60, summary.CardiacRisk)
}

func TestRecordLabReport_NoVitalsSkipsScoring(t *testing.T) {
	svc, summaries := newTestService()
	patientID := uuid.New()

	_, err := svc.RecordLabReport(context.Background(), &model.CreateLabReportRequest{
		PatientID: patientID,
		Results:   map[string]model.LabResult{"Glucose": {Value: 130}},
	})

	// The report is stored, but a summary is never fabricated for a
	// patient with no vitals at all.
	require.NoError(t, err)
	assert.Empty(t, summaries.summaries)
}

func TestRecordLabReport_CombinesWithLatestVitals(t *testing.T) {
	svc, summaries := newTestService()
	patientID := uuid.New()

	_, err := svc.RecordVitals(context.Background(), &model.CreateVitalsRequest{
		PatientID: patientID,
		HeartRate: f(75),
	})
	require.NoError(t, err)

	_, err = svc.RecordLabReport(context.Background(), &model.CreateLabReportRequest{
		PatientID: patientID,
		Results: map[string]model.LabResult{
			"Glucose":    {Value: 130, Unit: "mg/dL"},
			"Hemoglobin": {Value: 11.0, Unit: "g/dL"},
		},
	})
	require.NoError(t, err)

	summary := summaries.summaries[patientID]
	require.NotNil(t, summary)
	assert.Equal(t, 75, summary.DiabetesRisk)
	assert.Equal(t, 75, summary.AnemiaRisk)
	assert.Equal(t, 2, summaries.upserts, "each write recomputes")
}
