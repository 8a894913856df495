package risk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/internal/repository"
	"github.com/medbridge/portal-api/pkg/logger"
	"github.com/medbridge/portal-api/pkg/metrics"
)

const (
	summaryCacheTTL     = 30 * time.Second
	summaryCacheCleanup = 5 * time.Minute
)

// Service recomputes and serves per-patient AI summaries. Recomputation
// runs on every vitals/lab write; reads go through a short-lived cache
// because the doctor queue may consult many summaries per request.
type Service struct {
	summaryRepo  repository.AISummaryRepository
	clinicalRepo repository.ClinicalRepository
	cache        *cache.Cache
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

func NewService(summaryRepo repository.AISummaryRepository, clinicalRepo repository.ClinicalRepository,
	logger *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		summaryRepo:  summaryRepo,
		clinicalRepo: clinicalRepo,
		cache:        cache.New(summaryCacheTTL, summaryCacheCleanup),
		logger:       logger,
		metrics:      m,
	}
}

// Recompute scores the patient's latest records and upserts the summary.
// A patient with no vitals at all is a logged no-op, not an error: a
// summary is never fabricated from defaults alone.
func (s *Service) Recompute(ctx context.Context, patientID uuid.UUID) error {
	vitals, err := s.clinicalRepo.GetLatestVitals(ctx, patientID)
	if errors.Is(err, repository.ErrNoRows) {
		s.logger.Info("skipping risk scoring: patient has no vitals", "patient_id", patientID.String())
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load latest vitals: %w", err)
	}

	lab, err := s.clinicalRepo.GetLatestLabReport(ctx, patientID)
	if errors.Is(err, repository.ErrNoRows) {
		lab = nil
	} else if err != nil {
		return fmt.Errorf("failed to load latest lab report: %w", err)
	}

	summary := Score(vitals, lab)
	summary.PatientID = patientID

	if err := s.summaryRepo.Upsert(ctx, &summary); err != nil {
		return fmt.Errorf("failed to store AI summary: %w", err)
	}

	s.cache.Delete(patientID.String())
	if s.metrics != nil {
		s.metrics.RiskScoresComputed.Inc()
	}
	return nil
}

// Summary returns the patient's current AI summary, or nil when none has
// been computed yet.
func (s *Service) Summary(ctx context.Context, patientID uuid.UUID) (*model.AISummary, error) {
	if cached, ok := s.cache.Get(patientID.String()); ok {
		return cached.(*model.AISummary), nil
	}

	summary, err := s.summaryRepo.Get(ctx, patientID)
	if errors.Is(err, repository.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AI summary: %w", err)
	}

	s.cache.Set(patientID.String(), summary, cache.DefaultExpiration)
	return summary, nil
}

// Snapshot classifies the patient's current summary into the
// booking-time risk snapshot.
func (s *Service) Snapshot(ctx context.Context, patientID uuid.UUID) (model.RiskSnapshot, error) {
	summary, err := s.Summary(ctx, patientID)
	if err != nil {
		return model.RiskSnapshot{Level: model.RiskLevelUnknown}, err
	}
	return SnapshotFrom(summary), nil
}
