package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/internal/repository"
)

// Upsert replaces the whole summary document. Concurrent scorer runs for
// the same patient resolve last-writer-wins, which is safe because the
// scorer is a pure function of the latest data, not an accumulator.
func (r *aiSummaryRepository) Upsert(ctx context.Context, summary *model.AISummary) error {
	query := `
		INSERT INTO ai_summaries (
			patient_id, diabetes_risk, hypertension_risk, anemia_risk,
			cardiac_risk, suggestions, recommended_tests, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (patient_id) DO UPDATE SET
			diabetes_risk = EXCLUDED.diabetes_risk,
			hypertension_risk = EXCLUDED.hypertension_risk,
			anemia_risk = EXCLUDED.anemia_risk,
			cardiac_risk = EXCLUDED.cardiac_risk,
			suggestions = EXCLUDED.suggestions,
			recommended_tests = EXCLUDED.recommended_tests,
			updated_at = EXCLUDED.updated_at
	`
	summary.UpdatedAt = time.Now()

	return r.do(ctx, "ai_summary_upsert", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, query,
			summary.PatientID,
			summary.DiabetesRisk,
			summary.HypertensionRisk,
			summary.AnemiaRisk,
			summary.CardiacRisk,
			summary.Suggestions,
			summary.RecommendedTests,
			summary.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert AI summary: %w", err)
		}
		return nil
	})
}

func (r *aiSummaryRepository) Get(ctx context.Context, patientID uuid.UUID) (*model.AISummary, error) {
	query := `
		SELECT patient_id, diabetes_risk, hypertension_risk, anemia_risk,
			   cardiac_risk, suggestions, recommended_tests, updated_at
		FROM ai_summaries
		WHERE patient_id = $1
	`
	var summary model.AISummary
	err := r.do(ctx, "ai_summary_get", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &summary, query, patientID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get AI summary: %w", err)
	}
	return &summary, nil
}
