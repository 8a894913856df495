package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/internal/repository"
)

func (r *clinicalRepository) CreateVitals(ctx context.Context, v *model.VitalsRecord) error {
	query := `
		INSERT INTO vitals (id, patient_id, heart_rate, systolic_bp, diastolic_bp, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	v.ID = uuid.New()
	v.RecordedAt = time.Now()

	return r.do(ctx, "vitals_create", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, query,
			v.ID, v.PatientID, v.HeartRate, v.SystolicBP, v.DiastolicBP, v.RecordedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create vitals record: %w", err)
		}
		return nil
	})
}

func (r *clinicalRepository) CreateLabReport(ctx context.Context, report *model.LabReport) error {
	query := `
		INSERT INTO lab_reports (id, patient_id, results, recorded_at)
		VALUES ($1, $2, $3, $4)
	`
	report.ID = uuid.New()
	report.RecordedAt = time.Now()

	results, err := json.Marshal(report.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal lab results: %w", err)
	}

	return r.do(ctx, "lab_report_create", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, query,
			report.ID, report.PatientID, results, report.RecordedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create lab report: %w", err)
		}
		return nil
	})
}

func (r *clinicalRepository) GetLatestVitals(ctx context.Context, patientID uuid.UUID) (*model.VitalsRecord, error) {
	query := `
		SELECT id, patient_id, heart_rate, systolic_bp, diastolic_bp, recorded_at
		FROM vitals
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`
	var v model.VitalsRecord
	err := r.do(ctx, "vitals_get_latest", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &v, query, patientID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest vitals: %w", err)
	}
	return &v, nil
}

func (r *clinicalRepository) GetLatestLabReport(ctx context.Context, patientID uuid.UUID) (*model.LabReport, error) {
	query := `
		SELECT id, patient_id, results, recorded_at
		FROM lab_reports
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`
	var row struct {
		ID         uuid.UUID       `db:"id"`
		PatientID  uuid.UUID       `db:"patient_id"`
		Results    json.RawMessage `db:"results"`
		RecordedAt time.Time       `db:"recorded_at"`
	}
	err := r.do(ctx, "lab_report_get_latest", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &row, query, patientID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest lab report: %w", err)
	}

	report := &model.LabReport{
		ID:         row.ID,
		PatientID:  row.PatientID,
		RecordedAt: row.RecordedAt,
	}
	if len(row.Results) > 0 {
		if err := json.Unmarshal(row.Results, &report.Results); err != nil {
			return nil, fmt.Errorf("failed to unmarshal lab results: %w", err)
		}
	}
	return report, nil
}
