package model

import (
	"time"

	"github.com/google/uuid"
)

// VitalsRecord is a single vitals measurement for a patient.
type VitalsRecord struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	HeartRate   *float64  `db:"heart_rate" json:"heart_rate,omitempty"`
	SystolicBP  *float64  `db:"systolic_bp" json:"blood_pressure_systolic,omitempty"`
	DiastolicBP *float64  `db:"diastolic_bp" json:"blood_pressure_diastolic,omitempty"`
	RecordedAt  time.Time `db:"recorded_at" json:"recorded_at"`
}

// LabResult is one named analyte in a lab report.
type LabResult struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// LabReport holds the results of one lab panel keyed by analyte name
// (e.g. "Glucose", "Hemoglobin").
type LabReport struct {
	ID         uuid.UUID            `db:"id" json:"id"`
	PatientID  uuid.UUID            `db:"patient_id" json:"patient_id"`
	Results    map[string]LabResult `db:"-" json:"results"`
	RecordedAt time.Time            `db:"recorded_at" json:"recorded_at"`
}

// CreateVitalsRequest is the clinical intake payload for a vitals write.
type CreateVitalsRequest struct {
	PatientID   uuid.UUID `json:"patient_id" binding:"required"`
	HeartRate   *float64  `json:"heart_rate" binding:"omitempty,gt=0"`
	SystolicBP  *float64  `json:"blood_pressure_systolic" binding:"omitempty,gt=0"`
	DiastolicBP *float64  `json:"blood_pressure_diastolic" binding:"omitempty,gt=0"`
}

// CreateLabReportRequest is the clinical intake payload for a lab write.
type CreateLabReportRequest struct {
	PatientID uuid.UUID            `json:"patient_id" binding:"required"`
	Results   map[string]LabResult `json:"results" binding:"required,min=1"`
}
