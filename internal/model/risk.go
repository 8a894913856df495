package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RiskLevel is the ordinal triage classification. The string values are
// persisted and consumed by existing clients; they must not change.
type RiskLevel string

const (
	RiskLevelUnknown  RiskLevel = "unknown"
	RiskLevelLow      RiskLevel = "low"
	RiskLevelModerate RiskLevel = "moderate"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Rank returns the acuity ordering used by the triage queue:
// unknown < low < moderate < high < critical.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLevelCritical:
		return 4
	case RiskLevelHigh:
		return 3
	case RiskLevelModerate:
		return 2
	case RiskLevelLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether l is one of the closed enum values.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLevelUnknown, RiskLevelLow, RiskLevelModerate, RiskLevelHigh, RiskLevelCritical:
		return true
	}
	return false
}

// AISummary is the per-patient risk summary, recomputed on every vitals
// or lab write and upserted whole (last-writer-wins).
type AISummary struct {
	PatientID        uuid.UUID      `db:"patient_id" json:"patient_id"`
	DiabetesRisk     int            `db:"diabetes_risk" json:"diabetes_risk"`
	HypertensionRisk int            `db:"hypertension_risk" json:"hypertension_risk"`
	AnemiaRisk       int            `db:"anemia_risk" json:"anemia_risk"`
	CardiacRisk      int            `db:"cardiac_risk" json:"cardiac_risk"`
	Suggestions      pq.StringArray `db:"suggestions" json:"suggestions"`
	RecommendedTests pq.StringArray `db:"recommended_tests" json:"recommended_tests"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// RiskSnapshot is the immutable copy of a patient's classification taken
// at appointment-booking time. It is never recomputed for that
// appointment: triage reflects the patient's condition at request time.
type RiskSnapshot struct {
	Level           RiskLevel `db:"risk_level" json:"level"`
	DiabetesPct     int       `db:"risk_diabetes" json:"diabetes_pct"`
	HypertensionPct int       `db:"risk_hypertension" json:"hypertension_pct"`
}
