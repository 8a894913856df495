package risk

import (
	"github.com/medbridge/portal-api/internal/model"
)

// Classification thresholds applied to the highest of the four risk
// percentages.
const (
	criticalThreshold = 75
	highThreshold     = 60
	moderateThreshold = 40
)

// Classify maps a patient's AI summary onto the ordinal triage level. A
// missing summary classifies as unknown, never as low: absence of data
// is not evidence of health.
func Classify(summary *model.AISummary) model.RiskLevel {
	if summary == nil {
		return model.RiskLevelUnknown
	}

	max := summary.DiabetesRisk
	for _, pct := range []int{summary.HypertensionRisk, summary.AnemiaRisk, summary.CardiacRisk} {
		if pct > max {
			max = pct
		}
	}

	switch {
	case max >= criticalThreshold:
		return model.RiskLevelCritical
	case max >= highThreshold:
		return model.RiskLevelHigh
	case max >= moderateThreshold:
		return model.RiskLevelModerate
	default:
		return model.RiskLevelLow
	}
}

// SnapshotFrom builds the immutable booking-time snapshot from a
// patient's current summary.
func SnapshotFrom(summary *model.AISummary) model.RiskSnapshot {
	snapshot := model.RiskSnapshot{Level: Classify(summary)}
	if summary != nil {
		snapshot.DiabetesPct = summary.DiabetesRisk
		snapshot.HypertensionPct = summary.HypertensionRisk
	}
	return snapshot
}
