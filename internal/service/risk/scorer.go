package risk

import (
	"math"

	"github.com/medbridge/portal-api/internal/model"
)

// Clinically normal fallbacks used when an individual measurement is
// missing from the latest records.
const (
	defaultHeartRate  = 75.0
	defaultSystolicBP = 120.0
	defaultGlucose    = 90.0
	defaultHemoglobin = 14.0
)

// Text thresholds: a rule appends its suggestion and recommended test
// once its percentage crosses the fixed cutoff.
const (
	hypertensionAdviceThreshold = 70
	diabetesAdviceThreshold     = 70
	anemiaAdviceThreshold       = 50
)

// Score converts the latest vitals and lab records into the four risk
// percentages plus the derived suggestion/test lists. It is a pure
// function: missing individual values fall back to clinical defaults and
// persistence is the caller's concern. Callers must not invoke it for a
// patient with no vitals at all.
func Score(vitals *model.VitalsRecord, lab *model.LabReport) model.AISummary {
	heartRate := defaultHeartRate
	systolic := defaultSystolicBP
	if vitals != nil {
		if vitals.HeartRate != nil {
			heartRate = *vitals.HeartRate
		}
		if vitals.SystolicBP != nil {
			systolic = *vitals.SystolicBP
		}
	}

	glucose := defaultGlucose
	hemoglobin := defaultHemoglobin
	if lab != nil {
		if r, ok := lab.Results["Glucose"]; ok {
			glucose = r.Value
		}
		if r, ok := lab.Results["Hemoglobin"]; ok {
			hemoglobin = r.Value
		}
	}

	hypertension := 30.0
	if systolic > 140 {
		hypertension += 40
	}
	if heartRate > 90 {
		hypertension += 10
	}

	diabetes := 20.0
	switch {
	case glucose > 125:
		diabetes += 55
	case glucose > 100:
		diabetes += 30
	}

	cardiac := 15.0
	if systolic > 140 {
		cardiac += 30
	}
	if heartRate > 90 {
		cardiac += 15
	}

	anemia := 10.0
	switch {
	case hemoglobin < 12.0:
		anemia = 75
	case hemoglobin < 13.5:
		anemia = 30
	}

	summary := model.AISummary{
		HypertensionRisk: clampPct(hypertension),
		DiabetesRisk:     clampPct(diabetes),
		CardiacRisk:      clampPct(cardiac),
		AnemiaRisk:       clampPct(anemia),
	}

	if summary.HypertensionRisk >= hypertensionAdviceThreshold {
		summary.Suggestions = append(summary.Suggestions,
			"Reduce salt intake and monitor blood pressure daily")
		summary.RecommendedTests = append(summary.RecommendedTests,
			"Ambulatory blood pressure monitoring")
	}
	if summary.DiabetesRisk >= diabetesAdviceThreshold {
		summary.Suggestions = append(summary.Suggestions,
			"Limit refined sugar intake and review diet with a clinician")
		summary.RecommendedTests = append(summary.RecommendedTests,
			"HbA1c test")
	}
	if summary.AnemiaRisk >= anemiaAdviceThreshold {
		summary.Suggestions = append(summary.Suggestions,
			"Increase dietary iron and vitamin C intake")
		summary.RecommendedTests = append(summary.RecommendedTests,
			"Complete blood count")
	}

	// Lists are never empty: fall back to routine guidance.
	if len(summary.Suggestions) == 0 {
		summary.Suggestions = append(summary.Suggestions,
			"Maintain current lifestyle and continue routine checkups")
	}
	if len(summary.RecommendedTests) == 0 {
		summary.RecommendedTests = append(summary.RecommendedTests,
			"Routine annual screening")
	}

	return summary
}

func clampPct(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}
