package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medbridge/portal-api/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		summary *model.AISummary
		want    model.RiskLevel
	}{
		{"nil summary is unknown", nil, model.RiskLevelUnknown},
		{"all low", &model.AISummary{DiabetesRisk: 20, HypertensionRisk: 30, AnemiaRisk: 10, CardiacRisk: 15}, model.RiskLevelLow},
		{"boundary 39 is low", &model.AISummary{CardiacRisk: 39}, model.RiskLevelLow},
		{"boundary 40 is moderate", &model.AISummary{CardiacRisk: 40}, model.RiskLevelModerate},
		{"boundary 60 is high", &model.AISummary{AnemiaRisk: 60}, model.RiskLevelHigh},
		{"boundary 75 is critical", &model.AISummary{DiabetesRisk: 75}, model.RiskLevelCritical},
		{"max governs", &model.AISummary{DiabetesRisk: 10, HypertensionRisk: 80, AnemiaRisk: 10, CardiacRisk: 10}, model.RiskLevelCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.summary))
		})
	}
}

func TestSnapshotFrom(t *testing.T) {
	summary := &model.AISummary{
		DiabetesRisk:     75,
		HypertensionRisk: 80,
		AnemiaRisk:       75,
		CardiacRisk:      60,
	}

	snapshot := SnapshotFrom(summary)

	assert.Equal(t, model.RiskLevelCritical, snapshot.Level)
	assert.Equal(t, 75, snapshot.DiabetesPct)
	assert.Equal(t, 80, snapshot.HypertensionPct)
}

func TestSnapshotFrom_NilSummary(t *testing.T) {
	snapshot := SnapshotFrom(nil)

	assert.Equal(t, model.RiskLevelUnknown, snapshot.Level)
	assert.Zero(t, snapshot.DiabetesPct)
	assert.Zero(t, snapshot.HypertensionPct)
}

func TestRiskLevelRank_Ordering(t *testing.T) {
	ordered := []model.RiskLevel{
		model.RiskLevelUnknown,
		model.RiskLevelLow,
		model.RiskLevelModerate,
		model.RiskLevelHigh,
		model.RiskLevelCritical,
	}

	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Rank(), ordered[i-1].Rank(),
			"%s should outrank %s", ordered[i], ordered[i-1])
	}
}
