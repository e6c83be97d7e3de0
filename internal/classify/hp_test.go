package classify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everlof/sonda/internal/model"
)

func exactHPRow(key, value string) model.AnalysisRow {
	return model.AnalysisRow{
		RawName:      key,
		CanonicalKey: key,
		Value:        model.ExactValue(decimal.RequireFromString(value)),
		Unit:         "mg/kg",
	}
}

func TestEvaluateHP_CleanSampleIsNotHazardous(t *testing.T) {
	rows := []model.AnalysisRow{
		exactHPRow("arsenik", "5"),
		exactHPRow("bly", "20"),
		exactHPRow("koppar", "30"),
	}
	result := EvaluateHP(rows)
	assert.Equal(t, "Icke FA", result.OverallCategory)
	require.NotNil(t, result.HPDetails)
	assert.False(t, result.HPDetails.IsHazardous)
}

func TestEvaluateHP_LeadTriggersHP10ViaSpecificConcentrationLimit(t *testing.T) {
	// 300 mg/kg lead converts to exactly 0.03% w/w, lead's Repr.1A SCL.
	rows := []model.AnalysisRow{exactHPRow("bly", "300")}
	result := EvaluateHP(rows)
	assert.Equal(t, "FA", result.OverallCategory)
	require.NotNil(t, result.HPDetails)
	assert.True(t, result.HPDetails.IsHazardous)

	var hp10 *model.HpCriterionDetail
	for i := range result.HPDetails.CriteriaResults {
		if result.HPDetails.CriteriaResults[i].HPID == "HP10" {
			hp10 = &result.HPDetails.CriteriaResults[i]
		}
	}
	require.NotNil(t, hp10)
	assert.True(t, hp10.Triggered)
	assert.Contains(t, result.DeterminingSubstances, "bly")
}

func TestEvaluateHP_LeadJustBelowSCLDoesNotTrigger(t *testing.T) {
	// 299 mg/kg -> 0.0299% w/w, just under lead's 0.03% Repr.1A SCL.
	rows := []model.AnalysisRow{exactHPRow("bly", "299")}
	result := EvaluateHP(rows)
	assert.Equal(t, "Icke FA", result.OverallCategory)
}

func TestEvaluateHP_BenzoAPyreneTriggersCarcinogenicAndMutagenic(t *testing.T) {
	// 1000 mg/kg benzo[a]pyrene -> 0.1% w/w, at the H350/H340 0.1% threshold.
	rows := []model.AnalysisRow{exactHPRow("benso_a_pyren", "1000")}
	result := EvaluateHP(rows)
	assert.Equal(t, "FA", result.OverallCategory)

	triggeredIDs := map[string]bool{}
	for _, c := range result.HPDetails.CriteriaResults {
		if c.Triggered {
			triggeredIDs[c.HPID] = true
		}
	}
	assert.True(t, triggeredIDs["HP7"], "HP7 (carcinogenic) should trigger at the H350 threshold")
	assert.True(t, triggeredIDs["HP11"], "HP11 (mutagenic) should trigger at the H340 threshold")
}

func TestEvaluateHP_BelowDetectionNeverTriggersACriterion(t *testing.T) {
	rows := []model.AnalysisRow{
		{RawName: "bly", CanonicalKey: "bly", Value: model.BelowDetectionValue(decimal.RequireFromString("5000")), Unit: "mg/kg"},
	}
	result := EvaluateHP(rows)
	assert.Equal(t, "Icke FA", result.OverallCategory)
	assert.False(t, result.HPDetails.IsHazardous)
}

func TestEvaluateHP_UnresolvedSubstanceIsTrackedNotSilentlyDropped(t *testing.T) {
	rows := []model.AnalysisRow{exactHPRow("helt_okand_substans", "10")}
	result := EvaluateHP(rows)
	assert.Contains(t, result.UnmatchedSubstances, "helt_okand_substans")

	require.Len(t, result.SubstanceResults, 1)
	assert.Equal(t, "excluded", result.SubstanceResults[0].AssignedCategory)
}

func TestEvaluateHP_OrganicWithoutCompoundEntryIsExcludedNotClearedAsIckeFA(t *testing.T) {
	rows := []model.AnalysisRow{exactHPRow("bensen", "2")}
	result := EvaluateHP(rows)

	require.Len(t, result.SubstanceResults, 1)
	assert.Equal(t, "excluded", result.SubstanceResults[0].AssignedCategory)
	assert.False(t, result.HPDetails.IsHazardous)
}

func TestEvaluateHP_IsIdempotentAcrossRepeatedCalls(t *testing.T) {
	rows := []model.AnalysisRow{exactHPRow("bly", "300"), exactHPRow("arsenik", "5")}
	first := EvaluateHP(rows)
	second := EvaluateHP(rows)
	assert.Equal(t, first.OverallCategory, second.OverallCategory)
	assert.Equal(t, first.HPDetails.IsHazardous, second.HPDetails.IsHazardous)
	assert.Equal(t, first.DeterminingSubstances, second.DeterminingSubstances)
}

func TestEvaluateHP_SubstanceResultsCoverEveryInputRow(t *testing.T) {
	rows := []model.AnalysisRow{exactHPRow("bly", "300"), exactHPRow("koppar", "30")}
	result := EvaluateHP(rows)
	assert.Len(t, result.SubstanceResults, len(rows))
}
