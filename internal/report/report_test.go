package report

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everlof/sonda/internal/model"
	"github.com/everlof/sonda/internal/rules"
)

func mustPreset(t *testing.T, name string) model.Ruleset {
	t.Helper()
	rs, err := rules.LoadPreset(name)
	require.NoError(t, err)
	return rs
}

func cleanSoilReport(sampleID string) model.AnalysisReport {
	return model.AnalysisReport{
		Header: model.ReportHeader{SampleID: sampleID, Matrix: model.Jord},
		Rows: []model.AnalysisRow{
			{RawName: "Arsenik", CanonicalKey: "arsenik", Value: model.ExactValue(decimal.RequireFromString("5")), Unit: "mg/kg"},
			{RawName: "Bly", CanonicalKey: "bly", Value: model.ExactValue(decimal.RequireFromString("20")), Unit: "mg/kg"},
		},
	}
}

func TestClassify_ProducesOneSamplePerReport(t *testing.T) {
	result := Classify([]model.AnalysisReport{cleanSoilReport("P1"), cleanSoilReport("P2")}, Options{
		Rulesets: []model.Ruleset{mustPreset(t, "nv")},
	})
	assert.Len(t, result.Samples, 2)
	assert.Equal(t, "P1", result.Samples[0].SampleID)
	assert.Equal(t, "P2", result.Samples[1].SampleID)
}

func TestClassify_RunsEveryConfiguredRuleset(t *testing.T) {
	result := Classify([]model.AnalysisReport{cleanSoilReport("P1")}, Options{
		Rulesets: []model.Ruleset{mustPreset(t, "nv"), mustPreset(t, "asfalt")},
	})
	require.Len(t, result.Samples, 1)
	assert.Len(t, result.Samples[0].RulesetResults, 2)
}

func TestClassify_IncludeHPAppendsHPResult(t *testing.T) {
	result := Classify([]model.AnalysisReport{cleanSoilReport("P1")}, Options{
		Rulesets:  []model.Ruleset{mustPreset(t, "nv")},
		IncludeHP: true,
	})
	require.Len(t, result.Samples[0].RulesetResults, 2)
	hpResult := result.Samples[0].RulesetResults[1]
	assert.NotNil(t, hpResult.HPDetails)
}

func TestClassify_TraceCoversEveryRowAndDecision(t *testing.T) {
	result := Classify([]model.AnalysisReport{cleanSoilReport("P1")}, Options{
		Rulesets: []model.Ruleset{mustPreset(t, "nv")},
	})
	assert.Len(t, result.Trace.Entries, 2, "one trace entry per input row")
	assert.NotEmpty(t, result.Trace.Decisions)
	assert.Equal(t, model.TraceSchemaVersion, result.Trace.SchemaVersion)
}

func TestClassify_DiagnosticsBecomeTraceWarnings(t *testing.T) {
	report := model.AnalysisReport{
		Header: model.ReportHeader{SampleID: "P1", Matrix: model.Jord},
		Rows: []model.AnalysisRow{
			{RawName: "Arsenik", CanonicalKey: "arsenik", Value: model.ExactValue(decimal.RequireFromString("5")), Unit: "mg/kg"},
		},
		Diagnostics: []model.Diagnostic{
			{Kind: model.DiagUnparseableValue, RawName: "Bly", Message: "invalid number"},
		},
	}
	result := Classify([]model.AnalysisReport{report}, Options{Rulesets: []model.Ruleset{mustPreset(t, "nv")}})
	require.Len(t, result.Trace.Warnings, 1)
	assert.Equal(t, model.SeverityImportant, result.Trace.Warnings[0].Severity)
}

func TestClassify_TraceEntriesCarryAggregatedReasonAndContributorFlag(t *testing.T) {
	leadHeavyReport := model.AnalysisReport{
		Header: model.ReportHeader{SampleID: "P1", Matrix: model.Jord},
		Rows: []model.AnalysisRow{
			{RawName: "Bly", CanonicalKey: "bly", Value: model.ExactValue(decimal.RequireFromString("300")), Unit: "mg/kg"},
			{RawName: "Arsenik", CanonicalKey: "arsenik", Value: model.ExactValue(decimal.RequireFromString("5")), Unit: "mg/kg"},
		},
	}
	result := Classify([]model.AnalysisReport{leadHeavyReport}, Options{
		Rulesets:  []model.Ruleset{mustPreset(t, "nv")},
		IncludeHP: true,
	})

	require.Len(t, result.Trace.Entries, 2)

	var lead, arsenic *model.TraceEntry
	for i := range result.Trace.Entries {
		switch result.Trace.Entries[i].CanonicalKey {
		case "bly":
			lead = &result.Trace.Entries[i]
		case "arsenik":
			arsenic = &result.Trace.Entries[i]
		}
	}
	require.NotNil(t, lead)
	require.NotNil(t, arsenic)

	assert.Contains(t, lead.Reason, "nv:")
	assert.Contains(t, lead.Reason, "fa:")
	assert.True(t, lead.Contributor, "lead at 300 mg/kg triggers HP10, worse than the HP engine's lowest category")
	assert.False(t, arsenic.Contributor, "arsenic at 5 mg/kg never drives either ruleset's verdict")
}

func TestClassify_DeterminismAcrossRepeatedRuns(t *testing.T) {
	reports := []model.AnalysisReport{cleanSoilReport("P1")}
	opts := Options{Rulesets: []model.Ruleset{mustPreset(t, "nv")}, IncludeHP: true}

	first := Classify(reports, opts)
	second := Classify(reports, opts)

	require.Len(t, first.Samples, 1)
	require.Len(t, second.Samples, 1)
	assert.Equal(t, first.Samples[0].RulesetResults[0].OverallCategory, second.Samples[0].RulesetResults[0].OverallCategory)
	assert.Equal(t, len(first.Trace.Entries), len(second.Trace.Entries))
	assert.Equal(t, len(first.Trace.Decisions), len(second.Trace.Decisions))
}
