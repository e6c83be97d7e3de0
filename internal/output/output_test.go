package output

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everlof/sonda/internal/model"
)

func testResult() model.ClassificationResult {
	return model.ClassificationResult{
		Samples: []model.SampleResult{
			{
				SampleID: "P1",
				Matrix:   model.Jord,
				RulesetResults: []model.RuleSetResult{
					{
						RulesetName:           "nv",
						OverallCategory:       "MKM",
						LowestCategory:        "KM",
						OverallReason:         "Determined by arsenik",
						DeterminingSubstances: []string{"arsenik"},
						SubstanceResults: []model.SubstanceResult{
							{Subject: "arsenik", AssignedCategory: "MKM", Reason: "10 < 25 (MKM threshold)"},
						},
					},
				},
			},
		},
		Trace: model.Trace{SchemaVersion: model.TraceSchemaVersion},
	}
}

func TestJSON_ProducesValidIndentedJSON(t *testing.T) {
	b, err := JSON(testResult())
	require.NoError(t, err)

	var decoded model.ClassificationResult
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "P1", decoded.Samples[0].SampleID)
	assert.Contains(t, string(b), "\n  ")
}

func TestJSON_MatrixSerializesAsStringNotInt(t *testing.T) {
	b, err := JSON(testResult())
	require.NoError(t, err)
	assert.Contains(t, string(b), `"matrix": "Jord"`)
}

func TestTable_RendersOverallCategory(t *testing.T) {
	out := Table(testResult(), TableOptions{})
	assert.Contains(t, out, "MKM")
}

func TestTable_ShowAllIncludesNonDeterminingSubstances(t *testing.T) {
	result := testResult()
	result.Samples[0].RulesetResults[0].SubstanceResults = append(
		result.Samples[0].RulesetResults[0].SubstanceResults,
		model.SubstanceResult{Subject: "koppar", AssignedCategory: "KM", Reason: "30 < 80 (KM threshold)"},
	)

	withoutShowAll := Table(result, TableOptions{ShowAll: false})
	withShowAll := Table(result, TableOptions{ShowAll: true})
	assert.Contains(t, withShowAll, "koppar")
	assert.NotContains(t, withoutShowAll, "koppar")
}

func TestTable_NotApplicableRulesetIsNoted(t *testing.T) {
	result := testResult()
	result.Samples[0].RulesetResults[0].NotApplicable = true
	out := Table(result, TableOptions{})
	assert.Contains(t, out, "not applicable")
}

func TestTable_HPResultRendersFAVerdict(t *testing.T) {
	result := model.ClassificationResult{
		Samples: []model.SampleResult{
			{
				SampleID: "P1",
				Matrix:   model.Jord,
				RulesetResults: []model.RuleSetResult{
					{
						RulesetName:     "fa",
						OverallCategory: "FA",
						LowestCategory:  "Icke FA",
						HPDetails: &model.HpDetails{
							IsHazardous: true,
							CriteriaResults: []model.HpCriterionDetail{
								{HPID: "HP10", HPName: "Toxic for reproduction", Triggered: true, Reason: "SCL exceeded"},
							},
						},
					},
				},
			},
		},
	}
	out := Table(result, TableOptions{})
	assert.Contains(t, out, "FA")
}
