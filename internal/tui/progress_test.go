package tui

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everlof/sonda/internal/model"
)

func cleanSample(category string) model.SampleResult {
	return model.SampleResult{
		SampleID: "P1",
		Matrix:   model.Jord,
		RulesetResults: []model.RuleSetResult{
			{RulesetName: "nv", OverallCategory: category},
		},
	}
}

func hpSample(hazardous bool) model.SampleResult {
	return model.SampleResult{
		SampleID: "P2",
		Matrix:   model.Jord,
		RulesetResults: []model.RuleSetResult{
			{RulesetName: "fa", HPDetails: &model.HpDetails{IsHazardous: hazardous}},
		},
	}
}

func TestNewBatchProgress_Constructs(t *testing.T) {
	p := NewBatchProgress(io.Discard, 3)
	require.NotNil(t, p)
}

func TestAdvance_TalliesThresholdCategories(t *testing.T) {
	p := NewBatchProgress(io.Discard, 2)
	p.Advance(cleanSample("KM"))
	p.Advance(cleanSample("MKM"))

	categories, hazardous := p.Tally()
	assert.Equal(t, 1, categories["KM"])
	assert.Equal(t, 1, categories["MKM"])
	assert.Equal(t, 0, hazardous)
}

func TestAdvance_HPResultsIncrementHazardousNotCategoryTally(t *testing.T) {
	p := NewBatchProgress(io.Discard, 2)
	p.Advance(hpSample(true))
	p.Advance(hpSample(false))

	categories, hazardous := p.Tally()
	assert.Empty(t, categories)
	assert.Equal(t, 1, hazardous)
}

func TestAdvance_SkipsNotApplicableRulesets(t *testing.T) {
	p := NewBatchProgress(io.Discard, 1)
	sample := model.SampleResult{
		SampleID: "P3",
		RulesetResults: []model.RuleSetResult{
			{RulesetName: "asfalt", NotApplicable: true},
		},
	}
	p.Advance(sample)

	categories, hazardous := p.Tally()
	assert.Empty(t, categories)
	assert.Equal(t, 0, hazardous)
}

func TestTally_ReturnsDefensiveCopy(t *testing.T) {
	p := NewBatchProgress(io.Discard, 1)
	p.Advance(cleanSample("KM"))

	categories, _ := p.Tally()
	categories["KM"] = 999

	again, _ := p.Tally()
	assert.Equal(t, 1, again["KM"])
}

func TestFinish_CompletesWithoutError(t *testing.T) {
	p := NewBatchProgress(io.Discard, 1)
	p.Advance(cleanSample("KM"))
	assert.NoError(t, p.Finish())
}
