package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everlof/sonda/internal/common"
	"github.com/everlof/sonda/internal/model"
)

func TestLoadPreset_NV(t *testing.T) {
	rs, err := LoadPreset("nv")
	require.NoError(t, err)
	assert.Equal(t, []string{"KM", "MKM"}, rs.Categories)
	assert.NotEmpty(t, rs.Rules)
}

func TestLoadPreset_Asfalt(t *testing.T) {
	rs, err := LoadPreset("asfalt")
	require.NoError(t, err)
	assert.NotEmpty(t, rs.Categories)
	assert.NotEmpty(t, rs.Rules)
}

func TestLoadPreset_FARoutesToHPNotAThresholdTable(t *testing.T) {
	_, err := LoadPreset("fa")
	assert.ErrorIs(t, err, common.ErrInvalidRuleset)
}

func TestLoadPreset_UnknownNameIsRejected(t *testing.T) {
	_, err := LoadPreset("does-not-exist")
	assert.ErrorIs(t, err, common.ErrInvalidRuleset)
}

func TestIsHPPreset(t *testing.T) {
	assert.True(t, IsHPPreset("fa"))
	assert.False(t, IsHPPreset("nv"))
	assert.False(t, IsHPPreset("asfalt"))
}

func TestParseString_ValidRuleset(t *testing.T) {
	rs, err := ParseString(`{
		"name": "custom",
		"version": "1.0",
		"categories": ["A", "B"],
		"rules": [
			{"substance": "arsenik", "thresholds": {"A": "10", "B": "25"}}
		]
	}`, "inline")
	require.NoError(t, err)
	assert.Equal(t, "custom", rs.Name)
	assert.Equal(t, model.UnknownMatrix, rs.MatrixFilter)
}

func TestParseString_MatrixFilterIsParsed(t *testing.T) {
	rs, err := ParseString(`{
		"name": "custom",
		"version": "1.0",
		"matrix": "Asfalt",
		"categories": ["A"],
		"rules": [{"substance": "arsenik", "thresholds": {"A": "10"}}]
	}`, "inline")
	require.NoError(t, err)
	assert.Equal(t, model.Asfalt, rs.MatrixFilter)
}

func TestParseString_InvalidMatrixIsRejected(t *testing.T) {
	_, err := ParseString(`{
		"name": "custom",
		"version": "1.0",
		"matrix": "gas",
		"categories": ["A"],
		"rules": [{"substance": "arsenik", "thresholds": {"A": "10"}}]
	}`, "inline")
	assert.ErrorIs(t, err, common.ErrInvalidRuleset)
}

func TestParseString_EmptyCategoriesRejected(t *testing.T) {
	_, err := ParseString(`{"name": "custom", "version": "1.0", "categories": [], "rules": []}`, "inline")
	assert.ErrorIs(t, err, common.ErrInvalidRuleset)
}

func TestParseString_EmptyRulesRejected(t *testing.T) {
	_, err := ParseString(`{"name": "custom", "version": "1.0", "categories": ["A"], "rules": []}`, "inline")
	assert.ErrorIs(t, err, common.ErrInvalidRuleset)
}

func TestParseString_SubstanceWithNoThresholdsRejected(t *testing.T) {
	_, err := ParseString(`{
		"name": "custom", "version": "1.0", "categories": ["A"],
		"rules": [{"substance": "arsenik", "thresholds": {}}]
	}`, "inline")
	assert.ErrorIs(t, err, common.ErrInvalidRuleset)
}

func TestParseString_ThresholdReferencingUnknownCategoryRejected(t *testing.T) {
	_, err := ParseString(`{
		"name": "custom", "version": "1.0", "categories": ["A"],
		"rules": [{"substance": "arsenik", "thresholds": {"B": "10"}}]
	}`, "inline")
	assert.ErrorIs(t, err, common.ErrInvalidRuleset)
}

func TestParseString_MalformedJSONRejected(t *testing.T) {
	_, err := ParseString(`not json`, "inline")
	assert.ErrorIs(t, err, common.ErrInvalidRuleset)
}

func TestLoadFile_MissingFileIsRejected(t *testing.T) {
	_, err := LoadFile("/nonexistent/path/ruleset.json")
	assert.ErrorIs(t, err, common.ErrInvalidRuleset)
}

func TestParseString_DuplicateCategoryRejected(t *testing.T) {
	_, err := ParseString(`{
		"name": "custom", "version": "1.0", "categories": ["A", "A"],
		"rules": [{"substance": "arsenik", "thresholds": {"A": "10"}}]
	}`, "inline")
	assert.ErrorIs(t, err, common.ErrInvalidRuleset)
}

func TestParseString_NonMonotonicThresholdsRejected(t *testing.T) {
	_, err := ParseString(`{
		"name": "custom", "version": "1.0", "categories": ["KM", "MKM"],
		"rules": [{"substance": "arsenik", "thresholds": {"KM": "400", "MKM": "50"}}]
	}`, "inline")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidRuleset)
	assert.Contains(t, err.Error(), "monotonically non-decreasing")
}

func TestParseString_EqualAdjacentThresholdsAreAllowed(t *testing.T) {
	_, err := ParseString(`{
		"name": "custom", "version": "1.0", "categories": ["KM", "MKM"],
		"rules": [{"substance": "arsenik", "thresholds": {"KM": "10", "MKM": "10"}}]
	}`, "inline")
	assert.NoError(t, err)
}

func TestParseString_UnknownSubstanceSubjectRejected(t *testing.T) {
	_, err := ParseString(`{
		"name": "custom", "version": "1.0", "categories": ["A"],
		"rules": [{"substance": "not_a_real_substance", "thresholds": {"A": "10"}}]
	}`, "inline")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidRuleset)
	assert.Contains(t, err.Error(), "not a known canonical key")
}

func TestParseString_GroupSubjectIsAcceptedAsASubject(t *testing.T) {
	_, err := ParseString(`{
		"name": "custom", "version": "1.0", "categories": ["A"],
		"rules": [{"substance": "pah_l", "thresholds": {"A": "10"}}]
	}`, "inline")
	assert.NoError(t, err)
}
