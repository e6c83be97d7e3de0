package parsing

import (
	"testing"

	decimalpkg "github.com/everlof/sonda/internal/decimal"
	"github.com/everlof/sonda/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestParseValue_Exact(t *testing.T) {
	v, diag := ParseValue("12.5", "mg/kg")
	assert.Nil(t, diag)
	assert.Equal(t, model.Exact, v.Kind)
	assert.True(t, v.Value.Equal(decimalpkg.MustParse("12.5")))
}

func TestParseValue_BelowDetection(t *testing.T) {
	v, diag := ParseValue("<0.01", "mg/kg")
	assert.Nil(t, diag)
	assert.Equal(t, model.BelowDetection, v.Kind)
	assert.True(t, v.Value.Equal(decimalpkg.MustParse("0.01")))
}

func TestParseValue_AboveInstrumentRangeSaturates(t *testing.T) {
	v, diag := ParseValue(">1000", "mg/kg")
	assert.Equal(t, model.Exact, v.Kind)
	assert.True(t, v.Value.Equal(decimalpkg.MustParse("1000")))
	if assert.NotNil(t, diag) {
		assert.Equal(t, model.DiagSaturatedValue, diag.Kind)
	}
}

func TestParseValue_NotAnalyzedTokensAreMissingWithoutDiagnostic(t *testing.T) {
	for _, tok := range []string{"", "-", "n.a.", "n/a", "N/A", "*"} {
		v, diag := ParseValue(tok, "mg/kg")
		assert.True(t, v.IsMissing(), "token %q should parse as missing", tok)
		assert.Nil(t, diag, "token %q should not produce a diagnostic", tok)
	}
}

func TestParseValue_UnrecognizedUnitDiscardsValue(t *testing.T) {
	v, diag := ParseValue("5", "parts per smell")
	assert.True(t, v.IsMissing())
	if assert.NotNil(t, diag) {
		assert.Equal(t, model.DiagUnrecognizedUnit, diag.Kind)
	}
}

func TestParseValue_UnparseableNumberIsMissingWithDiagnostic(t *testing.T) {
	v, diag := ParseValue("abc", "mg/kg")
	assert.True(t, v.IsMissing())
	if assert.NotNil(t, diag) {
		assert.Equal(t, model.DiagUnparseableValue, diag.Kind)
	}
}

func TestParseValue_MicrogramsPerKgConvertsToMilligrams(t *testing.T) {
	v, diag := ParseValue("500", "ug/kg")
	assert.Nil(t, diag)
	assert.True(t, v.Value.Equal(decimalpkg.MustParse("0.5")))
}

func TestParseValue_PercentConvertsToMilligramsPerKg(t *testing.T) {
	v, diag := ParseValue("0.01", "%")
	assert.Nil(t, diag)
	assert.True(t, v.Value.Equal(decimalpkg.MustParse("100")))
}

func TestParseValue_DefaultUnitIsMilligramsPerKg(t *testing.T) {
	v, diag := ParseValue("10", "")
	assert.Nil(t, diag)
	assert.True(t, v.Value.Equal(decimalpkg.MustParse("10")))
}

func TestParseValue_BelowDetectionWithWhitespaceAfterPrefix(t *testing.T) {
	v, diag := ParseValue("<  0.05", "mg/kg")
	assert.Nil(t, diag)
	assert.Equal(t, model.BelowDetection, v.Kind)
	assert.True(t, v.Value.Equal(decimalpkg.MustParse("0.05")))
}
