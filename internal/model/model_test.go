package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactValue_PanicsOnNegative(t *testing.T) {
	assert.Panics(t, func() {
		ExactValue(decimal.RequireFromString("-1"))
	})
}

func TestBelowDetectionValue_PanicsOnNonPositiveLimit(t *testing.T) {
	assert.Panics(t, func() {
		BelowDetectionValue(decimal.Zero)
	})
}

func TestAnalysisValue_MarshalJSON_MissingOmitsValue(t *testing.T) {
	b, err := json.Marshal(MissingValue())
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"missing"}`, string(b))
}

func TestAnalysisValue_MarshalJSON_ExactIncludesValue(t *testing.T) {
	b, err := json.Marshal(ExactValue(decimal.RequireFromString("5")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"5","kind":"exact"}`, string(b))
}

func TestAnalysisValue_String(t *testing.T) {
	assert.Equal(t, "5", ExactValue(decimal.RequireFromString("5")).String())
	assert.Equal(t, "< 0.01", BelowDetectionValue(decimal.RequireFromString("0.01")).String())
	assert.Equal(t, "n.a.", MissingValue().String())
}

func TestAnalysisValue_HasMeasurement(t *testing.T) {
	assert.False(t, MissingValue().HasMeasurement())
	assert.True(t, ExactValue(decimal.RequireFromString("1")).HasMeasurement())
	assert.True(t, BelowDetectionValue(decimal.RequireFromString("1")).HasMeasurement())
}

func TestParseMatrix_RecognizesSwedishAndEnglishNames(t *testing.T) {
	assert.Equal(t, Jord, ParseMatrix("Jord"))
	assert.Equal(t, Jord, ParseMatrix("  soil sample  "))
	assert.Equal(t, Asfalt, ParseMatrix("Asfalt"))
	assert.Equal(t, Asfalt, ParseMatrix("asphalt core"))
	assert.Equal(t, UnknownMatrix, ParseMatrix("sediment"))
	assert.Equal(t, UnknownMatrix, ParseMatrix(""))
}

func TestMatrix_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Jord)
	require.NoError(t, err)
	assert.Equal(t, `"Jord"`, string(b))
}
