package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everlof/sonda/internal/common"
)

func TestExitCodeFor_Nil(t *testing.T) {
	assert.Equal(t, 0, exitCodeFor(nil))
}

func TestExitCodeFor_MalformedInput(t *testing.T) {
	err := &exitMalformedInput{errors.New("bad json")}
	assert.Equal(t, 2, exitCodeFor(err))
}

func TestExitCodeFor_ValidationFailure(t *testing.T) {
	err := &exitValidationFailure{errors.New("bad ruleset")}
	assert.Equal(t, 3, exitCodeFor(err))
}

func TestExitCodeFor_InvalidRulesetSentinel(t *testing.T) {
	assert.Equal(t, 3, exitCodeFor(common.ErrInvalidRuleset))
}

func TestExitCodeFor_UnexpectedErrorIsOne(t *testing.T) {
	assert.Equal(t, 1, exitCodeFor(errors.New("something broke")))
}

func TestReadReports_MissingFileIsExitMalformedInput(t *testing.T) {
	_, err := readReports([]string{"/nonexistent/report.json"})
	require.Error(t, err)
	var malformed *exitMalformedInput
	assert.ErrorAs(t, err, &malformed)
}

func TestReadReports_ValidFileParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"sample_id": "P1",
		"matrix": "Jord",
		"rows": [{"substance": "Arsenik", "value": "5", "unit": "mg/kg"}]
	}`), 0600))

	reports, err := readReports([]string{path})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "P1", reports[0].Header.SampleID)
}

func TestLoadRulesets_FAPresetSetsIncludeHPWithoutAThresholdRuleset(t *testing.T) {
	rulesets, includeHP, err := loadRulesets([]string{"nv", "fa"}, nil)
	require.NoError(t, err)
	assert.True(t, includeHP)
	require.Len(t, rulesets, 1)
	assert.Equal(t, "nv", rulesets[0].Name)
}

func TestLoadRulesets_UnknownPresetFails(t *testing.T) {
	_, _, err := loadRulesets([]string{"does-not-exist"}, nil)
	require.Error(t, err)
	var invalid *exitValidationFailure
	assert.ErrorAs(t, err, &invalid)
}

func TestContentHash_SameInputsProduceSameHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sample_id": "P1", "rows": []}`), 0600))

	hash1, err := contentHash([]string{path}, []string{"nv"}, nil)
	require.NoError(t, err)
	hash2, err := contentHash([]string{path}, []string{"nv"}, nil)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)
}

func TestContentHash_DifferentPresetSelectionChangesHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sample_id": "P1", "rows": []}`), 0600))

	hashNV, err := contentHash([]string{path}, []string{"nv"}, nil)
	require.NoError(t, err)
	hashFA, err := contentHash([]string{path}, []string{"nv", "fa"}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, hashNV, hashFA, "a different ruleset selection over the same reports must not collide in the run cache")
}

func TestContentHash_OrderOfPresetsDoesNotMatter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sample_id": "P1", "rows": []}`), 0600))

	hash1, err := contentHash([]string{path}, []string{"nv", "fa"}, nil)
	require.NoError(t, err)
	hash2, err := contentHash([]string{path}, []string{"fa", "nv"}, nil)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)
}
