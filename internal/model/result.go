package model

import "github.com/shopspring/decimal"

// SubstanceResult is one subject's verdict within a single ruleset.
type SubstanceResult struct {
	Subject          string           `json:"subject"`
	RawName          string           `json:"raw_name"`
	Value            AnalysisValue    `json:"value"`
	Unit             string           `json:"unit"`
	AssignedCategory string           `json:"assigned_category"`
	ThresholdCrossed *decimal.Decimal `json:"threshold_crossed,omitempty"`
	Reason           string           `json:"reason"`
	Uncertain        bool             `json:"uncertain"`
}

// HpSubstanceContribution is one substance's role in a single HP criterion
// evaluation.
type HpSubstanceContribution struct {
	CanonicalKey     string          `json:"canonical_key"`
	Compound         string          `json:"compound"`
	CAS              string          `json:"cas"`
	HCode            string          `json:"h_code"`
	ConcentrationPct decimal.Decimal `json:"concentration_pct"`
	ThresholdPct     decimal.Decimal `json:"threshold_pct"`
	HasThreshold     bool            `json:"has_threshold"`
	Triggers         bool            `json:"triggers"`
}

// HpCriterionDetail is the evaluation outcome for one of the nine HP
// criteria the core diagnoses.
type HpCriterionDetail struct {
	HPID          string                    `json:"hp_id"`
	HPName        string                    `json:"hp_name"`
	Triggered     bool                      `json:"triggered"`
	Reason        string                    `json:"reason"`
	Contributions []HpSubstanceContribution `json:"contributions,omitempty"`
}

// HpDetails is the full HP-engine output for one sample.
type HpDetails struct {
	IsHazardous     bool                 `json:"is_hazardous"`
	CriteriaResults []HpCriterionDetail `json:"criteria_results"`
}

// RuleSetResult is the outcome of running one ruleset (threshold or HP)
// against one sample.
type RuleSetResult struct {
	RulesetName           string            `json:"ruleset_name"`
	OverallCategory       string            `json:"overall_category"`
	LowestCategory        string            `json:"lowest_category"`
	OverallReason         string            `json:"overall_reason"`
	DeterminingSubstances []string          `json:"determining_substances,omitempty"`
	SubstanceResults      []SubstanceResult `json:"substance_results,omitempty"`
	UnmatchedSubstances   []string          `json:"unmatched_substances,omitempty"`
	UnmatchedRules        []string          `json:"unmatched_rules,omitempty"`
	// NotApplicable is set when the ruleset's matrix filter excluded this
	// sample; all other fields are zero-valued in that case.
	NotApplicable bool       `json:"not_applicable"`
	HPDetails     *HpDetails `json:"hp_details,omitempty"`
}

// SampleResult collects every ruleset's verdict for one sample.
type SampleResult struct {
	SampleID       string          `json:"sample_id"`
	Matrix         Matrix          `json:"matrix"`
	RulesetResults []RuleSetResult `json:"ruleset_results"`
}

// ClassificationResult is the top-level output of a classification run:
// per-sample verdicts plus the evidence trace that ties every decision
// back to its input rows.
type ClassificationResult struct {
	Samples []SampleResult `json:"samples"`
	Trace   Trace          `json:"trace"`
}
