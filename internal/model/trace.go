package model

import "github.com/shopspring/decimal"

// TraceSchemaVersion identifies the shape of the trace structures below so
// downstream consumers can detect incompatible changes.
const TraceSchemaVersion = "1.0"

// TraceSeverity ranks how prominently a decision or warning should surface
// to an operator.
type TraceSeverity string

const (
	SeverityCritical  TraceSeverity = "critical"
	SeverityImportant TraceSeverity = "important"
	SeverityInfo      TraceSeverity = "info"
)

// TraceVisibility controls default display: always shown, shown only when
// it is noteworthy, or only on explicit request (--show-all/--verbose).
type TraceVisibility string

const (
	VisibilityAlways   TraceVisibility = "always"
	VisibilityAuto     TraceVisibility = "auto"
	VisibilityOnDemand TraceVisibility = "on_demand"
)

// TraceStepType tags what kind of operation a TraceStep records.
type TraceStepType string

const (
	StepParseValue         TraceStepType = "parse_value"
	StepNormalizeSubstance TraceStepType = "normalize_substance"
	StepThresholdCompare   TraceStepType = "threshold_compare"
	StepOverallDecision    TraceStepType = "overall_decision"
	StepHPCriterion        TraceStepType = "hp_criterion"
)

// TraceStep is one sub-step of how an entry or decision was derived.
type TraceStep struct {
	StepType TraceStepType `json:"step_type"`
	Message  string        `json:"message"`
}

// TraceValueKind mirrors ValueKind for trace entries; rows without a usable
// value are recorded as TraceValueMissing.
type TraceValueKind string

const (
	TraceValueMeasured       TraceValueKind = "measured"
	TraceValueBelowDetection TraceValueKind = "below_detection"
	TraceValueMissing        TraceValueKind = "missing"
)

// TraceEntry is a flat per-row record: one emitted for every row in every
// input report, regardless of whether any ruleset matched it.
type TraceEntry struct {
	EntryID      string          `json:"entry_id"`
	SampleID     string          `json:"sample_id"`
	RawName      string          `json:"raw_name"`
	CanonicalKey string          `json:"canonical_key"`
	RawValue     string          `json:"raw_value"`
	ValueKind    TraceValueKind  `json:"value_kind"`
	NumericValue decimal.Decimal `json:"numeric_value"`
	Unit         string          `json:"unit"`
	// Reason aggregates this row's per-ruleset verdict reasons, one
	// "<ruleset>: <reason>" clause per ruleset that evaluated it, joined
	// with "; ". Empty until every ruleset has run against the sample.
	Reason string `json:"reason,omitempty"`
	// Contributor marks a row as having driven at least one ruleset's
	// verdict worse than that ruleset's cleanest category: it was a
	// determining_substance of a ruleset whose overall_category differs
	// from lowest_category.
	Contributor   bool           `json:"contributor"`
	EvidenceSpans []EvidenceSpan `json:"evidence_spans,omitempty"`
	Steps         []TraceStep    `json:"steps"`
}

// TraceDecisionTarget identifies what kind of verdict a TraceDecision
// records.
type TraceDecisionTarget string

const (
	TargetSubstance     TraceDecisionTarget = "substance"
	TargetRulesetOverall TraceDecisionTarget = "ruleset_overall"
	TargetHPCriterion   TraceDecisionTarget = "hp_criterion"
)

// TraceDecision is one (sample, ruleset, subject) verdict.
type TraceDecision struct {
	DecisionID  string               `json:"decision_id"`
	SampleID    string               `json:"sample_id"`
	RulesetName string               `json:"ruleset_name"`
	Target      TraceDecisionTarget  `json:"target"`
	Subject     string               `json:"subject,omitempty"`
	HasSubject  bool                 `json:"has_subject"`
	Category    string               `json:"category"`
	Reason      string               `json:"reason"`
	Severity    TraceSeverity        `json:"severity"`
	Visibility  TraceVisibility      `json:"visibility"`
	Steps       []TraceStep          `json:"steps"`
}

// TraceWarning is a non-fatal diagnostic surfaced alongside entries and
// decisions (unknown substance, unparseable value, matrix mismatch).
type TraceWarning struct {
	SampleID   string        `json:"sample_id,omitempty"`
	HasSample  bool          `json:"has_sample"`
	Message    string        `json:"message"`
	Severity   TraceSeverity `json:"severity"`
	Visibility TraceVisibility `json:"visibility"`
}

// Trace is the complete evidence bundle for a classification run.
type Trace struct {
	SchemaVersion string          `json:"schema_version"`
	Entries       []TraceEntry    `json:"entries"`
	Decisions     []TraceDecision `json:"decisions"`
	Warnings      []TraceWarning  `json:"warnings,omitempty"`
}
