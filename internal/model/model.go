// Package model defines the core data types that flow through the
// classification pipeline: parsed analysis rows, rulesets, and the
// per-sample, per-ruleset results the engines produce.
package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ValueKind tags which variant an AnalysisValue holds. AnalysisValue is
// modeled as a tagged sum type rather than an interface hierarchy: every
// consumer switches on Kind instead of relying on dynamic dispatch.
type ValueKind int

const (
	// Missing marks a row with no usable numeric value (empty field, "n.a.",
	// unparseable text, or an unrecognized unit).
	Missing ValueKind = iota
	// Exact marks a row with a directly measured concentration.
	Exact
	// BelowDetection marks a row reported only as "less than" a detection limit.
	BelowDetection
)

func (k ValueKind) String() string {
	switch k {
	case Exact:
		return "exact"
	case BelowDetection:
		return "below_detection"
	default:
		return "missing"
	}
}

// AnalysisValue is the result of parsing one lab-reported number. Exact and
// BelowDetection both carry a non-negative decimal; Missing carries none.
type AnalysisValue struct {
	Value decimal.Decimal `json:"value"`
	Kind  ValueKind       `json:"kind"`
}

// MarshalJSON renders the kind as its lowercase string name instead of
// the underlying int, so wire consumers never depend on iota ordering.
func (v AnalysisValue) MarshalJSON() ([]byte, error) {
	type wire struct {
		Value *decimal.Decimal `json:"value,omitempty"`
		Kind  string           `json:"kind"`
	}
	w := wire{Kind: v.Kind.String()}
	if v.Kind != Missing {
		w.Value = &v.Value
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads back the shape MarshalJSON writes.
func (v *AnalysisValue) UnmarshalJSON(b []byte) error {
	var w struct {
		Value decimal.Decimal `json:"value"`
		Kind  string          `json:"kind"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	kinds := map[string]ValueKind{"exact": Exact, "below_detection": BelowDetection}
	*v = AnalysisValue{Kind: kinds[w.Kind], Value: w.Value}
	return nil
}

// MissingValue constructs a Missing AnalysisValue.
func MissingValue() AnalysisValue {
	return AnalysisValue{Kind: Missing}
}

// ExactValue constructs an Exact AnalysisValue. Panics if v is negative,
// since a negative concentration is a parsing bug, never a legitimate input.
func ExactValue(v decimal.Decimal) AnalysisValue {
	if v.IsNegative() {
		panic(fmt.Sprintf("model: exact value must be non-negative, got %s", v))
	}
	return AnalysisValue{Kind: Exact, Value: v}
}

// BelowDetectionValue constructs a BelowDetection AnalysisValue. Panics if
// the limit is not strictly positive.
func BelowDetectionValue(limit decimal.Decimal) AnalysisValue {
	if !limit.IsPositive() {
		panic(fmt.Sprintf("model: detection limit must be positive, got %s", limit))
	}
	return AnalysisValue{Kind: BelowDetection, Value: limit}
}

// IsMissing reports whether the value carries no measurement.
func (v AnalysisValue) IsMissing() bool { return v.Kind == Missing }

// HasMeasurement reports whether v carries a number at all (exact or
// below-detection); only Missing does not.
func (v AnalysisValue) HasMeasurement() bool { return v.Kind != Missing }

func (v AnalysisValue) String() string {
	switch v.Kind {
	case Exact:
		return v.Value.String()
	case BelowDetection:
		return "< " + v.Value.String()
	default:
		return "n.a."
	}
}

// Matrix is the physical waste type a sample was drawn from. Modeled as a
// closed tagged enum, not an interface hierarchy: there are exactly two
// matrices with distinct threshold tables and adding a third is a schema
// change, not a plugin.
type Matrix int

const (
	// UnknownMatrix marks a report whose matrix could not be determined.
	UnknownMatrix Matrix = iota
	// Jord is soil.
	Jord
	// Asfalt is asphalt.
	Asfalt
)

func (m Matrix) String() string {
	switch m {
	case Jord:
		return "Jord"
	case Asfalt:
		return "Asfalt"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the matrix as its string name.
func (m Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON reads back the string name MarshalJSON writes.
func (m *Matrix) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*m = ParseMatrix(s)
	return nil
}

// ParseMatrix loosely matches a free-text matrix description.
func ParseMatrix(s string) Matrix {
	lower := strings.ToLower(strings.TrimSpace(s))
	if strings.Contains(lower, "jord") || strings.Contains(lower, "soil") {
		return Jord
	}
	if strings.Contains(lower, "asfalt") || strings.Contains(lower, "asphalt") {
		return Asfalt
	}
	return UnknownMatrix
}

// EvidenceSpan is an opaque back-reference to the source location a value
// was extracted from. The classification core never interprets these
// fields; it only carries them through to the trace unchanged.
type EvidenceSpan struct {
	MatchedText string  `json:"matched_text"`
	PageNumber  int     `json:"page_number"`
	LineIndex   int     `json:"line_index"`
	XMin        float64 `json:"x_min"`
	YMin        float64 `json:"y_min"`
	XMax        float64 `json:"x_max"`
	YMax        float64 `json:"y_max"`
}

// AnalysisRow is one substance reading from a lab report.
type AnalysisRow struct {
	RawName      string        `json:"raw_name"`
	CanonicalKey string        `json:"canonical_key"`
	Value        AnalysisValue `json:"value"`
	Unit         string        `json:"unit"`
	EvidenceSpan *EvidenceSpan `json:"evidence_span,omitempty"`
	// Unknown marks a row whose canonical key matched neither a ruleset
	// subject nor the CLP database after normalization.
	Unknown bool `json:"unknown"`
}

// ReportHeader identifies the sample a report's rows belong to.
type ReportHeader struct {
	SampleID   string `json:"sample_id"`
	Matrix     Matrix `json:"matrix"`
	Lab        string `json:"lab,omitempty"`
	ReportDate string `json:"report_date,omitempty"`
}

// AnalysisReport is one sample's full set of parsed rows.
type AnalysisReport struct {
	Header ReportHeader  `json:"header"`
	Rows   []AnalysisRow `json:"rows"`
	// Diagnostics records non-fatal row-level anomalies surfaced during
	// ingestion (duplicate canonical keys, unparseable values, saturated
	// readings) for the trace.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// DiagnosticKind distinguishes the recoverable anomalies the pipeline can
// emit about a single row without aborting classification.
type DiagnosticKind string

const (
	DiagDuplicateKey    DiagnosticKind = "duplicate_canonical_key"
	DiagUnparseableValue DiagnosticKind = "unparseable_value"
	DiagSaturatedValue  DiagnosticKind = "saturated_value"
	DiagUnknownSubstance DiagnosticKind = "unknown_substance"
	DiagUnrecognizedUnit DiagnosticKind = "unrecognized_unit"
)

// Diagnostic is a non-fatal anomaly recorded against a specific row.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	RawName string         `json:"raw_name"`
	Message string         `json:"message"`
}
