// Package report orchestrates a full classification run: every loaded
// ruleset (plus the HP engine, if requested) against every sample, with
// the evidence trace assembled alongside.
package report

import (
	"github.com/everlof/sonda/internal/classify"
	"github.com/everlof/sonda/internal/model"
	"github.com/everlof/sonda/internal/trace"
)

// Options configures one classification run.
type Options struct {
	// Rulesets are the threshold rulesets to evaluate every sample
	// against, in the order they should be reported.
	Rulesets []model.Ruleset
	// IncludeHP runs the HP engine (the "fa" preset) against every
	// sample in addition to Rulesets.
	IncludeHP bool
}

// Classify runs Options against every report and returns the combined
// per-sample results plus the full evidence trace.
func Classify(reports []model.AnalysisReport, opts Options) model.ClassificationResult {
	result := model.ClassificationResult{
		Trace: model.Trace{SchemaVersion: model.TraceSchemaVersion},
	}

	for _, rpt := range reports {
		sampleID := rpt.Header.SampleID

		sampleEntries := make([]model.TraceEntry, 0, len(rpt.Rows))
		for entryIdx, row := range rpt.Rows {
			sampleEntries = append(sampleEntries, trace.BuildEntry(sampleID, entryIdx, row))
		}
		for _, diag := range rpt.Diagnostics {
			result.Trace.Warnings = append(result.Trace.Warnings, model.TraceWarning{
				SampleID:   sampleID,
				HasSample:  true,
				Message:    string(diag.Kind) + ": " + diag.Message + " (" + diag.RawName + ")",
				Severity:   severityForDiagnostic(diag.Kind),
				Visibility: model.VisibilityAuto,
			})
		}

		sample := model.SampleResult{
			SampleID: sampleID,
			Matrix:   rpt.Header.Matrix,
		}

		for rulesetIdx, ruleset := range opts.Rulesets {
			rs := classify.ClassifyThreshold(ruleset, rpt)
			sample.RulesetResults = append(sample.RulesetResults, rs)
			result.Trace.Decisions = append(result.Trace.Decisions, trace.BuildRulesetDecisions(sampleID, rulesetIdx, rs)...)
		}

		if opts.IncludeHP {
			rs := classify.EvaluateHP(rpt.Rows)
			hpIdx := len(opts.Rulesets)
			sample.RulesetResults = append(sample.RulesetResults, rs)
			result.Trace.Decisions = append(result.Trace.Decisions, trace.BuildRulesetDecisions(sampleID, hpIdx, rs)...)
		}

		trace.BackfillReasons(sampleEntries, sample.RulesetResults)
		result.Trace.Entries = append(result.Trace.Entries, sampleEntries...)

		result.Samples = append(result.Samples, sample)
	}

	return result
}

func severityForDiagnostic(kind model.DiagnosticKind) model.TraceSeverity {
	switch kind {
	case model.DiagUnparseableValue, model.DiagUnrecognizedUnit:
		return model.SeverityImportant
	default:
		return model.SeverityInfo
	}
}
