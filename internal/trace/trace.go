// Package trace assembles the evidence bundle that ties every
// classification decision back to the input row(s) it was derived from.
package trace

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/everlof/sonda/internal/model"
)

func zeroDecimal() decimal.Decimal { return decimal.Zero }

// BuildEntry records one report row as a flat trace entry: what it was
// normalized to, how its value was parsed, and the evidence span it came
// from, if any.
func BuildEntry(sampleID string, entryIdx int, row model.AnalysisRow) model.TraceEntry {
	valueKind := model.TraceValueMissing
	numeric := zeroDecimal()
	switch row.Value.Kind {
	case model.Exact:
		valueKind = model.TraceValueMeasured
		numeric = row.Value.Value
	case model.BelowDetection:
		valueKind = model.TraceValueBelowDetection
		numeric = row.Value.Value
	}

	var spans []model.EvidenceSpan
	if row.EvidenceSpan != nil {
		spans = append(spans, *row.EvidenceSpan)
	}

	return model.TraceEntry{
		EntryID:      fmt.Sprintf("ent_%s_%d", sampleID, entryIdx),
		SampleID:     sampleID,
		RawName:      row.RawName,
		CanonicalKey: row.CanonicalKey,
		RawValue:     row.Value.String(),
		ValueKind:    valueKind,
		NumericValue: numeric,
		Unit:         row.Unit,
		EvidenceSpans: spans,
		Steps: []model.TraceStep{
			{
				StepType: model.StepNormalizeSubstance,
				Message:  fmt.Sprintf("Normalized %q -> %q", row.RawName, row.CanonicalKey),
			},
			{
				StepType: model.StepParseValue,
				Message:  fmt.Sprintf("Parsed value %q as %s", row.Value.String(), numeric.String()),
			},
		},
	}
}

// BuildRulesetDecisions renders one ruleset result's overall verdict and
// every per-subject verdict as trace decisions. The overall decision is
// always visible; substance decisions default to auto-visibility but
// escalate to important whenever a substance could not be conclusively
// resolved by its detection limit.
func BuildRulesetDecisions(sampleID string, rulesetIdx int, rs model.RuleSetResult) []model.TraceDecision {
	if rs.NotApplicable {
		return nil
	}

	determinedBy := "none"
	if len(rs.DeterminingSubstances) > 0 {
		determinedBy = joinStrings(rs.DeterminingSubstances)
	}

	decisions := []model.TraceDecision{
		{
			DecisionID:  fmt.Sprintf("dec_%s_%d_overall", sampleID, rulesetIdx),
			SampleID:    sampleID,
			RulesetName: rs.RulesetName,
			Target:      model.TargetRulesetOverall,
			HasSubject:  false,
			Category:    rs.OverallCategory,
			Reason:      rs.OverallReason,
			Severity:    model.SeverityImportant,
			Visibility:  model.VisibilityAlways,
			Steps: []model.TraceStep{
				{
					StepType: model.StepOverallDecision,
					Message:  fmt.Sprintf("Overall category %q determined by: %s", rs.OverallCategory, determinedBy),
				},
			},
		},
	}

	stepType := model.StepThresholdCompare
	if rs.HPDetails != nil {
		stepType = model.StepHPCriterion
	}

	for subIdx, sr := range rs.SubstanceResults {
		severity := model.SeverityInfo
		if sr.Uncertain {
			severity = model.SeverityImportant
		}
		decisions = append(decisions, model.TraceDecision{
			DecisionID:  fmt.Sprintf("dec_%s_%d_sub_%d", sampleID, rulesetIdx, subIdx),
			SampleID:    sampleID,
			RulesetName: rs.RulesetName,
			Target:      model.TargetSubstance,
			Subject:     sr.Subject,
			HasSubject:  true,
			Category:    sr.AssignedCategory,
			Reason:      sr.Reason,
			Severity:    severity,
			Visibility:  model.VisibilityAuto,
			Steps: []model.TraceStep{
				{StepType: stepType, Message: sr.Reason},
			},
		})
	}

	if rs.HPDetails != nil {
		for critIdx, c := range rs.HPDetails.CriteriaResults {
			severity := model.SeverityInfo
			if c.Triggered {
				severity = model.SeverityCritical
			}
			decisions = append(decisions, model.TraceDecision{
				DecisionID:  fmt.Sprintf("dec_%s_%d_hp_%d", sampleID, rulesetIdx, critIdx),
				SampleID:    sampleID,
				RulesetName: rs.RulesetName,
				Target:      model.TargetHPCriterion,
				Subject:     c.HPID,
				HasSubject:  true,
				Category:    boolCategory(c.Triggered),
				Reason:      c.Reason,
				Severity:    severity,
				Visibility:  visibilityFor(c.Triggered),
				Steps: []model.TraceStep{
					{StepType: model.StepHPCriterion, Message: c.Reason},
				},
			})
		}
	}

	return decisions
}

// BackfillReasons folds every ruleset result computed for a sample back into
// that sample's flat trace entries, which were built before any ruleset ran
// and so start out with no aggregated reason. For each entry, Reason grows
// one "<ruleset>: <reason>" clause per ruleset that carried a substance
// result for the entry's canonical key. Contributor is set when the entry's
// canonical key was a determining substance of a ruleset whose overall
// category differs from that ruleset's lowest (cleanest) category. The
// same predicate applies to both threshold rulesets and the HP engine,
// since EvaluateHP only ever records a determining substance for a
// criterion that actually triggered.
func BackfillReasons(entries []model.TraceEntry, rulesets []model.RuleSetResult) {
	byKey := make(map[string]int, len(entries))
	for i, e := range entries {
		byKey[e.CanonicalKey] = i
	}

	for _, rs := range rulesets {
		if rs.NotApplicable {
			continue
		}

		worseThanLowest := rs.OverallCategory != rs.LowestCategory
		determining := make(map[string]bool, len(rs.DeterminingSubstances))
		for _, subject := range rs.DeterminingSubstances {
			determining[subject] = true
		}

		for _, sr := range rs.SubstanceResults {
			idx, ok := byKey[sr.Subject]
			if !ok {
				continue
			}
			clause := fmt.Sprintf("%s: %s", rs.RulesetName, sr.Reason)
			if entries[idx].Reason == "" {
				entries[idx].Reason = clause
			} else {
				entries[idx].Reason += "; " + clause
			}
			if worseThanLowest && determining[sr.Subject] {
				entries[idx].Contributor = true
			}
		}
	}
}

func boolCategory(triggered bool) string {
	if triggered {
		return "triggered"
	}
	return "not_triggered"
}

func visibilityFor(triggered bool) model.TraceVisibility {
	if triggered {
		return model.VisibilityAlways
	}
	return model.VisibilityOnDemand
}

func joinStrings(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
