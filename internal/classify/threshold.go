package classify

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/everlof/sonda/internal/model"
)

// ClassifyThreshold runs ruleset against one sample's rows and returns the
// per-subject and overall verdict.
//
// Category assignment: subject Cᵢ is accepted for a measured value iff
// value < threshold(Cᵢ); otherwise evaluation escalates to the next
// (stricter) category. A value equal to a threshold therefore escalates
// rather than staying in the cleaner category: ties resolve to the
// stricter classification, since a reading of exactly the KM limit is
// evidence the site is at least as contaminated as KM requires, not
// evidence it stayed under it. A value that fails every category's
// threshold is assigned the sentinel "> <dirtiest category>".
//
// Below-detection and missing values never independently worsen a
// verdict: an individual subject with no measurement is assigned the
// cleanest category and excluded from the overall determination, and a
// PAH group sum counts only its Exact members. Below-detection members
// contribute zero to the sum, and a group with no Exact member at all is
// itself treated as missing. This diverges deliberately from a
// conservative reading that would escalate an uncertain detection limit
// toward the dirtier category: for this system, "we didn't measure it"
// must never look like "we measured something bad".
func ClassifyThreshold(ruleset model.Ruleset, report model.AnalysisReport) model.RuleSetResult {
	if ruleset.MatrixFilter != model.UnknownMatrix && report.Header.Matrix != model.UnknownMatrix &&
		ruleset.MatrixFilter != report.Header.Matrix {
		return model.RuleSetResult{
			RulesetName:   ruleset.Name,
			NotApplicable: true,
		}
	}

	byKey := make(map[string]model.AnalysisRow, len(report.Rows))
	matched := make(map[string]bool, len(report.Rows))
	for _, row := range report.Rows {
		byKey[row.CanonicalKey] = row
	}

	var substanceResults []model.SubstanceResult
	var unmatchedRules []string

	for _, rule := range ruleset.Rules {
		value, rawName, unit, found := resolveSubject(rule, byKey, matched)
		if !found {
			unmatchedRules = append(unmatchedRules, rule.Subject)
			continue
		}

		category, reason, thresholdCrossed, contributes := classifySubject(ruleset.Categories, rule, value)
		substanceResults = append(substanceResults, model.SubstanceResult{
			Subject:          rule.Subject,
			RawName:          rawName,
			Value:            value,
			Unit:             unit,
			AssignedCategory: category,
			ThresholdCrossed: thresholdCrossed,
			Reason:           reason,
			Uncertain:        !contributes && value.Kind == model.BelowDetection,
		})
	}

	var unmatchedSubstances []string
	for _, row := range report.Rows {
		if !matched[row.CanonicalKey] && !model.IsGroupSubject(row.CanonicalKey) {
			unmatchedSubstances = append(unmatchedSubstances, row.CanonicalKey)
		}
	}

	overall, overallReason, determining := determineOverall(ruleset.Categories, substanceResults)

	return model.RuleSetResult{
		RulesetName:           ruleset.Name,
		OverallCategory:       overall,
		LowestCategory:        ruleset.Categories[0],
		OverallReason:         overallReason,
		DeterminingSubstances: determining,
		SubstanceResults:      substanceResults,
		UnmatchedSubstances:   unmatchedSubstances,
		UnmatchedRules:        unmatchedRules,
	}
}

// resolveSubject finds the measured value a rule's subject corresponds to:
// either a single row's value, or the sum of a PAH group's member rows.
// matched is updated with every canonical key the report actually carries
// data for, so the caller can compute which report rows matched no rule.
func resolveSubject(rule model.SubstanceRule, byKey map[string]model.AnalysisRow, matched map[string]bool) (value model.AnalysisValue, rawName, unit string, found bool) {
	if model.IsGroupSubject(rule.Subject) {
		sum := decimal.Zero
		hasExact := false
		anyMember := false
		for _, member := range model.GroupMembers(rule.Subject) {
			row, ok := byKey[member]
			if !ok {
				continue
			}
			anyMember = true
			matched[member] = true
			if row.Value.Kind == model.Exact {
				sum = sum.Add(row.Value.Value)
				hasExact = true
			}
		}
		if !anyMember {
			return model.AnalysisValue{}, rule.Subject, "mg/kg", false
		}
		if hasExact {
			return model.ExactValue(sum), rule.Subject, "mg/kg", true
		}
		return model.MissingValue(), rule.Subject, "mg/kg", true
	}

	row, ok := byKey[rule.Subject]
	if !ok {
		return model.AnalysisValue{}, rule.Subject, "", false
	}
	matched[rule.Subject] = true
	return row.Value, row.RawName, row.Unit, true
}

// classifySubject assigns one subject's category. contributes reports
// whether this subject's result should be allowed to drive the overall
// verdict; false for subjects that carried no usable measurement.
func classifySubject(categories []string, rule model.SubstanceRule, value model.AnalysisValue) (category, reason string, thresholdCrossed *decimal.Decimal, contributes bool) {
	if !value.HasMeasurement() || value.Kind == model.BelowDetection {
		return categories[0], "no measurement for this subject; assigned the cleanest category", nil, false
	}

	var previousThreshold *decimal.Decimal
	for _, cat := range categories {
		threshold, ok := rule.Thresholds[cat]
		if !ok {
			continue
		}
		if value.Value.Cmp(threshold) < 0 {
			reason := fmt.Sprintf("%s < %s (%s threshold)", value.Value.String(), threshold.String(), cat)
			if previousThreshold != nil {
				reason = fmt.Sprintf("%s; exceeds %s threshold, below %s threshold", value.Value.String(), prevCatLabel(categories, rule, *previousThreshold), cat)
			}
			return cat, reason, previousThreshold, true
		}
		t := threshold
		previousThreshold = &t
	}

	last := categories[len(categories)-1]
	sentinel := model.ExceedsAllPrefix + last
	reason = fmt.Sprintf("%s exceeds every category threshold, including %s", value.Value.String(), last)
	return sentinel, reason, previousThreshold, true
}

func prevCatLabel(categories []string, rule model.SubstanceRule, threshold decimal.Decimal) string {
	for _, cat := range categories {
		if t, ok := rule.Thresholds[cat]; ok && t.Equal(threshold) {
			return cat
		}
	}
	return "a lower"
}

// determineOverall finds the worst category among contributing
// substances. The sentinel "> <category>" always outranks every named
// category. An empty or entirely non-contributing result set defaults to
// the cleanest category: a ruleset with nothing to say about a sample
// cannot itself make that sample look contaminated.
func determineOverall(categories []string, results []model.SubstanceResult) (overall, reason string, determining []string) {
	rank := make(map[string]int, len(categories))
	for i, c := range categories {
		rank[c] = i
	}

	best := -1
	bestIsSentinel := false
	var determiners []string

	for _, r := range results {
		if !r.Value.HasMeasurement() || r.Value.Kind == model.BelowDetection {
			continue
		}
		var idx int
		isSentinel := len(r.AssignedCategory) > len(model.ExceedsAllPrefix) && r.AssignedCategory[:len(model.ExceedsAllPrefix)] == model.ExceedsAllPrefix
		if isSentinel {
			idx = len(categories)
		} else {
			var ok bool
			idx, ok = rank[r.AssignedCategory]
			if !ok {
				continue
			}
		}

		switch {
		case idx > best:
			best = idx
			bestIsSentinel = isSentinel
			determiners = []string{r.Subject}
		case idx == best:
			determiners = append(determiners, r.Subject)
		}
	}

	if best < 0 {
		return categories[0], "no contributing measurements; assigned the cleanest category", nil
	}

	if bestIsSentinel {
		overall = model.ExceedsAllPrefix + categories[len(categories)-1]
	} else {
		overall = categories[best]
	}
	reason = fmt.Sprintf("Determined by %s", joinComma(determiners))
	return overall, reason, determiners
}
