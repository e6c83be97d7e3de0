// Package classify implements the two classification engines: a threshold
// engine comparing measured concentrations against ordered land-use
// category tables, and an HP engine that diagnoses EU hazardous-waste
// properties from a sample's speciated CLP profile.
package classify

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/everlof/sonda/internal/clp"
	"github.com/everlof/sonda/internal/model"
)

var (
	hpOne     = decimal.NewFromInt(1)
	hpHundred = decimal.NewFromInt(100)
	hpTen     = decimal.NewFromInt(10)
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("classify: invalid HP threshold constant %q: %v", s, err))
	}
	return d
}

// EvaluateHP runs the nine HP criteria against rows in the order the
// Swedish EPA guidance documents present them: carcinogenicity and
// mutagenicity first (no dose threshold below which they are ignored),
// then the dose-dependent properties, ecotoxicity last since it is the
// only criterion to weight concentrations by an M-factor rather than
// compare them directly.
func EvaluateHP(rows []model.AnalysisRow) model.RuleSetResult {
	resolved, unresolved := clp.ResolveSubstances(rows)

	criteria := []model.HpCriterionDetail{
		evaluateHP7(resolved),
		evaluateHP11(resolved),
		evaluateHP10(resolved),
		evaluateHP5(resolved),
		evaluateHP6(resolved),
		evaluateHP4(resolved),
		evaluateHP8(resolved),
		evaluateHP13(resolved),
		evaluateHP14(resolved),
	}

	isHazardous := false
	var triggeredIDs []string
	determining := map[string]bool{}
	var determiningOrder []string

	for _, c := range criteria {
		if !c.Triggered {
			continue
		}
		isHazardous = true
		triggeredIDs = append(triggeredIDs, c.HPID)
		for _, contrib := range c.Contributions {
			if !contrib.Triggers {
				continue
			}
			if !determining[contrib.CanonicalKey] {
				determining[contrib.CanonicalKey] = true
				determiningOrder = append(determiningOrder, contrib.CanonicalKey)
			}
		}
	}

	overall := "Icke FA"
	reason := "No HP criterion triggered"
	if isHazardous {
		overall = "FA"
		reason = "Triggered: " + joinComma(triggeredIDs)
	}

	substanceResults := buildSubstanceResults(rows, resolved, unresolved, determining)

	return model.RuleSetResult{
		RulesetName:           "fa",
		OverallCategory:       overall,
		LowestCategory:        "Icke FA",
		OverallReason:         reason,
		DeterminingSubstances: determiningOrder,
		SubstanceResults:      substanceResults,
		UnmatchedSubstances:   unresolved,
		HPDetails: &model.HpDetails{
			IsHazardous:     isHazardous,
			CriteriaResults: criteria,
		},
	}
}

// buildSubstanceResults assigns every input row a per-substance HP verdict.
// A row that was never evaluated against any HP criterion (no harmonised
// CLP entry, a canonical key the CLP/speciation tables don't recognize at
// all, no measurement, or a dry-substance/group-sum subject that ResolveSubstances
// never emits an individual speciated view for) is assigned "excluded"
// rather than "Icke FA": the latter means "checked, nothing triggered", and
// a row that was never checked must not look identical to one that was.
func buildSubstanceResults(rows []model.AnalysisRow, resolved []model.SpeciatedView, unresolved []string, determining map[string]bool) []model.SubstanceResult {
	byKey := make(map[string]model.SpeciatedView, len(resolved))
	for _, r := range resolved {
		byKey[r.CanonicalKey] = r
	}
	unresolvedSet := make(map[string]bool, len(unresolved))
	for _, k := range unresolved {
		unresolvedSet[k] = true
	}

	results := make([]model.SubstanceResult, 0, len(rows))
	for _, row := range rows {
		view, isResolved := byKey[row.CanonicalKey]

		var category, reason string
		switch {
		case determining[row.CanonicalKey]:
			category, reason = "FA", "contributed to at least one triggered HP criterion"
		case isResolved && !view.NoSpeciation:
			category, reason = "Icke FA", "no HP criterion triggered for this substance"
		case isResolved && view.NoSpeciation:
			category, reason = "excluded", "no harmonised CLP entry for this substance; concentration recorded but not evaluated against any HP criterion"
		case unresolvedSet[row.CanonicalKey]:
			category, reason = "excluded", "substance not recognized by the CLP database or speciation table"
		case row.Value.IsMissing():
			category, reason = "excluded", "no measurement for this substance"
		case model.IsGroupSubject(row.CanonicalKey) || row.CanonicalKey == "ts":
			category, reason = "excluded", "not an individually hazard-classified subject"
		default:
			category, reason = "Icke FA", "no HP criterion triggered for this substance"
		}

		results = append(results, model.SubstanceResult{
			Subject:          row.CanonicalKey,
			RawName:          row.RawName,
			Value:            row.Value,
			Unit:             row.Unit,
			AssignedCategory: category,
			Reason:           reason,
		})
	}
	return results
}

func joinComma(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += id
	}
	return out
}

// individualCriterion evaluates one or more H-codes against an individual
// (non-summed) threshold: the substance's own concentration_pct must meet
// or exceed the threshold for that H-code.
func individualCriterion(hpID, hpName string, resolved []model.SpeciatedView, checks []struct {
	HCode     string
	Threshold decimal.Decimal
}) model.HpCriterionDetail {
	var contributions []model.HpSubstanceContribution
	triggered := false

	for _, r := range resolved {
		if r.BelowDetection || r.Entry == nil {
			continue
		}
		for _, check := range checks {
			if !r.Entry.HasHCodePrefix(check.HCode) {
				continue
			}
			hits := r.ConcentrationPct.Cmp(check.Threshold) >= 0
			if hits {
				triggered = true
			}
			contributions = append(contributions, model.HpSubstanceContribution{
				CanonicalKey:     r.CanonicalKey,
				Compound:         r.Compound,
				CAS:              r.CAS,
				HCode:            check.HCode,
				ConcentrationPct: r.ConcentrationPct,
				ThresholdPct:     check.Threshold,
				HasThreshold:     true,
				Triggers:         hits,
			})
		}
	}

	sortContributions(contributions)

	reason := fmt.Sprintf("%s thresholds not exceeded", hpName)
	if triggered {
		reason = fmt.Sprintf("%s threshold exceeded", hpName)
	}

	return model.HpCriterionDetail{
		HPID:          hpID,
		HPName:        hpName,
		Triggered:     triggered,
		Reason:        reason,
		Contributions: contributions,
	}
}

func sortContributions(c []model.HpSubstanceContribution) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].CanonicalKey != c[j].CanonicalKey {
			return c[i].CanonicalKey < c[j].CanonicalKey
		}
		return c[i].HCode < c[j].HCode
	})
}

// evaluateHP7: carcinogenic. Individual H350(i)/H350 >= 0.1%, H351 >= 1.0%.
func evaluateHP7(resolved []model.SpeciatedView) model.HpCriterionDetail {
	return individualCriterion("HP7", "Carcinogenic", resolved, []struct {
		HCode     string
		Threshold decimal.Decimal
	}{
		{"H350", dec("0.1")},
		{"H351", dec("1.0")},
	})
}

// evaluateHP11: mutagenic. Individual H340 >= 0.1%, H341 >= 1.0%.
func evaluateHP11(resolved []model.SpeciatedView) model.HpCriterionDetail {
	return individualCriterion("HP11", "Mutagenic", resolved, []struct {
		HCode     string
		Threshold decimal.Decimal
	}{
		{"H340", dec("0.1")},
		{"H341", dec("1.0")},
	})
}

// evaluateHP10: toxic for reproduction. H360 variants default to 0.3%, but
// defer to the substance's own Repr.1A/1B specific concentration limit
// when the database carries one. H361 always uses the generic 0.3% limit.
func evaluateHP10(resolved []model.SpeciatedView) model.HpCriterionDetail {
	defaultThreshold := dec("0.3")
	var contributions []model.HpSubstanceContribution
	triggered := false

	for _, r := range resolved {
		if r.BelowDetection || r.Entry == nil {
			continue
		}

		if hc := r.Entry.FindHCodePrefix("H360"); hc != nil {
			threshold := defaultThreshold
			if v, ok := sclForRepr(r.Entry, "1A"); ok {
				threshold = v
			} else if v, ok := sclForRepr(r.Entry, "1B"); ok {
				threshold = v
			}
			hits := r.ConcentrationPct.Cmp(threshold) >= 0
			if hits {
				triggered = true
			}
			contributions = append(contributions, model.HpSubstanceContribution{
				CanonicalKey: r.CanonicalKey, Compound: r.Compound, CAS: r.CAS,
				HCode: hc.HCode, ConcentrationPct: r.ConcentrationPct,
				ThresholdPct: threshold, HasThreshold: true, Triggers: hits,
			})
		}

		if hc := r.Entry.FindHCodePrefix("H361"); hc != nil {
			hits := r.ConcentrationPct.Cmp(defaultThreshold) >= 0
			if hits {
				triggered = true
			}
			contributions = append(contributions, model.HpSubstanceContribution{
				CanonicalKey: r.CanonicalKey, Compound: r.Compound, CAS: r.CAS,
				HCode: hc.HCode, ConcentrationPct: r.ConcentrationPct,
				ThresholdPct: defaultThreshold, HasThreshold: true, Triggers: hits,
			})
		}
	}

	sortContributions(contributions)

	reason := "Toxic for reproduction thresholds not exceeded"
	if triggered {
		reason = "Toxic for reproduction threshold exceeded"
	}
	return model.HpCriterionDetail{
		HPID: "HP10", HPName: "Toxic for reproduction",
		Triggered: triggered, Reason: reason, Contributions: contributions,
	}
}

func sclForRepr(entry *model.ClpEntry, category string) (decimal.Decimal, bool) {
	return entry.SCL("Repr." + category)
}

// evaluateHP5: STOT. H370 individual >= 1.0%, H371 individual >= 10.0%;
// H372 group-sum >= 1.0%, H373 group-sum >= 10.0%, summed separately per
// Regulation 1357/2014's distinction between single-exposure (SE) and
// repeated-exposure (RE) target-organ toxicity.
func evaluateHP5(resolved []model.SpeciatedView) model.HpCriterionDetail {
	var contributions []model.HpSubstanceContribution
	triggered := false

	individual := individualCriterion("HP5", "STOT SE/RE", resolved, []struct {
		HCode     string
		Threshold decimal.Decimal
	}{
		{"H370", dec("1.0")},
		{"H371", dec("10.0")},
	})
	if individual.Triggered {
		triggered = true
	}
	contributions = append(contributions, individual.Contributions...)

	for _, group := range []struct {
		HCode     string
		Threshold decimal.Decimal
	}{
		{"H372", dec("1.0")},
		{"H373", dec("10.0")},
	} {
		sum := decimal.Zero
		var members []model.SpeciatedView
		for _, r := range resolved {
			if r.BelowDetection || r.Entry == nil || !r.Entry.HasHCode(group.HCode) {
				continue
			}
			sum = sum.Add(r.ConcentrationPct)
			members = append(members, r)
		}
		hits := len(members) > 0 && sum.Cmp(group.Threshold) >= 0
		if hits {
			triggered = true
		}
		for _, r := range members {
			contributions = append(contributions, model.HpSubstanceContribution{
				CanonicalKey: r.CanonicalKey, Compound: r.Compound, CAS: r.CAS,
				HCode: group.HCode, ConcentrationPct: r.ConcentrationPct,
				ThresholdPct: group.Threshold, HasThreshold: true, Triggers: hits,
			})
		}
	}

	sortContributions(contributions)

	reason := "STOT thresholds not exceeded"
	if triggered {
		reason = "STOT triggered (individual or summation threshold exceeded)"
	}
	return model.HpCriterionDetail{
		HPID: "HP5", HPName: "STOT SE/RE",
		Triggered: triggered, Reason: reason, Contributions: contributions,
	}
}

// evaluateHP6: acute toxicity. Three independent H-code families (oral
// H300/301/302, dermal H310/311/312, inhalation H330/331/332), each a
// group-sum compared against its own category threshold.
func evaluateHP6(resolved []model.SpeciatedView) model.HpCriterionDetail {
	checks := []struct {
		HCode     string
		Threshold decimal.Decimal
	}{
		{"H300", dec("0.1")}, {"H301", dec("5.0")}, {"H302", dec("25.0")},
		{"H310", dec("0.1")}, {"H311", dec("5.0")}, {"H312", dec("25.0")},
		{"H330", dec("0.1")}, {"H331", dec("5.0")}, {"H332", dec("25.0")},
	}

	var contributions []model.HpSubstanceContribution
	triggered := false

	for _, check := range checks {
		sum := decimal.Zero
		var members []model.SpeciatedView
		for _, r := range resolved {
			if r.BelowDetection || r.Entry == nil || !r.Entry.HasHCode(check.HCode) {
				continue
			}
			sum = sum.Add(r.ConcentrationPct)
			members = append(members, r)
		}
		hits := len(members) > 0 && sum.Cmp(check.Threshold) >= 0
		if hits {
			triggered = true
		}
		for _, r := range members {
			contributions = append(contributions, model.HpSubstanceContribution{
				CanonicalKey: r.CanonicalKey, Compound: r.Compound, CAS: r.CAS,
				HCode: check.HCode, ConcentrationPct: r.ConcentrationPct,
				ThresholdPct: check.Threshold, HasThreshold: true, Triggers: hits,
			})
		}
	}

	sortContributions(contributions)

	reason := "No acute toxicity summation thresholds exceeded"
	if triggered {
		reason = "Acute toxicity summation threshold exceeded"
	}
	return model.HpCriterionDetail{
		HPID: "HP6", HPName: "Acute Toxicity",
		Triggered: triggered, Reason: reason, Contributions: contributions,
	}
}

// evaluateHP4: irritant. Group-sum H315 >= 20%, H319 >= 20%.
func evaluateHP4(resolved []model.SpeciatedView) model.HpCriterionDetail {
	return groupSumCriterion("HP4", "Irritant", resolved, []struct {
		HCode     string
		Threshold decimal.Decimal
	}{
		{"H315", dec("20.0")},
		{"H319", dec("20.0")},
	})
}

// evaluateHP8: corrosive. Group-sum H314 >= 5%.
func evaluateHP8(resolved []model.SpeciatedView) model.HpCriterionDetail {
	return groupSumCriterion("HP8", "Corrosive", resolved, []struct {
		HCode     string
		Threshold decimal.Decimal
	}{
		{"H314", dec("5.0")},
	})
}

// evaluateHP13: sensitising. Individual H317 >= 10%, H334 >= 10%.
func evaluateHP13(resolved []model.SpeciatedView) model.HpCriterionDetail {
	return individualCriterion("HP13", "Sensitising", resolved, []struct {
		HCode     string
		Threshold decimal.Decimal
	}{
		{"H317", dec("10.0")},
		{"H334", dec("10.0")},
	})
}

func groupSumCriterion(hpID, hpName string, resolved []model.SpeciatedView, checks []struct {
	HCode     string
	Threshold decimal.Decimal
}) model.HpCriterionDetail {
	var contributions []model.HpSubstanceContribution
	triggered := false

	for _, check := range checks {
		sum := decimal.Zero
		var members []model.SpeciatedView
		for _, r := range resolved {
			if r.BelowDetection || r.Entry == nil || !r.Entry.HasHCode(check.HCode) {
				continue
			}
			sum = sum.Add(r.ConcentrationPct)
			members = append(members, r)
		}
		hits := len(members) > 0 && sum.Cmp(check.Threshold) >= 0
		if hits {
			triggered = true
		}
		for _, r := range members {
			contributions = append(contributions, model.HpSubstanceContribution{
				CanonicalKey: r.CanonicalKey, Compound: r.Compound, CAS: r.CAS,
				HCode: check.HCode, ConcentrationPct: r.ConcentrationPct,
				ThresholdPct: check.Threshold, HasThreshold: true, Triggers: hits,
			})
		}
	}

	sortContributions(contributions)

	reason := fmt.Sprintf("%s thresholds not exceeded", hpName)
	if triggered {
		reason = fmt.Sprintf("%s threshold exceeded", hpName)
	}
	return model.HpCriterionDetail{
		HPID: hpID, HPName: hpName,
		Triggered: triggered, Reason: reason, Contributions: contributions,
	}
}

// evaluateHP14: ecotoxic. Four weighted checks, each comparing an
// M-factor-weighted summation against its own threshold:
//
//  1. Acute:            Σ(c_i × M_acute)  for H400            >= 25%
//  2. Chronic (single):  100 × Σ(c_i × M_chronic) for H410     >= 25%
//  3. Chronic (combined): 10 × Σ(c_i × M_chronic) for H410
//                         + Σ(c_i) for H411                    >= 2.5%
//  4. All aquatic:       100×ΣH410 + 10×ΣH411 + ΣH412 + 0.1×ΣH413 >= 25%
//
// Checks 3 and 4 extend the criterion beyond a single H-code the way
// Regulation 1357/2014 Annex III §5 combines chronic categories; this
// repo's CLP database carries H411 entries but no H412/H413 entries, so
// the H412/H413 terms of check 4 evaluate to zero.
func evaluateHP14(resolved []model.SpeciatedView) model.HpCriterionDetail {
	threshold1 := dec("25.0")
	threshold2 := dec("25.0")
	threshold3 := dec("2.5")
	threshold4 := dec("25.0")

	sumH400 := decimal.Zero
	sumH410Weighted := decimal.Zero
	sumH410Plain := decimal.Zero
	sumH411 := decimal.Zero
	sumH412 := decimal.Zero
	sumH413 := decimal.Zero

	var h400Members, h410Members []model.SpeciatedView

	for _, r := range resolved {
		if r.BelowDetection || r.Entry == nil {
			continue
		}
		if r.Entry.HasHCode("H400") {
			m := r.Entry.MFactors.AcuteOrDefault()
			sumH400 = sumH400.Add(r.ConcentrationPct.Mul(m))
			h400Members = append(h400Members, r)
		}
		if r.Entry.HasHCode("H410") {
			m := r.Entry.MFactors.ChronicOrDefault()
			sumH410Weighted = sumH410Weighted.Add(r.ConcentrationPct.Mul(m))
			sumH410Plain = sumH410Plain.Add(r.ConcentrationPct)
			h410Members = append(h410Members, r)
		}
		if r.Entry.HasHCode("H411") {
			sumH411 = sumH411.Add(r.ConcentrationPct)
		}
		if r.Entry.HasHCode("H412") {
			sumH412 = sumH412.Add(r.ConcentrationPct)
		}
		if r.Entry.HasHCode("H413") {
			sumH413 = sumH413.Add(r.ConcentrationPct)
		}
	}

	check1 := sumH400.Cmp(threshold1) >= 0
	check2 := hpHundred.Mul(sumH410Weighted).Cmp(threshold2) >= 0
	check3 := hpTen.Mul(sumH410Weighted).Add(sumH411).Cmp(threshold3) >= 0
	check4 := hpHundred.Mul(sumH410Plain).
		Add(hpTen.Mul(sumH411)).
		Add(sumH412).
		Add(dec("0.1").Mul(sumH413)).
		Cmp(threshold4) >= 0

	triggered := check1 || check2 || check3 || check4

	var contributions []model.HpSubstanceContribution
	for _, r := range h400Members {
		m := r.Entry.MFactors.AcuteOrDefault()
		contributions = append(contributions, model.HpSubstanceContribution{
			CanonicalKey: r.CanonicalKey, Compound: r.Compound, CAS: r.CAS,
			HCode: "H400", ConcentrationPct: r.ConcentrationPct.Mul(m),
			ThresholdPct: threshold1, HasThreshold: true, Triggers: check1,
		})
	}
	for _, r := range h410Members {
		m := r.Entry.MFactors.ChronicOrDefault()
		contributions = append(contributions, model.HpSubstanceContribution{
			CanonicalKey: r.CanonicalKey, Compound: r.Compound, CAS: r.CAS,
			HCode: "H410", ConcentrationPct: hpHundred.Mul(r.ConcentrationPct).Mul(m),
			ThresholdPct: threshold2, HasThreshold: true, Triggers: check2 || check3 || check4,
		})
	}
	sortContributions(contributions)

	reason := fmt.Sprintf(
		"Ecotoxic not triggered (H400xM sum: %s%%, 100xH410xM sum: %s%%)",
		sumH400.StringFixed(4), hpHundred.Mul(sumH410Weighted).StringFixed(4),
	)
	if triggered {
		reason = fmt.Sprintf(
			"Ecotoxic triggered (check1=%v check2=%v check3=%v check4=%v)",
			check1, check2, check3, check4,
		)
	}

	return model.HpCriterionDetail{
		HPID: "HP14", HPName: "Ecotoxic",
		Triggered: triggered, Reason: reason, Contributions: contributions,
	}
}
