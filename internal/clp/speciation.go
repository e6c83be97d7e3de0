package clp

import (
	"github.com/shopspring/decimal"

	"github.com/everlof/sonda/internal/model"
	"github.com/everlof/sonda/internal/normalize"
)

type decimalD = decimal.Decimal

var (
	decZero     = decimal.Zero
	decOne      = decimal.NewFromInt(1)
	tenThousand = decimal.NewFromInt(10000)
)

// ResolveSubstances converts every measured or below-detection row in rows
// to its worst-case CLP compound and percent-by-weight concentration.
// Rows with no measurement, PAH group sums, and the dry-substance row are
// skipped outright: they carry no single CAS number to evaluate HP
// criteria against. A row whose canonical key matches neither the metal
// nor the PAH speciation table, but is otherwise a recognized substance
// (BTEX, aliphatic/aromatic fractions), is passed through at a 1.0
// conversion factor with NoSpeciation set: it has a concentration but no
// CLP entry to check hazard classes against, so every HP criterion skips
// it without flagging it as simply unknown. Only a canonical key normalize
// cannot resolve at all is returned in unresolved, in first-seen order,
// without duplicates.
func ResolveSubstances(rows []model.AnalysisRow) (resolved []model.SpeciatedView, unresolved []string) {
	db, st := LoadDatabase()

	seenUnresolved := make(map[string]bool)

	for _, row := range rows {
		if row.Value.IsMissing() {
			continue
		}
		if row.CanonicalKey == "ts" || model.IsGroupSubject(row.CanonicalKey) {
			continue
		}

		if ms, ok := st.metalsBySubstance[row.CanonicalKey]; ok {
			entry := db.ByCAS[ms.CAS]
			resolved = append(resolved, model.SpeciatedView{
				CanonicalKey:     row.CanonicalKey,
				RawName:          row.RawName,
				Compound:         ms.Compound,
				CAS:              ms.CAS,
				Entry:            entry,
				ConcentrationPct: concentrationPct(row.Value, ms.ConversionFactor),
				BelowDetection:   row.Value.Kind == model.BelowDetection,
			})
			continue
		}

		if cas, ok := st.pahByCAS[row.CanonicalKey]; ok {
			entry := db.ByCAS[cas]
			resolved = append(resolved, model.SpeciatedView{
				CanonicalKey:     row.CanonicalKey,
				RawName:          row.RawName,
				Compound:         entry.CompoundLabel,
				CAS:              cas,
				Entry:            entry,
				ConcentrationPct: concentrationPct(row.Value, decOne),
				BelowDetection:   row.Value.Kind == model.BelowDetection,
			})
			continue
		}

		if normalize.IsKnownCanonicalKey(row.CanonicalKey) {
			resolved = append(resolved, model.SpeciatedView{
				CanonicalKey:     row.CanonicalKey,
				RawName:          row.RawName,
				Compound:         row.CanonicalKey,
				ConcentrationPct: concentrationPct(row.Value, decOne),
				BelowDetection:   row.Value.Kind == model.BelowDetection,
				NoSpeciation:     true,
			})
			continue
		}

		if !seenUnresolved[row.CanonicalKey] {
			seenUnresolved[row.CanonicalKey] = true
			unresolved = append(unresolved, row.CanonicalKey)
		}
	}

	return resolved, unresolved
}

// concentrationPct applies the mg/kg -> %w/w conversion. A below-detection
// reading always contributes exactly zero: per this module's below-
// detection policy, a non-measurement can never push a summation or an
// individual threshold over its limit.
func concentrationPct(v model.AnalysisValue, factor decimalD) decimalD {
	if v.Kind == model.BelowDetection {
		return decZero
	}
	return v.Value.Mul(factor).Div(tenThousand)
}
