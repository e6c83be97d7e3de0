// Package parsing turns a lab report's raw number-and-unit pair into an
// model.AnalysisValue expressed in mg/kg dry substance, the unit every
// downstream engine assumes.
package parsing

import (
	"strings"

	decimalpkg "github.com/everlof/sonda/internal/decimal"
	"github.com/everlof/sonda/internal/model"
)

// notAnalyzedTokens are the tokens a lab uses to mean "this row carries no
// measurement at all" rather than "this measurement failed to parse". They
// never produce a diagnostic: reporting every blank cell in a wide lab
// sheet as an anomaly would drown out the anomalies worth a reader's time.
var notAnalyzedTokens = map[string]bool{
	"":      true,
	"*":     true,
	"-":     true,
	"–":     true,
	"n.a.":  true,
	"n/a":   true,
	"na":    true,
	"n.a":   true,
}

// ParseValue parses raw (a lab-reported number, possibly prefixed with "<"
// or ">") in the given unit into mg/kg dry substance. It never returns an
// error: every failure mode degrades to model.MissingValue() plus a
// Diagnostic explaining why, since one unparseable cell must never abort
// classification of the rest of a report.
func ParseValue(raw, unit string) (model.AnalysisValue, *model.Diagnostic) {
	trimmed := strings.TrimSpace(raw)

	if notAnalyzedTokens[strings.ToLower(trimmed)] {
		return model.MissingValue(), nil
	}

	factor, recognized := unitFactor(unit)
	if !recognized {
		return model.MissingValue(), &model.Diagnostic{
			Kind:    model.DiagUnrecognizedUnit,
			RawName: raw,
			Message: "unrecognized unit " + strconvQuote(unit) + ", value discarded",
		}
	}

	switch {
	case strings.HasPrefix(trimmed, "<"):
		numeric := strings.TrimSpace(strings.TrimPrefix(trimmed, "<"))
		limit, err := decimalpkg.ParseLabNumber(numeric)
		if err != nil {
			return model.MissingValue(), &model.Diagnostic{
				Kind:    model.DiagUnparseableValue,
				RawName: raw,
				Message: err.Error(),
			}
		}
		return model.BelowDetectionValue(limit.Mul(factor)), nil

	case strings.HasPrefix(trimmed, ">"):
		numeric := strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))
		value, err := decimalpkg.ParseLabNumber(numeric)
		if err != nil {
			return model.MissingValue(), &model.Diagnostic{
				Kind:    model.DiagUnparseableValue,
				RawName: raw,
				Message: err.Error(),
			}
		}
		exact := model.ExactValue(value.Mul(factor))
		return exact, &model.Diagnostic{
			Kind:    model.DiagSaturatedValue,
			RawName: raw,
			Message: "value reported as exceeding instrument range, treated as exactly " + exact.Value.String(),
		}

	default:
		value, err := decimalpkg.ParseLabNumber(trimmed)
		if err != nil {
			return model.MissingValue(), &model.Diagnostic{
				Kind:    model.DiagUnparseableValue,
				RawName: raw,
				Message: err.Error(),
			}
		}
		return model.ExactValue(value.Mul(factor)), nil
	}
}

// unitFactor returns the multiplier that converts a value reported in unit
// into mg/kg dry substance, and whether unit was recognized at all.
func unitFactor(unit string) (decimalpkg.D, bool) {
	switch normalizeUnitToken(unit) {
	case "", "mg/kg", "mg/kgts", "mg/kg_ts", "mgperkg":
		return decimalpkg.One, true
	case "ug/kg", "µg/kg", "ugperkg":
		return decimalpkg.MustParse("0.001"), true
	case "%":
		return decimalpkg.MustParse("10000"), true
	default:
		return decimalpkg.Zero, false
	}
}

func normalizeUnitToken(unit string) string {
	s := strings.ToLower(strings.TrimSpace(unit))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

func strconvQuote(s string) string {
	return "\"" + s + "\""
}
