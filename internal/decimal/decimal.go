// Package decimal is the exact-arithmetic facade every other package in
// this module goes through. It never exposes float64 on the
// classification path: shopspring/decimal carries every threshold,
// conversion factor, and measured value end-to-end, per the requirement
// that classification decisions never shift due to binary floating-point
// rounding at boundary values.
package decimal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// D is the decimal type used throughout the classification core.
type D = decimal.Decimal

// Zero is the additive identity.
var Zero = decimal.Zero

// One is the multiplicative identity.
var One = decimal.NewFromInt(1)

// MustParse parses a canonical (dot-radix) decimal string and panics on
// failure. Reserved for built-in, compiled-in data (CLP tables, built-in
// rulesets) where a parse failure is a program bug, never a runtime
// condition.
func MustParse(s string) D {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("decimal: invalid built-in constant %q: %v", s, err))
	}
	return d
}

// ParseLabNumber parses a raw numeric token from a lab report. Tokens that
// mix ',' and '.' or carry more than one separator (e.g. "1,234.56",
// "1.234.567") are rejected as thousands-grouped. A single ',' or '.' is
// always read as the decimal separator, so "1,234" parses as 1.234; a lone
// thousands separator is not detected.
func ParseLabNumber(raw string) (D, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Zero, fmt.Errorf("decimal: empty number")
	}

	if err := rejectThousandsSeparator(s); err != nil {
		return Zero, err
	}

	normalized := strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return Zero, fmt.Errorf("decimal: invalid number %q: %w", raw, err)
	}
	return d, nil
}

// rejectThousandsSeparator flags strings that contain both a comma and a
// dot (e.g. "1,234.56") or more than one comma/dot; those are always
// grouped, never a single Swedish-style decimal separator.
func rejectThousandsSeparator(s string) error {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	if commas > 0 && dots > 0 {
		return fmt.Errorf("decimal: %q mixes '.' and ',': thousands separators are not accepted", s)
	}
	if commas > 1 || dots > 1 {
		return fmt.Errorf("decimal: %q has more than one radix separator: thousands separators are not accepted", s)
	}
	return nil
}
