// Package rules loads, validates, and exposes the built-in and
// user-supplied threshold rulesets the classification core evaluates
// samples against.
package rules

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/everlof/sonda/internal/common"
	"github.com/everlof/sonda/internal/model"
	"github.com/everlof/sonda/internal/normalize"
)

//go:embed data/nv-riktvarden.json
var nvJSON []byte

//go:embed data/asfalt-pah16.json
var asfaltJSON []byte

// Presets lists the built-in ruleset names, including the HP-engine-
// routed "fa" preset which carries no threshold table of its own.
var Presets = []string{"nv", "asfalt", "fa"}

// IsHPPreset reports whether name is routed to the HP engine rather than
// the threshold engine.
func IsHPPreset(name string) bool {
	return name == "fa"
}

type rulesetJSON struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description,omitempty"`
	Matrix      string            `json:"matrix,omitempty"`
	Categories  []string          `json:"categories"`
	Rules       []substanceRuleJSON `json:"rules"`
}

type substanceRuleJSON struct {
	Substance  string            `json:"substance"`
	Thresholds map[string]string `json:"thresholds"`
	Matrix     string            `json:"matrix,omitempty"`
	Unit       string            `json:"unit,omitempty"`
	Note       string            `json:"note,omitempty"`
}

// LoadPreset loads one of the built-in threshold rulesets by name. "fa"
// is not a threshold ruleset; callers must check IsHPPreset first and
// route to classify.EvaluateHP instead.
func LoadPreset(name string) (model.Ruleset, error) {
	switch name {
	case "nv", "asfalt":
		data := nvJSON
		if name == "asfalt" {
			data = asfaltJSON
		}
		rs, err := parse(data, "builtin:"+name)
		if err != nil {
			return model.Ruleset{}, err
		}
		rs.Name = name
		return rs, nil
	case "fa":
		return model.Ruleset{}, fmt.Errorf("%w: 'fa' is an HP-based preset, not a threshold ruleset", common.ErrInvalidRuleset)
	default:
		return model.Ruleset{}, fmt.Errorf("%w: unknown preset %q (available: %s)", common.ErrInvalidRuleset, name, strings.Join(Presets, ", "))
	}
}

// LoadFile loads and validates a user-supplied ruleset from disk.
func LoadFile(path string) (model.Ruleset, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return model.Ruleset{}, fmt.Errorf("%w: reading %s: %v", common.ErrInvalidRuleset, path, err)
	}
	return parse(content, path)
}

// ParseString parses and validates a ruleset from an in-memory JSON
// document, for callers (such as tests) that don't have a file on disk.
func ParseString(json string, source string) (model.Ruleset, error) {
	return parse([]byte(json), source)
}

// mustLoadPreset loads a built-in preset and panics on failure. The
// embedded JSON is compiled into the binary: a failure here is a program
// bug, not a runtime condition.
func mustLoadPreset(name string) model.Ruleset {
	rs, err := LoadPreset(name)
	if err != nil {
		panic(fmt.Errorf("%w: builtin preset %q: %v", common.ErrIntegrityError, name, err))
	}
	return rs
}

// init eagerly validates every embedded builtin ruleset so a malformed
// build fails at process start, not on a user's first classify run.
func init() {
	mustLoadPreset("nv")
	mustLoadPreset("asfalt")
}

func parse(content []byte, source string) (model.Ruleset, error) {
	var rj rulesetJSON
	if err := json.Unmarshal(content, &rj); err != nil {
		return model.Ruleset{}, fmt.Errorf("%w: %s: %v", common.ErrInvalidRuleset, source, err)
	}

	ruleset := model.Ruleset{
		Name:         rj.Name,
		Version:      rj.Version,
		Description:  rj.Description,
		MatrixFilter: model.UnknownMatrix,
		Categories:   rj.Categories,
	}
	if rj.Matrix != "" {
		m, err := parseStrictMatrix(rj.Matrix)
		if err != nil {
			return model.Ruleset{}, fmt.Errorf("%w: %s: %v", common.ErrInvalidRuleset, source, err)
		}
		ruleset.MatrixFilter = m
	}

	for _, rrj := range rj.Rules {
		thresholds := make(map[string]decimal.Decimal, len(rrj.Thresholds))
		for cat, raw := range rrj.Thresholds {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return model.Ruleset{}, fmt.Errorf("%w: %s: substance %q threshold %q: %v", common.ErrInvalidRuleset, source, rrj.Substance, cat, err)
			}
			thresholds[cat] = d
		}
		ruleset.Rules = append(ruleset.Rules, model.SubstanceRule{
			Subject:    rrj.Substance,
			Thresholds: thresholds,
			Note:       rrj.Note,
		})
	}

	if err := validate(ruleset, source); err != nil {
		return model.Ruleset{}, err
	}
	return ruleset, nil
}

func parseStrictMatrix(s string) (model.Matrix, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jord":
		return model.Jord, nil
	case "asfalt":
		return model.Asfalt, nil
	default:
		return model.UnknownMatrix, fmt.Errorf("invalid matrix %q (expected \"jord\" or \"asfalt\")", s)
	}
}

// validate checks ruleset invariants beyond what JSON decoding alone
// enforces: non-empty, distinct categories; non-empty rules; non-empty
// subjects and threshold tables; every threshold key referencing a
// declared category; every subject resolving to a known canonical key or
// recognized group identifier; and thresholds monotonically non-decreasing
// across categories in declared (cleanest-to-dirtiest) order. Every one of
// these is a load-time failure, never a classify-time one: a malformed
// ruleset must be rejected before it ever sees a sample.
func validate(ruleset model.Ruleset, source string) error {
	wrap := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", common.ErrInvalidRuleset, source, fmt.Sprintf(format, args...))
	}

	if len(ruleset.Categories) == 0 {
		return wrap("categories must not be empty")
	}
	if len(ruleset.Rules) == 0 {
		return wrap("rules must not be empty")
	}

	knownCategories := make(map[string]bool, len(ruleset.Categories))
	for _, c := range ruleset.Categories {
		if knownCategories[c] {
			return wrap("category %q is declared more than once", c)
		}
		knownCategories[c] = true
	}

	for _, rule := range ruleset.Rules {
		if rule.Subject == "" {
			return wrap("a rule has an empty substance name")
		}
		if len(rule.Thresholds) == 0 {
			return wrap("substance %q has no thresholds", rule.Subject)
		}
		if !model.IsGroupSubject(rule.Subject) && !normalize.IsKnownCanonicalKey(rule.Subject) {
			return wrap("substance %q is not a known canonical key or recognized group identifier", rule.Subject)
		}

		var previous decimal.Decimal
		var previousCategory string
		haveCrossedPrevious := false
		for _, cat := range ruleset.Categories {
			threshold, ok := rule.Thresholds[cat]
			if !ok {
				continue
			}
			if haveCrossedPrevious && threshold.LessThan(previous) {
				return wrap("substance %q threshold %q (%s) is lower than %q threshold (%s); thresholds must be monotonically non-decreasing", rule.Subject, cat, threshold.String(), previousCategory, previous.String())
			}
			previous = threshold
			previousCategory = cat
			haveCrossedPrevious = true
		}
		for cat := range rule.Thresholds {
			if !knownCategories[cat] {
				return wrap("substance %q references unknown category %q", rule.Subject, cat)
			}
		}
	}

	return nil
}
