package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/everlof/sonda/internal/cli"
	"github.com/everlof/sonda/internal/model"
)

// TableOptions controls how much detail the table renderer prints.
type TableOptions struct {
	// ShowAll prints every substance result, not only the determining ones.
	ShowAll bool
	// Verbose additionally prints unmatched substances/rules below each
	// threshold ruleset's table and the on-demand trace warnings at the end.
	Verbose bool
}

// Table renders a classification result as a sequence of styled tables,
// one per (sample, ruleset).
func Table(result model.ClassificationResult, opts TableOptions) string {
	var b strings.Builder

	for _, sample := range result.Samples {
		b.WriteString(cli.TitleStyle.Render(fmt.Sprintf("Sample %s (%s)", sample.SampleID, sample.Matrix.String())))
		b.WriteString("\n")

		for _, rs := range sample.RulesetResults {
			b.WriteString(renderRuleset(rs, opts))
			b.WriteString("\n")
		}
	}

	for _, w := range result.Trace.Warnings {
		if w.Visibility == model.VisibilityOnDemand && !opts.Verbose {
			continue
		}
		b.WriteString(cli.FormatWarning(w.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func renderRuleset(rs model.RuleSetResult, opts TableOptions) string {
	var b strings.Builder

	if rs.NotApplicable {
		b.WriteString(cli.SubtleStyle.Render(fmt.Sprintf("  %s: not applicable to this sample's matrix", rs.RulesetName)))
		b.WriteString("\n")
		return b.String()
	}

	overallStyle := cli.StyleForCategory(rs.OverallCategory, overallCategoryOrder(rs))
	b.WriteString(fmt.Sprintf("  %s: %s", cli.BoldStyle.Render(rs.RulesetName), overallStyle.Render(rs.OverallCategory)))
	if len(rs.DeterminingSubstances) > 0 {
		b.WriteString(cli.SubtleStyle.Render(" (determined by " + strings.Join(rs.DeterminingSubstances, ", ") + ")"))
	}
	b.WriteString("\n")

	if rs.HPDetails != nil {
		b.WriteString(renderHPTable(*rs.HPDetails, opts))
		return b.String()
	}

	rows := selectSubstanceRows(rs, opts)
	if len(rows) == 0 {
		return b.String()
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(cli.SubtleStyle).
		Headers("SUBJECT", "RAW VALUE", "UNIT", "CATEGORY", "REASON")

	for _, sr := range rows {
		t.Row(sr.Subject, sr.Value.String(), sr.Unit, sr.AssignedCategory, sr.Reason)
	}

	b.WriteString(t.String())
	b.WriteString("\n")

	if opts.Verbose {
		if len(rs.UnmatchedSubstances) > 0 {
			b.WriteString(cli.SubtleStyle.Render("  unmatched substances: " + strings.Join(rs.UnmatchedSubstances, ", ")))
			b.WriteString("\n")
		}
		if len(rs.UnmatchedRules) > 0 {
			b.WriteString(cli.SubtleStyle.Render("  unmatched rules: " + strings.Join(rs.UnmatchedRules, ", ")))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func selectSubstanceRows(rs model.RuleSetResult, opts TableOptions) []model.SubstanceResult {
	if opts.ShowAll {
		return rs.SubstanceResults
	}

	determining := make(map[string]bool, len(rs.DeterminingSubstances))
	for _, s := range rs.DeterminingSubstances {
		determining[s] = true
	}

	var rows []model.SubstanceResult
	for _, sr := range rs.SubstanceResults {
		if determining[sr.Subject] || sr.Uncertain {
			rows = append(rows, sr)
		}
	}
	return rows
}

func renderHPTable(hp model.HpDetails, opts TableOptions) string {
	var b strings.Builder

	verdictStyle := cli.SuccessStyle
	verdict := "Icke FA"
	if hp.IsHazardous {
		verdictStyle = cli.ErrorStyle
		verdict = "FA"
	}
	b.WriteString("  " + verdictStyle.Render(verdict))
	b.WriteString("\n")

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(cli.SubtleStyle).
		Headers("HP", "TRIGGERED", "REASON")

	for _, c := range hp.CriteriaResults {
		if !opts.ShowAll && !c.Triggered {
			continue
		}
		triggered := "no"
		if c.Triggered {
			triggered = "yes"
		}
		t.Row(c.HPID, triggered, c.Reason)
	}

	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

// overallCategoryOrder has no access to the source ruleset's declared
// category list from a RuleSetResult alone; LowestCategory anchors one end
// and OverallCategory the other so StyleForCategory can still distinguish
// "cleanest" from "dirtiest" without a false middle classification.
func overallCategoryOrder(rs model.RuleSetResult) []string {
	if rs.LowestCategory == rs.OverallCategory {
		return []string{rs.OverallCategory}
	}
	return []string{rs.LowestCategory, rs.OverallCategory}
}
