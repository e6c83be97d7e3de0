// Package tui renders live progress for a multi-report classification
// batch. Classification is fully deterministic, so there is nothing for
// an operator to decide interactively; the only UI this package needs
// is a progress indicator.
package tui

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/everlof/sonda/internal/model"
)

// BatchProgress tracks a running tally of per-category verdicts while a
// batch of reports is classified, and renders a live progress bar.
type BatchProgress struct {
	bar      *progressbar.ProgressBar
	tally    map[string]int
	hazCount int
}

// NewBatchProgress creates a progress tracker for total reports, writing
// the bar to w.
func NewBatchProgress(w io.Writer, total int) *BatchProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Classifying samples...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)

	return &BatchProgress{bar: bar, tally: make(map[string]int)}
}

// Advance records one sample's result and steps the bar forward by one.
func (p *BatchProgress) Advance(sample model.SampleResult) {
	for _, rs := range sample.RulesetResults {
		if rs.NotApplicable {
			continue
		}
		if rs.HPDetails != nil {
			if rs.HPDetails.IsHazardous {
				p.hazCount++
			}
			continue
		}
		p.tally[rs.OverallCategory]++
	}
	_ = p.bar.Add(1)
}

// Tally returns the accumulated per-category counts seen so far, plus how
// many samples the HP engine flagged hazardous.
func (p *BatchProgress) Tally() (categories map[string]int, hazardous int) {
	out := make(map[string]int, len(p.tally))
	for k, v := range p.tally {
		out[k] = v
	}
	return out, p.hazCount
}

// Finish marks the bar complete regardless of how many Advance calls were
// made.
func (p *BatchProgress) Finish() error {
	return p.bar.Finish()
}
