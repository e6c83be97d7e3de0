package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/everlof/sonda/internal/common"
	"github.com/everlof/sonda/internal/model"
	"github.com/everlof/sonda/internal/output"
	"github.com/everlof/sonda/internal/report"
	"github.com/everlof/sonda/internal/tui"
)

func classifyCmd() *cobra.Command {
	var (
		outputFormat string
		presets      []string
		ruleFiles    []string
		showAll      bool
		verbose      bool
		noCache      bool
	)

	cmd := &cobra.Command{
		Use:   "classify <report.json>...",
		Short: "Classify one or more lab reports against threshold and HP rulesets",
		Long: `Classify evaluates each report against every ruleset named by --preset
and --rules (combined additively, in the order given) and prints the
resulting per-sample, per-ruleset verdicts.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if len(presets) == 0 && len(ruleFiles) == 0 {
				presets = []string{"nv", "fa"}
			}

			rulesets, includeHP, err := loadRulesets(presets, ruleFiles)
			if err != nil {
				return err
			}

			reports, err := readReports(args)
			if err != nil {
				return err
			}

			store, storeErr := initStorage(ctx)
			if storeErr != nil {
				common.LogCacheEvent("unavailable", "", storeErr)
				store = nil
			} else {
				defer store.Close()
			}

			hash, hashErr := contentHash(args, presets, ruleFiles)
			if hashErr != nil {
				return hashErr
			}

			rulesetNames := append(append([]string{}, presets...), ruleFiles...)

			if store != nil && !noCache {
				if cached, hit, cacheErr := store.GetCachedRun(ctx, hash); cacheErr == nil && hit {
					common.LogCacheEvent("hit", hash, nil)
					return render(cached, outputFormat, showAll, verbose)
				}
			}

			progress := tui.NewBatchProgress(os.Stderr, len(reports))

			result := report.Classify(reports, report.Options{Rulesets: rulesets, IncludeHP: includeHP})
			for _, sample := range result.Samples {
				progress.Advance(sample)
			}
			if err := progress.Finish(); err != nil {
				slog.Debug("progress bar finish", "error", err)
			}

			if store != nil {
				if err := store.SaveRun(ctx, hash, rulesetNames, includeHP, result); err != nil {
					common.LogCacheEvent("save failed", hash, err)
				}
			}

			common.LogClassificationRun(len(result.Samples), hazardousSampleCount(result), rulesetNames)

			return render(result, outputFormat, showAll, verbose)
		},
	}

	cmd.Flags().StringVar(&outputFormat, "output", "table", "output format: table or json")
	cmd.Flags().StringSliceVar(&presets, "preset", nil, "built-in ruleset preset(s): nv, asfalt, fa (repeatable, additive)")
	cmd.Flags().StringSliceVar(&ruleFiles, "rules", nil, "custom ruleset file(s) (repeatable, additive with --preset)")
	cmd.Flags().BoolVar(&showAll, "show-all", false, "print every substance result, not only the determining ones")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print unmatched substances/rules and on-demand trace warnings")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the run cache")

	return cmd
}

// hazardousSampleCount counts samples where at least one ruleset result
// flagged the HP engine's overall verdict as FA.
func hazardousSampleCount(result model.ClassificationResult) int {
	count := 0
	for _, sample := range result.Samples {
		for _, rs := range sample.RulesetResults {
			if rs.HPDetails != nil && rs.HPDetails.IsHazardous {
				count++
				break
			}
		}
	}
	return count
}

func render(result model.ClassificationResult, format string, showAll, verbose bool) error {
	switch format {
	case "json":
		b, err := output.JSON(result)
		if err != nil {
			return err
		}
		fmt.Println(string(b))
	case "table", "":
		fmt.Print(output.Table(result, output.TableOptions{ShowAll: showAll, Verbose: verbose}))
	default:
		return fmt.Errorf("unknown output format %q (expected table or json)", format)
	}
	return nil
}
