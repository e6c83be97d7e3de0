package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/everlof/sonda/internal/cli"
	"github.com/everlof/sonda/internal/model"
	"github.com/everlof/sonda/internal/rules"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate threshold rulesets",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesExplainCmd())
	cmd.AddCommand(rulesSchemaCmd())
	cmd.AddCommand(rulesValidateCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in ruleset presets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\n", "PRESET", "DESCRIPTION")
			for _, name := range rules.Presets {
				if rules.IsHPPreset(name) {
					fmt.Fprintf(w, "%s\t%s\n", name, "HP engine: EU 1272/2008 + 1357/2014 + 2017/997 hazardous-waste criteria")
					continue
				}
				rs, err := rules.LoadPreset(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\n", name, rs.Description)
			}
			return nil
		},
	}
}

func rulesExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <preset>",
		Short: "Print a preset's categories and per-substance threshold table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if rules.IsHPPreset(name) {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("%q routes to the HP engine: 9 independent criteria over speciated CLP compounds, not a threshold table.", name)))
				return nil
			}

			rs, err := rules.LoadPreset(name)
			if err != nil {
				rs, err = rules.LoadFile(name)
				if err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.TitleStyle.Render(fmt.Sprintf("%s (%s)", rs.Name, rs.Version)))
			fmt.Fprintln(cmd.OutOrStdout(), "categories (cleanest -> dirtiest):", strings.Join(rs.Categories, " < "))
			if rs.MatrixFilter != model.UnknownMatrix {
				fmt.Fprintln(cmd.OutOrStdout(), "matrix filter:", rs.MatrixFilter.String())
			}
			fmt.Fprintln(cmd.OutOrStdout())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintf(w, "%s", "SUBJECT")
			for _, c := range rs.Categories {
				fmt.Fprintf(w, "\t%s", c)
			}
			fmt.Fprintln(w)

			for _, rule := range rs.Rules {
				fmt.Fprintf(w, "%s", rule.Subject)
				for _, c := range rs.Categories {
					v, ok := rule.Thresholds[c]
					if !ok {
						fmt.Fprintf(w, "\t-")
						continue
					}
					fmt.Fprintf(w, "\t%s", v.String())
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}
}

func rulesSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the ruleset JSON schema",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), rulesetSchemaDoc)
		},
	}
}

func rulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a custom ruleset file, exiting non-zero if it is rejected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := rules.LoadFile(args[0])
			if err != nil {
				return &exitValidationFailure{err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s: valid (%d categories, %d rules)", args[0], len(rs.Categories), len(rs.Rules))))
			return nil
		},
	}
}

const rulesetSchemaDoc = `{
  "name": "string",
  "version": "string",
  "description": "string (optional)",
  "matrix": "jord | asfalt (optional; omit to apply regardless of matrix)",
  "categories": ["string", "... ordered cleanest to dirtiest"],
  "rules": [
    {
      "substance": "canonical key, or a PAH group: pah_l | pah_m | pah_h | pah_16_sum",
      "thresholds": { "<category>": "decimal string" },
      "note": "string (optional)"
    }
  ]
}`
