package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olgasafonova/mealdb-mcp-server/evals"
	"github.com/olgasafonova/mealdb-mcp-server/tools"
)

// Suite selectors for --suite.
const (
	suiteToolSelection  = "tool_selection"
	suiteConfusionPairs = "confusion_pairs"
	suiteArguments      = "arguments"
	suiteAll            = "all"
)

func newEvalsCmd(a *app) *cobra.Command {
	var dir, suite string
	var minAccuracy float64

	cmd := &cobra.Command{
		Use:   "evals",
		Short: "Run the tool selection evals against the keyword baseline",
		Long: `Loads the eval suites (bundled, or from --dir), checks that they only name
registered tools, and scores the keyword baseline selector on them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				suites *evals.Suites
				err    error
			)
			if dir != "" {
				suites, err = evals.LoadDir(dir)
			} else {
				suites, err = evals.Bundled()
			}
			if err != nil {
				return err
			}

			known := make([]string, 0, len(tools.AllTools))
			for _, spec := range tools.AllTools {
				known = append(known, spec.Name)
			}
			if err := suites.ValidateToolNames(known); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			selector := evals.KeywordSelector{}
			worst := 1.0
			report := func(m *evals.Metrics, results []evals.Result, name string) {
				fmt.Fprint(out, evals.FormatMetrics(m, name))
				if a.verbose {
					for _, r := range results {
						mark := "ok  "
						if !r.Passed {
							mark = "FAIL"
						}
						fmt.Fprintf(out, "  %s [%s] %s -> %s\n", mark, r.TestID, r.Input, r.ActualTool)
					}
				}
				worst = min(worst, m.Accuracy)
			}

			ran := false
			if suite == suiteAll || suite == suiteToolSelection {
				m, results := evals.EvaluateToolSelection(ctx, suites.ToolSelection, selector)
				report(m, results, suites.ToolSelection.Name)
				ran = true
			}
			if suite == suiteAll || suite == suiteConfusionPairs {
				m, results := evals.EvaluateConfusionPairs(ctx, suites.ConfusionPairs, selector)
				report(m, results, suites.ConfusionPairs.Name)
				ran = true
			}
			if suite == suiteAll || suite == suiteArguments {
				m, results := evals.EvaluateArguments(ctx, suites.Arguments, selector)
				report(m, results, suites.Arguments.Name)
				ran = true
			}
			if !ran {
				return fmt.Errorf("unknown suite %q: use %s, %s, %s or %s",
					suite, suiteToolSelection, suiteConfusionPairs, suiteArguments, suiteAll)
			}

			if worst < minAccuracy {
				return fmt.Errorf("accuracy %.1f%% is below the required %.1f%%", worst*100, minAccuracy*100)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory with suite JSON files (default: bundled suites)")
	cmd.Flags().StringVar(&suite, "suite", suiteAll, "Suite to run: tool_selection, confusion_pairs, arguments or all")
	cmd.Flags().Float64Var(&minAccuracy, "min-accuracy", 0, "Fail when any suite scores below this fraction")
	return cmd
}
