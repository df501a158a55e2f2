package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/observability"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

var compareCommand = &cobra.Command{
	Use:   "compare",
	Short: "Detect and localize visual regressions without fixing anything",
	Long:  "Renders every configured surface and compares it against its baseline, localizing differences to source lines. No source file is modified; the run report records what a heal run would attempt.",
	RunE:  runCompareCmd,
}

func init() {
	// compare reuses the heal flag set minus fix behavior; both commands feed
	// the same merged configuration.
	compareCommand.Flags().AddFlagSet(healCommand.Flags())
	rootCmd.AddCommand(compareCommand)
}

func runCompareCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := mergedHealConfig(cmd)
	if err != nil {
		return err
	}

	runReport, err := executeRun(ctx, cfg, false)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	for i := range runReport.Surfaces {
		surface := &runReport.Surfaces[i]
		printer.PrintComparison(surface.Comparison)
		if len(surface.Issues) > 0 {
			issues := make([]*types.LocalizedIssue, 0, len(surface.Issues))
			for _, issueReport := range surface.Issues {
				issues = append(issues, issueReport.Issue)
			}
			printer.PrintIssues(issues)
		}
	}
	printer.PrintRunSummary(runReport)

	regressed := 0
	for _, surface := range runReport.Surfaces {
		if surface.Outcome != types.SurfaceClean && surface.Outcome != types.SurfaceSkipped {
			regressed++
		}
	}
	if regressed > 0 {
		return fmt.Errorf("%d surface(s) differ from their baselines", regressed)
	}
	return nil
}
