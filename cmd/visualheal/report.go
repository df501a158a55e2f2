package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/observability"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/report"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/schemas"
)

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Inspect a previously written run report",
	RunE:  runReportCmd,
}

var (
	reportInputPath  string
	reportSchemaPath string
	reportValidate   bool
)

func init() {
	reportCommand.Flags().StringVarP(&reportInputPath, "input", "i", "work/report.json", "Path of the run report to inspect")
	reportCommand.Flags().StringVar(&reportSchemaPath, "schema", "schemas/run_report.schema.json", "Path of the run report JSON schema")
	reportCommand.Flags().BoolVar(&reportValidate, "validate", false, "Validate the report against its JSON schema")
	rootCmd.AddCommand(reportCommand)
}

func runReportCmd(_ *cobra.Command, _ []string) error {
	if reportValidate {
		if err := schemas.ValidateFile(reportSchemaPath, reportInputPath); err != nil {
			return fmt.Errorf("report validation failed: %w", err)
		}
		fmt.Println("Report is valid")
	}

	runReport, err := report.Load(reportInputPath)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintRunSummary(runReport)
	for _, surface := range runReport.Surfaces {
		for _, issueReport := range surface.Issues {
			printer.PrintAttempts(issueReport.Attempts)
		}
	}
	return nil
}
