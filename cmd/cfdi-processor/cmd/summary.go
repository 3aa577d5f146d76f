package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezonia/cfdi-processor/internal/processor"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [files...]",
	Short: "Print flat summaries of CFDI files",
	Long: `Print the summary view of one or more CFDI files: totals, issue date,
issuer and recipient, fiscal folio and stamp date (when stamped) and the
line items.

Examples:
  cfdi-processor summary factura.xml
  cfdi-processor summary facturas/*.xml -f csv -o summaries.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	pipeline := processor.NewPipeline(processor.WithoutValidation())

	results, outcomes, err := processFiles(pipeline, args)
	if err != nil {
		return err
	}
	for i, outcome := range outcomes {
		results[i].Summary = outcome.Summary
	}

	if err := writeResults(results, summaryColumns); err != nil {
		return err
	}
	if n := failedCount(results); n > 0 {
		return fmt.Errorf("%d of %d files failed to parse", n, len(results))
	}
	return nil
}
