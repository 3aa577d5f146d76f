package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezonia/cfdi-processor/internal/processor"
)

var parseCmd = &cobra.Command{
	Use:   "parse [files...]",
	Short: "Parse CFDI files into structured documents",
	Long: `Parse one or more CFDI 4.0 XML files and print the full document tree.

Arguments may be files, glob patterns or directories (searched for .xml).
Files that fail to parse are reported with the error kind
(malformed_xml, missing_field, type_mismatch).

Examples:
  cfdi-processor parse factura.xml
  cfdi-processor parse facturas/ -f yaml -o documents.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	pipeline := processor.NewPipeline(processor.WithoutValidation())

	results, outcomes, err := processFiles(pipeline, args)
	if err != nil {
		return err
	}
	for i, outcome := range outcomes {
		results[i].Document = outcome.Document
	}

	if err := writeResults(results, summaryColumns); err != nil {
		return err
	}
	if n := failedCount(results); n > 0 {
		return fmt.Errorf("%d of %d files failed to parse", n, len(results))
	}
	return nil
}
