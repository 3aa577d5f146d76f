package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rezonia/cfdi-processor/internal/processor"
	"github.com/rezonia/cfdi-processor/internal/validator"
)

var (
	strictValidation bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate CFDI files",
	Long: `Parse and check one or more CFDI files.

Checks performed:
  - At least one line item
  - Sum of line item amounts matches the subtotal
  - Line item discounts do not exceed their amount
  - Totals, line item quantities and amounts are not negative
  - Issue and stamp dates use the CFDI layout
  - Issuer and recipient RFC format
  - Fiscal folio is a UUID

Parse failures always make a file invalid. Other findings are warnings
unless --strict is given.

Examples:
  cfdi-processor validate factura.xml
  cfdi-processor validate *.xml --strict -f table`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&strictValidation, "strict", false, "Treat every finding as an error")
}

var validationColumns = []column{
	{"file", func(r *FileResult) string { return r.File }},
	{"valid", func(r *FileResult) string { return strconv.FormatBool(r.Valid != nil && *r.Valid) }},
	{"issues", func(r *FileResult) string {
		details := make([]string, 0, len(r.Issues))
		for _, issue := range r.Issues {
			details = append(details, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
		}
		return strings.Join(details, "; ")
	}},
	{"error", func(r *FileResult) string { return r.Error }},
}

func runValidate(cmd *cobra.Command, args []string) error {
	pipeline := processor.NewPipeline(
		processor.WithValidator(validator.New(validator.WithStrict(strictValidation))),
	)

	results, outcomes, err := processFiles(pipeline, args)
	if err != nil {
		return err
	}

	var failures []error
	for i, outcome := range outcomes {
		valid := outcome.Valid()
		results[i].Valid = &valid
		results[i].Issues = outcome.Issues
		if valid {
			continue
		}
		cause := outcome.Error
		if cause == nil {
			cause = validator.Errors(outcome.Issues)
		}
		failures = append(failures, fmt.Errorf("%s: %w", results[i].File, cause))
	}

	if err := writeResults(results, validationColumns); err != nil {
		return err
	}
	if len(failures) > 0 {
		return fmt.Errorf("validation failed for %d of %d files: %w", len(failures), len(results), errors.Join(failures...))
	}
	return nil
}
