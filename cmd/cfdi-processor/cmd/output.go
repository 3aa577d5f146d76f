package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/rezonia/cfdi-processor/internal/model"
)

// column renders one field of a FileResult for table and csv output
type column struct {
	name  string
	value func(r *FileResult) string
}

func writeResults(results []*FileResult, columns []column) error {
	var w io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch outputFormat {
	case "json":
		return outputJSON(w, results)
	case "yaml":
		return outputYAML(w, results)
	case "table":
		return outputTable(w, results, columns)
	case "csv":
		return outputCSV(w, results, columns)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

func outputJSON(w io.Writer, results []*FileResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

func outputYAML(w io.Writer, results []*FileResult) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(results); err != nil {
		return err
	}
	return encoder.Close()
}

func outputTable(w io.Writer, results []*FileResult, columns []column) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	names := make([]string, 0, len(columns)+1)
	rules := make([]string, 0, len(columns)+1)
	for _, c := range columns {
		names = append(names, strings.ToUpper(c.name))
		rules = append(rules, strings.Repeat("-", len(c.name)))
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	fmt.Fprintln(tw, strings.Join(rules, "\t"))

	for _, r := range results {
		fmt.Fprintln(tw, strings.Join(row(r, columns), "\t"))
	}
	return tw.Flush()
}

func outputCSV(w io.Writer, results []*FileResult, columns []column) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(columns))
	for _, c := range columns {
		header = append(header, c.name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		if err := cw.Write(row(r, columns)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(r *FileResult, columns []column) []string {
	values := make([]string, 0, len(columns))
	for _, c := range columns {
		values = append(values, c.value(r))
	}
	return values
}

// summaryColumns is shared by parse and summary
var summaryColumns = []column{
	{"file", func(r *FileResult) string { return r.File }},
	{"uuid", fromSummary(func(s *model.Summary) string {
		if s.UUID == nil {
			return ""
		}
		return *s.UUID
	})},
	{"issue_date", fromSummary(func(s *model.Summary) string { return s.IssueDate })},
	{"issuer_tax_id", fromSummary(func(s *model.Summary) string { return s.IssuerTaxID })},
	{"recipient_tax_id", fromSummary(func(s *model.Summary) string { return s.RecipientTaxID })},
	{"subtotal", fromSummary(func(s *model.Summary) string { return s.SubTotal.String() })},
	{"total", fromSummary(func(s *model.Summary) string { return s.Total.String() })},
	{"concepts", fromSummary(func(s *model.Summary) string { return strconv.Itoa(len(s.Concepts)) })},
	{"error", func(r *FileResult) string { return r.Error }},
}

// fromSummary reads a column from the result's summary, projecting it from
// the document when only the document was kept.
func fromSummary(get func(s *model.Summary) string) func(r *FileResult) string {
	return func(r *FileResult) string {
		switch {
		case r.Summary != nil:
			return get(r.Summary)
		case r.Document != nil:
			s := r.Document.Summary()
			return get(&s)
		default:
			return ""
		}
	}
}
