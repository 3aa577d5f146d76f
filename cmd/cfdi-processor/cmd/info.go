package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rezonia/cfdi-processor/internal/processor"
)

var infoCmd = &cobra.Command{
	Use:   "info [files...]",
	Short: "Show information about CFDI files",
	Long: `Display a short description of each file without printing the document.

Shows:
  - File size and modification time
  - Detected format
  - Whether the invoice is stamped, its folio and line item count

Examples:
  cfdi-processor info factura.xml
  cfdi-processor info facturas/ -f table`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoColumns = []column{
	{"file", func(r *FileResult) string { return r.File }},
	{"size", fromInfo(func(i *FileInfo) string { return strconv.FormatInt(i.Size, 10) })},
	{"modified", fromInfo(func(i *FileInfo) string { return i.Modified.Format("2006-01-02 15:04:05") })},
	{"format", fromInfo(func(i *FileInfo) string { return string(i.Format) })},
	{"voucher_type", fromInfo(func(i *FileInfo) string { return i.VoucherType })},
	{"concepts", fromInfo(func(i *FileInfo) string { return strconv.Itoa(i.Concepts) })},
	{"stamped", fromInfo(func(i *FileInfo) string { return strconv.FormatBool(i.Stamped) })},
	{"uuid", fromInfo(func(i *FileInfo) string { return i.UUID })},
	{"error", func(r *FileResult) string { return r.Error }},
}

func fromInfo(get func(i *FileInfo) string) func(r *FileResult) string {
	return func(r *FileResult) string {
		if r.Info == nil {
			return ""
		}
		return get(r.Info)
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found")
	}

	pipeline := processor.NewPipeline(processor.WithoutValidation())
	results := make([]*FileResult, 0, len(files))
	for _, file := range files {
		results = append(results, fileInfo(pipeline, file))
	}

	return writeResults(results, infoColumns)
}

// fileInfo reads path once and describes it. Files that are not XML are
// reported without being parsed.
func fileInfo(pipeline *processor.Pipeline, path string) *FileResult {
	stat, err := os.Stat(path)
	if err != nil {
		return &FileResult{File: path, Error: err.Error()}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &FileResult{File: path, Error: fmt.Sprintf("failed to read file: %v", err)}
	}

	info := &FileInfo{
		Size:     stat.Size(),
		Modified: stat.ModTime(),
		Format:   processor.DetectFormat(data),
	}
	if info.Format != processor.FormatXML {
		return &FileResult{File: path, Info: info}
	}

	result, outcome := processData(pipeline, path, data)
	result.Info = info
	if outcome.Error != nil {
		return result
	}

	doc := outcome.Document
	info.VoucherType = doc.VoucherType
	info.IssueDate = doc.IssueDate
	info.IssuerTaxID = doc.Issuer.TaxID
	info.Concepts = len(doc.ConceptList.Concepts)
	info.Stamped = outcome.Summary.IsStamped()
	if uuid, ok := doc.UUID(); ok {
		info.UUID = uuid
		info.StampDate, _ = doc.StampDate()
	}
	result.Warnings = nil
	return result
}
