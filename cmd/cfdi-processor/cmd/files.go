package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rezonia/cfdi-processor/internal/model"
	"github.com/rezonia/cfdi-processor/internal/processor"
	"github.com/rezonia/cfdi-processor/internal/validator"
)

// FileResult holds the result of processing a single file
type FileResult struct {
	File      string             `json:"file" yaml:"file"`
	Document  *model.Document    `json:"document,omitempty" yaml:"document,omitempty"`
	Summary   *model.Summary     `json:"summary,omitempty" yaml:"summary,omitempty"`
	Valid     *bool              `json:"valid,omitempty" yaml:"valid,omitempty"`
	Issues    []validator.Result `json:"issues,omitempty" yaml:"issues,omitempty"`
	Warnings  []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Error     string             `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind string             `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Info      *FileInfo          `json:"info,omitempty" yaml:"info,omitempty"`
}

// FileInfo describes a file without its document body
type FileInfo struct {
	Size        int64            `json:"size" yaml:"size"`
	Modified    time.Time        `json:"modified" yaml:"modified"`
	Format      processor.Format `json:"format" yaml:"format"`
	VoucherType string           `json:"voucher_type,omitempty" yaml:"voucher_type,omitempty"`
	IssueDate   string           `json:"issue_date,omitempty" yaml:"issue_date,omitempty"`
	IssuerTaxID string           `json:"issuer_tax_id,omitempty" yaml:"issuer_tax_id,omitempty"`
	Concepts    int              `json:"concepts" yaml:"concepts"`
	Stamped     bool             `json:"stamped" yaml:"stamped"`
	UUID        string           `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	StampDate   string           `json:"stamp_date,omitempty" yaml:"stamp_date,omitempty"`
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}

		if len(matches) == 0 {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, fmt.Errorf("file not found: %s", arg)
			}
			if !info.IsDir() {
				files = append(files, arg)
				continue
			}
			matches = []string{arg}
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				continue
			}
			if !info.IsDir() {
				files = append(files, match)
				continue
			}
			err = filepath.WalkDir(match, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && isSupportedFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return files, nil
}

func isSupportedFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xml")
}

// processFiles runs every file through pipeline. Per-file failures are
// recorded on the result, not returned.
func processFiles(pipeline *processor.Pipeline, args []string) ([]*FileResult, []*processor.Result, error) {
	files, err := collectFiles(args)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no files found to process")
	}

	log.Debug().Int("files", len(files)).Msg("processing")

	results := make([]*FileResult, 0, len(files))
	outcomes := make([]*processor.Result, 0, len(files))
	for _, file := range files {
		result, outcome := processFile(pipeline, file)
		results = append(results, result)
		outcomes = append(outcomes, outcome)
	}
	return results, outcomes, nil
}

func processFile(pipeline *processor.Pipeline, path string) (*FileResult, *processor.Result) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &FileResult{File: path, Error: fmt.Sprintf("failed to read file: %v", err)}, &processor.Result{Error: err}
	}
	return processData(pipeline, path, data)
}

// processData runs already loaded file contents through pipeline
func processData(pipeline *processor.Pipeline, path string, data []byte) (*FileResult, *processor.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ParseTimeout)
	defer cancel()

	result := &FileResult{File: path}

	outcome := pipeline.ProcessBytes(ctx, data)
	if outcome.Error != nil {
		result.Error = outcome.Error.Error()
		for _, kind := range []model.ErrorKind{model.KindMalformedXML, model.KindMissingField, model.KindTypeMismatch} {
			if model.IsKind(outcome.Error, kind) {
				result.ErrorKind = string(kind)
			}
		}
		log.Debug().Str("file", path).Err(outcome.Error).Msg("parse failed")
		return result, outcome
	}

	result.Warnings = outcome.Warnings
	log.Debug().Str("file", path).Bool("stamped", outcome.Document.IsStamped()).Msg("parsed")
	return result, outcome
}

func failedCount(results []*FileResult) int {
	n := 0
	for _, r := range results {
		if r.Error != "" {
			n++
		}
	}
	return n
}
