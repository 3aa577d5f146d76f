package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rezonia/cfdi-processor/internal/encoding"
	"github.com/rezonia/cfdi-processor/internal/model"
	xmlparser "github.com/rezonia/cfdi-processor/internal/parser/xml"
	"github.com/rezonia/cfdi-processor/internal/validator"
)

// Format is the detected input format
type Format string

const (
	FormatXML     Format = "xml"
	FormatUnknown Format = "unknown"
)

// Result is the outcome of processing one input
type Result struct {
	Document *model.Document
	Summary  *model.Summary
	Issues   []validator.Result
	Warnings []string
	Error    error
}

// Valid returns true if the input parsed and no validation issue is an error
func (r *Result) Valid() bool {
	return r.Error == nil && validator.Valid(r.Issues)
}

// Option configures the pipeline
type Option func(*Pipeline)

// WithValidator sets the validator run after a successful parse
func WithValidator(v *validator.Validator) Option {
	return func(p *Pipeline) {
		p.validator = v
	}
}

// WithoutValidation skips post-parse checks
func WithoutValidation() Option {
	return func(p *Pipeline) {
		p.validator = nil
	}
}

// Pipeline normalises input text, deserializes it and projects the summary
type Pipeline struct {
	parser    *xmlparser.Parser
	validator *validator.Validator
}

// NewPipeline creates a pipeline with default validation
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		parser:    xmlparser.NewParser(),
		validator: validator.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process reads all of r and processes it
func (p *Pipeline) Process(ctx context.Context, r io.Reader) *Result {
	data, err := io.ReadAll(r)
	if err != nil {
		return &Result{Error: fmt.Errorf("failed to read input: %w", err)}
	}
	return p.ProcessBytes(ctx, data)
}

// ProcessBytes processes an in-memory CFDI
func (p *Pipeline) ProcessBytes(ctx context.Context, data []byte) *Result {
	result := &Result{}

	text, err := encoding.ToUTF8(data)
	if err != nil {
		result.Error = fmt.Errorf("failed to normalise encoding: %w", err)
		return result
	}

	doc, err := p.parser.ParseBytes(ctx, text)
	if err != nil {
		result.Error = fmt.Errorf("CFDI parsing failed: %w", err)
		return result
	}

	summary := doc.Summary()
	result.Document = doc
	result.Summary = &summary

	if !doc.IsStamped() {
		result.Warnings = append(result.Warnings, "document has no fiscal stamp")
	}

	if p.validator != nil {
		result.Issues = p.validator.Validate(doc)
		for _, issue := range result.Issues {
			if !issue.IsError {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
			}
		}
	}

	return result
}

// formatProbeSize bounds how much input DetectFormat decodes
const formatProbeSize = 512

// DetectFormat detects the input format from its content. UTF-8 and
// UTF-16 byte order marks are skipped.
func DetectFormat(data []byte) Format {
	if encoding.HasUTF16BOM(data) {
		head := data
		if len(head) > formatProbeSize {
			head = head[:formatProbeSize]
		}
		decoded, err := encoding.ToUTF8(head)
		if err != nil {
			return FormatUnknown
		}
		data = decoded
	}

	trimmed := bytes.TrimLeft(data, "\xef\xbb\xbf \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return FormatXML
	}
	return FormatUnknown
}
