package cfdi

import (
	"context"
	"io"

	"github.com/rezonia/cfdi-processor/internal/model"
	xmlparser "github.com/rezonia/cfdi-processor/internal/parser/xml"
	"github.com/rezonia/cfdi-processor/internal/processor"
	"github.com/rezonia/cfdi-processor/internal/validator"
)

var defaultParser = xmlparser.NewParser()

// Parse deserializes CFDI XML text into a Document
func Parse(text string) (*Document, error) {
	return defaultParser.ParseString(context.Background(), text)
}

// ParseReader deserializes CFDI XML read from r
func ParseReader(ctx context.Context, r io.Reader) (*Document, error) {
	return defaultParser.Parse(ctx, r)
}

// ToSummary projects a document into its summary view
func ToSummary(doc *Document) Summary {
	return model.ToSummary(doc)
}

// Validate runs business checks over a parsed document. With strict every
// finding is an error.
func Validate(doc *Document, strict bool) []ValidationResult {
	return validator.New(validator.WithStrict(strict)).Validate(doc)
}

// Valid returns true if none of the results is an error
func Valid(results []ValidationResult) bool {
	return validator.Valid(results)
}

// Result is the outcome of processing one input
type Result struct {
	Document *Document
	Summary  *Summary
	Issues   []ValidationResult
	Warnings []string
}

// Options configures a Processor
type Options struct {
	// Strict treats every validation finding as an error
	Strict bool
	// SkipValidation disables business checks after parsing
	SkipValidation bool
}

// Processor parses, summarizes and validates CFDI inputs. Input text is
// normalised to UTF-8 before parsing.
type Processor struct {
	pipeline *processor.Pipeline
}

// NewProcessor creates a processor with the given options
func NewProcessor(opts Options) *Processor {
	option := processor.WithValidator(validator.New(validator.WithStrict(opts.Strict)))
	if opts.SkipValidation {
		option = processor.WithoutValidation()
	}
	return &Processor{pipeline: processor.NewPipeline(option)}
}

// NewDefaultProcessor creates a processor with default options
func NewDefaultProcessor() *Processor {
	return NewProcessor(Options{})
}

// Process processes input and returns the parsed result
func (p *Processor) Process(ctx context.Context, r io.Reader) (*Result, error) {
	result := p.pipeline.Process(ctx, r)
	if result.Error != nil {
		return nil, result.Error
	}

	return &Result{
		Document: result.Document,
		Summary:  result.Summary,
		Issues:   result.Issues,
		Warnings: result.Warnings,
	}, nil
}

// ProcessBatch processes multiple inputs concurrently. Results keep input
// order; a failed input leaves a nil entry and the first error is returned.
func (p *Processor) ProcessBatch(ctx context.Context, inputs []io.Reader) ([]*Result, error) {
	results := make([]*Result, len(inputs))
	errCh := make(chan error, len(inputs))

	for i, input := range inputs {
		go func(idx int, r io.Reader) {
			result, err := p.Process(ctx, r)
			if err != nil {
				errCh <- err
				return
			}
			results[idx] = result
			errCh <- nil
		}(i, input)
	}

	var firstErr error
	for range inputs {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return results, firstErr
}
