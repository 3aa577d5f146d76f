// Package validator runs business checks over an already parsed CFDI.
//
// Nothing here is part of deserialization: a document that fails these
// checks is still a valid parse result. Catalog codes (tax regime, CFDI
// use, product keys) are not checked.
package validator

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dec "github.com/rezonia/cfdi-processor/internal/decimal"
	"github.com/rezonia/cfdi-processor/internal/model"
)

// DateLayout is the CFDI date-time format (no zone, local to the issuer)
const DateLayout = "2006-01-02T15:04:05"

// Rule names reported in Result.Rule
const (
	RuleConceptsPresent  = "concepts_present"
	RuleSubtotalMatches  = "subtotal_matches"
	RuleDiscountBounded  = "discount_bounded"
	RuleDateFormat       = "date_format"
	RuleTaxIDFormat      = "rfc_format"
	RuleFolioFormat      = "folio_format"
	RuleUnitValueNumeric = "unit_value_numeric"
	RuleNonNegative      = "non_negative_amount"
)

// RFC: 3 letters for legal entities, 4 for individuals, YYMMDD, homoclave
var rfcPattern = regexp.MustCompile(`^[A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{3}$`)

// Result is one validation finding
type Result struct {
	Field   string      `json:"field" yaml:"field"`
	Rule    string      `json:"rule" yaml:"rule"`
	Message string      `json:"message" yaml:"message"`
	Value   interface{} `json:"value,omitempty" yaml:"value,omitempty"`
	IsError bool        `json:"is_error" yaml:"is_error"` // true = error, false = warning
}

// Err converts the finding into a model.ValidationError
func (r Result) Err() *model.ValidationError {
	return model.NewValidationError(r.Field, r.Value, r.Rule, r.Message)
}

// Option configures a Validator
type Option func(*Validator)

// WithStrict promotes every warning to an error
func WithStrict(strict bool) Option {
	return func(v *Validator) {
		v.strict = strict
	}
}

// WithTolerance sets the allowed difference between subtotal and the sum of concept amounts
func WithTolerance(tolerance decimal.Decimal) Option {
	return func(v *Validator) {
		v.tolerance = tolerance
	}
}

// Validator checks parsed documents
type Validator struct {
	strict    bool
	tolerance decimal.Decimal
}

// New creates a validator
func New(opts ...Option) *Validator {
	v := &Validator{
		tolerance: dec.Cent,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate performs every check and returns the findings in a stable order
func (v *Validator) Validate(doc *model.Document) []Result {
	var results []Result

	results = append(results, v.checkAmounts(doc)...)
	results = append(results, v.checkConcepts(doc)...)
	results = append(results, v.checkDates(doc)...)
	results = append(results, v.checkParties(doc)...)
	results = append(results, v.checkStamp(doc)...)

	if v.strict {
		for i := range results {
			results[i].IsError = true
		}
	}
	return results
}

// Valid returns true if none of the results is an error
func Valid(results []Result) bool {
	for _, r := range results {
		if r.IsError {
			return false
		}
	}
	return true
}

// Errors joins the error-level findings into one error, or returns nil
func Errors(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.IsError {
			errs = append(errs, r.Err())
		}
	}
	return errors.Join(errs...)
}

type amountField struct {
	field string
	value decimal.Decimal
}

func (v *Validator) checkAmounts(doc *model.Document) []Result {
	amounts := []amountField{
		{"total", doc.Total},
		{"subtotal", doc.SubTotal},
	}
	for i, c := range doc.ConceptList.Concepts {
		amounts = append(amounts,
			amountField{fmt.Sprintf("concepts[%d].quantity", i), c.Quantity},
			amountField{fmt.Sprintf("concepts[%d].amount", i), c.Amount},
		)
	}

	var results []Result
	for _, a := range amounts {
		if !dec.IsNonNegative(a.value) {
			results = append(results, Result{
				Field:   a.field,
				Rule:    RuleNonNegative,
				Message: "amount is negative",
				Value:   a.value.String(),
			})
		}
	}
	return results
}

func (v *Validator) checkConcepts(doc *model.Document) []Result {
	concepts := doc.ConceptList.Concepts
	if len(concepts) == 0 {
		return []Result{{
			Field:   "concepts",
			Rule:    RuleConceptsPresent,
			Message: "invoice has no line items",
			IsError: true,
		}}
	}

	var results []Result
	amounts := make([]decimal.Decimal, 0, len(concepts))

	for i, c := range concepts {
		amounts = append(amounts, c.Amount)

		if c.Discount != nil && c.Discount.GreaterThan(c.Amount) {
			results = append(results, Result{
				Field:   fmt.Sprintf("concepts[%d].discount", i),
				Rule:    RuleDiscountBounded,
				Message: fmt.Sprintf("discount %s exceeds amount %s", c.Discount, c.Amount),
				Value:   c.Discount.String(),
			})
		}
		if !dec.IsNumeric(c.UnitValue) {
			results = append(results, Result{
				Field:   fmt.Sprintf("concepts[%d].unit_value", i),
				Rule:    RuleUnitValueNumeric,
				Message: "unit value is not a number",
				Value:   c.UnitValue,
			})
		}
	}

	// Concept amounts may carry up to six decimals; the subtotal is in centavos.
	sum := dec.RoundMXN(dec.Sum(amounts))
	if !dec.WithinTolerance(sum, doc.SubTotal, v.tolerance) {
		results = append(results, Result{
			Field:   "subtotal",
			Rule:    RuleSubtotalMatches,
			Message: fmt.Sprintf("sum of concept amounts %s differs from subtotal %s", sum, doc.SubTotal),
			Value:   doc.SubTotal.String(),
		})
	}

	return results
}

func (v *Validator) checkDates(doc *model.Document) []Result {
	var results []Result
	if r, ok := checkDate("issue_date", doc.IssueDate); !ok {
		results = append(results, r)
	}
	if stampDate, stamped := doc.StampDate(); stamped {
		if r, ok := checkDate("fiscal_stamp.stamp_date", stampDate); !ok {
			results = append(results, r)
		}
	}
	return results
}

func checkDate(field, value string) (Result, bool) {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return Result{
			Field:   field,
			Rule:    RuleDateFormat,
			Message: fmt.Sprintf("expected layout %s", DateLayout),
			Value:   value,
		}, false
	}
	return Result{}, true
}

func (v *Validator) checkParties(doc *model.Document) []Result {
	parties := []struct {
		field string
		taxID string
	}{
		{"issuer.tax_id", doc.Issuer.TaxID},
		{"recipient.tax_id", doc.Recipient.TaxID},
	}

	var results []Result
	for _, p := range parties {
		if !rfcPattern.MatchString(p.taxID) {
			results = append(results, Result{
				Field:   p.field,
				Rule:    RuleTaxIDFormat,
				Message: "tax id does not match the RFC format",
				Value:   p.taxID,
			})
		}
	}
	return results
}

func (v *Validator) checkStamp(doc *model.Document) []Result {
	folio, ok := doc.UUID()
	if !ok {
		return nil
	}
	if _, err := uuid.Parse(folio); err != nil {
		return []Result{{
			Field:   "fiscal_stamp.uuid",
			Rule:    RuleFolioFormat,
			Message: "fiscal folio is not a UUID",
			Value:   folio,
		}}
	}
	return nil
}
