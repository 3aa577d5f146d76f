package model

import "github.com/shopspring/decimal"

// Summary is a flattened snapshot of the most used CFDI fields.
// It shares no memory with the Document it was built from.
type Summary struct {
	Total          decimal.Decimal `json:"total" yaml:"total"`
	SubTotal       decimal.Decimal `json:"subtotal" yaml:"subtotal"`
	IssueDate      string          `json:"issue_date" yaml:"issue_date"`
	IssuerName     string          `json:"issuer_name" yaml:"issuer_name"`
	IssuerTaxID    string          `json:"issuer_tax_id" yaml:"issuer_tax_id"`
	RecipientName  string          `json:"recipient_name" yaml:"recipient_name"`
	RecipientTaxID string          `json:"recipient_tax_id" yaml:"recipient_tax_id"`
	UUID           *string         `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	StampDate      *string         `json:"stamp_date,omitempty" yaml:"stamp_date,omitempty"`
	Concepts       []Concept       `json:"concepts" yaml:"concepts"`
}

// ToSummary projects a document into its summary view
func ToSummary(d *Document) Summary {
	s := Summary{
		Total:          d.Total,
		SubTotal:       d.SubTotal,
		IssueDate:      d.IssueDate,
		IssuerName:     d.Issuer.LegalName,
		IssuerTaxID:    d.Issuer.TaxID,
		RecipientName:  d.Recipient.LegalName,
		RecipientTaxID: d.Recipient.TaxID,
		Concepts:       d.Concepts(),
	}
	if uuid, ok := d.UUID(); ok {
		s.UUID = &uuid
	}
	if stampDate, ok := d.StampDate(); ok {
		s.StampDate = &stampDate
	}
	return s
}

// Summary returns the summary view of the document
func (d *Document) Summary() Summary {
	return ToSummary(d)
}

// IsStamped returns true if the summarized document carried a fiscal stamp
func (s Summary) IsStamped() bool {
	return s.UUID != nil
}
