package model

import "github.com/shopspring/decimal"

// Document is the root Comprobante node of a CFDI
type Document struct {
	Total         decimal.Decimal `json:"total" yaml:"total"`
	SubTotal      decimal.Decimal `json:"subtotal" yaml:"subtotal"`
	IssueDate     string          `json:"issue_date" yaml:"issue_date"`
	PaymentMethod *string         `json:"payment_method,omitempty" yaml:"payment_method,omitempty"`
	// Discount stays as text; concept discounts are numeric.
	Discount    *string `json:"discount,omitempty" yaml:"discount,omitempty"`
	VoucherType string  `json:"voucher_type" yaml:"voucher_type"`

	Issuer      Issuer      `json:"issuer" yaml:"issuer"`
	Recipient   Recipient   `json:"recipient" yaml:"recipient"`
	ConceptList ConceptList `json:"concepts" yaml:"concepts"`

	// Supplement is nil until the tax authority stamps the invoice
	Supplement *Supplement `json:"supplement,omitempty" yaml:"supplement,omitempty"`
}

// Issuer is the taxpayer that emitted the invoice (Emisor)
type Issuer struct {
	TaxID     string `json:"tax_id" yaml:"tax_id"`
	LegalName string `json:"legal_name" yaml:"legal_name"`
	TaxRegime string `json:"tax_regime" yaml:"tax_regime"`
}

// Recipient is the taxpayer the invoice is addressed to (Receptor)
type Recipient struct {
	TaxID     string `json:"tax_id" yaml:"tax_id"`
	LegalName string `json:"legal_name" yaml:"legal_name"`
	TaxRegime string `json:"tax_regime" yaml:"tax_regime"`
	CFDIUse   string `json:"cfdi_use" yaml:"cfdi_use"`
}

// Concept is a single invoice line item (Concepto)
type Concept struct {
	ProductServiceCode string          `json:"product_service_code" yaml:"product_service_code"`
	Quantity           decimal.Decimal `json:"quantity" yaml:"quantity"`
	UnitCode           string          `json:"unit_code" yaml:"unit_code"`
	UnitDescription    *string         `json:"unit_description,omitempty" yaml:"unit_description,omitempty"`
	Description        string          `json:"description" yaml:"description"`
	// UnitValue keeps the wire text verbatim, e.g. "10.500".
	UnitValue string           `json:"unit_value" yaml:"unit_value"`
	Amount    decimal.Decimal  `json:"amount" yaml:"amount"`
	Discount  *decimal.Decimal `json:"discount,omitempty" yaml:"discount,omitempty"`
}

// ConceptList holds line items in wire order
type ConceptList struct {
	Concepts []Concept `json:"items" yaml:"items"`
}

// Supplement is the Complemento container
type Supplement struct {
	FiscalStamp *FiscalStamp `json:"fiscal_stamp,omitempty" yaml:"fiscal_stamp,omitempty"`
}

// FiscalStamp is the TimbreFiscalDigital assigned by the tax authority
type FiscalStamp struct {
	SchemaVersion              string `json:"schema_version" yaml:"schema_version"`
	UUID                       string `json:"uuid" yaml:"uuid"`
	StampDate                  string `json:"stamp_date" yaml:"stamp_date"`
	AuthorityCertificateSerial string `json:"authority_certificate_serial" yaml:"authority_certificate_serial"`
}

// Concepts returns a copy of the line items in wire order
func (d *Document) Concepts() []Concept {
	return cloneConcepts(d.ConceptList.Concepts)
}

// UUID returns the fiscal folio when the document carries a stamp
func (d *Document) UUID() (string, bool) {
	stamp := d.fiscalStamp()
	if stamp == nil {
		return "", false
	}
	return stamp.UUID, true
}

// StampDate returns the certification date when the document carries a stamp
func (d *Document) StampDate() (string, bool) {
	stamp := d.fiscalStamp()
	if stamp == nil {
		return "", false
	}
	return stamp.StampDate, true
}

// IsStamped returns true if the tax authority has certified the document
func (d *Document) IsStamped() bool {
	return d.fiscalStamp() != nil
}

func (d *Document) fiscalStamp() *FiscalStamp {
	if d.Supplement == nil {
		return nil
	}
	return d.Supplement.FiscalStamp
}

func (c Concept) clone() Concept {
	out := c
	if c.UnitDescription != nil {
		v := *c.UnitDescription
		out.UnitDescription = &v
	}
	if c.Discount != nil {
		v := *c.Discount
		out.Discount = &v
	}
	return out
}

func cloneConcepts(in []Concept) []Concept {
	if in == nil {
		return nil
	}
	out := make([]Concept, len(in))
	for i, c := range in {
		out[i] = c.clone()
	}
	return out
}
