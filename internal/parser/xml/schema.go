package xml

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	dec "github.com/rezonia/cfdi-processor/internal/decimal"
	"github.com/rezonia/cfdi-processor/internal/model"
)

// Wire tags, matched on local name
const (
	tagComprobante         = "Comprobante"
	tagEmisor              = "Emisor"
	tagReceptor            = "Receptor"
	tagConceptos           = "Conceptos"
	tagConcepto            = "Concepto"
	tagComplemento         = "Complemento"
	tagTimbreFiscalDigital = "TimbreFiscalDigital"
)

// binding maps one XML attribute onto a field of T
type binding[T any] struct {
	attr     string
	required bool
	assign   func(dst *T, raw string) error
}

func text[T any](attr string, required bool, set func(*T, string)) binding[T] {
	return binding[T]{
		attr:     attr,
		required: required,
		assign: func(dst *T, raw string) error {
			set(dst, raw)
			return nil
		},
	}
}

func number[T any](attr string, required bool, set func(*T, decimal.Decimal)) binding[T] {
	return binding[T]{
		attr:     attr,
		required: required,
		assign: func(dst *T, raw string) error {
			v, err := dec.FromString(raw)
			if err != nil {
				return err
			}
			set(dst, v)
			return nil
		},
	}
}

var documentBindings = []binding[model.Document]{
	number("Total", true, func(d *model.Document, v decimal.Decimal) { d.Total = v }),
	number("SubTotal", true, func(d *model.Document, v decimal.Decimal) { d.SubTotal = v }),
	text("Fecha", true, func(d *model.Document, v string) { d.IssueDate = v }),
	text("FormaPago", false, func(d *model.Document, v string) { d.PaymentMethod = &v }),
	text("Descuento", false, func(d *model.Document, v string) { d.Discount = &v }),
	text("TipoDeComprobante", true, func(d *model.Document, v string) { d.VoucherType = v }),
}

var issuerBindings = []binding[model.Issuer]{
	text("Rfc", true, func(i *model.Issuer, v string) { i.TaxID = v }),
	text("Nombre", true, func(i *model.Issuer, v string) { i.LegalName = v }),
	text("RegimenFiscal", true, func(i *model.Issuer, v string) { i.TaxRegime = v }),
}

var recipientBindings = []binding[model.Recipient]{
	text("Rfc", true, func(r *model.Recipient, v string) { r.TaxID = v }),
	text("Nombre", true, func(r *model.Recipient, v string) { r.LegalName = v }),
	text("RegimenFiscalReceptor", true, func(r *model.Recipient, v string) { r.TaxRegime = v }),
	text("UsoCFDI", true, func(r *model.Recipient, v string) { r.CFDIUse = v }),
}

var conceptBindings = []binding[model.Concept]{
	text("ClaveProdServ", true, func(c *model.Concept, v string) { c.ProductServiceCode = v }),
	number("Cantidad", true, func(c *model.Concept, v decimal.Decimal) { c.Quantity = v }),
	text("ClaveUnidad", true, func(c *model.Concept, v string) { c.UnitCode = v }),
	text("Unidad", false, func(c *model.Concept, v string) { c.UnitDescription = &v }),
	text("Descripcion", true, func(c *model.Concept, v string) { c.Description = v }),
	text("ValorUnitario", true, func(c *model.Concept, v string) { c.UnitValue = v }),
	number("Importe", true, func(c *model.Concept, v decimal.Decimal) { c.Amount = v }),
	number("Descuento", false, func(c *model.Concept, v decimal.Decimal) { c.Discount = &v }),
}

var fiscalStampBindings = []binding[model.FiscalStamp]{
	text("Version", true, func(s *model.FiscalStamp, v string) { s.SchemaVersion = v }),
	text("UUID", true, func(s *model.FiscalStamp, v string) { s.UUID = v }),
	text("FechaTimbrado", true, func(s *model.FiscalStamp, v string) { s.StampDate = v }),
	text("NoCertificadoSAT", true, func(s *model.FiscalStamp, v string) { s.AuthorityCertificateSerial = v }),
}

// bind applies bindings to el's attributes. Attributes without a binding
// are ignored.
func bind[T any](el *etree.Element, entity string, dst *T, bindings []binding[T]) error {
	for _, b := range bindings {
		raw, ok := attrValue(el, b.attr)
		if !ok {
			if b.required {
				return model.NewParseError(model.KindMissingField, entity, b.attr,
					"required attribute not found", nil)
			}
			continue
		}
		if err := b.assign(dst, raw); err != nil {
			return model.NewParseError(model.KindTypeMismatch, entity, b.attr,
				fmt.Sprintf("cannot parse %q as a number", raw), err)
		}
	}
	return nil
}

func attrValue(el *etree.Element, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Key == name && a.Space != "xmlns" {
			return a.Value, true
		}
	}
	return "", false
}

// child returns the first child element with the given local name
func child(el *etree.Element, tag string) *etree.Element {
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

func children(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}
