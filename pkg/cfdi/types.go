// Package cfdi provides a public API for reading Mexican CFDI 4.0 invoices.
//
// A CFDI is deserialized into a Document tree; Summary flattens the most
// used fields. Both are plain values safe to share between goroutines once
// built.
//
// Example usage:
//
//	doc, err := cfdi.Parse(xmlText)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if uuid, ok := doc.UUID(); ok {
//	    fmt.Println(uuid, doc.Total)
//	}
package cfdi

import (
	"github.com/rezonia/cfdi-processor/internal/model"
	"github.com/rezonia/cfdi-processor/internal/validator"
)

// Re-export core types for public API
type (
	Document    = model.Document
	Issuer      = model.Issuer
	Recipient   = model.Recipient
	Concept     = model.Concept
	ConceptList = model.ConceptList
	Supplement  = model.Supplement
	FiscalStamp = model.FiscalStamp
	Summary     = model.Summary
)

// Re-export error types
type (
	ParseError      = model.ParseError
	ErrorKind       = model.ErrorKind
	ValidationError = model.ValidationError
)

// Re-export error kinds
const (
	KindMalformedXML = model.KindMalformedXML
	KindMissingField = model.KindMissingField
	KindTypeMismatch = model.KindTypeMismatch
)

// Sentinels for errors.Is
var (
	ErrMalformedXML = model.ErrMalformedXML
	ErrMissingField = model.ErrMissingField
	ErrTypeMismatch = model.ErrTypeMismatch
)

// ValidationResult is a single validation finding
type ValidationResult = validator.Result

// IsKind reports whether err is a ParseError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return model.IsKind(err, kind)
}
