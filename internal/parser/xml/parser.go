package xml

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/beevik/etree"

	"github.com/rezonia/cfdi-processor/internal/encoding"
	"github.com/rezonia/cfdi-processor/internal/model"
)

// Entity names used in error reports
const (
	entityDocument    = "Document"
	entityIssuer      = "Issuer"
	entityRecipient   = "Recipient"
	entityConcept     = "Concept"
	entityFiscalStamp = "FiscalStamp"
)

// Parser deserializes CFDI XML into a model.Document.
// A Parser holds no state between calls and is safe for concurrent use.
type Parser struct{}

// NewParser creates a new CFDI parser
func NewParser() *Parser {
	return &Parser{}
}

// CanParse returns true if the content's root element is a Comprobante
func (p *Parser) CanParse(content []byte) bool {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = encoding.CharsetReader
	if err := doc.ReadFromBytes(bytes.TrimSpace(content)); err != nil {
		return false
	}
	root := doc.Root()
	return root != nil && root.Tag == tagComprobante
}

// Parse reads XML from r into a Document
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*model.Document, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewParseError(model.KindMalformedXML, entityDocument, "", "failed to read content", err)
	}
	return p.ParseBytes(ctx, content)
}

// ParseString parses an XML text buffer into a Document
func (p *Parser) ParseString(ctx context.Context, content string) (*model.Document, error) {
	return p.ParseBytes(ctx, []byte(content))
}

// ParseBytes parses XML content into a Document. The first error stops
// the parse; no partial document is returned.
func (p *Parser) ParseBytes(ctx context.Context, content []byte) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	xmlDoc := etree.NewDocument()
	xmlDoc.ReadSettings.CharsetReader = encoding.CharsetReader
	xmlDoc.ReadSettings.ValidateInput = true
	if err := xmlDoc.ReadFromBytes(bytes.TrimSpace(content)); err != nil {
		return nil, model.NewParseError(model.KindMalformedXML, entityDocument, "", "failed to parse XML", err)
	}

	root := xmlDoc.Root()
	if root == nil {
		return nil, model.NewParseError(model.KindMalformedXML, entityDocument, "", "no root element", nil)
	}
	if root.Tag != tagComprobante {
		return nil, model.NewParseError(model.KindMissingField, entityDocument, tagComprobante,
			fmt.Sprintf("unexpected root element %q", root.Tag), nil)
	}

	return convertDocument(root)
}

func convertDocument(el *etree.Element) (*model.Document, error) {
	var doc model.Document
	if err := bind(el, entityDocument, &doc, documentBindings); err != nil {
		return nil, err
	}

	emisor, err := requiredChild(el, entityDocument, tagEmisor)
	if err != nil {
		return nil, err
	}
	if err := bind(emisor, entityIssuer, &doc.Issuer, issuerBindings); err != nil {
		return nil, err
	}

	receptor, err := requiredChild(el, entityDocument, tagReceptor)
	if err != nil {
		return nil, err
	}
	if err := bind(receptor, entityRecipient, &doc.Recipient, recipientBindings); err != nil {
		return nil, err
	}

	conceptos, err := requiredChild(el, entityDocument, tagConceptos)
	if err != nil {
		return nil, err
	}
	if doc.ConceptList, err = convertConcepts(conceptos); err != nil {
		return nil, err
	}

	if complemento := child(el, tagComplemento); complemento != nil {
		if doc.Supplement, err = convertSupplement(complemento); err != nil {
			return nil, err
		}
	}

	return &doc, nil
}

func convertConcepts(el *etree.Element) (model.ConceptList, error) {
	items := children(el, tagConcepto)
	list := model.ConceptList{Concepts: make([]model.Concept, 0, len(items))}

	for i, item := range items {
		var concept model.Concept
		entity := fmt.Sprintf("%s[%d]", entityConcept, i)
		if err := bind(item, entity, &concept, conceptBindings); err != nil {
			return model.ConceptList{}, err
		}
		list.Concepts = append(list.Concepts, concept)
	}

	return list, nil
}

func convertSupplement(el *etree.Element) (*model.Supplement, error) {
	supplement := &model.Supplement{}

	tfd := child(el, tagTimbreFiscalDigital)
	if tfd == nil {
		return supplement, nil
	}

	var stamp model.FiscalStamp
	if err := bind(tfd, entityFiscalStamp, &stamp, fiscalStampBindings); err != nil {
		return nil, err
	}
	supplement.FiscalStamp = &stamp

	return supplement, nil
}

func requiredChild(el *etree.Element, entity, tag string) (*etree.Element, error) {
	c := child(el, tag)
	if c == nil {
		return nil, model.NewParseError(model.KindMissingField, entity, tag, "required element not found", nil)
	}
	return c, nil
}
