package xml_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/cfdi-processor/internal/model"
	xmlparser "github.com/rezonia/cfdi-processor/internal/parser/xml"
)

const minimalXML = `<?xml version="1.0" encoding="UTF-8"?>
<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" Total="100.00" SubTotal="100.00" Fecha="2024-01-01T12:00:00" TipoDeComprobante="I">
  <cfdi:Emisor Rfc="EKU9003173C9" Nombre="ESCUELA KEMPER URGATE" RegimenFiscal="601"/>
  <cfdi:Receptor Rfc="XAXX010101000" Nombre="PUBLICO EN GENERAL" RegimenFiscalReceptor="616" UsoCFDI="S01"/>
  <cfdi:Conceptos>
    <cfdi:Concepto ClaveProdServ="01010101" Cantidad="1" ClaveUnidad="ACT" Descripcion="Venta" ValorUnitario="100.00" Importe="100.00"/>
  </cfdi:Conceptos>
</cfdi:Comprobante>`

func readTestFile(t *testing.T, name string) []byte {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return content
}

func parse(t *testing.T, content string) (*model.Document, error) {
	t.Helper()
	return xmlparser.NewParser().ParseString(context.Background(), content)
}

func TestParser_ParseStampedInvoice(t *testing.T) {
	content := readTestFile(t, "stamped_invoice.xml")

	parser := xmlparser.NewParser()
	require.True(t, parser.CanParse(content))

	doc, err := parser.ParseBytes(context.Background(), content)
	require.NoError(t, err)

	// Comprobante attributes
	assert.True(t, doc.Total.Equal(decimal.RequireFromString("1682.00")))
	assert.True(t, doc.SubTotal.Equal(decimal.RequireFromString("1500.00")))
	assert.Equal(t, "2024-03-15T10:24:05", doc.IssueDate)
	assert.Equal(t, "I", doc.VoucherType)
	require.NotNil(t, doc.PaymentMethod)
	assert.Equal(t, "03", *doc.PaymentMethod)
	require.NotNil(t, doc.Discount)
	assert.Equal(t, "50.00", *doc.Discount)

	// Issuer
	assert.Equal(t, "EKU9003173C9", doc.Issuer.TaxID)
	assert.Equal(t, "ESCUELA KEMPER URGATE", doc.Issuer.LegalName)
	assert.Equal(t, "601", doc.Issuer.TaxRegime)

	// Recipient reads RegimenFiscalReceptor, not RegimenFiscal
	assert.Equal(t, "URE180429TM6", doc.Recipient.TaxID)
	assert.Equal(t, "UNIVERSIDAD ROBOTICA ESPAÑOLA", doc.Recipient.LegalName)
	assert.Equal(t, "601", doc.Recipient.TaxRegime)
	assert.Equal(t, "G03", doc.Recipient.CFDIUse)

	// Concepts
	concepts := doc.Concepts()
	require.Len(t, concepts, 3)

	first := concepts[0]
	assert.Equal(t, "43232408", first.ProductServiceCode)
	assert.True(t, first.Quantity.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "E48", first.UnitCode)
	require.NotNil(t, first.UnitDescription)
	assert.Equal(t, "Servicio", *first.UnitDescription)
	assert.Equal(t, "Licencia de software", first.Description)
	assert.Equal(t, "1000.00", first.UnitValue)
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(1000)))
	require.NotNil(t, first.Discount)
	assert.True(t, first.Discount.Equal(decimal.NewFromInt(50)))

	second := concepts[1]
	assert.True(t, second.Quantity.Equal(decimal.RequireFromString("2.5")))
	assert.Nil(t, second.UnitDescription)
	assert.Nil(t, second.Discount)
	assert.Equal(t, "100.000", second.UnitValue)

	// Fiscal stamp
	require.NotNil(t, doc.Supplement)
	require.NotNil(t, doc.Supplement.FiscalStamp)
	stamp := doc.Supplement.FiscalStamp
	assert.Equal(t, "1.1", stamp.SchemaVersion)
	assert.Equal(t, "6F1A2E3B-8C4D-4E5F-9A0B-1C2D3E4F5A6B", stamp.UUID)
	assert.Equal(t, "2024-03-15T10:25:41", stamp.StampDate)
	assert.Equal(t, "30001000000500003456", stamp.AuthorityCertificateSerial)

	uuid, ok := doc.UUID()
	assert.True(t, ok)
	assert.Equal(t, stamp.UUID, uuid)

	stampDate, ok := doc.StampDate()
	assert.True(t, ok)
	assert.Equal(t, stamp.StampDate, stampDate)
	assert.True(t, doc.IsStamped())
}

func TestParser_MinimalUnstampedInvoice(t *testing.T) {
	doc, err := xmlparser.NewParser().ParseBytes(context.Background(), readTestFile(t, "unstamped_invoice.xml"))
	require.NoError(t, err)

	assert.True(t, doc.Total.Equal(decimal.RequireFromString("100.0")))
	assert.True(t, doc.SubTotal.Equal(decimal.RequireFromString("100.0")))
	assert.Equal(t, "2024-01-01T12:00:00", doc.IssueDate)
	assert.Equal(t, "I", doc.VoucherType)
	assert.Nil(t, doc.Supplement)

	_, ok := doc.UUID()
	assert.False(t, ok)
	_, ok = doc.StampDate()
	assert.False(t, ok)
	assert.False(t, doc.IsStamped())
}

func TestParser_OptionalAttributesAbsent(t *testing.T) {
	doc, err := parse(t, minimalXML)
	require.NoError(t, err)

	assert.Nil(t, doc.PaymentMethod)
	assert.Nil(t, doc.Discount)

	require.Len(t, doc.ConceptList.Concepts, 1)
	assert.Nil(t, doc.ConceptList.Concepts[0].UnitDescription)
	assert.Nil(t, doc.ConceptList.Concepts[0].Discount)
}

func TestParser_EmptyOptionalAttributeIsPresent(t *testing.T) {
	content := strings.Replace(minimalXML, `TipoDeComprobante="I"`, `TipoDeComprobante="I" FormaPago=""`, 1)

	doc, err := parse(t, content)
	require.NoError(t, err)

	require.NotNil(t, doc.PaymentMethod)
	assert.Equal(t, "", *doc.PaymentMethod)
}

func TestParser_ZeroTotalsArePreserved(t *testing.T) {
	content := strings.Replace(minimalXML, `Total="100.00" SubTotal="100.00"`, `Total="0" SubTotal="0.00"`, 1)

	doc, err := parse(t, content)
	require.NoError(t, err)

	assert.True(t, doc.Total.IsZero())
	assert.True(t, doc.SubTotal.IsZero())
}

func TestParser_UnitValueKeptAsText(t *testing.T) {
	content := strings.Replace(minimalXML, `ValorUnitario="100.00"`, `ValorUnitario="10.500"`, 1)

	doc, err := parse(t, content)
	require.NoError(t, err)

	require.Len(t, doc.ConceptList.Concepts, 1)
	assert.Equal(t, "10.500", doc.ConceptList.Concepts[0].UnitValue)
	assert.NotEqual(t, "10.5", doc.ConceptList.Concepts[0].UnitValue)
}

func TestParser_UnitValueNotNumericStillParses(t *testing.T) {
	content := strings.Replace(minimalXML, `ValorUnitario="100.00"`, `ValorUnitario="cien"`, 1)

	doc, err := parse(t, content)
	require.NoError(t, err)
	assert.Equal(t, "cien", doc.ConceptList.Concepts[0].UnitValue)
}

func TestParser_DocumentDiscountKeptAsText(t *testing.T) {
	content := strings.Replace(minimalXML, `TipoDeComprobante="I"`, `TipoDeComprobante="I" Descuento="no aplica"`, 1)

	doc, err := parse(t, content)
	require.NoError(t, err)

	require.NotNil(t, doc.Discount)
	assert.Equal(t, "no aplica", *doc.Discount)
}

func TestParser_ConceptOrderPreserved(t *testing.T) {
	concepts := `<cfdi:Conceptos>
    <cfdi:Concepto ClaveProdServ="A" Cantidad="1" ClaveUnidad="H87" Descripcion="first" ValorUnitario="1" Importe="1"/>
    <cfdi:Concepto ClaveProdServ="B" Cantidad="2" ClaveUnidad="H87" Descripcion="second" ValorUnitario="2" Importe="4"/>
    <cfdi:Concepto ClaveProdServ="C" Cantidad="3" ClaveUnidad="H87" Descripcion="third" ValorUnitario="3" Importe="9"/>
  </cfdi:Conceptos>`
	start := strings.Index(minimalXML, "<cfdi:Conceptos>")
	end := strings.Index(minimalXML, "</cfdi:Conceptos>") + len("</cfdi:Conceptos>")
	content := minimalXML[:start] + concepts + minimalXML[end:]

	doc, err := parse(t, content)
	require.NoError(t, err)

	got := doc.Concepts()
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].ProductServiceCode)
	assert.Equal(t, "B", got[1].ProductServiceCode)
	assert.Equal(t, "C", got[2].ProductServiceCode)

	summary := doc.Summary()
	require.Len(t, summary.Concepts, 3)
	assert.Equal(t, got, summary.Concepts)
}

func TestParser_SingleConceptIsSequence(t *testing.T) {
	doc, err := parse(t, minimalXML)
	require.NoError(t, err)

	require.Len(t, doc.ConceptList.Concepts, 1)
	assert.Equal(t, "01010101", doc.ConceptList.Concepts[0].ProductServiceCode)
}

func TestParser_EmptyConceptListAllowed(t *testing.T) {
	start := strings.Index(minimalXML, "<cfdi:Concepto ")
	end := strings.Index(minimalXML, "</cfdi:Conceptos>")
	content := minimalXML[:start] + minimalXML[end:]

	doc, err := parse(t, content)
	require.NoError(t, err)
	assert.Empty(t, doc.Concepts())
}

func TestParser_NamespaceInsensitive(t *testing.T) {
	unprefixed := strings.ReplaceAll(minimalXML, "cfdi:", "")
	unprefixed = strings.Replace(unprefixed, `xmlns:cfdi=`, `xmlns=`, 1)

	withPrefix, err := parse(t, minimalXML)
	require.NoError(t, err)

	withoutPrefix, err := parse(t, unprefixed)
	require.NoError(t, err)

	assert.Equal(t, withPrefix, withoutPrefix)
}

func TestParser_UnknownContentIgnored(t *testing.T) {
	extra := `<cfdi:InformacionGlobal Periodicidad="01" Meses="01" Año="2024"/>
  <cfdi:CfdiRelacionados TipoRelacion="04"><cfdi:CfdiRelacionado UUID="5FB2822E-396D-4725-8521-CDC4BDD20CCF"/></cfdi:CfdiRelacionados>
  <cfdi:Emisor`
	withExtra := strings.Replace(minimalXML, "<cfdi:Emisor", extra, 1)
	withExtra = strings.Replace(withExtra, `TipoDeComprobante="I"`, `TipoDeComprobante="I" Exportacion="01" Moneda="MXN"`, 1)

	plain, err := parse(t, minimalXML)
	require.NoError(t, err)

	extended, err := parse(t, withExtra)
	require.NoError(t, err)

	assert.Equal(t, plain, extended)
}

func TestParser_ComplementWithoutStamp(t *testing.T) {
	content := strings.Replace(minimalXML, "</cfdi:Comprobante>",
		`<cfdi:Complemento><pago20:Pagos xmlns:pago20="http://www.sat.gob.mx/Pagos20" Version="2.0"/></cfdi:Complemento></cfdi:Comprobante>`, 1)

	doc, err := parse(t, content)
	require.NoError(t, err)

	require.NotNil(t, doc.Supplement)
	assert.Nil(t, doc.Supplement.FiscalStamp)

	_, ok := doc.UUID()
	assert.False(t, ok)
	_, ok = doc.StampDate()
	assert.False(t, ok)
}

func TestParser_StampAfterOtherComplement(t *testing.T) {
	content := strings.Replace(minimalXML, "</cfdi:Comprobante>",
		`<cfdi:Complemento>
    <pago20:Pagos xmlns:pago20="http://www.sat.gob.mx/Pagos20" Version="2.0"/>
    <tfd:TimbreFiscalDigital xmlns:tfd="http://www.sat.gob.mx/TimbreFiscalDigital" Version="1.1" UUID="AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE" FechaTimbrado="2024-01-01T12:01:00" NoCertificadoSAT="30001000000500003456"/>
  </cfdi:Complemento>
</cfdi:Comprobante>`, 1)

	doc, err := parse(t, content)
	require.NoError(t, err)

	uuid, ok := doc.UUID()
	require.True(t, ok)
	assert.Equal(t, "AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE", uuid)
}

func TestParser_MissingRequiredField(t *testing.T) {
	stamped := strings.Replace(minimalXML, "</cfdi:Comprobante>",
		`<cfdi:Complemento><tfd:TimbreFiscalDigital xmlns:tfd="http://www.sat.gob.mx/TimbreFiscalDigital" Version="1.1" UUID="X" FechaTimbrado="2024-01-01T12:01:00" NoCertificadoSAT="1"/></cfdi:Complemento></cfdi:Comprobante>`, 1)

	tests := []struct {
		name       string
		content    string
		wantEntity string
		wantField  string
	}{
		{
			name:       "Comprobante without Total",
			content:    strings.Replace(minimalXML, `Total="100.00" `, "", 1),
			wantEntity: "Document",
			wantField:  "Total",
		},
		{
			name:       "Comprobante without SubTotal",
			content:    strings.Replace(minimalXML, `SubTotal="100.00" `, "", 1),
			wantEntity: "Document",
			wantField:  "SubTotal",
		},
		{
			name:       "Comprobante without Fecha",
			content:    strings.Replace(minimalXML, `Fecha="2024-01-01T12:00:00" `, "", 1),
			wantEntity: "Document",
			wantField:  "Fecha",
		},
		{
			name:       "Comprobante without TipoDeComprobante",
			content:    strings.Replace(minimalXML, ` TipoDeComprobante="I"`, "", 1),
			wantEntity: "Document",
			wantField:  "TipoDeComprobante",
		},
		{
			name:       "Concepto without Importe",
			content:    strings.Replace(minimalXML, ` Importe="100.00"`, "", 1),
			wantEntity: "Concept[0]",
			wantField:  "Importe",
		},
		{
			name:       "Concepto without ValorUnitario",
			content:    strings.Replace(minimalXML, ` ValorUnitario="100.00"`, "", 1),
			wantEntity: "Concept[0]",
			wantField:  "ValorUnitario",
		},
		{
			name:       "Receptor without RegimenFiscalReceptor",
			content:    strings.Replace(minimalXML, ` RegimenFiscalReceptor="616"`, ` RegimenFiscal="616"`, 1),
			wantEntity: "Recipient",
			wantField:  "RegimenFiscalReceptor",
		},
		{
			name:       "Emisor without Rfc",
			content:    strings.Replace(minimalXML, `<cfdi:Emisor Rfc="EKU9003173C9" `, `<cfdi:Emisor `, 1),
			wantEntity: "Issuer",
			wantField:  "Rfc",
		},
		{
			name: "missing Emisor element",
			content: strings.Replace(minimalXML,
				`<cfdi:Emisor Rfc="EKU9003173C9" Nombre="ESCUELA KEMPER URGATE" RegimenFiscal="601"/>`, "", 1),
			wantEntity: "Document",
			wantField:  "Emisor",
		},
		{
			name: "missing Conceptos element",
			content: minimalXML[:strings.Index(minimalXML, "<cfdi:Conceptos>")] +
				minimalXML[strings.Index(minimalXML, "</cfdi:Conceptos>")+len("</cfdi:Conceptos>"):],
			wantEntity: "Document",
			wantField:  "Conceptos",
		},
		{
			name:       "TimbreFiscalDigital without UUID",
			content:    strings.Replace(stamped, ` UUID="X"`, "", 1),
			wantEntity: "FiscalStamp",
			wantField:  "UUID",
		},
		{
			name:       "wrong root element",
			content:    `<Invoice Total="1"/>`,
			wantEntity: "Document",
			wantField:  "Comprobante",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parse(t, tt.content)
			require.Error(t, err)
			assert.Nil(t, doc)

			var parseErr *model.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, model.KindMissingField, parseErr.Kind)
			assert.Equal(t, tt.wantEntity, parseErr.Entity)
			assert.Equal(t, tt.wantField, parseErr.Field)
			assert.ErrorIs(t, err, model.ErrMissingField)
		})
	}
}

func TestParser_TypeMismatch(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantField string
	}{
		{"non-numeric Total", strings.Replace(minimalXML, `Total="100.00"`, `Total="cien"`, 1), "Total"},
		{"empty SubTotal", strings.Replace(minimalXML, `SubTotal="100.00"`, `SubTotal=""`, 1), "SubTotal"},
		{"thousands separator in Importe", strings.Replace(minimalXML, `Importe="100.00"`, `Importe="1,000.00"`, 1), "Importe"},
		{"non-numeric Cantidad", strings.Replace(minimalXML, `Cantidad="1"`, `Cantidad="uno"`, 1), "Cantidad"},
		{"infinite Total", strings.Replace(minimalXML, `Total="100.00"`, `Total="inf"`, 1), "Total"},
		{"NaN SubTotal", strings.Replace(minimalXML, `SubTotal="100.00"`, `SubTotal="NaN"`, 1), "SubTotal"},
		{"non-numeric concept Descuento", strings.Replace(minimalXML, `Importe="100.00"`, `Importe="100.00" Descuento="n/a"`, 1), "Descuento"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parse(t, tt.content)
			require.Error(t, err)
			assert.Nil(t, doc)

			var parseErr *model.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, model.KindTypeMismatch, parseErr.Kind)
			assert.Equal(t, tt.wantField, parseErr.Field)
			assert.NotNil(t, errors.Unwrap(err))
			assert.True(t, model.IsKind(err, model.KindTypeMismatch))
		})
	}
}

func TestParser_MalformedXML(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"plain text", "not xml"},
		{"empty input", ""},
		{"unclosed root", `<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" Total="1">`},
		{"mismatched tags", `<Comprobante><Emisor></Receptor></Comprobante>`},
		{"truncated document", minimalXML[:len(minimalXML)/2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parse(t, tt.content)
			require.Error(t, err)
			assert.Nil(t, doc)

			assert.True(t, model.IsKind(err, model.KindMalformedXML), "got %v", err)
			assert.ErrorIs(t, err, model.ErrMalformedXML)
		})
	}
}

func TestParser_Parse_Reader(t *testing.T) {
	doc, err := xmlparser.NewParser().Parse(context.Background(), bytes.NewReader([]byte(minimalXML)))
	require.NoError(t, err)
	assert.Equal(t, "EKU9003173C9", doc.Issuer.TaxID)
}

func TestParser_DeclaredLatin1(t *testing.T) {
	header := `<?xml version="1.0" encoding="ISO-8859-1"?>`
	body := strings.TrimPrefix(minimalXML, `<?xml version="1.0" encoding="UTF-8"?>`)
	body = strings.Replace(body, `Nombre="PUBLICO EN GENERAL"`, "Nombre=\"NI\xD1O\"", 1)

	doc, err := parse(t, header+body)
	require.NoError(t, err)
	assert.Equal(t, "NIÑO", doc.Recipient.LegalName)
}

func TestParser_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := xmlparser.NewParser().ParseString(ctx, minimalXML)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParser_CanParse(t *testing.T) {
	parser := xmlparser.NewParser()

	assert.True(t, parser.CanParse([]byte(minimalXML)))
	assert.True(t, parser.CanParse(readTestFile(t, "stamped_invoice.xml")))
	assert.False(t, parser.CanParse([]byte(`<Invoice><TaxID>123</TaxID></Invoice>`)))
	assert.False(t, parser.CanParse([]byte("not xml")))
}

func TestParser_ConcurrentUse(t *testing.T) {
	parser := xmlparser.NewParser()
	content := readTestFile(t, "stamped_invoice.xml")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := parser.ParseBytes(context.Background(), content)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
