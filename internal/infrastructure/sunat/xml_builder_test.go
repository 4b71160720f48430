package sunat_test

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/Facturador-api/internal/domain/entity"
	infsunat "github.com/jhoicas/Facturador-api/internal/infrastructure/sunat"
	"github.com/jhoicas/Facturador-api/pkg/sunat"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Contexto de referencia: 2 × 7.00 + 1 × 8.50 = 22.50 con IGV incluido.
// ──────────────────────────────────────────────────────────────────────────────
func buildContext() *infsunat.InvoiceBuildContext {
	return &infsunat.InvoiceBuildContext{
		Company: &entity.Company{
			RUC:       "20100066603",
			LegalName: "COMERCIAL ANDINA S.A.C.",
			TradeName: "ANDINA",
		},
		Customer: &entity.Customer{
			DocumentTypeCode: sunat.IdentityTypeDNI,
			DocumentNumber:   "45678912",
			Name:             "María Quispe",
		},
		Invoice: &entity.Invoice{
			Series:       "F001",
			Number:       "123",
			IssueDate:    time.Date(2024, 3, 15, 10, 30, 0, 0, sunat.Lima),
			CurrencyCode: sunat.CurrencyPEN,
			GrandTotal:   d("22.50"),
			Lines: []entity.InvoiceLine{
				{ProductCode: "P-001", Description: "Galletas de soda", UnitCode: sunat.UnitNIU, Quantity: d("2"), UnitPrice: d("7.00"), LineTotal: d("14.00")},
				{ProductCode: "P-002", Description: "Leche evaporada", Quantity: d("1"), UnitPrice: d("8.50"), LineTotal: d("8.50")},
			},
		},
		TaxRate: sunat.IGVRateDecimal(),
	}
}

func buildDoc(t *testing.T, ctx *infsunat.InvoiceBuildContext) ([]byte, *etree.Element) {
	t.Helper()
	out, err := infsunat.NewXMLBuilderService().Build(ctx)
	require.NoError(t, err)
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out), "el XML generado debe ser bien formado")
	require.NotNil(t, doc.Root())
	return out, doc.Root()
}

func text(t *testing.T, root *etree.Element, path string) string {
	t.Helper()
	el := root.FindElement(path)
	require.NotNil(t, el, "no se encontró %s", path)
	return el.Text()
}

func TestBuild_EstructuraYTotales(t *testing.T) {
	out, root := buildDoc(t, buildContext())

	assert.True(t, bytes.HasPrefix(out, []byte(infsunat.XMLHeader)))
	assert.Equal(t, "Invoice", root.Tag)
	assert.Equal(t, infsunat.NsInvoice, root.NamespaceURI())

	assert.Equal(t, "2.1", text(t, root, "./cbc:UBLVersionID"))
	assert.Equal(t, "2.0", text(t, root, "./cbc:CustomizationID"))
	assert.Equal(t, "F001-00000123", text(t, root, "./cbc:ID"))
	assert.Equal(t, "2024-03-15", text(t, root, "./cbc:IssueDate"))
	assert.Equal(t, "10:30:00", text(t, root, "./cbc:IssueTime"))
	assert.Equal(t, "01", text(t, root, "./cbc:InvoiceTypeCode"))
	assert.Equal(t, "0101", root.FindElement("./cbc:InvoiceTypeCode").SelectAttrValue("listID", ""))
	assert.Equal(t, "PEN", text(t, root, "./cbc:DocumentCurrencyCode"))
	assert.Equal(t, "2", text(t, root, "./cbc:LineCountNumeric"))

	// Primer hijo: ext:UBLExtensions
	require.NotEmpty(t, root.ChildElements())
	assert.Equal(t, "UBLExtensions", root.ChildElements()[0].Tag)

	supplierID := root.FindElement("./cac:AccountingSupplierParty/cac:Party/cac:PartyIdentification/cbc:ID")
	require.NotNil(t, supplierID)
	assert.Equal(t, "20100066603", supplierID.Text())
	assert.Equal(t, "6", supplierID.SelectAttrValue("schemeID", ""))
	assert.Equal(t, "0000", text(t, root, "./cac:AccountingSupplierParty/cac:Party/cac:PartyLegalEntity/cac:RegistrationAddress/cbc:AddressTypeCode"))

	customerID := root.FindElement("./cac:AccountingCustomerParty/cac:Party/cac:PartyIdentification/cbc:ID")
	require.NotNil(t, customerID)
	assert.Equal(t, "1", customerID.SelectAttrValue("schemeID", ""))
	assert.Equal(t, "María Quispe", text(t, root, "./cac:AccountingCustomerParty/cac:Party/cac:PartyLegalEntity/cbc:RegistrationName"))

	assert.Equal(t, "SignatureSP", text(t, root, "./cac:Signature/cbc:ID"))
	assert.Equal(t, "#SignatureSP", text(t, root, "./cac:Signature/cac:DigitalSignatureAttachment/cac:ExternalReference/cbc:URI"))

	// Totales desde el gran total, no desde la suma de líneas.
	assert.Equal(t, "3.43", text(t, root, "./cac:TaxTotal/cbc:TaxAmount"))
	assert.Equal(t, "19.07", text(t, root, "./cac:TaxTotal/cac:TaxSubtotal/cbc:TaxableAmount"))
	assert.Equal(t, "1000", text(t, root, "./cac:TaxTotal/cac:TaxSubtotal/cac:TaxCategory/cac:TaxScheme/cbc:ID"))
	assert.Equal(t, "19.07", text(t, root, "./cac:LegalMonetaryTotal/cbc:LineExtensionAmount"))
	assert.Equal(t, "22.50", text(t, root, "./cac:LegalMonetaryTotal/cbc:TaxInclusiveAmount"))
	assert.Equal(t, "22.50", text(t, root, "./cac:LegalMonetaryTotal/cbc:PayableAmount"))

	lines := root.SelectElements("InvoiceLine")
	require.Len(t, lines, 2)

	assert.Equal(t, "1", text(t, lines[0], "./cbc:ID"))
	assert.Equal(t, "2.00", text(t, lines[0], "./cbc:InvoicedQuantity"))
	assert.Equal(t, "NIU", lines[0].FindElement("./cbc:InvoicedQuantity").SelectAttrValue("unitCode", ""))
	assert.Equal(t, "11.86", text(t, lines[0], "./cbc:LineExtensionAmount"))
	assert.Equal(t, "7.00", text(t, lines[0], "./cac:PricingReference/cac:AlternativeConditionPrice/cbc:PriceAmount"))
	assert.Equal(t, "01", text(t, lines[0], "./cac:PricingReference/cac:AlternativeConditionPrice/cbc:PriceTypeCode"))
	assert.Equal(t, "2.14", text(t, lines[0], "./cac:TaxTotal/cbc:TaxAmount"))
	assert.Equal(t, "18.00", text(t, lines[0], "./cac:TaxTotal/cac:TaxSubtotal/cac:TaxCategory/cbc:Percent"))
	assert.Equal(t, "10", text(t, lines[0], "./cac:TaxTotal/cac:TaxSubtotal/cac:TaxCategory/cbc:TaxExemptionReasonCode"))
	assert.Equal(t, "5.93", text(t, lines[0], "./cac:Price/cbc:PriceAmount"))
	assert.Equal(t, "P-001", text(t, lines[0], "./cac:Item/cac:SellersItemIdentification/cbc:ID"))

	assert.Equal(t, "7.20", text(t, lines[1], "./cbc:LineExtensionAmount"))
	assert.Equal(t, "1.30", text(t, lines[1], "./cac:TaxTotal/cbc:TaxAmount"))
	assert.Equal(t, "7.20", text(t, lines[1], "./cac:Price/cbc:PriceAmount"))
}

// Los prefijos se declaran una sola vez, en la raíz.
func TestBuild_NamespacesSoloEnLaRaiz(t *testing.T) {
	out, root := buildDoc(t, buildContext())

	assert.Equal(t, infsunat.NsInvoice, root.SelectAttrValue("xmlns", ""))
	assert.Equal(t, infsunat.NsCac, root.SelectAttrValue("xmlns:cac", ""))
	assert.Equal(t, infsunat.NsCbc, root.SelectAttrValue("xmlns:cbc", ""))
	assert.Equal(t, infsunat.NsExt, root.SelectAttrValue("xmlns:ext", ""))

	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			for _, a := range child.Attr {
				assert.False(t, a.Space == "xmlns" || a.Key == "xmlns", "%s declara %s", child.FullTag(), a.FullKey())
			}
			walk(child)
		}
	}
	walk(root)
	for _, decl := range []string{`xmlns="`, `xmlns:cac="`, `xmlns:cbc="`, `xmlns:ext="`} {
		assert.Equal(t, 1, bytes.Count(out, []byte(decl)), decl)
	}
}

// La forma canónica C14N del documento tiene los mismos elementos, atributos
// y textos; sólo cambia dónde se declaran los namespaces.
func TestBuild_MismoContenidoQueSuFormaCanonica(t *testing.T) {
	out, root := buildDoc(t, buildContext())

	dec := xml.NewDecoder(bytes.NewReader(bytes.TrimPrefix(out, []byte(infsunat.XMLHeader))))
	canonical, err := c14n.Canonicalize(dec)
	require.NoError(t, err)
	require.Greater(t, bytes.Count(canonical, []byte(`xmlns:cbc="`)), 1, "C14N repite la declaración en cada elemento")

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(canonical))
	assertSameContent(t, root, doc.Root())
}

func assertSameContent(t *testing.T, want, got *etree.Element) {
	t.Helper()
	require.Equal(t, want.NamespaceURI()+" "+want.Tag, got.NamespaceURI()+" "+got.Tag)
	assert.Equal(t, want.Text(), got.Text(), want.Tag)
	assert.Equal(t, plainAttrs(want), plainAttrs(got), want.Tag)
	wc, gc := want.ChildElements(), got.ChildElements()
	require.Len(t, gc, len(wc), want.Tag)
	for i := range wc {
		assertSameContent(t, wc[i], gc[i])
	}
}

func plainAttrs(el *etree.Element) map[string]string {
	attrs := map[string]string{}
	for _, a := range el.Attr {
		if a.Space == "xmlns" || a.Key == "xmlns" {
			continue
		}
		attrs[a.FullKey()] = a.Value
	}
	return attrs
}

// Fecha y hora se informan en hora de Lima aunque lleguen en UTC.
func TestBuild_FechaEnHoraDeLima(t *testing.T) {
	ctx := buildContext()
	ctx.Invoice.IssueDate = time.Date(2024, 3, 16, 3, 0, 0, 0, time.UTC)
	_, root := buildDoc(t, ctx)

	assert.Equal(t, "2024-03-15", text(t, root, "./cbc:IssueDate"))
	assert.Equal(t, "22:00:00", text(t, root, "./cbc:IssueTime"))
}

// El firmador busca un único ext:ExtensionContent vacío.
func TestBuild_UnicoSlotDeExtensionVacio(t *testing.T) {
	_, root := buildDoc(t, buildContext())

	var slots []*etree.Element
	for _, el := range root.FindElements("//ExtensionContent") {
		if el.NamespaceURI() == infsunat.NsExt {
			slots = append(slots, el)
		}
	}
	require.Len(t, slots, 1)
	assert.Empty(t, slots[0].ChildElements())
	assert.Empty(t, slots[0].Text())
}

// Todo importe lleva currencyID y exactamente 2 decimales.
func TestBuild_ImportesConDosDecimalesYMoneda(t *testing.T) {
	ctx := buildContext()
	ctx.Invoice.CurrencyCode = sunat.CurrencyUSD
	_, root := buildDoc(t, ctx)

	fixed2 := regexp.MustCompile(`^[0-9]+\.[0-9]{2}$`)
	amounts := 0
	for _, el := range root.FindElements("//*[@currencyID]") {
		amounts++
		assert.Equal(t, "USD", el.SelectAttrValue("currencyID", ""))
		assert.Regexp(t, fixed2, el.Text(), "importe %s", el.Tag)
	}
	// 3 del TaxTotal + 3 del LegalMonetaryTotal + 6 por línea
	assert.Equal(t, 3+3+6*2, amounts)
}

func TestBuild_Determinista(t *testing.T) {
	svc := infsunat.NewXMLBuilderService()
	a, err := svc.Build(buildContext())
	require.NoError(t, err)
	b, err := svc.Build(buildContext())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuild_EscapaTextoLibre(t *testing.T) {
	ctx := buildContext()
	ctx.Invoice.Lines[0].Description = `Tornillos <M8> & "tuercas" ]]>`
	ctx.Customer.Name = "O'Brien & Hijos <SAC>"
	out, root := buildDoc(t, ctx)

	assert.NotContains(t, string(out), "<M8>")
	assert.Equal(t, `Tornillos <M8> & "tuercas" ]]>`, text(t, root.SelectElements("InvoiceLine")[0], "./cac:Item/cbc:Description"))
	assert.Equal(t, "O'Brien & Hijos <SAC>", text(t, root, "./cac:AccountingCustomerParty/cac:Party/cac:PartyLegalEntity/cbc:RegistrationName"))
}

// Texto en NFC y sin caracteres de control ilegales en XML 1.0.
func TestBuild_NormalizaTexto(t *testing.T) {
	ctx := buildContext()
	ctx.Invoice.Lines[1].Description = "Café molido\x07\x00"
	_, root := buildDoc(t, ctx)
	assert.Equal(t, "Café molido", text(t, root.SelectElements("InvoiceLine")[1], "./cac:Item/cbc:Description"))
}

func TestBuild_CantidadConMasDecimales(t *testing.T) {
	ctx := buildContext()
	ctx.Invoice.Lines[1].Quantity = d("1.125")
	ctx.Invoice.Lines[1].UnitCode = sunat.UnitKilogram
	_, root := buildDoc(t, ctx)
	qty := root.SelectElements("InvoiceLine")[1].FindElement("./cbc:InvoicedQuantity")
	require.NotNil(t, qty)
	assert.Equal(t, "1.125", qty.Text())
	assert.Equal(t, "KGM", qty.SelectAttrValue("unitCode", ""))
}

func TestBuild_FallaRapido(t *testing.T) {
	svc := infsunat.NewXMLBuilderService()

	_, err := svc.Build(nil)
	assert.ErrorIs(t, err, sunat.ErrInvalidInvoice)

	ctx := buildContext()
	ctx.Invoice.CurrencyCode = "EUR"
	out, err := svc.Build(ctx)
	assert.ErrorIs(t, err, sunat.ErrInvalidInvoice)
	assert.Nil(t, out)

	ctx = buildContext()
	ctx.Invoice.GrandTotal = d("-22.50")
	_, err = svc.Build(ctx)
	assert.ErrorIs(t, err, sunat.ErrInvalidInvoice)

	ctx = buildContext()
	ctx.Invoice.Lines[0].UnitPrice = d("-7.00")
	_, err = svc.Build(ctx)
	assert.ErrorIs(t, err, sunat.ErrInvalidInvoice)

	ctx = buildContext()
	ctx.TaxRate = decimal.Zero
	_, err = svc.Build(ctx)
	assert.ErrorIs(t, err, sunat.ErrInvalidInvoice)
}

// Total con IGV en cero: base e impuesto 0.00, sin error.
func TestBuild_TotalCero(t *testing.T) {
	ctx := buildContext()
	ctx.Invoice.GrandTotal = decimal.Zero
	ctx.Invoice.Lines = []entity.InvoiceLine{
		{Description: "Muestra gratuita", Quantity: d("1"), UnitPrice: decimal.Zero, LineTotal: decimal.Zero},
	}
	_, root := buildDoc(t, ctx)
	assert.Equal(t, "0.00", text(t, root, "./cac:TaxTotal/cbc:TaxAmount"))
	assert.Equal(t, "0.00", text(t, root, "./cac:LegalMonetaryTotal/cbc:PayableAmount"))
}
