package sunat

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/Facturador-api/internal/domain/entity"
	domsunat "github.com/jhoicas/Facturador-api/internal/domain/sunat"
	"github.com/jhoicas/Facturador-api/pkg/sunat"
)

// Namespaces oficiales UBL 2.1 usados por SUNAT.
const (
	// Namespace por defecto (UBL Invoice)
	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	// Common Aggregate Components
	NsCac = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	// Common Basic Components
	NsCbc = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	// Extension Components
	NsExt = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
)

const (
	ublVersionID    = "2.1"
	customizationID = "2.0"

	// XMLHeader declaración que precede al documento serializado.
	XMLHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

	// maxQuantityScale decimales máximos de cbc:InvoicedQuantity.
	maxQuantityScale = 10
)

var hundred = decimal.NewFromInt(100)

// XMLBuilderService construye el XML UBL 2.1 de la factura (sin firma).
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el documento Invoice UBL 2.1 serializado sin indentación, con los
// prefijos cac, cbc y ext declarados una sola vez en la raíz.
// Es una función pura: mismas entradas, mismos bytes.
func (s *XMLBuilderService) Build(ctx *InvoiceBuildContext) ([]byte, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: contexto vacío", sunat.ErrInvalidInvoice)
	}
	if err := domsunat.ValidateInvoice(ctx.Company, ctx.Customer, ctx.Invoice); err != nil {
		return nil, err
	}
	if !ctx.TaxRate.IsPositive() {
		return nil, fmt.Errorf("%w: tasa de IGV %s inválida", sunat.ErrInvalidInvoice, ctx.TaxRate)
	}
	number, err := domsunat.NormalizeNumber(ctx.Invoice.Number)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sunat.ErrInvalidInvoice, err)
	}

	inv := ctx.Invoice
	inputs := make([]domsunat.LineInput, len(inv.Lines))
	for i, l := range inv.Lines {
		inputs[i] = domsunat.LineInput{UnitPriceIncTax: l.UnitPrice, LineTotalIncTax: l.LineTotal}
	}
	totals := domsunat.DecomposeInvoice(inv.GrandTotal, inputs, ctx.TaxRate)

	doc := etree.NewDocument()
	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", NsInvoice)
	root.CreateAttr("xmlns:cac", NsCac)
	root.CreateAttr("xmlns:cbc", NsCbc)
	root.CreateAttr("xmlns:ext", NsExt)

	// ext:UBLExtensions siempre como primer hijo: el firmador inyecta ds:Signature
	// en el único ext:ExtensionContent vacío.
	root.CreateElement("ext:UBLExtensions").
		CreateElement("ext:UBLExtension").
		CreateElement("ext:ExtensionContent")

	cbc(root, "UBLVersionID", ublVersionID)
	cbc(root, "CustomizationID", customizationID)
	cbc(root, "ID", inv.Series+"-"+number)
	issued := inv.LocalIssueDate()
	cbc(root, "IssueDate", issued.Format(time.DateOnly))
	cbc(root, "IssueTime", issued.Format(time.TimeOnly))
	typeCode := cbc(root, "InvoiceTypeCode", sunat.DocumentTypeFactura)
	typeCode.CreateAttr("listID", sunat.OperationTypeVentaInterna)
	cbc(root, "DocumentCurrencyCode", inv.CurrencyCode)
	cbc(root, "LineCountNumeric", strconv.Itoa(len(inv.Lines)))

	s.writeSignatureReference(root, ctx.Company)
	s.writeSupplierParty(root, ctx.Company)
	s.writeCustomerParty(root, ctx.Customer)
	s.writeTaxTotal(root, inv.CurrencyCode, totals.Taxable, totals.Tax, "", "")
	s.writeLegalMonetaryTotal(root, inv, totals)

	percent := ctx.TaxRate.Mul(hundred).StringFixed(domsunat.MoneyScale)
	for i, line := range inv.Lines {
		s.writeInvoiceLine(root, i+1, inv.CurrencyCode, percent, line, totals.Lines[i])
	}

	// Etiquetas de cierre explícitas y escapado canónico: los mismos bytes que
	// luego relee el firmador.
	doc.WriteSettings = etree.WriteSettings{
		CanonicalEndTags: true,
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	var out bytes.Buffer
	out.WriteString(XMLHeader)
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("sunat: serializar XML: %w", err)
	}
	return out.Bytes(), nil
}

// writeSignatureReference cac:Signature: referencia a la firma que luego se
// inyecta en ext:ExtensionContent (URI #SignatureSP).
func (s *XMLBuilderService) writeSignatureReference(root *etree.Element, company *entity.Company) {
	sig := root.CreateElement("cac:Signature")
	cbc(sig, "ID", sunat.SignatureID)
	party := sig.CreateElement("cac:SignatoryParty")
	cbc(party.CreateElement("cac:PartyIdentification"), "ID", company.RUC)
	cbc(party.CreateElement("cac:PartyName"), "Name", company.LegalName)
	ref := sig.CreateElement("cac:DigitalSignatureAttachment").CreateElement("cac:ExternalReference")
	cbc(ref, "URI", "#"+sunat.SignatureID)
}

func (s *XMLBuilderService) writeSupplierParty(root *etree.Element, company *entity.Company) {
	party := root.CreateElement("cac:AccountingSupplierParty").CreateElement("cac:Party")

	// Identificación fiscal (RUC, catálogo 06 = 6)
	id := cbc(party.CreateElement("cac:PartyIdentification"), "ID", company.RUC)
	id.CreateAttr("schemeID", sunat.IdentityTypeRUC)

	if name := company.TradeName; strings.TrimSpace(name) != "" {
		cbc(party.CreateElement("cac:PartyName"), "Name", name)
	}

	legal := party.CreateElement("cac:PartyLegalEntity")
	cbc(legal, "RegistrationName", company.LegalName)
	addressCode := company.AddressTypeCode
	if addressCode == "" {
		addressCode = sunat.AddressTypeCodeDefault
	}
	cbc(legal.CreateElement("cac:RegistrationAddress"), "AddressTypeCode", addressCode)
}

func (s *XMLBuilderService) writeCustomerParty(root *etree.Element, customer *entity.Customer) {
	party := root.CreateElement("cac:AccountingCustomerParty").CreateElement("cac:Party")

	id := cbc(party.CreateElement("cac:PartyIdentification"), "ID", customer.DocumentNumber)
	id.CreateAttr("schemeID", customer.DocumentTypeCode)

	legal := party.CreateElement("cac:PartyLegalEntity")
	cbc(legal, "RegistrationName", customer.Name)
	if strings.TrimSpace(customer.Address) != "" {
		line := legal.CreateElement("cac:RegistrationAddress").CreateElement("cac:AddressLine")
		cbc(line, "Line", customer.Address)
	}
}

// writeTaxTotal escribe cac:TaxTotal con un único cac:TaxSubtotal de IGV.
// percent y affectation sólo se informan a nivel de línea.
func (s *XMLBuilderService) writeTaxTotal(parent *etree.Element, currency string, taxable, tax decimal.Decimal, percent, affectation string) {
	total := parent.CreateElement("cac:TaxTotal")
	cbcAmount(total, "TaxAmount", tax, currency)

	sub := total.CreateElement("cac:TaxSubtotal")
	cbcAmount(sub, "TaxableAmount", taxable, currency)
	cbcAmount(sub, "TaxAmount", tax, currency)

	category := sub.CreateElement("cac:TaxCategory")
	if percent != "" {
		cbc(category, "Percent", percent)
	}
	if affectation != "" {
		cbc(category, "TaxExemptionReasonCode", affectation)
	}
	scheme := category.CreateElement("cac:TaxScheme")
	cbc(scheme, "ID", sunat.TaxSchemeIGVID)
	cbc(scheme, "Name", sunat.TaxSchemeIGVName)
	cbc(scheme, "TaxTypeCode", sunat.TaxSchemeIGVCode)
}

func (s *XMLBuilderService) writeLegalMonetaryTotal(root *etree.Element, inv *entity.Invoice, totals domsunat.Totals) {
	lmt := root.CreateElement("cac:LegalMonetaryTotal")
	cbcAmount(lmt, "LineExtensionAmount", totals.Taxable, inv.CurrencyCode)
	cbcAmount(lmt, "TaxInclusiveAmount", inv.GrandTotal, inv.CurrencyCode)
	cbcAmount(lmt, "PayableAmount", inv.GrandTotal, inv.CurrencyCode)
}

func (s *XMLBuilderService) writeInvoiceLine(root *etree.Element, lineNum int, currency, percent string, line entity.InvoiceLine, amounts domsunat.LineAmounts) {
	unitCode := line.UnitCode
	if unitCode == "" {
		unitCode = sunat.UnitNIU
	}
	el := root.CreateElement("cac:InvoiceLine")
	cbc(el, "ID", strconv.Itoa(lineNum))
	qty := cbc(el, "InvoicedQuantity", formatQuantity(line.Quantity))
	qty.CreateAttr("unitCode", unitCode)
	cbcAmount(el, "LineExtensionAmount", amounts.LineExTax, currency)

	// Precio unitario con IGV (catálogo 16 = 01)
	alt := el.CreateElement("cac:PricingReference").CreateElement("cac:AlternativeConditionPrice")
	cbcAmount(alt, "PriceAmount", line.UnitPrice, currency)
	cbc(alt, "PriceTypeCode", sunat.PriceTypeIncludesTax)

	s.writeTaxTotal(el, currency, amounts.LineExTax, amounts.LineTax, percent, sunat.AffectationGravadoOneroso)

	item := el.CreateElement("cac:Item")
	cbc(item, "Description", line.Description)
	if strings.TrimSpace(line.ProductCode) != "" {
		cbc(item.CreateElement("cac:SellersItemIdentification"), "ID", line.ProductCode)
	}

	// Valor unitario sin IGV
	cbcAmount(el.CreateElement("cac:Price"), "PriceAmount", amounts.UnitValue, currency)
}

func cbc(parent *etree.Element, local, value string) *etree.Element {
	el := parent.CreateElement("cbc:" + local)
	el.SetText(sanitizeText(value))
	return el
}

func cbcAmount(parent *etree.Element, local string, amount decimal.Decimal, currency string) *etree.Element {
	el := cbc(parent, local, formatAmount(amount))
	el.CreateAttr("currencyID", currency)
	return el
}

// formatAmount punto fijo con exactamente 2 decimales, nunca notación científica.
func formatAmount(d decimal.Decimal) string {
	return d.Round(domsunat.MoneyScale).StringFixed(domsunat.MoneyScale)
}

// formatQuantity 2 decimales salvo que la cantidad traiga más (hasta 10).
func formatQuantity(q decimal.Decimal) string {
	scale := -q.Exponent()
	switch {
	case scale <= domsunat.MoneyScale:
		return q.StringFixed(domsunat.MoneyScale)
	case scale > maxQuantityScale:
		return q.Round(maxQuantityScale).StringFixed(maxQuantityScale)
	default:
		return q.StringFixed(scale)
	}
}

// sanitizeText normaliza a NFC y elimina caracteres que XML 1.0 no admite.
// El escape de &, < y > lo hace el serializador.
func sanitizeText(s string) string {
	s = norm.NFC.String(strings.ToValidUTF8(s, ""))
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20, r == 0xFFFE, r == 0xFFFF:
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
