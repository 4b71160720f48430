package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturador-api/pkg/sunat"
)

// Invoice representa la cabecera de una factura electrónica lista para construir el XML.
// Todos los montos incluyen IGV; la base imponible y el impuesto se derivan al construir.
type Invoice struct {
	Series       string // serie autorizada, ej: F001
	Number       string // correlativo con ceros a la izquierda (8 dígitos)
	IssueDate    time.Time
	CurrencyCode string // PEN | USD
	GrandTotal   decimal.Decimal
	Lines        []InvoiceLine
}

// DocumentID devuelve el identificador SERIE-NUMERO usado en cbc:ID.
func (i *Invoice) DocumentID() string {
	return i.Series + "-" + i.Number
}

// LocalIssueDate fecha de emisión en hora de Lima, que es la que se informa a SUNAT
// aunque el llamador la envíe en otra zona.
func (i *Invoice) LocalIssueDate() time.Time {
	return i.IssueDate.In(sunat.Lima)
}

// InvoiceLine línea de factura. UnitPrice y LineTotal incluyen IGV;
// LineTotal ya viene redondeado (cantidad × precio) desde la venta.
type InvoiceLine struct {
	ProductCode string // código interno del producto (SellersItemIdentification)
	Description string
	UnitCode    string // catálogo 03; vacío = NIU
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}
