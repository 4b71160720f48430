// Package sunat implementa la generación del XML UBL 2.1 de la factura electrónica
// SUNAT (Perú) y su empaquetado para el envío.
package sunat

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturador-api/internal/domain/entity"
)

// InvoiceBuildContext contexto con todos los datos necesarios para construir el XML de la factura.
type InvoiceBuildContext struct {
	Company  *entity.Company  // Emisor (AccountingSupplierParty)
	Customer *entity.Customer // Adquiriente (AccountingCustomerParty)
	Invoice  *entity.Invoice

	// TaxRate tasa del IGV (0.18). Se recibe explícita; el builder no la deduce.
	TaxRate decimal.Decimal
}
