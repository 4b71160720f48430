package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceXMLRequest body para POST /api/invoices/xml.
// Los importes incluyen el IGV; el servicio deriva base e impuesto.
type InvoiceXMLRequest struct {
	Series     string               `json:"series"`               // F001
	Number     string               `json:"number"`               // correlativo; se rellena a 8 dígitos
	IssueDate  time.Time            `json:"issue_date,omitempty"` // RFC3339; vacío = ahora (hora de Lima)
	Currency   string               `json:"currency"`             // PEN | USD
	GrandTotal decimal.Decimal      `json:"grand_total"`
	Customer   CustomerRequest      `json:"customer"`
	Items      []InvoiceItemRequest `json:"items"`
}

// CustomerRequest adquiriente de la factura.
type CustomerRequest struct {
	DocumentType   string `json:"document_type"` // catálogo 06: 1=DNI, 6=RUC, ...
	DocumentNumber string `json:"document_number"`
	Name           string `json:"name"`
	Address        string `json:"address,omitempty"`
}

// InvoiceItemRequest línea de factura con precio y total con IGV.
type InvoiceItemRequest struct {
	ProductCode string          `json:"product_code,omitempty"`
	Description string          `json:"description"`
	UnitCode    string          `json:"unit_code,omitempty"` // catálogo 03; vacío = NIU
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// VerificationResponse resultado de POST /api/invoices/verify.
type VerificationResponse struct {
	Valid        bool       `json:"valid"`
	DigestValue  string     `json:"digest_value,omitempty"`
	Subject      string     `json:"subject,omitempty"`
	SerialNumber string     `json:"serial_number,omitempty"`
	NotBefore    *time.Time `json:"not_before,omitempty"`
	NotAfter     *time.Time `json:"not_after,omitempty"`
	Error        string     `json:"error,omitempty"`
}
