package sunat

import (
	"strings"
	"time"

	"github.com/jhoicas/Facturador-api/internal/domain/entity"
	"github.com/jhoicas/Facturador-api/pkg/sunat"
)

// QRSummary cadena que se imprime como código QR en la representación impresa:
//
//	RUC|TIPO|SERIE|NUMERO|IGV|TOTAL|FECHA|TIPODOC ADQ|NUMDOC ADQ|DIGEST|
//
// DIGEST es el DigestValue de la firma del XML.
func QRSummary(company *entity.Company, customer *entity.Customer, invoice *entity.Invoice, totals Totals, digest string) string {
	fields := []string{
		company.RUC,
		sunat.DocumentTypeFactura,
		invoice.Series,
		invoice.Number,
		totals.Tax.StringFixed(MoneyScale),
		invoice.GrandTotal.Round(MoneyScale).StringFixed(MoneyScale),
		invoice.LocalIssueDate().Format(time.DateOnly),
		customer.DocumentTypeCode,
		customer.DocumentNumber,
		digest,
	}
	return strings.Join(fields, "|") + "|"
}
