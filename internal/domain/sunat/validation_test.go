package sunat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturador-api/internal/domain/entity"
	domsunat "github.com/jhoicas/Facturador-api/internal/domain/sunat"
	"github.com/jhoicas/Facturador-api/pkg/sunat"
)

func validInput() (*entity.Company, *entity.Customer, *entity.Invoice) {
	company := &entity.Company{RUC: "20100066603", LegalName: "COMERCIAL ANDINA S.A.C.", TradeName: "ANDINA"}
	customer := &entity.Customer{DocumentTypeCode: sunat.IdentityTypeDNI, DocumentNumber: "45678912", Name: "María Quispe"}
	invoice := &entity.Invoice{
		Series:       "F001",
		Number:       "00000123",
		IssueDate:    time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		CurrencyCode: sunat.CurrencyPEN,
		GrandTotal:   d("118.00"),
		Lines: []entity.InvoiceLine{
			{ProductCode: "P-001", Description: "Arroz extra 5kg", Quantity: d("1"), UnitPrice: d("118.00"), LineTotal: d("118.00")},
		},
	}
	return company, customer, invoice
}

func TestValidateInvoice_Valida(t *testing.T) {
	company, customer, invoice := validInput()
	assert.NoError(t, domsunat.ValidateInvoice(company, customer, invoice))
}

func TestValidateInvoice_ErrorSiNil(t *testing.T) {
	company, customer, _ := validInput()
	err := domsunat.ValidateInvoice(company, customer, nil)
	assert.ErrorIs(t, err, sunat.ErrInvalidInvoice)
}

func TestValidateInvoice_MonedaNoSoportada(t *testing.T) {
	company, customer, invoice := validInput()
	invoice.CurrencyCode = "EUR"
	err := domsunat.ValidateInvoice(company, customer, invoice)
	require.Error(t, err)
	assert.ErrorIs(t, err, sunat.ErrInvalidInvoice)
	assert.Contains(t, err.Error(), "EUR")
}

func TestValidateInvoice_MontosNegativos(t *testing.T) {
	company, customer, invoice := validInput()
	invoice.GrandTotal = d("-1.00")
	invoice.Lines[0].Quantity = d("-2")
	invoice.Lines[0].UnitPrice = d("-5.00")
	err := domsunat.ValidateInvoice(company, customer, invoice)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "total -1 negativo")
	assert.Contains(t, msg, "cantidad -2 negativa")
	assert.Contains(t, msg, "precio -5 negativo")
}

func TestValidateInvoice_CantidadCeroPermitida(t *testing.T) {
	company, customer, invoice := validInput()
	invoice.GrandTotal = d("0.00")
	invoice.Lines[0].Quantity = d("0")
	invoice.Lines[0].LineTotal = d("0.00")
	assert.NoError(t, domsunat.ValidateInvoice(company, customer, invoice))
}

func TestValidateInvoice_AdquirienteYSerie(t *testing.T) {
	company, customer, invoice := validInput()
	customer.DocumentTypeCode = "9"
	customer.Name = " "
	invoice.Series = "f1"
	invoice.Number = "123456789"
	invoice.Lines = nil
	err := domsunat.ValidateInvoice(company, customer, invoice)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "catálogo 06")
	assert.Contains(t, msg, "nombre vacío")
	assert.Contains(t, msg, "serie")
	assert.Contains(t, msg, "correlativo")
	assert.Contains(t, msg, "al menos una línea")
}

func TestValidateInvoice_RUCEmisorInvalido(t *testing.T) {
	company, customer, invoice := validInput()
	company.RUC = "20100066604"
	err := domsunat.ValidateInvoice(company, customer, invoice)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "emisor")
}

func TestNormalizeNumber(t *testing.T) {
	n, err := domsunat.NormalizeNumber("123")
	require.NoError(t, err)
	assert.Equal(t, "00000123", n)

	n, err = domsunat.NormalizeNumber("00000123")
	require.NoError(t, err)
	assert.Equal(t, "00000123", n)

	_, err = domsunat.NormalizeNumber("12A")
	assert.Error(t, err)
	_, err = domsunat.NormalizeNumber("")
	assert.Error(t, err)
}

func TestLineTotalDrift(t *testing.T) {
	ok := entity.InvoiceLine{Quantity: d("2"), UnitPrice: d("7.00"), LineTotal: d("14.00")}
	assert.True(t, domsunat.LineTotalDrift(ok).IsZero())

	bad := entity.InvoiceLine{Quantity: d("3"), UnitPrice: d("7.00"), LineTotal: d("20.00")}
	assert.Equal(t, "1.00", domsunat.LineTotalDrift(bad).StringFixed(2))
}

func TestQRSummary(t *testing.T) {
	company, customer, invoice := validInput()
	totals := domsunat.DecomposeInvoice(invoice.GrandTotal, []domsunat.LineInput{
		{UnitPriceIncTax: d("118.00"), LineTotalIncTax: d("118.00")},
	}, rate)
	qr := domsunat.QRSummary(company, customer, invoice, totals, "abc=")
	assert.Equal(t, "20100066603|01|F001|00000123|18.00|118.00|2024-03-15|1|45678912|abc=|", qr)
}

// La fecha del QR es la de Lima: 03:00 UTC aún es el día anterior.
func TestQRSummary_FechaEnHoraDeLima(t *testing.T) {
	company, customer, invoice := validInput()
	invoice.IssueDate = time.Date(2024, 3, 16, 3, 0, 0, 0, time.UTC)
	totals := domsunat.DecomposeInvoice(invoice.GrandTotal, nil, rate)

	qr := domsunat.QRSummary(company, customer, invoice, totals, "abc=")
	assert.Contains(t, qr, "|2024-03-15|")
}
