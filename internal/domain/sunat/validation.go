package sunat

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturador-api/internal/domain/entity"
	"github.com/jhoicas/Facturador-api/pkg/sunat"
)

// NumberDigits longitud del correlativo en cbc:ID (SERIE-NNNNNNNN).
const NumberDigits = 8

var (
	seriesPattern = regexp.MustCompile(`^[A-Z0-9]{4}$`)
	numberPattern = regexp.MustCompile(`^[0-9]{1,8}$`)
)

// NormalizeNumber rellena el correlativo con ceros a la izquierda hasta 8 dígitos.
func NormalizeNumber(number string) (string, error) {
	n := strings.TrimSpace(number)
	if !numberPattern.MatchString(n) {
		return "", fmt.Errorf("correlativo %q debe tener entre 1 y %d dígitos", number, NumberDigits)
	}
	return strings.Repeat("0", NumberDigits-len(n)) + n, nil
}

// ValidateInvoice comprueba el contrato de entrada del constructor de XML:
// emisor, adquiriente, serie/correlativo, moneda y montos no negativos.
// No verifica que total de línea = cantidad × precio; eso lo garantiza la venta.
func ValidateInvoice(company *entity.Company, customer *entity.Customer, invoice *entity.Invoice) error {
	if company == nil || customer == nil || invoice == nil {
		return fmt.Errorf("%w: faltan emisor, adquiriente o factura", sunat.ErrInvalidInvoice)
	}
	var errs []error

	if err := sunat.ValidateRUC(company.RUC); err != nil {
		errs = append(errs, fmt.Errorf("emisor: %w", err))
	}
	if strings.TrimSpace(company.LegalName) == "" {
		errs = append(errs, errors.New("emisor: razón social vacía"))
	}

	if !sunat.ValidIdentityTypes[customer.DocumentTypeCode] {
		errs = append(errs, fmt.Errorf("adquiriente: tipo de documento %q no pertenece al catálogo 06", customer.DocumentTypeCode))
	}
	if strings.TrimSpace(customer.DocumentNumber) == "" {
		errs = append(errs, errors.New("adquiriente: número de documento vacío"))
	}
	if strings.TrimSpace(customer.Name) == "" {
		errs = append(errs, errors.New("adquiriente: nombre vacío"))
	}

	if !seriesPattern.MatchString(invoice.Series) {
		errs = append(errs, fmt.Errorf("serie %q debe tener 4 caracteres alfanuméricos en mayúscula", invoice.Series))
	}
	if _, err := NormalizeNumber(invoice.Number); err != nil {
		errs = append(errs, err)
	}
	if invoice.IssueDate.IsZero() {
		errs = append(errs, errors.New("fecha de emisión vacía"))
	}
	if !sunat.SupportedCurrencies[invoice.CurrencyCode] {
		errs = append(errs, fmt.Errorf("moneda %q no soportada (PEN|USD)", invoice.CurrencyCode))
	}
	if invoice.GrandTotal.IsNegative() {
		errs = append(errs, fmt.Errorf("total %s negativo", invoice.GrandTotal))
	}

	if len(invoice.Lines) == 0 {
		errs = append(errs, errors.New("la factura debe tener al menos una línea"))
	}
	for i, l := range invoice.Lines {
		n := i + 1
		if strings.TrimSpace(l.Description) == "" {
			errs = append(errs, fmt.Errorf("línea %d: descripción vacía", n))
		}
		if l.Quantity.IsNegative() {
			errs = append(errs, fmt.Errorf("línea %d: cantidad %s negativa", n, l.Quantity))
		}
		if l.UnitPrice.IsNegative() {
			errs = append(errs, fmt.Errorf("línea %d: precio %s negativo", n, l.UnitPrice))
		}
		if l.LineTotal.IsNegative() {
			errs = append(errs, fmt.Errorf("línea %d: total %s negativo", n, l.LineTotal))
		}
		if l.UnitCode != "" && !sunat.ValidUnitCodes[l.UnitCode] {
			errs = append(errs, fmt.Errorf("línea %d: unidad de medida %q no soportada", n, l.UnitCode))
		}
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{sunat.ErrInvalidInvoice}, errs...)...)
	}
	return nil
}

// LineTotalDrift devuelve |round(cantidad × precio, 2) − total de línea|.
// Un valor distinto de cero indica una venta mal calculada aguas arriba.
func LineTotalDrift(l entity.InvoiceLine) decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Round(MoneyScale).Sub(l.LineTotal).Abs()
}
