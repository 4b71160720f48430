// Package sunat contiene las reglas de dominio de la factura electrónica SUNAT (Perú):
// descomposición del IGV sobre montos que ya lo incluyen y validación de entrada.
//
// Todo redondeo es "mitad lejos de cero" a 2 decimales y se aplica en cada paso
// (dividir y redondear, restar y redondear). Las sumas por línea NO se fuerzan a
// coincidir con los totales de la factura: la diferencia de céntimos es esperada.
package sunat

import "github.com/shopspring/decimal"

// MoneyScale decimales de todos los importes del comprobante.
const MoneyScale = 2

var one = decimal.NewFromInt(1)

// Breakdown separa un monto con IGV en base imponible e impuesto.
type Breakdown struct {
	Base decimal.Decimal // round(monto / (1 + tasa), 2)
	Tax  decimal.Decimal // round(monto - Base, 2)
}

// SplitInclusive descompone un monto con IGV incluido.
func SplitInclusive(amountIncTax, rate decimal.Decimal) Breakdown {
	base := amountIncTax.Div(one.Add(rate)).Round(MoneyScale)
	return Breakdown{
		Base: base,
		Tax:  amountIncTax.Sub(base).Round(MoneyScale),
	}
}

// LineAmounts importes derivados de una línea.
type LineAmounts struct {
	UnitValue decimal.Decimal // valor unitario sin IGV
	LineExTax decimal.Decimal // valor de venta de la línea (sin IGV)
	LineTax   decimal.Decimal // IGV de la línea
}

// DecomposeLine deriva los importes sin IGV de una línea a partir del precio
// unitario y el total de línea con IGV. El total de línea no se recalcula.
func DecomposeLine(unitPriceIncTax, lineTotalIncTax, rate decimal.Decimal) LineAmounts {
	line := SplitInclusive(lineTotalIncTax, rate)
	return LineAmounts{
		UnitValue: unitPriceIncTax.Div(one.Add(rate)).Round(MoneyScale),
		LineExTax: line.Base,
		LineTax:   line.Tax,
	}
}

// Totals importes agregados de la factura más los de cada línea.
type Totals struct {
	Taxable decimal.Decimal // total valor de venta (base imponible)
	Tax     decimal.Decimal // total IGV
	Lines   []LineAmounts
}

// LineInput precio y total con IGV de una línea.
type LineInput struct {
	UnitPriceIncTax decimal.Decimal
	LineTotalIncTax decimal.Decimal
}

// DecomposeInvoice calcula los totales de la factura desde el gran total (no
// desde la suma de líneas) y cada línea de forma independiente.
func DecomposeInvoice(grandTotalIncTax decimal.Decimal, lines []LineInput, rate decimal.Decimal) Totals {
	head := SplitInclusive(grandTotalIncTax, rate)
	out := Totals{
		Taxable: head.Base,
		Tax:     head.Tax,
		Lines:   make([]LineAmounts, len(lines)),
	}
	for i, l := range lines {
		out.Lines[i] = DecomposeLine(l.UnitPriceIncTax, l.LineTotalIncTax, rate)
	}
	return out
}

// LineDrift diferencia entre la suma de bases de línea y la base total.
// Sirve para observar el descuadre por redondeo; nunca se corrige.
func (t Totals) LineDrift() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range t.Lines {
		sum = sum.Add(l.LineExTax)
	}
	return sum.Sub(t.Taxable)
}
