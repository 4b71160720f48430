package sunat_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domsunat "github.com/jhoicas/Facturador-api/internal/domain/sunat"
	"github.com/jhoicas/Facturador-api/pkg/sunat"
)

var (
	rate      = sunat.IGVRateDecimal()
	tolerance = decimal.RequireFromString("0.01")
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Escenario de referencia: 118.00 con IGV = 100.00 de base + 18.00 de IGV.
func TestDecomposeInvoice_UnaLinea118(t *testing.T) {
	totals := domsunat.DecomposeInvoice(d("118.00"), []domsunat.LineInput{
		{UnitPriceIncTax: d("118.00"), LineTotalIncTax: d("118.00")},
	}, rate)

	assert.Equal(t, "100.00", totals.Taxable.StringFixed(2))
	assert.Equal(t, "18.00", totals.Tax.StringFixed(2))
	require.Len(t, totals.Lines, 1)
	assert.Equal(t, "100.00", totals.Lines[0].UnitValue.StringFixed(2))
	assert.Equal(t, "100.00", totals.Lines[0].LineExTax.StringFixed(2))
	assert.Equal(t, "18.00", totals.Lines[0].LineTax.StringFixed(2))
	assert.True(t, totals.LineDrift().IsZero())
}

// Dos líneas redondeadas por separado: la suma de bases (19.06) no cuadra con
// la base total (19.07) y ese descuadre se conserva.
func TestDecomposeInvoice_DosLineasDescuadreTolerado(t *testing.T) {
	totals := domsunat.DecomposeInvoice(d("22.50"), []domsunat.LineInput{
		{UnitPriceIncTax: d("7.00"), LineTotalIncTax: d("14.00")},
		{UnitPriceIncTax: d("8.50"), LineTotalIncTax: d("8.50")},
	}, rate)

	assert.Equal(t, "19.07", totals.Taxable.StringFixed(2))
	assert.Equal(t, "3.43", totals.Tax.StringFixed(2))

	assert.Equal(t, "5.93", totals.Lines[0].UnitValue.StringFixed(2))
	assert.Equal(t, "11.86", totals.Lines[0].LineExTax.StringFixed(2))
	assert.Equal(t, "2.14", totals.Lines[0].LineTax.StringFixed(2))
	assert.Equal(t, "7.20", totals.Lines[1].UnitValue.StringFixed(2))
	assert.Equal(t, "7.20", totals.Lines[1].LineExTax.StringFixed(2))
	assert.Equal(t, "1.30", totals.Lines[1].LineTax.StringFixed(2))

	drift := totals.LineDrift()
	assert.Equal(t, "-0.01", drift.StringFixed(2))
	assert.True(t, drift.Abs().LessThanOrEqual(d("0.02")), "el descuadre por redondeo debe quedar dentro de 0.02")
}

func TestSplitInclusive_Cero(t *testing.T) {
	b := domsunat.SplitInclusive(decimal.Zero, rate)
	assert.True(t, b.Base.IsZero())
	assert.True(t, b.Tax.IsZero())
}

// Montos muy pequeños producen IGV cero sin error.
func TestSplitInclusive_MontosPequenos(t *testing.T) {
	b := domsunat.SplitInclusive(d("0.01"), rate)
	assert.Equal(t, "0.01", b.Base.StringFixed(2))
	assert.Equal(t, "0.00", b.Tax.StringFixed(2))

	b = domsunat.SplitInclusive(d("0.05"), rate)
	assert.Equal(t, "0.04", b.Base.StringFixed(2))
	assert.Equal(t, "0.01", b.Tax.StringFixed(2))
}

// Para todo total >= 0: base + IGV reconstruye el total y ambos tienen 2 decimales.
func TestSplitInclusive_PropiedadReconstruccion(t *testing.T) {
	step := d("0.01")
	for amount := decimal.Zero; amount.LessThan(d("60.00")); amount = amount.Add(step) {
		b := domsunat.SplitInclusive(amount, rate)
		assert.True(t, b.Base.Equal(b.Base.Round(2)), "base %s con más de 2 decimales", b.Base)
		assert.True(t, b.Tax.Equal(b.Tax.Round(2)), "igv %s con más de 2 decimales", b.Tax)
		diff := b.Base.Add(b.Tax).Sub(amount).Abs()
		if !assert.True(t, diff.LessThanOrEqual(tolerance), "total %s: base %s + igv %s", amount, b.Base, b.Tax) {
			return
		}
	}
}

// Para cada precio: valor unitario × (1 + tasa) vuelve al precio con tolerancia de 0.01.
func TestDecomposeLine_PropiedadConsistencia(t *testing.T) {
	factor := decimal.NewFromInt(1).Add(rate)
	for _, price := range []string{"0.01", "0.99", "1.00", "7.00", "8.50", "12.34", "99.99", "118.00", "1234.56", "99999.99"} {
		p := d(price)
		l := domsunat.DecomposeLine(p, p, rate)
		back := l.UnitValue.Mul(factor).Round(2)
		assert.True(t, back.Sub(p).Abs().LessThanOrEqual(tolerance), "precio %s: valor %s", price, l.UnitValue)
		backLine := l.LineExTax.Mul(factor).Round(2)
		assert.True(t, backLine.Sub(p).Abs().LessThanOrEqual(tolerance), "línea %s: base %s", price, l.LineExTax)
	}
}

// Redondeo mitad lejos de cero en cada paso: 0.59/1.18 = 0.5 exacto.
func TestSplitInclusive_RedondeoPorPaso(t *testing.T) {
	b := domsunat.SplitInclusive(d("0.59"), rate)
	assert.Equal(t, "0.50", b.Base.StringFixed(2))
	assert.Equal(t, "0.09", b.Tax.StringFixed(2))

	// 1.00/1.18 = 0.847457... => 0.85; 1.00 - 0.85 = 0.15
	b = domsunat.SplitInclusive(d("1.00"), rate)
	assert.Equal(t, "0.85", b.Base.StringFixed(2))
	assert.Equal(t, "0.15", b.Tax.StringFixed(2))
}

// Empates exactos en la tercera cifra: se alejan de cero, no van al par.
func TestSplitInclusive_EmpatesLejosDeCero(t *testing.T) {
	// 0.0295/1.18 = 0.025 exacto
	b := domsunat.SplitInclusive(d("0.0295"), rate)
	assert.Equal(t, "0.03", b.Base.StringFixed(2))
	assert.Equal(t, "0.00", b.Tax.StringFixed(2))

	// 0.1475/1.18 = 0.125 exacto; 0.1475 - 0.13 = 0.0175
	b = domsunat.SplitInclusive(d("0.1475"), rate)
	assert.Equal(t, "0.13", b.Base.StringFixed(2))
	assert.Equal(t, "0.02", b.Tax.StringFixed(2))

	// Empate al restar: 0.975/1.18 = 0.826... => 0.83; 0.975 - 0.83 = 0.145 => 0.15
	b = domsunat.SplitInclusive(d("0.975"), rate)
	assert.Equal(t, "0.83", b.Base.StringFixed(2))
	assert.Equal(t, "0.15", b.Tax.StringFixed(2))

	// Negativos: simétrico respecto de cero.
	b = domsunat.SplitInclusive(d("-0.1475"), rate)
	assert.Equal(t, "-0.13", b.Base.StringFixed(2))
	assert.Equal(t, "-0.02", b.Tax.StringFixed(2))
}

func TestDecomposeLine_EmpateEnValorUnitario(t *testing.T) {
	l := domsunat.DecomposeLine(d("0.1475"), d("0.975"), rate)
	assert.Equal(t, "0.13", l.UnitValue.StringFixed(2))
	assert.Equal(t, "0.83", l.LineExTax.StringFixed(2))
	assert.Equal(t, "0.15", l.LineTax.StringFixed(2))
}
