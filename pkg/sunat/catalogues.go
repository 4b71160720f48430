// Package sunat contiene catálogos y contratos alineados a la Guía de Elaboración
// de Documentos Electrónicos UBL 2.1 de SUNAT (Perú).
package sunat

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// Catálogo 01 - Tipo de documento
// =============================================================================

// Sólo se emiten facturas.
const DocumentTypeFactura = "01"

// =============================================================================
// Catálogo 51 - Tipo de operación (atributo listID de cbc:InvoiceTypeCode)
// =============================================================================

const OperationTypeVentaInterna = "0101"

// =============================================================================
// Catálogo 06 - Tipos de documento de identidad
// =============================================================================

const (
	IdentityTypeNoDomiciliado = "0" // Doc. trib. no domiciliado sin RUC
	IdentityTypeDNI           = "1" // Documento nacional de identidad
	IdentityTypeCE            = "4" // Carné de extranjería
	IdentityTypeRUC           = "6" // Registro único de contribuyentes
	IdentityTypePasaporte     = "7" // Pasaporte
	IdentityTypeDiplomatica   = "A" // Cédula diplomática de identidad
)

// ValidIdentityTypes códigos del catálogo 06 aceptados para el adquiriente.
var ValidIdentityTypes = map[string]bool{
	IdentityTypeNoDomiciliado: true,
	IdentityTypeDNI:           true,
	IdentityTypeCE:            true,
	IdentityTypeRUC:           true,
	IdentityTypePasaporte:     true,
	IdentityTypeDiplomatica:   true,
}

// =============================================================================
// Catálogo 02 - Monedas soportadas
// =============================================================================

const (
	CurrencyPEN = "PEN" // Sol
	CurrencyUSD = "USD" // Dólar americano
)

// SupportedCurrencies monedas que el facturador emite.
var SupportedCurrencies = map[string]bool{
	CurrencyPEN: true,
	CurrencyUSD: true,
}

// =============================================================================
// Catálogo 05 - Tributos
// =============================================================================

const (
	TaxSchemeIGVID   = "1000" // IGV Impuesto General a las Ventas
	TaxSchemeIGVName = "IGV"
	TaxSchemeIGVCode = "VAT"
)

// IGVRate tasa del IGV vigente para todas las facturas del despliegue.
// Cambiarla es un cambio de constante, no un parámetro de ejecución.
const IGVRate = "0.18"

// IGVRateDecimal devuelve IGVRate como decimal.
func IGVRateDecimal() decimal.Decimal {
	return decimal.RequireFromString(IGVRate)
}

// =============================================================================
// Catálogo 07 - Tipo de afectación del IGV
// =============================================================================

const AffectationGravadoOneroso = "10" // Gravado - Operación onerosa

// =============================================================================
// Catálogo 16 - Tipo de precio de venta unitario
// =============================================================================

const PriceTypeIncludesTax = "01" // Precio unitario (incluye el IGV)

// =============================================================================
// Catálogo 03 - Unidades de medida (uso frecuente)
// =============================================================================

const (
	UnitNIU      = "NIU" // Unidad (bienes)
	UnitZZ       = "ZZ"  // Unidad (servicios)
	UnitKilogram = "KGM" // Kilogramo
	UnitLitre    = "LTR" // Litro
	UnitMetre    = "MTR" // Metro
	UnitBox      = "BX"  // Caja
)

// ValidUnitCodes unidades de medida aceptadas en las líneas.
var ValidUnitCodes = map[string]bool{
	UnitNIU: true, UnitZZ: true, UnitKilogram: true,
	UnitLitre: true, UnitMetre: true, UnitBox: true,
}

// AddressTypeCodeDefault código de establecimiento anexo (domicilio fiscal).
const AddressTypeCodeDefault = "0000"

// SignatureID identificador de la firma: cac:Signature/cbc:ID en el comprobante y
// atributo Id de ds:Signature dentro de ext:ExtensionContent.
const SignatureID = "SignatureSP"

// Lima zona horaria de emisión (UTC-5, sin horario de verano).
var Lima = time.FixedZone("America/Lima", -5*60*60)
