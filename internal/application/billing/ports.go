package billing

import (
	"crypto/tls"

	infsunat "github.com/jhoicas/Facturador-api/internal/infrastructure/sunat"
)

// DocumentBuilder construye el XML UBL 2.1 sin firmar.
type DocumentBuilder interface {
	Build(ctx *infsunat.InvoiceBuildContext) ([]byte, error)
}

// CredentialSource entrega el certificado de firma ya decodificado.
// signer.CredentialCache lo implementa.
type CredentialSource interface {
	Get() (tls.Certificate, error)
}
