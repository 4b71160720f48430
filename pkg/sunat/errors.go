package sunat

import (
	"errors"
	"fmt"
)

// Categorías de error del núcleo de facturación electrónica.
var (
	ErrInvalidInvoice = errors.New("factura inválida para SUNAT")
	ErrCredential     = errors.New("credencial de firma inválida")
	ErrDocument       = errors.New("documento XML inválido para firmar")
)

// CredentialError indica que el certificado o la llave privada no se pudieron
// leer o descifrar con la contraseña dada. Es un problema de configuración.
type CredentialError struct {
	Op  string // paso que falló: leer, decodificar, llave, certificado
	Err error
}

func (e *CredentialError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("sunat: credencial (%s)", e.Op)
	}
	return fmt.Sprintf("sunat: credencial (%s): %v", e.Op, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrCredential).
func (e *CredentialError) Is(target error) bool { return target == ErrCredential }

// DocumentError indica que el XML de entrada al firmador no está bien formado
// o no contiene el ExtensionContent vacío que deja el constructor.
type DocumentError struct {
	Reason string
	Err    error
}

func (e *DocumentError) Error() string {
	if e.Err == nil {
		return "sunat: documento: " + e.Reason
	}
	return fmt.Sprintf("sunat: documento: %s: %v", e.Reason, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrDocument).
func (e *DocumentError) Is(target error) bool { return target == ErrDocument }
