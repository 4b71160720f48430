// Identificadores de algoritmos XML-DSig exigidos por SUNAT. Son parte del
// protocolo con el validador externo: no se sustituyen por equivalentes.

package signer

import "github.com/jhoicas/Facturador-api/pkg/sunat"

// Namespaces y algoritmos XMLDSig.
const (
	NamespaceDS        = "http://www.w3.org/2000/09/xmldsig#"
	NamespaceExt       = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
	AlgExcC14N         = "http://www.w3.org/2001/10/xml-exc-c14n#"
	AlgRSASHA256       = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgSHA256          = "http://www.w3.org/2001/04/xmlenc#sha256"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// SignaturePrefix alias fijo de todos los elementos de la firma (ds:Signature, ds:SignedInfo...).
const SignaturePrefix = "ds"

// SignatureID Id de ds:Signature; coincide con cac:Signature/cbc:ID del comprobante.
const SignatureID = sunat.SignatureID
