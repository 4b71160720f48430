// Servicio de firma digital XML-DSig enveloped para la factura electrónica SUNAT.
// Inyecta <ds:Signature> en el único <ext:ExtensionContent> vacío del XML.

package signer

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/jhoicas/Facturador-api/pkg/sunat"
)

// DigitalSignatureService implementa la firma enveloped e inyecta el nodo en el XML.
// No guarda estado: puede usarse desde varias goroutines.
type DigitalSignatureService struct{}

// NewDigitalSignatureService crea el servicio.
func NewDigitalSignatureService() *DigitalSignatureService {
	return &DigitalSignatureService{}
}

// SignWithKeyMaterial decodifica la credencial (.p12 o PEM) y firma el documento.
// Si la credencial no abre, no se produce salida.
func (s *DigitalSignatureService) SignWithKeyMaterial(xmlBytes, keyMaterial []byte, passphrase string) ([]byte, error) {
	cert, err := ParseCredential(keyMaterial, passphrase)
	if err != nil {
		return nil, err
	}
	return s.Sign(xmlBytes, cert)
}

// Sign implementa sunat.Signer. Firma el documento completo (Reference URI="")
// e inyecta ds:Signature como único hijo del ext:ExtensionContent vacío.
func (s *DigitalSignatureService) Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error) {
	priv, leaf, err := signingMaterial(cert)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(xmlBytes)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	slot, err := findSignatureSlot(root)
	if err != nil {
		return nil, err
	}

	// 1) Digest del documento sin firma (transformación enveloped + exc-c14n)
	canonicalDoc, err := canonicalize(root)
	if err != nil {
		return nil, &sunat.DocumentError{Reason: "canonicalizar documento", Err: err}
	}
	docDigest := sha256.Sum256(canonicalDoc)
	digestB64 := base64.StdEncoding.EncodeToString(docDigest[:])

	// 2) SignedInfo canonicalizado y firmado con RSA-SHA256
	signedInfo := buildSignedInfo(digestB64)
	canonicalSignedInfo, err := canonicalize(signedInfo)
	if err != nil {
		return nil, fmt.Errorf("sunat: canonicalizar SignedInfo: %w", err)
	}
	signHash := sha256.Sum256(canonicalSignedInfo)
	signatureValue, err := rsa.SignPKCS1v15(nil, priv, crypto.SHA256, signHash[:])
	if err != nil {
		return nil, &sunat.CredentialError{Op: "firmar", Err: err}
	}

	// 3) ds:Signature completa dentro del slot
	slot.AddChild(buildSignature(signedInfo, base64.StdEncoding.EncodeToString(signatureValue), leaf))

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("sunat: serializar XML firmado: %w", err)
	}
	return out.Bytes(), nil
}

func signingMaterial(cert tls.Certificate) (*rsa.PrivateKey, *x509.Certificate, error) {
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, nil, &sunat.CredentialError{Op: "llave", Err: errors.New("el certificado debe incluir llave privada RSA")}
	}
	if cert.Leaf != nil {
		return priv, cert.Leaf, nil
	}
	if len(cert.Certificate) == 0 {
		return nil, nil, &sunat.CredentialError{Op: "certificado", Err: errors.New("credencial sin certificado")}
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, nil, &sunat.CredentialError{Op: "certificado", Err: err}
	}
	return priv, leaf, nil
}

func parseDocument(xmlBytes []byte) (*etree.Document, error) {
	if len(bytes.TrimSpace(xmlBytes)) == 0 {
		return nil, &sunat.DocumentError{Reason: "XML vacío"}
	}
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalEndTags = true
	doc.WriteSettings.CanonicalText = true
	doc.WriteSettings.CanonicalAttrVal = true
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, &sunat.DocumentError{Reason: "XML mal formado", Err: err}
	}
	if doc.Root() == nil {
		return nil, &sunat.DocumentError{Reason: "documento sin raíz"}
	}
	return doc, nil
}

// findSignatureSlot busca, en cualquier nivel, el único ext:ExtensionContent vacío.
func findSignatureSlot(root *etree.Element) (*etree.Element, error) {
	var empty []*etree.Element
	for _, el := range root.FindElements(".//ExtensionContent") {
		if el.NamespaceURI() != NamespaceExt {
			continue
		}
		if len(el.ChildElements()) == 0 && strings.TrimSpace(el.Text()) == "" {
			empty = append(empty, el)
		}
	}
	switch len(empty) {
	case 1:
		return empty[0], nil
	case 0:
		return nil, &sunat.DocumentError{Reason: "no se encontró ext:ExtensionContent vacío para la firma"}
	default:
		return nil, &sunat.DocumentError{Reason: fmt.Sprintf("%d ext:ExtensionContent vacíos; la ubicación de la firma es ambigua", len(empty))}
	}
}

// canonicalize aplica exc-c14n sobre una copia: el canonicalizador desprende el
// elemento de su árbol.
func canonicalize(el *etree.Element) ([]byte, error) {
	return dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("").Canonicalize(el.Copy())
}

// buildSignedInfo declara xmlns:ds en el propio SignedInfo para que su forma
// canónica sea la misma dentro y fuera del documento.
func buildSignedInfo(digestB64 string) *etree.Element {
	si := etree.NewElement(SignaturePrefix + ":SignedInfo")
	si.CreateAttr("xmlns:"+SignaturePrefix, NamespaceDS)
	ds(si, "CanonicalizationMethod").CreateAttr("Algorithm", AlgExcC14N)
	ds(si, "SignatureMethod").CreateAttr("Algorithm", AlgRSASHA256)

	ref := ds(si, "Reference")
	ref.CreateAttr("URI", "")
	transforms := ds(ref, "Transforms")
	ds(transforms, "Transform").CreateAttr("Algorithm", TransformEnveloped)
	ds(transforms, "Transform").CreateAttr("Algorithm", AlgExcC14N)
	ds(ref, "DigestMethod").CreateAttr("Algorithm", AlgSHA256)
	ds(ref, "DigestValue").SetText(digestB64)
	return si
}

func buildSignature(signedInfo *etree.Element, signatureValueB64 string, leaf *x509.Certificate) *etree.Element {
	sig := etree.NewElement(SignaturePrefix + ":Signature")
	sig.CreateAttr("xmlns:"+SignaturePrefix, NamespaceDS)
	sig.CreateAttr("Id", SignatureID)
	sig.AddChild(signedInfo)
	ds(sig, "SignatureValue").SetText(signatureValueB64)

	x509Data := ds(ds(sig, "KeyInfo"), "X509Data")
	ds(x509Data, "X509SubjectName").SetText(leaf.Subject.String())
	ds(x509Data, "X509Certificate").SetText(base64.StdEncoding.EncodeToString(leaf.Raw))
	return sig
}

func ds(parent *etree.Element, local string) *etree.Element {
	return parent.CreateElement(SignaturePrefix + ":" + local)
}

var _ sunat.Signer = (*DigitalSignatureService)(nil)
