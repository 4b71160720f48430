package signer

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/jhoicas/Facturador-api/pkg/sunat"
)

// ErrSignatureMismatch el documento o el SignedInfo no corresponden a la firma.
var ErrSignatureMismatch = errors.New("sunat: la firma no corresponde al documento")

// Verification resultado de una verificación exitosa.
type Verification struct {
	DigestValue  string
	Subject      string
	SerialNumber string
	NotBefore    time.Time
	NotAfter     time.Time
}

// Verify recalcula el digest enveloped del documento y comprueba la firma RSA
// del SignedInfo con el certificado embebido en ds:KeyInfo.
// No valida la cadena de confianza del certificado.
func Verify(signedXML []byte) (*Verification, error) {
	doc, err := parseDocument(signedXML)
	if err != nil {
		return nil, err
	}
	sig, err := findSignature(doc.Root())
	if err != nil {
		return nil, err
	}

	signedInfo := child(sig, "SignedInfo")
	if signedInfo == nil {
		return nil, &sunat.DocumentError{Reason: "ds:Signature sin ds:SignedInfo"}
	}
	if err := checkAlgorithms(signedInfo); err != nil {
		return nil, err
	}
	ref := child(signedInfo, "Reference")
	digestValue := strings.TrimSpace(child(ref, "DigestValue").Text())

	leaf, err := embeddedCertificate(sig)
	if err != nil {
		return nil, err
	}
	pub, ok := leaf.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, &sunat.DocumentError{Reason: "el certificado embebido no tiene llave RSA"}
	}

	// Transformación enveloped: el documento sin ds:Signature.
	unsigned := doc.Root().Copy()
	if err := removeSignature(unsigned); err != nil {
		return nil, err
	}
	canonicalDoc, err := canonicalize(unsigned)
	if err != nil {
		return nil, &sunat.DocumentError{Reason: "canonicalizar documento", Err: err}
	}
	docDigest := sha256.Sum256(canonicalDoc)
	if subtle.ConstantTimeCompare([]byte(base64.StdEncoding.EncodeToString(docDigest[:])), []byte(digestValue)) != 1 {
		return nil, fmt.Errorf("%w: DigestValue distinto", ErrSignatureMismatch)
	}

	sv := child(sig, "SignatureValue")
	if sv == nil {
		return nil, &sunat.DocumentError{Reason: "ds:Signature sin ds:SignatureValue"}
	}
	signatureValue, err := base64.StdEncoding.DecodeString(compact(sv.Text()))
	if err != nil {
		return nil, &sunat.DocumentError{Reason: "ds:SignatureValue no es Base64", Err: err}
	}
	canonicalSignedInfo, err := canonicalize(signedInfo)
	if err != nil {
		return nil, &sunat.DocumentError{Reason: "canonicalizar SignedInfo", Err: err}
	}
	signHash := sha256.Sum256(canonicalSignedInfo)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, signHash[:], signatureValue); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}

	return &Verification{
		DigestValue:  digestValue,
		Subject:      leaf.Subject.String(),
		SerialNumber: leaf.SerialNumber.String(),
		NotBefore:    leaf.NotBefore,
		NotAfter:     leaf.NotAfter,
	}, nil
}

// DigestValue extrae el DigestValue de la firma (se imprime en el QR) sin verificarla.
func DigestValue(signedXML []byte) (string, error) {
	doc, err := parseDocument(signedXML)
	if err != nil {
		return "", err
	}
	sig, err := findSignature(doc.Root())
	if err != nil {
		return "", err
	}
	v := child(child(child(sig, "SignedInfo"), "Reference"), "DigestValue")
	if v == nil || strings.TrimSpace(v.Text()) == "" {
		return "", &sunat.DocumentError{Reason: "ds:DigestValue vacío"}
	}
	return strings.TrimSpace(v.Text()), nil
}

func findSignature(root *etree.Element) (*etree.Element, error) {
	var found []*etree.Element
	for _, el := range root.FindElements(".//Signature") {
		if el.NamespaceURI() == NamespaceDS {
			found = append(found, el)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return nil, &sunat.DocumentError{Reason: "el documento no tiene ds:Signature"}
	default:
		return nil, &sunat.DocumentError{Reason: "el documento tiene más de una ds:Signature"}
	}
}

func removeSignature(root *etree.Element) error {
	sig, err := findSignature(root)
	if err != nil {
		return err
	}
	sig.Parent().RemoveChild(sig)
	return nil
}

func checkAlgorithms(signedInfo *etree.Element) error {
	want := map[string]string{
		"CanonicalizationMethod": AlgExcC14N,
		"SignatureMethod":        AlgRSASHA256,
	}
	for local, alg := range want {
		el := child(signedInfo, local)
		if el == nil || el.SelectAttrValue("Algorithm", "") != alg {
			return &sunat.DocumentError{Reason: "ds:" + local + " no es " + alg}
		}
	}
	ref := child(signedInfo, "Reference")
	if ref == nil || ref.SelectAttrValue("URI", "-") != "" {
		return &sunat.DocumentError{Reason: `ds:Reference debe tener URI=""`}
	}
	if dm := child(ref, "DigestMethod"); dm == nil || dm.SelectAttrValue("Algorithm", "") != AlgSHA256 {
		return &sunat.DocumentError{Reason: "ds:DigestMethod no es " + AlgSHA256}
	}
	if child(ref, "DigestValue") == nil {
		return &sunat.DocumentError{Reason: "ds:Reference sin ds:DigestValue"}
	}
	return nil
}

func embeddedCertificate(sig *etree.Element) (*x509.Certificate, error) {
	el := child(child(child(sig, "KeyInfo"), "X509Data"), "X509Certificate")
	if el == nil {
		return nil, &sunat.DocumentError{Reason: "ds:KeyInfo sin ds:X509Certificate"}
	}
	der, err := base64.StdEncoding.DecodeString(compact(el.Text()))
	if err != nil {
		return nil, &sunat.DocumentError{Reason: "ds:X509Certificate no es Base64", Err: err}
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, &sunat.DocumentError{Reason: "ds:X509Certificate inválido", Err: err}
	}
	return cert, nil
}

// child primer hijo ds:<local>; tolera padre nil para encadenar búsquedas.
func child(parent *etree.Element, local string) *etree.Element {
	if parent == nil {
		return nil
	}
	for _, c := range parent.ChildElements() {
		if c.Tag == local && c.NamespaceURI() == NamespaceDS {
			return c
		}
	}
	return nil
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
