// Package signertest genera credenciales de prueba (llave RSA + certificado
// autofirmado) en los formatos que acepta el firmador.
package signertest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

// Credential material generado para un test.
type Credential struct {
	Key  *rsa.PrivateKey
	Cert *x509.Certificate
}

// New crea una llave RSA 2048 y un certificado autofirmado a nombre del RUC dado.
func New(t testing.TB, ruc string) *Credential {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generar llave RSA: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			CommonName:   "FACTURADOR PRUEBA " + ruc,
			SerialNumber: ruc,
			Country:      []string{"PE"},
		},
		NotBefore:   time.Now().Add(-time.Hour),
		NotAfter:    time.Now().Add(24 * time.Hour),
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageContentCommitment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("crear certificado: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parsear certificado: %v", err)
	}
	return &Credential{Key: key, Cert: cert}
}

// TLS la credencial lista para DigitalSignatureService.Sign.
func (c *Credential) TLS() tls.Certificate {
	return tls.Certificate{Certificate: [][]byte{c.Cert.Raw}, PrivateKey: c.Key, Leaf: c.Cert}
}

// P12 exporta la credencial como PKCS#12 protegido con passphrase.
func (c *Credential) P12(t testing.TB, passphrase string) []byte {
	t.Helper()
	data, err := gopkcs12.LegacyDES.Encode(c.Key, c.Cert, nil, passphrase)
	if err != nil {
		t.Fatalf("codificar p12: %v", err)
	}
	return data
}

// PEM certificado y llave PKCS#1 sin cifrar, concatenados.
func (c *Credential) PEM() []byte {
	out := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: c.Cert.Raw})
	return append(out, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(c.Key)})...)
}

// EncryptedPEM como PEM pero con la llave cifrada en el formato PEM clásico (DEK-Info).
func (c *Credential) EncryptedPEM(t testing.TB, passphrase string) []byte {
	t.Helper()
	//nolint:staticcheck // formato heredado que el firmador debe seguir aceptando
	block, err := x509.EncryptPEMBlock(rand.Reader, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(c.Key), []byte(passphrase), x509.PEMCipherAES256)
	if err != nil {
		t.Fatalf("cifrar llave PEM: %v", err)
	}
	out := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: c.Cert.Raw})
	return append(out, pem.EncodeToMemory(block)...)
}
