// Carga de certificado desde .p12 (PKCS#12) o par PEM.

package signer

import (
	"bytes"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/Facturador-api/pkg/sunat"
)

// ParseCredential decodifica el material de llave: PKCS#12 (.p12/.pfx) o PEM con
// certificado y llave RSA (la llave puede venir cifrada con el formato PEM clásico).
// Cualquier fallo se devuelve como *sunat.CredentialError.
func ParseCredential(material []byte, passphrase string) (tls.Certificate, error) {
	if len(bytes.TrimSpace(material)) == 0 {
		return tls.Certificate{}, &sunat.CredentialError{Op: "leer", Err: errors.New("material de llave vacío")}
	}
	var (
		cert tls.Certificate
		err  error
	)
	if bytes.Contains(material, []byte("-----BEGIN")) {
		cert, err = parsePEM(material, passphrase)
	} else {
		cert, err = parseP12(material, passphrase)
	}
	if err != nil {
		return tls.Certificate{}, err
	}
	if _, ok := cert.PrivateKey.(*rsa.PrivateKey); !ok {
		return tls.Certificate{}, &sunat.CredentialError{Op: "llave", Err: errors.New("el certificado debe incluir llave privada RSA")}
	}
	return cert, nil
}

// LoadCredential lee el archivo de credencial y lo decodifica con ParseCredential.
func LoadCredential(path, passphrase string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, &sunat.CredentialError{Op: "leer", Err: err}
	}
	return ParseCredential(data, passphrase)
}

func parseP12(data []byte, passphrase string) (tls.Certificate, error) {
	priv, leaf, err := pkcs12.Decode(data, passphrase)
	if err == nil {
		return tls.Certificate{Certificate: [][]byte{leaf.Raw}, PrivateKey: priv, Leaf: leaf}, nil
	}
	if errors.Is(err, pkcs12.ErrIncorrectPassword) {
		return tls.Certificate{}, &sunat.CredentialError{Op: "p12", Err: err}
	}
	// Decode sólo acepta exactamente un certificado; los .p12 de las entidades
	// certificadoras suelen traer la cadena completa.
	blocks, pemErr := pkcs12.ToPEM(data, passphrase)
	if pemErr != nil {
		return tls.Certificate{}, &sunat.CredentialError{Op: "p12", Err: err}
	}
	var buf bytes.Buffer
	for _, b := range blocks {
		if err := pem.Encode(&buf, b); err != nil {
			return tls.Certificate{}, &sunat.CredentialError{Op: "p12", Err: err}
		}
	}
	return parsePEM(buf.Bytes(), "")
}

func parsePEM(data []byte, passphrase string) (tls.Certificate, error) {
	var certPEM, keyPEM []byte
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		switch block.Type {
		case "CERTIFICATE":
			certPEM = append(certPEM, pem.EncodeToMemory(block)...)
		case "ENCRYPTED PRIVATE KEY":
			return tls.Certificate{}, &sunat.CredentialError{Op: "pem", Err: errors.New("llave PKCS#8 cifrada no soportada; exporte la llave como .p12")}
		case "PRIVATE KEY", "RSA PRIVATE KEY", "EC PRIVATE KEY":
			if keyPEM != nil {
				continue
			}
			//nolint:staticcheck // formato PEM cifrado clásico que aún emiten algunas herramientas
			if x509.IsEncryptedPEMBlock(block) {
				der, err := x509.DecryptPEMBlock(block, []byte(passphrase))
				if err != nil {
					return tls.Certificate{}, &sunat.CredentialError{Op: "pem", Err: err}
				}
				block = &pem.Block{Type: block.Type, Bytes: der}
			}
			keyPEM = pem.EncodeToMemory(block)
		}
	}
	if certPEM == nil {
		return tls.Certificate{}, &sunat.CredentialError{Op: "pem", Err: errors.New("no se encontró CERTIFICATE")}
	}
	if keyPEM == nil {
		return tls.Certificate{}, &sunat.CredentialError{Op: "pem", Err: errors.New("no se encontró la llave privada")}
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, &sunat.CredentialError{Op: "pem", Err: err}
	}
	if cert.Leaf == nil {
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return tls.Certificate{}, &sunat.CredentialError{Op: "pem", Err: fmt.Errorf("parsear certificado: %w", err)}
		}
		cert.Leaf = leaf
	}
	return cert, nil
}

// CredentialCache carga la credencial una sola vez y luego sirve el mismo valor
// inmutable a todas las goroutines.
type CredentialCache struct {
	path       string
	passphrase string

	once sync.Once
	cert tls.Certificate
	err  error
}

// NewCredentialCache crea la caché; no lee el archivo hasta el primer Get.
func NewCredentialCache(path, passphrase string) *CredentialCache {
	return &CredentialCache{path: path, passphrase: passphrase}
}

// NewStaticCredentialCache envuelve una credencial ya decodificada.
func NewStaticCredentialCache(cert tls.Certificate) *CredentialCache {
	c := &CredentialCache{}
	c.once.Do(func() { c.cert = cert })
	return c
}

// Get devuelve la credencial; un error de carga se memoriza igual que el éxito.
func (c *CredentialCache) Get() (tls.Certificate, error) {
	c.once.Do(func() {
		if c.path == "" {
			c.err = &sunat.CredentialError{Op: "configuración", Err: errors.New("SUNAT_CERT_PATH vacío")}
			return
		}
		c.cert, c.err = LoadCredential(c.path, c.passphrase)
	})
	return c.cert, c.err
}
