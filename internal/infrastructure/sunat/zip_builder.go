package sunat

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/jhoicas/Facturador-api/pkg/sunat"
)

// Filenames genera los nombres que SUNAT exige para el XML y el ZIP que lo contiene.
// Formato: {RUC}-{TIPO}-{SERIE}-{NUMERO}
// Ejemplo: 20100066603-01-F001-00000123
func Filenames(ruc, series, number string) (xmlName, zipName string) {
	base := strings.Join([]string{
		strings.TrimSpace(ruc),
		sunat.DocumentTypeFactura,
		strings.TrimSpace(series),
		strings.TrimSpace(number),
	}, "-")
	return base + ".xml", base + ".zip"
}

// CompressXMLToZip empaqueta el XML firmado en un archivo ZIP en memoria.
// SUNAT exige que el ZIP contenga un único archivo con el mismo nombre base.
func CompressXMLToZip(xmlBytes []byte, xmlFilename string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	fw, err := zw.Create(xmlFilename)
	if err != nil {
		return nil, fmt.Errorf("zip: crear entrada %s: %w", xmlFilename, err)
	}
	if _, err := fw.Write(xmlBytes); err != nil {
		return nil, fmt.Errorf("zip: escribir XML: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}
