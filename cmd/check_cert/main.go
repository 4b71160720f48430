// check_cert valida el certificado de firma configurado antes de desplegar:
// que el archivo exista, que la contraseña lo descifre, que tenga llave RSA y
// que esté vigente. Con --firmar-prueba además firma y verifica una factura de prueba.
// El subcomando token emite un Bearer para la API con JWT_SECRET y SUNAT_RUC.
//
// Uso:
//
//	go run ./cmd/check_cert                       # SUNAT_CERT_PATH / SUNAT_CERT_PASSWORD
//	go run ./cmd/check_cert --cert cert.p12 --password secreto --firmar-prueba
//	go run ./cmd/check_cert token --usuario cajero-07 --rol facturador
package main

import (
	"context"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/jhoicas/Facturador-api/internal/application/billing"
	"github.com/jhoicas/Facturador-api/internal/application/dto"
	"github.com/jhoicas/Facturador-api/internal/domain/entity"
	infsunat "github.com/jhoicas/Facturador-api/internal/infrastructure/sunat"
	"github.com/jhoicas/Facturador-api/internal/infrastructure/sunat/signer"
	"github.com/jhoicas/Facturador-api/pkg/config"
	"github.com/jhoicas/Facturador-api/pkg/jwt"
	"github.com/jhoicas/Facturador-api/pkg/logger"
	"github.com/jhoicas/Facturador-api/pkg/sunat"
)

// Días de vigencia por debajo de los cuales se advierte.
const warnDays = 30

func main() {
	app := &cli.App{
		Name:  "check_cert",
		Usage: "valida el certificado de firma SUNAT (.p12/.pfx o PEM)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "cert", Usage: "ruta al certificado (por defecto SUNAT_CERT_PATH)"},
			&cli.StringFlag{Name: "password", Usage: "contraseña (por defecto SUNAT_CERT_PASSWORD)"},
			&cli.StringFlag{Name: "ruc", Usage: "RUC esperado en el certificado (por defecto SUNAT_RUC)"},
			&cli.BoolFlag{Name: "firmar-prueba", Usage: "firma y verifica una factura de prueba"},
		},
		Action: run,
		Commands: []*cli.Command{{
			Name:  "token",
			Usage: "emite un token de acceso a la API para el RUC configurado",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "usuario", Required: true},
				&cli.StringFlag{Name: "rol", Value: "facturador", Usage: "admin | facturador | auditor"},
				&cli.DurationFlag{Name: "vigencia", Usage: "por defecto JWT_EXPIRATION_MINUTES"},
			},
			Action: runToken,
		}},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	path := firstNonEmpty(c.String("cert"), cfg.SUNAT.CertPath)
	password := firstNonEmpty(c.String("password"), cfg.SUNAT.CertPassword)
	ruc := firstNonEmpty(c.String("ruc"), cfg.SUNAT.RUC)
	if path == "" {
		return errors.New("indique --cert o SUNAT_CERT_PATH")
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Certificado: %s\n", path)
	cert, err := signer.LoadCredential(path, password)
	if err != nil {
		var ce *sunat.CredentialError
		if errors.As(err, &ce) {
			return fmt.Errorf("no se pudo cargar la credencial (paso %q): %w", ce.Op, ce.Err)
		}
		return err
	}
	if err := report(out, cert, ruc, time.Now()); err != nil {
		return err
	}
	if c.Bool("firmar-prueba") {
		return signSample(c.Context, out, cert, ruc)
	}
	return nil
}

// report imprime los datos del certificado y falla si no está vigente.
func report(w io.Writer, cert tls.Certificate, ruc string, now time.Time) error {
	leaf := cert.Leaf
	if leaf == nil {
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return fmt.Errorf("parsear certificado: %w", err)
		}
		leaf = parsed
	}
	key, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return errors.New("la llave privada no es RSA")
	}

	fmt.Fprintf(w, "  Sujeto:    %s\n", leaf.Subject.String())
	fmt.Fprintf(w, "  Emisor:    %s\n", leaf.Issuer.String())
	fmt.Fprintf(w, "  Serie:     %s\n", leaf.SerialNumber.String())
	fmt.Fprintf(w, "  Llave:     RSA %d bits\n", key.N.BitLen())
	fmt.Fprintf(w, "  Vigencia:  %s → %s\n", leaf.NotBefore.Format(time.RFC3339), leaf.NotAfter.Format(time.RFC3339))

	if ruc != "" && !strings.Contains(leaf.Subject.String(), ruc) {
		fmt.Fprintf(w, "  AVISO: el sujeto no menciona el RUC %s\n", ruc)
	}
	switch {
	case now.Before(leaf.NotBefore):
		return fmt.Errorf("el certificado aún no es válido (desde %s)", leaf.NotBefore.Format(time.DateOnly))
	case now.After(leaf.NotAfter):
		return fmt.Errorf("el certificado venció el %s", leaf.NotAfter.Format(time.DateOnly))
	}
	if days := int(leaf.NotAfter.Sub(now).Hours() / 24); days < warnDays {
		fmt.Fprintf(w, "  AVISO: vence en %d días\n", days)
	}
	fmt.Fprintln(w, "OK: credencial válida")
	return nil
}

// signSample emite una factura mínima con la credencial y verifica la firma.
func signSample(ctx context.Context, w io.Writer, cert tls.Certificate, ruc string) error {
	if sunat.ValidateRUC(ruc) != nil {
		ruc = "20100066603"
	}
	uc := billing.NewInvoiceXMLUseCase(
		nil,
		infsunat.NewXMLBuilderService(),
		signer.NewDigitalSignatureService(),
		signer.NewStaticCredentialCache(cert),
		entity.Company{RUC: ruc, LegalName: "PRUEBA DE FIRMA"},
		logger.Nop(),
	)
	total := decimal.RequireFromString("118.00")
	signed, err := uc.GenerateSigned(ctx, dto.InvoiceXMLRequest{
		Series:     "F001",
		Number:     "1",
		Currency:   sunat.CurrencyPEN,
		GrandTotal: total,
		Customer:   dto.CustomerRequest{DocumentType: sunat.IdentityTypeDNI, DocumentNumber: "00000000", Name: "CLIENTE DE PRUEBA"},
		Items: []dto.InvoiceItemRequest{
			{Description: "ITEM DE PRUEBA", Quantity: decimal.NewFromInt(1), UnitPrice: total, LineTotal: total},
		},
	})
	if err != nil {
		return fmt.Errorf("firmar factura de prueba: %w", err)
	}
	v, err := uc.Verify(ctx, signed.XML)
	if err != nil {
		return fmt.Errorf("verificar factura de prueba: %w", err)
	}
	fmt.Fprintf(w, "OK: %s firmada y verificada (DigestValue %s)\n", signed.Filename, v.DigestValue)
	return nil
}

func runToken(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	ttl := c.Duration("vigencia")
	if ttl <= 0 {
		ttl = time.Duration(cfg.JWT.Expiration) * time.Minute
	}
	return issueToken(c.App.Writer, cfg.JWT, jwt.Identity{
		UserID: c.String("usuario"),
		RUC:    cfg.SUNAT.RUC,
		Role:   c.String("rol"),
	}, ttl)
}

// issueToken imprime un Bearer firmado; exige RUC válido para que la API lo acepte.
func issueToken(w io.Writer, cfg config.JWTConfig, id jwt.Identity, ttl time.Duration) error {
	if err := sunat.ValidateRUC(id.RUC); err != nil {
		return fmt.Errorf("SUNAT_RUC: %w", err)
	}
	tok, err := jwt.Generate(cfg.Secret, id, cfg.Issuer, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Bearer %s\n", tok)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
