package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Facturador-api/internal/application/dto"
	"github.com/jhoicas/Facturador-api/internal/domain"
	"github.com/jhoicas/Facturador-api/internal/domain/entity"
	"github.com/jhoicas/Facturador-api/internal/domain/repository"
	domsunat "github.com/jhoicas/Facturador-api/internal/domain/sunat"
	infsunat "github.com/jhoicas/Facturador-api/internal/infrastructure/sunat"
	"github.com/jhoicas/Facturador-api/internal/infrastructure/sunat/signer"
	"github.com/jhoicas/Facturador-api/pkg/logger"
	"github.com/jhoicas/Facturador-api/pkg/sunat"
)

var tracer = otel.Tracer("facturador/billing")

// InvoiceXMLUseCase orquesta la emisión del XML firmado:
//
//	validar → XML UBL 2.1 → firma XML-DSig → (ZIP)
//
// No guarda estado entre llamadas; el emisor y la credencial son fijos por despliegue.
type InvoiceXMLUseCase struct {
	sales   repository.SaleRepository
	builder DocumentBuilder
	signer  sunat.Signer
	creds   CredentialSource
	company entity.Company
	taxRate decimal.Decimal
	log     *logger.Logger
	now     func() time.Time
}

// NewInvoiceXMLUseCase construye el caso de uso. sales puede ser nil si sólo se
// emite desde JSON (POST /api/invoices/xml).
func NewInvoiceXMLUseCase(
	sales repository.SaleRepository,
	builder DocumentBuilder,
	sgn sunat.Signer,
	creds CredentialSource,
	company entity.Company,
	log *logger.Logger,
) *InvoiceXMLUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceXMLUseCase{
		sales:   sales,
		builder: builder,
		signer:  sgn,
		creds:   creds,
		company: company,
		taxRate: sunat.IGVRateDecimal(),
		log:     log,
		now:     time.Now,
	}
}

// SignedInvoice XML firmado listo para entregar.
type SignedInvoice struct {
	InvoiceID   string // SERIE-NUMERO
	Filename    string // {RUC}-01-{SERIE}-{NUMERO}.xml
	XML         []byte
	DigestValue string
	QR          string
	Taxable     decimal.Decimal
	Tax         decimal.Decimal
}

// InvoicePackage ZIP que se transmite a SUNAT.
type InvoicePackage struct {
	Filename string
	Data     []byte
}

// GenerateSigned emite la factura descrita en el request.
func (uc *InvoiceXMLUseCase) GenerateSigned(ctx context.Context, in dto.InvoiceXMLRequest) (*SignedInvoice, error) {
	invoice, customer := uc.fromRequest(in)
	return uc.generate(ctx, customer, invoice)
}

// GenerateSignedForSale emite la factura de una venta registrada.
func (uc *InvoiceXMLUseCase) GenerateSignedForSale(ctx context.Context, saleID string) (*SignedInvoice, error) {
	if strings.TrimSpace(saleID) == "" {
		return nil, fmt.Errorf("%w: id de venta vacío", domain.ErrInvalidInput)
	}
	if uc.sales == nil {
		return nil, fmt.Errorf("billing: origen de ventas no configurado")
	}
	sale, err := uc.sales.GetSale(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("billing: obtener venta %s: %w", saleID, err)
	}
	if sale == nil {
		return nil, fmt.Errorf("billing: venta %s: %w", saleID, domain.ErrNotFound)
	}
	return uc.generate(ctx, &sale.Customer, &sale.Invoice)
}

// Package empaqueta el XML firmado en el ZIP con el mismo nombre base.
func (uc *InvoiceXMLUseCase) Package(signed *SignedInvoice) (*InvoicePackage, error) {
	if signed == nil || len(signed.XML) == 0 {
		return nil, fmt.Errorf("%w: no hay XML firmado", domain.ErrInvalidInput)
	}
	data, err := infsunat.CompressXMLToZip(signed.XML, signed.Filename)
	if err != nil {
		return nil, err
	}
	return &InvoicePackage{
		Filename: strings.TrimSuffix(signed.Filename, ".xml") + ".zip",
		Data:     data,
	}, nil
}

// Verify comprueba un XML firmado (digest y firma RSA).
func (uc *InvoiceXMLUseCase) Verify(ctx context.Context, signedXML []byte) (*signer.Verification, error) {
	_, span := tracer.Start(ctx, "invoice.verify")
	defer span.End()

	v, err := signer.Verify(signedXML)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return v, nil
}

func (uc *InvoiceXMLUseCase) generate(ctx context.Context, customer *entity.Customer, src *entity.Invoice) (*SignedInvoice, error) {
	inv := *src
	company := uc.company

	ctx, span := tracer.Start(ctx, "invoice.generate", trace.WithAttributes(
		attribute.String("invoice.series", inv.Series),
		attribute.String("invoice.currency", inv.CurrencyCode),
		attribute.Int("invoice.lines", len(inv.Lines)),
	))
	defer span.End()

	// Un correlativo inválido lo reporta el builder junto con el resto de errores.
	if number, err := domsunat.NormalizeNumber(inv.Number); err == nil {
		inv.Number = number
	}
	log := uc.log.With().Str("invoice_id", inv.DocumentID()).Logger()
	span.SetAttributes(attribute.String("invoice.id", inv.DocumentID()))

	// La venta garantiza total = cantidad × precio; aquí sólo se deja constancia.
	for i, l := range inv.Lines {
		if drift := domsunat.LineTotalDrift(l); !drift.IsZero() {
			log.Warn().Int("line", i+1).Str("drift", drift.StringFixed(domsunat.MoneyScale)).
				Msg("total de línea distinto de cantidad × precio")
		}
	}

	_, buildSpan := tracer.Start(ctx, "invoice.build")
	xmlBytes, err := uc.builder.Build(&infsunat.InvoiceBuildContext{
		Company:  &company,
		Customer: customer,
		Invoice:  &inv,
		TaxRate:  uc.taxRate,
	})
	buildSpan.End()
	if err != nil {
		return nil, uc.fail(span, log, "build", err)
	}

	cert, err := uc.creds.Get()
	if err != nil {
		return nil, uc.fail(span, log, "credential", err)
	}

	_, signSpan := tracer.Start(ctx, "invoice.sign")
	signed, err := uc.signer.Sign(xmlBytes, cert)
	signSpan.End()
	if err != nil {
		return nil, uc.fail(span, log, "sign", err)
	}

	digest, err := signer.DigestValue(signed)
	if err != nil {
		return nil, uc.fail(span, log, "digest", err)
	}

	totals := domsunat.DecomposeInvoice(inv.GrandTotal, lineInputs(inv.Lines), uc.taxRate)
	if drift := totals.LineDrift(); !drift.IsZero() {
		log.Debug().Str("drift", drift.StringFixed(domsunat.MoneyScale)).Msg("descuadre por redondeo entre líneas y total")
	}
	xmlName, _ := infsunat.Filenames(company.RUC, inv.Series, inv.Number)

	log.Info().
		Str("currency", inv.CurrencyCode).
		Int("lines", len(inv.Lines)).
		Str("taxable", totals.Taxable.StringFixed(domsunat.MoneyScale)).
		Str("igv", totals.Tax.StringFixed(domsunat.MoneyScale)).
		Str("digest", digest).
		Msg("factura firmada")

	return &SignedInvoice{
		InvoiceID:   inv.DocumentID(),
		Filename:    xmlName,
		XML:         signed,
		DigestValue: digest,
		QR:          domsunat.QRSummary(&company, customer, &inv, totals, digest),
		Taxable:     totals.Taxable,
		Tax:         totals.Tax,
	}, nil
}

func (uc *InvoiceXMLUseCase) fail(span trace.Span, log zerolog.Logger, step string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, step)
	ev := log.Error()
	if errors.Is(err, sunat.ErrInvalidInvoice) {
		ev = log.Warn()
	}
	ev.Str("step", step).Err(err).Msg("no se pudo emitir la factura")
	return err
}

func (uc *InvoiceXMLUseCase) fromRequest(in dto.InvoiceXMLRequest) (*entity.Invoice, *entity.Customer) {
	issue := in.IssueDate
	if issue.IsZero() {
		issue = uc.now().In(sunat.Lima)
	}
	lines := make([]entity.InvoiceLine, len(in.Items))
	for i, it := range in.Items {
		lines[i] = entity.InvoiceLine{
			ProductCode: it.ProductCode,
			Description: it.Description,
			UnitCode:    it.UnitCode,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		}
	}
	invoice := &entity.Invoice{
		Series:       strings.ToUpper(strings.TrimSpace(in.Series)),
		Number:       strings.TrimSpace(in.Number),
		IssueDate:    issue,
		CurrencyCode: strings.ToUpper(strings.TrimSpace(in.Currency)),
		GrandTotal:   in.GrandTotal,
		Lines:        lines,
	}
	customer := &entity.Customer{
		DocumentTypeCode: strings.TrimSpace(in.Customer.DocumentType),
		DocumentNumber:   strings.TrimSpace(in.Customer.DocumentNumber),
		Name:             in.Customer.Name,
		Address:          in.Customer.Address,
	}
	return invoice, customer
}

func lineInputs(lines []entity.InvoiceLine) []domsunat.LineInput {
	out := make([]domsunat.LineInput, len(lines))
	for i, l := range lines {
		out[i] = domsunat.LineInput{UnitPriceIncTax: l.UnitPrice, LineTotalIncTax: l.LineTotal}
	}
	return out
}
