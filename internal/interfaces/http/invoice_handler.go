package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturador-api/internal/application/billing"
	"github.com/jhoicas/Facturador-api/internal/application/dto"
	"github.com/jhoicas/Facturador-api/internal/domain"
	"github.com/jhoicas/Facturador-api/internal/infrastructure/sunat/signer"
	"github.com/jhoicas/Facturador-api/pkg/sunat"
)

// Cabeceras informativas de la factura firmada.
const (
	HeaderDigestValue = "X-Digest-Value"
	HeaderInvoiceID   = "X-Invoice-ID"
	mimeXML           = "application/xml"
	mimeZIP           = "application/zip"
)

// InvoiceHandler maneja la emisión y verificación de facturas firmadas (protegido).
type InvoiceHandler struct {
	uc *billing.InvoiceXMLUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *billing.InvoiceXMLUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// GenerateXML godoc
// @Summary      Emitir factura firmada (UBL 2.1 + XML-DSig)
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      application/xml
// @Param        body  body  dto.InvoiceXMLRequest  true  "serie, correlativo, moneda, total con IGV, adquiriente y líneas"
// @Success      200   {string}  string  "XML firmado como adjunto {ruc}-01-{serie}-{numero}.xml"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/invoices/xml [post]
func (h *InvoiceHandler) GenerateXML(c *fiber.Ctx) error {
	var in dto.InvoiceXMLRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	signed, err := h.uc.GenerateSigned(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return sendSigned(c, signed)
}

// GenerateForSale godoc
// @Summary      Emitir factura firmada de una venta registrada
// @Tags         invoices
// @Security     Bearer
// @Produce      application/xml
// @Produce      application/zip
// @Param        id      path   string  true   "ID de la venta"
// @Param        format  query  string  false  "xml (por defecto) o zip"
// @Success      200     {string}  string  "XML firmado o ZIP para SUNAT"
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Failure      500     {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/xml [get]
func (h *InvoiceHandler) GenerateForSale(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	format := strings.ToLower(c.Query("format", "xml"))
	if format != "xml" && format != "zip" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "format debe ser xml o zip"})
	}
	signed, err := h.uc.GenerateSignedForSale(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	if format == "xml" {
		return sendSigned(c, signed)
	}
	pkg, err := h.uc.Package(signed)
	if err != nil {
		return writeError(c, err)
	}
	c.Attachment(pkg.Filename)
	c.Set(fiber.HeaderContentType, mimeZIP)
	c.Set(HeaderInvoiceID, signed.InvoiceID)
	c.Set(HeaderDigestValue, signed.DigestValue)
	return c.Send(pkg.Data)
}

// Verify godoc
// @Summary      Verificar la firma de un XML
// @Description  Recalcula el digest y valida la firma RSA con el certificado embebido. No valida la cadena de confianza.
// @Tags         invoices
// @Security     Bearer
// @Accept       application/xml
// @Produce      json
// @Param        body  body  string  true  "XML firmado"
// @Success      200   {object}  dto.VerificationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.VerificationResponse
// @Router       /api/invoices/verify [post]
func (h *InvoiceHandler) Verify(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "se espera el XML firmado en el cuerpo"})
	}
	v, err := h.uc.Verify(c.UserContext(), body)
	if err != nil {
		if errors.Is(err, signer.ErrSignatureMismatch) || errors.Is(err, sunat.ErrDocument) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.VerificationResponse{Valid: false, Error: err.Error()})
		}
		return writeError(c, err)
	}
	return c.JSON(dto.VerificationResponse{
		Valid:        true,
		DigestValue:  v.DigestValue,
		Subject:      v.Subject,
		SerialNumber: v.SerialNumber,
		NotBefore:    &v.NotBefore,
		NotAfter:     &v.NotAfter,
	})
}

func sendSigned(c *fiber.Ctx, signed *billing.SignedInvoice) error {
	c.Attachment(signed.Filename)
	c.Set(fiber.HeaderContentType, mimeXML)
	c.Set(HeaderInvoiceID, signed.InvoiceID)
	c.Set(HeaderDigestValue, signed.DigestValue)
	return c.Send(signed.XML)
}

// writeError traduce los errores del caso de uso a HTTP. Las fallas de
// credencial o de documento son problemas de configuración del servidor.
func writeError(c *fiber.Ctx, err error) error {
	status, body := fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
	switch {
	case errors.Is(err, sunat.ErrInvalidInvoice), errors.Is(err, domain.ErrInvalidInput):
		status, body = fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		status, body = fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: "venta no encontrada"}
	case errors.Is(err, sunat.ErrCredential):
		body = dto.ErrorResponse{Code: "CREDENTIAL", Message: "credencial de firma no disponible"}
	case errors.Is(err, sunat.ErrDocument):
		body = dto.ErrorResponse{Code: "DOCUMENT", Message: "no se pudo firmar el documento"}
	}
	body.RequestID = GetRequestID(c)
	return c.Status(status).JSON(body)
}
