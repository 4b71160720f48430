package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturador-api/internal/application/billing"
	"github.com/jhoicas/Facturador-api/internal/application/dto"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	InvoiceUC *billing.InvoiceXMLUseCase
	Auth      AuthConfig
	Service   string // nombre reportado por /health
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(dto.HealthResponse{Status: "ok", Service: deps.Service})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.Auth))
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC)

	// Emisión: admin o facturador
	issuers := RequireRole(RoleAdmin, RoleFacturador)
	protected.Post("/invoices/xml", issuers, invoiceHandler.GenerateXML)
	protected.Get("/sales/:id/xml", issuers, invoiceHandler.GenerateForSale)

	// Verificación: cualquier rol de la API
	protected.Post("/invoices/verify", RequireRole(RoleAdmin, RoleFacturador, RoleAuditor), invoiceHandler.Verify)
}
