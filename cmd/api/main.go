package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Facturador-api/docs"
	"github.com/jhoicas/Facturador-api/internal/application/billing"
	"github.com/jhoicas/Facturador-api/internal/domain/entity"
	"github.com/jhoicas/Facturador-api/internal/domain/repository"
	"github.com/jhoicas/Facturador-api/internal/infrastructure/postgres"
	infsunat "github.com/jhoicas/Facturador-api/internal/infrastructure/sunat"
	"github.com/jhoicas/Facturador-api/internal/infrastructure/sunat/signer"
	httpRouter "github.com/jhoicas/Facturador-api/internal/interfaces/http"
	"github.com/jhoicas/Facturador-api/pkg/config"
	"github.com/jhoicas/Facturador-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("ruc", cfg.SUNAT.RUC).
		Msg("iniciando aplicación")

	if err := cfg.SUNAT.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración SUNAT incompleta")
	}

	// La credencial se lee una sola vez; si no abre, no tiene sentido levantar el servidor.
	creds := signer.NewCredentialCache(cfg.SUNAT.CertPath, cfg.SUNAT.CertPassword)
	if _, err := creds.Get(); err != nil {
		log.Fatal().Err(err).Msg("certificado de firma")
	}

	// La base de ventas es opcional: sin ella sólo se emite desde JSON.
	ctx := context.Background()
	var sales repository.SaleRepository
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Warn().Err(err).Msg("PostgreSQL no disponible; GET /api/sales/:id/xml deshabilitado")
	} else {
		defer pool.Close()
		sales = postgres.NewSaleRepository(pool)
	}

	invoiceUC := billing.NewInvoiceXMLUseCase(
		sales,
		infsunat.NewXMLBuilderService(),
		signer.NewDigitalSignatureService(),
		creds,
		entity.Company{
			RUC:             cfg.SUNAT.RUC,
			LegalName:       cfg.SUNAT.LegalName,
			TradeName:       cfg.SUNAT.TradeName,
			AddressTypeCode: cfg.SUNAT.AddressTypeCode,
		},
		log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath:    "/",
		FileContent: []byte(docs.SwaggerInfo.ReadDoc()),
		Path:        "docs",
		Title:       "Facturador API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		InvoiceUC: invoiceUC,
		Auth: httpRouter.AuthConfig{
			Secret: cfg.JWT.Secret,
			Issuer: cfg.JWT.Issuer,
			RUC:    cfg.SUNAT.RUC,
		},
		Service: cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
