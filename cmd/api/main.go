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

	"github.com/jhoicas/Compras-api/internal/application/catalog"
	"github.com/jhoicas/Compras-api/internal/application/inventory"
	"github.com/jhoicas/Compras-api/internal/application/purchasing"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
	"github.com/jhoicas/Compras-api/internal/infrastructure/credentials"
	"github.com/jhoicas/Compras-api/internal/infrastructure/mail"
	"github.com/jhoicas/Compras-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Compras-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Compras-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Compras-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/Compras-api/internal/interfaces/http"
	"github.com/jhoicas/Compras-api/pkg/config"
	"github.com/jhoicas/Compras-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

type txRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Persistencia: PostgreSQL o memoria (desarrollo sin base de datos)
	var (
		tx    txRunner
		repos repository.Repositories
	)
	switch cfg.DB.Driver {
	case "memory":
		store := memory.NewStore()
		tx, repos = store, store.Repositories()
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		tx, repos = postgres.NewTxRunner(pool), postgres.NewRepositories(pool)
	}

	// Adaptadores externos
	docStore, err := storage.NewDocumentStore(cfg.Purchasing.DocumentRoot)
	if err != nil {
		log.Fatal().Err(err).Str("root", cfg.Purchasing.DocumentRoot).Msg("carpeta de documentos")
	}
	secrets, err := credentials.NewLookup(cfg.SMTP.SecretKey)
	if err != nil {
		log.Fatal().Err(err).Msg("SMTP_SECRET_KEY")
	}

	loc := cfg.Purchasing.Location()
	ledgerUC := inventory.NewLedgerUseCase(tx, repos, loc, log.Component("inventory"))
	replenishmentUC := inventory.NewReplenishmentUseCase(repos)
	catalogUC := catalog.NewCatalogUseCase(tx, repos)
	pricingUC := catalog.NewPricingUseCase(tx, repos, log.Component("pricing"))
	candidateBuilder := purchasing.NewCandidateBuilder(repos, pricingUC)
	orderUC := purchasing.NewOrderUseCase(tx, repos, pricingUC, ledgerUC, candidateBuilder, cfg.Purchasing, log.Component("orders"))
	documentUC := purchasing.NewDocumentUseCase(tx, repos, pricingUC, purchasing.DocumentDeps{
		Renderer:    infrapdf.NewMarotoRenderer(cfg.Purchasing.DocumentFontPath),
		Store:       docStore,
		Mailer:      mail.NewSMTPMailer(cfg.SMTP),
		Credentials: secrets,
	}, cfg, log.Component("documents"))
	reconciliationUC := purchasing.NewReconciliationUseCase(tx, repos, orderUC, log.Component("requests"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (solo si se generó docs/swagger.json)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Compras API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:         ledgerUC,
		Replenishment:  replenishmentUC,
		Catalog:        catalogUC,
		Pricing:        pricingUC,
		Candidates:     candidateBuilder,
		Orders:         orderUC,
		Documents:      documentUC,
		Reconciliation: reconciliationUC,
		JWTSecret:      cfg.JWT.Secret,
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
