// export_results vuelca el registro de compras (entregas recibidas) de un periodo a un .xlsx.
//
//	go run ./cmd/export_results -from 2026-04-01 -to 2026-04-30 -out compras_abril.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jhoicas/Compras-api/internal/application/catalog"
	"github.com/jhoicas/Compras-api/internal/application/inventory"
	"github.com/jhoicas/Compras-api/internal/application/purchasing"
	"github.com/jhoicas/Compras-api/internal/infrastructure/export"
	"github.com/jhoicas/Compras-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Compras-api/pkg/config"
	"github.com/jhoicas/Compras-api/pkg/logger"
)

func main() {
	from := flag.String("from", "", "Required: fecha inicial (YYYY-MM-DD)")
	to := flag.String("to", "", "Required: fecha final (YYYY-MM-DD)")
	out := flag.String("out", "", "Optional: fichero de salida (por defecto purchase_results_<from>_<to>.xlsx)")
	flag.Parse()

	if strings.TrimSpace(*from) == "" || strings.TrimSpace(*to) == "" {
		fmt.Fprintln(os.Stderr, "-from y -to son obligatorios")
		os.Exit(1)
	}
	if *out == "" {
		*out = fmt.Sprintf("purchase_results_%s_%s.xlsx", *from, *to)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "export_results"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	tx, repos := postgres.NewTxRunner(pool), postgres.NewRepositories(pool)
	zl := log.Zerolog()
	pricing := catalog.NewPricingUseCase(tx, repos, zl)
	ledger := inventory.NewLedgerUseCase(tx, repos, cfg.Purchasing.Location(), zl)
	orders := purchasing.NewOrderUseCase(tx, repos, pricing, ledger, purchasing.NewCandidateBuilder(repos, pricing), cfg.Purchasing, zl)

	rows, err := orders.PurchaseResults(ctx, *from, *to)
	if err != nil {
		log.Fatal().Err(err).Msg("leer registro de compras")
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal().Err(err).Str("out", *out).Msg("crear fichero")
	}
	if err := export.WriteResults(f, rows); err != nil {
		_ = f.Close()
		log.Fatal().Err(err).Msg("escribir libro")
	}
	if err := f.Close(); err != nil {
		log.Fatal().Err(err).Msg("cerrar fichero")
	}
	log.Info().Int("rows", len(rows)).Str("out", *out).Msg("registro de compras exportado")
}
