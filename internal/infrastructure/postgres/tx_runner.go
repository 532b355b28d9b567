package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Compras-api/internal/application/catalog"
	"github.com/jhoicas/Compras-api/internal/application/inventory"
	"github.com/jhoicas/Compras-api/internal/application/purchasing"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// Ensure TxRunner implements los TxRunner de inventario, catálogo y compras.
var (
	_ inventory.TxRunner  = (*TxRunner)(nil)
	_ catalog.TxRunner    = (*TxRunner)(nil)
	_ purchasing.TxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// NewRepositories repositorios sobre q (pool para lecturas sueltas, tx dentro de Run).
func NewRepositories(q Querier) repository.Repositories {
	return repository.Repositories{
		Items:     NewItemRepository(q),
		Suppliers: NewSupplierRepository(q),
		Prices:    NewItemSupplierRepository(q),
		Inventory: NewInventoryRepository(q),
		Orders:    NewPurchaseOrderRepository(q),
		Requests:  NewUnmanagedRequestRepository(q),
		Results:   NewPurchaseResultRepository(q),
	}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
