package repository

import (
	"context"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// InventoryRepository existencias y libro de transacciones.
// Usado dentro de transacciones para garantizar que on_hand == suma de deltas.
type InventoryRepository interface {
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE). Si no existe devuelve una fila en 0.
	GetForUpdate(ctx context.Context, itemID int64) (*entity.InventoryItem, error)
	Get(ctx context.Context, itemID int64) (*entity.InventoryItem, error)
	Upsert(ctx context.Context, inv *entity.InventoryItem) error
	// OnHandByItem existencias de todos los artículos (los ausentes cuentan como 0).
	OnHandByItem(ctx context.Context) (map[int64]int, error)
	AppendTransaction(ctx context.Context, tx *entity.InventoryTransaction) error
	ListTransactions(ctx context.Context, itemID int64, limit int) ([]entity.InventoryTransaction, error)
	RecentTransactions(ctx context.Context, limit int) ([]entity.InventoryTransaction, error)
	SumDeltas(ctx context.Context, itemID int64) (int, error)
}
