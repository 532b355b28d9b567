package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// InventoryRepo existencias y libro de inventario sobre PostgreSQL.
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador de inventario. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

// GetForUpdate obtiene las existencias y bloquea la fila (SELECT FOR UPDATE).
// Si la fila no existe devuelve existencias en 0 (la crea el Upsert posterior).
func (r *InventoryRepo) GetForUpdate(ctx context.Context, itemID int64) (*entity.InventoryItem, error) {
	var inv entity.InventoryItem
	err := r.q.QueryRow(ctx, `
		SELECT item_id, quantity_on_hand, updated_at
		FROM inventory_items WHERE item_id = $1
		FOR UPDATE`, itemID,
	).Scan(&inv.ItemID, &inv.QuantityOnHand, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.InventoryItem{ItemID: itemID}, nil
		}
		return nil, fmt.Errorf("get inventory for update: %w", err)
	}
	return &inv, nil
}

// Get existencias de un artículo, nil si no hay fila.
func (r *InventoryRepo) Get(ctx context.Context, itemID int64) (*entity.InventoryItem, error) {
	var inv entity.InventoryItem
	err := r.q.QueryRow(ctx, `
		SELECT item_id, quantity_on_hand, updated_at
		FROM inventory_items WHERE item_id = $1`, itemID,
	).Scan(&inv.ItemID, &inv.QuantityOnHand, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	return &inv, nil
}

// Upsert inserta o actualiza las existencias del artículo.
func (r *InventoryRepo) Upsert(ctx context.Context, inv *entity.InventoryItem) error {
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = time.Now()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_items (item_id, quantity_on_hand, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (item_id)
		DO UPDATE SET quantity_on_hand = EXCLUDED.quantity_on_hand, updated_at = EXCLUDED.updated_at`,
		inv.ItemID, inv.QuantityOnHand, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert inventory: %w", err)
	}
	return nil
}

// OnHandByItem existencias de todos los artículos con fila.
func (r *InventoryRepo) OnHandByItem(ctx context.Context) (map[int64]int, error) {
	rows, err := r.q.Query(ctx, `SELECT item_id, quantity_on_hand FROM inventory_items`)
	if err != nil {
		return nil, fmt.Errorf("list on hand: %w", err)
	}
	defer rows.Close()
	out := map[int64]int{}
	for rows.Next() {
		var id int64
		var qty int
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, fmt.Errorf("scan on hand: %w", err)
		}
		out[id] = qty
	}
	return out, rows.Err()
}

// AppendTransaction agrega una entrada al libro (nunca se modifican).
func (r *InventoryRepo) AppendTransaction(ctx context.Context, tx *entity.InventoryTransaction) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO inventory_transactions (batch_id, item_id, type, delta, reason, note, occurred_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		nullIfEmpty(tx.BatchID), tx.ItemID, tx.Type, tx.Delta, nullIfEmpty(tx.Reason), nullIfEmpty(tx.Note),
		tx.OccurredAt, nullIfEmpty(tx.CreatedBy),
	).Scan(&tx.ID)
	if err != nil {
		return fmt.Errorf("insert inventory transaction: %w", err)
	}
	return nil
}

const transactionColumns = `id, COALESCE(batch_id, ''), item_id, type, delta, COALESCE(reason, ''),
	COALESCE(note, ''), occurred_at, COALESCE(created_by, '')`

// ListTransactions entradas de un artículo, más recientes primero.
func (r *InventoryRepo) ListTransactions(ctx context.Context, itemID int64, limit int) ([]entity.InventoryTransaction, error) {
	return r.transactions(ctx, `
		SELECT `+transactionColumns+` FROM inventory_transactions
		WHERE item_id = $1 ORDER BY occurred_at DESC, id DESC LIMIT $2`, itemID, limitArg(limit))
}

// RecentTransactions entradas de todos los artículos, más recientes primero.
func (r *InventoryRepo) RecentTransactions(ctx context.Context, limit int) ([]entity.InventoryTransaction, error) {
	return r.transactions(ctx, `
		SELECT `+transactionColumns+` FROM inventory_transactions
		ORDER BY occurred_at DESC, id DESC LIMIT $1`, limitArg(limit))
}

// SumDeltas suma del libro de un artículo (debe coincidir con quantity_on_hand).
func (r *InventoryRepo) SumDeltas(ctx context.Context, itemID int64) (int, error) {
	var sum int
	if err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(delta), 0) FROM inventory_transactions WHERE item_id = $1`, itemID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum inventory deltas: %w", err)
	}
	return sum, nil
}

func (r *InventoryRepo) transactions(ctx context.Context, query string, args ...any) ([]entity.InventoryTransaction, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory transactions: %w", err)
	}
	defer rows.Close()
	list := make([]entity.InventoryTransaction, 0)
	for rows.Next() {
		var t entity.InventoryTransaction
		if err := rows.Scan(&t.ID, &t.BatchID, &t.ItemID, &t.Type, &t.Delta, &t.Reason,
			&t.Note, &t.OccurredAt, &t.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan inventory transaction: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
