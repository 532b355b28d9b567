package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

type inventoryRepo struct{ s *Store }

var _ repository.InventoryRepository = (*inventoryRepo)(nil)

// GetForUpdate en memoria el bloqueo lo da la serialización de Store.Run.
func (r *inventoryRepo) GetForUpdate(_ context.Context, itemID int64) (*entity.InventoryItem, error) {
	out := &entity.InventoryItem{ItemID: itemID}
	r.s.read(func(d *state) {
		if inv, ok := d.inventory[itemID]; ok {
			cp := *inv
			out = &cp
		}
	})
	return out, nil
}

func (r *inventoryRepo) Get(_ context.Context, itemID int64) (*entity.InventoryItem, error) {
	var out *entity.InventoryItem
	r.s.read(func(d *state) {
		if inv, ok := d.inventory[itemID]; ok {
			cp := *inv
			out = &cp
		}
	})
	return out, nil
}

func (r *inventoryRepo) Upsert(_ context.Context, inv *entity.InventoryItem) error {
	return r.s.write(func(d *state) error {
		cp := *inv
		d.inventory[inv.ItemID] = &cp
		return nil
	})
}

func (r *inventoryRepo) OnHandByItem(_ context.Context) (map[int64]int, error) {
	out := map[int64]int{}
	r.s.read(func(d *state) {
		for id, inv := range d.inventory {
			out[id] = inv.QuantityOnHand
		}
	})
	return out, nil
}

func (r *inventoryRepo) AppendTransaction(_ context.Context, tx *entity.InventoryTransaction) error {
	return r.s.write(func(d *state) error {
		tx.ID = d.next("inventory_transactions")
		d.transactions = append(d.transactions, *tx)
		return nil
	})
}

func (r *inventoryRepo) ListTransactions(_ context.Context, itemID int64, limit int) ([]entity.InventoryTransaction, error) {
	return r.recent(func(t entity.InventoryTransaction) bool { return t.ItemID == itemID }, limit), nil
}

func (r *inventoryRepo) RecentTransactions(_ context.Context, limit int) ([]entity.InventoryTransaction, error) {
	return r.recent(func(entity.InventoryTransaction) bool { return true }, limit), nil
}

func (r *inventoryRepo) SumDeltas(_ context.Context, itemID int64) (int, error) {
	sum := 0
	r.s.read(func(d *state) {
		for _, t := range d.transactions {
			if t.ItemID == itemID {
				sum += t.Delta
			}
		}
	})
	return sum, nil
}

// recent más recientes primero (fecha y luego id descendente).
func (r *inventoryRepo) recent(match func(entity.InventoryTransaction) bool, limit int) []entity.InventoryTransaction {
	out := make([]entity.InventoryTransaction, 0)
	r.s.read(func(d *state) {
		for _, t := range d.transactions {
			if match(t) {
				out = append(out, t)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
