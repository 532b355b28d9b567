package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// ── Artículos ────────────────────────────────────────────────────────────────

type itemRepo struct{ s *Store }

var _ repository.ItemRepository = (*itemRepo)(nil)

func (r *itemRepo) Create(_ context.Context, item *entity.Item) error {
	return r.s.write(func(d *state) error {
		for _, it := range d.items {
			if it.Code == item.Code {
				return fmt.Errorf("%w: código %q", domain.ErrDuplicate, item.Code)
			}
		}
		item.ID = d.next("items")
		cp := *item
		d.items[item.ID] = &cp
		return nil
	})
}

func (r *itemRepo) GetByID(_ context.Context, id int64) (*entity.Item, error) {
	var out *entity.Item
	r.s.read(func(d *state) {
		if it, ok := d.items[id]; ok {
			cp := *it
			out = &cp
		}
	})
	return out, nil
}

func (r *itemRepo) GetByCode(_ context.Context, code string) (*entity.Item, error) {
	var out *entity.Item
	r.s.read(func(d *state) {
		for _, it := range d.items {
			if it.Code == code {
				cp := *it
				out = &cp
				return
			}
		}
	})
	return out, nil
}

func (r *itemRepo) Update(_ context.Context, item *entity.Item) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.items[item.ID]; !ok {
			return domain.ErrNotFound
		}
		cp := *item
		d.items[item.ID] = &cp
		return nil
	})
}

func (r *itemRepo) List(_ context.Context, filter repository.ItemFilter) ([]*entity.Item, error) {
	out := make([]*entity.Item, 0)
	r.s.read(func(d *state) {
		for _, it := range d.items {
			if filter.Department != "" && it.Department != filter.Department {
				continue
			}
			if filter.OnlyActive && !it.IsActive {
				continue
			}
			cp := *it
			out = append(out, &cp)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *itemRepo) CountBySupplier(_ context.Context, supplierID int64) (int, error) {
	n := 0
	r.s.read(func(d *state) {
		for _, it := range d.items {
			if it.SupplierID != nil && *it.SupplierID == supplierID {
				n++
			}
		}
	})
	return n, nil
}

// ── Proveedores ──────────────────────────────────────────────────────────────

type supplierRepo struct{ s *Store }

var _ repository.SupplierRepository = (*supplierRepo)(nil)

func (r *supplierRepo) Create(_ context.Context, sup *entity.Supplier) error {
	return r.s.write(func(d *state) error {
		if err := uniqueSupplierName(d, sup); err != nil {
			return err
		}
		sup.ID = d.next("suppliers")
		cp := *sup
		d.suppliers[sup.ID] = &cp
		return nil
	})
}

func (r *supplierRepo) GetByID(_ context.Context, id int64) (*entity.Supplier, error) {
	var out *entity.Supplier
	r.s.read(func(d *state) {
		if s, ok := d.suppliers[id]; ok {
			cp := *s
			out = &cp
		}
	})
	return out, nil
}

func (r *supplierRepo) Update(_ context.Context, sup *entity.Supplier) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.suppliers[sup.ID]; !ok {
			return domain.ErrNotFound
		}
		if err := uniqueSupplierName(d, sup); err != nil {
			return err
		}
		cp := *sup
		d.suppliers[sup.ID] = &cp
		return nil
	})
}

func (r *supplierRepo) Delete(_ context.Context, id int64) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.suppliers[id]; !ok {
			return domain.ErrNotFound
		}
		delete(d.suppliers, id)
		for k := range d.prices {
			if k.supplierID == id {
				delete(d.prices, k)
			}
		}
		return nil
	})
}

func (r *supplierRepo) List(_ context.Context) ([]*entity.Supplier, error) {
	out := make([]*entity.Supplier, 0)
	r.s.read(func(d *state) {
		for _, s := range d.suppliers {
			cp := *s
			out = append(out, &cp)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func uniqueSupplierName(d *state, sup *entity.Supplier) error {
	for _, s := range d.suppliers {
		if s.ID != sup.ID && strings.EqualFold(s.Name, sup.Name) {
			return fmt.Errorf("%w: proveedor %q", domain.ErrDuplicate, sup.Name)
		}
	}
	return nil
}

// ── Precios artículo-proveedor ───────────────────────────────────────────────

type priceRepo struct{ s *Store }

var _ repository.ItemSupplierRepository = (*priceRepo)(nil)

func (r *priceRepo) Get(_ context.Context, itemID, supplierID int64) (*entity.ItemSupplier, error) {
	var out *entity.ItemSupplier
	r.s.read(func(d *state) {
		if row, ok := d.prices[priceKey{itemID, supplierID}]; ok {
			cp := *row
			out = &cp
		}
	})
	return out, nil
}

func (r *priceRepo) ListByItem(_ context.Context, itemID int64) ([]entity.ItemSupplier, error) {
	out := make([]entity.ItemSupplier, 0)
	r.s.read(func(d *state) {
		for k, row := range d.prices {
			if k.itemID == itemID {
				out = append(out, *row)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SupplierID < out[j].SupplierID })
	return out, nil
}

func (r *priceRepo) Upsert(_ context.Context, row *entity.ItemSupplier) error {
	return r.s.write(func(d *state) error {
		cp := *row
		if cp.UpdatedAt.IsZero() {
			cp.UpdatedAt = time.Now()
		}
		d.prices[priceKey{row.ItemID, row.SupplierID}] = &cp
		return nil
	})
}

func (r *priceRepo) CreateIfAbsent(_ context.Context, itemID, supplierID int64) (bool, error) {
	created := false
	err := r.s.write(func(d *state) error {
		k := priceKey{itemID, supplierID}
		if _, ok := d.prices[k]; ok {
			return nil
		}
		d.prices[k] = &entity.ItemSupplier{ItemID: itemID, SupplierID: supplierID, UpdatedAt: time.Now()}
		created = true
		return nil
	})
	return created, err
}

func (r *priceRepo) AddPriceHistory(_ context.Context, h *entity.UnitPriceHistory) error {
	return r.s.write(func(d *state) error {
		h.ID = d.next("price_history")
		d.history = append(d.history, *h)
		return nil
	})
}

func (r *priceRepo) ListPriceHistory(_ context.Context, itemID int64) ([]entity.UnitPriceHistory, error) {
	out := make([]entity.UnitPriceHistory, 0)
	r.s.read(func(d *state) {
		for _, h := range d.history {
			if h.ItemID == itemID {
				out = append(out, h)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
