package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

type orderRepo struct{ s *Store }

var _ repository.PurchaseOrderRepository = (*orderRepo)(nil)

func (r *orderRepo) Create(_ context.Context, order *entity.PurchaseOrder) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.orders[order.ID]; ok {
			return fmt.Errorf("%w: pedido %d", domain.ErrDuplicate, order.ID)
		}
		for i := range order.Lines {
			order.Lines[i].ID = d.next("purchase_order_lines")
			order.Lines[i].PurchaseOrderID = order.ID
		}
		d.orders[order.ID] = copyOrder(order)
		return nil
	})
}

func (r *orderRepo) GetByID(_ context.Context, id int64) (*entity.PurchaseOrder, error) {
	var out *entity.PurchaseOrder
	r.s.read(func(d *state) {
		if o, ok := d.orders[id]; ok {
			out = copyOrder(o)
		}
	})
	return out, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	return r.GetByID(ctx, id)
}

// Update guarda cabecera y estado de las líneas existentes (no agrega ni quita líneas).
func (r *orderRepo) Update(_ context.Context, order *entity.PurchaseOrder) error {
	return r.s.write(func(d *state) error {
		cur, ok := d.orders[order.ID]
		if !ok {
			return domain.ErrNotFound
		}
		next := copyOrder(order)
		next.Lines = cur.Lines
		for i := range next.Lines {
			if l := order.Line(next.Lines[i].ID); l != nil {
				next.Lines[i] = *l
			}
		}
		d.orders[order.ID] = next
		return nil
	})
}

func (r *orderRepo) Delete(_ context.Context, id int64) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.orders[id]; !ok {
			return domain.ErrNotFound
		}
		delete(d.orders, id)
		delete(d.documents, id)
		return nil
	})
}

func (r *orderRepo) List(_ context.Context, filter repository.OrderFilter) ([]*entity.PurchaseOrder, error) {
	excluded := make(map[entity.OrderStatus]bool, len(filter.ExcludeStatuses))
	for _, s := range filter.ExcludeStatuses {
		excluded[s] = true
	}
	out := make([]*entity.PurchaseOrder, 0)
	r.s.read(func(d *state) {
		for _, o := range d.orders {
			if excluded[o.Status] {
				continue
			}
			if filter.Department != "" && o.Department != filter.Department {
				continue
			}
			out = append(out, copyOrder(o))
		}
	})
	sortNewestFirst(out)
	return out, nil
}

func (r *orderRepo) IDs(_ context.Context) ([]int64, error) {
	ids := make([]int64, 0)
	r.s.read(func(d *state) {
		for id := range d.orders {
			ids = append(ids, id)
		}
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *orderRepo) FindRecent(_ context.Context, q repository.DuplicateQuery) ([]*entity.PurchaseOrder, error) {
	user := strings.TrimSpace(q.OrderedByUser)
	out := make([]*entity.PurchaseOrder, 0)
	r.s.read(func(d *state) {
		for _, o := range d.orders {
			if o.Status == entity.OrderStatusCancelled || o.SupplierID != q.SupplierID {
				continue
			}
			if o.Department != q.Department || strings.TrimSpace(o.OrderedByUser) != user {
				continue
			}
			if o.CreatedAt.Before(q.CreatedSince) {
				continue
			}
			out = append(out, copyOrder(o))
		}
	})
	sortNewestFirst(out)
	return out, nil
}

func (r *orderRepo) ItemIDsInStatuses(_ context.Context, statuses []entity.OrderStatus) (map[int64]bool, error) {
	wanted := make(map[entity.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	out := map[int64]bool{}
	r.s.read(func(d *state) {
		for _, o := range d.orders {
			if !wanted[o.Status] {
				continue
			}
			for _, l := range o.Lines {
				if l.ItemID != nil {
					out[*l.ItemID] = true
				}
			}
		}
	})
	return out, nil
}

func (r *orderRepo) GetLine(_ context.Context, lineID int64) (*entity.PurchaseOrderLine, error) {
	var out *entity.PurchaseOrderLine
	r.s.read(func(d *state) {
		for _, o := range d.orders {
			if l := o.Line(lineID); l != nil {
				cp := *l
				out = &cp
				return
			}
		}
	})
	return out, nil
}

func (r *orderRepo) CountBySupplier(_ context.Context, supplierID int64) (int, error) {
	n := 0
	r.s.read(func(d *state) {
		for _, o := range d.orders {
			if o.SupplierID == supplierID {
				n++
			}
		}
	})
	return n, nil
}

func (r *orderRepo) GetDocument(_ context.Context, orderID int64) (*entity.PurchaseOrderDocument, error) {
	var out *entity.PurchaseOrderDocument
	r.s.read(func(d *state) {
		if doc, ok := d.documents[orderID]; ok {
			cp := *doc
			out = &cp
		}
	})
	return out, nil
}

func (r *orderRepo) UpsertDocument(_ context.Context, doc *entity.PurchaseOrderDocument) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.orders[doc.PurchaseOrderID]; !ok {
			return domain.ErrNotFound
		}
		cp := *doc
		d.documents[doc.PurchaseOrderID] = &cp
		return nil
	})
}

func (r *orderRepo) AddEmailLog(_ context.Context, log *entity.EmailSendLog) error {
	return r.s.write(func(d *state) error {
		log.ID = d.next("email_send_logs")
		d.emailLogs = append(d.emailLogs, *log)
		return nil
	})
}

func (r *orderRepo) ListEmailLogs(_ context.Context, orderID int64) ([]entity.EmailSendLog, error) {
	out := make([]entity.EmailSendLog, 0)
	r.s.read(func(d *state) {
		for _, l := range d.emailLogs {
			if l.PurchaseOrderID == orderID {
				out = append(out, l)
			}
		}
	})
	return out, nil
}

func sortNewestFirst(orders []*entity.PurchaseOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}
