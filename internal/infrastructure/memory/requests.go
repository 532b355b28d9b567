package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// ── Solicitudes fuera de catálogo ────────────────────────────────────────────

type requestRepo struct{ s *Store }

var _ repository.UnmanagedRequestRepository = (*requestRepo)(nil)

func (r *requestRepo) Create(_ context.Context, req *entity.UnmanagedOrderRequest) error {
	return r.s.write(func(d *state) error {
		req.ID = d.next("unmanaged_requests")
		cp := *req
		d.requests[req.ID] = &cp
		return nil
	})
}

func (r *requestRepo) GetByID(_ context.Context, id int64) (*entity.UnmanagedOrderRequest, error) {
	var out *entity.UnmanagedOrderRequest
	r.s.read(func(d *state) {
		if req, ok := d.requests[id]; ok {
			cp := *req
			out = &cp
		}
	})
	return out, nil
}

func (r *requestRepo) ListByIDs(_ context.Context, ids []int64) ([]*entity.UnmanagedOrderRequest, error) {
	out := make([]*entity.UnmanagedOrderRequest, 0, len(ids))
	r.s.read(func(d *state) {
		seen := map[int64]bool{}
		for _, id := range ids {
			req, ok := d.requests[id]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			cp := *req
			out = append(out, &cp)
		}
	})
	sortRequests(out, true)
	return out, nil
}

func (r *requestRepo) ListByOrder(_ context.Context, orderID int64) ([]*entity.UnmanagedOrderRequest, error) {
	out := make([]*entity.UnmanagedOrderRequest, 0)
	r.s.read(func(d *state) {
		for _, req := range d.requests {
			if req.PurchaseOrderID != nil && *req.PurchaseOrderID == orderID {
				cp := *req
				out = append(out, &cp)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *requestRepo) List(_ context.Context, f repository.RequestFilter) ([]*entity.UnmanagedOrderRequest, error) {
	status := f.Status
	if status == "" {
		status = entity.RequestStatusPending
	}
	out := make([]*entity.UnmanagedOrderRequest, 0)
	r.s.read(func(d *state) {
		for _, req := range d.requests {
			if f.Department != "" && req.RequestedDepartment != f.Department {
				continue
			}
			if f.OnlyStaged {
				if req.Status != entity.RequestStatusPending || !req.IsStaged() {
					continue
				}
			} else {
				if !f.IncludeAll && req.Status != status {
					continue
				}
				if f.ExcludeAcknowledged && req.AcknowledgedAt != nil {
					continue
				}
				if f.ExcludeStaged && req.IsStaged() {
					continue
				}
			}
			cp := *req
			out = append(out, &cp)
		}
	})
	sortRequests(out, f.OnlyStaged)
	return out, nil
}

func (r *requestRepo) Update(_ context.Context, req *entity.UnmanagedOrderRequest) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.requests[req.ID]; !ok {
			return domain.ErrNotFound
		}
		cp := *req
		d.requests[req.ID] = &cp
		return nil
	})
}

func sortRequests(list []*entity.UnmanagedOrderRequest, asc bool) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.RequestedAt.Equal(b.RequestedAt) {
			if asc {
				return a.RequestedAt.Before(b.RequestedAt)
			}
			return a.RequestedAt.After(b.RequestedAt)
		}
		if asc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
}

// ── Registro de compras ──────────────────────────────────────────────────────

type resultRepo struct{ s *Store }

var _ repository.PurchaseResultRepository = (*resultRepo)(nil)

func (r *resultRepo) Create(_ context.Context, res *entity.PurchaseResult) error {
	return r.s.write(func(d *state) error {
		res.ID = d.next("purchase_results")
		d.results = append(d.results, *res)
		return nil
	})
}

func (r *resultRepo) ListByOrder(_ context.Context, orderID int64) ([]entity.PurchaseResult, error) {
	out := make([]entity.PurchaseResult, 0)
	r.s.read(func(d *state) {
		for _, res := range d.results {
			if res.SourceOrderID == orderID {
				out = append(out, res)
			}
		}
	})
	return out, nil
}

func (r *resultRepo) ListByDeliveryDate(_ context.Context, from, to time.Time) ([]entity.PurchaseResult, error) {
	out := make([]entity.PurchaseResult, 0)
	lo, hi := dateKey(from), dateKey(to)
	r.s.read(func(d *state) {
		for _, res := range d.results {
			k := dateKey(res.DeliveryDate)
			if k < lo || k > hi {
				continue
			}
			out = append(out, res)
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DeliveryDate.Equal(out[j].DeliveryDate) {
			return out[i].DeliveryDate.Before(out[j].DeliveryDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func dateKey(t time.Time) string { return t.Format("2006-01-02") }
