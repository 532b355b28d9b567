package purchasing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	rules "github.com/jhoicas/Compras-api/internal/domain/purchasing"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// ReconciliationUseCase solicitudes de compra fuera de catálogo: alta, preparación con proveedor,
// conversión en pedido y estado visible derivado.
type ReconciliationUseCase struct {
	txRunner TxRunner
	repos    repository.Repositories
	orders   *OrderUseCase
	loc      *time.Location
	now      func() time.Time
	log      zerolog.Logger
}

// NewReconciliationUseCase construye el caso de uso. La conversión reutiliza la creación de pedidos.
func NewReconciliationUseCase(txRunner TxRunner, repos repository.Repositories, orders *OrderUseCase, log zerolog.Logger) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txRunner: txRunner,
		repos:    repos,
		orders:   orders,
		loc:      orders.loc,
		now:      time.Now,
		log:      log,
	}
}

// SetClock reemplaza el reloj (tests).
func (uc *ReconciliationUseCase) SetClock(now func() time.Time) { uc.now = now }

// CreateRequest registra una solicitud PENDING.
func (uc *ReconciliationUseCase) CreateRequest(ctx context.Context, requestedBy string, in dto.CreateUnmanagedRequest) (*dto.UnmanagedRequestResponse, error) {
	if in.Quantity < 1 {
		return nil, fmt.Errorf("%w: cantidad %d", domain.ErrInvalidQuantity, in.Quantity)
	}
	code := strings.TrimSpace(in.ItemCodeFree)
	if in.ItemID == nil && code == "" {
		return nil, fmt.Errorf("%w: indique un artículo o un código libre", domain.ErrInvalidInput)
	}
	due, err := parseOptionalDate(in.VendorReplyDueDate)
	if err != nil {
		return nil, err
	}
	req := &entity.UnmanagedOrderRequest{
		RequestedAt:         uc.now().In(uc.loc),
		RequestedDepartment: strings.TrimSpace(in.RequestedDepartment),
		RequestedBy:         strings.TrimSpace(requestedBy),
		ItemID:              in.ItemID,
		ItemCodeFree:        code,
		Manufacturer:        strings.TrimSpace(in.Manufacturer),
		Quantity:            in.Quantity,
		UsageDestination:    strings.TrimSpace(in.UsageDestination),
		Note:                strings.TrimSpace(in.Note),
		VendorReplyDueDate:  due,
		Status:              entity.RequestStatusPending,
	}
	err = uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		if req.ItemID != nil {
			if _, err := lookupItem(ctx, repos, *req.ItemID); err != nil {
				return err
			}
		}
		return repos.Requests.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("request_id", req.ID).Str("department", req.RequestedDepartment).Msg("solicitud registrada")
	return uc.view(ctx, req)
}

// Stage prepara solicitudes PENDING sin preparar con un proveedor; pasan a la lista de candidatos.
func (uc *ReconciliationUseCase) Stage(ctx context.Context, requestIDs []int64, supplierID int64) (*dto.StageResponse, error) {
	if len(requestIDs) == 0 {
		return nil, fmt.Errorf("%w: sin solicitudes", domain.ErrInvalidInput)
	}
	count := 0
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		sup, err := repos.Suppliers.GetByID(ctx, supplierID)
		if err != nil {
			return err
		}
		if sup == nil {
			return fmt.Errorf("%w: proveedor %d", domain.ErrNotFound, supplierID)
		}
		reqs, err := loadRequests(ctx, repos, requestIDs)
		if err != nil {
			return err
		}
		now := uc.now().In(uc.loc)
		for _, req := range reqs {
			if req.Status != entity.RequestStatusPending || req.IsStaged() {
				return fmt.Errorf("%w: solicitud %d en estado %s (preparada: %t)", domain.ErrNotEligible, req.ID, req.Status, req.IsStaged())
			}
			sid := supplierID
			req.StagedSupplierID = &sid
			req.StagedAt = &now
			if err := repos.Requests.Update(ctx, req); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int("count", count).Int64("supplier_id", supplierID).Msg("solicitudes preparadas")
	return &dto.StageResponse{StagedCount: count}, nil
}

// Unstage quita el proveedor preparado. Las solicitudes no preparadas se ignoran.
func (uc *ReconciliationUseCase) Unstage(ctx context.Context, requestIDs []int64) (*dto.StageResponse, error) {
	count := 0
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		reqs, err := loadRequests(ctx, repos, requestIDs)
		if err != nil {
			return err
		}
		for _, req := range reqs {
			if req.Status != entity.RequestStatusPending || !req.IsStaged() {
				continue
			}
			req.ClearStaging()
			if err := repos.Requests.Update(ctx, req); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.StageResponse{StagedCount: count}, nil
}

// Reject PENDING -> REJECTED.
func (uc *ReconciliationUseCase) Reject(ctx context.Context, requestIDs []int64) (*dto.StageResponse, error) {
	count := 0
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		reqs, err := loadRequests(ctx, repos, requestIDs)
		if err != nil {
			return err
		}
		for _, req := range reqs {
			if req.Status != entity.RequestStatusPending {
				return fmt.Errorf("%w: solicitud %d en estado %s", domain.ErrNotEligible, req.ID, req.Status)
			}
			req.Status = entity.RequestStatusRejected
			req.ClearStaging()
			if err := repos.Requests.Update(ctx, req); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.StageResponse{StagedCount: count}, nil
}

// Acknowledge marca las solicitudes como vistas por el solicitante.
func (uc *ReconciliationUseCase) Acknowledge(ctx context.Context, requestIDs []int64) (*dto.StageResponse, error) {
	count := 0
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		reqs, err := loadRequests(ctx, repos, requestIDs)
		if err != nil {
			return err
		}
		now := uc.now().In(uc.loc)
		for _, req := range reqs {
			if req.AcknowledgedAt != nil {
				continue
			}
			req.AcknowledgedAt = &now
			if err := repos.Requests.Update(ctx, req); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.StageResponse{StagedCount: count}, nil
}

// Convert crea un pedido con las solicitudes indicadas (en orden de solicitud) para un proveedor.
// Las que no estaban preparadas se preparan con ese proveedor dentro de la misma transacción.
func (uc *ReconciliationUseCase) Convert(ctx context.Context, orderedBy string, in dto.ConvertRequest) (*dto.CreateOrderResponse, error) {
	if len(in.RequestIDs) == 0 {
		return nil, fmt.Errorf("%w: sin solicitudes", domain.ErrInvalidInput)
	}
	var out *orderOutcome
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		reqs, err := loadRequests(ctx, repos, in.RequestIDs)
		if err != nil {
			return err
		}
		now := uc.now().In(uc.loc)
		supplierID := in.SupplierID
		lines := make([]dto.OrderLineRequest, 0, len(reqs))
		for _, req := range reqs {
			if req.Status != entity.RequestStatusPending {
				return fmt.Errorf("%w: solicitud %d en estado %s", domain.ErrNotEligible, req.ID, req.Status)
			}
			if !req.IsStaged() {
				req.StagedSupplierID = &supplierID
				req.StagedAt = &now
				if err := repos.Requests.Update(ctx, req); err != nil {
					return err
				}
			}
			rid := req.ID
			lines = append(lines, dto.OrderLineRequest{UnmanagedRequestID: &rid, SupplierID: &supplierID})
		}
		out, err = uc.orders.createOrderInTx(ctx, repos, orderInput{
			Lines:                  lines,
			OrderedBy:              orderedBy,
			Department:             in.Department,
			SupplierIDForFreeLines: &supplierID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("order_id", out.Order.ID).Int("requests", len(in.RequestIDs)).Msg("solicitudes convertidas en pedido")
	return toCreateOrderResponse(out), nil
}

// List solicitudes con su estado visible recalculado en cada lectura.
func (uc *ReconciliationUseCase) List(ctx context.Context, q dto.RequestListQuery) ([]dto.UnmanagedRequestResponse, error) {
	filter := repository.RequestFilter{
		IncludeAll:          q.IncludeAll,
		ExcludeAcknowledged: q.ExcludeAcknowledged,
		ExcludeStaged:       q.ExcludeStaged,
	}
	if s := strings.ToUpper(strings.TrimSpace(q.Status)); s != "" {
		switch entity.RequestStatus(s) {
		case entity.RequestStatusPending, entity.RequestStatusConverted, entity.RequestStatusRejected:
			filter.Status = entity.RequestStatus(s)
		default:
			return nil, fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, q.Status)
		}
	}
	reqs, err := uc.repos.Requests.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UnmanagedRequestResponse, 0, len(reqs))
	for _, req := range reqs {
		v, err := uc.view(ctx, req)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (uc *ReconciliationUseCase) view(ctx context.Context, req *entity.UnmanagedOrderRequest) (*dto.UnmanagedRequestResponse, error) {
	v := &dto.UnmanagedRequestResponse{
		ID:                  req.ID,
		RequestedAt:         req.RequestedAt.In(uc.loc).Format(time.DateTime),
		RequestedDepartment: req.RequestedDepartment,
		RequestedBy:         req.RequestedBy,
		ItemID:              req.ItemID,
		ItemCodeFree:        req.ItemCodeFree,
		Manufacturer:        req.Manufacturer,
		Quantity:            req.Quantity,
		UsageDestination:    req.UsageDestination,
		Note:                req.Note,
		VendorReplyDueDate:  formatDate(req.VendorReplyDueDate),
		Status:              string(req.Status),
		StagedSupplierID:    req.StagedSupplierID,
		PurchaseOrderID:     req.PurchaseOrderID,
		PurchaseOrderLineID: req.PurchaseOrderLineID,
	}
	if req.ItemID != nil {
		item, err := uc.repos.Items.GetByID(ctx, *req.ItemID)
		if err != nil {
			return nil, err
		}
		if item != nil {
			v.ItemCode = item.Code
			v.ItemName = item.Name
		}
	}

	var orderStatus *entity.OrderStatus
	if req.PurchaseOrderID != nil {
		order, err := uc.repos.Orders.GetByID(ctx, *req.PurchaseOrderID)
		if err != nil {
			return nil, err
		}
		if order != nil {
			s := order.Status
			orderStatus = &s
			if req.PurchaseOrderLineID != nil {
				if l := order.Line(*req.PurchaseOrderLineID); l != nil {
					v.LineReplyDueDate = formatDate(l.VendorReplyDueDate)
				}
			}
		}
	}
	v.DisplayStatus = rules.RequestDisplayStatus(req.Status, orderStatus)
	v.DisplayLabel = rules.DisplayLabel(v.DisplayStatus)
	v.IsReceived = v.DisplayStatus == rules.DisplayReceived
	return v, nil
}

// loadRequests todas las solicitudes pedidas, en orden de solicitud. Un id inexistente no es elegible.
func loadRequests(ctx context.Context, repos repository.Repositories, ids []int64) ([]*entity.UnmanagedOrderRequest, error) {
	reqs, err := repos.Requests.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[int64]bool, len(reqs))
	for _, r := range reqs {
		found[r.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, fmt.Errorf("%w: solicitud %d no existe", domain.ErrNotEligible, id)
		}
	}
	return reqs, nil
}
