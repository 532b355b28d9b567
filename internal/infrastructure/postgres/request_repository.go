package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// ── Solicitudes fuera de catálogo ────────────────────────────────────────────

var _ repository.UnmanagedRequestRepository = (*UnmanagedRequestRepo)(nil)

// UnmanagedRequestRepo solicitudes de compra fuera de catálogo.
type UnmanagedRequestRepo struct {
	q Querier
}

// NewUnmanagedRequestRepository construye el adaptador de solicitudes.
func NewUnmanagedRequestRepository(q Querier) *UnmanagedRequestRepo {
	return &UnmanagedRequestRepo{q: q}
}

const requestColumns = `id, requested_at, COALESCE(requested_department, ''), COALESCE(requested_by, ''), item_id,
	COALESCE(item_code_free, ''), COALESCE(manufacturer, ''), quantity, COALESCE(usage_destination, ''),
	COALESCE(note, ''), vendor_reply_due_date, status, staged_supplier_id, staged_at, purchase_order_id,
	purchase_order_line_id, acknowledged_at`

func scanRequest(row pgx.Row) (*entity.UnmanagedOrderRequest, error) {
	var req entity.UnmanagedOrderRequest
	var status string
	if err := row.Scan(&req.ID, &req.RequestedAt, &req.RequestedDepartment, &req.RequestedBy, &req.ItemID,
		&req.ItemCodeFree, &req.Manufacturer, &req.Quantity, &req.UsageDestination,
		&req.Note, &req.VendorReplyDueDate, &status, &req.StagedSupplierID, &req.StagedAt, &req.PurchaseOrderID,
		&req.PurchaseOrderLineID, &req.AcknowledgedAt); err != nil {
		return nil, err
	}
	req.Status = entity.RequestStatus(status)
	return &req, nil
}

func (r *UnmanagedRequestRepo) list(ctx context.Context, query string, args ...any) ([]*entity.UnmanagedOrderRequest, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list unmanaged requests: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.UnmanagedOrderRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unmanaged request: %w", err)
		}
		list = append(list, req)
	}
	return list, rows.Err()
}

// Create registra la solicitud y completa su ID.
func (r *UnmanagedRequestRepo) Create(ctx context.Context, req *entity.UnmanagedOrderRequest) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO unmanaged_order_requests (requested_at, requested_department, requested_by, item_id, item_code_free,
			manufacturer, quantity, usage_destination, note, vendor_reply_due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		req.RequestedAt, nullIfEmpty(req.RequestedDepartment), nullIfEmpty(req.RequestedBy), req.ItemID,
		nullIfEmpty(req.ItemCodeFree), nullIfEmpty(req.Manufacturer), req.Quantity, nullIfEmpty(req.UsageDestination),
		nullIfEmpty(req.Note), req.VendorReplyDueDate, string(req.Status),
	).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("insert unmanaged request: %w", err)
	}
	return nil
}

// GetByID solicitud por id, nil si no existe.
func (r *UnmanagedRequestRepo) GetByID(ctx context.Context, id int64) (*entity.UnmanagedOrderRequest, error) {
	req, err := scanRequest(r.q.QueryRow(ctx, `SELECT `+requestColumns+` FROM unmanaged_order_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get unmanaged request: %w", err)
	}
	return req, nil
}

// ListByIDs bloquea y devuelve las solicitudes en orden de solicitud. Los ids inexistentes se omiten.
func (r *UnmanagedRequestRepo) ListByIDs(ctx context.Context, ids []int64) ([]*entity.UnmanagedOrderRequest, error) {
	return r.list(ctx, `
		SELECT `+requestColumns+` FROM unmanaged_order_requests
		WHERE id = ANY($1) ORDER BY requested_at, id FOR UPDATE`, ids)
}

// ListByOrder solicitudes convertidas en el pedido.
func (r *UnmanagedRequestRepo) ListByOrder(ctx context.Context, orderID int64) ([]*entity.UnmanagedOrderRequest, error) {
	return r.list(ctx, `
		SELECT `+requestColumns+` FROM unmanaged_order_requests
		WHERE purchase_order_id = $1 ORDER BY id`, orderID)
}

// List aplica el filtro. OnlyStaged (lista de candidatos) ordena por antigüedad; el resto, más recientes primero.
func (r *UnmanagedRequestRepo) List(ctx context.Context, f repository.RequestFilter) ([]*entity.UnmanagedOrderRequest, error) {
	status := f.Status
	if status == "" {
		status = entity.RequestStatusPending
	}
	if f.OnlyStaged {
		return r.list(ctx, `
			SELECT `+requestColumns+` FROM unmanaged_order_requests
			WHERE status = $1 AND staged_supplier_id IS NOT NULL AND ($2 = '' OR requested_department = $2)
			ORDER BY requested_at, id`,
			string(entity.RequestStatusPending), f.Department)
	}
	return r.list(ctx, `
		SELECT `+requestColumns+` FROM unmanaged_order_requests
		WHERE ($1 OR status = $2)
			AND (NOT $3 OR acknowledged_at IS NULL)
			AND (NOT $4 OR staged_supplier_id IS NULL)
			AND ($5 = '' OR requested_department = $5)
		ORDER BY requested_at DESC, id DESC`,
		f.IncludeAll, string(status), f.ExcludeAcknowledged, f.ExcludeStaged, f.Department)
}

// Update guarda el estado completo de la solicitud.
func (r *UnmanagedRequestRepo) Update(ctx context.Context, req *entity.UnmanagedOrderRequest) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE unmanaged_order_requests SET requested_department = $2, item_id = $3, item_code_free = $4,
			manufacturer = $5, quantity = $6, usage_destination = $7, note = $8, vendor_reply_due_date = $9,
			status = $10, staged_supplier_id = $11, staged_at = $12, purchase_order_id = $13,
			purchase_order_line_id = $14, acknowledged_at = $15
		WHERE id = $1`,
		req.ID, nullIfEmpty(req.RequestedDepartment), req.ItemID, nullIfEmpty(req.ItemCodeFree),
		nullIfEmpty(req.Manufacturer), req.Quantity, nullIfEmpty(req.UsageDestination), nullIfEmpty(req.Note),
		req.VendorReplyDueDate, string(req.Status), req.StagedSupplierID, req.StagedAt, req.PurchaseOrderID,
		req.PurchaseOrderLineID, req.AcknowledgedAt)
	if err != nil {
		return fmt.Errorf("update unmanaged request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ── Registro de compras ──────────────────────────────────────────────────────

var _ repository.PurchaseResultRepository = (*PurchaseResultRepo)(nil)

// PurchaseResultRepo filas del registro de compras.
type PurchaseResultRepo struct {
	q Querier
}

// NewPurchaseResultRepository construye el adaptador del registro de compras.
func NewPurchaseResultRepository(q Querier) *PurchaseResultRepo {
	return &PurchaseResultRepo{q: q}
}

const resultColumns = `id, receipt_id, delivery_date, supplier_id, delivery_note_number, item_id,
	COALESCE(item_name_free, ''), quantity, unit_price, amount, purchase_month, COALESCE(account_name, ''),
	COALESCE(expense_item_name, ''), COALESCE(purchaser_name, ''), COALESCE(note, ''), source_order_id,
	source_line_id, created_at`

// Create agrega una fila.
func (r *PurchaseResultRepo) Create(ctx context.Context, res *entity.PurchaseResult) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO purchase_results (receipt_id, delivery_date, supplier_id, delivery_note_number, item_id,
			item_name_free, quantity, unit_price, amount, purchase_month, account_name, expense_item_name,
			purchaser_name, note, source_order_id, source_line_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`,
		res.ReceiptID, res.DeliveryDate, res.SupplierID, res.DeliveryNoteNumber, res.ItemID,
		nullIfEmpty(res.ItemNameFree), res.Quantity, res.UnitPrice, res.Amount, res.PurchaseMonth,
		nullIfEmpty(res.AccountName), nullIfEmpty(res.ExpenseItemName), nullIfEmpty(res.PurchaserName),
		nullIfEmpty(res.Note), res.SourceOrderID, res.SourceLineID, res.CreatedAt,
	).Scan(&res.ID)
	if err != nil {
		return fmt.Errorf("insert purchase result: %w", err)
	}
	return nil
}

// ListByOrder filas originadas por un pedido, en orden de registro.
func (r *PurchaseResultRepo) ListByOrder(ctx context.Context, orderID int64) ([]entity.PurchaseResult, error) {
	return r.list(ctx, `SELECT `+resultColumns+` FROM purchase_results WHERE source_order_id = $1 ORDER BY id`, orderID)
}

// ListByDeliveryDate rango cerrado por fecha de entrega.
func (r *PurchaseResultRepo) ListByDeliveryDate(ctx context.Context, from, to time.Time) ([]entity.PurchaseResult, error) {
	return r.list(ctx, `
		SELECT `+resultColumns+` FROM purchase_results
		WHERE delivery_date BETWEEN $1::date AND $2::date
		ORDER BY delivery_date, id`, from, to)
}

func (r *PurchaseResultRepo) list(ctx context.Context, query string, args ...any) ([]entity.PurchaseResult, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase results: %w", err)
	}
	defer rows.Close()
	list := make([]entity.PurchaseResult, 0)
	for rows.Next() {
		var p entity.PurchaseResult
		if err := rows.Scan(&p.ID, &p.ReceiptID, &p.DeliveryDate, &p.SupplierID, &p.DeliveryNoteNumber, &p.ItemID,
			&p.ItemNameFree, &p.Quantity, &p.UnitPrice, &p.Amount, &p.PurchaseMonth, &p.AccountName,
			&p.ExpenseItemName, &p.PurchaserName, &p.Note, &p.SourceOrderID,
			&p.SourceLineID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase result: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
