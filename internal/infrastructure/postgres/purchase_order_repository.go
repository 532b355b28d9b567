package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo pedidos con sus líneas, documento y registro de envíos.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador de pedidos. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

const orderColumns = `id, supplier_id, COALESCE(department, ''), COALESCE(ordered_by_user, ''), status,
	issued_date, created_at, updated_at`

const lineColumns = `id, purchase_order_id, item_id, COALESCE(item_name_free, ''), COALESCE(maker, ''),
	quantity, received_quantity, vendor_reply_due_date, COALESCE(usage_destination, ''), COALESCE(note, '')`

func scanOrder(row pgx.Row) (*entity.PurchaseOrder, error) {
	var o entity.PurchaseOrder
	var status string
	if err := row.Scan(&o.ID, &o.SupplierID, &o.Department, &o.OrderedByUser, &status,
		&o.IssuedDate, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = entity.OrderStatus(status)
	return &o, nil
}

func scanLine(row pgx.Row) (entity.PurchaseOrderLine, error) {
	var l entity.PurchaseOrderLine
	err := row.Scan(&l.ID, &l.PurchaseOrderID, &l.ItemID, &l.ItemNameFree, &l.Maker,
		&l.Quantity, &l.ReceivedQuantity, &l.VendorReplyDueDate, &l.UsageDestination, &l.Note)
	return l, err
}

// Create inserta el pedido (ID ya asignado) y sus líneas, completando los ids de línea.
func (r *PurchaseOrderRepo) Create(ctx context.Context, order *entity.PurchaseOrder) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchase_orders (id, supplier_id, department, ordered_by_user, status, issued_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		order.ID, order.SupplierID, nullIfEmpty(order.Department), nullIfEmpty(order.OrderedByUser),
		string(order.Status), order.IssuedDate, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: pedido %d", domain.ErrDuplicate, order.ID)
		}
		return fmt.Errorf("insert purchase order: %w", err)
	}
	for i := range order.Lines {
		l := &order.Lines[i]
		l.PurchaseOrderID = order.ID
		err := r.q.QueryRow(ctx, `
			INSERT INTO purchase_order_lines (purchase_order_id, item_id, item_name_free, maker, quantity,
				received_quantity, vendor_reply_due_date, usage_destination, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			order.ID, l.ItemID, nullIfEmpty(l.ItemNameFree), nullIfEmpty(l.Maker), l.Quantity,
			l.ReceivedQuantity, l.VendorReplyDueDate, nullIfEmpty(l.UsageDestination), nullIfEmpty(l.Note),
		).Scan(&l.ID)
		if err != nil {
			return fmt.Errorf("insert purchase order line: %w", err)
		}
	}
	return nil
}

// GetByID pedido con líneas, nil si no existe.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1`, id)
}

// GetForUpdate como GetByID pero bloquea la cabecera hasta el fin de la transacción.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *PurchaseOrderRepo) get(ctx context.Context, query string, id int64) (*entity.PurchaseOrder, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	if err := r.attachLines(ctx, []*entity.PurchaseOrder{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// attachLines carga las líneas de los pedidos en una sola consulta.
func (r *PurchaseOrderRepo) attachLines(ctx context.Context, orders []*entity.PurchaseOrder) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	byID := make(map[int64]*entity.PurchaseOrder, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
		o.Lines = make([]entity.PurchaseOrderLine, 0)
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+lineColumns+` FROM purchase_order_lines
		WHERE purchase_order_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("list purchase order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return fmt.Errorf("scan purchase order line: %w", err)
		}
		if o := byID[l.PurchaseOrderID]; o != nil {
			o.Lines = append(o.Lines, l)
		}
	}
	return rows.Err()
}

// Update guarda cabecera y, de las líneas existentes, cantidades recibidas y fecha de respuesta.
func (r *PurchaseOrderRepo) Update(ctx context.Context, order *entity.PurchaseOrder) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE purchase_orders SET supplier_id = $2, department = $3, ordered_by_user = $4, status = $5,
			issued_date = $6, updated_at = $7
		WHERE id = $1`,
		order.ID, order.SupplierID, nullIfEmpty(order.Department), nullIfEmpty(order.OrderedByUser),
		string(order.Status), order.IssuedDate, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	for _, l := range order.Lines {
		_, err := r.q.Exec(ctx, `
			UPDATE purchase_order_lines SET received_quantity = $3, vendor_reply_due_date = $4
			WHERE id = $1 AND purchase_order_id = $2`,
			l.ID, order.ID, l.ReceivedQuantity, l.VendorReplyDueDate)
		if err != nil {
			return fmt.Errorf("update purchase order line: %w", err)
		}
	}
	return nil
}

// Delete borra el pedido, sus líneas y su documento. El registro de envíos se conserva.
func (r *PurchaseOrderRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM purchase_order_documents WHERE purchase_order_id = $1`, id); err != nil {
		return fmt.Errorf("delete purchase order document: %w", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM purchase_order_lines WHERE purchase_order_id = $1`, id); err != nil {
		return fmt.Errorf("delete purchase order lines: %w", err)
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List pedidos más recientes primero.
func (r *PurchaseOrderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]*entity.PurchaseOrder, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+` FROM purchase_orders
		WHERE ($1 = '' OR department = $1) AND NOT (status = ANY($2))
		ORDER BY created_at DESC, id DESC`,
		filter.Department, statusStrings(filter.ExcludeStatuses))
}

// FindRecent candidatos a duplicado: mismo proveedor, departamento y usuario, creados desde CreatedSince.
func (r *PurchaseOrderRepo) FindRecent(ctx context.Context, q repository.DuplicateQuery) ([]*entity.PurchaseOrder, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+` FROM purchase_orders
		WHERE supplier_id = $1 AND COALESCE(department, '') = $2 AND TRIM(COALESCE(ordered_by_user, '')) = TRIM($3)
			AND created_at >= $4 AND status <> $5
		ORDER BY created_at DESC, id DESC`,
		q.SupplierID, q.Department, q.OrderedByUser, q.CreatedSince, string(entity.OrderStatusCancelled))
}

func (r *PurchaseOrderRepo) list(ctx context.Context, query string, args ...any) ([]*entity.PurchaseOrder, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	list := make([]*entity.PurchaseOrder, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		list = append(list, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// IDs ids existentes en orden ascendente (para asignar el menor libre).
func (r *PurchaseOrderRepo) IDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM purchase_orders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list purchase order ids: %w", err)
	}
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan purchase order id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ItemIDsInStatuses artículos con alguna línea en pedidos de esos estados.
func (r *PurchaseOrderRepo) ItemIDsInStatuses(ctx context.Context, statuses []entity.OrderStatus) (map[int64]bool, error) {
	rows, err := r.q.Query(ctx, `
		SELECT DISTINCT l.item_id
		FROM purchase_order_lines l JOIN purchase_orders o ON o.id = l.purchase_order_id
		WHERE l.item_id IS NOT NULL AND o.status = ANY($1)`, statusStrings(statuses))
	if err != nil {
		return nil, fmt.Errorf("list committed items: %w", err)
	}
	defer rows.Close()
	out := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan committed item: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// GetLine una línea por id, nil si no existe.
func (r *PurchaseOrderRepo) GetLine(ctx context.Context, lineID int64) (*entity.PurchaseOrderLine, error) {
	l, err := scanLine(r.q.QueryRow(ctx, `SELECT `+lineColumns+` FROM purchase_order_lines WHERE id = $1`, lineID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order line: %w", err)
	}
	return &l, nil
}

// CountBySupplier pedidos (de cualquier estado) del proveedor.
func (r *PurchaseOrderRepo) CountBySupplier(ctx context.Context, supplierID int64) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders WHERE supplier_id = $1`, supplierID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count purchase orders by supplier: %w", err)
	}
	return n, nil
}

// GetDocument documento vigente del pedido, nil si no se ha generado.
func (r *PurchaseOrderRepo) GetDocument(ctx context.Context, orderID int64) (*entity.PurchaseOrderDocument, error) {
	var doc entity.PurchaseOrderDocument
	err := r.q.QueryRow(ctx, `
		SELECT purchase_order_id, path, generated_at, COALESCE(generated_by, '')
		FROM purchase_order_documents WHERE purchase_order_id = $1`, orderID,
	).Scan(&doc.PurchaseOrderID, &doc.Path, &doc.GeneratedAt, &doc.GeneratedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order document: %w", err)
	}
	return &doc, nil
}

// UpsertDocument reemplaza el documento vigente del pedido.
func (r *PurchaseOrderRepo) UpsertDocument(ctx context.Context, doc *entity.PurchaseOrderDocument) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchase_order_documents (purchase_order_id, path, generated_at, generated_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (purchase_order_id)
		DO UPDATE SET path = EXCLUDED.path, generated_at = EXCLUDED.generated_at, generated_by = EXCLUDED.generated_by`,
		doc.PurchaseOrderID, doc.Path, doc.GeneratedAt, nullIfEmpty(doc.GeneratedBy))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: pedido %d", domain.ErrNotFound, doc.PurchaseOrderID)
		}
		return fmt.Errorf("upsert purchase order document: %w", err)
	}
	return nil
}

// AddEmailLog agrega un envío (exitoso o fallido).
func (r *PurchaseOrderRepo) AddEmailLog(ctx context.Context, log *entity.EmailSendLog) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO email_send_logs (purchase_order_id, sent_by, sent_at, to_address, cc_address, subject, body,
			attachment_path, success, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		log.PurchaseOrderID, nullIfEmpty(log.SentBy), log.SentAt, nullIfEmpty(log.To), nullIfEmpty(log.CC),
		nullIfEmpty(log.Subject), nullIfEmpty(log.Body), nullIfEmpty(log.AttachmentPath), log.Success,
		nullIfEmpty(log.ErrorMessage),
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("insert email send log: %w", err)
	}
	return nil
}

// ListEmailLogs envíos de un pedido en orden de registro.
func (r *PurchaseOrderRepo) ListEmailLogs(ctx context.Context, orderID int64) ([]entity.EmailSendLog, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, purchase_order_id, COALESCE(sent_by, ''), sent_at, COALESCE(to_address, ''), COALESCE(cc_address, ''),
			COALESCE(subject, ''), COALESCE(body, ''), COALESCE(attachment_path, ''), success, COALESCE(error_message, '')
		FROM email_send_logs WHERE purchase_order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list email send logs: %w", err)
	}
	defer rows.Close()
	list := make([]entity.EmailSendLog, 0)
	for rows.Next() {
		var l entity.EmailSendLog
		if err := rows.Scan(&l.ID, &l.PurchaseOrderID, &l.SentBy, &l.SentAt, &l.To, &l.CC,
			&l.Subject, &l.Body, &l.AttachmentPath, &l.Success, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan email send log: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func statusStrings(statuses []entity.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
