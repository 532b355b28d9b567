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

// ── Artículos ────────────────────────────────────────────────────────────────

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo implementación de ItemRepository sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador de artículos. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

const itemColumns = `id, code, name, COALESCE(item_type, ''), COALESCE(usage, ''), COALESCE(department, ''),
	COALESCE(shelf, ''), COALESCE(manufacturer, ''), COALESCE(unit, ''), reorder_point, default_order_quantity,
	unit_price, supplier_id, managed, COALESCE(account_name, ''), COALESCE(expense_item_name, ''),
	is_active, created_at, updated_at`

func scanItem(row pgx.Row) (*entity.Item, error) {
	var it entity.Item
	err := row.Scan(
		&it.ID, &it.Code, &it.Name, &it.ItemType, &it.Usage, &it.Department,
		&it.Shelf, &it.Manufacturer, &it.Unit, &it.ReorderPoint, &it.DefaultOrderQuantity,
		&it.UnitPrice, &it.SupplierID, &it.Managed, &it.AccountName, &it.ExpenseItemName,
		&it.IsActive, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Create persiste un artículo y completa su ID.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) error {
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	query := `
		INSERT INTO items (code, name, item_type, usage, department, shelf, manufacturer, unit,
			reorder_point, default_order_quantity, unit_price, supplier_id, managed,
			account_name, expense_item_name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		item.Code, item.Name, nullIfEmpty(item.ItemType), nullIfEmpty(item.Usage), nullIfEmpty(item.Department),
		nullIfEmpty(item.Shelf), nullIfEmpty(item.Manufacturer), nullIfEmpty(item.Unit),
		item.ReorderPoint, item.DefaultOrderQuantity, item.UnitPrice, item.SupplierID, item.Managed,
		nullIfEmpty(item.AccountName), nullIfEmpty(item.ExpenseItemName), item.IsActive, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: código %q", domain.ErrDuplicate, item.Code)
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetByID obtiene un artículo por ID.
func (r *ItemRepo) GetByID(ctx context.Context, id int64) (*entity.Item, error) {
	it, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// GetByCode obtiene un artículo por código.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	it, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item by code: %w", err)
	}
	return it, nil
}

// Update actualiza los datos del artículo.
func (r *ItemRepo) Update(ctx context.Context, item *entity.Item) error {
	item.UpdatedAt = time.Now()
	query := `
		UPDATE items SET code = $2, name = $3, item_type = $4, usage = $5, department = $6, shelf = $7,
			manufacturer = $8, unit = $9, reorder_point = $10, default_order_quantity = $11, unit_price = $12,
			supplier_id = $13, managed = $14, account_name = $15, expense_item_name = $16, is_active = $17,
			updated_at = $18
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		item.ID, item.Code, item.Name, nullIfEmpty(item.ItemType), nullIfEmpty(item.Usage), nullIfEmpty(item.Department),
		nullIfEmpty(item.Shelf), nullIfEmpty(item.Manufacturer), nullIfEmpty(item.Unit),
		item.ReorderPoint, item.DefaultOrderQuantity, item.UnitPrice, item.SupplierID, item.Managed,
		nullIfEmpty(item.AccountName), nullIfEmpty(item.ExpenseItemName), item.IsActive, item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: código %q", domain.ErrDuplicate, item.Code)
		}
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List artículos ordenados por código.
func (r *ItemRepo) List(ctx context.Context, filter repository.ItemFilter) ([]*entity.Item, error) {
	query := `
		SELECT ` + itemColumns + ` FROM items
		WHERE ($1 = '' OR department = $1) AND (NOT $2 OR is_active)
		ORDER BY code`
	rows, err := r.q.Query(ctx, query, filter.Department, filter.OnlyActive)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

// CountBySupplier artículos cuyo proveedor por defecto es supplierID.
func (r *ItemRepo) CountBySupplier(ctx context.Context, supplierID int64) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM items WHERE supplier_id = $1`, supplierID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items by supplier: %w", err)
	}
	return n, nil
}

// ── Proveedores ──────────────────────────────────────────────────────────────

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

// SupplierRepo implementación de SupplierRepository sobre PostgreSQL.
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el adaptador de proveedores.
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

const supplierColumns = `id, name, COALESCE(contact_person, ''), COALESCE(phone, ''), COALESCE(mobile, ''),
	COALESCE(fax, ''), COALESCE(email, ''), COALESCE(assistant_name, ''), COALESCE(assistant_email, ''),
	COALESCE(notes, '')`

func scanSupplier(row pgx.Row) (*entity.Supplier, error) {
	var s entity.Supplier
	if err := row.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Phone, &s.Mobile,
		&s.Fax, &s.Email, &s.AssistantName, &s.AssistantEmail, &s.Notes); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create persiste un proveedor (nombre único sin distinguir mayúsculas).
func (r *SupplierRepo) Create(ctx context.Context, sup *entity.Supplier) error {
	query := `
		INSERT INTO suppliers (name, contact_person, phone, mobile, fax, email, assistant_name, assistant_email, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		sup.Name, nullIfEmpty(sup.ContactPerson), nullIfEmpty(sup.Phone), nullIfEmpty(sup.Mobile),
		nullIfEmpty(sup.Fax), nullIfEmpty(sup.Email), nullIfEmpty(sup.AssistantName),
		nullIfEmpty(sup.AssistantEmail), nullIfEmpty(sup.Notes),
	).Scan(&sup.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: proveedor %q", domain.ErrDuplicate, sup.Name)
		}
		return fmt.Errorf("insert supplier: %w", err)
	}
	return nil
}

// GetByID obtiene un proveedor por ID.
func (r *SupplierRepo) GetByID(ctx context.Context, id int64) (*entity.Supplier, error) {
	s, err := scanSupplier(r.q.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return s, nil
}

// Update actualiza el proveedor.
func (r *SupplierRepo) Update(ctx context.Context, sup *entity.Supplier) error {
	query := `
		UPDATE suppliers SET name = $2, contact_person = $3, phone = $4, mobile = $5, fax = $6, email = $7,
			assistant_name = $8, assistant_email = $9, notes = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		sup.ID, sup.Name, nullIfEmpty(sup.ContactPerson), nullIfEmpty(sup.Phone), nullIfEmpty(sup.Mobile),
		nullIfEmpty(sup.Fax), nullIfEmpty(sup.Email), nullIfEmpty(sup.AssistantName),
		nullIfEmpty(sup.AssistantEmail), nullIfEmpty(sup.Notes),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: proveedor %q", domain.ErrDuplicate, sup.Name)
		}
		return fmt.Errorf("update supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra el proveedor y sus filas de precio. Las referencias desde artículos o pedidos
// las comprueba el caso de uso; la FK es la última barrera.
func (r *SupplierRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM item_suppliers WHERE supplier_id = $1`, id); err != nil {
		return fmt.Errorf("delete supplier prices: %w", err)
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: proveedor %d", domain.ErrSupplierInUse, id)
		}
		return fmt.Errorf("delete supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List proveedores por nombre.
func (r *SupplierRepo) List(ctx context.Context) ([]*entity.Supplier, error) {
	rows, err := r.q.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Supplier, 0)
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// ── Precios artículo-proveedor ───────────────────────────────────────────────

var _ repository.ItemSupplierRepository = (*ItemSupplierRepo)(nil)

// ItemSupplierRepo precios por par artículo-proveedor e historial de cambios.
type ItemSupplierRepo struct {
	q Querier
}

// NewItemSupplierRepository construye el adaptador de precios.
func NewItemSupplierRepository(q Querier) *ItemSupplierRepo {
	return &ItemSupplierRepo{q: q}
}

// Get fila del par, nil si no existe.
func (r *ItemSupplierRepo) Get(ctx context.Context, itemID, supplierID int64) (*entity.ItemSupplier, error) {
	var row entity.ItemSupplier
	err := r.q.QueryRow(ctx, `
		SELECT item_id, supplier_id, unit_price, updated_at
		FROM item_suppliers WHERE item_id = $1 AND supplier_id = $2`, itemID, supplierID,
	).Scan(&row.ItemID, &row.SupplierID, &row.UnitPrice, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item supplier: %w", err)
	}
	return &row, nil
}

// ListByItem filas de un artículo por proveedor.
func (r *ItemSupplierRepo) ListByItem(ctx context.Context, itemID int64) ([]entity.ItemSupplier, error) {
	rows, err := r.q.Query(ctx, `
		SELECT item_id, supplier_id, unit_price, updated_at
		FROM item_suppliers WHERE item_id = $1 ORDER BY supplier_id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list item suppliers: %w", err)
	}
	defer rows.Close()
	list := make([]entity.ItemSupplier, 0)
	for rows.Next() {
		var row entity.ItemSupplier
		if err := rows.Scan(&row.ItemID, &row.SupplierID, &row.UnitPrice, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item supplier: %w", err)
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

// Upsert inserta o actualiza el precio del par.
func (r *ItemSupplierRepo) Upsert(ctx context.Context, row *entity.ItemSupplier) error {
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO item_suppliers (item_id, supplier_id, unit_price, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_id, supplier_id)
		DO UPDATE SET unit_price = EXCLUDED.unit_price, updated_at = EXCLUDED.updated_at`,
		row.ItemID, row.SupplierID, row.UnitPrice, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert item supplier: %w", err)
	}
	return nil
}

// CreateIfAbsent crea la fila sin precio; true si la insertó.
func (r *ItemSupplierRepo) CreateIfAbsent(ctx context.Context, itemID, supplierID int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO item_suppliers (item_id, supplier_id, unit_price, updated_at)
		VALUES ($1, $2, NULL, now())
		ON CONFLICT (item_id, supplier_id) DO NOTHING`, itemID, supplierID)
	if err != nil {
		return false, fmt.Errorf("ensure item supplier: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// AddPriceHistory agrega un cambio de precio.
func (r *ItemSupplierRepo) AddPriceHistory(ctx context.Context, h *entity.UnitPriceHistory) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO unit_price_history (item_id, supplier_id, old_unit_price, new_unit_price, changed_by, source, reference_id, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		h.ItemID, h.SupplierID, h.OldUnitPrice, h.NewUnitPrice, nullIfEmpty(h.ChangedBy), h.Source, h.ReferenceID, h.ChangedAt,
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("insert price history: %w", err)
	}
	return nil
}

// ListPriceHistory cambios de un artículo, más recientes primero.
func (r *ItemSupplierRepo) ListPriceHistory(ctx context.Context, itemID int64) ([]entity.UnitPriceHistory, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, item_id, supplier_id, old_unit_price, new_unit_price, COALESCE(changed_by, ''), source, reference_id, changed_at
		FROM unit_price_history WHERE item_id = $1 ORDER BY id DESC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list price history: %w", err)
	}
	defer rows.Close()
	list := make([]entity.UnitPriceHistory, 0)
	for rows.Next() {
		var h entity.UnitPriceHistory
		if err := rows.Scan(&h.ID, &h.ItemID, &h.SupplierID, &h.OldUnitPrice, &h.NewUnitPrice,
			&h.ChangedBy, &h.Source, &h.ReferenceID, &h.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan price history: %w", err)
		}
		list = append(list, h)
	}
	return list, rows.Err()
}
