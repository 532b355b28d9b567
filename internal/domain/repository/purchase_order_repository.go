package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// OrderFilter filtros de listado de pedidos.
type OrderFilter struct {
	Department      string
	ExcludeStatuses []entity.OrderStatus
}

// DuplicateQuery criterio de búsqueda de pedidos recientes para deduplicar.
type DuplicateQuery struct {
	SupplierID    int64
	Department    string
	OrderedByUser string
	CreatedSince  time.Time
}

// PurchaseOrderRepository pedidos, líneas, documento y registro de envíos.
// Los pedidos se devuelven siempre con sus líneas ordenadas por id.
type PurchaseOrderRepository interface {
	// Create guarda el pedido con el ID ya asignado y sus líneas; completa los ids de línea.
	Create(ctx context.Context, order *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error)
	// GetForUpdate bloquea la fila del pedido durante la transacción.
	GetForUpdate(ctx context.Context, id int64) (*entity.PurchaseOrder, error)
	// Update persiste cabecera (estado, fecha de emisión) y cantidades/fechas de las líneas.
	Update(ctx context.Context, order *entity.PurchaseOrder) error
	// Delete borra el pedido con sus líneas y documento.
	Delete(ctx context.Context, id int64) error
	// List más recientes primero.
	List(ctx context.Context, filter OrderFilter) ([]*entity.PurchaseOrder, error)
	// IDs todos los ids existentes en orden ascendente.
	IDs(ctx context.Context) ([]int64, error)
	// FindRecent pedidos no cancelados que cumplen el criterio, más recientes primero.
	FindRecent(ctx context.Context, q DuplicateQuery) ([]*entity.PurchaseOrder, error)
	// ItemIDsInStatuses artículos presentes en pedidos con alguno de los estados.
	ItemIDsInStatuses(ctx context.Context, statuses []entity.OrderStatus) (map[int64]bool, error)
	GetLine(ctx context.Context, lineID int64) (*entity.PurchaseOrderLine, error)
	CountBySupplier(ctx context.Context, supplierID int64) (int, error)

	GetDocument(ctx context.Context, orderID int64) (*entity.PurchaseOrderDocument, error)
	UpsertDocument(ctx context.Context, doc *entity.PurchaseOrderDocument) error

	AddEmailLog(ctx context.Context, log *entity.EmailSendLog) error
	ListEmailLogs(ctx context.Context, orderID int64) ([]entity.EmailSendLog, error)
}
