package repository

import (
	"context"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// ItemFilter filtros de listado de artículos.
type ItemFilter struct {
	Department string // vacío = todos
	OnlyActive bool
}

// ItemRepository define el puerto de persistencia para Item (DIP).
// Get* devuelve (nil, nil) si no existe.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id int64) (*entity.Item, error)
	GetByCode(ctx context.Context, code string) (*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	// List ordenado por código.
	List(ctx context.Context, filter ItemFilter) ([]*entity.Item, error)
	CountBySupplier(ctx context.Context, supplierID int64) (int, error)
}

// SupplierRepository define el puerto de persistencia para Supplier.
type SupplierRepository interface {
	Create(ctx context.Context, supplier *entity.Supplier) error
	GetByID(ctx context.Context, id int64) (*entity.Supplier, error)
	Update(ctx context.Context, supplier *entity.Supplier) error
	Delete(ctx context.Context, id int64) error
	// List ordenado por nombre.
	List(ctx context.Context) ([]*entity.Supplier, error)
}

// ItemSupplierRepository precios artículo-proveedor e historial de precios.
type ItemSupplierRepository interface {
	Get(ctx context.Context, itemID, supplierID int64) (*entity.ItemSupplier, error)
	ListByItem(ctx context.Context, itemID int64) ([]entity.ItemSupplier, error)
	// Upsert crea o actualiza el precio del par (idempotente).
	Upsert(ctx context.Context, row *entity.ItemSupplier) error
	// CreateIfAbsent crea la fila sin precio si no existe; devuelve true si la creó.
	CreateIfAbsent(ctx context.Context, itemID, supplierID int64) (bool, error)
	AddPriceHistory(ctx context.Context, h *entity.UnitPriceHistory) error
	ListPriceHistory(ctx context.Context, itemID int64) ([]entity.UnitPriceHistory, error)
}
