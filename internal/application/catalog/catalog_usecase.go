package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// CatalogUseCase altas y modificaciones de artículos y proveedores.
// Las existencias no se tocan aquí: se manejan vía movimientos del libro.
type CatalogUseCase struct {
	txRunner TxRunner
	repos    repository.Repositories
	now      func() time.Time
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(txRunner TxRunner, repos repository.Repositories) *CatalogUseCase {
	return &CatalogUseCase{txRunner: txRunner, repos: repos, now: time.Now}
}

// ── Artículos ────────────────────────────────────────────────────────────────

// CreateItem da de alta el artículo junto con su fila de existencias en 0.
func (uc *CatalogUseCase) CreateItem(ctx context.Context, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: código y nombre obligatorios", domain.ErrInvalidInput)
	}
	if in.ReorderPoint < 0 || in.DefaultOrderQuantity < 0 {
		return nil, fmt.Errorf("%w: punto de reorden o cantidad por defecto negativos", domain.ErrInvalidQuantity)
	}
	qty := in.DefaultOrderQuantity
	if qty < 1 {
		qty = 1
	}
	now := uc.now()
	item := &entity.Item{
		Code:                 code,
		Name:                 name,
		ItemType:             in.ItemType,
		Usage:                in.Usage,
		Department:           strings.TrimSpace(in.Department),
		Shelf:                in.Shelf,
		Manufacturer:         in.Manufacturer,
		Unit:                 in.Unit,
		ReorderPoint:         in.ReorderPoint,
		DefaultOrderQuantity: qty,
		UnitPrice:            in.UnitPrice,
		SupplierID:           in.SupplierID,
		Managed:              true,
		AccountName:          in.AccountName,
		ExpenseItemName:      in.ExpenseItemName,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		existing, err := repos.Items.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: código %q", domain.ErrDuplicate, code)
		}
		if err := ensureSupplier(ctx, repos, item.SupplierID); err != nil {
			return err
		}
		if err := repos.Items.Create(ctx, item); err != nil {
			return err
		}
		return repos.Inventory.Upsert(ctx, &entity.InventoryItem{ItemID: item.ID, UpdatedAt: now})
	})
	if err != nil {
		return nil, err
	}
	return ToItemResponse(item), nil
}

// GetItem obtiene un artículo por ID.
func (uc *CatalogUseCase) GetItem(ctx context.Context, id int64) (*dto.ItemResponse, error) {
	item, err := uc.repos.Items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return ToItemResponse(item), nil
}

// UpdateItem actualización parcial. El código no cambia.
func (uc *CatalogUseCase) UpdateItem(ctx context.Context, id int64, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	var out *entity.Item
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		item, err := repos.Items.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if in.Name != nil {
			item.Name = strings.TrimSpace(*in.Name)
		}
		if in.Department != nil {
			item.Department = strings.TrimSpace(*in.Department)
		}
		if in.Shelf != nil {
			item.Shelf = *in.Shelf
		}
		if in.Manufacturer != nil {
			item.Manufacturer = *in.Manufacturer
		}
		if in.ReorderPoint != nil {
			if *in.ReorderPoint < 0 {
				return fmt.Errorf("%w: punto de reorden %d", domain.ErrInvalidQuantity, *in.ReorderPoint)
			}
			item.ReorderPoint = *in.ReorderPoint
		}
		if in.DefaultOrderQuantity != nil {
			if *in.DefaultOrderQuantity < 1 {
				return fmt.Errorf("%w: cantidad por defecto %d", domain.ErrInvalidQuantity, *in.DefaultOrderQuantity)
			}
			item.DefaultOrderQuantity = *in.DefaultOrderQuantity
		}
		if in.UnitPrice != nil {
			item.UnitPrice = in.UnitPrice
		}
		if in.SupplierID != nil {
			if err := ensureSupplier(ctx, repos, in.SupplierID); err != nil {
				return err
			}
			item.SupplierID = in.SupplierID
		}
		if in.AccountName != nil {
			item.AccountName = *in.AccountName
		}
		if in.ExpenseItemName != nil {
			item.ExpenseItemName = *in.ExpenseItemName
		}
		if in.IsActive != nil {
			item.IsActive = *in.IsActive
		}
		item.UpdatedAt = uc.now()
		out = item
		return repos.Items.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return ToItemResponse(out), nil
}

// ListItems artículos activos, filtrados por departamento si se indica.
func (uc *CatalogUseCase) ListItems(ctx context.Context, department string) ([]dto.ItemResponse, error) {
	list, err := uc.repos.Items.List(ctx, repository.ItemFilter{Department: department, OnlyActive: true})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ItemResponse, 0, len(list))
	for _, it := range list {
		out = append(out, *ToItemResponse(it))
	}
	return out, nil
}

// ── Proveedores ──────────────────────────────────────────────────────────────

// CreateSupplier alta de proveedor (nombre único).
func (uc *CatalogUseCase) CreateSupplier(ctx context.Context, in dto.SupplierRequest) (*dto.SupplierResponse, error) {
	sup := supplierFromRequest(in)
	if sup.Name == "" {
		return nil, fmt.Errorf("%w: nombre de proveedor obligatorio", domain.ErrInvalidInput)
	}
	if err := uc.repos.Suppliers.Create(ctx, sup); err != nil {
		return nil, err
	}
	return ToSupplierResponse(sup), nil
}

// GetSupplier obtiene un proveedor por ID.
func (uc *CatalogUseCase) GetSupplier(ctx context.Context, id int64) (*dto.SupplierResponse, error) {
	sup, err := uc.repos.Suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sup == nil {
		return nil, domain.ErrNotFound
	}
	return ToSupplierResponse(sup), nil
}

// UpdateSupplier reemplaza los datos del proveedor.
func (uc *CatalogUseCase) UpdateSupplier(ctx context.Context, id int64, in dto.SupplierRequest) (*dto.SupplierResponse, error) {
	existing, err := uc.repos.Suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}
	sup := supplierFromRequest(in)
	sup.ID = id
	if sup.Name == "" {
		return nil, fmt.Errorf("%w: nombre de proveedor obligatorio", domain.ErrInvalidInput)
	}
	if err := uc.repos.Suppliers.Update(ctx, sup); err != nil {
		return nil, err
	}
	return ToSupplierResponse(sup), nil
}

// DeleteSupplier solo si ningún artículo ni pedido lo referencia.
func (uc *CatalogUseCase) DeleteSupplier(ctx context.Context, id int64) error {
	return uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		sup, err := repos.Suppliers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if sup == nil {
			return domain.ErrNotFound
		}
		items, err := repos.Items.CountBySupplier(ctx, id)
		if err != nil {
			return err
		}
		orders, err := repos.Orders.CountBySupplier(ctx, id)
		if err != nil {
			return err
		}
		if items > 0 || orders > 0 {
			return fmt.Errorf("%w: %d artículos, %d pedidos", domain.ErrSupplierInUse, items, orders)
		}
		return repos.Suppliers.Delete(ctx, id)
	})
}

// ListSuppliers proveedores por nombre.
func (uc *CatalogUseCase) ListSuppliers(ctx context.Context) ([]dto.SupplierResponse, error) {
	list, err := uc.repos.Suppliers.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SupplierResponse, 0, len(list))
	for _, s := range list {
		out = append(out, *ToSupplierResponse(s))
	}
	return out, nil
}

func ensureSupplier(ctx context.Context, repos repository.Repositories, id *int64) error {
	if id == nil {
		return nil
	}
	sup, err := repos.Suppliers.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	if sup == nil {
		return fmt.Errorf("%w: proveedor %d", domain.ErrNotFound, *id)
	}
	return nil
}

func supplierFromRequest(in dto.SupplierRequest) *entity.Supplier {
	return &entity.Supplier{
		Name:           strings.TrimSpace(in.Name),
		ContactPerson:  strings.TrimSpace(in.ContactPerson),
		Phone:          in.Phone,
		Mobile:         in.Mobile,
		Fax:            in.Fax,
		Email:          strings.TrimSpace(in.Email),
		AssistantName:  in.AssistantName,
		AssistantEmail: strings.TrimSpace(in.AssistantEmail),
		Notes:          in.Notes,
	}
}

// ToItemResponse convierte un artículo a su DTO.
func ToItemResponse(it *entity.Item) *dto.ItemResponse {
	if it == nil {
		return nil
	}
	return &dto.ItemResponse{
		ID:                   it.ID,
		Code:                 it.Code,
		Name:                 it.Name,
		ItemType:             it.ItemType,
		Usage:                it.Usage,
		Department:           it.Department,
		Shelf:                it.Shelf,
		Manufacturer:         it.Manufacturer,
		Unit:                 it.Unit,
		ReorderPoint:         it.ReorderPoint,
		DefaultOrderQuantity: it.DefaultOrderQuantity,
		UnitPrice:            it.UnitPrice,
		SupplierID:           it.SupplierID,
		AccountName:          it.AccountName,
		ExpenseItemName:      it.ExpenseItemName,
		IsActive:             it.IsActive,
		CreatedAt:            it.CreatedAt,
		UpdatedAt:            it.UpdatedAt,
	}
}

// ToSupplierResponse convierte un proveedor a su DTO.
func ToSupplierResponse(s *entity.Supplier) *dto.SupplierResponse {
	return &dto.SupplierResponse{
		ID: s.ID,
		SupplierRequest: dto.SupplierRequest{
			Name:           s.Name,
			ContactPerson:  s.ContactPerson,
			Phone:          s.Phone,
			Mobile:         s.Mobile,
			Fax:            s.Fax,
			Email:          s.Email,
			AssistantName:  s.AssistantName,
			AssistantEmail: s.AssistantEmail,
			Notes:          s.Notes,
		},
	}
}
