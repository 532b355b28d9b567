package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/purchasing"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// PricingUseCase precios artículo-proveedor: resolución, opciones de proveedor e historial.
// Los métodos *InTx trabajan con los repositorios de la transacción del caller
// (creación de pedidos, recepción y envío).
type PricingUseCase struct {
	txRunner TxRunner
	repos    repository.Repositories
	now      func() time.Time
	log      zerolog.Logger
}

// NewPricingUseCase construye el caso de uso.
func NewPricingUseCase(txRunner TxRunner, repos repository.Repositories, log zerolog.Logger) *PricingUseCase {
	return &PricingUseCase{txRunner: txRunner, repos: repos, now: time.Now, log: log}
}

// SetClock reemplaza el reloj (tests).
func (uc *PricingUseCase) SetClock(now func() time.Time) { uc.now = now }

// ResolveInTx precio efectivo de un artículo con un proveedor.
func (uc *PricingUseCase) ResolveInTx(ctx context.Context, repos repository.Repositories, item *entity.Item, supplierID int64, override *decimal.Decimal) (*decimal.Decimal, error) {
	if override != nil {
		return purchasing.ResolveUnitPrice(override, nil, item), nil
	}
	row, err := repos.Prices.Get(ctx, item.ID, supplierID)
	if err != nil {
		return nil, err
	}
	return purchasing.ResolveUnitPrice(nil, row, item), nil
}

// ChoicesInTx opciones de proveedor de un artículo, la primera es la opción por defecto.
func (uc *PricingUseCase) ChoicesInTx(ctx context.Context, repos repository.Repositories, item *entity.Item) ([]purchasing.SupplierChoice, error) {
	rows, err := repos.Prices.ListByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	suppliers, err := repos.Suppliers.List(ctx)
	if err != nil {
		return nil, err
	}
	return purchasing.BuildSupplierChoices(item, rows, derefSuppliers(suppliers)), nil
}

// SupplierChoices opciones de proveedor de un artículo para la API.
func (uc *PricingUseCase) SupplierChoices(ctx context.Context, itemID int64) ([]dto.SupplierChoiceResponse, error) {
	item, err := uc.repos.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	choices, err := uc.ChoicesInTx(ctx, uc.repos, item)
	if err != nil {
		return nil, err
	}
	return ChoiceResponses(choices), nil
}

// UpsertPrice registra o actualiza el precio de un par artículo-proveedor (idempotente).
func (uc *PricingUseCase) UpsertPrice(ctx context.Context, itemID, supplierID int64, price *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return fmt.Errorf("%w: precio negativo", domain.ErrInvalidInput)
	}
	return uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		item, err := repos.Items.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("%w: artículo %d", domain.ErrNotFound, itemID)
		}
		sup, err := repos.Suppliers.GetByID(ctx, supplierID)
		if err != nil {
			return err
		}
		if sup == nil {
			return fmt.Errorf("%w: proveedor %d", domain.ErrNotFound, supplierID)
		}
		return uc.UpsertPriceInTx(ctx, repos, itemID, supplierID, price)
	})
}

// UpsertPriceInTx igual que UpsertPrice dentro de la transacción del caller.
func (uc *PricingUseCase) UpsertPriceInTx(ctx context.Context, repos repository.Repositories, itemID, supplierID int64, price *decimal.Decimal) error {
	return repos.Prices.Upsert(ctx, &entity.ItemSupplier{
		ItemID:     itemID,
		SupplierID: supplierID,
		UnitPrice:  price,
		UpdatedAt:  uc.now(),
	})
}

// ApplyOverrideInTx usado al recibir: si el precio informado difiere del efectivo actual,
// deja constancia en el historial y actualiza la fila artículo-proveedor.
// Devuelve el precio con el que se valora la recepción.
func (uc *PricingUseCase) ApplyOverrideInTx(
	ctx context.Context,
	repos repository.Repositories,
	item *entity.Item,
	supplierID int64,
	override *decimal.Decimal,
	changedBy string,
	lineID int64,
) (*decimal.Decimal, error) {
	current, err := uc.ResolveInTx(ctx, repos, item, supplierID, nil)
	if err != nil {
		return nil, err
	}
	if override == nil || purchasing.PriceEqual(current, override) {
		return current, nil
	}
	ref := lineID
	if err := repos.Prices.AddPriceHistory(ctx, &entity.UnitPriceHistory{
		ItemID:       item.ID,
		SupplierID:   supplierID,
		OldUnitPrice: current,
		NewUnitPrice: *override,
		ChangedBy:    changedBy,
		Source:       entity.PriceSourceReceipt,
		ReferenceID:  &ref,
		ChangedAt:    uc.now(),
	}); err != nil {
		return nil, err
	}
	if err := uc.UpsertPriceInTx(ctx, repos, item.ID, supplierID, override); err != nil {
		return nil, err
	}
	uc.log.Info().
		Int64("item_id", item.ID).
		Int64("supplier_id", supplierID).
		Str("unit_price", override.String()).
		Msg("precio actualizado en recepción")
	return override, nil
}

// EnsureRowsInTx crea sin precio las filas artículo-proveedor que falten. Devuelve cuántas creó.
func (uc *PricingUseCase) EnsureRowsInTx(ctx context.Context, repos repository.Repositories, itemIDs []int64, supplierID int64) (int, error) {
	created := 0
	seen := make(map[int64]bool, len(itemIDs))
	for _, id := range itemIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ok, err := repos.Prices.CreateIfAbsent(ctx, id, supplierID)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// PriceHistory cambios de precio de un artículo, más recientes primero.
func (uc *PricingUseCase) PriceHistory(ctx context.Context, itemID int64) ([]dto.PriceHistoryResponse, error) {
	list, err := uc.repos.Prices.ListPriceHistory(ctx, itemID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PriceHistoryResponse, 0, len(list))
	for _, h := range list {
		out = append(out, dto.PriceHistoryResponse{
			ID:           h.ID,
			ItemID:       h.ItemID,
			SupplierID:   h.SupplierID,
			OldUnitPrice: h.OldUnitPrice,
			NewUnitPrice: h.NewUnitPrice,
			ChangedBy:    h.ChangedBy,
			Source:       h.Source,
			ReferenceID:  h.ReferenceID,
			ChangedAt:    h.ChangedAt,
		})
	}
	return out, nil
}

// ChoiceResponses convierte opciones de proveedor a DTO.
func ChoiceResponses(choices []purchasing.SupplierChoice) []dto.SupplierChoiceResponse {
	out := make([]dto.SupplierChoiceResponse, 0, len(choices))
	for _, c := range choices {
		out = append(out, dto.SupplierChoiceResponse{
			SupplierID:   c.SupplierID,
			SupplierName: c.SupplierName,
			UnitPrice:    c.UnitPrice,
			Registered:   c.Registered,
		})
	}
	return out
}

func derefSuppliers(list []*entity.Supplier) []entity.Supplier {
	out := make([]entity.Supplier, 0, len(list))
	for _, s := range list {
		out = append(out, *s)
	}
	return out
}
