package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// Shortfall artículo en o por debajo de su punto de reorden.
type Shortfall struct {
	Item   *entity.Item
	OnHand int
	Gap    int // on_hand - reorder_point (<= 0)
}

// FindShortfalls artículos con reorder_point > 0 y on_hand <= reorder_point.
// department vacío = todos; exclude son artículos que ya tienen pedido firme.
// Usa los repositorios recibidos para poder ejecutarse dentro de una transacción.
func FindShortfalls(ctx context.Context, repos repository.Repositories, department string, exclude map[int64]bool) ([]Shortfall, error) {
	items, err := repos.Items.List(ctx, repository.ItemFilter{Department: department, OnlyActive: true})
	if err != nil {
		return nil, err
	}
	onHand, err := repos.Inventory.OnHandByItem(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Shortfall, 0)
	for _, item := range items {
		if exclude[item.ID] || item.ReorderPoint <= 0 {
			continue
		}
		qty := onHand[item.ID]
		if qty > item.ReorderPoint {
			continue
		}
		out = append(out, Shortfall{Item: item, OnHand: qty, Gap: qty - item.ReorderPoint})
	}
	return out, nil
}

// ReplenishmentUseCase informe de artículos bajo mínimos, sin cruzar pedidos en curso.
type ReplenishmentUseCase struct {
	repos repository.Repositories
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(repos repository.Repositories) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{repos: repos}
}

// LowStock devuelve los artículos bajo mínimos ordenados por mayor déficit y luego por código.
func (uc *ReplenishmentUseCase) LowStock(ctx context.Context, department string) ([]Shortfall, error) {
	list, err := FindShortfalls(ctx, uc.repos, department, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Gap != list[j].Gap {
			return list[i].Gap < list[j].Gap
		}
		return list[i].Item.Code < list[j].Item.Code
	})
	return list, nil
}
