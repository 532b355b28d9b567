package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// PurchaseResultRepository registro de compras (una fila por línea recibida).
type PurchaseResultRepository interface {
	Create(ctx context.Context, r *entity.PurchaseResult) error
	ListByOrder(ctx context.Context, orderID int64) ([]entity.PurchaseResult, error)
	// ListByDeliveryDate rango cerrado [from, to] por fecha de entrega.
	ListByDeliveryDate(ctx context.Context, from, to time.Time) ([]entity.PurchaseResult, error)
}
