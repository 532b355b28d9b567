package dto

import "time"

// RegisterMovementRequest body para POST /api/inventory/movements.
// ItemID o ItemCode identifican el artículo. Quantity:
//   - receipt / issue: cantidad positiva
//   - adjust: delta con signo (distinto de 0)
type RegisterMovementRequest struct {
	ItemID   int64  `json:"item_id,omitempty"`
	ItemCode string `json:"item_code,omitempty"`
	Type     string `json:"type" validate:"required,oneof=receipt issue adjust"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason" validate:"max=256"`
	Note     string `json:"note"`
}

// SetOnHandRequest body para fijar las existencias a un valor (ajuste en línea).
type SetOnHandRequest struct {
	ItemCode string `json:"item_code" validate:"required"`
	Target   int    `json:"target" validate:"min=0"`
	Note     string `json:"note"`
}

// InventoryTransactionResponse entrada del libro.
type InventoryTransactionResponse struct {
	ID         int64     `json:"id"`
	BatchID    string    `json:"batch_id"`
	ItemID     int64     `json:"item_id"`
	Type       string    `json:"type"`
	Delta      int       `json:"delta"`
	Reason     string    `json:"reason"`
	Note       string    `json:"note"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedBy  string    `json:"created_by"`
}

// InventorySnapshotResponse existencias de un artículo.
type InventorySnapshotResponse struct {
	ItemID       int64      `json:"item_id"`
	ItemCode     string     `json:"item_code"`
	OnHand       int        `json:"on_hand"`
	ReorderPoint int        `json:"reorder_point"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// LowStockResponse artículo en o por debajo del punto de reorden.
type LowStockResponse struct {
	ItemID       int64  `json:"item_id"`
	ItemCode     string `json:"item_code"`
	Name         string `json:"name"`
	Department   string `json:"department"`
	OnHand       int    `json:"on_hand"`
	ReorderPoint int    `json:"reorder_point"`
	Gap          int    `json:"gap"`
}
