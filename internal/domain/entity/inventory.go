package entity

import "time"

// Tipos de transacción del libro de inventario.
const (
	TransactionReceipt = "receipt" // entrada
	TransactionIssue   = "issue"   // salida
	TransactionAdjust  = "adjust"  // ajuste manual
)

// InventoryItem existencias de un artículo. Se crea con 0 al dar de alta el artículo.
type InventoryItem struct {
	ItemID         int64
	QuantityOnHand int
	UpdatedAt      time.Time
}

// InventoryTransaction entrada del libro (solo se agregan, nunca se modifican).
// QuantityOnHand de un artículo es siempre la suma de sus Delta.
type InventoryTransaction struct {
	ID         int64
	BatchID    string // agrupa las entradas de un mismo evento (p. ej. una recepción)
	ItemID     int64
	Type       string
	Delta      int
	Reason     string
	Note       string
	OccurredAt time.Time
	CreatedBy  string
}

// InventorySnapshot vista de existencias de un artículo.
type InventorySnapshot struct {
	ItemID       int64
	ItemCode     string
	OnHand       int
	ReorderPoint int
	LastActivity *time.Time
}
