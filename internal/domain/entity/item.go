package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item artículo del catálogo. No se borra mientras alguna línea de pedido lo referencie.
type Item struct {
	ID                   int64
	Code                 string // único
	Name                 string
	ItemType             string
	Usage                string
	Department           string
	Shelf                string
	Manufacturer         string
	Unit                 string
	ReorderPoint         int              // 0 = sin control de reposición
	DefaultOrderQuantity int              // >= 1
	UnitPrice            *decimal.Decimal // precio por defecto, nil si no se conoce
	SupplierID           *int64           // proveedor por defecto
	Managed              bool
	AccountName          string // cuenta contable para compras
	ExpenseItemName      string // partida de gasto
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// OrderQuantity cantidad sugerida al pedir (nunca menor que 1).
func (i *Item) OrderQuantity() int {
	if i.DefaultOrderQuantity < 1 {
		return 1
	}
	return i.DefaultOrderQuantity
}

// Supplier proveedor. Email es el destinatario del pedido y AssistantEmail va en copia.
type Supplier struct {
	ID             int64
	Name           string // único
	ContactPerson  string
	Phone          string
	Mobile         string
	Fax            string
	Email          string
	AssistantName  string
	AssistantEmail string
	Notes          string
}

// ItemSupplier precio de un artículo con un proveedor concreto (par único).
type ItemSupplier struct {
	ItemID     int64
	SupplierID int64
	UnitPrice  *decimal.Decimal
	UpdatedAt  time.Time
}

// UnitPriceHistory cambio de precio registrado (por ahora solo desde recepción).
type UnitPriceHistory struct {
	ID           int64
	ItemID       int64
	SupplierID   int64
	OldUnitPrice *decimal.Decimal
	NewUnitPrice decimal.Decimal
	ChangedBy    string
	Source       string
	ReferenceID  *int64 // línea de pedido que originó el cambio
	ChangedAt    time.Time
}

// PriceSourceReceipt origen de los cambios de precio hechos al recibir mercancía.
const PriceSourceReceipt = "入庫計上"
