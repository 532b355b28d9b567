package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest entrada para dar de alta un artículo. Las existencias arrancan en 0.
type CreateItemRequest struct {
	Code                 string           `json:"item_code" validate:"required,max=64"`
	Name                 string           `json:"name" validate:"required,max=256"`
	ItemType             string           `json:"item_type"`
	Usage                string           `json:"usage"`
	Department           string           `json:"department"`
	Shelf                string           `json:"shelf"`
	Manufacturer         string           `json:"manufacturer"`
	Unit                 string           `json:"unit"`
	ReorderPoint         int              `json:"reorder_point" validate:"min=0"`
	DefaultOrderQuantity int              `json:"default_order_quantity" validate:"min=0"`
	UnitPrice            *decimal.Decimal `json:"unit_price"`
	SupplierID           *int64           `json:"supplier_id"`
	AccountName          string           `json:"account_name"`
	ExpenseItemName      string           `json:"expense_item_name"`
}

// UpdateItemRequest actualización parcial (el código no cambia).
type UpdateItemRequest struct {
	Name                 *string          `json:"name" validate:"omitempty,min=1,max=256"`
	Department           *string          `json:"department"`
	Shelf                *string          `json:"shelf"`
	Manufacturer         *string          `json:"manufacturer"`
	ReorderPoint         *int             `json:"reorder_point" validate:"omitempty,min=0"`
	DefaultOrderQuantity *int             `json:"default_order_quantity" validate:"omitempty,min=1"`
	UnitPrice            *decimal.Decimal `json:"unit_price"`
	SupplierID           *int64           `json:"supplier_id"`
	AccountName          *string          `json:"account_name"`
	ExpenseItemName      *string          `json:"expense_item_name"`
	IsActive             *bool            `json:"is_active"`
}

// ItemResponse salida de un artículo.
type ItemResponse struct {
	ID                   int64            `json:"id"`
	Code                 string           `json:"item_code"`
	Name                 string           `json:"name"`
	ItemType             string           `json:"item_type"`
	Usage                string           `json:"usage"`
	Department           string           `json:"department"`
	Shelf                string           `json:"shelf"`
	Manufacturer         string           `json:"manufacturer"`
	Unit                 string           `json:"unit"`
	ReorderPoint         int              `json:"reorder_point"`
	DefaultOrderQuantity int              `json:"default_order_quantity"`
	UnitPrice            *decimal.Decimal `json:"unit_price"`
	SupplierID           *int64           `json:"supplier_id"`
	AccountName          string           `json:"account_name"`
	ExpenseItemName      string           `json:"expense_item_name"`
	IsActive             bool             `json:"is_active"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// SupplierRequest alta o modificación de proveedor.
type SupplierRequest struct {
	Name           string `json:"name" validate:"required,max=256"`
	ContactPerson  string `json:"contact_person"`
	Phone          string `json:"phone_number"`
	Mobile         string `json:"mobile_number"`
	Fax            string `json:"fax_number"`
	Email          string `json:"email" validate:"omitempty,email"`
	AssistantName  string `json:"assistant_name"`
	AssistantEmail string `json:"assistant_email"`
	Notes          string `json:"notes"`
}

// SupplierResponse salida de un proveedor.
type SupplierResponse struct {
	ID int64 `json:"id"`
	SupplierRequest
}

// UpsertPriceRequest precio artículo-proveedor.
type UpsertPriceRequest struct {
	SupplierID int64            `json:"supplier_id" validate:"required,min=1"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
}

// SupplierChoiceResponse opción de proveedor de un artículo.
type SupplierChoiceResponse struct {
	SupplierID   int64            `json:"supplier_id"`
	SupplierName string           `json:"supplier_name"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	Registered   bool             `json:"registered"`
}

// PriceHistoryResponse cambio de precio.
type PriceHistoryResponse struct {
	ID           int64            `json:"id"`
	ItemID       int64            `json:"item_id"`
	SupplierID   int64            `json:"supplier_id"`
	OldUnitPrice *decimal.Decimal `json:"old_unit_price"`
	NewUnitPrice decimal.Decimal  `json:"new_unit_price"`
	ChangedBy    string           `json:"changed_by"`
	Source       string           `json:"source"`
	ReferenceID  *int64           `json:"reference_id"`
	ChangedAt    time.Time        `json:"changed_at"`
}
