package dto

// CreateUnmanagedRequest alta de una solicitud fuera de catálogo.
// Se indica un artículo de catálogo (ItemID) o un código libre (ItemCodeFree).
type CreateUnmanagedRequest struct {
	ItemID              *int64 `json:"item_id,omitempty"`
	ItemCodeFree        string `json:"item_code_free,omitempty"`
	Manufacturer        string `json:"manufacturer"`
	Quantity            int    `json:"quantity" validate:"min=1"`
	UsageDestination    string `json:"usage_destination"`
	Note                string `json:"note"`
	VendorReplyDueDate  string `json:"vendor_reply_due_date,omitempty"` // YYYY-MM-DD
	RequestedDepartment string `json:"requested_department"`
}

// RequestIDsRequest lista de solicitudes (unstage, reject, acknowledge).
type RequestIDsRequest struct {
	RequestIDs []int64 `json:"request_ids" validate:"required,min=1"`
}

// StageRequest preparar solicitudes con un proveedor.
type StageRequest struct {
	RequestIDs []int64 `json:"request_ids" validate:"required,min=1"`
	SupplierID int64   `json:"supplier_id" validate:"required,min=1"`
}

// StageResponse número de solicitudes afectadas.
type StageResponse struct {
	StagedCount int `json:"staged_count"`
}

// ConvertRequest convertir solicitudes en un pedido.
type ConvertRequest struct {
	RequestIDs []int64 `json:"request_ids" validate:"required,min=1"`
	SupplierID int64   `json:"supplier_id" validate:"required,min=1"`
	Department string  `json:"department"`
}

// RequestListQuery filtros de GET /api/purchasing/requests.
type RequestListQuery struct {
	Status              string `query:"status"`
	IncludeAll          bool   `query:"include_all"`
	ExcludeAcknowledged bool   `query:"exclude_acknowledged"`
	ExcludeStaged       bool   `query:"exclude_staged"`
}

// UnmanagedRequestResponse vista de una solicitud con su estado visible calculado.
type UnmanagedRequestResponse struct {
	ID                  int64  `json:"id"`
	RequestedAt         string `json:"requested_at"`
	RequestedDepartment string `json:"requested_department"`
	RequestedBy         string `json:"requested_by"`
	ItemID              *int64 `json:"item_id"`
	ItemCode            string `json:"item_code"`
	ItemName            string `json:"item_name"`
	ItemCodeFree        string `json:"item_code_free"`
	Manufacturer        string `json:"manufacturer"`
	Quantity            int    `json:"quantity"`
	UsageDestination    string `json:"usage_destination"`
	Note                string `json:"note"`
	VendorReplyDueDate  string `json:"vendor_reply_due_date"`
	Status              string `json:"status"`
	DisplayStatus       string `json:"display_status"`
	DisplayLabel        string `json:"display_label"`
	LineReplyDueDate    string `json:"line_reply_due_date"`
	IsReceived          bool   `json:"is_received"`
	StagedSupplierID    *int64 `json:"staged_supplier_id"`
	PurchaseOrderID     *int64 `json:"purchase_order_id"`
	PurchaseOrderLineID *int64 `json:"purchase_order_line_id"`
}
