package entity

import "time"

// RequestStatus estado almacenado de una solicitud fuera de catálogo.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusConverted RequestStatus = "CONVERTED"
	RequestStatusRejected  RequestStatus = "REJECTED"
)

// UnmanagedOrderRequest solicitud de compra hecha por un departamento, con o sin artículo de catálogo.
// Mientras está PENDING puede "prepararse" con un proveedor (StagedSupplierID) para aparecer
// entre los candidatos; al convertirse guarda el pedido y la línea resultantes.
type UnmanagedOrderRequest struct {
	ID                  int64
	RequestedAt         time.Time
	RequestedDepartment string
	RequestedBy         string
	ItemID              *int64
	ItemCodeFree        string
	Manufacturer        string
	Quantity            int
	UsageDestination    string
	Note                string
	VendorReplyDueDate  *time.Time
	Status              RequestStatus
	StagedSupplierID    *int64
	StagedAt            *time.Time
	PurchaseOrderID     *int64
	PurchaseOrderLineID *int64
	AcknowledgedAt      *time.Time
}

// IsStaged indica si la solicitud está preparada con proveedor.
func (r *UnmanagedOrderRequest) IsStaged() bool {
	return r.StagedSupplierID != nil
}

// ClearStaging quita el proveedor preparado.
func (r *UnmanagedOrderRequest) ClearStaging() {
	r.StagedSupplierID = nil
	r.StagedAt = nil
}

// ResetToPending vuelve la solicitud a la lista de trabajo (usado al cancelar un pedido).
func (r *UnmanagedOrderRequest) ResetToPending() {
	r.Status = RequestStatusPending
	r.PurchaseOrderID = nil
	r.PurchaseOrderLineID = nil
}
