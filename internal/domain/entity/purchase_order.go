package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus estado del pedido de compra.
type OrderStatus string

// Estados del pedido. RECEIVED y CANCELLED son terminales.
const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusSent      OrderStatus = "SENT"
	OrderStatusWaiting   OrderStatus = "WAITING"
	OrderStatusReceived  OrderStatus = "RECEIVED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// PurchaseOrder pedido a un único proveedor.
type PurchaseOrder struct {
	ID            int64 // menor entero libre, se reutiliza tras una cancelación
	SupplierID    int64
	Department    string
	OrderedByUser string
	Status        OrderStatus
	IssuedDate    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Lines         []PurchaseOrderLine
}

// AllReceived indica si todas las líneas están completas.
func (o *PurchaseOrder) AllReceived() bool {
	for i := range o.Lines {
		if o.Lines[i].Remaining() > 0 {
			return false
		}
	}
	return true
}

// Line busca una línea por id.
func (o *PurchaseOrder) Line(id int64) *PurchaseOrderLine {
	for i := range o.Lines {
		if o.Lines[i].ID == id {
			return &o.Lines[i]
		}
	}
	return nil
}

// PurchaseOrderLine línea de pedido: artículo de catálogo (ItemID) o texto libre (ItemNameFree).
type PurchaseOrderLine struct {
	ID                 int64
	PurchaseOrderID    int64
	ItemID             *int64
	ItemNameFree       string
	Maker              string
	Quantity           int
	ReceivedQuantity   int // nunca mayor que Quantity
	VendorReplyDueDate *time.Time
	UsageDestination   string
	Note               string
}

// Remaining cantidad pendiente de recibir.
func (l *PurchaseOrderLine) Remaining() int {
	r := l.Quantity - max(0, l.ReceivedQuantity)
	if r < 0 {
		return 0
	}
	return r
}

// PurchaseOrderDocument documento generado (un PDF vigente por pedido).
type PurchaseOrderDocument struct {
	PurchaseOrderID int64
	Path            string
	GeneratedAt     time.Time
	GeneratedBy     string
}

// EmailSendLog registro de envío (exitoso o fallido). No tiene FK: sobrevive al borrado del pedido.
type EmailSendLog struct {
	ID              int64
	PurchaseOrderID int64
	SentBy          string
	SentAt          time.Time
	To              string
	CC              string
	Subject         string
	Body            string
	AttachmentPath  string
	Success         bool
	ErrorMessage    string
}

// PurchaseResult fila del registro de compras, una por línea recibida en cada entrega.
type PurchaseResult struct {
	ID                 int64
	ReceiptID          string // uuid de la recepción que la originó
	DeliveryDate       time.Time
	SupplierID         int64
	DeliveryNoteNumber string
	ItemID             *int64
	ItemNameFree       string
	Quantity           int
	UnitPrice          *decimal.Decimal
	Amount             *decimal.Decimal // nil cuando el precio no se conoce
	PurchaseMonth      string           // "YYMM"
	AccountName        string
	ExpenseItemName    string
	PurchaserName      string
	Note               string
	SourceOrderID      int64
	SourceLineID       int64
	CreatedAt          time.Time
}
