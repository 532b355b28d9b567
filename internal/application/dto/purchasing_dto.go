package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Creación de pedidos ──────────────────────────────────────────────────────

// OrderLineRequest línea de entrada. Es una de tres formas:
//   - UnmanagedRequestID: solicitud fuera de catálogo ya preparada con proveedor
//   - ItemID (> 0): artículo de catálogo
//   - ItemNameFree: texto libre
type OrderLineRequest struct {
	UnmanagedRequestID *int64           `json:"unmanaged_request_id,omitempty"`
	ItemID             *int64           `json:"item_id,omitempty"`
	ItemNameFree       string           `json:"item_name_free,omitempty"`
	Maker              string           `json:"maker,omitempty"`
	Quantity           int              `json:"quantity"`
	Note               string           `json:"note,omitempty"`
	UsageDestination   string           `json:"usage_destination,omitempty"`
	VendorReplyDueDate string           `json:"vendor_reply_due_date,omitempty"` // YYYY-MM-DD
	SupplierID         *int64           `json:"supplier_id,omitempty"`
	UnitPrice          *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateOrderRequest body para POST /api/purchasing/orders.
type CreateOrderRequest struct {
	Lines                  []OrderLineRequest `json:"lines" validate:"required,min=1"`
	Department             string             `json:"department"`
	SupplierIDForFreeLines *int64             `json:"supplier_id_for_free_lines,omitempty"`
}

// CreateOrderResponse resultado de crear (o reutilizar) un pedido.
type CreateOrderResponse struct {
	OrderID      int64  `json:"order_id"`
	Status       string `json:"status"`
	SupplierName string `json:"supplier_name"`
	Department   string `json:"department"`
	Reused       bool   `json:"reused"`
}

// CandidateOverride ajustes del usuario sobre un candidato. La clave del mapa es el
// item_id o "unmanaged_<id>".
type CandidateOverride struct {
	SupplierID *int64           `json:"supplier_id,omitempty"`
	Quantity   *int             `json:"quantity,omitempty"`
	Note       *string          `json:"note,omitempty"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
}

// BulkOrderRequest body para POST /api/purchasing/orders/bulk.
type BulkOrderRequest struct {
	Department string                       `json:"department"`
	Overrides  map[string]CandidateOverride `json:"overrides"`
}

// BulkOrderResponse resultado de la creación masiva.
type BulkOrderResponse struct {
	CreatedCount int     `json:"created_count"`
	ReusedCount  int     `json:"reused_count"`
	OrderIDs     []int64 `json:"order_ids"`
}

// ── Estado y recepción ───────────────────────────────────────────────────────

// UpdateStatusRequest body para PATCH /api/purchasing/orders/:id/status.
// Force (solo admin) admite WAITING y RECEIVED como destino.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Force  bool   `json:"force"`
}

// UpdateStatusResponse estado resultante; Deleted=true tras una cancelación.
type UpdateStatusResponse struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
	Deleted bool   `json:"deleted,omitempty"`
}

// ReceiveRequest recepción (parcial o total). LineReceipts nil = todo lo pendiente.
type ReceiveRequest struct {
	LineReceipts       map[int64]int              `json:"line_receipts,omitempty"`
	DeliveryDate       string                     `json:"delivery_date"` // YYYY-MM-DD
	DeliveryNoteNumber string                     `json:"delivery_note_number"`
	PriceOverrides     map[int64]*decimal.Decimal `json:"price_overrides,omitempty"`
}

// ReceiveResponse resultado de una recepción.
type ReceiveResponse struct {
	OrderID       int64  `json:"order_id"`
	Status        string `json:"status"`
	FullyReceived bool   `json:"fully_received"`
}

// ReplyDueDateRequest fecha de respuesta del proveedor para una línea.
type ReplyDueDateRequest struct {
	DueDate string `json:"due_date" validate:"required"`
}

// ReplyDueDateResponse resultado de actualizar la fecha de respuesta.
type ReplyDueDateResponse struct {
	LineID      int64  `json:"line_id"`
	OrderID     int64  `json:"order_id"`
	DueDate     string `json:"due_date"`
	OrderStatus string `json:"order_status"`
}

// ── Documento y correo ───────────────────────────────────────────────────────

// DocumentResponse referencia del PDF generado o reutilizado.
type DocumentResponse struct {
	OrderID     int64  `json:"order_id"`
	Status      string `json:"status"`
	DocumentRef string `json:"document_ref"`
	Reused      bool   `json:"reused"`
}

// EmailPreviewResponse contenido del correo que se enviaría.
type EmailPreviewResponse struct {
	OrderID        int64  `json:"order_id"`
	Status         string `json:"status"`
	To             string `json:"to"`
	CC             string `json:"cc"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	AttachmentPath string `json:"attachment_path"`
	SenderEmail    string `json:"sender_email"`
}

// SendEmailResponse resultado del envío.
type SendEmailResponse struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
	SentTo  string `json:"sent_to"`
	SentCC  string `json:"sent_cc"`
}

// ── Vistas ───────────────────────────────────────────────────────────────────

// CandidateResponse fila de la lista de trabajo (managed = falta de stock, unmanaged = solicitud preparada).
type CandidateResponse struct {
	CandidateType      string                   `json:"candidate_type"`
	ItemID             *int64                   `json:"item_id"`
	UnmanagedRequestID *int64                   `json:"unmanaged_request_id"`
	ItemCode           string                   `json:"item_code"`
	Name               string                   `json:"name"`
	Department         string                   `json:"department"`
	Maker              string                   `json:"maker"`
	SupplierID         *int64                   `json:"supplier_id"`
	SupplierName       string                   `json:"supplier_name"`
	UnitPrice          *decimal.Decimal         `json:"unit_price"`
	Suppliers          []SupplierChoiceResponse `json:"suppliers"`
	SuppliersWithPrice []SupplierChoiceResponse `json:"suppliers_with_price"`
	OnHand             *int                     `json:"on_hand"`
	ReorderPoint       *int                     `json:"reorder_point"`
	Gap                *int                     `json:"gap"`
	GapLabel           string                   `json:"gap_label,omitempty"`
	OrderQuantity      int                      `json:"order_quantity"`
	Note               string                   `json:"note"`
	UsageDestination   string                   `json:"usage_destination"`
	VendorReplyDueDate string                   `json:"vendor_reply_due_date"`
}

// OrderLineResponse línea con precio resuelto y cantidades.
type OrderLineResponse struct {
	ID                 int64            `json:"id"`
	ItemID             *int64           `json:"item_id"`
	ItemCode           string           `json:"item_code"`
	ItemName           string           `json:"item_name"`
	Maker              string           `json:"maker"`
	Quantity           int              `json:"quantity"`
	ReceivedQuantity   int              `json:"received_quantity"`
	RemainingQuantity  int              `json:"remaining_quantity"`
	VendorReplyDueDate string           `json:"vendor_reply_due_date"`
	UsageDestination   string           `json:"usage_destination"`
	Note               string           `json:"note"`
	UnitPrice          *decimal.Decimal `json:"unit_price"`
}

// OrderResponse pedido con sus líneas.
type OrderResponse struct {
	ID            int64               `json:"id"`
	SupplierID    int64               `json:"supplier_id"`
	SupplierName  string              `json:"supplier_name"`
	Department    string              `json:"department"`
	OrderedByUser string              `json:"ordered_by_user"`
	Status        string              `json:"status"`
	IssuedDate    string              `json:"issued_date"`
	DocumentRef   string              `json:"document_ref"`
	CreatedAt     time.Time           `json:"created_at"`
	Lines         []OrderLineResponse `json:"lines"`
}

// PurchaseResultResponse fila del registro de compras.
type PurchaseResultResponse struct {
	ID                 int64            `json:"id"`
	DeliveryDate       string           `json:"delivery_date"`
	SupplierID         int64            `json:"supplier_id"`
	SupplierName       string           `json:"supplier_name"`
	DeliveryNoteNumber string           `json:"delivery_note_number"`
	ItemID             *int64           `json:"item_id"`
	ItemCode           string           `json:"item_code"`
	ItemName           string           `json:"item_name"`
	ItemNameFree       string           `json:"item_name_free"`
	Quantity           int              `json:"quantity"`
	UnitPrice          *decimal.Decimal `json:"unit_price"`
	Amount             *decimal.Decimal `json:"amount"`
	PurchaseMonth      string           `json:"purchase_month"`
	AccountName        string           `json:"account_name"`
	ExpenseItemName    string           `json:"expense_item_name"`
	PurchaserName      string           `json:"purchaser_name"`
	Note               string           `json:"note"`
	SourceOrderID      int64            `json:"source_order_id"`
	SourceLineID       int64            `json:"source_line_id"`
}

// EmailSendLogResponse intento de envío (correcto o fallido).
type EmailSendLogResponse struct {
	ID             int64     `json:"id"`
	OrderID        int64     `json:"order_id"`
	SentBy         string    `json:"sent_by"`
	SentAt         time.Time `json:"sent_at"`
	To             string    `json:"to"`
	CC             string    `json:"cc"`
	Subject        string    `json:"subject"`
	AttachmentPath string    `json:"attachment_path"`
	Success        bool      `json:"success"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}
