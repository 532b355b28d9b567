package purchasing

import "github.com/jhoicas/Compras-api/internal/domain/entity"

// Estado visible de una solicitud fuera de catálogo. Se calcula en cada lectura.
const (
	DisplayUnprocessed    = "unprocessed"
	DisplayRejected       = "rejected"
	DisplayReceived       = "received"
	DisplayOrderCancelled = "order cancelled"
	DisplayOrdered        = "ordered"
)

var displayLabels = map[string]string{
	DisplayUnprocessed:    "未処理",
	DisplayRejected:       "却下",
	DisplayReceived:       "入庫済",
	DisplayOrderCancelled: "発注取消",
	DisplayOrdered:        "発注済み",
}

// RequestDisplayStatus deriva el estado visible a partir de la solicitud y del estado
// actual de su pedido. orderStatus nil = el pedido ya no existe.
func RequestDisplayStatus(status entity.RequestStatus, orderStatus *entity.OrderStatus) string {
	switch status {
	case entity.RequestStatusPending:
		return DisplayUnprocessed
	case entity.RequestStatusRejected:
		return DisplayRejected
	}
	if orderStatus == nil {
		return DisplayOrderCancelled
	}
	switch *orderStatus {
	case entity.OrderStatusReceived:
		return DisplayReceived
	case entity.OrderStatusCancelled:
		return DisplayOrderCancelled
	}
	return DisplayOrdered
}

// DisplayLabel etiqueta para pantalla.
func DisplayLabel(code string) string {
	if l, ok := displayLabels[code]; ok {
		return l
	}
	return code
}
