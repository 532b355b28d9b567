package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrDuplicate     = errors.New("recurso duplicado")
	ErrUnauthorized  = errors.New("no autorizado")
	ErrForbidden     = errors.New("acceso denegado")
	ErrConflict      = errors.New("conflicto con el estado actual")
	ErrSupplierInUse = errors.New("el proveedor tiene artículos o pedidos asociados")
)

// Errores del ciclo de compras. Se envuelven con contexto (id, estado actual, destino):
//
//	fmt.Errorf("%w: pedido %d en estado %s", domain.ErrInvalidState, id, status)
var (
	ErrUnknownItem         = errors.New("artículo inexistente")
	ErrInvalidLine         = errors.New("línea de pedido inválida")
	ErrSupplierRequired    = errors.New("la línea no tiene proveedor")
	ErrMixedSupplier       = errors.New("un pedido no puede mezclar proveedores")
	ErrInvalidQuantity     = errors.New("cantidad inválida")
	ErrInvalidTransition   = errors.New("transición de estado no permitida")
	ErrInvalidState        = errors.New("operación no permitida en el estado actual")
	ErrMissingDeliveryInfo = errors.New("falta fecha de entrega o número de albarán")
	ErrUnknownLine         = errors.New("la línea no pertenece al pedido")
	ErrOverReceipt         = errors.New("la cantidad recibida supera el pendiente")
	ErrNothingToReceive    = errors.New("no hay cantidades para recibir")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrNotEligible         = errors.New("solicitud no elegible")
	ErrDocumentRender      = errors.New("no se pudo generar el documento")
	ErrEmailSend           = errors.New("no se pudo enviar el correo")
)
