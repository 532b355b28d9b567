// Package purchasing contiene las reglas puras del ciclo de compras: máquina de estados,
// firma de líneas para deduplicar, asignación de ids, precedencia de precios y estados derivados.
// No accede a almacenamiento; los casos de uso le pasan los datos ya cargados.
package purchasing

import (
	"fmt"
	"strings"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// ── Máquina de estados ───────────────────────────────────────────────────────

var transitions = map[entity.OrderStatus][]entity.OrderStatus{
	entity.OrderStatusDraft:     {entity.OrderStatusConfirmed, entity.OrderStatusCancelled},
	entity.OrderStatusConfirmed: {entity.OrderStatusSent, entity.OrderStatusCancelled},
	entity.OrderStatusSent:      {entity.OrderStatusWaiting, entity.OrderStatusCancelled},
	entity.OrderStatusWaiting:   {entity.OrderStatusReceived, entity.OrderStatusCancelled},
	entity.OrderStatusReceived:  nil,
	entity.OrderStatusCancelled: nil,
}

// CommittedStatuses pedidos firmes: sus artículos no vuelven a proponerse como candidatos.
// DRAFT no bloquea y RECEIVED tampoco (tras recibir, el artículo puede volver a faltar).
var CommittedStatuses = []entity.OrderStatus{
	entity.OrderStatusConfirmed,
	entity.OrderStatusSent,
	entity.OrderStatusWaiting,
}

// IsCommitted indica si el estado está en CommittedStatuses.
func IsCommitted(s entity.OrderStatus) bool {
	for _, c := range CommittedStatuses {
		if c == s {
			return true
		}
	}
	return false
}

// CanTransition indica si from -> to está permitido.
func CanTransition(from, to entity.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition devuelve ErrInvalidTransition con el contexto del pedido.
func ValidateTransition(orderID int64, from, to entity.OrderStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: pedido %d de %s a %s", domain.ErrInvalidTransition, orderID, from, to)
	}
	return nil
}

// IsTerminal estados sin transiciones de salida.
func IsTerminal(s entity.OrderStatus) bool {
	return len(transitions[s]) == 0
}

// IsReceivable la recepción parcial solo se admite en SENT o WAITING.
func IsReceivable(s entity.OrderStatus) bool {
	return s == entity.OrderStatusSent || s == entity.OrderStatusWaiting
}

// ParseStatus normaliza y valida un estado recibido desde fuera.
func ParseStatus(raw string) (entity.OrderStatus, error) {
	s := entity.OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := transitions[s]; !ok {
		return "", fmt.Errorf("%w: estado %q desconocido", domain.ErrInvalidInput, raw)
	}
	return s, nil
}
