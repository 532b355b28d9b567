package inventory

import (
	"context"

	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza que existencias y libro se escriben juntos o no se escriben.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}
