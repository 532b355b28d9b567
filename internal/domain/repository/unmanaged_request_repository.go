package repository

import (
	"context"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// RequestFilter filtros de listado de solicitudes fuera de catálogo.
type RequestFilter struct {
	Status              entity.RequestStatus // vacío = PENDING salvo IncludeAll
	IncludeAll          bool
	ExcludeAcknowledged bool
	ExcludeStaged       bool
	OnlyStaged          bool
	Department          string
}

// UnmanagedRequestRepository solicitudes fuera de catálogo.
type UnmanagedRequestRepository interface {
	Create(ctx context.Context, req *entity.UnmanagedOrderRequest) error
	GetByID(ctx context.Context, id int64) (*entity.UnmanagedOrderRequest, error)
	// ListByIDs ordenado por fecha de solicitud e id, bloqueando las filas.
	ListByIDs(ctx context.Context, ids []int64) ([]*entity.UnmanagedOrderRequest, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*entity.UnmanagedOrderRequest, error)
	// List ordenado por fecha de solicitud descendente (OnlyStaged: ascendente).
	List(ctx context.Context, filter RequestFilter) ([]*entity.UnmanagedOrderRequest, error)
	Update(ctx context.Context, req *entity.UnmanagedOrderRequest) error
}
