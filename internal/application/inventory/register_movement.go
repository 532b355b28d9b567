package inventory

import (
	"context"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// RecordMovementFromRequest adapta el request HTTP al caso de uso RecordMovement(ctx, MovementInput).
func (uc *LedgerUseCase) RecordMovementFromRequest(ctx context.Context, actor string, in dto.RegisterMovementRequest) (*dto.InventoryTransactionResponse, error) {
	tx, err := uc.RecordMovement(ctx, MovementInput{
		ItemID:   in.ItemID,
		ItemCode: in.ItemCode,
		Type:     in.Type,
		Quantity: in.Quantity,
		Reason:   in.Reason,
		Note:     in.Note,
		Actor:    actor,
	})
	if err != nil {
		return nil, err
	}
	out := ToTransactionResponse(*tx)
	return &out, nil
}

// ToTransactionResponse convierte una entrada del libro a su DTO.
func ToTransactionResponse(t entity.InventoryTransaction) dto.InventoryTransactionResponse {
	return dto.InventoryTransactionResponse{
		ID:         t.ID,
		BatchID:    t.BatchID,
		ItemID:     t.ItemID,
		Type:       t.Type,
		Delta:      t.Delta,
		Reason:     t.Reason,
		Note:       t.Note,
		OccurredAt: t.OccurredAt,
		CreatedBy:  t.CreatedBy,
	}
}
