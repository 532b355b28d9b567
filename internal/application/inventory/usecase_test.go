package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/inventory"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/infrastructure/memory"
)

func setup(t *testing.T) (*inventory.LedgerUseCase, *memory.Store, *entity.Item) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repositories()
	item := &entity.Item{Code: "B-100", Name: "Guante nitrilo", ReorderPoint: 5, IsActive: true}
	require.NoError(t, repos.Items.Create(ctx, item))
	require.NoError(t, repos.Inventory.Upsert(ctx, &entity.InventoryItem{ItemID: item.ID}))

	uc := inventory.NewLedgerUseCase(store, repos, time.UTC, zerolog.Nop())
	uc.SetClock(func() time.Time { return time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC) })
	return uc, store, item
}

func TestRecordMovement_SumaDelLibroIgualAExistencias(t *testing.T) {
	uc, _, item := setup(t)
	ctx := context.Background()

	_, err := uc.RecordMovement(ctx, inventory.MovementInput{ItemID: item.ID, Type: entity.TransactionReceipt, Quantity: 10, Actor: "sato"})
	require.NoError(t, err)
	_, err = uc.RecordMovement(ctx, inventory.MovementInput{ItemCode: item.Code, Type: entity.TransactionIssue, Quantity: 3})
	require.NoError(t, err)
	tx, err := uc.RecordMovement(ctx, inventory.MovementInput{ItemID: item.ID, Type: entity.TransactionAdjust, Quantity: -2})
	require.NoError(t, err)
	assert.Equal(t, "system", tx.CreatedBy)
	assert.NotEmpty(t, tx.BatchID)

	onHand, sum, err := uc.VerifyLedger(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, onHand)
	assert.Equal(t, onHand, sum)
}

func TestRecordMovement_StockInsuficienteNoEscribe(t *testing.T) {
	uc, _, item := setup(t)
	ctx := context.Background()
	_, err := uc.RecordMovement(ctx, inventory.MovementInput{ItemID: item.ID, Type: entity.TransactionReceipt, Quantity: 2})
	require.NoError(t, err)

	_, err = uc.RecordMovement(ctx, inventory.MovementInput{ItemID: item.ID, Type: entity.TransactionIssue, Quantity: 3})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, err = uc.RecordMovement(ctx, inventory.MovementInput{ItemID: item.ID, Type: entity.TransactionAdjust, Quantity: -3})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	onHand, sum, err := uc.VerifyLedger(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, onHand)
	assert.Equal(t, 2, sum)
}

func TestRecordMovement_Validaciones(t *testing.T) {
	uc, _, item := setup(t)
	ctx := context.Background()
	cases := []struct {
		name string
		in   inventory.MovementInput
		err  error
	}{
		{"entrada cero", inventory.MovementInput{ItemID: item.ID, Type: entity.TransactionReceipt}, domain.ErrInvalidQuantity},
		{"entrada negativa", inventory.MovementInput{ItemID: item.ID, Type: entity.TransactionReceipt, Quantity: -1}, domain.ErrInvalidQuantity},
		{"ajuste cero", inventory.MovementInput{ItemID: item.ID, Type: entity.TransactionAdjust}, domain.ErrInvalidQuantity},
		{"tipo desconocido", inventory.MovementInput{ItemID: item.ID, Type: "transfer", Quantity: 1}, domain.ErrInvalidInput},
		{"sin artículo", inventory.MovementInput{Type: entity.TransactionReceipt, Quantity: 1}, domain.ErrInvalidInput},
		{"artículo inexistente", inventory.MovementInput{ItemID: 999, Type: entity.TransactionReceipt, Quantity: 1}, domain.ErrUnknownItem},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.RecordMovement(ctx, tc.in)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestSetOnHand_RegistraAjustePorLaDiferencia(t *testing.T) {
	uc, _, item := setup(t)
	ctx := context.Background()

	tx, err := uc.SetOnHand(ctx, item.Code, 7, "棚卸", "yamada")
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, entity.TransactionAdjust, tx.Type)
	assert.Equal(t, 7, tx.Delta)

	tx, err = uc.SetOnHand(ctx, item.Code, 7, "", "yamada")
	require.NoError(t, err)
	assert.Nil(t, tx, "sin diferencia no hay ajuste")

	tx, err = uc.SetOnHand(ctx, item.Code, 4, "", "yamada")
	require.NoError(t, err)
	assert.Equal(t, -3, tx.Delta)

	_, err = uc.SetOnHand(ctx, item.Code, -1, "", "yamada")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestSnapshot_UltimaActividad(t *testing.T) {
	uc, _, item := setup(t)
	ctx := context.Background()

	snap, err := uc.Snapshot(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, snap.LastActivity)

	_, err = uc.RecordMovementFromRequest(ctx, "kato", dto.RegisterMovementRequest{ItemID: item.ID, Type: "receipt", Quantity: 4})
	require.NoError(t, err)
	snap, err = uc.Snapshot(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.OnHand)
	assert.Equal(t, 5, snap.ReorderPoint)
	require.NotNil(t, snap.LastActivity)

	_, err = uc.Snapshot(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLowStock_OrdenPorDeficit(t *testing.T) {
	_, store, item := setup(t)
	ctx := context.Background()
	repos := store.Repositories()
	other := &entity.Item{Code: "A-1", Name: "Cinta", ReorderPoint: 10, IsActive: true}
	require.NoError(t, repos.Items.Create(ctx, other))
	require.NoError(t, repos.Inventory.Upsert(ctx, &entity.InventoryItem{ItemID: other.ID, QuantityOnHand: 2}))
	untracked := &entity.Item{Code: "C-1", Name: "Sin control", IsActive: true}
	require.NoError(t, repos.Items.Create(ctx, untracked))

	list, err := inventory.NewReplenishmentUseCase(repos).LowStock(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, other.ID, list[0].Item.ID)
	assert.Equal(t, -8, list[0].Gap)
	assert.Equal(t, item.ID, list[1].Item.ID)
	assert.Equal(t, -5, list[1].Gap)
}
