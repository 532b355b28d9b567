package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// LedgerUseCase mantiene las existencias por artículo y su libro de transacciones.
// Cada movimiento bloquea la fila de existencias (SELECT FOR UPDATE), agrega la entrada al libro
// y actualiza on_hand en la misma transacción, así on_hand == suma de deltas siempre.
type LedgerUseCase struct {
	txRunner TxRunner
	repos    repository.Repositories
	loc      *time.Location
	now      func() time.Time
	log      zerolog.Logger
}

// NewLedgerUseCase construye el caso de uso. loc es la zona horaria de negocio.
func NewLedgerUseCase(txRunner TxRunner, repos repository.Repositories, loc *time.Location, log zerolog.Logger) *LedgerUseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerUseCase{
		txRunner: txRunner,
		repos:    repos,
		loc:      loc,
		now:      time.Now,
		log:      log,
	}
}

// SetClock reemplaza el reloj (tests).
func (uc *LedgerUseCase) SetClock(now func() time.Time) { uc.now = now }

// MovementInput entrada para registrar un movimiento.
// ItemID o ItemCode identifican el artículo. Quantity es positiva para receipt/issue
// (issue acepta también el delta negativo) y es el delta con signo para adjust.
type MovementInput struct {
	ItemID   int64
	ItemCode string
	Type     string
	Quantity int
	Reason   string
	Note     string
	Actor    string
}

// RecordMovement valida el tipo y la cantidad, y registra el movimiento en una transacción propia.
func (uc *LedgerUseCase) RecordMovement(ctx context.Context, in MovementInput) (*entity.InventoryTransaction, error) {
	delta, err := movementDelta(in.Type, in.Quantity)
	if err != nil {
		return nil, err
	}
	if in.ItemID <= 0 && strings.TrimSpace(in.ItemCode) == "" {
		return nil, fmt.Errorf("%w: falta item_id o item_code", domain.ErrInvalidInput)
	}

	var out *entity.InventoryTransaction
	err = uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		item, err := findItem(ctx, repos, in.ItemID, in.ItemCode)
		if err != nil {
			return err
		}
		out, err = uc.RecordInTx(ctx, repos, item.ID, in.Type, delta, in.Reason, in.Note, in.Actor, uuid.New().String())
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Int64("item_id", out.ItemID).
		Str("type", out.Type).
		Int("delta", out.Delta).
		Str("actor", out.CreatedBy).
		Msg("movimiento de inventario registrado")
	return out, nil
}

// RecordInTx aplica un delta usando los repositorios de la transacción del caller.
// Devuelve ErrInsufficientStock si las existencias quedarían negativas.
func (uc *LedgerUseCase) RecordInTx(
	ctx context.Context,
	repos repository.Repositories,
	itemID int64,
	txType string,
	delta int,
	reason, note, actor, batchID string,
) (*entity.InventoryTransaction, error) {
	// Bloquea la fila de existencias para evitar condiciones de carrera
	inv, err := repos.Inventory.GetForUpdate(ctx, itemID)
	if err != nil {
		return nil, err
	}
	newQty := inv.QuantityOnHand + delta
	if newQty < 0 {
		return nil, fmt.Errorf("%w: artículo %d tiene %d, se piden %d", domain.ErrInsufficientStock, itemID, inv.QuantityOnHand, -delta)
	}
	now := uc.now().In(uc.loc)
	inv.QuantityOnHand = newQty
	inv.UpdatedAt = now
	if err := repos.Inventory.Upsert(ctx, inv); err != nil {
		return nil, err
	}
	if actor == "" {
		actor = "system"
	}
	tx := &entity.InventoryTransaction{
		BatchID:    batchID,
		ItemID:     itemID,
		Type:       txType,
		Delta:      delta,
		Reason:     reason,
		Note:       note,
		OccurredAt: now,
		CreatedBy:  actor,
	}
	if err := repos.Inventory.AppendTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// ReceiveInTx entrada de mercancía dentro de la transacción del caller (recepción de pedidos).
func (uc *LedgerUseCase) ReceiveInTx(ctx context.Context, repos repository.Repositories, itemID int64, qty int, reason, note, actor, batchID string) error {
	if qty <= 0 {
		return fmt.Errorf("%w: entrada de %d unidades", domain.ErrInvalidQuantity, qty)
	}
	_, err := uc.RecordInTx(ctx, repos, itemID, entity.TransactionReceipt, qty, reason, note, actor, batchID)
	return err
}

// SetOnHand fija las existencias a target registrando un ajuste por la diferencia.
// Devuelve nil si no hay nada que ajustar.
func (uc *LedgerUseCase) SetOnHand(ctx context.Context, itemCode string, target int, note, actor string) (*entity.InventoryTransaction, error) {
	if target < 0 {
		return nil, fmt.Errorf("%w: existencias objetivo %d", domain.ErrInvalidQuantity, target)
	}
	var out *entity.InventoryTransaction
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		item, err := findItem(ctx, repos, 0, itemCode)
		if err != nil {
			return err
		}
		inv, err := repos.Inventory.GetForUpdate(ctx, item.ID)
		if err != nil {
			return err
		}
		delta := target - inv.QuantityOnHand
		if delta == 0 {
			return nil
		}
		out, err = uc.RecordInTx(ctx, repos, item.ID, entity.TransactionAdjust, delta, "在庫数修正", note, actor, uuid.New().String())
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Snapshot existencias, punto de reorden y último movimiento de un artículo.
func (uc *LedgerUseCase) Snapshot(ctx context.Context, itemID int64) (*entity.InventorySnapshot, error) {
	item, err := uc.repos.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	inv, err := uc.repos.Inventory.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	snap := &entity.InventorySnapshot{
		ItemID:       item.ID,
		ItemCode:     item.Code,
		ReorderPoint: item.ReorderPoint,
	}
	if inv != nil {
		snap.OnHand = inv.QuantityOnHand
	}
	last, err := uc.repos.Inventory.ListTransactions(ctx, itemID, 1)
	if err != nil {
		return nil, err
	}
	if len(last) > 0 {
		at := last[0].OccurredAt
		snap.LastActivity = &at
	}
	return snap, nil
}

// VerifyLedger devuelve on_hand y la suma de deltas del libro; deben coincidir.
func (uc *LedgerUseCase) VerifyLedger(ctx context.Context, itemID int64) (onHand, ledgerSum int, err error) {
	inv, err := uc.repos.Inventory.Get(ctx, itemID)
	if err != nil {
		return 0, 0, err
	}
	if inv != nil {
		onHand = inv.QuantityOnHand
	}
	ledgerSum, err = uc.repos.Inventory.SumDeltas(ctx, itemID)
	if err != nil {
		return 0, 0, err
	}
	if onHand != ledgerSum {
		uc.log.Error().Int64("item_id", itemID).Int("on_hand", onHand).Int("ledger_sum", ledgerSum).Msg("libro de inventario descuadrado")
	}
	return onHand, ledgerSum, nil
}

// RecentTransactions últimas entradas del libro (todos los artículos), más recientes primero.
func (uc *LedgerUseCase) RecentTransactions(ctx context.Context, limit int) ([]entity.InventoryTransaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return uc.repos.Inventory.RecentTransactions(ctx, limit)
}

func movementDelta(txType string, qty int) (int, error) {
	switch txType {
	case entity.TransactionReceipt:
		if qty <= 0 {
			return 0, fmt.Errorf("%w: entrada de %d unidades", domain.ErrInvalidQuantity, qty)
		}
		return qty, nil
	case entity.TransactionIssue:
		if qty == 0 {
			return 0, fmt.Errorf("%w: salida de 0 unidades", domain.ErrInvalidQuantity)
		}
		if qty > 0 {
			return -qty, nil
		}
		return qty, nil
	case entity.TransactionAdjust:
		if qty == 0 {
			return 0, fmt.Errorf("%w: ajuste de 0 unidades", domain.ErrInvalidQuantity)
		}
		return qty, nil
	}
	return 0, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, txType)
}

func findItem(ctx context.Context, repos repository.Repositories, itemID int64, code string) (*entity.Item, error) {
	var (
		item *entity.Item
		err  error
	)
	if itemID > 0 {
		item, err = repos.Items.GetByID(ctx, itemID)
	} else {
		item, err = repos.Items.GetByCode(ctx, strings.TrimSpace(code))
	}
	if err != nil {
		return nil, err
	}
	if item == nil {
		if itemID > 0 {
			return nil, fmt.Errorf("%w: id %d", domain.ErrUnknownItem, itemID)
		}
		return nil, fmt.Errorf("%w: código %q", domain.ErrUnknownItem, code)
	}
	return item, nil
}
