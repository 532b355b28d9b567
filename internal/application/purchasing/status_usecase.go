package purchasing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	rules "github.com/jhoicas/Compras-api/internal/domain/purchasing"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// Motivos del libro de inventario para las entradas generadas por pedidos.
const (
	fullReceiptReason    = "発注#%d 納品計上"
	partialReceiptReason = "発注#%d 分納入庫"
	receiptNote          = "発注管理"
	partialReceiptNote   = "発注管理 明細#%d"
)

// ── Estado ───────────────────────────────────────────────────────────────────

// UpdateOrderStatus cambio de estado genérico. WAITING y RECEIVED no se aceptan como destino:
// WAITING lo fijan el envío de correo y la fecha de respuesta, RECEIVED la recepción.
func (uc *OrderUseCase) UpdateOrderStatus(ctx context.Context, orderID int64, target, updatedBy string) (*dto.UpdateStatusResponse, error) {
	return uc.updateStatus(ctx, orderID, target, updatedBy, false)
}

// ForceOrderStatus igual que UpdateOrderStatus pero admite WAITING y RECEIVED (recepción total
// sin albarán). Reservado a administradores.
func (uc *OrderUseCase) ForceOrderStatus(ctx context.Context, orderID int64, target, updatedBy string) (*dto.UpdateStatusResponse, error) {
	return uc.updateStatus(ctx, orderID, target, updatedBy, true)
}

func (uc *OrderUseCase) updateStatus(ctx context.Context, orderID int64, raw, updatedBy string, allowDirect bool) (*dto.UpdateStatusResponse, error) {
	target, err := rules.ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	resp := &dto.UpdateStatusResponse{OrderID: orderID}
	err = uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		order, err := lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		if order.Status == target {
			resp.Status = string(order.Status)
			return nil
		}
		if !allowDirect && (target == entity.OrderStatusWaiting || target == entity.OrderStatusReceived) {
			return fmt.Errorf("%w: pedido %d de %s a %s (use el envío de correo o la recepción)",
				domain.ErrInvalidTransition, orderID, order.Status, target)
		}
		if err := rules.ValidateTransition(orderID, order.Status, target); err != nil {
			return err
		}

		switch target {
		case entity.OrderStatusCancelled:
			if err := uc.cancelInTx(ctx, repos, order); err != nil {
				return err
			}
			resp.Status = string(entity.OrderStatusCancelled)
			resp.Deleted = true
			return nil
		case entity.OrderStatusReceived:
			if err := uc.receiveFullInTx(ctx, repos, order, updatedBy); err != nil {
				return err
			}
		}

		order.Status = target
		order.UpdatedAt = uc.clock()
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}
		resp.Status = string(target)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Int64("order_id", orderID).
		Str("status", resp.Status).
		Bool("deleted", resp.Deleted).
		Str("by", updatedBy).
		Msg("estado del pedido actualizado")
	return resp, nil
}

// cancelInTx devuelve las solicitudes enlazadas a la lista de trabajo y borra el pedido
// (el id queda libre para el próximo pedido).
func (uc *OrderUseCase) cancelInTx(ctx context.Context, repos repository.Repositories, order *entity.PurchaseOrder) error {
	linked, err := repos.Requests.ListByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	for _, req := range linked {
		req.ResetToPending()
		if err := repos.Requests.Update(ctx, req); err != nil {
			return err
		}
	}
	return repos.Orders.Delete(ctx, order.ID)
}

// receiveFullInTx recepción total: cada línea pasa a recibida por completo y las de catálogo
// generan su entrada de inventario por lo pendiente.
func (uc *OrderUseCase) receiveFullInTx(ctx context.Context, repos repository.Repositories, order *entity.PurchaseOrder, actor string) error {
	batchID := uuid.NewString()
	reason := fmt.Sprintf(fullReceiptReason, order.ID)
	for i := range order.Lines {
		l := &order.Lines[i]
		remaining := l.Remaining()
		if l.ItemID != nil && remaining > 0 {
			if err := uc.ledger.ReceiveInTx(ctx, repos, *l.ItemID, remaining, reason, receiptNote, actor, batchID); err != nil {
				return err
			}
		}
		l.ReceivedQuantity = l.Quantity
	}
	return nil
}

// UpdateReplyDueDate registra la fecha prometida por el proveedor para una línea.
// Solo en pedidos SENT o WAITING; un pedido SENT pasa a WAITING.
func (uc *OrderUseCase) UpdateReplyDueDate(ctx context.Context, lineID int64, dueDate string) (*dto.ReplyDueDateResponse, error) {
	due, err := parseOptionalDate(dueDate)
	if err != nil {
		return nil, err
	}
	if due == nil {
		return nil, fmt.Errorf("%w: fecha de respuesta vacía", domain.ErrInvalidInput)
	}
	var resp *dto.ReplyDueDateResponse
	err = uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		line, err := repos.Orders.GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		if line == nil {
			return fmt.Errorf("%w: línea %d", domain.ErrNotFound, lineID)
		}
		order, err := lockOrder(ctx, repos, line.PurchaseOrderID)
		if err != nil {
			return err
		}
		if order.Status != entity.OrderStatusSent && order.Status != entity.OrderStatusWaiting {
			return fmt.Errorf("%w: pedido %d en estado %s", domain.ErrInvalidState, order.ID, order.Status)
		}
		order.Line(lineID).VendorReplyDueDate = due
		if order.Status == entity.OrderStatusSent {
			order.Status = entity.OrderStatusWaiting
		}
		order.UpdatedAt = uc.clock()
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}
		resp = &dto.ReplyDueDateResponse{
			LineID:      lineID,
			OrderID:     order.ID,
			DueDate:     due.Format(dateLayout),
			OrderStatus: string(order.Status),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ── Recepción ────────────────────────────────────────────────────────────────

type receiptPlan struct {
	line  *entity.PurchaseOrderLine
	qty   int
	item  *entity.Item
	price *decimal.Decimal
}

// ReceivePartial registra una entrega. Todo se valida antes de escribir: un error deja el pedido,
// el inventario y el registro de compras sin cambios.
func (uc *OrderUseCase) ReceivePartial(ctx context.Context, orderID int64, updatedBy string, in dto.ReceiveRequest) (*dto.ReceiveResponse, error) {
	var resp *dto.ReceiveResponse
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		var err error
		resp, err = uc.receiveInTx(ctx, repos, orderID, strings.TrimSpace(updatedBy), in)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Int64("order_id", orderID).
		Str("status", resp.Status).
		Bool("fully_received", resp.FullyReceived).
		Str("delivery_note", in.DeliveryNoteNumber).
		Msg("recepción registrada")
	return resp, nil
}

// ReceiveAll recepción de todo lo pendiente con albarán.
func (uc *OrderUseCase) ReceiveAll(ctx context.Context, orderID int64, updatedBy, deliveryDate, deliveryNote string) (*dto.ReceiveResponse, error) {
	return uc.ReceivePartial(ctx, orderID, updatedBy, dto.ReceiveRequest{
		DeliveryDate:       deliveryDate,
		DeliveryNoteNumber: deliveryNote,
	})
}

func (uc *OrderUseCase) receiveInTx(ctx context.Context, repos repository.Repositories, orderID int64, actor string, in dto.ReceiveRequest) (*dto.ReceiveResponse, error) {
	order, err := lockOrder(ctx, repos, orderID)
	if err != nil {
		return nil, err
	}
	if !rules.IsReceivable(order.Status) {
		return nil, fmt.Errorf("%w: pedido %d en estado %s", domain.ErrInvalidState, orderID, order.Status)
	}
	delivery, err := parseOptionalDate(in.DeliveryDate)
	if err != nil {
		return nil, err
	}
	noteNumber := strings.TrimSpace(in.DeliveryNoteNumber)
	if delivery == nil || noteNumber == "" {
		return nil, fmt.Errorf("%w: pedido %d", domain.ErrMissingDeliveryInfo, orderID)
	}

	for lineID, qty := range in.LineReceipts {
		if order.Line(lineID) == nil {
			return nil, fmt.Errorf("%w: línea %d en pedido %d", domain.ErrUnknownLine, lineID, orderID)
		}
		if qty < 0 {
			return nil, fmt.Errorf("%w: línea %d con cantidad %d", domain.ErrInvalidQuantity, lineID, qty)
		}
	}
	for lineID, p := range in.PriceOverrides {
		if order.Line(lineID) == nil {
			return nil, fmt.Errorf("%w: precio para línea %d en pedido %d", domain.ErrUnknownLine, lineID, orderID)
		}
		if p != nil && p.IsNegative() {
			return nil, fmt.Errorf("%w: línea %d con precio negativo", domain.ErrInvalidInput, lineID)
		}
	}

	plan := make([]receiptPlan, 0, len(order.Lines))
	for i := range order.Lines {
		l := &order.Lines[i]
		remaining := l.Remaining()
		qty := remaining
		// mapa vacío u omitido: se recibe todo lo pendiente
		if len(in.LineReceipts) > 0 {
			var ok bool
			if qty, ok = in.LineReceipts[l.ID]; !ok {
				continue
			}
		}
		if qty > remaining {
			return nil, fmt.Errorf("%w: línea %d recibe %d con %d pendientes", domain.ErrOverReceipt, l.ID, qty, remaining)
		}
		if qty == 0 {
			continue
		}
		p := receiptPlan{line: l, qty: qty, price: in.PriceOverrides[l.ID]}
		if l.ItemID != nil {
			if p.item, err = lookupItem(ctx, repos, *l.ItemID); err != nil {
				return nil, err
			}
		}
		plan = append(plan, p)
	}
	if len(plan) == 0 {
		return nil, fmt.Errorf("%w: pedido %d", domain.ErrNothingToReceive, orderID)
	}

	batchID := uuid.NewString()
	reason := fmt.Sprintf(partialReceiptReason, order.ID)
	now := uc.clock()
	for _, p := range plan {
		price := p.price
		if p.item != nil {
			if err := uc.ledger.ReceiveInTx(ctx, repos, p.item.ID, p.qty, reason, fmt.Sprintf(partialReceiptNote, p.line.ID), actor, batchID); err != nil {
				return nil, err
			}
			if price, err = uc.pricing.ApplyOverrideInTx(ctx, repos, p.item, order.SupplierID, p.price, actor, p.line.ID); err != nil {
				return nil, err
			}
		}
		p.line.ReceivedQuantity += p.qty

		result := &entity.PurchaseResult{
			ReceiptID:          batchID,
			DeliveryDate:       *delivery,
			SupplierID:         order.SupplierID,
			DeliveryNoteNumber: noteNumber,
			ItemID:             p.line.ItemID,
			ItemNameFree:       p.line.ItemNameFree,
			Quantity:           p.qty,
			UnitPrice:          price,
			Amount:             rules.LineAmount(price, p.qty),
			PurchaseMonth:      rules.PurchaseMonth(*delivery),
			PurchaserName:      order.OrderedByUser,
			Note:               p.line.Note,
			SourceOrderID:      order.ID,
			SourceLineID:       p.line.ID,
			CreatedAt:          now,
		}
		if p.item != nil {
			result.ItemNameFree = p.item.Name
			result.AccountName = p.item.AccountName
			result.ExpenseItemName = p.item.ExpenseItemName
		}
		if err := repos.Results.Create(ctx, result); err != nil {
			return nil, err
		}
	}

	fully := order.AllReceived()
	if fully {
		order.Status = entity.OrderStatusReceived
	} else {
		order.Status = entity.OrderStatusWaiting
	}
	order.UpdatedAt = now
	if err := repos.Orders.Update(ctx, order); err != nil {
		return nil, err
	}
	return &dto.ReceiveResponse{OrderID: order.ID, Status: string(order.Status), FullyReceived: fully}, nil
}

// PurchaseResults registro de compras por rango de fecha de entrega (inclusive).
func (uc *OrderUseCase) PurchaseResults(ctx context.Context, from, to string) ([]dto.PurchaseResultResponse, error) {
	f, err := parseOptionalDate(from)
	if err != nil {
		return nil, err
	}
	t, err := parseOptionalDate(to)
	if err != nil {
		return nil, err
	}
	if f == nil || t == nil {
		return nil, fmt.Errorf("%w: indique desde y hasta", domain.ErrInvalidInput)
	}
	if t.Before(*f) {
		return nil, fmt.Errorf("%w: el rango termina antes de empezar", domain.ErrInvalidInput)
	}
	rows, err := uc.repos.Results.ListByDeliveryDate(ctx, *f, *t)
	if err != nil {
		return nil, err
	}
	out := ToPurchaseResultResponses(rows)

	suppliers := map[int64]string{}
	items := map[int64]*entity.Item{}
	for i := range out {
		r := &out[i]
		name, ok := suppliers[r.SupplierID]
		if !ok {
			s, err := uc.repos.Suppliers.GetByID(ctx, r.SupplierID)
			if err != nil {
				return nil, err
			}
			if s != nil {
				name = s.Name
			}
			suppliers[r.SupplierID] = name
		}
		r.SupplierName = name
		if r.ItemID == nil {
			continue
		}
		item, ok := items[*r.ItemID]
		if !ok {
			if item, err = uc.repos.Items.GetByID(ctx, *r.ItemID); err != nil {
				return nil, err
			}
			items[*r.ItemID] = item
		}
		if item != nil {
			r.ItemCode, r.ItemName = item.Code, item.Name
		}
	}
	return out, nil
}

// ToPurchaseResultResponses convierte filas del registro de compras a DTO.
func ToPurchaseResultResponses(rows []entity.PurchaseResult) []dto.PurchaseResultResponse {
	out := make([]dto.PurchaseResultResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.PurchaseResultResponse{
			ID:                 r.ID,
			DeliveryDate:       r.DeliveryDate.Format(dateLayout),
			SupplierID:         r.SupplierID,
			DeliveryNoteNumber: r.DeliveryNoteNumber,
			ItemID:             r.ItemID,
			ItemNameFree:       r.ItemNameFree,
			Quantity:           r.Quantity,
			UnitPrice:          r.UnitPrice,
			Amount:             r.Amount,
			PurchaseMonth:      r.PurchaseMonth,
			AccountName:        r.AccountName,
			ExpenseItemName:    r.ExpenseItemName,
			PurchaserName:      r.PurchaserName,
			Note:               r.Note,
			SourceOrderID:      r.SourceOrderID,
			SourceLineID:       r.SourceLineID,
		})
	}
	return out
}

func lockOrder(ctx context.Context, repos repository.Repositories, orderID int64) (*entity.PurchaseOrder, error) {
	order, err := repos.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: pedido %d", domain.ErrNotFound, orderID)
	}
	return order, nil
}
