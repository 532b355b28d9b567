package purchasing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// sentOrder pedido SENT con una línea de catálogo (qty) y, opcionalmente, una libre.
func sentOrder(t *testing.T, e *env, qty int, withFree bool) (*entity.PurchaseOrder, *entity.Item) {
	t.Helper()
	sup := e.supplier(t, "A社", "a@example.com", "")
	it := e.item(t, "R-1", "製造", 0, 0, &sup.ID, "100")
	lines := []dto.OrderLineRequest{{ItemID: &it.ID, Quantity: qty}}
	if withFree {
		lines = append(lines, dto.OrderLineRequest{ItemNameFree: "特注治具", Quantity: 2})
	}
	res, err := e.orders.CreateOrder(e.ctx, "sato", dto.CreateOrderRequest{Lines: lines})
	require.NoError(t, err)
	e.setStatus(t, res.OrderID, entity.OrderStatusSent)
	return e.order(t, res.OrderID), it
}

func TestReceivePartial_CuatroMasSeis(t *testing.T) {
	e := newEnv(t)
	order, it := sentOrder(t, e, 10, false)
	lineID := order.Lines[0].ID

	first, err := e.orders.ReceivePartial(e.ctx, order.ID, "sato", dto.ReceiveRequest{
		LineReceipts:       map[int64]int{lineID: 4},
		DeliveryDate:       "2026-04-02",
		DeliveryNoteNumber: "DN-001",
	})
	require.NoError(t, err)
	assert.Equal(t, "WAITING", first.Status)
	assert.False(t, first.FullyReceived)
	assert.Equal(t, 4, e.onHand(t, it.ID))
	assert.Equal(t, 6, e.order(t, order.ID).Lines[0].Remaining())

	second, err := e.orders.ReceivePartial(e.ctx, order.ID, "sato", dto.ReceiveRequest{
		LineReceipts:       map[int64]int{lineID: 6},
		DeliveryDate:       "2026-05-10",
		DeliveryNoteNumber: "DN-002",
		PriceOverrides:     map[int64]*decimal.Decimal{lineID: dec("120")},
	})
	require.NoError(t, err)
	assert.Equal(t, "RECEIVED", second.Status)
	assert.True(t, second.FullyReceived)
	assert.Equal(t, 10, e.onHand(t, it.ID))

	results, err := e.repos.Results.ListByOrder(e.ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 4, results[0].Quantity)
	assert.True(t, results[0].Amount.Equal(*dec("400")))
	assert.Equal(t, "2604", results[0].PurchaseMonth)
	assert.Equal(t, "消耗品費", results[0].AccountName)
	assert.Equal(t, 6, results[1].Quantity)
	assert.True(t, results[1].UnitPrice.Equal(*dec("120")))
	assert.True(t, results[1].Amount.Equal(*dec("720")))
	assert.Equal(t, "2605", results[1].PurchaseMonth)

	history, err := e.pricing.PriceHistory(e.ctx, it.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].OldUnitPrice.Equal(*dec("100")))

	_, err = e.orders.ReceivePartial(e.ctx, order.ID, "sato", dto.ReceiveRequest{DeliveryDate: "2026-05-11", DeliveryNoteNumber: "DN-003"})
	assert.ErrorIs(t, err, domain.ErrInvalidState, "un pedido RECEIVED no admite más entregas")
}

func TestReceivePartial_SobreRecepcionNoEscribeNada(t *testing.T) {
	e := newEnv(t)
	order, it := sentOrder(t, e, 10, true)
	catalogLine, freeLine := order.Lines[0].ID, order.Lines[1].ID

	_, err := e.orders.ReceivePartial(e.ctx, order.ID, "sato", dto.ReceiveRequest{
		LineReceipts:       map[int64]int{catalogLine: 5, freeLine: 3},
		DeliveryDate:       "2026-04-02",
		DeliveryNoteNumber: "DN-001",
	})
	require.ErrorIs(t, err, domain.ErrOverReceipt)

	assert.Equal(t, 0, e.onHand(t, it.ID))
	after := e.order(t, order.ID)
	assert.Equal(t, entity.OrderStatusSent, after.Status)
	assert.Equal(t, 0, after.Lines[0].ReceivedQuantity)
	results, err := e.repos.Results.ListByOrder(e.ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestReceivePartial_LineaLibreSinPrecio(t *testing.T) {
	e := newEnv(t)
	order, it := sentOrder(t, e, 1, true)

	res, err := e.orders.ReceivePartial(e.ctx, order.ID, "sato", dto.ReceiveRequest{
		LineReceipts:       map[int64]int{order.Lines[1].ID: 2},
		DeliveryDate:       "2026-04-02",
		DeliveryNoteNumber: "DN-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "WAITING", res.Status)
	assert.Equal(t, 0, e.onHand(t, it.ID), "las líneas libres no mueven inventario")

	results, _ := e.repos.Results.ListByOrder(e.ctx, order.ID)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].UnitPrice)
	assert.Nil(t, results[0].Amount, "sin precio no hay importe")
	assert.Equal(t, "特注治具", results[0].ItemNameFree)
}

func TestReceivePartial_Validaciones(t *testing.T) {
	e := newEnv(t)
	order, _ := sentOrder(t, e, 5, false)
	lineID := order.Lines[0].ID
	ok := func(r dto.ReceiveRequest) dto.ReceiveRequest {
		if r.DeliveryDate == "" {
			r.DeliveryDate = "2026-04-02"
		}
		if r.DeliveryNoteNumber == "" {
			r.DeliveryNoteNumber = "DN"
		}
		return r
	}

	cases := []struct {
		name string
		req  dto.ReceiveRequest
		want error
	}{
		{"sin albarán", dto.ReceiveRequest{DeliveryDate: "2026-04-02", DeliveryNoteNumber: " "}, domain.ErrMissingDeliveryInfo},
		{"fecha mal formada", ok(dto.ReceiveRequest{DeliveryDate: "2026/04/02"}), domain.ErrInvalidInput},
		{"línea ajena", ok(dto.ReceiveRequest{LineReceipts: map[int64]int{9999: 1}}), domain.ErrUnknownLine},
		{"precio para línea ajena", ok(dto.ReceiveRequest{PriceOverrides: map[int64]*decimal.Decimal{9999: dec("1")}}), domain.ErrUnknownLine},
		{"cantidad negativa", ok(dto.ReceiveRequest{LineReceipts: map[int64]int{lineID: -1}}), domain.ErrInvalidQuantity},
		{"todo en cero", ok(dto.ReceiveRequest{LineReceipts: map[int64]int{lineID: 0}}), domain.ErrNothingToReceive},
		{"mapa vacío", ok(dto.ReceiveRequest{LineReceipts: map[int64]int{}}), domain.ErrNothingToReceive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.orders.ReceivePartial(e.ctx, order.ID, "sato", tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	e.setStatus(t, order.ID, entity.OrderStatusConfirmed)
	_, err := e.orders.ReceivePartial(e.ctx, order.ID, "sato", ok(dto.ReceiveRequest{}))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = e.orders.ReceivePartial(e.ctx, 404, "sato", ok(dto.ReceiveRequest{}))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateOrderStatus_Transiciones(t *testing.T) {
	e := newEnv(t)
	order, it := sentOrder(t, e, 3, false)
	e.setStatus(t, order.ID, entity.OrderStatusDraft)

	_, err := e.orders.UpdateOrderStatus(e.ctx, order.ID, "SENT", "sato")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "DRAFT no salta a SENT")

	res, err := e.orders.UpdateOrderStatus(e.ctx, order.ID, "DRAFT", "sato")
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", res.Status, "mismo estado: sin cambios")

	_, err = e.orders.UpdateOrderStatus(e.ctx, order.ID, "ARCHIVED", "sato")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	for _, s := range []string{"CONFIRMED", "SENT"} {
		_, err = e.orders.UpdateOrderStatus(e.ctx, order.ID, s, "sato")
		require.NoError(t, err)
	}
	_, err = e.orders.UpdateOrderStatus(e.ctx, order.ID, "WAITING", "sato")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "WAITING solo por correo o fecha de respuesta")

	forced, err := e.orders.ForceOrderStatus(e.ctx, order.ID, "WAITING", "admin")
	require.NoError(t, err)
	assert.Equal(t, "WAITING", forced.Status)

	_, err = e.orders.UpdateOrderStatus(e.ctx, order.ID, "RECEIVED", "sato")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	full, err := e.orders.ForceOrderStatus(e.ctx, order.ID, "RECEIVED", "admin")
	require.NoError(t, err)
	assert.Equal(t, "RECEIVED", full.Status)
	assert.Equal(t, 3, e.onHand(t, it.ID))
	assert.Equal(t, 3, e.order(t, order.ID).Lines[0].ReceivedQuantity)

	tx, err := e.ledger.RecentTransactions(e.ctx, 1)
	require.NoError(t, err)
	require.Len(t, tx, 1)
	assert.Contains(t, tx[0].Reason, "納品計上")

	_, err = e.orders.UpdateOrderStatus(e.ctx, order.ID, "CANCELLED", "sato")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "RECEIVED es terminal")
}

func TestUpdateReplyDueDate(t *testing.T) {
	e := newEnv(t)
	order, _ := sentOrder(t, e, 3, false)
	lineID := order.Lines[0].ID

	res, err := e.orders.UpdateReplyDueDate(e.ctx, lineID, "2026-04-10")
	require.NoError(t, err)
	assert.Equal(t, "WAITING", res.OrderStatus)
	assert.Equal(t, "2026-04-10", res.DueDate)
	assert.Equal(t, order.ID, res.OrderID)

	res, err = e.orders.UpdateReplyDueDate(e.ctx, lineID, "2026-04-12")
	require.NoError(t, err)
	assert.Equal(t, "WAITING", res.OrderStatus)

	_, err = e.orders.UpdateReplyDueDate(e.ctx, 999, "2026-04-12")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.orders.UpdateReplyDueDate(e.ctx, lineID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	e.setStatus(t, order.ID, entity.OrderStatusDraft)
	_, err = e.orders.UpdateReplyDueDate(e.ctx, lineID, "2026-04-12")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestPurchaseResults_RangoYNombres(t *testing.T) {
	e := newEnv(t)
	order, _ := sentOrder(t, e, 10, false)
	lineID := order.Lines[0].ID

	for _, rc := range []struct {
		date string
		qty  int
	}{{"2026-04-02", 4}, {"2026-05-10", 6}} {
		_, err := e.orders.ReceivePartial(e.ctx, order.ID, "sato", dto.ReceiveRequest{
			LineReceipts:       map[int64]int{lineID: rc.qty},
			DeliveryDate:       rc.date,
			DeliveryNoteNumber: "DN-" + rc.date,
		})
		require.NoError(t, err)
	}

	april, err := e.orders.PurchaseResults(e.ctx, "2026-04-01", "2026-04-30")
	require.NoError(t, err)
	require.Len(t, april, 1)
	assert.Equal(t, "A社", april[0].SupplierName)
	assert.Equal(t, "R-1", april[0].ItemCode)
	assert.Equal(t, "Artículo R-1", april[0].ItemName)
	assert.Equal(t, 4, april[0].Quantity)

	both, err := e.orders.PurchaseResults(e.ctx, "2026-04-01", "2026-05-31")
	require.NoError(t, err)
	assert.Len(t, both, 2)

	_, err = e.orders.PurchaseResults(e.ctx, "2026-05-01", "2026-04-01")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = e.orders.PurchaseResults(e.ctx, "", "2026-04-30")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetOrder_VistaYFiltroPorDepartamento(t *testing.T) {
	e := newEnv(t)
	order, _ := sentOrder(t, e, 3, true)

	view, err := e.orders.GetOrder(e.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "A社", view.SupplierName)
	assert.Equal(t, "製造", view.Department)
	assert.Equal(t, "SENT", view.Status)
	assert.Len(t, view.Lines, 2)

	_, err = e.orders.GetOrder(e.ctx, order.ID+100)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mine, err := e.orders.ListOrders(e.ctx, "製造")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	other, err := e.orders.ListOrders(e.ctx, "資材部")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestReceivePartial_MapaVacioRecibeTodo(t *testing.T) {
	e := newEnv(t)
	order, it := sentOrder(t, e, 5, false)

	res, err := e.orders.ReceivePartial(e.ctx, order.ID, "sato", dto.ReceiveRequest{
		LineReceipts:       map[int64]int{},
		DeliveryDate:       "2026-04-02",
		DeliveryNoteNumber: "DN-010",
	})
	require.NoError(t, err)
	assert.Equal(t, "RECEIVED", res.Status)
	assert.True(t, res.FullyReceived)
	assert.Equal(t, 5, e.onHand(t, it.ID))
}
