package purchasing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/purchasing"
)

func id(v int64) *int64 { return &v }

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// ── Máquina de estados ──────────────────────────────────────────────────────

func TestCanTransition_TablaCompleta(t *testing.T) {
	all := []entity.OrderStatus{
		entity.OrderStatusDraft, entity.OrderStatusConfirmed, entity.OrderStatusSent,
		entity.OrderStatusWaiting, entity.OrderStatusReceived, entity.OrderStatusCancelled,
	}
	allowed := map[entity.OrderStatus][]entity.OrderStatus{
		entity.OrderStatusDraft:     {entity.OrderStatusConfirmed, entity.OrderStatusCancelled},
		entity.OrderStatusConfirmed: {entity.OrderStatusSent, entity.OrderStatusCancelled},
		entity.OrderStatusSent:      {entity.OrderStatusWaiting, entity.OrderStatusCancelled},
		entity.OrderStatusWaiting:   {entity.OrderStatusReceived, entity.OrderStatusCancelled},
	}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, purchasing.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.True(t, purchasing.IsTerminal(entity.OrderStatusReceived))
	assert.True(t, purchasing.IsTerminal(entity.OrderStatusCancelled))
}

func TestIsCommitted(t *testing.T) {
	assert.True(t, purchasing.IsCommitted(entity.OrderStatusConfirmed))
	assert.True(t, purchasing.IsCommitted(entity.OrderStatusSent))
	assert.True(t, purchasing.IsCommitted(entity.OrderStatusWaiting))
	assert.False(t, purchasing.IsCommitted(entity.OrderStatusDraft))
	assert.False(t, purchasing.IsCommitted(entity.OrderStatusReceived))
	assert.False(t, purchasing.IsCommitted(entity.OrderStatusCancelled))
}

func TestValidateTransition_ErrorConContexto(t *testing.T) {
	err := purchasing.ValidateTransition(7, entity.OrderStatusDraft, entity.OrderStatusReceived)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "pedido 7")
	assert.Contains(t, err.Error(), "DRAFT")
	assert.Contains(t, err.Error(), "RECEIVED")
}

func TestParseStatus_NormalizaMayusculas(t *testing.T) {
	s, err := purchasing.ParseStatus(" confirmed ")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusConfirmed, s)

	_, err = purchasing.ParseStatus("ARCHIVED")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ── Firma de líneas ─────────────────────────────────────────────────────────

func TestSignature_IndependienteDelOrden(t *testing.T) {
	a := purchasing.NewSignature([]purchasing.SignatureLine{
		{ItemID: id(2), Quantity: 3, Note: " urgente "},
		{FreeText: "ネジ M3", Maker: "ACME", Quantity: 10},
		{ItemID: id(1), Quantity: 1},
	})
	b := purchasing.NewSignature([]purchasing.SignatureLine{
		{FreeText: "ネジ M3 ", Maker: "ACME", Quantity: 10},
		{ItemID: id(1), Quantity: 1},
		{ItemID: id(2), Quantity: 3, Note: "urgente"},
	})
	assert.True(t, a.Equal(b))
	require.NotNil(t, a[0].ItemID)
	assert.Equal(t, int64(1), *a[0].ItemID, "las líneas de catálogo van primero por id")
	assert.Nil(t, a[2].ItemID, "las líneas libres van al final")
}

func TestSignature_CantidadDistintaNoCoincide(t *testing.T) {
	a := purchasing.NewSignature([]purchasing.SignatureLine{{ItemID: id(1), Quantity: 1}})
	b := purchasing.NewSignature([]purchasing.SignatureLine{{ItemID: id(1), Quantity: 2}})
	c := purchasing.NewSignature([]purchasing.SignatureLine{{ItemID: id(1), Quantity: 1}, {ItemID: id(1), Quantity: 1}})
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(c), "es un multiconjunto: la repetición cuenta")
}

func TestOrderSignature_DesdePedido(t *testing.T) {
	order := &entity.PurchaseOrder{Lines: []entity.PurchaseOrderLine{
		{ItemNameFree: "手袋", Quantity: 5},
		{ItemID: id(9), Quantity: 2, Maker: "X"},
	}}
	want := purchasing.NewSignature([]purchasing.SignatureLine{
		{ItemID: id(9), Quantity: 2, Maker: "X"},
		{FreeText: "手袋", Quantity: 5},
	})
	assert.True(t, purchasing.OrderSignature(order).Equal(want))
}

// ── Ids reutilizables ───────────────────────────────────────────────────────

func TestLowestUnusedID(t *testing.T) {
	cases := []struct {
		name string
		ids  []int64
		want int64
	}{
		{"vacío", nil, 1},
		{"consecutivos", []int64{1, 2, 3}, 4},
		{"hueco intermedio", []int64{1, 2, 4, 5}, 3},
		{"sin el uno", []int64{2, 3}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, purchasing.LowestUnusedID(tc.ids))
		})
	}
}

// ── Precios ─────────────────────────────────────────────────────────────────

func TestResolveUnitPrice_Precedencia(t *testing.T) {
	item := &entity.Item{ID: 1, UnitPrice: price("100")}
	row := &entity.ItemSupplier{ItemID: 1, SupplierID: 2, UnitPrice: price("90")}
	rowWithoutPrice := &entity.ItemSupplier{ItemID: 1, SupplierID: 2}

	cases := []struct {
		name     string
		override *decimal.Decimal
		row      *entity.ItemSupplier
		item     *entity.Item
		want     *decimal.Decimal
	}{
		{"override gana", price("80"), row, item, price("80")},
		{"fila artículo-proveedor", nil, row, item, price("90")},
		{"fila sin precio cae al artículo", nil, rowWithoutPrice, item, price("100")},
		{"solo artículo", nil, nil, item, price("100")},
		{"nada", nil, nil, &entity.Item{ID: 1}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := purchasing.ResolveUnitPrice(tc.override, tc.row, tc.item)
			assert.True(t, purchasing.PriceEqual(tc.want, got), "want %v got %v", tc.want, got)
		})
	}
}

func TestLineAmount_NilSinPrecio(t *testing.T) {
	assert.Nil(t, purchasing.LineAmount(nil, 3))
	amount := purchasing.LineAmount(price("12.5"), 4)
	require.NotNil(t, amount)
	assert.True(t, amount.Equal(decimal.NewFromInt(50)))
}

func TestBuildSupplierChoices_Orden(t *testing.T) {
	suppliers := []entity.Supplier{
		{ID: 1, Name: "Beta"}, {ID: 2, Name: "Alfa"}, {ID: 3, Name: "Gamma"},
		{ID: 4, Name: "Delta"}, {ID: 5, Name: "Épsilon"},
	}
	item := &entity.Item{ID: 10, SupplierID: id(4), UnitPrice: price("500")}
	rows := []entity.ItemSupplier{
		{ItemID: 10, SupplierID: 1, UnitPrice: price("300")},
		{ItemID: 10, SupplierID: 3},                         // registrado sin precio
		{ItemID: 10, SupplierID: 2, UnitPrice: price("200")},
	}

	choices := purchasing.BuildSupplierChoices(item, rows, suppliers)
	require.Len(t, choices, 5)

	names := make([]string, len(choices))
	for i, c := range choices {
		names[i] = c.SupplierName
	}
	// Alfa(200) Beta(300) Delta(500 por defecto del artículo) Gamma(sin precio) | Épsilon (no registrado)
	assert.Equal(t, []string{"Alfa", "Beta", "Delta", "Gamma", "Épsilon"}, names)
	assert.True(t, choices[3].Registered)
	assert.False(t, choices[4].Registered)
	assert.Nil(t, choices[4].UnitPrice)
	assert.Len(t, purchasing.PricedChoices(choices), 3)
}

func TestBuildSupplierChoices_SinFilasUsaProveedorPorDefecto(t *testing.T) {
	suppliers := []entity.Supplier{{ID: 1, Name: "B"}, {ID: 2, Name: "A"}}
	item := &entity.Item{ID: 1, SupplierID: id(1), UnitPrice: price("10")}

	choices := purchasing.BuildSupplierChoices(item, nil, suppliers)
	require.Len(t, choices, 2)
	assert.Equal(t, int64(1), choices[0].SupplierID, "el proveedor por defecto con precio es la opción por defecto")
	assert.Equal(t, "A", choices[1].SupplierName)
}

// ── Estado visible de solicitudes ───────────────────────────────────────────

func TestRequestDisplayStatus(t *testing.T) {
	st := func(s entity.OrderStatus) *entity.OrderStatus { return &s }
	cases := []struct {
		name  string
		req   entity.RequestStatus
		order *entity.OrderStatus
		want  string
	}{
		{"pendiente", entity.RequestStatusPending, nil, purchasing.DisplayUnprocessed},
		{"rechazada", entity.RequestStatusRejected, nil, purchasing.DisplayRejected},
		{"pedido recibido", entity.RequestStatusConverted, st(entity.OrderStatusReceived), purchasing.DisplayReceived},
		{"pedido cancelado", entity.RequestStatusConverted, st(entity.OrderStatusCancelled), purchasing.DisplayOrderCancelled},
		{"pedido borrado", entity.RequestStatusConverted, nil, purchasing.DisplayOrderCancelled},
		{"pedido en curso", entity.RequestStatusConverted, st(entity.OrderStatusWaiting), purchasing.DisplayOrdered},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, purchasing.RequestDisplayStatus(tc.req, tc.order))
		})
	}
	assert.Equal(t, "発注取消", purchasing.DisplayLabel(purchasing.DisplayOrderCancelled))
}

// ── Nombres de archivo ──────────────────────────────────────────────────────

func TestSanitizePathSegment(t *testing.T) {
	assert.Equal(t, "ABC商事", purchasing.SanitizePathSegment(`A/B\C:商事*`))
	assert.Equal(t, "UNKNOWN", purchasing.SanitizePathSegment(" ?? "))
	assert.Equal(t, "con_", purchasing.SanitizePathSegment("con"))
	assert.Equal(t, "製造部", purchasing.SanitizePathSegment("製造部. "))
}

func TestDocumentFileNameYPurchaseMonth(t *testing.T) {
	issued := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "PO_12_20260201.pdf", purchasing.DocumentFileName(12, issued, 0))
	assert.Equal(t, "PO_12_20260201_v3.pdf", purchasing.DocumentFileName(12, issued, 3))
	assert.Equal(t, "2602", purchasing.PurchaseMonth(issued))
}
