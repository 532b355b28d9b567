package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Compras-api/internal/application/catalog"
	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/inventory"
	"github.com/jhoicas/Compras-api/internal/application/purchasing"
	"github.com/jhoicas/Compras-api/internal/infrastructure/memory"
	"github.com/jhoicas/Compras-api/internal/infrastructure/storage"
	apphttp "github.com/jhoicas/Compras-api/internal/interfaces/http"
	"github.com/jhoicas/Compras-api/pkg/config"
)

type stubRenderer struct{}

func (stubRenderer) Render(context.Context, purchasing.DocumentData) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

type stubMailer struct{}

func (stubMailer) Send(context.Context, purchasing.Message) error { return nil }

type stubCredentials struct{}

func (stubCredentials) Password(context.Context, string) (string, error) { return "x", nil }

// newAPI monta el router completo sobre el almacén en memoria.
func newAPI(t *testing.T) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		Purchasing: config.PurchasingConfig{DuplicateWindowSeconds: 120, BusinessTimezone: "UTC"},
		SMTP:       config.SMTPConfig{Server: "smtp.example.com", Port: 587},
	}
	store := memory.NewStore()
	repos := store.Repositories()
	log := zerolog.Nop()

	ledger := inventory.NewLedgerUseCase(store, repos, time.UTC, log)
	pricing := catalog.NewPricingUseCase(store, repos, log)
	builder := purchasing.NewCandidateBuilder(repos, pricing)
	orders := purchasing.NewOrderUseCase(store, repos, pricing, ledger, builder, cfg.Purchasing, log)
	docs := purchasing.NewDocumentUseCase(store, repos, pricing, purchasing.DocumentDeps{
		Renderer:    stubRenderer{},
		Store:       storage.NewDocumentStoreFs(afero.NewMemMapFs()),
		Mailer:      stubMailer{},
		Credentials: stubCredentials{},
	}, cfg, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:         ledger,
		Replenishment:  inventory.NewReplenishmentUseCase(repos),
		Catalog:        catalog.NewCatalogUseCase(store, repos),
		Pricing:        pricing,
		Candidates:     builder,
		Orders:         orders,
		Documents:      docs,
		Reconciliation: purchasing.NewReconciliationUseCase(store, repos, orders, log),
		JWTSecret:      testJWTSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

// seed crea un proveedor y un artículo suyo con 5 unidades en existencia.
func seed(t *testing.T, app *fiber.App) (supplierID, itemID int64) {
	t.Helper()
	resp, raw := call(t, app, http.MethodPost, "/api/suppliers", "purchaser", dto.SupplierRequest{Name: "A社", Email: "a@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	sup := decode[dto.SupplierResponse](t, raw)

	resp, raw = call(t, app, http.MethodPost, "/api/items", "purchaser", dto.CreateItemRequest{
		Code: "P-1", Name: "ボールペン", Department: "資材部", ReorderPoint: 10, DefaultOrderQuantity: 20, SupplierID: &sup.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	item := decode[dto.ItemResponse](t, raw)

	resp, raw = call(t, app, http.MethodPost, "/api/inventory/movements", "warehouse", dto.RegisterMovementRequest{
		ItemID: item.ID, Type: "receipt", Quantity: 5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	return sup.ID, item.ID
}

func TestRouter_SinTokenRetorna401(t *testing.T) {
	app := newAPI(t)
	resp, _ := call(t, app, http.MethodGet, "/api/items", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_Me(t *testing.T) {
	app := newAPI(t)
	resp, raw := call(t, app, http.MethodGet, "/api/auth/me", "warehouse", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[dto.IdentityResponse](t, raw)
	assert.Equal(t, testUserID, me.UserID)
	assert.Equal(t, testName, me.DisplayName)
	assert.Equal(t, testDept, me.Department)
	assert.False(t, me.CanPurchase)
}

func TestRouter_RolesEnEscrituras(t *testing.T) {
	app := newAPI(t)
	_, itemID := seed(t, app)

	resp, raw := call(t, app, http.MethodPost, "/api/suppliers", "viewer", dto.SupplierRequest{Name: "B社"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(raw), "FORBIDDEN")

	resp, _ = call(t, app, http.MethodPost, "/api/inventory/movements", "viewer", dto.RegisterMovementRequest{ItemID: itemID, Type: "issue", Quantity: 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = call(t, app, http.MethodPost, "/api/purchasing/orders", "warehouse", dto.CreateOrderRequest{
		Lines: []dto.OrderLineRequest{{ItemID: &itemID, Quantity: 1}},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "almacén no crea pedidos")

	// las lecturas solo piden autenticación
	resp, _ = call(t, app, http.MethodGet, fmt.Sprintf("/api/inventory/items/%d", itemID), "viewer", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_MovimientosDeInventario(t *testing.T) {
	app := newAPI(t)
	_, itemID := seed(t, app)

	resp, raw := call(t, app, http.MethodPost, "/api/inventory/movements", "warehouse", dto.RegisterMovementRequest{ItemID: itemID, Type: "issue", Quantity: 9})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(raw), "INSUFFICIENT_STOCK")

	resp, raw = call(t, app, http.MethodPost, "/api/inventory/movements", "warehouse", map[string]interface{}{"item_id": itemID, "type": "robo", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "VALIDATION")

	resp, raw = call(t, app, http.MethodPut, "/api/inventory/on-hand", "warehouse", dto.SetOnHandRequest{ItemCode: "P-1", Target: 3})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	tx := decode[dto.InventoryTransactionResponse](t, raw)
	assert.Equal(t, -2, tx.Delta)

	resp, _ = call(t, app, http.MethodPut, "/api/inventory/on-hand", "warehouse", dto.SetOnHandRequest{ItemCode: "P-1", Target: 3})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, "sin diferencia no hay movimiento")

	resp, raw = call(t, app, http.MethodGet, fmt.Sprintf("/api/inventory/items/%d", itemID), "viewer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[dto.InventorySnapshotResponse](t, raw)
	assert.Equal(t, 3, snap.OnHand)
	assert.Equal(t, "P-1", snap.ItemCode)

	resp, raw = call(t, app, http.MethodGet, "/api/inventory/transactions?limit=10", "viewer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.InventoryTransactionResponse](t, raw), 2)

	resp, raw = call(t, app, http.MethodGet, "/api/inventory/low-stock", "viewer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	low := decode[struct {
		Total int                    `json:"total"`
		Items []dto.LowStockResponse `json:"items"`
	}](t, raw)
	require.Equal(t, 1, low.Total)
	assert.Equal(t, -7, low.Items[0].Gap)
}

func TestRouter_CrearPedidoYDeduplicar(t *testing.T) {
	app := newAPI(t)
	_, itemID := seed(t, app)
	req := dto.CreateOrderRequest{Lines: []dto.OrderLineRequest{{ItemID: &itemID, Quantity: 4}}}

	resp, raw := call(t, app, http.MethodPost, "/api/purchasing/orders", "purchaser", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	first := decode[dto.CreateOrderResponse](t, raw)
	assert.Equal(t, "A社", first.SupplierName)
	assert.Equal(t, "資材部", first.Department)

	resp, raw = call(t, app, http.MethodPost, "/api/purchasing/orders", "purchaser", req)
	require.Equal(t, http.StatusOK, resp.StatusCode, "reutilizado dentro de la ventana")
	again := decode[dto.CreateOrderResponse](t, raw)
	assert.True(t, again.Reused)
	assert.Equal(t, first.OrderID, again.OrderID)

	resp, _ = call(t, app, http.MethodGet, fmt.Sprintf("/api/purchasing/orders/%d", first.OrderID), "viewer", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// un borrador no compromete el artículo; al confirmar deja de ser candidato
	resp, raw = call(t, app, http.MethodGet, "/api/purchasing/candidates", "viewer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"total":1`)

	resp, raw = call(t, app, http.MethodPatch, fmt.Sprintf("/api/purchasing/orders/%d/status", first.OrderID), "purchaser", dto.UpdateStatusRequest{Status: "CONFIRMED"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = call(t, app, http.MethodGet, "/api/purchasing/candidates", "viewer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"total":0`)
}

func TestRouter_ErroresDePedido(t *testing.T) {
	app := newAPI(t)
	_, itemID := seed(t, app)

	resp, raw := call(t, app, http.MethodGet, "/api/purchasing/orders/99", "viewer", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(raw), "NOT_FOUND")

	resp, raw = call(t, app, http.MethodGet, "/api/purchasing/orders/abc", "viewer", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "INVALID_ID")

	resp, raw = call(t, app, http.MethodPost, "/api/purchasing/orders", "purchaser", dto.CreateOrderRequest{
		Lines: []dto.OrderLineRequest{{ItemID: &itemID, Quantity: 0}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(raw), "INVALID_QUANTITY")

	resp, raw = call(t, app, http.MethodPost, "/api/purchasing/orders", "purchaser", dto.CreateOrderRequest{
		Lines: []dto.OrderLineRequest{{ItemID: &itemID, Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	order := decode[dto.CreateOrderResponse](t, raw)

	path := fmt.Sprintf("/api/purchasing/orders/%d/status", order.OrderID)
	resp, _ = call(t, app, http.MethodPatch, path, "purchaser", dto.UpdateStatusRequest{Status: "RECEIVED", Force: true})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "force solo para admin")

	resp, raw = call(t, app, http.MethodPatch, path, "purchaser", dto.UpdateStatusRequest{Status: "RECEIVED"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(raw), "INVALID_TRANSITION")

	resp, raw = call(t, app, http.MethodPost, fmt.Sprintf("/api/purchasing/orders/%d/receipts", order.OrderID), "warehouse", dto.ReceiveRequest{
		DeliveryDate: "2026-04-02", DeliveryNoteNumber: "D-1",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "un borrador no se recibe: "+string(raw))
}

func TestRouter_Proveedores(t *testing.T) {
	app := newAPI(t)
	supID, _ := seed(t, app)

	resp, raw := call(t, app, http.MethodDelete, fmt.Sprintf("/api/suppliers/%d", supID), "purchaser", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(raw), "SUPPLIER_IN_USE")

	resp, raw = call(t, app, http.MethodPost, "/api/suppliers", "purchaser", dto.SupplierRequest{Name: "A社"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(raw), "DUPLICATE")

	resp, raw = call(t, app, http.MethodPost, "/api/suppliers", "purchaser", dto.SupplierRequest{Name: "C社", Email: "no-es-email"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "email")

	resp, raw = call(t, app, http.MethodGet, "/api/suppliers", "viewer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.SupplierResponse](t, raw), 1)
}
