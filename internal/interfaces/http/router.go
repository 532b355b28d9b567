package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Compras-api/internal/application/catalog"
	"github.com/jhoicas/Compras-api/internal/application/inventory"
	"github.com/jhoicas/Compras-api/internal/application/purchasing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger         *inventory.LedgerUseCase
	Replenishment  *inventory.ReplenishmentUseCase
	Catalog        *catalog.CatalogUseCase
	Pricing        *catalog.PricingUseCase
	Candidates     *purchasing.CandidateBuilder
	Orders         *purchasing.OrderUseCase
	Documents      *purchasing.DocumentUseCase
	Reconciliation *purchasing.ReconciliationUseCase
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Todas las rutas requieren Bearer Token
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	buyer := RequireRole(RoleAdmin, RolePurchaser)
	stock := RequireRole(RoleAdmin, RolePurchaser, RoleWarehouse)

	api.Get("/auth/me", NewAuthHandler().Me)

	// Catálogo
	catalogHandler := NewCatalogHandler(deps.Catalog, deps.Pricing)
	items := api.Group("/items")
	items.Get("/", catalogHandler.ListItems)
	items.Post("/", buyer, catalogHandler.CreateItem)
	items.Get("/:id", catalogHandler.GetItem)
	items.Put("/:id", buyer, catalogHandler.UpdateItem)
	items.Get("/:id/suppliers", catalogHandler.SupplierChoices)
	items.Put("/:id/prices", buyer, catalogHandler.UpsertPrice)
	items.Get("/:id/price-history", catalogHandler.PriceHistory)

	suppliers := api.Group("/suppliers")
	suppliers.Get("/", catalogHandler.ListSuppliers)
	suppliers.Post("/", buyer, catalogHandler.CreateSupplier)
	suppliers.Get("/:id", catalogHandler.GetSupplier)
	suppliers.Put("/:id", buyer, catalogHandler.UpdateSupplier)
	suppliers.Delete("/:id", buyer, catalogHandler.DeleteSupplier)

	// Inventario
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Replenishment)
	inv := api.Group("/inventory")
	inv.Post("/movements", stock, inventoryHandler.RegisterMovement)
	inv.Put("/on-hand", stock, inventoryHandler.SetOnHand)
	inv.Get("/items/:id", inventoryHandler.Snapshot)
	inv.Get("/transactions", inventoryHandler.RecentTransactions)
	inv.Get("/low-stock", inventoryHandler.LowStock)

	// Compras
	purchasingHandler := NewPurchasingHandler(deps.Candidates, deps.Orders, deps.Documents)
	pur := api.Group("/purchasing")
	pur.Get("/candidates", purchasingHandler.Candidates)
	pur.Get("/results", purchasingHandler.Results)
	pur.Get("/results/export", purchasingHandler.ExportResults)

	orders := pur.Group("/orders")
	orders.Get("/", purchasingHandler.ListOrders)
	orders.Post("/", buyer, purchasingHandler.CreateOrder)
	orders.Post("/bulk", buyer, purchasingHandler.CreateBulkOrders)
	orders.Get("/:id", purchasingHandler.GetOrder)
	orders.Patch("/:id/status", buyer, purchasingHandler.UpdateStatus)
	orders.Post("/:id/receipts", stock, purchasingHandler.Receive)
	orders.Post("/:id/document", buyer, purchasingHandler.GenerateDocument)
	orders.Get("/:id/email", purchasingHandler.EmailPreview)
	orders.Post("/:id/email", buyer, purchasingHandler.SendEmail)
	orders.Get("/:id/email-logs", purchasingHandler.EmailLogs)

	pur.Patch("/lines/:id/reply-due-date", buyer, purchasingHandler.UpdateReplyDueDate)

	// Solicitudes fuera de catálogo: cualquier usuario autenticado puede pedir y confirmar lectura.
	requestHandler := NewRequestHandler(deps.Reconciliation)
	requests := pur.Group("/requests")
	requests.Get("/", requestHandler.List)
	requests.Post("/", requestHandler.Create)
	requests.Post("/acknowledge", requestHandler.Acknowledge)
	requests.Post("/stage", buyer, requestHandler.Stage)
	requests.Post("/unstage", buyer, requestHandler.Unstage)
	requests.Post("/reject", buyer, requestHandler.Reject)
	requests.Post("/convert", buyer, requestHandler.Convert)
}
