package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/inventory"
)

// InventoryHandler movimientos y consultas del libro de inventario.
type InventoryHandler struct {
	ledger        *inventory.LedgerUseCase
	replenishment *inventory.ReplenishmentUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.LedgerUseCase, replenishment *inventory.ReplenishmentUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, replenishment: replenishment}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "item_id o item_code, type (receipt|issue|adjust), quantity"
// @Success      201   {object}  dto.InventoryTransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.ledger.RecordMovementFromRequest(c.Context(), GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// SetOnHand godoc
// @Summary      Fijar existencias (ajuste por diferencia)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SetOnHandRequest  true  "item_code, target"
// @Success      200   {object}  dto.InventoryTransactionResponse
// @Success      204   "sin diferencia"
// @Router       /api/inventory/on-hand [put]
func (h *InventoryHandler) SetOnHand(c *fiber.Ctx) error {
	var in dto.SetOnHandRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	tx, err := h.ledger.SetOnHand(c.Context(), in.ItemCode, in.Target, in.Note, GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	if tx == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(inventory.ToTransactionResponse(*tx))
}

// Snapshot godoc
// @Summary      Existencias de un artículo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del artículo"
// @Success      200  {object}  dto.InventorySnapshotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id} [get]
func (h *InventoryHandler) Snapshot(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	snap, err := h.ledger.Snapshot(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.InventorySnapshotResponse{
		ItemID:       snap.ItemID,
		ItemCode:     snap.ItemCode,
		OnHand:       snap.OnHand,
		ReorderPoint: snap.ReorderPoint,
		LastActivity: snap.LastActivity,
	})
}

// RecentTransactions godoc
// @Summary      Últimos movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "máximo de filas (defecto 50)"
// @Success      200  {array}  dto.InventoryTransactionResponse
// @Router       /api/inventory/transactions [get]
func (h *InventoryHandler) RecentTransactions(c *fiber.Ctx) error {
	list, err := h.ledger.RecentTransactions(c.Context(), c.QueryInt("limit", 50))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.InventoryTransactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, inventory.ToTransactionResponse(t))
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Artículos bajo el punto de reorden
// @Description  Informe de existencias; no descuenta pedidos en curso (para eso está /api/purchasing/candidates).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        department  query  string  false  "Filtrar por departamento"
// @Success      200  {array}  dto.LowStockResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	list, err := h.replenishment.LowStock(c.Context(), c.Query("department"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LowStockResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.LowStockResponse{
			ItemID:       s.Item.ID,
			ItemCode:     s.Item.Code,
			Name:         s.Item.Name,
			Department:   s.Item.Department,
			OnHand:       s.OnHand,
			ReorderPoint: s.Item.ReorderPoint,
			Gap:          s.Gap,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "items": out})
}
