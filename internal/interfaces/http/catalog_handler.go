package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Compras-api/internal/application/catalog"
	"github.com/jhoicas/Compras-api/internal/application/dto"
)

// CatalogHandler artículos, proveedores y precios.
type CatalogHandler struct {
	catalog *catalog.CatalogUseCase
	pricing *catalog.PricingUseCase
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(catalogUC *catalog.CatalogUseCase, pricing *catalog.PricingUseCase) *CatalogHandler {
	return &CatalogHandler{catalog: catalogUC, pricing: pricing}
}

// ── Artículos ─────────────────────────────────────────────────────────────────

// CreateItem godoc
// @Summary      Alta de artículo
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemRequest  true  "artículo"
// @Success      201   {object}  dto.ItemResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *CatalogHandler) CreateItem(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.catalog.CreateItem(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListItems godoc
// @Summary      Listar artículos
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        department  query  string  false  "Filtrar por departamento"
// @Success      200  {array}  dto.ItemResponse
// @Router       /api/items [get]
func (h *CatalogHandler) ListItems(c *fiber.Ctx) error {
	list, err := h.catalog.ListItems(c.Context(), c.Query("department"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// GetItem godoc
// @Summary      Obtener artículo
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del artículo"
// @Success      200  {object}  dto.ItemResponse
// @Router       /api/items/{id} [get]
func (h *CatalogHandler) GetItem(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.catalog.GetItem(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateItem godoc
// @Summary      Modificar artículo
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                    true  "ID del artículo"
// @Param        body  body  dto.UpdateItemRequest  true  "campos a cambiar"
// @Success      200   {object}  dto.ItemResponse
// @Router       /api/items/{id} [put]
func (h *CatalogHandler) UpdateItem(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var in dto.UpdateItemRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.catalog.UpdateItem(c.Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SupplierChoices godoc
// @Summary      Proveedores de un artículo
// @Description  Por defecto primero, luego con precio, luego el resto, cada grupo por nombre.
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del artículo"
// @Success      200  {array}  dto.SupplierChoiceResponse
// @Router       /api/items/{id}/suppliers [get]
func (h *CatalogHandler) SupplierChoices(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.pricing.SupplierChoices(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpsertPrice godoc
// @Summary      Precio artículo-proveedor
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Param        id    path  int                     true  "ID del artículo"
// @Param        body  body  dto.UpsertPriceRequest  true  "proveedor y precio (null lo borra)"
// @Success      204
// @Router       /api/items/{id}/prices [put]
func (h *CatalogHandler) UpsertPrice(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var in dto.UpsertPriceRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	if err := h.pricing.UpsertPrice(c.Context(), id, in.SupplierID, in.UnitPrice); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PriceHistory godoc
// @Summary      Historial de precios
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del artículo"
// @Success      200  {array}  dto.PriceHistoryResponse
// @Router       /api/items/{id}/price-history [get]
func (h *CatalogHandler) PriceHistory(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.pricing.PriceHistory(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ── Proveedores ───────────────────────────────────────────────────────────────

// CreateSupplier godoc
// @Summary      Alta de proveedor
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SupplierRequest  true  "proveedor"
// @Success      201   {object}  dto.SupplierResponse
// @Router       /api/suppliers [post]
func (h *CatalogHandler) CreateSupplier(c *fiber.Ctx) error {
	var in dto.SupplierRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.catalog.CreateSupplier(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListSuppliers godoc
// @Summary      Listar proveedores
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.SupplierResponse
// @Router       /api/suppliers [get]
func (h *CatalogHandler) ListSuppliers(c *fiber.Ctx) error {
	list, err := h.catalog.ListSuppliers(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// GetSupplier godoc
// @Summary      Obtener proveedor
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del proveedor"
// @Success      200  {object}  dto.SupplierResponse
// @Router       /api/suppliers/{id} [get]
func (h *CatalogHandler) GetSupplier(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.catalog.GetSupplier(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateSupplier godoc
// @Summary      Modificar proveedor
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                  true  "ID del proveedor"
// @Param        body  body  dto.SupplierRequest  true  "proveedor"
// @Success      200   {object}  dto.SupplierResponse
// @Router       /api/suppliers/{id} [put]
func (h *CatalogHandler) UpdateSupplier(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var in dto.SupplierRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.catalog.UpdateSupplier(c.Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteSupplier godoc
// @Summary      Borrar proveedor
// @Description  409 si tiene artículos por defecto o pedidos.
// @Tags         catalog
// @Security     Bearer
// @Param        id   path  int  true  "ID del proveedor"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/suppliers/{id} [delete]
func (h *CatalogHandler) DeleteSupplier(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if err := h.catalog.DeleteSupplier(c.Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
