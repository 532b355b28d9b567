package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/purchasing"
)

// RequestHandler solicitudes de compra fuera de catálogo.
type RequestHandler struct {
	uc *purchasing.ReconciliationUseCase
}

// NewRequestHandler construye el handler.
func NewRequestHandler(uc *purchasing.ReconciliationUseCase) *RequestHandler {
	return &RequestHandler{uc: uc}
}

// List godoc
// @Summary      Listar solicitudes
// @Description  Sin filtros: pendientes, más recientes primero, con su estado visible.
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        status                query  string  false  "PENDING | CONVERTED | REJECTED"
// @Param        include_all           query  bool    false  "todas las solicitudes"
// @Param        exclude_acknowledged  query  bool    false  "ocultar las confirmadas"
// @Param        exclude_staged        query  bool    false  "ocultar las preparadas"
// @Success      200  {array}  dto.UnmanagedRequestResponse
// @Router       /api/purchasing/requests [get]
func (h *RequestHandler) List(c *fiber.Ctx) error {
	var q dto.RequestListQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	list, err := h.uc.List(c.Context(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// Create godoc
// @Summary      Crear solicitud
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateUnmanagedRequest  true  "artículo o código libre, cantidad"
// @Success      201   {object}  dto.UnmanagedRequestResponse
// @Router       /api/purchasing/requests [post]
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateUnmanagedRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	if in.RequestedDepartment == "" {
		in.RequestedDepartment = GetDepartment(c)
	}
	out, err := h.uc.CreateRequest(c.Context(), GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Stage godoc
// @Summary      Preparar solicitudes con proveedor
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StageRequest  true  "solicitudes y proveedor"
// @Success      200   {object}  dto.StageResponse
// @Router       /api/purchasing/requests/stage [post]
func (h *RequestHandler) Stage(c *fiber.Ctx) error {
	var in dto.StageRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.uc.Stage(c.Context(), in.RequestIDs, in.SupplierID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Unstage godoc
// @Summary      Quitar la preparación
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RequestIDsRequest  true  "solicitudes"
// @Success      200   {object}  dto.StageResponse
// @Router       /api/purchasing/requests/unstage [post]
func (h *RequestHandler) Unstage(c *fiber.Ctx) error {
	return h.byIDs(c, h.uc.Unstage)
}

// Reject godoc
// @Summary      Rechazar solicitudes
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RequestIDsRequest  true  "solicitudes"
// @Success      200   {object}  dto.StageResponse
// @Router       /api/purchasing/requests/reject [post]
func (h *RequestHandler) Reject(c *fiber.Ctx) error {
	return h.byIDs(c, h.uc.Reject)
}

// Acknowledge godoc
// @Summary      Confirmar lectura de solicitudes resueltas
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RequestIDsRequest  true  "solicitudes"
// @Success      200   {object}  dto.StageResponse
// @Router       /api/purchasing/requests/acknowledge [post]
func (h *RequestHandler) Acknowledge(c *fiber.Ctx) error {
	return h.byIDs(c, h.uc.Acknowledge)
}

// Convert godoc
// @Summary      Convertir solicitudes en pedido
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConvertRequest  true  "solicitudes, proveedor y departamento"
// @Success      201   {object}  dto.CreateOrderResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/purchasing/requests/convert [post]
func (h *RequestHandler) Convert(c *fiber.Ctx) error {
	var in dto.ConvertRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.uc.Convert(c.Context(), GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	if out.Reused {
		return c.JSON(out)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *RequestHandler) byIDs(c *fiber.Ctx, fn func(ctx context.Context, ids []int64) (*dto.StageResponse, error)) error {
	var in dto.RequestIDsRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := fn(c.Context(), in.RequestIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
