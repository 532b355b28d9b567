package http

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/purchasing"
	"github.com/jhoicas/Compras-api/internal/infrastructure/export"
)

// PurchasingHandler candidatos, pedidos, recepción, documento y correo.
type PurchasingHandler struct {
	candidates *purchasing.CandidateBuilder
	orders     *purchasing.OrderUseCase
	documents  *purchasing.DocumentUseCase
}

// NewPurchasingHandler construye el handler.
func NewPurchasingHandler(candidates *purchasing.CandidateBuilder, orders *purchasing.OrderUseCase, documents *purchasing.DocumentUseCase) *PurchasingHandler {
	return &PurchasingHandler{candidates: candidates, orders: orders, documents: documents}
}

// Candidates godoc
// @Summary      Lista de trabajo de reposición
// @Description  Artículos bajo el punto de reorden sin pedido abierto y solicitudes preparadas con proveedor.
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        department  query  string  false  "Filtrar por departamento"
// @Success      200  {array}   dto.CandidateResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/purchasing/candidates [get]
func (h *PurchasingHandler) Candidates(c *fiber.Ctx) error {
	list, err := h.candidates.Build(c.Context(), c.Query("department"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "candidates": list})
}

// ListOrders godoc
// @Summary      Listar pedidos abiertos
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        department  query  string  false  "Filtrar por departamento"
// @Success      200  {array}   dto.OrderResponse
// @Router       /api/purchasing/orders [get]
func (h *PurchasingHandler) ListOrders(c *fiber.Ctx) error {
	list, err := h.orders.ListOrders(c.Context(), c.Query("department"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// GetOrder godoc
// @Summary      Obtener pedido
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchasing/orders/{id} [get]
func (h *PurchasingHandler) GetOrder(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.orders.GetOrder(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateOrder godoc
// @Summary      Crear pedido
// @Description  Un pedido por proveedor. Un pedido idéntico creado dentro de la ventana se reutiliza.
// @Tags         purchasing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "líneas y departamento"
// @Success      201   {object}  dto.CreateOrderResponse
// @Success      200   {object}  dto.CreateOrderResponse  "pedido reutilizado"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/purchasing/orders [post]
func (h *PurchasingHandler) CreateOrder(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	if in.Department == "" {
		in.Department = GetDepartment(c)
	}
	out, err := h.orders.CreateOrder(c.Context(), GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	if out.Reused {
		return c.JSON(out)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreateBulkOrders godoc
// @Summary      Crear pedidos desde la lista de trabajo
// @Tags         purchasing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkOrderRequest  true  "departamento y ajustes por candidato"
// @Success      201   {object}  dto.BulkOrderResponse
// @Router       /api/purchasing/orders/bulk [post]
func (h *PurchasingHandler) CreateBulkOrders(c *fiber.Ctx) error {
	var in dto.BulkOrderRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.orders.CreateBulkOrdersFromCandidates(c.Context(), GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado del pedido
// @Description  CANCELLED borra el pedido y devuelve sus solicitudes a pendiente. force=true solo para admin.
// @Tags         purchasing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                      true  "ID del pedido"
// @Param        body  body  dto.UpdateStatusRequest  true  "estado destino"
// @Success      200   {object}  dto.UpdateStatusResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchasing/orders/{id}/status [patch]
func (h *PurchasingHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var in dto.UpdateStatusRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	var (
		out *dto.UpdateStatusResponse
		err error
	)
	if in.Force {
		if GetRole(c) != RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "force requiere rol admin"})
		}
		out, err = h.orders.ForceOrderStatus(c.Context(), id, in.Status, GetActor(c))
	} else {
		out, err = h.orders.UpdateOrderStatus(c.Context(), id, in.Status, GetActor(c))
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Receive godoc
// @Summary      Registrar entrega
// @Description  line_receipts vacío recibe todo lo pendiente. Sobre-recepción no escribe nada.
// @Tags         purchasing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                 true  "ID del pedido"
// @Param        body  body  dto.ReceiveRequest  true  "cantidades, fecha y albarán"
// @Success      200   {object}  dto.ReceiveResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/purchasing/orders/{id}/receipts [post]
func (h *PurchasingHandler) Receive(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var in dto.ReceiveRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.orders.ReceivePartial(c.Context(), id, GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateReplyDueDate godoc
// @Summary      Fecha de respuesta del proveedor
// @Tags         purchasing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                      true  "ID de la línea"
// @Param        body  body  dto.ReplyDueDateRequest  true  "fecha YYYY-MM-DD"
// @Success      200   {object}  dto.ReplyDueDateResponse
// @Router       /api/purchasing/lines/{id}/reply-due-date [patch]
func (h *PurchasingHandler) UpdateReplyDueDate(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var in dto.ReplyDueDateRequest
	if e := parseBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.orders.UpdateReplyDueDate(c.Context(), id, in.DueDate)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GenerateDocument godoc
// @Summary      Generar el PDF del pedido
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        id          path   int   true   "ID del pedido"
// @Param        regenerate  query  bool  false  "nueva versión aunque exista"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/purchasing/orders/{id}/document [post]
func (h *PurchasingHandler) GenerateDocument(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.documents.GenerateDocument(c.Context(), id, GetActor(c), c.QueryBool("regenerate"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// EmailPreview godoc
// @Summary      Vista previa del correo
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del pedido"
// @Success      200  {object}  dto.EmailPreviewResponse
// @Router       /api/purchasing/orders/{id}/email [get]
func (h *PurchasingHandler) EmailPreview(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.documents.EmailPreview(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SendEmail godoc
// @Summary      Enviar el pedido al proveedor
// @Description  Genera el PDF si falta. Con éxito el pedido pasa a WAITING.
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        id          path   int   true   "ID del pedido"
// @Param        regenerate  query  bool  false  "regenerar el PDF antes de enviar"
// @Success      200  {object}  dto.SendEmailResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/purchasing/orders/{id}/email [post]
func (h *PurchasingHandler) SendEmail(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	out, err := h.documents.SendEmail(c.Context(), id, GetActor(c), c.QueryBool("regenerate"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// EmailLogs godoc
// @Summary      Historial de envíos del pedido
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del pedido"
// @Success      200  {array}  dto.EmailSendLogResponse
// @Router       /api/purchasing/orders/{id}/email-logs [get]
func (h *PurchasingHandler) EmailLogs(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	logs, err := h.documents.EmailLogs(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.EmailSendLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.EmailSendLogResponse{
			ID:             l.ID,
			OrderID:        l.PurchaseOrderID,
			SentBy:         l.SentBy,
			SentAt:         l.SentAt,
			To:             l.To,
			CC:             l.CC,
			Subject:        l.Subject,
			AttachmentPath: l.AttachmentPath,
			Success:        l.Success,
			ErrorMessage:   l.ErrorMessage,
		})
	}
	return c.JSON(out)
}

// Results godoc
// @Summary      Registro de compras
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  true  "YYYY-MM-DD"
// @Param        to    query  string  true  "YYYY-MM-DD"
// @Success      200  {array}  dto.PurchaseResultResponse
// @Router       /api/purchasing/results [get]
func (h *PurchasingHandler) Results(c *fiber.Ctx) error {
	rows, err := h.orders.PurchaseResults(c.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rows)
}

// ExportResults godoc
// @Summary      Exportar registro de compras (.xlsx)
// @Tags         purchasing
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        from  query  string  true  "YYYY-MM-DD"
// @Param        to    query  string  true  "YYYY-MM-DD"
// @Success      200
// @Router       /api/purchasing/results/export [get]
func (h *PurchasingHandler) ExportResults(c *fiber.Ctx) error {
	from, to := c.Query("from"), c.Query("to")
	rows, err := h.orders.PurchaseResults(c.Context(), from, to)
	if err != nil {
		return writeError(c, err)
	}
	var buf bytes.Buffer
	if err := export.WriteResults(&buf, rows); err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="purchase_results_%s_%s.xlsx"`, from, to))
	return c.Send(buf.Bytes())
}
