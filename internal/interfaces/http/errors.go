package http

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/domain"
)

var validate = validator.New()

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorTable orden de prueba de los errores de dominio.
var errorTable = []errorMapping{
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "INVALID_INPUT"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},

	{domain.ErrUnknownItem, fiber.StatusUnprocessableEntity, "UNKNOWN_ITEM"},
	{domain.ErrInvalidLine, fiber.StatusUnprocessableEntity, "INVALID_LINE"},
	{domain.ErrSupplierRequired, fiber.StatusUnprocessableEntity, "SUPPLIER_REQUIRED"},
	{domain.ErrMixedSupplier, fiber.StatusUnprocessableEntity, "MIXED_SUPPLIER"},
	{domain.ErrInvalidQuantity, fiber.StatusUnprocessableEntity, "INVALID_QUANTITY"},
	{domain.ErrMissingDeliveryInfo, fiber.StatusUnprocessableEntity, "MISSING_DELIVERY_INFO"},
	{domain.ErrUnknownLine, fiber.StatusUnprocessableEntity, "UNKNOWN_LINE"},
	{domain.ErrOverReceipt, fiber.StatusUnprocessableEntity, "OVER_RECEIPT"},
	{domain.ErrNothingToReceive, fiber.StatusUnprocessableEntity, "NOTHING_TO_RECEIVE"},
	{domain.ErrNotEligible, fiber.StatusUnprocessableEntity, "NOT_ELIGIBLE"},

	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrInvalidState, fiber.StatusConflict, "INVALID_STATE"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrSupplierInUse, fiber.StatusConflict, "SUPPLIER_IN_USE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},

	{domain.ErrDocumentRender, fiber.StatusBadGateway, "DOCUMENT_RENDER"},
	{domain.ErrEmailSend, fiber.StatusBadGateway, "EMAIL_SEND"},
}

// writeError traduce el error de dominio a status + ErrorResponse. El mensaje conserva el contexto envuelto.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// parseBody lee el JSON y aplica las reglas `validate` del DTO. nil si todo es válido.
func parseBody(c *fiber.Ctx, out interface{}) *dto.ErrorResponse {
	if err := c.BodyParser(out); err != nil {
		return &dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"}
	}
	if err := validate.Struct(out); err != nil {
		return &dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)}
	}
	return nil
}

func badRequest(c *fiber.Ctx, e *dto.ErrorResponse) error {
	return c.Status(fiber.StatusBadRequest).JSON(e)
}

// validationMessage "campo: regla" por cada error de validación.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fe.Field()+": "+fe.Tag())
	}
	return strings.Join(parts, ", ")
}

// paramID lee un id entero positivo de la ruta.
func paramID(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func invalidID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: "id inválido"})
}
