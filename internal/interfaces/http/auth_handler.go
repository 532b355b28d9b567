package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Compras-api/internal/application/dto"
)

// AuthHandler expone la identidad del token. Los tokens los emite el portal corporativo.
type AuthHandler struct{}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Me godoc
// @Summary      Identidad del usuario actual
// @Tags         auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.IdentityResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	role := GetRole(c)
	return c.JSON(dto.IdentityResponse{
		UserID:      GetUserID(c),
		DisplayName: GetActor(c),
		Department:  GetDepartment(c),
		Role:        role,
		CanPurchase: role == RoleAdmin || role == RolePurchaser,
	})
}
