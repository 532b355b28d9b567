package dto

// IdentityResponse identidad del usuario según su token (GET /api/auth/me).
type IdentityResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Department  string `json:"department"`
	Role        string `json:"role"`
	CanPurchase bool   `json:"can_purchase"`
}
