package handlers

import (
	"errors"

	"tpos/internal/services/auth"
	"tpos/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login exchanges an admin's credentials for an access token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if input.Username == "" || input.Password == "" {
		return response.BadRequest(c, "Username and password are required")
	}

	token, err := h.authService.Login(c.UserContext(), input.Username, input.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return response.Unauthorized(c, "Invalid username or password")
	case errors.Is(err, auth.ErrNotAdmin):
		return response.Forbidden(c, "Admin privileges required")
	case err != nil:
		return response.ServerError(c, "Authentication failed")
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}
