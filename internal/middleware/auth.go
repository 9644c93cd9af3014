// Package middleware provides the request guards of the terminal API:
// wallet API keys for terminal owners and JWT bearer tokens for admins.
package middleware

import (
	"strings"

	"tpos/internal/models"
	"tpos/internal/services/auth"
	"tpos/internal/utils"
	"tpos/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AuthMiddleware validates bearer tokens issued by the auth service.
type AuthMiddleware struct {
	authService auth.Service
	log         *logrus.Entry
}

func NewAuthMiddleware(authService auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		log:         logrus.WithField("component", "auth_middleware"),
	}
}

// Handler validates the JWT and stores its claims in the request context.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return response.Unauthorized(c, "missing authorization header")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Unauthorized(c, "invalid authorization format")
	}

	claims, err := m.authService.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.log.WithError(err).Debug("token validation failed")
		return response.Unauthorized(c, "invalid token")
	}

	c.Locals(utils.ClaimsKey, claims)
	return c.Next()
}

// AdminAuthMiddleware verifies that the request has valid admin claims.
func AdminAuthMiddleware(c *fiber.Ctx) error {
	claims, ok := c.Locals(utils.ClaimsKey).(*models.UserClaims)
	if !ok {
		return response.Unauthorized(c, "invalid claims")
	}

	if !claims.IsAdmin() {
		logrus.WithFields(logrus.Fields{
			"user_id": claims.UserID,
			"role":    claims.Role,
		}).Warn("access denied: not an admin")
		return response.Forbidden(c, "Insufficient permissions")
	}

	return c.Next()
}
