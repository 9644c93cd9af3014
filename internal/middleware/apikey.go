package middleware

import (
	"context"
	"errors"

	"tpos/internal/models"
	"tpos/internal/repositories"
	"tpos/internal/utils"
	"tpos/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const APIKeyHeader = "X-Api-Key"

// KeyResolver maps an API key to its wallet and scope.
type KeyResolver interface {
	GetByKey(ctx context.Context, key string) (*models.WalletTypeInfo, error)
}

// WalletKey resolves the X-Api-Key header. Either scope passes; use
// RequireAdminKey to demand the admin key.
func WalletKey(resolver KeyResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(APIKeyHeader)
		if key == "" {
			key = c.Query("api-key")
		}
		if key == "" {
			return response.Unauthorized(c, "Invalid key or expired key.")
		}

		w, err := resolver.GetByKey(c.UserContext(), key)
		if err != nil {
			if !errors.Is(err, repositories.ErrNotFound) {
				logrus.WithError(err).Error("api key lookup failed")
			}
			return response.Unauthorized(c, "Invalid key or expired key.")
		}

		c.Locals(utils.WalletKey, w)
		return c.Next()
	}
}

// RequireAdminKey rejects requests resolved with the invoice key. It must
// run after WalletKey.
func RequireAdminKey(c *fiber.Ctx) error {
	w, err := utils.GetWallet(c)
	if err != nil || w.KeyType != models.KeyTypeAdmin {
		return response.Unauthorized(c, "Invalid adminkey.")
	}
	return c.Next()
}
