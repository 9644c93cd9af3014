package utils

import (
	"errors"

	"tpos/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	ClaimsKey = "claims"
	WalletKey = "wallet"
)

// GetUserClaims extracts the user claims from the Fiber context.
func GetUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	v := c.Locals(ClaimsKey)
	if v == nil {
		return nil, errors.New("claims not found in context")
	}

	claims, ok := v.(*models.UserClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}

// GetWallet extracts the wallet resolved from the caller's API key.
func GetWallet(c *fiber.Ctx) (*models.WalletTypeInfo, error) {
	v := c.Locals(WalletKey)
	if v == nil {
		return nil, errors.New("wallet not found in context")
	}

	w, ok := v.(*models.WalletTypeInfo)
	if !ok {
		return nil, errors.New("invalid wallet type")
	}
	return w, nil
}
