package handlers

import (
	"context"
	"errors"

	"tpos/internal/services/rates"
	"tpos/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// RateService converts fiat to satoshis.
type RateService interface {
	SatsPerFiat(ctx context.Context, currency string) (decimal.Decimal, error)
}

type RateHandler struct {
	rates RateService
}

func NewRateHandler(rates RateService) *RateHandler {
	return &RateHandler{rates: rates}
}

// GetRate answers {"rate": sats per unit of currency}, with a null rate for
// currencies the provider does not quote.
func (h *RateHandler) GetRate(c *fiber.Ctx) error {
	currency := c.Params("currency")

	rate, err := h.rates.SatsPerFiat(c.UserContext(), currency)
	if errors.Is(err, rates.ErrUnsupportedCurrency) {
		return c.JSON(fiber.Map{"rate": nil})
	}
	if err != nil {
		logrus.WithError(err).WithField("currency", currency).Error("rate lookup failed")
		return response.ServerError(c, "Failed to fetch rate")
	}

	return c.JSON(fiber.Map{"rate": rate.Round(8).InexactFloat64()})
}
