package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	services map[string]Pinger
}

// NewHealthHandler checks each named service on every request. Nil pingers
// are reported as disabled.
func NewHealthHandler(services map[string]Pinger) *HealthHandler {
	return &HealthHandler{services: services}
}

func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	services := fiber.Map{}

	for name, p := range h.services {
		switch {
		case p == nil:
			services[name] = "disabled"
		case p.HealthCheck(c.UserContext()) != nil:
			services[name] = "unreachable"
			status = "degraded"
		default:
			services[name] = "connected"
		}
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"services": services,
	})
}
