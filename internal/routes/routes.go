// Package routes defines the API routing configuration: which handler
// serves which path and the guards in front of it.
package routes

import (
	"time"

	"tpos/internal/handlers"
	"tpos/internal/middleware"
	"tpos/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Dependencies are the handlers and guards the routes are built from.
type Dependencies struct {
	Tpos   *handlers.TposHandler
	Admin  *handlers.AdminHandler
	Auth   *handlers.AuthHandler
	Rates  *handlers.RateHandler
	Health *handlers.HealthHandler

	Keys           middleware.KeyResolver
	AuthMiddleware *middleware.AuthMiddleware

	// PublicRateLimit caps requests per minute and IP on the unauthenticated
	// payment endpoints. Zero disables the cap.
	PublicRateLimit int
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, d Dependencies) {
	app.Get("/health", d.Health.HealthCheck)

	api := app.Group("/api/v1")

	// Admin
	api.Post("/auth/login", d.Auth.Login)
	api.Delete("/", d.AuthMiddleware.Handler, middleware.AdminAuthMiddleware, d.Admin.Stop)

	// Terminal management, wallet API key required
	walletKey := middleware.WalletKey(d.Keys)
	api.Get("/tposs", walletKey, d.Tpos.List)
	api.Post("/tposs", walletKey, d.Tpos.Create)
	api.Put("/tposs/:id", walletKey, middleware.RequireAdminKey, d.Tpos.Update)
	api.Delete("/tposs/:id", walletKey, middleware.RequireAdminKey, d.Tpos.Delete)

	// Terminal screen, public
	public := publicLimiter(d.PublicRateLimit)
	api.Post("/tposs/:id/invoices", public, d.Tpos.CreateInvoice)
	api.Get("/tposs/:id/invoices", d.Tpos.LatestPayments)
	api.Post("/tposs/:id/atm", public, d.Tpos.MakeATM)
	api.Post("/tposs/:id/invoices/:paymentRequest/pay", public, d.Tpos.PayInvoice)
	api.Get("/tposs/:id/invoices/:paymentHash", d.Tpos.CheckInvoice)

	api.Get("/rate/:currency", d.Rates.GetRate)
	api.Get("/qrcode/:data", handlers.QRCode)
}

func publicLimiter(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return response.Error(c, fiber.StatusTooManyRequests, "Too many requests")
		},
	})
}
