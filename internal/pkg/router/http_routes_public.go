package router

import (
	"github.com/NicolasMarrai/healthmed/app/controllers"
	"github.com/NicolasMarrai/healthmed/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Health endpoints for load balancer probes. Registered outside the
	// /api group so the rate limiter never throttles them.
	app.Get("/api/health/live", controllers.HandleHealthLive)
	app.Get("/api/health/ready", controllers.HandleHealthReady)
	app.Get("/api/health", controllers.HandleHealth)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Payment provider webhooks (no CSRF; the payload is never trusted and
	// the payment state is re-fetched from the gateway)
	app.Post("/webhooks/mercadopago", controllers.HandlePaymentWebhook)
}
