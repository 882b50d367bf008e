package middleware

import (
	"github.com/gofiber/fiber/v2"

	icuser "github.com/NicolasMarrai/healthmed/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in web session; redirects to /login if missing.
func RequireAuth(c *fiber.Ctx) error {
	if !sessionLoggedIn(c) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAPISessionAuth ensures a logged-in session for API routes and
// returns JSON 401 instead of a redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	if !sessionLoggedIn(c) {
		return unauthorized(c)
	}
	return c.Next()
}

// RequireActiveSubscription gates premium content behind the paywall.
// Returns JSON 402 so clients can send the user to the checkout flow.
func RequireActiveSubscription(c *fiber.Ctx) error {
	if !sessionLoggedIn(c) {
		return unauthorized(c)
	}
	if !icuser.HasActiveSubscription(c) {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error": fiber.Map{
				"message": "an active subscription is required for this content",
				"code":    "subscription_required",
			},
		})
	}
	return c.Next()
}

func sessionLoggedIn(c *fiber.Ctx) bool {
	if b, ok := c.Locals(icuser.KeyFromProtected).(bool); ok {
		return b
	}
	return false
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": fiber.Map{
			"message": "login required",
			"code":    "unauthorized",
		},
	})
}
