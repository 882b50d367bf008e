package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/NicolasMarrai/healthmed/app/models"
	"github.com/NicolasMarrai/healthmed/internal/pkg/database"
	"github.com/NicolasMarrai/healthmed/internal/pkg/session"
	"github.com/NicolasMarrai/healthmed/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request
// This centralizes user session handling and eliminates code duplication
func UserContextMiddleware(c *fiber.Ctx) error {
	// Get session with error handling
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		// On error: set as anonymous user
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
		c.Locals(usercontext.KeyFromProtected, false)
		c.Locals(usercontext.KeyIsAdmin, false)
		return c.Next()
	}

	// Get user ID from session
	userID := sess.Get(usercontext.KeyUserID)
	if userID == nil {
		// Anonymous user - no session data
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
		c.Locals(usercontext.KeyFromProtected, false)
		c.Locals(usercontext.KeyIsAdmin, false)
		return c.Next()
	}

	// User is logged in - get additional data
	username := session.GetSessionValue(c, usercontext.KeyUsername)
	isAdmin := sess.Get(usercontext.KeyIsAdmin)

	// Determine subscription status with session-first strategy
	subStatus := session.GetSessionValue(c, "subscription_status")
	if subStatus == "" {
		subStatus = models.SUBSCRIPTION_PENDING
		if db := database.GetDB(); db != nil {
			var user models.User
			if err := db.First(&user, userID.(uint)).Error; err == nil && user.SubscriptionStatus != "" {
				subStatus = user.SubscriptionStatus
			}
		}
		// Cache only the terminal state. Pending users must keep hitting the
		// DB so webhook activation is visible on their next request.
		if subStatus == models.SUBSCRIPTION_ACTIVE {
			_ = session.SetSessionValue(c, "subscription_status", subStatus)
		}
	}

	// Set complete user context
	userCtx := usercontext.UserContext{
		UserID:             userID.(uint),
		Username:           username,
		IsLoggedIn:         true,
		IsAdmin:            isAdmin != nil && isAdmin.(bool),
		SubscriptionStatus: subStatus,
	}
	c.Locals("USER_CONTEXT", userCtx)

	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUsername, username)
	c.Locals(usercontext.KeyUserID, userID.(uint))
	c.Locals(usercontext.KeyIsAdmin, userCtx.IsAdmin)

	return c.Next()
}
