package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/NicolasMarrai/healthmed/app/repository"
	"github.com/NicolasMarrai/healthmed/internal/pkg/usercontext"
)

// HandleGetUserAccount returns the caller's account, subscription state and
// payment history.
func HandleGetUserAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	factory := repository.GetGlobalFactory()

	user, err := factory.GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		log.Printf("[ACCOUNT] user lookup failed for %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusNotFound, "user_not_found", "account not found")
	}

	paymentRows, err := factory.GetPaymentRepository().ListByUserID(userCtx.UserID)
	if err != nil {
		log.Printf("[ACCOUNT] payment history lookup failed for %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "payment history is unavailable")
	}

	payments := make([]fiber.Map, 0, len(paymentRows))
	for _, p := range paymentRows {
		payments = append(payments, fiber.Map{
			"payment_id": p.GatewayPaymentID,
			"amount":     p.Amount,
			"status":     p.Status,
			"created_at": p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":       user.ID,
			"name":     user.Name,
			"email":    user.Email,
			"is_admin": user.IsAdmin(),
		},
		"subscription": fiber.Map{
			"status":       user.SubscriptionStatus,
			"activated_at": formatTimePtr(user.SubscriptionActivatedAt),
		},
		"payments": payments,
	})
}
