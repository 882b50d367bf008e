package controllers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/NicolasMarrai/healthmed/internal/pkg/database"
	"github.com/NicolasMarrai/healthmed/internal/pkg/payments"
	"github.com/NicolasMarrai/healthmed/internal/pkg/statistics"
	"github.com/NicolasMarrai/healthmed/internal/pkg/usercontext"
)

var paymentService *payments.Service

// InitializePaymentController wires the payment service used by the checkout
// and webhook handlers. The router passes the production service; tests
// inject one built on fakes.
func InitializePaymentController(svc *payments.Service) {
	paymentService = svc
}

func getPaymentService() *payments.Service {
	if paymentService == nil {
		paymentService = payments.NewServiceFromDB(database.GetDB())
	}
	return paymentService
}

// HandleCreateCheckout builds a gateway preference for the premium
// subscription and returns the redirect URL.
func HandleCreateCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}
	if userCtx.SubscriptionStatus == "active" {
		return jsonError(c, fiber.StatusConflict, "already_subscribed", "subscription is already active")
	}

	var email string
	if db := database.GetDB(); db != nil {
		type row struct{ Email string }
		var r row
		if err := db.Table("users").Select("email").Where("id = ?", userCtx.UserID).Scan(&r).Error; err == nil {
			email = r.Email
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pref, err := getPaymentService().CreateCheckout(ctx, userCtx.UserID, email)
	if err != nil {
		log.Printf("[CHECKOUT] preference creation failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusBadGateway, "gateway_unavailable", "checkout could not be created")
	}

	return c.JSON(fiber.Map{
		"url":           pref.PayURL,
		"preference_id": pref.PreferenceID,
	})
}

// HandlePaymentWebhook receives gateway notifications and runs the payment
// confirmation pipeline. The notification body is only trusted as a pointer
// to authoritative state; see payments.Service.Reconcile.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	eventID := firstHeaderValue(c, "X-Request-Id", "X-Delivery-Id")

	svc := getPaymentService()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	created, stored, err := svc.RecordWebhookEvent(ctx, payments.WebhookEventInput{
		Provider:        payments.ProviderMercadoPago,
		ProviderEventID: eventID,
		EventType:       firstHeaderValue(c, "X-Topic"),
		PayloadJSON:     string(rawBody),
	})
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "webhook_persist_failed", "notification could not be persisted")
	}
	if !created {
		return c.JSON(fiber.Map{"success": true, "duplicate": true})
	}

	notification, err := payments.VerifyNotification(c.Get(fiber.HeaderContentType), rawBody)
	if err != nil {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, err)
		switch {
		case errors.Is(err, payments.ErrUnsupportedContentType):
			return jsonError(c, fiber.StatusBadRequest, "unsupported_content_type", "notification must be application/json")
		case errors.Is(err, payments.ErrMalformedBody):
			return jsonError(c, fiber.StatusBadRequest, "malformed_body", "notification body could not be parsed")
		case errors.Is(err, payments.ErrMissingPaymentID):
			return jsonError(c, fiber.StatusBadRequest, "missing_payment_id", "payment notification carries no payment id")
		default:
			return jsonError(c, fiber.StatusBadRequest, "invalid_notification", "notification rejected")
		}
	}

	if !notification.IsPayment() {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, nil)
		return c.JSON(fiber.Map{"success": true, "message": "notification ignored"})
	}

	result, err := svc.Reconcile(ctx, notification)
	_ = svc.MarkWebhookProcessed(ctx, stored.ID, err)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrGatewayUnavailable):
			return jsonError(c, fiber.StatusBadGateway, "gateway_unavailable", "payment state could not be fetched")
		case errors.Is(err, payments.ErrUnresolvableUser):
			// Needs an operator: the money arrived but nobody got access.
			log.Printf("[WEBHOOK][ERROR] %v", err)
			return jsonError(c, fiber.StatusUnprocessableEntity, "unresolvable_user", "approved payment has no resolvable user")
		case errors.Is(err, payments.ErrActivationFailed):
			return jsonError(c, fiber.StatusInternalServerError, "activation_failed", "subscription could not be activated")
		default:
			return jsonError(c, fiber.StatusInternalServerError, "internal_error", "notification processing failed")
		}
	}

	if result.Activated {
		log.Printf("[WEBHOOK] payment %s approved, user %d activated", result.PaymentID, result.UserID)
		go statistics.UpdateStatisticsCache()
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"status":     result.Status,
		"payment_id": result.PaymentID,
	})
}
