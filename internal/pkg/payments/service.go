package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/NicolasMarrai/healthmed/app/models"
	"github.com/NicolasMarrai/healthmed/internal/pkg/env"
)

// Service is the payment reconciler. Given a verified notification it fetches
// authoritative payment state from the gateway and, if and only if that state
// says approved, activates the subscription and records a ledger entry.
type Service struct {
	repo    Repository
	gateway Gateway
}

// NewService creates a payment service from injected collaborators.
func NewService(repo Repository, gateway Gateway) *Service {
	return &Service{repo: repo, gateway: gateway}
}

// NewServiceFromDB creates a payment service from a GORM DB handle and the
// env-configured Mercado Pago client.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), NewMercadoPagoClientFromEnv())
}

// CreateCheckout builds a gateway preference for the premium subscription and
// returns the URL the user is redirected to.
func (s *Service) CreateCheckout(ctx context.Context, userID uint, email string) (*Preference, error) {
	if userID == 0 {
		return nil, errors.New("user_id is required")
	}

	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/")
	price, err := strconv.ParseFloat(env.GetEnv("SUBSCRIPTION_PRICE", "49.90"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SUBSCRIPTION_PRICE: %v", err)
	}

	pref, err := s.gateway.CreatePreference(ctx, Order{
		UserID:          userID,
		Email:           strings.TrimSpace(email),
		ItemID:          "healthmed-premium",
		Title:           "Assinatura HealthMed Premium",
		UnitPrice:       price,
		Currency:        env.GetEnv("SUBSCRIPTION_CURRENCY", "BRL"),
		SuccessURL:      base + "/dashboard",
		FailureURL:      base + "/payment",
		PendingURL:      base + "/payment",
		NotificationURL: base + "/webhooks/mercadopago",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return pref, nil
}

// Reconcile runs the confirmation pipeline for one payment notification.
//
// The notification only carries an identifier; status and amount are always
// re-fetched from the gateway. Redelivery therefore causes a re-fetch and a
// no-op activation instead of a second state change.
func (s *Service) Reconcile(ctx context.Context, n *Notification) (*ReconcileResult, error) {
	if n == nil || !n.IsPayment() || n.PaymentID == "" {
		return nil, errors.New("reconcile requires a verified payment notification")
	}

	record, err := s.gateway.GetPayment(ctx, n.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: no record for payment %s", ErrGatewayUnavailable, n.PaymentID)
	}

	if record.Status != models.PaymentStatusApproved {
		// Expected terminal outcome for pending/rejected payments.
		return &ReconcileResult{
			Activated: false,
			Status:    record.Status,
			PaymentID: n.PaymentID,
		}, nil
	}

	userID, err := parseExternalReference(record.ExternalReference)
	if err != nil {
		return nil, fmt.Errorf("%w: payment %s: %v", ErrUnresolvableUser, n.PaymentID, err)
	}

	if err := s.repo.ActivateSubscription(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment %s references unknown user %d", ErrUnresolvableUser, n.PaymentID, userID)
		}
		return nil, fmt.Errorf("%w: user %d: %v", ErrActivationFailed, userID, err)
	}

	// Best-effort ledger entry. The subscription is already active; failing
	// the whole request here would only cause redundant redelivery.
	if err := s.repo.RecordPayment(&models.Payment{
		UserID:           userID,
		GatewayPaymentID: n.PaymentID,
		Amount:           record.Amount,
		Status:           record.Status,
	}); err != nil {
		log.Printf("[WEBHOOK] ledger insert failed for payment %s (user %d): %v", n.PaymentID, userID, err)
	}

	return &ReconcileResult{
		Activated: true,
		Status:    record.Status,
		PaymentID: n.PaymentID,
		UserID:    userID,
		Amount:    record.Amount,
	}, nil
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.PaymentWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.PaymentWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

func parseExternalReference(ref string) (uint, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return 0, errors.New("empty external reference")
	}
	id, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("external reference %q is not a user id", ref)
	}
	return uint(id), nil
}
