package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/NicolasMarrai/healthmed/app/models"
	"github.com/NicolasMarrai/healthmed/internal/pkg/payments"
)

type stubGateway struct {
	payments map[string]*payments.PaymentRecord
	err      error
	fetches  int
}

func (g *stubGateway) CreatePreference(_ context.Context, _ payments.Order) (*payments.Preference, error) {
	return nil, errors.New("not used")
}

func (g *stubGateway) GetPayment(_ context.Context, id string) (*payments.PaymentRecord, error) {
	g.fetches++
	if g.err != nil {
		return nil, g.err
	}
	rec, ok := g.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", id)
	}
	return rec, nil
}

func newWebhookApp(t *testing.T, repo payments.Repository, gateway payments.Gateway) *fiber.App {
	t.Helper()
	InitializePaymentController(payments.NewService(repo, gateway))
	t.Cleanup(func() { InitializePaymentController(nil) })

	app := fiber.New()
	app.Post("/webhooks/mercadopago", HandlePaymentWebhook)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, contentType, eventID string, body []byte) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago", bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	if eventID != "" {
		req.Header.Set("X-Request-Id", eventID)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func paymentNotification(paymentID string) []byte {
	return []byte(fmt.Sprintf(`{"type":"payment","data":{"id":"%s"}}`, paymentID))
}

func TestHandlePaymentWebhookApprovedActivates(t *testing.T) {
	repo := newMemoryRepo(&models.User{ID: 42, SubscriptionStatus: models.SUBSCRIPTION_PENDING})
	gateway := &stubGateway{payments: map[string]*payments.PaymentRecord{
		"PAY1": {ID: "PAY1", Status: models.PaymentStatusApproved, Amount: 49.90, ExternalReference: "42"},
	}}
	app := newWebhookApp(t, repo, gateway)

	resp, body := postWebhook(t, app, fiber.MIMEApplicationJSON, "evt-1", paymentNotification("PAY1"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, models.PaymentStatusApproved, body["status"])
	assert.Equal(t, "PAY1", body["payment_id"])

	assert.Equal(t, models.SUBSCRIPTION_ACTIVE, repo.users[42].SubscriptionStatus)
	assert.Len(t, repo.ledger, 1)
	assert.Equal(t, 49.90, repo.ledger["PAY1"].Amount)
}

func TestHandlePaymentWebhookRedeliveryIsDeduplicated(t *testing.T) {
	repo := newMemoryRepo(&models.User{ID: 42, SubscriptionStatus: models.SUBSCRIPTION_PENDING})
	gateway := &stubGateway{payments: map[string]*payments.PaymentRecord{
		"PAY1": {ID: "PAY1", Status: models.PaymentStatusApproved, Amount: 49.90, ExternalReference: "42"},
	}}
	app := newWebhookApp(t, repo, gateway)

	resp, _ := postWebhook(t, app, fiber.MIMEApplicationJSON, "evt-1", paymentNotification("PAY1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postWebhook(t, app, fiber.MIMEApplicationJSON, "evt-1", paymentNotification("PAY1"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["duplicate"])

	assert.Equal(t, 1, gateway.fetches)
	assert.Equal(t, 1, repo.activations)
	assert.Len(t, repo.ledger, 1)
}

func TestHandlePaymentWebhookNewDeliveryIDIsStillIdempotent(t *testing.T) {
	repo := newMemoryRepo(&models.User{ID: 42, SubscriptionStatus: models.SUBSCRIPTION_PENDING})
	gateway := &stubGateway{payments: map[string]*payments.PaymentRecord{
		"PAY1": {ID: "PAY1", Status: models.PaymentStatusApproved, Amount: 49.90, ExternalReference: "42"},
	}}
	app := newWebhookApp(t, repo, gateway)

	// Same payment, two distinct delivery ids: both are processed but the
	// outcome is one activation and one ledger row.
	resp, _ := postWebhook(t, app, fiber.MIMEApplicationJSON, "evt-1", paymentNotification("PAY1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = postWebhook(t, app, fiber.MIMEApplicationJSON, "evt-2", paymentNotification("PAY1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 2, gateway.fetches)
	assert.Equal(t, models.SUBSCRIPTION_ACTIVE, repo.users[42].SubscriptionStatus)
	assert.Len(t, repo.ledger, 1)
}

func TestHandlePaymentWebhookNonApprovedDoesNotActivate(t *testing.T) {
	for _, status := range []string{models.PaymentStatusPending, models.PaymentStatusRejected, models.PaymentStatusCancelled} {
		t.Run(status, func(t *testing.T) {
			repo := newMemoryRepo(&models.User{ID: 42, SubscriptionStatus: models.SUBSCRIPTION_PENDING})
			gateway := &stubGateway{payments: map[string]*payments.PaymentRecord{
				"PAY1": {ID: "PAY1", Status: status, Amount: 49.90, ExternalReference: "42"},
			}}
			app := newWebhookApp(t, repo, gateway)

			resp, body := postWebhook(t, app, fiber.MIMEApplicationJSON, "evt-"+status, paymentNotification("PAY1"))

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, status, body["status"])
			assert.Equal(t, models.SUBSCRIPTION_PENDING, repo.users[42].SubscriptionStatus)
			assert.Empty(t, repo.ledger)
		})
	}
}

func TestHandlePaymentWebhookIgnoredKind(t *testing.T) {
	repo := newMemoryRepo()
	gateway := &stubGateway{}
	app := newWebhookApp(t, repo, gateway)

	resp, body := postWebhook(t, app, fiber.MIMEApplicationJSON, "evt-mt", []byte(`{"type":"merchant_order","data":{"id":"777"}}`))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 0, gateway.fetches)
}

func TestHandlePaymentWebhookBadRequests(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        []byte
		wantCode    string
	}{
		{
			name:        "wrong content type",
			contentType: "text/plain",
			body:        paymentNotification("PAY1"),
			wantCode:    "unsupported_content_type",
		},
		{
			name:        "malformed body",
			contentType: fiber.MIMEApplicationJSON,
			body:        []byte(`{"type":"payment","data":`),
			wantCode:    "malformed_body",
		},
		{
			name:        "payment without id",
			contentType: fiber.MIMEApplicationJSON,
			body:        []byte(`{"type":"payment","data":{}}`),
			wantCode:    "missing_payment_id",
		},
	}

	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemoryRepo()
			gateway := &stubGateway{}
			app := newWebhookApp(t, repo, gateway)

			resp, body := postWebhook(t, app, tc.contentType, fmt.Sprintf("evt-bad-%d", i), tc.body)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			errObj := body["error"].(map[string]interface{})
			assert.Equal(t, tc.wantCode, errObj["code"])
			assert.Equal(t, 0, gateway.fetches)
		})
	}
}

func TestHandlePaymentWebhookGatewayUnavailable(t *testing.T) {
	repo := newMemoryRepo(&models.User{ID: 42, SubscriptionStatus: models.SUBSCRIPTION_PENDING})
	gateway := &stubGateway{err: errors.New("gateway timeout")}
	app := newWebhookApp(t, repo, gateway)

	resp, body := postWebhook(t, app, fiber.MIMEApplicationJSON, "evt-down", paymentNotification("PAY1"))

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, "gateway_unavailable", errObj["code"])
	assert.Equal(t, models.SUBSCRIPTION_PENDING, repo.users[42].SubscriptionStatus)
}

func TestHandlePaymentWebhookUnresolvableUser(t *testing.T) {
	tests := []struct {
		name string
		ref  string
	}{
		{name: "empty reference", ref: ""},
		{name: "garbage reference", ref: "not-a-user"},
		{name: "unknown user", ref: "9999"},
	}

	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemoryRepo(&models.User{ID: 42, SubscriptionStatus: models.SUBSCRIPTION_PENDING})
			gateway := &stubGateway{payments: map[string]*payments.PaymentRecord{
				"PAY1": {ID: "PAY1", Status: models.PaymentStatusApproved, Amount: 49.90, ExternalReference: tc.ref},
			}}
			app := newWebhookApp(t, repo, gateway)

			resp, body := postWebhook(t, app, fiber.MIMEApplicationJSON, fmt.Sprintf("evt-ur-%d", i), paymentNotification("PAY1"))

			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			errObj := body["error"].(map[string]interface{})
			assert.Equal(t, "unresolvable_user", errObj["code"])
			assert.Empty(t, repo.ledger)
		})
	}
}

func TestHandlePaymentWebhookActivationFailure(t *testing.T) {
	repo := newMemoryRepo(&models.User{ID: 42, SubscriptionStatus: models.SUBSCRIPTION_PENDING})
	repo.activateErr = errors.New("deadlock")
	gateway := &stubGateway{payments: map[string]*payments.PaymentRecord{
		"PAY1": {ID: "PAY1", Status: models.PaymentStatusApproved, Amount: 49.90, ExternalReference: "42"},
	}}
	app := newWebhookApp(t, repo, gateway)

	resp, body := postWebhook(t, app, fiber.MIMEApplicationJSON, "evt-af", paymentNotification("PAY1"))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, "activation_failed", errObj["code"])
}

func TestHandlePaymentWebhookLedgerFailureStillSucceeds(t *testing.T) {
	repo := newMemoryRepo(&models.User{ID: 42, SubscriptionStatus: models.SUBSCRIPTION_PENDING})
	repo.recordErr = errors.New("disk full")
	gateway := &stubGateway{payments: map[string]*payments.PaymentRecord{
		"PAY1": {ID: "PAY1", Status: models.PaymentStatusApproved, Amount: 49.90, ExternalReference: "42"},
	}}
	app := newWebhookApp(t, repo, gateway)

	resp, body := postWebhook(t, app, fiber.MIMEApplicationJSON, "evt-lf", paymentNotification("PAY1"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, models.SUBSCRIPTION_ACTIVE, repo.users[42].SubscriptionStatus)
}

// memoryRepo implements payments.Repository on maps.
type memoryRepo struct {
	users       map[uint]*models.User
	ledger      map[string]*models.Payment
	events      map[string]*models.PaymentWebhookEvent
	nextEventID uint
	activations int
	activateErr error
	recordErr   error
}

func newMemoryRepo(users ...*models.User) *memoryRepo {
	r := &memoryRepo{
		users:  make(map[uint]*models.User),
		ledger: make(map[string]*models.Payment),
		events: make(map[string]*models.PaymentWebhookEvent),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memoryRepo) ActivateSubscription(userID uint) error {
	if r.activateErr != nil {
		return r.activateErr
	}
	user, ok := r.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if user.SubscriptionStatus != models.SUBSCRIPTION_ACTIVE {
		user.SubscriptionStatus = models.SUBSCRIPTION_ACTIVE
		r.activations++
	}
	return nil
}

func (r *memoryRepo) RecordPayment(payment *models.Payment) error {
	if r.recordErr != nil {
		return r.recordErr
	}
	if _, exists := r.ledger[payment.GatewayPaymentID]; exists {
		return nil
	}
	r.ledger[payment.GatewayPaymentID] = payment
	return nil
}

func (r *memoryRepo) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if stored, exists := r.events[key]; exists {
		return false, stored, nil
	}
	r.nextEventID++
	event.ID = r.nextEventID
	r.events[key] = event
	return true, event, nil
}

func (r *memoryRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range r.events {
		if e.ID == id {
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}
