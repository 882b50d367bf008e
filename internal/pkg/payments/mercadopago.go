package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NicolasMarrai/healthmed/internal/pkg/env"
)

const (
	ProviderMercadoPago = "mercadopago"

	defaultMercadoPagoAPIBaseURL = "https://api.mercadopago.com"
)

// Gateway is the payment processor capability consumed by the service:
// create a checkout preference up front, and later fetch the authoritative
// state of a single payment. The notification payload is never a substitute
// for GetPayment.
type Gateway interface {
	CreatePreference(ctx context.Context, order Order) (*Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*PaymentRecord, error)
}

type MercadoPagoClient struct {
	AccessToken string
	APIBaseURL  string

	HTTPClient *http.Client
}

func NewMercadoPagoClientFromEnv() *MercadoPagoClient {
	return &MercadoPagoClient{
		AccessToken: strings.TrimSpace(env.GetEnv("MP_ACCESS_TOKEN", "")),
		APIBaseURL:  strings.TrimRight(env.GetEnv("MP_API_BASE_URL", defaultMercadoPagoAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *MercadoPagoClient) CreatePreference(ctx context.Context, order Order) (*Preference, error) {
	if strings.TrimSpace(c.AccessToken) == "" {
		return nil, errors.New("MP_ACCESS_TOKEN is not configured")
	}
	if order.UserID == 0 {
		return nil, errors.New("order user id is required")
	}

	type item struct {
		ID         string  `json:"id"`
		Title      string  `json:"title"`
		Quantity   int     `json:"quantity"`
		UnitPrice  float64 `json:"unit_price"`
		CurrencyID string  `json:"currency_id"`
	}
	body := map[string]interface{}{
		"items": []item{
			{
				ID:         order.ItemID,
				Title:      order.Title,
				Quantity:   1,
				UnitPrice:  order.UnitPrice,
				CurrencyID: order.Currency,
			},
		},
		"payer": map[string]string{
			"email": order.Email,
		},
		// The user id rides along as external_reference so the webhook knows
		// who paid when the notification arrives.
		"external_reference": fmt.Sprintf("%d", order.UserID),
		"back_urls": map[string]string{
			"success": order.SuccessURL,
			"failure": order.FailureURL,
			"pending": order.PendingURL,
		},
		"notification_url": order.NotificationURL,
		"payment_methods": map[string]interface{}{
			"installments":         12,
			"default_installments": 1,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/checkout/preferences", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mercadopago preference creation failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var out struct {
		ID        string `json:"id"`
		InitPoint string `json:"init_point"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.InitPoint) == "" {
		return nil, errors.New("mercadopago preference response missing init_point")
	}
	return &Preference{
		PreferenceID: out.ID,
		PayURL:       out.InitPoint,
	}, nil
}

func (c *MercadoPagoClient) GetPayment(ctx context.Context, paymentID string) (*PaymentRecord, error) {
	if strings.TrimSpace(c.AccessToken) == "" {
		return nil, errors.New("MP_ACCESS_TOKEN is not configured")
	}
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return nil, errors.New("payment id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBaseURL+"/v1/payments/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mercadopago payment lookup failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var raw struct {
		ID                json.Number `json:"id"`
		Status            string      `json:"status"`
		TransactionAmount float64     `json:"transaction_amount"`
		ExternalReference string      `json:"external_reference"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.Status) == "" {
		return nil, errors.New("mercadopago payment response missing status")
	}

	return &PaymentRecord{
		ID:                raw.ID.String(),
		Status:            strings.ToLower(strings.TrimSpace(raw.Status)),
		Amount:            raw.TransactionAmount,
		ExternalReference: strings.TrimSpace(raw.ExternalReference),
	}, nil
}
