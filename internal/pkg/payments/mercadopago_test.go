package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(ts *httptest.Server) *MercadoPagoClient {
	return &MercadoPagoClient{
		AccessToken: "test-token",
		APIBaseURL:  ts.URL,
		HTTPClient:  &http.Client{Timeout: 5 * time.Second},
	}
}

func TestMercadoPagoGetPayment(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/123" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":123,"status":"Approved","transaction_amount":49.9,"external_reference":"42"}`))
	}))
	defer ts.Close()

	record, err := newTestClient(ts).GetPayment(context.Background(), "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.ID != "123" || record.Status != "approved" {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.Amount != 49.9 || record.ExternalReference != "42" {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestMercadoPagoGetPayment_UpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Payment not found"}`))
	}))
	defer ts.Close()

	if _, err := newTestClient(ts).GetPayment(context.Background(), "999"); err == nil {
		t.Fatalf("expected error for upstream 404")
	}
}

func TestMercadoPagoCreatePreference(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout/preferences" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Idempotency-Key") == "" {
			t.Fatalf("expected an idempotency key header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pref_abc","init_point":"https://www.mercadopago.com/checkout/v1/redirect?pref_id=pref_abc"}`))
	}))
	defer ts.Close()

	pref, err := newTestClient(ts).CreatePreference(context.Background(), Order{
		UserID:    42,
		Email:     "user@example.com",
		ItemID:    "healthmed-premium",
		Title:     "Assinatura HealthMed Premium",
		UnitPrice: 49.9,
		Currency:  "BRL",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pref.PreferenceID != "pref_abc" || pref.PayURL == "" {
		t.Fatalf("unexpected preference: %+v", pref)
	}
}
