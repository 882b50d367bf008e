package payments

import (
	"errors"
	"testing"
)

func TestVerifyNotification_PaymentKind(t *testing.T) {
	n, err := VerifyNotification("application/json", []byte(`{"type":"payment","data":{"id":"12345"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !n.IsPayment() {
		t.Fatalf("expected payment notification, got kind %q", n.Kind)
	}
	if n.PaymentID != "12345" {
		t.Fatalf("unexpected payment id: %q", n.PaymentID)
	}
}

func TestVerifyNotification_NumericPaymentID(t *testing.T) {
	n, err := VerifyNotification("application/json; charset=utf-8", []byte(`{"type":"payment","data":{"id":98765}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.PaymentID != "98765" {
		t.Fatalf("unexpected payment id: %q", n.PaymentID)
	}
}

func TestVerifyNotification_IgnoredKind(t *testing.T) {
	n, err := VerifyNotification("application/json", []byte(`{"type":"subscription_cancelled","data":{"id":"sub_1"}}`))
	if err != nil {
		t.Fatalf("ignored kinds must not be errors, got: %v", err)
	}
	if n.IsPayment() {
		t.Fatalf("expected non-payment notification")
	}
}

func TestVerifyNotification_Failures(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        error
	}{
		{name: "wrong content type", contentType: "text/plain", body: `{}`, want: ErrUnsupportedContentType},
		{name: "broken json", contentType: "application/json", body: `{"type":`, want: ErrMalformedBody},
		{name: "payment without id", contentType: "application/json", body: `{"type":"payment","data":{}}`, want: ErrMissingPaymentID},
		{name: "payment with empty id", contentType: "application/json", body: `{"type":"payment","data":{"id":""}}`, want: ErrMissingPaymentID},
	}

	for _, tt := range tests {
		_, err := VerifyNotification(tt.contentType, []byte(tt.body))
		if !errors.Is(err, tt.want) {
			t.Fatalf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}
}
