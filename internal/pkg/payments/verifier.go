package payments

import (
	"encoding/json"
	"fmt"
	"strings"
)

// VerifyNotification validates an inbound webhook request body. It has no
// side effects. A notification of a non-payment kind is a valid outcome, not
// an error; callers check IsPayment and acknowledge it as a no-op.
func VerifyNotification(contentType string, body []byte) (*Notification, error) {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if mediaType != "application/json" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}

	var raw struct {
		Type string `json:"type"`
		Data struct {
			// The gateway is inconsistent about quoting payment ids.
			ID json.Number `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	n := &Notification{
		Kind:      strings.ToLower(strings.TrimSpace(raw.Type)),
		PaymentID: strings.TrimSpace(raw.Data.ID.String()),
	}
	if !n.IsPayment() {
		return n, nil
	}
	if n.PaymentID == "" {
		return nil, ErrMissingPaymentID
	}
	return n, nil
}
