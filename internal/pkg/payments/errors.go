package payments

import "errors"

// Sentinel errors surfaced by the verifier and the reconciler. The webhook
// endpoint maps these to HTTP status codes; 5xx variants signal the gateway
// to redeliver, 4xx variants signal that retrying will not help.
var (
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrMalformedBody          = errors.New("malformed notification body")
	ErrMissingPaymentID       = errors.New("payment notification is missing a payment id")

	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrUnresolvableUser   = errors.New("approved payment has no resolvable user")
	ErrActivationFailed   = errors.New("subscription activation failed")
)
