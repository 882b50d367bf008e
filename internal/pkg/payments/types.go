package payments

// Notification is the inbound webhook event. It asserts "something happened
// to payment X" and is untrusted as to status or amount; only the payment id
// is taken from it.
type Notification struct {
	Kind      string
	PaymentID string
}

// IsPayment reports whether the notification is of the one kind the
// reconciler processes. Everything else is acknowledged as a no-op.
func (n *Notification) IsPayment() bool {
	return n.Kind == "payment"
}

// PaymentRecord is the authoritative payment state fetched from the gateway
// for one payment id.
type PaymentRecord struct {
	ID                string
	Status            string
	Amount            float64
	ExternalReference string
}

// Order is the provider-agnostic input for preference creation.
type Order struct {
	UserID          uint
	Email           string
	ItemID          string
	Title           string
	UnitPrice       float64
	Currency        string
	SuccessURL      string
	FailureURL      string
	PendingURL      string
	NotificationURL string
}

// Preference is the gateway-side checkout the user is redirected to.
type Preference struct {
	PreferenceID string
	PayURL       string
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
}

// ReconcileResult is the terminal outcome of one reconciliation run.
type ReconcileResult struct {
	Activated bool
	Status    string
	PaymentID string
	UserID    uint
	Amount    float64
}
