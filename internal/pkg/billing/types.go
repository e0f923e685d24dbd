package billing

// EventKind tags the normalized webhook event union.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventCheckoutCompleted
	EventPaymentFailed
	EventSubscriptionRenewed
)

// WebhookEvent is the canonical internal form of a provider event envelope.
// The provider emits two payload shapes (nested under data.* or flat top
// level); ParseWebhookEvent folds both into this one type so handling logic
// never inspects optional fields.
type WebhookEvent struct {
	Kind EventKind
	Type string // raw provider event type

	// Checkout is set only when Kind == EventCheckoutCompleted.
	Checkout *CheckoutCompleted
}

// CheckoutCompleted carries the fields the ingestor needs from a completed
// checkout, already normalized across both payload shapes.
type CheckoutCompleted struct {
	SessionID     string
	CustomerEmail string
	Plan          string
	BillingCycle  string
	AmountMinor   int64 // provider reports minor currency units
}

// IngestResult reports what a webhook ingestion actually did.
type IngestResult struct {
	Duplicate      bool
	CreditsGranted int
	MatchedUser    bool
	PaymentID      uint
}
