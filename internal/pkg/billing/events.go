package billing

import (
	"encoding/json"
	"strings"
)

// eventEnvelope covers both payload shapes the provider emits: the
// documented nested form ({type, data:{...}}) and the flat form observed in
// live deliveries ({type, checkout_id, customer:{...}, ...}).
type eventEnvelope struct {
	Type string `json:"type"`

	Data struct {
		ID       string          `json:"id"`
		Customer json.RawMessage `json:"customer"`
		Metadata eventMetadata   `json:"metadata"`
		Amount   int64           `json:"amount"`
	} `json:"data"`

	CheckoutID string          `json:"checkout_id"`
	Customer   json.RawMessage `json:"customer"`
	Metadata   eventMetadata   `json:"metadata"`
	Amount     int64           `json:"amount"`
}

type eventMetadata struct {
	Plan         string `json:"plan"`
	BillingCycle string `json:"billingCycle"`
}

type eventCustomer struct {
	Email string `json:"email"`
}

// ParseWebhookEvent normalizes a raw provider envelope into the tagged
// WebhookEvent union. Unknown event types parse successfully as
// EventUnknown; only malformed JSON is an error.
func ParseWebhookEvent(raw []byte) (*WebhookEvent, error) {
	var env eventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	ev := &WebhookEvent{Type: env.Type}
	switch strings.ToLower(strings.TrimSpace(env.Type)) {
	case "checkout.completed", "payment.succeeded":
		ev.Kind = EventCheckoutCompleted
		ev.Checkout = normalizeCheckout(&env)
	case "payment.failed":
		ev.Kind = EventPaymentFailed
	case "subscription.renewed":
		ev.Kind = EventSubscriptionRenewed
	default:
		ev.Kind = EventUnknown
	}
	return ev, nil
}

func normalizeCheckout(env *eventEnvelope) *CheckoutCompleted {
	out := &CheckoutCompleted{
		SessionID:    firstNonEmpty(env.Data.ID, env.CheckoutID),
		Plan:         firstNonEmpty(env.Data.Metadata.Plan, env.Metadata.Plan, "Unknown"),
		BillingCycle: NormalizeBillingCycle(firstNonEmpty(env.Data.Metadata.BillingCycle, env.Metadata.BillingCycle)),
		AmountMinor:  env.Data.Amount,
	}
	if out.AmountMinor == 0 {
		out.AmountMinor = env.Amount
	}
	out.CustomerEmail = firstNonEmpty(customerEmail(env.Data.Customer), customerEmail(env.Customer))
	return out
}

// customerEmail tolerates the customer field arriving as an object or as a
// bare email string.
func customerEmail(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var obj eventCustomer
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Email != "" {
		return obj.Email
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
