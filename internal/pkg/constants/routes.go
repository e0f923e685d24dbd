package constants

// Route constants shared between router setup and views
const (
	HomeRoute           = "/"
	PricingRoute        = "/pricing"
	PaymentSuccessRoute = "/payment/success"

	APICheckoutRoute       = "/api/checkout"
	APICreemWebhookRoute   = "/api/webhooks/creem"
	APIVerifyPaymentRoute  = "/api/verify-payment"
	APIPaymentStatusRoute  = "/api/payment-status"
	APIPaymentHistoryRoute = "/api/payments"
	APIGenerateRoute       = "/api/generate"
	APITestWebhookRoute    = "/api/test-webhook"
)
