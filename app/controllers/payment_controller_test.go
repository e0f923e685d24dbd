package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picflux/picflux/app/models"
	"github.com/picflux/picflux/internal/pkg/billing"
	"github.com/picflux/picflux/internal/pkg/constants"
	"github.com/picflux/picflux/internal/pkg/middleware"
)

func newWebhookTestApp() *fiber.App {
	app := fiber.New()
	app.Post(constants.APICreemWebhookRoute, HandleCreemWebhook)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, payload []byte, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, constants.APICreemWebhookRoute, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(creemSignatureHeader, signature)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	t.Setenv("CREEM_WEBHOOK_SECRET", "whsec_test")
	app := newWebhookTestApp()

	payload := []byte(`{"type":"checkout.completed","checkout_id":"ch_1"}`)

	resp := postWebhook(t, app, payload, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = postWebhook(t, app, payload, "deadbeef")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestWebhookRejectsMissingSecretOutsideDev(t *testing.T) {
	t.Setenv("CREEM_WEBHOOK_SECRET", "")
	t.Setenv("APP_ENV", "prod")
	app := newWebhookTestApp()

	resp := postWebhook(t, app, []byte(`{"type":"checkout.completed"}`), "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestWebhookAcknowledgesIgnoredEventKinds(t *testing.T) {
	t.Setenv("CREEM_WEBHOOK_SECRET", "whsec_test")
	app := newWebhookTestApp()

	payload := []byte(`{"type":"payment.failed","checkout_id":"ch_9"}`)
	resp := postWebhook(t, app, payload, billing.SignWebhookPayload(payload, "whsec_test"))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var ack map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &ack))
	assert.Equal(t, true, ack["received"])
	assert.NotContains(t, ack, "duplicate")
}

func TestWebhookRejectsMalformedAndIncompletePayloads(t *testing.T) {
	t.Setenv("CREEM_WEBHOOK_SECRET", "whsec_test")
	app := newWebhookTestApp()

	garbage := []byte(`{not json`)
	resp := postWebhook(t, app, garbage, billing.SignWebhookPayload(garbage, "whsec_test"))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	noSession := []byte(`{"type":"checkout.completed","metadata":{"plan":"Basic"}}`)
	resp = postWebhook(t, app, noSession, billing.SignWebhookPayload(noSession, "whsec_test"))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCheckoutRejectsFreeAndUnknownPlans(t *testing.T) {
	app := fiber.New()
	app.Post(constants.APICheckoutRoute, HandleCheckout)

	for _, plan := range []string{"Free", "Enterprise", ""} {
		body, _ := json.Marshal(map[string]string{"plan": plan, "billingCycle": "monthly"})
		req := httptest.NewRequest(http.MethodPost, constants.APICheckoutRoute, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "plan %q should be rejected", plan)
	}
}

func TestCheckoutFailsWithoutProductConfiguration(t *testing.T) {
	t.Setenv("CREEM_PRODUCT_BASIC", "")
	app := fiber.New()
	app.Post(constants.APICheckoutRoute, HandleCheckout)

	body, _ := json.Marshal(map[string]string{"plan": "Basic", "billingCycle": "monthly"})
	req := httptest.NewRequest(http.MethodPost, constants.APICheckoutRoute, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestVerifyPaymentRequiresSessionID(t *testing.T) {
	app := fiber.New()
	app.Get(constants.APIVerifyPaymentRoute, HandleVerifyPayment)

	req := httptest.NewRequest(http.MethodGet, constants.APIVerifyPaymentRoute, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPaymentStatusRequiresSessionID(t *testing.T) {
	app := fiber.New()
	app.Get(constants.APIPaymentStatusRoute, HandlePaymentStatus)

	req := httptest.NewRequest(http.MethodGet, constants.APIPaymentStatusRoute, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGenerateRequiresLogin(t *testing.T) {
	app := fiber.New()
	app.Post(constants.APIGenerateRoute, middleware.RequireAPISessionAuth, HandleGenerate)

	body, _ := json.Marshal(map[string]string{"prompt": "p", "image": "data:image/png;base64,AAAA"})
	req := httptest.NewRequest(http.MethodPost, constants.APIGenerateRoute, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestPaymentHistoryRequiresLogin(t *testing.T) {
	app := fiber.New()
	app.Get(constants.APIPaymentHistoryRoute, middleware.RequireAPISessionAuth, HandlePaymentHistory)

	req := httptest.NewRequest(http.MethodGet, constants.APIPaymentHistoryRoute, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestVerifyPaymentResponseWrapsOrder(t *testing.T) {
	order := &billing.Order{
		ID:           "ch_123",
		OrderID:      "ord_456",
		Plan:         "Basic",
		Amount:       "9.90",
		Credits:      400,
		BillingCycle: "monthly",
	}

	body, err := json.Marshal(verifyPaymentResponse(order))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, true, got["success"])

	wrapped, ok := got["order"].(map[string]interface{})
	require.True(t, ok, "order must be an object")
	assert.Equal(t, "ch_123", wrapped["id"])
	assert.Equal(t, "ord_456", wrapped["orderId"])
	assert.Equal(t, "Basic", wrapped["plan"])
	assert.Equal(t, "9.90", wrapped["amount"])
	assert.Equal(t, float64(400), wrapped["credits"])
	assert.Equal(t, "monthly", wrapped["billingCycle"])
}

func TestPaymentStatusResponseIncludesPaymentWhenPresent(t *testing.T) {
	resp := paymentStatusResponse(&billing.PaymentStatus{WebhookProcessed: false})
	assert.Equal(t, false, resp["webhookProcessed"])
	assert.NotContains(t, resp, "payment")

	status := &billing.PaymentStatus{
		WebhookProcessed: true,
		Payment: &models.Payment{
			ID:             7,
			Status:         models.PaymentStatusCompleted,
			CreditsGranted: 400,
			CreatedAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	body, err := json.Marshal(paymentStatusResponse(status))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, true, got["webhookProcessed"])

	payment, ok := got["payment"].(map[string]interface{})
	require.True(t, ok, "payment must be an object")
	assert.Equal(t, float64(7), payment["id"])
	assert.Equal(t, "completed", payment["status"])
	assert.Equal(t, float64(400), payment["creditsGranted"])
	assert.Equal(t, "2026-08-01T12:00:00Z", payment["createdAt"])
}
