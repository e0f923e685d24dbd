package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/picflux/picflux/app/repository"
	"github.com/picflux/picflux/internal/pkg/billing"
	"github.com/picflux/picflux/internal/pkg/cache"
	"github.com/picflux/picflux/internal/pkg/constants"
	"github.com/picflux/picflux/internal/pkg/database"
	"github.com/picflux/picflux/internal/pkg/env"
	"github.com/picflux/picflux/internal/pkg/usercontext"
)

const (
	creemSignatureHeader  = "creem-signature"
	paymentStatusCacheTTL = 2 * time.Second
)

type checkoutRequest struct {
	Plan         string `json:"plan" validate:"required"`
	BillingCycle string `json:"billingCycle"`
}

// HandleCheckout creates a hosted checkout session for a paid plan and
// returns the provider redirect URL.
func HandleCheckout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Plan is required"})
	}
	if !billing.IsPaidPlan(req.Plan) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan selected"})
	}

	productID := billing.ProductIDForPlan(req.Plan)
	if productID == "" {
		log.Printf("[payment] no product id configured for plan %q", req.Plan)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Payment provider is not configured for this plan"})
	}

	metadata := map[string]string{
		"plan":         billing.NormalizePlan(req.Plan),
		"billingCycle": billing.NormalizeBillingCycle(req.BillingCycle),
	}
	// Metadata rides through the provider and returns on the webhook, so a
	// logged-in buyer can be matched even if they pay with another email.
	userCtx := usercontext.GetUserContext(c)
	if userCtx.IsLoggedIn {
		metadata["userId"] = fmt.Sprintf("%d", userCtx.UserID)
		if userCtx.Email != "" {
			metadata["email"] = userCtx.Email
		}
	}

	ctx, cancel := context.WithTimeout(c.Context(), 20*time.Second)
	defer cancel()

	client := billing.NewCreemClientFromEnv()
	session, err := client.CreateCheckout(ctx, productID, metadata)
	if err != nil {
		var creemErr *billing.CreemError
		if errors.As(err, &creemErr) {
			log.Printf("[payment] checkout creation rejected: %v", creemErr)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": creemErr.Message})
		}
		log.Printf("[payment] checkout creation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create checkout session"})
	}

	return c.JSON(fiber.Map{"url": session.RedirectURL()})
}

// HandleCreemWebhook ingests provider webhook deliveries. Completed checkouts
// grant credits exactly once per session; everything else is acknowledged and
// dropped.
func HandleCreemWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	secret := env.GetEnv("CREEM_WEBHOOK_SECRET", "")
	if secret != "" {
		if !billing.VerifyCreemWebhookSignature(rawBody, c.Get(creemSignatureHeader), secret) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid webhook signature"})
		}
	} else if !env.IsDev() {
		log.Print("[payment] CREEM_WEBHOOK_SECRET not set, rejecting webhook")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Webhook signature verification is not configured"})
	}

	event, err := billing.ParseWebhookEvent(rawBody)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid webhook payload"})
	}

	if event.Kind != billing.EventCheckoutCompleted {
		log.Printf("[payment] ignoring webhook event type %q", event.Type)
		return c.JSON(fiber.Map{"received": true})
	}

	if event.Checkout == nil || strings.TrimSpace(event.Checkout.SessionID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing checkout session id"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	svc := billing.NewServiceFromDB(database.GetDB())
	result, err := svc.IngestCheckoutCompleted(ctx, event.Checkout, rawBody)
	if err != nil {
		log.Printf("[payment] webhook ingestion failed for session %s: %v", event.Checkout.SessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
	}

	if result.Duplicate {
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	// The status poller caches misses briefly; invalidate so the success
	// page converges right after the grant.
	_ = cache.Delete(paymentStatusCacheKey(event.Checkout.SessionID))

	log.Printf("[payment] session %s processed, %d credits granted (matched=%t)",
		event.Checkout.SessionID, result.CreditsGranted, result.MatchedUser)
	return c.JSON(fiber.Map{"received": true})
}

// HandleVerifyPayment returns the order summary for the success page. The
// checkout_id query parameter is accepted as an alias for session_id.
func HandleVerifyPayment(c *fiber.Ctx) error {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		sessionID = strings.TrimSpace(c.Query("checkout_id"))
	}
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id is required"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	order, err := svc.VerifyPayment(c.Context(), sessionID, strings.TrimSpace(c.Query("order_id")))
	if err != nil {
		log.Printf("[payment] verify failed for session %s: %v", sessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify payment"})
	}
	return c.JSON(verifyPaymentResponse(order))
}

// verifyPaymentResponse wraps the order in the response envelope the success
// page consumes.
func verifyPaymentResponse(order *billing.Order) fiber.Map {
	return fiber.Map{"success": true, "order": order}
}

// HandlePaymentStatus reports whether the webhook for a session has been
// processed. The success page polls this, so results are cached for a moment
// to keep redelivery storms off the database.
func HandlePaymentStatus(c *fiber.Ctx) error {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id is required"})
	}

	cacheKey := paymentStatusCacheKey(sessionID)
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	status, err := svc.GetPaymentStatus(c.Context(), sessionID)
	if err != nil {
		log.Printf("[payment] status lookup failed for session %s: %v", sessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check payment status"})
	}

	resp := paymentStatusResponse(status)
	if body, merr := json.Marshal(resp); merr == nil {
		_ = cache.Set(cacheKey, string(body), paymentStatusCacheTTL)
	}

	return c.JSON(resp)
}

// paymentStatusResponse includes the payment summary once the webhook has
// produced a row; before that the response is just the processed flag.
func paymentStatusResponse(status *billing.PaymentStatus) fiber.Map {
	resp := fiber.Map{"webhookProcessed": status.WebhookProcessed}
	if status.Payment != nil {
		resp["payment"] = fiber.Map{
			"id":             status.Payment.ID,
			"status":         status.Payment.Status,
			"creditsGranted": status.Payment.CreditsGranted,
			"createdAt":      status.Payment.CreatedAt,
		}
	}
	return resp
}

// HandlePaymentHistory returns the logged-in user's most recent payments.
func HandlePaymentHistory(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	payments, err := repository.GetGlobalFactory().GetPaymentRepository().GetByUserID(userCtx.UserID, 0, 20)
	if err != nil {
		log.Printf("[payment] history lookup failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load payment history"})
	}
	return c.JSON(fiber.Map{"payments": payments})
}

// HandleTestWebhook posts a signed sample checkout.completed delivery to the
// local webhook endpoint. Development only.
func HandleTestWebhook(c *fiber.Ctx) error {
	if !env.IsDev() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	}

	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		userCtx := usercontext.GetUserContext(c)
		email = userCtx.Email
	}

	payload, _ := json.Marshal(fiber.Map{
		"type": "checkout.completed",
		"data": fiber.Map{
			"id":       "ch_test_123",
			"customer": fiber.Map{"email": email},
			"metadata": fiber.Map{"plan": billing.PlanBasic, "billingCycle": "monthly"},
			"amount":   690,
		},
	})

	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:"+env.GetEnv("APP_PORT", "4000")), "/")
	req, err := http.NewRequestWithContext(c.Context(), http.MethodPost, base+constants.APICreemWebhookRoute, bytes.NewReader(payload))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	req.Header.Set("Content-Type", "application/json")
	if secret := env.GetEnv("CREEM_WEBHOOK_SECRET", ""); secret != "" {
		req.Header.Set(creemSignatureHeader, billing.SignWebhookPayload(payload, secret))
	}

	resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return c.JSON(fiber.Map{"status": resp.StatusCode, "response": body})
}

func paymentStatusCacheKey(sessionID string) string {
	return "payment:status:" + sessionID
}
