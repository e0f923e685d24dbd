package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/picflux/picflux/app/models"
	"gorm.io/gorm"
)

// Service implements the payment lifecycle around the persistent store:
// idempotent webhook ingestion with credit granting, and the read side the
// success-page poller reconciles against.
type Service struct {
	repo Repository
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// IngestCheckoutCompleted persists a completed checkout event and grants
// credits to the matching account, exactly once per session id.
//
// A redelivered event hits the session_id uniqueness constraint and is
// acknowledged as a duplicate without re-granting. A customer email that
// matches no profile leaves the payment recorded with no credits granted;
// that is an accepted terminal state, not a pending one. Grant failures
// after the row was inserted are logged but do not fail ingestion, since
// provider redelivery would only ever see a duplicate.
func (s *Service) IngestCheckoutCompleted(ctx context.Context, ev *CheckoutCompleted, raw []byte) (*IngestResult, error) {
	_ = ctx
	if ev == nil || strings.TrimSpace(ev.SessionID) == "" {
		return nil, errors.New("session id is required")
	}

	credits := CreditsForPlan(ev.Plan)
	payment := &models.Payment{
		SessionID:      strings.TrimSpace(ev.SessionID),
		CustomerEmail:  strings.TrimSpace(ev.CustomerEmail),
		Plan:           NormalizePlan(ev.Plan),
		BillingCycle:   NormalizeBillingCycle(ev.BillingCycle),
		Amount:         float64(ev.AmountMinor) / 100, // provider reports minor units
		CreditsGranted: credits,
		Status:         models.PaymentStatusCompleted,
		RawEvent:       string(raw),
	}

	created, stored, err := s.repo.CreatePaymentIfNotExists(payment)
	if err != nil {
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	result := &IngestResult{PaymentID: stored.ID, CreditsGranted: credits}
	if !created {
		result.Duplicate = true
		result.CreditsGranted = 0
		return result, nil
	}

	if payment.CustomerEmail == "" {
		return result, nil
	}

	profile, err := s.repo.FindProfileByEmail(payment.CustomerEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No matching account; the payment stays recorded without a
			// grant and is never revisited.
			log.Printf("[billing] no profile for %s, payment %s recorded without grant", payment.CustomerEmail, payment.SessionID)
			return result, nil
		}
		log.Printf("[billing] profile lookup failed for payment %s: %v", payment.SessionID, err)
		return result, nil
	}

	if credits > 0 {
		if err := s.repo.AddCredits(profile.ID, credits); err != nil {
			log.Printf("[billing] credit grant failed for payment %s: %v", payment.SessionID, err)
			return result, nil
		}
	}
	if err := s.repo.AssignPaymentUser(stored.ID, profile.UserID); err != nil {
		log.Printf("[billing] user backfill failed for payment %s: %v", payment.SessionID, err)
	}
	result.MatchedUser = true
	return result, nil
}

// PaymentStatus is the poller-facing view of a payment.
type PaymentStatus struct {
	WebhookProcessed bool
	Payment          *models.Payment
}

// GetPaymentStatus reports whether the webhook for a session has landed.
// A missing row is the expected state right after checkout, before the
// asynchronous webhook arrives; it is not an error.
func (s *Service) GetPaymentStatus(ctx context.Context, sessionID string) (*PaymentStatus, error) {
	_ = ctx
	p, err := s.repo.GetPaymentBySessionID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &PaymentStatus{WebhookProcessed: false}, nil
		}
		return nil, err
	}
	return &PaymentStatus{WebhookProcessed: p.IsCompleted(), Payment: p}, nil
}

// Order is the best-effort summary shown on the payment success page.
type Order struct {
	ID           string `json:"id"`
	OrderID      string `json:"orderId"`
	Plan         string `json:"plan"`
	Amount       string `json:"amount"`
	Credits      int    `json:"credits"`
	BillingCycle string `json:"billingCycle"`
}

// VerifyPayment returns the persisted order for a session, or a synthesized
// placeholder when the webhook has not been observed yet. The placeholder
// keeps the success page from blocking on webhook latency at the cost of
// provisionally-wrong numbers until reconciliation.
func (s *Service) VerifyPayment(ctx context.Context, sessionID, orderID string) (*Order, error) {
	_ = ctx
	p, err := s.repo.GetPaymentBySessionID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Order{
				ID:           sessionID,
				OrderID:      orderID,
				Plan:         PlanBasic,
				Amount:       "0.00",
				Credits:      CreditsForPlan(PlanBasic),
				BillingCycle: models.BillingCycleMonthly,
			}, nil
		}
		return nil, err
	}

	if orderID == "" {
		orderID = fmt.Sprintf("%d", p.ID)
	}
	return &Order{
		ID:           sessionID,
		OrderID:      orderID,
		Plan:         p.Plan,
		Amount:       fmt.Sprintf("%.2f", p.Amount),
		Credits:      p.CreditsGranted,
		BillingCycle: p.BillingCycle,
	}, nil
}
