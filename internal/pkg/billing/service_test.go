package billing

import (
	"context"
	"sync"
	"testing"

	"github.com/picflux/picflux/app/models"
	"gorm.io/gorm"
)

// fakeRepository is an in-memory Repository with the same uniqueness
// semantics the payments table enforces on session_id.
type fakeRepository struct {
	mu       sync.Mutex
	nextID   uint
	payments map[string]*models.Payment
	profiles map[uint]*models.UserProfile
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		payments: make(map[string]*models.Payment),
		profiles: make(map[uint]*models.UserProfile),
	}
}

func (f *fakeRepository) addProfile(userID uint, email string, credits int) *models.UserProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	up := &models.UserProfile{ID: f.nextID, UserID: userID, Email: email, Credits: credits}
	f.profiles[up.ID] = up
	return up
}

func (f *fakeRepository) CreatePaymentIfNotExists(payment *models.Payment) (bool, *models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.payments[payment.SessionID]; ok {
		copied := *existing
		return false, &copied, nil
	}
	f.nextID++
	payment.ID = f.nextID
	stored := *payment
	f.payments[payment.SessionID] = &stored
	copied := stored
	return true, &copied, nil
}

func (f *fakeRepository) GetPaymentBySessionID(sessionID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.payments[sessionID]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindProfileByEmail(email string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *models.UserProfile
	for _, up := range f.profiles {
		if up.Email == email && (best == nil || up.ID < best.ID) {
			best = up
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *best
	return &copied, nil
}

func (f *fakeRepository) AddCredits(profileID uint, credits int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[profileID].Credits += credits
	return nil
}

func (f *fakeRepository) AssignPaymentUser(paymentID, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.ID == paymentID {
			uid := userID
			p.UserID = &uid
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func basicCheckout() *CheckoutCompleted {
	return &CheckoutCompleted{
		SessionID:     "ch_test_123",
		CustomerEmail: "jane@example.com",
		Plan:          "Basic",
		BillingCycle:  "monthly",
		AmountMinor:   690,
	}
}

func TestIngestGrantsCreditsExactlyOnce(t *testing.T) {
	repo := newFakeRepository()
	profile := repo.addProfile(7, "jane@example.com", 2)
	svc := NewService(repo)

	res, err := svc.IngestCheckoutCompleted(context.Background(), basicCheckout(), []byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected ingest error: %v", err)
	}
	if res.Duplicate {
		t.Fatalf("first delivery must not be a duplicate")
	}
	if res.CreditsGranted != 400 || !res.MatchedUser {
		t.Fatalf("unexpected result: %+v", res)
	}

	p, err := repo.GetPaymentBySessionID("ch_test_123")
	if err != nil {
		t.Fatalf("expected payment row: %v", err)
	}
	if p.CreditsGranted != 400 || p.Status != models.PaymentStatusCompleted {
		t.Fatalf("unexpected payment row: %+v", p)
	}
	if p.Amount != 6.90 {
		t.Fatalf("expected amount in major units, got %v", p.Amount)
	}
	if p.UserID == nil || *p.UserID != 7 {
		t.Fatalf("expected user backfill to 7, got %v", p.UserID)
	}
	if got := repo.profiles[profile.ID].Credits; got != 402 {
		t.Fatalf("expected balance 402, got %d", got)
	}

	// Redelivery: acknowledged as duplicate, no second row, no re-grant.
	res2, err := svc.IngestCheckoutCompleted(context.Background(), basicCheckout(), []byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected redelivery error: %v", err)
	}
	if !res2.Duplicate || res2.CreditsGranted != 0 {
		t.Fatalf("expected duplicate no-op, got %+v", res2)
	}
	if len(repo.payments) != 1 {
		t.Fatalf("expected exactly one payment row, got %d", len(repo.payments))
	}
	if got := repo.profiles[profile.ID].Credits; got != 402 {
		t.Fatalf("expected balance unchanged at 402, got %d", got)
	}
}

func TestIngestConcurrentDuplicateDeliveries(t *testing.T) {
	repo := newFakeRepository()
	profile := repo.addProfile(9, "jane@example.com", 0)
	svc := NewService(repo)

	const deliveries = 8
	var wg sync.WaitGroup
	duplicates := make(chan bool, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.IngestCheckoutCompleted(context.Background(), basicCheckout(), []byte(`{}`))
			if err != nil {
				t.Errorf("ingest error: %v", err)
				return
			}
			duplicates <- res.Duplicate
		}()
	}
	wg.Wait()
	close(duplicates)

	dupCount := 0
	for dup := range duplicates {
		if dup {
			dupCount++
		}
	}
	if dupCount != deliveries-1 {
		t.Fatalf("expected %d duplicates, got %d", deliveries-1, dupCount)
	}
	if len(repo.payments) != 1 {
		t.Fatalf("expected exactly one payment row, got %d", len(repo.payments))
	}
	if got := repo.profiles[profile.ID].Credits; got != 400 {
		t.Fatalf("expected exactly one grant of 400, got balance %d", got)
	}
}

func TestIngestUnknownPlanStillRecords(t *testing.T) {
	repo := newFakeRepository()
	repo.addProfile(3, "jane@example.com", 10)
	svc := NewService(repo)

	ev := basicCheckout()
	ev.SessionID = "ch_unknown_plan"
	ev.Plan = "Enterprise"

	res, err := svc.IngestCheckoutCompleted(context.Background(), ev, nil)
	if err != nil {
		t.Fatalf("unknown plan must not block insertion: %v", err)
	}
	if res.CreditsGranted != 0 {
		t.Fatalf("expected 0 credits for unknown plan, got %d", res.CreditsGranted)
	}
	p, err := repo.GetPaymentBySessionID("ch_unknown_plan")
	if err != nil {
		t.Fatalf("expected payment row: %v", err)
	}
	if p.CreditsGranted != 0 || p.Plan != "Enterprise" {
		t.Fatalf("unexpected payment row: %+v", p)
	}
}

func TestIngestUnmatchedEmailIsTerminal(t *testing.T) {
	repo := newFakeRepository()
	other := repo.addProfile(5, "someone-else@example.com", 50)
	svc := NewService(repo)

	res, err := svc.IngestCheckoutCompleted(context.Background(), basicCheckout(), nil)
	if err != nil {
		t.Fatalf("unmatched email must not error: %v", err)
	}
	if res.MatchedUser {
		t.Fatalf("expected no account match")
	}
	p, err := repo.GetPaymentBySessionID("ch_test_123")
	if err != nil {
		t.Fatalf("expected payment row: %v", err)
	}
	if p.UserID != nil {
		t.Fatalf("expected user_id unset, got %v", *p.UserID)
	}
	if repo.profiles[other.ID].Credits != 50 {
		t.Fatalf("expected other balances untouched")
	}
}

func TestIngestMissingSessionID(t *testing.T) {
	svc := NewService(newFakeRepository())
	if _, err := svc.IngestCheckoutCompleted(context.Background(), &CheckoutCompleted{}, nil); err == nil {
		t.Fatalf("expected error for missing session id")
	}
}

func TestGetPaymentStatusTransitions(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	st, err := svc.GetPaymentStatus(context.Background(), "ch_pending")
	if err != nil {
		t.Fatalf("pending lookup must not error: %v", err)
	}
	if st.WebhookProcessed || st.Payment != nil {
		t.Fatalf("expected unprocessed status before ingestion, got %+v", st)
	}

	ev := basicCheckout()
	ev.SessionID = "ch_pending"
	if _, err := svc.IngestCheckoutCompleted(context.Background(), ev, nil); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	st, err = svc.GetPaymentStatus(context.Background(), "ch_pending")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !st.WebhookProcessed || st.Payment == nil {
		t.Fatalf("expected processed status after ingestion, got %+v", st)
	}
}

func TestVerifyPaymentPlaceholderAndPersisted(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	order, err := svc.VerifyPayment(context.Background(), "ch_not_yet", "ord_1")
	if err != nil {
		t.Fatalf("placeholder lookup must not error: %v", err)
	}
	if order.Plan != PlanBasic || order.Credits != 400 || order.Amount != "0.00" || order.BillingCycle != "monthly" {
		t.Fatalf("unexpected placeholder order: %+v", order)
	}
	if order.ID != "ch_not_yet" || order.OrderID != "ord_1" {
		t.Fatalf("placeholder should echo ids: %+v", order)
	}

	ev := basicCheckout()
	ev.SessionID = "ch_not_yet"
	ev.Plan = "Pro"
	ev.AmountMinor = 1990
	if _, err := svc.IngestCheckoutCompleted(context.Background(), ev, nil); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	order, err = svc.VerifyPayment(context.Background(), "ch_not_yet", "")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if order.Plan != "Pro" || order.Credits != 1500 || order.Amount != "19.90" {
		t.Fatalf("expected persisted exact values, got %+v", order)
	}
}
