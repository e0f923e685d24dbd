package billing

import (
	"strings"

	"github.com/picflux/picflux/internal/pkg/env"
)

// Plan names mirror the pricing page tiers. Free never enters checkout.
const (
	PlanFree  = "Free"
	PlanHobby = "Hobby"
	PlanBasic = "Basic"
	PlanPro   = "Pro"
)

// planCredits is the static plan→credits table. Credits are resolved from it
// once, at webhook ingestion time, and stored on the payment row; they are
// never recomputed later.
var planCredits = map[string]int{
	PlanHobby: 100,
	PlanBasic: 400,
	PlanPro:   1500,
}

// NormalizePlan maps arbitrary casing onto a known plan name. Unknown input
// is returned trimmed but otherwise untouched so the payment row keeps what
// the provider sent.
func NormalizePlan(plan string) string {
	p := strings.TrimSpace(plan)
	for known := range planCredits {
		if strings.EqualFold(p, known) {
			return known
		}
	}
	if strings.EqualFold(p, PlanFree) {
		return PlanFree
	}
	return p
}

// CreditsForPlan returns the credit allotment for a plan, 0 for unknown
// plans. An unknown plan never blocks payment record insertion.
func CreditsForPlan(plan string) int {
	return planCredits[NormalizePlan(plan)]
}

// IsPaidPlan reports whether a plan can be purchased.
func IsPaidPlan(plan string) bool {
	_, ok := planCredits[NormalizePlan(plan)]
	return ok
}

// NormalizeBillingCycle clamps the billing cycle to monthly/yearly.
func NormalizeBillingCycle(cycle string) string {
	switch strings.ToLower(strings.TrimSpace(cycle)) {
	case "yearly":
		return "yearly"
	default:
		return "monthly"
	}
}

// ProductIDForPlan resolves a plan to the provider-side product identifier
// from static configuration. Empty means the plan is not sellable.
func ProductIDForPlan(plan string) string {
	switch NormalizePlan(plan) {
	case PlanHobby:
		return env.GetEnv("CREEM_PRODUCT_HOBBY", "")
	case PlanBasic:
		return env.GetEnv("CREEM_PRODUCT_BASIC", "")
	case PlanPro:
		return env.GetEnv("CREEM_PRODUCT_PRO", "")
	default:
		return ""
	}
}
