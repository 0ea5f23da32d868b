// Package pricing holds the static subscription, pay-per-lead, and trial
// tables the delivery engine and billing lifecycle price against.
// Content is config, not logic: see DESIGN.md for the source of these figures.
package pricing

import "strings"

// Plan describes one subscription tier's price, discount off the
// per-lead base price, monthly lead cap, and billing period.
type Plan struct {
	Price      float64
	Discount   float64
	LeadCap    int
	PeriodDays int
}

// Tier is the pay-per-lead pricing bucket an industry maps to.
type Tier string

const (
	TierBasic Tier = "basic"
	TierMid   Tier = "mid"
	TierHigh  Tier = "high"
)

// BasePlans are the three subscription tiers.
var BasePlans = map[string]Plan{
	"starter": {Price: 499, Discount: 0.4, LeadCap: 50, PeriodDays: 30},
	"pro":     {Price: 999, Discount: 0.6, LeadCap: 150, PeriodDays: 30},
	"elite":   {Price: 1999, Discount: 0.7, LeadCap: 500, PeriodDays: 30},
}

// LeadPricing is the pay-per-lead base price by tier.
var LeadPricing = map[Tier]float64{
	TierBasic: 15,
	TierMid:   45,
	TierHigh:  150,
}

// PayPerLeadCap is the monthly delivery cap for pay-per-lead clients, by tier.
var PayPerLeadCap = map[Tier]int{
	TierBasic: 50,
	TierMid:   100,
	TierHigh:  200,
}

// TrialConfig describes the one-time trial pack.
type trialConfig struct {
	Price     float64
	Leads     int
	DaysValid int
}

// TrialConfig is the trial-pack parameters.
var TrialConfig = trialConfig{Price: 49, Leads: 10, DaysValid: 7}

// IndustryTiers maps a normalized industry name to its pay-per-lead tier.
var IndustryTiers = map[string]Tier{
	"restaurants":   TierBasic,
	"salons":        TierBasic,
	"cleaning":      TierBasic,
	"plumbing":      TierBasic,
	"electricians":  TierBasic,
	"fitness":       TierMid,
	"real_estate":   TierMid,
	"insurance":     TierMid,
	"saas":          TierMid,
	"law":           TierHigh,
	"consulting":    TierHigh,
}

// GracePeriodDays is how long a client stays active past next_billing_date
// without a new payment.
const GracePeriodDays = 5

// AutoDowngrade controls whether billing.DeactivateExpiredClients nulls the plan of
// clients whose grace period has elapsed.
const AutoDowngrade = true

// TierFor normalizes an industry name and returns its pay-per-lead tier,
// defaulting to basic when the industry is unknown.
func TierFor(industry string) Tier {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(industry), " ", "_"))
	if tier, ok := IndustryTiers[key]; ok {
		return tier
	}
	return TierBasic
}

// BasePriceFor returns the pay-per-lead base price for an industry.
func BasePriceFor(industry string) float64 {
	return LeadPricing[TierFor(industry)]
}

// SubscriptionPrice applies a plan's discount to the industry's base price,
// rounded to 2 decimal places and clamped to a minimum of zero.
func SubscriptionPrice(industry string, plan Plan) float64 {
	base := BasePriceFor(industry)
	price := base * (1 - plan.Discount)
	if price < 0 {
		price = 0
	}
	return roundCents(price)
}

func roundCents(v float64) float64 {
	// round half up to 2 decimal places (add 0.5 cent, truncate), which is
	// half-away-from-zero for the non-negative values pricing ever produces.
	scaled := v*100 + 0.5
	return float64(int64(scaled)) / 100
}
