package domain

import "time"

// SubscriptionPlan is the client's base plan tier, or empty for
// pay-per-lead / trial clients.
type SubscriptionPlan string

const (
	PlanStarter SubscriptionPlan = "starter"
	PlanPro     SubscriptionPlan = "pro"
	PlanElite   SubscriptionPlan = "elite"
)

// BusinessClient is a subscriber to the lead delivery service.
type BusinessClient struct {
	ID                string            `db:"id"`
	BusinessName      string            `db:"business_name"`
	Industry          string            `db:"industry"`
	Email             string            `db:"email"`
	Phone             string            `db:"phone"`
	WhatsApp          string            `db:"whatsapp"`
	SubscriptionPlan  SubscriptionPlan  `db:"subscription_plan"` // "" means no plan
	NumberOfUsers     int               `db:"number_of_users"`
	NextBillingDate   *time.Time        `db:"next_billing_date"`
	IsDeleted         bool              `db:"is_deleted"`
	DeletedAt         *time.Time        `db:"deleted_at"`
}

// HasPlan reports whether the client carries a subscription plan.
func (c *BusinessClient) HasPlan() bool {
	return c.SubscriptionPlan != ""
}

// PaymentStatus tracks the lifecycle of a single Payment row.
type PaymentStatus string

const (
	PaymentDue     PaymentStatus = "due"
	PaymentPaid    PaymentStatus = "paid"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// IsSettled reports whether the payment counts as a completed charge.
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentPaid || s == PaymentSuccess
}

// Payment represents one billing transaction for a client. plan_name
// "trial" marks a trial-pack purchase rather than a subscription plan.
type Payment struct {
	ID            string        `db:"id"`
	ClientRef     string        `db:"client_ref"`
	PlanName      string        `db:"plan_name"`
	Amount        float64       `db:"amount"`
	PaymentDate   time.Time     `db:"payment_date"`
	PaymentStatus PaymentStatus `db:"payment_status"`
}
