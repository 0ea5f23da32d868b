// Package billing manages client subscriptions, invoices, and the
// active/grace-period status checks the delivery engine depends on.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/rgangen24/leadgen/internal/domain"
	"github.com/rgangen24/leadgen/internal/logging"
	"github.com/rgangen24/leadgen/internal/pricing"
	"github.com/rgangen24/leadgen/internal/store"
)

// Service implements the billing operations the scheduler and delivery
// engine depend on, grounded on payments.py.
type Service struct {
	clients store.ClientStore
	billing store.BillingStore
}

// NewService builds a Service over the given store adapters.
func NewService(clients store.ClientStore, billing store.BillingStore) *Service {
	return &Service{clients: clients, billing: billing}
}

// RecordPayment inserts a payment row for an existing client. Returns
// the empty string without error if the client does not exist.
func (s *Service) RecordPayment(ctx context.Context, clientRef, planName string, amount float64, paymentDate time.Time, status domain.PaymentStatus) (string, error) {
	if _, err := s.clients.Get(ctx, clientRef); err != nil {
		logging.Info("payment_skipped", "reason", "business_client_missing", "client_ref", clientRef)
		return "", nil
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now().UTC()
	}
	p := &domain.Payment{
		ClientRef:     clientRef,
		PlanName:      planName,
		Amount:        amount,
		PaymentDate:   paymentDate,
		PaymentStatus: status,
	}
	if err := s.billing.InsertPayment(ctx, p); err != nil {
		return "", fmt.Errorf("record payment: %w", err)
	}
	logging.Info("payment_recorded", "client_ref", clientRef, "plan", planName, "status", string(status))
	return p.ID, nil
}

// UpdateSubscription activates or clears a client's plan depending on
// whether the triggering payment settled. numberOfUsers is applied only
// when non-nil.
func (s *Service) UpdateSubscription(ctx context.Context, clientRef, planName string, numberOfUsers *int, status domain.PaymentStatus) (bool, error) {
	if _, err := s.clients.Get(ctx, clientRef); err != nil {
		logging.Info("subscription_update_skipped", "reason", "client_missing", "client_ref", clientRef)
		return false, nil
	}
	plan, ok := pricing.BasePlans[planName]
	if !ok {
		logging.Info("subscription_update_skipped", "reason", "plan_missing", "client_ref", clientRef)
		return false, nil
	}

	if status.IsSettled() {
		next := time.Now().UTC().Add(time.Duration(plan.PeriodDays) * 24 * time.Hour)
		if err := s.clients.UpdatePlan(ctx, clientRef, domain.SubscriptionPlan(planName), &next); err != nil {
			return false, fmt.Errorf("update subscription: %w", err)
		}
		if numberOfUsers != nil {
			if err := s.clients.UpdateNumberOfUsers(ctx, clientRef, *numberOfUsers); err != nil {
				return false, fmt.Errorf("update subscription: %w", err)
			}
		}
		logging.Info("subscription_updated", "client_ref", clientRef, "plan", planName)
		return true, nil
	}

	if err := s.clients.UpdatePlan(ctx, clientRef, "", nil); err != nil {
		return false, fmt.Errorf("deactivate subscription: %w", err)
	}
	logging.Info("subscription_deactivated", "reason", "failed_payment", "client_ref", clientRef)
	return false, nil
}

// IsClientActive implements is_client_active from payments.py: clients
// with no plan are active if they have any settled payment; clients with
// a plan are active if their billing date plus grace period hasn't
// fully lapsed and they have ever settled a payment.
func (s *Service) IsClientActive(ctx context.Context, clientRef string) (bool, error) {
	c, err := s.clients.Get(ctx, clientRef)
	if err != nil {
		return false, nil
	}

	paid, err := s.billing.HasSettledPayment(ctx, clientRef)
	if err != nil {
		return false, fmt.Errorf("is client active: %w", err)
	}

	if !c.HasPlan() {
		return paid, nil
	}
	if c.NextBillingDate == nil {
		return false, nil
	}

	now := time.Now().UTC()
	if !c.NextBillingDate.After(now) && c.NextBillingDate.Add(pricing.GracePeriodDays*24*time.Hour).Before(now) {
		return false, nil
	}
	return paid, nil
}

// DeactivateExpiredClients clears the plan of every client whose grace
// period has fully lapsed, when AutoDowngrade is enabled.
func (s *Service) DeactivateExpiredClients(ctx context.Context) (int, error) {
	if !pricing.AutoDowngrade {
		return 0, nil
	}
	clients, err := s.clients.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired clients: %w", err)
	}

	now := time.Now().UTC()
	count := 0
	for _, c := range clients {
		if c.NextBillingDate == nil {
			continue
		}
		if c.NextBillingDate.Add(pricing.GracePeriodDays * 24 * time.Hour).Before(now) {
			if err := s.clients.UpdatePlan(ctx, c.ID, "", nil); err != nil {
				return count, fmt.Errorf("deactivate expired clients: %w", err)
			}
			count++
		}
	}
	logging.Info("expired_clients_deactivated", "count", count)
	return count, nil
}

// GenerateInvoice records a "due" payment for a subscribed client's
// current plan price.
func (s *Service) GenerateInvoice(ctx context.Context, clientRef string) (string, error) {
	c, err := s.clients.Get(ctx, clientRef)
	if err != nil || !c.HasPlan() {
		return "", nil
	}
	plan, ok := pricing.BasePlans[string(c.SubscriptionPlan)]
	if !ok {
		return "", nil
	}
	id, err := s.RecordPayment(ctx, clientRef, string(c.SubscriptionPlan), plan.Price, time.Time{}, domain.PaymentDue)
	if err != nil {
		return "", err
	}
	logging.Info("invoice_generated", "client_ref", clientRef, "amount", plan.Price)
	return id, nil
}

// SettleInvoice marks a due payment as paid.
func (s *Service) SettleInvoice(ctx context.Context, paymentID string) (bool, error) {
	p, err := s.billing.GetPayment(ctx, paymentID)
	if err != nil {
		return false, nil
	}
	if err := s.billing.UpdatePaymentStatus(ctx, p.ID, domain.PaymentPaid); err != nil {
		return false, fmt.Errorf("settle invoice: %w", err)
	}
	logging.Info("invoice_settled", "payment_id", paymentID)
	return true, nil
}

// UpcomingBilling returns clients whose next billing date falls within
// thresholdDays of now.
func (s *Service) UpcomingBilling(ctx context.Context, thresholdDays int) ([]*domain.BusinessClient, error) {
	clients, err := s.clients.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("upcoming billing: %w", err)
	}
	now := time.Now().UTC()
	soon := now.Add(time.Duration(thresholdDays) * 24 * time.Hour)

	var due []*domain.BusinessClient
	for _, c := range clients {
		if c.NextBillingDate == nil {
			continue
		}
		if !c.NextBillingDate.Before(now) && !c.NextBillingDate.After(soon) {
			due = append(due, c)
		}
	}
	logging.Info("billing_upcoming", "count", len(due), "threshold_days", thresholdDays)
	return due, nil
}
