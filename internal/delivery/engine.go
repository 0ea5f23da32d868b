// Package delivery implements the gate that decides whether a qualified
// lead may be sent to a business client, and performs the send.
// Ported from the original send_whatsapp_leads, generalized across
// email, WhatsApp, and dashboard delivery methods.
package delivery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rgangen24/leadgen/internal/billing"
	"github.com/rgangen24/leadgen/internal/domain"
	"github.com/rgangen24/leadgen/internal/errs"
	"github.com/rgangen24/leadgen/internal/logging"
	"github.com/rgangen24/leadgen/internal/metrics"
	"github.com/rgangen24/leadgen/internal/pricing"
	"github.com/rgangen24/leadgen/internal/sender"
	"github.com/rgangen24/leadgen/internal/store"
)

// Engine evaluates and performs lead delivery. Per-client invocations
// serialize through clientLocks so cap accounting within a single
// request stays consistent, while different clients proceed in
// parallel — grounded on the teacher's per-resource locking in
// SendWorkerPool and the suppression engine's single-flight load.
type Engine struct {
	leads       store.LeadStore
	clients     store.ClientStore
	delivery    store.DeliveryStore
	billingRepo store.BillingStore
	billing     *billing.Service

	email    sender.EmailSender
	whatsapp sender.WhatsAppSender

	metrics *metrics.Registry

	clientLocks sync.Map // clientRef -> *sync.Mutex
}

// New builds a delivery Engine over the given store adapters and senders.
func New(leads store.LeadStore, clients store.ClientStore, deliveryStore store.DeliveryStore, billingRepo store.BillingStore,
	billingSvc *billing.Service, email sender.EmailSender, whatsapp sender.WhatsAppSender, reg *metrics.Registry) *Engine {
	return &Engine{
		leads:       leads,
		clients:     clients,
		delivery:    deliveryStore,
		billingRepo: billingRepo,
		billing:     billingSvc,
		email:       email,
		whatsapp:    whatsapp,
		metrics:     reg,
	}
}

func (e *Engine) lockFor(clientRef string) *sync.Mutex {
	v, _ := e.clientLocks.LoadOrStore(clientRef, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func monthWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 31)
}

// Deliver attempts delivery of candidateLeads to clientRef over method,
// returning one DeliveryOutcome per candidate in order. An unknown
// client yields an empty outcome slice without error.
func (e *Engine) Deliver(ctx context.Context, clientRef string, method domain.DeliveryMethod, candidates []*domain.QualifiedLead) ([]domain.DeliveryOutcome, error) {
	lock := e.lockFor(clientRef)
	lock.Lock()
	defer lock.Unlock()

	client, err := e.clients.Get(ctx, clientRef)
	if err != nil {
		logging.Info("delivery_skip", "reason", "client_missing", "client_ref", clientRef)
		return nil, nil
	}

	now := time.Now().UTC()
	windowStart, windowEnd := monthWindow(now)

	active, err := e.billing.IsClientActive(ctx, clientRef)
	if err != nil {
		return nil, fmt.Errorf("deliver: %w", err)
	}

	var plan *pricing.Plan
	if client.HasPlan() {
		if p, ok := pricing.BasePlans[string(client.SubscriptionPlan)]; ok {
			plan = &p
		}
	}

	trialActive, trialUsed, trialLimit, err := e.trialState(ctx, clientRef, now)
	if err != nil {
		return nil, fmt.Errorf("deliver: %w", err)
	}

	deliveredThisMonth, err := e.delivery.CountDeliveredAllMethods(ctx, clientRef, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("deliver: %w", err)
	}

	tierCounts := make(map[pricing.Tier]int)
	outcomes := make([]domain.DeliveryOutcome, 0, len(candidates))

	for _, lead := range candidates {
		outcome := e.evaluateAndSend(ctx, client, method, lead, active, plan, &trialActive, &trialUsed, trialLimit,
			windowStart, windowEnd, &deliveredThisMonth, tierCounts)
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

func (e *Engine) trialState(ctx context.Context, clientRef string, now time.Time) (active bool, used, limit int, err error) {
	trialPayment, err := e.billingRepo.TrialPayment(ctx, clientRef)
	if err != nil {
		return false, 0, 0, fmt.Errorf("trial state: %w", err)
	}
	if trialPayment == nil {
		return false, 0, 0, nil
	}
	deadline := trialPayment.PaymentDate.Add(time.Duration(pricing.TrialConfig.DaysValid) * 24 * time.Hour)
	if now.After(deadline) {
		return false, 0, 0, nil
	}
	used, err = e.delivery.CountDeliveredAllMethods(ctx, clientRef, trialPayment.PaymentDate, deadline)
	if err != nil {
		return false, 0, 0, fmt.Errorf("trial state: %w", err)
	}
	return true, used, pricing.TrialConfig.Leads, nil
}

func (e *Engine) evaluateAndSend(ctx context.Context, client *domain.BusinessClient, method domain.DeliveryMethod,
	lead *domain.QualifiedLead, active bool, plan *pricing.Plan, trialActive *bool, trialUsed *int, trialLimit int,
	windowStart, windowEnd time.Time, deliveredThisMonth *int, tierCounts map[pricing.Tier]int) domain.DeliveryOutcome {

	target := destinationFor(client, lead, method)
	if target != "" {
		optedOut, err := e.delivery.IsOptedOut(ctx, strings.ToLower(target), method)
		if err == nil && optedOut {
			return domain.DeliveryOutcome{LeadID: lead.ID, Status: domain.OutcomeSkipped, Reason: domain.ReasonOptOut}
		}
	}

	tier := pricing.TierFor(lead.Industry)
	price := pricing.LeadPricing[tier]

	if !active && !*trialActive {
		e.metrics.IncSkipInactive(client.ID, string(method), lead.Industry)
		return domain.DeliveryOutcome{LeadID: lead.ID, Status: domain.OutcomeSkipped, Reason: domain.ReasonInactive}
	}

	if plan != nil {
		if *deliveredThisMonth >= plan.LeadCap {
			e.metrics.IncSkipCap(client.ID, string(method), lead.Industry)
			return domain.DeliveryOutcome{LeadID: lead.ID, Status: domain.OutcomeSkipped, Reason: domain.ReasonCapSubscription}
		}
		price = pricing.SubscriptionPrice(lead.Industry, *plan)
	} else {
		tierCap := pricing.PayPerLeadCap[tier]
		if _, ok := tierCounts[tier]; !ok {
			n, err := e.delivery.CountDeliveredByIndustry(ctx, client.ID, lead.Industry, windowStart, windowEnd)
			if err != nil {
				return domain.DeliveryOutcome{LeadID: lead.ID, Status: domain.OutcomeFailed, Reason: err.Error()}
			}
			tierCounts[tier] = n
		}
		if tierCounts[tier] >= tierCap {
			e.metrics.IncSkipCap(client.ID, string(method), lead.Industry)
			return domain.DeliveryOutcome{LeadID: lead.ID, Status: domain.OutcomeSkipped, Reason: domain.ReasonCapPayPerLead}
		}
	}

	if *trialActive && *trialUsed < trialLimit {
		price = 0
		*trialUsed++
		e.metrics.IncTrialUsed(client.ID, string(method), lead.Industry)
	}

	if err := e.send(ctx, client, lead, method, target); err != nil {
		e.recordBounce(ctx, method, target, err)
		return domain.DeliveryOutcome{LeadID: lead.ID, Status: domain.OutcomeFailed, Reason: err.Error()}
	}

	id, existed, err := e.delivery.InsertDelivery(ctx, &domain.DeliveredLead{
		QualifiedRef:   lead.ID,
		ClientRef:      client.ID,
		DeliveredAt:    time.Now().UTC(),
		DeliveryMethod: method,
	})
	if err != nil {
		return domain.DeliveryOutcome{LeadID: lead.ID, Status: domain.OutcomeFailed, Reason: err.Error()}
	}
	_ = id

	*deliveredThisMonth++
	if plan == nil {
		tierCounts[tier]++
	}

	if existed {
		e.metrics.IncDelivered(client.ID, string(method), lead.Industry)
		return domain.DeliveryOutcome{LeadID: lead.ID, Status: domain.OutcomeDelivered, Reason: domain.ReasonIdempotencyConflict, Price: price}
	}

	e.metrics.IncDelivered(client.ID, string(method), lead.Industry)
	return domain.DeliveryOutcome{LeadID: lead.ID, Status: domain.OutcomeDelivered, Price: price}
}

func destinationFor(client *domain.BusinessClient, lead *domain.QualifiedLead, method domain.DeliveryMethod) string {
	switch method {
	case domain.MethodWhatsApp:
		if client.WhatsApp != "" {
			return client.WhatsApp
		}
		return lead.Phone
	case domain.MethodEmail:
		return client.Email
	default:
		return ""
	}
}

func (e *Engine) send(ctx context.Context, client *domain.BusinessClient, lead *domain.QualifiedLead, method domain.DeliveryMethod, target string) error {
	switch method {
	case domain.MethodEmail:
		if e.email == nil {
			return fmt.Errorf("%w: no email sender configured", errs.ErrSendRejected)
		}
		_, err := e.email.Send(ctx, &sender.EmailMessage{
			To:      target,
			Subject: "New qualified lead",
			HTMLContent: fmt.Sprintf("<p>New %s lead: %s</p>", lead.Category, lead.CompanyName),
		})
		return err
	case domain.MethodWhatsApp:
		if e.whatsapp == nil {
			return fmt.Errorf("%w: no whatsapp sender configured", errs.ErrSendRejected)
		}
		_, err := e.whatsapp.Send(ctx, &sender.WhatsAppMessage{
			To:   target,
			From: client.WhatsApp,
			Body: "New qualified lead",
		})
		return err
	case domain.MethodDashboard:
		return nil
	default:
		return fmt.Errorf("%w: unknown delivery method %q", errs.ErrSendRejected, method)
	}
}

func (e *Engine) recordBounce(ctx context.Context, method domain.DeliveryMethod, target string, cause error) {
	_ = e.delivery.InsertBounce(ctx, &domain.Bounce{
		Method:    method,
		Target:    target,
		Reason:    cause.Error(),
		CreatedAt: time.Now().UTC(),
	})
}
