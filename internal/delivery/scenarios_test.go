package delivery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rgangen24/leadgen/internal/billing"
	"github.com/rgangen24/leadgen/internal/domain"
)

func makeCandidates(clientRef, industry string, n int, offset int) []*domain.QualifiedLead {
	out := make([]*domain.QualifiedLead, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("lead-%d", offset+i)
		out = append(out, &domain.QualifiedLead{
			ID:          id,
			RawRef:      "raw-" + id,
			CompanyName: fmt.Sprintf("Company %d", offset+i),
			Phone:       fmt.Sprintf("+1555000%04d", offset+i),
			Email:       fmt.Sprintf("lead%d@example.com", offset+i),
			Score:       90,
			Category:    domain.CategoryHot,
			Industry:    industry,
		})
	}
	return out
}

func countOutcomes(outcomes []domain.DeliveryOutcome, status domain.OutcomeStatus, reason string) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == status && (reason == "" || o.Reason == reason) {
			n++
		}
	}
	return n
}

func registerIndustry(ds *fakeDeliveryStore, leads []*domain.QualifiedLead) {
	for _, l := range leads {
		ds.leadIndustry[l.ID] = l.Industry
	}
}

// Scenario 1: starter plan, industry=restaurants, 600 hot leads, whatsapp
// then email delivery. Total delivered must be 50 (the starter cap);
// the remaining 550 outcomes carry cap_reached_subscription.
func TestScenario1_StarterPlanSubscriptionCap(t *testing.T) {
	ctx := context.Background()
	future := time.Now().UTC().AddDate(0, 1, 0)
	client := &domain.BusinessClient{
		ID:               "client-1",
		SubscriptionPlan: domain.PlanStarter,
		Email:            "owner@restaurant.test",
		WhatsApp:         "+15550001111",
		NextBillingDate:  &future,
	}
	clients := newFakeClientStore(client)
	deliveries := newFakeDeliveryStore()
	billingStore := newFakeBillingStore()
	billingSvc := billing.NewService(clients, billingStore)
	mustInsertPayment(t, ctx, billingStore, client.ID, "starter", 49, time.Now().UTC(), domain.PaymentPaid)
	emailS := &fakeEmailSender{}
	waS := &fakeWhatsAppSender{}

	engine := New(nil, clients, deliveries, billingStore, billingSvc, emailS, waS, nil)

	all := makeCandidates(client.ID, "restaurants", 600, 0)
	registerIndustry(deliveries, all)

	waOutcomes, err := engine.Deliver(ctx, client.ID, domain.MethodWhatsApp, all[:300])
	if err != nil {
		t.Fatalf("whatsapp deliver: %v", err)
	}
	emailOutcomes, err := engine.Deliver(ctx, client.ID, domain.MethodEmail, all[300:])
	if err != nil {
		t.Fatalf("email deliver: %v", err)
	}

	allOutcomes := append(waOutcomes, emailOutcomes...)
	delivered := countOutcomes(allOutcomes, domain.OutcomeDelivered, "")
	capped := countOutcomes(allOutcomes, domain.OutcomeSkipped, domain.ReasonCapSubscription)

	if delivered != 50 {
		t.Errorf("delivered = %d, want 50", delivered)
	}
	if capped != 550 {
		t.Errorf("cap_reached_subscription count = %d, want 550", capped)
	}
}

// Scenario 2: pay-per-lead, industry=fitness (mid tier, cap 100), 300
// leads split whatsapp then email. Delivered across both channels totals
// 100; the remainder carries cap_reached_ppl.
func TestScenario2_PayPerLeadIndustryCap(t *testing.T) {
	ctx := context.Background()
	client := &domain.BusinessClient{
		ID:       "client-2",
		Email:    "owner@fitness.test",
		WhatsApp: "+15550002222",
	}
	clients := newFakeClientStore(client)
	deliveries := newFakeDeliveryStore()
	billingStore := newFakeBillingStore()
	billingSvc := billing.NewService(clients, billingStore)
	// pay-per-lead clients must have at least one settled payment to be active.
	mustInsertPayment(t, ctx, billingStore, client.ID, "fitness", 45, time.Now().UTC().AddDate(0, 0, -1), domain.PaymentPaid)

	emailS := &fakeEmailSender{}
	waS := &fakeWhatsAppSender{}
	engine := New(nil, clients, deliveries, billingStore, billingSvc, emailS, waS, nil)

	all := makeCandidates(client.ID, "fitness", 300, 0)
	registerIndustry(deliveries, all)

	waOutcomes, err := engine.Deliver(ctx, client.ID, domain.MethodWhatsApp, all[:150])
	if err != nil {
		t.Fatalf("whatsapp deliver: %v", err)
	}
	emailOutcomes, err := engine.Deliver(ctx, client.ID, domain.MethodEmail, all[150:])
	if err != nil {
		t.Fatalf("email deliver: %v", err)
	}

	combined := append(waOutcomes, emailOutcomes...)
	delivered := countOutcomes(combined, domain.OutcomeDelivered, "")
	capped := countOutcomes(combined, domain.OutcomeSkipped, domain.ReasonCapPayPerLead)

	if delivered != 100 {
		t.Errorf("delivered = %d, want 100", delivered)
	}
	if capped != 200 {
		t.Errorf("cap_reached_ppl count = %d, want 200", capped)
	}
}

// Scenario 3: a client with no plan and no payments. All 10 leads are
// skipped as inactive.
func TestScenario3_InactiveClientNoPayments(t *testing.T) {
	ctx := context.Background()
	client := &domain.BusinessClient{
		ID:    "client-3",
		Email: "owner@noplan.test",
	}
	clients := newFakeClientStore(client)
	deliveries := newFakeDeliveryStore()
	billingStore := newFakeBillingStore()
	billingSvc := billing.NewService(clients, billingStore)
	emailS := &fakeEmailSender{}
	waS := &fakeWhatsAppSender{}

	engine := New(nil, clients, deliveries, billingStore, billingSvc, emailS, waS, nil)

	leads := makeCandidates(client.ID, "consulting", 10, 0)
	registerIndustry(deliveries, leads)

	outcomes, err := engine.Deliver(ctx, client.ID, domain.MethodEmail, leads)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	skipped := countOutcomes(outcomes, domain.OutcomeSkipped, domain.ReasonInactive)
	if skipped != 10 {
		t.Errorf("skipped/inactive count = %d, want 10", skipped)
	}
	if emailS.sent != 0 {
		t.Errorf("expected no sends, got %d", emailS.sent)
	}
}

// Scenario 4: a trial payment recorded today (TrialConfig.Leads = 10),
// industry=real_estate, 15 leads. The first 10 deliver at price 0; the
// next 5 go through pay-per-lead pricing subject to its (much higher) cap.
func TestScenario4_TrialThenPayPerLead(t *testing.T) {
	ctx := context.Background()
	client := &domain.BusinessClient{
		ID:    "client-4",
		Email: "owner@realestate.test",
	}
	clients := newFakeClientStore(client)
	deliveries := newFakeDeliveryStore()
	billingStore := newFakeBillingStore()
	billingSvc := billing.NewService(clients, billingStore)
	mustInsertPayment(t, ctx, billingStore, client.ID, "trial", 49, time.Now().UTC(), domain.PaymentPaid)

	emailS := &fakeEmailSender{}
	waS := &fakeWhatsAppSender{}
	engine := New(nil, clients, deliveries, billingStore, billingSvc, emailS, waS, nil)

	leads := makeCandidates(client.ID, "real_estate", 15, 0)
	registerIndustry(deliveries, leads)

	outcomes, err := engine.Deliver(ctx, client.ID, domain.MethodEmail, leads)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(outcomes) != 15 {
		t.Fatalf("got %d outcomes, want 15", len(outcomes))
	}

	free := 0
	paid := 0
	for _, o := range outcomes {
		if o.Status != domain.OutcomeDelivered {
			t.Fatalf("unexpected non-delivered outcome: %+v", o)
		}
		if o.Price == 0 {
			free++
		} else {
			paid++
		}
	}
	if free != 10 {
		t.Errorf("free (trial) deliveries = %d, want 10", free)
	}
	if paid != 5 {
		t.Errorf("paid (pay-per-lead) deliveries = %d, want 5", paid)
	}
}

// Scenario 5: a pro plan client whose NextBillingDate lapsed well past the
// grace period. Despite still holding a plan, every candidate must be
// skipped as inactive rather than consuming subscription cap.
func TestScenario5_PlanHolderPastGracePeriodIsInactive(t *testing.T) {
	ctx := context.Background()
	longExpired := time.Now().UTC().AddDate(0, -2, 0)
	client := &domain.BusinessClient{
		ID:               "client-5",
		SubscriptionPlan: domain.PlanPro,
		Email:            "owner@lapsed.test",
		NextBillingDate:  &longExpired,
	}
	clients := newFakeClientStore(client)
	deliveries := newFakeDeliveryStore()
	billingStore := newFakeBillingStore()
	billingSvc := billing.NewService(clients, billingStore)
	mustInsertPayment(t, ctx, billingStore, client.ID, "pro", 999, longExpired, domain.PaymentPaid)

	emailS := &fakeEmailSender{}
	waS := &fakeWhatsAppSender{}
	engine := New(nil, clients, deliveries, billingStore, billingSvc, emailS, waS, nil)

	leads := makeCandidates(client.ID, "law", 5, 0)
	registerIndustry(deliveries, leads)

	outcomes, err := engine.Deliver(ctx, client.ID, domain.MethodEmail, leads)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	skipped := countOutcomes(outcomes, domain.OutcomeSkipped, domain.ReasonInactive)
	if skipped != 5 {
		t.Errorf("skipped/inactive count = %d, want 5", skipped)
	}
	if emailS.sent != 0 {
		t.Errorf("expected no sends for a lapsed plan holder, got %d", emailS.sent)
	}
}

func mustInsertPayment(t *testing.T, ctx context.Context, store *fakeBillingStore, clientRef, planName string, amount float64, date time.Time, status domain.PaymentStatus) {
	t.Helper()
	if err := store.InsertPayment(ctx, &domain.Payment{
		ClientRef:     clientRef,
		PlanName:      planName,
		Amount:        amount,
		PaymentDate:   date,
		PaymentStatus: status,
	}); err != nil {
		t.Fatalf("insert payment: %v", err)
	}
}
