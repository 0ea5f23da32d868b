package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rgangen24/leadgen/internal/domain"
)

type fakeClientStore struct {
	clients map[string]*domain.BusinessClient
}

func newFakeClientStore(clients ...*domain.BusinessClient) *fakeClientStore {
	m := make(map[string]*domain.BusinessClient, len(clients))
	for _, c := range clients {
		m[c.ID] = c
	}
	return &fakeClientStore{clients: m}
}

func (f *fakeClientStore) Get(ctx context.Context, clientRef string) (*domain.BusinessClient, error) {
	c, ok := f.clients[clientRef]
	if !ok {
		return nil, fmt.Errorf("client %s not found", clientRef)
	}
	return c, nil
}

func (f *fakeClientStore) ListActive(ctx context.Context) ([]*domain.BusinessClient, error) {
	out := make([]*domain.BusinessClient, 0, len(f.clients))
	for _, c := range f.clients {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeClientStore) UpdatePlan(ctx context.Context, clientRef string, plan domain.SubscriptionPlan, nextBillingDate *time.Time) error {
	c, ok := f.clients[clientRef]
	if !ok {
		return fmt.Errorf("client %s not found", clientRef)
	}
	c.SubscriptionPlan = plan
	c.NextBillingDate = nextBillingDate
	return nil
}

func (f *fakeClientStore) UpdateNumberOfUsers(ctx context.Context, clientRef string, n int) error {
	c, ok := f.clients[clientRef]
	if !ok {
		return fmt.Errorf("client %s not found", clientRef)
	}
	c.NumberOfUsers = n
	return nil
}

type fakeBillingStore struct {
	payments map[string]*domain.Payment
}

func newFakeBillingStore() *fakeBillingStore {
	return &fakeBillingStore{payments: make(map[string]*domain.Payment)}
}

func (f *fakeBillingStore) InsertPayment(ctx context.Context, p *domain.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	f.payments[p.ID] = p
	return nil
}

func (f *fakeBillingStore) UpdatePaymentStatus(ctx context.Context, paymentID string, status domain.PaymentStatus) error {
	p, ok := f.payments[paymentID]
	if !ok {
		return fmt.Errorf("payment %s not found", paymentID)
	}
	p.PaymentStatus = status
	return nil
}

func (f *fakeBillingStore) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", paymentID)
	}
	return p, nil
}

func (f *fakeBillingStore) HasSettledPayment(ctx context.Context, clientRef string) (bool, error) {
	for _, p := range f.payments {
		if p.ClientRef == clientRef && p.PaymentStatus.IsSettled() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBillingStore) TrialPayment(ctx context.Context, clientRef string) (*domain.Payment, error) {
	for _, p := range f.payments {
		if p.ClientRef == clientRef && p.PlanName == "trial" {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeBillingStore) PaymentsSince(ctx context.Context, clientRef string, since time.Time) ([]*domain.Payment, error) {
	var out []*domain.Payment
	for _, p := range f.payments {
		if p.ClientRef == clientRef && !p.PaymentDate.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestRecordPayment_MissingClientIsNoop(t *testing.T) {
	svc := NewService(newFakeClientStore(), newFakeBillingStore())
	id, err := svc.RecordPayment(context.Background(), "ghost", "starter", 499, time.Time{}, domain.PaymentPaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "" {
		t.Errorf("id = %q, want empty for missing client", id)
	}
}

func TestRecordPayment_InsertsAndDefaultsDate(t *testing.T) {
	billingStore := newFakeBillingStore()
	svc := NewService(newFakeClientStore(&domain.BusinessClient{ID: "c1"}), billingStore)

	id, err := svc.RecordPayment(context.Background(), "c1", "pro", 999, time.Time{}, domain.PaymentSuccess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a payment id")
	}
	p := billingStore.payments[id]
	if p.Amount != 999 || p.PaymentStatus != domain.PaymentSuccess {
		t.Errorf("payment = %+v, unexpected fields", p)
	}
	if p.PaymentDate.IsZero() {
		t.Error("expected PaymentDate to default to now")
	}
}

func TestUpdateSubscription_SettledPaymentActivatesPlan(t *testing.T) {
	clients := newFakeClientStore(&domain.BusinessClient{ID: "c1"})
	svc := NewService(clients, newFakeBillingStore())

	users := 5
	ok, err := svc.UpdateSubscription(context.Background(), "c1", "pro", &users, domain.PaymentPaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected settled payment to activate subscription")
	}
	c := clients.clients["c1"]
	if c.SubscriptionPlan != domain.PlanPro || c.NumberOfUsers != 5 {
		t.Errorf("client = %+v, unexpected plan/users", c)
	}
	if c.NextBillingDate == nil || !c.NextBillingDate.After(time.Now()) {
		t.Error("expected NextBillingDate to be set in the future")
	}
}

func TestUpdateSubscription_FailedPaymentClearsPlan(t *testing.T) {
	clients := newFakeClientStore(&domain.BusinessClient{ID: "c1", SubscriptionPlan: domain.PlanStarter})
	svc := NewService(clients, newFakeBillingStore())

	ok, err := svc.UpdateSubscription(context.Background(), "c1", "starter", nil, domain.PaymentFailed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected failed payment not to activate subscription")
	}
	if clients.clients["c1"].SubscriptionPlan != "" {
		t.Error("expected plan to be cleared after a failed payment")
	}
}

func TestUpdateSubscription_UnknownPlanIsNoop(t *testing.T) {
	clients := newFakeClientStore(&domain.BusinessClient{ID: "c1"})
	svc := NewService(clients, newFakeBillingStore())

	ok, err := svc.UpdateSubscription(context.Background(), "c1", "nonexistent", nil, domain.PaymentPaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected unknown plan to be a no-op")
	}
}

func TestIsClientActive(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-10 * 24 * time.Hour)
	withinGrace := now.Add(-3 * 24 * time.Hour)

	tests := []struct {
		name   string
		client *domain.BusinessClient
		paid   bool
		want   bool
	}{
		{"no plan, settled payment", &domain.BusinessClient{ID: "c1"}, true, true},
		{"no plan, no settled payment", &domain.BusinessClient{ID: "c1"}, false, false},
		{"plan, no billing date", &domain.BusinessClient{ID: "c1", SubscriptionPlan: domain.PlanStarter}, true, false},
		{"plan, within grace period", &domain.BusinessClient{ID: "c1", SubscriptionPlan: domain.PlanStarter, NextBillingDate: &withinGrace}, true, true},
		{"plan, past grace period", &domain.BusinessClient{ID: "c1", SubscriptionPlan: domain.PlanStarter, NextBillingDate: &past}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			billingStore := newFakeBillingStore()
			if tt.paid {
				billingStore.payments["p1"] = &domain.Payment{ID: "p1", ClientRef: "c1", PaymentStatus: domain.PaymentPaid}
			}
			svc := NewService(newFakeClientStore(tt.client), billingStore)
			got, err := svc.IsClientActive(context.Background(), "c1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsClientActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeactivateExpiredClients(t *testing.T) {
	past := time.Now().UTC().Add(-30 * 24 * time.Hour)
	future := time.Now().UTC().Add(30 * 24 * time.Hour)
	clients := newFakeClientStore(
		&domain.BusinessClient{ID: "expired", SubscriptionPlan: domain.PlanStarter, NextBillingDate: &past},
		&domain.BusinessClient{ID: "current", SubscriptionPlan: domain.PlanPro, NextBillingDate: &future},
	)
	svc := NewService(clients, newFakeBillingStore())

	n, err := svc.DeactivateExpiredClients(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("deactivated = %d, want 1", n)
	}
	if clients.clients["expired"].SubscriptionPlan != "" {
		t.Error("expected expired client's plan to be cleared")
	}
	if clients.clients["current"].SubscriptionPlan != domain.PlanPro {
		t.Error("expected current client's plan to remain untouched")
	}
}

func TestGenerateInvoiceAndSettle(t *testing.T) {
	clients := newFakeClientStore(&domain.BusinessClient{ID: "c1", SubscriptionPlan: domain.PlanElite})
	billingStore := newFakeBillingStore()
	svc := NewService(clients, billingStore)

	id, err := svc.GenerateInvoice(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected an invoice id")
	}
	if billingStore.payments[id].PaymentStatus != domain.PaymentDue {
		t.Error("expected a due invoice")
	}

	ok, err := svc.SettleInvoice(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected invoice to settle")
	}
	if billingStore.payments[id].PaymentStatus != domain.PaymentPaid {
		t.Error("expected payment status to become paid")
	}
}

func TestGenerateInvoice_NoPlanIsNoop(t *testing.T) {
	clients := newFakeClientStore(&domain.BusinessClient{ID: "c1"})
	svc := NewService(clients, newFakeBillingStore())

	id, err := svc.GenerateInvoice(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "" {
		t.Error("expected no invoice for a client without a plan")
	}
}

func TestUpcomingBilling(t *testing.T) {
	now := time.Now().UTC()
	soon := now.Add(3 * 24 * time.Hour)
	farOut := now.Add(60 * 24 * time.Hour)
	clients := newFakeClientStore(
		&domain.BusinessClient{ID: "soon", SubscriptionPlan: domain.PlanStarter, NextBillingDate: &soon},
		&domain.BusinessClient{ID: "later", SubscriptionPlan: domain.PlanPro, NextBillingDate: &farOut},
	)
	svc := NewService(clients, newFakeBillingStore())

	due, err := svc.UpcomingBilling(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(due) != 1 || due[0].ID != "soon" {
		t.Errorf("due = %+v, want only the client billing soon", due)
	}
}
