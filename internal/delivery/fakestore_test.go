package delivery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rgangen24/leadgen/internal/domain"
	"github.com/rgangen24/leadgen/internal/sender"
)

// fakeClientStore is an in-memory store.ClientStore for scenario tests.
type fakeClientStore struct {
	mu      sync.Mutex
	clients map[string]*domain.BusinessClient
}

func newFakeClientStore(clients ...*domain.BusinessClient) *fakeClientStore {
	s := &fakeClientStore{clients: make(map[string]*domain.BusinessClient)}
	for _, c := range clients {
		s.clients[c.ID] = c
	}
	return s
}

func (s *fakeClientStore) Get(ctx context.Context, clientRef string) (*domain.BusinessClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientRef]
	if !ok {
		return nil, fmt.Errorf("client %s not found", clientRef)
	}
	return c, nil
}

func (s *fakeClientStore) ListActive(ctx context.Context) ([]*domain.BusinessClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.BusinessClient, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeClientStore) UpdatePlan(ctx context.Context, clientRef string, plan domain.SubscriptionPlan, nextBillingDate *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientRef]
	if !ok {
		return fmt.Errorf("client %s not found", clientRef)
	}
	c.SubscriptionPlan = plan
	c.NextBillingDate = nextBillingDate
	return nil
}

func (s *fakeClientStore) UpdateNumberOfUsers(ctx context.Context, clientRef string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientRef]
	if !ok {
		return fmt.Errorf("client %s not found", clientRef)
	}
	c.NumberOfUsers = n
	return nil
}

// fakeDeliveryStore is an in-memory store.DeliveryStore. leadIndustry maps
// a QualifiedLead ID to its industry so CountDeliveredByIndustry can join
// without a real qualified_leads table.
type fakeDeliveryStore struct {
	mu           sync.Mutex
	rows         []*domain.DeliveredLead
	optOuts      map[string]bool
	bounces      []*domain.Bounce
	leadIndustry map[string]string
	leadEmail    map[string]string
	leadPhone    map[string]string
	seq          int
}

func newFakeDeliveryStore() *fakeDeliveryStore {
	return &fakeDeliveryStore{
		optOuts:      make(map[string]bool),
		leadIndustry: make(map[string]string),
		leadEmail:    make(map[string]string),
		leadPhone:    make(map[string]string),
	}
}

// registerTarget lets scenario/webhook tests associate a QualifiedLead ref
// with the email/phone a webhook event would reference.
func (s *fakeDeliveryStore) registerTarget(qualifiedRef, email, phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if email != "" {
		s.leadEmail[qualifiedRef] = strings.ToLower(email)
	}
	if phone != "" {
		s.leadPhone[qualifiedRef] = phone
	}
}

func optOutKey(method domain.DeliveryMethod, value string) string {
	return string(method) + "|" + value
}

func (s *fakeDeliveryStore) InsertDelivery(ctx context.Context, d *domain.DeliveredLead) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.QualifiedRef == d.QualifiedRef && row.ClientRef == d.ClientRef && row.DeliveryMethod == d.DeliveryMethod {
			return row.ID, true, nil
		}
	}
	s.seq++
	d.ID = fmt.Sprintf("delivered-%d", s.seq)
	s.rows = append(s.rows, d)
	return d.ID, false, nil
}

func (s *fakeDeliveryStore) CountDeliveredAllMethods(ctx context.Context, clientRef string, windowStart, windowEnd time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, row := range s.rows {
		if row.ClientRef == clientRef && !row.DeliveredAt.Before(windowStart) && row.DeliveredAt.Before(windowEnd) {
			n++
		}
	}
	return n, nil
}

func (s *fakeDeliveryStore) CountDeliveredByIndustry(ctx context.Context, clientRef string, industry string, windowStart, windowEnd time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, row := range s.rows {
		if row.ClientRef != clientRef {
			continue
		}
		if s.leadIndustry[row.QualifiedRef] != industry {
			continue
		}
		if !row.DeliveredAt.Before(windowStart) && row.DeliveredAt.Before(windowEnd) {
			n++
		}
	}
	return n, nil
}

func (s *fakeDeliveryStore) IsOptedOut(ctx context.Context, value string, method domain.DeliveryMethod) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.optOuts[optOutKey(method, value)], nil
}

func (s *fakeDeliveryStore) InsertOptOut(ctx context.Context, o *domain.OptOut) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.optOuts[optOutKey(o.Method, o.Value)] = true
	return nil
}

func (s *fakeDeliveryStore) InsertBounce(ctx context.Context, b *domain.Bounce) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounces = append(s.bounces, b)
	return nil
}

func (s *fakeDeliveryStore) MarkOpened(ctx context.Context, clientRef string, leadRef string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.ClientRef == clientRef && row.QualifiedRef == leadRef {
			row.Opened = true
		}
	}
	return nil
}

func (s *fakeDeliveryStore) MarkOpenedByTarget(ctx context.Context, method domain.DeliveryMethod, target string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target = strings.ToLower(target)
	var matchedRef string
	found := false
	index := s.leadPhone
	if method == domain.MethodEmail {
		index = s.leadEmail
	}
	for ref, v := range index {
		if v == target || strings.ToLower(v) == target {
			matchedRef = ref
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}
	updated := false
	for _, row := range s.rows {
		if row.QualifiedRef == matchedRef && row.DeliveryMethod == method {
			row.Opened = true
			updated = true
		}
	}
	return updated, nil
}

// fakeBillingStore is an in-memory store.BillingStore.
type fakeBillingStore struct {
	mu       sync.Mutex
	payments []*domain.Payment
	seq      int
}

func newFakeBillingStore() *fakeBillingStore {
	return &fakeBillingStore{}
}

func (s *fakeBillingStore) InsertPayment(ctx context.Context, p *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	p.ID = fmt.Sprintf("payment-%d", s.seq)
	s.payments = append(s.payments, p)
	return nil
}

func (s *fakeBillingStore) UpdatePaymentStatus(ctx context.Context, paymentID string, status domain.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.ID == paymentID {
			p.PaymentStatus = status
			return nil
		}
	}
	return fmt.Errorf("payment %s not found", paymentID)
}

func (s *fakeBillingStore) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.ID == paymentID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("payment %s not found", paymentID)
}

func (s *fakeBillingStore) HasSettledPayment(ctx context.Context, clientRef string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.ClientRef == clientRef && p.PaymentStatus.IsSettled() {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeBillingStore) TrialPayment(ctx context.Context, clientRef string) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.Payment
	for _, p := range s.payments {
		if p.ClientRef != clientRef || p.PlanName != "trial" || !p.PaymentStatus.IsSettled() {
			continue
		}
		if latest == nil || p.PaymentDate.After(latest.PaymentDate) {
			latest = p
		}
	}
	return latest, nil
}

func (s *fakeBillingStore) PaymentsSince(ctx context.Context, clientRef string, since time.Time) ([]*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Payment
	for _, p := range s.payments {
		if p.ClientRef == clientRef && !p.PaymentDate.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeEmailSender records every send attempt and always reports success.
type fakeEmailSender struct {
	mu   sync.Mutex
	sent int
	to   []string
}

func (f *fakeEmailSender) Send(ctx context.Context, msg *sender.EmailMessage) (*sender.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	f.to = append(f.to, msg.To)
	return &sender.SendResult{Success: true, MessageID: fmt.Sprintf("msg-%d", f.sent), SentAt: time.Now().UTC()}, nil
}

// fakeWhatsAppSender records every send attempt and always reports success.
type fakeWhatsAppSender struct {
	mu   sync.Mutex
	sent int
	to   []string
}

func (f *fakeWhatsAppSender) Send(ctx context.Context, msg *sender.WhatsAppMessage) (*sender.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	f.to = append(f.to, msg.To)
	return &sender.SendResult{Success: true, MessageID: fmt.Sprintf("wa-%d", f.sent), SentAt: time.Now().UTC()}, nil
}
