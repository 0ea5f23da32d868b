package webhook

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rgangen24/leadgen/internal/domain"
)

type fakeReconcileStore struct {
	mu        sync.Mutex
	opened    []string
	optOuts   []*domain.OptOut
	bounces   []*domain.Bounce
	targetRef map[string]string // lowercase target -> qualified ref, for MarkOpenedByTarget
}

func newFakeReconcileStore() *fakeReconcileStore {
	return &fakeReconcileStore{targetRef: make(map[string]string)}
}

func (s *fakeReconcileStore) MarkOpenedByTarget(ctx context.Context, method domain.DeliveryMethod, target string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.targetRef[strings.ToLower(target)]; !ok {
		return false, nil
	}
	s.opened = append(s.opened, strings.ToLower(target))
	return true, nil
}

func (s *fakeReconcileStore) InsertOptOut(ctx context.Context, o *domain.OptOut) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.optOuts = append(s.optOuts, o)
	return nil
}

func (s *fakeReconcileStore) InsertBounce(ctx context.Context, b *domain.Bounce) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounces = append(s.bounces, b)
	return nil
}

func TestHandleSendGridEvents(t *testing.T) {
	store := newFakeReconcileStore()
	store.targetRef["lead@example.com"] = "qualified-1"
	r := NewReconciler(store)

	err := r.HandleSendGridEvents(context.Background(), []SendGridEvent{
		{Email: "Lead@Example.com", Event: "open"},
		{Email: "unknown@example.com", Event: "delivered"},
		{Email: "bounced@example.com", Event: "bounce", Reason: "mailbox full"},
		{Email: "gone@example.com", Event: "unsubscribe"},
		{Email: "", Event: "bounce"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.opened) != 1 || store.opened[0] != "lead@example.com" {
		t.Errorf("opened = %v, want [lead@example.com]", store.opened)
	}
	if len(store.bounces) != 1 || store.bounces[0].Target != "bounced@example.com" || store.bounces[0].Reason != "mailbox full" {
		t.Errorf("unexpected bounces: %+v", store.bounces)
	}
	if len(store.optOuts) != 1 || store.optOuts[0].Value != "gone@example.com" || store.optOuts[0].Method != domain.MethodEmail {
		t.Errorf("unexpected opt-outs: %+v", store.optOuts)
	}
}

func TestHandleTwilioEvent(t *testing.T) {
	t.Run("delivered strips whatsapp prefix and marks opened", func(t *testing.T) {
		store := newFakeReconcileStore()
		store.targetRef["+15551234567"] = "qualified-2"
		r := NewReconciler(store)

		err := r.HandleTwilioEvent(context.Background(), map[string]string{
			"MessageStatus": "delivered",
			"To":            "whatsapp:+15551234567",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.opened) != 1 || store.opened[0] != "+15551234567" {
			t.Errorf("opened = %v", store.opened)
		}
	})

	t.Run("failed status records a bounce", func(t *testing.T) {
		store := newFakeReconcileStore()
		r := NewReconciler(store)
		err := r.HandleTwilioEvent(context.Background(), map[string]string{
			"MessageStatus": "failed",
			"To":            "whatsapp:+15559999999",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.bounces) != 1 || store.bounces[0].Target != "+15559999999" || store.bounces[0].Method != domain.MethodWhatsApp {
			t.Errorf("unexpected bounces: %+v", store.bounces)
		}
	})

	t.Run("stopped records an opt-out", func(t *testing.T) {
		store := newFakeReconcileStore()
		r := NewReconciler(store)
		err := r.HandleTwilioEvent(context.Background(), map[string]string{
			"MessageStatus": "stopped",
			"To":            "whatsapp:+15558888888",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.optOuts) != 1 || store.optOuts[0].Value != "+15558888888" {
			t.Errorf("unexpected opt-outs: %+v", store.optOuts)
		}
	})

	t.Run("missing To is a no-op", func(t *testing.T) {
		store := newFakeReconcileStore()
		r := NewReconciler(store)
		if err := r.HandleTwilioEvent(context.Background(), map[string]string{"MessageStatus": "delivered"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.opened)+len(store.bounces)+len(store.optOuts) != 0 {
			t.Error("expected no side effects for a missing To field")
		}
	})
}
