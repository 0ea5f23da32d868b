package webhook

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rgangen24/leadgen/internal/domain"
	"github.com/rgangen24/leadgen/internal/logging"
)

// Reconciler applies verified webhook events to the delivery store. It is
// the only side-effecting piece of this package — VerifySendGrid and
// VerifyTwilio are pure and must run first.
type Reconciler struct {
	store DeliveryReconcileStore
	now   func() time.Time
}

// DeliveryReconcileStore is the subset of store.DeliveryStore the
// reconciler needs; declared locally so tests can supply a narrow fake.
type DeliveryReconcileStore interface {
	MarkOpenedByTarget(ctx context.Context, method domain.DeliveryMethod, target string, at time.Time) (bool, error)
	InsertOptOut(ctx context.Context, o *domain.OptOut) error
	InsertBounce(ctx context.Context, b *domain.Bounce) error
}

// NewReconciler builds a Reconciler against store.
func NewReconciler(store DeliveryReconcileStore) *Reconciler {
	return &Reconciler{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// SendGridEvent is one element of the SendGrid-compatible event-webhook
// JSON array.
type SendGridEvent struct {
	Email  string `json:"email"`
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

// HandleSendGridEvents applies a batch of already-signature-verified
// email events. Unknown event types are ignored; a missing email is
// skipped. Errors from individual rows are logged and do not abort the
// batch — the pipeline never halts on one bad event.
func (r *Reconciler) HandleSendGridEvents(ctx context.Context, events []SendGridEvent) error {
	for _, ev := range events {
		email := strings.ToLower(strings.TrimSpace(ev.Email))
		if email == "" {
			continue
		}
		et := strings.ToLower(ev.Event)
		switch et {
		case "delivered", "open":
			if _, err := r.store.MarkOpenedByTarget(ctx, domain.MethodEmail, email, r.now()); err != nil {
				logging.Warn("webhook_mark_opened_failed", "method", "email", "error", err.Error())
			}
		case "unsubscribe", "unsubscribed":
			if err := r.store.InsertOptOut(ctx, &domain.OptOut{ID: uuid.New().String(), Method: domain.MethodEmail, Value: email, CreatedAt: r.now()}); err != nil {
				logging.Warn("webhook_insert_optout_failed", "error", err.Error())
			}
		case "bounce":
			reason := ev.Reason
			if reason == "" {
				reason = "bounce"
			}
			if err := r.store.InsertBounce(ctx, &domain.Bounce{ID: uuid.New().String(), Method: domain.MethodEmail, Target: email, Reason: reason, CreatedAt: r.now()}); err != nil {
				logging.Warn("webhook_insert_bounce_failed", "error", err.Error())
			}
		}
	}
	return nil
}

// HandleTwilioEvent applies one already-signature-verified WhatsApp
// status callback. params uses Twilio's form field names verbatim
// (MessageStatus, To).
func (r *Reconciler) HandleTwilioEvent(ctx context.Context, params map[string]string) error {
	status := strings.ToLower(params["MessageStatus"])
	if status == "" {
		status = strings.ToLower(params["messageStatus"])
	}
	to := strings.ToLower(params["To"])
	if to == "" {
		to = strings.ToLower(params["to"])
	}
	to = strings.TrimPrefix(to, "whatsapp:")
	if to == "" {
		return nil
	}

	switch status {
	case "delivered", "read":
		if _, err := r.store.MarkOpenedByTarget(ctx, domain.MethodWhatsApp, to, r.now()); err != nil {
			logging.Warn("webhook_mark_opened_failed", "method", "whatsapp", "error", err.Error())
		}
	case "undelivered", "failed":
		if err := r.store.InsertBounce(ctx, &domain.Bounce{ID: uuid.New().String(), Method: domain.MethodWhatsApp, Target: to, Reason: status, CreatedAt: r.now()}); err != nil {
			logging.Warn("webhook_insert_bounce_failed", "error", err.Error())
		}
	case "stopped", "optout":
		if err := r.store.InsertOptOut(ctx, &domain.OptOut{ID: uuid.New().String(), Method: domain.MethodWhatsApp, Value: to, CreatedAt: r.now()}); err != nil {
			logging.Warn("webhook_insert_optout_failed", "error", err.Error())
		}
	}
	return nil
}
