package webhook

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rgangen24/leadgen/internal/config"
	"github.com/rgangen24/leadgen/internal/errs"
	"github.com/rgangen24/leadgen/internal/logging"
)

// Handler serves the two provider webhook endpoints. A failed signature
// check returns 403 before any store write, per the gate the delivery
// engine itself follows.
type Handler struct {
	cfg         config.WebhookConfig
	reconciler  *Reconciler
	sendgridPub ed25519.PublicKey
}

// NewHandler builds a Handler. A malformed base64 public key in cfg is
// tolerated — the Ed25519 path is simply skipped in favor of the bearer
// token fallback.
func NewHandler(cfg config.WebhookConfig, reconciler *Reconciler) *Handler {
	h := &Handler{cfg: cfg, reconciler: reconciler}
	if cfg.SendGridPublicKeyB64 != "" {
		if raw, err := base64.StdEncoding.DecodeString(cfg.SendGridPublicKeyB64); err == nil && len(raw) == ed25519.PublicKeySize {
			h.sendgridPub = ed25519.PublicKey(raw)
		}
	}
	return h
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErr(w http.ResponseWriter, kind errs.Kind) {
	writeJSON(w, errs.StatusFor(kind), map[string]string{"error": string(kind)})
}

// HandleSendGrid verifies X-Twilio-Email-Event-Webhook-Signature (Ed25519
// over timestamp||body) with a bearer-token fallback, then applies the
// JSON event array.
func (h *Handler) HandleSendGrid(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeErr(w, errs.KindValidationRejected)
		return
	}

	sig := r.Header.Get("X-Twilio-Email-Event-Webhook-Signature")
	ts := r.Header.Get("X-Twilio-Email-Event-Webhook-Timestamp")

	verified := false
	if h.sendgridPub != nil && sig != "" && ts != "" {
		verified = VerifySendGrid(h.sendgridPub, []byte(ts), []byte(sig), body)
	}
	if !verified && h.cfg.SendGridBearerToken != "" {
		verified = VerifyBearer(h.cfg.SendGridBearerToken, r.Header.Get("Authorization"))
	}
	if !verified {
		logging.Warn("webhook_signature_invalid", "provider", "sendgrid")
		writeErr(w, errs.KindSignatureInvalid)
		return
	}

	var events []SendGridEvent
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &events); err != nil {
			writeErr(w, errs.KindValidationRejected)
			return
		}
	}
	if err := h.reconciler.HandleSendGridEvents(r.Context(), events); err != nil {
		writeErr(w, errs.KindStoreUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleTwilio verifies X-Twilio-Signature (HMAC-SHA1 over url+sorted
// params) and applies the status callback.
func (h *Handler) HandleTwilio(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeErr(w, errs.KindValidationRejected)
		return
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		writeErr(w, errs.KindValidationRejected)
		return
	}
	params := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	requestURL := h.cfg.TwilioPublicURL
	if requestURL == "" {
		requestURL = reconstructURL(r)
	}
	sig := r.Header.Get("X-Twilio-Signature")
	if !VerifyTwilio(h.cfg.TwilioAuthToken, requestURL, params, sig) {
		logging.Warn("webhook_signature_invalid", "provider", "twilio")
		writeErr(w, errs.KindSignatureInvalid)
		return
	}

	if err := h.reconciler.HandleTwilioEvent(r.Context(), params); err != nil {
		writeErr(w, errs.KindStoreUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func reconstructURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.Path
}
