// Package httpx wires the daemon's HTTP surfaces: the Prometheus scrape
// endpoint, the two provider webhooks, and a health check, following the
// teacher's chi-based router setup (internal/api/routes.go) and its
// dependency-aware HealthChecker (internal/api/health_handler.go).
package httpx

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rgangen24/leadgen/internal/webhook"
)

// NewRouter builds the top-level mux. health serves GET /healthz;
// webhookHandler serves the two provider callbacks; analyticsHandler (if
// non-nil) serves the funnel ratios at GET /analytics.
func NewRouter(health *HealthChecker, webhookHandler *webhook.Handler, analyticsHandler *AnalyticsHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization", "X-Twilio-Signature", "X-Twilio-Email-Event-Webhook-Signature", "X-Twilio-Email-Event-Webhook-Timestamp"},
	}))

	r.Get("/healthz", health.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())

	if webhookHandler != nil {
		r.Post("/webhook/sendgrid", webhookHandler.HandleSendGrid)
		r.Post("/webhook/twilio", webhookHandler.HandleTwilio)
	}
	if analyticsHandler != nil {
		r.Get("/analytics", analyticsHandler.HandleAnalytics)
	}

	return r
}
