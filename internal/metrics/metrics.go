// Package metrics exposes the delivery engine's counters as Prometheus
// metrics, scraped at GET /metrics. Adopted in place of the teacher's
// bespoke atomic-counter exposition writer — see DESIGN.md.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry wraps the delivery engine's counter families. A nil
// *Registry is safe to call methods on; they become no-ops, so tests
// can skip wiring one up.
type Registry struct {
	delivered      *prometheus.CounterVec
	skippedCap     *prometheus.CounterVec
	skippedInactive *prometheus.CounterVec
	trialUsed      *prometheus.CounterVec
}

// NewRegistry builds a Registry and registers its counters against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	labels := []string{"client_id", "method", "industry"}
	r := &Registry{
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgen_delivery_delivered_total",
			Help: "Leads successfully delivered.",
		}, labels),
		skippedCap: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgen_delivery_skipped_cap_total",
			Help: "Leads skipped because the client's delivery cap was reached.",
		}, labels),
		skippedInactive: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgen_delivery_skipped_inactive_total",
			Help: "Leads skipped because the client is not active.",
		}, labels),
		trialUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgen_delivery_trial_used_total",
			Help: "Leads delivered free of charge under a trial pack.",
		}, labels),
	}
	reg.MustRegister(r.delivered, r.skippedCap, r.skippedInactive, r.trialUsed)
	return r
}

func (r *Registry) IncDelivered(clientID, method, industry string) {
	if r == nil {
		return
	}
	r.delivered.WithLabelValues(clientID, method, industry).Inc()
}

func (r *Registry) IncSkipCap(clientID, method, industry string) {
	if r == nil {
		return
	}
	r.skippedCap.WithLabelValues(clientID, method, industry).Inc()
}

func (r *Registry) IncSkipInactive(clientID, method, industry string) {
	if r == nil {
		return
	}
	r.skippedInactive.WithLabelValues(clientID, method, industry).Inc()
}

func (r *Registry) IncTrialUsed(clientID, method, industry string) {
	if r == nil {
		return
	}
	r.trialUsed.WithLabelValues(clientID, method, industry).Inc()
}
