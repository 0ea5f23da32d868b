package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/rgangen24/leadgen/internal/analytics"
	"github.com/rgangen24/leadgen/internal/errs"
)

// AnalyticsHandler serves the funnel ratios on demand, rather than on a
// schedule — spec calls these "computed on demand", so each request
// re-reduces the current rows instead of reading a cached snapshot.
type AnalyticsHandler struct {
	service *analytics.Service
}

// NewAnalyticsHandler builds an AnalyticsHandler over svc.
func NewAnalyticsHandler(svc *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErr(w http.ResponseWriter, kind errs.Kind) {
	writeJSON(w, errs.StatusFor(kind), map[string]string{"error": string(kind)})
}

type analyticsResponse struct {
	LeadToQualified    map[string]analytics.Rate                `json:"lead_to_qualified"`
	QualifiedDelivered map[string]analytics.Rate                `json:"qualified_to_delivered"`
	DeliveredOutcomes  map[string]analytics.DeliveryOutcomeRates `json:"delivered_outcomes"`
}

// HandleAnalytics serves GET /analytics with the three funnel ratios,
// flattening the package's composite map keys into strings for JSON.
func (h *AnalyticsHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	leadToQualified, err := h.service.LeadToQualifiedRate(ctx)
	if err != nil {
		writeErr(w, errs.KindStoreUnavailable)
		return
	}
	qualifiedDelivered, err := h.service.QualifiedToDeliveredRate(ctx)
	if err != nil {
		writeErr(w, errs.KindStoreUnavailable)
		return
	}
	deliveredOutcomes, err := h.service.DeliveredOpenBounceRate(ctx)
	if err != nil {
		writeErr(w, errs.KindStoreUnavailable)
		return
	}

	resp := analyticsResponse{
		LeadToQualified:    leadToQualified,
		QualifiedDelivered: make(map[string]analytics.Rate, len(qualifiedDelivered)),
		DeliveredOutcomes:  make(map[string]analytics.DeliveryOutcomeRates, len(deliveredOutcomes)),
	}
	for k, v := range qualifiedDelivered {
		resp.QualifiedDelivered[k.ClientRef+"|"+k.PlatformType] = v
	}
	for k, v := range deliveredOutcomes {
		resp.DeliveredOutcomes[k.ClientRef+"|"+k.PlatformType+"|"+string(k.Method)] = v
	}

	writeJSON(w, http.StatusOK, resp)
}
