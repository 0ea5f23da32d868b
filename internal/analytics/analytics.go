// Package analytics computes funnel conversion ratios over the pipeline's
// stored leads by loading each stage's rows and reducing them in Go,
// mirroring the teacher's suppression Service.GetStats shape rather than
// one large SQL aggregate per ratio.
package analytics

import (
	"context"
	"strings"

	"github.com/rgangen24/leadgen/internal/domain"
	"github.com/rgangen24/leadgen/internal/store"
)

// Service computes funnel conversion rates on demand.
type Service struct {
	store store.AnalyticsStore
}

// NewService builds a Service backed by store.
func NewService(s store.AnalyticsStore) *Service {
	return &Service{store: s}
}

// Rate pairs a numerator/denominator pair with their ratio, 0.0 when the
// denominator is zero.
type Rate struct {
	Numerator   int     `json:"numerator"`
	Denominator int     `json:"denominator"`
	Value       float64 `json:"value"`
}

func rate(numerator, denominator int) Rate {
	var v float64
	if denominator > 0 {
		v = float64(numerator) / float64(denominator)
	}
	return Rate{Numerator: numerator, Denominator: denominator, Value: v}
}

// sourcePlatforms resolves a LeadSource ID to its platform_type.
func (s *Service) sourcePlatforms(ctx context.Context) (map[string]string, error) {
	sources, err := s.store.ListLeadSources(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(sources))
	for _, src := range sources {
		out[src.ID] = src.PlatformType
	}
	return out, nil
}

// LeadToQualifiedRate returns, per platform_type, the fraction of raw
// leads captured from that platform that went on to become a
// QualifiedLead.
func (s *Service) LeadToQualifiedRate(ctx context.Context) (map[string]Rate, error) {
	platformOf, err := s.sourcePlatforms(ctx)
	if err != nil {
		return nil, err
	}
	rawLeads, err := s.store.ListRawLeads(ctx)
	if err != nil {
		return nil, err
	}
	qualified, err := s.store.ListQualifiedLeads(ctx)
	if err != nil {
		return nil, err
	}

	rawByPlatform := make(map[string]int)
	rawPlatformByID := make(map[string]string, len(rawLeads))
	for _, l := range rawLeads {
		pf := platformOf[l.SourceRef]
		rawByPlatform[pf]++
		rawPlatformByID[l.ID] = pf
	}

	qualByPlatform := make(map[string]int)
	for _, q := range qualified {
		qualByPlatform[rawPlatformByID[q.RawRef]]++
	}

	out := make(map[string]Rate, len(rawByPlatform))
	for pf, rawCount := range rawByPlatform {
		out[pf] = rate(qualByPlatform[pf], rawCount)
	}
	return out, nil
}

// clientPlatformKey groups a rate by (client, platform_type).
type clientPlatformKey struct {
	ClientRef    string
	PlatformType string
}

// QualifiedToDeliveredRate returns, per (client, platform_type), delivered
// count over the total qualified-lead count for that platform (the
// denominator is platform-wide, not client-scoped — clients compete for
// the same qualified pool).
func (s *Service) QualifiedToDeliveredRate(ctx context.Context) (map[clientPlatformKey]Rate, error) {
	platformOf, err := s.sourcePlatforms(ctx)
	if err != nil {
		return nil, err
	}
	rawLeads, err := s.store.ListRawLeads(ctx)
	if err != nil {
		return nil, err
	}
	qualified, err := s.store.ListQualifiedLeads(ctx)
	if err != nil {
		return nil, err
	}
	delivered, err := s.store.ListDeliveredLeads(ctx)
	if err != nil {
		return nil, err
	}

	rawPlatformByID := make(map[string]string, len(rawLeads))
	for _, l := range rawLeads {
		rawPlatformByID[l.ID] = platformOf[l.SourceRef]
	}

	qualPlatform := make(map[string]string, len(qualified)) // qualifiedRef -> platform_type
	qualByPlatform := make(map[string]int)
	for _, q := range qualified {
		pf := rawPlatformByID[q.RawRef]
		qualPlatform[q.ID] = pf
		qualByPlatform[pf]++
	}

	deliveredByKey := make(map[clientPlatformKey]int)
	for _, d := range delivered {
		key := clientPlatformKey{ClientRef: d.ClientRef, PlatformType: qualPlatform[d.QualifiedRef]}
		deliveredByKey[key]++
	}

	out := make(map[clientPlatformKey]Rate, len(deliveredByKey))
	for key, deliveredCount := range deliveredByKey {
		out[key] = rate(deliveredCount, qualByPlatform[key.PlatformType])
	}
	return out, nil
}

// DeliveryGroupKey groups open/bounce rates by (client, platform_type, method).
type DeliveryGroupKey struct {
	ClientRef    string
	PlatformType string
	Method       domain.DeliveryMethod
}

// DeliveryOutcomeRates bundles the open and bounce rate for one group,
// both computed over that group's delivered count.
type DeliveryOutcomeRates struct {
	Delivered  int
	OpenRate   Rate
	BounceRate Rate
}

// DeliveredOpenBounceRate returns, per (client, platform_type, method),
// the fraction of delivered leads that were opened and the fraction
// whose target later bounced. Bounces are matched to a group by the set
// of contact targets (email for the email method, phone for whatsapp)
// delivered within that group — a target that never appears in the group
// cannot count toward its bounce rate even if it bounced elsewhere.
func (s *Service) DeliveredOpenBounceRate(ctx context.Context) (map[DeliveryGroupKey]DeliveryOutcomeRates, error) {
	platformOf, err := s.sourcePlatforms(ctx)
	if err != nil {
		return nil, err
	}
	rawLeads, err := s.store.ListRawLeads(ctx)
	if err != nil {
		return nil, err
	}
	qualified, err := s.store.ListQualifiedLeads(ctx)
	if err != nil {
		return nil, err
	}
	delivered, err := s.store.ListDeliveredLeads(ctx)
	if err != nil {
		return nil, err
	}
	bounces, err := s.store.ListBounces(ctx)
	if err != nil {
		return nil, err
	}

	rawPlatformByID := make(map[string]string, len(rawLeads))
	for _, l := range rawLeads {
		rawPlatformByID[l.ID] = platformOf[l.SourceRef]
	}
	qualByID := make(map[string]*domain.QualifiedLead, len(qualified))
	for _, q := range qualified {
		qualByID[q.ID] = q
	}

	type target struct {
		method domain.DeliveryMethod
		value  string
	}

	deliveredCount := make(map[DeliveryGroupKey]int)
	openedCount := make(map[DeliveryGroupKey]int)
	targetsByGroup := make(map[DeliveryGroupKey]map[target]bool)

	for _, d := range delivered {
		q := qualByID[d.QualifiedRef]
		if q == nil {
			continue
		}
		key := DeliveryGroupKey{ClientRef: d.ClientRef, PlatformType: rawPlatformByID[q.RawRef], Method: d.DeliveryMethod}
		deliveredCount[key]++
		if d.Opened {
			openedCount[key]++
		}
		var t target
		switch d.DeliveryMethod {
		case domain.MethodEmail:
			if q.Email == "" {
				continue
			}
			t = target{method: domain.MethodEmail, value: strings.ToLower(q.Email)}
		case domain.MethodWhatsApp:
			if q.Phone == "" {
				continue
			}
			t = target{method: domain.MethodWhatsApp, value: strings.ToLower(q.Phone)}
		default:
			continue
		}
		if targetsByGroup[key] == nil {
			targetsByGroup[key] = make(map[target]bool)
		}
		targetsByGroup[key][t] = true
	}

	bounceCounts := make(map[target]int)
	for _, b := range bounces {
		bounceCounts[target{method: b.Method, value: strings.ToLower(b.Target)}]++
	}

	out := make(map[DeliveryGroupKey]DeliveryOutcomeRates, len(deliveredCount))
	for key, dcount := range deliveredCount {
		bounced := 0
		for t := range targetsByGroup[key] {
			bounced += bounceCounts[t]
		}
		out[key] = DeliveryOutcomeRates{
			Delivered:  dcount,
			OpenRate:   rate(openedCount[key], dcount),
			BounceRate: rate(bounced, dcount),
		}
	}
	return out, nil
}
