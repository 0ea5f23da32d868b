// Package store declares the persistence interfaces the pipeline and
// delivery engine depend on. Concrete implementations live in
// internal/store/postgres; tests use hand-rolled in-memory fakes or
// sqlmock, in the teacher's repository style.
package store

import (
	"context"
	"time"

	"github.com/rgangen24/leadgen/internal/domain"
)

// LeadStore persists raw, validated, and qualified leads.
type LeadStore interface {
	InsertRaw(ctx context.Context, lead *domain.RawLead) (string, error)
	InsertValidated(ctx context.Context, lead *domain.ValidatedLead) error
	InsertQualified(ctx context.Context, lead *domain.QualifiedLead) error
	GetQualified(ctx context.Context, ref string) (*domain.QualifiedLead, error)
	ListUnqualified(ctx context.Context, limit int) ([]*domain.ValidatedLead, error)
	// ListUnvalidated returns RawLead rows that have no ValidatedLead yet.
	ListUnvalidated(ctx context.Context, limit int) ([]*domain.RawLead, error)
	// UpdateEnrichment persists the enricher's output onto an existing
	// QualifiedLead row. Enrichment is idempotent; re-running overwrites
	// prior values.
	UpdateEnrichment(ctx context.Context, id string, summary, enrichedBlob string, verified bool) error
}

// ClientStore persists business clients and their subscription state.
type ClientStore interface {
	Get(ctx context.Context, clientRef string) (*domain.BusinessClient, error)
	ListActive(ctx context.Context) ([]*domain.BusinessClient, error)
	UpdatePlan(ctx context.Context, clientRef string, plan domain.SubscriptionPlan, nextBillingDate *time.Time) error
	UpdateNumberOfUsers(ctx context.Context, clientRef string, n int) error
}

// DeliveryStore records delivered leads, opt-outs, and bounces, and
// answers the cap-counting queries the delivery engine needs.
type DeliveryStore interface {
	InsertDelivery(ctx context.Context, d *domain.DeliveredLead) (id string, existed bool, err error)
	// CountDeliveredAllMethods counts deliveries for clientRef in the
	// window across every delivery method — the subscription cap and the
	// trial-usage counter are both scoped per-client, not per-channel.
	CountDeliveredAllMethods(ctx context.Context, clientRef string, windowStart, windowEnd time.Time) (int, error)
	// CountDeliveredByIndustry counts deliveries for clientRef in the
	// window restricted to one qualified lead industry, across every
	// delivery method — mirrors CountDeliveredAllMethods' scoping.
	CountDeliveredByIndustry(ctx context.Context, clientRef string, industry string, windowStart, windowEnd time.Time) (int, error)
	IsOptedOut(ctx context.Context, value string, method domain.DeliveryMethod) (bool, error)
	InsertOptOut(ctx context.Context, o *domain.OptOut) error
	InsertBounce(ctx context.Context, b *domain.Bounce) error
	MarkOpened(ctx context.Context, clientRef string, leadRef string, at time.Time) error
	// MarkOpenedByTarget resolves target (an email address or a phone
	// number, depending on method) to its QualifiedLead and flips Opened
	// on the matching DeliveredLead row. It reports whether a row was
	// found and updated — webhook reconciliation is best-effort and a
	// miss is not an error.
	MarkOpenedByTarget(ctx context.Context, method domain.DeliveryMethod, target string, at time.Time) (bool, error)
}

// BillingStore persists payments and trial usage.
type BillingStore interface {
	InsertPayment(ctx context.Context, p *domain.Payment) error
	UpdatePaymentStatus(ctx context.Context, paymentID string, status domain.PaymentStatus) error
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	HasSettledPayment(ctx context.Context, clientRef string) (bool, error)
	TrialPayment(ctx context.Context, clientRef string) (*domain.Payment, error)
	PaymentsSince(ctx context.Context, clientRef string, since time.Time) ([]*domain.Payment, error)
}

// SuppressionStore tracks addresses/numbers excluded from delivery,
// independent of per-client opt-outs (global suppression list).
type SuppressionStore interface {
	IsSuppressed(ctx context.Context, identifier string) (bool, error)
	Suppress(ctx context.Context, identifier, reason string) error
}

// IndustryRuleStore persists the configurable qualification weights and
// thresholds per industry.
type IndustryRuleStore interface {
	Get(ctx context.Context, industry string) (*domain.IndustryRule, error)
	List(ctx context.Context) ([]*domain.IndustryRule, error)
}

// IngestStore persists a scraper's output transactionally: the RawLead
// rows and their SourceAttribution rows commit together or not at all.
type IngestStore interface {
	EnsureLeadSource(ctx context.Context, sourceName, platformType, industry, scrapeURL string) (*domain.LeadSource, error)
	InsertBatch(ctx context.Context, leads []*domain.RawLead, attributions []*domain.SourceAttribution) error
}

// AnalyticsStore exposes the raw rows the funnel aggregator reduces
// in-process, rather than one giant SQL aggregate per ratio — the same
// load-then-reduce shape the teacher's suppression stats service uses.
type AnalyticsStore interface {
	ListLeadSources(ctx context.Context) ([]*domain.LeadSource, error)
	ListRawLeads(ctx context.Context) ([]*domain.RawLead, error)
	ListQualifiedLeads(ctx context.Context) ([]*domain.QualifiedLead, error)
	ListDeliveredLeads(ctx context.Context) ([]*domain.DeliveredLead, error)
	ListBounces(ctx context.Context) ([]*domain.Bounce, error)
}
