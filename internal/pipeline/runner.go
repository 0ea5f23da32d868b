// Package pipeline wires the validator, qualifier, and enricher stages
// together and fans newly qualified leads out to every eligible client,
// the same ingest→qualify→deliver sequence the scheduler's cycles drive
// in the Python original's run_scraping_cycle.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rgangen24/leadgen/internal/delivery"
	"github.com/rgangen24/leadgen/internal/domain"
	"github.com/rgangen24/leadgen/internal/ingest"
	"github.com/rgangen24/leadgen/internal/logging"
	"github.com/rgangen24/leadgen/internal/pipeline/enricher"
	"github.com/rgangen24/leadgen/internal/pipeline/qualifier"
	"github.com/rgangen24/leadgen/internal/pipeline/validator"
	"github.com/rgangen24/leadgen/internal/store"
)

// batchSize caps how many unvalidated/unqualified rows one Process call
// pulls per stage, so a large backlog doesn't block a cycle indefinitely.
const batchSize = 500

// Runner drives the shared validate→qualify→enrich→deliver stages that
// follow every ingester's fetch, independent of which platform produced
// the raw leads.
type Runner struct {
	leads    store.LeadStore
	clients  store.ClientStore
	rules    store.IndustryRuleStore
	enricher enricher.Client
	engine   *delivery.Engine
}

// NewRunner builds a Runner over the given store adapters, enrichment
// HTTP client, and delivery engine.
func NewRunner(leads store.LeadStore, clients store.ClientStore, rules store.IndustryRuleStore,
	enrichClient enricher.Client, engine *delivery.Engine) *Runner {
	return &Runner{leads: leads, clients: clients, rules: rules, enricher: enrichClient, engine: engine}
}

// ruleLookup adapts store.IndustryRuleStore to qualifier.RuleLookup.
func (r *Runner) ruleLookup(ctx context.Context) qualifier.RuleLookup {
	return func(industry string) (qualifier.Config, bool) {
		rule, err := r.rules.Get(ctx, industry)
		if err != nil || rule == nil {
			return qualifier.Config{}, false
		}
		return qualifier.ParseRules(rule.ScoringRules), true
	}
}

// Cycle runs fetch followed by the shared pipeline stages, suitable for
// direct use as a scheduler.Cycle.Run closure.
func (r *Runner) Cycle(ing *ingest.Ingester) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := ing.Run(ctx)
		if err != nil {
			return fmt.Errorf("ingest cycle: %w", err)
		}
		logging.Info("pipeline_ingest_complete", "source", ing.SourceName, "inserted", n)
		return r.Process(ctx)
	}
}

// Process validates any unvalidated raw leads, qualifies any
// unqualified validated leads, enriches and persists the newly
// qualified ones, then delivers them to every eligible active client.
func (r *Runner) Process(ctx context.Context) error {
	raw, err := r.leads.ListUnvalidated(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}
	for _, v := range validator.Validate(raw) {
		if err := r.leads.InsertValidated(ctx, v); err != nil {
			return fmt.Errorf("process: %w", err)
		}
	}

	unqualified, err := r.leads.ListUnqualified(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}
	if len(unqualified) == 0 {
		return nil
	}

	qualified := qualifier.Qualify(unqualified, r.ruleLookup(ctx))
	enriched := make([]*domain.QualifiedLead, 0, len(qualified))
	for _, q := range qualified {
		if err := r.leads.InsertQualified(ctx, q); err != nil {
			return fmt.Errorf("process: %w", err)
		}
		full := enricher.Enrich(ctx, r.enricher, q)
		if err := r.leads.UpdateEnrichment(ctx, q.ID, full.Summary, full.EnrichedBlob, full.Verified); err != nil {
			return fmt.Errorf("process: %w", err)
		}
		enriched = append(enriched, full)
	}

	logging.Info("pipeline_qualify_complete", "qualified", len(enriched))
	return r.deliver(ctx, enriched)
}

// deliver fans candidates out to every active, non-deleted client whose
// industry matches and whose category is hot or warm, over both the
// email and WhatsApp channels — mirroring deliver_whatsapp/deliver_email's
// default candidate selection when no explicit qualified_ids are given.
func (r *Runner) deliver(ctx context.Context, candidates []*domain.QualifiedLead) error {
	clients, err := r.clients.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("deliver: %w", err)
	}

	for _, client := range clients {
		var eligible []*domain.QualifiedLead
		for _, lead := range candidates {
			if lead.Industry != client.Industry {
				continue
			}
			if lead.Category != domain.CategoryHot && lead.Category != domain.CategoryWarm {
				continue
			}
			eligible = append(eligible, lead)
		}
		if len(eligible) == 0 {
			continue
		}

		for _, method := range []domain.DeliveryMethod{domain.MethodEmail, domain.MethodWhatsApp} {
			outcomes, err := r.engine.Deliver(ctx, client.ID, method, eligible)
			if err != nil {
				logging.Warn("pipeline_deliver_failed", "client_ref", client.ID, "method", string(method), "error", err.Error())
				continue
			}
			logging.Info("pipeline_deliver_complete", "client_ref", client.ID, "method", string(method), "outcomes", len(outcomes))
		}
	}
	return nil
}
