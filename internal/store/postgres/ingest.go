package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rgangen24/leadgen/internal/domain"
)

// IngestRepo implements store.IngestStore against PostgreSQL.
type IngestRepo struct{ db *sql.DB }

// NewIngestRepo creates a Postgres-backed ingest repository.
func NewIngestRepo(db *sql.DB) *IngestRepo { return &IngestRepo{db: db} }

// EnsureLeadSource is an idempotent upsert keyed on (source_name,
// platform_type): a cycle that runs repeatedly for the same platform
// must not accumulate duplicate LeadSource rows.
func (r *IngestRepo) EnsureLeadSource(ctx context.Context, sourceName, platformType, industry, scrapeURL string) (*domain.LeadSource, error) {
	s := &domain.LeadSource{ID: uuid.New().String(), SourceName: sourceName, Industry: industry, PlatformType: platformType, ScrapeURL: scrapeURL, Active: true}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO lead_sources (id, source_name, industry, platform_type, scrape_url, active)
		VALUES ($1, $2, $3, $4, $5, true)
		ON CONFLICT (source_name, platform_type) DO UPDATE SET active = true
		RETURNING id, source_name, industry, platform_type, scrape_url, active
	`, s.ID, sourceName, industry, platformType, scrapeURL).Scan(&s.ID, &s.SourceName, &s.Industry, &s.PlatformType, &s.ScrapeURL, &s.Active)
	if err != nil {
		return nil, fmt.Errorf("ensure lead source: %w", err)
	}
	return s, nil
}

// InsertBatch inserts every RawLead and its SourceAttribution inside one
// transaction: a failure partway through rolls back the whole cycle's
// output rather than leaving a partial batch.
func (r *IngestRepo) InsertBatch(ctx context.Context, leads []*domain.RawLead, attributions []*domain.SourceAttribution) error {
	if len(leads) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ingest batch: %w", err)
	}
	defer tx.Rollback()

	for _, lead := range leads {
		if lead.ID == "" {
			lead.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO raw_leads (id, name, company_name, email, phone, website, industry, source_ref, captured_at, raw_data_blob)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, lead.ID, lead.Name, lead.CompanyName, lead.Email, lead.Phone, lead.Website, lead.Industry, lead.SourceRef, lead.CapturedAt, lead.RawDataBlob)
		if err != nil {
			return fmt.Errorf("insert raw lead: %w", err)
		}
	}
	for _, attr := range attributions {
		if attr.ID == "" {
			attr.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO source_attributions (id, raw_ref, platform, reference_url, campaign, collected_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, attr.ID, attr.RawRef, attr.Platform, attr.ReferenceURL, attr.Campaign, attr.CollectedAt)
		if err != nil {
			return fmt.Errorf("insert source attribution: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ingest batch: %w", err)
	}
	return nil
}
