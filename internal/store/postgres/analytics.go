package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rgangen24/leadgen/internal/domain"
)

// AnalyticsRepo implements store.AnalyticsStore against PostgreSQL. Every
// method is a flat "SELECT * FROM table" — the funnel ratios themselves
// are computed in Go by internal/analytics, not in SQL.
type AnalyticsRepo struct{ db *sql.DB }

// NewAnalyticsRepo creates a Postgres-backed analytics repository.
func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

func (r *AnalyticsRepo) ListLeadSources(ctx context.Context) ([]*domain.LeadSource, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, source_name, industry, platform_type, scrape_url, active FROM lead_sources`)
	if err != nil {
		return nil, fmt.Errorf("list lead sources: %w", err)
	}
	defer rows.Close()

	var out []*domain.LeadSource
	for rows.Next() {
		s := &domain.LeadSource{}
		if err := rows.Scan(&s.ID, &s.SourceName, &s.Industry, &s.PlatformType, &s.ScrapeURL, &s.Active); err != nil {
			return nil, fmt.Errorf("scan lead source: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) ListRawLeads(ctx context.Context) ([]*domain.RawLead, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, company_name, email, phone, website, industry, source_ref, captured_at, raw_data_blob
		FROM raw_leads
	`)
	if err != nil {
		return nil, fmt.Errorf("list raw leads: %w", err)
	}
	defer rows.Close()

	var out []*domain.RawLead
	for rows.Next() {
		l := &domain.RawLead{}
		if err := rows.Scan(&l.ID, &l.Name, &l.CompanyName, &l.Email, &l.Phone, &l.Website, &l.Industry, &l.SourceRef, &l.CapturedAt, &l.RawDataBlob); err != nil {
			return nil, fmt.Errorf("scan raw lead: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) ListQualifiedLeads(ctx context.Context) ([]*domain.QualifiedLead, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, raw_ref, name, company_name, phone, whatsapp, email, score, category, industry, summary, enriched_blob, verified
		FROM qualified_leads
	`)
	if err != nil {
		return nil, fmt.Errorf("list qualified leads: %w", err)
	}
	defer rows.Close()

	var out []*domain.QualifiedLead
	for rows.Next() {
		q := &domain.QualifiedLead{}
		if err := rows.Scan(&q.ID, &q.RawRef, &q.Name, &q.CompanyName, &q.Phone, &q.WhatsApp, &q.Email, &q.Score, &q.Category, &q.Industry, &q.Summary, &q.EnrichedBlob, &q.Verified); err != nil {
			return nil, fmt.Errorf("scan qualified lead: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) ListDeliveredLeads(ctx context.Context) ([]*domain.DeliveredLead, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, qualified_ref, client_ref, delivered_at, delivery_method, opened FROM delivered_leads
	`)
	if err != nil {
		return nil, fmt.Errorf("list delivered leads: %w", err)
	}
	defer rows.Close()

	var out []*domain.DeliveredLead
	for rows.Next() {
		d := &domain.DeliveredLead{}
		if err := rows.Scan(&d.ID, &d.QualifiedRef, &d.ClientRef, &d.DeliveredAt, &d.DeliveryMethod, &d.Opened); err != nil {
			return nil, fmt.Errorf("scan delivered lead: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) ListBounces(ctx context.Context) ([]*domain.Bounce, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, method, target, reason, created_at FROM bounces`)
	if err != nil {
		return nil, fmt.Errorf("list bounces: %w", err)
	}
	defer rows.Close()

	var out []*domain.Bounce
	for rows.Next() {
		b := &domain.Bounce{}
		if err := rows.Scan(&b.ID, &b.Method, &b.Target, &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bounce: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
