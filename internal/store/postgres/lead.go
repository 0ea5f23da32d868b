// Package postgres implements the store interfaces against PostgreSQL,
// following the teacher's internal/repository/postgres adapter pattern:
// one file per aggregate, $N placeholders, uuid.New() for generated ids,
// errors wrapped with fmt.Errorf("op: %w", err).
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rgangen24/leadgen/internal/domain"
)

// LeadRepo implements store.LeadStore against PostgreSQL.
type LeadRepo struct{ db *sql.DB }

// NewLeadRepo creates a Postgres-backed lead repository.
func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{db: db} }

func (r *LeadRepo) InsertRaw(ctx context.Context, lead *domain.RawLead) (string, error) {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO raw_leads (id, name, company_name, email, phone, website, industry, source_ref, captured_at, raw_data_blob)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, lead.ID, lead.Name, lead.CompanyName, lead.Email, lead.Phone, lead.Website, lead.Industry, lead.SourceRef, lead.CapturedAt, lead.RawDataBlob)
	if err != nil {
		return "", fmt.Errorf("insert raw lead: %w", err)
	}
	return lead.ID, nil
}

func (r *LeadRepo) InsertValidated(ctx context.Context, lead *domain.ValidatedLead) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO validated_leads (raw_lead_id, name, company_name, phone, email, website, industry)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (raw_lead_id) DO UPDATE SET
			name = $2, company_name = $3, phone = $4, email = $5, website = $6, industry = $7
	`, lead.RawLeadID, lead.Name, lead.CompanyName, lead.Phone, lead.Email, lead.Website, lead.Industry)
	if err != nil {
		return fmt.Errorf("insert validated lead: %w", err)
	}
	return nil
}

func (r *LeadRepo) InsertQualified(ctx context.Context, lead *domain.QualifiedLead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO qualified_leads (id, raw_ref, name, company_name, phone, whatsapp, email, score, category, industry, summary, enriched_blob, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (raw_ref) DO NOTHING
	`, lead.ID, lead.RawRef, lead.Name, lead.CompanyName, lead.Phone, lead.WhatsApp, lead.Email,
		lead.Score, lead.Category, lead.Industry, lead.Summary, lead.EnrichedBlob, lead.Verified)
	if err != nil {
		return fmt.Errorf("insert qualified lead: %w", err)
	}
	return nil
}

func (r *LeadRepo) GetQualified(ctx context.Context, ref string) (*domain.QualifiedLead, error) {
	var l domain.QualifiedLead
	err := r.db.QueryRowContext(ctx, `
		SELECT id, raw_ref, name, company_name, phone, whatsapp, email, score, category, industry, summary, enriched_blob, verified
		FROM qualified_leads WHERE id = $1
	`, ref).Scan(&l.ID, &l.RawRef, &l.Name, &l.CompanyName, &l.Phone, &l.WhatsApp, &l.Email,
		&l.Score, &l.Category, &l.Industry, &l.Summary, &l.EnrichedBlob, &l.Verified)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get qualified lead %s: %w", ref, sql.ErrNoRows)
	}
	if err != nil {
		return nil, fmt.Errorf("get qualified lead: %w", err)
	}
	return &l, nil
}

func (r *LeadRepo) ListUnqualified(ctx context.Context, limit int) ([]*domain.ValidatedLead, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT v.raw_lead_id, v.name, v.company_name, v.phone, v.email, v.website, v.industry
		FROM validated_leads v
		LEFT JOIN qualified_leads q ON q.raw_ref = v.raw_lead_id
		WHERE q.id IS NULL
		ORDER BY v.raw_lead_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unqualified leads: %w", err)
	}
	defer rows.Close()

	var out []*domain.ValidatedLead
	for rows.Next() {
		var l domain.ValidatedLead
		if err := rows.Scan(&l.RawLeadID, &l.Name, &l.CompanyName, &l.Phone, &l.Email, &l.Website, &l.Industry); err != nil {
			return nil, fmt.Errorf("scan validated lead: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *LeadRepo) ListUnvalidated(ctx context.Context, limit int) ([]*domain.RawLead, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.company_name, r.email, r.phone, r.website, r.industry, r.source_ref, r.captured_at, r.raw_data_blob
		FROM raw_leads r
		LEFT JOIN validated_leads v ON v.raw_lead_id = r.id
		WHERE v.raw_lead_id IS NULL
		ORDER BY r.captured_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unvalidated leads: %w", err)
	}
	defer rows.Close()

	var out []*domain.RawLead
	for rows.Next() {
		var l domain.RawLead
		if err := rows.Scan(&l.ID, &l.Name, &l.CompanyName, &l.Email, &l.Phone, &l.Website, &l.Industry, &l.SourceRef, &l.CapturedAt, &l.RawDataBlob); err != nil {
			return nil, fmt.Errorf("scan raw lead: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *LeadRepo) UpdateEnrichment(ctx context.Context, id string, summary, enrichedBlob string, verified bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE qualified_leads SET summary = $2, enriched_blob = $3, verified = $4 WHERE id = $1
	`, id, summary, enrichedBlob, verified)
	if err != nil {
		return fmt.Errorf("update enrichment: %w", err)
	}
	return nil
}
