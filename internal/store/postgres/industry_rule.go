package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rgangen24/leadgen/internal/domain"
)

// IndustryRuleRepo implements store.IndustryRuleStore against PostgreSQL.
type IndustryRuleRepo struct{ db *sql.DB }

// NewIndustryRuleRepo creates a Postgres-backed industry rule repository.
func NewIndustryRuleRepo(db *sql.DB) *IndustryRuleRepo { return &IndustryRuleRepo{db: db} }

func (r *IndustryRuleRepo) Get(ctx context.Context, industry string) (*domain.IndustryRule, error) {
	var rule domain.IndustryRule
	err := r.db.QueryRowContext(ctx, `
		SELECT id, industry, qualification_questions, scoring_rules, enrichment_notes
		FROM industry_rules WHERE industry = $1
	`, industry).Scan(&rule.ID, &rule.Industry, &rule.QualificationQuestions, &rule.ScoringRules, &rule.EnrichmentNotes)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get industry rule %s: %w", industry, sql.ErrNoRows)
	}
	if err != nil {
		return nil, fmt.Errorf("get industry rule: %w", err)
	}
	return &rule, nil
}

func (r *IndustryRuleRepo) List(ctx context.Context) ([]*domain.IndustryRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, industry, qualification_questions, scoring_rules, enrichment_notes
		FROM industry_rules ORDER BY industry
	`)
	if err != nil {
		return nil, fmt.Errorf("list industry rules: %w", err)
	}
	defer rows.Close()

	var out []*domain.IndustryRule
	for rows.Next() {
		var rule domain.IndustryRule
		if err := rows.Scan(&rule.ID, &rule.Industry, &rule.QualificationQuestions, &rule.ScoringRules, &rule.EnrichmentNotes); err != nil {
			return nil, fmt.Errorf("scan industry rule: %w", err)
		}
		out = append(out, &rule)
	}
	return out, rows.Err()
}
