package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// SuppressionRepo implements store.SuppressionStore against PostgreSQL.
// Distinct from opt_outs: this is the global cross-client suppression
// list (hard bounces, spam complaints), keyed by raw identifier rather
// than per-client, per-method value.
type SuppressionRepo struct{ db *sql.DB }

// NewSuppressionRepo creates a Postgres-backed suppression repository.
func NewSuppressionRepo(db *sql.DB) *SuppressionRepo { return &SuppressionRepo{db: db} }

func (r *SuppressionRepo) IsSuppressed(ctx context.Context, identifier string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM suppressions WHERE identifier = $1)`,
		identifier,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is suppressed: %w", err)
	}
	return exists, nil
}

func (r *SuppressionRepo) Suppress(ctx context.Context, identifier, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO suppressions (id, identifier, reason, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (identifier) DO UPDATE SET reason = $3
	`, uuid.New().String(), identifier, reason)
	if err != nil {
		return fmt.Errorf("suppress: %w", err)
	}
	return nil
}
