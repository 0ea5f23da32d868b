package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rgangen24/leadgen/internal/domain"
)

// DeliveryRepo implements store.DeliveryStore against PostgreSQL.
type DeliveryRepo struct{ db *sql.DB }

// NewDeliveryRepo creates a Postgres-backed delivery repository.
func NewDeliveryRepo(db *sql.DB) *DeliveryRepo { return &DeliveryRepo{db: db} }

// InsertDelivery relies on the UNIQUE(qualified_ref, client_ref, delivery_method)
// constraint as the idempotency source of truth: a conflicting insert
// returns the existing row's id with existed=true rather than an error.
func (r *DeliveryRepo) InsertDelivery(ctx context.Context, d *domain.DeliveredLead) (string, bool, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	var id string
	var inserted bool
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO delivered_leads (id, qualified_ref, client_ref, delivered_at, delivery_method, opened)
		VALUES ($1, $2, $3, $4, $5, false)
		ON CONFLICT (qualified_ref, client_ref, delivery_method) DO UPDATE SET delivery_method = EXCLUDED.delivery_method
		RETURNING id, (xmax = 0) AS inserted
	`, d.ID, d.QualifiedRef, d.ClientRef, d.DeliveredAt, d.DeliveryMethod).Scan(&id, &inserted)
	if err != nil {
		return "", false, fmt.Errorf("insert delivery: %w", err)
	}
	return id, !inserted, nil
}

func (r *DeliveryRepo) CountDeliveredAllMethods(ctx context.Context, clientRef string, windowStart, windowEnd time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM delivered_leads
		WHERE client_ref = $1 AND delivered_at >= $2 AND delivered_at < $3
	`, clientRef, windowStart, windowEnd).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count delivered all methods: %w", err)
	}
	return n, nil
}

func (r *DeliveryRepo) CountDeliveredByIndustry(ctx context.Context, clientRef string, industry string, windowStart, windowEnd time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM delivered_leads d
		JOIN qualified_leads q ON q.id = d.qualified_ref
		WHERE d.client_ref = $1 AND q.industry = $2
		  AND d.delivered_at >= $3 AND d.delivered_at < $4
	`, clientRef, industry, windowStart, windowEnd).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count delivered by industry: %w", err)
	}
	return n, nil
}

func (r *DeliveryRepo) IsOptedOut(ctx context.Context, value string, method domain.DeliveryMethod) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM opt_outs WHERE value = $1 AND method = $2)`,
		value, method,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is opted out: %w", err)
	}
	return exists, nil
}

func (r *DeliveryRepo) InsertOptOut(ctx context.Context, o *domain.OptOut) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO opt_outs (id, method, value, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (method, value) DO NOTHING
	`, o.ID, o.Method, o.Value, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert opt out: %w", err)
	}
	return nil
}

func (r *DeliveryRepo) InsertBounce(ctx context.Context, b *domain.Bounce) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bounces (id, method, target, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, b.ID, b.Method, b.Target, b.Reason, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bounce: %w", err)
	}
	return nil
}

func (r *DeliveryRepo) MarkOpened(ctx context.Context, clientRef string, leadRef string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE delivered_leads SET opened = true
		WHERE client_ref = $1 AND qualified_ref = $2
	`, clientRef, leadRef)
	if err != nil {
		return fmt.Errorf("mark opened: %w", err)
	}
	return nil
}

// MarkOpenedByTarget mirrors the original webhook reconciliation: find the
// QualifiedLead by email or phone, then flip Opened on the DeliveredLead
// row for that lead and method.
func (r *DeliveryRepo) MarkOpenedByTarget(ctx context.Context, method domain.DeliveryMethod, target string, at time.Time) (bool, error) {
	col := "phone"
	if method == domain.MethodEmail {
		col = "email"
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE delivered_leads d SET opened = true
		FROM qualified_leads q
		WHERE d.qualified_ref = q.id
		  AND d.delivery_method = $1
		  AND lower(q.%s) = lower($2)
	`, col), method, target)
	if err != nil {
		return false, fmt.Errorf("mark opened by target: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark opened by target rows affected: %w", err)
	}
	return n > 0, nil
}
