package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rgangen24/leadgen/internal/domain"
)

// ClientRepo implements store.ClientStore against PostgreSQL.
type ClientRepo struct{ db *sql.DB }

// NewClientRepo creates a Postgres-backed business client repository.
func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{db: db} }

func (r *ClientRepo) Get(ctx context.Context, clientRef string) (*domain.BusinessClient, error) {
	var c domain.BusinessClient
	var plan sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, business_name, industry, email, phone, whatsapp, subscription_plan,
		       number_of_users, next_billing_date, is_deleted, deleted_at
		FROM business_clients WHERE id = $1
	`, clientRef).Scan(&c.ID, &c.BusinessName, &c.Industry, &c.Email, &c.Phone, &c.WhatsApp, &plan,
		&c.NumberOfUsers, &c.NextBillingDate, &c.IsDeleted, &c.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get client %s: %w", clientRef, sql.ErrNoRows)
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	c.SubscriptionPlan = domain.SubscriptionPlan(plan.String)
	return &c, nil
}

func (r *ClientRepo) ListActive(ctx context.Context) ([]*domain.BusinessClient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, business_name, industry, email, phone, whatsapp, subscription_plan,
		       number_of_users, next_billing_date, is_deleted, deleted_at
		FROM business_clients WHERE is_deleted = false
		ORDER BY business_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list active clients: %w", err)
	}
	defer rows.Close()

	var out []*domain.BusinessClient
	for rows.Next() {
		var c domain.BusinessClient
		var plan sql.NullString
		if err := rows.Scan(&c.ID, &c.BusinessName, &c.Industry, &c.Email, &c.Phone, &c.WhatsApp, &plan,
			&c.NumberOfUsers, &c.NextBillingDate, &c.IsDeleted, &c.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		c.SubscriptionPlan = domain.SubscriptionPlan(plan.String)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *ClientRepo) UpdatePlan(ctx context.Context, clientRef string, plan domain.SubscriptionPlan, nextBillingDate *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE business_clients SET subscription_plan = $1, next_billing_date = $2 WHERE id = $3`,
		string(plan), nextBillingDate, clientRef)
	if err != nil {
		return fmt.Errorf("update client plan: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("update client plan %s: %w", clientRef, sql.ErrNoRows)
	}
	return nil
}

func (r *ClientRepo) UpdateNumberOfUsers(ctx context.Context, clientRef string, n int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE business_clients SET number_of_users = $1 WHERE id = $2`,
		n, clientRef)
	if err != nil {
		return fmt.Errorf("update number of users: %w", err)
	}
	return nil
}
