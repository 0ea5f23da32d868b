package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rgangen24/leadgen/internal/domain"
)

// BillingRepo implements store.BillingStore against PostgreSQL.
type BillingRepo struct{ db *sql.DB }

// NewBillingRepo creates a Postgres-backed billing repository.
func NewBillingRepo(db *sql.DB) *BillingRepo { return &BillingRepo{db: db} }

func (r *BillingRepo) InsertPayment(ctx context.Context, p *domain.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, client_ref, plan_name, amount, payment_date, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.ClientRef, p.PlanName, p.Amount, p.PaymentDate, p.PaymentStatus)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *BillingRepo) UpdatePaymentStatus(ctx context.Context, paymentID string, status domain.PaymentStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payments SET payment_status = $1 WHERE id = $2`,
		status, paymentID)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

func (r *BillingRepo) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.QueryRowContext(ctx, `
		SELECT id, client_ref, plan_name, amount, payment_date, payment_status
		FROM payments WHERE id = $1
	`, paymentID).Scan(&p.ID, &p.ClientRef, &p.PlanName, &p.Amount, &p.PaymentDate, &p.PaymentStatus)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get payment %s: %w", paymentID, sql.ErrNoRows)
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

func (r *BillingRepo) HasSettledPayment(ctx context.Context, clientRef string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM payments WHERE client_ref = $1 AND payment_status IN ('paid', 'success'))`,
		clientRef,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has settled payment: %w", err)
	}
	return exists, nil
}

func (r *BillingRepo) TrialPayment(ctx context.Context, clientRef string) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.QueryRowContext(ctx, `
		SELECT id, client_ref, plan_name, amount, payment_date, payment_status
		FROM payments
		WHERE client_ref = $1 AND plan_name = 'trial' AND payment_status IN ('paid', 'success')
		ORDER BY payment_date DESC LIMIT 1
	`, clientRef).Scan(&p.ID, &p.ClientRef, &p.PlanName, &p.Amount, &p.PaymentDate, &p.PaymentStatus)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("trial payment: %w", err)
	}
	return &p, nil
}

func (r *BillingRepo) PaymentsSince(ctx context.Context, clientRef string, since time.Time) ([]*domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, client_ref, plan_name, amount, payment_date, payment_status
		FROM payments WHERE client_ref = $1 AND payment_date >= $2
		ORDER BY payment_date
	`, clientRef, since)
	if err != nil {
		return nil, fmt.Errorf("payments since: %w", err)
	}
	defer rows.Close()

	var out []*domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.ClientRef, &p.PlanName, &p.Amount, &p.PaymentDate, &p.PaymentStatus); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
