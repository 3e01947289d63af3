package payment

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrEscrowNotFound = errors.New("escrow record not found")
	ErrEscrowExists   = errors.New("escrow record already exists for order")
	ErrNotCaptured    = errors.New("escrow record is not in captured state")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *Transaction) error {
	query := `
		INSERT INTO payment_transactions
		  (id, order_id, customer_id, booster_id, total_cents, platform_fee_cents,
		   booster_cents, currency, payment_status, payment_intent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		t.ID, t.OrderID, t.CustomerID, t.BoosterID, t.TotalCents, t.PlatformFeeCents,
		t.BoosterCents, t.Currency, t.PaymentStatus, t.PaymentIntentID,
	).Scan(&t.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrEscrowExists
	}

	return err
}

func (r *repository) GetByOrderID(ctx context.Context, orderID string) (*Transaction, error) {
	query := `
		SELECT id, order_id, customer_id, booster_id, total_cents, platform_fee_cents,
		       booster_cents, currency, payment_status, payment_intent_id, refund_id,
		       created_at, transferred_at, refunded_at
		FROM payment_transactions
		WHERE order_id = $1
	`

	var t Transaction
	err := r.db.GetContext(ctx, &t, query, orderID)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *repository) MarkTransferred(ctx context.Context, escrowID string) error {
	query := `
		UPDATE payment_transactions
		SET payment_status = 'transferred', transferred_at = NOW()
		WHERE id = $1 AND payment_status = 'captured'
	`

	result, err := r.db.ExecContext(ctx, query, escrowID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotCaptured
	}

	return nil
}

func (r *repository) MarkRefunded(ctx context.Context, escrowID, refundID string) error {
	query := `
		UPDATE payment_transactions
		SET payment_status = 'refunded', refunded_at = NOW(), refund_id = NULLIF($2, '')
		WHERE id = $1 AND payment_status = 'captured'
	`

	result, err := r.db.ExecContext(ctx, query, escrowID, refundID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotCaptured
	}

	return nil
}
