package order

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const orderColumns = `
	id, customer_id, booster_id, game, category, account_ref, current_rank,
	target_rank, amount_cents, currency, payment_method, balance_used_cents,
	coupon_code, discount_cents, addons, status, payment_intent_id,
	rejection_reason, created_at, claimed_at, customer_approved_at,
	customer_rejected_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders
		  (id, customer_id, booster_id, game, category, account_ref, current_rank,
		   target_rank, amount_cents, currency, payment_method, balance_used_cents,
		   coupon_code, discount_cents, addons, status, payment_intent_id, claimed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		o.ID, o.CustomerID, o.BoosterID, o.Game, o.Category, o.AccountRef, o.CurrentRank,
		o.TargetRank, o.AmountCents, o.Currency, o.PaymentMethod, o.BalanceUsedCents,
		o.CouponCode, o.DiscountCents, o.Addons, o.Status, o.PaymentIntentID, o.ClaimedAt,
	).Scan(&o.CreatedAt)
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := r.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Claim is the one multi-writer race in the lifecycle. The predicate is
// re-applied inside the UPDATE itself, never checked with a prior read:
// exactly one concurrent caller affects the row, everyone else gets
// zero rows back.
func (r *repository) Claim(ctx context.Context, orderID string, boosterID int) (bool, error) {
	query := `
		UPDATE orders
		SET booster_id = $1, status = 'processing', claimed_at = NOW()
		WHERE id = $2 AND status = 'pending' AND booster_id IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, boosterID, orderID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

func (r *repository) MarkAwaitingReview(ctx context.Context, orderID string, boosterID int) (bool, error) {
	query := `
		UPDATE orders
		SET status = 'awaiting_review'
		WHERE id = $1 AND booster_id = $2 AND status = 'processing'
	`

	result, err := r.db.ExecContext(ctx, query, orderID, boosterID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

func (r *repository) MarkCompleted(ctx context.Context, orderID string, customerID int) (bool, error) {
	query := `
		UPDATE orders
		SET status = 'completed', customer_approved_at = NOW()
		WHERE id = $1 AND customer_id = $2 AND status = 'awaiting_review'
	`

	result, err := r.db.ExecContext(ctx, query, orderID, customerID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

func (r *repository) MarkRefunded(ctx context.Context, orderID string, customerID int, reason string) (bool, error) {
	query := `
		UPDATE orders
		SET status = 'refunded', customer_rejected_at = NOW(), rejection_reason = $3
		WHERE id = $1 AND customer_id = $2 AND status = 'awaiting_review'
	`

	result, err := r.db.ExecContext(ctx, query, orderID, customerID, reason)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID int) ([]Order, error) {
	var orders []Order
	err := r.db.SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`,
		customerID,
	)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListByBooster(ctx context.Context, boosterID int) ([]Order, error) {
	var orders []Order
	err := r.db.SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders WHERE booster_id = $1 ORDER BY created_at DESC`,
		boosterID,
	)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListAvailable(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := r.db.SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders
		 WHERE status = 'pending' AND booster_id IS NULL
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListAll(ctx context.Context, limit, offset int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}

	var orders []Order
	err := r.db.SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) Earnings(ctx context.Context, boosterID int) (*EarningsResponse, error) {
	resp := &EarningsResponse{BoosterID: boosterID}
	err := r.db.QueryRowxContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount_cents), 0)
		 FROM orders
		 WHERE booster_id = $1 AND status = 'completed'`,
		boosterID,
	).Scan(&resp.CompletedOrders, &resp.TotalCents)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
