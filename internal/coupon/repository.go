package coupon

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	query := `
		SELECT id, code, discount_type, discount_value, max_discount_cents,
		       min_amount_cents, valid_from, valid_until, usage_limit, usage_count,
		       active, created_at
		FROM coupons
		WHERE code = $1
	`

	var c Coupon
	err := r.db.GetContext(ctx, &c, query, code)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *repository) Create(ctx context.Context, req CreateCouponRequest) (*Coupon, error) {
	query := `
		INSERT INTO coupons (id, code, discount_type, discount_value, max_discount_cents,
		                     min_amount_cents, valid_from, valid_until, usage_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, code, discount_type, discount_value, max_discount_cents,
		          min_amount_cents, valid_from, valid_until, usage_limit, usage_count,
		          active, created_at
	`

	var c Coupon
	err := r.db.GetContext(ctx, &c, query,
		uuid.NewString(), req.Code, req.DiscountType, req.DiscountValue,
		req.MaxDiscountCents, req.MinAmountCents, req.ValidFrom, req.ValidUntil, req.UsageLimit,
	)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// RecordUsage writes the usage row and bumps the counter in one
// transaction so the usage cap cannot be overrun by a lost update.
func (r *repository) RecordUsage(ctx context.Context, couponID, orderID string, userID int, discountCents int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO coupon_usages (id, coupon_id, order_id, user_id, discount_cents)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), couponID, orderID, userID, discountCents,
	)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE coupons
		 SET usage_count = usage_count + 1
		 WHERE id = $1 AND (usage_limit IS NULL OR usage_count < usage_limit)`,
		couponID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrUsageLimitReached
	}

	return tx.Commit()
}

// ReleaseUsage undoes RecordUsage for an order whose checkout did not
// go through. No usage row for the order means nothing to undo.
func (r *repository) ReleaseUsage(ctx context.Context, orderID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var couponID string
	err = tx.QueryRowxContext(ctx,
		`DELETE FROM coupon_usages WHERE order_id = $1 RETURNING coupon_id`,
		orderID,
	).Scan(&couponID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE coupons SET usage_count = usage_count - 1 WHERE id = $1`,
		couponID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}
