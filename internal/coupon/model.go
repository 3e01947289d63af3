package coupon

import (
	"database/sql"
	"time"
)

type Coupon struct {
	ID               string         `db:"id" json:"id"`
	Code             string         `db:"code" json:"code"`
	DiscountType     string         `db:"discount_type" json:"discount_type"` // percentage, fixed
	DiscountValue    float64        `db:"discount_value" json:"discount_value"`
	MaxDiscountCents sql.NullInt64  `db:"max_discount_cents" json:"max_discount_cents"`
	MinAmountCents   int64          `db:"min_amount_cents" json:"min_amount_cents"`
	ValidFrom        time.Time      `db:"valid_from" json:"valid_from"`
	ValidUntil       time.Time      `db:"valid_until" json:"valid_until"`
	UsageLimit       sql.NullInt64  `db:"usage_limit" json:"usage_limit"`
	UsageCount       int64          `db:"usage_count" json:"usage_count"`
	Active           bool           `db:"active" json:"active"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

type ValidateRequest struct {
	Code        string `json:"code" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
}

// ValidateResponse is always returned with HTTP 200; a failed validation
// is a normal outcome, not a transport error.
type ValidateResponse struct {
	Valid         bool   `json:"valid"`
	DiscountCents int64  `json:"discount_cents,omitempty"`
	FinalCents    int64  `json:"final_cents,omitempty"`
	Error         string `json:"error,omitempty"`
}

type CreateCouponRequest struct {
	Code             string    `json:"code" binding:"required,min=3"`
	DiscountType     string    `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue    float64   `json:"discount_value" binding:"required,gt=0"`
	MaxDiscountCents *int64    `json:"max_discount_cents"`
	MinAmountCents   int64     `json:"min_amount_cents"`
	ValidFrom        time.Time `json:"valid_from" binding:"required"`
	ValidUntil       time.Time `json:"valid_until" binding:"required"`
	UsageLimit       *int64    `json:"usage_limit"`
}
