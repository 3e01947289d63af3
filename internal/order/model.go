package order

import (
	"database/sql"
	"encoding/json"
	"time"

	"boostify/internal/payment"
)

// Order lifecycle. The only legal transitions are
// pending -> processing -> awaiting_review -> completed, with the side
// exit awaiting_review -> refunded. Anything else is rejected with an
// error naming the current status.
const (
	StatusPending        = "pending"
	StatusProcessing     = "processing"
	StatusAwaitingReview = "awaiting_review"
	StatusCompleted      = "completed"
	StatusRefunded       = "refunded"
)

const (
	PaymentMethodCard    = "card"
	PaymentMethodBalance = "balance"
	PaymentMethodHybrid  = "hybrid"
)

type Order struct {
	ID                  string          `db:"id" json:"id"`
	CustomerID          int             `db:"customer_id" json:"customer_id"`
	BoosterID           sql.NullInt64   `db:"booster_id" json:"booster_id,omitempty"`
	Game                string          `db:"game" json:"game"`
	Category            string          `db:"category" json:"category"`
	AccountRef          string          `db:"account_ref" json:"account_ref"`
	CurrentRank         string          `db:"current_rank" json:"current_rank"`
	TargetRank          string          `db:"target_rank" json:"target_rank"`
	AmountCents         int64           `db:"amount_cents" json:"amount_cents"`
	Currency            string          `db:"currency" json:"currency"`
	PaymentMethod       string          `db:"payment_method" json:"payment_method"`
	BalanceUsedCents    int64           `db:"balance_used_cents" json:"balance_used_cents"`
	CouponCode          sql.NullString  `db:"coupon_code" json:"coupon_code,omitempty"`
	DiscountCents       int64           `db:"discount_cents" json:"discount_cents"`
	Addons              json.RawMessage `db:"addons" json:"addons,omitempty"`
	Status              string          `db:"status" json:"status"`
	PaymentIntentID     sql.NullString  `db:"payment_intent_id" json:"payment_intent_id,omitempty"`
	RejectionReason     sql.NullString  `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	ClaimedAt           sql.NullTime    `db:"claimed_at" json:"claimed_at,omitempty"`
	CustomerApprovedAt  sql.NullTime    `db:"customer_approved_at" json:"customer_approved_at,omitempty"`
	CustomerRejectedAt  sql.NullTime    `db:"customer_rejected_at" json:"customer_rejected_at,omitempty"`
}

type CreateOrderRequest struct {
	Game        string          `json:"game" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	AccountRef  string          `json:"account_ref"`
	CurrentRank string          `json:"current_rank" binding:"required"`
	TargetRank  string          `json:"target_rank" binding:"required"`
	AmountCents int64           `json:"amount_cents" binding:"required,gt=0"`
	Currency    string          `json:"currency" binding:"omitempty,len=3"`
	CouponCode  string          `json:"coupon_code"`
	Addons      json.RawMessage `json:"addons"`
	BoosterID   *int            `json:"booster_id"`
}

type ClaimRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

type CreateOrderResponse struct {
	Order        *Order `json:"order"`
	ClientSecret string `json:"client_secret,omitempty"`
	BalanceUsed  int64  `json:"balance_used_cents"`
}

type ClaimResponse struct {
	Order  *Order               `json:"order"`
	Escrow *payment.Transaction `json:"escrow"`
	ChatID string               `json:"chat_id,omitempty"`
}

type EarningsResponse struct {
	BoosterID       int   `json:"booster_id"`
	CompletedOrders int   `json:"completed_orders"`
	TotalCents      int64 `json:"total_cents"`
}
