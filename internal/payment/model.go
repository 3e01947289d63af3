package payment

import (
	"database/sql"
	"time"
)

// Escrow statuses. A row moves from captured to exactly one of
// transferred or refunded, never backward.
const (
	StatusCaptured    = "captured"
	StatusTransferred = "transferred"
	StatusRefunded    = "refunded"
)

// Transaction is the escrow record for a claimed order: money captured
// from the customer but not yet settled to either side.
type Transaction struct {
	ID               string         `db:"id" json:"id"`
	OrderID          string         `db:"order_id" json:"order_id"`
	CustomerID       int            `db:"customer_id" json:"customer_id"`
	BoosterID        int            `db:"booster_id" json:"booster_id"`
	TotalCents       int64          `db:"total_cents" json:"total_cents"`
	PlatformFeeCents int64          `db:"platform_fee_cents" json:"platform_fee_cents"`
	BoosterCents     int64          `db:"booster_cents" json:"booster_cents"`
	Currency         string         `db:"currency" json:"currency"`
	PaymentStatus    string         `db:"payment_status" json:"payment_status"`
	PaymentIntentID  sql.NullString `db:"payment_intent_id" json:"payment_intent_id,omitempty"`
	RefundID         sql.NullString `db:"refund_id" json:"refund_id,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	TransferredAt    sql.NullTime   `db:"transferred_at" json:"transferred_at,omitempty"`
	RefundedAt       sql.NullTime   `db:"refunded_at" json:"refunded_at,omitempty"`
}
