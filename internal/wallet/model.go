package wallet

import (
	"database/sql"
	"time"
)

// Transaction types. The ledger is append-only: rows are only ever
// inserted, and each row snapshots the balance around the mutation.
const (
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
	TypePayment    = "payment"
	TypeCashback   = "cashback"
	TypeRefund     = "refund"
)

const (
	// MinDepositCents rejects dust deposits before any processor call.
	MinDepositCents int64 = 500
	// CashbackRate is credited on every deposit as a second ledger row.
	CashbackRate = 0.025
)

const ReferenceTypePaymentIntent = "payment_intent"
const ReferenceTypeOrder = "order"

type Transaction struct {
	ID                 string         `db:"id" json:"id"`
	UserID             int            `db:"user_id" json:"user_id"`
	TransactionType    string         `db:"transaction_type" json:"transaction_type"`
	AmountCents        int64          `db:"amount_cents" json:"amount_cents"`
	BalanceBeforeCents int64          `db:"balance_before_cents" json:"balance_before_cents"`
	BalanceAfterCents  int64          `db:"balance_after_cents" json:"balance_after_cents"`
	CashbackCents      int64          `db:"cashback_cents" json:"cashback_cents"`
	Description        string         `db:"description" json:"description"`
	ReferenceID        sql.NullString `db:"reference_id" json:"reference_id,omitempty"`
	ReferenceType      sql.NullString `db:"reference_type" json:"reference_type,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
}

type Balance struct {
	BalanceCents  int64 `json:"balance_cents"`
	CashbackCents int64 `json:"cashback_cents"`
}

type DepositRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required,gt=0"`
}

type DepositResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	AmountCents     int64  `json:"amount_cents"`
}

type DepositSuccessRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}
