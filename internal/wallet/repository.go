package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateReference  = errors.New("reference already applied")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetBalance(ctx context.Context, userID int) (*Balance, error) {
	var b Balance
	err := r.db.QueryRowxContext(ctx,
		`SELECT balance_cents, cashback_cents FROM users WHERE id = $1`,
		userID,
	).Scan(&b.BalanceCents, &b.CashbackCents)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// appendEntry writes one ledger row and the matching balance update
// inside the caller's transaction. The user row must already be locked.
func appendEntry(ctx context.Context, tx *sqlx.Tx, userID int, txType string, amountCents, balanceBefore, cashbackCents int64, description, referenceID, referenceType string) (int64, error) {
	balanceAfter := balanceBefore + amountCents
	if balanceAfter < 0 {
		return 0, ErrInsufficientBalance
	}

	var refID, refType interface{}
	if referenceID != "" {
		refID = referenceID
		refType = referenceType
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO balance_transactions
		   (id, user_id, transaction_type, amount_cents, balance_before_cents,
		    balance_after_cents, cashback_cents, description, reference_id, reference_type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.NewString(), userID, txType, amountCents, balanceBefore,
		balanceAfter, cashbackCents, description, refID, refType,
	)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET balance_cents = $1 WHERE id = $2`,
		balanceAfter, userID,
	)
	if err != nil {
		return 0, err
	}

	return balanceAfter, nil
}

func lockBalance(ctx context.Context, tx *sqlx.Tx, userID int) (int64, error) {
	var balance int64
	err := tx.QueryRowxContext(ctx,
		`SELECT balance_cents FROM users WHERE id = $1 FOR UPDATE`,
		userID,
	).Scan(&balance)
	return balance, err
}

func (r *repository) Deposit(ctx context.Context, userID int, amountCents, cashbackCents int64, paymentIntentID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Idempotency guard: the check runs inside the transaction, after
	// the user row is locked, so two confirmations of the same intent
	// serialize and the second sees the first's ledger row.
	balance, err := lockBalance(ctx, tx, userID)
	if err != nil {
		return err
	}

	var exists bool
	err = tx.QueryRowxContext(ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM balance_transactions
		   WHERE reference_id = $1 AND reference_type = $2
		 )`,
		paymentIntentID, ReferenceTypePaymentIntent,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateReference
	}

	balance, err = appendEntry(ctx, tx, userID, TypeDeposit, amountCents, balance, cashbackCents,
		fmt.Sprintf("Wallet deposit of %d cents", amountCents),
		paymentIntentID, ReferenceTypePaymentIntent)
	if err != nil {
		return err
	}

	if cashbackCents > 0 {
		_, err = appendEntry(ctx, tx, userID, TypeCashback, cashbackCents, balance, 0,
			fmt.Sprintf("Cashback on deposit %s", paymentIntentID),
			paymentIntentID, ReferenceTypePaymentIntent)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET cashback_cents = cashback_cents + $1 WHERE id = $2`,
			cashbackCents, userID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *repository) PayFromBalance(ctx context.Context, userID int, amountCents int64, orderID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	balance, err := lockBalance(ctx, tx, userID)
	if err != nil {
		return err
	}

	_, err = appendEntry(ctx, tx, userID, TypePayment, -amountCents, balance, 0,
		fmt.Sprintf("Payment for order %s", orderID),
		orderID, ReferenceTypeOrder)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) RefundToBalance(ctx context.Context, userID int, amountCents int64, orderID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	balance, err := lockBalance(ctx, tx, userID)
	if err != nil {
		return err
	}

	// One refund row per order. A reject retried after a partial
	// failure must not credit the balance portion twice.
	var exists bool
	err = tx.QueryRowxContext(ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM balance_transactions
		   WHERE reference_id = $1 AND reference_type = $2 AND transaction_type = $3
		 )`,
		orderID, ReferenceTypeOrder, TypeRefund,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateReference
	}

	_, err = appendEntry(ctx, tx, userID, TypeRefund, amountCents, balance, 0,
		fmt.Sprintf("Refund for order %s", orderID),
		orderID, ReferenceTypeOrder)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) ListTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var txs []Transaction
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, user_id, transaction_type, amount_cents, balance_before_cents,
		       balance_after_cents, cashback_cents, description, reference_id,
		       reference_type, created_at
		FROM balance_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}
