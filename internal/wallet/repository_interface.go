package wallet

import "context"

type Repository interface {
	GetBalance(ctx context.Context, userID int) (*Balance, error)
	// Deposit credits the amount plus cashback as two chained ledger
	// rows. Returns ErrDuplicateReference when the payment intent was
	// already applied.
	Deposit(ctx context.Context, userID int, amountCents, cashbackCents int64, paymentIntentID string) error
	// PayFromBalance debits the amount against an order.
	PayFromBalance(ctx context.Context, userID int, amountCents int64, orderID string) error
	// RefundToBalance credits a refund entry referencing an order.
	RefundToBalance(ctx context.Context, userID int, amountCents int64, orderID string) error
	ListTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error)
}
