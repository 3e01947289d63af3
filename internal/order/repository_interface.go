package order

import "context"

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// Claim atomically assigns the booster to a pending, unclaimed
	// order. Returns false when the conditional update matched nothing;
	// the caller decides between "already claimed" and "wrong state" by
	// reloading the row.
	Claim(ctx context.Context, orderID string, boosterID int) (bool, error)
	// MarkAwaitingReview flips processing -> awaiting_review for the
	// assigned booster.
	MarkAwaitingReview(ctx context.Context, orderID string, boosterID int) (bool, error)
	// MarkCompleted flips awaiting_review -> completed and stamps the
	// customer approval.
	MarkCompleted(ctx context.Context, orderID string, customerID int) (bool, error)
	// MarkRefunded flips awaiting_review -> refunded and stores the
	// rejection reason.
	MarkRefunded(ctx context.Context, orderID string, customerID int, reason string) (bool, error)
	ListByCustomer(ctx context.Context, customerID int) ([]Order, error)
	ListByBooster(ctx context.Context, boosterID int) ([]Order, error)
	ListAvailable(ctx context.Context) ([]Order, error)
	ListAll(ctx context.Context, limit, offset int) ([]Order, error)
	// Earnings sums amounts over completed orders for a booster. By
	// construction this agrees with summing transferred escrow rows,
	// since completion and transfer are the same transition.
	Earnings(ctx context.Context, boosterID int) (*EarningsResponse, error)
}
