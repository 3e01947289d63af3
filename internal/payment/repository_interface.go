package payment

import "context"

type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByOrderID(ctx context.Context, orderID string) (*Transaction, error)
	// MarkTransferred flips captured -> transferred. Returns
	// ErrNotCaptured when the row is not currently captured.
	MarkTransferred(ctx context.Context, escrowID string) error
	// MarkRefunded flips captured -> refunded, recording the processor
	// refund id (may be empty when the processor call failed).
	MarkRefunded(ctx context.Context, escrowID, refundID string) error
}
