package payment

import (
	"context"
	"math"

	"boostify/internal/audit"
	"boostify/internal/logger"
	"boostify/internal/metrics"

	"github.com/google/uuid"
)

// PlatformFeeRate is the flat fee split applied when escrow opens.
// The odd cent goes to the platform.
const PlatformFeeRate = 0.5

type Service interface {
	// OpenEscrow creates the escrow record for a freshly claimed order.
	OpenEscrow(ctx context.Context, orderID string, customerID, boosterID int, totalCents int64, currency, paymentIntentID string) (*Transaction, error)
	// SettleApprove releases the booster payout: captured -> transferred.
	SettleApprove(ctx context.Context, orderID string) (*Transaction, error)
	// SettleReject refunds the customer. The processor refund is
	// attempted first; the local flip proceeds even if it fails, and
	// the divergence is audited for manual reconciliation.
	SettleReject(ctx context.Context, orderID string, cardRefundCents int64) (*Transaction, error)
}

type service struct {
	repo      Repository
	processor Processor
	audit     audit.Sink
}

func NewService(repo Repository, processor Processor, sink audit.Sink) Service {
	return &service{repo: repo, processor: processor, audit: sink}
}

// SplitAmount divides a total into platform fee and booster payout.
func SplitAmount(totalCents int64) (platformFeeCents, boosterCents int64) {
	platformFeeCents = int64(math.Round(float64(totalCents) * PlatformFeeRate))
	boosterCents = totalCents - platformFeeCents
	return platformFeeCents, boosterCents
}

func (s *service) OpenEscrow(ctx context.Context, orderID string, customerID, boosterID int, totalCents int64, currency, paymentIntentID string) (*Transaction, error) {
	fee, boosterAmount := SplitAmount(totalCents)

	t := &Transaction{
		ID:               uuid.NewString(),
		OrderID:          orderID,
		CustomerID:       customerID,
		BoosterID:        boosterID,
		TotalCents:       totalCents,
		PlatformFeeCents: fee,
		BoosterCents:     boosterAmount,
		Currency:         currency,
		PaymentStatus:    StatusCaptured,
	}
	if paymentIntentID != "" {
		t.PaymentIntentID.String = paymentIntentID
		t.PaymentIntentID.Valid = true
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	metrics.EscrowOpenedCentsTotal.Add(float64(totalCents))
	s.audit.Record(audit.Event{
		Type:     audit.EventEscrowOpened,
		ActorID:  boosterID,
		OrderID:  orderID,
		EscrowID: t.ID,
	})

	return t, nil
}

func (s *service) SettleApprove(ctx context.Context, orderID string) (*Transaction, error) {
	t, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, ErrEscrowNotFound
	}

	// The escrow and order rows flip in separate statements, so a crash
	// between them leaves a transferred escrow behind an awaiting_review
	// order. An already-transferred escrow is therefore a no-op success:
	// the retry picks up where the failed approve stopped instead of
	// wedging on ErrNotCaptured.
	switch t.PaymentStatus {
	case StatusTransferred:
		return t, nil
	case StatusRefunded:
		return nil, ErrNotCaptured
	}

	if err := s.repo.MarkTransferred(ctx, t.ID); err != nil {
		return nil, err
	}

	t.PaymentStatus = StatusTransferred
	metrics.RecordSettlement("transferred")
	s.audit.Record(audit.Event{
		Type:     audit.EventEscrowSettled,
		ActorID:  t.CustomerID,
		OrderID:  orderID,
		EscrowID: t.ID,
		Message:  "transferred",
	})

	return t, nil
}

func (s *service) SettleReject(ctx context.Context, orderID string, cardRefundCents int64) (*Transaction, error) {
	t, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, ErrEscrowNotFound
	}
	// Same retry contract as SettleApprove: an escrow already refunded
	// by a partially-failed reject is a no-op success, and the refund is
	// not re-issued.
	switch t.PaymentStatus {
	case StatusRefunded:
		return t, nil
	case StatusTransferred:
		return nil, ErrNotCaptured
	}

	// The customer-visible refund state wins: a processor failure here
	// never blocks the local transition. The mismatch is audited so the
	// refund can be re-issued by hand.
	var refundID string
	if cardRefundCents > 0 && t.PaymentIntentID.Valid {
		refundID, err = s.processor.Refund(ctx, t.PaymentIntentID.String, cardRefundCents)
		if err != nil {
			logger.Error("processor refund failed",
				"order_id", orderID,
				"escrow_id", t.ID,
				"payment_intent_id", t.PaymentIntentID.String,
				"error", err,
			)
			s.audit.Record(audit.Event{
				Type:     audit.EventRefundMismatch,
				ActorID:  t.CustomerID,
				OrderID:  orderID,
				EscrowID: t.ID,
				Message:  err.Error(),
			})
		}
	}

	if err := s.repo.MarkRefunded(ctx, t.ID, refundID); err != nil {
		return nil, err
	}

	t.PaymentStatus = StatusRefunded
	if refundID != "" {
		t.RefundID.String = refundID
		t.RefundID.Valid = true
	}

	metrics.RecordSettlement("refunded")
	s.audit.Record(audit.Event{
		Type:     audit.EventEscrowSettled,
		ActorID:  t.CustomerID,
		OrderID:  orderID,
		EscrowID: t.ID,
		Message:  "refunded",
	})

	return t, nil
}
