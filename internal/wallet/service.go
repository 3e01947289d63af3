package wallet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"boostify/internal/audit"
	"boostify/internal/metrics"
	"boostify/internal/payment"
)

// depositPurpose tags intents opened by CreateDeposit. Confirmation
// refuses intents carrying any other purpose, so a charge created for
// an order can never double as a wallet top-up.
const depositPurpose = "wallet_deposit"

var (
	ErrDepositTooSmall  = errors.New("deposit amount is below the minimum")
	ErrIntentNotSettled = errors.New("payment intent has not succeeded")
	ErrIntentNotDeposit = errors.New("payment intent was not created for a wallet deposit")
	ErrIntentWrongOwner = errors.New("payment intent does not belong to this user")
)

type Service interface {
	GetBalance(ctx context.Context, userID int) (*Balance, error)
	// CreateDeposit opens a processor charge for the amount and returns
	// the client-confirmable handle. No wallet mutation happens here.
	CreateDeposit(ctx context.Context, userID int, amountCents int64) (*DepositResponse, error)
	// ConfirmDeposit credits the wallet once the charge has succeeded.
	// Applying the same payment intent twice is a no-op success.
	ConfirmDeposit(ctx context.Context, userID int, paymentIntentID string) (*Balance, error)
	// PayFromBalance debits up to the order amount and reports how much
	// was covered; the remainder is the caller's to charge by card.
	PayFromBalance(ctx context.Context, userID int, amountCents int64, orderID string) (int64, error)
	RefundToBalance(ctx context.Context, userID int, amountCents int64, orderID string) error
	ListTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error)
}

type service struct {
	repo      Repository
	processor payment.Processor
	audit     audit.Sink
}

func NewService(repo Repository, processor payment.Processor, sink audit.Sink) Service {
	return &service{repo: repo, processor: processor, audit: sink}
}

// CashbackFor computes the deposit reward in cents.
func CashbackFor(amountCents int64) int64 {
	return int64(math.Round(float64(amountCents) * CashbackRate))
}

func (s *service) GetBalance(ctx context.Context, userID int) (*Balance, error) {
	return s.repo.GetBalance(ctx, userID)
}

func (s *service) CreateDeposit(ctx context.Context, userID int, amountCents int64) (*DepositResponse, error) {
	if amountCents < MinDepositCents {
		return nil, ErrDepositTooSmall
	}

	intent, err := s.processor.CreateIntent(ctx, amountCents, "usd",
		fmt.Sprintf("deposit-%d-%d", userID, amountCents),
		map[string]string{
			"purpose": depositPurpose,
			"user_id": strconv.Itoa(userID),
		})
	if err != nil {
		return nil, err
	}

	return &DepositResponse{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		AmountCents:     amountCents,
	}, nil
}

func (s *service) ConfirmDeposit(ctx context.Context, userID int, paymentIntentID string) (*Balance, error) {
	intent, err := s.processor.RetrieveIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != payment.IntentStatusSucceeded {
		return nil, ErrIntentNotSettled
	}
	if intent.Metadata["purpose"] != depositPurpose {
		return nil, ErrIntentNotDeposit
	}
	if intent.Metadata["user_id"] != strconv.Itoa(userID) {
		return nil, ErrIntentWrongOwner
	}

	cashback := CashbackFor(intent.AmountCents)

	err = s.repo.Deposit(ctx, userID, intent.AmountCents, cashback, paymentIntentID)
	if err != nil && !errors.Is(err, ErrDuplicateReference) {
		return nil, err
	}

	if err == nil {
		metrics.RecordDeposit()
		s.audit.Record(audit.Event{
			Type:     audit.EventLedgerEntry,
			ActorID:  userID,
			LedgerID: paymentIntentID,
			Message:  fmt.Sprintf("deposit %d + cashback %d", intent.AmountCents, cashback),
		})
	}

	return s.repo.GetBalance(ctx, userID)
}

func (s *service) PayFromBalance(ctx context.Context, userID int, amountCents int64, orderID string) (int64, error) {
	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		return 0, err
	}

	toUse := balance.BalanceCents
	if toUse > amountCents {
		toUse = amountCents
	}
	if toUse <= 0 {
		return 0, nil
	}

	if err := s.repo.PayFromBalance(ctx, userID, toUse, orderID); err != nil {
		// Lost a race with another spend from the same wallet; report
		// zero covered rather than failing the checkout.
		if errors.Is(err, ErrInsufficientBalance) {
			return 0, nil
		}
		return 0, err
	}

	s.audit.Record(audit.Event{
		Type:    audit.EventLedgerEntry,
		ActorID: userID,
		OrderID: orderID,
		Message: fmt.Sprintf("payment -%d from balance", toUse),
	})

	return toUse, nil
}

func (s *service) RefundToBalance(ctx context.Context, userID int, amountCents int64, orderID string) error {
	if amountCents <= 0 {
		return nil
	}

	if err := s.repo.RefundToBalance(ctx, userID, amountCents, orderID); err != nil {
		if errors.Is(err, ErrDuplicateReference) {
			return nil
		}
		return err
	}

	s.audit.Record(audit.Event{
		Type:    audit.EventLedgerEntry,
		ActorID: userID,
		OrderID: orderID,
		Message: fmt.Sprintf("refund +%d to balance", amountCents),
	})

	return nil
}

func (s *service) ListTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}
