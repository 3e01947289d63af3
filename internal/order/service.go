package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"boostify/internal/audit"
	"boostify/internal/auth"
	"boostify/internal/chat"
	"boostify/internal/coupon"
	"boostify/internal/email"
	"boostify/internal/logger"
	"boostify/internal/metrics"
	"boostify/internal/payment"
	"boostify/internal/user"
	"boostify/internal/wallet"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrAlreadyClaimed   = errors.New("order already claimed by another booster")
	ErrOwnOrder         = errors.New("cannot claim your own order")
	ErrNotOrderBooster  = errors.New("only the assigned booster can do this")
	ErrNotOrderCustomer = errors.New("only the order's customer can do this")
	// ErrEscrowMissing means an order reached settlement without an
	// escrow row. That is a data-integrity fault, not a recoverable
	// request error.
	ErrEscrowMissing = errors.New("escrow record missing for order")
)

// StateError is returned on any out-of-order transition attempt. It
// always names the order's actual current status.
type StateError struct {
	Current  string
	Expected string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("order is %s, expected %s", e.Current, e.Expected)
}

type Service interface {
	Create(ctx context.Context, customerID int, req CreateOrderRequest, useBalance bool) (*CreateOrderResponse, error)
	Claim(ctx context.Context, boosterID int, orderID string) (*ClaimResponse, error)
	Complete(ctx context.Context, boosterID int, orderID string) (*Order, error)
	Approve(ctx context.Context, customerID int, orderID string) (*Order, error)
	Reject(ctx context.Context, customerID int, orderID, reason string) (*Order, error)
	Get(ctx context.Context, userID int, orderID string) (*Order, error)
	ListMine(ctx context.Context, userID int, role string) ([]Order, error)
	ListAvailable(ctx context.Context) ([]Order, error)
	ListAll(ctx context.Context, limit, offset int) ([]Order, error)
	Earnings(ctx context.Context, boosterID int) (*EarningsResponse, error)
}

type service struct {
	repo      Repository
	payments  payment.Service
	processor payment.Processor
	wallets   wallet.Service
	coupons   coupon.Service
	chats     chat.Repository
	users     user.Repository
	emails    *email.Service
	audit     audit.Sink
}

func NewService(
	repo Repository,
	payments payment.Service,
	processor payment.Processor,
	wallets wallet.Service,
	coupons coupon.Service,
	chats chat.Repository,
	users user.Repository,
	emails *email.Service,
	sink audit.Sink,
) Service {
	return &service{
		repo:      repo,
		payments:  payments,
		processor: processor,
		wallets:   wallets,
		coupons:   coupons,
		chats:     chats,
		users:     users,
		emails:    emails,
		audit:     sink,
	}
}

func (s *service) Create(ctx context.Context, customerID int, req CreateOrderRequest, useBalance bool) (*CreateOrderResponse, error) {
	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	orderID := uuid.NewString()

	// The discount is folded into the stored amount so that booster
	// earnings (summed over orders) and escrow totals agree by
	// construction. Apply takes the usage under the coupon's cap guard
	// before anything else happens, so two at-cap checkouts racing each
	// other cannot both get the discount; every failure path below
	// hands the usage back.
	var discount int64
	if req.CouponCode != "" {
		d, err := s.coupons.Apply(ctx, req.CouponCode, req.AmountCents, orderID, customerID)
		if err != nil {
			return nil, fmt.Errorf("coupon rejected: %w", err)
		}
		discount = d
	}
	finalAmount := req.AmountCents - discount

	var balanceUsed int64
	if useBalance && finalAmount > 0 {
		used, err := s.wallets.PayFromBalance(ctx, customerID, finalAmount, orderID)
		if err != nil {
			if req.CouponCode != "" {
				s.releaseCoupon(ctx, orderID)
			}
			return nil, err
		}
		balanceUsed = used
	}

	remainder := finalAmount - balanceUsed

	var clientSecret string
	var intentID sql.NullString
	if remainder > 0 {
		intent, err := s.processor.CreateIntent(ctx, remainder, currency, "order-"+orderID, map[string]string{
			"purpose":  "order_payment",
			"order_id": orderID,
		})
		if err != nil {
			// The wallet debit already happened; put it back before
			// failing the checkout.
			if balanceUsed > 0 {
				if refundErr := s.wallets.RefundToBalance(ctx, customerID, balanceUsed, orderID); refundErr != nil {
					logger.Error("failed to restore balance after intent failure",
						"order_id", orderID, "user_id", customerID, "error", refundErr)
				}
			}
			if req.CouponCode != "" {
				s.releaseCoupon(ctx, orderID)
			}
			return nil, err
		}
		clientSecret = intent.ClientSecret
		intentID = sql.NullString{String: intent.ID, Valid: true}
	}

	paymentMethod := PaymentMethodCard
	if balanceUsed > 0 {
		if remainder == 0 {
			paymentMethod = PaymentMethodBalance
		} else {
			paymentMethod = PaymentMethodHybrid
		}
	}

	o := &Order{
		ID:               orderID,
		CustomerID:       customerID,
		Game:             req.Game,
		Category:         req.Category,
		AccountRef:       req.AccountRef,
		CurrentRank:      req.CurrentRank,
		TargetRank:       req.TargetRank,
		AmountCents:      finalAmount,
		Currency:         currency,
		PaymentMethod:    paymentMethod,
		BalanceUsedCents: balanceUsed,
		DiscountCents:    discount,
		Addons:           req.Addons,
		Status:           StatusPending,
		PaymentIntentID:  intentID,
	}
	if req.CouponCode != "" {
		o.CouponCode = sql.NullString{String: coupon.NormalizeCode(req.CouponCode), Valid: true}
	}
	if req.BoosterID != nil {
		o.BoosterID = sql.NullInt64{Int64: int64(*req.BoosterID), Valid: true}
		o.Status = StatusProcessing
		o.ClaimedAt = sql.NullTime{Time: time.Now(), Valid: true}
	}

	if err := s.repo.Create(ctx, o); err != nil {
		if req.CouponCode != "" {
			s.releaseCoupon(ctx, orderID)
		}
		return nil, err
	}

	if o.BoosterID.Valid {
		if _, _, err := s.openEscrowAndChat(ctx, o, int(o.BoosterID.Int64)); err != nil {
			return nil, err
		}
	}

	metrics.RecordOrderCreated(paymentMethod)
	s.audit.Record(audit.Event{
		Type:    audit.EventOrderCreated,
		ActorID: customerID,
		OrderID: orderID,
		Message: fmt.Sprintf("%s %d cents, balance used %d", paymentMethod, finalAmount, balanceUsed),
	})

	return &CreateOrderResponse{
		Order:        o,
		ClientSecret: clientSecret,
		BalanceUsed:  balanceUsed,
	}, nil
}

// releaseCoupon hands a taken coupon usage back when the checkout it
// was taken for fails. Best effort: the usage over-count a failed
// release leaves behind only makes the coupon stingier, never looser.
func (s *service) releaseCoupon(ctx context.Context, orderID string) {
	if err := s.coupons.Release(ctx, orderID); err != nil {
		logger.Error("failed to release coupon usage", "order_id", orderID, "error", err)
	}
}

func (s *service) openEscrowAndChat(ctx context.Context, o *Order, boosterID int) (*payment.Transaction, string, error) {
	intentID := ""
	if o.PaymentIntentID.Valid {
		intentID = o.PaymentIntentID.String
	}

	escrow, err := s.payments.OpenEscrow(ctx, o.ID, o.CustomerID, boosterID, o.AmountCents, o.Currency, intentID)
	if err != nil {
		return nil, "", err
	}

	ch, err := s.chats.GetOrCreate(ctx, o.CustomerID, boosterID, o.ID)
	if err != nil {
		logger.Error("failed to create order chat", "order_id", o.ID, "error", err)
		return escrow, "", nil
	}

	boosterName := fmt.Sprintf("Booster #%d", boosterID)
	if b, err := s.users.FindByID(ctx, boosterID); err == nil {
		boosterName = b.Name
	}

	if _, err := s.chats.PostSystemMessage(ctx, ch.ID,
		fmt.Sprintf("%s has taken this order. %s → %s, %s.", boosterName, o.CurrentRank, o.TargetRank, o.Game),
	); err != nil {
		logger.Error("failed to post claim system message", "chat_id", ch.ID, "error", err)
	}

	if cust, err := s.users.FindByID(ctx, o.CustomerID); err == nil && s.emails != nil {
		if err := s.emails.SendOrderClaimed(ctx, cust.Email, cust.Name, o.Game, boosterName); err != nil {
			logger.Error("failed to queue claim email", "order_id", o.ID, "error", err)
		}
	}

	return escrow, ch.ID, nil
}

func (s *service) Claim(ctx context.Context, boosterID int, orderID string) (*ClaimResponse, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	if o.CustomerID == boosterID {
		return nil, ErrOwnOrder
	}

	claimed, err := s.repo.Claim(ctx, orderID, boosterID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		metrics.RecordClaim("conflict")
		current, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return nil, ErrOrderNotFound
		}
		if current.BoosterID.Valid {
			return nil, ErrAlreadyClaimed
		}
		return nil, &StateError{Current: current.Status, Expected: StatusPending}
	}

	o, err = s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	escrow, chatID, err := s.openEscrowAndChat(ctx, o, boosterID)
	if err != nil {
		return nil, err
	}

	metrics.RecordClaim("success")
	s.audit.Record(audit.Event{
		Type:     audit.EventOrderClaimed,
		ActorID:  boosterID,
		OrderID:  orderID,
		EscrowID: escrow.ID,
	})

	return &ClaimResponse{Order: o, Escrow: escrow, ChatID: chatID}, nil
}

func (s *service) Complete(ctx context.Context, boosterID int, orderID string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	if !o.BoosterID.Valid || int(o.BoosterID.Int64) != boosterID {
		return nil, ErrNotOrderBooster
	}

	ok, err := s.repo.MarkAwaitingReview(ctx, orderID, boosterID)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return nil, ErrOrderNotFound
		}
		return nil, &StateError{Current: current.Status, Expected: StatusProcessing}
	}

	o, err = s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.notifyCustomer(ctx, o, func(u *user.User) error {
		return s.emails.SendOrderCompleted(ctx, u.Email, u.Name, o.Game)
	})

	s.audit.Record(audit.Event{
		Type:    audit.EventOrderCompleted,
		ActorID: boosterID,
		OrderID: orderID,
	})

	return o, nil
}

func (s *service) Approve(ctx context.Context, customerID int, orderID string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	if o.CustomerID != customerID {
		return nil, ErrNotOrderCustomer
	}
	if o.Status != StatusAwaitingReview {
		return nil, &StateError{Current: o.Status, Expected: StatusAwaitingReview}
	}

	escrow, err := s.payments.SettleApprove(ctx, orderID)
	if err != nil {
		if errors.Is(err, payment.ErrEscrowNotFound) {
			return nil, ErrEscrowMissing
		}
		return nil, err
	}

	ok, err := s.repo.MarkCompleted(ctx, orderID, customerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return nil, ErrOrderNotFound
		}
		return nil, &StateError{Current: current.Status, Expected: StatusAwaitingReview}
	}

	o, err = s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.notifyBooster(ctx, o, func(u *user.User) error {
		return s.emails.SendOrderApproved(ctx, u.Email, u.Name, escrow.BoosterCents)
	})

	s.audit.Record(audit.Event{
		Type:     audit.EventOrderApproved,
		ActorID:  customerID,
		OrderID:  orderID,
		EscrowID: escrow.ID,
	})

	return o, nil
}

func (s *service) Reject(ctx context.Context, customerID int, orderID, reason string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	if o.CustomerID != customerID {
		return nil, ErrNotOrderCustomer
	}
	if o.Status != StatusAwaitingReview {
		return nil, &StateError{Current: o.Status, Expected: StatusAwaitingReview}
	}

	// Card portion refunds through the processor, the balance portion
	// goes back to the wallet. SettleReject flips the escrow even when
	// the processor call fails; the divergence is audited there.
	cardRefund := o.AmountCents - o.BalanceUsedCents
	escrow, err := s.payments.SettleReject(ctx, orderID, cardRefund)
	if err != nil {
		if errors.Is(err, payment.ErrEscrowNotFound) {
			return nil, ErrEscrowMissing
		}
		return nil, err
	}

	if o.BalanceUsedCents > 0 {
		if err := s.wallets.RefundToBalance(ctx, customerID, o.BalanceUsedCents, orderID); err != nil {
			logger.Error("failed to refund balance portion", "order_id", orderID, "error", err)
		}
	}

	ok, err := s.repo.MarkRefunded(ctx, orderID, customerID, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return nil, ErrOrderNotFound
		}
		return nil, &StateError{Current: current.Status, Expected: StatusAwaitingReview}
	}

	o, err = s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.notifyBooster(ctx, o, func(u *user.User) error {
		return s.emails.SendOrderRejected(ctx, u.Email, u.Name, reason)
	})

	s.audit.Record(audit.Event{
		Type:     audit.EventOrderRejected,
		ActorID:  customerID,
		OrderID:  orderID,
		EscrowID: escrow.ID,
		Message:  reason,
	})

	return o, nil
}

func (s *service) Get(ctx context.Context, userID int, orderID string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	isBooster := o.BoosterID.Valid && int(o.BoosterID.Int64) == userID
	if o.CustomerID != userID && !isBooster {
		return nil, ErrNotOrderCustomer
	}

	return o, nil
}

func (s *service) ListMine(ctx context.Context, userID int, role string) ([]Order, error) {
	if role == auth.RoleBooster {
		return s.repo.ListByBooster(ctx, userID)
	}
	return s.repo.ListByCustomer(ctx, userID)
}

func (s *service) ListAvailable(ctx context.Context) ([]Order, error) {
	return s.repo.ListAvailable(ctx)
}

func (s *service) ListAll(ctx context.Context, limit, offset int) ([]Order, error) {
	return s.repo.ListAll(ctx, limit, offset)
}

func (s *service) Earnings(ctx context.Context, boosterID int) (*EarningsResponse, error) {
	return s.repo.Earnings(ctx, boosterID)
}

func (s *service) notifyCustomer(ctx context.Context, o *Order, send func(*user.User) error) {
	if s.emails == nil {
		return
	}
	u, err := s.users.FindByID(ctx, o.CustomerID)
	if err != nil {
		return
	}
	if err := send(u); err != nil {
		logger.Error("failed to queue email", "order_id", o.ID, "error", err)
	}
}

func (s *service) notifyBooster(ctx context.Context, o *Order, send func(*user.User) error) {
	if s.emails == nil || !o.BoosterID.Valid {
		return
	}
	u, err := s.users.FindByID(ctx, int(o.BoosterID.Int64))
	if err != nil {
		return
	}
	if err := send(u); err != nil {
		logger.Error("failed to queue email", "order_id", o.ID, "error", err)
	}
}
