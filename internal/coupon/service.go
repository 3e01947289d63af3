package coupon

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponInactive    = errors.New("coupon is not active")
	ErrCouponNotStarted  = errors.New("coupon is not yet valid")
	ErrCouponExpired     = errors.New("coupon has expired")
	ErrBelowMinimum      = errors.New("order amount is below the coupon minimum")
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	ErrInvalidCoupon     = errors.New("invalid coupon definition")
)

// validate reuses the binding tags so that definitions coming in from
// places other than the HTTP layer get the same checks.
var validate = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}()

type Service interface {
	Validate(ctx context.Context, code string, amountCents int64) (*ValidateResponse, error)
	Apply(ctx context.Context, code string, amountCents int64, orderID string, userID int) (int64, error)
	Release(ctx context.Context, orderID string) error
	Create(ctx context.Context, req CreateCouponRequest) (*Coupon, error)
}

type service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, clock: time.Now}
}

// NormalizeCode is applied to every code before lookup so that
// " percent10 " and "PERCENT10" resolve to the same coupon.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ComputeDiscount is the pure discount rule: same coupon row and amount
// always produce the same result. The returned discount is clamped to
// [0, amountCents] and to the coupon's max cap.
func ComputeDiscount(c *Coupon, amountCents int64) int64 {
	var discount int64
	switch c.DiscountType {
	case DiscountTypePercentage:
		discount = int64(math.Round(float64(amountCents) * c.DiscountValue / 100))
		if c.MaxDiscountCents.Valid && discount > c.MaxDiscountCents.Int64 {
			discount = c.MaxDiscountCents.Int64
		}
	case DiscountTypeFixed:
		discount = int64(math.Round(c.DiscountValue))
	}

	if discount > amountCents {
		discount = amountCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

func (s *service) lookup(ctx context.Context, code string, amountCents int64) (*Coupon, error) {
	c, err := s.repo.FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		return nil, ErrCouponNotFound
	}

	if !c.Active {
		return nil, ErrCouponInactive
	}

	now := s.clock()
	if now.Before(c.ValidFrom) {
		return nil, ErrCouponNotStarted
	}
	if now.After(c.ValidUntil) {
		return nil, ErrCouponExpired
	}
	if amountCents < c.MinAmountCents {
		return nil, ErrBelowMinimum
	}
	if c.UsageLimit.Valid && c.UsageCount >= c.UsageLimit.Int64 {
		return nil, ErrUsageLimitReached
	}

	return c, nil
}

func (s *service) Validate(ctx context.Context, code string, amountCents int64) (*ValidateResponse, error) {
	c, err := s.lookup(ctx, code, amountCents)
	if err != nil {
		return &ValidateResponse{Valid: false, Error: err.Error()}, nil
	}

	discount := ComputeDiscount(c, amountCents)
	return &ValidateResponse{
		Valid:         true,
		DiscountCents: discount,
		FinalCents:    amountCents - discount,
	}, nil
}

// Apply validates the coupon, records a usage row and returns the
// discount. Called by checkout, never by the validate endpoint.
func (s *service) Apply(ctx context.Context, code string, amountCents int64, orderID string, userID int) (int64, error) {
	c, err := s.lookup(ctx, code, amountCents)
	if err != nil {
		return 0, err
	}

	discount := ComputeDiscount(c, amountCents)
	if err := s.repo.RecordUsage(ctx, c.ID, orderID, userID, discount); err != nil {
		return 0, err
	}

	return discount, nil
}

// Release hands back a usage taken by Apply when the checkout it was
// taken for fails afterwards. Safe to call for orders without a coupon.
func (s *service) Release(ctx context.Context, orderID string) error {
	return s.repo.ReleaseUsage(ctx, orderID)
}

func (s *service) Create(ctx context.Context, req CreateCouponRequest) (*Coupon, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCoupon, err)
	}
	if !req.ValidUntil.After(req.ValidFrom) {
		return nil, fmt.Errorf("%w: valid_until must be after valid_from", ErrInvalidCoupon)
	}

	req.Code = NormalizeCode(req.Code)
	return s.repo.Create(ctx, req)
}
