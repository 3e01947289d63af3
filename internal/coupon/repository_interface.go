package coupon

import "context"

type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Create(ctx context.Context, req CreateCouponRequest) (*Coupon, error)
	RecordUsage(ctx context.Context, couponID, orderID string, userID int, discountCents int64) error
	ReleaseUsage(ctx context.Context, orderID string) error
}
