package coupon

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Gateway is the subset of the gateway client the coupon service needs.
type Gateway interface {
	ValidateCoupon(ctx context.Context, token, code string, orderValue decimal.Decimal) (domain.CouponValidation, error)
	ApplyCoupon(ctx context.Context, token, idempotencyKey, code string, orderValue decimal.Decimal) (domain.CouponResult, error)
}

// Service is a stateless wrapper over the gateway's coupon endpoints.
type Service struct {
	gw Gateway
}

func NewService(gw Gateway) *Service {
	return &Service{gw: gw}
}

// Validate returns a discount proposal. It never touches a cart.
func (s *Service) Validate(ctx context.Context, id *domain.Identity, code string, orderValue decimal.Decimal) (domain.CouponValidation, error) {
	normalized, err := ValidateCode(code)
	if err != nil {
		return domain.CouponValidation{}, err
	}
	if orderValue.IsNegative() {
		return domain.CouponValidation{}, domain.NewValidationError([]string{"order value must not be negative"})
	}
	v, err := s.gw.ValidateCoupon(ctx, tokenOf(id), normalized, orderValue)
	if err != nil {
		return domain.CouponValidation{}, fmt.Errorf("validate coupon: %w", asRejection(normalized, err))
	}
	return v, nil
}

// Apply redeems the code and returns the result a cart can attach.
// An empty idempotency key gets a fresh one.
func (s *Service) Apply(ctx context.Context, id *domain.Identity, code string, orderValue decimal.Decimal, idempotencyKey string) (domain.CouponResult, error) {
	normalized, err := ValidateCode(code)
	if err != nil {
		return domain.CouponResult{}, err
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	r, err := s.gw.ApplyCoupon(ctx, tokenOf(id), idempotencyKey, normalized, orderValue)
	if err != nil {
		return domain.CouponResult{}, fmt.Errorf("apply coupon: %w", asRejection(normalized, err))
	}
	if r.DiscountAmount.IsNegative() {
		return domain.CouponResult{}, fmt.Errorf("apply coupon: negative discount %s", r.DiscountAmount)
	}
	return r, nil
}

func tokenOf(id *domain.Identity) string {
	if id == nil {
		return ""
	}
	return id.Token
}
