package coupon

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

type State string

const (
	StateNone      State = "NONE"
	StateValidated State = "VALIDATED"
	StateApplied   State = "APPLIED"
)

// Flow is the two-phase coupon lifecycle of one cart: NONE -> VALIDATED -> APPLIED -> NONE.
// It is stored with the cart and mutated under the same session lock.
type Flow struct {
	State   State                    `json:"state"`
	Pending *domain.CouponValidation `json:"pending,omitempty"`
}

func (f *Flow) current() State {
	if f.State == "" {
		return StateNone
	}
	return f.State
}

// Validate moves NONE or VALIDATED to VALIDATED. Any failure leaves the flow at NONE.
func (f *Flow) Validate(ctx context.Context, svc *Service, id *domain.Identity, c *cart.Cart, code string) (domain.CouponValidation, error) {
	if f.current() == StateApplied {
		return domain.CouponValidation{}, cart.ErrCouponActive
	}
	v, err := svc.Validate(ctx, id, code, c.Subtotal())
	if err != nil {
		f.Reset()
		return domain.CouponValidation{}, err
	}
	if v.Code == "" {
		v.Code = NormalizeCode(code)
	}
	f.State = StateValidated
	f.Pending = &v
	return v, nil
}

// Apply moves VALIDATED to APPLIED for the same code it validated.
// An empty code applies the pending one.
func (f *Flow) Apply(ctx context.Context, svc *Service, id *domain.Identity, c *cart.Cart, code, idempotencyKey string) (domain.CouponResult, error) {
	switch f.current() {
	case StateApplied:
		return domain.CouponResult{}, cart.ErrCouponActive
	case StateNone:
		return domain.CouponResult{}, ErrNotValidated
	}
	if f.Pending == nil {
		f.Reset()
		return domain.CouponResult{}, ErrNotValidated
	}
	if code == "" {
		code = f.Pending.Code
	}
	if NormalizeCode(code) != NormalizeCode(f.Pending.Code) {
		return domain.CouponResult{}, ErrCodeMismatch
	}

	r, err := svc.Apply(ctx, id, f.Pending.Code, c.Subtotal(), idempotencyKey)
	if err != nil {
		f.Reset()
		return domain.CouponResult{}, err
	}
	if err := c.ApplyCoupon(r); err != nil {
		f.Reset()
		return domain.CouponResult{}, fmt.Errorf("attach coupon: %w", err)
	}
	f.State = StateApplied
	f.Pending = nil
	return r, nil
}

// Remove is the only way out of APPLIED. It also discards a pending validation.
func (f *Flow) Remove(c *cart.Cart) error {
	had := c.RemoveCoupon()
	wasPending := f.current() == StateValidated
	f.Reset()
	if !had && !wasPending {
		return ErrNoCoupon
	}
	return nil
}

func (f *Flow) Reset() {
	f.State = StateNone
	f.Pending = nil
}

// Reconcile realigns the flow with the cart after the cart changed underneath it.
// A pending validation does not survive an emptied cart.
func (f *Flow) Reconcile(c *cart.Cart) {
	if _, ok := c.AppliedCoupon(); ok {
		f.State = StateApplied
		f.Pending = nil
		return
	}
	if f.current() == StateApplied || f.current() == StateValidated && c.IsEmpty() {
		f.Reset()
	}
}
