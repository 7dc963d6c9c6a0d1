package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

var ErrNotFound = errors.New("session not found or expired")

// Session is the state one UI client owns: identity, cart and coupon lifecycle.
type Session struct {
	ID                string           `json:"id"`
	Identity          *domain.Identity `json:"identity,omitempty"`
	Cart              *cart.Cart       `json:"cart"`
	Coupon            coupon.Flow      `json:"coupon"`
	CheckoutStartedAt *time.Time       `json:"checkout_started_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func New(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Cart:      cart.New(),
		Coupon:    coupon.Flow{State: coupon.StateNone},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Clone() *Session {
	c := *s
	if s.Identity != nil {
		id := *s.Identity
		c.Identity = &id
	}
	if s.Cart != nil {
		c.Cart = s.Cart.Clone()
	} else {
		c.Cart = cart.New()
	}
	if s.Coupon.Pending != nil {
		pending := *s.Coupon.Pending
		c.Coupon.Pending = &pending
	}
	if s.CheckoutStartedAt != nil {
		started := *s.CheckoutStartedAt
		c.CheckoutStartedAt = &started
	}
	return &c
}

// CheckoutInProgress reports a checkout that started less than staleAfter ago.
// Older markers belong to a checkout that never reported back.
func (s *Session) CheckoutInProgress(now time.Time, staleAfter time.Duration) bool {
	return s.CheckoutStartedAt != nil && now.Sub(*s.CheckoutStartedAt) < staleAfter
}

func (s *Session) BeginCheckout(now time.Time, staleAfter time.Duration) error {
	if s.CheckoutInProgress(now, staleAfter) {
		return checkout.ErrCheckoutInProgress
	}
	s.CheckoutStartedAt = &now
	return nil
}

func (s *Session) EndCheckout() {
	s.CheckoutStartedAt = nil
}

// Store owns every session. Update is the only way to change one: fn runs on a copy
// and the copy is saved only when fn returns nil.
type Store interface {
	Create(ctx context.Context) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
