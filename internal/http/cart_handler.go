package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
)

// CartHandler serves the cart and its coupon flow. Every change runs inside store.Update,
// so a rejected operation leaves the session as it was.
type CartHandler struct {
	store      session.Store
	catalog    *catalog.Service
	coupons    *coupon.Service
	timeout    time.Duration
	staleAfter time.Duration
	now        func() time.Time
}

func NewCartHandler(store session.Store, c *catalog.Service, coupons *coupon.Service, timeout, checkoutTimeout time.Duration) *CartHandler {
	return &CartHandler{
		store:      store,
		catalog:    c,
		coupons:    coupons,
		timeout:    timeout,
		staleAfter: checkoutTimeout,
		now:        time.Now,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type CouponRequestDTO struct {
	Code string `json:"code"`
}

// mutate runs fn on the caller's session unless a checkout owns the cart right now.
func (h *CartHandler) mutate(ctx context.Context, r *http.Request, fn func(*session.Session) error) (*session.Session, error) {
	return h.store.Update(ctx, getSessionFromContext(r.Context()).ID, func(s *session.Session) error {
		if s.CheckoutInProgress(h.now(), h.staleAfter) {
			return checkout.ErrCheckoutInProgress
		}
		return fn(s)
	})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, sessionCartResponse(getSessionFromContext(r.Context()), nil))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	product, err := h.catalog.Get(ctx, req.ProductID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var notice domain.Notice
	sess, err := h.mutate(ctx, r, func(s *session.Session) error {
		notice = s.Cart.Add(product)
		s.Coupon.Reconcile(s.Cart)
		return nil
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sessionCartResponse(sess, &notice))
}

// UpdateQuantity sets the exact quantity; zero or less removes the item.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := parseIDParam(r, "product_id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}
	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity == nil {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity is required")
		return
	}

	sess, err := h.mutate(ctx, r, func(s *session.Session) error {
		s.Cart.UpdateQuantity(productID, *req.Quantity)
		s.Coupon.Reconcile(s.Cart)
		return nil
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sessionCartResponse(sess, nil))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := parseIDParam(r, "product_id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	var notice *domain.Notice
	sess, err := h.mutate(ctx, r, func(s *session.Session) error {
		if item, found := s.Cart.Item(productID); found {
			s.Cart.Remove(productID)
			notice = &domain.Notice{
				Kind:    domain.NoticeInfo,
				Title:   "Product removed",
				Message: fmt.Sprintf("%s was removed from the cart.", item.Title),
			}
		}
		s.Coupon.Reconcile(s.Cart)
		return nil
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sessionCartResponse(sess, notice))
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, err := h.mutate(ctx, r, func(s *session.Session) error {
		s.Cart.Clear()
		s.Coupon.Reset()
		return nil
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sessionCartResponse(sess, nil))
}

// ValidateCoupon proposes a discount without touching the cart. A rejected code leaves
// the coupon flow at NONE, so that state is saved as well.
func (h *CartHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var (
		proposal domain.CouponValidation
		opErr    error
	)
	sess, err := h.mutate(ctx, r, func(s *session.Session) error {
		proposal, opErr = s.Coupon.Validate(ctx, h.coupons, s.Identity, s.Cart, req.Code)
		return nil
	})
	if err == nil {
		err = opErr
	}
	if err != nil {
		handleError(w, r, err)
		return
	}

	message := proposal.Message
	if message == "" {
		message = fmt.Sprintf("Coupon %s saves $%s on this order.", proposal.Code, money(proposal.DiscountAmount))
	}
	respondJSON(w, r, http.StatusOK, sessionCartResponse(sess, &domain.Notice{
		Kind:    domain.NoticeInfo,
		Title:   "Coupon is valid",
		Message: message,
	}))
}

// ApplyCoupon redeems the validated code. The idempotency key is fixed per request so a
// retried store transaction does not redeem twice.
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CouponRequestDTO
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	key := uuid.NewString()
	var (
		applied domain.CouponResult
		opErr   error
	)
	sess, err := h.mutate(ctx, r, func(s *session.Session) error {
		applied, opErr = s.Coupon.Apply(ctx, h.coupons, s.Identity, s.Cart, req.Code, key)
		return nil
	})
	if err == nil {
		err = opErr
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sessionCartResponse(sess, &domain.Notice{
		Kind:    domain.NoticeSuccess,
		Title:   "Coupon applied",
		Message: fmt.Sprintf("Coupon %s applied: -$%s.", applied.Code, money(applied.DiscountAmount)),
	}))
}

func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, err := h.mutate(ctx, r, func(s *session.Session) error {
		return s.Coupon.Remove(s.Cart)
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sessionCartResponse(sess, &domain.Notice{
		Kind:    domain.NoticeInfo,
		Title:   "Coupon removed",
		Message: "The coupon was removed from the cart.",
	}))
}
