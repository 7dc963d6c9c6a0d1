package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

const saveTimeout = 5 * time.Second

type Checkouter interface {
	Checkout(ctx context.Context, c *cart.Cart, id *domain.Identity) (checkout.Result, error)
}

type CheckoutHandler struct {
	store        session.Store
	orchestrator Checkouter
	timeout      time.Duration
	now          func() time.Time
}

func NewCheckoutHandler(store session.Store, orchestrator Checkouter, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		store:        store,
		orchestrator: orchestrator,
		timeout:      timeout,
		now:          time.Now,
	}
}

// Checkout claims the cart, submits it detached from the client connection and writes the
// outcome back to the session. A client that goes away does not abort submissions in flight.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sid := getSessionFromContext(r.Context()).ID
	log := logger.FromContext(r.Context())

	var (
		snapshot *cart.Cart
		identity domain.Identity
	)
	_, err := h.store.Update(r.Context(), sid, func(s *session.Session) error {
		if s.Cart.IsEmpty() {
			return checkout.ErrEmptyCart
		}
		if err := domain.RequireAuth(s.Identity); err != nil {
			return err
		}
		if err := s.BeginCheckout(h.now(), h.timeout); err != nil {
			return err
		}
		snapshot = s.Cart.Clone()
		identity = *s.Identity
		return nil
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
	defer cancel()
	res, checkoutErr := h.orchestrator.Checkout(ctx, snapshot, &identity)

	saveCtx, cancelSave := context.WithTimeout(context.WithoutCancel(r.Context()), saveTimeout)
	defer cancelSave()
	sess, err := h.store.Update(saveCtx, sid, func(s *session.Session) error {
		s.EndCheckout()
		s.Cart = snapshot.Clone()
		if res.Status == checkout.StatusCompleted {
			s.Coupon.Reset()
		} else {
			s.Coupon.Reconcile(s.Cart)
		}
		return nil
	})
	flow := coupon.Flow{State: coupon.StateNone}
	if err != nil {
		// The orders exist on the gateway either way; report them against the local snapshot.
		log.Error("failed to save checkout outcome",
			zap.String("checkout_id", res.CheckoutID),
			zap.String("status", res.Status.String()),
			zap.Error(err))
		if _, ok := snapshot.AppliedCoupon(); ok {
			flow.State = coupon.StateApplied
		}
	} else {
		snapshot = sess.Cart
		flow = sess.Coupon
	}

	var partial *checkout.PartialError
	switch {
	case checkoutErr == nil:
		respondJSON(w, r, http.StatusOK, newCheckoutResponse(res, snapshot, flow, domain.Notice{
			Kind:    domain.NoticeSuccess,
			Title:   "Order placed",
			Message: fmt.Sprintf("%d item(s) ordered for $%s.", len(res.Submitted), money(res.Total)),
		}))
	case errors.As(checkoutErr, &partial) && len(partial.Submitted) > 0:
		cartResp := newCartResponse(snapshot, flow, &domain.Notice{
			Kind:    domain.NoticeError,
			Title:   "Checkout incomplete",
			Message: fmt.Sprintf("%d item(s) were ordered; %s and the items after it are still in your cart.", len(partial.Submitted), partial.Failed.Title),
		})
		report := newPartialReport(partial)
		report.CheckoutID = res.CheckoutID
		report.Cart = &cartResp
		respondJSON(w, r, http.StatusConflict, ErrorResponse{
			Error:   partial.Error(),
			Code:    "checkout_partial",
			Details: report,
		})
	default:
		handleError(w, r, checkoutErr)
	}
}
