package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/gateway"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

// Gateway is the subset of the gateway client used to submit orders.
type Gateway interface {
	CreatePurchase(ctx context.Context, token, idempotencyKey string, req gateway.PurchaseRequest) (gateway.Purchase, error)
	CreateOrder(ctx context.Context, token, idempotencyKey string, req gateway.OrderRequest) (domain.Order, error)
}

// Submission is one line item the gateway accepted.
type Submission struct {
	Item           cart.LineItem `json:"item"`
	PurchaseID     int64         `json:"purchase_id"`
	IdempotencyKey string        `json:"idempotency_key"`
}

type Result struct {
	CheckoutID string          `json:"checkout_id"`
	Status     Status          `json:"status"`
	Submitted  []Submission    `json:"submitted"`
	Order      *domain.Order   `json:"order,omitempty"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
}

type Orchestrator struct {
	gw     Gateway
	pub    Publisher
	mode   Mode
	newKey func() string
	now    func() time.Time
}

func NewOrchestrator(gw Gateway, pub Publisher, mode Mode) *Orchestrator {
	if pub == nil {
		pub = NopPublisher{}
	}
	if mode == "" {
		mode = ModePerItem
	}
	return &Orchestrator{gw: gw, pub: pub, mode: mode, newKey: uuid.NewString, now: time.Now}
}

// Checkout turns the cart into gateway orders.
//
// On full success the cart is cleared. When a per-item submission fails the loop stops,
// the submitted items are removed from the cart and everything from the failed item on
// stays exactly as it was; the error is a *PartialError. The coupon went out with the
// first submission, so it is dropped from the cart in that case. Any other failure leaves
// the cart untouched.
func (o *Orchestrator) Checkout(ctx context.Context, c *cart.Cart, id *domain.Identity) (Result, error) {
	if c.IsEmpty() {
		return Result{Status: StatusFailed}, ErrEmptyCart
	}
	if err := domain.RequireAuth(id); err != nil {
		return Result{Status: StatusFailed}, err
	}

	res := Result{
		CheckoutID: o.newKey(),
		Status:     StatusInitiated,
		Subtotal:   c.Subtotal(),
		Discount:   c.Discount(),
		Total:      c.Total(),
	}
	log := logger.FromContext(ctx).With(
		zap.String("checkout_id", res.CheckoutID),
		zap.Int64("user_id", id.User.ID),
		zap.String("mode", string(o.mode)),
	)
	log.Info("checkout started", zap.Int("items", c.Len()))

	var err error
	if o.mode == ModeSingleOrder {
		err = o.submitOrder(ctx, c, id, &res)
	} else {
		err = o.submitItems(ctx, c, id, &res)
	}

	var partial *PartialError
	switch {
	case err == nil:
		res.Status = StatusCompleted
		c.Clear()
		log.Info("checkout completed", zap.Int("submitted", len(res.Submitted)))
	case errors.As(err, &partial) && len(partial.Submitted) > 0:
		res.Status = StatusPartial
		for _, s := range partial.Submitted {
			c.Remove(s.Item.ProductID)
		}
		if c.RemoveCoupon() {
			log.Info("coupon redeemed by partial checkout")
		}
		log.Warn("checkout partially completed",
			zap.Int("submitted", len(partial.Submitted)),
			zap.Int64("failed_product_id", partial.Failed.ProductID),
			zap.Error(partial.Err))
	default:
		res.Status = StatusFailed
		log.Warn("checkout failed", zap.Error(err))
	}

	if res.Status != StatusFailed {
		o.publish(ctx, log, id, res, partial)
	}
	return res, err
}

func (o *Orchestrator) submitItems(ctx context.Context, c *cart.Cart, id *domain.Identity, res *Result) error {
	items := c.Items()
	couponCode := ""
	if applied, ok := c.AppliedCoupon(); ok {
		couponCode = applied.Code
	}

	res.Status = StatusSubmitting
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return o.partial(items, i, res, err)
		}
		key := o.newKey()
		req := gateway.PurchaseRequest{
			UserID:    id.User.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if i == 0 {
			req.CouponCode = couponCode
		}
		p, err := o.gw.CreatePurchase(ctx, id.Token, key, req)
		if err != nil {
			return o.partial(items, i, res, fmt.Errorf("submit product %d: %w", item.ProductID, err))
		}
		res.Submitted = append(res.Submitted, Submission{Item: item, PurchaseID: p.ID, IdempotencyKey: key})
	}
	return nil
}

func (o *Orchestrator) partial(items []cart.LineItem, failed int, res *Result, err error) error {
	submitted := make([]Submission, len(res.Submitted))
	copy(submitted, res.Submitted)
	remaining := make([]cart.LineItem, len(items)-failed-1)
	copy(remaining, items[failed+1:])
	return &PartialError{
		Failed:    items[failed],
		Submitted: submitted,
		Remaining: remaining,
		Err:       err,
	}
}

func (o *Orchestrator) submitOrder(ctx context.Context, c *cart.Cart, id *domain.Identity, res *Result) error {
	req := gateway.OrderRequest{}
	for _, item := range c.Items() {
		req.Items = append(req.Items, gateway.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	if applied, ok := c.AppliedCoupon(); ok {
		req.CouponCode = applied.Code
	}

	res.Status = StatusSubmitting
	order, err := o.gw.CreateOrder(ctx, id.Token, res.CheckoutID, req)
	if err != nil {
		return fmt.Errorf("submit order: %w", err)
	}
	res.Order = &order
	for _, item := range c.Items() {
		res.Submitted = append(res.Submitted, Submission{Item: item, PurchaseID: order.ID, IdempotencyKey: res.CheckoutID})
	}
	return nil
}

// publish never fails the checkout; the orders already exist on the gateway.
func (o *Orchestrator) publish(ctx context.Context, log *zap.Logger, id *domain.Identity, res Result, partial *PartialError) {
	ev := newEvent(id, res, partial, o.now())
	if err := o.pub.Publish(context.WithoutCancel(ctx), ev); err != nil {
		log.Error("failed to publish checkout event", zap.String("event_type", ev.Type), zap.Error(err))
	}
}
