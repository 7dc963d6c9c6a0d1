package http

import (
	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
)

// Money leaves the service as a string with two decimals so the UI never sees float rounding.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type lineItemDTO struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	UnitPrice string `json:"unit_price"`
	Image     string `json:"image,omitempty"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

func newLineItemDTO(li cart.LineItem) lineItemDTO {
	return lineItemDTO{
		ProductID: li.ProductID,
		Title:     li.Title,
		UnitPrice: money(li.UnitPrice),
		Image:     li.Image,
		Quantity:  li.Quantity,
		LineTotal: money(li.LineTotal()),
	}
}

type appliedCouponDTO struct {
	Code           string `json:"code"`
	DiscountAmount string `json:"discount_amount"`
	FinalValue     string `json:"final_value"`
}

type pendingCouponDTO struct {
	Code           string `json:"code"`
	DiscountAmount string `json:"discount_amount"`
	FinalValue     string `json:"final_value"`
	Message        string `json:"message,omitempty"`
}

func newPendingCouponDTO(v domain.CouponValidation) *pendingCouponDTO {
	return &pendingCouponDTO{
		Code:           v.Code,
		DiscountAmount: money(v.DiscountAmount),
		FinalValue:     money(v.FinalValue),
		Message:        v.Message,
	}
}

type CartResponse struct {
	Items         []lineItemDTO     `json:"items"`
	Count         int               `json:"count"`
	Subtotal      string            `json:"subtotal"`
	Discount      string            `json:"discount"`
	Total         string            `json:"total"`
	CouponState   coupon.State      `json:"coupon_state"`
	Coupon        *appliedCouponDTO `json:"coupon,omitempty"`
	PendingCoupon *pendingCouponDTO `json:"pending_coupon,omitempty"`
	Notice        *domain.Notice    `json:"notice,omitempty"`
}

func newCartResponse(c *cart.Cart, flow coupon.Flow, notice *domain.Notice) CartResponse {
	resp := CartResponse{
		Items:       make([]lineItemDTO, 0, c.Len()),
		Count:       c.Count(),
		Subtotal:    money(c.Subtotal()),
		Discount:    money(c.Discount()),
		Total:       money(c.Total()),
		CouponState: flow.State,
		Notice:      notice,
	}
	if resp.CouponState == "" {
		resp.CouponState = coupon.StateNone
	}
	for _, item := range c.Items() {
		resp.Items = append(resp.Items, newLineItemDTO(item))
	}
	if applied, ok := c.AppliedCoupon(); ok {
		resp.Coupon = &appliedCouponDTO{
			Code:           applied.Code,
			DiscountAmount: money(applied.DiscountAmount),
			FinalValue:     money(applied.FinalValue),
		}
	}
	if flow.State == coupon.StateValidated && flow.Pending != nil {
		resp.PendingCoupon = newPendingCouponDTO(*flow.Pending)
	}
	return resp
}

func sessionCartResponse(s *session.Session, notice *domain.Notice) CartResponse {
	return newCartResponse(s.Cart, s.Coupon, notice)
}

type submissionDTO struct {
	ProductID      int64  `json:"product_id"`
	Title          string `json:"title"`
	Quantity       int    `json:"quantity"`
	PurchaseID     int64  `json:"purchase_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

func newSubmissionDTO(s checkout.Submission) submissionDTO {
	return submissionDTO{
		ProductID:      s.Item.ProductID,
		Title:          s.Item.Title,
		Quantity:       s.Item.Quantity,
		PurchaseID:     s.PurchaseID,
		IdempotencyKey: s.IdempotencyKey,
	}
}

type CheckoutResponse struct {
	CheckoutID string          `json:"checkout_id"`
	Status     checkout.Status `json:"status"`
	Submitted  []submissionDTO `json:"submitted"`
	OrderID    int64           `json:"order_id,omitempty"`
	Subtotal   string          `json:"subtotal"`
	Discount   string          `json:"discount"`
	Total      string          `json:"total"`
	Cart       CartResponse    `json:"cart"`
	Notice     domain.Notice   `json:"notice"`
}

func newCheckoutResponse(res checkout.Result, c *cart.Cart, flow coupon.Flow, notice domain.Notice) CheckoutResponse {
	resp := CheckoutResponse{
		CheckoutID: res.CheckoutID,
		Status:     res.Status,
		Submitted:  make([]submissionDTO, 0, len(res.Submitted)),
		Subtotal:   money(res.Subtotal),
		Discount:   money(res.Discount),
		Total:      money(res.Total),
		Cart:       newCartResponse(c, flow, nil),
		Notice:     notice,
	}
	for _, sub := range res.Submitted {
		resp.Submitted = append(resp.Submitted, newSubmissionDTO(sub))
	}
	if res.Order != nil {
		resp.OrderID = res.Order.ID
	}
	return resp
}

type IdentityResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
	IsAdmin       bool         `json:"is_admin"`
}

func newIdentityResponse(id *domain.Identity) IdentityResponse {
	if !id.Authenticated() {
		return IdentityResponse{}
	}
	user := id.User
	return IdentityResponse{Authenticated: true, User: &user, IsAdmin: id.IsAdmin()}
}

type SessionResponse struct {
	SessionID   string           `json:"session_id"`
	Identity    IdentityResponse `json:"identity"`
	CartCount   int              `json:"cart_count"`
	CouponState coupon.State     `json:"coupon_state"`
}

type ListResponse[T any] struct {
	Data       []T                `json:"data"`
	Pagination *domain.Pagination `json:"pagination,omitempty"`
}
