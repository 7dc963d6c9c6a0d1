package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type couponCheckBody struct {
	Code       string      `json:"code"`
	OrderValue json.Number `json:"order_value"`
}

// ValidateCoupon asks for a non-binding discount proposal.
func (c *Client) ValidateCoupon(ctx context.Context, token, code string, orderValue decimal.Decimal) (domain.CouponValidation, error) {
	out, err := c.couponCheck(ctx, "/coupons/validate", token, "", code, orderValue)
	if err != nil {
		return domain.CouponValidation{}, err
	}
	return domain.CouponValidation{
		Code:           firstNonEmpty(out.CouponCode, code),
		DiscountAmount: out.DiscountAmount.Decimal,
		FinalValue:     out.FinalValue.Decimal,
		Message:        out.Message,
	}, nil
}

// ApplyCoupon redeems the code against the given order value. Retrying with the same key is safe.
func (c *Client) ApplyCoupon(ctx context.Context, token, idempotencyKey, code string, orderValue decimal.Decimal) (domain.CouponResult, error) {
	out, err := c.couponCheck(ctx, "/coupons/apply", token, idempotencyKey, code, orderValue)
	if err != nil {
		return domain.CouponResult{}, err
	}
	return domain.CouponResult{
		Code:           firstNonEmpty(out.CouponCode, code),
		DiscountAmount: out.DiscountAmount.Decimal,
		FinalValue:     out.FinalValue.Decimal,
	}, nil
}

func (c *Client) couponCheck(ctx context.Context, path, token, idempotencyKey, code string, orderValue decimal.Decimal) (*couponResultResponse, error) {
	var out couponResultResponse
	err := c.do(ctx, call{
		method:         http.MethodPost,
		path:           path,
		token:          token,
		idempotencyKey: idempotencyKey,
		body:           couponCheckBody{Code: code, OrderValue: money(orderValue)},
		out:            &out,
	})
	if err != nil {
		return nil, err
	}
	if out.rejected() {
		return nil, out.rejection()
	}
	return &out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

type couponBody struct {
	Code              string       `json:"code"`
	Name              string       `json:"name"`
	Description       string       `json:"description,omitempty"`
	DiscountType      string       `json:"discount_type"`
	DiscountValue     json.Number  `json:"discount_value"`
	MinOrderValue     json.Number  `json:"min_order_value"`
	MaxDiscountAmount *json.Number `json:"max_discount_amount,omitempty"`
	UsageLimit        int          `json:"usage_limit,omitempty"`
	IsActive          bool         `json:"is_active"`
	StartDate         string       `json:"start_date,omitempty"`
	EndDate           string       `json:"end_date,omitempty"`
}

func newCouponBody(cp domain.Coupon) couponBody {
	b := couponBody{
		Code:          cp.Code,
		Name:          cp.Name,
		Description:   cp.Description,
		DiscountType:  string(cp.DiscountType),
		DiscountValue: money(cp.DiscountValue),
		MinOrderValue: money(cp.MinOrderValue),
		UsageLimit:    cp.UsageLimit,
		IsActive:      cp.IsActive,
	}
	if cp.MaxDiscountAmount != nil {
		n := money(*cp.MaxDiscountAmount)
		b.MaxDiscountAmount = &n
	}
	if cp.StartDate != nil {
		b.StartDate = cp.StartDate.UTC().Format(time.RFC3339)
	}
	if cp.EndDate != nil {
		b.EndDate = cp.EndDate.UTC().Format(time.RFC3339)
	}
	return b
}

func (c *Client) Coupons(ctx context.Context, token string, page, perPage int) ([]domain.Coupon, domain.Pagination, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	var out couponListResponse
	if err := c.do(ctx, call{method: http.MethodGet, path: "/coupons", query: q, token: token, out: &out}); err != nil {
		return nil, domain.Pagination{}, err
	}
	coupons := make([]domain.Coupon, 0, len(out.Coupons))
	for i := range out.Coupons {
		coupons = append(coupons, out.Coupons[i].toDomain())
	}
	return coupons, out.Pagination.toDomain(), nil
}

func (c *Client) Coupon(ctx context.Context, token string, id int64) (domain.Coupon, error) {
	var out couponEnvelope
	if err := c.do(ctx, call{method: http.MethodGet, path: pathf("/coupons/%s", id), token: token, out: &out}); err != nil {
		return domain.Coupon{}, err
	}
	return out.Coupon.toDomain(), nil
}

func (c *Client) CreateCoupon(ctx context.Context, token string, cp domain.Coupon) (domain.Coupon, error) {
	var out couponEnvelope
	err := c.do(ctx, call{method: http.MethodPost, path: "/coupons", token: token, body: newCouponBody(cp), out: &out})
	if err != nil {
		return domain.Coupon{}, err
	}
	return out.Coupon.toDomain(), nil
}

func (c *Client) UpdateCoupon(ctx context.Context, token string, id int64, cp domain.Coupon) (domain.Coupon, error) {
	var out couponEnvelope
	err := c.do(ctx, call{method: http.MethodPut, path: pathf("/coupons/%s", id), token: token, body: newCouponBody(cp), out: &out})
	if err != nil {
		return domain.Coupon{}, err
	}
	return out.Coupon.toDomain(), nil
}

func (c *Client) DeleteCoupon(ctx context.Context, token string, id int64) error {
	return c.do(ctx, call{method: http.MethodDelete, path: pathf("/coupons/%s", id), token: token})
}
