package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CouponResult is an applied coupon as confirmed by the gateway.
type CouponResult struct {
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalValue     decimal.Decimal `json:"final_value"`
}

// CouponValidation is a non-binding discount proposal.
type CouponValidation struct {
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalValue     decimal.Decimal `json:"final_value"`
	Message        string          `json:"message,omitempty"`
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is the administrative definition of a coupon.
type Coupon struct {
	ID                int64            `json:"id,omitempty"`
	Code              string           `json:"code"`
	Name              string           `json:"name"`
	Description       string           `json:"description,omitempty"`
	DiscountType      DiscountType     `json:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinOrderValue     decimal.Decimal  `json:"min_order_value"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	UsageLimit        int              `json:"usage_limit,omitempty"`
	UsedCount         int              `json:"used_count,omitempty"`
	IsActive          bool             `json:"is_active"`
	StartDate         *time.Time       `json:"start_date,omitempty"`
	EndDate           *time.Time       `json:"end_date,omitempty"`
}
