package coupon

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// ValidateDefinition reports every rule an admin coupon definition breaks.
func ValidateDefinition(c domain.Coupon) error {
	var problems []string
	if len([]rune(strings.TrimSpace(c.Code))) < minCodeLength {
		problems = append(problems, fmt.Sprintf("code must be at least %d characters", minCodeLength))
	}
	if strings.TrimSpace(c.Name) == "" {
		problems = append(problems, "name is required")
	}
	switch c.DiscountType {
	case domain.DiscountPercentage, domain.DiscountFixed:
	default:
		problems = append(problems, `discount type must be "percentage" or "fixed"`)
	}
	if !c.DiscountValue.IsPositive() {
		problems = append(problems, "discount value must be greater than zero")
	}
	if c.DiscountType == domain.DiscountPercentage && c.DiscountValue.GreaterThan(hundred) {
		problems = append(problems, "percentage discount cannot exceed 100%")
	}
	if c.MinOrderValue.IsNegative() {
		problems = append(problems, "minimum order value cannot be negative")
	}
	if c.MaxDiscountAmount != nil && c.MaxDiscountAmount.IsNegative() {
		problems = append(problems, "maximum discount cannot be negative")
	}
	if c.UsageLimit < 0 {
		problems = append(problems, "usage limit cannot be negative")
	}
	if c.StartDate != nil && c.EndDate != nil && !c.StartDate.Before(*c.EndDate) {
		problems = append(problems, "start date must be before end date")
	}
	return domain.NewValidationError(problems)
}

type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusNotStarted Status = "not_started"
	StatusExpired    Status = "expired"
	StatusExhausted  Status = "exhausted"
)

// StatusOf derives the display status of a definition at the given instant.
func StatusOf(c domain.Coupon, now time.Time) Status {
	switch {
	case !c.IsActive:
		return StatusInactive
	case c.StartDate != nil && c.StartDate.After(now):
		return StatusNotStarted
	case c.EndDate != nil && c.EndDate.Before(now):
		return StatusExpired
	case c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit:
		return StatusExhausted
	default:
		return StatusActive
	}
}

func FormatDiscount(t domain.DiscountType, value decimal.Decimal) string {
	switch t {
	case domain.DiscountPercentage:
		return value.String() + "%"
	case domain.DiscountFixed:
		return "$" + value.StringFixed(2)
	default:
		return ""
	}
}

// EstimateDiscount mirrors the gateway's discount rule for previews in the admin UI.
// The gateway's answer is authoritative.
func EstimateDiscount(c domain.Coupon, orderValue decimal.Decimal) decimal.Decimal {
	switch c.DiscountType {
	case domain.DiscountPercentage:
		d := orderValue.Mul(c.DiscountValue).Div(hundred)
		if c.MaxDiscountAmount != nil && d.GreaterThan(*c.MaxDiscountAmount) {
			d = *c.MaxDiscountAmount
		}
		return d.Round(2)
	case domain.DiscountFixed:
		return decimal.Min(c.DiscountValue, orderValue)
	default:
		return decimal.Zero
	}
}
