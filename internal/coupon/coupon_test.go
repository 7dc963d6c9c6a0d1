package coupon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/gateway"
)

type GatewayMock struct {
	validation  domain.CouponValidation
	result      domain.CouponResult
	validateErr error
	applyErr    error

	validateCalls int
	applyCalls    int
	lastCode      string
	lastKey       string
	lastValue     decimal.Decimal
}

func (m *GatewayMock) ValidateCoupon(_ context.Context, _ string, code string, v decimal.Decimal) (domain.CouponValidation, error) {
	m.validateCalls++
	m.lastCode, m.lastValue = code, v
	if m.validateErr != nil {
		return domain.CouponValidation{}, m.validateErr
	}
	return m.validation, nil
}

func (m *GatewayMock) ApplyCoupon(_ context.Context, _ string, key, code string, v decimal.Decimal) (domain.CouponResult, error) {
	m.applyCalls++
	m.lastKey = key
	m.lastCode, m.lastValue = code, v
	if m.applyErr != nil {
		return domain.CouponResult{}, m.applyErr
	}
	return m.result, nil
}

var user = &domain.Identity{Token: "tok", User: domain.User{ID: 1}}

func filledCart() *cart.Cart {
	c := cart.New()
	c.Add(domain.Product{ID: 1, Title: "A", Price: decimal.RequireFromString("10.00")})
	c.Add(domain.Product{ID: 1, Title: "A", Price: decimal.RequireFromString("10.00")})
	c.Add(domain.Product{ID: 2, Title: "B", Price: decimal.RequireFromString("5.50")})
	return c
}

func TestValidateCode_ReportsEveryProblem(t *testing.T) {
	_, err := ValidateCode(" a! ")
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Problems, 2)

	code, err := ValidateCode("  save_10 ")
	require.NoError(t, err)
	assert.Equal(t, "SAVE_10", code)
}

func TestService_ValidateFormatErrorSkipsGateway(t *testing.T) {
	gw := &GatewayMock{}
	_, err := NewService(gw).Validate(context.Background(), user, "x", decimal.NewFromInt(10))
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, gw.validateCalls)
}

func TestService_RejectionReasonFromGateway(t *testing.T) {
	tests := []struct {
		name   string
		err    *gateway.GatewayError
		reason string
	}{
		{"expired", &gateway.GatewayError{Status: 400, Code: "expired", Message: "Cupom expirado"}, ReasonExpired},
		{"below minimum", &gateway.GatewayError{Status: 400, Code: "below_minimum", Message: "Valor mínimo"}, ReasonBelowMinimum},
		{"usage", &gateway.GatewayError{Status: 409, Code: "usage_limit_reached", Message: "Esgotado"}, ReasonUsageLimit},
		{"not found", &gateway.GatewayError{Status: 404, Message: "Cupom não encontrado"}, ReasonInvalidCode},
		{"unknown code", &gateway.GatewayError{Status: 400, Code: "weird", Message: "?"}, ReasonRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &GatewayMock{validateErr: tt.err}
			_, err := NewService(gw).Validate(context.Background(), user, "SAVE5", decimal.NewFromInt(10))
			var rej *RejectedError
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, tt.reason, rej.Reason)
			assert.Equal(t, tt.err.Message, rej.Message)
		})
	}
}

func TestService_ServerErrorIsNotRejection(t *testing.T) {
	gw := &GatewayMock{validateErr: &gateway.GatewayError{Status: 500, Message: "boom"}}
	_, err := NewService(gw).Validate(context.Background(), user, "SAVE5", decimal.NewFromInt(10))
	var rej *RejectedError
	assert.False(t, errors.As(err, &rej))
	var gwErr *gateway.GatewayError
	assert.ErrorAs(t, err, &gwErr)
}

func TestFlow_TwoPhaseLifecycle(t *testing.T) {
	gw := &GatewayMock{
		validation: domain.CouponValidation{Code: "SAVE5", DiscountAmount: decimal.NewFromInt(5)},
		result:     domain.CouponResult{Code: "SAVE5", DiscountAmount: decimal.NewFromInt(5), FinalValue: decimal.RequireFromString("20.50")},
	}
	svc := NewService(gw)
	c := filledCart()
	var f Flow

	_, err := f.Apply(context.Background(), svc, user, c, "SAVE5", "key-1")
	require.ErrorIs(t, err, ErrNotValidated)
	assert.Zero(t, gw.applyCalls)

	_, err = f.Validate(context.Background(), svc, user, c, "save5")
	require.NoError(t, err)
	assert.Equal(t, StateValidated, f.State)
	assert.True(t, gw.lastValue.Equal(decimal.RequireFromString("25.50")))
	_, applied := c.AppliedCoupon()
	assert.False(t, applied, "validate must not touch the cart")

	_, err = f.Apply(context.Background(), svc, user, c, "SAVE5", "key-1")
	require.NoError(t, err)
	assert.Equal(t, StateApplied, f.State)
	assert.Equal(t, "key-1", gw.lastKey)
	assert.Equal(t, "20.50", c.Total().StringFixed(2))

	_, err = f.Validate(context.Background(), svc, user, c, "OTHER")
	assert.ErrorIs(t, err, cart.ErrCouponActive)
	_, err = f.Apply(context.Background(), svc, user, c, "OTHER", "key-1")
	assert.ErrorIs(t, err, cart.ErrCouponActive)
	assert.Equal(t, 1, gw.applyCalls)

	require.NoError(t, f.Remove(c))
	assert.Equal(t, StateNone, f.State)
	assert.Equal(t, "25.50", c.Total().StringFixed(2))
	assert.ErrorIs(t, f.Remove(c), ErrNoCoupon)
}

func TestFlow_FailedApplyResetsToNone(t *testing.T) {
	gw := &GatewayMock{
		validation: domain.CouponValidation{Code: "SAVE5"},
		applyErr:   &gateway.GatewayError{Status: 400, Code: "usage_limit_reached", Message: "Esgotado"},
	}
	svc := NewService(gw)
	c := filledCart()
	var f Flow

	_, err := f.Validate(context.Background(), svc, user, c, "SAVE5")
	require.NoError(t, err)
	_, err = f.Apply(context.Background(), svc, user, c, "SAVE5", "key-1")
	require.Error(t, err)

	assert.Equal(t, StateNone, f.State)
	_, applied := c.AppliedCoupon()
	assert.False(t, applied)
}

func TestFlow_ApplyRequiresSameCode(t *testing.T) {
	gw := &GatewayMock{validation: domain.CouponValidation{Code: "SAVE5"}}
	svc := NewService(gw)
	c := filledCart()
	var f Flow

	_, err := f.Validate(context.Background(), svc, user, c, "SAVE5")
	require.NoError(t, err)
	_, err = f.Apply(context.Background(), svc, user, c, "SAVE10", "key-1")
	assert.ErrorIs(t, err, ErrCodeMismatch)
	assert.Zero(t, gw.applyCalls)
	assert.Equal(t, StateValidated, f.State)
}

func TestFlow_FailedValidateLeavesNone(t *testing.T) {
	gw := &GatewayMock{validateErr: &gateway.GatewayError{Status: 404, Message: "nope"}}
	var f Flow
	f.State = StateValidated
	f.Pending = &domain.CouponValidation{Code: "OLD"}

	_, err := f.Validate(context.Background(), NewService(gw), user, filledCart(), "NEWONE")
	require.Error(t, err)
	assert.Equal(t, StateNone, f.State)
	assert.Nil(t, f.Pending)
}

func TestFlow_Reconcile(t *testing.T) {
	c := cart.New()
	f := Flow{State: StateApplied}
	f.Reconcile(c)
	assert.Equal(t, StateNone, f.State)

	require.NoError(t, c.ApplyCoupon(domain.CouponResult{Code: "X"}))
	f.Reconcile(c)
	assert.Equal(t, StateApplied, f.State)
}

func TestValidateDefinition(t *testing.T) {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	err := ValidateDefinition(domain.Coupon{
		Code:          "AB",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(150),
		MinOrderValue: decimal.NewFromInt(-1),
		StartDate:     &start,
		EndDate:       &end,
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Problems, 5)

	assert.NoError(t, ValidateDefinition(domain.Coupon{
		Code: "SAVE5", Name: "Five off", DiscountType: domain.DiscountFixed, DiscountValue: decimal.NewFromInt(5),
	}))
}

func TestStatusOf(t *testing.T) {
	now := time.Now()
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	assert.Equal(t, StatusInactive, StatusOf(domain.Coupon{IsActive: false}, now))
	assert.Equal(t, StatusNotStarted, StatusOf(domain.Coupon{IsActive: true, StartDate: &future}, now))
	assert.Equal(t, StatusExpired, StatusOf(domain.Coupon{IsActive: true, EndDate: &past}, now))
	assert.Equal(t, StatusExhausted, StatusOf(domain.Coupon{IsActive: true, UsageLimit: 3, UsedCount: 3}, now))
	assert.Equal(t, StatusActive, StatusOf(domain.Coupon{IsActive: true}, now))
}

func TestFormatAndEstimate(t *testing.T) {
	assert.Equal(t, "15%", FormatDiscount(domain.DiscountPercentage, decimal.NewFromInt(15)))
	assert.Equal(t, "$5.00", FormatDiscount(domain.DiscountFixed, decimal.NewFromInt(5)))

	limit := decimal.NewFromInt(10)
	pct := domain.Coupon{DiscountType: domain.DiscountPercentage, DiscountValue: decimal.NewFromInt(50), MaxDiscountAmount: &limit}
	assert.Equal(t, "10.00", EstimateDiscount(pct, decimal.NewFromInt(100)).StringFixed(2))
	fixed := domain.Coupon{DiscountType: domain.DiscountFixed, DiscountValue: decimal.NewFromInt(30)}
	assert.Equal(t, "20.00", EstimateDiscount(fixed, decimal.NewFromInt(20)).StringFixed(2))
}

type AdminGatewayMock struct {
	created int
	deleted []int64
}

func (m *AdminGatewayMock) Coupons(context.Context, string, int, int) ([]domain.Coupon, domain.Pagination, error) {
	return []domain.Coupon{{ID: 1, Code: "A"}}, domain.Pagination{Page: 1}, nil
}

func (m *AdminGatewayMock) Coupon(_ context.Context, _ string, id int64) (domain.Coupon, error) {
	return domain.Coupon{ID: id}, nil
}

func (m *AdminGatewayMock) CreateCoupon(_ context.Context, _ string, c domain.Coupon) (domain.Coupon, error) {
	m.created++
	c.ID = 9
	return c, nil
}

func (m *AdminGatewayMock) UpdateCoupon(_ context.Context, _ string, id int64, c domain.Coupon) (domain.Coupon, error) {
	c.ID = id
	return c, nil
}

func (m *AdminGatewayMock) DeleteCoupon(_ context.Context, _ string, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func TestAdmin_RequiresAdmin(t *testing.T) {
	gw := &AdminGatewayMock{}
	a := NewAdmin(gw)

	_, _, err := a.List(context.Background(), nil, 1, 10)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	_, _, err = a.List(context.Background(), user, 1, 10)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	admin := &domain.Identity{Token: "t", User: domain.User{ID: 2, Role: domain.RoleAdmin}}
	created, err := a.Create(context.Background(), admin, domain.Coupon{
		Code: "summer", Name: "Summer", DiscountType: domain.DiscountFixed, DiscountValue: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "SUMMER", created.Code)

	_, err = a.Create(context.Background(), admin, domain.Coupon{Code: "x"})
	require.Error(t, err)
	assert.Equal(t, 1, gw.created)

	require.NoError(t, a.Delete(context.Background(), admin, 4))
	assert.Equal(t, []int64{4}, gw.deleted)
}
