package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/gateway"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
)

func TestHandleError(t *testing.T) {
	item := cart.LineItem{ProductID: 2, Title: "Mouse", UnitPrice: decimal.RequireFromString("15.50"), Quantity: 1}
	stock := &gateway.GatewayError{Status: http.StatusConflict, Message: "Insufficient stock"}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.NewValidationError([]string{"rating must be between 1 and 5"}), http.StatusUnprocessableEntity, "validation_failed"},
		{"auth required", fmt.Errorf("list orders: %w", domain.ErrAuthRequired), http.StatusUnauthorized, "auth_required"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"coupon rejected", &coupon.RejectedError{Code: "OLD10", Reason: "expired", Message: "Coupon has expired"}, http.StatusUnprocessableEntity, "expired"},
		{"empty cart", checkout.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
		{"checkout in progress", checkout.ErrCheckoutInProgress, http.StatusConflict, "checkout_in_progress"},
		{"coupon active", cart.ErrCouponActive, http.StatusConflict, "coupon_active"},
		{"not validated", coupon.ErrNotValidated, http.StatusConflict, "coupon_not_validated"},
		{"code mismatch", coupon.ErrCodeMismatch, http.StatusConflict, "coupon_code_mismatch"},
		{"no coupon", coupon.ErrNoCoupon, http.StatusNotFound, "no_coupon"},
		{"session expired", session.ErrNotFound, http.StatusNotFound, "session_expired"},
		{"session conflict", session.ErrConflict, http.StatusConflict, "session_conflict"},
		{"schema", &gateway.SchemaError{Endpoint: "GET /products", Problem: "missing id"}, http.StatusBadGateway, "gateway_schema_mismatch"},
		{"gateway 5xx", &gateway.GatewayError{Status: http.StatusInternalServerError, Message: "boom"}, http.StatusBadGateway, "gateway_error"},
		{"gateway 401", &gateway.GatewayError{Status: http.StatusUnauthorized, Message: "Token expired"}, http.StatusUnauthorized, "auth_required"},
		{"gateway 404", &gateway.GatewayError{Status: http.StatusNotFound, Message: "Order not found"}, http.StatusNotFound, "not_found"},
		{"gateway coded", &gateway.GatewayError{Status: http.StatusConflict, Code: "already_reviewed", Message: "dup"}, http.StatusConflict, "already_reviewed"},
		{"gateway 409", stock, http.StatusConflict, "gateway_rejected"},
		{"network", &gateway.NetworkError{Op: "GET /products", Err: errors.New("connection refused")}, http.StatusServiceUnavailable, "gateway_unavailable"},
		{"breaker open", circuitbreaker.ErrOpen, http.StatusServiceUnavailable, "gateway_unavailable"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{"partial without submissions", &checkout.PartialError{Failed: item, Err: stock}, http.StatusConflict, "gateway_rejected"},
		{"partial", &checkout.PartialError{
			Failed:    item,
			Submitted: []checkout.Submission{{Item: cart.LineItem{ProductID: 1, UnitPrice: decimal.NewFromInt(10), Quantity: 1}, PurchaseID: 101}},
			Err:       stock,
		}, http.StatusConflict, "checkout_partial"},
		{"unknown", errors.New("something odd"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			resp := decodeBody[ErrorResponse](t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandleError_KeepsGatewayMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, httptest.NewRequest(http.MethodGet, "/", nil),
		&coupon.RejectedError{Code: "OLD10", Reason: "expired", Message: "Coupon OLD10 expired on 2024-01-01"})

	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "Coupon OLD10 expired on 2024-01-01", resp.Error)
}

func TestHandleError_ValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, httptest.NewRequest(http.MethodGet, "/", nil),
		domain.NewValidationError([]string{"username is required", "password is required"}))

	type validationBody struct {
		Details []string `json:"details"`
	}
	resp := decodeBody[validationBody](t, rec)
	require.Len(t, resp.Details, 2)
	assert.Equal(t, "username is required", resp.Details[0])
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"page=3", 3},
		{"page=0", 1},
		{"page=-2", 1},
		{"page=abc", 1},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		assert.Equal(t, tt.want, queryInt(r, "page", 1), tt.query)
	}
}
