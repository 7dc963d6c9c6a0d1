package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/gateway"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{Error: message, Code: code})
}

// handleError maps the error taxonomy onto HTTP statuses.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *domain.ValidationError
		rejected   *coupon.RejectedError
		partial    *checkout.PartialError
		gwErr      *gateway.GatewayError
		netErr     *gateway.NetworkError
		schemaErr  *gateway.SchemaError
	)

	switch {
	case errors.As(err, &validation):
		respondJSON(w, r, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Code:    "validation_failed",
			Details: validation.Problems,
		})
	case errors.Is(err, domain.ErrAuthRequired):
		respondError(w, r, http.StatusUnauthorized, "auth_required", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		respondError(w, r, http.StatusForbidden, "forbidden", err.Error())
	case errors.As(err, &rejected):
		respondError(w, r, http.StatusUnprocessableEntity, rejected.Reason, rejected.Message)
	case errors.As(err, &partial) && len(partial.Submitted) == 0:
		handleError(w, r, partial.Err)
	case errors.As(err, &partial):
		respondJSON(w, r, http.StatusConflict, ErrorResponse{
			Error:   partial.Error(),
			Code:    "checkout_partial",
			Details: newPartialReport(partial),
		})
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, r, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		respondError(w, r, http.StatusConflict, "checkout_in_progress", err.Error())
	case errors.Is(err, cart.ErrCouponActive):
		respondError(w, r, http.StatusConflict, "coupon_active", err.Error())
	case errors.Is(err, coupon.ErrNotValidated):
		respondError(w, r, http.StatusConflict, "coupon_not_validated", err.Error())
	case errors.Is(err, coupon.ErrCodeMismatch):
		respondError(w, r, http.StatusConflict, "coupon_code_mismatch", err.Error())
	case errors.Is(err, coupon.ErrNoCoupon):
		respondError(w, r, http.StatusNotFound, "no_coupon", err.Error())
	case errors.Is(err, session.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "session_expired", err.Error())
	case errors.Is(err, session.ErrConflict):
		respondError(w, r, http.StatusConflict, "session_conflict", err.Error())
	case errors.As(err, &schemaErr):
		logger.FromContext(r.Context()).Error("gateway schema mismatch", zap.Error(err))
		respondError(w, r, http.StatusBadGateway, "gateway_schema_mismatch", "unexpected gateway response")
	case errors.As(err, &gwErr):
		handleGatewayError(w, r, gwErr)
	case errors.As(err, &netErr), errors.Is(err, circuitbreaker.ErrOpen):
		logger.FromContext(r.Context()).Warn("gateway unavailable", zap.Error(err))
		respondError(w, r, http.StatusServiceUnavailable, "gateway_unavailable", "gateway is unavailable, try again later")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logger.FromContext(r.Context()).Error("unhandled error", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func handleGatewayError(w http.ResponseWriter, r *http.Request, err *gateway.GatewayError) {
	if err.Status < 400 || err.Status >= 500 {
		logger.FromContext(r.Context()).Error("gateway error", zap.Int("gateway_status", err.Status), zap.Error(err))
		respondError(w, r, http.StatusBadGateway, "gateway_error", err.Message)
		return
	}

	code := err.Code
	if code == "" {
		switch {
		case err.Unauthorized():
			code = "auth_required"
		case err.Forbidden():
			code = "forbidden"
		case err.NotFound():
			code = "not_found"
		default:
			code = "gateway_rejected"
		}
	}
	respondError(w, r, err.Status, code, err.Message)
}

type partialReport struct {
	CheckoutID string          `json:"checkout_id,omitempty"`
	Failed     lineItemDTO     `json:"failed"`
	Reason     string          `json:"reason"`
	Submitted  []submissionDTO `json:"submitted"`
	Remaining  []lineItemDTO   `json:"remaining"`
	Cart       *CartResponse   `json:"cart,omitempty"`
}

func newPartialReport(p *checkout.PartialError) partialReport {
	report := partialReport{
		Failed:    newLineItemDTO(p.Failed),
		Reason:    p.Err.Error(),
		Submitted: make([]submissionDTO, 0, len(p.Submitted)),
		Remaining: make([]lineItemDTO, 0, len(p.Remaining)),
	}
	for _, s := range p.Submitted {
		report.Submitted = append(report.Submitted, newSubmissionDTO(s))
	}
	for _, item := range p.Remaining {
		report.Remaining = append(report.Remaining, newLineItemDTO(item))
	}
	return report
}

func parseIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt reads a positive integer query parameter; absent or malformed values yield def.
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}
