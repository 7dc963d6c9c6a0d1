package coupon

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/gateway"
)

// Rejection reasons reported by the gateway's "code" field.
const (
	ReasonInvalidCode  = "invalid_code"
	ReasonExpired      = "expired"
	ReasonNotStarted   = "not_started"
	ReasonBelowMinimum = "below_minimum"
	ReasonUsageLimit   = "usage_limit_reached"
	ReasonInactive     = "inactive"
	ReasonRejected     = "rejected"
)

var knownReasons = map[string]struct{}{
	ReasonInvalidCode:  {},
	ReasonExpired:      {},
	ReasonNotStarted:   {},
	ReasonBelowMinimum: {},
	ReasonUsageLimit:   {},
	ReasonInactive:     {},
}

var (
	ErrNotValidated = errors.New("coupon must be validated before it is applied")
	ErrCodeMismatch = errors.New("coupon code differs from the validated one")
	ErrNoCoupon     = errors.New("no coupon is applied")
)

// RejectedError is the gateway refusing a coupon. Message is the gateway's own text.
type RejectedError struct {
	Code    string
	Reason  string
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("coupon %s rejected (%s): %s", e.Code, e.Reason, e.Message)
}

// asRejection turns 4xx gateway answers into a RejectedError; other errors pass through.
func asRejection(code string, err error) error {
	var gwErr *gateway.GatewayError
	if !errors.As(err, &gwErr) {
		return err
	}
	if gwErr.Status < http.StatusBadRequest || gwErr.Status >= http.StatusInternalServerError ||
		gwErr.Unauthorized() || gwErr.Forbidden() {
		return err
	}
	reason := ReasonRejected
	if _, ok := knownReasons[gwErr.Code]; ok {
		reason = gwErr.Code
	} else if gwErr.NotFound() {
		reason = ReasonInvalidCode
	}
	return &RejectedError{Code: code, Reason: reason, Message: gwErr.Message}
}
