package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// GatewayError is any non-success response. Message is the server's own text when it sent one.
type GatewayError struct {
	Status  int
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway: status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("gateway: status %d: %s", e.Status, e.Message)
}

func (e *GatewayError) Unauthorized() bool { return e.Status == http.StatusUnauthorized }

func (e *GatewayError) Forbidden() bool { return e.Status == http.StatusForbidden }

func (e *GatewayError) NotFound() bool { return e.Status == http.StatusNotFound }

// NetworkError means the request never produced a response: transport failure, timeout or an open breaker.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SchemaError is returned when a response body does not match the endpoint's schema.
type SchemaError struct {
	Endpoint string
	Problem  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("gateway: unexpected response from %s: %s", e.Endpoint, e.Problem)
}

func genericMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("gateway request failed: %s", text)
	}
	return fmt.Sprintf("gateway request failed with status %d", status)
}

// isBreakerFailure counts transport failures and 5xx responses against the breaker.
// Rejections (4xx) and caller cancellation say nothing about gateway health.
func isBreakerFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Status >= http.StatusInternalServerError
	}
	return false
}
