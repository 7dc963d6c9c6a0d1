package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
)

const (
	defaultTimeout    = 10 * time.Second
	idempotencyHeader = "Idempotency-Key"
	maxErrorBody      = 4 << 10
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// MaxFailures consecutive transport or 5xx failures open the breaker. Zero disables it.
	MaxFailures    uint32
	BreakerReset   time.Duration
	OnBreakerState func(name, from, to string)
	// Transport defaults to http.DefaultTransport, always wrapped for tracing.
	Transport http.RoundTripper
}

// Client talks to the remote REST gateway. It owns the timeout policy for every call.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuitbreaker.Breaker
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(base),
		},
	}
	if cfg.MaxFailures > 0 {
		c.breaker = circuitbreaker.New(circuitbreaker.Settings{
			Name:          "gateway",
			MaxFailures:   cfg.MaxFailures,
			OpenTimeout:   cfg.BreakerReset,
			IsFailure:     isBreakerFailure,
			OnStateChange: cfg.OnBreakerState,
		})
	}
	return c
}

// BreakerState reports the circuit breaker state, or "disabled" without one.
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State()
}

// validator is implemented by every response schema.
type validator interface {
	validate() error
}

type call struct {
	method         string
	path           string
	query          url.Values
	token          string
	idempotencyKey string
	body           any
	// out receives the decoded body; nil discards it.
	out validator
}

func (c *Client) do(ctx context.Context, cl call) error {
	op := cl.method + " " + cl.path
	err := c.breaker.Do(func() error {
		return c.roundTrip(ctx, op, cl)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return &NetworkError{Op: op, Err: err}
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op string, cl call) error {
	endpoint := c.baseURL + cl.path
	if len(cl.query) > 0 {
		endpoint += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("gateway: encode %s: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("gateway: build %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	if cl.idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, cl.idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if cl.out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
		return &SchemaError{Endpoint: op, Problem: err.Error()}
	}
	if err := cl.out.validate(); err != nil {
		return &SchemaError{Endpoint: op, Problem: err.Error()}
	}
	return nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func decodeError(resp *http.Response) error {
	gwErr := &GatewayError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		gwErr.Code = strings.TrimSpace(eb.Code)
		gwErr.Message = strings.TrimSpace(eb.Error)
		if gwErr.Message == "" {
			gwErr.Message = strings.TrimSpace(eb.Message)
		}
	}
	if gwErr.Message == "" {
		gwErr.Message = genericMessage(resp.StatusCode)
	}
	return gwErr
}

func pathf(format string, args ...any) string {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = url.PathEscape(fmt.Sprint(a))
	}
	return fmt.Sprintf(format, escaped...)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
	"2006-01-02",
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}
