package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/gateway"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/reviews"
	"github.com/fjod/go_cart/storefront/internal/session"
)

var testProducts = map[int64]string{
	1: `{"id":1,"title":"Keyboard","price":10.00,"category":"peripherals"}`,
	2: `{"id":2,"title":"Mouse","price":15.50,"category":"peripherals"}`,
	3: `{"id":3,"title":"Cable","price":4.25,"category":"accessories"}`,
}

// testEnv is the storefront router wired to a fake gateway.
type testEnv struct {
	router    http.Handler
	gateway   *http.ServeMux
	gwServer  *httptest.Server
	store     *session.MemoryStore
	publisher *recordingPublisher

	mu    sync.Mutex
	calls map[string]int
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []checkout.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev checkout.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		gateway:   http.NewServeMux(),
		publisher: &recordingPublisher{},
		calls:     make(map[string]int),
	}
	env.gwServer = httptest.NewServer(env.countCalls(env.gateway))
	t.Cleanup(env.gwServer.Close)

	env.gateway.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"Invalid credentials"}`)
			return
		}
		role := "customer"
		if body.Username == "admin" {
			role = "admin"
		}
		fmt.Fprintf(w, `{"access_token":"token-%s","user":{"id":7,"username":%q,"role":%q}}`, body.Username, body.Username, role)
	})
	env.gateway.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "["+testProducts[1]+","+testProducts[2]+","+testProducts[3]+"]")
	})
	env.gateway.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		p, ok := testProducts[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"Product not found"}`)
			return
		}
		_, _ = io.WriteString(w, p)
	})

	gw := gateway.NewClient(gateway.Config{BaseURL: env.gwServer.URL, Timeout: 2 * time.Second})
	env.store = session.NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = env.store.Close() })

	env.router = NewRouter(Services{
		Store:       env.store,
		Auth:        gw,
		Catalog:     catalog.NewService(gw, time.Minute),
		Coupons:     coupon.NewService(gw),
		CouponAdmin: coupon.NewAdmin(gw),
		Checkout:    checkout.NewOrchestrator(gw, env.publisher, checkout.ModePerItem),
		Orders:      orders.NewService(gw),
		Reviews:     reviews.NewService(gw),
	}, RouterConfig{
		RequestTimeout:  2 * time.Second,
		CheckoutTimeout: 5 * time.Second,
		SessionTTL:      time.Hour,
		Logger:          zaptest.NewLogger(t),
	})
	return env
}

func (e *testEnv) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		e.calls[r.Method+" "+r.URL.Path]++
		e.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (e *testEnv) callCount(key string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[key]
}

func (e *testEnv) totalCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		n += c
	}
	return n
}

// do sends a request as the given session; an empty sid starts a new one.
func (e *testEnv) do(t *testing.T, method, path, sid string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			payload, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(payload)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.Header.Set(SessionHeader, sid)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// newSession opens a session and returns its id.
func (e *testEnv) newSession(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/api/v1/session", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sid := rec.Header().Get(SessionHeader)
	require.NotEmpty(t, sid)
	return sid
}

// login signs the session in and returns the id issued for it.
func (e *testEnv) login(t *testing.T, sid, username string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/session/login", sid, LoginRequestDTO{Username: username, Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	next := rec.Header().Get(SessionHeader)
	require.NotEmpty(t, next)
	return next
}

func (e *testEnv) addItems(t *testing.T, sid string, productIDs ...int64) {
	t.Helper()
	for _, id := range productIDs {
		rec := e.do(t, http.MethodPost, "/api/v1/cart/items", sid, AddItemRequestDTO{ProductID: id})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
