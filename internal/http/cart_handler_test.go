package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/session"
)

func TestCartHandler_AddItem(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", sid, AddItemRequestDTO{ProductID: 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cart := decodeBody[CartResponse](t, rec)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Keyboard", cart.Items[0].Title)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	require.NotNil(t, cart.Notice)
	assert.Equal(t, "success", string(cart.Notice.Kind))

	rec = env.do(t, http.MethodPost, "/api/v1/cart/items", sid, AddItemRequestDTO{ProductID: 1})
	cart = decodeBody[CartResponse](t, rec)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "20.00", cart.Subtotal)
}

func TestCartHandler_AddItem_Validation(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"invalid json", `{"product_id":`, http.StatusBadRequest, "invalid_request"},
		{"zero product", AddItemRequestDTO{ProductID: 0}, http.StatusBadRequest, "invalid_product_id"},
		{"unknown product", AddItemRequestDTO{ProductID: 99}, http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/cart/items", sid, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeBody[ErrorResponse](t, rec).Code)
		})
	}

	sess, err := env.store.Get(context.Background(), sid)
	require.NoError(t, err)
	assert.True(t, sess.Cart.IsEmpty())
}

func TestCartHandler_QuantityAndRemoval(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)
	env.addItems(t, sid, 1, 2)

	rec := env.do(t, http.MethodGet, "/api/v1/cart", sid, nil)
	cart := decodeBody[CartResponse](t, rec)
	assert.Equal(t, "25.50", cart.Subtotal)
	assert.Equal(t, 2, cart.Count)

	rec = env.do(t, http.MethodPut, "/api/v1/cart/items/2", sid, map[string]int{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	cart = decodeBody[CartResponse](t, rec)
	assert.Equal(t, "56.50", cart.Subtotal)

	// Zero removes the item.
	rec = env.do(t, http.MethodPut, "/api/v1/cart/items/1", sid, map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	cart = decodeBody[CartResponse](t, rec)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(2), cart.Items[0].ProductID)

	// Unknown product is a no-op.
	rec = env.do(t, http.MethodPut, "/api/v1/cart/items/42", sid, map[string]int{"quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[CartResponse](t, rec).Items, 1)

	rec = env.do(t, http.MethodPut, "/api/v1/cart/items/2", sid, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/2", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cart = decodeBody[CartResponse](t, rec)
	assert.Empty(t, cart.Items)
	require.NotNil(t, cart.Notice)

	// Removing again is idempotent and says nothing.
	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/2", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeBody[CartResponse](t, rec).Notice)
}

func TestCartHandler_ClearResetsCoupon(t *testing.T) {
	env := newTestEnv(t)
	registerCouponEndpoints(env, nil)
	sid := env.newSession(t)
	env.addItems(t, sid, 1)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/coupon/validate", sid, CouponRequestDTO{Code: "SAVE5"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/v1/cart", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decodeBody[CartResponse](t, rec)
	assert.Empty(t, cart.Items)
	assert.Equal(t, coupon.StateNone, cart.CouponState)
	assert.Nil(t, cart.PendingCoupon)
}

// registerCouponEndpoints fakes validate and apply for SAVE5 (5.00 off); apply records the
// idempotency key it was sent.
func registerCouponEndpoints(env *testEnv, applyKeys *[]string) {
	result := func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Code       string      `json:"code"`
			OrderValue json.Number `json:"order_value"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch body.Code {
		case "SAVE5":
			writeJSON(w, http.StatusOK, `{"valid":true,"coupon_code":"SAVE5","discount_amount":5.00,"final_value":20.50,"message":"You save $5.00"}`)
		case "OLD10":
			writeJSON(w, http.StatusBadRequest, `{"error":"This coupon has expired","code":"expired"}`)
		default:
			writeJSON(w, http.StatusOK, `{"valid":false,"error":"Invalid coupon code","code":"invalid_code"}`)
		}
	}
	env.gateway.HandleFunc("POST /coupons/validate", result)
	env.gateway.HandleFunc("POST /coupons/apply", func(w http.ResponseWriter, r *http.Request) {
		if applyKeys != nil {
			env.mu.Lock()
			*applyKeys = append(*applyKeys, r.Header.Get("Idempotency-Key"))
			env.mu.Unlock()
		}
		result(w, r)
	})
}

func TestCartHandler_CouponFlow(t *testing.T) {
	env := newTestEnv(t)
	var keys []string
	registerCouponEndpoints(env, &keys)
	sid := env.newSession(t)
	env.addItems(t, sid, 1, 2)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/coupon/validate", sid, CouponRequestDTO{Code: " save5 "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cart := decodeBody[CartResponse](t, rec)
	assert.Equal(t, coupon.StateValidated, cart.CouponState)
	require.NotNil(t, cart.PendingCoupon)
	assert.Equal(t, "5.00", cart.PendingCoupon.DiscountAmount)
	// Validation never touches the totals.
	assert.Equal(t, "25.50", cart.Total)
	assert.Nil(t, cart.Coupon)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/coupon/apply", sid, CouponRequestDTO{Code: "SAVE5"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cart = decodeBody[CartResponse](t, rec)
	assert.Equal(t, coupon.StateApplied, cart.CouponState)
	require.NotNil(t, cart.Coupon)
	assert.Equal(t, "SAVE5", cart.Coupon.Code)
	assert.Equal(t, "25.50", cart.Subtotal)
	assert.Equal(t, "5.00", cart.Discount)
	assert.Equal(t, "20.50", cart.Total)
	env.mu.Lock()
	sent := append([]string(nil), keys...)
	env.mu.Unlock()
	require.Len(t, sent, 1)
	assert.NotEmpty(t, sent[0])

	// A second coupon is refused while one is applied.
	rec = env.do(t, http.MethodPost, "/api/v1/cart/coupon/validate", sid, CouponRequestDTO{Code: "SAVE5"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "coupon_active", decodeBody[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/coupon", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cart = decodeBody[CartResponse](t, rec)
	assert.Equal(t, coupon.StateNone, cart.CouponState)
	assert.Equal(t, "25.50", cart.Total)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/coupon", sid, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_coupon", decodeBody[ErrorResponse](t, rec).Code)
}

func TestCartHandler_CouponRejections(t *testing.T) {
	env := newTestEnv(t)
	registerCouponEndpoints(env, nil)
	sid := env.newSession(t)
	env.addItems(t, sid, 1)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/coupon/validate", sid, CouponRequestDTO{Code: "SAVE5"})
	require.Equal(t, http.StatusOK, rec.Code)

	// A failed validate resets a pending proposal to NONE.
	rec = env.do(t, http.MethodPost, "/api/v1/cart/coupon/validate", sid, CouponRequestDTO{Code: "OLD10"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errResp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "expired", errResp.Code)
	assert.Equal(t, "This coupon has expired", errResp.Error)

	sess, err := env.store.Get(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, coupon.StateNone, sess.Coupon.State)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/coupon/validate", sid, CouponRequestDTO{Code: "NOPE1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_code", decodeBody[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/coupon/validate", sid, CouponRequestDTO{Code: "a!"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_failed", decodeBody[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/coupon/apply", sid, CouponRequestDTO{Code: "SAVE5"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "coupon_not_validated", decodeBody[ErrorResponse](t, rec).Code)
	assert.Zero(t, env.callCount("POST /coupons/apply"))
}

func TestCartHandler_ApplyRequiresSameCode(t *testing.T) {
	env := newTestEnv(t)
	registerCouponEndpoints(env, nil)
	sid := env.newSession(t)
	env.addItems(t, sid, 1)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/coupon/validate", sid, CouponRequestDTO{Code: "SAVE5"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/coupon/apply", sid, CouponRequestDTO{Code: "OTHER"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "coupon_code_mismatch", decodeBody[ErrorResponse](t, rec).Code)

	// An empty body applies the pending code.
	rec = env.do(t, http.MethodPost, "/api/v1/cart/coupon/apply", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, coupon.StateApplied, decodeBody[CartResponse](t, rec).CouponState)
}

func TestCartHandler_RejectsChangesDuringCheckout(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t)
	env.addItems(t, sid, 1)

	_, err := env.store.Update(context.Background(), sid, func(s *session.Session) error {
		return s.BeginCheckout(time.Now(), time.Minute)
	})
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", sid, AddItemRequestDTO{ProductID: 2})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "checkout_in_progress", decodeBody[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart", sid, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	sess, err := env.store.Get(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Cart.Len())
}
