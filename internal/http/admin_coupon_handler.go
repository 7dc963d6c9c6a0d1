package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

const adminCouponsPerPage = 20

type AdminCouponHandler struct {
	admin   *coupon.Admin
	timeout time.Duration
	now     func() time.Time
}

func NewAdminCouponHandler(admin *coupon.Admin, timeout time.Duration) *AdminCouponHandler {
	return &AdminCouponHandler{
		admin:   admin,
		timeout: timeout,
		now:     time.Now,
	}
}

// CouponView is a definition decorated for the admin table.
type CouponView struct {
	domain.Coupon
	Status        coupon.Status `json:"status"`
	DiscountLabel string        `json:"discount_label"`
}

func (h *AdminCouponHandler) view(c domain.Coupon) CouponView {
	return CouponView{
		Coupon:        c,
		Status:        coupon.StatusOf(c, h.now()),
		DiscountLabel: coupon.FormatDiscount(c.DiscountType, c.DiscountValue),
	}
}

type CouponPreviewResponse struct {
	OrderValue string `json:"order_value"`
	Discount   string `json:"discount"`
	FinalValue string `json:"final_value"`
}

func (h *AdminCouponHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, pagination, err := h.admin.List(ctx, getSessionFromContext(r.Context()).Identity,
		queryInt(r, "page", 1), queryInt(r, "per_page", adminCouponsPerPage))
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := ListResponse[CouponView]{Data: make([]CouponView, 0, len(list)), Pagination: &pagination}
	for _, c := range list {
		resp.Data = append(resp.Data, h.view(c))
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func (h *AdminCouponHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	couponID, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_coupon_id", "coupon id must be a positive integer")
		return
	}
	c, err := h.admin.Get(ctx, getSessionFromContext(r.Context()).Identity, couponID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.view(c))
}

func (h *AdminCouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var def domain.Coupon
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	created, err := h.admin.Create(ctx, getSessionFromContext(r.Context()).Identity, def)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, h.view(created))
}

func (h *AdminCouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	couponID, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_coupon_id", "coupon id must be a positive integer")
		return
	}
	var def domain.Coupon
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	updated, err := h.admin.Update(ctx, getSessionFromContext(r.Context()).Identity, couponID, def)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.view(updated))
}

func (h *AdminCouponHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	couponID, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_coupon_id", "coupon id must be a positive integer")
		return
	}
	if err := h.admin.Delete(ctx, getSessionFromContext(r.Context()).Identity, couponID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preview estimates the discount a definition gives on an order value. The gateway's
// answer at validate time is authoritative.
func (h *AdminCouponHandler) Preview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	couponID, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_coupon_id", "coupon id must be a positive integer")
		return
	}
	orderValue, err := decimal.NewFromString(r.URL.Query().Get("order_value"))
	if err != nil || orderValue.IsNegative() {
		handleError(w, r, domain.NewValidationError([]string{"order_value must be a non-negative amount"}))
		return
	}

	c, err := h.admin.Get(ctx, getSessionFromContext(r.Context()).Identity, couponID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	discount := coupon.EstimateDiscount(c, orderValue)
	final := orderValue.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	respondJSON(w, r, http.StatusOK, CouponPreviewResponse{
		OrderValue: money(orderValue),
		Discount:   money(discount),
		FinalValue: money(final),
	})
}
