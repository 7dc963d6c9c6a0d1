package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/orders"
)

type OrdersHandler struct {
	orders  *orders.Service
	timeout time.Duration
}

func NewOrdersHandler(svc *orders.Service, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  svc,
		timeout: timeout,
	}
}

type UpdateOrderStatusRequestDTO struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type OrderStatsResponse struct {
	domain.OrderStats
	TotalSpent        string `json:"total_spent"`
	AverageOrderValue string `json:"average_order_value"`
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	page, err := h.orders.FetchPage(ctx, getSessionFromContext(r.Context()).Identity, queryInt(r, "page", 1), orders.Filters{
		Status:   q.Get("status"),
		Search:   q.Get("search"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := ListResponse[orders.View]{
		Data:       make([]orders.View, 0, len(page.Orders)),
		Pagination: &page.Pagination,
	}
	for _, o := range page.Orders {
		resp.Data = append(resp.Data, orders.NewView(o))
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func (h *OrdersHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	stats, err := h.orders.Stats(ctx, getSessionFromContext(r.Context()).Identity)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, OrderStatsResponse{
		OrderStats:        stats,
		TotalSpent:        money(stats.TotalSpent),
		AverageOrderValue: money(stats.AverageOrderValue()),
	})
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_order_id", "order id must be a positive integer")
		return
	}

	o, err := h.orders.Detail(ctx, getSessionFromContext(r.Context()).Identity, orderID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, orders.NewView(o))
}

func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_order_id", "order id must be a positive integer")
		return
	}
	var req UpdateOrderStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	o, err := h.orders.UpdateStatus(ctx, getSessionFromContext(r.Context()).Identity, orderID, domain.OrderStatus(req.Status), req.Notes)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, orders.NewView(o))
}
