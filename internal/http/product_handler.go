package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

type ProductHandler struct {
	catalog *catalog.Service
	timeout time.Duration
}

func NewProductHandler(c *catalog.Service, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: c,
		timeout: timeout,
	}
}

type ProductDTO struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       string  `json:"price"`
	Image       string  `json:"image,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
}

func newProductDTO(p domain.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Price:       money(p.Price),
		Image:       p.Image,
		Rating:      p.Rating,
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.List(ctx, catalog.Query{
		Search: r.URL.Query().Get("search"),
		SortBy: catalog.SortBy(r.URL.Query().Get("sort")),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := ListResponse[ProductDTO]{Data: make([]ProductDTO, 0, len(products))}
	for _, p := range products {
		resp.Data = append(resp.Data, newProductDTO(p))
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}

	p, err := h.catalog.Get(ctx, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, newProductDTO(p))
}
