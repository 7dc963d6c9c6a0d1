package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/reviews"
)

type ReviewsHandler struct {
	reviews *reviews.Service
	timeout time.Duration
}

func NewReviewsHandler(svc *reviews.Service, timeout time.Duration) *ReviewsHandler {
	return &ReviewsHandler{
		reviews: svc,
		timeout: timeout,
	}
}

type VoteRequestDTO struct {
	Helpful *bool `json:"helpful"`
}

// reviewFilters reads the list filters; malformed numbers are reported, not ignored.
func reviewFilters(r *http.Request) (reviews.Filters, error) {
	q := r.URL.Query()
	f := reviews.Filters{SortBy: reviews.SortOrder(q.Get("sort_by"))}

	var problems []string
	ints := []struct {
		name string
		dst  *int
	}{
		{"page", &f.Page},
		{"per_page", &f.PerPage},
		{"rating", &f.Rating},
	}
	for _, p := range ints {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s must be an integer", p.name))
			continue
		}
		*p.dst = v
	}
	if raw := q.Get("verified_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, "verified_only must be true or false")
		}
		f.VerifiedOnly = v
	}
	return f, domain.NewValidationError(problems)
}

func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}
	f, err := reviewFilters(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	page, err := h.reviews.Load(ctx, getSessionFromContext(r.Context()).Identity, productID, f)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if page.Reviews == nil {
		page.Reviews = []domain.Review{}
	}
	respondJSON(w, r, http.StatusOK, page)
}

func (h *ReviewsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}
	stats, err := h.reviews.Stats(ctx, productID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}

func (h *ReviewsHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}
	e, err := h.reviews.Eligibility(ctx, getSessionFromContext(r.Context()).Identity, productID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, e)
}

func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}
	var draft domain.ReviewDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	review, err := h.reviews.Submit(ctx, getSessionFromContext(r.Context()).Identity, productID, draft)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, review)
}

func (h *ReviewsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, pagination, err := h.reviews.Mine(ctx, getSessionFromContext(r.Context()).Identity, queryInt(r, "page", 1))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Review{}
	}
	respondJSON(w, r, http.StatusOK, ListResponse[domain.Review]{Data: list, Pagination: &pagination})
}

func (h *ReviewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reviewID, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_review_id", "review id must be a positive integer")
		return
	}
	var draft domain.ReviewDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	review, err := h.reviews.Update(ctx, getSessionFromContext(r.Context()).Identity, reviewID, draft)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, review)
}

func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reviewID, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_review_id", "review id must be a positive integer")
		return
	}
	if err := h.reviews.Delete(ctx, getSessionFromContext(r.Context()).Identity, reviewID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReviewsHandler) Vote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reviewID, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid_review_id", "review id must be a positive integer")
		return
	}
	var req VoteRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Helpful == nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "helpful must be true or false")
		return
	}

	counts, err := h.reviews.Vote(ctx, getSessionFromContext(r.Context()).Identity, reviewID, *req.Helpful)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, counts)
}
