package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type ReviewQuery struct {
	Page         int
	PerPage      int
	Rating       int
	VerifiedOnly bool
	SortBy       string
}

func (q ReviewQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Rating > 0 {
		v.Set("rating", strconv.Itoa(q.Rating))
	}
	if q.VerifiedOnly {
		v.Set("verified_only", "true")
	}
	setIf(v, "sort_by", q.SortBy)
	return v
}

type ReviewPage struct {
	Reviews    []domain.Review
	Stats      *domain.ReviewStats
	Pagination domain.Pagination
}

type Eligibility struct {
	CanReview bool
	Reason    string
}

func (c *Client) ProductReviews(ctx context.Context, token string, productID int64, q ReviewQuery) (ReviewPage, error) {
	var out reviewPageResponse
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   pathf("/products/%s/reviews", productID),
		query:  q.values(),
		token:  token,
		out:    &out,
	})
	if err != nil {
		return ReviewPage{}, err
	}
	page := ReviewPage{
		Reviews:    reviewsToDomain(out.Reviews),
		Pagination: out.Pagination.toDomain(),
	}
	if out.Stats != nil {
		stats := out.Stats.toDomain()
		page.Stats = &stats
	}
	return page, nil
}

func (c *Client) ReviewStats(ctx context.Context, productID int64) (domain.ReviewStats, error) {
	var out reviewStatsPayload
	if err := c.do(ctx, call{method: http.MethodGet, path: pathf("/products/%s/reviews/stats", productID), out: &out}); err != nil {
		return domain.ReviewStats{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) CreateReview(ctx context.Context, token string, productID int64, draft domain.ReviewDraft) (domain.Review, error) {
	var out reviewEnvelope
	err := c.do(ctx, call{method: http.MethodPost, path: pathf("/products/%s/reviews", productID), token: token, body: draft, out: &out})
	if err != nil {
		return domain.Review{}, err
	}
	return out.Review.toDomain(), nil
}

func (c *Client) UpdateReview(ctx context.Context, token string, reviewID int64, draft domain.ReviewDraft) (domain.Review, error) {
	var out reviewEnvelope
	err := c.do(ctx, call{method: http.MethodPut, path: pathf("/reviews/%s", reviewID), token: token, body: draft, out: &out})
	if err != nil {
		return domain.Review{}, err
	}
	return out.Review.toDomain(), nil
}

func (c *Client) DeleteReview(ctx context.Context, token string, reviewID int64) error {
	return c.do(ctx, call{method: http.MethodDelete, path: pathf("/reviews/%s", reviewID), token: token})
}

func (c *Client) VoteReview(ctx context.Context, token string, reviewID int64, helpful bool) (domain.VoteCounts, error) {
	var out voteResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   pathf("/reviews/%s/helpful", reviewID),
		token:  token,
		body:   map[string]bool{"is_helpful": helpful},
		out:    &out,
	})
	if err != nil {
		return domain.VoteCounts{}, err
	}
	return domain.VoteCounts{HelpfulVotes: *out.HelpfulVotes, UnhelpfulVotes: *out.UnhelpfulVotes}, nil
}

func (c *Client) UserReviews(ctx context.Context, token string, page, perPage int) ([]domain.Review, domain.Pagination, error) {
	var out reviewPageResponse
	q := ReviewQuery{Page: page, PerPage: perPage}.values()
	if err := c.do(ctx, call{method: http.MethodGet, path: "/reviews/user", query: q, token: token, out: &out}); err != nil {
		return nil, domain.Pagination{}, err
	}
	return reviewsToDomain(out.Reviews), out.Pagination.toDomain(), nil
}

// ReviewEligibility asks whether the caller may review the product.
func (c *Client) ReviewEligibility(ctx context.Context, token string, productID int64) (Eligibility, error) {
	var out eligibilityResponse
	err := c.do(ctx, call{method: http.MethodGet, path: pathf("/products/%s/reviews/eligibility", productID), token: token, out: &out})
	if err != nil {
		return Eligibility{}, err
	}
	return Eligibility{CanReview: *out.CanReview, Reason: out.Reason}, nil
}
