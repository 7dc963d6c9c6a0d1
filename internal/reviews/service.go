package reviews

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/gateway"
)

const DefaultPerPage = 10

type SortOrder string

const (
	SortNewest        SortOrder = "newest"
	SortOldest        SortOrder = "oldest"
	SortHighestRating SortOrder = "highest_rating"
	SortLowestRating  SortOrder = "lowest_rating"
	SortMostHelpful   SortOrder = "most_helpful"
)

func (s SortOrder) valid() bool {
	switch s {
	case SortNewest, SortOldest, SortHighestRating, SortLowestRating, SortMostHelpful:
		return true
	}
	return false
}

type Gateway interface {
	ProductReviews(ctx context.Context, token string, productID int64, q gateway.ReviewQuery) (gateway.ReviewPage, error)
	ReviewStats(ctx context.Context, productID int64) (domain.ReviewStats, error)
	CreateReview(ctx context.Context, token string, productID int64, draft domain.ReviewDraft) (domain.Review, error)
	UpdateReview(ctx context.Context, token string, reviewID int64, draft domain.ReviewDraft) (domain.Review, error)
	DeleteReview(ctx context.Context, token string, reviewID int64) error
	VoteReview(ctx context.Context, token string, reviewID int64, helpful bool) (domain.VoteCounts, error)
	UserReviews(ctx context.Context, token string, page, perPage int) ([]domain.Review, domain.Pagination, error)
	ReviewEligibility(ctx context.Context, token string, productID int64) (gateway.Eligibility, error)
}

// Filters narrow a product's reviews. Zero values mean "no filter".
type Filters struct {
	Page         int       `json:"page"`
	PerPage      int       `json:"per_page"`
	Rating       int       `json:"rating"`
	VerifiedOnly bool      `json:"verified_only"`
	SortBy       SortOrder `json:"sort_by"`
}

func (f Filters) validate() error {
	var problems []string
	if f.Page < 0 {
		problems = append(problems, "page must not be negative")
	}
	if f.PerPage < 0 || f.PerPage > 100 {
		problems = append(problems, "per_page must be between 1 and 100")
	}
	if f.Rating != 0 && (f.Rating < 1 || f.Rating > 5) {
		problems = append(problems, "rating filter must be between 1 and 5")
	}
	if f.SortBy != "" && !f.SortBy.valid() {
		problems = append(problems, fmt.Sprintf("unknown sort order %q", f.SortBy))
	}
	return domain.NewValidationError(problems)
}

type Page struct {
	Reviews    []domain.Review    `json:"reviews"`
	Stats      domain.ReviewStats `json:"stats"`
	Pagination domain.Pagination  `json:"pagination"`
}

type Eligibility struct {
	CanReview bool   `json:"can_review"`
	Reason    string `json:"reason,omitempty"`
}

type Service struct {
	gw Gateway
}

func NewService(gw Gateway) *Service {
	return &Service{gw: gw}
}

// Load returns one page of reviews with the product's aggregate stats.
// Stats are fetched separately when the page response omits them.
func (s *Service) Load(ctx context.Context, id *domain.Identity, productID int64, f Filters) (Page, error) {
	if err := f.validate(); err != nil {
		return Page{}, err
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.PerPage == 0 {
		f.PerPage = DefaultPerPage
	}
	res, err := s.gw.ProductReviews(ctx, tokenOf(id), productID, gateway.ReviewQuery{
		Page:         f.Page,
		PerPage:      f.PerPage,
		Rating:       f.Rating,
		VerifiedOnly: f.VerifiedOnly,
		SortBy:       string(f.SortBy),
	})
	if err != nil {
		return Page{}, fmt.Errorf("load reviews of product %d: %w", productID, err)
	}

	page := Page{Reviews: res.Reviews, Pagination: res.Pagination}
	if res.Stats != nil {
		page.Stats = *res.Stats
		return page, nil
	}
	if page.Stats, err = s.Stats(ctx, productID); err != nil {
		return Page{}, err
	}
	return page, nil
}

func (s *Service) Stats(ctx context.Context, productID int64) (domain.ReviewStats, error) {
	st, err := s.gw.ReviewStats(ctx, productID)
	if err != nil {
		return domain.ReviewStats{}, fmt.Errorf("load review stats of product %d: %w", productID, err)
	}
	return st, nil
}

// Submit reports every problem with the draft, then requires a login, before anything is sent.
func (s *Service) Submit(ctx context.Context, id *domain.Identity, productID int64, d domain.ReviewDraft) (domain.Review, error) {
	d = normalize(d)
	if err := Validate(d); err != nil {
		return domain.Review{}, err
	}
	if err := domain.RequireAuth(id); err != nil {
		return domain.Review{}, err
	}
	r, err := s.gw.CreateReview(ctx, id.Token, productID, d)
	if err != nil {
		return domain.Review{}, fmt.Errorf("create review: %w", err)
	}
	return r, nil
}

func (s *Service) Update(ctx context.Context, id *domain.Identity, reviewID int64, d domain.ReviewDraft) (domain.Review, error) {
	d = normalize(d)
	if err := Validate(d); err != nil {
		return domain.Review{}, err
	}
	if err := domain.RequireAuth(id); err != nil {
		return domain.Review{}, err
	}
	r, err := s.gw.UpdateReview(ctx, id.Token, reviewID, d)
	if err != nil {
		return domain.Review{}, fmt.Errorf("update review %d: %w", reviewID, err)
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, id *domain.Identity, reviewID int64) error {
	if err := domain.RequireAuth(id); err != nil {
		return err
	}
	if err := s.gw.DeleteReview(ctx, id.Token, reviewID); err != nil {
		return fmt.Errorf("delete review %d: %w", reviewID, err)
	}
	return nil
}

// Vote returns the counters as the gateway reports them after the vote.
func (s *Service) Vote(ctx context.Context, id *domain.Identity, reviewID int64, helpful bool) (domain.VoteCounts, error) {
	if err := domain.RequireAuth(id); err != nil {
		return domain.VoteCounts{}, err
	}
	v, err := s.gw.VoteReview(ctx, id.Token, reviewID, helpful)
	if err != nil {
		return domain.VoteCounts{}, fmt.Errorf("vote on review %d: %w", reviewID, err)
	}
	return v, nil
}

func (s *Service) Mine(ctx context.Context, id *domain.Identity, page int) ([]domain.Review, domain.Pagination, error) {
	if err := domain.RequireAuth(id); err != nil {
		return nil, domain.Pagination{}, err
	}
	if page < 1 {
		page = 1
	}
	reviews, p, err := s.gw.UserReviews(ctx, id.Token, page, DefaultPerPage)
	if err != nil {
		return nil, domain.Pagination{}, fmt.Errorf("load own reviews: %w", err)
	}
	return reviews, p, nil
}

// Eligibility reports whether the caller may review a product. Anonymous callers may not.
func (s *Service) Eligibility(ctx context.Context, id *domain.Identity, productID int64) (Eligibility, error) {
	if !id.Authenticated() {
		return Eligibility{CanReview: false, Reason: "login required"}, nil
	}
	e, err := s.gw.ReviewEligibility(ctx, id.Token, productID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("review eligibility of product %d: %w", productID, err)
	}
	return Eligibility{CanReview: e.CanReview, Reason: e.Reason}, nil
}

func tokenOf(id *domain.Identity) string {
	if id == nil {
		return ""
	}
	return id.Token
}
