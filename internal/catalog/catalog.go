package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type SortBy string

const (
	SortName      SortBy = "name"
	SortPriceAsc  SortBy = "price_asc"
	SortPriceDesc SortBy = "price_desc"
	SortRating    SortBy = "rating"
	SortNewest    SortBy = "newest"
)

type Gateway interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Product(ctx context.Context, id int64) (domain.Product, error)
}

type Query struct {
	Search string
	SortBy SortBy
}

// Service lists products. The full list is fetched once per TTL window and concurrent
// fetches collapse into one gateway call.
type Service struct {
	gw  Gateway
	ttl time.Duration
	now func() time.Time
	sfg singleflight.Group // Prevents stampedes on the products endpoint

	mu        sync.RWMutex
	products  []domain.Product
	fetchedAt time.Time
}

func NewService(gw Gateway, ttl time.Duration) *Service {
	return &Service{gw: gw, ttl: ttl, now: time.Now}
}

func (s *Service) List(ctx context.Context, q Query) ([]domain.Product, error) {
	switch q.SortBy {
	case "", SortName, SortPriceAsc, SortPriceDesc, SortRating, SortNewest:
	default:
		return nil, domain.NewValidationError([]string{fmt.Sprintf("unknown sort order %q", q.SortBy)})
	}

	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := Filter(all, q.Search)
	Sort(out, q.SortBy)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Product, error) {
	p, err := s.gw.Product(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("fetch product %d: %w", id, err)
	}
	return p, nil
}

func (s *Service) all(ctx context.Context) ([]domain.Product, error) {
	if cached, ok := s.cached(); ok {
		return cached, nil
	}
	v, err, _ := s.sfg.Do("products", func() (interface{}, error) {
		if cached, ok := s.cached(); ok {
			return cached, nil
		}
		products, err := s.gw.Products(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch products: %w", err)
		}
		s.mu.Lock()
		s.products = products
		s.fetchedAt = s.now()
		s.mu.Unlock()
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]domain.Product)), nil
}

func (s *Service) cached() ([]domain.Product, bool) {
	if s.ttl <= 0 {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.products == nil || s.now().Sub(s.fetchedAt) >= s.ttl {
		return nil, false
	}
	return slices.Clone(s.products), true
}

// Filter keeps products whose title, description or category contains the term, case-insensitively.
func Filter(products []domain.Product, term string) []domain.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return slices.Clone(products)
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), term) ||
			strings.Contains(strings.ToLower(p.Description), term) ||
			strings.Contains(strings.ToLower(p.Category), term) {
			out = append(out, p)
		}
	}
	return out
}

// Sort orders products in place. Ties keep their gateway order.
func Sort(products []domain.Product, by SortBy) {
	var cmp func(a, b domain.Product) int
	switch by {
	case SortName:
		cmp = func(a, b domain.Product) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case SortPriceAsc:
		cmp = func(a, b domain.Product) int { return a.Price.Cmp(b.Price) }
	case SortPriceDesc:
		cmp = func(a, b domain.Product) int { return b.Price.Cmp(a.Price) }
	case SortRating:
		cmp = func(a, b domain.Product) int {
			switch {
			case a.Rating > b.Rating:
				return -1
			case a.Rating < b.Rating:
				return 1
			}
			return 0
		}
	case SortNewest:
		cmp = func(a, b domain.Product) int { return b.CreatedAt.Compare(a.CreatedAt) }
	default:
		return
	}
	slices.SortStableFunc(products, cmp)
}
