package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/gateway"
)

const PageSize = 10

const dateLayout = "2006-01-02"

type Gateway interface {
	UserPurchases(ctx context.Context, token string, q gateway.OrderQuery) ([]domain.Order, domain.Pagination, error)
	PurchaseStats(ctx context.Context, token string) (domain.OrderStats, error)
	Order(ctx context.Context, token string, id int64) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, token string, id int64, status domain.OrderStatus, notes string) (domain.Order, error)
}

// Filters narrow the order history. Dates use the YYYY-MM-DD form.
type Filters struct {
	Status   string `json:"status"`
	Search   string `json:"search"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

type Page struct {
	Orders     []domain.Order    `json:"orders"`
	Pagination domain.Pagination `json:"pagination"`
}

// Service is a read view over the caller's order history. Nothing is cached between pages.
type Service struct {
	gw Gateway
}

func NewService(gw Gateway) *Service {
	return &Service{gw: gw}
}

func (s *Service) FetchPage(ctx context.Context, id *domain.Identity, page int, f Filters) (Page, error) {
	if err := domain.RequireAuth(id); err != nil {
		return Page{}, err
	}
	q, err := f.query(page)
	if err != nil {
		return Page{}, err
	}
	orders, pagination, err := s.gw.UserPurchases(ctx, id.Token, q)
	if err != nil {
		return Page{}, fmt.Errorf("fetch orders page %d: %w", q.Page, err)
	}
	return Page{Orders: orders, Pagination: pagination}, nil
}

func (f Filters) query(page int) (gateway.OrderQuery, error) {
	if page < 1 {
		page = 1
	}
	q := gateway.OrderQuery{
		Page:    page,
		PerPage: PageSize,
		Search:  strings.TrimSpace(f.Search),
	}
	status := strings.ToLower(strings.TrimSpace(f.Status))
	if status != "" && status != "all" {
		q.Status = status
	}

	var problems []string
	from, fromErr := parseDate(f.DateFrom)
	if fromErr != nil {
		problems = append(problems, "date_from must be a YYYY-MM-DD date")
	}
	to, toErr := parseDate(f.DateTo)
	if toErr != nil {
		problems = append(problems, "date_to must be a YYYY-MM-DD date")
	}
	if fromErr == nil && toErr == nil && !from.IsZero() && !to.IsZero() && from.After(to) {
		problems = append(problems, "date_from must not be after date_to")
	}
	if err := domain.NewValidationError(problems); err != nil {
		return gateway.OrderQuery{}, err
	}
	if !from.IsZero() {
		q.DateFrom = from.Format(dateLayout)
	}
	if !to.IsZero() {
		q.DateTo = to.Format(dateLayout)
	}
	return q, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

func (s *Service) Detail(ctx context.Context, id *domain.Identity, orderID int64) (domain.Order, error) {
	if err := domain.RequireAuth(id); err != nil {
		return domain.Order{}, err
	}
	o, err := s.gw.Order(ctx, id.Token, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("fetch order %d: %w", orderID, err)
	}
	return o, nil
}

func (s *Service) Stats(ctx context.Context, id *domain.Identity) (domain.OrderStats, error) {
	if err := domain.RequireAuth(id); err != nil {
		return domain.OrderStats{}, err
	}
	st, err := s.gw.PurchaseStats(ctx, id.Token)
	if err != nil {
		return domain.OrderStats{}, fmt.Errorf("fetch order stats: %w", err)
	}
	return st, nil
}

// UpdateStatus is an admin transition. Unknown target statuses are rejected locally.
func (s *Service) UpdateStatus(ctx context.Context, id *domain.Identity, orderID int64, status domain.OrderStatus, notes string) (domain.Order, error) {
	if err := domain.RequireAdmin(id); err != nil {
		return domain.Order{}, err
	}
	status = domain.OrderStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if _, ok := statusDisplay[status]; !ok {
		return domain.Order{}, domain.NewValidationError([]string{fmt.Sprintf("unknown order status %q", status)})
	}
	o, err := s.gw.UpdateOrderStatus(ctx, id.Token, orderID, status, strings.TrimSpace(notes))
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order %d status: %w", orderID, err)
	}
	return o, nil
}
