package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// money renders an amount as a JSON number with exactly two decimals.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

type userPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (p userPayload) toDomain() domain.User {
	return domain.User{ID: p.ID, Username: p.Username, Email: p.Email, Role: p.Role}
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	User        *userPayload `json:"user"`
}

func (r *loginResponse) validate() error {
	if strings.TrimSpace(r.AccessToken) == "" {
		return errors.New("missing access_token")
	}
	if r.User == nil || r.User.ID <= 0 {
		return errors.New("missing user")
	}
	return nil
}

type productPayload struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Price       decimal.NullDecimal `json:"price"`
	Image       string              `json:"image"`
	Rating      float64             `json:"rating"`
	CreatedAt   string              `json:"created_at"`
}

func (p *productPayload) validate() error {
	if p.ID <= 0 {
		return errors.New("product without id")
	}
	if strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product %d without title", p.ID)
	}
	if !p.Price.Valid {
		return fmt.Errorf("product %d without price", p.ID)
	}
	if p.Price.Decimal.IsNegative() {
		return fmt.Errorf("product %d with negative price", p.ID)
	}
	return nil
}

func (p *productPayload) toDomain() domain.Product {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = strings.TrimSpace(p.Name)
	}
	return domain.Product{
		ID:          p.ID,
		Title:       title,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price.Decimal,
		Image:       p.Image,
		Rating:      p.Rating,
		CreatedAt:   parseTime(p.CreatedAt),
	}
}

type productListResponse []productPayload

func (r *productListResponse) validate() error {
	for i := range *r {
		if err := (*r)[i].validate(); err != nil {
			return fmt.Errorf("products[%d]: %w", i, err)
		}
	}
	return nil
}

type paginationPayload struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

func (p *paginationPayload) validate() error {
	if p.Page < 0 || p.PerPage < 0 || p.Total < 0 || p.Pages < 0 {
		return errors.New("negative pagination field")
	}
	return nil
}

func (p *paginationPayload) toDomain() domain.Pagination {
	if p == nil {
		return domain.Pagination{}
	}
	return domain.Pagination(*p)
}

type purchaseResponse struct {
	ID         int64               `json:"id"`
	ProductID  int64               `json:"product_id"`
	Quantity   int                 `json:"quantity"`
	TotalPrice decimal.NullDecimal `json:"total_price"`
}

func (r *purchaseResponse) validate() error {
	if r.ID <= 0 {
		return errors.New("purchase without id")
	}
	return nil
}

type orderItemPayload struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type orderPayload struct {
	ID              int64               `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Status          string              `json:"status"`
	TotalAmount     decimal.NullDecimal `json:"total_amount"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	Items           []orderItemPayload  `json:"items"`
	ItemsCount      int                 `json:"items_count"`
	CreatedAt       string              `json:"created_at"`
	UpdatedAt       string              `json:"updated_at"`
	CouponCode      string              `json:"coupon_code"`
	ShippingAddress string              `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method"`
	Notes           string              `json:"notes"`
}

func (p *orderPayload) validate() error {
	if p.ID <= 0 {
		return errors.New("order without id")
	}
	if strings.TrimSpace(p.Status) == "" {
		return fmt.Errorf("order %d without status", p.ID)
	}
	if !p.TotalAmount.Valid {
		return fmt.Errorf("order %d without total_amount", p.ID)
	}
	return nil
}

func (p *orderPayload) toDomain() domain.Order {
	items := make([]domain.OrderItem, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, domain.OrderItem(it))
	}
	count := p.ItemsCount
	if count == 0 {
		count = len(items)
	}
	return domain.Order{
		ID:              p.ID,
		OrderNumber:     p.OrderNumber,
		Status:          domain.OrderStatus(strings.TrimSpace(p.Status)),
		TotalAmount:     p.TotalAmount.Decimal,
		DiscountAmount:  p.DiscountAmount,
		Items:           items,
		ItemsCount:      count,
		CreatedAt:       parseTime(p.CreatedAt),
		UpdatedAt:       parseTime(p.UpdatedAt),
		CouponCode:      p.CouponCode,
		ShippingAddress: p.ShippingAddress,
		PaymentMethod:   p.PaymentMethod,
		Notes:           p.Notes,
	}
}

// orderEnvelope is the {"data": order} shape of the order endpoints.
type orderEnvelope struct {
	Data *orderPayload `json:"data"`
}

func (e *orderEnvelope) validate() error {
	if e.Data == nil {
		return errors.New("missing data")
	}
	return e.Data.validate()
}

type orderPageEnvelope struct {
	Data *struct {
		Orders     []orderPayload     `json:"orders"`
		Pagination *paginationPayload `json:"pagination"`
	} `json:"data"`
}

func (e *orderPageEnvelope) validate() error {
	if e.Data == nil {
		return errors.New("missing data")
	}
	if e.Data.Pagination == nil {
		return errors.New("missing pagination")
	}
	for i := range e.Data.Orders {
		if err := e.Data.Orders[i].validate(); err != nil {
			return fmt.Errorf("orders[%d]: %w", i, err)
		}
	}
	return e.Data.Pagination.validate()
}

type orderStatsEnvelope struct {
	Data *struct {
		TotalOrders        int             `json:"total_orders"`
		TotalSpent         decimal.Decimal `json:"total_spent"`
		RecentOrders30Days int             `json:"recent_orders_30_days"`
		MostBoughtProduct  *struct {
			Name     string `json:"name"`
			Quantity int    `json:"quantity"`
		} `json:"most_bought_product"`
		StatusCounts map[string]int `json:"status_counts"`
	} `json:"data"`
}

func (e *orderStatsEnvelope) validate() error {
	if e.Data == nil {
		return errors.New("missing data")
	}
	if e.Data.TotalOrders < 0 {
		return errors.New("negative total_orders")
	}
	return nil
}

func (e *orderStatsEnvelope) toDomain() domain.OrderStats {
	d := e.Data
	stats := domain.OrderStats{
		TotalOrders:        d.TotalOrders,
		TotalSpent:         d.TotalSpent,
		RecentOrders30Days: d.RecentOrders30Days,
		StatusCounts:       make(map[domain.OrderStatus]int, len(d.StatusCounts)),
	}
	if d.MostBoughtProduct != nil {
		stats.MostBoughtProduct = domain.ProductQuantity{Name: d.MostBoughtProduct.Name, Quantity: d.MostBoughtProduct.Quantity}
	}
	for status, n := range d.StatusCounts {
		stats.StatusCounts[domain.OrderStatus(status)] = n
	}
	return stats
}

type couponResultResponse struct {
	Valid          *bool               `json:"valid"`
	CouponCode     string              `json:"coupon_code"`
	Code           string              `json:"code"`
	DiscountAmount decimal.NullDecimal `json:"discount_amount"`
	FinalValue     decimal.NullDecimal `json:"final_value"`
	Message        string              `json:"message"`
	Error          string              `json:"error"`
}

// rejected reports an explicit valid:false answer delivered with a 2xx status.
func (r *couponResultResponse) rejected() bool {
	return r.Valid != nil && !*r.Valid
}

func (r *couponResultResponse) validate() error {
	if r.rejected() {
		return nil
	}
	if !r.DiscountAmount.Valid {
		return errors.New("missing discount_amount")
	}
	if r.DiscountAmount.Decimal.IsNegative() {
		return errors.New("negative discount_amount")
	}
	if !r.FinalValue.Valid {
		return errors.New("missing final_value")
	}
	return nil
}

func (r *couponResultResponse) rejection() *GatewayError {
	msg := strings.TrimSpace(r.Error)
	if msg == "" {
		msg = strings.TrimSpace(r.Message)
	}
	if msg == "" {
		msg = "coupon rejected"
	}
	return &GatewayError{Status: 422, Code: strings.TrimSpace(r.Code), Message: msg}
}

type couponPayload struct {
	ID                int64               `json:"id"`
	Code              string              `json:"code"`
	Name              string              `json:"name"`
	Description       string              `json:"description"`
	DiscountType      string              `json:"discount_type"`
	DiscountValue     decimal.Decimal     `json:"discount_value"`
	MinOrderValue     decimal.Decimal     `json:"min_order_value"`
	MaxDiscountAmount decimal.NullDecimal `json:"max_discount_amount"`
	UsageLimit        int                 `json:"usage_limit"`
	UsedCount         int                 `json:"used_count"`
	IsActive          bool                `json:"is_active"`
	StartDate         string              `json:"start_date"`
	EndDate           string              `json:"end_date"`
}

func (p *couponPayload) validate() error {
	if p.ID <= 0 {
		return errors.New("coupon without id")
	}
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("coupon %d without code", p.ID)
	}
	return nil
}

func optionalTime(value string) *time.Time {
	ts := parseTime(value)
	if ts.IsZero() {
		return nil
	}
	return &ts
}

func (p *couponPayload) toDomain() domain.Coupon {
	c := domain.Coupon{
		ID:            p.ID,
		Code:          p.Code,
		Name:          p.Name,
		Description:   p.Description,
		DiscountType:  domain.DiscountType(p.DiscountType),
		DiscountValue: p.DiscountValue,
		MinOrderValue: p.MinOrderValue,
		UsageLimit:    p.UsageLimit,
		UsedCount:     p.UsedCount,
		IsActive:      p.IsActive,
		StartDate:     optionalTime(p.StartDate),
		EndDate:       optionalTime(p.EndDate),
	}
	if p.MaxDiscountAmount.Valid {
		limit := p.MaxDiscountAmount.Decimal
		c.MaxDiscountAmount = &limit
	}
	return c
}

type couponEnvelope struct {
	Coupon *couponPayload `json:"coupon"`
}

func (e *couponEnvelope) validate() error {
	if e.Coupon == nil {
		return errors.New("missing coupon")
	}
	return e.Coupon.validate()
}

type couponListResponse struct {
	Coupons    []couponPayload    `json:"coupons"`
	Pagination *paginationPayload `json:"pagination"`
}

func (r *couponListResponse) validate() error {
	for i := range r.Coupons {
		if err := r.Coupons[i].validate(); err != nil {
			return fmt.Errorf("coupons[%d]: %w", i, err)
		}
	}
	if r.Pagination != nil {
		return r.Pagination.validate()
	}
	return nil
}

type reviewPayload struct {
	ID                 int64  `json:"id"`
	ProductID          int64  `json:"product_id"`
	UserID             int64  `json:"user_id"`
	Username           string `json:"username"`
	Rating             int    `json:"rating"`
	Title              string `json:"title"`
	Comment            string `json:"comment"`
	HelpfulVotes       int    `json:"helpful_votes"`
	UnhelpfulVotes     int    `json:"unhelpful_votes"`
	IsVerifiedPurchase bool   `json:"is_verified_purchase"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

func (p *reviewPayload) validate() error {
	if p.ID <= 0 {
		return errors.New("review without id")
	}
	if p.Rating < 1 || p.Rating > 5 {
		return fmt.Errorf("review %d with rating %d", p.ID, p.Rating)
	}
	return nil
}

func (p *reviewPayload) toDomain() domain.Review {
	return domain.Review{
		ID:                 p.ID,
		ProductID:          p.ProductID,
		UserID:             p.UserID,
		Username:           p.Username,
		Rating:             p.Rating,
		Title:              p.Title,
		Comment:            p.Comment,
		HelpfulVotes:       p.HelpfulVotes,
		UnhelpfulVotes:     p.UnhelpfulVotes,
		IsVerifiedPurchase: p.IsVerifiedPurchase,
		CreatedAt:          parseTime(p.CreatedAt),
		UpdatedAt:          parseTime(p.UpdatedAt),
	}
}

func reviewsToDomain(in []reviewPayload) []domain.Review {
	out := make([]domain.Review, 0, len(in))
	for i := range in {
		out = append(out, in[i].toDomain())
	}
	return out
}

func validateReviews(in []reviewPayload) error {
	for i := range in {
		if err := in[i].validate(); err != nil {
			return fmt.Errorf("reviews[%d]: %w", i, err)
		}
	}
	return nil
}

type reviewStatsPayload struct {
	AverageRating          float64        `json:"average_rating"`
	TotalReviews           int            `json:"total_reviews"`
	RatingDistribution     map[string]int `json:"rating_distribution"`
	VerifiedPurchasesCount int            `json:"verified_purchases_count"`
}

func (p *reviewStatsPayload) validate() error {
	if p.TotalReviews < 0 {
		return errors.New("negative total_reviews")
	}
	if p.AverageRating < 0 || p.AverageRating > 5 {
		return fmt.Errorf("average_rating %v out of range", p.AverageRating)
	}
	for k := range p.RatingDistribution {
		if n, err := strconv.Atoi(k); err != nil || n < 1 || n > 5 {
			return fmt.Errorf("rating_distribution key %q", k)
		}
	}
	return nil
}

func (p *reviewStatsPayload) toDomain() domain.ReviewStats {
	dist := make(map[int]int, 5)
	for i := 1; i <= 5; i++ {
		dist[i] = 0
	}
	for k, n := range p.RatingDistribution {
		if r, err := strconv.Atoi(k); err == nil {
			dist[r] = n
		}
	}
	return domain.ReviewStats{
		AverageRating:          p.AverageRating,
		TotalReviews:           p.TotalReviews,
		RatingDistribution:     dist,
		VerifiedPurchasesCount: p.VerifiedPurchasesCount,
	}
}

type reviewPageResponse struct {
	Reviews    []reviewPayload     `json:"reviews"`
	Stats      *reviewStatsPayload `json:"stats"`
	Pagination *paginationPayload  `json:"pagination"`
}

func (r *reviewPageResponse) validate() error {
	if r.Reviews == nil {
		return errors.New("missing reviews")
	}
	if err := validateReviews(r.Reviews); err != nil {
		return err
	}
	if r.Stats != nil {
		if err := r.Stats.validate(); err != nil {
			return err
		}
	}
	if r.Pagination != nil {
		return r.Pagination.validate()
	}
	return nil
}

type reviewEnvelope struct {
	Review *reviewPayload `json:"review"`
}

func (e *reviewEnvelope) validate() error {
	if e.Review == nil {
		return errors.New("missing review")
	}
	return e.Review.validate()
}

type voteResponse struct {
	HelpfulVotes   *int `json:"helpful_votes"`
	UnhelpfulVotes *int `json:"unhelpful_votes"`
}

func (r *voteResponse) validate() error {
	if r.HelpfulVotes == nil || r.UnhelpfulVotes == nil {
		return errors.New("missing vote counters")
	}
	return nil
}

type eligibilityResponse struct {
	CanReview *bool  `json:"can_review"`
	Reason    string `json:"reason"`
}

func (r *eligibilityResponse) validate() error {
	if r.CanReview == nil {
		return errors.New("missing can_review")
	}
	return nil
}
