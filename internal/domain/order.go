package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type OrderItem struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// Order is a read-only projection of a gateway order. Status is kept verbatim, including
// values this client does not know yet.
type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Items           []OrderItem     `json:"items"`
	ItemsCount      int             `json:"items_count"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	ShippingAddress string          `json:"shipping_address,omitempty"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// FinalAmount is the total after discount, never below zero.
func (o Order) FinalAmount() decimal.Decimal {
	final := o.TotalAmount.Sub(o.DiscountAmount)
	if final.IsNegative() {
		return decimal.Zero
	}
	return final
}

type Pagination struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

type ProductQuantity struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type OrderStats struct {
	TotalOrders        int                 `json:"total_orders"`
	TotalSpent         decimal.Decimal     `json:"total_spent"`
	RecentOrders30Days int                 `json:"recent_orders_30_days"`
	MostBoughtProduct  ProductQuantity     `json:"most_bought_product"`
	StatusCounts       map[OrderStatus]int `json:"status_counts"`
}

// AverageOrderValue returns zero when there are no orders.
func (s OrderStats) AverageOrderValue() decimal.Decimal {
	if s.TotalOrders == 0 {
		return decimal.Zero
	}
	return s.TotalSpent.Div(decimal.NewFromInt(int64(s.TotalOrders))).Round(2)
}
