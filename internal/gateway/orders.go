package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type PurchaseRequest struct {
	UserID     int64
	ProductID  int64
	Quantity   int
	CouponCode string
}

// Purchase is the gateway's acknowledgement of one submitted line item.
type Purchase struct {
	ID         int64
	ProductID  int64
	Quantity   int
	TotalPrice decimal.Decimal
}

type purchaseBody struct {
	UserID     int64  `json:"user_id"`
	ProductID  int64  `json:"product_id"`
	Quantity   int    `json:"quantity"`
	CouponCode string `json:"coupon_code,omitempty"`
}

// CreatePurchase submits a single line item. Retrying with the same key is safe.
func (c *Client) CreatePurchase(ctx context.Context, token, idempotencyKey string, req PurchaseRequest) (Purchase, error) {
	var out purchaseResponse
	err := c.do(ctx, call{
		method:         http.MethodPost,
		path:           "/purchases",
		token:          token,
		idempotencyKey: idempotencyKey,
		body: purchaseBody{
			UserID:     req.UserID,
			ProductID:  req.ProductID,
			Quantity:   req.Quantity,
			CouponCode: req.CouponCode,
		},
		out: &out,
	})
	if err != nil {
		return Purchase{}, err
	}
	p := Purchase{ID: out.ID, ProductID: out.ProductID, Quantity: out.Quantity, TotalPrice: out.TotalPrice.Decimal}
	if p.ProductID == 0 {
		p.ProductID = req.ProductID
	}
	if p.Quantity == 0 {
		p.Quantity = req.Quantity
	}
	return p, nil
}

type OrderLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type OrderRequest struct {
	Items           []OrderLine `json:"items"`
	CouponCode      string      `json:"coupon_code,omitempty"`
	ShippingAddress string      `json:"shipping_address,omitempty"`
	PaymentMethod   string      `json:"payment_method,omitempty"`
	Notes           string      `json:"notes,omitempty"`
}

// CreateOrder submits the whole cart as one order.
func (c *Client) CreateOrder(ctx context.Context, token, idempotencyKey string, req OrderRequest) (domain.Order, error) {
	var out orderEnvelope
	err := c.do(ctx, call{
		method:         http.MethodPost,
		path:           "/orders",
		token:          token,
		idempotencyKey: idempotencyKey,
		body:           req,
		out:            &out,
	})
	if err != nil {
		return domain.Order{}, err
	}
	return out.Data.toDomain(), nil
}

type OrderQuery struct {
	Page     int
	PerPage  int
	Status   string
	Search   string
	DateFrom string
	DateTo   string
}

func (q OrderQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	setIf(v, "status", q.Status)
	setIf(v, "search", q.Search)
	setIf(v, "date_from", q.DateFrom)
	setIf(v, "date_to", q.DateTo)
	return v
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func (c *Client) UserPurchases(ctx context.Context, token string, q OrderQuery) ([]domain.Order, domain.Pagination, error) {
	var out orderPageEnvelope
	err := c.do(ctx, call{method: http.MethodGet, path: "/purchases/user", query: q.values(), token: token, out: &out})
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	orders := make([]domain.Order, 0, len(out.Data.Orders))
	for i := range out.Data.Orders {
		orders = append(orders, out.Data.Orders[i].toDomain())
	}
	return orders, out.Data.Pagination.toDomain(), nil
}

func (c *Client) PurchaseStats(ctx context.Context, token string) (domain.OrderStats, error) {
	var out orderStatsEnvelope
	if err := c.do(ctx, call{method: http.MethodGet, path: "/purchases/user/stats", token: token, out: &out}); err != nil {
		return domain.OrderStats{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) Order(ctx context.Context, token string, id int64) (domain.Order, error) {
	var out orderEnvelope
	if err := c.do(ctx, call{method: http.MethodGet, path: pathf("/orders/%s", id), token: token, out: &out}); err != nil {
		return domain.Order{}, err
	}
	return out.Data.toDomain(), nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token string, id int64, status domain.OrderStatus, notes string) (domain.Order, error) {
	var out orderEnvelope
	err := c.do(ctx, call{
		method: http.MethodPut,
		path:   pathf("/orders/%s/status", id),
		token:  token,
		body:   map[string]string{"status": string(status), "notes": notes},
		out:    &out,
	})
	if err != nil {
		return domain.Order{}, err
	}
	return out.Data.toDomain(), nil
}
