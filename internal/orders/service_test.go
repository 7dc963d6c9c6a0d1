package orders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/gateway"
)

type GatewayMock struct {
	queries     []gateway.OrderQuery
	statusCalls int
	lastStatus  domain.OrderStatus
	orders      []domain.Order
	err         error
}

func (m *GatewayMock) UserPurchases(_ context.Context, _ string, q gateway.OrderQuery) ([]domain.Order, domain.Pagination, error) {
	m.queries = append(m.queries, q)
	return m.orders, domain.Pagination{Page: q.Page, PerPage: q.PerPage}, m.err
}

func (m *GatewayMock) PurchaseStats(context.Context, string) (domain.OrderStats, error) {
	return domain.OrderStats{TotalOrders: 2, TotalSpent: decimal.NewFromInt(30)}, m.err
}

func (m *GatewayMock) Order(_ context.Context, _ string, id int64) (domain.Order, error) {
	return domain.Order{ID: id}, m.err
}

func (m *GatewayMock) UpdateOrderStatus(_ context.Context, _ string, id int64, s domain.OrderStatus, _ string) (domain.Order, error) {
	m.statusCalls++
	m.lastStatus = s
	return domain.Order{ID: id, Status: s}, m.err
}

var (
	customer = &domain.Identity{Token: "t", User: domain.User{ID: 1}}
	admin    = &domain.Identity{Token: "t", User: domain.User{ID: 2, Role: domain.RoleAdmin}}
)

func TestFetchPage_BuildsQuery(t *testing.T) {
	gw := &GatewayMock{}
	svc := NewService(gw)

	_, err := svc.FetchPage(context.Background(), customer, 0, Filters{Status: "all", Search: " ORD-1 ", DateFrom: "2024-01-01"})
	require.NoError(t, err)

	require.Len(t, gw.queries, 1)
	q := gw.queries[0]
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.PerPage)
	assert.Empty(t, q.Status)
	assert.Equal(t, "ORD-1", q.Search)
	assert.Equal(t, "2024-01-01", q.DateFrom)
}

func TestFetchPage_InvalidDatesNoCall(t *testing.T) {
	gw := &GatewayMock{}
	svc := NewService(gw)

	_, err := svc.FetchPage(context.Background(), customer, 1, Filters{DateFrom: "2024-02-01", DateTo: "2024-01-01"})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Problems, 1)

	_, err = svc.FetchPage(context.Background(), customer, 1, Filters{DateFrom: "yesterday", DateTo: "01/02/2024"})
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Problems, 2)
	assert.Empty(t, gw.queries)
}

func TestFetchPage_RequiresAuth(t *testing.T) {
	gw := &GatewayMock{}
	_, err := NewService(gw).FetchPage(context.Background(), nil, 1, Filters{})
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Empty(t, gw.queries)
}

func TestUpdateStatus(t *testing.T) {
	gw := &GatewayMock{}
	svc := NewService(gw)

	_, err := svc.UpdateStatus(context.Background(), customer, 1, domain.OrderStatusShipped, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.UpdateStatus(context.Background(), admin, 1, "teleported", "")
	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Zero(t, gw.statusCalls)

	o, err := svc.UpdateStatus(context.Background(), admin, 1, " SHIPPED ", "via post")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, o.Status)
}

func TestStatusDisplayAndColor(t *testing.T) {
	for s := range statusDisplay {
		assert.NotEqual(t, string(s), StatusDisplay(s))
		assert.NotEqual(t, NeutralColor, StatusColor(s))
	}
	assert.Equal(t, "refunded", StatusDisplay("refunded"))
	assert.Equal(t, NeutralColor, StatusColor("refunded"))
}

func TestNewView(t *testing.T) {
	v := NewView(domain.Order{Status: domain.OrderStatusDelivered, TotalAmount: decimal.NewFromInt(10), DiscountAmount: decimal.NewFromInt(12)})
	assert.Equal(t, "0.00", v.FinalAmount)
	assert.Equal(t, "Delivered", v.StatusLabel)
	assert.Equal(t, "green", v.StatusColor)
}
