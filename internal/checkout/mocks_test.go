package checkout

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/gateway"
)

type MockGateway struct {
	// FailAt is the 1-based purchase call that fails; zero never fails.
	FailAt   int
	FailWith error
	// OnCall runs before each purchase is answered.
	OnCall func(n int)

	Purchases []gateway.PurchaseRequest
	Keys      []string
	Orders    []gateway.OrderRequest
	OrderErr  error
}

func (m *MockGateway) CreatePurchase(_ context.Context, _ string, key string, req gateway.PurchaseRequest) (gateway.Purchase, error) {
	m.Purchases = append(m.Purchases, req)
	m.Keys = append(m.Keys, key)
	n := len(m.Purchases)
	if m.OnCall != nil {
		m.OnCall(n)
	}
	if m.FailAt == n {
		return gateway.Purchase{}, m.FailWith
	}
	return gateway.Purchase{ID: int64(100 + n), ProductID: req.ProductID, Quantity: req.Quantity}, nil
}

func (m *MockGateway) CreateOrder(_ context.Context, _ string, _ string, req gateway.OrderRequest) (domain.Order, error) {
	m.Orders = append(m.Orders, req)
	if m.OrderErr != nil {
		return domain.Order{}, m.OrderErr
	}
	return domain.Order{ID: 55, Status: domain.OrderStatusPending}, nil
}

type MockPublisher struct {
	mu     sync.Mutex
	Events []Event
	Err    error
}

func (m *MockPublisher) Publish(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return m.Err
}
