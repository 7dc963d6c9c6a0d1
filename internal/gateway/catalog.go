package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (domain.Identity, error) {
	var out loginResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/login",
		body: map[string]string{
			"username": strings.TrimSpace(username),
			"password": password,
		},
		out: &out,
	})
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{Token: out.AccessToken, User: out.User.toDomain()}, nil
}

func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var out productListResponse
	if err := c.do(ctx, call{method: http.MethodGet, path: "/products", out: &out}); err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(out))
	for i := range out {
		products = append(products, out[i].toDomain())
	}
	return products, nil
}

func (c *Client) Product(ctx context.Context, id int64) (domain.Product, error) {
	var out productPayload
	if err := c.do(ctx, call{method: http.MethodGet, path: pathf("/products/%s", id), out: &out}); err != nil {
		return domain.Product{}, err
	}
	return out.toDomain(), nil
}
