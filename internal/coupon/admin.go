package coupon

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// AdminGateway is the gateway's coupon administration surface.
type AdminGateway interface {
	Coupons(ctx context.Context, token string, page, perPage int) ([]domain.Coupon, domain.Pagination, error)
	Coupon(ctx context.Context, token string, id int64) (domain.Coupon, error)
	CreateCoupon(ctx context.Context, token string, c domain.Coupon) (domain.Coupon, error)
	UpdateCoupon(ctx context.Context, token string, id int64, c domain.Coupon) (domain.Coupon, error)
	DeleteCoupon(ctx context.Context, token string, id int64) error
}

// Admin manages coupon definitions on behalf of an admin identity.
type Admin struct {
	gw AdminGateway
}

func NewAdmin(gw AdminGateway) *Admin {
	return &Admin{gw: gw}
}

func (a *Admin) List(ctx context.Context, id *domain.Identity, page, perPage int) ([]domain.Coupon, domain.Pagination, error) {
	if err := domain.RequireAdmin(id); err != nil {
		return nil, domain.Pagination{}, err
	}
	if page < 1 {
		page = 1
	}
	return a.gw.Coupons(ctx, id.Token, page, perPage)
}

func (a *Admin) Get(ctx context.Context, id *domain.Identity, couponID int64) (domain.Coupon, error) {
	if err := domain.RequireAdmin(id); err != nil {
		return domain.Coupon{}, err
	}
	return a.gw.Coupon(ctx, id.Token, couponID)
}

func (a *Admin) Create(ctx context.Context, id *domain.Identity, c domain.Coupon) (domain.Coupon, error) {
	if err := domain.RequireAdmin(id); err != nil {
		return domain.Coupon{}, err
	}
	c.Code = NormalizeCode(c.Code)
	if err := ValidateDefinition(c); err != nil {
		return domain.Coupon{}, err
	}
	created, err := a.gw.CreateCoupon(ctx, id.Token, c)
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("create coupon: %w", err)
	}
	return created, nil
}

func (a *Admin) Update(ctx context.Context, id *domain.Identity, couponID int64, c domain.Coupon) (domain.Coupon, error) {
	if err := domain.RequireAdmin(id); err != nil {
		return domain.Coupon{}, err
	}
	c.Code = NormalizeCode(c.Code)
	if err := ValidateDefinition(c); err != nil {
		return domain.Coupon{}, err
	}
	updated, err := a.gw.UpdateCoupon(ctx, id.Token, couponID, c)
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("update coupon %d: %w", couponID, err)
	}
	return updated, nil
}

func (a *Admin) Delete(ctx context.Context, id *domain.Identity, couponID int64) error {
	if err := domain.RequireAdmin(id); err != nil {
		return err
	}
	if err := a.gw.DeleteCoupon(ctx, id.Token, couponID); err != nil {
		return fmt.Errorf("delete coupon %d: %w", couponID, err)
	}
	return nil
}
