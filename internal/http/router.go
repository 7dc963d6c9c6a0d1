package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/reviews"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Services are the collaborators the routes dispatch to.
type Services struct {
	Store       session.Store
	Auth        Authenticator
	Catalog     *catalog.Service
	Coupons     *coupon.Service
	CouponAdmin *coupon.Admin
	Checkout    Checkouter
	Orders      *orders.Service
	Reviews     *reviews.Service
}

type RouterConfig struct {
	RequestTimeout  time.Duration
	CheckoutTimeout time.Duration
	SessionTTL      time.Duration
	Logger          *zap.Logger
	// HealthChecks run on every /health request; any failure turns it into a 503.
	HealthChecks map[string]func(context.Context) error
}

func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	sessionHandler := NewSessionHandler(svc.Store, svc.Auth, cfg.RequestTimeout, cfg.SessionTTL, cfg.CheckoutTimeout)
	productHandler := NewProductHandler(svc.Catalog, cfg.RequestTimeout)
	cartHandler := NewCartHandler(svc.Store, svc.Catalog, svc.Coupons, cfg.RequestTimeout, cfg.CheckoutTimeout)
	checkoutHandler := NewCheckoutHandler(svc.Store, svc.Checkout, cfg.CheckoutTimeout)
	ordersHandler := NewOrdersHandler(svc.Orders, cfg.RequestTimeout)
	reviewsHandler := NewReviewsHandler(svc.Reviews, cfg.RequestTimeout)
	adminHandler := NewAdminCouponHandler(svc.CouponAdmin, cfg.RequestTimeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(logger.Middleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxRequestBodySize))
	r.Use(middleware.Compress(5))

	r.Get("/health", healthHandler(cfg.HealthChecks))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(svc.Store, cfg.SessionTTL))

		// Checkout runs detached from the request and owns its own deadline.
		r.Post("/checkout", checkoutHandler.Checkout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.RequestTimeout))

			r.Route("/session", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Post("/login", sessionHandler.Login)
				r.Post("/logout", sessionHandler.Logout)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", productHandler.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", productHandler.Get)
					r.Get("/reviews", reviewsHandler.List)
					r.Post("/reviews", reviewsHandler.Create)
					r.Get("/reviews/stats", reviewsHandler.Stats)
					r.Get("/reviews/eligibility", reviewsHandler.Eligibility)
				})
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.Clear)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{product_id}", cartHandler.RemoveItem)
				r.Post("/coupon/validate", cartHandler.ValidateCoupon)
				r.Post("/coupon/apply", cartHandler.ApplyCoupon)
				r.Delete("/coupon", cartHandler.RemoveCoupon)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordersHandler.List)
				r.Get("/stats", ordersHandler.Stats)
				r.Get("/{id}", ordersHandler.Get)
				r.Put("/{id}/status", ordersHandler.UpdateStatus)
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/mine", reviewsHandler.Mine)
				r.Put("/{id}", reviewsHandler.Update)
				r.Delete("/{id}", reviewsHandler.Delete)
				r.Post("/{id}/helpful", reviewsHandler.Vote)
			})

			r.Route("/admin/coupons", func(r chi.Router) {
				r.Get("/", adminHandler.List)
				r.Post("/", adminHandler.Create)
				r.Get("/{id}", adminHandler.Get)
				r.Put("/{id}", adminHandler.Update)
				r.Delete("/{id}", adminHandler.Delete)
				r.Get("/{id}/preview", adminHandler.Preview)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		for name, check := range checks {
			if resp.Checks == nil {
				resp.Checks = make(map[string]string, len(checks))
			}
			if err := check(ctx); err != nil {
				logger.FromContext(r.Context()).Warn("health check failed", zap.String("check", name), zap.Error(err))
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		respondJSON(w, r, status, resp)
	}
}
