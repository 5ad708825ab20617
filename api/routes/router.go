package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stylebazaar/stylebazaar-backend/api/controllers"
	cartcontrollers "github.com/stylebazaar/stylebazaar-backend/api/controllers/cart"
	ordercontrollers "github.com/stylebazaar/stylebazaar-backend/api/controllers/orders"
	"github.com/stylebazaar/stylebazaar-backend/api/middleware"
	"github.com/stylebazaar/stylebazaar-backend/internal/cart"
	"github.com/stylebazaar/stylebazaar-backend/internal/checkout"
	"github.com/stylebazaar/stylebazaar-backend/internal/delivery"
	"github.com/stylebazaar/stylebazaar-backend/internal/orders"
	"github.com/stylebazaar/stylebazaar-backend/internal/products"
	"github.com/stylebazaar/stylebazaar-backend/pkg/config"
	"github.com/stylebazaar/stylebazaar-backend/pkg/logger"
	"github.com/stylebazaar/stylebazaar-backend/pkg/redis"
)

// rateLimitStore is the slice of the redis client the coupon limiter needs.
type rateLimitStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies carries everything the router hands to controllers.
type Dependencies struct {
	Pingers     map[string]controllers.Pinger
	Idempotency redis.IdempotencyStore
	RateLimiter rateLimitStore
	Metrics     http.Handler

	Products products.Service
	Delivery delivery.Repository
	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	r.Get("/health/live", controllers.HealthLive(cfg.App.Env))
	r.Get("/health/ready", controllers.HealthReady(cfg.App.Env, deps.Pingers, logg))

	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	couponPolicy := middleware.NewRateLimitPolicy(
		"coupon",
		cfg.CouponRateLimit.Window,
		cfg.CouponRateLimit.IPLimit,
		cfg.CouponRateLimit.SessionLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products/{productId}/price", controllers.ProductPrice(deps.Products, logg))
		r.Get("/delivery-options", controllers.DeliveryOptions(deps.Delivery, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.CartSession(logg))
			r.Get("/", cartcontrollers.View(deps.Cart, logg))
			r.Delete("/", cartcontrollers.Clear(deps.Cart, logg))
			r.Post("/items", cartcontrollers.AddItem(deps.Cart, logg))
			r.Patch("/items/{productId}", cartcontrollers.UpdateItem(deps.Cart, logg))
			r.Delete("/items/{productId}", cartcontrollers.RemoveItem(deps.Cart, logg))
			r.With(middleware.RateLimit(couponPolicy, deps.RateLimiter, logg)).
				Post("/coupon", cartcontrollers.ApplyCoupon(deps.Cart, logg))
			r.Delete("/coupon", cartcontrollers.RemoveCoupon(deps.Cart, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Buyer(logg))
			r.With(
				middleware.CartSession(logg),
				middleware.Idempotency(deps.Idempotency, logg),
			).Post("/checkout", controllers.Checkout(deps.Checkout, logg))
			r.Get("/orders", ordercontrollers.List(deps.Orders, logg))
			r.Get("/orders/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.With(middleware.Idempotency(deps.Idempotency, logg)).
				Post("/orders/{orderId}/pay", ordercontrollers.Pay(deps.Orders, logg))
		})

		r.Route("/seller", func(r chi.Router) {
			r.Use(middleware.Seller(logg))
			r.Get("/orders", ordercontrollers.SellerList(deps.Orders, logg))
			r.Patch("/orders/{orderId}/status", ordercontrollers.SellerUpdateStatus(deps.Orders, logg))
		})
	})

	return r
}
