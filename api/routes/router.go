package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RedAvocado22/quadzone-checkout/api/controllers"
	"github.com/RedAvocado22/quadzone-checkout/api/middleware"
	cartsvc "github.com/RedAvocado22/quadzone-checkout/internal/cart"
	checkoutsvc "github.com/RedAvocado22/quadzone-checkout/internal/checkout"
	couponsvc "github.com/RedAvocado22/quadzone-checkout/internal/coupons"
	ordersvc "github.com/RedAvocado22/quadzone-checkout/internal/orders"
	internalproducts "github.com/RedAvocado22/quadzone-checkout/internal/products"
	"github.com/RedAvocado22/quadzone-checkout/pkg/config"
	"github.com/RedAvocado22/quadzone-checkout/pkg/db"
	"github.com/RedAvocado22/quadzone-checkout/pkg/logger"
	pkgredis "github.com/RedAvocado22/quadzone-checkout/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *pkgredis.Client
	Registry     *prometheus.Registry
	Checkout     checkoutsvc.Service
	Coupons      couponsvc.Service
	Orders       ordersvc.Service
	Cart         cartsvc.Service
	ProductsRepo internalproducts.Repository
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	var idemStore pkgredis.IdempotencyStore
	var redisPinger pkgredis.Pinger
	if deps.Redis != nil {
		idemStore = deps.Redis
		redisPinger = deps.Redis
	}

	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.DB, redisPinger))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.Idempotency(idemStore, deps.Config.Checkout.IdempotencyTTL, deps.Logger)).
			Post("/checkout", controllers.Checkout(deps.Checkout, deps.Logger))

		r.Post("/coupons/validate", controllers.ValidateCoupon(deps.Coupons, deps.Logger))

		r.Get("/products/{productId}", controllers.ProductDetail(deps.ProductsRepo, deps.Logger))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.Orders, deps.Logger))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, deps.Logger))
		})

		r.Route("/carts/{ownerId}", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, deps.Logger))
			r.Delete("/", controllers.CartClear(deps.Cart, deps.Logger))
			r.Post("/items", controllers.CartAddItem(deps.Cart, deps.Logger))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(deps.Cart, deps.Logger))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Cart, deps.Logger))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Route("/coupons", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateCoupon(deps.Coupons, deps.Logger))
				r.Get("/", controllers.AdminListCoupons(deps.Coupons, deps.Logger))
				r.Delete("/{code}", controllers.AdminDeactivateCoupon(deps.Coupons, deps.Logger))
			})
			r.Get("/orders", controllers.OrderList(deps.Orders, deps.Logger))
			r.With(middleware.Idempotency(idemStore, deps.Config.Checkout.IdempotencyTTL, deps.Logger)).
				Post("/orders/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, deps.Logger))
		})
	})

	return r
}
