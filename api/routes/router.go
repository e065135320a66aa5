package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ovenbird/bakery-backend/api/controllers"
	"github.com/ovenbird/bakery-backend/api/middleware"
	"github.com/ovenbird/bakery-backend/internal/audit"
	authsvc "github.com/ovenbird/bakery-backend/internal/auth"
	"github.com/ovenbird/bakery-backend/internal/cart"
	"github.com/ovenbird/bakery-backend/internal/catalog"
	checkoutsvc "github.com/ovenbird/bakery-backend/internal/checkout"
	"github.com/ovenbird/bakery-backend/internal/orders"
	"github.com/ovenbird/bakery-backend/internal/pricing"
	"github.com/ovenbird/bakery-backend/internal/settings"
	"github.com/ovenbird/bakery-backend/pkg/config"
	"github.com/ovenbird/bakery-backend/pkg/logger"
)

// Deps bundles everything the router mounts. Health pingers stay as
// narrow interfaces so tests can stub them.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Registry *prometheus.Registry

	Auth     authsvc.Service
	Catalog  catalog.Service
	Pricing  pricing.Service
	Resolver *pricing.Resolver
	Cart     cart.Service
	Checkout checkoutsvc.Service
	Orders   orders.Service
	Settings settings.Service
	Audit    audit.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.GuestSession())
			r.Post("/register", controllers.AuthRegister(d.Auth, logg))
			r.Post("/login", controllers.AuthLogin(d.Auth, logg))
		})

		r.Get("/categories", controllers.CategoryTree(d.Catalog, logg))
		r.Get("/products", controllers.ProductList(d.Catalog, logg))
		r.Get("/products/{sku}", controllers.ProductDetail(d.Catalog, d.Resolver, cfg.Checkout.RelatedProducts, logg))

		// Cart and favourites serve both guests and signed-in customers:
		// a bearer token wins, otherwise the guest session header owns
		// the redis-backed copy.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.GuestSession())

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(d.Cart, logg))
				r.Put("/", controllers.CartReplace(d.Cart, logg))
				r.Post("/items", controllers.CartAddItem(d.Cart, logg))
				r.Put("/items", controllers.CartUpdateItem(d.Cart, logg))
				r.Delete("/items", controllers.CartRemoveItem(d.Cart, logg))
				r.Delete("/", controllers.CartClear(d.Cart, logg))
			})
			r.Route("/favourites", func(r chi.Router) {
				r.Get("/", controllers.FavouritesFetch(d.Cart, logg))
				r.Put("/", controllers.FavouritesReplace(d.Cart, logg))
				r.Post("/toggle", controllers.FavouriteToggle(d.Cart, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.GuestSession())

			r.Get("/profile", controllers.Profile(d.Auth, logg))
			r.Put("/profile/address", controllers.UpdateAddress(d.Auth, logg))
			r.Post("/checkout", controllers.Checkout(d.Checkout, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(d.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(d.Orders, logg))
				r.Post("/{orderId}/confirm-delivery", controllers.OrderConfirmDelivery(d.Orders, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCategoryCreate(d.Catalog, logg))
			r.Put("/{categoryId}", controllers.AdminCategoryUpdate(d.Catalog, logg))
			r.Delete("/{categoryId}", controllers.AdminCategoryDelete(d.Catalog, logg))
		})
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(d.Catalog, logg))
			r.Post("/", controllers.AdminProductCreate(d.Catalog, logg))
			r.Get("/{productId}", controllers.AdminProductDetail(d.Catalog, logg))
			r.Put("/{productId}", controllers.AdminProductUpdate(d.Catalog, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(d.Catalog, logg))
			r.Put("/{productId}/sizes", controllers.AdminProductReplaceSizes(d.Catalog, logg))
		})
		r.Route("/discounts", func(r chi.Router) {
			r.Get("/", controllers.AdminDiscountList(d.Pricing, logg))
			r.Post("/", controllers.AdminDiscountCreate(d.Pricing, logg))
			r.Put("/{discountId}", controllers.AdminDiscountUpdate(d.Pricing, logg))
			r.Delete("/{discountId}", controllers.AdminDiscountDelete(d.Pricing, logg))
		})
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.AdminSettingsList(d.Settings, logg))
			r.Put("/{key}", controllers.AdminSettingUpdate(d.Settings, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(d.Orders, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(d.Orders, logg))
			r.Put("/{orderId}/status", controllers.AdminOrderUpdateStatus(d.Orders, logg))
		})
		r.Get("/audit", controllers.AdminAuditList(d.Audit, logg))
		r.Get("/reports/sales", controllers.AdminSalesReport(d.Orders, logg))
	})

	return r
}
