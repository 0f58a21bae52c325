package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danielharo/rentably-backend/api/controllers"
	webhookcontrollers "github.com/danielharo/rentably-backend/api/controllers/webhooks"
	"github.com/danielharo/rentably-backend/api/middleware"
	"github.com/danielharo/rentably-backend/internal/analytics"
	internalauth "github.com/danielharo/rentably-backend/internal/auth"
	"github.com/danielharo/rentably-backend/internal/coupons"
	"github.com/danielharo/rentably-backend/internal/delivery"
	"github.com/danielharo/rentably-backend/internal/orders"
	"github.com/danielharo/rentably-backend/internal/products"
	"github.com/danielharo/rentably-backend/internal/quotations"
	squarewebhook "github.com/danielharo/rentably-backend/internal/webhooks/square"
	"github.com/danielharo/rentably-backend/pkg/auth/session"
	"github.com/danielharo/rentably-backend/pkg/config"
	"github.com/danielharo/rentably-backend/pkg/logger"
	"github.com/danielharo/rentably-backend/pkg/redis"
	"github.com/danielharo/rentably-backend/pkg/square"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	Redis           *redis.Client
	Pingers         []controllers.Pinger
	Sessions        sessionManager
	AuthService     internalauth.Service
	RegisterService internalauth.RegisterService
	Quotations      quotations.Service
	Orders          orders.Service
	Products        products.Service
	Coupons         coupons.Service
	Delivery        delivery.Service
	Analytics       analytics.Service
	SquareClient    *square.Client
	SquareWebhook   *squarewebhook.Service
	WebhookGuard    *squarewebhook.IdempotencyGuard
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Pingers...))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/square", webhookcontrollers.SquareWebhook(d.SquareWebhook, d.SquareClient, d.WebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.AuthService, logg))
		register := r.With(
			middleware.AuthRateLimit(registerPolicy, d.Redis, logg),
			middleware.Idempotency(d.Redis, logg),
		)
		register.Post("/register/vendor", controllers.RegisterVendor(d.RegisterService, logg))
		register.Post("/register/customer", controllers.RegisterCustomer(d.RegisterService, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.AuthService, cfg.JWT, logg))
		r.Post("/logout", controllers.AuthLogout(d.AuthService, cfg.JWT, logg))
	})

	// Public rentable catalog.
	r.Get("/api/v1/products", controllers.BrowseProducts(d.Products, logg))
	r.Get("/api/v1/products/{productId}", controllers.GetProduct(d.Products, logg))

	r.Route("/api/v1/vendor", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RequireRole(logg, "vendor", "admin"))
		r.Use(middleware.Idempotency(d.Redis, logg))

		r.Route("/quotations", func(r chi.Router) {
			r.Post("/", controllers.CreateQuotation(d.Quotations, logg))
			r.Get("/", controllers.ListVendorQuotations(d.Quotations, logg))
			r.Get("/{quotationId}", controllers.GetQuotation(d.Quotations, logg))
			r.Post("/{quotationId}/items", controllers.AddQuotationItem(d.Quotations, logg))
			r.Patch("/{quotationId}/items/{itemId}", controllers.UpdateQuotationItem(d.Quotations, logg))
			r.Delete("/{quotationId}/items/{itemId}", controllers.RemoveQuotationItem(d.Quotations, logg))
			r.Post("/{quotationId}/send", controllers.SendQuotation(d.Quotations, logg))
			r.Post("/{quotationId}/coupon", controllers.ApplyQuotationCoupon(d.Quotations, logg))
			r.Post("/{quotationId}/delivery-charge", controllers.SetQuotationDeliveryCharge(d.Quotations, d.Delivery, logg))
			r.Post("/{quotationId}/cancel", controllers.CancelQuotation(d.Quotations, logg))
			r.Post("/{quotationId}/payment-link", controllers.CreateQuotationPaymentLink(d.Quotations, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListVendorOrders(d.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(d.Orders, logg))
			r.Post("/{orderId}/pickup", controllers.MarkOrderPickedUp(d.Orders, logg))
			r.Post("/{orderId}/deliver", controllers.MarkOrderDelivered(d.Orders, logg))
			r.Post("/{orderId}/invoice", controllers.CreateOrderInvoice(d.Orders, logg))
			r.Post("/{orderId}/return", controllers.RecordOrderReturn(d.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(d.Orders, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(d.Products, logg))
			r.Get("/", controllers.ListVendorProducts(d.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(d.Products, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(d.Products, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(d.Products, logg))
		})

		r.Route("/variants", func(r chi.Router) {
			r.Post("/", controllers.CreateVariant(d.Products, logg))
			r.Get("/{variantId}", controllers.GetVariant(d.Products, logg))
			r.Patch("/{variantId}", controllers.UpdateVariant(d.Products, logg))
			r.Delete("/{variantId}", controllers.DeleteVariant(d.Products, logg))
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Post("/", controllers.CreateCoupon(d.Coupons, logg))
			r.Get("/", controllers.ListCoupons(d.Coupons, logg))
			r.Post("/{couponId}/deactivate", controllers.DeactivateCoupon(d.Coupons, logg))
		})

		r.Route("/delivery-config", func(r chi.Router) {
			r.Get("/", controllers.GetDeliveryConfig(d.Delivery, logg))
			r.Put("/", controllers.UpdateDeliveryConfig(d.Delivery, logg))
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))

		r.Get("/api/v1/quotations", controllers.ListCustomerQuotations(d.Quotations, logg))
		r.Get("/api/v1/quotations/{quotationId}", controllers.GetQuotation(d.Quotations, logg))
		r.Get("/api/v1/orders", controllers.ListCustomerOrders(d.Orders, logg))
		r.Get("/api/v1/orders/{orderId}", controllers.GetOrder(d.Orders, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RequireRole(logg, "admin"))

		r.Get("/analytics/platform", controllers.PlatformAnalytics(d.Analytics, logg))
	})

	return r
}
