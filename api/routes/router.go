package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukaanhq/dukaan-backend/api/controllers"
	"github.com/dukaanhq/dukaan-backend/api/middleware"
	billingsvc "github.com/dukaanhq/dukaan-backend/internal/billing"
	customersvc "github.com/dukaanhq/dukaan-backend/internal/customers"
	invoicesvc "github.com/dukaanhq/dukaan-backend/internal/invoices"
	notificationsvc "github.com/dukaanhq/dukaan-backend/internal/notifications"
	productsvc "github.com/dukaanhq/dukaan-backend/internal/products"
	shopsvc "github.com/dukaanhq/dukaan-backend/internal/shop"
	"github.com/dukaanhq/dukaan-backend/pkg/config"
	"github.com/dukaanhq/dukaan-backend/pkg/db"
	"github.com/dukaanhq/dukaan-backend/pkg/logger"
	"github.com/dukaanhq/dukaan-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	promGatherer prometheus.Gatherer,
	billingService billingsvc.Service,
	productService productsvc.Service,
	customerService customersvc.Service,
	invoiceService invoicesvc.Service,
	notificationService notificationsvc.Service,
	shopService shopsvc.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	paymentPolicy := middleware.NewRateLimitPolicy(
		"payment",
		cfg.RateLimit.PaymentWindow,
		cfg.RateLimit.PaymentLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if promGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/billing/sessions", func(r chi.Router) {
			r.Post("/", controllers.BillingStartSession(billingService, logg))
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", controllers.BillingGetSession(billingService, logg))
				r.Delete("/", controllers.BillingAbandonSession(billingService, logg))
				r.Post("/items", controllers.BillingAddItem(billingService, logg))
				r.Route("/items/{productId}", func(r chi.Router) {
					r.Delete("/", controllers.BillingRemoveItem(billingService, logg))
					r.Post("/increment", controllers.BillingIncrementItem(billingService, logg))
					r.Post("/decrement", controllers.BillingDecrementItem(billingService, logg))
					r.Put("/discount", controllers.BillingSetItemDiscount(billingService, logg))
					r.Delete("/discount", controllers.BillingClearItemDiscount(billingService, logg))
				})
				r.Put("/customer", controllers.BillingSelectCustomer(billingService, logg))
				r.Put("/paying-amount", controllers.BillingSetPayingAmount(billingService, logg))
				r.Put("/payment-method", controllers.BillingSetPaymentMethod(billingService, logg))
				r.Put("/remarks", controllers.BillingSetRemarks(billingService, logg))
				r.With(middleware.RateLimit(paymentPolicy, redisClient, logg)).
					Post("/checkout", controllers.BillingCheckout(billingService, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Post("/", controllers.CreateProduct(productService, logg))
			r.Get("/{productId}", controllers.GetProduct(productService, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(productService, logg))
			r.Post("/{productId}/stock", controllers.AdjustProductStock(productService, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.ListCustomers(customerService, logg))
			r.Post("/", controllers.CreateCustomer(customerService, logg))
			r.Get("/{customerId}", controllers.GetCustomer(customerService, logg))
			r.Patch("/{customerId}", controllers.UpdateCustomer(customerService, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.ListInvoices(invoiceService, logg))
			r.Get("/dues", controllers.ListDues(invoiceService, logg))
			r.Get("/summary", controllers.SalesSummary(invoiceService, logg))
			r.Get("/{invoiceId}", controllers.GetInvoice(invoiceService, logg))
			r.With(middleware.RateLimit(paymentPolicy, redisClient, logg)).
				Post("/{invoiceId}/payments", controllers.RecordInvoicePayment(invoiceService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationService, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(notificationService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationService, logg))
		})

		r.Route("/shop", func(r chi.Router) {
			r.Get("/", controllers.ShopProfile(shopService, logg))
			r.Put("/", controllers.ShopProfileUpdate(shopService, logg))
			r.Patch("/", controllers.ShopProfileUpdate(shopService, logg))
		})
	})

	return r
}
