package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trivenisilks/triveni-backend/api/controllers"
	webhookcontrollers "github.com/trivenisilks/triveni-backend/api/controllers/webhooks"
	"github.com/trivenisilks/triveni-backend/api/middleware"
	checkoutsvc "github.com/trivenisilks/triveni-backend/internal/checkout"
	"github.com/trivenisilks/triveni-backend/internal/orders"
	"github.com/trivenisilks/triveni-backend/internal/payments"
	"github.com/trivenisilks/triveni-backend/pkg/config"
	"github.com/trivenisilks/triveni-backend/pkg/db"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
	"github.com/trivenisilks/triveni-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	paymentsService payments.Service,
	promRegistry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	// provider-facing callbacks carry their own authentication (checksums)
	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/phonepe", webhookcontrollers.PhonePeCallback(paymentsService, logg))
		r.Post("/paytm", webhookcontrollers.PaytmCallback(paymentsService, logg))
		r.Post("/razorpay", webhookcontrollers.RazorpayWebhook(paymentsService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.UserContext())

		r.Post("/checkout", controllers.Checkout(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireUser(logg)).Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderNumber}", controllers.OrderDetail(ordersService, logg))
			r.Post("/{orderNumber}/cancel", controllers.CancelOrder(ordersService, logg))
			r.Post("/{orderNumber}/return", controllers.ReturnOrder(ordersService, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/razorpay/verify", controllers.VerifyRazorpayPayment(paymentsService, logg))
			r.Get("/phonepe/status/{orderNumber}", controllers.CheckPhonePeStatus(paymentsService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.Admin, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/{orderId}/status", controllers.AdminUpdateOrderStatus(ordersService, logg))
			r.Post("/{orderId}/payment-status", controllers.AdminUpdatePaymentStatus(ordersService, logg))
		})
	})

	return r
}
