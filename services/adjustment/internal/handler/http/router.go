package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/services/adjustment/internal/service"
)

// ServiceName labels metrics and spans emitted by the HTTP layer.
const ServiceName = "adjustment"

// Options tunes the router. A zero RateLimitRPS disables rate limiting.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a chi router with all adjustment service routes registered.
func NewRouter(
	adjustmentService *service.AdjustmentService,
	loyaltyService *service.LoyaltyService,
	adminService *service.AdminService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	opts Options,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	adjustmentHandler := NewAdjustmentHandler(adjustmentService, logger)
	loyaltyHandler := NewLoyaltyHandler(loyaltyService, logger)
	adminHandler := NewAdminHandler(adminService, logger)

	// Coupon codes can be guessed through preview, so customer-facing
	// endpoints are throttled per caller.
	var limit func(http.Handler) http.Handler
	if opts.RateLimitRPS > 0 {
		limit = middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst, logger)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		mountRoutes(r, limit, adjustmentHandler, loyaltyHandler, adminHandler)
	})

	return r
}

// mountRoutes registers the API under an /api/v1 router. limit, when not
// nil, wraps the customer-facing routes.
func mountRoutes(r chi.Router, limit func(http.Handler) http.Handler, adj *AdjustmentHandler, loy *LoyaltyHandler, adm *AdminHandler) {
	customer := r
	if limit != nil {
		customer = r.With(limit)
	}

	customer.Post("/adjustments/preview", adj.Preview)
	customer.Post("/adjustments/commit", adj.Commit)
	r.Get("/adjustments/{orderId}", adj.GetCommitted)

	r.Post("/rewards", loy.CreateReward)
	r.Get("/rewards", loy.ListRewards)
	customer.Post("/rewards/{rewardId}/redeem", loy.RedeemReward)

	r.Route("/redemptions", func(r chi.Router) {
		r.Post("/{id}/approve", loy.ApproveRedemption)
		r.Post("/{id}/reject", loy.RejectRedemption)
	})

	r.Route("/users/{userId}", func(r chi.Router) {
		r.Get("/redemptions", loy.ListRedemptions)
		r.Get("/loyalty", loy.GetAccount)
		r.Get("/loyalty/transactions", loy.ListTransactions)
		r.Post("/loyalty/award", loy.AwardPoints)
	})

	r.Route("/coupons", func(r chi.Router) {
		r.Post("/", adm.CreateCoupon)
		r.Get("/", adm.ListCoupons)
		r.Get("/{id}", adm.GetCoupon)
		r.Post("/{id}/deactivate", adm.DeactivateCoupon)
	})

	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", adm.CreateCampaign)
		r.Get("/", adm.ListCampaigns)
		r.Get("/{id}", adm.GetCampaign)
		r.Post("/{id}/deactivate", adm.DeactivateCampaign)
	})
}
