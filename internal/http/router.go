// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, compression,
// CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/shemnduati/AiImageApp/internal/config"
	"github.com/shemnduati/AiImageApp/internal/http/handlers"
	"github.com/shemnduati/AiImageApp/internal/http/middleware"
	"github.com/shemnduati/AiImageApp/internal/payments"
	"github.com/shemnduati/AiImageApp/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting, CORS
// and security headers, health and metrics endpoints, and then mounts the
// versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. Gzip compression
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, gw payments.Gateway, assets services.AssetRemover, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB). Image bytes never transit this
	// API; clients upload straight to object storage and post references.
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) Response compression (operation listings are JSON-heavy)
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "Stripe-Version"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "Stripe-Version"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← db/gateway/asset store
	ledger := &services.LedgerService{DB: db}
	opSvc := services.NewOperationService(db, ledger, assets)
	billSvc := services.NewBillingService(db, ledger, gw)
	if cfg.Stripe.Currency != "" {
		billSvc.Currency = cfg.Stripe.Currency
	}
	h := handlers.New(opSvc, billSvc, ledger)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Operations
		api.POST("/operations", h.ChargeOperation)
		api.GET("/operations", h.ListOperations)
		api.GET("/operations/:id", h.GetOperation)
		api.DELETE("/operations/:id", h.DeleteOperation)

		// Credits
		api.GET("/credits", h.GetCredits)
		api.GET("/credits/costs", h.GetCreditCosts)

		// Payments
		api.POST("/payments/intent", h.CreatePaymentIntent)
		api.POST("/payments/success", h.PaymentSuccess)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
