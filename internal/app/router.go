package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"paymenthub/internal/handler"
	"paymenthub/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	PaymentHandler  *handler.PaymentHandler
	RoleHandler     *handler.RoleHandler
	PlatformHandler *handler.PlatformHandler
	TokenHandler    *handler.TokenHandler
	Auth            middleware.AuthConfig
	RateLimiter     *middleware.RateLimiter
	AllowedOrigins  []string
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
	Metrics         http.Handler
	Logger          *zap.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORSMiddleware(deps.AllowedOrigins...))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.Auth))
	if deps.RateLimiter != nil {
		v1.Use(deps.RateLimiter.Middleware())
	}
	v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	{
		// Payment routes.
		payments := v1.Group("/payments")
		{
			payments.POST("", deps.PaymentHandler.Checkout)
			payments.GET("", deps.PaymentHandler.ListPayments)
			payments.GET("/:id", deps.PaymentHandler.GetPayment)
			payments.GET("/:id/refund-status", deps.PaymentHandler.RefundStatus)
			payments.GET("/:id/events", deps.PaymentHandler.Events)
			payments.GET("/:id/receipt", deps.PaymentHandler.Receipt)
			payments.POST("/:id/refund-request", deps.PaymentHandler.RequestRefund)
			payments.POST("/:id/merchant-refund", deps.PaymentHandler.MerchantRefund)
			payments.POST("/:id/admin-refund", deps.PaymentHandler.AdminRefund)
		}

		v1.GET("/fees/quote", deps.PaymentHandler.QuoteFee)

		// Role routes.
		roles := v1.Group("/roles")
		{
			roles.GET("/:role", deps.RoleHandler.ListMembers)
			roles.GET("/:role/:address", deps.RoleHandler.HasRole)
			roles.POST("/:role/:address", deps.RoleHandler.Grant)
			roles.DELETE("/:role/:address", deps.RoleHandler.Revoke)
		}

		merchants := v1.Group("/merchants")
		{
			merchants.GET("", deps.RoleHandler.ListMerchants)
			merchants.POST("/:address", deps.RoleHandler.RegisterMerchant)
			merchants.DELETE("/:address", deps.RoleHandler.RevokeMerchant)
		}

		// Platform routes.
		platform := v1.Group("/platform")
		{
			platform.GET("", deps.PlatformHandler.Status)
			platform.POST("/pause", deps.PlatformHandler.Pause)
			platform.POST("/unpause", deps.PlatformHandler.Unpause)
		}

		// Token routes.
		tokens := v1.Group("/token")
		{
			tokens.POST("/approve", deps.TokenHandler.Approve)
			tokens.POST("/faucet", deps.TokenHandler.Faucet)
			tokens.GET("/balances/:address", deps.TokenHandler.Balance)
			tokens.GET("/allowances/:owner", deps.TokenHandler.Allowance)
		}
	}

	return router
}
