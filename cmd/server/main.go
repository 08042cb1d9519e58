package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"

	"paymenthub/internal/app"
	"paymenthub/internal/config"
	"paymenthub/internal/events"
	"paymenthub/internal/handler"
	"paymenthub/internal/middleware"
	internalRedis "paymenthub/internal/redis"
	"paymenthub/internal/repository"
	"paymenthub/internal/service"
)

func main() {
	configPath := kingpin.Flag("config", "Path to the application config file").Short('c').Default("config.yml").String()
	kingpin.Parse()

	cfg, k, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if !cfg.IsProdMode {
		k.Print()
	}

	logger, err := app.NewLogger(*cfg)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if cfg.IsProdMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := app.NewStore(connectCtx, *cfg, nrApp, logger)
	if err != nil {
		logger.Fatal("cannot open ledger store", zap.Error(err))
	}
	defer store.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = app.NewRedisClient(connectCtx, cfg.Redis, nrApp)
		if err != nil {
			logger.Fatal("cannot create redis client", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	}

	metrics := kprom.NewMetrics("paymenthub")
	sinks, err := app.NewSinks(connectCtx, *cfg, redisClient, metrics, logger)
	if err != nil {
		logger.Fatal("cannot connect event sinks", zap.Error(err))
	}
	defer sinks.Close(context.Background())

	svc := wireServices(store, redisClient, cfg, logger)

	if deployer, platformCfg, ok := cfg.PlatformConfig(); ok {
		if _, err := svc.platform.Bootstrap(ctx, deployer, platformCfg); err != nil {
			logger.Fatal("cannot bootstrap platform", zap.Error(err))
		}
	}

	relay := events.NewRelay(store.Events(), sinks.Publisher, sinks.DeadLetter, events.RelayConfig{
		Interval:    cfg.Relay.Interval,
		BatchSize:   cfg.Relay.BatchSize,
		MaxAttempts: cfg.Relay.MaxAttempts,
	}, logger)
	svc.exec.OnCommit(func(ctx context.Context, key string) { relay.Notify() })

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	router := app.NewRouter(app.RouterDeps{
		PaymentHandler:  handler.NewPaymentHandler(svc.checkout, svc.refunds, svc.payments, svc.receipts, cfg.Token.Decimals),
		RoleHandler:     handler.NewRoleHandler(svc.roles),
		PlatformHandler: handler.NewPlatformHandler(svc.platform),
		TokenHandler:    handler.NewTokenHandler(svc.tokens, cfg.Token.Decimals),
		Auth:            middleware.AuthConfig{Secret: []byte(cfg.Auth.Secret), Issuer: cfg.Auth.Issuer},
		RateLimiter:     limiter,
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
		Metrics:         metrics.Handler(),
		Logger:          logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	workersCtx, stopWorkers := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		if err := relay.Run(workersCtx); err != nil {
			logger.Error("event relay stopped", zap.Error(err))
		}
	}()
	go limiter.Run(workersCtx, cfg.RateLimit.SweepInterval, cfg.RateLimit.MaxIdle)

	// Start server in goroutine.
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// Drain what the last requests committed before the sinks close.
	if _, err := relay.Flush(shutdownCtx); err != nil {
		logger.Warn("final event flush failed", zap.Error(err))
	}
	stopWorkers()
	<-relayDone

	if nrApp != nil {
		nrApp.Shutdown(cfg.Server.ShutdownTimeout)
	}
	logger.Info("server exited")
}

type services struct {
	exec     *service.Executor
	roles    *service.RoleService
	platform *service.PlatformService
	checkout *service.CheckoutService
	refunds  *service.RefundService
	payments *service.PaymentService
	tokens   *service.TokenService
	receipts *service.ReceiptService
}

// wireServices builds the ledger services on top of store. With Redis the
// per-payment lock is shared across instances and reads go through the cache.
func wireServices(store repository.Store, redisClient *redis.Client, cfg *config.Config, logger *zap.Logger) *services {
	var (
		locker service.Locker
		cache  service.PaymentCache
	)
	if redisClient != nil {
		locker = internalRedis.NewLockStore(redisClient)
		cache = internalRedis.NewCacheStore(redisClient, cfg.Cache.TTL)
	}

	exec := service.NewExecutor(store, locker, cfg.Lock.TTL, logger)
	payments := service.NewPaymentService(store, cache, logger)
	exec.OnCommit(payments.Invalidate)

	return &services{
		exec:     exec,
		roles:    service.NewRoleService(store, exec, logger),
		platform: service.NewPlatformService(store, exec, logger),
		checkout: service.NewCheckoutService(exec, logger),
		refunds:  service.NewRefundService(exec, logger),
		payments: payments,
		tokens: service.NewTokenService(store, exec, service.FaucetConfig{
			Enabled:   cfg.Faucet.Enabled,
			MaxAmount: cfg.Faucet.MaxAmount,
		}, logger),
		receipts: service.NewReceiptService(payments, cfg.Token.Symbol, cfg.Token.Decimals),
	}
}
