package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danasys/invoice-bfa-go/internal/config"
	"github.com/danasys/invoice-bfa-go/internal/domain"
	"github.com/danasys/invoice-bfa-go/internal/handler"
	"github.com/danasys/invoice-bfa-go/internal/infra/cache"
	"github.com/danasys/invoice-bfa-go/internal/infra/client"
	"github.com/danasys/invoice-bfa-go/internal/infra/memory"
	"github.com/danasys/invoice-bfa-go/internal/infra/observability"
	"github.com/danasys/invoice-bfa-go/internal/infra/resilience"
	"github.com/danasys/invoice-bfa-go/internal/infra/supabase"
	"github.com/danasys/invoice-bfa-go/internal/port"
	"github.com/danasys/invoice-bfa-go/internal/render"
	"github.com/danasys/invoice-bfa-go/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("order_backend", cfg.OrderBackend),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "invoice-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	bulkhead := resilience.NewBulkhead(resilienceCfg.MaxConcurrency)

	// --- Order backend ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var finder port.InvoiceFinder
	switch cfg.OrderBackend {
	case config.BackendSupabase:
		logger.Info("using Supabase as order backend", zap.String("supabase_url", cfg.SupabaseURL))
		finder = supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			resilienceCfg,
			logger,
		)
	case config.BackendHTTP:
		logger.Info("using order API as order backend", zap.String("order_api_url", cfg.OrderAPIURL))
		finder = client.NewOrderClient(httpClient, cfg.OrderAPIURL, resilience.NewCircuitBreaker("orders"), resilienceCfg, logger)
	default:
		logger.Warn("using the in-memory sample store; every positive order id returns the ACME sample")
		finder = memory.NewSampleStore()
	}

	// --- Cache ---
	var invoiceCache port.Cache[*domain.Invoice]
	var redisCache *cache.Redis[*domain.Invoice]
	switch cfg.CacheBackend {
	case config.CacheRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		redisCache = cache.NewRedis[*domain.Invoice](rdb, "invoice-bfa:", cfg.CacheTTL, logger)
		invoiceCache = redisCache
		logger.Info("using Redis invoice cache", zap.String("redis_addr", cfg.RedisAddr))
	default:
		mc := cache.New[*domain.Invoice](cfg.CacheTTL)
		defer mc.Close()
		invoiceCache = mc
	}

	// --- Services ---
	invoiceSvc := service.NewInvoiceService(finder, render.New(), invoiceCache, bulkhead, metrics, logger)
	if redisCache != nil {
		invoiceSvc.AddProbe("redis", false, redisCache.Ping)
	}

	// --- Router ---
	router := handler.NewRouter(invoiceSvc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
