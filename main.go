package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-service/config"
	"checkout-service/controllers"
	"checkout-service/database"
	"checkout-service/events"
	"checkout-service/logger"
	"checkout-service/middleware"
	"checkout-service/models"
	aws_pkg "checkout-service/pkg/aws"
	"checkout-service/pricing"
	"checkout-service/providers"
	"checkout-service/repository"
	"checkout-service/routes"
	servicepkg "checkout-service/services"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "checkout-service"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	ctx := context.Background()

	// AWS is optional; every AWS-backed feature degrades to off without it.
	awsCfg, awsErr := aws_pkg.LoadAWSConfig(ctx)

	var cwWriter io.Writer
	if awsErr == nil && os.Getenv("CLOUDWATCH_LOGS_ENABLED") == "true" {
		if w, err := aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName); err == nil {
			cwWriter = w
		} else {
			log.Printf("CloudWatch Logs unavailable: %v", err)
		}
	}

	zapLogger, err := logger.New(getEnv("APP_ENV", "development"), cwWriter)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	var secrets config.SecretSource
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsErr != nil {
			zapLogger.Warn("AWS config unavailable, Secrets Manager disabled", zap.Error(awsErr))
		} else {
			secrets = aws_pkg.NewSecretsClient(awsCfg)
		}
	}

	cfg, err := config.LoadConfigWithSecrets(ctx, secrets)
	if err != nil {
		zapLogger.Fatal("Failed to load config", zap.Error(err))
	}

	// Pricing and payload construction
	pricer, err := buildPricer(cfg)
	if err != nil {
		zapLogger.Fatal("Failed to configure pricing", zap.Error(err))
	}
	shippingOptions := models.DefaultShippingOptions(cfg.Currency)
	if cfg.ShippingOptionsFile != "" {
		if shippingOptions, err = models.LoadShippingOptions(cfg.ShippingOptionsFile, cfg.Currency); err != nil {
			zapLogger.Fatal("Failed to load shipping options", zap.Error(err))
		}
	}
	builder := servicepkg.NewOrderBuilder(shippingOptions, models.ShippingContact{
		PhoneCountryCode:    cfg.ContactPhoneCountryCode,
		PhoneNationalNumber: cfg.ContactPhoneNationalNumber,
		FullName:            cfg.ContactFullName,
	})

	deps := servicepkg.Dependencies{
		Processor: providers.NewPayPalProvider(cfg.PayPalBaseURL, cfg.PayPalClientID, cfg.PayPalClientSecret, cfg.ProcessorTimeout),
		Pricer:    pricer,
		Builder:   builder,
		Policy:    cfg.ErrorPolicy,
		Logger:    zapLogger,

		SideEffectTimeout: cfg.SideEffectTimeout,
	}

	// Idempotent replay
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close() //nolint:errcheck
		if err := rdb.Ping(ctx).Err(); err != nil {
			zapLogger.Warn("Redis not reachable at startup, replay will fail open", zap.Error(err))
		}
		deps.Idempotency = repository.NewRedisIdempotencyStore(rdb, cfg.IdempotencyTTL, cfg.ProcessorTimeout+10*time.Second)
		zapLogger.Info("Idempotent replay enabled", zap.Duration("ttl", cfg.IdempotencyTTL))
	}

	// Transaction ledger
	if cfg.LedgerEnabled() {
		connectCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		db, err := database.ConnectPostgres(connectCtx, cfg.Postgres, zapLogger, &models.TransactionRecord{})
		cancel()
		if err != nil {
			zapLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer database.Close(db) //nolint:errcheck
		deps.Ledger = repository.NewGormTransactionRepository(db)
	}

	// Checkout events
	publisher, err := buildPublisher(cfg, awsCfg, awsErr)
	if err != nil {
		zapLogger.Fatal("Failed to configure events", zap.Error(err))
	}
	defer publisher.Close() //nolint:errcheck
	deps.Publisher = publisher

	var metricsClient *aws_pkg.MetricsClient
	if awsErr == nil && cfg.UseMetrics {
		metricsClient = aws_pkg.NewMetricsClient(awsCfg, true)
		deps.Metrics = metricsClient
	}

	orderController := controllers.NewOrderController(servicepkg.NewCheckoutService(deps), zapLogger)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	limiter := middleware.NewRateLimiter(rate.Every(time.Minute/100), 50, 5*time.Minute)
	stopSweeper := make(chan struct{})
	limiter.StartSweeper(stopSweeper)
	defer close(stopSweeper)

	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(zapLogger),
		middleware.SecurityHeaders(),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
		middleware.RateLimitMiddleware(limiter),
		middleware.MetricsMiddleware(metricsClient, serviceName),
	)

	routes.RegisterHealthRoute(r, serviceName)
	routes.RegisterOrderRoutes(r, orderController)
	routes.RegisterStaticFiles(r, cfg.StaticDir)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	zapLogger.Info("Checkout service started",
		zap.String("port", cfg.Port),
		zap.String("paypal_base_url", cfg.PayPalBaseURL),
		zap.String("error_policy", string(cfg.ErrorPolicy)),
		zap.String("pricing_mode", cfg.PricingMode),
	)
	<-quit
	zapLogger.Info("Shutting down checkout service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ProcessorTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	zapLogger.Info("Server exited cleanly")
}

func buildPricer(cfg *config.Config) (pricing.Pricer, error) {
	if cfg.PricingMode != config.PricingModeCatalog {
		return pricing.NewStaticPricer(cfg.Currency), nil
	}
	products, err := pricing.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	return pricing.NewCatalogPricer(cfg.Currency, products)
}

func buildPublisher(cfg *config.Config, awsCfg aws.Config, awsErr error) (events.Publisher, error) {
	switch cfg.EventsBackend {
	case config.EventsBackendSNS:
		if awsErr != nil {
			return nil, awsErr
		}
		return events.NewSNSPublisher(aws_pkg.NewSNSClient(awsCfg), cfg.OrderEventsTopicARN), nil
	case config.EventsBackendKafka:
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return events.NopPublisher{}, nil
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
