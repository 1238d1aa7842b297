package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agriconnect/service-dashboard/internal/clients"
	"github.com/agriconnect/service-dashboard/internal/config"
	"github.com/agriconnect/service-dashboard/internal/domain/backend"
	"github.com/agriconnect/service-dashboard/internal/events"
	"github.com/agriconnect/service-dashboard/internal/handlers"
	applogger "github.com/agriconnect/service-dashboard/internal/logger"
	"github.com/agriconnect/service-dashboard/internal/middleware"
	"github.com/agriconnect/service-dashboard/internal/repository"
	"github.com/agriconnect/service-dashboard/internal/routes"
	"github.com/agriconnect/service-dashboard/internal/services"
)

func main() {
	// Load .env file in development
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := applogger.NewLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Sentry is optional
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			Release:          cfg.Sentry.Release,
			ServerName:       cfg.App.Name,
			TracesSampleRate: 0.1,
		}); err != nil {
			logger.Warn("Failed to initialize Sentry", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	loc := cfg.App.Location()

	limits := backend.DefaultRateLimitConfig()
	for prefix := range limits.PathLimits {
		limits.PathLimits[prefix] = backend.PathLimit{RPS: cfg.Backend.RateLimitRPS, Burst: cfg.Backend.RateLimitBurst}
	}

	agriClient := clients.NewAgriClient(&clients.AgriClientConfig{
		BaseURL:     cfg.Backend.BaseURL,
		Timeout:     cfg.Backend.Timeout,
		RetryPolicy: backend.DefaultRetryPolicy().WithMaxAttempts(cfg.Backend.MaxAttempts),
		Limiter:     backend.NewRateLimiter(limits),
		Location:    loc,
		Logger:      logger,
	})

	// Redis cache (optional)
	var redisClient *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Failed to connect to Redis, caching disabled", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		} else {
			logger.Info("Connected to Redis", zap.String("addr", addr))
			defer redisClient.Close()
		}
		cancel()
	}
	salesCache := services.NewSalesCache(redisClient, cfg.Cache.TTL, logger)

	identities := services.NewIdentityService(agriClient, redisClient, &services.IdentityServiceConfig{
		TTL:                cfg.Auth.IdentityTTL,
		TrustGatewayUserID: cfg.Auth.TrustGatewayUserID,
	}, logger)
	if cfg.Auth.TrustGatewayUserID {
		logger.Warn("Trusting X-User-ID from the gateway without backend verification")
	}

	// Connect to NATS (optional - only if configured)
	var eventPublisher *events.Publisher
	if cfg.NATS.URL != "" {
		natsConn, err := nats.Connect(cfg.NATS.URL, nats.Name(cfg.App.Name))
		if err != nil {
			logger.Warn("Failed to connect to NATS, events disabled", zap.Error(err))
		} else {
			logger.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
			defer natsConn.Drain()

			eventPublisher = events.NewPublisher(natsConn, logger)
			eventSubscriber := events.NewSubscriber(natsConn, salesCache, logger)
			if err := eventSubscriber.Start(); err != nil {
				logger.Warn("Failed to start event subscriber", zap.Error(err))
			}
			defer eventSubscriber.Stop()
		}
	}

	dashboardService := services.NewDashboardService(
		agriClient,
		agriClient,
		salesCache,
		eventPublisher,
		&services.DashboardServiceConfig{Location: loc},
		logger,
	)

	// Report archive (optional)
	var reportHandler *handlers.ReportHandler
	if cfg.Database.Enabled() {
		db, err := repository.Connect(cfg.Database, logger)
		if err != nil {
			logger.Warn("Failed to connect to database, report archive disabled", zap.Error(err))
		} else {
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			reportService := services.NewReportService(dashboardService, repository.NewReportRepository(db), logger)
			reportHandler = handlers.NewReportHandler(reportService, logger)
		}
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.CORS.Origins()))

	routes.SetupRoutes(router, &routes.RouteConfig{
		DashboardHandler: handlers.NewDashboardHandler(dashboardService, logger),
		SessionHandler:   handlers.NewSessionHandler(dashboardService, logger),
		ReportHandler:    reportHandler,
		Sessions:         identities,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Backend.Timeout*time.Duration(cfg.Backend.MaxAttempts) + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Dashboard service starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
