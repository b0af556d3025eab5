package main

// @title CommitDB API
// @version 1.0
// @description Weekly sales commitment tracking for education consulting teams.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sashabaranov/go-openai"

	"github.com/edconsult/commitdb/config"
	"github.com/edconsult/commitdb/pkg/aggregation"
	"github.com/edconsult/commitdb/pkg/api/handlers"
	"github.com/edconsult/commitdb/pkg/auth"
	"github.com/edconsult/commitdb/pkg/cache"
	"github.com/edconsult/commitdb/pkg/commitments"
	"github.com/edconsult/commitdb/pkg/email"
	"github.com/edconsult/commitdb/pkg/export"
	"github.com/edconsult/commitdb/pkg/jobs"
	"github.com/edconsult/commitdb/pkg/logger"
	"github.com/edconsult/commitdb/pkg/metrics"
	custommw "github.com/edconsult/commitdb/pkg/middleware"
	"github.com/edconsult/commitdb/pkg/models"
	"github.com/edconsult/commitdb/pkg/narrative"
	"github.com/edconsult/commitdb/pkg/store"
	"github.com/edconsult/commitdb/pkg/usage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("ℹ️  No .env file found, using environment variables")
	}

	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	appLog := logger.New(cfg.LogLevel)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.APIEnvironment,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized")
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Database
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}

	// Redis cache
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// Repositories
	commitmentRepo := store.NewCommitmentRepo(db)
	userRepo := store.NewUserRepo(db)
	usageRepo := store.NewUsageRepo(db)

	// Services
	commitmentService := commitments.NewService(commitmentRepo, redisClient, appLog)
	aggregationService := aggregation.NewService(commitmentRepo, redisClient, appLog)
	usageService := usage.NewService(usageRepo, cfg.AITokenRate)
	exportService := export.NewService(commitmentRepo, cfg.ExportStoragePath, appLog)
	emailService := email.NewService(cfg.EmailFrom, cfg.EmailFromName, cfg.FrontendURL, cfg.SendGridAPIKey)

	var narrativeService *narrative.Service
	if cfg.OpenAIAPIKey != "" {
		narrativeService = narrative.NewService(
			openai.NewClient(cfg.OpenAIAPIKey),
			aggregationService,
			usageService,
			narrative.Config{
				Model:       cfg.OpenAIModel,
				Temperature: float32(cfg.AITemperature),
				MaxTokens:   cfg.AIMaxTokens,
			},
			appLog,
		)
		log.Printf("✅ Narrative service initialized (model: %s)", cfg.OpenAIModel)
	} else {
		log.Printf("⚠️  Narrative service disabled (no OpenAI API key)")
	}

	// JWT blacklist
	tokenBlacklist := auth.NewTokenBlacklist(redisClient)

	// Cron jobs: Monday reminders, Friday stats
	cronManager := jobs.NewCronManager(commitmentRepo, userRepo, emailService, log.Default())
	if err := cronManager.SetupJobs(); err != nil {
		log.Fatalf("❌ Failed to setup cron jobs: %v", err)
	}
	cronManager.Start()

	// Echo
	e := echo.New()
	e.HideBanner = true

	globalRateLimiter := custommw.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	authRateLimiter := custommw.NewRateLimiter(5, 2) // login brute-force guard

	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echomw.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	}

	e.Use(prometheusMetrics.Middleware())
	e.Use(echomw.CORSWithConfig(custommw.CORSConfig(cfg.CORSAllowedOrigins...)))
	e.Use(echomw.Gzip())
	e.Use(custommw.SecurityHeaders(custommw.DefaultSecurityHeadersConfig()))
	e.Use(globalRateLimiter.RateLimitMiddleware())

	// Public endpoints
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "CommitDB API",
			"version":     "1.0.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		dbStatus := "up"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "down"
		}

		redisStatus := "up"
		if _, err := redisClient.Redis.Ping(ctx).Result(); err != nil {
			redisStatus = "down"
		}

		overall := "healthy"
		status := http.StatusOK
		if dbStatus == "down" || redisStatus == "down" {
			overall = "unhealthy"
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, map[string]string{
			"status":   overall,
			"database": dbStatus,
			"cache":    redisStatus,
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, cfg, tokenBlacklist, emailService, prometheusMetrics)
	commitmentHandler := handlers.NewCommitmentHandler(commitmentService, prometheusMetrics)
	analyticsHandler := handlers.NewAnalyticsHandler(aggregationService)
	usageHandler := handlers.NewUsageHandler(usageService)
	exportHandler := handlers.NewExportHandler(exportService, prometheusMetrics)

	v1 := e.Group("/api/v1")

	requireJWT := custommw.JWTMiddlewareWithBlacklist(cfg.JWTSecret, tokenBlacklist)

	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register, authRateLimiter.RateLimitMiddleware())
		authRoutes.POST("/login", authHandler.Login, authRateLimiter.RateLimitMiddleware())
		authRoutes.GET("/me", authHandler.Me, requireJWT)
		authRoutes.POST("/logout", authHandler.Logout, requireJWT)
	}

	protected := v1.Group("", requireJWT)
	{
		commitmentRoutes := protected.Group("/commitments")
		commitmentRoutes.POST("", commitmentHandler.Create)
		commitmentRoutes.GET("", commitmentHandler.List)
		commitmentRoutes.GET("/:id", commitmentHandler.Get)
		commitmentRoutes.PUT("/:id", commitmentHandler.Update)
		commitmentRoutes.POST("/:id/close-admission", commitmentHandler.CloseAdmission)
		commitmentRoutes.DELETE("/:id", commitmentHandler.Delete)

		analyticsRoutes := protected.Group("/analytics")
		analyticsRoutes.GET("/dashboard", analyticsHandler.Dashboard)
		analyticsRoutes.GET("/monthly-trend", analyticsHandler.MonthlyTrend)
		analyticsRoutes.GET("/daily-activity", analyticsHandler.DailyActivity)

		protected.GET("/exports", exportHandler.Download)

		protected.GET("/usage", usageHandler.Summary, custommw.RequireAdmin())

		if narrativeService != nil {
			narrativeHandler := handlers.NewNarrativeHandler(narrativeService, prometheusMetrics)
			protected.POST("/narrative/summary", narrativeHandler.Summarize,
				custommw.RequireRoles(models.RoleAdmin, models.RoleTeamLead))
		}
	}

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 CommitDB API starting on %s", address)
	log.Printf("🔐 JWT expiration: %d hours", cfg.JWTExpirationHours)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d)", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	log.Printf("⏰ Cron jobs: Monday 9AM reminders, Friday 6PM weekly stats")

	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	cronManager.Stop()
	log.Println("✅ Cron jobs stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
