package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/salonflow/platform/internal/adapter"
	"github.com/salonflow/platform/internal/application"
	"github.com/salonflow/platform/internal/config"
	"github.com/salonflow/platform/internal/handler"
	"github.com/salonflow/platform/internal/repository"
	"github.com/salonflow/platform/pkg/auth"
	"github.com/salonflow/platform/pkg/database"
	"github.com/salonflow/platform/pkg/health"
	"github.com/salonflow/platform/pkg/kafka"
	"github.com/salonflow/platform/pkg/logger"
	"github.com/salonflow/platform/pkg/middleware"
	"github.com/salonflow/platform/pkg/retry"
)

func main() {
	cfg, err := config.Load("api")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewNamed(cfg.AppEnv, "salon-api")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting salon-api", zap.String("port", cfg.Port))

	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	if cfg.AppEnv == "development" {
		err := db.AutoMigrate(
			&repository.BookingModel{},
			&repository.PaymentModel{},
			&repository.BranchModel{},
			&repository.StylistModel{},
			&repository.ServiceModel{},
			&repository.ExternalSessionModel{},
			&repository.CredentialModel{},
			&repository.NotificationModel{},
			&repository.PromoModel{},
			&repository.RedemptionModel{},
		)
		if err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		if err := repository.EnsureBookingIndexes(db); err != nil {
			zapLogger.Fatal("failed to create booking indexes", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	}

	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, zapLogger)
	defer kafkaProducer.Close()

	// Repositories
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	promoRepo := repository.NewPromoRepository(db)
	sessionRepo := repository.NewExternalSessionRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)

	// Payment providers
	stripeBackend := adapter.NewStripeBackend(cfg.StripeConfig)
	stripeProvider := adapter.NewStripeProvider(stripeBackend, zapLogger)
	vnpayProvider := adapter.NewVNPayProvider(cfg.VNPayConfig, zapLogger)
	cashProvider := adapter.NewCashProvider(zapLogger)
	registry := adapter.NewRegistry(stripeProvider, vnpayProvider, cashProvider)

	// Calendar sync is optional; it activates only when OAuth creds exist.
	var calendar application.CalendarSync
	if cfg.GoogleConfig.ClientID != "" {
		calendar = adapter.NewGoogleCalendarSync(cfg.GoogleConfig, credentialRepo, sessionRepo, zapLogger)
	}

	// Application services
	paymentService := application.NewPaymentService(
		paymentRepo, bookingRepo, registry, kafkaProducer, retry.DefaultPolicy, zapLogger,
	)
	reconciler := application.NewCallbackReconciler(
		paymentRepo, bookingRepo, registry, calendar, kafkaProducer, zapLogger,
	)
	bookingService := application.NewBookingService(
		bookingRepo, paymentRepo, catalogRepo, promoRepo, registry, calendar,
		kafkaProducer, retry.DefaultPolicy, zapLogger,
	)
	promoService := application.NewPromoService(promoRepo, zapLogger)
	catalogService := application.NewCatalogService(catalogRepo, zapLogger)

	// HTTP wiring
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	healthHandler := health.NewHandler(db, "salon-api")
	healthHandler.RegisterRoutes(router)

	apiV1 := router.Group("/api/v1")
	handler.NewBookingHandler(bookingService).RegisterRoutes(apiV1, jwtManager)
	handler.NewPaymentHandler(paymentService, reconciler).RegisterRoutes(apiV1, jwtManager)
	handler.NewPromoHandler(promoService).RegisterRoutes(apiV1, jwtManager)
	handler.NewCatalogHandler(catalogService).RegisterRoutes(apiV1)
	handler.NewAdminHandler(paymentService).RegisterRoutes(apiV1, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down salon-api...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("salon-api stopped")
}
