package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/salonflow/platform/internal/adapter"
	"github.com/salonflow/platform/internal/application"
	"github.com/salonflow/platform/internal/config"
	"github.com/salonflow/platform/internal/reminder"
	"github.com/salonflow/platform/internal/repository"
	"github.com/salonflow/platform/pkg/database"
	"github.com/salonflow/platform/pkg/kafka"
	"github.com/salonflow/platform/pkg/logger"
	"github.com/salonflow/platform/pkg/retry"
)

func main() {
	cfg, err := config.Load("reminder")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewNamed(cfg.AppEnv, "salon-reminder")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting salon-reminder")

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

	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, zapLogger)
	defer kafkaProducer.Close()

	// Repositories
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	promoRepo := repository.NewPromoRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// The sweeps reuse the booking lifecycle service so completion and
	// cancellation follow the same rules as the API.
	stripeBackend := adapter.NewStripeBackend(cfg.StripeConfig)
	stripeProvider := adapter.NewStripeProvider(stripeBackend, zapLogger)
	vnpayProvider := adapter.NewVNPayProvider(cfg.VNPayConfig, zapLogger)
	cashProvider := adapter.NewCashProvider(zapLogger)
	registry := adapter.NewRegistry(stripeProvider, vnpayProvider, cashProvider)

	bookingService := application.NewBookingService(
		bookingRepo, paymentRepo, catalogRepo, promoRepo, registry, nil,
		kafkaProducer, retry.DefaultPolicy, zapLogger,
	)

	// Notifications
	notifier := reminder.NewConsoleNotifier(zapLogger)
	dispatcher := reminder.NewDispatcher(notificationRepo, notifier, zapLogger)

	// Task queue
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	}
	taskClient := asynq.NewClient(redisOpt)
	defer taskClient.Close()

	worker := reminder.NewWorker(redisOpt, dispatcher, zapLogger)
	go func() {
		if err := worker.Run(); err != nil {
			zapLogger.Fatal("reminder worker failed", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	})
	go reminder.MonitorRedis(ctx, redisClient, zapLogger)

	// Kafka consumers
	groupID := cfg.KafkaConfig.GroupPrefix + "salon-reminder"
	bookingConsumer := reminder.NewBookingEventConsumer(
		cfg.KafkaConfig.Brokers, groupID, dispatcher, taskClient, zapLogger,
	)
	defer bookingConsumer.Close()
	paymentConsumer := reminder.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers, groupID, dispatcher, bookingRepo, zapLogger,
	)
	defer paymentConsumer.Close()

	go func() {
		zapLogger.Info("starting booking event consumer")
		if err := bookingConsumer.Start(ctx); err != nil && ctx.Err() == nil {
			zapLogger.Error("booking event consumer failed", zap.Error(err))
		}
	}()
	go func() {
		zapLogger.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && ctx.Err() == nil {
			zapLogger.Error("payment event consumer failed", zap.Error(err))
		}
	}()

	// Cron sweeps
	sweeper := reminder.NewSweeper(
		bookingRepo,
		bookingService,
		time.Duration(cfg.StalePendingMinutes)*time.Minute,
		zapLogger,
	)
	if err := sweeper.Start(); err != nil {
		zapLogger.Fatal("failed to schedule sweeps", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down salon-reminder...")
	cancel()
	sweeper.Stop()
	worker.Shutdown()
	zapLogger.Info("salon-reminder stopped")
}
