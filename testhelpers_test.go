//go:build integration

package main_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/salonflow/platform/internal/adapter"
	"github.com/salonflow/platform/internal/application"
	"github.com/salonflow/platform/internal/events"
	"github.com/salonflow/platform/internal/repository"
	"github.com/salonflow/platform/pkg/kafka"
	"github.com/salonflow/platform/pkg/retry"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// salonStack holds wired-up booking and payment components against the mock
// Stripe backend.
type salonStack struct {
	Bookings        *application.BookingService
	Payments        *application.PaymentService
	Reconciler      *application.CallbackReconciler
	BookingRepo     *repository.BookingRepositoryImpl
	PaymentRepo     *repository.PaymentRepositoryImpl
	MockStripe      *adapter.MockStripeBackend
	CleanupProducer func()
}

// testCatalog holds the seeded branch, stylist and service rows.
type testCatalog struct {
	BranchID  uuid.UUID
	StylistID uuid.UUID
	ServiceID uuid.UUID
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	// Start PostgreSQL container with log-based wait strategy.
	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_salon",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_salon sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	// Enable uuid-ossp extension and auto-migrate.
	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error)
	require.NoError(t, db.AutoMigrate(
		&repository.BookingModel{},
		&repository.PaymentModel{},
		&repository.BranchModel{},
		&repository.StylistModel{},
		&repository.ServiceModel{},
		&repository.PromoModel{},
		&repository.RedemptionModel{},
	))
	require.NoError(t, repository.EnsureBookingIndexes(db))

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, events.TopicBookingEvents, events.TopicPaymentEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupSalonStack wires up the booking and payment services with a mock
// Stripe backend and a real Kafka producer.
func setupSalonStack(t *testing.T, db *gorm.DB, brokers []string) *salonStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	promoRepo := repository.NewPromoRepository(db)

	mockStripe := adapter.NewMockStripeBackend(logger)
	registry := adapter.NewRegistry(
		adapter.NewStripeProvider(mockStripe, logger),
		adapter.NewVNPayProvider(adapter.VNPayConfig{
			TmnCode:    "TESTTMN",
			HashSecret: "test-secret",
			PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
			ReturnURL:  "https://salon.example/payments/vnpay/return",
		}, logger),
		adapter.NewCashProvider(logger),
	)

	producer := kafka.NewProducer(brokers, logger)
	policy := retry.Policy{Attempts: 2, Delay: 10 * time.Millisecond}

	paymentSvc := application.NewPaymentService(paymentRepo, bookingRepo, registry, producer, policy, logger)
	bookingSvc := application.NewBookingService(bookingRepo, paymentRepo, catalogRepo, promoRepo, registry, nil, producer, policy, logger)
	reconciler := application.NewCallbackReconciler(paymentRepo, bookingRepo, registry, nil, producer, logger)

	return &salonStack{
		Bookings:        bookingSvc,
		Payments:        paymentSvc,
		Reconciler:      reconciler,
		BookingRepo:     bookingRepo,
		PaymentRepo:     paymentRepo,
		MockStripe:      mockStripe,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedCatalog inserts one branch, one active stylist and one service.
func seedCatalog(t *testing.T, db *gorm.DB) testCatalog {
	t.Helper()

	branch := repository.BranchModel{
		ID:      uuid.New(),
		Name:    "Downtown",
		Address: "12 High St",
		Phone:   "+1-555-0101",
	}
	require.NoError(t, db.Create(&branch).Error, "failed to seed branch")

	stylist := repository.StylistModel{
		ID:       uuid.New(),
		BranchID: branch.ID,
		UserID:   uuid.New(),
		Name:     "Alex",
		Active:   true,
	}
	require.NoError(t, db.Create(&stylist).Error, "failed to seed stylist")

	service := repository.ServiceModel{
		ID:         uuid.New(),
		Name:       "Haircut",
		PriceCents: 4500,
	}
	require.NoError(t, db.Create(&service).Error, "failed to seed service")

	return testCatalog{BranchID: branch.ID, StylistID: stylist.ID, ServiceID: service.ID}
}

// newCustomerID stands in for an authenticated customer.
func newCustomerID() uuid.UUID {
	return uuid.New()
}

// nextSlot returns a valid future slot start inside opening hours.
func nextSlot(t *testing.T) time.Time {
	t.Helper()
	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 10, 0, 0, 0, time.UTC)
}

// stripeEventPayload builds a webhook body the mock backend accepts for the
// given event type and payment.
func stripeEventPayload(t *testing.T, eventType string, paymentID uuid.UUID, intentID string) []byte {
	t.Helper()
	event := map[string]interface{}{
		"id":   fmt.Sprintf("evt_mock_%s", uuid.New().String()[:8]),
		"type": eventType,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id": intentID,
				"metadata": map[string]string{
					"payment_id": paymentID.String(),
				},
			},
		},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err, "failed to build stripe event payload")
	return payload
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
